package flatten

import (
	"errors"

	"veil/internal/ast"
	"veil/internal/compiler"
)

// Verify checks that every body is straight-line: no branch, loop, nested
// block or ternary, and a return only as the last statement.
func Verify(st *compiler.State) error {
	var errs []error
	for _, fn := range st.Program.Functions {
		if fn.Body == nil {
			continue
		}
		last := len(fn.Body.Stmts) - 1
		for i, s := range fn.Body.Stmts {
			switch s.Kind {
			case ast.StmtIf, ast.StmtFor, ast.StmtBlock:
				errs = append(errs, compiler.Internal("flatten", s.Meta, "%s statement left in '%s'", s.Kind, fn.Name))
			case ast.StmtReturn:
				if i != last {
					errs = append(errs, compiler.Internal("flatten", s.Meta, "return before the end of '%s'", fn.Name))
				}
			}
			for _, e := range ast.StmtExprs(s) {
				ast.WalkExpr(e, func(x *ast.Expr) bool {
					if x.Kind == ast.ExprTernary {
						errs = append(errs, compiler.Internal("flatten", x.Meta, "ternary '%s' left in '%s'", ast.ExprString(x), fn.Name))
					}
					return true
				})
			}
		}
	}
	return errors.Join(errs...)
}
