package mono

import (
	"errors"

	"veil/internal/ast"
	"veil/internal/compiler"
	"veil/internal/symbols"
	"veil/internal/types"
)

// Verify checks that monomorphization left nothing generic behind: no
// generic function, no call still carrying generic arguments and no
// expression or signature type mentioning a type parameter.
func Verify(st *compiler.State) error {
	var errs []error
	in := st.Types
	generic := func(id types.TypeID) bool {
		return id != types.NoTypeID && in.ContainsGeneric(id)
	}
	for _, fn := range st.Program.Functions {
		if fn.IsGeneric() {
			errs = append(errs, compiler.Internal("mono", fn.Meta, "function '%s' is still generic", fn.Name))
			continue
		}
		for _, p := range fn.Params {
			if p.Type != nil && generic(p.Type.Resolved) {
				errs = append(errs, compiler.Internal("mono", p.Meta, "parameter '%s' of '%s' has generic type %s", p.Name, fn.Name, types.Label(in, p.Type.Resolved)))
			}
		}
		for _, o := range fn.Outputs {
			if o.Type != nil && generic(o.Type.Resolved) {
				errs = append(errs, compiler.Internal("mono", o.Meta, "output of '%s' has generic type %s", fn.Name, types.Label(in, o.Type.Resolved)))
			}
		}
		ast.WalkBlockExprs(fn.Body, func(e *ast.Expr) bool {
			if generic(e.Type) {
				errs = append(errs, compiler.Internal("mono", e.Meta, "'%s' in '%s' has generic type %s", ast.ExprString(e), fn.Name, types.Label(in, e.Type)))
			}
			if d, ok := e.Data.(ast.CallData); ok && len(d.TypeArgs) > 0 {
				if sym := st.Symbol(d.Symbol); sym != nil && sym.Flags&symbols.SymbolFlagImported == 0 {
					errs = append(errs, compiler.Internal("mono", e.Meta, "call to '%s' in '%s' was not instantiated", d.Callee, fn.Name))
				}
			}
			return true
		})
	}
	return errors.Join(errs...)
}
