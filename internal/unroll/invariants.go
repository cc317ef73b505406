package unroll

import (
	"errors"

	"veil/internal/ast"
	"veil/internal/compiler"
)

// Verify checks that no loop survived unrolling, except loops of generic
// functions whose bounds wait for const arguments.
func Verify(st *compiler.State) error {
	var errs []error
	for _, fn := range st.Program.Functions {
		if fn.Body == nil {
			continue
		}
		var deps *paramDeps
		if fn.IsGeneric() {
			deps = newParamDeps(st)
		}
		ast.WalkStmts(fn.Body, func(s *ast.Stmt) bool {
			deps.note(s)
			d, ok := s.Data.(ast.ForData)
			if !ok {
				return true
			}
			if !deps.bounds(d) {
				errs = append(errs, compiler.Internal("unroll", s.Meta, "loop left in '%s'", fn.Name))
			}
			return false
		})
	}
	return errors.Join(errs...)
}
