package unroll

import (
	"veil/internal/ast"
	"veil/internal/compiler"
	"veil/internal/symbols"
)

// paramDeps tracks which consts of a generic body derive from its const
// parameters. A nil *paramDeps depends on nothing.
type paramDeps struct {
	st      *compiler.State
	derived map[symbols.SymbolID]bool
}

func newParamDeps(st *compiler.State) *paramDeps {
	return &paramDeps{st: st, derived: make(map[symbols.SymbolID]bool)}
}

// note records a const statement whose value reads a parameter.
func (p *paramDeps) note(s *ast.Stmt) {
	if p == nil {
		return
	}
	if d, ok := s.Data.(ast.ConstData); ok && d.Binding != nil && p.reads(d.Value) {
		p.derived[d.Binding.Symbol] = true
	}
}

// bounds reports whether either bound of a loop waits for a const argument.
func (p *paramDeps) bounds(d ast.ForData) bool {
	if p == nil {
		return false
	}
	return p.reads(d.Start) || p.reads(d.End)
}

func (p *paramDeps) reads(e *ast.Expr) bool {
	found := false
	ast.WalkExpr(e, func(x *ast.Expr) bool {
		id, ok := x.Ident()
		if !ok {
			return !found
		}
		if p.derived[id.Symbol] {
			found = true
		} else if sym := p.st.Symbol(id.Symbol); sym != nil && (sym.Kind == symbols.SymbolGeneric || sym.Flags&symbols.SymbolFlagConstParam != 0) {
			found = true
		}
		return !found
	})
	return found
}
