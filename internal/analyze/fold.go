package analyze

import (
	"errors"

	"veil/internal/ast"
	"veil/internal/compiler"
	"veil/internal/consteval"
	"veil/internal/diag"
	"veil/internal/symbols"
	"veil/internal/types"
)

// folder replaces constant subexpressions with literals. A subtree whose
// evaluation failed is poisoned so that its parents do not report the same
// overflow again.
type folder struct {
	st       *compiler.State
	ev       *consteval.Evaluator
	poisoned map[ast.NodeID]bool
	later    map[symbols.SymbolID]bool // consts waiting for unrolling or mono
	count    int
}

// foldProgram folds the global constants and every function body of the
// main program, and returns the number of replaced nodes.
func foldProgram(st *compiler.State) int {
	f := newFolder(st)
	for _, cd := range st.Program.Consts {
		if !cd.Symbol.IsValid() || cd.Value == nil {
			continue
		}
		cd.Value = f.expr(cd.Value)
		f.bindConst(cd.Meta, cd.Name, cd.Symbol, cd.Value)
	}
	for _, fn := range st.Program.Functions {
		f.fn(fn)
	}
	return f.count
}

// FoldFunc folds one function, such as a fresh generic instance whose
// const parameters became literals.
func FoldFunc(st *compiler.State, fn *ast.FuncDecl) int {
	f := newFolder(st)
	f.fn(fn)
	return f.count
}

func newFolder(st *compiler.State) *folder {
	return &folder{st: st, ev: st.Evaluator(), poisoned: make(map[ast.NodeID]bool), later: make(map[symbols.SymbolID]bool)}
}

func (f *folder) fn(fn *ast.FuncDecl) {
	if fn.Body == nil {
		return
	}
	ast.WalkStmts(fn.Body, func(s *ast.Stmt) bool {
		ast.RewriteStmtExprs(s, f.node)
		if d, ok := s.Data.(ast.ConstData); ok && d.Binding != nil {
			f.bindConst(s.Meta, d.Binding.Name, d.Binding.Symbol, d.Value)
		}
		return true
	})
}

func (f *folder) expr(e *ast.Expr) *ast.Expr {
	return ast.RewriteExpr(e, f.node)
}

// bindConst records the value of a const binding. Its initializer must
// have folded to a literal by now.
func (f *folder) bindConst(m ast.Meta, name string, sym symbols.SymbolID, value *ast.Expr) {
	if value == nil || f.poisoned[value.ID] {
		return
	}
	if f.deferred(value) {
		f.later[sym] = true
		return
	}
	v, err := f.ev.Eval(value)
	if err != nil {
		if !f.report(value, err) {
			f.st.Error(diag.StaConstNotConstant, m, "constant '%s' is not a compile-time constant", name).
				WithNote(value.ReportSpan(), "this value is only known at run time").
				Emit()
		}
		return
	}
	f.st.SetConst(sym, v)
}

// deferred reports values that become constant later: loop variables
// are replaced by unrolling and const parameters by monomorphization.
func (f *folder) deferred(value *ast.Expr) bool {
	found := false
	ast.WalkExpr(value, func(e *ast.Expr) bool {
		id, ok := e.Ident()
		if !ok {
			return !found
		}
		sym := f.st.Symbol(id.Symbol)
		if f.later[id.Symbol] || sym != nil && (sym.Kind == symbols.SymbolLoopVar || sym.Flags&symbols.SymbolFlagConstParam != 0) {
			found = true
		}
		return !found
	})
	return found
}

func (f *folder) node(e *ast.Expr) *ast.Expr {
	for _, c := range ast.ExprChildren(e) {
		if c != nil && f.poisoned[c.ID] {
			f.poisoned[e.ID] = true
			return e
		}
	}
	if !foldable(e) {
		return e
	}
	v, err := f.ev.Eval(e)
	if err != nil {
		if f.report(e, err) {
			f.poisoned[e.ID] = true
		}
		return e
	}
	f.count++
	lit := v.Expr(f.st.Types, e.Derive(""))
	lit.Type = e.Type
	return lit
}

// report turns overflow and division by zero into diagnostics. Other
// failures just mean the expression is not constant.
func (f *folder) report(e *ast.Expr, err error) bool {
	var cerr *consteval.Error
	if !errors.As(err, &cerr) {
		return false
	}
	at := e
	if cerr.Expr != nil {
		at = cerr.Expr
	}
	switch cerr.Kind {
	case consteval.Overflow:
		f.st.Error(diag.StaConstOverflow, at.Meta, "constant expression '%s' overflows: %s", ast.ExprString(at), cerr.Msg).Emit()
	case consteval.DivisionByZero:
		f.st.Error(diag.StaDivisionByZero, at.Meta, "division by zero in '%s'", ast.ExprString(at)).Emit()
	default:
		return false
	}
	return true
}

// foldable limits folding to operator trees and const references; literals
// are already folded and aggregates stay as they are.
func foldable(e *ast.Expr) bool {
	if e.Type == types.NoTypeID {
		return false
	}
	switch e.Data.(type) {
	case ast.UnaryData, ast.BinaryData, ast.TernaryData, ast.CastData, ast.IdentData:
		return true
	}
	return false
}
