package flatten

import (
	"veil/internal/ast"
	"veil/internal/consteval"
	"veil/internal/symbols"
	"veil/internal/types"
)

// Nodes built here derive their meta from the statement being flattened,
// so diagnostics about generated code point back at the source.

func (f *flattener) ident(sym symbols.SymbolID, at ast.Meta) *ast.Expr {
	return &ast.Expr{
		Meta: at.Derive(""),
		Kind: ast.ExprIdent,
		Type: f.st.BindingType(sym),
		Data: ast.IdentData{Name: f.st.Name(sym), Symbol: sym},
	}
}

func (f *flattener) flag(at ast.Meta) *ast.Expr {
	return f.ident(f.ret.flag, at)
}

// copyAtom duplicates a literal or variable read; a node never appears
// twice in a tree.
func (f *flattener) copyAtom(v *ast.Expr, at ast.Meta) *ast.Expr {
	return &ast.Expr{Meta: at.Derive(""), Kind: v.Kind, Type: v.Type, Data: v.Data}
}

func (f *flattener) boolLit(v bool, at ast.Meta) *ast.Expr {
	return consteval.BoolValue(f.boolT, v).Expr(f.in, at.Derive(""))
}

// not negates x. A double negation collapses to a copy of the inner
// atom; x itself is never reused.
func (f *flattener) not(x *ast.Expr, at ast.Meta) *ast.Expr {
	if d, ok := x.Data.(ast.UnaryData); ok && d.Op == ast.UnaryNot && d.Operand.IsAtom() {
		return f.copyAtom(d.Operand, at)
	}
	return &ast.Expr{Meta: at.Derive(""), Kind: ast.ExprUnary, Type: f.boolT, Data: ast.UnaryData{Op: ast.UnaryNot, Operand: x}}
}

// binary builds a boolean-valued operation.
func (f *flattener) binary(op ast.BinaryOp, l, r *ast.Expr, at ast.Meta) *ast.Expr {
	return &ast.Expr{Meta: at.Derive(""), Kind: ast.ExprBinary, Type: f.boolT, Data: ast.BinaryData{Op: op, Left: l, Right: r}}
}

// and conjoins two conditions; nil stands for true.
func (f *flattener) and(x, y *ast.Expr, at ast.Meta) *ast.Expr {
	switch {
	case x == nil:
		return y
	case y == nil:
		return x
	}
	return f.binary(ast.OpAnd, x, y, at)
}

func (f *flattener) sel(c, then, els *ast.Expr, t types.TypeID, at ast.Meta) *ast.Expr {
	return &ast.Expr{Meta: at.Derive(""), Kind: ast.ExprSelect, Type: t, Data: ast.SelectData{Cond: c, Then: then, Else: els}}
}

// cheap reports values that may be repeated instead of spilled.
func cheap(e *ast.Expr) bool {
	if d, ok := e.Data.(ast.UnaryData); ok && d.Op == ast.UnaryNot {
		return d.Operand.IsAtom()
	}
	return e.IsAtom()
}

func (f *flattener) letStmt(sym symbols.SymbolID, value *ast.Expr, at ast.Meta) *ast.Stmt {
	b := &ast.Binding{Meta: at.Derive(""), Name: f.st.Name(sym), Symbol: sym}
	return &ast.Stmt{Meta: at.Derive(""), Kind: ast.StmtLet, Data: ast.LetData{Bindings: []*ast.Binding{b}, Value: value}}
}

func (f *flattener) assignStmt(sym symbols.SymbolID, value *ast.Expr, at ast.Meta) *ast.Stmt {
	return &ast.Stmt{Meta: at.Derive(""), Kind: ast.StmtAssign, Data: ast.AssignData{Target: f.ident(sym, at), Value: value}}
}

func (f *flattener) returnStmt(value *ast.Expr, at ast.Meta) *ast.Stmt {
	return &ast.Stmt{Meta: at.Derive(""), Kind: ast.StmtReturn, Data: ast.ReturnData{Value: value}}
}
