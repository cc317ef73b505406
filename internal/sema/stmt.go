package sema

import (
	"veil/internal/ast"
	"veil/internal/diag"
	"veil/internal/symbols"
	"veil/internal/types"
)

func (f *fnChecker) block(b *ast.Block) {
	if b == nil {
		return
	}
	for _, s := range b.Stmts {
		f.stmt(s)
	}
}

func (f *fnChecker) stmt(s *ast.Stmt) {
	switch d := s.Data.(type) {
	case ast.LetData:
		f.let(s, d)
	case ast.ConstData:
		t := f.resolveType(d.Type)
		vt := f.want(d.Value, t, false)
		if t == types.NoTypeID {
			t = vt
		}
		f.bind(d.Binding.Symbol, t)
	case ast.AssignData:
		f.assign(s, d)
	case ast.ExprStmtData:
		t := f.check(d.Value, types.NoTypeID, true)
		if f.isFuture(t) {
			f.errorf(diag.TypFutureMisuse, d.Value.Meta, "the Future of this call must be bound with let or returned")
		}
		if d.Guard != nil {
			f.want(d.Guard, f.b.Bool, false)
		}
	case ast.ReturnData:
		f.ret(s, d)
	case ast.IfData:
		f.want(d.Cond, f.b.Bool, false)
		f.block(d.Then)
		f.block(d.Else)
	case ast.ForData:
		f.loop(s, d)
	case ast.BlockStmtData:
		f.block(d.Block)
	case ast.AssertData:
		if d.Kind == ast.AssertTrue {
			f.want(d.Left, f.b.Bool, false)
			return
		}
		l, r := f.peer(d.Left, d.Right, types.NoTypeID)
		if l != types.NoTypeID && r != types.NoTypeID && l != r {
			f.errorf(diag.TypMismatch, s.Meta, "%s compares %s with %s", d.Kind, f.label(l), f.label(r))
		}
	}
}

func (f *fnChecker) let(s *ast.Stmt, d ast.LetData) {
	t := f.resolveType(d.Type)
	if len(d.Bindings) == 1 {
		vt := f.want(d.Value, t, true)
		if t == types.NoTypeID {
			t = vt
		}
		f.bind(d.Bindings[0].Symbol, t)
		return
	}
	vt := f.want(d.Value, t, true)
	elems, ok := f.in.TupleElems(vt)
	if vt != types.NoTypeID && (!ok || len(elems) != len(d.Bindings)) {
		f.errorf(diag.TypMismatch, s.Meta, "cannot destructure %s into %d names", f.label(vt), len(d.Bindings))
		elems = nil
	}
	for i, b := range d.Bindings {
		bt := types.NoTypeID
		if i < len(elems) {
			bt = elems[i]
		}
		f.bind(b.Symbol, bt)
	}
}

func (f *fnChecker) assign(s *ast.Stmt, d ast.AssignData) {
	id, ok := d.Target.Ident()
	if !ok {
		f.errorf(diag.TypInvalidAssignTarget, d.Target.Meta, "only local variables can be assigned")
		f.expr(d.Value, types.NoTypeID)
		return
	}
	sym := f.st.Symbol(id.Symbol)
	if sym == nil {
		if !isUntyped(d.Value) {
			f.expr(d.Value, types.NoTypeID)
		}
		return
	}
	if sym.Kind != symbols.SymbolLet && sym.Kind != symbols.SymbolParam {
		f.errorf(diag.TypInvalidAssignTarget, d.Target.Meta, "cannot assign to %s '%s'", sym.Kind, id.Name)
		if !isUntyped(d.Value) {
			f.expr(d.Value, types.NoTypeID)
		}
		return
	}
	tt := f.expr(d.Target, types.NoTypeID)
	if d.Op == ast.OpNone {
		f.want(d.Value, tt, false)
		return
	}
	rexp := tt
	switch d.Op {
	case ast.OpShl, ast.OpShr, ast.OpPow:
		rexp = f.b.U32
	}
	vt := f.expr(d.Value, rexp)
	if res := f.operator(s.Meta, d.Op, tt, vt); res != types.NoTypeID {
		f.assignable(s.Meta, tt, res)
	}
}

func (f *fnChecker) ret(s *ast.Stmt, d ast.ReturnData) {
	if f.sig == nil {
		return
	}
	switch {
	case d.Value == nil && len(f.sig.outputs) > 0:
		f.errorf(diag.TypMismatch, s.Meta, "missing return value of type %s", f.label(f.sig.result))
	case d.Value != nil && len(f.sig.outputs) == 0:
		f.errorf(diag.TypMismatch, d.Value.Meta, "'%s' has no outputs", f.fn.Name)
		if !isUntyped(d.Value) {
			f.expr(d.Value, types.NoTypeID)
		}
	case d.Value != nil:
		f.want(d.Value, f.sig.result, f.fn.Variant == ast.VariantAsyncTransition)
	}
}

func (f *fnChecker) loop(s *ast.Stmt, d ast.ForData) {
	t := f.resolveType(d.VarType)
	if t == types.NoTypeID && d.VarType == nil {
		l, r := f.peer(d.Start, d.End, types.NoTypeID)
		if l != r && l != types.NoTypeID && r != types.NoTypeID {
			f.errorf(diag.TypMismatch, s.Meta, "loop bounds have different types: %s and %s", f.label(l), f.label(r))
		}
		t = l
	} else {
		f.want(d.Start, t, false)
		f.want(d.End, t, false)
	}
	if t != types.NoTypeID && !f.in.MustLookup(t).IsInteger() {
		f.errorf(diag.TypMismatch, s.Meta, "loop variable must be an integer, found %s", f.label(t))
		t = types.NoTypeID
	}
	f.bind(d.Var.Symbol, t)
	f.block(d.Body)
}
