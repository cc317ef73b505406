package flatten

import (
	"math/big"

	"veil/internal/ast"
	"veil/internal/consteval"
	"veil/internal/diag"
	"veil/internal/types"
)

// zeroAddress is the address of the group identity, used to fill a
// return value before any return has run.
const zeroAddress = "aleo1qqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqq3ljyzc"

// earlyReturn finds a return other than the last top-level statement.
func earlyReturn(body *ast.Block) *ast.Stmt {
	var last, found *ast.Stmt
	if n := len(body.Stmts); n > 0 {
		last = body.Stmts[n-1]
	}
	ast.WalkStmts(body, func(s *ast.Stmt) bool {
		if found == nil && s.Kind == ast.StmtReturn && s != last {
			found = s
		}
		return found == nil
	})
	return found
}

// setupEarly declares ret$flag and ret$val. It reports FLT6001 and
// returns false when the result type has no placeholder.
func (f *flattener) setupEarly(at *ast.Stmt) bool {
	meta := f.fn.Body.Meta
	var placeholder *ast.Expr
	if t := f.resultType(); t != types.NoTypeID {
		p, bad := f.placeholder(t, meta)
		if p == nil {
			f.st.Error(diag.FltNoPlaceholder, f.fn.Meta, "'%s' returns before its last statement, but %s has no placeholder value", f.fn.Name, types.Label(f.in, bad)).
				WithNote(at.ReportSpan(), "early return here").
				Emit()
			return false
		}
		placeholder = p
	}
	r := &early{flag: f.st.TempSymbol(f.fn.Scope, "ret$flag", f.boolT, f.fn.Span)}
	f.emit(f.letStmt(r.flag, f.boolLit(false, meta), meta))
	if placeholder != nil {
		r.val = f.st.TempSymbol(f.fn.Scope, "ret$val", placeholder.Type, f.fn.Span)
		f.emit(f.letStmt(r.val, placeholder, meta))
	}
	f.ret = r
	return true
}

func (f *flattener) resultType() types.TypeID {
	switch len(f.fn.Outputs) {
	case 0:
		return types.NoTypeID
	case 1:
		return f.fn.Outputs[0].Type.Resolved
	}
	elems := make([]types.TypeID, len(f.fn.Outputs))
	for i, o := range f.fn.Outputs {
		elems[i] = o.Type.Resolved
	}
	return f.in.Tuple(elems)
}

// exit flattens a return. Without early returns it can only be the last
// statement and stays as it is.
func (f *flattener) exit(s *ast.Stmt, d ast.ReturnData) {
	d.Value = f.expr(d.Value)
	if f.ret == nil {
		s.Data = d
		f.emit(s)
		return
	}
	var g *ast.Expr
	if f.ctx != nil {
		g = f.branchGuard(f.ctx, s.Meta)
	}
	if f.ret.val.IsValid() && d.Value != nil {
		live := f.and(g, f.not(f.flag(s.Meta), s.Meta), s.Meta)
		value := f.sel(live, d.Value, f.ident(f.ret.val, s.Meta), f.st.BindingType(f.ret.val), s.Meta)
		f.emit(f.assignStmt(f.ret.val, value, s.Meta))
	}
	taken := f.boolLit(true, s.Meta)
	if g != nil {
		taken = f.binary(ast.OpOr, f.flag(s.Meta), f.copyGuard(g, s.Meta), s.Meta)
	}
	f.emit(f.assignStmt(f.ret.flag, taken, s.Meta))
	f.ret.seen = true
}

// tailReturn flattens the last top-level return of a function that also
// returns earlier: the earlier result wins when the flag is set.
func (f *flattener) tailReturn(s *ast.Stmt, d ast.ReturnData) {
	d.Value = f.expr(d.Value)
	if f.ret.val.IsValid() && d.Value != nil {
		d.Value = f.sel(f.flag(s.Meta), f.ident(f.ret.val, s.Meta), d.Value, f.st.BindingType(f.ret.val), s.Meta)
	}
	s.Data = d
	f.emit(s)
}

func (f *flattener) retValue(at ast.Meta) *ast.Expr {
	if !f.ret.val.IsValid() {
		return nil
	}
	return f.ident(f.ret.val, at)
}

// placeholder builds the zero value of t. When t has none it returns nil
// and the offending type.
func (f *flattener) placeholder(t types.TypeID, at ast.Meta) (*ast.Expr, types.TypeID) {
	tt, ok := f.in.Lookup(t)
	if !ok {
		return nil, t
	}
	meta := at.Derive("")
	switch tt.Kind {
	case types.KindBool:
		return consteval.BoolValue(t, false).Expr(f.in, meta), types.NoTypeID
	case types.KindInt, types.KindUint, types.KindField, types.KindGroup, types.KindScalar:
		return consteval.IntValue(tt.Kind, t, new(big.Int)).Expr(f.in, meta), types.NoTypeID
	case types.KindAddress:
		return consteval.Value{Kind: types.KindAddress, Type: t, Addr: zeroAddress}.Expr(f.in, meta), types.NoTypeID
	case types.KindTuple:
		elems, _ := f.in.TupleElems(t)
		out := make([]*ast.Expr, len(elems))
		for i, el := range elems {
			e, bad := f.placeholder(el, at)
			if e == nil {
				return nil, bad
			}
			out[i] = e
		}
		return &ast.Expr{Meta: meta, Kind: ast.ExprTupleLit, Type: t, Data: ast.TupleLitData{Elems: out}}, types.NoTypeID
	case types.KindArray:
		if tt.Len != types.NoTypeID || tt.Count == 0 {
			return nil, t
		}
		out := make([]*ast.Expr, tt.Count)
		for i := range out {
			e, bad := f.placeholder(tt.Elem, at)
			if e == nil {
				return nil, bad
			}
			out[i] = e
		}
		return &ast.Expr{Meta: meta, Kind: ast.ExprArrayLit, Type: t, Data: ast.ArrayLitData{Elems: out}}, types.NoTypeID
	case types.KindStruct:
		info, _ := f.in.StructInfo(t)
		fields := f.in.StructFields(t)
		inits := make([]*ast.FieldInit, len(fields))
		for i, fd := range fields {
			e, bad := f.placeholder(fd.Type, at)
			if e == nil {
				return nil, bad
			}
			inits[i] = &ast.FieldInit{Meta: at.Derive(""), Name: fd.Name, Value: e}
		}
		d := ast.StructLitData{Name: info.Name, Program: info.Program, Fields: inits, Symbol: info.Symbol}
		return &ast.Expr{Meta: meta, Kind: ast.ExprStructLit, Type: t, Data: d}, types.NoTypeID
	}
	return nil, t
}
