package sema

import (
	"errors"

	"fortio.org/safecast"

	"veil/internal/ast"
	"veil/internal/consteval"
	"veil/internal/diag"
	"veil/internal/symbols"
	"veil/internal/types"
)

// expr types e. exp is the type the context expects, NoTypeID when the
// context says nothing; it only guides literals and inference, callers
// compare the result themselves (see want).
func (f *fnChecker) expr(e *ast.Expr, exp types.TypeID) types.TypeID {
	return f.check(e, exp, false)
}

// want types e against an expected type and reports a mismatch.
func (f *fnChecker) want(e *ast.Expr, exp types.TypeID, future bool) types.TypeID {
	got := f.check(e, exp, future)
	if exp == types.NoTypeID {
		return got
	}
	f.assignable(e.Meta, exp, got)
	return exp
}

func (f *fnChecker) assignable(m ast.Meta, want, got types.TypeID) bool {
	if want == types.NoTypeID || got == types.NoTypeID || want == got {
		return true
	}
	f.errorf(diag.TypMismatch, m, "expected %s, found %s", f.label(want), f.label(got))
	return false
}

// check is expr with control over Futures: they are legal only where the
// caller says so (let values, async call arguments, async transition
// returns and await operands).
func (f *fnChecker) check(e *ast.Expr, exp types.TypeID, future bool) types.TypeID {
	if e == nil {
		return types.NoTypeID
	}
	if exp == types.NoTypeID && isUntyped(e) {
		f.errorf(diag.TypCannotInferLiteral, e.Meta, "cannot infer the type of '%s'; add a type suffix such as 'u32'", ast.ExprString(e))
		e.Type = types.NoTypeID
		return types.NoTypeID
	}
	t := f.typeOf(e, exp, future)
	if !future && f.isFuture(t) {
		f.errorf(diag.TypFutureMisuse, e.Meta, "a Future can only be bound with let, passed to an async function, returned from an async transition or awaited")
		t = types.NoTypeID
	}
	e.Type = t
	return t
}

// isUntyped reports expressions whose type comes entirely from context:
// unsuffixed integer literals and arithmetic over them.
func isUntyped(e *ast.Expr) bool {
	switch d := e.Data.(type) {
	case ast.LiteralData:
		return d.Kind == ast.LitInt && d.Suffix == ""
	case ast.UnaryData:
		return isUntyped(d.Operand)
	case ast.BinaryData:
		switch d.Op {
		case ast.OpAnd, ast.OpOr, ast.OpEq, ast.OpNe, ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe:
			return false
		case ast.OpShl, ast.OpShr, ast.OpPow:
			return isUntyped(d.Left)
		}
		return isUntyped(d.Left) && isUntyped(d.Right)
	case ast.TernaryData:
		return isUntyped(d.Then) && isUntyped(d.Else)
	}
	return false
}

func (f *fnChecker) typeOf(e *ast.Expr, exp types.TypeID, future bool) types.TypeID {
	switch d := e.Data.(type) {
	case ast.LiteralData:
		return f.literal(e, d, exp, false)
	case ast.IdentData:
		return f.ident(e, d)
	case ast.UnaryData:
		return f.unary(e, d, exp)
	case ast.BinaryData:
		return f.binary(e, d, exp)
	case ast.TernaryData:
		return f.choice(e, d.Cond, d.Then, d.Else, exp)
	case ast.SelectData:
		return f.choice(e, d.Cond, d.Then, d.Else, exp)
	case ast.CallData:
		return f.call(e, d, exp)
	case ast.CastData:
		return f.cast(e, d)
	case ast.StructLitData:
		return f.structLit(e, d, exp)
	case ast.MemberData:
		return f.member(e, d)
	case ast.TupleLitData:
		return f.tupleLit(d, exp, future)
	case ast.TupleAccessData:
		return f.tupleAccess(e, d)
	case ast.ArrayLitData:
		return f.arrayLit(e, d, exp)
	case ast.IndexData:
		return f.index(e, d)
	case ast.MappingOpData:
		return f.mappingOp(e, d)
	case ast.AwaitData:
		return f.await(e, d)
	case ast.ContextData:
		if d.Kind == ast.ContextHeight {
			return f.b.U32
		}
		return f.b.Address
	}
	return types.NoTypeID
}

func (f *fnChecker) literal(e *ast.Expr, d ast.LiteralData, exp types.TypeID, negate bool) types.TypeID {
	switch d.Kind {
	case ast.LitBool:
		return f.b.Bool
	case ast.LitAddress:
		return f.b.Address
	}
	ty, ok := consteval.SuffixType(f.in, d.Suffix)
	if !ok {
		tt, _ := f.in.Lookup(exp)
		if !tt.IsNumeric() {
			f.errorf(diag.TypMismatch, e.Meta, "expected %s, found integer literal", f.label(exp))
			return types.NoTypeID
		}
		ty = exp
	}
	if !f.checkWidth(e.Meta, ty) {
		return types.NoTypeID
	}
	if _, err := consteval.ParseLiteral(f.in, d, ty, negate); err != nil {
		var cerr *consteval.Error
		if errors.As(err, &cerr) && cerr.Kind == consteval.Overflow {
			sign := ""
			if negate {
				sign = "-"
			}
			f.errorf(diag.TypLiteralOutOfRange, e.Meta, "literal %s%s does not fit in %s", sign, d.Text, f.label(ty))
		} else {
			f.errorf(diag.TypLiteralOutOfRange, e.Meta, "%v", err)
		}
		return types.NoTypeID
	}
	return ty
}

func (f *fnChecker) ident(e *ast.Expr, d ast.IdentData) types.TypeID {
	sym := f.st.Symbol(d.Symbol)
	if sym == nil {
		return types.NoTypeID
	}
	switch sym.Kind {
	case symbols.SymbolMapping:
		f.errorf(diag.TypMismatch, e.Meta, "mapping '%s' is only accessible through get, get_or_use, set, remove and contains", d.Name)
		return types.NoTypeID
	case symbols.SymbolFunction:
		f.errorf(diag.TypMismatch, e.Meta, "function '%s' cannot be used as a value", d.Name)
		return types.NoTypeID
	case symbols.SymbolGeneric:
		if sym.Flags&symbols.SymbolFlagConstParam == 0 {
			f.errorf(diag.TypMismatch, e.Meta, "type parameter '%s' cannot be used as a value", d.Name)
			return types.NoTypeID
		}
	}
	return f.bindingType(d.Symbol)
}

func (f *fnChecker) unary(e *ast.Expr, d ast.UnaryData, exp types.TypeID) types.TypeID {
	var x types.TypeID
	if lit, ok := d.Operand.Literal(); ok && d.Op == ast.UnaryNeg && lit.Kind == ast.LitInt {
		x = f.literal(d.Operand, lit, exp, true)
		d.Operand.Type = x
	} else {
		x = f.expr(d.Operand, exp)
	}
	if x == types.NoTypeID {
		return types.NoTypeID
	}
	tt := f.in.MustLookup(x)
	switch d.Op {
	case ast.UnaryNeg:
		switch tt.Kind {
		case types.KindInt, types.KindField, types.KindGroup:
			return x
		}
	case ast.UnaryNot:
		switch tt.Kind {
		case types.KindBool, types.KindInt, types.KindUint:
			return x
		}
	}
	f.errorf(diag.TypInvalidOperator, e.Meta, "operator '%s' is not defined for %s", d.Op, f.label(x))
	return types.NoTypeID
}

func (f *fnChecker) binary(e *ast.Expr, d ast.BinaryData, exp types.TypeID) types.TypeID {
	switch d.Op {
	case ast.OpAnd, ast.OpOr:
		l := f.want(d.Left, f.b.Bool, false)
		r := f.want(d.Right, f.b.Bool, false)
		if l == types.NoTypeID || r == types.NoTypeID {
			return types.NoTypeID
		}
		return f.b.Bool
	case ast.OpShl, ast.OpShr, ast.OpPow:
		l := f.expr(d.Left, exp)
		r := f.expr(d.Right, f.b.U32)
		return f.operator(e.Meta, d.Op, l, r)
	}
	opExp := exp
	if d.Op.IsComparison() {
		opExp = types.NoTypeID
	}
	l, r := f.peer(d.Left, d.Right, opExp)
	return f.operator(e.Meta, d.Op, l, r)
}

// peer types two operands that must agree: an untyped side takes the type
// of the other one.
func (f *fnChecker) peer(a, b *ast.Expr, exp types.TypeID) (types.TypeID, types.TypeID) {
	if isUntyped(a) && !isUntyped(b) {
		rt := f.expr(b, exp)
		if rt == types.NoTypeID {
			rt = exp
		}
		if rt == types.NoTypeID {
			a.Type = types.NoTypeID
			return types.NoTypeID, types.NoTypeID
		}
		return f.expr(a, rt), rt
	}
	lt := f.expr(a, exp)
	hint := lt
	if hint == types.NoTypeID {
		hint = exp
	}
	if isUntyped(b) && hint == types.NoTypeID {
		// a already failed; do not report the same literal twice
		b.Type = types.NoTypeID
		return lt, types.NoTypeID
	}
	return lt, f.expr(b, hint)
}

// operator validates op over operand types l and r and returns the
// result type.
func (f *fnChecker) operator(m ast.Meta, op ast.BinaryOp, l, r types.TypeID) types.TypeID {
	if l == types.NoTypeID || r == types.NoTypeID {
		return types.NoTypeID
	}
	lt, rt := f.in.MustLookup(l), f.in.MustLookup(r)
	switch op {
	case ast.OpShl, ast.OpShr, ast.OpPow:
		if rt.Kind != types.KindUint || rt.Width > types.Width32 {
			f.errorf(diag.TypInvalidOperator, m, "right operand of '%s' must be u8, u16 or u32, found %s", op, f.label(r))
			return types.NoTypeID
		}
		if lt.IsInteger() || (op == ast.OpPow && lt.Kind == types.KindField) {
			return l
		}
		return f.badOperand(m, op, l)
	case ast.OpMul:
		if lt.Kind == types.KindGroup && rt.Kind == types.KindScalar {
			return l
		}
		if lt.Kind == types.KindScalar && rt.Kind == types.KindGroup {
			return r
		}
	}
	if l != r {
		f.errorf(diag.TypMismatch, m, "mismatched types %s and %s in '%s'", f.label(l), f.label(r), op)
		return types.NoTypeID
	}
	switch op {
	case ast.OpAdd, ast.OpSub:
		if lt.IsNumeric() {
			return l
		}
	case ast.OpMul, ast.OpDiv:
		if lt.IsInteger() || lt.Kind == types.KindField {
			return l
		}
	case ast.OpRem:
		if lt.IsInteger() {
			return l
		}
	case ast.OpBitAnd, ast.OpBitOr, ast.OpBitXor:
		if lt.IsInteger() || lt.Kind == types.KindBool {
			return l
		}
	case ast.OpEq, ast.OpNe:
		switch lt.Kind {
		case types.KindFuture, types.KindMapping, types.KindUnit:
		default:
			return f.b.Bool
		}
	case ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe:
		if lt.IsInteger() || lt.Kind == types.KindField || lt.Kind == types.KindScalar {
			return f.b.Bool
		}
	}
	return f.badOperand(m, op, l)
}

func (f *fnChecker) badOperand(m ast.Meta, op ast.BinaryOp, t types.TypeID) types.TypeID {
	f.errorf(diag.TypInvalidOperator, m, "operator '%s' is not defined for %s", op, f.label(t))
	return types.NoTypeID
}

func (f *fnChecker) choice(e *ast.Expr, cond, then, els *ast.Expr, exp types.TypeID) types.TypeID {
	f.want(cond, f.b.Bool, false)
	l, r := f.peer(then, els, exp)
	if l == types.NoTypeID || r == types.NoTypeID {
		return types.NoTypeID
	}
	if l != r {
		f.errorf(diag.TypMismatch, e.Meta, "branches have different types: %s and %s", f.label(l), f.label(r))
		return types.NoTypeID
	}
	return l
}

func (f *fnChecker) cast(e *ast.Expr, d ast.CastData) types.TypeID {
	target := f.resolveType(d.Target)
	exp := types.NoTypeID
	if tt, ok := f.in.Lookup(target); ok && tt.IsNumeric() {
		exp = target
	}
	src := f.expr(d.Value, exp)
	if target == types.NoTypeID || src == types.NoTypeID {
		return types.NoTypeID
	}
	st, tt := f.in.MustLookup(src), f.in.MustLookup(target)
	ok := st.IsPrimitive() && tt.IsPrimitive()
	if ok && (st.Kind == types.KindAddress || tt.Kind == types.KindAddress) {
		// addresses convert only to and from fields
		ok = st.Kind == tt.Kind || st.Kind == types.KindField || tt.Kind == types.KindField
	}
	if !ok {
		f.errorf(diag.TypInvalidCast, e.Meta, "cannot cast %s to %s", f.label(src), f.label(target))
		return types.NoTypeID
	}
	return target
}

func (f *fnChecker) member(e *ast.Expr, d ast.MemberData) types.TypeID {
	t := f.expr(d.Target, types.NoTypeID)
	if t == types.NoTypeID {
		return types.NoTypeID
	}
	if f.in.Kind(t) != types.KindStruct {
		f.errorf(diag.TypUnknownMember, e.Meta, "%s has no member '%s'", f.label(t), d.Name)
		return types.NoTypeID
	}
	ft, ok := f.in.FieldType(t, d.Name)
	if !ok {
		f.errorf(diag.TypUnknownMember, e.Meta, "'%s' has no member '%s'", f.label(t), d.Name)
		return types.NoTypeID
	}
	return ft
}

func (f *fnChecker) tupleLit(d ast.TupleLitData, exp types.TypeID, future bool) types.TypeID {
	expElems, _ := f.in.TupleElems(exp)
	if len(expElems) != len(d.Elems) {
		expElems = nil
	}
	elems := make([]types.TypeID, len(d.Elems))
	ok := true
	for i, el := range d.Elems {
		var want types.TypeID
		if expElems != nil {
			want = expElems[i]
		}
		elems[i] = f.check(el, want, future)
		ok = ok && elems[i] != types.NoTypeID
	}
	if !ok {
		return types.NoTypeID
	}
	return f.in.Tuple(elems)
}

func (f *fnChecker) tupleAccess(e *ast.Expr, d ast.TupleAccessData) types.TypeID {
	t := f.expr(d.Target, types.NoTypeID)
	if t == types.NoTypeID {
		return types.NoTypeID
	}
	elems, ok := f.in.TupleElems(t)
	if !ok {
		f.errorf(diag.TypNotIndexable, e.Meta, "%s is not a tuple", f.label(t))
		return types.NoTypeID
	}
	if d.Index < 0 || d.Index >= len(elems) {
		f.errorf(diag.TypIndexOutOfBounds, e.Meta, "index %d is out of bounds for %s", d.Index, f.label(t))
		return types.NoTypeID
	}
	return elems[d.Index]
}

func (f *fnChecker) arrayLit(e *ast.Expr, d ast.ArrayLitData, exp types.TypeID) types.TypeID {
	var elem types.TypeID
	if tt, ok := f.in.Lookup(exp); ok && tt.Kind == types.KindArray {
		elem = tt.Elem
	}
	if len(d.Elems) == 0 {
		f.errorf(diag.TypCannotInferLiteral, e.Meta, "arrays cannot be empty")
		return types.NoTypeID
	}
	ok := true
	for _, el := range d.Elems {
		t := f.expr(el, elem)
		switch {
		case t == types.NoTypeID:
			ok = false
		case elem == types.NoTypeID:
			elem = t
		default:
			ok = f.assignable(el.Meta, elem, t) && ok
		}
	}
	if !ok || elem == types.NoTypeID {
		return types.NoTypeID
	}
	n, err := safecast.Conv[uint32](len(d.Elems))
	if err != nil {
		f.errorf(diag.TypMismatch, e.Meta, "array literal is too long")
		return types.NoTypeID
	}
	return f.in.Array(elem, n)
}

func (f *fnChecker) index(e *ast.Expr, d ast.IndexData) types.TypeID {
	t := f.expr(d.Target, types.NoTypeID)
	it := f.expr(d.Index, f.b.U32)
	if t == types.NoTypeID {
		return types.NoTypeID
	}
	tt := f.in.MustLookup(t)
	if tt.Kind != types.KindArray {
		f.errorf(diag.TypNotIndexable, e.Meta, "%s cannot be indexed", f.label(t))
		return types.NoTypeID
	}
	if it != types.NoTypeID && f.in.Kind(it) != types.KindUint {
		f.errorf(diag.TypMismatch, d.Index.Meta, "array index must be an unsigned integer, found %s", f.label(it))
		return tt.Elem
	}
	if tt.Len == types.NoTypeID {
		if v, err := f.st.Evaluator().Eval(d.Index); err == nil {
			if n, ok := v.Int64(); ok && (n < 0 || n >= int64(tt.Count)) {
				f.errorf(diag.TypIndexOutOfBounds, d.Index.Meta, "index %d is out of bounds for %s", n, f.label(t))
			}
		}
	}
	return tt.Elem
}

func (f *fnChecker) mappingOp(e *ast.Expr, d ast.MappingOpData) types.TypeID {
	id, _ := d.Mapping.Ident()
	if f.st.Mapping(id.Symbol) == nil {
		if f.st.Symbol(id.Symbol) != nil {
			f.errorf(diag.TypMismatch, d.Mapping.Meta, "'%s' is not a mapping", id.Name)
		}
		for _, a := range d.Args {
			f.check(a, types.NoTypeID, false)
		}
		return types.NoTypeID
	}
	mt := f.in.MustLookup(f.st.BindingType(id.Symbol))
	d.Mapping.Type = f.st.BindingType(id.Symbol)

	want := []types.TypeID{mt.Key}
	result := mt.Elem
	switch d.Op {
	case ast.MappingGetOrUse:
		want = append(want, mt.Elem)
	case ast.MappingSet:
		want = append(want, mt.Elem)
		result = f.b.Unit
	case ast.MappingRemove:
		result = f.b.Unit
	case ast.MappingContains:
		result = f.b.Bool
	}
	if len(d.Args) != len(want) {
		f.errorf(diag.TypArgCount, e.Meta, "'%s' takes %d arguments, %d given", d.Op, len(want), len(d.Args))
		return types.NoTypeID
	}
	for i, a := range d.Args {
		f.want(a, want[i], false)
	}
	return result
}

func (f *fnChecker) await(e *ast.Expr, d ast.AwaitData) types.TypeID {
	t := f.check(d.Future, types.NoTypeID, true)
	if f.variant() != ast.VariantAsync {
		f.errorf(diag.TypAwaitOutsideAsync, e.Meta, "'.await()' is only allowed in async functions")
		return types.NoTypeID
	}
	if t != types.NoTypeID && !f.isFuture(t) {
		f.errorf(diag.TypMismatch, d.Future.Meta, "only Futures can be awaited, found %s", f.label(t))
		return types.NoTypeID
	}
	return f.b.Unit
}
