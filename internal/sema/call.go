package sema

import (
	"strings"

	"veil/internal/ast"
	"veil/internal/diag"
	"veil/internal/symbols"
	"veil/internal/types"
)

func (f *fnChecker) call(e *ast.Expr, d ast.CallData, exp types.TypeID) types.TypeID {
	defer func() { e.Data = d }()
	cands := d.Candidates
	if d.Symbol.IsValid() {
		cands = []symbols.SymbolID{d.Symbol}
	}
	switch len(cands) {
	case 0:
		f.looseArgs(d.Args)
		return types.NoTypeID
	case 1:
		sig := f.sigs[cands[0]]
		if sig == nil {
			f.errorf(diag.TypNotCallable, e.Meta, "'%s' is not a function", d.Callee)
			f.looseArgs(d.Args)
			return types.NoTypeID
		}
		return f.apply(e, &d, sig, nil)
	}
	return f.overloaded(e, &d, cands)
}

// looseArgs types arguments of a call that cannot be resolved, so that
// errors inside them are still reported.
func (f *fnChecker) looseArgs(args []*ast.Expr) {
	for _, a := range args {
		if !isUntyped(a) {
			f.check(a, types.NoTypeID, true)
		}
	}
}

// apply checks a call against sig. pre holds argument types computed
// while choosing among candidates; NoTypeID entries are typed here.
func (f *fnChecker) apply(e *ast.Expr, d *ast.CallData, sig *signature, pre []types.TypeID) types.TypeID {
	if len(d.Args) != len(sig.params) {
		f.errorf(diag.TypArgCount, e.Meta, "'%s' takes %d arguments, %d given", sig.fn.Name, len(sig.params), len(d.Args))
		if pre == nil {
			f.looseArgs(d.Args)
		}
		return types.NoTypeID
	}
	d.Symbol = sig.fn.Symbol
	m := make(map[types.TypeID]types.TypeID, len(sig.generics))
	deferred := make(map[types.TypeID]bool)
	if len(sig.generics) == 0 && len(d.Generics) > 0 {
		f.errorf(diag.TypGenericArity, e.Meta, "'%s' is not generic", sig.fn.Name)
	}
	if len(sig.generics) > 0 && len(d.Generics) > 0 {
		args, ok := f.typeArgs(e.Meta, sig.fn.Name, sig.fn.Generics, d.Generics, f, true)
		if !ok {
			f.looseArgs(d.Args)
			return types.NoTypeID
		}
		for i, p := range sig.generics {
			if args[i] == types.NoTypeID {
				deferred[p] = true
				continue
			}
			m[p] = args[i]
		}
	}

	got := make([]types.TypeID, len(d.Args))
	for i, a := range d.Args {
		want := f.in.Subst(sig.params[i], m)
		future := sig.fn.Variant == ast.VariantAsync && f.isFuture(want)
		switch {
		case pre != nil && pre[i] != types.NoTypeID:
			got[i] = pre[i]
		case f.in.ContainsGeneric(want) && len(sig.generics) > 0:
			got[i] = f.check(a, types.NoTypeID, future)
		default:
			got[i] = f.check(a, want, future)
		}
		f.unify(want, got[i], m)
	}

	var targs []types.TypeID
	if len(sig.generics) > 0 {
		targs = make([]types.TypeID, len(sig.generics))
		for i, p := range sig.generics {
			t, ok := m[p]
			if !ok && !deferred[p] {
				info, _ := f.in.ParamInfo(p)
				f.errorf(diag.TypCannotInferGeneric, e.Meta, "cannot infer generic argument '%s' of '%s'; pass it explicitly as %s::[...]", info.Name, sig.fn.Name, sig.fn.Name)
				return types.NoTypeID
			}
			targs[i] = t
		}
	}
	for i, a := range d.Args {
		f.assignable(a.Meta, f.in.Subst(sig.params[i], m), got[i])
	}
	d.TypeArgs = targs
	return f.in.Subst(sig.result, m)
}

// unify binds generic parameters of want so that it matches got.
func (c *checker) unify(want, got types.TypeID, m map[types.TypeID]types.TypeID) bool {
	if want == types.NoTypeID || got == types.NoTypeID || want == got {
		return true
	}
	wt, ok := c.in.Lookup(want)
	if !ok {
		return false
	}
	gt, _ := c.in.Lookup(got)
	switch wt.Kind {
	case types.KindGenericParam:
		if prev, ok := m[want]; ok {
			return prev == got
		}
		m[want] = got
		return true
	case types.KindArray:
		if gt.Kind != types.KindArray || !c.unify(wt.Elem, gt.Elem, m) {
			return false
		}
		if wt.Len == types.NoTypeID {
			return gt.Len == types.NoTypeID && wt.Count == gt.Count
		}
		if gt.Len != types.NoTypeID {
			return c.unify(wt.Len, gt.Len, m)
		}
		info, _ := c.in.ParamInfo(wt.Len)
		return c.unify(wt.Len, c.in.Const(info.ConstType, int64(gt.Count)), m)
	case types.KindTuple:
		we, _ := c.in.TupleElems(want)
		ge, ok := c.in.TupleElems(got)
		if !ok || len(we) != len(ge) {
			return false
		}
		for i := range we {
			if !c.unify(we[i], ge[i], m) {
				return false
			}
		}
		return true
	case types.KindStruct:
		wi, _ := c.in.StructInfo(want)
		gi, ok := c.in.StructInfo(got)
		if !ok || wi.Symbol != gi.Symbol {
			return false
		}
		wa, ga := structArgs(wi), structArgs(gi)
		if len(wa) != len(ga) {
			return false
		}
		for i := range wa {
			if !c.unify(wa[i], ga[i], m) {
				return false
			}
		}
		return true
	}
	return false
}

func structArgs(info types.StructInfo) []types.TypeID {
	if info.Template == types.NoTypeID {
		return info.Params
	}
	return info.Args
}

// overloaded picks among same-named functions of several imports.
// Arguments that do not depend on context are typed once up front.
func (f *fnChecker) overloaded(e *ast.Expr, d *ast.CallData, cands []symbols.SymbolID) types.TypeID {
	pre := make([]types.TypeID, len(d.Args))
	for i, a := range d.Args {
		if !isUntyped(a) {
			pre[i] = f.check(a, types.NoTypeID, true)
		}
	}
	var matches []*signature
	for _, id := range cands {
		if sig := f.sigs[id]; sig != nil && f.fits(sig, d.Args, pre) {
			matches = append(matches, sig)
		}
	}
	switch len(matches) {
	case 1:
		return f.apply(e, d, matches[0], pre)
	case 0:
		b := f.st.Error(diag.TypNoMatchingCall, e.Meta, "no imported '%s' accepts (%s)", d.Callee, f.argList(d.Args, pre))
		f.candidateNotes(b, cands)
		b.Emit()
	default:
		ids := make([]symbols.SymbolID, len(matches))
		for i, s := range matches {
			ids[i] = s.fn.Symbol
		}
		b := f.st.Error(diag.TypAmbiguousCall, e.Meta, "call to '%s' is ambiguous; qualify it with a program name", d.Callee)
		f.candidateNotes(b, ids)
		b.Emit()
	}
	return types.NoTypeID
}

func (f *fnChecker) fits(sig *signature, args []*ast.Expr, pre []types.TypeID) bool {
	if len(args) != len(sig.params) {
		return false
	}
	m := make(map[types.TypeID]types.TypeID)
	for i, a := range args {
		p := sig.params[i]
		if pre[i] == types.NoTypeID {
			if isUntyped(a) {
				tt, _ := f.in.Lookup(p)
				if !tt.IsNumeric() && tt.Kind != types.KindGenericParam {
					return false
				}
			}
			continue
		}
		if !f.unify(p, pre[i], m) {
			return false
		}
	}
	return true
}

func (f *fnChecker) argList(args []*ast.Expr, pre []types.TypeID) string {
	parts := make([]string, len(args))
	for i, a := range args {
		if pre[i] == types.NoTypeID && isUntyped(a) {
			parts[i] = "{integer}"
			continue
		}
		parts[i] = f.label(pre[i])
	}
	return strings.Join(parts, ", ")
}

func (f *fnChecker) candidateNotes(b *diag.ReportBuilder, ids []symbols.SymbolID) {
	for _, id := range ids {
		sym := f.st.Symbol(id)
		sig := f.sigs[id]
		if sym == nil || sig == nil {
			continue
		}
		b.WithNote(sym.Span, "candidate "+sym.Program+"/"+sig.label(f.in))
	}
}

// structLit checks a struct literal. Generic arguments are explicit or
// inferred from the members and the expected type.
func (f *fnChecker) structLit(e *ast.Expr, d ast.StructLitData, exp types.TypeID) types.TypeID {
	decl := f.st.Struct(d.Symbol)
	if decl == nil || decl.TypeID == types.NoTypeID {
		for _, fi := range d.Fields {
			if !isUntyped(fi.Value) {
				f.expr(fi.Value, types.NoTypeID)
			}
		}
		return types.NoTypeID
	}
	tmpl := decl.TypeID
	info, _ := f.in.StructInfo(tmpl)
	m := make(map[types.TypeID]types.TypeID, len(info.Params))
	switch {
	case len(d.Generics) > 0 && len(info.Params) == 0:
		f.errorf(diag.TypGenericArity, e.Meta, "'%s' is not generic", decl.Name)
	case len(d.Generics) > 0:
		args, ok := f.typeArgs(e.Meta, decl.Name, decl.Generics, d.Generics, f, false)
		if !ok {
			return types.NoTypeID
		}
		for i, p := range info.Params {
			m[p] = args[i]
		}
	case len(info.Params) > 0:
		if ei, ok := f.in.StructInfo(exp); ok && ei.Symbol == info.Symbol && ei.Template != types.NoTypeID {
			for i, p := range info.Params {
				m[p] = ei.Args[i]
			}
		}
	}

	fields := f.in.StructFields(tmpl)
	seen := make(map[string]*ast.FieldInit, len(d.Fields))
	for _, fi := range d.Fields {
		if prev, dup := seen[fi.Name]; dup {
			f.st.Error(diag.TypDuplicateMember, fi.Meta, "member '%s' is initialized twice", fi.Name).
				WithNote(prev.Span, "first initialized here").
				Emit()
			continue
		}
		seen[fi.Name] = fi
		var ft types.TypeID
		found := false
		for _, fd := range fields {
			if fd.Name == fi.Name {
				ft, found = fd.Type, true
				break
			}
		}
		if !found {
			f.errorf(diag.TypUnknownMember, fi.Meta, "'%s' has no member '%s'", decl.Name, fi.Name)
			if !isUntyped(fi.Value) {
				f.expr(fi.Value, types.NoTypeID)
			}
			continue
		}
		want := f.in.Subst(ft, m)
		if f.in.ContainsGeneric(want) && len(info.Params) > 0 {
			got := f.expr(fi.Value, types.NoTypeID)
			if !f.unify(want, got, m) {
				f.errorf(diag.TypMismatch, fi.Value.Meta, "expected %s, found %s", f.label(want), f.label(got))
			}
			continue
		}
		f.want(fi.Value, want, false)
	}
	for _, fd := range fields {
		if _, ok := seen[fd.Name]; !ok {
			f.errorf(diag.TypMissingMember, e.Meta, "missing member '%s' in '%s' literal", fd.Name, decl.Name)
		}
	}
	if len(info.Params) == 0 {
		return tmpl
	}
	args := make([]types.TypeID, len(info.Params))
	for i, p := range info.Params {
		t, ok := m[p]
		if !ok {
			pi, _ := f.in.ParamInfo(p)
			f.errorf(diag.TypCannotInferGeneric, e.Meta, "cannot infer generic argument '%s' of '%s'", pi.Name, decl.Name)
			return types.NoTypeID
		}
		args[i] = t
	}
	return f.in.InstantiateStruct(tmpl, args)
}
