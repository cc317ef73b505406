package sema

import (
	"fortio.org/safecast"

	"veil/internal/ast"
	"veil/internal/consteval"
	"veil/internal/diag"
	"veil/internal/symbols"
	"veil/internal/types"
)

// resolveType computes the type written by t and records it on the node.
func (c *checker) resolveType(t *ast.TypeExpr) types.TypeID {
	return c.resolveTypeIn(t, nil)
}

// resolveType inside a body: const arguments may then mention locals.
func (f *fnChecker) resolveType(t *ast.TypeExpr) types.TypeID {
	return f.resolveTypeIn(t, f)
}

func (c *checker) resolveTypeIn(t *ast.TypeExpr, f *fnChecker) types.TypeID {
	if t == nil {
		return types.NoTypeID
	}
	id := c.typeExpr(t, f)
	t.Resolved = id
	return id
}

func (c *checker) typeExpr(t *ast.TypeExpr, f *fnChecker) types.TypeID {
	switch t.Kind {
	case ast.TypePrim:
		return c.prim(t)
	case ast.TypeNamed:
		return c.named(t, f)
	case ast.TypeTuple:
		elems := make([]types.TypeID, len(t.Elems))
		ok := true
		for i, el := range t.Elems {
			elems[i] = c.resolveTypeIn(el, f)
			ok = ok && elems[i] != types.NoTypeID
		}
		if !ok {
			return types.NoTypeID
		}
		return c.in.Tuple(elems)
	case ast.TypeArray:
		elem := c.resolveTypeIn(t.Elem, f)
		if elem == types.NoTypeID {
			return types.NoTypeID
		}
		return c.arrayType(t, elem, f)
	case ast.TypeFuture:
		return c.b.Future
	case ast.TypeUnit:
		return c.b.Unit
	}
	return types.NoTypeID
}

func (c *checker) prim(t *ast.TypeExpr) types.TypeID {
	var id types.TypeID
	switch t.Prim {
	case "bool":
		id = c.b.Bool
	case "address":
		id = c.b.Address
	default:
		var ok bool
		if id, ok = consteval.SuffixType(c.in, t.Prim); !ok {
			c.errorf(diag.ResUnresolvedType, t.Meta, "unknown type '%s'", t.Prim)
			return types.NoTypeID
		}
	}
	if !c.checkWidth(t.Meta, id) {
		return types.NoTypeID
	}
	return id
}

// checkWidth rejects integer types the target profile cannot represent.
func (c *checker) checkWidth(m ast.Meta, id types.TypeID) bool {
	tt, ok := c.in.Lookup(id)
	if !ok || !tt.IsInteger() {
		return true
	}
	prof := c.st.Config.Profile
	if int(tt.Width) > prof.MaxIntWidth {
		c.errorf(diag.TypWidthUnsupported, m, "%s is wider than the %d bits supported by profile '%s'", c.label(id), prof.MaxIntWidth, prof.Name)
		return false
	}
	return true
}

func (c *checker) named(t *ast.TypeExpr, f *fnChecker) types.TypeID {
	sym := c.st.Symbol(t.Symbol)
	if sym == nil {
		return types.NoTypeID
	}
	if sym.Kind == symbols.SymbolGeneric {
		if sym.Flags&symbols.SymbolFlagConstParam != 0 {
			c.errorf(diag.TypMismatch, t.Meta, "const parameter '%s' is a value, not a type", t.Name)
			return types.NoTypeID
		}
		if len(t.Args) > 0 {
			c.errorf(diag.TypGenericArity, t.Meta, "type parameter '%s' takes no arguments", t.Name)
		}
		return c.generics[t.Symbol]
	}
	decl := c.st.Struct(t.Symbol)
	if decl == nil || decl.TypeID == types.NoTypeID {
		return types.NoTypeID
	}
	if len(decl.Generics) == 0 {
		if len(t.Args) > 0 {
			c.errorf(diag.TypGenericArity, t.Meta, "'%s' is not generic", t.Name)
		}
		return decl.TypeID
	}
	args, ok := c.typeArgs(t.Meta, t.Name, decl.Generics, t.Args, f, false)
	if !ok {
		return types.NoTypeID
	}
	return c.in.InstantiateStruct(decl.TypeID, args)
}

// typeArgs resolves explicit generic arguments against params. With
// deferConst set, a const argument that is not constant yet (a loop
// variable before unrolling) leaves NoTypeID in its slot.
func (c *checker) typeArgs(m ast.Meta, name string, params []*ast.GenericParam, args []ast.GenericArg, f *fnChecker, deferConst bool) ([]types.TypeID, bool) {
	if len(args) != len(params) {
		c.errorf(diag.TypGenericArity, m, "'%s' takes %d generic arguments, %d given", name, len(params), len(args))
		return nil, false
	}
	out := make([]types.TypeID, len(params))
	ok := true
	for i, p := range params {
		a := args[i]
		if !p.Const {
			if a.Type == nil {
				c.errorf(diag.TypGenericArity, a.Value.Meta, "expected a type for parameter '%s' of '%s'", p.Name, name)
				ok = false
				continue
			}
			out[i] = c.resolveTypeIn(a.Type, f)
			ok = ok && out[i] != types.NoTypeID
			continue
		}
		id, good := c.constArg(a, p, f)
		switch {
		case good:
			out[i] = id
		case deferConst && a.Value != nil:
			out[i] = types.NoTypeID
		default:
			meta := m
			if a.Value != nil {
				meta = a.Value.Meta
			}
			c.errorf(diag.TypNotConstant, meta, "argument for const parameter '%s' of '%s' is not a compile-time constant", p.Name, name)
			ok = false
		}
	}
	return out, ok
}

// constArg evaluates the argument of a const parameter. A reference to an
// enclosing const parameter stays symbolic.
func (c *checker) constArg(a ast.GenericArg, p *ast.GenericParam, f *fnChecker) (types.TypeID, bool) {
	info, _ := c.in.ParamInfo(p.TypeID)
	if a.Type != nil {
		// `N` parses as a type name
		if a.Type.Kind == ast.TypeNamed {
			if pt, ok := c.generics[a.Type.Symbol]; ok {
				a.Type.Resolved = pt
				return pt, true
			}
		}
		c.errorf(diag.TypGenericArity, a.Type.Meta, "expected a constant for parameter '%s'", p.Name)
		return types.NoTypeID, false
	}
	if id, ok := a.Value.Ident(); ok {
		if pt, ok := c.generics[id.Symbol]; ok {
			a.Value.Type = info.ConstType
			return pt, true
		}
	}
	if f == nil {
		f = c.newFnChecker(nil)
	}
	f.want(a.Value, info.ConstType, false)
	v, err := c.st.Evaluator().Eval(a.Value)
	if err != nil {
		return types.NoTypeID, false
	}
	n, ok := v.Int64()
	if !ok {
		return types.NoTypeID, false
	}
	return c.in.Const(info.ConstType, n), true
}

func (c *checker) arrayType(t *ast.TypeExpr, elem types.TypeID, f *fnChecker) types.TypeID {
	if t.Len == nil {
		return types.NoTypeID
	}
	if id, ok := t.Len.Ident(); ok {
		if pt, ok := c.generics[id.Symbol]; ok {
			info, _ := c.in.ParamInfo(pt)
			t.Len.Type = info.ConstType
			return c.in.Intern(types.MakeParamArray(elem, pt))
		}
	}
	if f == nil {
		f = c.newFnChecker(nil)
	}
	if isUntyped(t.Len) {
		f.want(t.Len, c.b.U32, false)
	} else {
		f.expr(t.Len, types.NoTypeID)
	}
	v, err := c.st.Evaluator().Eval(t.Len)
	if err != nil {
		c.errorf(diag.TypNotConstant, t.Len.Meta, "array length must be a compile-time constant")
		return types.NoTypeID
	}
	n, ok := v.Int64()
	if !ok || n <= 0 {
		c.errorf(diag.TypNotConstant, t.Len.Meta, "array length must be a positive constant, got %s", v)
		return types.NoTypeID
	}
	count, err := safecast.Conv[uint32](n)
	if err != nil {
		c.errorf(diag.TypNotConstant, t.Len.Meta, "array length %d is too large", n)
		return types.NoTypeID
	}
	return c.in.Array(elem, count)
}
