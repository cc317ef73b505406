package sema

import (
	"context"
	"strconv"
	"strings"

	"veil/internal/ast"
	"veil/internal/diag"
	"veil/internal/symbols"
	"veil/internal/trace"
	"veil/internal/types"
)

// declare is phase one: it walks every program of the import closure in
// order and registers what function bodies will look up.
func (c *checker) declare(ctx context.Context) {
	_, span := trace.Begin(ctx, trace.ScopeFunction, "declare")
	defer span.End("")

	progs := c.st.Programs()
	var structs []*ast.StructDecl
	for _, p := range progs {
		for _, s := range p.Structs {
			c.registerStruct(s, p.Name)
			structs = append(structs, s)
		}
	}
	for _, s := range structs {
		c.structFields(s)
	}
	c.checkRecursion(structs)
	for _, p := range progs {
		for _, m := range p.Mappings {
			c.mapping(m)
		}
	}
	for _, p := range progs {
		for _, fn := range p.Functions {
			c.signature(fn)
		}
	}
	c.consts(progs)
	span.With("structs", strconv.Itoa(len(structs))).With("functions", strconv.Itoa(len(c.sigs)))
}

func (c *checker) registerStruct(s *ast.StructDecl, program string) {
	if !s.Symbol.IsValid() {
		return
	}
	params := c.registerGenerics(s.Symbol, s.Generics)
	s.TypeID = c.in.RegisterStruct(s.Symbol, s.Name, program, s.IsRecord, params)
}

func (c *checker) registerGenerics(owner symbols.SymbolID, gs []*ast.GenericParam) []types.TypeID {
	out := make([]types.TypeID, 0, len(gs))
	for i, g := range gs {
		info := types.ParamInfo{Name: g.Name, Owner: owner, Index: i, IsConst: g.Const}
		if g.Const {
			info.ConstType = c.resolveType(g.Type)
			if info.ConstType != types.NoTypeID && !c.in.MustLookup(info.ConstType).IsInteger() {
				c.errorf(diag.TypInvalidSignature, g.Meta, "const parameter '%s' must have an integer type, not %s", g.Name, c.label(info.ConstType))
			}
			c.st.SetBindingType(g.Symbol, info.ConstType)
		}
		g.TypeID = c.in.RegisterParam(info)
		if g.Symbol.IsValid() {
			c.generics[g.Symbol] = g.TypeID
		}
		out = append(out, g.TypeID)
	}
	return out
}

func (c *checker) structFields(s *ast.StructDecl) {
	if s.TypeID == types.NoTypeID {
		return
	}
	seen := make(map[string]*ast.Member, len(s.Members))
	fields := make([]types.Field, 0, len(s.Members))
	for _, m := range s.Members {
		if prev, dup := seen[m.Name]; dup {
			c.st.Error(diag.TypDuplicateMember, m.Meta, "member '%s' is declared twice in '%s'", m.Name, s.Name).
				WithNote(prev.Span, "first declared here").
				Emit()
			continue
		}
		seen[m.Name] = m
		t := c.resolveType(m.Type)
		if c.isFuture(t) {
			c.errorf(diag.TypFutureMisuse, m.Meta, "member '%s' of '%s' cannot be a Future", m.Name, s.Name)
		}
		fields = append(fields, types.Field{Name: m.Name, Type: t})
	}
	c.in.SetStructFields(s.TypeID, fields)
}

func (c *checker) mapping(m *ast.MappingDecl) {
	if !m.Symbol.IsValid() {
		return
	}
	key, val := c.resolveType(m.Key), c.resolveType(m.Value)
	if c.isFuture(key) || c.isFuture(val) {
		c.errorf(diag.TypFutureMisuse, m.Meta, "mapping '%s' cannot store Futures", m.Name)
	}
	c.st.SetBindingType(m.Symbol, c.in.Intern(types.MakeMapping(key, val)))
}

func (c *checker) signature(fn *ast.FuncDecl) {
	if !fn.Symbol.IsValid() {
		return
	}
	sig := &signature{fn: fn, generics: c.registerGenerics(fn.Symbol, fn.Generics)}
	for _, p := range fn.Params {
		t := c.resolveType(p.Type)
		if c.isFuture(t) && fn.Variant != ast.VariantAsync {
			c.errorf(diag.TypFutureMisuse, p.Meta, "only async functions take Future parameters")
		}
		sig.params = append(sig.params, t)
		c.st.SetBindingType(p.Symbol, t)
	}
	for _, o := range fn.Outputs {
		t := c.resolveType(o.Type)
		if c.isFuture(t) && fn.Variant != ast.VariantAsyncTransition {
			c.errorf(diag.TypFutureMisuse, o.Meta, "only async transitions return a Future")
		}
		sig.outputs = append(sig.outputs, t)
	}
	switch fn.Variant {
	case ast.VariantAsync:
		if len(sig.outputs) > 0 {
			c.errorf(diag.TypInvalidSignature, fn.Meta, "async function '%s' cannot have outputs", fn.Name)
		}
	case ast.VariantAsyncTransition:
		if len(sig.outputs) == 0 || !c.isFuture(sig.outputs[len(sig.outputs)-1]) {
			c.errorf(diag.TypInvalidSignature, fn.Meta, "async transition '%s' must return a Future as its last output", fn.Name)
		}
	}
	if fn.Variant.IsTransition() && fn.IsGeneric() {
		c.errorf(diag.TypInvalidSignature, fn.Meta, "%s '%s' cannot be generic", fn.Variant, fn.Name)
	}
	switch {
	case fn.Variant == ast.VariantAsync:
		// calling async code only schedules it
		sig.result = c.b.Future
	case len(sig.outputs) == 0:
		sig.result = c.b.Unit
	case len(sig.outputs) == 1:
		sig.result = sig.outputs[0]
	default:
		sig.result = c.in.Tuple(sig.outputs)
	}
	c.sigs[fn.Symbol] = sig
}

type visitState uint8

const (
	unvisited visitState = iota
	visiting
	visited
)

// consts types global constants in dependency order and folds those that
// are already constant; array lengths and generic arguments need them.
func (c *checker) consts(progs []*ast.Program) {
	state := make(map[symbols.SymbolID]visitState)
	var visit func(cd *ast.ConstDecl)
	visit = func(cd *ast.ConstDecl) {
		switch state[cd.Symbol] {
		case visited:
			return
		case visiting:
			c.errorf(diag.TypNotConstant, cd.Meta, "constant '%s' depends on itself", cd.Name)
			return
		}
		state[cd.Symbol] = visiting
		ast.WalkExpr(cd.Value, func(e *ast.Expr) bool {
			if id, ok := e.Ident(); ok {
				if dep := c.st.ConstDecl(id.Symbol); dep != nil {
					visit(dep)
				}
			}
			return true
		})
		t := c.resolveType(cd.Type)
		if cd.Value != nil {
			vt := c.newFnChecker(nil).want(cd.Value, t, false)
			if t == types.NoTypeID {
				t = vt
			}
			if v, err := c.st.Evaluator().Eval(cd.Value); err == nil {
				c.st.SetConst(cd.Symbol, v)
			}
		}
		c.st.SetBindingType(cd.Symbol, t)
		state[cd.Symbol] = visited
	}
	for _, p := range progs {
		for _, cd := range p.Consts {
			if cd.Symbol.IsValid() {
				visit(cd)
			}
		}
	}
}

// recursion finds non-generic structs that contain themselves by value.
type recursion struct {
	c        *checker
	state    map[types.TypeID]visitState
	stack    []types.TypeID
	reported map[types.TypeID]bool
}

func (c *checker) checkRecursion(decls []*ast.StructDecl) {
	rc := &recursion{c: c, state: make(map[types.TypeID]visitState), reported: make(map[types.TypeID]bool)}
	for _, s := range decls {
		if s.TypeID != types.NoTypeID && len(s.Generics) == 0 {
			rc.visit(s.TypeID)
		}
	}
}

func (rc *recursion) visit(id types.TypeID) {
	switch rc.state[id] {
	case visited:
		return
	case visiting:
		rc.report(id)
		return
	}
	if len(rc.stack) > 64 {
		return
	}
	rc.state[id] = visiting
	rc.stack = append(rc.stack, id)
	for _, f := range rc.c.in.StructFields(id) {
		rc.walk(f.Type)
	}
	rc.stack = rc.stack[:len(rc.stack)-1]
	rc.state[id] = visited
}

func (rc *recursion) walk(t types.TypeID) {
	tt, ok := rc.c.in.Lookup(t)
	if !ok {
		return
	}
	switch tt.Kind {
	case types.KindStruct:
		rc.visit(t)
	case types.KindArray:
		rc.walk(tt.Elem)
	case types.KindTuple:
		elems, _ := rc.c.in.TupleElems(t)
		for _, e := range elems {
			rc.walk(e)
		}
	}
}

func (rc *recursion) report(id types.TypeID) {
	if rc.reported[id] {
		return
	}
	start := 0
	for i, s := range rc.stack {
		if s == id {
			start = i
			break
		}
	}
	chain := make([]string, 0, len(rc.stack)-start+1)
	for _, s := range rc.stack[start:] {
		rc.reported[s] = true
		chain = append(chain, rc.c.label(s))
	}
	chain = append(chain, rc.c.label(id))
	info, _ := rc.c.in.StructInfo(id)
	decl := rc.c.st.Struct(info.Symbol)
	if decl == nil {
		return
	}
	rc.c.errorf(diag.TypRecursiveStruct, decl.Meta, "struct '%s' contains itself: %s", decl.Name, strings.Join(chain, " -> "))
}

func (c *checker) isFuture(t types.TypeID) bool {
	return t != types.NoTypeID && c.in.Kind(t) == types.KindFuture
}
