// Package mono replaces generic functions with concrete copies, one per
// distinct argument list reachable from a non-generic function. Instances
// are unrolled and folded as soon as they exist, so their own generic
// calls can be resolved in turn.
package mono

import (
	"context"
	"math/big"
	"slices"
	"strconv"
	"strings"

	"veil/internal/analyze"
	"veil/internal/ast"
	"veil/internal/compiler"
	"veil/internal/config"
	"veil/internal/consteval"
	"veil/internal/diag"
	"veil/internal/symbols"
	"veil/internal/trace"
	"veil/internal/types"
	"veil/internal/unroll"
)

// Pass is the monomorphizer.
type Pass struct{}

func (Pass) Name() string { return "mono" }

func (Pass) Run(ctx context.Context, st *compiler.State) error {
	b := newBuilder(st)
	for _, fn := range slices.Clone(st.Program.Functions) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if fn.Body == nil || fn.IsGeneric() {
			continue
		}
		_, span := trace.Begin(ctx, trace.ScopeFunction, "mono")
		before := b.cache.Len()
		b.scan(fn, nil)
		span.With("function", fn.Name).With("instances", strconv.Itoa(b.cache.Len()-before)).End("")
		if b.internal != nil {
			return b.internal
		}
	}
	b.finish()
	return nil
}

type builder struct {
	st      *compiler.State
	in      *types.Interner
	cache   *Cache
	structs *structChecker
	limits  config.Limits

	exhausted bool
	internal  error
}

func newBuilder(st *compiler.State) *builder {
	return &builder{
		st:      st,
		in:      st.Types,
		cache:   NewCache(),
		structs: newStructChecker(st),
		limits:  st.Config.Limits,
	}
}

// scan instantiates every generic callee of fn and points the calls at
// the instances.
func (b *builder) scan(fn *ast.FuncDecl, stack []Key) {
	for _, p := range fn.Params {
		if p.Type != nil {
			b.structs.use(p.Type.Resolved, p.Meta)
		}
	}
	for _, o := range fn.Outputs {
		if o.Type != nil {
			b.structs.use(o.Type.Resolved, o.Meta)
		}
	}
	ast.WalkBlockExprs(fn.Body, func(e *ast.Expr) bool {
		if b.internal != nil {
			return false
		}
		b.structs.use(e.Type, e.Meta)
		if _, ok := e.Data.(ast.CallData); ok {
			b.call(fn, e, stack)
		}
		return true
	})
}

func (b *builder) call(caller *ast.FuncDecl, e *ast.Expr, stack []Key) {
	d := e.Data.(ast.CallData)
	generic := b.st.Func(d.Symbol)
	if generic == nil || !generic.IsGeneric() || generic.Body == nil {
		return
	}
	args, ok := b.args(e, d, generic)
	if !ok {
		return
	}
	entry := b.ensure(generic, args, UseSite{Span: e.ReportSpan(), Caller: caller.Symbol}, e.Meta, stack)
	if entry == nil {
		return
	}
	d.Symbol = entry.Func.Symbol
	d.Callee = entry.Func.Name
	d.Generics = nil
	d.TypeArgs = nil
	e.Data = d
	if b.st.CallGraph != nil {
		b.st.CallGraph.AddCall(caller.Symbol, entry.Func.Symbol, e.ReportSpan())
	}
}

// args completes the generic arguments of a call. Const arguments that
// were not constant during type checking (they used a loop variable or an
// enclosing const parameter) are evaluated now.
func (b *builder) args(e *ast.Expr, d ast.CallData, generic *ast.FuncDecl) ([]types.TypeID, bool) {
	if len(d.TypeArgs) != len(generic.Generics) {
		b.internal = compiler.Internal("mono", e.Meta, "call to '%s' carries %d generic arguments, want %d", generic.Name, len(d.TypeArgs), len(generic.Generics))
		return nil, false
	}
	args := slices.Clone(d.TypeArgs)
	ev := b.st.Evaluator()
	for i, g := range generic.Generics {
		if args[i] != types.NoTypeID {
			if b.in.ContainsGeneric(args[i]) {
				b.internal = compiler.Internal("mono", e.Meta, "argument %s for '%s' of '%s' is still generic", types.Label(b.in, args[i]), g.Name, generic.Name)
				return nil, false
			}
			continue
		}
		var value *ast.Expr
		if i < len(d.Generics) {
			value = d.Generics[i].Value
		}
		if !g.Const || value == nil {
			b.st.Error(diag.MonUnresolvedArg, e.Meta, "generic argument '%s' of '%s' is unknown", g.Name, generic.Name).Emit()
			return nil, false
		}
		v, err := ev.Eval(value)
		n, fits := v.Int64()
		if err != nil || !fits {
			b.st.Error(diag.MonUnresolvedArg, value.Meta, "argument '%s' for const parameter '%s' of '%s' is not a compile-time constant", ast.ExprString(value), g.Name, generic.Name).
				WithNote(value.ReportSpan(), "generic arguments must be known once loops are unrolled").
				Emit()
			return nil, false
		}
		info, _ := b.in.ParamInfo(g.TypeID)
		args[i] = b.in.Const(info.ConstType, n)
	}
	return args, true
}

// ensure returns the instance of generic for args, creating it on first
// use. stack holds the instantiations in progress above this one.
func (b *builder) ensure(generic *ast.FuncDecl, args []types.TypeID, site UseSite, at ast.Meta, stack []Key) *Entry {
	key := KeyOf(generic.Symbol, args)
	if i := slices.Index(stack, key); i >= 0 {
		chain := make([]string, 0, len(stack)-i+1)
		for _, k := range stack[i:] {
			chain = append(chain, b.keyName(k))
		}
		chain = append(chain, b.keyName(key))
		b.st.Error(diag.MonCycle, at, "instantiation cycle: %s", strings.Join(chain, " -> ")).Emit()
		return nil
	}
	if e, ok := b.cache.Lookup(key, site); ok {
		return e
	}
	if b.limits.MaxDepth > 0 && len(stack) >= b.limits.MaxDepth {
		b.st.Error(diag.MonLimitExceeded, at, "instantiating '%s' nests deeper than the limit of %d", generic.Name, b.limits.MaxDepth).
			WithNote(generic.Span, "generic declared here").
			Emit()
		return nil
	}
	if b.limits.MaxInstantiations > 0 && b.cache.Len() >= b.limits.MaxInstantiations {
		if !b.exhausted {
			b.exhausted = true
			b.st.Error(diag.MonLimitExceeded, at, "more than %d generic instances are needed", b.limits.MaxInstantiations).Emit()
		}
		return nil
	}

	fn := b.instantiate(generic, args, key)
	entry, fresh := b.cache.Insert(&Entry{Key: key, Args: args, Func: fn, Sites: []UseSite{site}})
	if !fresh {
		return entry
	}
	unroll.Func(b.st, fn)
	analyze.FoldFunc(b.st, fn)
	b.scan(fn, append(slices.Clip(stack), key))
	return entry
}

// instantiate clones generic for args: types are substituted everywhere,
// const parameters become literals and every local gets a fresh symbol.
func (b *builder) instantiate(generic *ast.FuncDecl, args []types.TypeID, key Key) *ast.FuncDecl {
	m := make(map[types.TypeID]types.TypeID, len(args))
	consts := make(map[symbols.SymbolID]consteval.Value)
	labels := make([]string, len(args))
	parts := make([]string, len(args))
	for i, g := range generic.Generics {
		m[g.TypeID] = args[i]
		labels[i] = types.Label(b.in, args[i])
		parts[i] = g.Name + " = " + labels[i]
		if !g.Const {
			continue
		}
		n, _ := b.in.ConstValue(args[i])
		info, _ := b.in.ParamInfo(g.TypeID)
		consts[g.Symbol] = consteval.IntValue(b.in.Kind(info.ConstType), info.ConstType, big.NewInt(n))
	}
	name := generic.Name + "[" + strings.Join(labels, ", ") + "]"
	note := "instantiated with [" + strings.Join(parts, ", ") + "]"

	sym := b.st.CopySymbol(generic.Symbol, b.st.Program.Scope, name)
	if s := b.st.Symbol(sym); s != nil {
		s.Flags &^= symbols.SymbolFlagGeneric
	}
	scope := b.st.Symbols.NewScope(symbols.ScopeFunction, b.st.Program.Scope, uint64(generic.ID), generic.ReportSpan())

	c := &ast.Cloner{
		Note: note,
		Subst: func(old *ast.Expr) *ast.Expr {
			id, ok := old.Ident()
			if !ok {
				return nil
			}
			v, ok := consts[id.Symbol]
			if !ok {
				return nil
			}
			meta := ast.Meta{ID: ast.IDs.Next(), Span: old.Span, Origin: old.Tag(old.Span, note)}
			lit := v.Expr(b.in, meta)
			lit.Type = v.Type
			return lit
		},
		FreshScope: b.st.BlockScope,
		FreshBinding: func(old *ast.Binding, scope symbols.ScopeID) symbols.SymbolID {
			id := b.st.CopySymbol(old.Symbol, scope, "")
			if t := b.st.BindingType(old.Symbol); t != types.NoTypeID {
				b.st.SetBindingType(id, b.in.Subst(t, m))
			}
			return id
		},
		MapType: func(t types.TypeID) types.TypeID { return b.in.Subst(t, m) },
	}
	fn := c.WithScope(scope).Func(generic)
	fn.Symbol = sym
	fn.Name = name
	fn.Instance = &ast.Instance{Generic: generic.Symbol, Args: slices.Clone(args), Key: key.Args}
	for oldSym, newSym := range c.Renamed() {
		if v, ok := b.st.Const(oldSym); ok {
			b.st.SetConst(newSym, v)
		}
	}
	b.st.DeclareFunc(sym, fn)
	return fn
}

// finish replaces every generic declaration with its instances, sorted by
// name so that output does not depend on type numbering.
func (b *builder) finish() {
	out := make([]*ast.FuncDecl, 0, len(b.st.Program.Functions)+b.cache.Len())
	for _, fn := range b.st.Program.Functions {
		if !fn.IsGeneric() {
			out = append(out, fn)
			continue
		}
		insts := b.cache.Of(fn.Symbol)
		if len(insts) == 0 && !b.st.Diags.HasErrors() {
			b.st.Warning(diag.MonUnreachableInst, fn.Meta, "generic function '%s' is never instantiated", fn.Name).Emit()
		}
		slices.SortFunc(insts, func(x, y *Entry) int { return strings.Compare(x.Func.Name, y.Func.Name) })
		for _, e := range insts {
			out = append(out, e.Func)
		}
		b.st.ForgetFunc(fn.Symbol)
	}
	b.st.Program.Functions = out
}

func (b *builder) keyName(k Key) string {
	name := b.st.Name(k.Generic)
	for _, e := range b.cache.Of(k.Generic) {
		if e.Key == k {
			return e.Func.Name
		}
	}
	return name
}
