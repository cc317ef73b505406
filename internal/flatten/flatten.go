// Package flatten turns function bodies into straight-line code. Branches
// become selects over values computed on both sides, effects inside a
// branch carry the branch guard, and returns before the end of a function
// are threaded through a flag.
package flatten

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"veil/internal/ast"
	"veil/internal/compiler"
	"veil/internal/symbols"
	"veil/internal/trace"
	"veil/internal/types"
)

// Pass is the flattener.
type Pass struct{}

func (Pass) Name() string { return "flatten" }

func (Pass) Run(ctx context.Context, st *compiler.State) error {
	for _, fn := range st.Program.Functions {
		if err := ctx.Err(); err != nil {
			return err
		}
		if fn.Body == nil {
			continue
		}
		_, span := trace.Begin(ctx, trace.ScopeFunction, "flatten")
		n, err := Func(st, fn)
		span.With("function", fn.Name).With("statements", strconv.Itoa(n)).End("")
		if err != nil {
			return err
		}
	}
	return nil
}

// Func flattens fn in place and returns the length of the new body.
// Flattening a flat body leaves it unchanged.
func Func(st *compiler.State, fn *ast.FuncDecl) (int, error) {
	f := &flattener{st: st, in: st.Types, fn: fn, boolT: st.Types.Builtins().Bool}
	stmts := fn.Body.Stmts
	if at := earlyReturn(fn.Body); at != nil {
		if !f.setupEarly(at) {
			return len(stmts), nil
		}
	}
	for i, s := range stmts {
		if d, ok := s.Data.(ast.ReturnData); ok && f.ret != nil && i == len(stmts)-1 {
			f.tailReturn(s, d)
			continue
		}
		f.stmt(s)
		if f.internal != nil {
			return len(stmts), f.internal
		}
	}
	if f.ret != nil && !f.returned() {
		f.emit(f.returnStmt(f.retValue(fn.Body.Meta), fn.Body.Meta))
	}
	fn.Body.Stmts = f.out
	return len(f.out), nil
}

type flattener struct {
	st    *compiler.State
	in    *types.Interner
	fn    *ast.FuncDecl
	boolT types.TypeID

	out   []*ast.Stmt
	ctx   *branch
	ret   *early
	temps int

	internal error
}

// branch is one arm of an if while it is being flattened. Assignments
// made in the arm are collected in values instead of being emitted.
type branch struct {
	parent  *branch
	cond    *ast.Expr // atom
	negated bool
	guard   *ast.Expr // atom or negated atom, computed on first use
	values  map[symbols.SymbolID]*ast.Expr
	order   []symbols.SymbolID
	locals  map[symbols.SymbolID]bool
}

// early tracks the return flag of a function that returns before its
// last statement.
type early struct {
	flag symbols.SymbolID
	val  symbols.SymbolID // NoSymbolID without outputs
	seen bool             // a return has been flattened
}

func (f *flattener) emit(s *ast.Stmt) {
	f.out = append(f.out, s)
}

func (f *flattener) returned() bool {
	if len(f.out) == 0 {
		return false
	}
	return f.out[len(f.out)-1].Kind == ast.StmtReturn
}

func (f *flattener) stmts(list []*ast.Stmt) {
	for _, s := range list {
		if f.internal != nil {
			return
		}
		f.stmt(s)
	}
}

func (f *flattener) stmt(s *ast.Stmt) {
	switch d := s.Data.(type) {
	case ast.LetData:
		d.Value = f.expr(d.Value)
		s.Data = d
		for _, b := range d.Bindings {
			f.declare(b)
		}
		f.emit(s)
	case ast.ConstData:
		d.Value = f.expr(d.Value)
		s.Data = d
		f.declare(d.Binding)
		f.emit(s)
	case ast.AssignData:
		f.assign(s, d)
	case ast.ExprStmtData:
		f.effect(s, d)
	case ast.AssertData:
		f.assert(s, d)
	case ast.ReturnData:
		f.exit(s, d)
	case ast.IfData:
		f.ifStmt(s, d)
	case ast.BlockStmtData:
		f.stmts(d.Block.Stmts)
	case ast.ForData:
		f.internal = compiler.Internal("flatten", s.Meta, "loop over '%s' survived unrolling", d.Var.Name)
	default:
		f.internal = compiler.Internal("flatten", s.Meta, "unexpected %s statement", s.Kind)
	}
}

func (f *flattener) declare(b *ast.Binding) {
	if f.ctx != nil && b != nil {
		f.ctx.locals[b.Symbol] = true
	}
}

// expr turns ternaries into selects and replaces reads of variables
// assigned in an enclosing branch with their branch-local value.
func (f *flattener) expr(e *ast.Expr) *ast.Expr {
	return ast.RewriteExpr(e, func(x *ast.Expr) *ast.Expr {
		switch d := x.Data.(type) {
		case ast.TernaryData:
			x.Kind = ast.ExprSelect
			x.Data = ast.SelectData{Cond: d.Cond, Then: d.Then, Else: d.Else}
		case ast.IdentData:
			if v := f.lookup(d.Symbol); v != nil {
				return f.copyAtom(v, x.Meta)
			}
		}
		return x
	})
}

func (f *flattener) lookup(sym symbols.SymbolID) *ast.Expr {
	for b := f.ctx; b != nil; b = b.parent {
		if v, ok := b.values[sym]; ok {
			return v
		}
	}
	return nil
}

// current is the value sym holds at this point of the branch.
func (f *flattener) current(sym symbols.SymbolID, at ast.Meta) *ast.Expr {
	if v := f.lookup(sym); v != nil {
		return f.copyAtom(v, at)
	}
	return f.ident(sym, at)
}

func (f *flattener) assign(s *ast.Stmt, d ast.AssignData) {
	id, ok := d.Target.Ident()
	if !ok {
		f.internal = compiler.Internal("flatten", s.Meta, "cannot flatten assignment to '%s'", ast.ExprString(d.Target))
		return
	}
	value := f.expr(d.Value)
	if d.Op != ast.OpNone {
		value = &ast.Expr{
			Meta: s.Derive(""),
			Kind: ast.ExprBinary,
			Type: f.st.BindingType(id.Symbol),
			Data: ast.BinaryData{Op: d.Op, Left: f.current(id.Symbol, d.Target.Meta), Right: value},
		}
	}
	f.set(id.Symbol, value, s.Meta)
}

// set assigns value to sym: directly at the top level, into the branch
// otherwise. Values kept by a branch are atoms; anything else is spilled.
func (f *flattener) set(sym symbols.SymbolID, value *ast.Expr, at ast.Meta) {
	if f.ctx == nil {
		if f.ret != nil && f.ret.seen {
			value = f.sel(f.flag(at), f.ident(sym, at), value, f.st.BindingType(sym), at)
		}
		f.emit(f.assignStmt(sym, value, at))
		return
	}
	if !value.IsAtom() {
		value = f.temp(f.st.Name(sym), value, at)
	}
	b := f.ctx
	if b.values == nil {
		b.values = make(map[symbols.SymbolID]*ast.Expr)
	}
	if _, ok := b.values[sym]; !ok {
		b.order = append(b.order, sym)
	}
	b.values[sym] = value
}

// effect flattens an expression statement. Mapping writes are the only
// effects that can be skipped at run time, so only they take the guard.
func (f *flattener) effect(s *ast.Stmt, d ast.ExprStmtData) {
	d.Value = f.expr(d.Value)
	d.Guard = f.expr(d.Guard)
	if op, ok := d.Value.Data.(ast.MappingOpData); ok && op.Op.Mutates() {
		if g := f.guard(s.Meta); g != nil {
			d.Guard = f.and(d.Guard, g, s.Meta)
		}
	}
	s.Data = d
	f.emit(s)
}

func (f *flattener) assert(s *ast.Stmt, d ast.AssertData) {
	d.Left = f.expr(d.Left)
	d.Right = f.expr(d.Right)
	s.Data = d
	g := f.guard(s.Meta)
	if g == nil {
		f.emit(s)
		return
	}
	cond := d.Left
	switch d.Kind {
	case ast.AssertEq:
		cond = f.binary(ast.OpEq, d.Left, d.Right, s.Meta)
	case ast.AssertNeq:
		cond = f.binary(ast.OpNe, d.Left, d.Right, s.Meta)
	}
	cond = f.binary(ast.OpOr, f.not(g, s.Meta), cond, s.Meta)
	f.emit(&ast.Stmt{Meta: s.Derive(""), Kind: ast.StmtAssert, Data: ast.AssertData{Kind: ast.AssertTrue, Left: cond}})
}

// guard is the condition under which the current statement runs, nil
// when it always runs.
func (f *flattener) guard(at ast.Meta) *ast.Expr {
	var g *ast.Expr
	if f.ctx != nil {
		g = f.branchGuard(f.ctx, at)
	}
	if f.ret != nil && f.ret.seen {
		g = f.and(g, f.not(f.flag(at), at), at)
	}
	return g
}

func (f *flattener) branchGuard(b *branch, at ast.Meta) *ast.Expr {
	if b.guard == nil {
		c := f.copyAtom(b.cond, at)
		if b.negated {
			c = f.not(c, at)
		}
		var parent *ast.Expr
		if b.parent != nil {
			parent = f.branchGuard(b.parent, at)
		}
		g := f.and(parent, c, at)
		if !cheap(g) {
			g = f.temp("guard", g, at)
		}
		b.guard = g
	}
	return f.copyGuard(b.guard, at)
}

func (f *flattener) copyGuard(g *ast.Expr, at ast.Meta) *ast.Expr {
	if d, ok := g.Data.(ast.UnaryData); ok {
		return f.not(f.copyAtom(d.Operand, at), at)
	}
	return f.copyAtom(g, at)
}

func (f *flattener) ifStmt(s *ast.Stmt, d ast.IfData) {
	cond := f.expr(d.Cond)
	if !cond.IsAtom() {
		cond = f.temp("cond", cond, s.Meta)
	}
	then := f.branch(cond, false, d.Then)
	els := f.branch(cond, true, d.Else)
	if f.internal != nil {
		return
	}
	f.merge(s.Meta, cond, then, els)
}

func (f *flattener) branch(cond *ast.Expr, negated bool, body *ast.Block) *branch {
	b := &branch{parent: f.ctx, cond: cond, negated: negated, locals: make(map[symbols.SymbolID]bool)}
	if body == nil {
		return b
	}
	f.ctx = b
	f.stmts(body.Stmts)
	f.ctx = b.parent
	return b
}

type pending struct {
	sym   symbols.SymbolID
	value *ast.Expr
}

// merge assigns every variable either arm changed the select of its two
// branch values. A side that left the variable alone contributes its
// value from before the if.
func (f *flattener) merge(at ast.Meta, cond *ast.Expr, then, els *branch) {
	var syms []symbols.SymbolID
	for _, sym := range slices.Concat(then.order, els.order) {
		if then.locals[sym] || els.locals[sym] || slices.Contains(syms, sym) {
			continue
		}
		syms = append(syms, sym)
	}
	side := func(b *branch, sym symbols.SymbolID) *ast.Expr {
		if v, ok := b.values[sym]; ok {
			return f.copyAtom(v, at)
		}
		return f.current(sym, at)
	}
	list := make([]pending, 0, len(syms))
	for _, sym := range syms {
		value := f.sel(f.copyAtom(cond, at), side(then, sym), side(els, sym), f.st.BindingType(sym), at)
		list = append(list, pending{sym: sym, value: value})
	}
	if f.ctx != nil {
		for _, p := range list {
			f.set(p.sym, p.value, at)
		}
		return
	}
	f.assignAll(list, at)
}

// assignAll emits top-level merge assignments so that no assignment
// overwrites a variable another pending select still reads. A cycle is
// broken by copying one variable into a temp first.
func (f *flattener) assignAll(list []pending, at ast.Meta) {
	for len(list) > 0 {
		pick := -1
		for i, p := range list {
			read := false
			for j, q := range list {
				if i != j && reads(q.value, p.sym) {
					read = true
					break
				}
			}
			if !read {
				pick = i
				break
			}
		}
		if pick < 0 {
			pick = 0
			sym := list[0].sym
			snap := f.temp(f.st.Name(sym), f.ident(sym, at), at)
			for j := 1; j < len(list); j++ {
				list[j].value = ast.RewriteExpr(list[j].value, func(x *ast.Expr) *ast.Expr {
					if id, ok := x.Ident(); ok && id.Symbol == sym {
						return f.copyAtom(snap, x.Meta)
					}
					return x
				})
			}
		}
		f.set(list[pick].sym, list[pick].value, at)
		list = slices.Delete(list, pick, pick+1)
	}
}

func reads(e *ast.Expr, sym symbols.SymbolID) bool {
	found := false
	ast.WalkExpr(e, func(x *ast.Expr) bool {
		if id, ok := x.Ident(); ok && id.Symbol == sym {
			found = true
		}
		return !found
	})
	return found
}

// temp spills value into a fresh let and returns a read of it.
func (f *flattener) temp(name string, value *ast.Expr, at ast.Meta) *ast.Expr {
	f.temps++
	sym := f.st.TempSymbol(f.fn.Scope, fmt.Sprintf("%s$%d", name, f.temps), value.Type, f.fn.Span)
	f.emit(f.letStmt(sym, value, at))
	return f.ident(sym, at)
}
