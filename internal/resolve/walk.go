package resolve

import (
	"veil/internal/ast"
	"veil/internal/compiler"
	"veil/internal/diag"
	"veil/internal/symbols"
)

// walker binds references inside one program. Import programs are
// interface stubs: only their signatures and type declarations are walked.
type walker struct {
	st   *compiler.State
	prog *ast.Program
	r    *symbols.Resolver
	main bool
}

func newWalker(st *compiler.State, prog *ast.Program) *walker {
	return &walker{
		st:   st,
		prog: prog,
		r:    symbols.NewResolver(st.Symbols, prog.Scope, st.Reporter()),
		main: st.IsMain(prog.Name),
	}
}

func (w *walker) program() {
	for _, s := range w.prog.Structs {
		w.structDecl(s)
	}
	for _, m := range w.prog.Mappings {
		w.typeExpr(m.Key)
		w.typeExpr(m.Value)
	}
	for _, c := range w.prog.Consts {
		w.typeExpr(c.Type)
		w.expr(c.Value)
	}
	for _, f := range w.prog.Functions {
		w.function(f)
	}
}

func (w *walker) structDecl(s *ast.StructDecl) {
	s.Scope = w.r.Enter(symbols.ScopeBlock, uint64(s.ID), s.Span)
	w.generics(s.Generics)
	for _, m := range s.Members {
		w.typeExpr(m.Type)
	}
	w.r.Leave(s.Scope)
}

func (w *walker) generics(gs []*ast.GenericParam) {
	for _, g := range gs {
		flags := symbols.SymbolFlags(0)
		if g.Const {
			flags |= symbols.SymbolFlagConstParam
			w.typeExpr(g.Type)
		}
		if id, ok := w.r.Declare(g.Name, g.Span, symbols.SymbolGeneric, flags, uint64(g.ID)); ok {
			g.Symbol = id
		}
	}
}

func (w *walker) function(f *ast.FuncDecl) {
	f.Scope = w.r.Enter(symbols.ScopeFunction, uint64(f.ID), f.Span)
	defer w.r.Leave(f.Scope)
	w.generics(f.Generics)
	for _, p := range f.Params {
		w.typeExpr(p.Type)
		if id, ok := w.r.Declare(p.Name, p.Span, symbols.SymbolParam, 0, uint64(p.ID)); ok {
			p.Symbol = id
		}
	}
	for _, o := range f.Outputs {
		w.typeExpr(o.Type)
	}
	if w.main && f.Body != nil {
		w.block(f.Body)
	}
}

func (w *walker) block(b *ast.Block) {
	b.Scope = w.r.Enter(symbols.ScopeBlock, uint64(b.ID), b.Span)
	for _, s := range b.Stmts {
		w.stmt(s)
	}
	w.r.Leave(b.Scope)
}

func (w *walker) declareBinding(b *ast.Binding, kind symbols.SymbolKind, flags symbols.SymbolFlags) {
	if id, ok := w.r.Declare(b.Name, b.Span, kind, flags, uint64(b.ID)); ok {
		b.Symbol = id
	}
}

func (w *walker) stmt(s *ast.Stmt) {
	switch d := s.Data.(type) {
	case ast.LetData:
		// the value sees the outer binding of a shadowed name
		w.typeExpr(d.Type)
		w.expr(d.Value)
		for _, b := range d.Bindings {
			w.declareBinding(b, symbols.SymbolLet, symbols.SymbolFlagMutable)
		}
	case ast.ConstData:
		w.typeExpr(d.Type)
		w.expr(d.Value)
		w.declareBinding(d.Binding, symbols.SymbolConst, 0)
	case ast.AssignData:
		w.expr(d.Target)
		w.expr(d.Value)
	case ast.IfData:
		w.expr(d.Cond)
		w.block(d.Then)
		if d.Else != nil {
			w.block(d.Else)
		}
	case ast.ForData:
		w.typeExpr(d.VarType)
		w.expr(d.Start)
		w.expr(d.End)
		scope := w.r.Enter(symbols.ScopeBlock, uint64(s.ID), s.Span)
		w.declareBinding(d.Var, symbols.SymbolLoopVar, 0)
		w.block(d.Body)
		w.r.Leave(scope)
	case ast.BlockStmtData:
		w.block(d.Block)
	default:
		for _, e := range ast.StmtExprs(s) {
			w.expr(e)
		}
	}
}

func (w *walker) expr(e *ast.Expr) {
	if e == nil {
		return
	}
	switch d := e.Data.(type) {
	case ast.IdentData:
		d.Symbol = w.value(e.Meta, d.Program, d.Name)
		e.Data = d
		return
	case ast.CallData:
		w.call(e, d)
		return
	case ast.StructLitData:
		d.Symbol = w.typeName(e.Meta, d.Program, d.Name)
		w.genericArgs(d.Generics)
		e.Data = d
	case ast.CastData:
		w.typeExpr(d.Target)
	}
	for _, c := range ast.ExprChildren(e) {
		w.expr(c)
	}
}

func (w *walker) genericArgs(args []ast.GenericArg) {
	for _, a := range args {
		w.typeExpr(a.Type)
		w.expr(a.Value)
	}
}

// call binds the callee. Functions live at program level, so local
// bindings never shadow them. Several imported candidates are all kept for
// the type checker, which picks the one whose signature fits.
func (w *walker) call(e *ast.Expr, d ast.CallData) {
	w.genericArgs(d.Generics)
	for _, a := range d.Args {
		w.expr(a)
	}
	defer func() { e.Data = d }()
	if d.Program != "" {
		d.Symbol = w.qualified(e.Meta, d.Program, d.Callee, "function")
		return
	}
	if id, ok := w.st.Symbols.LookupLocal(w.prog.Scope, d.Callee); ok {
		d.Symbol = id
		return
	}
	cands := w.st.Symbols.LookupImported(w.prog.Name, d.Callee)
	switch len(cands) {
	case 0:
		w.st.Error(diag.ResUnresolvedSymbol, e.Meta, "cannot find function '%s' in this scope", d.Callee).Emit()
	case 1:
		d.Symbol = cands[0]
	default:
		d.Candidates = cands
	}
}

func (w *walker) qualified(m ast.Meta, program, name, what string) symbols.SymbolID {
	if _, ok := w.st.Symbols.Program(program); !ok {
		w.st.Error(diag.ResUnknownProgram, m, "unknown program '%s'", program).Emit()
		return symbols.NoSymbolID
	}
	if program != w.prog.Name && !w.imports(program) {
		w.st.Error(diag.ResUnknownProgram, m, "program '%s' is not imported by '%s'", program, w.prog.Name).Emit()
		return symbols.NoSymbolID
	}
	id, ok := w.st.Symbols.LookupQualified(program, name)
	if !ok {
		w.st.Error(diag.ResUnresolvedSymbol, m, "cannot find %s '%s' in program '%s'", what, name, program).Emit()
		return symbols.NoSymbolID
	}
	return id
}

func (w *walker) imports(program string) bool {
	for _, imp := range w.prog.Imports {
		if imp == program {
			return true
		}
	}
	return false
}

// lookup resolves an unqualified name: scope chain first, then imports.
func (w *walker) lookup(m ast.Meta, name, what string) symbols.SymbolID {
	if id, ok := w.r.Lookup(name); ok {
		return id
	}
	cands := w.st.Symbols.LookupImported(w.prog.Name, name)
	switch len(cands) {
	case 0:
		code := diag.ResUnresolvedSymbol
		if what == "type" {
			code = diag.ResUnresolvedType
		}
		w.st.Error(code, m, "cannot find %s '%s' in this scope", what, name).Emit()
		return symbols.NoSymbolID
	case 1:
		return cands[0]
	}
	b := w.st.Error(diag.ResAmbiguousImport, m, "'%s' is ambiguous, qualify it with a program name", name)
	for _, id := range cands {
		if sym := w.st.Symbol(id); sym != nil {
			b.WithNote(sym.Span, "declared in '"+sym.Program+"'")
		}
	}
	b.Emit()
	return symbols.NoSymbolID
}

func (w *walker) value(m ast.Meta, program, name string) symbols.SymbolID {
	var id symbols.SymbolID
	if program != "" {
		id = w.qualified(m, program, name, "value")
	} else {
		id = w.lookup(m, name, "value")
	}
	if sym := w.st.Symbol(id); sym != nil && !sym.Kind.IsValue() {
		w.st.Error(diag.ResNotAValue, m, "%s '%s' cannot be used as a value", sym.Kind, name).Emit()
		return symbols.NoSymbolID
	}
	return id
}

func (w *walker) typeName(m ast.Meta, program, name string) symbols.SymbolID {
	var id symbols.SymbolID
	if program != "" {
		id = w.qualified(m, program, name, "type")
	} else {
		id = w.lookup(m, name, "type")
	}
	if sym := w.st.Symbol(id); sym != nil && !sym.Kind.IsType() {
		w.st.Error(diag.ResNotAType, m, "%s '%s' is not a type", sym.Kind, name).Emit()
		return symbols.NoSymbolID
	}
	return id
}

func (w *walker) typeExpr(t *ast.TypeExpr) {
	if t == nil {
		return
	}
	switch t.Kind {
	case ast.TypeNamed:
		t.Symbol = w.typeName(t.Meta, t.Program, t.Name)
		w.genericArgs(t.Args)
	case ast.TypeTuple:
		for _, el := range t.Elems {
			w.typeExpr(el)
		}
	case ast.TypeArray:
		w.typeExpr(t.Elem)
		w.expr(t.Len)
	}
}
