// Package compiler holds the state shared by the passes of one compilation.
package compiler

import (
	"fmt"
	"sync"

	"veil/internal/ast"
	"veil/internal/callgraph"
	"veil/internal/config"
	"veil/internal/consteval"
	"veil/internal/diag"
	"veil/internal/instr"
	"veil/internal/source"
	"veil/internal/symbols"
	"veil/internal/types"
)

// State is owned by the driver and handed to each pass in turn. Passes run
// one after another; the type checker is the only pass that touches State
// from several goroutines, and only through the locked accessors, the
// diagnostic bag and the type interner.
type State struct {
	Program   *ast.Program
	Imports   []*ast.Program // in import-closure order
	Files     *source.FileSet
	Symbols   *symbols.Table
	Types     *types.Interner
	Diags     *diag.Bag
	Config    config.Config
	CallGraph *callgraph.Graph
	Output    *instr.Program

	mu         sync.RWMutex
	bindings   map[symbols.SymbolID]types.TypeID
	consts     map[symbols.SymbolID]consteval.Value
	funcs      map[symbols.SymbolID]*ast.FuncDecl
	structs    map[symbols.SymbolID]*ast.StructDecl
	mappings   map[symbols.SymbolID]*ast.MappingDecl
	constDecls map[symbols.SymbolID]*ast.ConstDecl
}

// New prepares the state for compiling main against imports.
func New(main *ast.Program, imports []*ast.Program, cfg config.Config) *State {
	names := source.NewInterner()
	return &State{
		Program:    main,
		Imports:    imports,
		Symbols:    symbols.NewTable(symbols.Hints{Scopes: 64, Symbols: 256}, names),
		Types:      types.NewInterner(),
		Diags:      diag.NewBag(cfg.Diagnostics.Max),
		Config:     cfg,
		bindings:   make(map[symbols.SymbolID]types.TypeID),
		consts:     make(map[symbols.SymbolID]consteval.Value),
		funcs:      make(map[symbols.SymbolID]*ast.FuncDecl),
		structs:    make(map[symbols.SymbolID]*ast.StructDecl),
		mappings:   make(map[symbols.SymbolID]*ast.MappingDecl),
		constDecls: make(map[symbols.SymbolID]*ast.ConstDecl),
	}
}

// Programs returns the imports followed by the main program.
func (s *State) Programs() []*ast.Program {
	out := make([]*ast.Program, 0, len(s.Imports)+1)
	out = append(out, s.Imports...)
	return append(out, s.Program)
}

// IsMain reports whether prog is the program being compiled.
func (s *State) IsMain(program string) bool {
	return s.Program != nil && s.Program.Name == program
}

// Reporter writes into the state's bag.
func (s *State) Reporter() diag.Reporter {
	return diag.BagReporter{Bag: s.Diags}
}

// Error starts an error about node m. Generated nodes report at the span of
// the code they came from, with their context appended to the message.
func (s *State) Error(code diag.Code, m ast.Meta, format string, args ...any) *diag.ReportBuilder {
	return diag.ReportError(s.Reporter(), code, m.ReportSpan(), format, args...).WithContext(m.ReportNotes())
}

// Warning is Error with warning severity.
func (s *State) Warning(code diag.Code, m ast.Meta, format string, args ...any) *diag.ReportBuilder {
	return diag.ReportWarning(s.Reporter(), code, m.ReportSpan(), format, args...).WithContext(m.ReportNotes())
}

// Internal builds the internal error of pass about node m.
func Internal(pass string, m ast.Meta, format string, args ...any) *diag.InternalError {
	return diag.Internalf(pass, uint64(m.ID), m.Span, format, args...)
}

// Name returns the name of a symbol.
func (s *State) Name(id symbols.SymbolID) string {
	return s.Symbols.Name(id)
}

// Symbol returns a symbol by id.
func (s *State) Symbol(id symbols.SymbolID) *symbols.Symbol {
	return s.Symbols.Symbols.Get(id)
}

// QualifiedName renders program/name for top-level symbols.
func (s *State) QualifiedName(id symbols.SymbolID) string {
	sym := s.Symbol(id)
	if sym == nil {
		return fmt.Sprintf("<symbol %d>", id)
	}
	return sym.Program + "/" + s.Name(id)
}

// BindingType returns the type recorded for a value symbol.
func (s *State) BindingType(id symbols.SymbolID) types.TypeID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bindings[id]
}

func (s *State) SetBindingType(id symbols.SymbolID, t types.TypeID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bindings[id] = t
}

// MergeBindings installs a batch of binding types at once.
func (s *State) MergeBindings(batch map[symbols.SymbolID]types.TypeID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range batch {
		s.bindings[id] = t
	}
}

// Const returns the folded value of a const symbol.
func (s *State) Const(id symbols.SymbolID) (consteval.Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.consts[id]
	return v, ok
}

func (s *State) SetConst(id symbols.SymbolID, v consteval.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.consts[id] = v
}

// Evaluator folds constants with the known const values.
func (s *State) Evaluator() *consteval.Evaluator {
	return consteval.New(s.Types, s.Const)
}

// DeclareFunc records the declaration behind a function symbol.
func (s *State) DeclareFunc(id symbols.SymbolID, f *ast.FuncDecl) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.funcs[id] = f
}

// ForgetFunc drops a declaration (generic templates after mono).
func (s *State) ForgetFunc(id symbols.SymbolID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.funcs, id)
}

func (s *State) Func(id symbols.SymbolID) *ast.FuncDecl {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.funcs[id]
}

func (s *State) DeclareStruct(id symbols.SymbolID, d *ast.StructDecl) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.structs[id] = d
}

func (s *State) Struct(id symbols.SymbolID) *ast.StructDecl {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.structs[id]
}

func (s *State) DeclareMapping(id symbols.SymbolID, d *ast.MappingDecl) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mappings[id] = d
}

func (s *State) Mapping(id symbols.SymbolID) *ast.MappingDecl {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mappings[id]
}

func (s *State) DeclareConst(id symbols.SymbolID, d *ast.ConstDecl) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.constDecls[id] = d
}

func (s *State) ConstDecl(id symbols.SymbolID) *ast.ConstDecl {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.constDecls[id]
}

// BlockScope opens a block scope for a generated copy of b under parent.
func (s *State) BlockScope(b *ast.Block, parent symbols.ScopeID) symbols.ScopeID {
	return s.Symbols.NewScope(symbols.ScopeBlock, parent, uint64(b.ID), b.ReportSpan())
}

// CopySymbol declares a generated copy of old in scope. The copy keeps
// the kind, type and const value of the original and points back at it.
// name overrides the original name when set.
func (s *State) CopySymbol(old symbols.SymbolID, scope symbols.ScopeID, name string) symbols.SymbolID {
	sym := s.Symbol(old)
	if sym == nil {
		return symbols.NoSymbolID
	}
	if name == "" {
		name = s.Name(old)
	}
	cp := *sym
	cp.Flags |= symbols.SymbolFlagGenerated
	cp.Origin = old
	cp.Program = ""
	id, prev := s.Symbols.Insert(scope, name, cp)
	if !id.IsValid() {
		return prev
	}
	if t := s.BindingType(old); t != types.NoTypeID {
		s.SetBindingType(id, t)
	}
	return id
}

// TempSymbol declares a generated local of type t in scope. name is used
// as is when free and gets a numeric suffix otherwise.
func (s *State) TempSymbol(scope symbols.ScopeID, name string, t types.TypeID, at source.Span) symbols.SymbolID {
	sym := symbols.Symbol{Kind: symbols.SymbolLet, Span: at, Flags: symbols.SymbolFlagGenerated | symbols.SymbolFlagMutable}
	candidate := name
	for i := 1; ; i++ {
		id, prev := s.Symbols.Insert(scope, candidate, sym)
		if id.IsValid() {
			s.SetBindingType(id, t)
			return id
		}
		if !prev.IsValid() {
			return symbols.NoSymbolID
		}
		candidate = fmt.Sprintf("%s%d", name, i)
	}
}
