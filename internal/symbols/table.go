package symbols

import (
	"fmt"
	"slices"

	"fortio.org/safecast"

	"veil/internal/source"
)

// Hints provide optional capacity suggestions for the table arenas.
type Hints struct{ Scopes, Symbols uint }

// Table is the scope tree of one compilation. Passes before type checking
// build it; type checking only reads it, so it carries no lock. Later
// passes extend it sequentially (unrolled copies, instances).
type Table struct {
	Scopes   *Scopes
	Symbols  *Symbols
	Strings  *source.Interner
	Global   ScopeID
	programs map[string]ScopeID
	imports  map[string][]string
	order    []string
}

// NewTable builds a fresh table with a global root scope.
// If strings is nil, a fresh interner is allocated.
func NewTable(h Hints, strings *source.Interner) *Table {
	scopeCap, err := safecast.Conv[uint32](h.Scopes)
	if err != nil {
		panic(fmt.Errorf("scope capacity overflow: %w", err))
	}
	symCap, err := safecast.Conv[uint32](h.Symbols)
	if err != nil {
		panic(fmt.Errorf("symbol capacity overflow: %w", err))
	}
	if strings == nil {
		strings = source.NewInterner()
	}
	t := &Table{
		Scopes:   NewScopes(scopeCap),
		Symbols:  NewSymbols(symCap),
		Strings:  strings,
		programs: make(map[string]ScopeID),
		imports:  make(map[string][]string),
	}
	t.Global = t.Scopes.New(ScopeGlobal, NoScopeID, 0, source.Span{})
	return t
}

// AddProgram creates the scope of a program. It returns false when the
// program already exists.
func (t *Table) AddProgram(name string, imports []string, owner uint64, span source.Span) (ScopeID, bool) {
	if id, ok := t.programs[name]; ok {
		return id, false
	}
	id := t.Scopes.New(ScopeProgram, t.Global, owner, span)
	t.Scopes.Get(id).Program = name
	t.programs[name] = id
	t.imports[name] = slices.Clone(imports)
	t.order = append(t.order, name)
	return id, true
}

// Program returns the scope of a program by name.
func (t *Table) Program(name string) (ScopeID, bool) {
	id, ok := t.programs[name]
	return id, ok
}

// Programs lists program names in registration order.
func (t *Table) Programs() []string {
	return slices.Clone(t.order)
}

// Imports returns the direct imports of a program.
func (t *Table) Imports(program string) []string {
	return t.imports[program]
}

// Name returns the text of a symbol's name.
func (t *Table) Name(id SymbolID) string {
	sym := t.Symbols.Get(id)
	if sym == nil {
		return ""
	}
	return t.Strings.MustLookup(sym.Name)
}

// NewScope allocates a scope below parent.
func (t *Table) NewScope(kind ScopeKind, parent ScopeID, owner uint64, span source.Span) ScopeID {
	return t.Scopes.New(kind, parent, owner, span)
}

// Insert declares a symbol into scope. On a name clash nothing is inserted
// and the existing symbol is returned as prev.
func (t *Table) Insert(scopeID ScopeID, name string, sym Symbol) (id, prev SymbolID) {
	scope := t.Scopes.Get(scopeID)
	if scope == nil {
		return NoSymbolID, NoSymbolID
	}
	sym.Name = t.Strings.Intern(name)
	sym.Scope = scopeID
	if sym.Program == "" {
		sym.Program = scope.Program
	}
	if existing, ok := scope.NameIndex[sym.Name]; ok {
		return NoSymbolID, existing
	}
	id = t.Symbols.New(sym)
	scope.Symbols = append(scope.Symbols, id)
	scope.NameIndex[sym.Name] = id
	return id, NoSymbolID
}

// LookupLocal finds name declared directly in scope.
func (t *Table) LookupLocal(scopeID ScopeID, name string) (SymbolID, bool) {
	scope := t.Scopes.Get(scopeID)
	if scope == nil {
		return NoSymbolID, false
	}
	id, ok := scope.NameIndex[t.Strings.Intern(name)]
	return id, ok
}

// LookupChain walks from scope to the root and returns the innermost match.
func (t *Table) LookupChain(scopeID ScopeID, name string) (SymbolID, bool) {
	key := t.Strings.Intern(name)
	for scopeID.IsValid() {
		scope := t.Scopes.Get(scopeID)
		if scope == nil {
			break
		}
		if id, ok := scope.NameIndex[key]; ok {
			return id, true
		}
		scopeID = scope.Parent
	}
	return NoSymbolID, false
}

// LookupImported collects top-level declarations named name in the imports
// of program, in import order.
func (t *Table) LookupImported(program, name string) []SymbolID {
	var out []SymbolID
	for _, imp := range t.imports[program] {
		scope, ok := t.programs[imp]
		if !ok {
			continue
		}
		if id, ok := t.LookupLocal(scope, name); ok {
			out = append(out, id)
		}
	}
	return out
}

// LookupQualified resolves program/name.
func (t *Table) LookupQualified(program, name string) (SymbolID, bool) {
	scope, ok := t.programs[program]
	if !ok {
		return NoSymbolID, false
	}
	return t.LookupLocal(scope, name)
}

// EnclosingProgram returns the program name of a scope.
func (t *Table) EnclosingProgram(scopeID ScopeID) string {
	if scope := t.Scopes.Get(scopeID); scope != nil {
		return scope.Program
	}
	return ""
}
