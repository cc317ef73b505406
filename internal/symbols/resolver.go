package symbols

import (
	"veil/internal/diag"
	"veil/internal/source"
)

// Resolver drives scope management while a pass walks the tree.
type Resolver struct {
	table    *Table
	reporter diag.Reporter
	stack    []ScopeID
}

// NewResolver starts at root; an invalid root leaves the stack empty and
// scope-sensitive operations become no-ops.
func NewResolver(table *Table, root ScopeID, reporter diag.Reporter) *Resolver {
	r := &Resolver{
		table:    table,
		reporter: reporter,
		stack:    make([]ScopeID, 0, 8),
	}
	if root.IsValid() {
		r.stack = append(r.stack, root)
	}
	return r
}

func (r *Resolver) Table() *Table { return r.table }

// CurrentScope returns the scope at the top of the stack.
func (r *Resolver) CurrentScope() ScopeID {
	if len(r.stack) == 0 {
		return NoScopeID
	}
	return r.stack[len(r.stack)-1]
}

// Enter creates a child scope and pushes it.
func (r *Resolver) Enter(kind ScopeKind, owner uint64, span source.Span) ScopeID {
	scope := r.table.NewScope(kind, r.CurrentScope(), owner, span)
	r.stack = append(r.stack, scope)
	return scope
}

// Push re-enters an existing scope.
func (r *Resolver) Push(scope ScopeID) {
	r.stack = append(r.stack, scope)
}

// Leave pops the current scope. A mismatch with expected is a programming
// error in the caller.
func (r *Resolver) Leave(expected ScopeID) {
	if len(r.stack) == 0 {
		return
	}
	top := r.stack[len(r.stack)-1]
	if expected.IsValid() && top != expected {
		panic("symbols: scope stack mismatch")
	}
	r.stack = r.stack[:len(r.stack)-1]
}

// Declare installs a symbol into the current scope, reporting a duplicate
// declaration when the name is taken in this scope.
func (r *Resolver) Declare(name string, span source.Span, kind SymbolKind, flags SymbolFlags, decl uint64) (SymbolID, bool) {
	scopeID := r.CurrentScope()
	if !scopeID.IsValid() {
		return NoSymbolID, false
	}
	id, prev := r.table.Insert(scopeID, name, Symbol{Kind: kind, Span: span, Flags: flags, Decl: decl})
	if prev.IsValid() {
		r.reportDuplicate(name, span, prev)
		return NoSymbolID, false
	}
	return id, true
}

// Lookup walks the scope chain from the current scope.
func (r *Resolver) Lookup(name string) (SymbolID, bool) {
	return r.table.LookupChain(r.CurrentScope(), name)
}

// Program returns the program of the current scope.
func (r *Resolver) Program() string {
	return r.table.EnclosingProgram(r.CurrentScope())
}

func (r *Resolver) reportDuplicate(name string, span source.Span, prev SymbolID) {
	if r.reporter == nil {
		return
	}
	b := diag.ReportError(r.reporter, diag.ResDuplicateSymbol, span, "duplicate declaration of '%s'", name)
	if sym := r.table.Symbols.Get(prev); sym != nil && sym.Span.Valid() {
		b.WithNote(sym.Span, "previous declaration here")
	}
	b.Emit()
}
