package symbols

import (
	"veil/internal/source"
)

// ScopeKind enumerates supported scope categories.
type ScopeKind uint8

const (
	ScopeInvalid  ScopeKind = iota
	ScopeGlobal             // root, parent of every program
	ScopeProgram            // top-level declarations of one program
	ScopeFunction           // generic params and params
	ScopeBlock              // block, branch, loop body or unrolled copy
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeGlobal:
		return "global"
	case ScopeProgram:
		return "program"
	case ScopeFunction:
		return "function"
	case ScopeBlock:
		return "block"
	default:
		return "invalid"
	}
}

// Scope models a lexical scope. Parent is a lookup-only back reference;
// a scope never owns its parent.
type Scope struct {
	Kind      ScopeKind
	Parent    ScopeID
	Owner     uint64 // node id of the construct that opened the scope
	Program   string
	Span      source.Span
	NameIndex map[source.StringID]SymbolID
	Symbols   []SymbolID
	Children  []ScopeID
}
