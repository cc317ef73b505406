package symbols

import (
	"strings"

	"veil/internal/source"
)

// SymbolKind classifies the entity a symbol refers to.
type SymbolKind uint8

const (
	SymbolInvalid SymbolKind = iota
	SymbolProgram
	SymbolFunction
	SymbolStruct
	SymbolRecord
	SymbolMapping
	SymbolConst
	SymbolGeneric
	SymbolParam
	SymbolLet
	SymbolLoopVar
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolProgram:
		return "program"
	case SymbolFunction:
		return "function"
	case SymbolStruct:
		return "struct"
	case SymbolRecord:
		return "record"
	case SymbolMapping:
		return "mapping"
	case SymbolConst:
		return "const"
	case SymbolGeneric:
		return "generic"
	case SymbolParam:
		return "param"
	case SymbolLet:
		return "let"
	case SymbolLoopVar:
		return "loop variable"
	default:
		return "invalid"
	}
}

// IsType reports whether the symbol names a type.
func (k SymbolKind) IsType() bool {
	return k == SymbolStruct || k == SymbolRecord || k == SymbolGeneric
}

// IsValue reports whether the symbol can appear in an expression.
func (k SymbolKind) IsValue() bool {
	switch k {
	case SymbolFunction, SymbolMapping, SymbolConst, SymbolParam, SymbolLet, SymbolLoopVar, SymbolGeneric:
		return true
	}
	return false
}

// SymbolFlags store auxiliary bits about a symbol.
type SymbolFlags uint16

const (
	SymbolFlagImported SymbolFlags = 1 << iota
	SymbolFlagGeneric                // declaration with generic params
	SymbolFlagGenerated              // created by a rewrite (unroll copy, instance)
	SymbolFlagMutable                // may be assigned
	SymbolFlagConstParam             // const generic parameter
)

func (f SymbolFlags) String() string {
	if f == 0 {
		return "none"
	}
	var parts []string
	if f&SymbolFlagImported != 0 {
		parts = append(parts, "imported")
	}
	if f&SymbolFlagGeneric != 0 {
		parts = append(parts, "generic")
	}
	if f&SymbolFlagGenerated != 0 {
		parts = append(parts, "generated")
	}
	if f&SymbolFlagMutable != 0 {
		parts = append(parts, "mutable")
	}
	if f&SymbolFlagConstParam != 0 {
		parts = append(parts, "const")
	}
	return strings.Join(parts, "|")
}

// Symbol is a named entity. Decl is the node id of the declaring node.
type Symbol struct {
	Name    source.StringID
	Kind    SymbolKind
	Scope   ScopeID
	Span    source.Span
	Flags   SymbolFlags
	Decl    uint64
	Program string
	Origin  SymbolID // symbol this one was copied from by a rewrite
}
