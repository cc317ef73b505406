package ast

import (
	"veil/internal/symbols"
	"veil/internal/types"
)

// Program is one compilation unit: the main program or an imported stub.
type Program struct {
	Meta
	Name      string // "token.aleo"
	Imports   []string
	Structs   []*StructDecl
	Mappings  []*MappingDecl
	Consts    []*ConstDecl
	Functions []*FuncDecl
	Scope     symbols.ScopeID
}

// GenericParam is `T` or `N: u32` in a generic list.
type GenericParam struct {
	Meta
	Name   string
	Const  bool
	Type   *TypeExpr // value type of a const parameter
	Symbol symbols.SymbolID
	TypeID types.TypeID
}

type Param struct {
	Meta
	Name       string
	Type       *TypeExpr
	Visibility Visibility
	Symbol     symbols.SymbolID
}

type Output struct {
	Meta
	Type       *TypeExpr
	Visibility Visibility
}

// Instance records how a function was produced by monomorphization.
type Instance struct {
	Generic symbols.SymbolID
	Args    []types.TypeID
	Key     string
}

type FuncDecl struct {
	Meta
	Name     string
	Variant  Variant
	Generics []*GenericParam
	Params   []*Param
	Outputs  []*Output
	Body     *Block // nil for imported stubs
	Symbol   symbols.SymbolID
	Scope    symbols.ScopeID
	Instance *Instance
}

// IsGeneric reports whether the function declares generic parameters.
func (f *FuncDecl) IsGeneric() bool { return len(f.Generics) > 0 }

type Member struct {
	Meta
	Name       string
	Type       *TypeExpr
	Visibility Visibility
}

type StructDecl struct {
	Meta
	Name     string
	IsRecord bool
	Generics []*GenericParam
	Members  []*Member
	Symbol   symbols.SymbolID
	Scope    symbols.ScopeID
	TypeID   types.TypeID
}

type MappingDecl struct {
	Meta
	Name   string
	Key    *TypeExpr
	Value  *TypeExpr
	Symbol symbols.SymbolID
}

type ConstDecl struct {
	Meta
	Name   string
	Type   *TypeExpr
	Value  *Expr
	Symbol symbols.SymbolID
}

// TypeExprKind enumerates written type forms.
type TypeExprKind uint8

const (
	TypePrim TypeExprKind = iota + 1
	TypeNamed
	TypeTuple
	TypeArray
	TypeFuture
	TypeUnit
)

// TypeExpr is a type as written. Resolved is filled by type checking.
type TypeExpr struct {
	Meta
	Kind     TypeExprKind
	Prim     string // "u32", "field", "bool", ...
	Name     string
	Program  string
	Args     []GenericArg
	Elems    []*TypeExpr
	Elem     *TypeExpr
	Len      *Expr
	Symbol   symbols.SymbolID
	Resolved types.TypeID
}
