package ast

import (
	"veil/internal/symbols"
	"veil/internal/types"
)

// ExprKind enumerates expression kinds.
type ExprKind uint8

const (
	ExprLiteral ExprKind = iota + 1
	ExprIdent
	ExprUnary
	ExprBinary
	ExprTernary
	ExprCall
	ExprCast
	ExprStructLit
	ExprMember
	ExprTupleLit
	ExprTupleAccess
	ExprArrayLit
	ExprIndex
	ExprMappingOp
	ExprAwait
	ExprContext
	// ExprSelect is the branch-free choice produced by flattening.
	ExprSelect
)

func (k ExprKind) String() string {
	switch k {
	case ExprLiteral:
		return "Literal"
	case ExprIdent:
		return "Ident"
	case ExprUnary:
		return "Unary"
	case ExprBinary:
		return "Binary"
	case ExprTernary:
		return "Ternary"
	case ExprCall:
		return "Call"
	case ExprCast:
		return "Cast"
	case ExprStructLit:
		return "StructLit"
	case ExprMember:
		return "Member"
	case ExprTupleLit:
		return "TupleLit"
	case ExprTupleAccess:
		return "TupleAccess"
	case ExprArrayLit:
		return "ArrayLit"
	case ExprIndex:
		return "Index"
	case ExprMappingOp:
		return "MappingOp"
	case ExprAwait:
		return "Await"
	case ExprContext:
		return "Context"
	case ExprSelect:
		return "Select"
	default:
		return "Unknown"
	}
}

// Expr is an expression node. Type is filled by type checking.
type Expr struct {
	Meta
	Kind ExprKind
	Type types.TypeID
	Data ExprData
}

// ExprData is the kind-specific payload; the set of implementations is closed.
type ExprData interface {
	exprData()
}

// LiteralKind enumerates literal value kinds.
type LiteralKind uint8

const (
	LitInt LiteralKind = iota + 1
	LitBool
	LitField
	LitGroup
	LitScalar
	LitAddress
)

// LiteralData holds a literal in source form: digits (or address text)
// plus the type suffix. An integer without suffix takes its type from
// context.
type LiteralData struct {
	Kind   LiteralKind
	Text   string // "5", "true", "aleo1..."
	Suffix string // "u32", "field", "" when absent
}

func (LiteralData) exprData() {}

// IdentData references a named value, optionally qualified by program.
type IdentData struct {
	Name    string
	Program string
	Symbol  symbols.SymbolID
}

func (IdentData) exprData() {}

type UnaryData struct {
	Op      UnaryOp
	Operand *Expr
}

func (UnaryData) exprData() {}

type BinaryData struct {
	Op    BinaryOp
	Left  *Expr
	Right *Expr
}

func (BinaryData) exprData() {}

// TernaryData is `cond ? a : b` in source.
type TernaryData struct {
	Cond *Expr
	Then *Expr
	Else *Expr
}

func (TernaryData) exprData() {}

// SelectData picks Then when Cond holds, Else otherwise; both sides are
// always evaluated.
type SelectData struct {
	Cond *Expr
	Then *Expr
	Else *Expr
}

func (SelectData) exprData() {}

// GenericArg is either a type or a constant expression.
type GenericArg struct {
	Type  *TypeExpr
	Value *Expr
}

// CallData is a call of a named function. Resolution fills Symbol when the
// name is unambiguous and Candidates when several imported programs offer
// it; type checking picks the final Symbol and the generic arguments.
type CallData struct {
	Callee     string
	Program    string
	Generics   []GenericArg
	Args       []*Expr
	Symbol     symbols.SymbolID
	Candidates []symbols.SymbolID
	TypeArgs   []types.TypeID
}

func (CallData) exprData() {}

type CastData struct {
	Value  *Expr
	Target *TypeExpr
}

func (CastData) exprData() {}

// FieldInit is one `name: value` entry of a struct literal.
type FieldInit struct {
	Meta
	Name  string
	Value *Expr
}

type StructLitData struct {
	Name     string
	Program  string
	Generics []GenericArg
	Fields   []*FieldInit
	Symbol   symbols.SymbolID
}

func (StructLitData) exprData() {}

type MemberData struct {
	Target *Expr
	Name   string
}

func (MemberData) exprData() {}

type TupleLitData struct {
	Elems []*Expr
}

func (TupleLitData) exprData() {}

type TupleAccessData struct {
	Target *Expr
	Index  int
}

func (TupleAccessData) exprData() {}

type ArrayLitData struct {
	Elems []*Expr
}

func (ArrayLitData) exprData() {}

type IndexData struct {
	Target *Expr
	Index  *Expr
}

func (IndexData) exprData() {}

// MappingOpData is `m.get(k)`, `m.set(k, v)` and friends.
type MappingOpData struct {
	Op      MappingOp
	Mapping *Expr // ident resolving to a mapping
	Args    []*Expr
}

func (MappingOpData) exprData() {}

type AwaitData struct {
	Future *Expr
}

func (AwaitData) exprData() {}

type ContextData struct {
	Kind ContextKind
}

func (ContextData) exprData() {}

// Literal returns the payload of a literal expression.
func (e *Expr) Literal() (LiteralData, bool) {
	if e == nil || e.Kind != ExprLiteral {
		return LiteralData{}, false
	}
	d, ok := e.Data.(LiteralData)
	return d, ok
}

// Ident returns the payload of an identifier expression.
func (e *Expr) Ident() (IdentData, bool) {
	if e == nil || e.Kind != ExprIdent {
		return IdentData{}, false
	}
	d, ok := e.Data.(IdentData)
	return d, ok
}

// IsAtom reports literals and identifiers: expressions that are cheap to
// duplicate.
func (e *Expr) IsAtom() bool {
	return e != nil && (e.Kind == ExprLiteral || e.Kind == ExprIdent || e.Kind == ExprContext)
}
