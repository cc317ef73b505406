package ast

import (
	"veil/internal/symbols"
)

// StmtKind enumerates statement kinds.
type StmtKind uint8

const (
	StmtLet StmtKind = iota + 1
	StmtConst
	StmtAssign
	StmtExpr
	StmtReturn
	StmtIf
	StmtFor
	StmtBlock
	StmtAssert
)

func (k StmtKind) String() string {
	switch k {
	case StmtLet:
		return "Let"
	case StmtConst:
		return "Const"
	case StmtAssign:
		return "Assign"
	case StmtExpr:
		return "Expr"
	case StmtReturn:
		return "Return"
	case StmtIf:
		return "If"
	case StmtFor:
		return "For"
	case StmtBlock:
		return "Block"
	case StmtAssert:
		return "Assert"
	default:
		return "Unknown"
	}
}

// Stmt is a statement node.
type Stmt struct {
	Meta
	Kind StmtKind
	Data StmtData
}

// StmtData is the kind-specific payload; the set of implementations is closed.
type StmtData interface {
	stmtData()
}

// Binding is one name introduced by let; several bindings destructure a tuple.
type Binding struct {
	Meta
	Name   string
	Symbol symbols.SymbolID
}

type LetData struct {
	Bindings []*Binding
	Type     *TypeExpr // optional annotation
	Value    *Expr
}

func (LetData) stmtData() {}

// ConstData is a block-local constant.
type ConstData struct {
	Binding *Binding
	Type    *TypeExpr
	Value   *Expr
}

func (ConstData) stmtData() {}

// AssignData is `target = value` or `target op= value`.
type AssignData struct {
	Target *Expr
	Op     BinaryOp
	Value  *Expr
}

func (AssignData) stmtData() {}

// ExprStmtData evaluates an expression for its effect. Guard, set by
// flattening, makes the effect conditional.
type ExprStmtData struct {
	Value *Expr
	Guard *Expr
}

func (ExprStmtData) stmtData() {}

// ReturnData returns Value (nil for functions without outputs).
type ReturnData struct {
	Value *Expr
}

func (ReturnData) stmtData() {}

type IfData struct {
	Cond *Expr
	Then *Block
	Else *Block // nil when absent; else-if is a block holding one If
}

func (IfData) stmtData() {}

// ForData is `for i: T in start..end` (or `..=` when Inclusive).
type ForData struct {
	Var       *Binding
	VarType   *TypeExpr
	Start     *Expr
	End       *Expr
	Inclusive bool
	Body      *Block
}

func (ForData) stmtData() {}

type BlockStmtData struct {
	Block *Block
}

func (BlockStmtData) stmtData() {}

type AssertData struct {
	Kind  AssertKind
	Left  *Expr
	Right *Expr // nil for AssertTrue
}

func (AssertData) stmtData() {}

// Block is a statement list with its own scope.
type Block struct {
	Meta
	Stmts []*Stmt
	Scope symbols.ScopeID
}
