package ast

// UnaryOp enumerates prefix operators.
type UnaryOp uint8

const (
	UnaryNeg UnaryOp = iota + 1
	UnaryNot
)

func (op UnaryOp) String() string {
	switch op {
	case UnaryNeg:
		return "-"
	case UnaryNot:
		return "!"
	}
	return "?"
}

// BinaryOp enumerates infix operators. OpNone is used by plain assignment.
type BinaryOp uint8

const (
	OpNone BinaryOp = iota
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpRem
	OpPow
	OpAnd // &&
	OpOr  // ||
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShl
	OpShr
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
)

func (op BinaryOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpRem:
		return "%"
	case OpPow:
		return "**"
	case OpAnd:
		return "&&"
	case OpOr:
		return "||"
	case OpBitAnd:
		return "&"
	case OpBitOr:
		return "|"
	case OpBitXor:
		return "^"
	case OpShl:
		return "<<"
	case OpShr:
		return ">>"
	case OpEq:
		return "=="
	case OpNe:
		return "!="
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	}
	return ""
}

// IsComparison reports operators producing bool from non-bool operands.
func (op BinaryOp) IsComparison() bool {
	switch op {
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		return true
	}
	return false
}

// Visibility of params, outputs and record members.
type Visibility uint8

const (
	Private Visibility = iota
	Public
	Constant
)

func (v Visibility) String() string {
	switch v {
	case Public:
		return "public"
	case Constant:
		return "constant"
	}
	return "private"
}

// Variant distinguishes the function flavours of the target.
type Variant uint8

const (
	VariantFunction        Variant = iota // off-chain helper, callable externally
	VariantTransition                     // entry point producing a proof
	VariantAsyncTransition                // transition that hands off to an async function
	VariantInline                         // helper with no interface of its own
	VariantAsync                          // on-chain finalize logic
)

func (v Variant) String() string {
	switch v {
	case VariantTransition:
		return "transition"
	case VariantAsyncTransition:
		return "async transition"
	case VariantInline:
		return "inline"
	case VariantAsync:
		return "async function"
	}
	return "function"
}

// IsTransition covers both transition flavours.
func (v Variant) IsTransition() bool {
	return v == VariantTransition || v == VariantAsyncTransition
}

// MappingOp enumerates operations on public mappings.
type MappingOp uint8

const (
	MappingGet MappingOp = iota + 1
	MappingGetOrUse
	MappingSet
	MappingRemove
	MappingContains
)

func (op MappingOp) String() string {
	switch op {
	case MappingGet:
		return "get"
	case MappingGetOrUse:
		return "get_or_use"
	case MappingSet:
		return "set"
	case MappingRemove:
		return "remove"
	case MappingContains:
		return "contains"
	}
	return "?"
}

// Mutates reports whether the operation writes the mapping.
func (op MappingOp) Mutates() bool {
	return op == MappingSet || op == MappingRemove
}

// ContextKind enumerates the ambient values of the target.
type ContextKind uint8

const (
	ContextCaller ContextKind = iota + 1 // self.caller
	ContextSigner                        // self.signer
	ContextHeight                        // block.height
)

func (k ContextKind) String() string {
	switch k {
	case ContextCaller:
		return "self.caller"
	case ContextSigner:
		return "self.signer"
	case ContextHeight:
		return "block.height"
	}
	return "?"
}

// AssertKind enumerates assertion statements.
type AssertKind uint8

const (
	AssertTrue AssertKind = iota + 1
	AssertEq
	AssertNeq
)

func (k AssertKind) String() string {
	switch k {
	case AssertEq:
		return "assert_eq"
	case AssertNeq:
		return "assert_neq"
	}
	return "assert"
}
