package instr

// Opcode enumerates target instructions.
type Opcode uint8

const (
	OpInvalid Opcode = iota
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpRem
	OpPow
	OpNeg
	OpNot
	OpAnd
	OpOr
	OpXor
	OpShl
	OpShr
	OpIsEq
	OpIsNeq
	OpLt
	OpLte
	OpGt
	OpGte
	OpTernary
	OpCast
	OpCall
	OpAsync
	OpAwait
	OpAssertEq
	OpAssertNeq
	OpGet
	OpGetOrUse
	OpSet
	OpRemove
	OpContains
	OpOutput
)

var mnemonics = [...]string{
	OpInvalid:   "invalid",
	OpAdd:       "add",
	OpSub:       "sub",
	OpMul:       "mul",
	OpDiv:       "div",
	OpRem:       "rem",
	OpPow:       "pow",
	OpNeg:       "neg",
	OpNot:       "not",
	OpAnd:       "and",
	OpOr:        "or",
	OpXor:       "xor",
	OpShl:       "shl",
	OpShr:       "shr",
	OpIsEq:      "is.eq",
	OpIsNeq:     "is.neq",
	OpLt:        "lt",
	OpLte:       "lte",
	OpGt:        "gt",
	OpGte:       "gte",
	OpTernary:   "ternary",
	OpCast:      "cast",
	OpCall:      "call",
	OpAsync:     "async",
	OpAwait:     "await",
	OpAssertEq:  "assert.eq",
	OpAssertNeq: "assert.neq",
	OpGet:       "get",
	OpGetOrUse:  "get.or_use",
	OpSet:       "set",
	OpRemove:    "remove",
	OpContains:  "contains",
	OpOutput:    "output",
}

// String returns the mnemonic.
func (op Opcode) String() string {
	if int(op) < len(mnemonics) {
		return mnemonics[op]
	}
	return "invalid"
}

// ParseOpcode maps a mnemonic back to its opcode.
func ParseOpcode(s string) (Opcode, bool) {
	for i, m := range mnemonics {
		if m == s && i != int(OpInvalid) {
			return Opcode(i), true
		}
	}
	return OpInvalid, false
}

// Mnemonics lists every valid mnemonic in opcode order.
func Mnemonics() []string {
	return append([]string(nil), mnemonics[1:]...)
}

// NeedsResult reports opcodes that must write at least one register.
// A call writes one register per callee output, possibly none.
func (op Opcode) NeedsResult() bool {
	switch op {
	case OpInvalid, OpCall, OpAwait, OpAssertEq, OpAssertNeq, OpSet, OpRemove, OpOutput:
		return false
	}
	return true
}
