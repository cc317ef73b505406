package diag

import (
	"fmt"
	"slices"
)

// Code is a stable diagnostic identifier. Each pipeline pass owns one
// thousand-wide range; the range decides the textual prefix.
type Code uint16

const (
	UnknownCode Code = 0

	// Разрешение имён
	ResInfo             Code = 1000
	ResDuplicateSymbol  Code = 1001
	ResUnresolvedSymbol Code = 1002
	ResAmbiguousImport  Code = 1003
	ResUnknownProgram   Code = 1004
	ResUnresolvedType   Code = 1005
	ResNotAType         Code = 1006
	ResNotAValue        Code = 1007
	ResDuplicateProgram Code = 1008

	// Типы
	TypInfo                Code = 2000
	TypInvalidOperator     Code = 2001
	TypMismatch            Code = 2002
	TypCannotInferLiteral  Code = 2003
	TypNotCallable         Code = 2004
	TypMissingMember       Code = 2005
	TypUnknownMember       Code = 2006
	TypDuplicateMember     Code = 2007
	TypIndexOutOfBounds    Code = 2008
	TypArgCount            Code = 2009
	TypNoMatchingCall      Code = 2010
	TypAmbiguousCall       Code = 2011
	TypCannotInferGeneric  Code = 2012
	TypFutureMisuse        Code = 2013
	TypRecursiveStruct     Code = 2014
	TypMissingReturn       Code = 2015
	TypInvalidAssignTarget Code = 2016
	TypWidthUnsupported    Code = 2017
	TypInvalidCast         Code = 2018
	TypNotIndexable        Code = 2019
	TypGenericArity        Code = 2020
	TypNotConstant         Code = 2021
	TypLiteralOutOfRange   Code = 2022
	TypAwaitOutsideAsync   Code = 2023
	TypInvalidSignature    Code = 2024

	// Статический анализ
	StaInfo                 Code = 3000
	StaEffectOutsideAsync   Code = 3001
	StaAsyncCallContext     Code = 3002
	StaMultipleAsyncCalls   Code = 3003
	StaAsyncCallsTransition Code = 3004
	StaFutureNotAwaited     Code = 3005
	StaConstOverflow        Code = 3006
	StaDivisionByZero       Code = 3007
	StaConstNotConstant     Code = 3008
	StaCallCycle            Code = 3009
	StaMissingAsyncCall     Code = 3010

	// Развёртка циклов
	UnrInfo             Code = 4000
	UnrNonConstantBound Code = 4001
	UnrLimitExceeded    Code = 4002

	// Мономорфизация
	MonInfo            Code = 5000
	MonUnresolvedArg   Code = 5001
	MonCycle           Code = 5002
	MonLimitExceeded   Code = 5003
	MonUnreachableInst Code = 5004

	// Выпрямление
	FltInfo            Code = 6000
	FltNoPlaceholder   Code = 6001

	// Кодогенерация
	GenInfo              Code = 7000
	GenUnsupportedOpcode Code = 7001
	GenDynamicIndex      Code = 7002

	// Конвейер и конфигурация
	PipInfo          Code = 8000
	PipInvalidConfig Code = 8001
)

var codeDescription = map[Code]string{
	UnknownCode: "Unknown error",

	ResInfo:             "Resolution information",
	ResDuplicateSymbol:  "Duplicate declaration",
	ResUnresolvedSymbol: "Unresolved name",
	ResAmbiguousImport:  "Ambiguous imported name",
	ResUnknownProgram:   "Unknown program",
	ResUnresolvedType:   "Unresolved type",
	ResNotAType:         "Name is not a type",
	ResNotAValue:        "Name is not a value",
	ResDuplicateProgram: "Program imported twice",

	TypInfo:                "Type information",
	TypInvalidOperator:     "Operator not defined for operand types",
	TypMismatch:            "Type mismatch",
	TypCannotInferLiteral:  "Cannot infer literal type",
	TypNotCallable:         "Expression is not callable",
	TypMissingMember:       "Missing struct member",
	TypUnknownMember:       "Unknown struct member",
	TypDuplicateMember:     "Duplicate struct member",
	TypIndexOutOfBounds:    "Index out of bounds",
	TypArgCount:            "Wrong number of arguments",
	TypNoMatchingCall:      "No matching function",
	TypAmbiguousCall:       "Ambiguous call",
	TypCannotInferGeneric:  "Cannot infer generic arguments",
	TypFutureMisuse:        "Future used outside an async context",
	TypRecursiveStruct:     "Recursive struct",
	TypMissingReturn:       "Missing return",
	TypInvalidAssignTarget: "Invalid assignment target",
	TypWidthUnsupported:    "Integer width not supported by profile",
	TypInvalidCast:         "Invalid cast",
	TypNotIndexable:        "Expression is not indexable",
	TypGenericArity:        "Wrong number of generic arguments",
	TypNotConstant:         "Expression is not a compile-time constant",
	TypLiteralOutOfRange:   "Literal out of range",
	TypAwaitOutsideAsync:   "Await outside an async function",
	TypInvalidSignature:    "Invalid function signature",

	StaInfo:                 "Static analysis information",
	StaEffectOutsideAsync:   "Public state accessed outside an async function",
	StaAsyncCallContext:     "Async function called outside an async transition",
	StaMultipleAsyncCalls:   "Multiple async calls in one transition",
	StaAsyncCallsTransition: "Async function calls a transition",
	StaFutureNotAwaited:     "Future never awaited",
	StaConstOverflow:        "Constant overflow",
	StaDivisionByZero:       "Division by zero",
	StaConstNotConstant:     "Constant is not compile-time evaluable",
	StaCallCycle:            "Recursive call cycle",
	StaMissingAsyncCall:     "Async transition without async call",

	UnrInfo:             "Unroll information",
	UnrNonConstantBound: "Loop bound is not constant",
	UnrLimitExceeded:    "Unroll limit exceeded",

	MonInfo:            "Monomorphization information",
	MonUnresolvedArg:   "Generic argument is not constant",
	MonCycle:           "Instantiation cycle",
	MonLimitExceeded:   "Instantiation limit exceeded",
	MonUnreachableInst: "Generic declaration never instantiated",

	FltInfo:          "Flatten information",
	FltNoPlaceholder: "Return type has no placeholder value",

	GenInfo:              "Codegen information",
	GenUnsupportedOpcode: "Opcode not supported by profile",
	GenDynamicIndex:      "Array index is not a constant",

	PipInfo:          "Pipeline information",
	PipInvalidConfig: "Invalid configuration",
}

// ID renders the code with its pass prefix, e.g. TYP2002.
func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("RES%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("TYP%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("STA%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("UNR%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("MON%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("FLT%04d", ic)
	case ic >= 7000 && ic < 8000:
		return fmt.Sprintf("GEN%04d", ic)
	case ic >= 8000 && ic < 9000:
		return fmt.Sprintf("PIP%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	if d, ok := codeDescription[c]; ok {
		return d
	}
	return codeDescription[UnknownCode]
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}

// ParseCode maps an ID such as "TYP2002" back to its Code.
func ParseCode(id string) (Code, bool) {
	for c := range codeDescription {
		if c != UnknownCode && c.ID() == id {
			return c, true
		}
	}
	return UnknownCode, false
}

// Codes returns every known code in ascending order.
func Codes() []Code {
	out := make([]Code, 0, len(codeDescription))
	for c := range codeDescription {
		if c != UnknownCode {
			out = append(out, c)
		}
	}
	slices.Sort(out)
	return out
}
