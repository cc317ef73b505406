package consteval

import (
	"fmt"

	"veil/internal/ast"
)

// ErrorKind classifies evaluation failures.
type ErrorKind uint8

const (
	// NotConstant: the expression depends on a runtime value.
	NotConstant ErrorKind = iota + 1
	// Overflow: the result does not fit its type.
	Overflow
	// DivisionByZero: division or remainder by a zero constant.
	DivisionByZero
	// Unsupported: constant, but not folded (e.g. group arithmetic).
	Unsupported
)

func (k ErrorKind) String() string {
	switch k {
	case NotConstant:
		return "not constant"
	case Overflow:
		return "overflow"
	case DivisionByZero:
		return "division by zero"
	case Unsupported:
		return "unsupported"
	}
	return "unknown"
}

// Error reports why an expression could not be evaluated.
type Error struct {
	Kind ErrorKind
	Expr *ast.Expr
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	return e.Kind.String()
}

func fail(kind ErrorKind, e *ast.Expr, format string, args ...any) *Error {
	return &Error{Kind: kind, Expr: e, Msg: fmt.Sprintf(format, args...)}
}
