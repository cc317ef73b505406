package diag

import (
	"errors"
	"fmt"

	"veil/internal/source"
)

// InternalError signals a compiler bug: a pass met a node shape or state its
// predecessors should have ruled out. It is never shown as a user diagnostic
// and always stops the pipeline.
type InternalError struct {
	Pass string
	Node uint64
	Span source.Span
	Msg  string
}

func (e *InternalError) Error() string {
	if e.Node != 0 {
		return fmt.Sprintf("internal compiler error in %s: %s (node %d at %s)", e.Pass, e.Msg, e.Node, e.Span)
	}
	return fmt.Sprintf("internal compiler error in %s: %s", e.Pass, e.Msg)
}

// Internalf builds an InternalError.
func Internalf(pass string, node uint64, span source.Span, format string, args ...any) *InternalError {
	return &InternalError{Pass: pass, Node: node, Span: span, Msg: fmt.Sprintf(format, args...)}
}

// AsInternal unwraps err to an InternalError when it is one.
func AsInternal(err error) (*InternalError, bool) {
	var ie *InternalError
	if errors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}
