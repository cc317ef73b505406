// Package trace is the compiler's structured event log.
//
// Events are spans (begin/end pairs) and points. Every event carries a
// scope: driver, pass, function or node. The configured level decides which
// scopes are emitted:
//
//	off     nothing
//	error   nothing from spans; reserved for failure dumps
//	phase   driver and pass spans
//	detail  plus per-function events
//	debug   everything
//
// Tracers travel in a context.Context (WithTracer/FromContext) together
// with the current span, so nested Begin calls link to their parent.
package trace
