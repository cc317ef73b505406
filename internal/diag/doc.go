// Package diag defines the diagnostic model shared by every compiler pass.
//
// A Diagnostic carries a Severity, a stable Code, a short message, the
// primary span and optional notes and fixes. Codes are grouped in
// thousand-wide ranges, one per pass, which gives every ID its prefix:
//
//	RES  name resolution
//	TYP  type checking
//	STA  static analysis
//	UNR  loop unrolling
//	MON  monomorphization
//	FLT  flattening
//	GEN  code generation
//	PIP  pipeline and configuration
//
// Passes report through a Reporter, usually a BagReporter over the shared
// Bag. The Bag is safe for concurrent use; callers sort it by span when
// presenting results.
//
// InternalError is not a diagnostic. It reports a broken compiler invariant
// and travels as a Go error.
//
// Long-form explanations live in explain.md and are parsed lazily by Explain.
package diag
