package driver

import (
	"context"

	"veil/internal/analyze"
	"veil/internal/codegen"
	"veil/internal/compiler"
	"veil/internal/flatten"
	"veil/internal/mono"
	"veil/internal/resolve"
	"veil/internal/sema"
	"veil/internal/unroll"
)

// Pass is one stage of the pipeline. Run reports user errors through the
// diagnostic bag of st; a returned error is fatal.
type Pass interface {
	Name() string
	Run(ctx context.Context, st *compiler.State) error
}

// Passes returns the pipeline in execution order.
func Passes() []Pass {
	return []Pass{
		resolve.Pass{},
		sema.Pass{},
		analyze.Pass{},
		unroll.Pass{},
		mono.Pass{},
		flatten.Pass{},
		codegen.Pass{},
	}
}

// verifiers are the invariant checks run after a pass when
// [build].verify is set.
var verifiers = map[string]func(*compiler.State) error{
	"unroll":  unroll.Verify,
	"mono":    mono.Verify,
	"flatten": flatten.Verify,
}
