// Package driver runs the compiler passes over a program in order, halting
// at the first pass that leaves an error in the diagnostic bag.
package driver

import (
	"context"
	"fmt"
	"strconv"

	"veil/internal/ast"
	"veil/internal/compiler"
	"veil/internal/config"
	"veil/internal/diag"
	"veil/internal/instr"
	"veil/internal/observ"
	"veil/internal/source"
	"veil/internal/symbols"
	"veil/internal/trace"
)

// Request describes one compilation.
type Request struct {
	Program *ast.Program
	Imports []*ast.Program // in import-closure order
	Files   *source.FileSet
	Config  config.Config

	// Tracer overrides the tracer carried by the context.
	Tracer   trace.Tracer
	Progress ProgressSink
	// StopAfter ends the pipeline after the named pass.
	StopAfter string
	// Timings appends the timing report as an info diagnostic.
	Timings bool
}

// Result is the outcome of Run. Program is nil unless every pass ran
// without errors.
type Result struct {
	Program     *instr.Program
	Diagnostics []diag.Diagnostic // sorted by span
	Symbols     *symbols.Table
	HaltedAt    string
	Timings     observ.Report
}

// Halted reports whether a pass stopped the pipeline with errors.
func (r *Result) Halted() bool { return r.HaltedAt != "" }

// Run compiles req.Program. User errors are returned in the result; the
// error return is reserved for internal compiler errors and cancellation.
func Run(ctx context.Context, req Request) (*Result, error) {
	return RunPasses(ctx, req, Passes())
}

// RunPasses is Run over an explicit pass list.
func RunPasses(ctx context.Context, req Request, passes []Pass) (*Result, error) {
	if req.Program == nil {
		return nil, fmt.Errorf("driver: no program to compile")
	}
	if req.Tracer != nil {
		ctx = trace.WithTracer(ctx, req.Tracer)
	}
	ctx, span := trace.Begin(ctx, trace.ScopeDriver, "compile")
	span.With("program", req.Program.Name)

	st := compiler.New(req.Program, req.Imports, req.Config)
	st.Files = req.Files
	res := &Result{Symbols: st.Symbols}
	timer := observ.NewTimer()
	finish := func() *Result {
		if req.Timings {
			appendTimingDiagnostic(st.Diags, req.Program.Name, timer.Report())
		}
		res.Diagnostics = st.Diags.Sorted()
		res.Timings = timer.Report()
		return res
	}

	if err := req.Config.Validate(); err != nil {
		st.Diags.Add(diag.New(diag.SevError, diag.PipInvalidConfig, req.Program.Span, err.Error()))
		res.HaltedAt = "config"
		span.End("invalid configuration")
		return finish(), nil
	}

	for i, p := range passes {
		name := p.Name()
		if err := ctx.Err(); err != nil {
			span.End(err.Error())
			return finish(), err
		}
		if err := runPass(ctx, st, p, timer, req.Progress); err != nil {
			span.End(err.Error())
			return finish(), err
		}
		if st.Diags.HasErrors() {
			res.HaltedAt = name
			notify(req.Progress, Event{Pass: name, Status: StatusError})
			for _, rest := range passes[i+1:] {
				notify(req.Progress, Event{Pass: rest.Name(), Status: StatusSkipped})
			}
			span.With("halted", name).End("")
			return finish(), nil
		}
		if name == req.StopAfter {
			break
		}
	}
	res.Program = st.Output
	span.End("")
	return finish(), nil
}

// runPass runs p inside its trace span and timer phase, then the optional
// invariant check and the warning promotion.
func runPass(ctx context.Context, st *compiler.State, p Pass, timer *observ.Timer, sink ProgressSink) error {
	name := p.Name()
	notify(sink, Event{Pass: name, Status: StatusWorking})
	idx := timer.Begin(name)
	pctx, span := trace.Begin(ctx, trace.ScopePass, name)

	err := p.Run(pctx, st)
	if err == nil && st.Config.Build.Verify && !st.Diags.HasErrors() {
		if verify, ok := verifiers[name]; ok {
			err = verify(st)
		}
	}
	if st.Config.Diagnostics.WarningsAsErrors {
		st.Diags.PromoteWarnings()
	}
	timer.Count(idx, len(st.Program.Functions))
	note := "diags=" + strconv.Itoa(st.Diags.Len())
	elapsed := timer.End(idx, note)
	span.With("diags", strconv.Itoa(st.Diags.Len())).End(errDetail(err))

	if err != nil {
		notify(sink, Event{Pass: name, Status: StatusError, Err: err, Elapsed: elapsed})
		if _, ok := diag.AsInternal(err); ok {
			return err
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	if !st.Diags.HasErrors() {
		notify(sink, Event{Pass: name, Status: StatusDone, Elapsed: elapsed})
	}
	return nil
}

func notify(sink ProgressSink, evt Event) {
	if sink != nil {
		sink.OnEvent(evt)
	}
}

func errDetail(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
