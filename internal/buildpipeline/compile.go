package buildpipeline

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"veil/internal/config"
	"veil/internal/driver"
	"veil/internal/trace"
)

// CompileAll runs every job through the driver, at most cfg.Jobs() at a
// time. Outcomes are returned in job order. A job that halts on user errors
// does not stop the others; the returned error is the first internal error
// or the context's.
func CompileAll(ctx context.Context, jobs []Job, cfg config.Config, progress ProgressSink) ([]Outcome, error) {
	seen := make(map[string]bool, len(jobs))
	for _, j := range jobs {
		if seen[j.Name] {
			return nil, fmt.Errorf("duplicate job %q", j.Name)
		}
		seen[j.Name] = true
	}

	ctx, span := trace.Begin(ctx, trace.ScopeDriver, "compile-all")
	defer span.End(fmt.Sprintf("%d jobs", len(jobs)))

	outcomes := make([]Outcome, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(cfg.Jobs(), len(jobs))))
	for i, j := range jobs {
		g.Go(func() error {
			req := driver.Request{Program: j.Program, Imports: j.Imports, Config: cfg}
			if progress != nil {
				req.Progress = jobSink{job: j.Name, sink: progress}
			}
			res, err := driver.Run(gctx, req)
			if err != nil {
				err = fmt.Errorf("%s: %w", j.Name, err)
			}
			outcomes[i] = Outcome{Job: j.Name, Result: res, Err: err}
			return err
		})
	}
	err := g.Wait()
	return outcomes, err
}

// Summary counts outcomes.
type Summary struct {
	Compiled int
	Halted   int
	Broken   int
}

// Summarize tallies outcomes.
func Summarize(outcomes []Outcome) Summary {
	var s Summary
	for _, o := range outcomes {
		switch {
		case o.Err != nil || o.Result == nil:
			s.Broken++
		case o.Result.Halted():
			s.Halted++
		default:
			s.Compiled++
		}
	}
	return s
}
