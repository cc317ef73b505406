package buildpipeline

import (
	"context"
	"sync"
	"testing"

	"github.com/nalgeon/be"

	"veil/internal/config"
	"veil/internal/driver"
	"veil/internal/testkit"
)

type recorder struct {
	mu     sync.Mutex
	events map[string][]driver.Event
}

func (r *recorder) OnEvent(evt Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[evt.Job] = append(r.events[evt.Job], evt.Event)
}

func fixtureJobs() []Job {
	var jobs []Job
	for _, fx := range testkit.Fixtures() {
		jobs = append(jobs, Job{Name: fx.Name, Program: fx.Build()})
	}
	return jobs
}

func TestCompileAllKeepsJobOrder(t *testing.T) {
	cfg := config.Default()
	cfg.Build.Jobs = 3
	rec := &recorder{events: make(map[string][]driver.Event)}

	outcomes, err := CompileAll(context.Background(), fixtureJobs(), cfg, rec)
	be.Err(t, err, nil)

	fixtures := testkit.Fixtures()
	be.Equal(t, len(outcomes), len(fixtures))
	for i, fx := range fixtures {
		be.Equal(t, outcomes[i].Job, fx.Name)
		be.Equal(t, outcomes[i].Result.HaltedAt, fx.HaltedAt)
		be.Equal(t, outcomes[i].Failed(), fx.HaltedAt != "")
	}

	s := Summarize(outcomes)
	be.Equal(t, s, Summary{Compiled: len(fixtures) - 2, Halted: 2})

	double := rec.events["double"]
	be.Equal(t, len(double), 2*len(driver.Passes()))
	be.Equal(t, double[len(double)-1].Status, driver.StatusDone)
}

func TestCompileAllRejectsDuplicateNames(t *testing.T) {
	jobs := []Job{
		{Name: "a", Program: testkit.Double()},
		{Name: "a", Program: testkit.LoopSum()},
	}
	_, err := CompileAll(context.Background(), jobs, config.Default(), nil)
	be.Err(t, err, `duplicate job "a"`)
}

func TestCompileAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	outcomes, err := CompileAll(ctx, fixtureJobs()[:1], config.Default(), nil)
	be.Err(t, err, context.Canceled)
	be.Equal(t, outcomes[0].Failed(), true)
	be.Equal(t, Summarize(outcomes).Broken, 1)
}
