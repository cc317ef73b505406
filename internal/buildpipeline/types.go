// Package buildpipeline compiles several programs side by side and reports
// per-job progress.
package buildpipeline

import (
	"veil/internal/ast"
	"veil/internal/driver"
)

// Event is a driver event tagged with the job it belongs to.
type Event struct {
	Job string
	driver.Event
}

// ProgressSink consumes progress events. OnEvent may be called from
// several goroutines at once.
type ProgressSink interface {
	OnEvent(Event)
}

// Job is one compilation.
type Job struct {
	Name    string
	Program *ast.Program
	Imports []*ast.Program
}

// Outcome is the result of one job. Err carries internal errors and
// cancellation only; user errors live in Result.
type Outcome struct {
	Job    string
	Result *driver.Result
	Err    error
}

// Failed reports whether the job halted or broke.
func (o Outcome) Failed() bool {
	return o.Err != nil || o.Result == nil || o.Result.Halted()
}
