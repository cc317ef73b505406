package driver

import "time"

// Status captures the state of a pass.
type Status string

const (
	// StatusWorking indicates the pass has begun.
	StatusWorking Status = "working"
	// StatusDone indicates the pass finished without errors.
	StatusDone Status = "done"
	// StatusError indicates the pass reported errors and the pipeline halted.
	StatusError Status = "error"
	// StatusSkipped marks passes that never ran because an earlier one halted.
	StatusSkipped Status = "skipped"
)

// Event reports a pass boundary. Elapsed is set on the final event of a pass.
type Event struct {
	Pass    string
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events. OnEvent is called from the
// goroutine running the pipeline.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

// SinkFunc adapts a function to ProgressSink.
type SinkFunc func(Event)

func (f SinkFunc) OnEvent(evt Event) { f(evt) }
