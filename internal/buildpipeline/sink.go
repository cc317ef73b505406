package buildpipeline

import "veil/internal/driver"

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

// jobSink tags driver events with a job name.
type jobSink struct {
	job  string
	sink ProgressSink
}

func (s jobSink) OnEvent(evt driver.Event) {
	s.sink.OnEvent(Event{Job: s.job, Event: evt})
}
