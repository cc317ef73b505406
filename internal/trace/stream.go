package trace

import (
	"io"
	"sync"
)

// Stream writes each event as it arrives. Write errors are dropped so that
// tracing never fails a compilation.
type Stream struct {
	mu     sync.Mutex
	w      io.Writer
	level  Level
	format Format
}

func NewStream(w io.Writer, level Level, format Format) *Stream {
	return &Stream{w: w, level: level, format: format}
}

func (t *Stream) Emit(ev Event) {
	if !t.level.ShouldEmit(ev.Scope) {
		return
	}
	data := FormatEvent(ev, t.format)
	t.mu.Lock()
	defer t.mu.Unlock()
	_, _ = t.w.Write(data)
}

func (t *Stream) Flush() error {
	if f, ok := t.w.(interface{ Sync() error }); ok && !isStdStream(t.w) {
		return f.Sync()
	}
	return nil
}

// Close closes the writer unless it is a process stream.
func (t *Stream) Close() error {
	if err := t.Flush(); err != nil {
		return err
	}
	if c, ok := t.w.(io.Closer); ok && !isStdStream(t.w) {
		return c.Close()
	}
	return nil
}

func (t *Stream) Level() Level { return t.level }
