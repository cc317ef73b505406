package trace

import "errors"

// Multi fans events out to several tracers.
type Multi struct {
	tracers []Tracer
}

func NewMulti(tracers ...Tracer) *Multi {
	return &Multi{tracers: tracers}
}

func (t *Multi) Emit(ev Event) {
	for _, tr := range t.tracers {
		tr.Emit(ev)
	}
}

func (t *Multi) Flush() error {
	var errs []error
	for _, tr := range t.tracers {
		errs = append(errs, tr.Flush())
	}
	return errors.Join(errs...)
}

func (t *Multi) Close() error {
	var errs []error
	for _, tr := range t.tracers {
		errs = append(errs, tr.Close())
	}
	return errors.Join(errs...)
}

// Level is the most verbose level of the members.
func (t *Multi) Level() Level {
	var l Level
	for _, tr := range t.tracers {
		l = max(l, tr.Level())
	}
	return l
}
