package diag

import (
	"sync"

	"veil/internal/source"
)

type dedupKey struct {
	code Code
	span source.Span
	msg  string
}

// DedupReporter drops repeats of the same code, span and message. Unrolled
// copies of one statement tend to report the same problem per iteration;
// their messages differ by iteration context, so only true repeats go away.
type DedupReporter struct {
	next Reporter
	mu   sync.Mutex
	seen map[dedupKey]struct{}
}

func NewDedupReporter(next Reporter) *DedupReporter {
	return &DedupReporter{
		next: next,
		seen: make(map[dedupKey]struct{}),
	}
}

func (r *DedupReporter) Report(code Code, sev Severity, primary source.Span, msg string, notes []Note, fixes []Fix) {
	if r == nil || r.next == nil {
		return
	}
	key := dedupKey{code: code, span: primary, msg: msg}
	r.mu.Lock()
	_, dup := r.seen[key]
	r.seen[key] = struct{}{}
	r.mu.Unlock()
	if dup {
		return
	}
	r.next.Report(code, sev, primary, msg, notes, fixes)
}
