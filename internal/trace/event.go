package trace

import (
	"sync/atomic"
	"time"
)

// Kind is the event type.
type Kind uint8

const (
	KindBegin Kind = iota + 1
	KindEnd
	KindPoint
)

func (k Kind) String() string {
	switch k {
	case KindBegin:
		return "begin"
	case KindEnd:
		return "end"
	case KindPoint:
		return "point"
	}
	return "unknown"
}

// Field is an ordered key/value annotation.
type Field struct {
	Key   string
	Value string
}

// F builds a Field.
func F(key, value string) Field { return Field{Key: key, Value: value} }

// Event is a single trace record.
type Event struct {
	Time     time.Time
	Seq      uint64
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64
	Name     string // "typecheck", "unroll", "fn:transfer"
	Detail   string
	Elapsed  time.Duration // end events only
	Fields   []Field
}

var (
	seq   atomic.Uint64
	spans atomic.Uint64
)

func nextSeq() uint64    { return seq.Add(1) }
func nextSpanID() uint64 { return spans.Add(1) }
