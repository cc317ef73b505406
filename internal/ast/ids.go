package ast

import (
	"sync/atomic"

	"veil/internal/source"
)

// NodeID is the identity of a node. IDs are process-unique, assigned in
// increasing order and never reused; rewrites give new nodes new IDs.
type NodeID uint64

// NoNodeID marks the absence of a node.
const NoNodeID NodeID = 0

func (id NodeID) IsValid() bool { return id != NoNodeID }

// IDAllocator hands out node identities.
type IDAllocator struct {
	last atomic.Uint64
}

// IDs is the process-wide allocator.
var IDs = &IDAllocator{}

// Next returns a fresh identity.
func (a *IDAllocator) Next() NodeID {
	return NodeID(a.last.Add(1))
}

// Origin ties a generated node to the node it was derived from. It never
// owns the referenced node.
type Origin struct {
	Node  NodeID
	Span  source.Span
	Notes []string // e.g. "in iteration i = 2", "instantiated with T = u32"
}

// Meta is embedded in every node.
type Meta struct {
	ID     NodeID
	Span   source.Span
	Origin *Origin
}

// NewMeta allocates an identity for a node at span.
func NewMeta(span source.Span) Meta {
	return Meta{ID: IDs.Next(), Span: span}
}

// Derive returns meta for a node generated from m: fresh identity, same
// span, origin pointing at m.
func (m Meta) Derive(note string) Meta {
	return Meta{ID: IDs.Next(), Span: m.Span, Origin: m.Tag(m.Span, note)}
}

// Tag builds the origin of a node derived from m. Existing origins keep
// their span and accumulate notes; span is used for untagged nodes.
func (m Meta) Tag(span source.Span, note string) *Origin {
	if m.Origin != nil {
		o := &Origin{Node: m.Origin.Node, Span: m.Origin.Span}
		o.Notes = append(append(o.Notes, m.Origin.Notes...), nonEmpty(note)...)
		return o
	}
	return &Origin{Node: m.ID, Span: span, Notes: nonEmpty(note)}
}

// ReportSpan is the span diagnostics about this node should point at.
func (m Meta) ReportSpan() source.Span {
	if m.Origin != nil && m.Origin.Span.Valid() {
		return m.Origin.Span
	}
	return m.Span
}

// ReportNotes is the generated-code context for diagnostics.
func (m Meta) ReportNotes() []string {
	if m.Origin == nil {
		return nil
	}
	return m.Origin.Notes
}

func nonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	return []string{s}
}
