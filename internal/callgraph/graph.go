// Package callgraph records statically resolved calls between functions and
// finds call cycles.
package callgraph

import (
	"fmt"

	"fortio.org/safecast"

	"veil/internal/source"
	"veil/internal/symbols"
)

// NodeID indexes a function in the graph, in insertion order.
type NodeID uint32

// Edge is a call from one function to another at Span. Only the first call
// site per (caller, callee) pair is kept.
type Edge struct {
	To   NodeID
	Span source.Span
}

// Graph is a directed graph of functions. Edges point from caller to callee.
type Graph struct {
	Funcs []symbols.SymbolID
	Edges [][]Edge
	index map[symbols.SymbolID]NodeID
}

func New() *Graph {
	return &Graph{index: make(map[symbols.SymbolID]NodeID)}
}

// Node returns the node of sym, adding it when missing.
func (g *Graph) Node(sym symbols.SymbolID) NodeID {
	if id, ok := g.index[sym]; ok {
		return id
	}
	id, err := safecast.Conv[NodeID](len(g.Funcs))
	if err != nil {
		panic(fmt.Errorf("call graph node overflow: %w", err))
	}
	g.index[sym] = id
	g.Funcs = append(g.Funcs, sym)
	g.Edges = append(g.Edges, nil)
	return id
}

// Lookup returns the node of sym without adding it.
func (g *Graph) Lookup(sym symbols.SymbolID) (NodeID, bool) {
	id, ok := g.index[sym]
	return id, ok
}

// AddCall records a call from caller to callee.
func (g *Graph) AddCall(caller, callee symbols.SymbolID, span source.Span) {
	from, to := g.Node(caller), g.Node(callee)
	for _, e := range g.Edges[from] {
		if e.To == to {
			return
		}
	}
	g.Edges[from] = append(g.Edges[from], Edge{To: to, Span: span})
}

// Callees lists the functions sym calls, in first-call order.
func (g *Graph) Callees(sym symbols.SymbolID) []symbols.SymbolID {
	id, ok := g.index[sym]
	if !ok {
		return nil
	}
	out := make([]symbols.SymbolID, len(g.Edges[id]))
	for i, e := range g.Edges[id] {
		out[i] = g.Funcs[e.To]
	}
	return out
}

// Reachable returns every function reachable from roots (roots included)
// in depth-first preorder.
func (g *Graph) Reachable(roots []symbols.SymbolID) []symbols.SymbolID {
	seen := make([]bool, len(g.Funcs))
	var out []symbols.SymbolID
	var visit func(NodeID)
	visit = func(n NodeID) {
		if seen[n] {
			return
		}
		seen[n] = true
		out = append(out, g.Funcs[n])
		for _, e := range g.Edges[n] {
			visit(e.To)
		}
	}
	for _, r := range roots {
		if id, ok := g.index[r]; ok {
			visit(id)
		}
	}
	return out
}

// Len is the number of functions.
func (g *Graph) Len() int { return len(g.Funcs) }
