package callgraph

import (
	"slices"

	"veil/internal/source"
	"veil/internal/symbols"
)

// Topo is a callee-first ordering. Functions on cycles are left out of
// Order and listed in Cyclic.
type Topo struct {
	Order  []symbols.SymbolID
	Cyclic []symbols.SymbolID
}

// Toposort orders functions so that every callee precedes its callers
// (Kahn's algorithm over reversed edges, ties by insertion order).
func (g *Graph) Toposort() Topo {
	n := len(g.Funcs)
	outdeg := make([]int, n)
	callers := make([][]NodeID, n)
	for from, edges := range g.Edges {
		outdeg[from] = len(edges)
		for _, e := range edges {
			callers[e.To] = append(callers[e.To], NodeID(from))
		}
	}
	var current []NodeID
	for i := range n {
		if outdeg[i] == 0 {
			current = append(current, NodeID(i))
		}
	}
	var topo Topo
	done := make([]bool, n)
	for len(current) > 0 {
		var next []NodeID
		for _, id := range current {
			done[id] = true
			topo.Order = append(topo.Order, g.Funcs[id])
			for _, c := range callers[id] {
				outdeg[c]--
				if outdeg[c] == 0 {
					next = append(next, c)
				}
			}
		}
		slices.Sort(next)
		current = next
	}
	for i := range n {
		if !done[i] {
			topo.Cyclic = append(topo.Cyclic, g.Funcs[i])
		}
	}
	return topo
}

// Cycle is a closed call chain: Path[0] == Path[len-1]. Spans[i] is the
// call site of the edge Path[i] -> Path[i+1].
type Cycle struct {
	Path  []symbols.SymbolID
	Spans []source.Span
}

// Cycles returns one concrete cycle per strongly connected component that
// contains a cycle (self-calls included), in insertion order of the
// component's first function.
func (g *Graph) Cycles() []Cycle {
	var out []Cycle
	for _, comp := range g.components() {
		in := make(map[NodeID]bool, len(comp))
		for _, id := range comp {
			in[id] = true
		}
		start := slices.Min(comp)
		if len(comp) == 1 && !g.selfCall(start) {
			continue
		}
		out = append(out, g.cycleFrom(start, in))
	}
	slices.SortFunc(out, func(a, b Cycle) int {
		x, _ := g.Lookup(a.Path[0])
		y, _ := g.Lookup(b.Path[0])
		return int(x) - int(y)
	})
	return out
}

func (g *Graph) selfCall(id NodeID) bool {
	for _, e := range g.Edges[id] {
		if e.To == id {
			return true
		}
	}
	return false
}

// cycleFrom walks edges inside the component until it returns to start.
func (g *Graph) cycleFrom(start NodeID, in map[NodeID]bool) Cycle {
	type step struct {
		node NodeID
		span source.Span
	}
	visited := map[NodeID]bool{}
	var path []step
	var dfs func(NodeID) bool
	dfs = func(n NodeID) bool {
		visited[n] = true
		for _, e := range g.Edges[n] {
			if !in[e.To] {
				continue
			}
			if e.To == start {
				path = append(path, step{start, e.Span})
				return true
			}
			if visited[e.To] {
				continue
			}
			path = append(path, step{e.To, e.Span})
			if dfs(e.To) {
				return true
			}
			path = path[:len(path)-1]
		}
		return false
	}
	dfs(start)
	c := Cycle{Path: []symbols.SymbolID{g.Funcs[start]}}
	for _, s := range path {
		c.Path = append(c.Path, g.Funcs[s.node])
		c.Spans = append(c.Spans, s.span)
	}
	return c
}

// components is Tarjan's algorithm.
func (g *Graph) components() [][]NodeID {
	n := len(g.Funcs)
	index := make([]int, n)
	low := make([]int, n)
	onStack := make([]bool, n)
	for i := range index {
		index[i] = -1
	}
	var stack []NodeID
	var comps [][]NodeID
	counter := 0
	var strong func(NodeID)
	strong = func(v NodeID) {
		index[v], low[v] = counter, counter
		counter++
		stack = append(stack, v)
		onStack[v] = true
		for _, e := range g.Edges[v] {
			w := e.To
			if index[w] < 0 {
				strong(w)
				low[v] = min(low[v], low[w])
			} else if onStack[w] {
				low[v] = min(low[v], index[w])
			}
		}
		if low[v] == index[v] {
			var comp []NodeID
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				comp = append(comp, w)
				if w == v {
					break
				}
			}
			comps = append(comps, comp)
		}
	}
	for i := range n {
		if index[i] < 0 {
			strong(NodeID(i))
		}
	}
	return comps
}
