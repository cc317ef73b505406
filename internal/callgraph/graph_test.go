package callgraph_test

import (
	"testing"

	"github.com/nalgeon/be"

	"veil/internal/callgraph"
	"veil/internal/source"
	"veil/internal/symbols"
)

func span(start uint32) source.Span {
	return source.Span{File: 1, Start: start, End: start + 1}
}

func TestToposortCalleesFirst(t *testing.T) {
	g := callgraph.New()
	// main -> helper -> leaf, main -> leaf
	g.AddCall(1, 2, span(0))
	g.AddCall(2, 3, span(2))
	g.AddCall(1, 3, span(4))
	g.AddCall(1, 3, span(6))

	topo := g.Toposort()
	be.Equal(t, topo.Order, []symbols.SymbolID{3, 2, 1})
	be.Equal(t, len(topo.Cyclic), 0)
	be.Equal(t, g.Callees(1), []symbols.SymbolID{2, 3})
	be.Equal(t, len(g.Cycles()), 0)
}

func TestCyclesReportChainAndSites(t *testing.T) {
	g := callgraph.New()
	g.Node(10) // unrelated
	g.AddCall(1, 2, span(0))
	g.AddCall(2, 1, span(5))
	g.AddCall(3, 3, span(9))

	cycles := g.Cycles()
	be.Equal(t, len(cycles), 2)
	be.Equal(t, cycles[0].Path, []symbols.SymbolID{1, 2, 1})
	be.Equal(t, cycles[0].Spans, []source.Span{span(0), span(5)})
	be.Equal(t, cycles[1].Path, []symbols.SymbolID{3, 3})

	topo := g.Toposort()
	be.Equal(t, topo.Order, []symbols.SymbolID{10})
	be.Equal(t, topo.Cyclic, []symbols.SymbolID{1, 2, 3})
}

func TestReachable(t *testing.T) {
	g := callgraph.New()
	g.AddCall(1, 2, span(0))
	g.AddCall(2, 3, span(2))
	g.AddCall(4, 5, span(4))
	be.Equal(t, g.Reachable([]symbols.SymbolID{1}), []symbols.SymbolID{1, 2, 3})
	be.Equal(t, len(g.Reachable([]symbols.SymbolID{99})), 0)
}
