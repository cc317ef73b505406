// Package analyze runs the static checks that need fully typed code: the
// effect discipline of async code, constant folding and the call graph.
package analyze

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"veil/internal/ast"
	"veil/internal/callgraph"
	"veil/internal/compiler"
	"veil/internal/diag"
	"veil/internal/trace"
)

// Pass is the static analyzer.
type Pass struct{}

func (Pass) Name() string { return "analyze" }

func (Pass) Run(ctx context.Context, st *compiler.State) error {
	fns := st.Program.Functions

	_, span := trace.Begin(ctx, trace.ScopeFunction, "fold")
	folded := foldProgram(st)
	span.With("folded", strconv.Itoa(folded)).End("")

	for _, fn := range fns {
		if err := ctx.Err(); err != nil {
			return err
		}
		if fn.Body == nil || !fn.Symbol.IsValid() {
			continue
		}
		trace.Point(ctx, trace.ScopeFunction, "effects", fn.Name)
		checkEffects(st, fn)
	}

	st.CallGraph = buildGraph(st)
	reportCycles(st, st.CallGraph)
	return nil
}

// buildGraph records every call between functions of the main program.
// Nodes are added in declaration order so that reports are stable.
func buildGraph(st *compiler.State) *callgraph.Graph {
	g := callgraph.New()
	for _, fn := range st.Program.Functions {
		if fn.Symbol.IsValid() {
			g.Node(fn.Symbol)
		}
	}
	for _, fn := range st.Program.Functions {
		if fn.Body == nil || !fn.Symbol.IsValid() {
			continue
		}
		ast.WalkBlockExprs(fn.Body, func(e *ast.Expr) bool {
			d, ok := e.Data.(ast.CallData)
			if !ok || !d.Symbol.IsValid() {
				return true
			}
			if _, local := g.Lookup(d.Symbol); local {
				g.AddCall(fn.Symbol, d.Symbol, e.ReportSpan())
			}
			return true
		})
	}
	return g
}

func reportCycles(st *compiler.State, g *callgraph.Graph) {
	for _, c := range g.Cycles() {
		names := make([]string, len(c.Path))
		for i, id := range c.Path {
			names[i] = st.Name(id)
		}
		b := diag.ReportError(st.Reporter(), diag.StaCallCycle, c.Spans[0],
			"recursive call cycle: %s", strings.Join(names, " -> "))
		for i, sp := range c.Spans {
			b.WithNote(sp, fmt.Sprintf("'%s' calls '%s' here", names[i], names[i+1]))
		}
		b.Emit()
	}
}
