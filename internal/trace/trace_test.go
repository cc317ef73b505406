package trace_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/nalgeon/be"

	"veil/internal/config"
	"veil/internal/trace"
)

func TestLevelFiltersScopes(t *testing.T) {
	ring := trace.NewRing(16, trace.LevelPhase)
	ctx := trace.WithTracer(context.Background(), ring)

	ctx, pass := trace.Begin(ctx, trace.ScopePass, "unroll")
	_, fn := trace.Begin(ctx, trace.ScopeFunction, "fn:main")
	fn.End("")
	trace.Point(ctx, trace.ScopeNode, "loop", "")
	pass.With("loops", "2").End("ok")

	events := ring.Snapshot()
	be.Equal(t, len(events), 2)
	be.Equal(t, events[0].Kind, trace.KindBegin)
	be.Equal(t, events[1].Kind, trace.KindEnd)
	be.Equal(t, events[1].Fields, []trace.Field{trace.F("loops", "2")})
}

func TestSpansLinkToParent(t *testing.T) {
	ring := trace.NewRing(16, trace.LevelDebug)
	ctx := trace.WithTracer(context.Background(), ring)
	ctx, outer := trace.Begin(ctx, trace.ScopeDriver, "compile")
	_, inner := trace.Begin(ctx, trace.ScopePass, "resolve")
	inner.End("")
	outer.End("")

	events := ring.Snapshot()
	be.Equal(t, len(events), 4)
	be.Equal(t, events[1].ParentID, events[0].SpanID)
}

func TestRingWrapsOldestFirst(t *testing.T) {
	ring := trace.NewRing(3, trace.LevelDebug)
	for _, name := range []string{"a", "b", "c", "d"} {
		ring.Emit(trace.Event{Scope: trace.ScopePass, Name: name})
	}
	var names []string
	for _, ev := range ring.Snapshot() {
		names = append(names, ev.Name)
	}
	be.Equal(t, names, []string{"b", "c", "d"})
}

func TestStreamFormats(t *testing.T) {
	var text, js bytes.Buffer
	tr := trace.NewMulti(
		trace.NewStream(&text, trace.LevelDebug, trace.FormatText),
		trace.NewStream(&js, trace.LevelDebug, trace.FormatNDJSON),
	)
	be.Equal(t, tr.Level(), trace.LevelDebug)
	ctx := trace.WithTracer(context.Background(), tr)
	trace.Point(ctx, trace.ScopeFunction, "instantiate", "identity", trace.F("args", "u32"))

	be.True(t, strings.Contains(text.String(), ". instantiate (identity) args=u32"))
	var decoded map[string]any
	be.Err(t, json.Unmarshal(js.Bytes(), &decoded), nil)
	be.Equal(t, decoded["name"], "instantiate")
}

func TestNewFromConfig(t *testing.T) {
	tr, err := trace.New(config.Trace{Level: "off"})
	be.Err(t, err, nil)
	be.True(t, !trace.Enabled(tr))

	_, err = trace.New(config.Trace{Level: "loud"})
	be.True(t, err != nil)
}
