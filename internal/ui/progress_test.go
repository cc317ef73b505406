package ui

import (
	"strings"
	"testing"

	"github.com/nalgeon/be"

	"veil/internal/buildpipeline"
	"veil/internal/driver"
)

func feed(m *progressModel, events ...buildpipeline.Event) {
	for _, ev := range events {
		m.apply(ev)
	}
}

func TestRowsFollowPasses(t *testing.T) {
	m := NewProgressModel("selftest", []string{"double", "cycle"}, 2, nil).(*progressModel)
	feed(m,
		buildpipeline.Event{Job: "double", Event: driver.Event{Pass: "resolve", Status: driver.StatusWorking}},
		buildpipeline.Event{Job: "double", Event: driver.Event{Pass: "resolve", Status: driver.StatusDone}},
		buildpipeline.Event{Job: "cycle", Event: driver.Event{Pass: "resolve", Status: driver.StatusWorking}},
		buildpipeline.Event{Job: "cycle", Event: driver.Event{Pass: "resolve", Status: driver.StatusError}},
		buildpipeline.Event{Job: "cycle", Event: driver.Event{Pass: "typecheck", Status: driver.StatusSkipped}},
		buildpipeline.Event{Job: "double", Event: driver.Event{Pass: "typecheck", Status: driver.StatusWorking}},
	)
	be.Equal(t, m.items[0].status, "typecheck")
	be.Equal(t, m.items[1].status, "halted")
	be.Equal(t, m.percent(), 0.75)

	feed(m, buildpipeline.Event{Job: "double", Event: driver.Event{Pass: "typecheck", Status: driver.StatusDone}})
	be.Equal(t, m.items[0].status, "done")
	be.Equal(t, m.percent(), 1.0)

	m.Update(doneMsg{})
	view := m.View()
	be.True(t, strings.HasPrefix(strings.TrimSpace(view), "done: selftest"))
	be.True(t, strings.Contains(view, "double"))
}

func TestUnknownJobIgnored(t *testing.T) {
	m := NewProgressModel("x", []string{"a"}, 7, nil).(*progressModel)
	be.Equal(t, m.apply(buildpipeline.Event{Job: "b", Event: driver.Event{Status: driver.StatusWorking}}) == nil, true)
	be.Equal(t, m.items[0].status, "queued")
}

func TestTruncate(t *testing.T) {
	be.Equal(t, truncate("short", 10), "short")
	be.Equal(t, truncate("a-rather-long-name", 8), "a-rat...")
	be.Equal(t, truncate("名前名前", 3), "名")
}
