package observ_test

import (
	"strings"
	"sync"
	"time"
	"testing"

	"github.com/nalgeon/be"

	"veil/internal/observ"
)

func TestTimerReport(t *testing.T) {
	tm := observ.NewTimer()
	a := tm.Begin("resolve")
	tm.End(a, "")
	b := tm.Begin("unroll")
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tm.Count(b, 2)
		}()
	}
	wg.Wait()
	tm.End(b, "halted")

	r := tm.Report()
	be.Equal(t, len(r.Phases), 2)
	p, ok := r.Phase("unroll")
	be.True(t, ok)
	be.Equal(t, p.Items, 16)
	be.Equal(t, p.Note, "halted")
	be.True(t, strings.Contains(r.Summary(), "16 items"))

	_, ok = r.Phase("mono")
	be.True(t, !ok)
	be.Equal(t, tm.End(99, ""), time.Duration(0))
}
