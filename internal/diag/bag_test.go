package diag

import (
	"sync"
	"testing"

	"veil/internal/source"
)

func TestBagSortedBySpan(t *testing.T) {
	b := NewBag(0)
	b.Add(NewError(TypMismatch, source.Span{File: 0, Start: 30, End: 35}, "late"))
	b.Add(NewError(ResUnresolvedSymbol, source.Span{File: 0, Start: 2, End: 4}, "early"))
	b.Add(New(SevWarning, StaFutureNotAwaited, source.Span{File: 0, Start: 2, End: 4}, "same span warning"))

	got := b.Sorted()
	if got[0].Message != "early" || got[1].Message != "same span warning" || got[2].Message != "late" {
		t.Fatalf("unexpected order: %+v", got)
	}
}

func TestBagConcurrentAdd(t *testing.T) {
	b := NewBag(0)
	var wg sync.WaitGroup
	for i := range 32 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ReportError(BagReporter{Bag: b}, TypMismatch, source.Span{Start: uint32(i), End: uint32(i) + 1}, "worker %d", i).Emit() // #nosec G115
		}(i)
	}
	wg.Wait()
	if b.Len() != 32 {
		t.Fatalf("Len = %d, want 32", b.Len())
	}
}

func TestBagLimitKeepsErrors(t *testing.T) {
	b := NewBag(1)
	b.Add(New(SevWarning, StaFutureNotAwaited, source.Span{End: 1}, "w1"))
	if b.Add(New(SevWarning, StaFutureNotAwaited, source.Span{End: 1}, "w2")) {
		t.Fatal("warning beyond the limit must be dropped")
	}
	if !b.Add(NewError(TypMismatch, source.Span{End: 1}, "e")) {
		t.Fatal("errors must never be dropped")
	}
}

func TestPromoteWarnings(t *testing.T) {
	b := NewBag(0)
	ReportWarning(BagReporter{Bag: b}, StaFutureNotAwaited, source.Span{End: 1}, "f is never awaited").Emit()
	if b.HasErrors() {
		t.Fatal("warning must not count as error")
	}
	if n := b.PromoteWarnings(); n != 1 {
		t.Fatalf("promoted %d, want 1", n)
	}
	if !b.HasErrors() {
		t.Fatal("promoted warning must count as error")
	}
}

func TestDedupReporter(t *testing.T) {
	b := NewBag(0)
	r := NewDedupReporter(BagReporter{Bag: b})
	sp := source.Span{Start: 1, End: 2}
	ReportError(r, TypMismatch, sp, "x").Emit()
	ReportError(r, TypMismatch, sp, "x").Emit()
	ReportError(r, TypMismatch, sp, "x").WithContext([]string{"in iteration i = 1"}).Emit()
	if b.Len() != 2 {
		t.Fatalf("Len = %d, want 2", b.Len())
	}
}

func TestInternalError(t *testing.T) {
	var err error = Internalf("codegen", 42, source.Span{Start: 1, End: 3}, "unexpected %s", "node")
	ie, ok := AsInternal(err)
	if !ok || ie.Pass != "codegen" || ie.Node != 42 {
		t.Fatalf("AsInternal = %+v %v", ie, ok)
	}
}
