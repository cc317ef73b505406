package diag

import (
	"testing"
)

func TestCodeIDRoundTrip(t *testing.T) {
	for _, c := range Codes() {
		got, ok := ParseCode(c.ID())
		if !ok || got != c {
			t.Errorf("ParseCode(%q) = %v %v, want %v", c.ID(), got, ok, c)
		}
	}
	if TypMismatch.ID() != "TYP2002" {
		t.Fatalf("ID = %s", TypMismatch.ID())
	}
}

func TestEveryCodeExplained(t *testing.T) {
	for _, c := range Codes() {
		if c%1000 == 0 {
			continue
		}
		e, ok, err := Explain(c)
		if err != nil {
			t.Fatal(err)
		}
		if !ok || len(e.Summary) == 0 {
			t.Errorf("%s has no explanation", c.ID())
		}
	}
}

func TestExplainExample(t *testing.T) {
	e, ok, err := Explain(StaCallCycle)
	if err != nil || !ok {
		t.Fatalf("Explain = %v %v", ok, err)
	}
	if e.Example == "" {
		t.Fatal("expected an example block")
	}
}

func TestParseCatalogRejectsUnknownCode(t *testing.T) {
	_, err := ParseCatalog([]byte("## XYZ0001\n\ntext\n"))
	if err == nil {
		t.Fatal("expected error")
	}
}
