package source

import (
	"testing"
)

func TestFileSetResolve(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("main.leo", []byte("program a.aleo {\n  let x = 1u32;\n}\n"))

	start, end := fs.Resolve(Span{File: id, Start: 19, End: 24})
	if start.Line != 2 || start.Col != 3 {
		t.Fatalf("start = %+v, want 2:3", start)
	}
	if end.Line != 2 || end.Col != 8 {
		t.Fatalf("end = %+v, want 2:8", end)
	}
	if got := fs.Get(id).Line(2); got != "  let x = 1u32;" {
		t.Fatalf("Line(2) = %q", got)
	}
	if got := fs.Get(id).Line(9); got != "" {
		t.Fatalf("Line(9) = %q, want empty", got)
	}
}

func TestFileSetLookup(t *testing.T) {
	fs := NewFileSet()
	id := fs.Add("dir/../main.leo", nil, 0)
	got, ok := fs.Lookup("main.leo")
	if !ok || got != id {
		t.Fatalf("Lookup = %v %v", got, ok)
	}
}
