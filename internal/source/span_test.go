package source

import (
	"testing"
)

func TestSpanCover(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Span
		expected Span
	}{
		{"disjoint", Span{File: 1, Start: 2, End: 4}, Span{File: 1, Start: 8, End: 10}, Span{File: 1, Start: 2, End: 10}},
		{"nested", Span{File: 1, Start: 2, End: 10}, Span{File: 1, Start: 4, End: 5}, Span{File: 1, Start: 2, End: 10}},
		{"other file", Span{File: 1, Start: 2, End: 4}, Span{File: 2, Start: 0, End: 10}, Span{File: 1, Start: 2, End: 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Cover(tt.b); got != tt.expected {
				t.Errorf("Cover() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestSpanValidAndLess(t *testing.T) {
	if (Span{Start: 3, End: 3}).Valid() {
		t.Fatal("empty span must not be valid")
	}
	if !(Span{Start: 3, End: 4}).Valid() {
		t.Fatal("one-byte span must be valid")
	}
	a := Span{File: 0, Start: 5, End: 9}
	b := Span{File: 0, Start: 5, End: 12}
	c := Span{File: 1, Start: 0, End: 1}
	if !a.Less(b) || b.Less(a) {
		t.Fatal("end must break ties")
	}
	if !b.Less(c) {
		t.Fatal("file must order first")
	}
}
