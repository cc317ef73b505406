package symbols

import (
	"testing"

	"veil/internal/diag"
	"veil/internal/source"
)

func sp(start, end uint32) source.Span {
	return source.Span{File: 0, Start: start, End: end}
}

func TestTableProgramsAndImports(t *testing.T) {
	tbl := NewTable(Hints{}, nil)
	tok, ok := tbl.AddProgram("token.aleo", nil, 1, sp(0, 10))
	if !ok {
		t.Fatal("AddProgram failed")
	}
	if _, ok := tbl.AddProgram("token.aleo", nil, 1, sp(0, 10)); ok {
		t.Fatal("duplicate program must be rejected")
	}
	mainScope, _ := tbl.AddProgram("main.aleo", []string{"token.aleo"}, 2, sp(20, 30))

	id, prev := tbl.Insert(tok, "transfer", Symbol{Kind: SymbolFunction, Span: sp(2, 5)})
	if !id.IsValid() || prev.IsValid() {
		t.Fatalf("Insert = %d %d", id, prev)
	}
	if got := tbl.LookupImported("main.aleo", "transfer"); len(got) != 1 || got[0] != id {
		t.Fatalf("LookupImported = %v", got)
	}
	if _, ok := tbl.LookupChain(mainScope, "transfer"); ok {
		t.Fatal("imported names are not in the scope chain")
	}
	if got, ok := tbl.LookupQualified("token.aleo", "transfer"); !ok || got != id {
		t.Fatalf("LookupQualified = %d %v", got, ok)
	}
	if tbl.Symbols.Get(id).Program != "token.aleo" {
		t.Fatalf("program = %q", tbl.Symbols.Get(id).Program)
	}
	if err := tbl.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestResolverDuplicateAndShadowing(t *testing.T) {
	tbl := NewTable(Hints{}, nil)
	prog, _ := tbl.AddProgram("main.aleo", nil, 1, sp(0, 100))
	bag := diag.NewBag(0)
	r := NewResolver(tbl, prog, diag.BagReporter{Bag: bag})

	fn := r.Enter(ScopeFunction, 2, sp(10, 90))
	x, ok := r.Declare("x", sp(12, 13), SymbolParam, SymbolFlagMutable, 3)
	if !ok {
		t.Fatal("Declare failed")
	}
	if _, ok := r.Declare("x", sp(20, 21), SymbolLet, 0, 4); ok {
		t.Fatal("duplicate in one scope must fail")
	}
	if bag.Len() != 1 {
		t.Fatalf("diagnostics = %d, want 1", bag.Len())
	}
	d := bag.Items()[0]
	if d.Code != diag.ResDuplicateSymbol || len(d.Notes) != 1 || d.Notes[0].Span != sp(12, 13) {
		t.Fatalf("unexpected diagnostic %+v", d)
	}

	blk := r.Enter(ScopeBlock, 5, sp(30, 40))
	inner, ok := r.Declare("x", sp(31, 32), SymbolLet, 0, 6)
	if !ok {
		t.Fatal("shadowing in a nested block must be allowed")
	}
	if got, _ := r.Lookup("x"); got != inner {
		t.Fatalf("Lookup in block = %d, want %d", got, inner)
	}
	r.Leave(blk)
	if got, _ := r.Lookup("x"); got != x {
		t.Fatalf("Lookup after leave = %d, want %d", got, x)
	}
	r.Leave(fn)
	if err := tbl.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}
