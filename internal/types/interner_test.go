package types

import (
	"sync"
	"testing"
)

func TestInternerBuiltins(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	if b.Unit == NoTypeID || b.Field == NoTypeID || b.Future == NoTypeID {
		t.Fatalf("builtins not initialized")
	}
	if got := in.IntType(false, Width32); got != b.U32 {
		t.Fatalf("IntType(u32) = %d, want %d", got, b.U32)
	}
	if Label(in, b.I128) != "i128" || Label(in, b.Address) != "address" {
		t.Fatalf("unexpected labels %q %q", Label(in, b.I128), Label(in, b.Address))
	}
}

func TestInternerDeduplicatesDescriptors(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	if in.Array(b.U8, 4) != in.Array(b.U8, 4) {
		t.Fatalf("array types should be deduplicated")
	}
	if in.Tuple([]TypeID{b.U8, b.Bool}) != in.Tuple([]TypeID{b.U8, b.Bool}) {
		t.Fatalf("tuple types should be deduplicated")
	}
	if in.Tuple([]TypeID{b.U8, b.Bool}) == in.Tuple([]TypeID{b.Bool, b.U8}) {
		t.Fatalf("element order must matter")
	}
	if in.Tuple(nil) != b.Unit {
		t.Fatalf("empty tuple must be unit")
	}
}

func TestConcurrentIntern(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	var wg sync.WaitGroup
	ids := make([]TypeID, 16)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i] = in.Tuple([]TypeID{b.Field, in.Array(b.U32, 3)})
		}(i)
	}
	wg.Wait()
	for _, id := range ids {
		if id != ids[0] {
			t.Fatalf("concurrent interning produced different ids: %v", ids)
		}
	}
}

func TestGenericStructInstantiation(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	tp := in.RegisterParam(ParamInfo{Name: "T", Owner: 7})
	np := in.RegisterParam(ParamInfo{Name: "N", Owner: 7, Index: 1, IsConst: true, ConstType: b.U32})
	tmpl := in.RegisterStruct(7, "Buf", "main.aleo", false, []TypeID{tp, np})
	in.SetStructFields(tmpl, []Field{
		{Name: "items", Type: in.Intern(MakeParamArray(tp, np))},
		{Name: "len", Type: b.U32},
	})
	if !in.ContainsGeneric(tmpl) {
		t.Fatal("template must count as generic")
	}

	three := in.Const(b.U32, 3)
	inst := in.InstantiateStruct(tmpl, []TypeID{b.U8, three})
	if inst != in.InstantiateStruct(tmpl, []TypeID{b.U8, three}) {
		t.Fatal("instances must be cached")
	}
	if in.ContainsGeneric(inst) {
		t.Fatal("instance must be concrete")
	}
	items, ok := in.FieldType(inst, "items")
	if !ok || items != in.Array(b.U8, 3) {
		t.Fatalf("items = %s", Label(in, items))
	}
	if got := Label(in, inst); got != "Buf::[u8, 3u32]" {
		t.Fatalf("Label = %q", got)
	}
	if got := in.Subst(tmpl, map[TypeID]TypeID{tp: b.U8, np: three}); got != inst {
		t.Fatalf("Subst(template) = %s", Label(in, got))
	}
}

func TestParamsAreDistinct(t *testing.T) {
	in := NewInterner()
	a := in.RegisterParam(ParamInfo{Name: "T", Owner: 1})
	c := in.RegisterParam(ParamInfo{Name: "T", Owner: 2})
	if a == c {
		t.Fatal("parameters of different owners must differ")
	}
}
