package instr_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/nalgeon/be"

	"veil/internal/instr"
)

func sample() *instr.Program {
	guard := instr.RegOp(2)
	return &instr.Program{
		Name:     "bank.aleo",
		Mappings: []instr.Mapping{{Name: "balances", Key: "address", Value: "u64"}},
		Structs: []instr.Struct{{Name: "Point", Members: []instr.Member{
			{Name: "x", Type: "u32"}, {Name: "y", Type: "u32"},
		}}},
		Functions: []instr.Function{
			{
				Label: "bank.aleo/double", Name: "double", Variant: "function",
				Inputs: []instr.Port{{Reg: 0, Type: "u32", Visibility: "private"}},
				Body: []instr.Instr{
					{Op: instr.OpAdd, Args: []instr.Operand{instr.RegOp(0), instr.RegOp(0)}, Dst: []instr.Reg{1}},
					{Op: instr.OpOutput, Args: []instr.Operand{instr.RegOp(1)}, Type: "u32.private"},
				},
			},
			{
				Label: "bank.aleo/store", Name: "store", Variant: "finalize",
				Inputs: []instr.Port{{Reg: 0, Type: "address", Visibility: "public"}, {Reg: 1, Type: "u64", Visibility: "public"}},
				Body: []instr.Instr{
					{Op: instr.OpGt, Args: []instr.Operand{instr.RegOp(1), instr.LitOp("0u64")}, Dst: []instr.Reg{2}},
					{Op: instr.OpSet, Args: []instr.Operand{instr.MappingOp("balances"), instr.RegOp(0), instr.RegOp(1)}, Guard: &guard},
				},
			},
		},
	}
}

func TestPrint(t *testing.T) {
	want := `program bank.aleo;

struct Point:
    x as u32;
    y as u32;

mapping balances:
    key as address.public;
    value as u64.public;

function double:
    input r0 as u32.private;
    add r0 r0 into r1;
    output r1 as u32.private;

finalize store:
    input r0 as address.public;
    input r1 as u64.public;
    gt r1 0u64 into r2;
    set r1 into balances[r0] when r2;
`
	be.Equal(t, sample().String(), want)
}

func TestInstrForms(t *testing.T) {
	cases := []struct {
		in   instr.Instr
		want string
	}{
		{instr.Instr{Op: instr.OpCall, Label: "a.aleo/f", Args: []instr.Operand{instr.RegOp(0)}, Dst: []instr.Reg{3}}, "call a.aleo/f r0 into r3"},
		{instr.Instr{Op: instr.OpCast, Args: []instr.Operand{instr.RegOp(0), instr.RegOp(1)}, Dst: []instr.Reg{2}, Type: "Point"}, "cast r0 r1 into r2 as Point"},
		{instr.Instr{Op: instr.OpGetOrUse, Args: []instr.Operand{instr.MappingOp("m"), instr.AccessOp(0, ".owner"), instr.LitOp("0u64")}, Dst: []instr.Reg{4}}, "get.or_use m[r0.owner] 0u64 into r4"},
		{instr.Instr{Op: instr.OpAssertEq, Args: []instr.Operand{instr.RegOp(1), instr.ContextOp("self.caller")}}, "assert.eq r1 self.caller"},
	}
	for _, tc := range cases {
		be.Equal(t, tc.in.String(), tc.want)
	}
}

func TestAccessChains(t *testing.T) {
	op, ok := instr.RegOp(3).Access(".pos")
	be.True(t, ok)
	op, ok = op.Access("[1u32]")
	be.True(t, ok)
	be.Equal(t, op.String(), "r3.pos[1u32]")
	_, ok = instr.LitOp("1u8").Access(".x")
	be.True(t, !ok)
}

func TestArtifactIsDeterministic(t *testing.T) {
	a, err := instr.Marshal(sample())
	be.Err(t, err, nil)
	b, err := instr.Marshal(sample())
	be.Err(t, err, nil)
	be.True(t, bytes.Equal(a, b))

	back, err := instr.Decode(bytes.NewReader(a))
	be.Err(t, err, nil)
	be.Equal(t, back.String(), sample().String())
}

func TestDecodeRejectsForeignData(t *testing.T) {
	_, err := instr.Decode(strings.NewReader("not msgpack at all"))
	be.True(t, err != nil)
}

func TestValidate(t *testing.T) {
	be.Err(t, instr.Validate(sample()), nil)

	bad := sample()
	f := &bad.Functions[0]
	f.Body = append([]instr.Instr{{Op: instr.OpNeg, Args: []instr.Operand{instr.RegOp(9)}, Dst: []instr.Reg{1}}}, f.Body...)
	err := instr.Validate(bad)
	be.True(t, err != nil)
	be.True(t, strings.Contains(err.Error(), "undefined register r9"))
	be.True(t, strings.Contains(err.Error(), "writes r1 twice"))
}

func TestOpcodeNames(t *testing.T) {
	for _, m := range instr.Mnemonics() {
		op, ok := instr.ParseOpcode(m)
		be.True(t, ok)
		be.Equal(t, op.String(), m)
	}
	_, ok := instr.ParseOpcode("jump")
	be.True(t, !ok)
}
