package mono_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/nalgeon/be"

	"veil/internal/analyze"
	"veil/internal/ast"
	"veil/internal/compiler"
	"veil/internal/config"
	"veil/internal/diag"
	"veil/internal/mono"
	"veil/internal/resolve"
	"veil/internal/sema"
	"veil/internal/symbols"
	"veil/internal/unroll"
)

// upToUnroll runs the passes before mono and requires them to succeed.
func upToUnroll(t *testing.T, cfg config.Config, prog *ast.Program) *compiler.State {
	t.Helper()
	st := compiler.New(prog, nil, cfg)
	ctx := context.Background()
	be.Err(t, resolve.Pass{}.Run(ctx, st), nil)
	be.Err(t, sema.Pass{}.Run(ctx, st), nil)
	be.Err(t, analyze.Pass{}.Run(ctx, st), nil)
	be.Err(t, unroll.Pass{}.Run(ctx, st), nil)
	be.Equal(t, st.Diags.HasErrors(), false)
	return st
}

func monoWith(t *testing.T, cfg config.Config, prog *ast.Program) *compiler.State {
	t.Helper()
	st := upToUnroll(t, cfg, prog)
	be.Err(t, mono.Pass{}.Run(context.Background(), st), nil)
	return st
}

func codes(st *compiler.State) []diag.Code {
	var out []diag.Code
	for _, d := range st.Diags.Sorted() {
		out = append(out, d.Code)
	}
	return out
}

func names(st *compiler.State) []string {
	var out []string
	for _, fn := range st.Program.Functions {
		out = append(out, fn.Name)
	}
	return out
}

func identity(b *ast.Builder) *ast.FuncDecl {
	fn := b.Fn(ast.VariantInline, "identity",
		[]*ast.Param{b.Param("x", b.Named("T"), ast.Private)},
		[]*ast.Output{b.Out(b.Named("T"), ast.Private)},
		b.Block(
			b.Let("y", b.Named("T"), b.Ident("x")),
			b.Return(b.Ident("y")),
		))
	fn.Generics = []*ast.GenericParam{b.Generic("T")}
	return fn
}

func identityProgram() (*ast.Program, []*ast.Expr) {
	b := ast.NewBuilder(1)
	calls := []*ast.Expr{
		b.Call("identity", b.Lit("1u32")),
		b.Call("identity", b.Lit("true")),
		b.Call("identity", b.Lit("2u32")),
	}
	main := b.Fn(ast.VariantTransition, "main", nil,
		[]*ast.Output{b.Out(b.Prim("u32"), ast.Public)},
		b.Block(
			b.Let("a", nil, calls[0]),
			b.Let("c", nil, calls[1]),
			b.Return(calls[2]),
		))
	prog := b.Program("demo.aleo")
	prog.Functions = []*ast.FuncDecl{identity(b), main}
	return prog, calls
}

func TestTwoIdentityInstances(t *testing.T) {
	prog, calls := identityProgram()
	generic := prog.Functions[0]
	st := monoWith(t, config.Default(), prog)

	be.Equal(t, len(codes(st)), 0)
	be.Equal(t, names(st), []string{"identity[bool]", "identity[u32]", "main"})
	be.Err(t, mono.Verify(st), nil)
	be.Equal(t, st.Func(generic.Symbol) == nil, true)

	boolInst, u32Inst := st.Program.Functions[0], st.Program.Functions[1]
	bt := st.Types.Builtins()
	be.Equal(t, calls[0].Data.(ast.CallData).Symbol, u32Inst.Symbol)
	be.Equal(t, calls[1].Data.(ast.CallData).Symbol, boolInst.Symbol)
	be.Equal(t, calls[2].Data.(ast.CallData).Symbol, u32Inst.Symbol)
	be.Equal(t, len(calls[0].Data.(ast.CallData).TypeArgs), 0)

	be.True(t, u32Inst.Params[0].Symbol != generic.Params[0].Symbol)
	be.Equal(t, st.BindingType(u32Inst.Params[0].Symbol), bt.U32)
	be.Equal(t, u32Inst.Params[0].Type.Resolved, bt.U32)
	be.Equal(t, u32Inst.Outputs[0].Type.Resolved, bt.U32)
	be.Equal(t, u32Inst.Instance.Generic, generic.Symbol)

	ret := u32Inst.Body.Stmts[1].Data.(ast.ReturnData).Value
	be.Equal(t, ret.Type, bt.U32)
	be.Equal(t, ret.ReportNotes(), []string{"instantiated with [T = u32]"})
	be.Equal(t, ret.ReportSpan(), generic.Body.Stmts[1].Data.(ast.ReturnData).Value.Span)
	be.Err(t, st.Symbols.Validate(), nil)
}

func TestInstancesAreStable(t *testing.T) {
	render := func() string {
		prog, _ := identityProgram()
		st := monoWith(t, config.Default(), prog)
		var buf bytes.Buffer
		be.Err(t, ast.Fprint(&buf, st.Program), nil)
		return buf.String()
	}
	be.Equal(t, render(), render())
}

func TestConstArgumentsFromLoop(t *testing.T) {
	b := ast.NewBuilder(1)
	scale := b.Fn(ast.VariantInline, "scale",
		[]*ast.Param{b.Param("x", b.Prim("u32"), ast.Private)},
		[]*ast.Output{b.Out(b.Prim("u32"), ast.Private)},
		b.Block(b.Return(b.Bin(ast.OpMul, b.Ident("x"), b.Ident("N")))))
	scale.Generics = []*ast.GenericParam{b.ConstGeneric("N", b.Prim("u32"))}
	call := b.CallG("scale", []ast.GenericArg{ast.VArg(b.Ident("i"))}, b.Lit("3u32"))
	main := b.Fn(ast.VariantTransition, "main", nil,
		[]*ast.Output{b.Out(b.Prim("u32"), ast.Public)},
		b.Block(
			b.Let("acc", nil, b.Lit("0u32")),
			b.For("i", b.Prim("u32"), b.Lit("0u32"), b.Lit("2u32"),
				b.Block(b.Assign("acc", b.Bin(ast.OpAdd, b.Ident("acc"), call)))),
			b.Return(b.Ident("acc")),
		))
	prog := b.Program("demo.aleo")
	prog.Functions = []*ast.FuncDecl{scale, main}

	st := monoWith(t, config.Default(), prog)
	be.Equal(t, len(codes(st)), 0)
	be.Equal(t, names(st), []string{"scale[0u32]", "scale[1u32]", "main"})
	be.Err(t, mono.Verify(st), nil)

	one := st.Program.Functions[1]
	ret := one.Body.Stmts[0].Data.(ast.ReturnData).Value
	lit, ok := ret.Data.(ast.BinaryData).Right.Literal()
	be.True(t, ok)
	be.Equal(t, lit.Text, "1")
	be.Equal(t, lit.Suffix, "u32")
}

func TestNestedInstances(t *testing.T) {
	b := ast.NewBuilder(1)
	inner := b.Call("identity", b.Ident("x"))
	outer := b.Fn(ast.VariantInline, "outer",
		[]*ast.Param{b.Param("x", b.Named("T"), ast.Private)},
		[]*ast.Output{b.Out(b.Named("T"), ast.Private)},
		b.Block(b.Return(inner)))
	outer.Generics = []*ast.GenericParam{b.Generic("T")}
	main := b.Fn(ast.VariantTransition, "main", nil,
		[]*ast.Output{b.Out(b.Prim("u8"), ast.Public)},
		b.Block(b.Return(b.Call("outer", b.Lit("4u8")))))
	prog := b.Program("demo.aleo")
	prog.Functions = []*ast.FuncDecl{identity(b), outer, main}

	st := monoWith(t, config.Default(), prog)
	be.Equal(t, len(codes(st)), 0)
	be.Equal(t, names(st), []string{"identity[u8]", "outer[u8]", "main"})
	be.Err(t, mono.Verify(st), nil)

	call := st.Program.Functions[1].Body.Stmts[0].Data.(ast.ReturnData).Value
	be.Equal(t, call.Data.(ast.CallData).Symbol, st.Program.Functions[0].Symbol)
	be.Equal(t, call.ReportNotes(), []string{"instantiated with [T = u8]"})
	// the generic's own node is untouched
	be.Equal(t, inner.Type, outer.Params[0].Type.Resolved)
	be.Equal(t, st.CallGraph.Callees(st.Program.Functions[1].Symbol), []symbols.SymbolID{st.Program.Functions[0].Symbol})
}

func TestUnusedGenericWarns(t *testing.T) {
	b := ast.NewBuilder(1)
	main := b.Fn(ast.VariantTransition, "main", nil, nil, b.Block())
	prog := b.Program("demo.aleo")
	prog.Functions = []*ast.FuncDecl{identity(b), main}

	st := monoWith(t, config.Default(), prog)
	be.Equal(t, codes(st), []diag.Code{diag.MonUnreachableInst})
	be.Equal(t, st.Diags.Sorted()[0].Severity, diag.SevWarning)
	be.Equal(t, names(st), []string{"main"})
}

func TestInstantiationLimit(t *testing.T) {
	prog, _ := identityProgram()
	cfg := config.Default()
	cfg.Limits.MaxInstantiations = 1
	st := monoWith(t, cfg, prog)
	be.Equal(t, codes(st), []diag.Code{diag.MonLimitExceeded})
}

func TestGenericStructCycle(t *testing.T) {
	b := ast.NewBuilder(1)
	a := b.Struct("A", b.MemberDecl("b", b.Named("B", ast.TArg(b.Named("T")))))
	a.Generics = []*ast.GenericParam{b.Generic("T")}
	bs := b.Struct("B", b.MemberDecl("a", b.Named("A", ast.TArg(b.Named("T")))))
	bs.Generics = []*ast.GenericParam{b.Generic("T")}
	use := b.Fn(ast.VariantInline, "use",
		[]*ast.Param{b.Param("v", b.Named("A", ast.TArg(b.Prim("u8"))), ast.Private)}, nil,
		b.Block())
	main := b.Fn(ast.VariantTransition, "main", nil, nil, b.Block())
	prog := b.Program("demo.aleo")
	prog.Structs = []*ast.StructDecl{a, bs}
	prog.Functions = []*ast.FuncDecl{use, main}

	st := monoWith(t, config.Default(), prog)
	be.Equal(t, codes(st), []diag.Code{diag.MonCycle})
	d := st.Diags.Sorted()[0]
	be.Equal(t, d.Message, "struct 'A::[u8]' contains itself: A::[u8] -> B::[u8] -> A::[u8]")
	be.Equal(t, d.Notes[0].Span, a.Span)
}

func TestVerifyCatchesLeftoverGenerics(t *testing.T) {
	prog, _ := identityProgram()
	st := upToUnroll(t, config.Default(), prog)
	be.True(t, mono.Verify(st) != nil)
}
