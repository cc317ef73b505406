package analyze_test

import (
	"context"
	"testing"

	"github.com/nalgeon/be"

	"veil/internal/analyze"
	"veil/internal/ast"
	"veil/internal/compiler"
	"veil/internal/config"
	"veil/internal/diag"
	"veil/internal/resolve"
	"veil/internal/sema"
	"veil/internal/symbols"
)

const addr = "aleo1qnr4dkkvkgfqph0vzc3y6z2eu975wnpz2925ntjccd5cfqxtyu8sta57j8"

func analyzed(t *testing.T, prog *ast.Program) *compiler.State {
	t.Helper()
	st := compiler.New(prog, nil, config.Default())
	ctx := context.Background()
	be.Err(t, resolve.Pass{}.Run(ctx, st), nil)
	be.Err(t, sema.Pass{}.Run(ctx, st), nil)
	be.Equal(t, st.Diags.HasErrors(), false)
	be.Err(t, analyze.Pass{}.Run(ctx, st), nil)
	return st
}

func codes(st *compiler.State) []diag.Code {
	var out []diag.Code
	for _, d := range st.Diags.Sorted() {
		out = append(out, d.Code)
	}
	return out
}

func u32(b *ast.Builder) *ast.TypeExpr { return b.Prim("u32") }

func TestCallCycleRejected(t *testing.T) {
	b := ast.NewBuilder(1)
	fa := b.Fn(ast.VariantInline, "a", nil, nil, b.Block(b.ExprStmt(b.Call("b"))))
	fb := b.Fn(ast.VariantInline, "b", nil, nil, b.Block(b.ExprStmt(b.Call("a"))))
	self := b.Fn(ast.VariantInline, "c", nil, nil, b.Block(b.ExprStmt(b.Call("c"))))
	prog := b.Program("demo.aleo")
	prog.Functions = []*ast.FuncDecl{fa, fb, self}

	st := analyzed(t, prog)
	ds := st.Diags.Sorted()
	be.Equal(t, codes(st), []diag.Code{diag.StaCallCycle, diag.StaCallCycle})
	be.Equal(t, ds[0].Message, "recursive call cycle: a -> b -> a")
	be.Equal(t, len(ds[0].Notes), 2)
	be.Equal(t, ds[0].Notes[1].Msg, "'b' calls 'a' here")
	be.Equal(t, ds[1].Message, "recursive call cycle: c -> c")
}

func TestCallGraphStored(t *testing.T) {
	b := ast.NewBuilder(1)
	helper := b.Fn(ast.VariantInline, "helper",
		[]*ast.Param{b.Param("x", u32(b), ast.Private)},
		[]*ast.Output{b.Out(u32(b), ast.Private)},
		b.Block(b.Return(b.Ident("x"))))
	main := b.Fn(ast.VariantTransition, "main",
		[]*ast.Param{b.Param("x", u32(b), ast.Private)},
		[]*ast.Output{b.Out(u32(b), ast.Private)},
		b.Block(
			b.Let("y", nil, b.Call("helper", b.Ident("x"))),
			b.Return(b.Call("helper", b.Ident("y"))),
		))
	prog := b.Program("demo.aleo")
	prog.Functions = []*ast.FuncDecl{helper, main}

	st := analyzed(t, prog)
	be.Equal(t, len(codes(st)), 0)
	be.Equal(t, st.CallGraph.Len(), 2)
	be.Equal(t, st.CallGraph.Callees(main.Symbol), []symbols.SymbolID{helper.Symbol})
	be.Equal(t, len(st.CallGraph.Callees(helper.Symbol)), 0)
}

func TestEffectDiscipline(t *testing.T) {
	b := ast.NewBuilder(1)
	who := func() *ast.Param { return b.Param("who", b.Prim("address"), ast.Public) }
	fin := b.Fn(ast.VariantAsync, "fin",
		[]*ast.Param{who(), b.Param("n", b.Prim("u64"), ast.Public)}, nil,
		b.Block(
			b.ExprStmt(b.Mapping(ast.MappingSet, "balances", b.Ident("who"), b.Ident("n"))),
			b.Let("h", nil, b.Ctx(ast.ContextHeight)),
			b.ExprStmt(b.Call("notify")),
		))
	notify := b.Fn(ast.VariantTransition, "notify", nil, nil,
		b.Block(b.ExprStmt(b.Mapping(ast.MappingSet, "balances", b.Lit(addr), b.Lit("1u64")))))
	twice := b.Fn(ast.VariantAsyncTransition, "twice",
		[]*ast.Param{who()},
		[]*ast.Output{b.Out(b.FutureT(), ast.Public)},
		b.Block(
			b.Let("f", nil, b.Call("fin", b.Ident("who"), b.Lit("1u64"))),
			b.Let("g", nil, b.Call("fin", b.Ident("who"), b.Lit("2u64"))),
			b.Return(b.Ident("f")),
		))
	direct := b.Fn(ast.VariantTransition, "direct", []*ast.Param{who()}, nil,
		b.Block(b.Let("f", nil, b.Call("fin", b.Ident("who"), b.Lit("3u64")))))
	unused := b.Fn(ast.VariantAsync, "unused",
		[]*ast.Param{b.Param("f", b.FutureT(), ast.Public)}, nil, b.Block())
	plain := b.Fn(ast.VariantTransition, "plain", nil, nil,
		b.Block(b.Let("h", nil, b.Ctx(ast.ContextHeight))))

	prog := b.Program("demo.aleo")
	prog.Mappings = []*ast.MappingDecl{b.MappingDecl("balances", b.Prim("address"), b.Prim("u64"))}
	prog.Functions = []*ast.FuncDecl{fin, notify, twice, direct, unused, plain}

	st := analyzed(t, prog)
	be.Equal(t, codes(st), []diag.Code{
		diag.StaAsyncCallsTransition,
		diag.StaEffectOutsideAsync,
		diag.StaMultipleAsyncCalls,
		diag.StaAsyncCallContext,
		diag.StaFutureNotAwaited,
		diag.StaEffectOutsideAsync,
	})
	multi := st.Diags.Sorted()[2]
	be.Equal(t, multi.Notes[0].Msg, "first async call here")
	be.Equal(t, st.Diags.Sorted()[4].Severity, diag.SevWarning)
}

func TestFoldingReplacesConstants(t *testing.T) {
	b := ast.NewBuilder(1)
	limit := b.ConstDecl("LIMIT", u32(b), b.Bin(ast.OpMul, b.Lit("2u32"), b.Lit("5u32")))
	sum := b.Bin(ast.OpAdd, b.Ident("LIMIT"), b.Lit("1u32"))
	partial := b.Bin(ast.OpAdd, b.Ident("a"), b.Bin(ast.OpMul, b.Lit("2u32"), b.Lit("3u32")))
	local := b.Bin(ast.OpAdd, b.Ident("m"), b.Lit("1u32"))
	body := b.Block(
		b.Let("x", nil, sum),
		b.Const("m", u32(b), b.Lit("4u32")),
		b.Let("z", nil, local),
		b.Return(b.Bin(ast.OpAdd, b.Ident("x"), partial)),
	)
	fn := b.Fn(ast.VariantTransition, "main",
		[]*ast.Param{b.Param("a", u32(b), ast.Private)},
		[]*ast.Output{b.Out(u32(b), ast.Private)}, body)
	prog := b.Program("demo.aleo")
	prog.Consts = []*ast.ConstDecl{limit}
	prog.Functions = []*ast.FuncDecl{fn}

	st := analyzed(t, prog)
	be.Equal(t, len(codes(st)), 0)

	lit, ok := limit.Value.Literal()
	be.True(t, ok)
	be.Equal(t, lit.Text, "10")

	x := body.Stmts[0].Data.(ast.LetData).Value
	lit, ok = x.Literal()
	be.True(t, ok)
	be.Equal(t, lit.Text, "11")
	be.Equal(t, lit.Suffix, "u32")
	be.Equal(t, x.Type, st.Types.Builtins().U32)
	be.True(t, x.ID != sum.ID)
	be.Equal(t, x.Origin.Node, sum.ID)
	be.Equal(t, x.ReportSpan(), sum.Span)

	z, ok := body.Stmts[2].Data.(ast.LetData).Value.Literal()
	be.True(t, ok)
	be.Equal(t, z.Text, "5")

	right, ok := partial.Data.(ast.BinaryData).Right.Literal()
	be.True(t, ok)
	be.Equal(t, right.Text, "6")
}

func TestFoldingDiagnostics(t *testing.T) {
	b := ast.NewBuilder(1)
	over := func() *ast.Expr { return b.Bin(ast.OpAdd, b.Lit("200u8"), b.Lit("100u8")) }
	fn := b.Fn(ast.VariantTransition, "main",
		[]*ast.Param{b.Param("a", u32(b), ast.Private)}, nil,
		b.Block(
			b.Let("o", b.Prim("u8"), over()),
			b.Let("n", b.Prim("u8"), b.Bin(ast.OpMul, over(), b.Lit("2u8"))),
			b.Let("d", nil, b.Bin(ast.OpDiv, b.Lit("1u32"), b.Lit("0u32"))),
			b.Const("k", u32(b), b.Ident("a")),
			b.For("i", u32(b), b.Lit("0"), b.Lit("2"), b.Block(b.Const("j", u32(b), b.Ident("i")))),
		))
	prog := b.Program("demo.aleo")
	prog.Functions = []*ast.FuncDecl{fn}

	st := analyzed(t, prog)
	be.Equal(t, codes(st), []diag.Code{
		diag.StaConstOverflow,
		diag.StaConstOverflow,
		diag.StaDivisionByZero,
		diag.StaConstNotConstant,
	})
}
