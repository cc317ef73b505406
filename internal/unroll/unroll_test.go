package unroll_test

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
	"veil/internal/unroll"
)

func unrolled(t *testing.T, cfg config.Config, fns ...*ast.FuncDecl) *compiler.State {
	t.Helper()
	prog := &ast.Program{Meta: ast.NewMeta(fns[0].Span), Name: "demo.aleo", Functions: fns}
	st := compiler.New(prog, nil, cfg)
	ctx := context.Background()
	be.Err(t, resolve.Pass{}.Run(ctx, st), nil)
	be.Err(t, sema.Pass{}.Run(ctx, st), nil)
	be.Err(t, analyze.Pass{}.Run(ctx, st), nil)
	be.Equal(t, st.Diags.HasErrors(), false)
	be.Err(t, unroll.Pass{}.Run(ctx, st), nil)
	return st
}

func codes(st *compiler.State) []diag.Code {
	var out []diag.Code
	for _, d := range st.Diags.Sorted() {
		out = append(out, d.Code)
	}
	return out
}

func hasLoops(b *ast.Block) bool {
	return ast.Contains(b, func(s *ast.Stmt) bool { return s.Kind == ast.StmtFor })
}

func assigns(b *ast.Block) []ast.AssignData {
	var out []ast.AssignData
	ast.WalkStmts(b, func(s *ast.Stmt) bool {
		if d, ok := s.Data.(ast.AssignData); ok {
			out = append(out, d)
		}
		return true
	})
	return out
}

// sumLoop builds `let sum = 0u8; for i: u8 in lo..hi { body }; return sum;`.
func sumLoop(b *ast.Builder, loop *ast.Stmt) *ast.FuncDecl {
	return b.Fn(ast.VariantTransition, "main", nil,
		[]*ast.Output{b.Out(b.Prim("u8"), ast.Private)},
		b.Block(b.Let("sum", nil, b.Lit("0u8")), loop, b.Return(b.Ident("sum"))))
}

func TestUnrollsEachIteration(t *testing.T) {
	b := ast.NewBuilder(1)
	loop := b.For("i", b.Prim("u8"), b.Lit("0u8"), b.Lit("3u8"),
		b.Block(b.Assign("sum", b.Bin(ast.OpAdd, b.Ident("sum"), b.Ident("i")))))
	fn := sumLoop(b, loop)

	st := unrolled(t, config.Default(), fn)
	be.Equal(t, len(codes(st)), 0)
	be.Equal(t, hasLoops(fn.Body), false)
	be.Equal(t, len(fn.Body.Stmts), 5)

	got := assigns(fn.Body)
	be.Equal(t, len(got), 3)
	for k, a := range got {
		right := a.Value.Data.(ast.BinaryData).Right
		lit, ok := right.Literal()
		be.True(t, ok)
		be.Equal(t, lit.Text, []string{"0", "1", "2"}[k])
		be.Equal(t, lit.Suffix, "u8")
		be.Equal(t, right.Type, st.Types.Builtins().U8)
		be.Equal(t, right.ReportSpan(), loop.Span)
		be.Equal(t, right.ReportNotes(), []string{"in iteration i = " + lit.Text})
	}
	be.True(t, got[0].Value.ID != got[1].Value.ID)
}

func TestZeroIterations(t *testing.T) {
	b := ast.NewBuilder(1)
	body := func() *ast.Block { return b.Block(b.Assign("sum", b.Lit("1u8"))) }
	fn := b.Fn(ast.VariantTransition, "main", nil,
		[]*ast.Output{b.Out(b.Prim("u8"), ast.Private)},
		b.Block(
			b.Let("sum", nil, b.Lit("0u8")),
			b.For("i", b.Prim("u32"), b.Lit("5u32"), b.Lit("5u32"), body()),
			b.ForInclusive("j", b.Prim("u32"), b.Lit("2u32"), b.Lit("1u32"), body()),
			b.ForInclusive("k", b.Prim("u32"), b.Lit("1u32"), b.Lit("1u32"), body()),
			b.Return(b.Ident("sum")),
		))

	st := unrolled(t, config.Default(), fn)
	be.Equal(t, len(codes(st)), 0)
	be.Equal(t, len(fn.Body.Stmts), 3)
	be.Equal(t, len(assigns(fn.Body)), 1)
}

func TestNonConstantBound(t *testing.T) {
	b := ast.NewBuilder(1)
	fn := b.Fn(ast.VariantTransition, "main",
		[]*ast.Param{b.Param("n", b.Prim("u32"), ast.Private)}, nil,
		b.Block(b.For("i", b.Prim("u32"), b.Lit("0u32"), b.Ident("n"), b.Block())))

	st := unrolled(t, config.Default(), fn)
	be.Equal(t, codes(st), []diag.Code{diag.UnrNonConstantBound})
}

func TestLimitExceeded(t *testing.T) {
	b := ast.NewBuilder(1)
	loop := b.For("i", b.Prim("u8"), b.Lit("0u8"), b.Lit("100u8"),
		b.Block(b.Assign("sum", b.Bin(ast.OpAdd, b.Ident("sum"), b.Lit("1u8")))))
	fn := sumLoop(b, loop)
	cfg := config.Default()
	cfg.Limits.MaxUnrolled = 10

	st := unrolled(t, cfg, fn)
	be.Equal(t, codes(st), []diag.Code{diag.UnrLimitExceeded})
	be.True(t, hasLoops(fn.Body))
}

func TestNestedLoopsAndFreshLocals(t *testing.T) {
	b := ast.NewBuilder(1)
	inner := b.For("j", b.Prim("u8"), b.Lit("0u8"), b.Ident("i"),
		b.Block(
			b.Let("t", nil, b.Ident("j")),
			b.Assign("sum", b.Bin(ast.OpAdd, b.Ident("sum"), b.Ident("t"))),
		))
	outer := b.For("i", b.Prim("u8"), b.Lit("0u8"), b.Lit("3u8"), b.Block(inner))
	fn := sumLoop(b, outer)

	st := unrolled(t, config.Default(), fn)
	be.Equal(t, len(codes(st)), 0)
	be.Equal(t, hasLoops(fn.Body), false)

	// 0 + 1 + 2 inner iterations
	got := assigns(fn.Body)
	be.Equal(t, len(got), 3)

	seen := map[symbols.SymbolID]bool{}
	ast.WalkStmts(fn.Body, func(s *ast.Stmt) bool {
		d, ok := s.Data.(ast.LetData)
		if !ok || d.Bindings[0].Name != "t" {
			return true
		}
		sym := d.Bindings[0].Symbol
		be.Equal(t, seen[sym], false)
		seen[sym] = true
		be.True(t, st.Symbol(sym).Flags&symbols.SymbolFlagGenerated != 0)
		be.Equal(t, st.BindingType(sym), st.Types.Builtins().U8)
		return true
	})
	be.Equal(t, len(seen), 3)
	for _, a := range got {
		ref, _ := a.Value.Data.(ast.BinaryData).Right.Ident()
		be.True(t, seen[ref.Symbol])
	}
	be.Err(t, st.Symbols.Validate(), nil)
}

func TestUnrolledBodiesAreFolded(t *testing.T) {
	b := ast.NewBuilder(1)
	loop := b.For("i", b.Prim("u8"), b.Lit("0u8"), b.Lit("3u8"),
		b.Block(b.Assign("sum", b.Bin(ast.OpAdd, b.Ident("sum"), b.Bin(ast.OpMul, b.Ident("i"), b.Lit("2u8"))))))
	fn := sumLoop(b, loop)

	st := unrolled(t, config.Default(), fn)
	be.Equal(t, len(codes(st)), 0)
	var got []string
	for _, a := range assigns(fn.Body) {
		got = append(got, ast.ExprString(a.Value))
	}
	be.Equal(t, got, []string{"sum + 0u8", "sum + 2u8", "sum + 4u8"})
}

func TestGenericLoopsWaitForConstParams(t *testing.T) {
	b := ast.NewBuilder(1)
	fn := b.Fn(ast.VariantInline, "repeat",
		[]*ast.Param{b.Param("x", b.Prim("u32"), ast.Private)},
		[]*ast.Output{b.Out(b.Prim("u32"), ast.Private)},
		b.Block(
			b.Let("acc", b.Prim("u32"), b.Lit("0u32")),
			b.Const("M", b.Prim("u32"), b.Bin(ast.OpMul, b.Ident("N"), b.Lit("2u32"))),
			b.For("i", b.Prim("u32"), b.Lit("0u32"), b.Ident("M"),
				b.Block(b.Assign("acc", b.Bin(ast.OpAdd, b.Ident("acc"), b.Ident("x"))))),
			b.For("j", b.Prim("u32"), b.Lit("0u32"), b.Lit("2u32"),
				b.Block(b.Assign("acc", b.Bin(ast.OpAdd, b.Ident("acc"), b.Ident("j"))))),
			b.Return(b.Ident("acc")),
		))
	fn.Generics = []*ast.GenericParam{b.ConstGeneric("N", b.Prim("u32"))}

	st := unrolled(t, config.Default(), fn)
	be.Equal(t, len(codes(st)), 0)

	var loops []string
	ast.WalkStmts(fn.Body, func(s *ast.Stmt) bool {
		if d, ok := s.Data.(ast.ForData); ok {
			loops = append(loops, ast.ExprString(d.End))
		}
		return true
	})
	be.Equal(t, loops, []string{"M"})
	be.Err(t, unroll.Verify(st), nil)
}

func TestGenericNonConstantBound(t *testing.T) {
	b := ast.NewBuilder(1)
	fn := b.Fn(ast.VariantInline, "count",
		[]*ast.Param{b.Param("x", b.Named("T"), ast.Private), b.Param("n", b.Prim("u32"), ast.Private)}, nil,
		b.Block(b.For("i", b.Prim("u32"), b.Lit("0u32"), b.Ident("n"), b.Block())))
	fn.Generics = []*ast.GenericParam{b.Generic("T")}

	st := unrolled(t, config.Default(), fn)
	be.Equal(t, codes(st), []diag.Code{diag.UnrNonConstantBound})
}
