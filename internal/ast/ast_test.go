package ast_test

import (
	"strings"
	"testing"

	"github.com/nalgeon/be"

	"veil/internal/ast"
	"veil/internal/source"
	"veil/internal/symbols"
)

func TestBuilderLiterals(t *testing.T) {
	b := ast.NewBuilder(0)
	cases := []struct {
		text   string
		kind   ast.LiteralKind
		digits string
		suffix string
	}{
		{"5u32", ast.LitInt, "5", "u32"},
		{"1u128", ast.LitInt, "1", "u128"},
		{"7", ast.LitInt, "7", ""},
		{"3field", ast.LitField, "3", "field"},
		{"true", ast.LitBool, "true", ""},
		{"aleo1qqqq", ast.LitAddress, "aleo1qqqq", ""},
	}
	for _, c := range cases {
		lit, ok := b.Lit(c.text).Literal()
		be.True(t, ok)
		be.Equal(t, lit.Kind, c.kind)
		be.Equal(t, lit.Text, c.digits)
		be.Equal(t, lit.Suffix, c.suffix)
	}
}

func TestBuilderSpansAreDistinct(t *testing.T) {
	b := ast.NewBuilder(3)
	x := b.Ident("x")
	y := b.Ident("y")
	be.True(t, x.Span.Valid())
	be.True(t, x.Span.Less(y.Span))
	be.Equal(t, x.Span.File, source.FileID(3))
	be.True(t, x.ID < y.ID)
}

func TestClonerFreshIDsAndOrigin(t *testing.T) {
	b := ast.NewBuilder(0)
	body := b.Block(
		b.Let("t", nil, b.Bin(ast.OpAdd, b.Ident("i"), b.Lit("1u32"))),
		b.Assign("sum", b.Ident("t")),
	)
	letBinding := body.Stmts[0].Data.(ast.LetData).Bindings[0]
	letBinding.Symbol = 10
	ref := body.Stmts[1].Data.(ast.AssignData).Value
	ref.Data = ast.IdentData{Name: "t", Symbol: 10}

	loopSpan := source.Span{Start: 100, End: 140}
	next := symbols.SymbolID(50)
	c := &ast.Cloner{
		Note:       "in iteration i = 2",
		OriginSpan: loopSpan,
		FreshBinding: func(old *ast.Binding, scope symbols.ScopeID) symbols.SymbolID {
			next++
			return next
		},
	}
	cp := c.Block(body)

	seen := map[ast.NodeID]bool{}
	ast.WalkBlockExprs(body, func(e *ast.Expr) bool { seen[e.ID] = true; return true })
	ast.WalkBlockExprs(cp, func(e *ast.Expr) bool {
		be.True(t, !seen[e.ID])
		be.True(t, e.Origin != nil)
		be.Equal(t, e.ReportSpan(), loopSpan)
		be.Equal(t, e.ReportNotes(), []string{"in iteration i = 2"})
		return true
	})

	newRef, _ := cp.Stmts[1].Data.(ast.AssignData).Value.Ident()
	be.Equal(t, newRef.Symbol, symbols.SymbolID(51))
	be.Equal(t, cp.Stmts[0].Data.(ast.LetData).Bindings[0].Symbol, symbols.SymbolID(51))

	// a second rewrite keeps the first origin span and stacks notes
	c2 := &ast.Cloner{Note: "instantiated with T = u8"}
	cp2 := c2.Block(cp)
	e := cp2.Stmts[1].Data.(ast.AssignData).Value
	be.Equal(t, e.ReportSpan(), loopSpan)
	be.Equal(t, len(e.ReportNotes()), 2)
}

func TestClonerSubst(t *testing.T) {
	b := ast.NewBuilder(0)
	e := b.Bin(ast.OpMul, b.Ident("i"), b.Ident("k"))
	c := &ast.Cloner{Subst: func(old *ast.Expr) *ast.Expr {
		if id, ok := old.Ident(); ok && id.Name == "i" {
			return b.Lit("3u8")
		}
		return nil
	}}
	be.Equal(t, ast.ExprString(c.Expr(e)), "3u8 * k")
	be.Equal(t, ast.ExprString(e), "i * k")
}

func TestRewriteExprBottomUp(t *testing.T) {
	b := ast.NewBuilder(0)
	e := b.Bin(ast.OpAdd, b.Bin(ast.OpMul, b.Lit("2u32"), b.Lit("3u32")), b.Ident("x"))
	var order []string
	ast.RewriteExpr(e, func(n *ast.Expr) *ast.Expr {
		order = append(order, n.Kind.String())
		return n
	})
	be.Equal(t, order, []string{"Literal", "Literal", "Binary", "Ident", "Binary"})
}

func TestWalkStmtsNested(t *testing.T) {
	b := ast.NewBuilder(0)
	body := b.Block(
		b.If(b.Ident("c"), b.Block(b.Assign("x", b.Lit("1u32"))), b.Block(b.Assign("x", b.Lit("2u32")))),
		b.For("i", b.Prim("u8"), b.Lit("0u8"), b.Lit("3u8"), b.Block(b.Assert(b.Ident("c")))),
	)
	count := 0
	ast.WalkStmts(body, func(*ast.Stmt) bool { count++; return true })
	be.Equal(t, count, 5)
	be.True(t, ast.Contains(body, func(s *ast.Stmt) bool { return s.Kind == ast.StmtAssert }))
}

func TestFprint(t *testing.T) {
	b := ast.NewBuilder(0)
	p := b.Program("demo.aleo")
	p.Functions = append(p.Functions, b.Fn(ast.VariantTransition, "double",
		[]*ast.Param{b.Param("x", b.Prim("u32"), ast.Public)},
		[]*ast.Output{b.Out(b.Prim("u32"), ast.Private)},
		b.Block(b.Return(b.Bin(ast.OpMul, b.Ident("x"), b.Lit("2u32")))),
	))
	var sb strings.Builder
	be.Err(t, ast.Fprint(&sb, p), nil)
	want := "program demo.aleo {\n" +
		"    transition double(public x: u32) -> u32 {\n" +
		"        return x * 2u32;\n" +
		"    }\n" +
		"}\n"
	be.Equal(t, sb.String(), want)
}
