package testkit

import (
	"veil/internal/ast"
	"veil/internal/diag"
)

// Fixture is a small program with its expected compilation outcome.
type Fixture struct {
	Name     string
	Build    func() *ast.Program
	HaltedAt string      // empty when the program compiles
	Codes    []diag.Code // expected diagnostics, sorted
}

// Fixtures returns the built-in programs in a stable order.
func Fixtures() []Fixture {
	return []Fixture{
		{Name: "double", Build: Double},
		{Name: "loop-sum", Build: LoopSum},
		{Name: "identity", Build: Identity},
		{Name: "early-return", Build: EarlyReturn},
		{Name: "token", Build: Token},
		{Name: "call-cycle", Build: CallCycle, HaltedAt: "analyze", Codes: []diag.Code{diag.StaCallCycle}},
		{Name: "dynamic-bound", Build: DynamicBound, HaltedAt: "unroll", Codes: []diag.Code{diag.UnrNonConstantBound}},
	}
}

func program(b *ast.Builder, fns ...*ast.FuncDecl) *ast.Program {
	prog := b.Program("demo.aleo")
	prog.Functions = fns
	return prog
}

func u32(b *ast.Builder) *ast.TypeExpr { return b.Prim("u32") }

// Double multiplies its input by two in a helper function.
func Double() *ast.Program {
	b := ast.NewBuilder(1)
	double := b.Fn(ast.VariantFunction, "double",
		[]*ast.Param{b.Param("x", u32(b), ast.Private)},
		[]*ast.Output{b.Out(u32(b), ast.Private)},
		b.Block(b.Return(b.Bin(ast.OpMul, b.Ident("x"), b.Lit("2u32")))))
	main := b.Fn(ast.VariantTransition, "main",
		[]*ast.Param{b.Param("a", u32(b), ast.Public)},
		[]*ast.Output{b.Out(u32(b), ast.Public)},
		b.Block(b.Return(b.Call("double", b.Ident("a")))))
	return program(b, double, main)
}

// LoopSum adds its input three times in an unrolled loop.
func LoopSum() *ast.Program {
	b := ast.NewBuilder(1)
	main := b.Fn(ast.VariantTransition, "main",
		[]*ast.Param{b.Param("a", u32(b), ast.Public)},
		[]*ast.Output{b.Out(u32(b), ast.Public)},
		b.Block(
			b.Let("sum", u32(b), b.Lit("0u32")),
			b.For("i", u32(b), b.Lit("0u32"), b.Lit("3u32"),
				b.Block(b.AssignOp("sum", ast.OpAdd, b.Ident("a")))),
			b.Return(b.Ident("sum")),
		))
	return program(b, main)
}

// Identity calls a generic function at two types.
func Identity() *ast.Program {
	b := ast.NewBuilder(1)
	identity := b.Fn(ast.VariantInline, "identity",
		[]*ast.Param{b.Param("x", b.Named("T"), ast.Private)},
		[]*ast.Output{b.Out(b.Named("T"), ast.Private)},
		b.Block(b.Return(b.Ident("x"))))
	identity.Generics = []*ast.GenericParam{b.Generic("T")}
	main := b.Fn(ast.VariantTransition, "main",
		[]*ast.Param{b.Param("a", u32(b), ast.Public), b.Param("c", b.Prim("bool"), ast.Public)},
		[]*ast.Output{b.Out(u32(b), ast.Public)},
		b.Block(
			b.Let("x", nil, b.Call("identity", b.Ident("a"))),
			b.Let("y", nil, b.Call("identity", b.Ident("c"))),
			b.Return(b.Ternary(b.Ident("y"), b.Ident("x"), b.Lit("0u32"))),
		))
	return program(b, identity, main)
}

// EarlyReturn returns from inside a branch.
func EarlyReturn() *ast.Program {
	b := ast.NewBuilder(1)
	main := b.Fn(ast.VariantTransition, "main",
		[]*ast.Param{b.Param("cond", b.Prim("bool"), ast.Private), b.Param("a", u32(b), ast.Private)},
		[]*ast.Output{b.Out(u32(b), ast.Public)},
		b.Block(
			b.Let("x", u32(b), b.Ident("a")),
			b.If(b.Ident("cond"), b.Block(b.Return(b.Lit("1u32"))), nil),
			b.AssignOp("x", ast.OpAdd, b.Lit("5u32")),
			b.Return(b.Ident("x")),
		))
	return program(b, main)
}

// Token moves a public balance: an async transition hands off to an async
// function that updates a mapping.
func Token() *ast.Program {
	b := ast.NewBuilder(1)
	fin := b.Fn(ast.VariantAsync, "finalize_mint",
		[]*ast.Param{b.Param("to", b.Prim("address"), ast.Public), b.Param("amount", b.Prim("u64"), ast.Public)}, nil,
		b.Block(
			b.Let("current", nil, b.Mapping(ast.MappingGetOrUse, "balances", b.Ident("to"), b.Lit("0u64"))),
			b.ExprStmt(b.Mapping(ast.MappingSet, "balances", b.Ident("to"), b.Bin(ast.OpAdd, b.Ident("current"), b.Ident("amount")))),
		))
	mint := b.Fn(ast.VariantAsyncTransition, "mint",
		[]*ast.Param{b.Param("amount", b.Prim("u64"), ast.Public)},
		[]*ast.Output{b.Out(b.FutureT(), ast.Public)},
		b.Block(b.Return(b.Call("finalize_mint", b.Ctx(ast.ContextCaller), b.Ident("amount")))))
	prog := program(b, fin, mint)
	prog.Mappings = []*ast.MappingDecl{b.MappingDecl("balances", b.Prim("address"), b.Prim("u64"))}
	return prog
}

// CallCycle has two functions calling each other.
func CallCycle() *ast.Program {
	b := ast.NewBuilder(1)
	fa := b.Fn(ast.VariantInline, "a", nil, nil, b.Block(b.ExprStmt(b.Call("b"))))
	fb := b.Fn(ast.VariantInline, "b", nil, nil, b.Block(b.ExprStmt(b.Call("a"))))
	return program(b, fa, fb)
}

// DynamicBound loops up to a parameter.
func DynamicBound() *ast.Program {
	b := ast.NewBuilder(1)
	main := b.Fn(ast.VariantTransition, "main",
		[]*ast.Param{b.Param("n", u32(b), ast.Private)},
		[]*ast.Output{b.Out(u32(b), ast.Public)},
		b.Block(
			b.Let("sum", u32(b), b.Lit("0u32")),
			b.For("i", u32(b), b.Lit("0u32"), b.Ident("n"),
				b.Block(b.AssignOp("sum", ast.OpAdd, b.Ident("i")))),
			b.Return(b.Ident("sum")),
		))
	return program(b, main)
}
