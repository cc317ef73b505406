package resolve_test

import (
	"context"
	"testing"

	"github.com/nalgeon/be"

	"veil/internal/ast"
	"veil/internal/compiler"
	"veil/internal/config"
	"veil/internal/diag"
	"veil/internal/resolve"
	"veil/internal/symbols"
)

func run(t *testing.T, main *ast.Program, imports ...*ast.Program) *compiler.State {
	t.Helper()
	st := compiler.New(main, imports, config.Default())
	be.Err(t, resolve.Pass{}.Run(context.Background(), st), nil)
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

func TestBindsLocalsAndParams(t *testing.T) {
	b := ast.NewBuilder(1)
	p := b.Param("a", u32(b), ast.Private)
	use := b.Ident("a")
	x := b.Ident("x")
	let := b.Let("x", nil, b.Bin(ast.OpAdd, use, b.Lit("1u32")))
	fn := b.Fn(ast.VariantTransition, "main", []*ast.Param{p}, []*ast.Output{b.Out(u32(b), ast.Private)},
		b.Block(let, b.Return(x)))
	prog := b.Program("demo.aleo")
	prog.Functions = []*ast.FuncDecl{fn}

	st := run(t, prog)
	be.Equal(t, len(codes(st)), 0)
	id, _ := use.Ident()
	be.Equal(t, id.Symbol, p.Symbol)
	xd, _ := x.Ident()
	be.Equal(t, xd.Symbol, let.Data.(ast.LetData).Bindings[0].Symbol)
	be.Equal(t, st.Symbol(xd.Symbol).Kind, symbols.SymbolLet)
	be.Equal(t, st.Func(fn.Symbol), fn)
	be.Err(t, st.Symbols.Validate(), nil)
}

func TestDuplicateInSameBlock(t *testing.T) {
	b := ast.NewBuilder(1)
	inner := b.Block(b.Let("x", nil, b.Lit("2u32")))
	body := b.Block(
		b.Let("x", nil, b.Lit("1u32")),
		b.BlockStmt(inner), // shadowing in a nested block is fine
		b.Let("x", nil, b.Lit("3u32")),
	)
	prog := b.Program("demo.aleo")
	prog.Functions = []*ast.FuncDecl{b.Fn(ast.VariantFunction, "f", nil, nil, body)}

	st := run(t, prog)
	items := st.Diags.Sorted()
	be.Equal(t, codes(st), []diag.Code{diag.ResDuplicateSymbol})
	be.Equal(t, len(items[0].Notes), 1)
	be.Equal(t, items[0].Notes[0].Msg, "previous declaration here")
}

func TestLoopVariableScope(t *testing.T) {
	b := ast.NewBuilder(1)
	loop := b.For("i", u32(b), b.Lit("0u32"), b.Lit("3u32"), b.Block(b.ExprStmt(b.Ident("i"))))
	after := b.Ident("i")
	prog := b.Program("demo.aleo")
	prog.Functions = []*ast.FuncDecl{b.Fn(ast.VariantFunction, "f", nil, nil, b.Block(loop, b.ExprStmt(after)))}

	st := run(t, prog)
	be.Equal(t, codes(st), []diag.Code{diag.ResUnresolvedSymbol})
	inside := loop.Data.(ast.ForData).Body.Stmts[0].Data.(ast.ExprStmtData).Value
	d, _ := inside.Ident()
	be.Equal(t, st.Symbol(d.Symbol).Kind, symbols.SymbolLoopVar)
}

func TestImportedNames(t *testing.T) {
	b := ast.NewBuilder(1)
	libA := b.Program("a.aleo")
	libA.Functions = []*ast.FuncDecl{b.Fn(ast.VariantTransition, "helper", nil, nil, b.Block(b.ExprStmt(b.Ident("nowhere"))))}
	libA.Mappings = []*ast.MappingDecl{b.MappingDecl("m", b.Prim("address"), u32(b))}
	libB := b.Program("b.aleo")
	libB.Functions = []*ast.FuncDecl{b.Fn(ast.VariantTransition, "helper", nil, nil, nil)}
	libB.Mappings = []*ast.MappingDecl{b.MappingDecl("m", b.Prim("address"), u32(b))}

	call := b.Call("helper")
	qualified := b.QIdent("a.aleo", "m")
	ambiguous := b.Ident("m")
	prog := b.Program("main.aleo", "a.aleo", "b.aleo")
	prog.Functions = []*ast.FuncDecl{b.Fn(ast.VariantFunction, "f", nil, nil, b.Block(
		b.ExprStmt(call),
		b.ExprStmt(qualified),
		b.ExprStmt(ambiguous),
		b.ExprStmt(b.QIdent("c.aleo", "m")),
	))}

	st := run(t, prog, libA, libB)
	// the unresolved name inside an import body is never looked at
	be.Equal(t, codes(st), []diag.Code{diag.ResAmbiguousImport, diag.ResUnknownProgram})
	cd := call.Data.(ast.CallData)
	be.Equal(t, cd.Symbol, symbols.NoSymbolID)
	be.Equal(t, cd.Candidates, []symbols.SymbolID{libA.Functions[0].Symbol, libB.Functions[0].Symbol})
	qd, _ := qualified.Ident()
	be.Equal(t, qd.Symbol, libA.Mappings[0].Symbol)
	be.True(t, st.Symbol(qd.Symbol).Flags&symbols.SymbolFlagImported != 0)
}

func TestTypesAndGenerics(t *testing.T) {
	b := ast.NewBuilder(1)
	box := b.Struct("Box", b.MemberDecl("v", b.Named("T")))
	box.Generics = []*ast.GenericParam{b.Generic("T")}
	fn := b.Fn(ast.VariantFunction, "id", []*ast.Param{b.Param("x", b.Named("T"), ast.Private)},
		[]*ast.Output{b.Out(b.Named("T"), ast.Private)}, b.Block(b.Return(b.Ident("x"))))
	fn.Generics = []*ast.GenericParam{b.Generic("T")}
	notAType := b.Named("id")
	missing := b.Named("Nope")
	user := b.Fn(ast.VariantFunction, "g", []*ast.Param{
		b.Param("p", notAType, ast.Private),
		b.Param("q", missing, ast.Private),
		b.Param("r", b.Named("Box", ast.TArg(u32(b))), ast.Private),
	}, nil, b.Block())
	prog := b.Program("demo.aleo")
	prog.Structs = []*ast.StructDecl{box}
	prog.Functions = []*ast.FuncDecl{fn, user}

	st := run(t, prog)
	be.Equal(t, codes(st), []diag.Code{diag.ResNotAType, diag.ResUnresolvedType})
	be.Equal(t, box.Members[0].Type.Symbol, box.Generics[0].Symbol)
	be.True(t, fn.Generics[0].Symbol != box.Generics[0].Symbol)
	be.True(t, st.Symbol(box.Symbol).Flags&symbols.SymbolFlagGeneric != 0)
}

func TestDuplicateProgram(t *testing.T) {
	b := ast.NewBuilder(1)
	lib := b.Program("lib.aleo")
	again := b.Program("lib.aleo")
	prog := b.Program("main.aleo", "lib.aleo")
	st := run(t, prog, lib, again)
	be.Equal(t, codes(st), []diag.Code{diag.ResDuplicateProgram})
}
