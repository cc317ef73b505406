package testkit_test

import (
	"context"
	"testing"

	"github.com/nalgeon/be"

	"veil/internal/ast"
	"veil/internal/compiler"
	"veil/internal/config"
	"veil/internal/diag"
	"veil/internal/driver"
	"veil/internal/instr"
	"veil/internal/testkit"
)

func TestFixturesCompileAsExpected(t *testing.T) {
	for _, fx := range testkit.Fixtures() {
		t.Run(fx.Name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Build.Verify = true
			res, err := driver.Run(context.Background(), driver.Request{Program: fx.Build(), Config: cfg})
			be.Err(t, err, nil)
			be.Equal(t, res.HaltedAt, fx.HaltedAt)

			var got []diag.Code
			for _, d := range res.Diagnostics {
				got = append(got, d.Code)
			}
			be.Equal(t, got, fx.Codes)
			if fx.HaltedAt == "" {
				be.Err(t, instr.Validate(res.Program), nil)
			}
		})
	}
}

func TestFixturesKeepSpanInvariants(t *testing.T) {
	for _, fx := range testkit.Fixtures() {
		if fx.HaltedAt != "" {
			continue
		}
		t.Run(fx.Name, func(t *testing.T) {
			prog := fx.Build()
			be.Err(t, testkit.CheckSpanInvariants(prog), nil)

			st := compiler.New(prog, nil, config.Default())
			for _, p := range driver.Passes() {
				be.Err(t, p.Run(context.Background(), st), nil)
				be.Equal(t, st.Diags.HasErrors(), false)
				be.Err(t, testkit.CheckSpanInvariants(st.Program), nil)
			}
		})
	}
}

func TestSharedNodeIsReported(t *testing.T) {
	b := ast.NewBuilder(1)
	x := b.Ident("a")
	main := b.Fn(ast.VariantTransition, "main",
		[]*ast.Param{b.Param("a", b.Prim("u32"), ast.Public)},
		[]*ast.Output{b.Out(b.Prim("u32"), ast.Public)},
		b.Block(b.Return(b.Bin(ast.OpAdd, x, x))))
	prog := b.Program("demo.aleo")
	prog.Functions = []*ast.FuncDecl{main}

	be.Err(t, testkit.CheckSpanInvariants(prog), "shared")
}

func TestNilProgram(t *testing.T) {
	be.Err(t, testkit.CheckSpanInvariants(nil), "nil program")
}
