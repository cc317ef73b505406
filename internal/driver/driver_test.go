package driver_test

import (
	"context"
	"errors"
	"testing"

	"github.com/nalgeon/be"

	"veil/internal/ast"
	"veil/internal/config"
	"veil/internal/diag"
	"veil/internal/driver"
	"veil/internal/instr"
	"veil/internal/testkit"
	"veil/internal/trace"
)

func codes(res *driver.Result) []diag.Code {
	var out []diag.Code
	for _, d := range res.Diagnostics {
		out = append(out, d.Code)
	}
	return out
}

// loopProgram sums a loop of three iterations through a generic helper.
func loopProgram() *ast.Program {
	b := ast.NewBuilder(1)
	identity := b.Fn(ast.VariantInline, "identity",
		[]*ast.Param{b.Param("x", b.Named("T"), ast.Private)},
		[]*ast.Output{b.Out(b.Named("T"), ast.Private)},
		b.Block(b.Return(b.Ident("x"))))
	identity.Generics = []*ast.GenericParam{b.Generic("T")}
	main := b.Fn(ast.VariantTransition, "main",
		[]*ast.Param{b.Param("a", b.Prim("u32"), ast.Public), b.Param("cond", b.Prim("bool"), ast.Private)},
		[]*ast.Output{b.Out(b.Prim("u32"), ast.Public)},
		b.Block(
			b.Let("sum", b.Prim("u32"), b.Lit("0u32")),
			b.For("i", b.Prim("u32"), b.Lit("0u32"), b.Lit("3u32"),
				b.Block(b.AssignOp("sum", ast.OpAdd, b.Call("identity", b.Ident("a"))))),
			b.If(b.Ident("cond"), b.Block(b.AssignOp("sum", ast.OpMul, b.Lit("2u32"))), nil),
			b.Return(b.Ident("sum")),
		))
	prog := b.Program("demo.aleo")
	prog.Functions = []*ast.FuncDecl{identity, main}
	return prog
}

func TestRunProducesProgram(t *testing.T) {
	cfg := config.Default()
	cfg.Build.Verify = true
	res, err := driver.Run(context.Background(), driver.Request{Program: loopProgram(), Config: cfg})
	be.Err(t, err, nil)
	be.Equal(t, res.HaltedAt, "")
	be.Equal(t, len(res.Diagnostics), 0)
	be.True(t, res.Program != nil)
	be.Err(t, instr.Validate(res.Program), nil)

	var names []string
	for _, fn := range res.Program.Functions {
		names = append(names, fn.Name)
	}
	be.Equal(t, names, []string{"identity[u32]", "main"})
	be.Equal(t, len(res.Timings.Phases), 7)
}

func TestDoubleRunIsByteIdentical(t *testing.T) {
	run := func() []byte {
		res, err := driver.Run(context.Background(), driver.Request{Program: loopProgram(), Config: config.Default()})
		be.Err(t, err, nil)
		data, err := instr.Marshal(res.Program)
		be.Err(t, err, nil)
		return data
	}
	be.Equal(t, run(), run())
}

func TestCallCycleHaltsBeforeUnroll(t *testing.T) {
	b := ast.NewBuilder(1)
	fa := b.Fn(ast.VariantInline, "a", nil, nil, b.Block(b.ExprStmt(b.Call("b"))))
	fb := b.Fn(ast.VariantInline, "b", nil, nil, b.Block(b.ExprStmt(b.Call("a"))))
	prog := b.Program("demo.aleo")
	prog.Functions = []*ast.FuncDecl{fa, fb}

	var events []driver.Event
	res, err := driver.Run(context.Background(), driver.Request{
		Program:  prog,
		Config:   config.Default(),
		Progress: driver.SinkFunc(func(e driver.Event) { events = append(events, e) }),
	})
	be.Err(t, err, nil)
	be.Equal(t, res.HaltedAt, "analyze")
	be.Equal(t, codes(res), []diag.Code{diag.StaCallCycle})
	be.True(t, res.Program == nil)

	_, ran := res.Timings.Phase("unroll")
	be.Equal(t, ran, false)
	last := events[len(events)-1]
	be.Equal(t, last.Pass, "codegen")
	be.Equal(t, last.Status, driver.StatusSkipped)
}

func TestVerifyKeepsUserErrors(t *testing.T) {
	cfg := config.Default()
	cfg.Build.Verify = true
	res, err := driver.Run(context.Background(), driver.Request{Program: testkit.DynamicBound(), Config: cfg})
	be.Err(t, err, nil)
	be.Equal(t, res.HaltedAt, "unroll")
	be.Equal(t, codes(res), []diag.Code{diag.UnrNonConstantBound})
	be.True(t, res.Program == nil)
}

func TestWarningsAsErrors(t *testing.T) {
	build := func() *ast.Program {
		b := ast.NewBuilder(1)
		identity := b.Fn(ast.VariantInline, "identity",
			[]*ast.Param{b.Param("x", b.Named("T"), ast.Private)},
			[]*ast.Output{b.Out(b.Named("T"), ast.Private)},
			b.Block(b.Return(b.Ident("x"))))
		identity.Generics = []*ast.GenericParam{b.Generic("T")}
		main := b.Fn(ast.VariantTransition, "main", nil, nil, b.Block())
		prog := b.Program("demo.aleo")
		prog.Functions = []*ast.FuncDecl{identity, main}
		return prog
	}

	res, err := driver.Run(context.Background(), driver.Request{Program: build(), Config: config.Default()})
	be.Err(t, err, nil)
	be.Equal(t, res.HaltedAt, "")
	be.Equal(t, codes(res), []diag.Code{diag.MonUnreachableInst})

	cfg := config.Default()
	cfg.Diagnostics.WarningsAsErrors = true
	res, err = driver.Run(context.Background(), driver.Request{Program: build(), Config: cfg})
	be.Err(t, err, nil)
	be.Equal(t, res.HaltedAt, "mono")
	be.Equal(t, res.Diagnostics[0].Severity, diag.SevError)
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := driver.Run(ctx, driver.Request{Program: loopProgram(), Config: config.Default()})
	be.True(t, errors.Is(err, context.Canceled))
}

func TestInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Profile.MaxIntWidth = 12
	res, err := driver.Run(context.Background(), driver.Request{Program: loopProgram(), Config: cfg})
	be.Err(t, err, nil)
	be.Equal(t, res.HaltedAt, "config")
	be.Equal(t, codes(res), []diag.Code{diag.PipInvalidConfig})
}

func TestStopAfterAndTracing(t *testing.T) {
	ring := trace.NewRing(64, trace.LevelPhase)
	res, err := driver.Run(context.Background(), driver.Request{
		Program:   loopProgram(),
		Config:    config.Default(),
		Tracer:    ring,
		StopAfter: "unroll",
		Timings:   true,
	})
	be.Err(t, err, nil)
	be.True(t, res.Program == nil)
	be.Equal(t, len(res.Timings.Phases), 4)
	be.Equal(t, codes(res), []diag.Code{diag.PipInfo})

	var passes []string
	for _, ev := range ring.Snapshot() {
		if ev.Kind == trace.KindEnd && ev.Scope == trace.ScopePass {
			passes = append(passes, ev.Name)
		}
	}
	be.Equal(t, passes, []string{"resolve", "typecheck", "analyze", "unroll"})
}
