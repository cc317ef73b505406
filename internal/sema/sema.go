// Package sema assigns a type to every expression of the main program and
// validates the typing rules of the target.
//
// Checking runs in two phases. Declarations (struct layouts, mapping and
// const types, function signatures) are registered sequentially, then
// function bodies are checked in parallel. Workers only write the nodes of
// their own function and a private binding map that is merged into the
// state at the end; the symbol table is read-only by then.
package sema

import (
	"context"

	"golang.org/x/sync/errgroup"

	"veil/internal/ast"
	"veil/internal/compiler"
	"veil/internal/diag"
	"veil/internal/symbols"
	"veil/internal/trace"
	"veil/internal/types"
)

// Pass is the type checker.
type Pass struct{}

func (Pass) Name() string { return "typecheck" }

func (Pass) Run(ctx context.Context, st *compiler.State) error {
	c := newChecker(st)
	c.declare(ctx)

	var bodies []*ast.FuncDecl
	for _, fn := range st.Program.Functions {
		if fn.Body != nil && fn.Symbol.IsValid() {
			bodies = append(bodies, fn)
		}
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(st.Config.Jobs(), len(bodies))))
	for _, fn := range bodies {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			trace.Point(gctx, trace.ScopeFunction, "typecheck", fn.Name)
			c.function(fn)
			return nil
		})
	}
	return g.Wait()
}

// signature is the resolved interface of a function.
type signature struct {
	fn       *ast.FuncDecl
	generics []types.TypeID
	params   []types.TypeID
	outputs  []types.TypeID
	result   types.TypeID // unit, the single output, or a tuple of outputs
}

func (s *signature) label(in *types.Interner) string {
	out := s.fn.Name + "("
	for i, p := range s.params {
		if i > 0 {
			out += ", "
		}
		out += types.Label(in, p)
	}
	return out + ")"
}

// checker holds what phase one computes. After declare returns, every
// field is read-only.
type checker struct {
	st *compiler.State
	in *types.Interner
	b  types.Builtins

	generics map[symbols.SymbolID]types.TypeID // generic parameter symbol -> its type
	sigs     map[symbols.SymbolID]*signature
}

func newChecker(st *compiler.State) *checker {
	return &checker{
		st:       st,
		in:       st.Types,
		b:        st.Types.Builtins(),
		generics: make(map[symbols.SymbolID]types.TypeID),
		sigs:     make(map[symbols.SymbolID]*signature),
	}
}

func (c *checker) errorf(code diag.Code, m ast.Meta, format string, args ...any) {
	c.st.Error(code, m, format, args...).Emit()
}

func (c *checker) label(t types.TypeID) string {
	return types.Label(c.in, t)
}

// fnChecker checks one function body.
type fnChecker struct {
	*checker
	fn     *ast.FuncDecl // nil for global const initializers
	sig    *signature
	locals map[symbols.SymbolID]types.TypeID
}

func (c *checker) newFnChecker(fn *ast.FuncDecl) *fnChecker {
	f := &fnChecker{checker: c, fn: fn, locals: make(map[symbols.SymbolID]types.TypeID)}
	if fn != nil {
		f.sig = c.sigs[fn.Symbol]
	}
	return f
}

func (f *fnChecker) bind(id symbols.SymbolID, t types.TypeID) {
	if id.IsValid() {
		f.locals[id] = t
	}
}

func (f *fnChecker) bindingType(id symbols.SymbolID) types.TypeID {
	if t, ok := f.locals[id]; ok {
		return t
	}
	return f.st.BindingType(id)
}

func (f *fnChecker) variant() ast.Variant {
	if f.fn == nil {
		return ast.VariantFunction
	}
	return f.fn.Variant
}

func (c *checker) function(fn *ast.FuncDecl) {
	f := c.newFnChecker(fn)
	if f.sig == nil {
		return
	}
	for i, p := range fn.Params {
		f.bind(p.Symbol, f.sig.params[i])
	}
	f.block(fn.Body)
	if len(fn.Outputs) > 0 && !returns(fn.Body) {
		c.errorf(diag.TypMissingReturn, fn.Meta, "function '%s' does not return a value on every path", fn.Name)
	}
	c.st.MergeBindings(f.locals)
}

// returns reports whether every path through b ends in a return.
func returns(b *ast.Block) bool {
	if b == nil {
		return false
	}
	for _, s := range b.Stmts {
		switch d := s.Data.(type) {
		case ast.ReturnData:
			return true
		case ast.IfData:
			if d.Else != nil && returns(d.Then) && returns(d.Else) {
				return true
			}
		case ast.BlockStmtData:
			if returns(d.Block) {
				return true
			}
		}
	}
	return false
}
