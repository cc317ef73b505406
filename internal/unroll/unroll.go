// Package unroll replaces every bounded loop with one copy of its body per
// iteration. Loops are expanded outermost first, so inner bounds may use
// the variables of enclosing loops.
package unroll

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"

	"veil/internal/analyze"
	"veil/internal/ast"
	"veil/internal/compiler"
	"veil/internal/consteval"
	"veil/internal/diag"
	"veil/internal/symbols"
	"veil/internal/trace"
)

// Pass is the loop unroller. In generic functions, loops whose bounds read
// a const parameter stay in place; the monomorphizer unrolls them in each
// instance once the arguments are known. Every unrolled function is folded
// again so that the substituted loop variables collapse.
type Pass struct{}

func (Pass) Name() string { return "unroll" }

func (Pass) Run(ctx context.Context, st *compiler.State) error {
	for _, fn := range st.Program.Functions {
		if err := ctx.Err(); err != nil {
			return err
		}
		if fn.Body == nil {
			continue
		}
		_, span := trace.Begin(ctx, trace.ScopeFunction, "unroll")
		n := Func(st, fn)
		if n > 0 {
			analyze.FoldFunc(st, fn)
		}
		span.With("function", fn.Name).With("statements", strconv.Itoa(n)).End("")
	}
	return nil
}

// Func unrolls every loop of fn in place and returns the number of
// statements the copies added. It reports UNR4001 and UNR4002 itself.
func Func(st *compiler.State, fn *ast.FuncDecl) int {
	u := &unroller{st: st, fn: fn, ev: st.Evaluator(), limit: st.Config.Limits.MaxUnrolled}
	if fn.IsGeneric() {
		u.deps = newParamDeps(st)
	}
	u.block(fn.Body)
	return u.added
}

type unroller struct {
	st      *compiler.State
	fn      *ast.FuncDecl
	ev      *consteval.Evaluator
	deps    *paramDeps // nil outside generic functions
	limit   int
	added   int
	aborted bool
}

func (u *unroller) block(b *ast.Block) {
	if b == nil {
		return
	}
	out := make([]*ast.Stmt, 0, len(b.Stmts))
	for _, s := range b.Stmts {
		switch d := s.Data.(type) {
		case ast.ForData:
			if copies, ok := u.loop(s, d, b.Scope); ok {
				out = append(out, copies...)
				continue
			}
		case ast.ConstData:
			u.deps.note(s)
			u.bindConst(d)
		case ast.IfData:
			u.block(d.Then)
			u.block(d.Else)
		case ast.BlockStmtData:
			u.block(d.Block)
		}
		out = append(out, s)
	}
	b.Stmts = out
}

// bindConst records block constants that became constant through
// substitution, so that later bounds can use them.
func (u *unroller) bindConst(d ast.ConstData) {
	if d.Binding == nil || !d.Binding.Symbol.IsValid() {
		return
	}
	if _, ok := u.st.Const(d.Binding.Symbol); ok {
		return
	}
	if v, err := u.ev.Eval(d.Value); err == nil {
		u.st.SetConst(d.Binding.Symbol, v)
	}
}

// loop expands one loop. ok is false when the loop stays in place because
// a diagnostic was reported.
func (u *unroller) loop(s *ast.Stmt, d ast.ForData, scope symbols.ScopeID) ([]*ast.Stmt, bool) {
	if u.aborted || u.deps.bounds(d) {
		return nil, false
	}
	lo, okLo := u.bound(d.Start)
	hi, okHi := u.bound(d.End)
	if !okLo || !okHi {
		return nil, false
	}
	if d.Inclusive {
		hi = new(big.Int).Add(hi, big.NewInt(1))
	}
	n := new(big.Int).Sub(hi, lo)
	if n.Sign() <= 0 {
		return []*ast.Stmt{}, true
	}

	size := countStmts(d.Body)
	total := new(big.Int).Mul(n, big.NewInt(int64(size)))
	total.Add(total, big.NewInt(int64(u.added)))
	if u.limit > 0 && total.Cmp(big.NewInt(int64(u.limit))) > 0 {
		u.st.Error(diag.UnrLimitExceeded, s.Meta, "unrolling '%s' needs %s statements, more than the limit of %d", u.fn.Name, total, u.limit).
			WithNote(s.ReportSpan(), fmt.Sprintf("this loop runs %s times", n)).
			Emit()
		u.aborted = true
		return nil, false
	}

	varType := u.st.BindingType(d.Var.Symbol)
	kind := u.st.Types.Kind(varType)
	var copies []*ast.Stmt
	for i := new(big.Int).Set(lo); i.Cmp(hi) < 0; i.Add(i, big.NewInt(1)) {
		value := consteval.IntValue(kind, varType, new(big.Int).Set(i))
		copies = append(copies, u.iteration(s, d, scope, value))
		u.added += size
	}
	// copies may hold inner loops whose bounds are now constant
	for _, c := range copies {
		u.block(c.Data.(ast.BlockStmtData).Block)
	}
	return copies, true
}

// iteration clones the loop body for one value of the loop variable.
func (u *unroller) iteration(s *ast.Stmt, d ast.ForData, scope symbols.ScopeID, value consteval.Value) *ast.Stmt {
	note := fmt.Sprintf("in iteration %s = %s", d.Var.Name, value)
	loopSpan := s.ReportSpan()
	c := &ast.Cloner{
		Note:       note,
		OriginSpan: loopSpan,
		Subst: func(old *ast.Expr) *ast.Expr {
			id, ok := old.Ident()
			if !ok || id.Symbol != d.Var.Symbol {
				return nil
			}
			meta := ast.Meta{ID: ast.IDs.Next(), Span: old.Span, Origin: old.Tag(loopSpan, note)}
			lit := value.Expr(u.st.Types, meta)
			lit.Type = old.Type
			return lit
		},
		FreshScope: u.st.BlockScope,
		FreshBinding: func(old *ast.Binding, scope symbols.ScopeID) symbols.SymbolID {
			return u.st.CopySymbol(old.Symbol, scope, "")
		},
	}
	body := c.WithScope(scope).Block(d.Body)
	// consts of the copy keep the value of the original when it had one
	for oldSym, newSym := range c.Renamed() {
		if v, ok := u.st.Const(oldSym); ok {
			u.st.SetConst(newSym, v)
		}
	}
	meta := ast.Meta{ID: ast.IDs.Next(), Span: s.Span, Origin: s.Tag(loopSpan, note)}
	return &ast.Stmt{Meta: meta, Kind: ast.StmtBlock, Data: ast.BlockStmtData{Block: body}}
}

// bound evaluates a loop bound and reports UNR4001 when it is not constant.
func (u *unroller) bound(e *ast.Expr) (*big.Int, bool) {
	v, err := u.ev.Eval(e)
	if err == nil && v.Int != nil {
		return v.Int, true
	}
	var cerr *consteval.Error
	if errors.As(err, &cerr) && cerr.Kind != consteval.NotConstant {
		u.st.Error(diag.UnrNonConstantBound, e.Meta, "loop bound '%s' cannot be evaluated: %s", ast.ExprString(e), cerr.Msg).Emit()
		return nil, false
	}
	u.st.Error(diag.UnrNonConstantBound, e.Meta, "loop bound '%s' is not a compile-time constant", ast.ExprString(e)).
		WithNote(e.ReportSpan(), "loops are unrolled, so their bounds must be known when compiling").
		Emit()
	return nil, false
}

func countStmts(b *ast.Block) int {
	n := 0
	ast.WalkStmts(b, func(*ast.Stmt) bool {
		n++
		return true
	})
	return n
}
