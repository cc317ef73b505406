package analyze

import (
	"veil/internal/ast"
	"veil/internal/compiler"
	"veil/internal/diag"
	"veil/internal/symbols"
	"veil/internal/types"
)

// checkEffects enforces where public state may be touched: mapping
// operations and block.height belong to async functions, async functions
// are scheduled by async transitions only (once each), and async code
// never calls back into transitions.
func checkEffects(st *compiler.State, fn *ast.FuncDecl) {
	var firstAsync *ast.Expr
	ast.WalkBlockExprs(fn.Body, func(e *ast.Expr) bool {
		switch d := e.Data.(type) {
		case ast.MappingOpData:
			if fn.Variant != ast.VariantAsync {
				name, _ := d.Mapping.Ident()
				st.Error(diag.StaEffectOutsideAsync, e.Meta, "mapping '%s' can only be accessed in an async function", name.Name).Emit()
			}
		case ast.ContextData:
			if d.Kind == ast.ContextHeight && fn.Variant != ast.VariantAsync {
				st.Error(diag.StaEffectOutsideAsync, e.Meta, "block.height can only be read in an async function").Emit()
			}
		case ast.CallData:
			callee := st.Func(d.Symbol)
			if callee == nil {
				return true
			}
			switch {
			case callee.Variant == ast.VariantAsync:
				if fn.Variant != ast.VariantAsyncTransition {
					st.Error(diag.StaAsyncCallContext, e.Meta, "async function '%s' can only be called from an async transition", callee.Name).Emit()
					break
				}
				if firstAsync != nil {
					st.Error(diag.StaMultipleAsyncCalls, e.Meta, "'%s' already calls an async function", fn.Name).
						WithNote(firstAsync.ReportSpan(), "first async call here").
						Emit()
					break
				}
				firstAsync = e
			case callee.Variant.IsTransition() && fn.Variant == ast.VariantAsync:
				st.Error(diag.StaAsyncCallsTransition, e.Meta, "async function '%s' cannot call transition '%s'", fn.Name, st.QualifiedName(d.Symbol)).Emit()
			}
		}
		return true
	})

	switch fn.Variant {
	case ast.VariantAsyncTransition:
		if firstAsync == nil && !callsImportedAsync(st, fn) {
			st.Error(diag.StaMissingAsyncCall, fn.Meta, "async transition '%s' never calls an async function", fn.Name).Emit()
		}
	case ast.VariantAsync:
		checkAwaited(st, fn)
	}
}

// callsImportedAsync reports calls to async transitions of other programs;
// their Futures also satisfy an async transition.
func callsImportedAsync(st *compiler.State, fn *ast.FuncDecl) bool {
	found := false
	ast.WalkBlockExprs(fn.Body, func(e *ast.Expr) bool {
		d, ok := e.Data.(ast.CallData)
		if !ok {
			return !found
		}
		if sym := st.Symbol(d.Symbol); sym != nil && sym.Flags&symbols.SymbolFlagImported != 0 {
			if callee := st.Func(d.Symbol); callee != nil && callee.Variant == ast.VariantAsyncTransition {
				found = true
			}
		}
		return !found
	})
	return found
}

// checkAwaited warns about Future parameters that are never awaited.
func checkAwaited(st *compiler.State, fn *ast.FuncDecl) {
	awaited := make(map[symbols.SymbolID]bool)
	ast.WalkBlockExprs(fn.Body, func(e *ast.Expr) bool {
		if d, ok := e.Data.(ast.AwaitData); ok {
			if id, ok := d.Future.Ident(); ok {
				awaited[id.Symbol] = true
			}
		}
		return true
	})
	for _, p := range fn.Params {
		t := st.BindingType(p.Symbol)
		if t == types.NoTypeID || st.Types.Kind(t) != types.KindFuture || awaited[p.Symbol] {
			continue
		}
		st.Warning(diag.StaFutureNotAwaited, p.Meta, "Future parameter '%s' is never awaited", p.Name).Emit()
	}
}
