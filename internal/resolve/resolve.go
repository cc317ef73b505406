// Package resolve builds the symbol table: a shallow pass declares every
// top-level name of every program, then a deep pass walks the main
// program's declarations and binds each reference to its symbol.
package resolve

import (
	"context"

	"veil/internal/ast"
	"veil/internal/compiler"
	"veil/internal/diag"
	"veil/internal/symbols"
	"veil/internal/trace"
)

// Pass is the symbol table builder.
type Pass struct{}

func (Pass) Name() string { return "resolve" }

func (Pass) Run(ctx context.Context, st *compiler.State) error {
	var progs []*ast.Program
	for _, prog := range st.Programs() {
		if declareProgram(st, prog) {
			progs = append(progs, prog)
		}
	}
	for _, prog := range progs {
		checkImports(st, prog)
	}
	for _, prog := range progs {
		if err := ctx.Err(); err != nil {
			return err
		}
		trace.Point(ctx, trace.ScopeFunction, "resolve", prog.Name)
		w := newWalker(st, prog)
		w.program()
	}
	return nil
}

// declareProgram opens the program scope and declares its top-level
// names. A program seen twice is reported and skipped.
func declareProgram(st *compiler.State, prog *ast.Program) bool {
	scope, fresh := st.Symbols.AddProgram(prog.Name, prog.Imports, uint64(prog.ID), prog.Span)
	if !fresh {
		st.Error(diag.ResDuplicateProgram, prog.Meta, "program '%s' is loaded twice", prog.Name).Emit()
		return false
	}
	prog.Scope = scope
	var flags symbols.SymbolFlags
	if !st.IsMain(prog.Name) {
		flags |= symbols.SymbolFlagImported
	}
	r := symbols.NewResolver(st.Symbols, scope, st.Reporter())
	for _, s := range prog.Structs {
		kind := symbols.SymbolStruct
		if s.IsRecord {
			kind = symbols.SymbolRecord
		}
		f := flags
		if len(s.Generics) > 0 {
			f |= symbols.SymbolFlagGeneric
		}
		if id, ok := r.Declare(s.Name, s.Span, kind, f, uint64(s.ID)); ok {
			s.Symbol = id
			st.DeclareStruct(id, s)
		}
	}
	for _, m := range prog.Mappings {
		if id, ok := r.Declare(m.Name, m.Span, symbols.SymbolMapping, flags, uint64(m.ID)); ok {
			m.Symbol = id
			st.DeclareMapping(id, m)
		}
	}
	for _, c := range prog.Consts {
		if id, ok := r.Declare(c.Name, c.Span, symbols.SymbolConst, flags, uint64(c.ID)); ok {
			c.Symbol = id
			st.DeclareConst(id, c)
		}
	}
	for _, fn := range prog.Functions {
		f := flags
		if fn.IsGeneric() {
			f |= symbols.SymbolFlagGeneric
		}
		if id, ok := r.Declare(fn.Name, fn.Span, symbols.SymbolFunction, f, uint64(fn.ID)); ok {
			fn.Symbol = id
			st.DeclareFunc(id, fn)
		}
	}
	return true
}

func checkImports(st *compiler.State, prog *ast.Program) {
	for _, imp := range prog.Imports {
		if _, ok := st.Symbols.Program(imp); !ok {
			st.Error(diag.ResUnknownProgram, prog.Meta, "program '%s' imports unknown program '%s'", prog.Name, imp).Emit()
		}
	}
}
