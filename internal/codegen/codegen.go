// Package codegen lowers flat, monomorphic functions to instructions. Each
// computed value gets its own register; let and assignment only rebind a
// name to an operand.
package codegen

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"veil/internal/ast"
	"veil/internal/compiler"
	"veil/internal/instr"
	"veil/internal/trace"
	"veil/internal/types"
)

// Pass is the code generator. It stores the result in State.Output.
type Pass struct{}

func (Pass) Name() string { return "codegen" }

func (Pass) Run(ctx context.Context, st *compiler.State) error {
	prog, err := Generate(ctx, st)
	if err != nil {
		return err
	}
	st.Output = prog
	return nil
}

// Generate lowers the main program of st. Unsupported opcodes are
// reported as diagnostics; anything the earlier passes should have removed
// is an internal error.
func Generate(ctx context.Context, st *compiler.State) (*instr.Program, error) {
	g := &generator{
		st:        st,
		in:        st.Types,
		prog:      &instr.Program{Name: st.Program.Name, Imports: slices.Clone(st.Program.Imports)},
		instances: make(map[types.TypeID]string),
		reported:  make(map[string]bool),
	}
	for _, m := range st.Program.Mappings {
		g.prog.Mappings = append(g.prog.Mappings, instr.Mapping{
			Name:  m.Name,
			Key:   g.typeName(m.Key.Resolved),
			Value: g.typeName(m.Value.Resolved),
		})
	}
	for _, fn := range st.Program.Functions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if fn.Body == nil || fn.IsGeneric() {
			continue
		}
		_, span := trace.Begin(ctx, trace.ScopeFunction, "codegen")
		out, err := g.function(fn)
		if err != nil {
			span.With("function", fn.Name).End(err.Error())
			return nil, err
		}
		span.With("function", fn.Name).With("instructions", strconv.Itoa(len(out.Body))).End("")
		g.prog.Functions = append(g.prog.Functions, out)
	}
	g.structs()
	return g.prog, nil
}

type generator struct {
	st   *compiler.State
	in   *types.Interner
	prog *instr.Program

	// instances holds the generic struct instances referenced so far.
	instances map[types.TypeID]string
	reported  map[string]bool
}

// structs lists the declared structs of the program followed by the
// generic instances the functions use, sorted by name.
func (g *generator) structs() {
	for _, d := range g.st.Program.Structs {
		if len(d.Generics) > 0 {
			continue
		}
		g.prog.Structs = append(g.prog.Structs, g.structDef(d.Name, d.IsRecord, d.TypeID, d.Members))
	}
	// members of an instance may reference further instances
	done := make(map[types.TypeID]bool)
	for {
		var pending []types.TypeID
		for t := range g.instances {
			if !done[t] {
				pending = append(pending, t)
			}
		}
		if len(pending) == 0 {
			break
		}
		slices.SortFunc(pending, func(a, b types.TypeID) int { return strings.Compare(g.instances[a], g.instances[b]) })
		for _, t := range pending {
			done[t] = true
			info, _ := g.in.StructInfo(t)
			var members []*ast.Member
			if decl := g.st.Struct(info.Symbol); decl != nil {
				members = decl.Members
			}
			g.prog.Structs = append(g.prog.Structs, g.structDef(g.instances[t], info.IsRecord, t, members))
		}
	}
}

func (g *generator) structDef(name string, record bool, t types.TypeID, decl []*ast.Member) instr.Struct {
	s := instr.Struct{Name: name, IsRecord: record}
	for i, f := range g.in.StructFields(t) {
		m := instr.Member{Name: f.Name, Type: g.typeName(f.Type)}
		if record {
			m.Visibility = ast.Private.String()
			if i < len(decl) {
				m.Visibility = decl[i].Visibility.String()
			}
		}
		s.Members = append(s.Members, m)
	}
	return s
}

// typeName renders t the way instructions spell types.
func (g *generator) typeName(t types.TypeID) string {
	tt, ok := g.in.Lookup(t)
	if !ok {
		return "?"
	}
	switch tt.Kind {
	case types.KindArray:
		return fmt.Sprintf("[%s; %du32]", g.typeName(tt.Elem), tt.Count)
	case types.KindFuture:
		return "future"
	case types.KindStruct:
		info, _ := g.in.StructInfo(t)
		name := types.Label(g.in, t)
		if info.Template != types.NoTypeID && info.Program == g.st.Program.Name {
			g.instances[t] = name
		}
		if info.Program != "" && info.Program != g.st.Program.Name {
			name = info.Program + "/" + name
		}
		if info.IsRecord {
			name += ".record"
		}
		return name
	}
	return types.Label(g.in, t)
}

// visibility is the port suffix of a value of type t; records and
// futures carry none.
func (g *generator) visibility(t types.TypeID, v ast.Visibility) string {
	switch g.in.Kind(t) {
	case types.KindFuture:
		return ""
	case types.KindStruct:
		if info, _ := g.in.StructInfo(t); info.IsRecord {
			return ""
		}
	}
	return v.String()
}

// label is the program-qualified name of a function.
func (g *generator) label(program, name string) string {
	if program == "" {
		program = g.st.Program.Name
	}
	return program + "/" + name
}
