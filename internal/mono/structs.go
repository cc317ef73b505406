package mono

import (
	"slices"
	"strings"

	"veil/internal/ast"
	"veil/internal/compiler"
	"veil/internal/diag"
	"veil/internal/source"
	"veil/internal/types"
)

// structChecker makes sure every struct type in use has a finite layout.
// Non-generic structs are checked by the type checker; instances of
// generic structs only become concrete here.
type structChecker struct {
	st       *compiler.State
	in       *types.Interner
	maxDepth int
	done     map[types.TypeID]bool
	bad      map[types.TypeID]bool
}

func newStructChecker(st *compiler.State) *structChecker {
	return &structChecker{
		st:       st,
		in:       st.Types,
		maxDepth: st.Config.Limits.MaxDepth,
		done:     make(map[types.TypeID]bool),
		bad:      make(map[types.TypeID]bool),
	}
}

// use checks t, which appears at node at.
func (c *structChecker) use(t types.TypeID, at ast.Meta) {
	c.walk(t, at, nil)
}

func (c *structChecker) walk(t types.TypeID, at ast.Meta, stack []types.TypeID) bool {
	if c.done[t] {
		return true
	}
	if c.bad[t] {
		return false
	}
	tt, ok := c.in.Lookup(t)
	if !ok {
		return true
	}
	switch tt.Kind {
	case types.KindArray:
		return c.walk(tt.Elem, at, stack)
	case types.KindTuple:
		elems, _ := c.in.TupleElems(t)
		for _, el := range elems {
			if !c.walk(el, at, stack) {
				return false
			}
		}
		return true
	case types.KindStruct:
	default:
		return true
	}

	info, _ := c.in.StructInfo(t)
	if info.Template == types.NoTypeID && len(info.Params) > 0 {
		// a template; the invariant check reports it if it leaks
		return true
	}
	if i := slices.Index(stack, t); i >= 0 {
		c.cycle(slices.Concat(stack[i:], []types.TypeID{t}), at)
		return false
	}
	if c.maxDepth > 0 && len(stack) >= c.maxDepth {
		root := stack[0]
		c.bad[root] = true
		c.st.Error(diag.MonLimitExceeded, at, "instantiating '%s' nests generic structs deeper than the limit of %d", types.Label(c.in, root), c.maxDepth).
			WithNote(c.declSpan(t, at), "'"+types.Label(c.in, t)+"' is the last one instantiated").
			Emit()
		return false
	}
	stack = append(stack, t)
	for _, f := range c.in.StructFields(t) {
		if !c.walk(f.Type, at, stack) {
			return false
		}
	}
	c.done[t] = true
	return true
}

func (c *structChecker) cycle(chain []types.TypeID, at ast.Meta) {
	names := make([]string, len(chain))
	for i, t := range chain {
		names[i] = types.Label(c.in, t)
		c.bad[t] = true
	}
	c.st.Error(diag.MonCycle, at, "struct '%s' contains itself: %s", names[0], strings.Join(names, " -> ")).
		WithNote(c.declSpan(chain[0], at), "declared here").
		Emit()
}

func (c *structChecker) declSpan(t types.TypeID, at ast.Meta) source.Span {
	info, _ := c.in.StructInfo(t)
	if decl := c.st.Struct(info.Symbol); decl != nil {
		return decl.Span
	}
	return at.ReportSpan()
}
