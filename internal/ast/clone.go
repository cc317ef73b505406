package ast

import (
	"slices"

	"veil/internal/source"
	"veil/internal/symbols"
	"veil/internal/types"
)

// Cloner deep-copies subtrees. Every copied node gets a fresh identity and
// an origin pointing at its source node. Hooks let rewrites substitute
// expressions, rename symbols and remap types on the way.
type Cloner struct {
	// Note is appended to every origin ("in iteration i = 2").
	Note string
	// OriginSpan, when valid, is the origin span of nodes that had none.
	OriginSpan source.Span
	// Subst may return a replacement for an expression; the replacement is
	// used as is.
	Subst func(old *Expr) *Expr
	// FreshBinding allocates a new symbol for a binding declared inside the
	// copy. The returned symbol replaces all later references to the old one.
	FreshBinding func(old *Binding, scope symbols.ScopeID) symbols.SymbolID
	// FreshScope allocates the scope of a copied block under parent.
	FreshScope func(old *Block, parent symbols.ScopeID) symbols.ScopeID
	// MapType rewrites expression and annotation types.
	MapType func(types.TypeID) types.TypeID

	renamed map[symbols.SymbolID]symbols.SymbolID
	scopes  []symbols.ScopeID
}

// Renamed exposes the symbol renames performed so far.
func (c *Cloner) Renamed() map[symbols.SymbolID]symbols.SymbolID {
	return c.renamed
}

// WithScope sets the scope copied top-level blocks are nested under.
func (c *Cloner) WithScope(parent symbols.ScopeID) *Cloner {
	c.scopes = append(c.scopes[:0], parent)
	return c
}

func (c *Cloner) meta(old Meta) Meta {
	span := old.Span
	if c.OriginSpan.Valid() {
		span = c.OriginSpan
	}
	return Meta{ID: IDs.Next(), Span: old.Span, Origin: old.Tag(span, c.Note)}
}

func (c *Cloner) sym(id symbols.SymbolID) symbols.SymbolID {
	if n, ok := c.renamed[id]; ok {
		return n
	}
	return id
}

func (c *Cloner) typ(id types.TypeID) types.TypeID {
	if c.MapType == nil || id == types.NoTypeID {
		return id
	}
	return c.MapType(id)
}

func (c *Cloner) scope() symbols.ScopeID {
	if len(c.scopes) == 0 {
		return symbols.NoScopeID
	}
	return c.scopes[len(c.scopes)-1]
}

// Block copies b and everything below it.
func (c *Cloner) Block(b *Block) *Block {
	if b == nil {
		return nil
	}
	out := &Block{Meta: c.meta(b.Meta), Scope: b.Scope}
	if c.FreshScope != nil {
		out.Scope = c.FreshScope(b, c.scope())
	}
	c.scopes = append(c.scopes, out.Scope)
	out.Stmts = make([]*Stmt, 0, len(b.Stmts))
	for _, s := range b.Stmts {
		out.Stmts = append(out.Stmts, c.Stmt(s))
	}
	c.scopes = c.scopes[:len(c.scopes)-1]
	return out
}

func (c *Cloner) binding(b *Binding) *Binding {
	if b == nil {
		return nil
	}
	out := &Binding{Meta: c.meta(b.Meta), Name: b.Name, Symbol: b.Symbol}
	if c.FreshBinding != nil && b.Symbol.IsValid() {
		out.Symbol = c.FreshBinding(b, c.scope())
		if c.renamed == nil {
			c.renamed = make(map[symbols.SymbolID]symbols.SymbolID)
		}
		c.renamed[b.Symbol] = out.Symbol
	}
	return out
}

// Stmt copies s.
func (c *Cloner) Stmt(s *Stmt) *Stmt {
	if s == nil {
		return nil
	}
	out := &Stmt{Meta: c.meta(s.Meta), Kind: s.Kind}
	switch d := s.Data.(type) {
	case LetData:
		// the value is evaluated before the names exist
		value := c.Expr(d.Value)
		bs := make([]*Binding, len(d.Bindings))
		for i, b := range d.Bindings {
			bs[i] = c.binding(b)
		}
		out.Data = LetData{Bindings: bs, Type: c.TypeExpr(d.Type), Value: value}
	case ConstData:
		value := c.Expr(d.Value)
		out.Data = ConstData{Binding: c.binding(d.Binding), Type: c.TypeExpr(d.Type), Value: value}
	case AssignData:
		out.Data = AssignData{Target: c.Expr(d.Target), Op: d.Op, Value: c.Expr(d.Value)}
	case ExprStmtData:
		out.Data = ExprStmtData{Value: c.Expr(d.Value), Guard: c.Expr(d.Guard)}
	case ReturnData:
		out.Data = ReturnData{Value: c.Expr(d.Value)}
	case IfData:
		out.Data = IfData{Cond: c.Expr(d.Cond), Then: c.Block(d.Then), Else: c.Block(d.Else)}
	case ForData:
		start, end := c.Expr(d.Start), c.Expr(d.End)
		v := c.binding(d.Var)
		out.Data = ForData{Var: v, VarType: c.TypeExpr(d.VarType), Start: start, End: end, Inclusive: d.Inclusive, Body: c.Block(d.Body)}
	case BlockStmtData:
		out.Data = BlockStmtData{Block: c.Block(d.Block)}
	case AssertData:
		out.Data = AssertData{Kind: d.Kind, Left: c.Expr(d.Left), Right: c.Expr(d.Right)}
	default:
		out.Data = s.Data
	}
	return out
}

func (c *Cloner) exprs(in []*Expr) []*Expr {
	if in == nil {
		return nil
	}
	out := make([]*Expr, len(in))
	for i, e := range in {
		out[i] = c.Expr(e)
	}
	return out
}

func (c *Cloner) generics(in []GenericArg) []GenericArg {
	if in == nil {
		return nil
	}
	out := make([]GenericArg, len(in))
	for i, g := range in {
		out[i] = GenericArg{Type: c.TypeExpr(g.Type), Value: c.Expr(g.Value)}
	}
	return out
}

// Expr copies e.
func (c *Cloner) Expr(e *Expr) *Expr {
	if e == nil {
		return nil
	}
	if c.Subst != nil {
		if repl := c.Subst(e); repl != nil {
			return repl
		}
	}
	out := &Expr{Meta: c.meta(e.Meta), Kind: e.Kind, Type: c.typ(e.Type)}
	switch d := e.Data.(type) {
	case LiteralData, ContextData:
		out.Data = d
	case IdentData:
		d.Symbol = c.sym(d.Symbol)
		out.Data = d
	case UnaryData:
		out.Data = UnaryData{Op: d.Op, Operand: c.Expr(d.Operand)}
	case BinaryData:
		out.Data = BinaryData{Op: d.Op, Left: c.Expr(d.Left), Right: c.Expr(d.Right)}
	case TernaryData:
		out.Data = TernaryData{Cond: c.Expr(d.Cond), Then: c.Expr(d.Then), Else: c.Expr(d.Else)}
	case SelectData:
		out.Data = SelectData{Cond: c.Expr(d.Cond), Then: c.Expr(d.Then), Else: c.Expr(d.Else)}
	case CallData:
		targs := slices.Clone(d.TypeArgs)
		for i := range targs {
			targs[i] = c.typ(targs[i])
		}
		out.Data = CallData{
			Callee:     d.Callee,
			Program:    d.Program,
			Generics:   c.generics(d.Generics),
			Args:       c.exprs(d.Args),
			Symbol:     d.Symbol,
			Candidates: slices.Clone(d.Candidates),
			TypeArgs:   targs,
		}
	case CastData:
		out.Data = CastData{Value: c.Expr(d.Value), Target: c.TypeExpr(d.Target)}
	case StructLitData:
		fields := make([]*FieldInit, len(d.Fields))
		for i, f := range d.Fields {
			fields[i] = &FieldInit{Meta: c.meta(f.Meta), Name: f.Name, Value: c.Expr(f.Value)}
		}
		out.Data = StructLitData{Name: d.Name, Program: d.Program, Generics: c.generics(d.Generics), Fields: fields, Symbol: d.Symbol}
	case MemberData:
		out.Data = MemberData{Target: c.Expr(d.Target), Name: d.Name}
	case TupleLitData:
		out.Data = TupleLitData{Elems: c.exprs(d.Elems)}
	case TupleAccessData:
		out.Data = TupleAccessData{Target: c.Expr(d.Target), Index: d.Index}
	case ArrayLitData:
		out.Data = ArrayLitData{Elems: c.exprs(d.Elems)}
	case IndexData:
		out.Data = IndexData{Target: c.Expr(d.Target), Index: c.Expr(d.Index)}
	case MappingOpData:
		out.Data = MappingOpData{Op: d.Op, Mapping: c.Expr(d.Mapping), Args: c.exprs(d.Args)}
	case AwaitData:
		out.Data = AwaitData{Future: c.Expr(d.Future)}
	default:
		out.Data = e.Data
	}
	return out
}

// TypeExpr copies t.
func (c *Cloner) TypeExpr(t *TypeExpr) *TypeExpr {
	if t == nil {
		return nil
	}
	out := &TypeExpr{
		Meta:     c.meta(t.Meta),
		Kind:     t.Kind,
		Prim:     t.Prim,
		Name:     t.Name,
		Program:  t.Program,
		Args:     c.generics(t.Args),
		Elem:     c.TypeExpr(t.Elem),
		Len:      c.Expr(t.Len),
		Symbol:   t.Symbol,
		Resolved: c.typ(t.Resolved),
	}
	if t.Elems != nil {
		out.Elems = make([]*TypeExpr, len(t.Elems))
		for i, el := range t.Elems {
			out.Elems[i] = c.TypeExpr(el)
		}
	}
	return out
}

// Func copies a function declaration without its generic parameter list.
// Params keep their symbols unless FreshBinding renames them. The copy
// lives in the scope given to WithScope, or the original's scope.
func (c *Cloner) Func(f *FuncDecl) *FuncDecl {
	out := &FuncDecl{
		Meta:    c.meta(f.Meta),
		Name:    f.Name,
		Variant: f.Variant,
		Symbol:  f.Symbol,
	}
	if len(c.scopes) == 0 {
		c.scopes = append(c.scopes, f.Scope)
	}
	out.Scope = c.scope()
	for _, p := range f.Params {
		np := &Param{Meta: c.meta(p.Meta), Name: p.Name, Type: c.TypeExpr(p.Type), Visibility: p.Visibility, Symbol: p.Symbol}
		if c.FreshBinding != nil && p.Symbol.IsValid() {
			b := c.binding(&Binding{Meta: p.Meta, Name: p.Name, Symbol: p.Symbol})
			np.Symbol = b.Symbol
		}
		out.Params = append(out.Params, np)
	}
	for _, o := range f.Outputs {
		out.Outputs = append(out.Outputs, &Output{Meta: c.meta(o.Meta), Type: c.TypeExpr(o.Type), Visibility: o.Visibility})
	}
	out.Body = c.Block(f.Body)
	return out
}
