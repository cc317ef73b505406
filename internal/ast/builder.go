package ast

import (
	"strings"

	"veil/internal/source"
)

// Builder constructs trees with fresh identities and distinct, non-empty
// spans. Front ends and tests use it; spans advance on every node so that
// diagnostics sort in construction order.
type Builder struct {
	File source.FileID
	pos  uint32
}

func NewBuilder(file source.FileID) *Builder {
	return &Builder{File: file}
}

func (b *Builder) meta() Meta {
	sp := source.Span{File: b.File, Start: b.pos, End: b.pos + 1}
	b.pos += 2
	return NewMeta(sp)
}

func (b *Builder) expr(kind ExprKind, data ExprData) *Expr {
	return &Expr{Meta: b.meta(), Kind: kind, Data: data}
}

var literalSuffixes = []string{
	"u128", "u64", "u32", "u16", "u8",
	"i128", "i64", "i32", "i16", "i8",
	"field", "group", "scalar",
}

// Lit parses a literal in source form: 5u32, 7, true, 3field, aleo1...
func (b *Builder) Lit(text string) *Expr {
	switch {
	case text == "true" || text == "false":
		return b.expr(ExprLiteral, LiteralData{Kind: LitBool, Text: text})
	case strings.HasPrefix(text, "aleo1"):
		return b.expr(ExprLiteral, LiteralData{Kind: LitAddress, Text: text})
	}
	for _, suf := range literalSuffixes {
		if digits, ok := strings.CutSuffix(text, suf); ok && digits != "" {
			kind := LitInt
			switch suf {
			case "field":
				kind = LitField
			case "group":
				kind = LitGroup
			case "scalar":
				kind = LitScalar
			}
			return b.expr(ExprLiteral, LiteralData{Kind: kind, Text: digits, Suffix: suf})
		}
	}
	return b.expr(ExprLiteral, LiteralData{Kind: LitInt, Text: text})
}

func (b *Builder) Ident(name string) *Expr {
	return b.expr(ExprIdent, IdentData{Name: name})
}

// QIdent is a program-qualified reference, program/name.
func (b *Builder) QIdent(program, name string) *Expr {
	return b.expr(ExprIdent, IdentData{Name: name, Program: program})
}

func (b *Builder) Unary(op UnaryOp, x *Expr) *Expr {
	return b.expr(ExprUnary, UnaryData{Op: op, Operand: x})
}

func (b *Builder) Bin(op BinaryOp, l, r *Expr) *Expr {
	return b.expr(ExprBinary, BinaryData{Op: op, Left: l, Right: r})
}

func (b *Builder) Ternary(cond, then, els *Expr) *Expr {
	return b.expr(ExprTernary, TernaryData{Cond: cond, Then: then, Else: els})
}

func (b *Builder) Select(cond, then, els *Expr) *Expr {
	return b.expr(ExprSelect, SelectData{Cond: cond, Then: then, Else: els})
}

func (b *Builder) Call(name string, args ...*Expr) *Expr {
	return b.expr(ExprCall, CallData{Callee: name, Args: args})
}

// CallG calls a generic function with explicit arguments, f::[T, N](args).
func (b *Builder) CallG(name string, generics []GenericArg, args ...*Expr) *Expr {
	return b.expr(ExprCall, CallData{Callee: name, Generics: generics, Args: args})
}

func (b *Builder) QCall(program, name string, args ...*Expr) *Expr {
	return b.expr(ExprCall, CallData{Callee: name, Program: program, Args: args})
}

func (b *Builder) Cast(x *Expr, t *TypeExpr) *Expr {
	return b.expr(ExprCast, CastData{Value: x, Target: t})
}

func (b *Builder) Field(name string, value *Expr) *FieldInit {
	return &FieldInit{Meta: b.meta(), Name: name, Value: value}
}

func (b *Builder) StructLit(name string, fields ...*FieldInit) *Expr {
	return b.expr(ExprStructLit, StructLitData{Name: name, Fields: fields})
}

func (b *Builder) Member(x *Expr, name string) *Expr {
	return b.expr(ExprMember, MemberData{Target: x, Name: name})
}

func (b *Builder) Tuple(elems ...*Expr) *Expr {
	return b.expr(ExprTupleLit, TupleLitData{Elems: elems})
}

func (b *Builder) TupleAt(x *Expr, i int) *Expr {
	return b.expr(ExprTupleAccess, TupleAccessData{Target: x, Index: i})
}

func (b *Builder) Array(elems ...*Expr) *Expr {
	return b.expr(ExprArrayLit, ArrayLitData{Elems: elems})
}

func (b *Builder) Index(x, i *Expr) *Expr {
	return b.expr(ExprIndex, IndexData{Target: x, Index: i})
}

func (b *Builder) Mapping(op MappingOp, mapping string, args ...*Expr) *Expr {
	return b.expr(ExprMappingOp, MappingOpData{Op: op, Mapping: b.Ident(mapping), Args: args})
}

func (b *Builder) Await(x *Expr) *Expr {
	return b.expr(ExprAwait, AwaitData{Future: x})
}

func (b *Builder) Ctx(kind ContextKind) *Expr {
	return b.expr(ExprContext, ContextData{Kind: kind})
}

// Types

func (b *Builder) Prim(name string) *TypeExpr {
	return &TypeExpr{Meta: b.meta(), Kind: TypePrim, Prim: name}
}

func (b *Builder) Named(name string, args ...GenericArg) *TypeExpr {
	return &TypeExpr{Meta: b.meta(), Kind: TypeNamed, Name: name, Args: args}
}

func (b *Builder) TupleT(elems ...*TypeExpr) *TypeExpr {
	return &TypeExpr{Meta: b.meta(), Kind: TypeTuple, Elems: elems}
}

func (b *Builder) ArrayT(elem *TypeExpr, length *Expr) *TypeExpr {
	return &TypeExpr{Meta: b.meta(), Kind: TypeArray, Elem: elem, Len: length}
}

func (b *Builder) FutureT() *TypeExpr {
	return &TypeExpr{Meta: b.meta(), Kind: TypeFuture}
}

func (b *Builder) UnitT() *TypeExpr {
	return &TypeExpr{Meta: b.meta(), Kind: TypeUnit}
}

// TArg wraps a type generic argument.
func TArg(t *TypeExpr) GenericArg { return GenericArg{Type: t} }

// VArg wraps a constant generic argument.
func VArg(e *Expr) GenericArg { return GenericArg{Value: e} }

// Statements

func (b *Builder) stmt(kind StmtKind, data StmtData) *Stmt {
	return &Stmt{Meta: b.meta(), Kind: kind, Data: data}
}

func (b *Builder) binding(name string) *Binding {
	return &Binding{Meta: b.meta(), Name: name}
}

// Let declares name; t may be nil.
func (b *Builder) Let(name string, t *TypeExpr, value *Expr) *Stmt {
	return b.stmt(StmtLet, LetData{Bindings: []*Binding{b.binding(name)}, Type: t, Value: value})
}

// LetTuple destructures a tuple value.
func (b *Builder) LetTuple(names []string, value *Expr) *Stmt {
	bs := make([]*Binding, len(names))
	for i, n := range names {
		bs[i] = b.binding(n)
	}
	return b.stmt(StmtLet, LetData{Bindings: bs, Value: value})
}

func (b *Builder) Const(name string, t *TypeExpr, value *Expr) *Stmt {
	return b.stmt(StmtConst, ConstData{Binding: b.binding(name), Type: t, Value: value})
}

func (b *Builder) Assign(target string, value *Expr) *Stmt {
	return b.stmt(StmtAssign, AssignData{Target: b.Ident(target), Value: value})
}

func (b *Builder) AssignOp(target string, op BinaryOp, value *Expr) *Stmt {
	return b.stmt(StmtAssign, AssignData{Target: b.Ident(target), Op: op, Value: value})
}

func (b *Builder) ExprStmt(e *Expr) *Stmt {
	return b.stmt(StmtExpr, ExprStmtData{Value: e})
}

func (b *Builder) Return(e *Expr) *Stmt {
	return b.stmt(StmtReturn, ReturnData{Value: e})
}

func (b *Builder) If(cond *Expr, then, els *Block) *Stmt {
	return b.stmt(StmtIf, IfData{Cond: cond, Then: then, Else: els})
}

// For is `for v: t in start..end`.
func (b *Builder) For(v string, t *TypeExpr, start, end *Expr, body *Block) *Stmt {
	return b.stmt(StmtFor, ForData{Var: b.binding(v), VarType: t, Start: start, End: end, Body: body})
}

// ForInclusive is `for v: t in start..=end`.
func (b *Builder) ForInclusive(v string, t *TypeExpr, start, end *Expr, body *Block) *Stmt {
	return b.stmt(StmtFor, ForData{Var: b.binding(v), VarType: t, Start: start, End: end, Inclusive: true, Body: body})
}

func (b *Builder) BlockStmt(blk *Block) *Stmt {
	return b.stmt(StmtBlock, BlockStmtData{Block: blk})
}

func (b *Builder) Assert(cond *Expr) *Stmt {
	return b.stmt(StmtAssert, AssertData{Kind: AssertTrue, Left: cond})
}

func (b *Builder) AssertEq(l, r *Expr) *Stmt {
	return b.stmt(StmtAssert, AssertData{Kind: AssertEq, Left: l, Right: r})
}

func (b *Builder) AssertNeq(l, r *Expr) *Stmt {
	return b.stmt(StmtAssert, AssertData{Kind: AssertNeq, Left: l, Right: r})
}

func (b *Builder) Block(stmts ...*Stmt) *Block {
	return &Block{Meta: b.meta(), Stmts: stmts}
}

// Declarations

func (b *Builder) Program(name string, imports ...string) *Program {
	return &Program{Meta: b.meta(), Name: name, Imports: imports}
}

func (b *Builder) Param(name string, t *TypeExpr, vis Visibility) *Param {
	return &Param{Meta: b.meta(), Name: name, Type: t, Visibility: vis}
}

func (b *Builder) Out(t *TypeExpr, vis Visibility) *Output {
	return &Output{Meta: b.meta(), Type: t, Visibility: vis}
}

func (b *Builder) Fn(variant Variant, name string, params []*Param, outputs []*Output, body *Block) *FuncDecl {
	return &FuncDecl{Meta: b.meta(), Name: name, Variant: variant, Params: params, Outputs: outputs, Body: body}
}

func (b *Builder) Generic(name string) *GenericParam {
	return &GenericParam{Meta: b.meta(), Name: name}
}

func (b *Builder) ConstGeneric(name string, t *TypeExpr) *GenericParam {
	return &GenericParam{Meta: b.meta(), Name: name, Const: true, Type: t}
}

func (b *Builder) MemberDecl(name string, t *TypeExpr) *Member {
	return &Member{Meta: b.meta(), Name: name, Type: t}
}

func (b *Builder) Struct(name string, members ...*Member) *StructDecl {
	return &StructDecl{Meta: b.meta(), Name: name, Members: members}
}

func (b *Builder) Record(name string, members ...*Member) *StructDecl {
	return &StructDecl{Meta: b.meta(), Name: name, IsRecord: true, Members: members}
}

func (b *Builder) MappingDecl(name string, key, value *TypeExpr) *MappingDecl {
	return &MappingDecl{Meta: b.meta(), Name: name, Key: key, Value: value}
}

func (b *Builder) ConstDecl(name string, t *TypeExpr, value *Expr) *ConstDecl {
	return &ConstDecl{Meta: b.meta(), Name: name, Type: t, Value: value}
}
