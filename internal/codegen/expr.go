package codegen

import (
	"veil/internal/ast"
	"veil/internal/diag"
	"veil/internal/instr"
)

var binaryOps = map[ast.BinaryOp]instr.Opcode{
	ast.OpAdd:    instr.OpAdd,
	ast.OpSub:    instr.OpSub,
	ast.OpMul:    instr.OpMul,
	ast.OpDiv:    instr.OpDiv,
	ast.OpRem:    instr.OpRem,
	ast.OpPow:    instr.OpPow,
	ast.OpAnd:    instr.OpAnd,
	ast.OpOr:     instr.OpOr,
	ast.OpBitAnd: instr.OpAnd,
	ast.OpBitOr:  instr.OpOr,
	ast.OpBitXor: instr.OpXor,
	ast.OpShl:    instr.OpShl,
	ast.OpShr:    instr.OpShr,
	ast.OpEq:     instr.OpIsEq,
	ast.OpNe:     instr.OpIsNeq,
	ast.OpLt:     instr.OpLt,
	ast.OpLe:     instr.OpLte,
	ast.OpGt:     instr.OpGt,
	ast.OpGe:     instr.OpGte,
}

var mappingOps = map[ast.MappingOp]instr.Opcode{
	ast.MappingGet:      instr.OpGet,
	ast.MappingGetOrUse: instr.OpGetOrUse,
	ast.MappingSet:      instr.OpSet,
	ast.MappingRemove:   instr.OpRemove,
	ast.MappingContains: instr.OpContains,
}

// operand lowers e where a single operand is required.
func (fg *funcGen) operand(e *ast.Expr) instr.Operand {
	v := fg.expr(e)
	if v.tuple {
		fg.internal(e.Meta, "tuple '%s' used as a single value", ast.ExprString(e))
	}
	return v.op
}

func (fg *funcGen) expr(e *ast.Expr) value {
	if e == nil || fg.err != nil {
		return value{}
	}
	switch d := e.Data.(type) {
	case ast.LiteralData:
		return single(instr.LitOp(fg.literal(e, d)))
	case ast.IdentData:
		return fg.ident(e, d)
	case ast.ContextData:
		return single(instr.ContextOp(d.Kind.String()))
	case ast.UnaryData:
		op := instr.OpNot
		if d.Op == ast.UnaryNeg {
			op = instr.OpNeg
		}
		return single(fg.compute(op, "", fg.operand(d.Operand)))
	case ast.BinaryData:
		op, ok := binaryOps[d.Op]
		if !ok {
			fg.internal(e.Meta, "operator %q has no instruction", d.Op)
			return value{}
		}
		l := fg.operand(d.Left)
		r := fg.operand(d.Right)
		return single(fg.compute(op, "", l, r))
	case ast.SelectData:
		return fg.sel(fg.operand(d.Cond), fg.expr(d.Then), fg.expr(d.Else))
	case ast.CastData:
		return single(fg.compute(instr.OpCast, fg.typeOf(e), fg.operand(d.Value)))
	case ast.StructLitData:
		return fg.structLit(e, d)
	case ast.ArrayLitData:
		args := make([]instr.Operand, 0, len(d.Elems))
		for _, el := range d.Elems {
			args = append(args, fg.operand(el))
		}
		return single(fg.compute(instr.OpCast, fg.typeOf(e), args...))
	case ast.TupleLitData:
		v := value{tuple: true}
		for _, el := range d.Elems {
			v.elems = append(v.elems, fg.expr(el))
		}
		return v
	case ast.TupleAccessData:
		t := fg.expr(d.Target)
		if !t.tuple || d.Index < 0 || d.Index >= len(t.elems) {
			fg.internal(e.Meta, "'%s' does not select a tuple element", ast.ExprString(e))
			return value{}
		}
		return t.elems[d.Index]
	case ast.MemberData:
		return fg.access(e, fg.operand(d.Target), "."+d.Name)
	case ast.IndexData:
		return fg.index(e, d)
	case ast.CallData:
		return fg.call(e, d)
	case ast.AwaitData:
		fg.emit(instr.Instr{Op: instr.OpAwait, Args: []instr.Operand{fg.operand(d.Future)}})
		return value{}
	case ast.MappingOpData:
		return fg.mappingRead(d)
	}
	fg.internal(e.Meta, "%s expression reached code generation", e.Kind)
	return value{}
}

// literal renders a literal with its type suffix; folded literals may
// lack one.
func (fg *funcGen) literal(e *ast.Expr, d ast.LiteralData) string {
	if d.Kind == ast.LitInt && d.Suffix == "" {
		return d.Text + fg.typeOf(e)
	}
	return d.Text + d.Suffix
}

func (fg *funcGen) ident(e *ast.Expr, d ast.IdentData) value {
	if v, ok := fg.env[d.Symbol]; ok {
		return v
	}
	if c, ok := fg.g.st.Const(d.Symbol); ok {
		lit := c.Literal(fg.g.in)
		if lit.Kind == ast.LitInt && lit.Suffix == "" {
			lit.Suffix = fg.typeOf(e)
		}
		return single(instr.LitOp(lit.Text + lit.Suffix))
	}
	fg.internal(e.Meta, "'%s' is read before it has a value", d.Name)
	return value{}
}

// sel picks between two values; tuples are selected element by element.
func (fg *funcGen) sel(c instr.Operand, then, els value) value {
	if then.tuple != els.tuple || len(then.elems) != len(els.elems) {
		fg.internal(fg.fn.Meta, "select between values of different shape in '%s'", fg.fn.Name)
		return value{}
	}
	if !then.tuple {
		return single(fg.compute(instr.OpTernary, "", c, then.op, els.op))
	}
	out := value{tuple: true}
	for i := range then.elems {
		out.elems = append(out.elems, fg.sel(c, then.elems[i], els.elems[i]))
	}
	return out
}

// structLit casts the member values, in declaration order, into a new
// struct or record register.
func (fg *funcGen) structLit(e *ast.Expr, d ast.StructLitData) value {
	byName := make(map[string]*ast.Expr, len(d.Fields))
	for _, f := range d.Fields {
		byName[f.Name] = f.Value
	}
	var args []instr.Operand
	for _, f := range fg.g.in.StructFields(e.Type) {
		v, ok := byName[f.Name]
		if !ok {
			fg.internal(e.Meta, "member '%s' missing from '%s'", f.Name, ast.ExprString(e))
			return value{}
		}
		args = append(args, fg.operand(v))
	}
	return single(fg.compute(instr.OpCast, fg.typeOf(e), args...))
}

func (fg *funcGen) access(e *ast.Expr, target instr.Operand, path string) value {
	op, ok := target.Access(path)
	if !ok {
		fg.internal(e.Meta, "cannot access '%s' on %s", path, target)
		return value{}
	}
	return single(op)
}

// index requires a constant position; loops are unrolled and constants
// folded by now, so anything else is reported to the user.
func (fg *funcGen) index(e *ast.Expr, d ast.IndexData) value {
	target := fg.operand(d.Target)
	lit, ok := d.Index.Literal()
	if !ok {
		fg.g.st.Error(diag.GenDynamicIndex, d.Index.Meta, "index '%s' is not known at compile time", ast.ExprString(d.Index)).Emit()
		return single(target)
	}
	return fg.access(e, target, "["+fg.literal(d.Index, lit)+"]")
}

func (fg *funcGen) call(e *ast.Expr, d ast.CallData) value {
	callee := fg.g.st.Func(d.Symbol)
	if callee == nil {
		fg.internal(e.Meta, "call of unknown function '%s'", d.Callee)
		return value{}
	}
	program := ""
	if sym := fg.g.st.Symbol(d.Symbol); sym != nil {
		program = sym.Program
	}
	args := make([]instr.Operand, 0, len(d.Args))
	for _, a := range d.Args {
		args = append(args, fg.operand(a))
	}
	in := instr.Instr{Op: instr.OpCall, Args: args, Label: fg.g.label(program, callee.Name)}
	if callee.Variant == ast.VariantAsync {
		in.Op = instr.OpAsync
		r := fg.reg()
		in.Dst = []instr.Reg{r}
		fg.emit(in)
		return single(instr.RegOp(r))
	}
	for range callee.Outputs {
		in.Dst = append(in.Dst, fg.reg())
	}
	fg.emit(in)
	switch len(in.Dst) {
	case 0:
		return value{}
	case 1:
		return single(instr.RegOp(in.Dst[0]))
	}
	out := value{tuple: true}
	for _, r := range in.Dst {
		out.elems = append(out.elems, single(instr.RegOp(r)))
	}
	return out
}

// mappingName qualifies mappings of imported programs.
func (fg *funcGen) mappingName(m *ast.Expr) instr.Operand {
	id, ok := m.Ident()
	if !ok {
		fg.internal(m.Meta, "mapping operand '%s' is not a name", ast.ExprString(m))
		return instr.Operand{}
	}
	if id.Program != "" && id.Program != fg.g.st.Program.Name {
		return instr.MappingOp(id.Program + "/" + id.Name)
	}
	return instr.MappingOp(id.Name)
}

func (fg *funcGen) mappingArgs(d ast.MappingOpData) []instr.Operand {
	args := []instr.Operand{fg.mappingName(d.Mapping)}
	for _, a := range d.Args {
		args = append(args, fg.operand(a))
	}
	return args
}

func (fg *funcGen) mappingRead(d ast.MappingOpData) value {
	if d.Op.Mutates() {
		fg.mappingWrite(d, nil)
		return value{}
	}
	return single(fg.compute(mappingOps[d.Op], "", fg.mappingArgs(d)...))
}

func (fg *funcGen) mappingWrite(d ast.MappingOpData, guard *instr.Operand) {
	fg.emit(instr.Instr{Op: mappingOps[d.Op], Args: fg.mappingArgs(d), Guard: guard})
}
