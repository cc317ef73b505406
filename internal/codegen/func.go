package codegen

import (
	"fortio.org/safecast"

	"veil/internal/ast"
	"veil/internal/compiler"
	"veil/internal/diag"
	"veil/internal/instr"
	"veil/internal/symbols"
	"veil/internal/types"
)

// value is what an expression lowers to: one operand, or the elements of
// a tuple. Tuples never live in registers.
type value struct {
	op    instr.Operand
	elems []value
	tuple bool
}

func single(op instr.Operand) value { return value{op: op} }

type funcGen struct {
	g    *generator
	fn   *ast.FuncDecl
	out  *instr.Function
	next int
	env  map[symbols.SymbolID]value
	err  error
}

func (g *generator) function(fn *ast.FuncDecl) (instr.Function, error) {
	fg := &funcGen{
		g:   g,
		fn:  fn,
		out: &instr.Function{Label: g.label("", fn.Name), Name: fn.Name, Variant: fn.Variant.String()},
		env: make(map[symbols.SymbolID]value),
	}
	for _, p := range fn.Params {
		r := fg.reg()
		t := p.Type.Resolved
		fg.out.Inputs = append(fg.out.Inputs, instr.Port{Reg: r, Type: g.typeName(t), Visibility: g.visibility(t, p.Visibility)})
		fg.env[p.Symbol] = single(instr.RegOp(r))
	}
	for _, s := range fn.Body.Stmts {
		fg.stmt(s)
		if fg.err != nil {
			return instr.Function{}, fg.err
		}
	}
	return *fg.out, nil
}

// reg allocates the next register.
func (fg *funcGen) reg() instr.Reg {
	r, err := safecast.Conv[instr.Reg](fg.next)
	if err != nil && fg.err == nil {
		fg.err = compiler.Internal("codegen", fg.fn.Meta, "register space of '%s' exhausted", fg.fn.Name)
	}
	fg.next++
	return r
}

func (fg *funcGen) emit(in instr.Instr) {
	if !fg.g.st.Config.Profile.Allows(in.Op.String()) {
		key := fg.fn.Name + "\x00" + in.Op.String()
		if !fg.g.reported[key] {
			fg.g.reported[key] = true
			fg.g.st.Error(diag.GenUnsupportedOpcode, fg.fn.Meta, "'%s' needs opcode '%s', which profile '%s' does not offer", fg.fn.Name, in.Op, fg.g.st.Config.Profile.Name).Emit()
		}
	}
	fg.out.Body = append(fg.out.Body, in)
}

// compute emits op with a fresh destination and returns it.
func (fg *funcGen) compute(op instr.Opcode, typ string, args ...instr.Operand) instr.Operand {
	r := fg.reg()
	fg.emit(instr.Instr{Op: op, Args: args, Dst: []instr.Reg{r}, Type: typ})
	return instr.RegOp(r)
}

func (fg *funcGen) internal(m ast.Meta, format string, args ...any) {
	if fg.err == nil {
		fg.err = compiler.Internal("codegen", m, format, args...)
	}
}

func (fg *funcGen) stmt(s *ast.Stmt) {
	switch d := s.Data.(type) {
	case ast.LetData:
		v := fg.expr(d.Value)
		if len(d.Bindings) == 1 {
			fg.env[d.Bindings[0].Symbol] = v
			return
		}
		if !v.tuple || len(v.elems) != len(d.Bindings) {
			fg.internal(s.Meta, "cannot destructure '%s' into %d names", ast.ExprString(d.Value), len(d.Bindings))
			return
		}
		for i, b := range d.Bindings {
			fg.env[b.Symbol] = v.elems[i]
		}
	case ast.ConstData:
		fg.env[d.Binding.Symbol] = fg.expr(d.Value)
	case ast.AssignData:
		id, ok := d.Target.Ident()
		if !ok || d.Op != ast.OpNone {
			fg.internal(s.Meta, "assignment '%s' was not flattened", ast.ExprString(d.Target))
			return
		}
		fg.env[id.Symbol] = fg.expr(d.Value)
	case ast.ExprStmtData:
		fg.effect(s, d)
	case ast.AssertData:
		fg.assert(d)
	case ast.ReturnData:
		fg.ret(s, d)
	default:
		fg.internal(s.Meta, "%s statement reached code generation", s.Kind)
	}
}

func (fg *funcGen) effect(s *ast.Stmt, d ast.ExprStmtData) {
	var guard *instr.Operand
	if d.Guard != nil {
		if _, ok := d.Value.Data.(ast.MappingOpData); !ok {
			fg.internal(s.Meta, "guard on '%s', which is not a mapping write", ast.ExprString(d.Value))
			return
		}
		g := fg.operand(d.Guard)
		guard = &g
	}
	if op, ok := d.Value.Data.(ast.MappingOpData); ok && op.Op.Mutates() {
		fg.mappingWrite(op, guard)
		return
	}
	fg.expr(d.Value)
}

func (fg *funcGen) assert(d ast.AssertData) {
	switch d.Kind {
	case ast.AssertTrue:
		fg.emit(instr.Instr{Op: instr.OpAssertEq, Args: []instr.Operand{fg.operand(d.Left), instr.LitOp("true")}})
	case ast.AssertEq:
		fg.emit(instr.Instr{Op: instr.OpAssertEq, Args: []instr.Operand{fg.operand(d.Left), fg.operand(d.Right)}})
	case ast.AssertNeq:
		fg.emit(instr.Instr{Op: instr.OpAssertNeq, Args: []instr.Operand{fg.operand(d.Left), fg.operand(d.Right)}})
	}
}

// ret emits one output per declared output. Literals are first cast into
// a register, since outputs name registers, and every cast precedes the
// first output.
func (fg *funcGen) ret(s *ast.Stmt, d ast.ReturnData) {
	outs := fg.fn.Outputs
	if len(outs) == 0 {
		return
	}
	v := fg.expr(d.Value)
	vals := []value{v}
	if len(outs) > 1 {
		if !v.tuple || len(v.elems) != len(outs) {
			fg.internal(s.Meta, "'%s' returns %d values, want %d", fg.fn.Name, len(v.elems), len(outs))
			return
		}
		vals = v.elems
	}
	ops := make([]instr.Operand, len(outs))
	for i, o := range outs {
		if vals[i].tuple {
			fg.internal(s.Meta, "output %d of '%s' is a tuple", i, fg.fn.Name)
			return
		}
		op := vals[i].op
		if op.Kind == instr.OperandLit || op.Kind == instr.OperandContext {
			op = fg.compute(instr.OpCast, fg.g.typeName(o.Type.Resolved), op)
		}
		ops[i] = op
	}
	for i, o := range outs {
		t := o.Type.Resolved
		port := instr.Port{Type: fg.g.typeName(t), Visibility: fg.g.visibility(t, o.Visibility)}
		if r, ok := ops[i].UsesReg(); ok {
			port.Reg = r
		}
		fg.out.Outputs = append(fg.out.Outputs, port)
		fg.emit(instr.Instr{Op: instr.OpOutput, Args: []instr.Operand{ops[i]}, Type: port.TypeString()})
	}
}

// typeOf renders the type of e for instructions that need one.
func (fg *funcGen) typeOf(e *ast.Expr) string {
	if e.Type == types.NoTypeID {
		fg.internal(e.Meta, "'%s' has no type", ast.ExprString(e))
		return ""
	}
	return fg.g.typeName(e.Type)
}
