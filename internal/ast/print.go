package ast

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Fprint writes p in surface syntax. Resolved symbols and types are not
// shown; the output is meant for humans and golden tests.
func Fprint(w io.Writer, p *Program) error {
	pr := &printer{}
	pr.program(p)
	_, err := io.WriteString(w, pr.sb.String())
	return err
}

// ExprString renders a single expression.
func ExprString(e *Expr) string {
	pr := &printer{}
	pr.expr(e)
	return pr.sb.String()
}

// BlockString renders the statements of b, one per line.
func BlockString(b *Block) string {
	pr := &printer{}
	for _, s := range b.Stmts {
		pr.stmt(s)
	}
	return pr.sb.String()
}

type printer struct {
	sb     strings.Builder
	indent int
}

func (p *printer) line(format string, args ...any) {
	p.sb.WriteString(strings.Repeat("    ", p.indent))
	fmt.Fprintf(&p.sb, format, args...)
	p.sb.WriteByte('\n')
}

func (p *printer) program(prog *Program) {
	for _, imp := range prog.Imports {
		p.line("import %s;", imp)
	}
	p.line("program %s {", prog.Name)
	p.indent++
	for _, s := range prog.Structs {
		kw := "struct"
		if s.IsRecord {
			kw = "record"
		}
		p.line("%s %s%s {", kw, s.Name, genericParams(s.Generics))
		p.indent++
		for _, m := range s.Members {
			p.line("%s: %s,", m.Name, TypeString(m.Type))
		}
		p.indent--
		p.line("}")
	}
	for _, m := range prog.Mappings {
		p.line("mapping %s: %s => %s;", m.Name, TypeString(m.Key), TypeString(m.Value))
	}
	for _, c := range prog.Consts {
		p.line("const %s: %s = %s;", c.Name, TypeString(c.Type), ExprString(c.Value))
	}
	for _, f := range prog.Functions {
		p.fn(f)
	}
	p.indent--
	p.line("}")
}

func (p *printer) fn(f *FuncDecl) {
	params := make([]string, len(f.Params))
	for i, prm := range f.Params {
		vis := ""
		if prm.Visibility != Private {
			vis = prm.Visibility.String() + " "
		}
		params[i] = fmt.Sprintf("%s%s: %s", vis, prm.Name, TypeString(prm.Type))
	}
	out := ""
	switch len(f.Outputs) {
	case 0:
	case 1:
		out = " -> " + outputString(f.Outputs[0])
	default:
		parts := make([]string, len(f.Outputs))
		for i, o := range f.Outputs {
			parts[i] = outputString(o)
		}
		out = " -> (" + strings.Join(parts, ", ") + ")"
	}
	if f.Body == nil {
		p.line("%s %s%s(%s)%s;", f.Variant, f.Name, genericParams(f.Generics), strings.Join(params, ", "), out)
		return
	}
	p.line("%s %s%s(%s)%s {", f.Variant, f.Name, genericParams(f.Generics), strings.Join(params, ", "), out)
	p.indent++
	for _, s := range f.Body.Stmts {
		p.stmt(s)
	}
	p.indent--
	p.line("}")
}

func outputString(o *Output) string {
	if o.Visibility != Private {
		return o.Visibility.String() + " " + TypeString(o.Type)
	}
	return TypeString(o.Type)
}

func genericParams(gs []*GenericParam) string {
	if len(gs) == 0 {
		return ""
	}
	parts := make([]string, len(gs))
	for i, g := range gs {
		if g.Const {
			parts[i] = g.Name + ": " + TypeString(g.Type)
		} else {
			parts[i] = g.Name
		}
	}
	return "::[" + strings.Join(parts, ", ") + "]"
}

func genericArgs(args []GenericArg) string {
	if len(args) == 0 {
		return ""
	}
	parts := make([]string, len(args))
	for i, a := range args {
		if a.Type != nil {
			parts[i] = TypeString(a.Type)
		} else {
			parts[i] = ExprString(a.Value)
		}
	}
	return "::[" + strings.Join(parts, ", ") + "]"
}

// TypeString renders a written type.
func TypeString(t *TypeExpr) string {
	if t == nil {
		return "_"
	}
	switch t.Kind {
	case TypePrim:
		return t.Prim
	case TypeNamed:
		name := t.Name
		if t.Program != "" {
			name = t.Program + "/" + name
		}
		return name + genericArgs(t.Args)
	case TypeTuple:
		parts := make([]string, len(t.Elems))
		for i, el := range t.Elems {
			parts[i] = TypeString(el)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case TypeArray:
		return "[" + TypeString(t.Elem) + "; " + ExprString(t.Len) + "]"
	case TypeFuture:
		return "Future"
	case TypeUnit:
		return "()"
	}
	return "?"
}

func (p *printer) block(header string, b *Block) {
	if header == "" {
		p.line("{")
	} else {
		p.line("%s {", header)
	}
	p.indent++
	for _, s := range b.Stmts {
		p.stmt(s)
	}
	p.indent--
}

func (p *printer) stmt(s *Stmt) {
	switch d := s.Data.(type) {
	case LetData:
		names := make([]string, len(d.Bindings))
		for i, b := range d.Bindings {
			names[i] = b.Name
		}
		lhs := strings.Join(names, ", ")
		if len(names) > 1 {
			lhs = "(" + lhs + ")"
		}
		if d.Type != nil {
			lhs += ": " + TypeString(d.Type)
		}
		p.line("let %s = %s;", lhs, ExprString(d.Value))
	case ConstData:
		p.line("const %s: %s = %s;", d.Binding.Name, TypeString(d.Type), ExprString(d.Value))
	case AssignData:
		p.line("%s %s= %s;", ExprString(d.Target), d.Op, ExprString(d.Value))
	case ExprStmtData:
		if d.Guard != nil {
			p.line("%s if %s;", ExprString(d.Value), ExprString(d.Guard))
		} else {
			p.line("%s;", ExprString(d.Value))
		}
	case ReturnData:
		if d.Value == nil {
			p.line("return;")
		} else {
			p.line("return %s;", ExprString(d.Value))
		}
	case IfData:
		p.block("if "+ExprString(d.Cond), d.Then)
		if d.Else != nil {
			p.line("} else {")
			p.indent++
			for _, st := range d.Else.Stmts {
				p.stmt(st)
			}
			p.indent--
		}
		p.line("}")
	case ForData:
		rng := ".."
		if d.Inclusive {
			rng = "..="
		}
		p.block(fmt.Sprintf("for %s: %s in %s%s%s", d.Var.Name, TypeString(d.VarType), ExprString(d.Start), rng, ExprString(d.End)), d.Body)
		p.line("}")
	case BlockStmtData:
		p.block("", d.Block)
		p.line("}")
	case AssertData:
		if d.Right == nil {
			p.line("%s(%s);", d.Kind, ExprString(d.Left))
		} else {
			p.line("%s(%s, %s);", d.Kind, ExprString(d.Left), ExprString(d.Right))
		}
	default:
		p.line("<%s>", s.Kind)
	}
}

func (p *printer) exprs(es []*Expr) {
	for i, e := range es {
		if i > 0 {
			p.sb.WriteString(", ")
		}
		p.expr(e)
	}
}

func (p *printer) expr(e *Expr) {
	if e == nil {
		p.sb.WriteString("_")
		return
	}
	switch d := e.Data.(type) {
	case LiteralData:
		p.sb.WriteString(d.Text + d.Suffix)
	case IdentData:
		if d.Program != "" {
			p.sb.WriteString(d.Program + "/")
		}
		p.sb.WriteString(d.Name)
	case UnaryData:
		p.sb.WriteString(d.Op.String())
		p.operand(d.Operand)
	case BinaryData:
		p.operand(d.Left)
		p.sb.WriteString(" " + d.Op.String() + " ")
		p.operand(d.Right)
	case TernaryData:
		p.operand(d.Cond)
		p.sb.WriteString(" ? ")
		p.operand(d.Then)
		p.sb.WriteString(" : ")
		p.operand(d.Else)
	case SelectData:
		p.sb.WriteString("select(")
		p.exprs([]*Expr{d.Cond, d.Then, d.Else})
		p.sb.WriteString(")")
	case CallData:
		if d.Program != "" {
			p.sb.WriteString(d.Program + "/")
		}
		p.sb.WriteString(d.Callee + genericArgs(d.Generics) + "(")
		p.exprs(d.Args)
		p.sb.WriteString(")")
	case CastData:
		p.operand(d.Value)
		p.sb.WriteString(" as " + TypeString(d.Target))
	case StructLitData:
		p.sb.WriteString(d.Name + genericArgs(d.Generics) + " { ")
		for i, f := range d.Fields {
			if i > 0 {
				p.sb.WriteString(", ")
			}
			p.sb.WriteString(f.Name + ": ")
			p.expr(f.Value)
		}
		p.sb.WriteString(" }")
	case MemberData:
		p.operand(d.Target)
		p.sb.WriteString("." + d.Name)
	case TupleLitData:
		p.sb.WriteString("(")
		p.exprs(d.Elems)
		p.sb.WriteString(")")
	case TupleAccessData:
		p.operand(d.Target)
		p.sb.WriteString("." + strconv.Itoa(d.Index))
	case ArrayLitData:
		p.sb.WriteString("[")
		p.exprs(d.Elems)
		p.sb.WriteString("]")
	case IndexData:
		p.operand(d.Target)
		p.sb.WriteString("[")
		p.expr(d.Index)
		p.sb.WriteString("]")
	case MappingOpData:
		p.expr(d.Mapping)
		p.sb.WriteString("." + d.Op.String() + "(")
		p.exprs(d.Args)
		p.sb.WriteString(")")
	case AwaitData:
		p.operand(d.Future)
		p.sb.WriteString(".await()")
	case ContextData:
		p.sb.WriteString(d.Kind.String())
	default:
		p.sb.WriteString("<" + e.Kind.String() + ">")
	}
}

func (p *printer) operand(e *Expr) {
	if e != nil && (e.Kind == ExprBinary || e.Kind == ExprTernary || e.Kind == ExprCast) {
		p.sb.WriteString("(")
		p.expr(e)
		p.sb.WriteString(")")
		return
	}
	p.expr(e)
}
