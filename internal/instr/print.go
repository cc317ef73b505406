package instr

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Fprint writes the textual form of p.
func Fprint(w io.Writer, p *Program) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "program %s;\n", p.Name)
	for _, imp := range p.Imports {
		fmt.Fprintf(bw, "import %s;\n", imp)
	}
	for _, s := range p.Structs {
		kw := "struct"
		if s.IsRecord {
			kw = "record"
		}
		fmt.Fprintf(bw, "\n%s %s:\n", kw, s.Name)
		for _, m := range s.Members {
			t := m.Type
			if m.Visibility != "" {
				t += "." + m.Visibility
			}
			fmt.Fprintf(bw, "    %s as %s;\n", m.Name, t)
		}
	}
	for _, m := range p.Mappings {
		fmt.Fprintf(bw, "\nmapping %s:\n    key as %s.public;\n    value as %s.public;\n", m.Name, m.Key, m.Value)
	}
	for i := range p.Functions {
		fprintFunction(bw, &p.Functions[i])
	}
	return bw.Flush()
}

// String renders p; used by tests and the disasm command.
func (p *Program) String() string {
	var sb strings.Builder
	_ = Fprint(&sb, p)
	return sb.String()
}

func fprintFunction(w io.Writer, f *Function) {
	fmt.Fprintf(w, "\n%s %s:\n", f.Variant, f.Name)
	for _, in := range f.Inputs {
		fmt.Fprintf(w, "    input %s as %s;\n", in.Reg, in.TypeString())
	}
	for _, in := range f.Body {
		fmt.Fprintf(w, "    %s;\n", in.String())
	}
}

// String renders one instruction without the trailing semicolon.
func (in Instr) String() string {
	var sb strings.Builder
	op := in.Op.String()
	args := in.Args
	switch in.Op {
	case OpCall, OpAsync:
		sb.WriteString(op + " " + in.Label)
		if len(args) > 0 {
			sb.WriteString(" " + joinOperands(args))
		}
	case OpGet, OpContains, OpRemove:
		fmt.Fprintf(&sb, "%s %s", op, mappingSlot(args))
	case OpGetOrUse:
		fmt.Fprintf(&sb, "%s %s", op, mappingSlot(args))
		if len(args) > 2 {
			sb.WriteString(" " + args[2].String())
		}
	case OpSet:
		if len(args) > 2 {
			fmt.Fprintf(&sb, "%s %s into %s", op, args[2], mappingSlot(args))
		} else {
			sb.WriteString(op + " ?")
		}
	default:
		sb.WriteString(op)
		if len(args) > 0 {
			sb.WriteString(" " + joinOperands(args))
		}
	}
	if len(in.Dst) > 0 {
		sb.WriteString(" into")
		for _, r := range in.Dst {
			sb.WriteString(" " + r.String())
		}
	}
	if in.Type != "" {
		sb.WriteString(" as " + in.Type)
	}
	if in.Guard != nil {
		sb.WriteString(" when " + in.Guard.String())
	}
	return sb.String()
}

func mappingSlot(args []Operand) string {
	if len(args) < 2 {
		return "?"
	}
	return fmt.Sprintf("%s[%s]", args[0], args[1])
}
