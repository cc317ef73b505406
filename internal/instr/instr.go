// Package instr is the linear instruction model produced by code generation,
// with a text printer and a msgpack artifact codec.
package instr

import (
	"fmt"
	"strings"
)

// Reg is a register index; registers print as r0, r1, ...
type Reg uint32

func (r Reg) String() string { return fmt.Sprintf("r%d", r) }

// OperandKind enumerates operand forms.
type OperandKind uint8

const (
	// OperandReg is a register.
	OperandReg OperandKind = iota + 1
	// OperandLit is a literal with its type suffix, e.g. 3u32.
	OperandLit
	// OperandAccess is a member or index path into a register: r0.owner, r1[2u32].
	OperandAccess
	// OperandContext is an environment value such as self.caller.
	OperandContext
	// OperandMapping names a mapping.
	OperandMapping
)

// Operand is an instruction argument.
type Operand struct {
	Kind OperandKind `msgpack:"k"`
	Reg  Reg         `msgpack:"r,omitempty"`
	Text string      `msgpack:"t,omitempty"`
}

func RegOp(r Reg) Operand           { return Operand{Kind: OperandReg, Reg: r} }
func LitOp(text string) Operand     { return Operand{Kind: OperandLit, Text: text} }
func ContextOp(text string) Operand { return Operand{Kind: OperandContext, Text: text} }
func MappingOp(name string) Operand { return Operand{Kind: OperandMapping, Text: name} }

// AccessOp appends a path (".x" or "[1u32]") to a register.
func AccessOp(r Reg, path string) Operand {
	return Operand{Kind: OperandAccess, Reg: r, Text: path}
}

// Access extends an operand with a further path segment. Only registers and
// accesses can be extended.
func (o Operand) Access(path string) (Operand, bool) {
	switch o.Kind {
	case OperandReg:
		return AccessOp(o.Reg, path), true
	case OperandAccess:
		return AccessOp(o.Reg, o.Text+path), true
	}
	return Operand{}, false
}

func (o Operand) String() string {
	switch o.Kind {
	case OperandReg:
		return o.Reg.String()
	case OperandAccess:
		return o.Reg.String() + o.Text
	case OperandLit, OperandContext, OperandMapping:
		return o.Text
	}
	return "?"
}

// UsesReg reports the register the operand reads, if any.
func (o Operand) UsesReg() (Reg, bool) {
	if o.Kind == OperandReg || o.Kind == OperandAccess {
		return o.Reg, true
	}
	return 0, false
}

// Instr is one instruction. Type is the destination type of cast, the
// output type of output, and empty otherwise. Label names call and async
// targets. A non-nil Guard makes set and remove conditional.
type Instr struct {
	Op    Opcode    `msgpack:"op"`
	Args  []Operand `msgpack:"args,omitempty"`
	Dst   []Reg     `msgpack:"dst,omitempty"`
	Type  string    `msgpack:"type,omitempty"`
	Label string    `msgpack:"label,omitempty"`
	Guard *Operand  `msgpack:"guard,omitempty"`
}

// Port is a function input or output.
type Port struct {
	Reg        Reg    `msgpack:"reg"`
	Type       string `msgpack:"type"`
	Visibility string `msgpack:"vis,omitempty"` // private, public, constant; empty for futures
}

func (p Port) TypeString() string {
	if p.Visibility == "" {
		return p.Type
	}
	return p.Type + "." + p.Visibility
}

// Function is a lowered function. Label is "<program>/<name>".
type Function struct {
	Label   string  `msgpack:"label"`
	Name    string  `msgpack:"name"`
	Variant string  `msgpack:"variant"`
	Inputs  []Port  `msgpack:"inputs,omitempty"`
	Outputs []Port  `msgpack:"outputs,omitempty"`
	Body    []Instr `msgpack:"body,omitempty"`
}

// Member is a struct or record member.
type Member struct {
	Name       string `msgpack:"name"`
	Type       string `msgpack:"type"`
	Visibility string `msgpack:"vis,omitempty"`
}

type Struct struct {
	Name     string   `msgpack:"name"`
	IsRecord bool     `msgpack:"record,omitempty"`
	Members  []Member `msgpack:"members"`
}

type Mapping struct {
	Name  string `msgpack:"name"`
	Key   string `msgpack:"key"`
	Value string `msgpack:"value"`
}

// Program is the code generator output for one program.
type Program struct {
	Name      string     `msgpack:"name"`
	Imports   []string   `msgpack:"imports,omitempty"`
	Structs   []Struct   `msgpack:"structs,omitempty"`
	Mappings  []Mapping  `msgpack:"mappings,omitempty"`
	Functions []Function `msgpack:"functions,omitempty"`
}

// Function returns the function with the given name.
func (p *Program) Function(name string) *Function {
	for i := range p.Functions {
		if p.Functions[i].Name == name {
			return &p.Functions[i]
		}
	}
	return nil
}

// Opcodes returns the distinct opcodes used by f in first-use order.
func (f *Function) Opcodes() []Opcode {
	var out []Opcode
	seen := map[Opcode]bool{}
	for _, in := range f.Body {
		if !seen[in.Op] {
			seen[in.Op] = true
			out = append(out, in.Op)
		}
	}
	return out
}

func joinOperands(ops []Operand) string {
	parts := make([]string, len(ops))
	for i, o := range ops {
		parts[i] = o.String()
	}
	return strings.Join(parts, " ")
}
