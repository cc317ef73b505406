package instr

import (
	"errors"
	"fmt"
)

// Validate checks register discipline: every register is written once,
// before it is read, and outputs come last.
func Validate(p *Program) error {
	if p == nil {
		return nil
	}
	var errs []error
	for i := range p.Functions {
		if err := validateFunction(&p.Functions[i]); err != nil {
			errs = append(errs, fmt.Errorf("function %s: %w", p.Functions[i].Name, err))
		}
	}
	return errors.Join(errs...)
}

func validateFunction(f *Function) error {
	var errs []error
	defined := make(map[Reg]bool)
	for _, in := range f.Inputs {
		if defined[in.Reg] {
			errs = append(errs, fmt.Errorf("input register %s declared twice", in.Reg))
		}
		defined[in.Reg] = true
	}
	use := func(idx int, o Operand) {
		if r, ok := o.UsesReg(); ok && !defined[r] {
			errs = append(errs, fmt.Errorf("instruction %d reads undefined register %s", idx, r))
		}
	}
	outputs := false
	for idx, in := range f.Body {
		if in.Op == OpInvalid {
			errs = append(errs, fmt.Errorf("instruction %d has no opcode", idx))
		}
		if in.Op == OpOutput {
			outputs = true
		} else if outputs {
			errs = append(errs, fmt.Errorf("instruction %d (%s) follows an output", idx, in.Op))
		}
		for _, a := range in.Args {
			use(idx, a)
		}
		if in.Guard != nil {
			use(idx, *in.Guard)
		}
		if in.Op.NeedsResult() && len(in.Dst) == 0 {
			errs = append(errs, fmt.Errorf("instruction %d (%s) has no destination", idx, in.Op))
		}
		if (in.Op == OpCall || in.Op == OpAsync) && in.Label == "" {
			errs = append(errs, fmt.Errorf("instruction %d (%s) has no target", idx, in.Op))
		}
		for _, r := range in.Dst {
			if defined[r] {
				errs = append(errs, fmt.Errorf("instruction %d writes %s twice", idx, r))
			}
			defined[r] = true
		}
	}
	return errors.Join(errs...)
}
