package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"veil/internal/instr"
)

func newDisasmCmd() *cobra.Command {
	var validate bool
	cmd := &cobra.Command{
		Use:   "disasm <artifact>",
		Short: "Print a compiled artifact as instruction text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			prog, err := instr.Decode(f)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			if validate {
				if err := instr.Validate(prog); err != nil {
					return &exitError{code: 2, msg: fmt.Sprintf("%s: %v", args[0], err)}
				}
			}
			return instr.Fprint(cmd.OutOrStdout(), prog)
		},
	}
	cmd.Flags().BoolVar(&validate, "validate", false, "check register discipline before printing")
	return cmd
}
