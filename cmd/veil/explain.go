package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"veil/internal/diag"
)

func newExplainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "explain <code>",
		Short: "Describe a diagnostic code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, ok := diag.ParseCode(strings.ToUpper(strings.TrimSpace(args[0])))
			if !ok {
				return fmt.Errorf("unknown diagnostic code %q", args[0])
			}
			e, found, err := diag.Explain(code)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %s\n", code.ID(), code.Title())
			if !found {
				return nil
			}
			for _, p := range e.Summary {
				fmt.Fprintf(out, "\n%s\n", p)
			}
			if e.Example != "" {
				fmt.Fprintf(out, "\nExample:\n\n")
				for _, line := range strings.Split(strings.TrimRight(e.Example, "\n"), "\n") {
					fmt.Fprintf(out, "    %s\n", line)
				}
			}
			return nil
		},
	}
}

func newCodesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "codes",
		Short: "List every diagnostic code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, c := range diag.Codes() {
				fmt.Fprintf(out, "%-8s %s\n", c.ID(), c.Title())
			}
			return nil
		},
	}
}
