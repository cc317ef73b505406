package main

import (
	"os"

	"github.com/spf13/cobra"

	"veil/internal/version"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "veil",
		Short:         "Circuit compiler back end",
		Long:          `veil lowers checked programs into register-based circuit instructions.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", "", "path to veil.toml (default: search upwards from the working directory)")
	root.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	root.PersistentFlags().String("trace-level", "", "override [trace].level (off|error|phase|detail|debug)")
	root.PersistentFlags().String("trace", "", "override [trace].output (stderr|stdout|<file>)")
	root.PersistentFlags().String("cpu-profile", "", "write a CPU profile to this file")
	root.PersistentFlags().String("mem-profile", "", "write a heap profile to this file on exit")
	root.PersistentFlags().String("runtime-trace", "", "write a Go runtime trace to this file")
	root.PersistentPreRunE = startProfiling

	root.AddCommand(
		newVersionCmd(),
		newExplainCmd(),
		newCodesCmd(),
		newDisasmCmd(),
		newProfileCmd(),
		newSelftestCmd(),
	)
	return root
}

func main() {
	root := newRootCmd()
	err := root.Execute()
	if perr := stopProfiling(); perr != nil {
		root.PrintErrln("profile:", perr)
	}
	if err != nil {
		root.PrintErrln("error:", err)
		os.Exit(exitCode(err))
	}
}
