package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"veil/internal/config"
	"veil/internal/trace"
)

// exitError carries a process exit code through cobra.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

func exitCode(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return 1
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// useColor resolves --color against the output stream and sets the global
// switch of the color package accordingly.
func useColor(cmd *cobra.Command) (bool, error) {
	mode, err := cmd.Flags().GetString("color")
	if err != nil {
		return false, err
	}
	var on bool
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "auto":
		on = isTerminal(cmd.OutOrStdout()) && os.Getenv("NO_COLOR") == ""
	case "on":
		on = true
	case "off":
		on = false
	default:
		return false, fmt.Errorf("invalid --color value %q (expected auto|on|off)", mode)
	}
	color.NoColor = !on
	return on, nil
}

// loadConfig reads --config, or the nearest veil.toml, or the defaults, and
// applies the trace overrides from the command line.
func loadConfig(cmd *cobra.Command) (config.Config, string, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return config.Config{}, "", err
	}
	if path == "" {
		found, ok, err := config.FindFile(".")
		if err != nil {
			return config.Config{}, "", err
		}
		if ok {
			path = found
		}
	}
	cfg := config.Default()
	if path != "" {
		if cfg, err = config.Load(path); err != nil {
			return config.Config{}, "", err
		}
	}
	if v, _ := cmd.Flags().GetString("trace-level"); v != "" {
		cfg.Trace.Level = v
	}
	if v, _ := cmd.Flags().GetString("trace"); v != "" {
		cfg.Trace.Output = v
	}
	return cfg, path, nil
}

// setupTracing attaches the configured tracer to the command context. The
// returned cleanup flushes and closes it.
func setupTracing(cmd *cobra.Command, cfg config.Config) (func(), error) {
	tracer, err := trace.New(cfg.Trace)
	if err != nil {
		return nil, fmt.Errorf("trace: %w", err)
	}
	cmd.SetContext(trace.WithTracer(cmd.Context(), tracer))
	return func() {
		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}, nil
}
