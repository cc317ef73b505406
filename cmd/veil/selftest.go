package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"veil/internal/buildpipeline"
	"veil/internal/diag"
	"veil/internal/diagfmt"
	"veil/internal/instr"
	"veil/internal/testkit"
	"veil/internal/version"
)

type selftestOptions struct {
	ui     string
	format string
	emit   string
	only   []string
}

// fixtureReport pairs a fixture with what the pipeline did to it.
type fixtureReport struct {
	fixture testkit.Fixture
	outcome buildpipeline.Outcome
	problem string // empty when the outcome matches the expectation
}

type selftestJSON struct {
	Name        string                    `json:"name"`
	Passed      bool                      `json:"passed"`
	Problem     string                    `json:"problem,omitempty"`
	HaltedAt    string                    `json:"halted_at,omitempty"`
	Diagnostics diagfmt.DiagnosticsOutput `json:"diagnostics"`
}

func newSelftestCmd() *cobra.Command {
	var opts selftestOptions
	cmd := &cobra.Command{
		Use:   "selftest",
		Short: "Compile the built-in programs and check their outcomes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSelftest(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.ui, "ui", "auto", "progress display (auto|on|off)")
	cmd.Flags().StringVar(&opts.format, "format", "pretty", "diagnostics format (pretty|json|sarif)")
	cmd.Flags().StringVar(&opts.emit, "emit", "", "write compiled artifacts into this directory")
	cmd.Flags().StringSliceVar(&opts.only, "only", nil, "run only the named programs")
	return cmd
}

func selectFixtures(only []string) ([]testkit.Fixture, error) {
	all := testkit.Fixtures()
	if len(only) == 0 {
		return all, nil
	}
	var out []testkit.Fixture
	for _, name := range only {
		i := slices.IndexFunc(all, func(f testkit.Fixture) bool { return f.Name == name })
		if i < 0 {
			return nil, fmt.Errorf("unknown program %q", name)
		}
		out = append(out, all[i])
	}
	return out, nil
}

func runSelftest(cmd *cobra.Command, opts selftestOptions) error {
	mode, err := readUIMode(opts.ui)
	if err != nil {
		return err
	}
	format := strings.ToLower(opts.format)
	switch format {
	case "pretty", "json", "sarif":
	default:
		return fmt.Errorf("unsupported format %q (must be pretty, json or sarif)", opts.format)
	}
	colored, err := useColor(cmd)
	if err != nil {
		return err
	}
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cleanup, err := setupTracing(cmd, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	fixtures, err := selectFixtures(opts.only)
	if err != nil {
		return err
	}
	jobs := make([]buildpipeline.Job, len(fixtures))
	for i, fx := range fixtures {
		jobs[i] = buildpipeline.Job{Name: fx.Name, Program: fx.Build()}
	}

	out := cmd.OutOrStdout()
	var outcomes []buildpipeline.Outcome
	if format == "pretty" && shouldUseTUI(mode, out) {
		outcomes, err = compileWithUI(cmd.Context(), out, "selftest", jobs, cfg)
	} else {
		outcomes, err = buildpipeline.CompileAll(cmd.Context(), jobs, cfg, nil)
	}
	if err != nil {
		return err
	}

	reports := make([]fixtureReport, len(fixtures))
	for i, fx := range fixtures {
		reports[i] = fixtureReport{fixture: fx, outcome: outcomes[i], problem: check(fx, outcomes[i])}
	}
	if opts.emit != "" {
		if err := emitArtifacts(opts.emit, outcomes); err != nil {
			return err
		}
	}

	switch format {
	case "json":
		err = writeSelftestJSON(out, reports)
	case "sarif":
		err = writeSelftestSarif(out, reports)
	default:
		writeSelftestPretty(out, reports, colored)
	}
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range reports {
		if r.problem != "" {
			failed++
		}
	}
	if failed > 0 {
		return &exitError{code: 1, msg: fmt.Sprintf("selftest: %d of %d programs failed", failed, len(reports))}
	}
	return nil
}

// check compares an outcome with the fixture's expectation.
func check(fx testkit.Fixture, o buildpipeline.Outcome) string {
	if o.Err != nil {
		return o.Err.Error()
	}
	if o.Result.HaltedAt != fx.HaltedAt {
		if fx.HaltedAt == "" {
			return fmt.Sprintf("halted at %s", o.Result.HaltedAt)
		}
		if o.Result.HaltedAt == "" {
			return fmt.Sprintf("compiled, expected a halt at %s", fx.HaltedAt)
		}
		return fmt.Sprintf("halted at %s, expected %s", o.Result.HaltedAt, fx.HaltedAt)
	}
	var got []diag.Code
	for _, d := range o.Result.Diagnostics {
		if d.Code != diag.PipInfo {
			got = append(got, d.Code)
		}
	}
	if !slices.Equal(got, fx.Codes) {
		return fmt.Sprintf("diagnostics %s, expected %s", codeList(got), codeList(fx.Codes))
	}
	return ""
}

func codeList(codes []diag.Code) string {
	ids := make([]string, len(codes))
	for i, c := range codes {
		ids[i] = c.ID()
	}
	return "[" + strings.Join(ids, " ") + "]"
}

func emitArtifacts(dir string, outcomes []buildpipeline.Outcome) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, o := range outcomes {
		if o.Failed() || o.Result.Program == nil {
			continue
		}
		data, err := instr.Marshal(o.Result.Program)
		if err != nil {
			return fmt.Errorf("%s: %w", o.Job, err)
		}
		if err := os.WriteFile(filepath.Join(dir, o.Job+".avm"), data, 0o644); err != nil {
			return err
		}
	}
	return nil
}

func diagnostics(reports []fixtureReport) []diag.Diagnostic {
	var all []diag.Diagnostic
	for _, r := range reports {
		if r.outcome.Result != nil {
			all = append(all, r.outcome.Result.Diagnostics...)
		}
	}
	return all
}

func writeSelftestPretty(w io.Writer, reports []fixtureReport, colored bool) {
	for _, r := range reports {
		status := "ok"
		if r.problem != "" {
			status = "FAIL"
		}
		fmt.Fprintf(w, "%-4s %s", status, r.fixture.Name)
		if r.problem != "" {
			fmt.Fprintf(w, ": %s", r.problem)
		}
		fmt.Fprintln(w)
		if r.problem != "" && r.outcome.Result != nil {
			diagfmt.Pretty(w, r.outcome.Result.Diagnostics, nil, diagfmt.PrettyOpts{Color: colored, ShowNotes: true})
		}
	}
}

func writeSelftestJSON(w io.Writer, reports []fixtureReport) error {
	payload := make([]selftestJSON, len(reports))
	for i, r := range reports {
		entry := selftestJSON{Name: r.fixture.Name, Passed: r.problem == "", Problem: r.problem}
		if res := r.outcome.Result; res != nil {
			entry.HaltedAt = res.HaltedAt
			entry.Diagnostics = diagfmt.BuildDiagnosticsOutput(res.Diagnostics, nil, diagfmt.JSONOpts{IncludeNotes: true})
		}
		payload[i] = entry
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func writeSelftestSarif(w io.Writer, reports []fixtureReport) error {
	return diagfmt.Sarif(w, diagnostics(reports), nil, diagfmt.SarifRunMeta{
		ToolName:       "veil",
		ToolVersion:    version.Version,
		InvocationArgs: os.Args,
	})
}
