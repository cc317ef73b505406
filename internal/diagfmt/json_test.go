package diagfmt

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/nalgeon/be"

	"veil/internal/diag"
	"veil/internal/source"
)

func TestJSONBasic(t *testing.T) {
	fs := source.NewFileSet()
	content := []byte("transition main() {\n    let x: u8 = 300u8;\n}")
	fileID := fs.AddVirtual("main.leo", content)
	start := uint32(bytes.Index(content, []byte("300u8")))
	items := []diag.Diagnostic{
		diag.New(diag.SevError, diag.StaConstOverflow, source.Span{File: fileID, Start: start, End: start + 5}, "constant 300 overflows u8"),
	}

	var buf bytes.Buffer
	be.Err(t, JSON(&buf, items, fs, JSONOpts{IncludePositions: true, PathMode: PathModeBasename}), nil)

	var out DiagnosticsOutput
	be.Err(t, json.Unmarshal(buf.Bytes(), &out), nil)
	be.Equal(t, out.Count, 1)
	d := out.Diagnostics[0]
	be.Equal(t, d.Severity, "ERROR")
	be.Equal(t, d.Code, "STA3006")
	be.Equal(t, d.Title, diag.StaConstOverflow.Title())
	be.Equal(t, d.Location.File, "main.leo")
	be.Equal(t, d.Location.StartByte, start)
	be.Equal(t, d.Location.StartLine, uint32(2))
	be.Equal(t, d.Location.StartCol, uint32(17))
}

func TestJSONNotesFixesAndMax(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("main.leo", []byte("let x = 42"))
	d := diag.New(diag.SevWarning, diag.StaFutureNotAwaited, source.Span{File: fileID, Start: 4, End: 5}, "future 'x' is never awaited")
	d = d.WithNote(source.Span{File: fileID, Start: 4, End: 5}, "bound here")
	d = d.WithFix("add semicolon", diag.FixEdit{Span: source.Span{File: fileID, Start: 10, End: 10}, NewText: ";"})
	items := []diag.Diagnostic{d, diag.New(diag.SevInfo, diag.PipInfo, source.Span{}, "second")}

	out := BuildDiagnosticsOutput(items, fs, JSONOpts{IncludeNotes: true, IncludeFixes: true, IncludePreviews: true, Max: 1})
	be.Equal(t, out.Count, 1)
	got := out.Diagnostics[0]
	be.Equal(t, len(got.Notes), 1)
	be.Equal(t, got.Notes[0].Message, "bound here")
	be.Equal(t, len(got.Fixes), 1)
	be.Equal(t, got.Fixes[0].Edits[0].AfterLines, []string{"let x = 42;"})
}

func TestJSONWithoutFileSet(t *testing.T) {
	items := []diag.Diagnostic{diag.New(diag.SevError, diag.MonCycle, source.Span{Start: 1, End: 4}, "instantiation cycle")}
	out := BuildDiagnosticsOutput(items, nil, JSONOpts{IncludePositions: true})
	be.Equal(t, out.Diagnostics[0].Location, LocationJSON{StartByte: 1, EndByte: 4})
}

func TestSarif(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("main.leo", []byte("let x = y;\n"))
	items := []diag.Diagnostic{
		diag.New(diag.SevError, diag.ResUnresolvedSymbol, source.Span{File: fileID, Start: 8, End: 9}, "unresolved name 'y'"),
		diag.New(diag.SevWarning, diag.MonUnreachableInst, source.Span{File: fileID, Start: 0, End: 3}, "never instantiated"),
	}

	var buf bytes.Buffer
	be.Err(t, Sarif(&buf, items, fs, SarifRunMeta{ToolName: "veil", ToolVersion: "0.1.0", InvocationArgs: []string{"veil", "build"}}), nil)

	var log struct {
		Version string `json:"version"`
		Runs    []struct {
			Tool struct {
				Driver struct {
					Rules []struct {
						ID string `json:"id"`
					} `json:"rules"`
				} `json:"driver"`
			} `json:"tool"`
			Invocations []struct {
				ExecutionSuccessful bool `json:"executionSuccessful"`
			} `json:"invocations"`
			Results []struct {
				RuleID string `json:"ruleId"`
				Level  string `json:"level"`
			} `json:"results"`
		} `json:"runs"`
	}
	be.Err(t, json.Unmarshal(buf.Bytes(), &log), nil)
	be.Equal(t, log.Version, "2.1.0")
	run := log.Runs[0]
	be.Equal(t, len(run.Tool.Driver.Rules), 2)
	be.Equal(t, run.Tool.Driver.Rules[0].ID, "MON5004")
	be.Equal(t, run.Results[0].Level, "error")
	be.Equal(t, run.Results[1].Level, "warning")
	be.Equal(t, run.Invocations[0].ExecutionSuccessful, false)
}
