package diagfmt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"veil/internal/diag"
	"veil/internal/source"
)

type palette struct {
	err, warn, info, note, gutter, caret *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:    color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		info:   color.New(color.FgCyan, color.Bold),
		note:   color.New(color.FgBlue, color.Bold),
		gutter: color.New(color.FgBlue),
		caret:  color.New(color.FgGreen, color.Bold),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.note, p.gutter, p.caret} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	}
	return p.info
}

// Pretty writes each diagnostic as
//
//	<path>:<line>:<col>: <SEV> <CODE>: <message>
//
// followed by the source excerpt with the span underlined, then notes and
// fixes when requested. Without a file set only the header lines are
// written. Items are printed in the order given.
func Pretty(w io.Writer, items []diag.Diagnostic, fs *source.FileSet, opts PrettyOpts) {
	p := newPalette(opts.Color)
	for i, d := range items {
		if i > 0 {
			fmt.Fprintln(w)
		}
		loc := location(fs, d.Primary, opts.PathMode, opts.BaseDir)
		if loc != "" {
			fmt.Fprint(w, loc+": ")
		}
		fmt.Fprintf(w, "%s: %s\n", p.severity(d.Severity).Sprintf("%s %s", d.Severity, d.Code.ID()), d.Message)
		excerpt(w, fs, d.Primary, int(opts.Context), p)

		if opts.ShowNotes {
			for _, n := range d.Notes {
				nloc := location(fs, n.Span, opts.PathMode, opts.BaseDir)
				if nloc != "" {
					nloc += ": "
				}
				fmt.Fprintf(w, "  %s %s%s\n", p.note.Sprint("note:"), nloc, n.Msg)
			}
		}
		if opts.ShowFixes {
			for j, fix := range d.Fixes {
				fmt.Fprintf(w, "  %s %s\n", p.note.Sprintf("fix #%d:", j+1), fix.Title)
				for _, e := range fix.Edits {
					fmt.Fprintf(w, "    edit %s apply=%s\n", location(fs, e.Span, opts.PathMode, opts.BaseDir), strconv.Quote(e.NewText))
					if !opts.ShowPreview {
						continue
					}
					pv, err := buildFixEditPreview(fs, e)
					if err != nil {
						continue
					}
					fmt.Fprintln(w, "    preview:")
					for _, l := range pv.before {
						fmt.Fprintf(w, "      - %s\n", l)
					}
					for _, l := range pv.after {
						fmt.Fprintf(w, "      + %s\n", l)
					}
				}
			}
		}
	}
}

// excerpt prints the primary line with context lines around it and a
// caret line under the span. Columns count display cells, so wide runes
// and tabs keep the carets aligned.
func excerpt(w io.Writer, fs *source.FileSet, sp source.Span, context int, p palette) {
	if fs == nil {
		return
	}
	f := fs.Get(sp.File)
	if f == nil {
		return
	}
	start, end := fs.Resolve(sp)
	if start.Line == 0 {
		return
	}
	first := max(int(start.Line)-context, 1)
	last := min(int(start.Line)+context, len(f.LineIdx))
	width := len(strconv.Itoa(last))
	for n := first; n <= last; n++ {
		line := f.Line(uint32(n)) // #nosec G115 -- bounded by LineIdx
		fmt.Fprintf(w, "%s %s\n", p.gutter.Sprintf("%*d |", width, n), expandTabs(line))
		if n != int(start.Line) {
			continue
		}
		from := int(start.Col) - 1
		to := len(line)
		if end.Line == start.Line {
			to = int(end.Col) - 1
		}
		from = min(from, len(line))
		to = min(max(to, from), len(line))
		pad := runewidth.StringWidth(expandTabs(line[:from]))
		span := max(runewidth.StringWidth(expandTabs(line[from:to])), 1)
		marks := "^" + strings.Repeat("~", span-1)
		fmt.Fprintf(w, "%s %s%s\n", p.gutter.Sprintf("%*s |", width, ""), strings.Repeat(" ", pad), p.caret.Sprint(marks))
	}
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", "    ")
}
