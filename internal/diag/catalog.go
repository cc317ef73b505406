package diag

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

//go:embed explain.md
var explainSource []byte

// Explanation is the long-form documentation of one code.
type Explanation struct {
	Code    Code
	Summary []string // paragraphs
	Example string   // first fenced block, if any
}

var (
	catalogOnce sync.Once
	catalog     map[Code]Explanation
	catalogErr  error
)

// Explain returns the catalog entry for c.
func Explain(c Code) (Explanation, bool, error) {
	catalogOnce.Do(func() {
		catalog, catalogErr = ParseCatalog(explainSource)
	})
	if catalogErr != nil {
		return Explanation{}, false, catalogErr
	}
	e, ok := catalog[c]
	return e, ok, nil
}

// ParseCatalog reads a markdown document whose level-2 headings are code IDs
// ("## TYP2002") followed by paragraphs and an optional fenced example.
func ParseCatalog(src []byte) (map[Code]Explanation, error) {
	doc := goldmark.New().Parser().Parse(text.NewReader(src))
	out := make(map[Code]Explanation)
	var cur *Explanation

	flush := func() {
		if cur != nil {
			out[cur.Code] = *cur
		}
	}
	err := ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := node.(type) {
		case *ast.Heading:
			if n.Level != 2 {
				return ast.WalkSkipChildren, nil
			}
			id := strings.TrimSpace(nodeText(n, src))
			code, ok := ParseCode(id)
			if !ok {
				return ast.WalkStop, fmt.Errorf("line %d: unknown diagnostic code %q", lineOf(n, src), id)
			}
			flush()
			cur = &Explanation{Code: code}
			return ast.WalkSkipChildren, nil
		case *ast.Paragraph:
			if cur != nil {
				cur.Summary = append(cur.Summary, nodeText(n, src))
			}
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock:
			if cur != nil && cur.Example == "" {
				var buf bytes.Buffer
				for i := 0; i < n.Lines().Len(); i++ {
					line := n.Lines().At(i)
					buf.Write(line.Value(src))
				}
				cur.Example = buf.String()
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}
	flush()
	return out, nil
}

func nodeText(node ast.Node, src []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := n.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(src))
			if t.SoftLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

func lineOf(node ast.Node, src []byte) int {
	if node.Lines().Len() == 0 {
		return 1
	}
	return bytes.Count(src[:node.Lines().At(0).Start], []byte{'\n'}) + 1
}
