// Package testkit holds program fixtures and tree checks shared by tests
// and the selftest command.
package testkit

import (
	"errors"
	"fmt"

	"veil/internal/ast"
	"veil/internal/source"
)

// CheckSpanInvariants verifies the shape of every function body in prog:
//  1. every statement and expression has a non-empty span in the file of
//     the program;
//  2. generated nodes point back at a valid origin span;
//  3. no node appears twice, neither by identity nor by pointer.
//
// Rewriting passes must preserve all three.
func CheckSpanInvariants(prog *ast.Program) error {
	if prog == nil {
		return fmt.Errorf("nil program")
	}
	c := &spanChecker{
		file:  prog.Span.File,
		ids:   make(map[ast.NodeID]string),
		exprs: make(map[*ast.Expr]bool),
		stmts: make(map[*ast.Stmt]bool),
	}
	for _, fn := range prog.Functions {
		if fn.Body == nil {
			continue
		}
		c.fn = fn.Name
		ast.WalkStmts(fn.Body, func(s *ast.Stmt) bool {
			if c.stmts[s] {
				c.fail("statement %s shared", s.Kind)
			}
			c.stmts[s] = true
			c.meta(s.Meta, s.Kind.String())
			for _, e := range ast.StmtExprs(s) {
				ast.WalkExpr(e, func(x *ast.Expr) bool {
					if c.exprs[x] {
						c.fail("expression '%s' shared", ast.ExprString(x))
					}
					c.exprs[x] = true
					c.meta(x.Meta, x.Kind.String())
					return true
				})
			}
			return true
		})
	}
	return errors.Join(c.errs...)
}

type spanChecker struct {
	file  source.FileID
	fn    string
	ids   map[ast.NodeID]string
	exprs map[*ast.Expr]bool
	stmts map[*ast.Stmt]bool
	errs  []error
}

func (c *spanChecker) fail(format string, args ...any) {
	c.errs = append(c.errs, fmt.Errorf("%s: %s", c.fn, fmt.Sprintf(format, args...)))
}

func (c *spanChecker) meta(m ast.Meta, what string) {
	if !m.ID.IsValid() {
		c.fail("%s without identity", what)
	} else if prev, dup := c.ids[m.ID]; dup {
		c.fail("%s reuses node %d of %s", what, m.ID, prev)
	} else {
		c.ids[m.ID] = what
	}
	if !m.Span.Valid() {
		c.fail("%s node %d has empty span %s", what, m.ID, m.Span)
	}
	if m.Span.File != c.file {
		c.fail("%s node %d points into file %d", what, m.ID, m.Span.File)
	}
	if m.Origin != nil && !m.Origin.Span.Valid() {
		c.fail("%s node %d derives from an empty span", what, m.ID)
	}
}
