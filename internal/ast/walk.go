package ast

// ExprChildren returns the direct subexpressions of e in evaluation order.
// Generic arguments and type annotations are not included.
func ExprChildren(e *Expr) []*Expr {
	if e == nil {
		return nil
	}
	switch d := e.Data.(type) {
	case LiteralData, IdentData, ContextData:
		return nil
	case UnaryData:
		return []*Expr{d.Operand}
	case BinaryData:
		return []*Expr{d.Left, d.Right}
	case TernaryData:
		return []*Expr{d.Cond, d.Then, d.Else}
	case SelectData:
		return []*Expr{d.Cond, d.Then, d.Else}
	case CallData:
		return d.Args
	case CastData:
		return []*Expr{d.Value}
	case StructLitData:
		out := make([]*Expr, len(d.Fields))
		for i, f := range d.Fields {
			out[i] = f.Value
		}
		return out
	case MemberData:
		return []*Expr{d.Target}
	case TupleLitData:
		return d.Elems
	case TupleAccessData:
		return []*Expr{d.Target}
	case ArrayLitData:
		return d.Elems
	case IndexData:
		return []*Expr{d.Target, d.Index}
	case MappingOpData:
		return append([]*Expr{d.Mapping}, d.Args...)
	case AwaitData:
		return []*Expr{d.Future}
	}
	return nil
}

// WalkExpr visits e and its subexpressions in pre-order. Returning false
// from f skips the children of that node.
func WalkExpr(e *Expr, f func(*Expr) bool) {
	if e == nil || !f(e) {
		return
	}
	for _, c := range ExprChildren(e) {
		WalkExpr(c, f)
	}
}

// StmtExprs returns the expressions held directly by s (nested blocks
// excluded).
func StmtExprs(s *Stmt) []*Expr {
	switch d := s.Data.(type) {
	case LetData:
		return []*Expr{d.Value}
	case ConstData:
		return []*Expr{d.Value}
	case AssignData:
		return []*Expr{d.Target, d.Value}
	case ExprStmtData:
		if d.Guard != nil {
			return []*Expr{d.Value, d.Guard}
		}
		return []*Expr{d.Value}
	case ReturnData:
		if d.Value == nil {
			return nil
		}
		return []*Expr{d.Value}
	case IfData:
		return []*Expr{d.Cond}
	case ForData:
		return []*Expr{d.Start, d.End}
	case AssertData:
		if d.Right == nil {
			return []*Expr{d.Left}
		}
		return []*Expr{d.Left, d.Right}
	}
	return nil
}

// StmtBlocks returns the blocks nested directly in s.
func StmtBlocks(s *Stmt) []*Block {
	switch d := s.Data.(type) {
	case IfData:
		if d.Else != nil {
			return []*Block{d.Then, d.Else}
		}
		return []*Block{d.Then}
	case ForData:
		return []*Block{d.Body}
	case BlockStmtData:
		return []*Block{d.Block}
	}
	return nil
}

// WalkStmts visits every statement of b, descending into nested blocks.
// Returning false from f skips the blocks nested in that statement.
func WalkStmts(b *Block, f func(*Stmt) bool) {
	if b == nil {
		return
	}
	for _, s := range b.Stmts {
		if !f(s) {
			continue
		}
		for _, nb := range StmtBlocks(s) {
			WalkStmts(nb, f)
		}
	}
}

// WalkBlockExprs visits every expression of every statement in b.
func WalkBlockExprs(b *Block, f func(*Expr) bool) {
	WalkStmts(b, func(s *Stmt) bool {
		for _, e := range StmtExprs(s) {
			WalkExpr(e, f)
		}
		return true
	})
}

// RewriteExpr rebuilds e bottom-up: children are rewritten first, then f
// may return a replacement for the node (or the node itself).
func RewriteExpr(e *Expr, f func(*Expr) *Expr) *Expr {
	if e == nil {
		return nil
	}
	rw := func(c *Expr) *Expr { return RewriteExpr(c, f) }
	switch d := e.Data.(type) {
	case UnaryData:
		d.Operand = rw(d.Operand)
		e.Data = d
	case BinaryData:
		d.Left, d.Right = rw(d.Left), rw(d.Right)
		e.Data = d
	case TernaryData:
		d.Cond, d.Then, d.Else = rw(d.Cond), rw(d.Then), rw(d.Else)
		e.Data = d
	case SelectData:
		d.Cond, d.Then, d.Else = rw(d.Cond), rw(d.Then), rw(d.Else)
		e.Data = d
	case CallData:
		for i := range d.Args {
			d.Args[i] = rw(d.Args[i])
		}
		e.Data = d
	case CastData:
		d.Value = rw(d.Value)
		e.Data = d
	case StructLitData:
		for _, fi := range d.Fields {
			fi.Value = rw(fi.Value)
		}
	case MemberData:
		d.Target = rw(d.Target)
		e.Data = d
	case TupleLitData:
		for i := range d.Elems {
			d.Elems[i] = rw(d.Elems[i])
		}
	case TupleAccessData:
		d.Target = rw(d.Target)
		e.Data = d
	case ArrayLitData:
		for i := range d.Elems {
			d.Elems[i] = rw(d.Elems[i])
		}
	case IndexData:
		d.Target, d.Index = rw(d.Target), rw(d.Index)
		e.Data = d
	case MappingOpData:
		d.Mapping = rw(d.Mapping)
		for i := range d.Args {
			d.Args[i] = rw(d.Args[i])
		}
		e.Data = d
	case AwaitData:
		d.Future = rw(d.Future)
		e.Data = d
	}
	return f(e)
}

// RewriteStmtExprs applies RewriteExpr to every expression held directly by s.
func RewriteStmtExprs(s *Stmt, f func(*Expr) *Expr) {
	rw := func(e *Expr) *Expr { return RewriteExpr(e, f) }
	switch d := s.Data.(type) {
	case LetData:
		d.Value = rw(d.Value)
		s.Data = d
	case ConstData:
		d.Value = rw(d.Value)
		s.Data = d
	case AssignData:
		d.Value = rw(d.Value)
		s.Data = d
	case ExprStmtData:
		d.Value = rw(d.Value)
		d.Guard = rw(d.Guard)
		s.Data = d
	case ReturnData:
		d.Value = rw(d.Value)
		s.Data = d
	case IfData:
		d.Cond = rw(d.Cond)
		s.Data = d
	case ForData:
		d.Start, d.End = rw(d.Start), rw(d.End)
		s.Data = d
	case AssertData:
		d.Left, d.Right = rw(d.Left), rw(d.Right)
		s.Data = d
	}
}

// RewriteBlockExprs applies RewriteExpr to every statement of b and nested blocks.
func RewriteBlockExprs(b *Block, f func(*Expr) *Expr) {
	WalkStmts(b, func(s *Stmt) bool {
		RewriteStmtExprs(s, f)
		return true
	})
}

// Contains reports whether any statement of b (nested included) satisfies pred.
func Contains(b *Block, pred func(*Stmt) bool) bool {
	found := false
	WalkStmts(b, func(s *Stmt) bool {
		if pred(s) {
			found = true
		}
		return !found
	})
	return found
}
