package consteval

import (
	"errors"
	"math/big"

	"veil/internal/ast"
	"veil/internal/symbols"
	"veil/internal/types"
)

// Evaluator folds expressions whose operands are all known at compile
// time. Expression types must already be set, except for unsuffixed
// integer literals which then evaluate to unbounded integers.
type Evaluator struct {
	Types *types.Interner
	// Lookup returns the value bound to a const or unrolled loop variable.
	Lookup func(symbols.SymbolID) (Value, bool)
}

// New returns an evaluator over in with lookup as the binding source.
func New(in *types.Interner, lookup func(symbols.SymbolID) (Value, bool)) *Evaluator {
	return &Evaluator{Types: in, Lookup: lookup}
}

// Eval computes the value of e. Errors are *Error.
func (ev *Evaluator) Eval(e *ast.Expr) (Value, error) {
	v, err := ev.eval(e)
	if err != nil {
		return Value{}, ev.located(err, e)
	}
	return v, nil
}

// IsConstant reports whether e folds without error.
func (ev *Evaluator) IsConstant(e *ast.Expr) bool {
	_, err := ev.Eval(e)
	return err == nil
}

func (ev *Evaluator) eval(e *ast.Expr) (Value, error) {
	if e == nil {
		return Value{}, fail(NotConstant, nil, "missing expression")
	}
	switch d := e.Data.(type) {
	case ast.LiteralData:
		v, err := ParseLiteral(ev.Types, d, e.Type, false)
		return v, ev.located(err, e)
	case ast.IdentData:
		if ev.Lookup != nil && d.Symbol.IsValid() {
			if v, ok := ev.Lookup(d.Symbol); ok {
				return v, nil
			}
		}
		return Value{}, fail(NotConstant, e, "'%s' is not a compile-time constant", d.Name)
	case ast.UnaryData:
		if lit, ok := d.Operand.Literal(); ok && d.Op == ast.UnaryNeg && lit.Kind == ast.LitInt {
			ty := e.Type
			if ty == types.NoTypeID {
				ty = d.Operand.Type
			}
			v, err := ParseLiteral(ev.Types, lit, ty, true)
			return v, ev.located(err, e)
		}
		x, err := ev.eval(d.Operand)
		if err != nil {
			return Value{}, err
		}
		v, err := ev.unary(d.Op, x)
		return v, ev.located(err, e)
	case ast.BinaryData:
		return ev.binary(e, d)
	case ast.TernaryData:
		return ev.choose(d.Cond, d.Then, d.Else)
	case ast.SelectData:
		return ev.choose(d.Cond, d.Then, d.Else)
	case ast.CastData:
		x, err := ev.eval(d.Value)
		if err != nil {
			return Value{}, err
		}
		v, err := ev.Cast(x, e.Type)
		return v, ev.located(err, e)
	case ast.TupleLitData, ast.ArrayLitData, ast.StructLitData:
		return Value{}, fail(Unsupported, e, "aggregate values are not folded")
	}
	return Value{}, fail(NotConstant, e, "%s expression is not a compile-time constant", e.Kind)
}

func (ev *Evaluator) choose(cond, then, els *ast.Expr) (Value, error) {
	c, err := ev.eval(cond)
	if err != nil {
		return Value{}, err
	}
	if c.Kind != types.KindBool {
		return Value{}, fail(NotConstant, cond, "condition is not a boolean")
	}
	if c.Bool {
		return ev.eval(then)
	}
	return ev.eval(els)
}

func (ev *Evaluator) unary(op ast.UnaryOp, x Value) (Value, error) {
	switch op {
	case ast.UnaryNot:
		switch x.Kind {
		case types.KindBool:
			return BoolValue(x.Type, !x.Bool), nil
		case types.KindInt:
			return IntValue(x.Kind, x.Type, new(big.Int).Not(x.Int)), nil
		case types.KindUint:
			if x.Type == types.NoTypeID {
				break
			}
			_, hi := IntRange(ev.Types.MustLookup(x.Type))
			return IntValue(x.Kind, x.Type, new(big.Int).Sub(hi, x.Int)), nil
		}
	case ast.UnaryNeg:
		switch x.Kind {
		case types.KindInt, types.KindUint:
			r := IntValue(x.Kind, x.Type, new(big.Int).Neg(x.Int))
			return r, checkRange(ev.Types, r)
		case types.KindField, types.KindScalar:
			r := new(big.Int).Neg(x.Int)
			return IntValue(x.Kind, x.Type, r.Mod(r, modulus(x.Kind))), nil
		}
	}
	return Value{}, fail(Unsupported, nil, "cannot fold %s of %s", op, x.Kind)
}

// unify gives an untyped integer operand the type of its peer.
func unify(l, r Value) (Value, Value) {
	if l.Type == types.NoTypeID && r.Type != types.NoTypeID && l.Int != nil {
		l.Type, l.Kind = r.Type, r.Kind
	}
	if r.Type == types.NoTypeID && l.Type != types.NoTypeID && r.Int != nil {
		r.Type, r.Kind = l.Type, l.Kind
	}
	return l, r
}

func (ev *Evaluator) binary(e *ast.Expr, d ast.BinaryData) (Value, error) {
	l, err := ev.eval(d.Left)
	if err != nil {
		return Value{}, err
	}
	// short-circuit keeps `false && x` constant even when x is not
	if l.Kind == types.KindBool && (d.Op == ast.OpAnd && !l.Bool || d.Op == ast.OpOr && l.Bool) {
		return BoolValue(l.Type, l.Bool), nil
	}
	r, err := ev.eval(d.Right)
	if err != nil {
		return Value{}, err
	}
	// shift and pow amounts keep their own type
	if d.Op != ast.OpShl && d.Op != ast.OpShr && d.Op != ast.OpPow {
		l, r = unify(l, r)
	}
	boolT := ev.Types.Builtins().Bool
	if d.Op.IsComparison() {
		c, err := compare(d.Op, l, r)
		if err != nil {
			return Value{}, ev.located(err, e)
		}
		return BoolValue(boolT, c), nil
	}
	var v Value
	switch l.Kind {
	case types.KindBool:
		v, err = boolOp(d.Op, l, r)
	case types.KindInt, types.KindUint:
		v, err = ev.intOp(d.Op, l, r)
	case types.KindField, types.KindScalar:
		v, err = modOp(d.Op, l, r)
	default:
		err = fail(Unsupported, nil, "cannot fold %s on %s", d.Op, l.Kind)
	}
	if err != nil {
		return Value{}, ev.located(err, e)
	}
	return v, nil
}

// located attaches e to an error that has no location yet.
func (ev *Evaluator) located(err error, e *ast.Expr) error {
	var ce *Error
	if errors.As(err, &ce) && ce.Expr == nil {
		ce.Expr = e
	}
	return err
}

func compare(op ast.BinaryOp, l, r Value) (bool, error) {
	switch op {
	case ast.OpEq:
		return l.Equal(r), nil
	case ast.OpNe:
		return !l.Equal(r), nil
	}
	if l.Int == nil || r.Int == nil {
		return false, fail(Unsupported, nil, "cannot order %s values", l.Kind)
	}
	c := l.Int.Cmp(r.Int)
	switch op {
	case ast.OpLt:
		return c < 0, nil
	case ast.OpLe:
		return c <= 0, nil
	case ast.OpGt:
		return c > 0, nil
	case ast.OpGe:
		return c >= 0, nil
	}
	return false, fail(Unsupported, nil, "unknown comparison %s", op)
}

func boolOp(op ast.BinaryOp, l, r Value) (Value, error) {
	switch op {
	case ast.OpAnd, ast.OpBitAnd:
		return BoolValue(l.Type, l.Bool && r.Bool), nil
	case ast.OpOr, ast.OpBitOr:
		return BoolValue(l.Type, l.Bool || r.Bool), nil
	case ast.OpBitXor:
		return BoolValue(l.Type, l.Bool != r.Bool), nil
	}
	return Value{}, fail(Unsupported, nil, "cannot fold %s on bool", op)
}

func (ev *Evaluator) intOp(op ast.BinaryOp, l, r Value) (Value, error) {
	res := new(big.Int)
	switch op {
	case ast.OpAdd:
		res.Add(l.Int, r.Int)
	case ast.OpSub:
		res.Sub(l.Int, r.Int)
	case ast.OpMul:
		res.Mul(l.Int, r.Int)
	case ast.OpDiv, ast.OpRem:
		if r.Int.Sign() == 0 {
			return Value{}, fail(DivisionByZero, nil, "%s by zero", op)
		}
		if op == ast.OpDiv {
			res.Quo(l.Int, r.Int)
		} else {
			res.Rem(l.Int, r.Int)
		}
	case ast.OpPow:
		if r.Int.Sign() < 0 {
			return Value{}, fail(Overflow, nil, "negative exponent %s", r.Int)
		}
		// |base| > 1 with an exponent past 128 cannot fit any width
		if new(big.Int).Abs(l.Int).Cmp(big.NewInt(1)) > 0 && r.Int.Cmp(big.NewInt(128)) > 0 {
			return Value{}, fail(Overflow, nil, "%s ** %s overflows", l.Int, r.Int)
		}
		res.Exp(l.Int, r.Int, nil)
	case ast.OpBitAnd:
		res.And(l.Int, r.Int)
	case ast.OpBitOr:
		res.Or(l.Int, r.Int)
	case ast.OpBitXor:
		res.Xor(l.Int, r.Int)
	case ast.OpShl, ast.OpShr:
		return ev.shift(op, l, r)
	default:
		return Value{}, fail(Unsupported, nil, "cannot fold %s on integers", op)
	}
	v := IntValue(l.Kind, l.Type, res)
	return v, checkRange(ev.Types, v)
}

// shift folds checked shifts: the distance must stay below the width and
// bits shifted out of the width are dropped.
func (ev *Evaluator) shift(op ast.BinaryOp, l, r Value) (Value, error) {
	if l.Type == types.NoTypeID {
		return Value{}, fail(NotConstant, nil, "shift of an untyped integer")
	}
	t := ev.Types.MustLookup(l.Type)
	if r.Int.Sign() < 0 || r.Int.Cmp(big.NewInt(int64(t.Width))) >= 0 {
		return Value{}, fail(Overflow, nil, "shift by %s is not below the %d-bit width", r.Int, t.Width)
	}
	n := uint(r.Int.Uint64())
	if op == ast.OpShr {
		// Rsh rounds toward negative infinity, i.e. an arithmetic shift
		return IntValue(l.Kind, l.Type, new(big.Int).Rsh(l.Int, n)), nil
	}
	return IntValue(l.Kind, l.Type, wrap(t, new(big.Int).Lsh(l.Int, n))), nil
}

// wrap truncates x to t's width using two's complement.
func wrap(t types.Type, x *big.Int) *big.Int {
	w := uint(t.Width)
	mod := new(big.Int).Lsh(big.NewInt(1), w)
	x = new(big.Int).Mod(x, mod)
	if t.Kind == types.KindInt && x.Bit(int(w)-1) == 1 {
		x.Sub(x, mod)
	}
	return x
}

func modOp(op ast.BinaryOp, l, r Value) (Value, error) {
	mod := modulus(l.Kind)
	res := new(big.Int)
	switch op {
	case ast.OpAdd:
		res.Add(l.Int, r.Int)
	case ast.OpSub:
		res.Sub(l.Int, r.Int)
	case ast.OpMul:
		res.Mul(l.Int, r.Int)
	case ast.OpDiv:
		if l.Kind != types.KindField {
			return Value{}, fail(Unsupported, nil, "cannot fold / on %s", l.Kind)
		}
		if r.Int.Sign() == 0 {
			return Value{}, fail(DivisionByZero, nil, "field division by zero")
		}
		inv := new(big.Int).ModInverse(r.Int, mod)
		res.Mul(l.Int, inv)
	case ast.OpPow:
		if l.Kind != types.KindField {
			return Value{}, fail(Unsupported, nil, "cannot fold ** on %s", l.Kind)
		}
		res.Exp(l.Int, r.Int, mod)
	default:
		return Value{}, fail(Unsupported, nil, "cannot fold %s on %s", op, l.Kind)
	}
	return IntValue(l.Kind, l.Type, res.Mod(res, mod)), nil
}

// Cast converts x to the primitive type to. Lossy conversions fail.
func (ev *Evaluator) Cast(x Value, to types.TypeID) (Value, error) {
	if to == types.NoTypeID {
		return Value{}, fail(NotConstant, nil, "cast target is unknown")
	}
	t := ev.Types.MustLookup(to)
	if x.Kind == types.KindBool {
		if t.Kind == types.KindBool {
			return x, nil
		}
		n := big.NewInt(0)
		if x.Bool {
			n.SetInt64(1)
		}
		x = IntValue(types.KindUint, types.NoTypeID, n)
	}
	if x.Int == nil || x.Kind == types.KindGroup || t.Kind == types.KindGroup {
		return Value{}, fail(Unsupported, nil, "cannot fold cast from %s to %s", x.Kind, t.Kind)
	}
	switch t.Kind {
	case types.KindBool:
		if x.Int.Sign() == 0 {
			return BoolValue(to, false), nil
		}
		if x.Int.Cmp(big.NewInt(1)) == 0 {
			return BoolValue(to, true), nil
		}
		return Value{}, fail(Overflow, nil, "%s is not a boolean", x.Int)
	case types.KindInt, types.KindUint:
		v := IntValue(t.Kind, to, new(big.Int).Set(x.Int))
		return v, checkRange(ev.Types, v)
	case types.KindField, types.KindScalar:
		mod := modulus(t.Kind)
		if x.Int.Cmp(mod) >= 0 {
			return Value{}, fail(Overflow, nil, "%s is not below the %s modulus", x.Int, t.Kind)
		}
		n := new(big.Int).Mod(x.Int, mod)
		return IntValue(t.Kind, to, n), nil
	}
	return Value{}, fail(Unsupported, nil, "cannot fold cast to %s", t.Kind)
}
