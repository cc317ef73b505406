package consteval_test

import (
	"errors"
	"math/big"
	"testing"

	"github.com/nalgeon/be"

	"veil/internal/ast"
	"veil/internal/consteval"
	"veil/internal/symbols"
	"veil/internal/types"
)

func evalExpr(t *testing.T, e *ast.Expr) (consteval.Value, error) {
	t.Helper()
	ev := consteval.New(types.NewInterner(), nil)
	return ev.Eval(e)
}

func errKind(err error) consteval.ErrorKind {
	var ce *consteval.Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return 0
}

func TestIntegerArithmetic(t *testing.T) {
	b := ast.NewBuilder(1)
	cases := []struct {
		name string
		expr *ast.Expr
		want int64
	}{
		{"add", b.Bin(ast.OpAdd, b.Lit("2u8"), b.Lit("3u8")), 5},
		{"untyped peer", b.Bin(ast.OpMul, b.Lit("7"), b.Lit("6u32")), 42},
		{"div truncates", b.Bin(ast.OpDiv, b.Lit("7i8"), b.Unary(ast.UnaryNeg, b.Lit("2i8"))), -3},
		{"rem", b.Bin(ast.OpRem, b.Lit("17u16"), b.Lit("5u16")), 2},
		{"pow", b.Bin(ast.OpPow, b.Lit("3u32"), b.Lit("4u8")), 81},
		{"min i8", b.Unary(ast.UnaryNeg, b.Lit("128i8")), -128},
		{"shl drops bits", b.Bin(ast.OpShl, b.Lit("200u8"), b.Lit("1u8")), 144},
		{"shr arithmetic", b.Bin(ast.OpShr, b.Unary(ast.UnaryNeg, b.Lit("8i8")), b.Lit("1u8")), -4},
		{"not unsigned", b.Unary(ast.UnaryNot, b.Lit("0u8")), 255},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v, err := evalExpr(t, tc.expr)
			be.Err(t, err, nil)
			got, ok := v.Int64()
			be.True(t, ok)
			be.Equal(t, got, tc.want)
		})
	}
}

func TestOverflowAndDivision(t *testing.T) {
	b := ast.NewBuilder(1)
	cases := []struct {
		name string
		expr *ast.Expr
		want consteval.ErrorKind
	}{
		{"u8 add", b.Bin(ast.OpAdd, b.Lit("255u8"), b.Lit("1u8")), consteval.Overflow},
		{"u8 sub", b.Bin(ast.OpSub, b.Lit("0u8"), b.Lit("1u8")), consteval.Overflow},
		{"literal", b.Lit("300u8"), consteval.Overflow},
		{"positive 128i8", b.Lit("128i8"), consteval.Overflow},
		{"neg min", b.Unary(ast.UnaryNeg, b.Unary(ast.UnaryNeg, b.Lit("128i8"))), consteval.Overflow},
		{"div zero", b.Bin(ast.OpDiv, b.Lit("1u32"), b.Lit("0u32")), consteval.DivisionByZero},
		{"rem zero", b.Bin(ast.OpRem, b.Lit("1u32"), b.Lit("0u32")), consteval.DivisionByZero},
		{"wide shift", b.Bin(ast.OpShl, b.Lit("1u8"), b.Lit("8u8")), consteval.Overflow},
		{"pow", b.Bin(ast.OpPow, b.Lit("2u64"), b.Lit("64u8")), consteval.Overflow},
		{"runtime", b.Bin(ast.OpAdd, b.Ident("x"), b.Lit("1u8")), consteval.NotConstant},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := evalExpr(t, tc.expr)
			be.Equal(t, errKind(err), tc.want)
		})
	}
}

func TestErrorCarriesExpression(t *testing.T) {
	b := ast.NewBuilder(1)
	bad := b.Bin(ast.OpDiv, b.Lit("1u32"), b.Lit("0u32"))
	_, err := evalExpr(t, b.Bin(ast.OpAdd, b.Lit("1u32"), bad))
	var ce *consteval.Error
	be.True(t, errors.As(err, &ce))
	be.Equal(t, ce.Expr.ID, bad.ID)
}

func TestFieldArithmetic(t *testing.T) {
	b := ast.NewBuilder(1)
	v, err := evalExpr(t, b.Bin(ast.OpSub, b.Lit("1field"), b.Lit("2field")))
	be.Err(t, err, nil)
	want := new(big.Int).Sub(consteval.FieldModulus, big.NewInt(1))
	be.Equal(t, v.Int.Cmp(want), 0)

	// 3 / 2 * 2 == 3 in the field
	div := b.Bin(ast.OpDiv, b.Lit("3field"), b.Lit("2field"))
	v, err = evalExpr(t, b.Bin(ast.OpMul, div, b.Lit("2field")))
	be.Err(t, err, nil)
	be.Equal(t, v.Int.Int64(), int64(3))

	_, err = evalExpr(t, b.Bin(ast.OpDiv, b.Lit("3field"), b.Lit("0field")))
	be.Equal(t, errKind(err), consteval.DivisionByZero)

	_, err = evalExpr(t, b.Bin(ast.OpAdd, b.Lit("1group"), b.Lit("1group")))
	be.Equal(t, errKind(err), consteval.Unsupported)
}

func TestComparisonsAndLogic(t *testing.T) {
	b := ast.NewBuilder(1)
	cases := []struct {
		expr *ast.Expr
		want bool
	}{
		{b.Bin(ast.OpLt, b.Lit("1u8"), b.Lit("2u8")), true},
		{b.Bin(ast.OpGe, b.Unary(ast.UnaryNeg, b.Lit("1i32")), b.Lit("0i32")), false},
		{b.Bin(ast.OpEq, b.Lit("true"), b.Lit("true")), true},
		{b.Bin(ast.OpNe, b.Lit("5field"), b.Lit("5field")), false},
		{b.Bin(ast.OpAnd, b.Lit("false"), b.Ident("runtime")), false},
		{b.Bin(ast.OpOr, b.Lit("true"), b.Ident("runtime")), true},
		{b.Unary(ast.UnaryNot, b.Lit("false")), true},
	}
	for _, tc := range cases {
		v, err := evalExpr(t, tc.expr)
		be.Err(t, err, nil)
		be.Equal(t, v.Bool, tc.want)
	}
}

func TestTernaryEvaluatesChosenArm(t *testing.T) {
	b := ast.NewBuilder(1)
	e := b.Ternary(b.Lit("true"), b.Lit("1u8"), b.Bin(ast.OpDiv, b.Lit("1u8"), b.Lit("0u8")))
	v, err := evalExpr(t, e)
	be.Err(t, err, nil)
	be.Equal(t, v.Int.Int64(), int64(1))
}

func TestCasts(t *testing.T) {
	in := types.NewInterner()
	bt := in.Builtins()
	ev := consteval.New(in, nil)

	v, err := ev.Cast(consteval.IntValue(types.KindUint, bt.U32, big.NewInt(200)), bt.U8)
	be.Err(t, err, nil)
	be.Equal(t, v.Type, bt.U8)

	_, err = ev.Cast(consteval.IntValue(types.KindUint, bt.U32, big.NewInt(256)), bt.U8)
	be.Equal(t, errKind(err), consteval.Overflow)

	v, err = ev.Cast(consteval.IntValue(types.KindInt, bt.I8, big.NewInt(-1)), bt.Field)
	be.Err(t, err, nil)
	be.Equal(t, v.Int.Cmp(new(big.Int).Sub(consteval.FieldModulus, big.NewInt(1))), 0)

	v, err = ev.Cast(consteval.BoolValue(bt.Bool, true), bt.U8)
	be.Err(t, err, nil)
	be.Equal(t, v.Int.Int64(), int64(1))

	_, err = ev.Cast(consteval.IntValue(types.KindField, bt.Field, new(big.Int).Set(consteval.ScalarModulus)), bt.Scalar)
	be.Equal(t, errKind(err), consteval.Overflow)
}

func TestLookupBindsSymbols(t *testing.T) {
	in := types.NewInterner()
	b := ast.NewBuilder(1)
	x := b.Ident("x")
	x.Data = ast.IdentData{Name: "x", Symbol: 4}
	lookup := func(id symbols.SymbolID) (consteval.Value, bool) {
		if id == 4 {
			return consteval.IntValue(types.KindUint, in.Builtins().U8, big.NewInt(9)), true
		}
		return consteval.Value{}, false
	}
	v, err := consteval.New(in, lookup).Eval(b.Bin(ast.OpAdd, x, b.Lit("1")))
	be.Err(t, err, nil)
	be.Equal(t, v.Int.Int64(), int64(10))
	be.Equal(t, v.Type, in.Builtins().U8)
}

func TestValueLiteral(t *testing.T) {
	in := types.NewInterner()
	v := consteval.IntValue(types.KindInt, in.Builtins().I16, big.NewInt(-7))
	lit := v.Literal(in)
	be.Equal(t, lit.Text, "-7")
	be.Equal(t, lit.Suffix, "i16")

	back, err := consteval.ParseLiteral(in, lit, types.NoTypeID, false)
	be.Err(t, err, nil)
	be.True(t, back.Equal(v))
}
