package consteval

import (
	"fmt"
	"math/big"

	"veil/internal/ast"
	"veil/internal/types"
)

// Moduli of the target's field and scalar domains.
var (
	FieldModulus, _  = new(big.Int).SetString("8444461749428370424248824938781546531375899335154063827935233455917409239041", 10)
	ScalarModulus, _ = new(big.Int).SetString("2111115437357092606062206234695386632838870926408408195193685246394721360383", 10)
)

// Value is a compile-time constant. Int holds integers, field and scalar
// elements; Bool and Addr hold the other primitive kinds.
type Value struct {
	Kind types.Kind
	Type types.TypeID // NoTypeID for an integer whose type is not known yet
	Int  *big.Int
	Bool bool
	Addr string
}

// IntValue builds an integer-like value.
func IntValue(kind types.Kind, ty types.TypeID, v *big.Int) Value {
	return Value{Kind: kind, Type: ty, Int: v}
}

func BoolValue(ty types.TypeID, b bool) Value {
	return Value{Kind: types.KindBool, Type: ty, Bool: b}
}

// Int64 returns integer values that fit in int64.
func (v Value) Int64() (int64, bool) {
	if v.Int == nil || !v.Int.IsInt64() {
		return 0, false
	}
	return v.Int.Int64(), true
}

// Equal compares two values of the same kind.
func (v Value) Equal(o Value) bool {
	switch v.Kind {
	case types.KindBool:
		return v.Bool == o.Bool
	case types.KindAddress:
		return v.Addr == o.Addr
	}
	if v.Int == nil || o.Int == nil {
		return false
	}
	return v.Int.Cmp(o.Int) == 0
}

func (v Value) String() string {
	switch v.Kind {
	case types.KindBool:
		return fmt.Sprint(v.Bool)
	case types.KindAddress:
		return v.Addr
	}
	if v.Int == nil {
		return "?"
	}
	return v.Int.String()
}

// Literal renders v as a literal payload with an explicit suffix.
func (v Value) Literal(in *types.Interner) ast.LiteralData {
	switch v.Kind {
	case types.KindBool:
		return ast.LiteralData{Kind: ast.LitBool, Text: fmt.Sprint(v.Bool)}
	case types.KindAddress:
		return ast.LiteralData{Kind: ast.LitAddress, Text: v.Addr}
	case types.KindField:
		return ast.LiteralData{Kind: ast.LitField, Text: v.Int.String(), Suffix: "field"}
	case types.KindScalar:
		return ast.LiteralData{Kind: ast.LitScalar, Text: v.Int.String(), Suffix: "scalar"}
	case types.KindGroup:
		return ast.LiteralData{Kind: ast.LitGroup, Text: v.Int.String(), Suffix: "group"}
	}
	suffix := ""
	if v.Type != types.NoTypeID && in != nil {
		suffix = types.Label(in, v.Type)
	}
	return ast.LiteralData{Kind: ast.LitInt, Text: v.Int.String(), Suffix: suffix}
}

// Expr builds a typed literal node for v derived from meta.
func (v Value) Expr(in *types.Interner, meta ast.Meta) *ast.Expr {
	return &ast.Expr{Meta: meta, Kind: ast.ExprLiteral, Type: v.Type, Data: v.Literal(in)}
}

// IntRange returns the inclusive bounds of an integer type.
func IntRange(t types.Type) (lo, hi *big.Int) {
	w := uint(t.Width)
	if t.Kind == types.KindInt {
		hi = new(big.Int).Lsh(big.NewInt(1), w-1)
		lo = new(big.Int).Neg(hi)
		hi.Sub(hi, big.NewInt(1))
		return lo, hi
	}
	hi = new(big.Int).Lsh(big.NewInt(1), w)
	hi.Sub(hi, big.NewInt(1))
	return big.NewInt(0), hi
}
