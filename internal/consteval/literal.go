package consteval

import (
	"math/big"
	"strings"

	"veil/internal/ast"
	"veil/internal/types"
)

// SuffixType maps a literal suffix to its type.
func SuffixType(in *types.Interner, suffix string) (types.TypeID, bool) {
	b := in.Builtins()
	switch suffix {
	case "u8":
		return b.U8, true
	case "u16":
		return b.U16, true
	case "u32":
		return b.U32, true
	case "u64":
		return b.U64, true
	case "u128":
		return b.U128, true
	case "i8":
		return b.I8, true
	case "i16":
		return b.I16, true
	case "i32":
		return b.I32, true
	case "i64":
		return b.I64, true
	case "i128":
		return b.I128, true
	case "field":
		return b.Field, true
	case "group":
		return b.Group, true
	case "scalar":
		return b.Scalar, true
	}
	return types.NoTypeID, false
}

// ParseLiteral decodes lit as a value of type ty. ty may be NoTypeID for
// an unsuffixed integer whose type is not known yet; such values are
// unbounded. When negate is set the literal is the operand of unary minus,
// which lets the most negative signed value be written.
func ParseLiteral(in *types.Interner, lit ast.LiteralData, ty types.TypeID, negate bool) (Value, error) {
	switch lit.Kind {
	case ast.LitBool:
		return BoolValue(in.Builtins().Bool, lit.Text == "true"), nil
	case ast.LitAddress:
		return Value{Kind: types.KindAddress, Type: in.Builtins().Address, Addr: lit.Text}, nil
	}
	if ty == types.NoTypeID && lit.Suffix != "" {
		ty, _ = SuffixType(in, lit.Suffix)
	}
	n, ok := new(big.Int).SetString(strings.ReplaceAll(lit.Text, "_", ""), 10)
	if !ok {
		return Value{}, fail(NotConstant, nil, "malformed literal %q", lit.Text)
	}
	if negate {
		n.Neg(n)
	}
	kind := types.KindInt
	if ty != types.NoTypeID {
		kind = in.MustLookup(ty).Kind
	}
	v := IntValue(kind, ty, n)
	switch kind {
	case types.KindField, types.KindScalar:
		mod := modulus(kind)
		if new(big.Int).Abs(n).Cmp(mod) >= 0 {
			return Value{}, fail(Overflow, nil, "literal %s%s is not below the %s modulus", lit.Text, lit.Suffix, kind)
		}
		v.Int.Mod(v.Int, mod)
		return v, nil
	case types.KindGroup:
		return v, nil
	case types.KindInt, types.KindUint:
		if err := checkRange(in, v); err != nil {
			return Value{}, err
		}
		return v, nil
	}
	return Value{}, fail(NotConstant, nil, "literal %s cannot have type %s", lit.Text, types.Label(in, ty))
}

func modulus(k types.Kind) *big.Int {
	if k == types.KindScalar {
		return ScalarModulus
	}
	return FieldModulus
}

// checkRange verifies that an integer value fits its type.
func checkRange(in *types.Interner, v Value) error {
	if v.Type == types.NoTypeID {
		return nil
	}
	t := in.MustLookup(v.Type)
	if !t.IsInteger() {
		return nil
	}
	lo, hi := IntRange(t)
	if v.Int.Cmp(lo) < 0 || v.Int.Cmp(hi) > 0 {
		return fail(Overflow, nil, "value %s does not fit in %s", v.Int, types.Label(in, v.Type))
	}
	return nil
}
