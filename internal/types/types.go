package types

import "fmt"

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type. Erroneous expressions carry it so
// that one mistake does not cascade.
const NoTypeID TypeID = 0

// Kind enumerates all supported kinds of types.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindUnit
	KindBool
	KindInt  // signed
	KindUint // unsigned
	KindField
	KindGroup
	KindScalar
	KindAddress
	KindArray
	KindTuple
	KindStruct // records too, see StructInfo.IsRecord
	KindMapping
	KindFuture
	KindGenericParam
	KindConst // value of a const generic argument
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindUnit:
		return "unit"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindField:
		return "field"
	case KindGroup:
		return "group"
	case KindScalar:
		return "scalar"
	case KindAddress:
		return "address"
	case KindArray:
		return "array"
	case KindTuple:
		return "tuple"
	case KindStruct:
		return "struct"
	case KindMapping:
		return "mapping"
	case KindFuture:
		return "future"
	case KindGenericParam:
		return "generic"
	case KindConst:
		return "const"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Width is the bit width of an integer type.
type Width uint8

const (
	Width8   Width = 8
	Width16  Width = 16
	Width32  Width = 32
	Width64  Width = 64
	Width128 Width = 128
)

// Widths lists the integer widths in ascending order.
var Widths = []Width{Width8, Width16, Width32, Width64, Width128}

// Type is a compact descriptor for any supported type.
type Type struct {
	Kind    Kind
	Width   Width  // integers
	Elem    TypeID // array element, mapping value, const value type
	Key     TypeID // mapping key
	Count   uint32 // array length
	Len     TypeID // array length bound to a const generic parameter
	Payload uint32 // slot in a side table (struct, tuple, param)
	Value   int64  // KindConst
}

// MakeInt describes a signed integer of the given width.
func MakeInt(width Width) Type {
	return Type{Kind: KindInt, Width: width}
}

// MakeUint describes an unsigned integer type.
func MakeUint(width Width) Type {
	return Type{Kind: KindUint, Width: width}
}

// MakeArray describes an array with a static length.
func MakeArray(elem TypeID, count uint32) Type {
	return Type{Kind: KindArray, Elem: elem, Count: count}
}

// MakeParamArray describes an array whose length is a const generic parameter.
func MakeParamArray(elem, lenParam TypeID) Type {
	return Type{Kind: KindArray, Elem: elem, Len: lenParam}
}

// MakeMapping describes the type of a mapping declaration.
func MakeMapping(key, value TypeID) Type {
	return Type{Kind: KindMapping, Key: key, Elem: value}
}

// MakeConst describes the value of a const generic argument.
func MakeConst(valueType TypeID, v int64) Type {
	return Type{Kind: KindConst, Elem: valueType, Value: v}
}

// IsInteger reports whether t is a signed or unsigned integer.
func (t Type) IsInteger() bool {
	return t.Kind == KindInt || t.Kind == KindUint
}

// IsNumeric covers every kind that supports + and -.
func (t Type) IsNumeric() bool {
	switch t.Kind {
	case KindInt, KindUint, KindField, KindGroup, KindScalar:
		return true
	}
	return false
}

// IsPrimitive covers the kinds that can be cast between each other.
func (t Type) IsPrimitive() bool {
	switch t.Kind {
	case KindBool, KindInt, KindUint, KindField, KindGroup, KindScalar, KindAddress:
		return true
	}
	return false
}
