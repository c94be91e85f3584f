package core

import "fmt"

// Kind identifies the element type a converter works with.
type Kind int

const (
	_ Kind = iota // zero value is reserved for unsupported types

	KindString
	KindChar
	KindBool
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindInt
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindUint
	KindFloat32
	KindFloat64
	KindDecimal
	KindTime
	KindUUID

	kindTotal
)

var kindNames = [kindTotal]string{
	"unsupported",
	"string",
	"char",
	"bool",
	"int8",
	"int16",
	"int32",
	"int64",
	"int",
	"uint8",
	"uint16",
	"uint32",
	"uint64",
	"uint",
	"float32",
	"float64",
	"decimal",
	"time",
	"uuid",
}

func (k Kind) String() string {
	if k < 0 || k >= kindTotal {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// IsInteger reports whether k is a signed or unsigned integer kind.
func (k Kind) IsInteger() bool {
	switch k {
	case KindInt8, KindInt16, KindInt32, KindInt64, KindInt,
		KindUint8, KindUint16, KindUint32, KindUint64, KindUint:
		return true
	default:
		return false
	}
}

// Shape describes how an element kind is wrapped in the Go field type.
type Shape int

const (
	ShapeScalar        Shape = iota // T
	ShapeNullable                   // *T, nil is "no value"
	ShapeArray                      // []T
	ShapeNullableArray              // []*T
)

func (s Shape) String() string {
	switch s {
	case ShapeScalar:
		return "scalar"
	case ShapeNullable:
		return "nullable"
	case ShapeArray:
		return "array"
	case ShapeNullableArray:
		return "nullable-array"
	default:
		return fmt.Sprintf("Shape(%d)", int(s))
	}
}

// TypeTag is the resolved runtime type of a field: an element kind plus the
// shape wrapping it.
type TypeTag struct {
	Kind  Kind
	Shape Shape
}

// Supported reports whether the tag names a known kind.
func (t TypeTag) Supported() bool {
	return t.Kind > 0 && t.Kind < kindTotal
}

func (t TypeTag) String() string {
	switch t.Shape {
	case ShapeNullable:
		return "?" + t.Kind.String()
	case ShapeArray:
		return "[]" + t.Kind.String()
	case ShapeNullableArray:
		return "[]?" + t.Kind.String()
	default:
		return t.Kind.String()
	}
}

// Char is a single character field. It is a distinct type so that it is not
// confused with int32, which rune aliases.
type Char rune

func (c Char) String() string {
	return string(rune(c))
}

// MarshalText renders the character itself rather than its code point.
func (c Char) MarshalText() ([]byte, error) {
	return []byte(string(rune(c))), nil
}
