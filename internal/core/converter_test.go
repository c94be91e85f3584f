package core

import (
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sampleLiteral is a valid literal for one element of each kind.
var sampleLiteral = map[Kind]string{
	KindString:  "hello",
	KindChar:    "x",
	KindBool:    "true",
	KindInt8:    "42",
	KindInt16:   "42",
	KindInt32:   "42",
	KindInt64:   "42",
	KindInt:     "42",
	KindUint8:   "42",
	KindUint16:  "42",
	KindUint32:  "42",
	KindUint64:  "42",
	KindUint:    "42",
	KindFloat32: "1.5",
	KindFloat64: "1.5",
	KindDecimal: "123.45",
	KindTime:    "2024-01-15T10:30:00Z",
	KindUUID:    "6ba7b810-9dad-11d1-80b4-00c04fd430c8",
}

func convertersWithShape(shape Shape) []Converter {
	var out []Converter
	for _, t := range SupportedTypes() {
		c := LookupConverter(t)
		if c.Tag().Shape == shape {
			out = append(out, c)
		}
	}
	return out
}

func TestSupportedTypes_CoversEveryKind(t *testing.T) {
	types := SupportedTypes()
	// string has scalar and array forms, char and every other kind have all four.
	assert.Len(t, types, 2+4*(int(kindTotal)-2))

	kinds := make(map[Kind]bool)
	for _, typ := range types {
		c := LookupConverter(typ)
		require.True(t, c.Supported(), typ.String())
		assert.Equal(t, typ, c.Type())
		kinds[c.Tag().Kind] = true
	}
	for k := Kind(1); k < kindTotal; k++ {
		assert.True(t, kinds[k], "no converter for kind %s", k)
	}
}

func TestNullableConverters_EmptyIsNoValue(t *testing.T) {
	nullables := convertersWithShape(ShapeNullable)
	require.NotEmpty(t, nullables)

	for _, c := range nullables {
		t.Run(c.Name(), func(t *testing.T) {
			for _, input := range []string{"", "   "} {
				v, err := c.FromString(input)
				require.NoError(t, err)
				rv := reflect.ValueOf(v)
				require.Equal(t, reflect.Pointer, rv.Kind())
				assert.True(t, rv.IsNil(), "FromString(%q) = %v, want nil", input, v)
			}
			assert.Equal(t, "", c.ToString(nil))
			assert.Equal(t, "", c.ToString(reflect.Zero(c.Type()).Interface()))
		})
	}
}

func TestArrayConverters_Empty(t *testing.T) {
	for _, c := range convertersWithShape(ShapeArray) {
		t.Run(c.Name(), func(t *testing.T) {
			v, err := c.FromString("")
			switch c.Tag().Kind {
			case KindString, KindChar:
				// These never fail: blank is an empty array.
				require.NoError(t, err)
				assert.Equal(t, 0, reflect.ValueOf(v).Len())
			default:
				assert.Error(t, err)
				assert.Nil(t, v)
			}
		})
	}

	for _, c := range convertersWithShape(ShapeNullableArray) {
		t.Run(c.Name(), func(t *testing.T) {
			v, err := c.FromString("")
			require.NoError(t, err)
			rv := reflect.ValueOf(v)
			assert.False(t, rv.IsNil(), "want empty, not nil, slice")
			assert.Equal(t, 0, rv.Len())
		})
	}
}

func TestIntArrayScenarios(t *testing.T) {
	ints, ok := TypedConverterFor[[]int32]()
	require.True(t, ok)

	got, err := ints.Parse("1;2;3")
	require.NoError(t, err)
	assert.Equal(t, []int32{1, 2, 3}, got)

	_, err = ints.Parse("1;;3")
	assert.Error(t, err)

	_, err = ints.Parse("1;x;3")
	assert.ErrorContains(t, err, "element 1")

	nullable, ok := TypedConverterFor[[]*int32]()
	require.True(t, ok)

	slots, err := nullable.Parse("1;;3")
	require.NoError(t, err)
	require.Len(t, slots, 3)
	assert.Equal(t, int32(1), *slots[0])
	assert.Nil(t, slots[1])
	assert.Equal(t, int32(3), *slots[2])
	assert.Equal(t, "1;;3", nullable.Format(slots))

	_, err = nullable.Parse("1;x;3")
	assert.Error(t, err)
}

func TestConverters_RoundTrip(t *testing.T) {
	for _, typ := range SupportedTypes() {
		c := LookupConverter(typ)
		lit := sampleLiteral[c.Tag().Kind]
		var input string
		switch c.Tag().Shape {
		case ShapeScalar, ShapeNullable:
			input = lit
		case ShapeArray:
			input = strings.Join([]string{lit, lit}, ArraySeparator)
		case ShapeNullableArray:
			input = strings.Join([]string{lit, "", lit}, ArraySeparator)
		}

		t.Run(c.Name(), func(t *testing.T) {
			v, err := c.FromString(input)
			require.NoError(t, err, "FromString(%q)", input)
			require.Equal(t, typ, reflect.TypeOf(v))

			again, err := c.FromString(c.ToString(v))
			require.NoError(t, err, "FromString(ToString(v))")
			assert.Equal(t, v, again)
		})
	}
}

func TestConverters_WrongTypeFormatsEmpty(t *testing.T) {
	c := ConverterFor[int32]()
	assert.Equal(t, "", c.ToString("42"))
	assert.Equal(t, "42", c.ToString(int32(42)))
}

func TestConverters_Names(t *testing.T) {
	tests := []struct {
		conv Converter
		want string
	}{
		{ConverterFor[string](), "string"},
		{ConverterFor[*int32](), "?int32"},
		{ConverterFor[[]float64](), "[]float64"},
		{ConverterFor[[]*bool](), "[]?bool"},
		{ConverterFor[Char](), "char"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.conv.Name())
	}
}

func TestUnsupportedConverter(t *testing.T) {
	for _, c := range []Converter{
		ConverterFor[complex64](),
		ConverterFor[map[string]int](),
		ConverterFor[*string](),
		ConverterFor[[][]int](),
	} {
		t.Run(c.Type().String(), func(t *testing.T) {
			assert.False(t, c.Supported())
			assert.False(t, c.Tag().Supported())
			assert.Equal(t, "", c.ToString(nil))

			_, err := c.FromString("1")
			assert.ErrorIs(t, err, ErrUnsupported)
		})
	}

	_, ok := TypedConverterFor[complex64]()
	assert.False(t, ok)
}

func TestCharIsNotInt32(t *testing.T) {
	assert.Equal(t, KindChar, ConverterFor[Char]().Tag().Kind)
	assert.Equal(t, KindInt32, ConverterFor[int32]().Tag().Kind)

	c, ok := TypedConverterFor[Char]()
	require.True(t, ok)
	_, err := c.Parse("ab")
	assert.Error(t, err)
	v, err := c.Parse("é")
	require.NoError(t, err)
	assert.Equal(t, "é", v.String())

	text, err := v.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "é", string(text))
}

func TestIntegerOverflow(t *testing.T) {
	_, err := ConverterFor[int8]().FromString("128")
	assert.Error(t, err)
	_, err = ConverterFor[uint8]().FromString("-1")
	assert.Error(t, err)
	v, err := ConverterFor[uint16]().FromString(" +7 ")
	require.NoError(t, err)
	assert.Equal(t, uint16(7), v)
}
