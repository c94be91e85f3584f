package core

import (
	"fmt"
	"reflect"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// converters maps every supported Go type to its converter. It is built once
// at package initialisation and never written afterwards, so lookups need no
// locking.
var converters = buildConverters()

func buildConverters() map[reflect.Type]Converter {
	m := make(map[reflect.Type]Converter, 4*int(kindTotal))

	add(m, scalarOf(KindString, parseString, formatString))
	add(m, stringArray())

	add(m, scalarOf(KindChar, parseChar, formatChar))
	add(m, nullableOf(KindChar, parseChar, formatChar))
	add(m, charArray())
	add(m, nullableArrayOf(KindChar, parseChar, formatChar))

	addAll(m, KindBool, parseBool, formatBool)
	addAll(m, KindInt8, parseSigned[int8](8), formatSigned[int8])
	addAll(m, KindInt16, parseSigned[int16](16), formatSigned[int16])
	addAll(m, KindInt32, parseSigned[int32](32), formatSigned[int32])
	addAll(m, KindInt64, parseSigned[int64](64), formatSigned[int64])
	addAll(m, KindInt, parseSigned[int](bitsOf()), formatSigned[int])
	addAll(m, KindUint8, parseUnsigned[uint8](8), formatUnsigned[uint8])
	addAll(m, KindUint16, parseUnsigned[uint16](16), formatUnsigned[uint16])
	addAll(m, KindUint32, parseUnsigned[uint32](32), formatUnsigned[uint32])
	addAll(m, KindUint64, parseUnsigned[uint64](64), formatUnsigned[uint64])
	addAll(m, KindUint, parseUnsigned[uint](bitsOf()), formatUnsigned[uint])
	addAll(m, KindFloat32, parseFloat32, formatFloat32)
	addAll(m, KindFloat64, parseFloat64, formatFloat64)
	addAll[pgtype.Numeric](m, KindDecimal, parseDecimal, formatDecimal)
	addAll[time.Time](m, KindTime, parseTime, formatTime)
	addAll[uuid.UUID](m, KindUUID, parseUUID, formatUUID)

	return m
}

// addAll registers the scalar, nullable, array and nullable-array converters
// for one element kind.
func addAll[T any](m map[reflect.Type]Converter, kind Kind, parse func(string) (T, error), format func(T) string) {
	add(m, scalarOf(kind, parse, format))
	add(m, nullableOf(kind, parse, format))
	add(m, arrayOf(kind, parse, format))
	add(m, nullableArrayOf(kind, parse, format))
}

// add panics on duplicates; the supported set is fixed at compile time so a
// duplicate is a programming error.
func add(m map[reflect.Type]Converter, c Converter) {
	if _, exists := m[c.Type()]; exists {
		panic(fmt.Sprintf("converter already registered: %v", c.Type()))
	}
	m[c.Type()] = c
}

// LookupConverter returns the converter for t. Types outside the supported
// set get a converter whose Supported method reports false.
func LookupConverter(t reflect.Type) Converter {
	if c, ok := converters[t]; ok {
		return c
	}
	return unsupportedConverter{typ: t}
}

// ConverterFor returns the converter for T.
func ConverterFor[T any]() Converter {
	return LookupConverter(reflect.TypeFor[T]())
}

// TypedConverter is implemented by every supported converter and gives
// access to the parse and format functions without boxing.
type TypedConverter[T any] interface {
	Converter
	Parse(s string) (T, error)
	Format(v T) string
}

// TypedConverterFor returns the typed converter for T, or false if T is not
// supported.
func TypedConverterFor[T any]() (TypedConverter[T], bool) {
	c, ok := ConverterFor[T]().(TypedConverter[T])
	return c, ok
}

// SupportedTypes returns every supported Go type, sorted by converter name.
func SupportedTypes() []reflect.Type {
	result := make([]reflect.Type, 0, len(converters))
	for t := range converters {
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := converters[result[i]].Tag(), converters[result[j]].Tag()
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.Shape < b.Shape
	})
	return result
}
