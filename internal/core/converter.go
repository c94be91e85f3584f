package core

import (
	"fmt"
	"reflect"
	"strings"
)

// ArraySeparator joins the elements of array values in a single CSV field.
const ArraySeparator = ";"

// Converter converts between a raw CSV field and a Go value of one type.
// Converters are stateless and safe for concurrent use.
type Converter interface {
	// Name is a human-readable name such as "[]?int32".
	Name() string
	// Type is the exact Go type produced by FromString.
	Type() reflect.Type
	// Tag is the kind and shape this converter handles.
	Tag() TypeTag
	// Supported is false only for the unsupported sentinel.
	Supported() bool
	// ToString formats v. It never fails; nil or a value of the wrong type
	// produces the empty string.
	ToString(v any) string
	// FromString parses s into a value of Type().
	FromString(s string) (any, error)
}

// converter is the generic Converter implementation. Every supported shape
// is a converter[T] built from an element parse/format pair.
type converter[T any] struct {
	tag    TypeTag
	parse  func(string) (T, error)
	format func(T) string
}

func (c *converter[T]) Name() string       { return c.tag.String() }
func (c *converter[T]) Type() reflect.Type { return reflect.TypeFor[T]() }
func (c *converter[T]) Tag() TypeTag       { return c.tag }
func (c *converter[T]) Supported() bool    { return true }

func (c *converter[T]) ToString(v any) string {
	t, ok := v.(T)
	if !ok {
		return ""
	}
	return c.format(t)
}

func (c *converter[T]) FromString(s string) (any, error) {
	v, err := c.parse(s)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Parse is the typed form of FromString.
func (c *converter[T]) Parse(s string) (T, error) {
	return c.parse(s)
}

// Format is the typed form of ToString.
func (c *converter[T]) Format(v T) string {
	return c.format(v)
}

// scalarOf builds the converter for a plain T. Empty input is an error.
func scalarOf[T any](kind Kind, parse func(string) (T, error), format func(T) string) *converter[T] {
	return &converter[T]{
		tag:    TypeTag{Kind: kind, Shape: ShapeScalar},
		parse:  parse,
		format: format,
	}
}

// nullableOf builds the converter for *T. Blank input is nil ("no value").
func nullableOf[T any](kind Kind, parse func(string) (T, error), format func(T) string) *converter[*T] {
	return &converter[*T]{
		tag: TypeTag{Kind: kind, Shape: ShapeNullable},
		parse: func(s string) (*T, error) {
			if strings.TrimSpace(s) == "" {
				return nil, nil
			}
			v, err := parse(s)
			if err != nil {
				return nil, err
			}
			return &v, nil
		},
		format: func(p *T) string {
			if p == nil {
				return ""
			}
			return format(*p)
		},
	}
}

// arrayOf builds the converter for []T. Blank input is an error because
// there is no literal for an empty array of non-nullable elements, and one
// bad element rejects the whole array.
func arrayOf[T any](kind Kind, parse func(string) (T, error), format func(T) string) *converter[[]T] {
	return &converter[[]T]{
		tag: TypeTag{Kind: kind, Shape: ShapeArray},
		parse: func(s string) ([]T, error) {
			if strings.TrimSpace(s) == "" {
				return nil, errEmpty
			}
			tokens := strings.Split(s, ArraySeparator)
			out := make([]T, len(tokens))
			for i, tok := range tokens {
				v, err := parse(tok)
				if err != nil {
					return nil, fmt.Errorf("element %d: %w", i, err)
				}
				out[i] = v
			}
			return out, nil
		},
		format: func(values []T) string {
			parts := make([]string, len(values))
			for i, v := range values {
				parts[i] = format(v)
			}
			return strings.Join(parts, ArraySeparator)
		},
	}
}

// nullableArrayOf builds the converter for []*T. Blank input is an empty
// (non-nil) slice, and a blank element is a nil slot.
func nullableArrayOf[T any](kind Kind, parse func(string) (T, error), format func(T) string) *converter[[]*T] {
	return &converter[[]*T]{
		tag: TypeTag{Kind: kind, Shape: ShapeNullableArray},
		parse: func(s string) ([]*T, error) {
			if strings.TrimSpace(s) == "" {
				return []*T{}, nil
			}
			tokens := strings.Split(s, ArraySeparator)
			out := make([]*T, len(tokens))
			for i, tok := range tokens {
				if strings.TrimSpace(tok) == "" {
					continue
				}
				v, err := parse(tok)
				if err != nil {
					return nil, fmt.Errorf("element %d: %w", i, err)
				}
				out[i] = &v
			}
			return out, nil
		},
		format: func(values []*T) string {
			parts := make([]string, len(values))
			for i, v := range values {
				if v != nil {
					parts[i] = format(*v)
				}
			}
			return strings.Join(parts, ArraySeparator)
		},
	}
}

// stringArray never fails: blank input is an empty slice, anything else is
// split on the separator.
func stringArray() *converter[[]string] {
	return &converter[[]string]{
		tag: TypeTag{Kind: KindString, Shape: ShapeArray},
		parse: func(s string) ([]string, error) {
			if s == "" {
				return []string{}, nil
			}
			return strings.Split(s, ArraySeparator), nil
		},
		format: func(values []string) string {
			return strings.Join(values, ArraySeparator)
		},
	}
}

// charArray treats the field as a sequence of characters. It never fails.
func charArray() *converter[[]Char] {
	return &converter[[]Char]{
		tag: TypeTag{Kind: KindChar, Shape: ShapeArray},
		parse: func(s string) ([]Char, error) {
			out := make([]Char, 0, len(s))
			for _, r := range s {
				out = append(out, Char(r))
			}
			return out, nil
		},
		format: func(values []Char) string {
			var b strings.Builder
			for _, c := range values {
				b.WriteRune(rune(c))
			}
			return b.String()
		},
	}
}

// unsupportedConverter is returned for types outside the supported set. It
// is never bound: the resolver reports it as a configuration error.
type unsupportedConverter struct {
	typ reflect.Type
}

func (c unsupportedConverter) Name() string       { return "unsupported" }
func (c unsupportedConverter) Type() reflect.Type { return c.typ }
func (c unsupportedConverter) Tag() TypeTag       { return TypeTag{} }
func (c unsupportedConverter) Supported() bool    { return false }
func (c unsupportedConverter) ToString(any) string {
	return ""
}

func (c unsupportedConverter) FromString(string) (any, error) {
	return nil, fmt.Errorf("%w: %v", ErrUnsupported, c.typ)
}
