package core

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrConfiguration marks setup problems: no bindings, colliding columns,
	// ambiguous headers, unsupported field types. They are reported before
	// any data row is read.
	ErrConfiguration = errors.New("csv mapping configuration error")

	// ErrConversion marks a raw value that is not a valid literal for the
	// field it is bound to.
	ErrConversion = errors.New("csv conversion error")

	// ErrUnsupported is returned by the converter of a type outside the
	// supported set.
	ErrUnsupported = errors.New("unsupported type")
)

// ConfigurationError describes a mapping problem, optionally attributed to a field.
type ConfigurationError struct {
	Field  string // Field name, empty when the problem is not field specific
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("csv mapping: field %q: %s", e.Field, e.Reason)
	}
	return "csv mapping: " + e.Reason
}

func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}

func configErrorf(field, format string, args ...any) error {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// ConversionError reports a raw value that could not be converted for a field.
type ConversionError struct {
	Row    int          // 1-based data row number
	Column int          // 0-based physical column
	Field  string       // Field name
	Value  string       // Raw value
	Type   reflect.Type // Field type
	Err    error        // Underlying parse error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("row %d, column %d: invalid value %q for field %q (%s): %v",
		e.Row, e.Column, e.Value, e.Field, e.Type, e.Err)
}

// Unwrap exposes both the ErrConversion sentinel and the parse error.
func (e *ConversionError) Unwrap() []error {
	return []error{ErrConversion, e.Err}
}
