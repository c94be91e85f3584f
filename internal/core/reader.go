package core

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
)

// Stats counts what a reader has done so far.
type Stats struct {
	Rows      int `json:"rows" yaml:"rows"`           // Data rows materialized or aborted
	Defaulted int `json:"defaulted" yaml:"defaulted"` // Fields left at zero under PolicySkip
}

// RecordReader is the untyped view of a Reader, used where the record type
// is only known at runtime (see RecordInfo).
type RecordReader interface {
	ReadHeader(useForOrdering bool) (bool, error)
	SetMapping(m Mapping) error
	ClearMapping() error
	// NextRecord returns a *T, or nil at end of input.
	NextRecord() (any, error)
	// SkipRow consumes one row without converting it.
	SkipRow() (bool, error)
	Bindings() []ColumnBinding
	Header() []string
	Stats() Stats
}

// Reader materializes rows from a RowSource into values of T.
//
// A Reader is not safe for concurrent use. Each Reader owns its bindings;
// the converter table it reads from is shared and immutable.
type Reader[T any] struct {
	src      RowSource
	settings Settings
	log      *slog.Logger
	resolver *Resolver

	mapping        Mapping
	header         []string
	headerOrdering bool
	bindings       []ColumnBinding

	stats Stats
}

var _ RecordReader = (*Reader[struct{ A string }])(nil)

// NewReader describes T and resolves the declared column order. Any
// configuration error is returned here, before a row is read.
func NewReader[T any](src RowSource, settings Settings) (*Reader[T], error) {
	fields, err := DescribeOf[T]()
	if err != nil {
		return nil, err
	}
	r := &Reader[T]{
		src:      src,
		settings: settings,
		log:      settings.logger(),
		resolver: NewResolver(fields, settings.HeaderComparison),
	}
	if r.bindings, err = r.resolve(); err != nil {
		return nil, err
	}
	return r, nil
}

// resolve applies the precedence mapping > header > declared order.
func (r *Reader[T]) resolve() ([]ColumnBinding, error) {
	var header []string
	if r.headerOrdering {
		header = r.header
	}
	return r.resolver.Resolve(r.mapping, header)
}

// SetMapping installs an explicit field-to-column mapping. It replaces any
// header or declared ordering completely. On error the previous bindings
// stay in effect.
func (r *Reader[T]) SetMapping(m Mapping) error {
	bindings, err := r.resolver.ResolveMapping(m)
	if err != nil {
		return err
	}
	r.mapping = cloneMapping(m)
	r.bindings = bindings
	r.log.Debug("explicit column mapping installed", "bindings", formatBindings(bindings))
	return nil
}

// ClearMapping removes an explicit mapping, falling back to header ordering
// if a header was read for ordering, or declared order otherwise.
func (r *Reader[T]) ClearMapping() error {
	if r.mapping == nil {
		return nil
	}
	saved := r.mapping
	r.mapping = nil
	bindings, err := r.resolve()
	if err != nil {
		r.mapping = saved
		return err
	}
	r.bindings = bindings
	return nil
}

// ReadHeader reads one row as the header. With useForOrdering, columns are
// then bound by header text unless an explicit mapping is installed. It
// returns false at end of input.
func (r *Reader[T]) ReadHeader(useForOrdering bool) (bool, error) {
	row, err := r.src.ReadRow()
	if errors.Is(err, io.EOF) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read header: %w", err)
	}
	header := append([]string(nil), row...)

	if !useForOrdering {
		r.header = header
		return true, nil
	}

	if r.mapping != nil {
		// The mapping wins; a header that binds nothing surfaces on ClearMapping.
		r.header = header
		r.headerOrdering = true
		r.log.Debug("header recorded, explicit mapping in effect", "header", header)
		return true, nil
	}

	headerBindings, err := r.resolver.ResolveHeader(header)
	if err != nil {
		return false, err
	}
	r.header = header
	r.headerOrdering = true
	r.bindings = headerBindings
	r.log.Debug("column order read from header", "bindings", formatBindings(headerBindings))
	return true, nil
}

// Read materializes the next row into out. It returns false at end of
// input. Under PolicyAbort a conversion failure returns a *ConversionError
// and out is left untouched.
func (r *Reader[T]) Read(out *T) (bool, error) {
	row, err := r.src.ReadRow()
	if errors.Is(err, io.EOF) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read row %d: %w", r.stats.Rows+1, err)
	}
	r.stats.Rows++

	var rec T
	v := reflect.ValueOf(&rec).Elem()
	for _, b := range r.bindings {
		if b.Column >= len(row) {
			break // short row: remaining fields keep their zero value
		}
		raw := row[b.Column]
		val, err := b.Converter.FromString(raw)
		if err != nil {
			convErr := &ConversionError{
				Row:    r.stats.Rows,
				Column: b.Column,
				Field:  b.Field.Name,
				Value:  raw,
				Type:   b.Field.Type,
				Err:    err,
			}
			if r.settings.ErrorPolicy == PolicyAbort {
				return false, convErr
			}
			r.stats.Defaulted++
			r.log.Debug("field left at default", "row", convErr.Row, "field", convErr.Field,
				"value", raw, "error", err)
			continue
		}
		if val != nil {
			v.FieldByIndex(b.Field.Index).Set(reflect.ValueOf(val))
		}
	}

	*out = rec
	return true, nil
}

// Next returns the next record, or nil at end of input.
func (r *Reader[T]) Next() (*T, error) {
	rec := new(T)
	ok, err := r.Read(rec)
	if !ok {
		return nil, err
	}
	return rec, nil
}

// SkipRow consumes the next row without converting it or counting it in
// Stats. It returns false at end of input.
func (r *Reader[T]) SkipRow() (bool, error) {
	_, err := r.src.ReadRow()
	if errors.Is(err, io.EOF) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read row %d: %w", r.stats.Rows+1, err)
	}
	return true, nil
}

// NextRecord implements RecordReader.
func (r *Reader[T]) NextRecord() (any, error) {
	rec, err := r.Next()
	if rec == nil {
		return nil, err
	}
	return rec, nil
}

// ReadAll reads every remaining row. On error it returns the records read
// before the failing row.
func (r *Reader[T]) ReadAll() ([]T, error) {
	var out []T
	for {
		var rec T
		ok, err := r.Read(&rec)
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, rec)
	}
}

// Bindings returns a copy of the active column bindings.
func (r *Reader[T]) Bindings() []ColumnBinding {
	return append([]ColumnBinding(nil), r.bindings...)
}

// Header returns the last header row read, or nil.
func (r *Reader[T]) Header() []string {
	return append([]string(nil), r.header...)
}

// Stats returns the reader's counters.
func (r *Reader[T]) Stats() Stats {
	return r.stats
}

func cloneMapping(m Mapping) Mapping {
	out := make(Mapping, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
