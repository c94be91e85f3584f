package core

import (
	"reflect"
	"strconv"
	"strings"
	"sync"
)

// TagName is the struct tag read by Describe.
//
//	Name    string  `csv:"full_name"`           // header "full_name"
//	Age     *int32  `csv:"age,index=1"`         // explicit column 1
//	Total   float64 `csv:"Total,db=total_amt"`  // Postgres column total_amt
//	Scratch string  `csv:"-"`                   // never mapped
const TagName = "csv"

// NoColumn marks a field without an explicit column index.
const NoColumn = -1

// FieldDescriptor describes one mappable field of a record type.
type FieldDescriptor struct {
	Name     string       // Struct field name, the field's identity
	Index    []int        // reflect index path used to assign the field
	Order    int          // Declaration order among exported fields
	Column   int          // Explicit column index, or NoColumn
	Header   string       // Header text matched in header mode
	DBColumn string       // Database column used by imports
	Ignore   bool         // Excluded from every mapping
	Type     reflect.Type // Field type
	Tag      TypeTag      // Resolved kind and shape, zero when unsupported
}

// HasColumn reports whether the field carries an explicit column index.
func (d FieldDescriptor) HasColumn() bool {
	return d.Column != NoColumn
}

type describeResult struct {
	fields []FieldDescriptor
	err    error
}

var describeCache sync.Map // reflect.Type -> describeResult

// Describe returns the field descriptors of struct type t. The result is
// cached for the life of the process. Callers must not modify the returned
// slice.
func Describe(t reflect.Type) ([]FieldDescriptor, error) {
	if cached, ok := describeCache.Load(t); ok {
		r := cached.(describeResult)
		return r.fields, r.err
	}
	fields, err := describe(t)
	actual, _ := describeCache.LoadOrStore(t, describeResult{fields: fields, err: err})
	r := actual.(describeResult)
	return r.fields, r.err
}

// DescribeOf returns the field descriptors of T.
func DescribeOf[T any]() ([]FieldDescriptor, error) {
	return Describe(reflect.TypeFor[T]())
}

func describe(t reflect.Type) ([]FieldDescriptor, error) {
	if t == nil || t.Kind() != reflect.Struct {
		return nil, configErrorf("", "record type %v is not a struct", t)
	}

	var fields []FieldDescriptor
	order := 0
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}

		d := FieldDescriptor{
			Name:   sf.Name,
			Index:  sf.Index,
			Order:  order,
			Column: NoColumn,
			Header: sf.Name,
			Type:   sf.Type,
			Tag:    LookupConverter(sf.Type).Tag(),
		}
		order++

		if err := applyTag(&d, sf.Tag.Get(TagName)); err != nil {
			return nil, err
		}
		if d.DBColumn == "" {
			d.DBColumn = toDBColumnName(d.Header)
		}
		fields = append(fields, d)
	}
	return fields, nil
}

// applyTag parses `csv:"header,index=N,db=column"` or `csv:"-"`.
func applyTag(d *FieldDescriptor, tag string) error {
	if tag == "" {
		return nil
	}
	if tag == "-" {
		d.Ignore = true
		return nil
	}

	parts := strings.Split(tag, ",")
	if name := strings.TrimSpace(parts[0]); name != "" {
		d.Header = name
	}

	for _, opt := range parts[1:] {
		opt = strings.TrimSpace(opt)
		if opt == "" {
			continue
		}
		key, value, _ := strings.Cut(opt, "=")
		switch strings.TrimSpace(key) {
		case "index":
			n, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil || n < 0 {
				return configErrorf(d.Name, "invalid column index %q in %s tag", value, TagName)
			}
			d.Column = n
		case "db":
			d.DBColumn = strings.TrimSpace(value)
		case "ignore":
			d.Ignore = true
		default:
			return configErrorf(d.Name, "unknown %s tag option %q", TagName, opt)
		}
	}
	return nil
}

// toDBColumnName converts a display column name to a database column name.
// "Transaction ID" -> "transaction_id"
// "account_name" -> "account_name" (no change if already snake_case)
func toDBColumnName(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", "_"))
}
