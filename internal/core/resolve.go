package core

// resolve.go decides which field each physical column feeds.
//
// Three ordering sources exist, and one of them wins for the whole record:
//  1. An explicit mapping (field name -> column) supplied by the caller
//  2. A header row read from the file, matched by header text
//  3. Declaration order, with `index=` tags taking precedence per field
//
// The result is a slice of ColumnBinding sorted by column. It is validated
// before it is returned so that configuration problems surface before any
// data row is read.

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Mapping is an explicit assignment of field names to physical columns.
type Mapping map[string]int

// ParseMapping parses "Field=column" pairs such as "Name=0" or "Age=3".
// Pairs may also be comma separated within one string.
func ParseMapping(pairs ...string) (Mapping, error) {
	m := make(Mapping)
	for _, p := range pairs {
		for _, pair := range strings.Split(p, ",") {
			pair = strings.TrimSpace(pair)
			if pair == "" {
				continue
			}
			field, col, ok := strings.Cut(pair, "=")
			field = strings.TrimSpace(field)
			if !ok || field == "" {
				return nil, configErrorf("", "invalid mapping %q (use Field=column)", pair)
			}
			n, err := strconv.Atoi(strings.TrimSpace(col))
			if err != nil {
				return nil, configErrorf(field, "invalid column %q in mapping", col)
			}
			if _, dup := m[field]; dup {
				return nil, configErrorf(field, "mapped more than once")
			}
			m[field] = n
		}
	}
	return m, nil
}

// ColumnBinding associates a physical column with a field and its converter.
type ColumnBinding struct {
	Column    int
	Field     FieldDescriptor
	Converter Converter
}

// Resolver computes column bindings for one record type.
type Resolver struct {
	fields     []FieldDescriptor
	comparison HeaderComparison
}

// NewResolver creates a resolver over the given field descriptors.
func NewResolver(fields []FieldDescriptor, comparison HeaderComparison) *Resolver {
	return &Resolver{fields: fields, comparison: comparison}
}

// Resolve picks the first applicable source: mapping if non-nil, then header
// if non-nil, then declaration order.
func (r *Resolver) Resolve(mapping Mapping, header []string) ([]ColumnBinding, error) {
	switch {
	case mapping != nil:
		return r.ResolveMapping(mapping)
	case header != nil:
		return r.ResolveHeader(header)
	default:
		return r.ResolveDeclared()
	}
}

// ResolveDeclared orders fields by explicit column index when present and by
// declaration order otherwise, then assigns columns 0..N-1.
func (r *Resolver) ResolveDeclared() ([]ColumnBinding, error) {
	active := make([]FieldDescriptor, 0, len(r.fields))
	seen := make(map[int]string)
	for _, f := range r.fields {
		if f.Ignore {
			continue
		}
		if f.HasColumn() {
			if other, dup := seen[f.Column]; dup {
				return nil, configErrorf(f.Name, "column index %d already used by field %q", f.Column, other)
			}
			seen[f.Column] = f.Name
		}
		active = append(active, f)
	}

	sort.SliceStable(active, func(i, j int) bool {
		ki, kj := sortKey(active[i]), sortKey(active[j])
		if ki != kj {
			return ki < kj
		}
		// Explicit indexes win ties against declaration order.
		if active[i].HasColumn() != active[j].HasColumn() {
			return active[i].HasColumn()
		}
		return active[i].Order < active[j].Order
	})

	bindings := make([]ColumnBinding, len(active))
	for i, f := range active {
		bindings[i] = ColumnBinding{Column: i, Field: f, Converter: LookupConverter(f.Type)}
	}
	return bindings, validate(bindings)
}

func sortKey(f FieldDescriptor) int {
	if f.HasColumn() {
		return f.Column
	}
	return f.Order
}

// ResolveMapping binds only the fields named in mapping, each to its given
// column.
func (r *Resolver) ResolveMapping(mapping Mapping) ([]ColumnBinding, error) {
	known := make(map[string]bool, len(r.fields))
	for _, f := range r.fields {
		known[f.Name] = true
	}
	var unknown []string
	for name := range mapping {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, configErrorf("", "mapping names unknown fields: %s", strings.Join(unknown, ", "))
	}

	byColumn := make(map[int]string, len(mapping))
	bindings := make([]ColumnBinding, 0, len(mapping))
	for _, f := range r.fields {
		col, ok := mapping[f.Name]
		if !ok {
			continue
		}
		if f.Ignore {
			return nil, configErrorf(f.Name, "field is ignored and cannot be mapped")
		}
		if col < 0 {
			return nil, configErrorf(f.Name, "invalid column index %d", col)
		}
		if other, dup := byColumn[col]; dup {
			return nil, configErrorf(f.Name, "column %d already mapped to field %q", col, other)
		}
		byColumn[col] = f.Name
		bindings = append(bindings, ColumnBinding{Column: col, Field: f, Converter: LookupConverter(f.Type)})
	}

	sortBindings(bindings)
	return bindings, validate(bindings)
}

// ResolveHeader matches each header cell against field headers. Unmatched
// columns are read and ignored; unmatched fields stay at their zero value.
func (r *Resolver) ResolveHeader(header []string) ([]ColumnBinding, error) {
	if len(header) == 0 {
		return nil, configErrorf("", "cannot read column headers from an empty row")
	}

	byKey := make(map[string]FieldDescriptor, len(r.fields))
	for _, f := range r.fields {
		if f.Ignore {
			continue
		}
		key := r.comparison.Key(f.Header)
		if other, dup := byKey[key]; dup {
			return nil, configErrorf(f.Name, "header %q is ambiguous with field %q under %s comparison",
				f.Header, other.Name, r.comparison)
		}
		byKey[key] = f
	}

	bound := make(map[string]bool, len(byKey))
	var bindings []ColumnBinding
	for col, h := range header {
		f, ok := byKey[r.comparison.Key(h)]
		if !ok || bound[f.Name] {
			continue
		}
		bound[f.Name] = true
		bindings = append(bindings, ColumnBinding{Column: col, Field: f, Converter: LookupConverter(f.Type)})
	}

	return bindings, validate(bindings)
}

func sortBindings(bindings []ColumnBinding) {
	sort.Slice(bindings, func(i, j int) bool {
		return bindings[i].Column < bindings[j].Column
	})
}

// validate rejects empty binding sets and unsupported field types.
func validate(bindings []ColumnBinding) error {
	if len(bindings) == 0 {
		return configErrorf("", "no column mapping found; mapping data must come from struct fields, column headers or an explicit mapping")
	}
	for _, b := range bindings {
		if !b.Converter.Supported() {
			return configErrorf(b.Field.Name, "unsupported field type %v", b.Field.Type)
		}
	}
	return nil
}

// formatBindings renders bindings as "0:Name 1:Age" for logs and errors.
func formatBindings(bindings []ColumnBinding) string {
	parts := make([]string, len(bindings))
	for i, b := range bindings {
		parts[i] = fmt.Sprintf("%d:%s", b.Column, b.Field.Name)
	}
	return strings.Join(parts, " ")
}
