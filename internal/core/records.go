package core

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// RecordInfo contains display information about a record type.
type RecordInfo struct {
	Key   string `json:"key" yaml:"key"`                         // Unique identifier: "sfdc_customers"
	Group string `json:"group" yaml:"group"`                     // Data source: "SFDC", "NS", "Anrok"
	Label string `json:"label" yaml:"label"`                     // Display name: "Customers"
	Table string `json:"table,omitempty" yaml:"table,omitempty"` // Postgres table for imports, empty disables import
}

// RecordDefinition is a registered record type.
type RecordDefinition struct {
	Info   RecordInfo
	Type   reflect.Type
	Fields []FieldDescriptor

	newReader func(RowSource, Settings) (RecordReader, error)
}

// NewReader creates an untyped reader for the record type.
func (d RecordDefinition) NewReader(src RowSource, settings Settings) (RecordReader, error) {
	return d.newReader(src, settings)
}

// Columns returns the header names of mappable fields in declared order.
func (d RecordDefinition) Columns() []string {
	var cols []string
	for _, f := range d.Fields {
		if !f.Ignore {
			cols = append(cols, f.Header)
		}
	}
	return cols
}

// SupportsImport reports whether records of this type can be imported.
func (d RecordDefinition) SupportsImport() bool {
	return d.Info.Table != ""
}

// Normalizer is implemented by record types that clean up values after a
// row is materialized, for example expanding state names to codes.
type Normalizer interface {
	Normalize()
}

var (
	records   = make(map[string]RecordDefinition)
	recordsMu sync.RWMutex
)

// Register adds record type T under info.Key.
// Panics if the key is already registered or T cannot be described.
func Register[T any](info RecordInfo) {
	fields, err := DescribeOf[T]()
	if err != nil {
		panic(fmt.Sprintf("record %s: %v", info.Key, err))
	}

	recordsMu.Lock()
	defer recordsMu.Unlock()

	if _, exists := records[info.Key]; exists {
		panic(fmt.Sprintf("record already registered: %s", info.Key))
	}

	records[info.Key] = RecordDefinition{
		Info:   info,
		Type:   reflect.TypeFor[T](),
		Fields: fields,
		newReader: func(src RowSource, settings Settings) (RecordReader, error) {
			return NewReader[T](src, settings)
		},
	}
}

// Get returns a record definition by key.
// Returns false if not found.
func Get(key string) (RecordDefinition, bool) {
	recordsMu.RLock()
	defer recordsMu.RUnlock()

	def, ok := records[key]
	return def, ok
}

// All returns all registered record definitions.
// Sorted by group then by key for consistent ordering.
func All() []RecordDefinition {
	recordsMu.RLock()
	defer recordsMu.RUnlock()

	result := make([]RecordDefinition, 0, len(records))
	for _, def := range records {
		result = append(result, def)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Info.Group != result[j].Info.Group {
			return result[i].Info.Group < result[j].Info.Group
		}
		return result[i].Info.Key < result[j].Info.Key
	})

	return result
}

// ByGroup returns all record definitions for a specific group, sorted by key.
func ByGroup(group string) []RecordDefinition {
	recordsMu.RLock()
	defer recordsMu.RUnlock()

	var result []RecordDefinition
	for _, def := range records {
		if def.Info.Group == group {
			result = append(result, def)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Info.Key < result[j].Info.Key
	})

	return result
}

// Groups returns all unique group names, sorted.
func Groups() []string {
	recordsMu.RLock()
	defer recordsMu.RUnlock()

	seen := make(map[string]bool)
	for _, def := range records {
		seen[def.Info.Group] = true
	}

	groups := make([]string, 0, len(seen))
	for g := range seen {
		groups = append(groups, g)
	}

	sort.Strings(groups)
	return groups
}

// RecordCount returns the number of registered record types.
func RecordCount() int {
	recordsMu.RLock()
	defer recordsMu.RUnlock()
	return len(records)
}

// Clear removes all registered record types.
// Primarily useful for testing.
func Clear() {
	recordsMu.Lock()
	defer recordsMu.Unlock()
	records = make(map[string]RecordDefinition)
}
