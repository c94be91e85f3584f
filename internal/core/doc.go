// Package core maps rows of delimited text onto typed Go records.
//
// The package is independent of any transport. The HTTP server, the CLI and
// tests all drive it through the same [Service] or directly through [Reader].
//
// # Architecture
//
// The package is organized around a few concepts:
//
//   - Converters: one per supported field type, built once at init and looked
//     up by [LookupConverter]. Each element kind has scalar, nullable, array
//     and nullable-array forms.
//   - Field descriptors: [Describe] reads a struct's exported fields and its
//     `csv` tags.
//   - Resolver: decides which physical column feeds each field. An explicit
//     [Mapping] wins over a header row, which wins over declaration order.
//   - Reader: pulls rows from a [RowSource], usually a [Tokenizer], and
//     materializes one record per row.
//   - Service: reads registered record types and bulk loads them into
//     Postgres with COPY.
//
// # Record Registry
//
// Record types are registered at init time using [Register]:
//
//	type Customer struct {
//	    ID    string  `csv:"Customer ID"`
//	    Since *time.Time
//	    Notes string  `csv:"-"`
//	}
//
//	core.Register[Customer](core.RecordInfo{
//	    Key: "crm_customers", Group: "CRM", Label: "Customers", Table: "crm_customers",
//	})
//
// # Reading
//
//	tok, _ := core.NewTokenizer(r, ',', '"')
//	rd, err := core.NewReader[Customer](tok, core.DefaultSettings())
//	if err != nil {
//	    return err // configuration problems surface here
//	}
//	if _, err := rd.ReadHeader(true); err != nil {
//	    return err
//	}
//	customers, err := rd.ReadAll()
//
// Under [PolicyAbort] a bad value fails the row with a [*ConversionError].
// Under [PolicySkip] the field keeps its zero value and [Stats.Defaulted]
// counts it.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - CFG001-CFG005: Mapping configuration errors
//   - CNV001: Value conversion errors
//   - FILE001-FILE003: File errors (size, syntax, empty)
//   - UPL001-UPL005: Import errors (capacity, disabled, cancelled, timeout)
//   - REC001: Unknown record type
//   - DB001-DB003: Database errors
package core
