package core

import (
	"context"
	"reflect"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// TxBeginner starts database transactions. Satisfied by *pgxpool.Pool and
// *pgx.Conn.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// CopyTarget is the part of pgx.Tx used to bulk load rows.
type CopyTarget interface {
	CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error)
}

// copier turns materialized records into COPY rows. Every mappable field is
// copied, including fields the current bindings leave at their zero value.
type copier struct {
	table   pgx.Identifier
	columns []string
	fields  []FieldDescriptor
}

func newCopier(def RecordDefinition) *copier {
	c := &copier{table: pgx.Identifier{def.Info.Table}}
	for _, f := range def.Fields {
		if f.Ignore || !f.Tag.Supported() {
			continue
		}
		c.columns = append(c.columns, f.DBColumn)
		c.fields = append(c.fields, f)
	}
	return c
}

// row extracts the COPY values from rec, a pointer to the record struct.
func (c *copier) row(rec any) []any {
	v := reflect.ValueOf(rec).Elem()
	out := make([]any, len(c.fields))
	for i, f := range c.fields {
		out[i] = copyValue(v.FieldByIndex(f.Index).Interface())
	}
	return out
}

func (c *copier) copy(ctx context.Context, dst CopyTarget, rows [][]any) (int64, error) {
	return dst.CopyFrom(ctx, c.table, c.columns, pgx.CopyFromRows(rows))
}

// copyValue converts field values pgx cannot encode directly. Char is a
// named rune and would otherwise be sent as an integer.
func copyValue(v any) any {
	switch x := v.(type) {
	case Char:
		return string(rune(x))
	case *Char:
		if x == nil {
			return nil
		}
		return string(rune(*x))
	case []Char:
		return formatCharSlice(x)
	case []*Char:
		out := make([]*string, len(x))
		for i, c := range x {
			if c != nil {
				s := string(rune(*c))
				out[i] = &s
			}
		}
		return out
	case uuid.UUID:
		return pgtype.UUID{Bytes: x, Valid: true}
	case *uuid.UUID:
		if x == nil {
			return pgtype.UUID{}
		}
		return pgtype.UUID{Bytes: *x, Valid: true}
	case []uuid.UUID:
		out := make([]pgtype.UUID, len(x))
		for i, u := range x {
			out[i] = pgtype.UUID{Bytes: u, Valid: true}
		}
		return out
	case []*uuid.UUID:
		out := make([]pgtype.UUID, len(x))
		for i, u := range x {
			if u != nil {
				out[i] = pgtype.UUID{Bytes: *u, Valid: true}
			}
		}
		return out
	}
	return v
}

func formatCharSlice(cs []Char) string {
	runes := make([]rune, len(cs))
	for i, c := range cs {
		runes[i] = rune(c)
	}
	return string(runes)
}
