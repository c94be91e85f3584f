package core

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	SKU   string          `csv:"sku"`
	Qty   *int32          `csv:"qty"`
	Price *pgtype.Numeric `csv:"price,db=unit_price"`
	Code  Char            `csv:"code"`
	Note  string          `csv:"-"`
}

func (w *widget) Normalize() {
	w.SKU = strings.ToUpper(w.SKU)
}

// fakeTx records COPY calls. Methods not overridden panic through the nil
// embedded interface.
type fakeTx struct {
	pgx.Tx
	table      pgx.Identifier
	columns    []string
	rows       [][]any
	copies     int
	committed  bool
	rolledBack bool
}

func (f *fakeTx) CopyFrom(_ context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error) {
	f.table = table
	f.columns = columns
	f.copies++
	var n int64
	for src.Next() {
		vals, err := src.Values()
		if err != nil {
			return n, err
		}
		f.rows = append(f.rows, vals)
		n++
	}
	return n, src.Err()
}

func (f *fakeTx) Commit(context.Context) error {
	f.committed = true
	return nil
}

func (f *fakeTx) Rollback(context.Context) error {
	if !f.committed {
		f.rolledBack = true
	}
	return nil
}

type fakeDB struct {
	tx  *fakeTx
	err error
}

func (d *fakeDB) Begin(context.Context) (pgx.Tx, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.tx, nil
}

func headerMode(m HeaderMode) *HeaderMode { return &m }

func newTestService(t *testing.T, db TxBeginner) *Service {
	t.Helper()
	resetRegistry(t)
	Register[widget](RecordInfo{Key: "widgets", Group: "Test", Label: "Widgets", Table: "widgets"})
	Register[widget](RecordInfo{Key: "widget_preview", Group: "Test", Label: "Widget preview"})
	return NewService(db, ServiceOptions{
		HeaderMode: HeaderUse,
		BatchSize:  2,
		Logger:     slog.New(slog.DiscardHandler),
	})
}

const widgetCSV = "\ufeffsku,qty,price,code\n" +
	"ab-1,3,$2.50,x\n" +
	"ab-2,,\"1,000\",y\n" +
	"ab-3,7,(4.25),z\n"

func TestService_Parse(t *testing.T) {
	svc := newTestService(t, nil)

	res, err := svc.Parse(context.Background(), "widgets", strings.NewReader(widgetCSV), ParseOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"sku", "qty", "price", "code"}, res.Header)
	require.Len(t, res.Bindings, 4)
	assert.Equal(t, BindingInfo{Column: 2, Field: "Price", Header: "price", Type: "?decimal"}, res.Bindings[2])
	assert.Equal(t, Stats{Rows: 3}, res.Stats)
	assert.False(t, res.Truncated)
	require.Len(t, res.Records, 3)

	first := res.Records[0].(*widget)
	assert.Equal(t, "AB-1", first.SKU, "records are normalised")
	assert.Equal(t, int32(3), *first.Qty)
	assert.Equal(t, "2.50", formatDecimal(*first.Price))
	assert.Equal(t, Char('x'), first.Code)

	second := res.Records[1].(*widget)
	assert.Nil(t, second.Qty)
	assert.Equal(t, "1000", formatDecimal(*second.Price))

	third := res.Records[2].(*widget)
	assert.Equal(t, "-4.25", formatDecimal(*third.Price))
}

func TestService_ParseOptions(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	t.Run("limit", func(t *testing.T) {
		res, err := svc.Parse(ctx, "widgets", strings.NewReader(widgetCSV), ParseOptions{Limit: 2})
		require.NoError(t, err)
		assert.Len(t, res.Records, 2)
		assert.True(t, res.Truncated)
		assert.Equal(t, Stats{Rows: 2}, res.Stats)
	})

	t.Run("limit does not convert the next row", func(t *testing.T) {
		input := "sku,qty\nab-1,1\nab-2,lots\n"
		res, err := svc.Parse(ctx, "widgets", strings.NewReader(input), ParseOptions{Limit: 1})
		require.NoError(t, err)
		require.Len(t, res.Records, 1)
		assert.Equal(t, "AB-1", res.Records[0].(*widget).SKU)
		assert.True(t, res.Truncated)
	})

	t.Run("limit equal to row count", func(t *testing.T) {
		res, err := svc.Parse(ctx, "widgets", strings.NewReader(widgetCSV), ParseOptions{Limit: 3})
		require.NoError(t, err)
		assert.Len(t, res.Records, 3)
		assert.False(t, res.Truncated)
	})

	t.Run("no header with mapping", func(t *testing.T) {
		input := "x|q-9|5\n"
		res, err := svc.Parse(ctx, "widgets", strings.NewReader(input), ParseOptions{
			HeaderMode: headerMode(HeaderNone),
			Delimiter:  '|',
			Mapping:    Mapping{"Code": 0, "SKU": 1, "Qty": 2},
		})
		require.NoError(t, err)
		require.Len(t, res.Records, 1)
		assert.Equal(t, &widget{SKU: "Q-9", Qty: int32Ptr(5), Code: 'x'}, res.Records[0])
	})

	t.Run("skip policy", func(t *testing.T) {
		skip := PolicySkip
		input := "sku,qty\na,bad\n"
		res, err := svc.Parse(ctx, "widgets", strings.NewReader(input), ParseOptions{ErrorPolicy: &skip})
		require.NoError(t, err)
		assert.Equal(t, Stats{Rows: 1, Defaulted: 1}, res.Stats)
	})

	t.Run("ignore case headers", func(t *testing.T) {
		cmp := CompareIgnoreCase
		input := "SKU,QTY\na,1\n"
		res, err := svc.Parse(ctx, "widgets", strings.NewReader(input), ParseOptions{HeaderComparison: &cmp})
		require.NoError(t, err)
		assert.Len(t, res.Bindings, 2)
	})
}

func TestService_ParseErrors(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Parse(ctx, "nope", strings.NewReader(widgetCSV), ParseOptions{})
	assert.ErrorIs(t, err, ErrUnknownRecord)

	_, err = svc.Parse(ctx, "widgets", strings.NewReader(""), ParseOptions{})
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = svc.Parse(ctx, "widgets", strings.NewReader("a,b\n1,2\n"), ParseOptions{})
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = svc.Parse(ctx, "widgets", strings.NewReader("sku,qty\na,x\n"), ParseOptions{})
	var convErr *ConversionError
	require.True(t, errors.As(err, &convErr))
	assert.Equal(t, "Qty", convErr.Field)

	_, err = svc.Parse(ctx, "widgets", strings.NewReader("sku\n\"open\n"), ParseOptions{})
	var syntaxErr *SyntaxError
	assert.True(t, errors.As(err, &syntaxErr))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = svc.Parse(cancelled, "widgets", strings.NewReader(widgetCSV), ParseOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestService_Validate(t *testing.T) {
	svc := newTestService(t, nil)

	input := "sku,qty,price,extra\n" +
		"a,1,$2.50,x\n" +
		"b,zz,1,x\n" +
		"c,,bad,x\n"
	skip := PolicySkip
	report, err := svc.Validate(context.Background(), "widgets", strings.NewReader(input),
		ParseOptions{ErrorPolicy: &skip})
	require.NoError(t, err)

	assert.Equal(t, 3, report.TotalRows)
	assert.Equal(t, 1, report.ValidRows)
	assert.Equal(t, 2, report.ErrorRows)
	assert.Equal(t, []string{"extra"}, report.UnmatchedHeaders)
	assert.Equal(t, []string{"Code"}, report.UnboundFields)

	require.Len(t, report.ErrorSamples, 2)
	assert.Equal(t, 2, report.ErrorSamples[0].Row)
	assert.Equal(t, "Qty", report.ErrorSamples[0].Field)
	assert.Equal(t, "zz", report.ErrorSamples[0].Value)
	assert.Equal(t, 3, report.ErrorSamples[1].Row)
	assert.Equal(t, "Price", report.ErrorSamples[1].Field)
}

func TestService_Describe(t *testing.T) {
	svc := newTestService(t, nil)

	schema, err := svc.Describe("widgets")
	require.NoError(t, err)
	assert.Equal(t, "widgets", schema.Key)
	require.Len(t, schema.Fields, 5)
	assert.Equal(t, FieldInfo{Name: "Price", Header: "price", DBColumn: "unit_price", Type: "?decimal"}, schema.Fields[2])
	assert.True(t, schema.Fields[4].Ignore)

	_, err = svc.Describe("missing")
	assert.ErrorIs(t, err, ErrUnknownRecord)

	infos := svc.ListRecords()
	require.Len(t, infos, 2)
	assert.Equal(t, "widget_preview", infos[0].Key)
}

func TestService_Import(t *testing.T) {
	tx := &fakeTx{}
	svc := newTestService(t, &fakeDB{tx: tx})
	require.True(t, svc.ImportsEnabled())

	res, err := svc.Import(context.Background(), "widgets", strings.NewReader(widgetCSV), ParseOptions{})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, res.ImportID)
	assert.Equal(t, "widgets", res.Table)
	assert.Equal(t, int64(3), res.Inserted)
	assert.Equal(t, 2, res.Batches)
	assert.Equal(t, int64(len(widgetCSV)), res.BytesRead)
	assert.Equal(t, []string{"sku", "qty", "unit_price", "code"}, res.Columns)

	assert.True(t, tx.committed)
	assert.False(t, tx.rolledBack)
	assert.Equal(t, 2, tx.copies)
	assert.Equal(t, pgx.Identifier{"widgets"}, tx.table)
	require.Len(t, tx.rows, 3)
	assert.Equal(t, "AB-1", tx.rows[0][0])
	assert.Equal(t, "x", tx.rows[0][3], "Char is copied as text")
	assert.Equal(t, 0, svc.LimiterStatus().Active)
}

func TestService_ImportRollsBackOnBadRow(t *testing.T) {
	tx := &fakeTx{}
	svc := newTestService(t, &fakeDB{tx: tx})

	input := "sku,qty\na,1\nb,2\nc,oops\n"
	_, err := svc.Import(context.Background(), "widgets", strings.NewReader(input), ParseOptions{})
	require.Error(t, err)

	var convErr *ConversionError
	assert.True(t, errors.As(err, &convErr))
	assert.False(t, tx.committed)
	assert.True(t, tx.rolledBack)
}

func TestService_ImportErrors(t *testing.T) {
	ctx := context.Background()

	disabled := newTestService(t, nil)
	assert.False(t, disabled.ImportsEnabled())
	_, err := disabled.Import(ctx, "widgets", strings.NewReader(widgetCSV), ParseOptions{})
	assert.ErrorIs(t, err, ErrImportDisabled)

	svc := newTestService(t, &fakeDB{tx: &fakeTx{}})
	_, err = svc.Import(ctx, "widget_preview", strings.NewReader(widgetCSV), ParseOptions{})
	assert.ErrorIs(t, err, ErrImportUnsupported)

	_, err = svc.Import(ctx, "nope", strings.NewReader(widgetCSV), ParseOptions{})
	assert.ErrorIs(t, err, ErrUnknownRecord)

	broken := newTestService(t, &fakeDB{err: errors.New("connection refused")})
	_, err = broken.Import(ctx, "widgets", strings.NewReader(widgetCSV), ParseOptions{})
	assert.ErrorContains(t, err, "begin transaction")
}

func TestCopyValue(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	c := Char('q')

	tests := []struct {
		name string
		in   any
		want any
	}{
		{"char", Char('x'), "x"},
		{"char pointer", &c, "q"},
		{"nil char pointer", (*Char)(nil), nil},
		{"char slice", []Char{'a', 'b'}, "ab"},
		{"nullable char slice", []*Char{&c, nil}, []*string{strPtr("q"), nil}},
		{"uuid", id, pgtype.UUID{Bytes: id, Valid: true}},
		{"nil uuid pointer", (*uuid.UUID)(nil), pgtype.UUID{}},
		{"uuid slice", []uuid.UUID{id}, []pgtype.UUID{{Bytes: id, Valid: true}}},
		{"passthrough", int32(5), int32(5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, copyValue(tt.in))
		})
	}
}

func strPtr(s string) *string { return &s }
