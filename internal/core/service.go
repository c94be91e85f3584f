package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrUnknownRecord is returned for a key that is not registered.
	ErrUnknownRecord = errors.New("unknown record type")

	// ErrEmptyInput is returned when a header was requested from an empty file.
	ErrEmptyInput = errors.New("empty file")

	// ErrFileTooLarge is returned by callers that enforce a size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrImportDisabled is returned by Import when no database is configured.
	ErrImportDisabled = errors.New("imports are disabled: no database configured")

	// ErrImportUnsupported is returned by Import for a record type without a table.
	ErrImportUnsupported = errors.New("record type has no import table")
)

// ContextCheckInterval is how many rows are read between cancellation checks.
var ContextCheckInterval = 100

// ServiceOptions configure a Service.
type ServiceOptions struct {
	Settings      Settings      // Reader defaults; ParseOptions may override parts
	HeaderMode    HeaderMode    // Default header handling
	BatchSize     int           // Rows per COPY batch (default 1000)
	MaxConcurrent int           // Concurrent imports (default 5)
	MaxWait       time.Duration // Wait for an import slot (default 30s)
	ImportTimeout time.Duration // Upper bound for one import (default 10m)
	Logger        *slog.Logger
}

// Service reads registered record types from CSV input and imports them
// into Postgres. It is safe for concurrent use.
type Service struct {
	db      TxBeginner // nil disables Import
	opts    ServiceOptions
	limiter *ImportLimiter
	log     *slog.Logger
}

// NewService creates a service. db may be nil, in which case Parse works and
// Import returns ErrImportDisabled.
func NewService(db TxBeginner, opts ServiceOptions) *Service {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 1000
	}
	if opts.ImportTimeout <= 0 {
		opts.ImportTimeout = 10 * time.Minute
	}
	if opts.Settings.Delimiter == 0 {
		defaults := DefaultSettings()
		opts.Settings.Delimiter = defaults.Delimiter
		opts.Settings.Quote = defaults.Quote
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	opts.Settings.Logger = log
	return &Service{
		db:      db,
		opts:    opts,
		limiter: NewImportLimiter(opts.MaxConcurrent, opts.MaxWait),
		log:     log,
	}
}

// ImportsEnabled reports whether a database is configured.
func (s *Service) ImportsEnabled() bool {
	return s.db != nil
}

// ListRecords returns information about all registered record types.
func (s *Service) ListRecords() []RecordInfo {
	defs := All()
	infos := make([]RecordInfo, len(defs))
	for i, def := range defs {
		infos[i] = def.Info
	}
	return infos
}

// FieldInfo is the serialisable form of a FieldDescriptor.
type FieldInfo struct {
	Name     string `json:"name" yaml:"name"`
	Header   string `json:"header" yaml:"header"`
	DBColumn string `json:"db_column" yaml:"db_column"`
	Type     string `json:"type" yaml:"type"`
	Column   *int   `json:"column,omitempty" yaml:"column,omitempty"`
	Ignore   bool   `json:"ignore,omitempty" yaml:"ignore,omitempty"`
}

// RecordSchema describes a registered record type.
type RecordSchema struct {
	RecordInfo `yaml:",inline"`
	Fields     []FieldInfo `json:"fields" yaml:"fields"`
}

// Describe returns the schema of the record type registered under key.
func (s *Service) Describe(key string) (*RecordSchema, error) {
	def, err := lookup(key)
	if err != nil {
		return nil, err
	}
	schema := &RecordSchema{RecordInfo: def.Info}
	for _, f := range def.Fields {
		fi := FieldInfo{
			Name:     f.Name,
			Header:   f.Header,
			DBColumn: f.DBColumn,
			Type:     f.Tag.String(),
			Ignore:   f.Ignore,
		}
		if !f.Tag.Supported() {
			fi.Type = f.Type.String()
		}
		if f.HasColumn() {
			col := f.Column
			fi.Column = &col
		}
		schema.Fields = append(schema.Fields, fi)
	}
	return schema, nil
}

func lookup(key string) (RecordDefinition, error) {
	def, ok := Get(key)
	if !ok {
		return RecordDefinition{}, fmt.Errorf("%w: %q", ErrUnknownRecord, key)
	}
	return def, nil
}

// ParseOptions adjust a single Parse or Import call.
type ParseOptions struct {
	HeaderMode       *HeaderMode       // nil uses the service default
	Mapping          Mapping           // Explicit field -> column mapping, wins over headers
	ErrorPolicy      *ErrorPolicy      // nil uses the service default
	HeaderComparison *HeaderComparison // nil uses the service default
	Delimiter        rune              // 0 uses the service default
	Quote            rune              // 0 uses the service default
	Limit            int               // Maximum records returned by Parse, 0 for all
	Size             int64             // Input size if known, for progress logging
}

// BindingInfo is the serialisable form of a ColumnBinding.
type BindingInfo struct {
	Column int    `json:"column" yaml:"column"`
	Field  string `json:"field" yaml:"field"`
	Header string `json:"header" yaml:"header"`
	Type   string `json:"type" yaml:"type"`
}

// ParseResult is the outcome of Parse.
type ParseResult struct {
	Key       string        `json:"key" yaml:"key"`
	Header    []string      `json:"header,omitempty" yaml:"header,omitempty"`
	Bindings  []BindingInfo `json:"bindings" yaml:"bindings"`
	Records   []any         `json:"records" yaml:"records"`
	Stats     Stats         `json:"stats" yaml:"stats"`
	Truncated bool          `json:"truncated,omitempty" yaml:"truncated,omitempty"`
}

// Parse reads r as records of the type registered under key.
func (s *Service) Parse(ctx context.Context, key string, r io.Reader, opts ParseOptions) (*ParseResult, error) {
	def, err := lookup(key)
	if err != nil {
		return nil, err
	}

	input, counter := WrapInput(r, opts.Size)
	rr, err := s.openReader(def, input, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}

	result := &ParseResult{
		Key:      key,
		Header:   rr.Header(),
		Bindings: bindingInfos(rr.Bindings()),
		Records:  []any{},
	}
	err = eachRecord(ctx, rr, func(rec any) bool {
		result.Records = append(result.Records, rec)
		return opts.Limit == 0 || len(result.Records) < opts.Limit
	})
	if err == nil && opts.Limit > 0 && len(result.Records) >= opts.Limit {
		// Rows past the limit are never converted.
		result.Truncated, err = rr.SkipRow()
	}
	result.Stats = rr.Stats()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}

	s.log.Debug("parsed records",
		"record", key,
		"rows", result.Stats.Rows,
		"defaulted", result.Stats.Defaulted,
		"bytes", counter.BytesRead(),
	)
	return result, nil
}

// openReader builds the tokenizer and reader and applies header mode and
// mapping.
func (s *Service) openReader(def RecordDefinition, input io.Reader, opts ParseOptions) (RecordReader, error) {
	settings := s.opts.Settings
	if opts.ErrorPolicy != nil {
		settings.ErrorPolicy = *opts.ErrorPolicy
	}
	if opts.HeaderComparison != nil {
		settings.HeaderComparison = *opts.HeaderComparison
	}
	if opts.Delimiter != 0 {
		settings.Delimiter = opts.Delimiter
	}
	if opts.Quote != 0 {
		settings.Quote = opts.Quote
	}
	mode := s.opts.HeaderMode
	if opts.HeaderMode != nil {
		mode = *opts.HeaderMode
	}

	tok, err := NewTokenizer(input, settings.Delimiter, settings.Quote)
	if err != nil {
		return nil, err
	}
	rr, err := def.NewReader(tok, settings)
	if err != nil {
		return nil, err
	}

	if mode != HeaderNone {
		ok, err := rr.ReadHeader(mode == HeaderUse)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrEmptyInput
		}
	}
	if opts.Mapping != nil {
		if err := rr.SetMapping(opts.Mapping); err != nil {
			return nil, err
		}
	}
	return rr, nil
}

// eachRecord feeds normalised records to fn until input ends, fn returns
// false, or ctx is done.
func eachRecord(ctx context.Context, rr RecordReader, fn func(any) bool) error {
	for i := 0; ; i++ {
		if i%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		rec, err := rr.NextRecord()
		if err != nil {
			return err
		}
		if rec == nil {
			return nil
		}
		if n, ok := rec.(Normalizer); ok {
			n.Normalize()
		}
		if !fn(rec) {
			return nil
		}
	}
}

func bindingInfos(bindings []ColumnBinding) []BindingInfo {
	out := make([]BindingInfo, len(bindings))
	for i, b := range bindings {
		out[i] = BindingInfo{
			Column: b.Column,
			Field:  b.Field.Name,
			Header: b.Field.Header,
			Type:   b.Converter.Name(),
		}
	}
	return out
}

// ImportResult is the outcome of Import.
type ImportResult struct {
	ImportID  uuid.UUID     `json:"import_id" yaml:"import_id"`
	Key       string        `json:"key" yaml:"key"`
	Table     string        `json:"table" yaml:"table"`
	Columns   []string      `json:"columns" yaml:"columns"`
	Inserted  int64         `json:"inserted" yaml:"inserted"`
	Stats     Stats         `json:"stats" yaml:"stats"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
	Batches   int           `json:"batches" yaml:"batches"`
	BytesRead int64         `json:"bytes_read" yaml:"bytes_read"`
}

// Import reads r like Parse and copies every record into the record type's
// table in one transaction. Nothing is committed if any row fails under
// PolicyAbort.
func (s *Service) Import(ctx context.Context, key string, r io.Reader, opts ParseOptions) (*ImportResult, error) {
	if s.db == nil {
		return nil, ErrImportDisabled
	}
	def, err := lookup(key)
	if err != nil {
		return nil, err
	}
	if !def.SupportsImport() {
		return nil, fmt.Errorf("%s: %w", key, ErrImportUnsupported)
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(ctx, s.opts.ImportTimeout)
	defer cancel()

	start := time.Now()
	result := &ImportResult{
		ImportID: uuid.New(),
		Key:      key,
		Table:    def.Info.Table,
	}
	log := s.log.With("import_id", result.ImportID.String(), "record", key)
	if client := ClientFromContext(ctx); client.IP != "" {
		log = log.With("client_ip", client.IP)
	}

	input, counter := WrapInput(r, opts.Size)
	rr, err := s.openReader(def, input, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}

	copier := newCopier(def)
	result.Columns = copier.columns

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := make([][]any, 0, s.opts.BatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := copier.copy(ctx, tx, batch)
		if err != nil {
			return fmt.Errorf("copy batch %d: %w", result.Batches+1, err)
		}
		result.Inserted += n
		result.Batches++
		batch = batch[:0]
		log.Debug("batch copied", "batch", result.Batches, "inserted", result.Inserted,
			"progress", counter.Progress())
		return nil
	}

	var flushErr error
	err = eachRecord(ctx, rr, func(rec any) bool {
		batch = append(batch, copier.row(rec))
		if len(batch) >= s.opts.BatchSize {
			flushErr = flush()
		}
		return flushErr == nil
	})
	if err == nil {
		err = flushErr
	}
	if err == nil {
		err = flush()
	}
	result.Stats = rr.Stats()
	if err != nil {
		log.Warn("import failed", "rows", result.Stats.Rows, "error", err)
		return nil, fmt.Errorf("%s: %w", key, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	result.Duration = time.Since(start)
	result.BytesRead = counter.BytesRead()
	log.Info("import complete",
		"table", result.Table,
		"inserted", result.Inserted,
		"defaulted", result.Stats.Defaulted,
		"duration", result.Duration,
	)
	return result, nil
}

// LimiterStatus returns the import limiter state.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// WaitForImports blocks until running imports finish or ctx is done.
func (s *Service) WaitForImports(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
