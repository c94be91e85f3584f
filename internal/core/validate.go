package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// maxErrorSamples bounds the errors kept in a ValidationReport.
const maxErrorSamples = 20

// RowError is one conversion failure found by Validate.
type RowError struct {
	Row    int    `json:"row" yaml:"row"`
	Column int    `json:"column" yaml:"column"`
	Field  string `json:"field" yaml:"field"`
	Value  string `json:"value" yaml:"value"`
	Error  string `json:"error" yaml:"error"`
}

// ValidationReport summarises a dry run over a file.
type ValidationReport struct {
	Key              string        `json:"key" yaml:"key"`
	TotalRows        int           `json:"total_rows" yaml:"total_rows"`
	ValidRows        int           `json:"valid_rows" yaml:"valid_rows"`
	ErrorRows        int           `json:"error_rows" yaml:"error_rows"`
	Bindings         []BindingInfo `json:"bindings" yaml:"bindings"`
	UnmatchedHeaders []string      `json:"unmatched_headers,omitempty" yaml:"unmatched_headers,omitempty"`
	UnboundFields    []string      `json:"unbound_fields,omitempty" yaml:"unbound_fields,omitempty"`
	ErrorSamples     []RowError    `json:"error_samples,omitempty" yaml:"error_samples,omitempty"`
	ProcessingTimeMs int64         `json:"processing_time_ms" yaml:"processing_time_ms"`
}

// Validate reads every row without keeping records and reports which rows
// fail conversion. Each failing row is reported once, for its first bad
// field. The error policy option is ignored.
func (s *Service) Validate(ctx context.Context, key string, r io.Reader, opts ParseOptions) (*ValidationReport, error) {
	start := time.Now()
	def, err := lookup(key)
	if err != nil {
		return nil, err
	}

	abort := PolicyAbort
	opts.ErrorPolicy = &abort
	input, _ := WrapInput(r, opts.Size)
	rr, err := s.openReader(def, input, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}

	bindings := rr.Bindings()
	report := &ValidationReport{
		Key:              key,
		Bindings:         bindingInfos(bindings),
		UnmatchedHeaders: unmatchedHeaders(rr.Header(), bindings),
		UnboundFields:    unboundFields(def.Fields, bindings),
	}

	for i := 0; ; i++ {
		if i%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		rec, err := rr.NextRecord()
		var convErr *ConversionError
		switch {
		case errors.As(err, &convErr):
			report.TotalRows++
			report.ErrorRows++
			if len(report.ErrorSamples) < maxErrorSamples {
				report.ErrorSamples = append(report.ErrorSamples, RowError{
					Row:    convErr.Row,
					Column: convErr.Column,
					Field:  convErr.Field,
					Value:  convErr.Value,
					Error:  convErr.Err.Error(),
				})
			}
			continue
		case err != nil:
			return nil, fmt.Errorf("%s: %w", key, err)
		case rec == nil:
			report.ProcessingTimeMs = time.Since(start).Milliseconds()
			return report, nil
		}
		report.TotalRows++
		report.ValidRows++
	}
}

// unmatchedHeaders lists header cells that no binding reads.
func unmatchedHeaders(header []string, bindings []ColumnBinding) []string {
	if len(header) == 0 {
		return nil
	}
	bound := make(map[int]bool, len(bindings))
	for _, b := range bindings {
		bound[b.Column] = true
	}
	var out []string
	for col, h := range header {
		if !bound[col] {
			out = append(out, h)
		}
	}
	return out
}

// unboundFields lists mappable fields that no binding writes.
func unboundFields(fields []FieldDescriptor, bindings []ColumnBinding) []string {
	bound := make(map[string]bool, len(bindings))
	for _, b := range bindings {
		bound[b.Field.Name] = true
	}
	var out []string
	for _, f := range fields {
		if !f.Ignore && !bound[f.Name] {
			out = append(out, f.Name)
		}
	}
	return out
}
