package core

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrUnterminatedQuote is returned when input ends inside a quoted field.
var ErrUnterminatedQuote = errors.New("unterminated quoted field")

// RowSource yields tokenized rows. ReadRow returns io.EOF after the last row.
type RowSource interface {
	ReadRow() ([]string, error)
}

// SyntaxError reports malformed delimited text.
type SyntaxError struct {
	Line int
	Err  error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

// Tokenizer splits delimited text into rows of fields.
//
// Quoted fields may contain the delimiter, newlines and doubled quotes. CRLF
// and lone CR line endings are normalised to LF both as row terminators and
// inside quoted fields. Blank lines are skipped, as with encoding/csv, so in
// a single-column file an empty value needs to be written as "" to produce a
// row. A quote appearing inside an unquoted field is kept literally.
//
// The row returned by ReadRow shares storage with the tokenizer and is only
// valid until the next call.
type Tokenizer struct {
	r         *bufio.Reader
	delimiter rune
	quote     rune
	fields    *GrowableBuffer[string]
	field     strings.Builder
	line      int
}

// NewTokenizer creates a tokenizer reading from r.
func NewTokenizer(r io.Reader, delimiter, quote rune) (*Tokenizer, error) {
	if err := validSeparators(delimiter, quote); err != nil {
		return nil, err
	}
	return &Tokenizer{
		r:         bufio.NewReader(r),
		delimiter: delimiter,
		quote:     quote,
		fields:    NewGrowableBuffer[string](GrowBy),
	}, nil
}

func validSeparators(delimiter, quote rune) error {
	switch {
	case delimiter == quote:
		return configErrorf("", "delimiter and quote must differ (both %q)", delimiter)
	case delimiter == '\r' || delimiter == '\n' || quote == '\r' || quote == '\n':
		return configErrorf("", "delimiter and quote cannot be line terminators")
	case delimiter <= 0 || quote <= 0:
		return configErrorf("", "delimiter and quote must be set")
	}
	return nil
}

// Line returns the number of input lines consumed so far.
func (t *Tokenizer) Line() int {
	return t.line
}

// ReadRow returns the next non-blank row.
func (t *Tokenizer) ReadRow() ([]string, error) {
	for {
		row, err := t.readRecord()
		if err != nil {
			return nil, err
		}
		if row != nil {
			return row, nil
		}
	}
}

// readRecord returns nil, nil for a blank line.
func (t *Tokenizer) readRecord() ([]string, error) {
	t.fields.Reset()
	t.field.Reset()

	r, _, err := t.r.ReadRune()
	if err != nil {
		return nil, err
	}
	t.line++
	start := t.line
	if r == '\n' {
		return nil, nil
	}
	if r == '\r' {
		t.skipLF()
		return nil, nil
	}
	_ = t.r.UnreadRune()

	inQuotes, quoted := false, false
	for {
		r, _, err := t.r.ReadRune()
		if err == io.EOF {
			if inQuotes {
				return nil, &SyntaxError{Line: start, Err: ErrUnterminatedQuote}
			}
			t.endField()
			return t.fields.Finalize(), nil
		}
		if err != nil {
			return nil, err
		}

		if inQuotes {
			switch r {
			case t.quote:
				next, _, err := t.r.ReadRune()
				if err == nil && next == t.quote {
					t.field.WriteRune(t.quote)
					continue
				}
				if err == nil {
					_ = t.r.UnreadRune()
				}
				inQuotes = false
			case '\r':
				t.skipLF()
				t.line++
				t.field.WriteByte('\n')
			case '\n':
				t.line++
				t.field.WriteByte('\n')
			default:
				t.field.WriteRune(r)
			}
			continue
		}

		switch {
		case r == t.quote && !quoted && t.field.Len() == 0:
			inQuotes, quoted = true, true
		case r == t.delimiter:
			t.endField()
			quoted = false
		case r == '\n':
			t.endField()
			return t.fields.Finalize(), nil
		case r == '\r':
			t.skipLF()
			t.endField()
			return t.fields.Finalize(), nil
		default:
			t.field.WriteRune(r)
		}
	}
}

func (t *Tokenizer) endField() {
	t.fields.Append(t.field.String())
	t.field.Reset()
}

func (t *Tokenizer) skipLF() {
	next, _, err := t.r.ReadRune()
	if err == nil && next != '\n' {
		_ = t.r.UnreadRune()
	}
}

// SliceSource replays rows held in memory.
type SliceSource struct {
	rows [][]string
	pos  int
}

// NewSliceSource creates a source over rows.
func NewSliceSource(rows ...[]string) *SliceSource {
	return &SliceSource{rows: rows}
}

// ReadRow implements RowSource.
func (s *SliceSource) ReadRow() ([]string, error) {
	if s.pos >= len(s.rows) {
		return nil, io.EOF
	}
	row := s.rows[s.pos]
	s.pos++
	return row, nil
}
