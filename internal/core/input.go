package core

// input.go prepares raw byte streams for the tokenizer.
//
// Exports from Excel and other Windows tools frequently carry a byte order
// mark and the occasional invalid UTF-8 byte. WrapInput strips the BOM (UTF-8
// or UTF-16, decoding the latter) and replaces invalid sequences with U+FFFD
// while streaming, so memory use stays constant regardless of file size.

import (
	"io"
	"sync/atomic"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// CountingReader tracks the bytes read from the underlying reader.
type CountingReader struct {
	reader io.Reader
	read   atomic.Int64
	Total  int64 // If known (0 if unknown)
}

// NewCountingReader creates a counting reader with an optional total size.
func NewCountingReader(r io.Reader, total int64) *CountingReader {
	return &CountingReader{reader: r, Total: total}
}

// Read implements io.Reader.
func (r *CountingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.read.Add(int64(n))
	return n, err
}

// BytesRead returns the number of bytes consumed so far.
func (r *CountingReader) BytesRead() int64 {
	return r.read.Load()
}

// Progress returns the read progress as a percentage (0-100).
// Returns 0 if total is unknown.
func (r *CountingReader) Progress() int {
	if r.Total <= 0 {
		return 0
	}
	p := int(r.read.Load() * 100 / r.Total)
	if p > 100 {
		return 100
	}
	return p
}

// SanitizeInput strips a leading BOM and replaces invalid UTF-8.
func SanitizeInput(r io.Reader) io.Reader {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	return transform.NewReader(r, decoder)
}

// WrapInput counts raw bytes and then sanitizes them. Counting happens
// before decoding so Progress compares like with like against Total.
func WrapInput(r io.Reader, totalSize int64) (io.Reader, *CountingReader) {
	counter := NewCountingReader(r, totalSize)
	return SanitizeInput(counter), counter
}
