package core

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// ErrorPolicy decides what happens when a field value cannot be converted.
type ErrorPolicy int

const (
	// PolicyAbort fails the row read with a *ConversionError.
	PolicyAbort ErrorPolicy = iota
	// PolicySkip leaves the field at its zero value and keeps reading the row.
	PolicySkip
)

func (p ErrorPolicy) String() string {
	switch p {
	case PolicyAbort:
		return "abort"
	case PolicySkip:
		return "skip"
	default:
		return fmt.Sprintf("ErrorPolicy(%d)", int(p))
	}
}

// ParseErrorPolicy parses "abort" or "skip" (also "default").
func ParseErrorPolicy(s string) (ErrorPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "abort", "":
		return PolicyAbort, nil
	case "skip", "default":
		return PolicySkip, nil
	default:
		return PolicyAbort, fmt.Errorf("unknown error policy %q (use abort or skip)", s)
	}
}

// HeaderComparison decides how header text is matched against field headers.
type HeaderComparison int

const (
	// CompareOrdinal requires an exact match.
	CompareOrdinal HeaderComparison = iota
	// CompareIgnoreCase matches under Unicode case folding.
	CompareIgnoreCase
	// CompareNormalized strips CSV artifacts (see CleanCell) and then case folds.
	CompareNormalized
)

func (c HeaderComparison) String() string {
	switch c {
	case CompareOrdinal:
		return "ordinal"
	case CompareIgnoreCase:
		return "ignore-case"
	case CompareNormalized:
		return "normalized"
	default:
		return fmt.Sprintf("HeaderComparison(%d)", int(c))
	}
}

// ParseHeaderComparison parses "ordinal", "ignore-case" or "normalized".
func ParseHeaderComparison(s string) (HeaderComparison, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ordinal", "exact", "":
		return CompareOrdinal, nil
	case "ignore-case", "ignorecase", "insensitive":
		return CompareIgnoreCase, nil
	case "normalized", "normalised":
		return CompareNormalized, nil
	default:
		return CompareOrdinal, fmt.Errorf("unknown header comparison %q (use ordinal, ignore-case or normalized)", s)
	}
}

// Key returns the form of h used for matching. Two headers match when their
// keys are equal.
func (c HeaderComparison) Key(h string) string {
	switch c {
	case CompareIgnoreCase:
		return cases.Fold().String(h)
	case CompareNormalized:
		return cases.Fold().String(CleanCell(h))
	default:
		return h
	}
}

// HeaderMode tells the service what to do with the first row of a file.
type HeaderMode int

const (
	// HeaderNone treats every row as data.
	HeaderNone HeaderMode = iota
	// HeaderSkip reads the first row as a header but keeps the declared order.
	HeaderSkip
	// HeaderUse reads the first row as a header and maps columns by name.
	HeaderUse
)

func (m HeaderMode) String() string {
	switch m {
	case HeaderNone:
		return "none"
	case HeaderSkip:
		return "skip"
	case HeaderUse:
		return "use"
	default:
		return fmt.Sprintf("HeaderMode(%d)", int(m))
	}
}

// ParseHeaderMode parses "none", "skip" or "use".
func ParseHeaderMode(s string) (HeaderMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "":
		return HeaderNone, nil
	case "skip":
		return HeaderSkip, nil
	case "use":
		return HeaderUse, nil
	default:
		return HeaderNone, fmt.Errorf("unknown header mode %q (use none, skip or use)", s)
	}
}

// ParseRune parses a delimiter or quote setting. It accepts exactly one
// character; "\t" and "tab" name a tab.
func ParseRune(s string) (rune, error) {
	if s == `\t` || s == "tab" {
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if s == "" || size != len(s) || r == utf8.RuneError {
		return 0, fmt.Errorf("%q must be a single character", s)
	}
	return r, nil
}

// Settings configure a reader. They are read once when the reader is
// constructed.
type Settings struct {
	Delimiter        rune             // Field separator, passed to the tokenizer
	Quote            rune             // Quote character, passed to the tokenizer
	HeaderComparison HeaderComparison // How header text is matched
	ErrorPolicy      ErrorPolicy      // What to do with unconvertible values
	Logger           *slog.Logger     // Optional; defaults to slog.Default()
}

// DefaultSettings returns comma-delimited, double-quoted, exact header
// matching and aborting on bad values.
func DefaultSettings() Settings {
	return Settings{
		Delimiter:        ',',
		Quote:            '"',
		HeaderComparison: CompareOrdinal,
		ErrorPolicy:      PolicyAbort,
	}
}

func (s Settings) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
