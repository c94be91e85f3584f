package core

// convert.go holds the literal parse and format rules for every element kind.
//
// Parsing is lenient where CSV exports are messy in practice:
//   - Numbers tolerate surrounding whitespace
//   - Decimals tolerate currency symbols, thousands separators and
//     accounting format (parentheses for negative)
//   - Booleans accept yes/no, true/false, t/f, y/n, 1/0
//   - Dates accept ISO, US and EU layouts with 2-digit year handling
//
// Formatting is strict and always produces a literal the parser accepts, so
// a value read from a file survives a write/read round trip.

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// errEmpty is returned when a value is required but the input is blank.
var errEmpty = errors.New("empty value")

// numericRegex validates that a string is a valid numeric format after cleanup.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)

// TwoDigitYearPivot defines how 2-digit years are interpreted.
// Years that would result in dates more than this many years in the future
// are assumed to be in the previous century.
var TwoDigitYearPivot = 20

// Date layouts split by year format for proper 2-digit year handling
var (
	timeLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
	}
	twoDigitYearLayouts = []string{
		"1/2/06", "01/02/06", "1-2-06", "1.2.06", "01.02.06",
	}
	fourDigitYearLayouts = []string{
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "1.2.2006", "01.02.2006",
		"2006-01-02", "2006/01/02", "2006.01.02",
		"Jan 2, 2006", "2 Jan 2006",
		"20060102",
	}
)

func parseString(s string) (string, error) { return s, nil }
func formatString(s string) string         { return s }

// parseChar accepts exactly one character. Whitespace is significant.
func parseChar(s string) (Char, error) {
	if s == "" {
		return 0, errEmpty
	}
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError && size <= 1 {
		return 0, fmt.Errorf("invalid UTF-8 in %q", s)
	}
	if size != len(s) {
		return 0, fmt.Errorf("expected a single character, got %q", s)
	}
	return Char(r), nil
}

func formatChar(c Char) string { return string(rune(c)) }

// parseBool accepts the same vocabulary the upload validator always has.
func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return false, errEmpty
	case "true", "t", "yes", "y", "1":
		return true, nil
	case "false", "f", "no", "n", "0":
		return false, nil
	default:
		return false, fmt.Errorf("must be yes/no, true/false, or 1/0: %q", s)
	}
}

func formatBool(b bool) string { return strconv.FormatBool(b) }

type signed interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64
}

type unsigned interface {
	~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

func parseSigned[T signed](bits int) func(string) (T, error) {
	return func(s string) (T, error) {
		s = strings.TrimSpace(s)
		if s == "" {
			return 0, errEmpty
		}
		v, err := strconv.ParseInt(s, 10, bits)
		if err != nil {
			return 0, err
		}
		return T(v), nil
	}
}

func formatSigned[T signed](v T) string { return strconv.FormatInt(int64(v), 10) }

func parseUnsigned[T unsigned](bits int) func(string) (T, error) {
	return func(s string) (T, error) {
		s = strings.TrimSpace(s)
		if s == "" {
			return 0, errEmpty
		}
		v, err := strconv.ParseUint(strings.TrimPrefix(s, "+"), 10, bits)
		if err != nil {
			return 0, err
		}
		return T(v), nil
	}
}

func formatUnsigned[T unsigned](v T) string { return strconv.FormatUint(uint64(v), 10) }

func parseFloat32(s string) (float32, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errEmpty
	}
	v, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return 0, err
	}
	return float32(v), nil
}

func formatFloat32(v float32) string { return strconv.FormatFloat(float64(v), 'g', -1, 32) }

func parseFloat64(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errEmpty
	}
	return strconv.ParseFloat(s, 64)
}

func formatFloat64(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

// parseDecimal converts a string to pgtype.Numeric.
// Handles currency symbols, thousands separators, and accounting format (parentheses for negative).
func parseDecimal(s string) (pgtype.Numeric, error) {
	raw := s
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Numeric{}, errEmpty
	}

	// Detect negative accounting format "(123.45)"
	isNegative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		isNegative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "€", "") // Euro
	s = strings.ReplaceAll(s, "£", "") // Pound
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	if isNegative {
		s = "-" + s
	}

	if !numericRegex.MatchString(s) {
		return pgtype.Numeric{}, fmt.Errorf("invalid number format: %q", raw)
	}

	var n pgtype.Numeric
	if err := n.Scan(s); err != nil {
		return pgtype.Numeric{}, fmt.Errorf("invalid number format: %q: %w", raw, err)
	}
	return n, nil
}

// formatDecimal renders a numeric in the plain text form Postgres uses.
func formatDecimal(n pgtype.Numeric) string {
	if !n.Valid {
		return ""
	}
	v, err := n.Value()
	if err != nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

// parseTime tries full timestamps first, then 4-digit year dates (unambiguous),
// then 2-digit year dates with pivot year adjustment.
func parseTime(s string) (time.Time, error) {
	raw := s
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errEmpty
	}

	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	for _, layout := range fourDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	pivotYear := time.Now().Year() + TwoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("invalid date format (use YYYY-MM-DD or similar): %q", raw)
}

func formatTime(t time.Time) string { return t.Format(time.RFC3339Nano) }

func parseUUID(s string) (uuid.UUID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return uuid.Nil, errEmpty
	}
	return uuid.Parse(s)
}

func formatUUID(u uuid.UUID) string { return u.String() }

// bitsOf returns the platform width of int and uint.
func bitsOf() int {
	if math.MaxInt == math.MaxInt32 {
		return 32
	}
	return 64
}

// CleanCell removes common CSV artifacts from a cell value:
// - Trims whitespace
// - Removes Excel formula prefix (="...")
// - Removes surrounding quotes
// - Removes "netsuite:" prefix
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	s = strings.Trim(s, `"'`)

	s = strings.TrimPrefix(s, "netsuite:")

	return s
}
