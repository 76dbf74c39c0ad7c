// Package csvparse turns uploaded tabular text into typed rows.
//
// A Schema is an ordered list of fields. Each field coerces one raw cell and
// checks its constraints; every violated constraint becomes a FieldError, so a
// single bad row never aborts a file.
package csvparse

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// RawRow maps a normalised header name to the raw cell text.
type RawRow map[string]string

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type rules struct {
	required   bool
	def        *string
	minLen     int
	maxLen     int
	pattern    *regexp.Regexp
	patternMsg string
	min        *float64
	max        *float64
	example    string
}

// Rule configures a field constraint.
type Rule func(*rules)

func Required() Rule {
	return func(r *rules) { r.required = true }
}

// Default is the raw text used when an optional cell is empty. It goes
// through the same coercion as a real cell.
func Default(raw string) Rule {
	return func(r *rules) { r.def = &raw }
}

func MinLen(n int) Rule {
	return func(r *rules) { r.minLen = n }
}

func MaxLen(n int) Rule {
	return func(r *rules) { r.maxLen = n }
}

func Pattern(re *regexp.Regexp, msg string) Rule {
	return func(r *rules) {
		r.pattern = re
		r.patternMsg = msg
	}
}

var (
	emailPattern  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	digitsPattern = regexp.MustCompile(`^[0-9]+$`)
)

func Email() Rule {
	return Pattern(emailPattern, "must be a valid email address")
}

func Digits() Rule {
	return Pattern(digitsPattern, "must contain digits only")
}

func Min(v float64) Rule {
	return func(r *rules) { r.min = &v }
}

func Max(v float64) Rule {
	return func(r *rules) { r.max = &v }
}

// Example sets the sample value written to generated templates.
func Example(v string) Rule {
	return func(r *rules) { r.example = v }
}

// Field is one column of a Schema.
type Field[T any] struct {
	Name     string
	Required bool
	Example  string
	apply    func(raw string, dst *T) []string
}

func buildRules(opts []Rule) *rules {
	r := &rules{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// newField wires coercion, constraint checks and the setter for one column.
func newField[T, V any](name string, opts []Rule, coerce func(string) (V, string), check func(V, *rules) []string, set func(*T, V)) Field[T] {
	r := buildRules(opts)
	return Field[T]{
		Name:     name,
		Required: r.required,
		Example:  r.example,
		apply: func(raw string, dst *T) []string {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				if r.required {
					return []string{"is required"}
				}
				if r.def == nil {
					return nil
				}
				raw = *r.def
			}

			v, msg := coerce(raw)
			if msg != "" {
				return []string{msg}
			}
			if violations := check(v, r); len(violations) > 0 {
				return violations
			}

			set(dst, v)
			return nil
		},
	}
}

func Text[T any](name string, set func(*T, string), opts ...Rule) Field[T] {
	return newField(name, opts, func(s string) (string, string) { return s, "" }, checkText, set)
}

func Int[T any](name string, set func(*T, int), opts ...Rule) Field[T] {
	return newField(name, opts, coerceInt, checkInt, set)
}

func Number[T any](name string, set func(*T, float64), opts ...Rule) Field[T] {
	return newField(name, opts, coerceNumber, checkNumber, set)
}

// Enum matches case-insensitively and hands the canonical spelling to set.
func Enum[T any](name string, values []string, set func(*T, string), opts ...Rule) Field[T] {
	coerce := func(s string) (string, string) {
		for _, v := range values {
			if strings.EqualFold(v, s) {
				return v, ""
			}
		}
		return "", "must be one of: " + strings.Join(values, ", ")
	}
	return newField(name, opts, coerce, func(string, *rules) []string { return nil }, set)
}

func Date[T any](name string, set func(*T, time.Time), opts ...Rule) Field[T] {
	return newField(name, opts, coerceDate, func(time.Time, *rules) []string { return nil }, set)
}

func checkText(s string, r *rules) []string {
	var out []string
	n := utf8.RuneCountInString(s)
	if r.minLen > 0 && n < r.minLen {
		out = append(out, fmt.Sprintf("must be at least %d characters", r.minLen))
	}
	if r.maxLen > 0 && n > r.maxLen {
		out = append(out, fmt.Sprintf("must be at most %d characters", r.maxLen))
	}
	if r.pattern != nil && !r.pattern.MatchString(s) {
		out = append(out, r.patternMsg)
	}
	return out
}

func checkBounds(v float64, r *rules) []string {
	var out []string
	if r.min != nil && v < *r.min {
		out = append(out, "must be at least "+formatBound(*r.min))
	}
	if r.max != nil && v > *r.max {
		out = append(out, "must be at most "+formatBound(*r.max))
	}
	return out
}

func checkInt(v int, r *rules) []string {
	return checkBounds(float64(v), r)
}

func checkNumber(v float64, r *rules) []string {
	return checkBounds(v, r)
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// groupedNumber matches comma thousands grouping such as 1,000 or 12,500.75.
var groupedNumber = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+(\.\d+)?$`)

// cleanNumber drops a leading currency sign and thousands separators. Any
// other comma, such as a decimal comma in 10,50, is left for the parse to reject.
func cleanNumber(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "₹")
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimSpace(s)
	if groupedNumber.MatchString(s) {
		s = strings.ReplaceAll(s, ",", "")
	}
	return s
}

func coerceInt(s string) (int, string) {
	s = cleanNumber(s)
	if v, err := strconv.Atoi(s); err == nil {
		return v, ""
	}
	// "2.0" from spreadsheet exports is still an integer
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == math.Trunc(f) &&
		f >= math.MinInt && f < math.MaxInt {
		return int(f), ""
	}
	return 0, "must be an integer"
}

func coerceNumber(s string) (float64, string) {
	f, err := strconv.ParseFloat(cleanNumber(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, "must be a number"
	}
	return f, ""
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2-1-2006",
	"02.01.2006",
	"2006/01/02",
	"02 Jan 2006",
	"Jan 2, 2006",
}

func coerceDate(s string) (time.Time, string) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, ""
		}
	}
	return time.Time{}, "must be a valid date (YYYY-MM-DD or DD/MM/YYYY)"
}

// Schema is an ordered list of fields validated together against one row.
type Schema[T any] struct {
	fields []Field[T]
}

func NewSchema[T any](fields ...Field[T]) *Schema[T] {
	return &Schema[T]{fields: fields}
}

func (s *Schema[T]) Headers() []string {
	headers := make([]string, len(s.fields))
	for i, f := range s.fields {
		headers[i] = f.Name
	}
	return headers
}

func (s *Schema[T]) RequiredHeaders() []string {
	var headers []string
	for _, f := range s.fields {
		if f.Required {
			headers = append(headers, f.Name)
		}
	}
	return headers
}

// ExampleRow returns the sample values in header order.
func (s *Schema[T]) ExampleRow() []string {
	row := make([]string, len(s.fields))
	for i, f := range s.fields {
		row[i] = f.Example
	}
	return row
}

// Validate applies every field to raw and returns either the typed row or all
// violations found on it.
func (s *Schema[T]) Validate(raw RawRow) (T, []FieldError) {
	var out T
	var errs []FieldError

	for _, f := range s.fields {
		for _, msg := range f.apply(raw[f.Name], &out) {
			errs = append(errs, FieldError{Field: f.Name, Message: msg})
		}
	}

	if len(errs) > 0 {
		var zero T
		return zero, errs
	}
	return out, nil
}

// IsBlank reports whether every cell of the row is empty.
func IsBlank(raw RawRow) bool {
	for _, v := range raw {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func isBlankRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// NormalizeHeader lower-cases a header cell and joins words with underscores.
func NormalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.Join(strings.Fields(h), "_")
}
