package csvparse

// RowError ties a failure to a physical file line (header is line 1).
type RowError struct {
	Row     int    `json:"row"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	RawData RawRow `json:"raw_data,omitempty"`
}

type ParsedRow[T any] struct {
	Line  int    `json:"line"`
	Raw   RawRow `json:"raw"`
	Value T      `json:"value"`
}

// ParseResult accumulates valid rows and row errors. Blank rows count in
// neither total, so ValidRows+ErrorRows == TotalRows always holds.
type ParseResult[T any] struct {
	Success   bool           `json:"success"`
	Aborted   bool           `json:"aborted"`
	Data      []ParsedRow[T] `json:"data"`
	Errors    []RowError     `json:"errors"`
	TotalRows int            `json:"total_rows"`
	ValidRows int            `json:"valid_rows"`
	ErrorRows int            `json:"error_rows"`
}

func newResult[T any]() *ParseResult[T] {
	return &ParseResult[T]{
		Data:   []ParsedRow[T]{},
		Errors: []RowError{},
	}
}

// abort replaces everything gathered so far with a single structural error.
func abort[T any](line int, msg string) *ParseResult[T] {
	res := newResult[T]()
	res.Aborted = true
	res.Errors = append(res.Errors, RowError{Row: line, Message: msg})
	return res
}

// InvalidLines returns the distinct lines that failed validation, in file order.
func (r *ParseResult[T]) InvalidLines() []int {
	seen := make(map[int]struct{})
	var lines []int
	for _, e := range r.Errors {
		if _, ok := seen[e.Row]; ok {
			continue
		}
		seen[e.Row] = struct{}{}
		lines = append(lines, e.Row)
	}
	return lines
}
