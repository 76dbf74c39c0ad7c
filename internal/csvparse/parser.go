package csvparse

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

type Options struct {
	Delimiter      rune
	SkipEmptyLines bool
	TrimFields     bool
	HeadersPresent bool
	Encoding       Encoding
}

func DefaultOptions() Options {
	return Options{
		Delimiter:      ',',
		SkipEmptyLines: true,
		TrimFields:     true,
		HeadersPresent: true,
		Encoding:       EncodingUTF8,
	}
}

// Parse reads CSV text from r and validates every non-blank row against schema.
// Row-level violations are accumulated; a structural failure of the stream
// yields a single error and an aborted result with no data.
func Parse[T any](ctx context.Context, r io.Reader, schema *Schema[T], opts Options) *ParseResult[T] {
	src, err := newCSVSource(r, opts)
	if err != nil {
		return abort[T](1, err.Error())
	}
	return parseRecords(ctx, src, schema, opts)
}

func ParseString[T any](ctx context.Context, text string, schema *Schema[T], opts Options) *ParseResult[T] {
	return Parse(ctx, strings.NewReader(text), schema, opts)
}

// ParseXLSX runs the first sheet of a workbook through the same pipeline.
func ParseXLSX[T any](ctx context.Context, r io.Reader, schema *Schema[T], opts Options) *ParseResult[T] {
	src, err := newXLSXSource(r)
	if err != nil {
		return abort[T](1, err.Error())
	}
	return parseRecords(ctx, src, schema, opts)
}

func parseRecords[T any](ctx context.Context, src recordSource, schema *Schema[T], opts Options) *ParseResult[T] {
	res := newResult[T]()

	headers := schema.Headers()
	if opts.HeadersPresent {
		record, line, err := src.Read()
		if errors.Is(err, io.EOF) {
			res.Success = true
			return res
		}
		if err != nil {
			return abort[T](line, "malformed CSV: "+err.Error())
		}

		headers = make([]string, len(record))
		for i, h := range record {
			headers[i] = NormalizeHeader(h)
		}
		if missing := missingHeaders(headers, schema.RequiredHeaders()); len(missing) > 0 {
			return abort[T](line, "missing required columns: "+strings.Join(missing, ", "))
		}
	}

	lastLine := 1
	for {
		if err := ctx.Err(); err != nil {
			return abort[T](lastLine+1, fmt.Sprintf("parsing stopped: %v", err))
		}

		record, line, err := src.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return abort[T](line, "malformed CSV: "+err.Error())
		}
		lastLine = line

		if opts.TrimFields {
			for i := range record {
				record[i] = strings.TrimSpace(record[i])
			}
		}
		if opts.SkipEmptyLines && isBlankRecord(record) {
			continue
		}

		raw := toRawRow(headers, record)
		res.TotalRows++

		value, fieldErrs := schema.Validate(raw)
		if len(fieldErrs) > 0 {
			res.ErrorRows++
			for _, fe := range fieldErrs {
				res.Errors = append(res.Errors, RowError{
					Row:     line,
					Field:   fe.Field,
					Message: fe.Message,
					RawData: raw,
				})
			}
			continue
		}

		res.ValidRows++
		res.Data = append(res.Data, ParsedRow[T]{Line: line, Raw: raw, Value: value})
	}

	res.Success = len(res.Errors) == 0
	return res
}

// toRawRow maps cells to headers; short rows read missing cells as empty and
// cells beyond the header are dropped.
func toRawRow(headers, record []string) RawRow {
	raw := make(RawRow, len(headers))
	for i, h := range headers {
		if h == "" {
			continue
		}
		if i < len(record) {
			raw[h] = record[i]
		} else {
			raw[h] = ""
		}
	}
	return raw
}

func missingHeaders(headers, required []string) []string {
	present := make(map[string]struct{}, len(headers))
	for _, h := range headers {
		present[h] = struct{}{}
	}

	var missing []string
	for _, r := range required {
		if _, ok := present[r]; !ok {
			missing = append(missing, r)
		}
	}
	return missing
}
