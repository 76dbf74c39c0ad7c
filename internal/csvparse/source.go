package csvparse

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

type Encoding string

const (
	EncodingUTF8        Encoding = "utf-8"
	EncodingWindows1250 Encoding = "windows-1250"
	EncodingISO88592    Encoding = "iso-8859-2"
)

var errUnknownEncoding = errors.New("unknown encoding")

// recordSource yields one record at a time with its starting physical line.
type recordSource interface {
	Read() (record []string, line int, err error)
}

// SourceError is a structural failure of the underlying stream.
type SourceError struct {
	Line int
	Err  error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// decodeReader strips a UTF-8 BOM and converts legacy code pages to UTF-8.
func decodeReader(r io.Reader, enc Encoding) (io.Reader, error) {
	switch enc {
	case "", EncodingUTF8:
		return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())), nil
	case EncodingWindows1250:
		return transform.NewReader(r, charmap.Windows1250.NewDecoder()), nil
	case EncodingISO88592:
		return transform.NewReader(r, charmap.ISO8859_2.NewDecoder()), nil
	default:
		return nil, fmt.Errorf("%w: %s", errUnknownEncoding, enc)
	}
}

type csvSource struct {
	reader   *csv.Reader
	lastLine int
}

func newCSVSource(r io.Reader, opts Options) (*csvSource, error) {
	decoded, err := decodeReader(r, opts.Encoding)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(decoded)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = opts.TrimFields

	return &csvSource{reader: reader}, nil
}

func (s *csvSource) Read() ([]string, int, error) {
	record, err := s.reader.Read()
	if err == io.EOF {
		return nil, 0, io.EOF
	}
	if err != nil {
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			return nil, parseErr.Line, &SourceError{Line: parseErr.Line, Err: parseErr.Err}
		}
		return nil, s.lastLine + 1, &SourceError{Line: s.lastLine + 1, Err: err}
	}

	line, _ := s.reader.FieldPos(0)
	s.lastLine = line
	return record, line, nil
}

// sliceSource serves records already held in memory, such as the rows of a
// spreadsheet. Line numbers follow the sheet's row numbers.
type sliceSource struct {
	rows [][]string
	next int
}

func (s *sliceSource) Read() ([]string, int, error) {
	if s.next >= len(s.rows) {
		return nil, 0, io.EOF
	}
	row := s.rows[s.next]
	s.next++
	return row, s.next, nil
}

func newXLSXSource(r io.Reader) (*sliceSource, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}

	return &sliceSource{rows: rows}, nil
}
