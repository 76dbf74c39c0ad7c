package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	ContentTypeCSV  = "text/csv"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	templateSheet = "Sheet1"
)

var ErrUnknownTemplate = errors.New("unknown template")

// OrderTemplateCSV returns the order header with one sample line.
func OrderTemplateCSV() []byte {
	s := OrderSchema()
	return templateCSV(s.Headers(), s.ExampleRow())
}

func SKUTemplateCSV() []byte {
	s := SKUSchema()
	return templateCSV(s.Headers(), s.ExampleRow())
}

func WriteOrderTemplateXLSX(w io.Writer) error {
	s := OrderSchema()
	return templateXLSX(w, s.Headers(), s.RequiredHeaders(), s.ExampleRow())
}

func WriteSKUTemplateXLSX(w io.Writer) error {
	s := SKUSchema()
	return templateXLSX(w, s.Headers(), s.RequiredHeaders(), s.ExampleRow())
}

// WriteTemplate writes the template called name (orders.csv, skus.csv,
// orders.xlsx or skus.xlsx) and returns its content type.
func WriteTemplate(w io.Writer, name string) (string, error) {
	switch name {
	case "orders.csv":
		_, err := w.Write(OrderTemplateCSV())
		return ContentTypeCSV, err
	case "skus.csv":
		_, err := w.Write(SKUTemplateCSV())
		return ContentTypeCSV, err
	case "orders.xlsx":
		return ContentTypeXLSX, WriteOrderTemplateXLSX(w)
	case "skus.xlsx":
		return ContentTypeXLSX, WriteSKUTemplateXLSX(w)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownTemplate, name)
	}
}

func templateCSV(headers, example []string) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(headers)
	_ = w.Write(example)
	w.Flush()
	return buf.Bytes()
}

func templateXLSX(w io.Writer, headers, required, example []string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetRow(templateSheet, "A1", toCells(headers)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := f.SetSheetRow(templateSheet, "A2", toCells(example)); err != nil {
		return fmt.Errorf("write example: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}
	requiredStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"C65911"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}
	// text format keeps leading zeros in pincodes and long barcodes
	textStyle, err := f.NewStyle(&excelize.Style{NumFmt: 49})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	isRequired := make(map[string]bool, len(required))
	for _, h := range required {
		isRequired[h] = true
	}

	for i, h := range headers {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColStyle(templateSheet, col, textStyle); err != nil {
			return fmt.Errorf("set column style: %w", err)
		}
		if err := f.SetColWidth(templateSheet, col, col, 20); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}

		style := headerStyle
		if isRequired[h] {
			style = requiredStyle
		}
		cell := col + "1"
		if err := f.SetCellStyle(templateSheet, cell, cell, style); err != nil {
			return fmt.Errorf("set header style: %w", err)
		}
	}

	return f.Write(w)
}

func toCells(values []string) *[]interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return &cells
}
