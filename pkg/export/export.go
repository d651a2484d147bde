// Package export renders tabular datasets into downloadable documents.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Table is ordered tabular content ready for rendering. Every row must have
// one cell per column.
type Table struct {
	Columns []string
	Rows    [][]string
}

// CSV renders the table as CSV bytes.
func CSV(t Table) ([]byte, error) {
	if len(t.Columns) == 0 {
		return nil, fmt.Errorf("export: csv requires at least one column")
	}
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	if err := w.Write(t.Columns); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range t.Rows {
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// PDF renders the table as a single-page-per-overflow A4 PDF with an
// optional title.
func PDF(t Table, title string) ([]byte, error) {
	if len(t.Columns) == 0 {
		return nil, fmt.Errorf("export: pdf requires at least one column")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(title), "", 1, "C", false, 0, "")
		pdf.Ln(5)
	}

	width := 190.0 / float64(len(t.Columns))

	pdf.SetFont("Arial", "B", 10)
	for _, col := range t.Columns {
		pdf.CellFormat(width, 8, col, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range t.Rows {
		for _, cell := range row {
			pdf.CellFormat(width, 7, cell, "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
