package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// PDFRowLimit caps the number of table rows written to a PDF export.
const PDFRowLimit = 100

// PDFExporter renders datasets into a landscape tabular PDF.
type PDFExporter struct {
	limit int
}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{limit: PDFRowLimit}
}

// Export renders at most PDFRowLimit rows and flags the output when rows were dropped.
func (e *PDFExporter) Export(data Dataset, title string) (*Output, error) {
	payload, truncated, err := e.render(data, title)
	if err != nil {
		return nil, err
	}
	rows := len(data.Rows)
	if truncated {
		rows = e.limit
	}
	return &Output{Payload: payload, ContentType: "application/pdf", Extension: "pdf", Rows: rows, Truncated: truncated}, nil
}

// Render creates a PDF document with an optional title and table body.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	payload, _, err := e.render(data, title)
	return payload, err
}

func (e *PDFExporter) render(data Dataset, title string) ([]byte, bool, error) {
	if len(data.Headers) == 0 {
		return nil, false, fmt.Errorf("pdf requires at least one header")
	}
	rows := data.Rows
	truncated := false
	if e.limit > 0 && len(rows) > e.limit {
		rows = rows[:e.limit]
		truncated = true
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 12)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, tr(strings.ToUpper(title)), "", 1, "C", false, 0, "")
		pdf.Ln(3)
	}

	pageWidth, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	colWidth := (pageWidth - left - right) / float64(len(data.Headers))

	writeHeader := func() {
		pdf.SetFont("Arial", "B", 8)
		pdf.SetFillColor(230, 230, 230)
		for _, header := range data.Headers {
			pdf.CellFormat(colWidth, 7, tr(header), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 7)
	}
	pdf.SetHeaderFunc(func() {
		if pdf.PageNo() > 1 {
			writeHeader()
		}
	})
	writeHeader()

	for _, row := range rows {
		for _, header := range data.Headers {
			pdf.CellFormat(colWidth, 6, tr(clip(row[header], colWidth)), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if truncated {
		pdf.Ln(3)
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(0, 6, fmt.Sprintf("Truncated: showing first %d of %d records. Export as CSV for the full dataset.", e.limit, len(data.Rows)), "", 1, "L", false, 0, "")
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, false, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), truncated, nil
}

// clip keeps cell text roughly inside its column at 7pt.
func clip(value string, width float64) string {
	limit := int(width / 1.6)
	if limit < 4 || len(value) <= limit {
		return value
	}
	return value[:limit-3] + "..."
}
