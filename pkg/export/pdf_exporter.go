package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

const (
	pageWidthLandscape = 277.0
	maxCellRunes       = 40
)

// PDFExporter renders datasets into a landscape tabular PDF with a page
// footer.
type PDFExporter struct {
	now func() time.Time
}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{now: time.Now}
}

func (e *PDFExporter) ContentType() string { return "application/pdf" }

func (e *PDFExporter) Extension() string { return ".pdf" }

// Render creates a PDF document with the dataset title and table body.
func (e *PDFExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	generated := e.now().Format("2006-01-02 15:04")

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.SetAutoPageBreak(true, 15)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(0, 8, fmt.Sprintf("Generated %s  |  Page %d", generated, pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	if data.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(data.Title), "", 1, "C", false, 0, "")
		pdf.Ln(4)
	}

	colWidth := pageWidthLandscape / float64(len(data.Headers))
	header := func() {
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		for _, h := range data.Headers {
			pdf.CellFormat(colWidth, 8, h, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 8)
	}
	header()

	_, pageHeight := pdf.GetPageSize()
	for _, row := range data.Rows {
		if pdf.GetY()+7 > pageHeight-15 {
			pdf.AddPage()
			header()
		}
		for _, value := range data.record(row) {
			pdf.CellFormat(colWidth, 7, truncate(value), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func truncate(value string) string {
	runes := []rune(value)
	if len(runes) <= maxCellRunes {
		return value
	}
	return string(runes[:maxCellRunes-3]) + "..."
}
