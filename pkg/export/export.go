package export

import "fmt"

// Dataset defines tabular export content. Rows are keyed by header.
type Dataset struct {
	Title   string
	Headers []string
	Rows    []map[string]string
}

// Renderer turns a dataset into a downloadable document.
type Renderer interface {
	Render(data Dataset) ([]byte, error)
	ContentType() string
	Extension() string
}

// Format names a supported export encoding.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatExcel Format = "excel"
	FormatPDF   Format = "pdf"
)

// NewRenderer resolves the renderer for a format.
func NewRenderer(format Format) (Renderer, error) {
	switch format {
	case FormatCSV:
		return NewCSVExporter(), nil
	case FormatExcel:
		return NewExcelExporter(), nil
	case FormatPDF:
		return NewPDFExporter(), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

func (d Dataset) record(row map[string]string) []string {
	record := make([]string, len(d.Headers))
	for i, header := range d.Headers {
		record[i] = row[header]
	}
	return record
}
