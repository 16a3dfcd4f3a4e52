package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	defaultSheet  = "Sheet1"
	maxSheetName  = 31
	fallbackSheet = "Report"
)

// ExcelExporter renders datasets into a single-sheet XLSX workbook.
type ExcelExporter struct{}

// NewExcelExporter constructs an Excel exporter.
func NewExcelExporter() *ExcelExporter {
	return &ExcelExporter{}
}

func (e *ExcelExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (e *ExcelExporter) Extension() string { return ".xlsx" }

// Render writes the header row in bold followed by one row per record.
func (e *ExcelExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("excel requires at least one header")
	}

	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	sheet := sheetName(data.Title)
	if err := f.SetSheetName(defaultSheet, sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	if err := writeRow(f, sheet, 1, data.Headers); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	lastHeader, err := excelize.CoordinatesToCellName(len(data.Headers), 1)
	if err != nil {
		return nil, fmt.Errorf("resolve header range: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", lastHeader, bold); err != nil {
		return nil, fmt.Errorf("style header: %w", err)
	}

	for i, row := range data.Rows {
		if err := writeRow(f, sheet, i+2, data.record(row)); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, rowNum int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("resolve cell: %w", err)
	}
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &row); err != nil {
		return fmt.Errorf("write row %d: %w", rowNum, err)
	}
	return nil
}

func sheetName(title string) string {
	if title == "" {
		return fallbackSheet
	}
	invalid := `:\/?*[]`
	out := make([]rune, 0, len(title))
	for _, r := range title {
		skip := false
		for _, bad := range invalid {
			if r == bad {
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return fallbackSheet
	}
	if len(out) > maxSheetName {
		out = out[:maxSheetName]
	}
	return string(out)
}
