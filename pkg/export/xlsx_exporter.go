package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const xlsxSheet = "Report Card"

// XLSXExporter renders documents into a single-sheet workbook.
type XLSXExporter struct{}

// NewXLSXExporter constructs an XLSX exporter.
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

// ContentType implements Renderer.
func (e *XLSXExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Extension implements Renderer.
func (e *XLSXExporter) Extension() string { return FormatXLSX }

// Render writes header fields, the table and footer fields top to bottom.
func (e *XLSXExporter) Render(doc Document) ([]byte, error) {
	data := doc.Table
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("xlsx requires at least one header")
	}

	file := excelize.NewFile()
	defer file.Close() //nolint:errcheck

	if err := file.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}
	bold, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}

	row := 1
	if doc.Title != "" {
		if err := e.setRow(file, row, []string{doc.Title}, bold); err != nil {
			return nil, err
		}
		row += 2
	}
	for _, f := range doc.Header {
		if err := e.setRow(file, row, []string{f.Label, f.Value}, 0); err != nil {
			return nil, err
		}
		row++
	}
	if len(doc.Header) > 0 {
		row++
	}

	if err := e.setRow(file, row, data.Headers, bold); err != nil {
		return nil, err
	}
	row++
	for _, r := range data.Rows {
		if err := e.setRow(file, row, data.record(r), 0); err != nil {
			return nil, err
		}
		row++
	}

	if len(doc.Footer) > 0 {
		row++
		for _, f := range doc.Footer {
			if err := e.setRow(file, row, []string{f.Label, f.Value}, 0); err != nil {
				return nil, err
			}
			row++
		}
	}

	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *XLSXExporter) setRow(file *excelize.File, row int, values []string, style int) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	vals := make([]interface{}, len(values))
	for i, v := range values {
		vals[i] = v
	}
	if err := file.SetSheetRow(xlsxSheet, cell, &vals); err != nil {
		return fmt.Errorf("write xlsx row %d: %w", row, err)
	}
	if style != 0 {
		end, err := excelize.CoordinatesToCellName(len(values), row)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := file.SetCellStyle(xlsxSheet, cell, end, style); err != nil {
			return fmt.Errorf("style xlsx row %d: %w", row, err)
		}
	}
	return nil
}
