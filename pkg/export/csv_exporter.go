package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// CSVExporter renders the document table as CSV. Header and footer fields become
// leading and trailing "label,value" lines separated from the table by a blank line.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// ContentType implements Renderer.
func (e *CSVExporter) ContentType() string { return "text/csv" }

// Extension implements Renderer.
func (e *CSVExporter) Extension() string { return FormatCSV }

// Render produces CSV encoded bytes for the document.
func (e *CSVExporter) Render(doc Document) ([]byte, error) {
	data := doc.Table
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)

	if err := writeFields(writer, doc.Header); err != nil {
		return nil, err
	}
	if err := writer.Write(data.Headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for _, row := range data.Rows {
		if err := writer.Write(data.record(row)); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	if len(doc.Footer) > 0 {
		if err := writer.Write([]string{""}); err != nil {
			return nil, fmt.Errorf("write csv separator: %w", err)
		}
		for _, f := range doc.Footer {
			if err := writer.Write([]string{f.Label, f.Value}); err != nil {
				return nil, fmt.Errorf("write csv footer: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func writeFields(writer *csv.Writer, fields []Field) error {
	if len(fields) == 0 {
		return nil
	}
	for _, f := range fields {
		if err := writer.Write([]string{f.Label, f.Value}); err != nil {
			return fmt.Errorf("write csv header field: %w", err)
		}
	}
	if err := writer.Write([]string{""}); err != nil {
		return fmt.Errorf("write csv separator: %w", err)
	}
	return nil
}
