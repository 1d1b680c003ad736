package export

import "fmt"

// Dataset defines tabular export content.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

// Field is a labelled value printed above or below the table.
type Field struct {
	Label string
	Value string
}

// Document is a titled table with header and footer fields.
type Document struct {
	Title  string
	Header []Field
	Table  Dataset
	Footer []Field
}

// Renderer turns a Document into file bytes.
type Renderer interface {
	Render(doc Document) ([]byte, error)
	ContentType() string
	Extension() string
}

// Supported formats.
const (
	FormatPDF  = "pdf"
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// ForFormat returns the renderer of the named format.
func ForFormat(format string) (Renderer, error) {
	switch format {
	case FormatPDF:
		return NewPDFExporter(), nil
	case FormatCSV:
		return NewCSVExporter(), nil
	case FormatXLSX:
		return NewXLSXExporter(), nil
	}
	return nil, fmt.Errorf("unsupported export format %q", format)
}

func (d Dataset) record(row map[string]string) []string {
	out := make([]string, len(d.Headers))
	for i, header := range d.Headers {
		out[i] = row[header]
	}
	return out
}
