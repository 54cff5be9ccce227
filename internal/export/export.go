// Package export renders report rows into downloadable spreadsheet and PDF documents.
package export

import (
	"fmt"
	"strings"

	"creditregister/internal/core"
	"creditregister/internal/ports"
)

// Format is a downloadable document type.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

// Formats lists every supported format.
func Formats() []Format { return []Format{FormatXLSX, FormatPDF} }

// ParseFormat accepts "xlsx"/"excel" and "pdf", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "xlsx", "excel":
		return FormatXLSX, nil
	case "pdf":
		return FormatPDF, nil
	}
	return "", &core.ValidationError{Kind: core.ErrOutOfRange, Field: "Export format", Value: s, Bound: "one of xlsx, pdf"}
}

func (f Format) Extension() string { return "." + string(f) }

func (f Format) ContentType() string {
	if f == FormatPDF {
		return "application/pdf"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Document is a rendered export ready to be served or written to disk.
type Document struct {
	Format   Format
	Filename string
	Data     []byte
}

func (d Document) ContentType() string { return d.Format.ContentType() }

// Renderer implements ports.DocumentExporter.
type Renderer struct {
	layout   Layout
	compress bool
}

var _ ports.DocumentExporter = (*Renderer)(nil)

func NewRenderer(layout Layout) *Renderer {
	return &Renderer{layout: layout, compress: true}
}

// Render dispatches to the renderer for format.
func Render(exp ports.DocumentExporter, format Format, rows []core.ExportRow, sheetName, title string) ([]byte, error) {
	switch format {
	case FormatXLSX:
		return exp.ToSpreadsheet(rows, sheetName)
	case FormatPDF:
		return exp.ToPDF(rows, title)
	}
	return nil, fmt.Errorf("unsupported format %q", format)
}
