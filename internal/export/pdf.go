package export

import (
	"bytes"
	"fmt"

	"creditregister/internal/core"

	"github.com/phpdave11/gofpdf"
)

// Column is one PDF table column anchored at X points from the left page edge.
type Column struct {
	Header string
	X      float64
}

// Layout fixes the geometry of the PDF report. Units are points on an A4 page.
type Layout struct {
	LeftMargin   float64
	TopMargin    float64
	BottomMargin float64
	TitleSize    float64
	RowSize      float64
	RowStep      float64
	// CustomerWidth truncates customer names to this many characters.
	CustomerWidth int
	Columns       []Column
}

// DefaultLayout is the register's daily report layout.
var DefaultLayout = Layout{
	LeftMargin:    40,
	TopMargin:     40,
	BottomMargin:  50,
	TitleSize:     14,
	RowSize:       9,
	RowStep:       14,
	CustomerWidth: 15,
	Columns: []Column{
		{Header: "Time", X: 40},
		{Header: "Customer", X: 110},
		{Header: "Mode", X: 230},
		{Header: "B Amt", X: 300},
		{Header: "K Amt", X: 360},
		{Header: "Charges", X: 430},
	},
}

// ToPDF renders a titled table of rows. The column header is repeated on every page.
func (r *Renderer) ToPDF(rows []core.ExportRow, title string) ([]byte, error) {
	l := r.layout
	if len(l.Columns) != 6 {
		return nil, fmt.Errorf("layout needs 6 columns, has %d", len(l.Columns))
	}

	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetCompression(r.compress)
	pdf.SetMargins(l.LeftMargin, l.TopMargin, l.LeftMargin)
	pdf.SetAutoPageBreak(false, l.BottomMargin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageW, pageH := pdf.GetPageSize()

	y := l.TopMargin
	header := func() {
		pdf.SetFont("Helvetica", "", l.RowSize)
		for _, c := range l.Columns {
			pdf.Text(c.X, y, c.Header)
		}
		y += 15
		pdf.Line(l.LeftMargin, y, pageW-l.LeftMargin, y)
		y += 15
	}

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", l.TitleSize)
	pdf.Text(l.LeftMargin, y, tr(title))
	y += 30
	header()

	for _, row := range rows {
		if y > pageH-l.BottomMargin {
			pdf.AddPage()
			y = l.TopMargin
			header()
		}
		cells := []string{
			row.Time.String(),
			truncate(row.CustomerName, l.CustomerWidth),
			string(row.PaymentMode),
			row.BAmount.StringFixed(2),
			row.KAmount.StringFixed(2),
			row.Charges.StringFixed(2),
		}
		for i, c := range l.Columns {
			pdf.Text(c.X, y, tr(cells[i]))
		}
		y += l.RowStep
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n])
}
