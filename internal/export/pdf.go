package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/phpdave11/gofpdf"
)

const (
	pdfMargin     = 14.0
	pdfRowHeight  = 7.0
	pdfPageBottom = 190.0
)

type pdfRenderer struct {
	now func() time.Time
}

func NewPDFRenderer() Renderer {
	return &pdfRenderer{now: time.Now}
}

func (r *pdfRenderer) ContentType() string {
	return "application/pdf"
}

func (r *pdfRenderer) Extension() string {
	return "pdf"
}

// Render lays the table out as a landscape statement: title, summary cells,
// then a bordered grid whose header repeats on every page.
func (r *pdfRenderer) Render(table Table) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)
	pdf.SetTitle(table.Title, false)
	pdf.AddPage()

	pageWidth, _ := pdf.GetPageSize()
	usable := pageWidth - 2*pdfMargin

	pdf.SetTextColor(20, 20, 20)
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, table.Title)
	pdf.Ln(8)

	if table.Subtitle != "" {
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(80, 80, 80)
		pdf.Cell(0, 6, table.Subtitle)
		pdf.Ln(8)
	}

	pdf.SetDrawColor(200, 200, 200)
	if len(table.Summary) > 0 {
		width := usable / float64(len(table.Summary))
		pdf.SetFillColor(248, 248, 248)
		pdf.SetTextColor(20, 20, 20)
		pdf.SetFont("Helvetica", "B", 10)
		for i, line := range table.Summary {
			pdf.CellFormat(width, 8, line.Label, "1", lineEnd(i, len(table.Summary)), "C", true, 0, "")
		}
		pdf.SetFont("Helvetica", "", 10)
		for i, line := range table.Summary {
			pdf.CellFormat(width, 8, line.Value, "1", lineEnd(i, len(table.Summary)), "C", false, 0, "")
		}
		pdf.Ln(6)
	}

	if len(table.Headers) > 0 {
		widths := columnWidths(usable, len(table.Headers))

		writeHeader := func() {
			pdf.SetFont("Helvetica", "B", 9)
			pdf.SetFillColor(245, 245, 245)
			pdf.SetTextColor(20, 20, 20)
			for i, h := range table.Headers {
				pdf.CellFormat(widths[i], pdfRowHeight, h, "1", lineEnd(i, len(table.Headers)), "C", true, 0, "")
			}
			pdf.SetFont("Helvetica", "", 8)
			pdf.SetTextColor(30, 30, 30)
		}

		writeHeader()
		for _, row := range table.Rows {
			if pdf.GetY()+pdfRowHeight > pdfPageBottom {
				pdf.AddPage()
				writeHeader()
			}
			for i := range table.Headers {
				var text string
				if i < len(row) {
					text = fitText(pdf, cellText(row[i]), widths[i]-2)
				}
				pdf.CellFormat(widths[i], pdfRowHeight, text, "1", lineEnd(i, len(table.Headers)), "L", false, 0, "")
			}
		}

		if len(table.Rows) == 0 {
			pdf.SetFont("Helvetica", "I", 9)
			pdf.CellFormat(usable, pdfRowHeight, "No transactions in this period", "1", 1, "C", false, 0, "")
		}
	}

	pdf.SetY(-12)
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated %s", r.now().UTC().Format(time.RFC3339)), "", 0, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to build pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func lineEnd(i, n int) int {
	if i == n-1 {
		return 1
	}
	return 0
}

func columnWidths(usable float64, n int) []float64 {
	widths := make([]float64, n)
	for i := range widths {
		widths[i] = usable / float64(n)
	}
	return widths
}

// fitText shortens s with a trailing ".." until it fits the cell width.
func fitText(pdf *gofpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + ".."
		if pdf.GetStringWidth(candidate) <= width {
			return candidate
		}
	}
	return ""
}
