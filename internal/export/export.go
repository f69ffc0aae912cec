// Package export renders tabular reports into downloadable documents.
package export

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

var ErrUnsupportedFormat = errors.New("unsupported export format")

// ParseFormat accepts the route names as well as the file extensions.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "xlsx", "excel":
		return FormatXLSX, nil
	case "pdf":
		return FormatPDF, nil
	default:
		return "", ErrUnsupportedFormat
	}
}

// SummaryLine is a labelled total printed above the table.
type SummaryLine struct {
	Label string
	Value string
}

// Table is a renderer-neutral report. Cells may hold string, decimal.Decimal,
// time.Time, fmt.Stringer or any value printable with fmt.
type Table struct {
	Title    string
	Subtitle string
	Headers  []string
	Rows     [][]interface{}
	Summary  []SummaryLine
}

// File is a rendered document ready to be sent as an attachment.
type File struct {
	Filename    string
	ContentType string
	Content     []byte
	Rows        int
}

// Renderer turns a Table into a document.
type Renderer interface {
	Render(table Table) ([]byte, error)
	ContentType() string
	Extension() string
}

// NewRenderer returns the renderer for a format.
func NewRenderer(format Format) (Renderer, error) {
	switch format {
	case FormatXLSX:
		return NewXLSXRenderer(), nil
	case FormatPDF:
		return NewPDFRenderer(), nil
	default:
		return nil, ErrUnsupportedFormat
	}
}

const timestampLayout = "2006-01-02 15:04:05"

func cellText(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case decimal.Decimal:
		return val.StringFixed(2)
	case time.Time:
		return val.UTC().Format(timestampLayout)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
