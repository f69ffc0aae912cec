package export

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Transactions"

type xlsxRenderer struct{}

func NewXLSXRenderer() Renderer {
	return &xlsxRenderer{}
}

func (r *xlsxRenderer) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (r *xlsxRenderer) Extension() string {
	return "xlsx"
}

// Render writes the header row in bold followed by one row per record.
// Decimal cells are stored as numbers with two fixed decimals.
func (r *xlsxRenderer) Render(table Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#F2F2F2"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	amountFormat := "0.00"
	amountStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &amountFormat})
	if err != nil {
		return nil, fmt.Errorf("failed to create amount style: %w", err)
	}

	header := make([]interface{}, len(table.Headers))
	for i, h := range table.Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	if len(table.Headers) > 0 {
		last, err := excelize.CoordinatesToCellName(len(table.Headers), 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(sheetName, "A1", last, headerStyle); err != nil {
			return nil, fmt.Errorf("failed to style header: %w", err)
		}
		lastCol, _, err := excelize.SplitCellName(last)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(sheetName, "A", lastCol, 22); err != nil {
			return nil, fmt.Errorf("failed to size columns: %w", err)
		}
	}

	for i, row := range table.Rows {
		for j, value := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return nil, err
			}

			switch v := value.(type) {
			case decimal.Decimal:
				if err := f.SetCellFloat(sheetName, cell, v.InexactFloat64(), 2, 64); err != nil {
					return nil, fmt.Errorf("failed to write cell %s: %w", cell, err)
				}
				if err := f.SetCellStyle(sheetName, cell, cell, amountStyle); err != nil {
					return nil, fmt.Errorf("failed to style cell %s: %w", cell, err)
				}
			case time.Time, fmt.Stringer:
				if err := f.SetCellStr(sheetName, cell, cellText(v)); err != nil {
					return nil, fmt.Errorf("failed to write cell %s: %w", cell, err)
				}
			default:
				if err := f.SetCellValue(sheetName, cell, v); err != nil {
					return nil, fmt.Errorf("failed to write cell %s: %w", cell, err)
				}
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	return buf.Bytes(), nil
}
