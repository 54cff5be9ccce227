package export

import (
	"fmt"

	"creditregister/internal/core"

	"github.com/xuri/excelize/v2"
)

// numFmt2 is the built-in "0.00" number format.
const numFmt2 = 2

// ToSpreadsheet writes rows to a single-sheet workbook with a header row.
// Amount columns are numeric cells formatted to two decimals.
func (r *Renderer) ToSpreadsheet(rows []core.ExportRow, sheetName string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}

	header := make([]any, len(core.ExportHeaders))
	for i, h := range core.ExportHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := []any{
			row.Date.String(),
			row.Time.String(),
			row.CustomerName,
			string(row.CustomerType),
			string(row.PaymentMode),
			row.BAmount.InexactFloat64(),
			row.KAmount.InexactFloat64(),
			row.Charges.InexactFloat64(),
			row.Remarks,
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := f.SetRowStyle(sheetName, 1, 1, bold); err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		money, err := f.NewStyle(&excelize.Style{NumFmt: numFmt2})
		if err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(sheetName, "F2", fmt.Sprintf("H%d", len(rows)+1), money); err != nil {
			return nil, err
		}
	}
	if err := f.SetColWidth(sheetName, "C", "C", 24); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
