package google

import (
	"fmt"
	"strconv"
	"strings"

	"creditregister/internal/core"
)

const (
	lastColumn = "L"
	headerID   = "ID"
)

func headerRow() []any {
	return []any{
		headerID, "Date", "Time", "Customer", "Type", "Mode",
		"B Amount", "B Charges", "K Amount", "K Charges", "Charges", "Remarks",
	}
}

// entryRow lays e out over columns A..L. Amounts are written as decimal strings.
func entryRow(e core.LedgerEntry) []any {
	return []any{
		idString(e.ID),
		e.Date.String(),
		e.Time.String(),
		e.CustomerName,
		string(e.CustomerType),
		string(e.PaymentMode),
		e.BAmount.StringFixed(2),
		e.BCharges.StringFixed(2),
		e.KAmount.StringFixed(2),
		e.KCharges.StringFixed(2),
		e.GrandCharges.StringFixed(2),
		e.Remarks,
	}
}

func idString(id int64) string {
	return strconv.FormatInt(id, 10)
}

// firstColumn flattens a values matrix to its first cell per row; short rows become "".
func firstColumn(values [][]any) []string {
	out := make([]string, len(values))
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		out[i] = strings.TrimSpace(fmt.Sprint(row[0]))
	}
	return out
}

// findRow returns the 1-based sheet row whose id cell equals id, or 0.
func findRow(ids []string, id int64) int {
	want := idString(id)
	for i, v := range ids {
		if v == want {
			return i + 1
		}
	}
	return 0
}
