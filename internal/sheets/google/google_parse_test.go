package google

import (
	"testing"

	"creditregister/internal/core"

	"github.com/shopspring/decimal"
)

func TestFindRow(t *testing.T) {
	ids := firstColumn([][]any{{"ID"}, {"3"}, {}, {" 12 "}, {"1"}})
	cases := []struct {
		id   int64
		want int
	}{
		{3, 2},
		{12, 4},
		{1, 5},
		{99, 0},
	}
	for _, tc := range cases {
		if got := findRow(ids, tc.id); got != tc.want {
			t.Errorf("findRow(%d) = %d, want %d", tc.id, got, tc.want)
		}
	}
}

func TestEntryRowLayout(t *testing.T) {
	e := core.LedgerEntry{
		ID:           7,
		Date:         core.NewDate(2025, 2, 3),
		Time:         core.TimeOfDay{Hour: 9, Minute: 5},
		CustomerType: core.CustomerOthers,
		CustomerName: "Asha",
		PaymentMode:  core.PaymentUPI,
		BAmount:      decimal.RequireFromString("1000"),
		BCharges:     decimal.RequireFromString("29.9999"),
		GrandCharges: decimal.RequireFromString("29.9999"),
		Remarks:      "late",
	}
	row := entryRow(e)
	if len(row) != len(headerRow()) {
		t.Fatalf("row has %d cells, header has %d", len(row), len(headerRow()))
	}
	want := []any{"7", "2025-02-03", "09:05:00", "Asha", "Others", "UPI", "1000.00", "30.00", "0.00", "0.00", "30.00", "late"}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("cell %d = %v, want %v", i, row[i], want[i])
		}
	}
}
