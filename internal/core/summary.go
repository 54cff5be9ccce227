package core

import "github.com/shopspring/decimal"

// Summary aggregates the entries matched by a report condition.
type Summary struct {
	Count        int
	TotalB       decimal.Decimal
	TotalK       decimal.Decimal
	TotalCharges decimal.Decimal
}

// Add folds e into the running totals.
func (s Summary) Add(e LedgerEntry) Summary {
	s.Count++
	s.TotalB = s.TotalB.Add(e.BAmount)
	s.TotalK = s.TotalK.Add(e.KAmount)
	s.TotalCharges = s.TotalCharges.Add(e.GrandCharges)
	return s
}

// ModeBreakdown is the count and charge total for one payment mode.
type ModeBreakdown struct {
	Mode         PaymentMode
	Count        int
	TotalCharges decimal.Decimal
}

// ExportRow is the projection of a ledger entry written to reports.
type ExportRow struct {
	Date         Date
	Time         TimeOfDay
	CustomerName string
	CustomerType CustomerType
	PaymentMode  PaymentMode
	BAmount      decimal.Decimal
	KAmount      decimal.Decimal
	Charges      decimal.Decimal
	Remarks      string
}

// ExportRowOf projects e.
func ExportRowOf(e LedgerEntry) ExportRow {
	return ExportRow{
		Date:         e.Date,
		Time:         e.Time,
		CustomerName: e.CustomerName,
		CustomerType: e.CustomerType,
		PaymentMode:  e.PaymentMode,
		BAmount:      e.BAmount,
		KAmount:      e.KAmount,
		Charges:      e.GrandCharges,
		Remarks:      e.Remarks,
	}
}

// ExportHeaders are the column titles of a spreadsheet export, in column order.
var ExportHeaders = []string{
	"Date", "Time", "Customer", "Type", "Mode",
	"B Amount", "K Amount", "Charges", "Remarks",
}
