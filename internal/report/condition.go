// Package report aggregates ledger entries for a day or a date range and turns them
// into downloadable documents.
package report

import (
	"creditregister/internal/core"
)

// Condition selects the entries a report covers: a single day or an inclusive range.
type Condition struct {
	Start core.Date
	End   core.Date
}

// Daily covers one calendar day.
func Daily(d core.Date) Condition { return Condition{Start: d, End: d} }

// Range covers start through end inclusive. An inverted range matches nothing.
func Range(start, end core.Date) Condition { return Condition{Start: start, End: end} }

func (c Condition) IsDaily() bool { return c.Start == c.End }

// Label is the human form used in titles: "2024-01-01" or "2024-01-01 to 2024-01-31".
func (c Condition) Label() string {
	if c.IsDaily() {
		return c.Start.String()
	}
	return c.Start.String() + " to " + c.End.String()
}

// FileBase is the download name without extension.
func (c Condition) FileBase() string {
	if c.IsDaily() {
		return "Store_Report_" + c.Start.String()
	}
	return "Store_Report_" + c.Start.String() + "_to_" + c.End.String()
}

// Title is the PDF heading.
func (c Condition) Title() string {
	return "Store Daily Report - " + c.Label()
}
