// Package draft holds the in-progress entry an operator is composing: two collections of
// line items (deposits and withdrawals) plus the customer fields.
package draft

import (
	"creditregister/internal/core"

	"github.com/shopspring/decimal"
)

// Kind selects one of the two line collections of a draft.
type Kind int

const (
	Deposit Kind = iota
	Withdrawal
)

func (k Kind) String() string {
	if k == Withdrawal {
		return "K"
	}
	return "B"
}

// ParseKind accepts "b"/"B"/"deposit" and "k"/"K"/"withdrawal".
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "b", "B", "deposit":
		return Deposit, true
	case "k", "K", "withdrawal":
		return Withdrawal, true
	}
	return Deposit, false
}

// Totals are the aggregate amounts and charges of a draft.
type Totals struct {
	BAmount      decimal.Decimal
	BCharges     decimal.Decimal
	KAmount      decimal.Decimal
	KCharges     decimal.Decimal
	GrandCharges decimal.Decimal
}

// Draft is the entry being composed. It is owned by one operator session and is not safe
// for concurrent use.
type Draft struct {
	CustomerType core.CustomerType
	CustomerName string
	PaymentMode  core.PaymentMode
	Remarks      string

	Deposits    *Lines
	Withdrawals *Lines
}

// Default returns a fresh default draft: Office customer, Cash payment and one zero line
// in each collection.
func Default() *Draft {
	return &Draft{
		CustomerType: core.CustomerOffice,
		PaymentMode:  core.PaymentCash,
		Deposits:     NewLines(),
		Withdrawals:  NewLines(),
	}
}

// Reset discards all input and starts over from Default.
func (d *Draft) Reset() {
	*d = *Default()
}

// Lines returns the collection for kind.
func (d *Draft) Lines(kind Kind) *Lines {
	if kind == Withdrawal {
		return d.Withdrawals
	}
	return d.Deposits
}

func (d *Draft) Totals() Totals {
	bAmt, bChg := d.Deposits.Totals()
	kAmt, kChg := d.Withdrawals.Totals()
	return Totals{
		BAmount:      bAmt,
		BCharges:     bChg,
		KAmount:      kAmt,
		KCharges:     kChg,
		GrandCharges: bChg.Add(kChg),
	}
}

// Fields converts the draft into the entry columns it would be saved as.
func (d *Draft) Fields() core.EntryFields {
	t := d.Totals()
	return core.EntryFields{
		CustomerType: d.CustomerType,
		CustomerName: d.CustomerName,
		PaymentMode:  d.PaymentMode,
		BAmount:      t.BAmount,
		BCharges:     t.BCharges,
		KAmount:      t.KAmount,
		KCharges:     t.KCharges,
		Remarks:      d.Remarks,
	}
}
