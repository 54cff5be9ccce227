package draft

import (
	"fmt"

	"creditregister/internal/core"

	"github.com/shopspring/decimal"
)

var (
	maxAmount    = decimal.NewFromInt(core.MaxAmount)
	maxChargePct = decimal.NewFromFloat(core.MaxChargePercentage)
)

// LineItem is one deposit or withdrawal line.
type LineItem struct {
	ID        int
	Amount    decimal.Decimal
	ChargePct decimal.Decimal
}

// Charge is Amount × ChargePct / 100, unrounded.
func (li LineItem) Charge() decimal.Decimal {
	return core.ChargeFor(li.Amount, li.ChargePct)
}

// Lines is an ordered collection of line items that never becomes empty.
// Ids grow monotonically and are never reused.
type Lines struct {
	items  []LineItem
	nextID int
}

// NewLines returns a collection holding a single zero item with id 0.
func NewLines() *Lines {
	return &Lines{items: []LineItem{{ID: 0}}, nextID: 1}
}

func (l *Lines) Len() int { return len(l.items) }

// Items returns a copy of the items in insertion order.
func (l *Lines) Items() []LineItem {
	out := make([]LineItem, len(l.items))
	copy(out, l.items)
	return out
}

// Add appends a zero item and returns it.
func (l *Lines) Add() LineItem {
	li := LineItem{ID: l.nextID}
	l.nextID++
	l.items = append(l.items, li)
	return li
}

// Remove deletes the item with id. It is a no-op returning false when the item is unknown
// or is the last one left.
func (l *Lines) Remove(id int) bool {
	if len(l.items) <= 1 {
		return false
	}
	for i, li := range l.items {
		if li.ID == id {
			l.items = append(l.items[:i], l.items[i+1:]...)
			return true
		}
	}
	return false
}

// Update sets the amount and/or charge percentage of the item with id. A nil pointer leaves
// that value unchanged. Values are clamped into their allowed ranges.
func (l *Lines) Update(id int, amount, chargePct *decimal.Decimal) error {
	for i := range l.items {
		if l.items[i].ID != id {
			continue
		}
		if amount != nil {
			l.items[i].Amount = clamp(*amount, maxAmount)
		}
		if chargePct != nil {
			l.items[i].ChargePct = clamp(*chargePct, maxChargePct)
		}
		return nil
	}
	return fmt.Errorf("line item %d: %w", id, core.ErrNotFound)
}

// Totals returns the exact sums of amounts and per-line charges.
func (l *Lines) Totals() (amount, charges decimal.Decimal) {
	amount, charges = decimal.Zero, decimal.Zero
	for _, li := range l.items {
		amount = amount.Add(li.Amount)
		charges = charges.Add(li.Charge())
	}
	return amount, charges
}

func clamp(v, max decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	if v.GreaterThan(max) {
		return max
	}
	return v
}
