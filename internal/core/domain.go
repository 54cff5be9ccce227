package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// MaxAmount is the largest deposit or withdrawal amount accepted for one entry.
	MaxAmount = 1_000_000
	// MaxChargePercentage caps the handling charge applied to a single line.
	MaxChargePercentage = 10.0

	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

const (
	CustomerOffice CustomerType = "Office"
	CustomerOthers CustomerType = "Others"

	PaymentCash PaymentMode = "Cash"
	PaymentUPI  PaymentMode = "UPI"
)

type (
	CustomerType string
	PaymentMode  string

	// Date is a calendar day; the time part is always midnight UTC.
	Date struct {
		time.Time
	}

	// TimeOfDay is a local wall-clock time with second precision.
	TimeOfDay struct {
		Hour, Minute, Second int
	}

	// EntryFields are the columns an operator may edit on an existing entry.
	EntryFields struct {
		CustomerType CustomerType
		CustomerName string
		PaymentMode  PaymentMode
		BAmount      decimal.Decimal
		BCharges     decimal.Decimal
		KAmount      decimal.Decimal
		KCharges     decimal.Decimal
		Remarks      string
	}

	// NewEntry is the input for recording a new ledger entry.
	NewEntry struct {
		Date Date
		Time TimeOfDay
		EntryFields
	}

	// LedgerEntry is one persisted row of the register.
	LedgerEntry struct {
		ID           int64
		Date         Date
		Time         TimeOfDay
		CustomerType CustomerType
		CustomerName string
		PaymentMode  PaymentMode
		BAmount      decimal.Decimal
		BCharges     decimal.Decimal
		KAmount      decimal.Decimal
		KCharges     decimal.Decimal
		GrandCharges decimal.Decimal
		Remarks      string
	}
)

// CustomerTypes lists the accepted customer types in display order.
func CustomerTypes() []CustomerType { return []CustomerType{CustomerOffice, CustomerOthers} }

// PaymentModes lists the accepted payment modes in display order.
func PaymentModes() []PaymentMode { return []PaymentMode{PaymentCash, PaymentUPI} }

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a date string in YYYY-MM-DD format.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// FirstOfMonth returns the first day of d's month.
func (d Date) FirstOfMonth() Date {
	return NewDate(d.Year(), int(d.Month()), 1)
}

// TimeOfDayOf returns the wall-clock time of t.
func TimeOfDayOf(t time.Time) TimeOfDay {
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}
}

// ParseTimeOfDay parses a 24h "HH:MM:SS" string.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse(TimeLayout, strings.TrimSpace(s))
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return TimeOfDayOf(t), nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// Validate runs every field check in a fixed order and reports the first failure.
func (f EntryFields) Validate() error {
	checks := []func() error{
		func() error { return ValidateRequired(f.CustomerName, "Customer name") },
		func() error { return ValidateCustomerType(f.CustomerType) },
		func() error { return ValidatePaymentMode(f.PaymentMode) },
		func() error { return ValidateAmount(f.BAmount, "Total B Amount") },
		func() error { return ValidateAmount(f.BCharges, "B Charges") },
		func() error { return ValidateAmount(f.KAmount, "Total K Amount") },
		func() error { return ValidateAmount(f.KCharges, "K Charges") },
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

// Normalized trims the free-text fields.
func (f EntryFields) Normalized() EntryFields {
	f.CustomerName = strings.TrimSpace(f.CustomerName)
	f.Remarks = strings.TrimSpace(f.Remarks)
	return f
}

// GrandCharges is the total handling charge of both sides.
func (f EntryFields) GrandCharges() decimal.Decimal {
	return f.BCharges.Add(f.KCharges)
}

func (n NewEntry) Validate() error {
	if err := n.Date.Validate(); err != nil {
		return &ValidationError{Kind: ErrMissingField, Field: "Entry date"}
	}
	return n.EntryFields.Validate()
}

// Entry builds the row to persist. GrandCharges is always derived here.
func (n NewEntry) Entry() LedgerEntry {
	e := LedgerEntry{Date: n.Date, Time: n.Time}
	return e.WithFields(n.EntryFields)
}

// WithFields returns a copy of e with the editable columns replaced.
func (e LedgerEntry) WithFields(f EntryFields) LedgerEntry {
	f = f.Normalized()
	e.CustomerType = f.CustomerType
	e.CustomerName = f.CustomerName
	e.PaymentMode = f.PaymentMode
	e.BAmount = f.BAmount
	e.BCharges = f.BCharges
	e.KAmount = f.KAmount
	e.KCharges = f.KCharges
	e.GrandCharges = f.GrandCharges()
	e.Remarks = f.Remarks
	return e
}

// Fields returns the editable columns of e.
func (e LedgerEntry) Fields() EntryFields {
	return EntryFields{
		CustomerType: e.CustomerType,
		CustomerName: e.CustomerName,
		PaymentMode:  e.PaymentMode,
		BAmount:      e.BAmount,
		BCharges:     e.BCharges,
		KAmount:      e.KAmount,
		KCharges:     e.KCharges,
		Remarks:      e.Remarks,
	}
}
