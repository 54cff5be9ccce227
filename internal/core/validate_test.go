package core

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidateAmountBounds(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"0", true},
		{"1000000", true},
		{"1000000.01", false},
		{"-0.01", false},
		{"2500.75", true},
	}
	for _, tc := range cases {
		err := ValidateAmount(decimal.RequireFromString(tc.in), "Total B Amount")
		if tc.ok && err != nil {
			t.Fatalf("%s expected ok, got %v", tc.in, err)
		}
		if !tc.ok && !errors.Is(err, ErrOutOfRange) {
			t.Fatalf("%s expected out of range, got %v", tc.in, err)
		}
	}
}

func TestValidateAmountMessage(t *testing.T) {
	err := ValidateAmount(decimal.NewFromInt(-5), "K Charges")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if verr.Field != "K Charges" || verr.Value != "-5" {
		t.Fatalf("unexpected error fields %+v", verr)
	}
	if !strings.Contains(err.Error(), "1,000,000.00") {
		t.Fatalf("expected bound in message, got %q", err.Error())
	}
}

func TestValidateChargePct(t *testing.T) {
	for _, in := range []string{"0", "2.5", "10"} {
		if err := ValidateChargePct(decimal.RequireFromString(in), "Charge"); err != nil {
			t.Fatalf("%s expected ok, got %v", in, err)
		}
	}
	for _, in := range []string{"10.0001", "-1"} {
		if err := ValidateChargePct(decimal.RequireFromString(in), "Charge"); !errors.Is(err, ErrOutOfRange) {
			t.Fatalf("%s expected out of range, got %v", in, err)
		}
	}
}

func TestValidateRequired(t *testing.T) {
	if err := ValidateRequired("Ravi", "Customer name"); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	err := ValidateRequired(" \t ", "Customer name")
	if !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected missing field, got %v", err)
	}
	if err.Error() != "Customer name is required" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestValidateEnums(t *testing.T) {
	for _, ct := range CustomerTypes() {
		if err := ValidateCustomerType(ct); err != nil {
			t.Fatalf("%s expected ok, got %v", ct, err)
		}
	}
	for _, m := range PaymentModes() {
		if err := ValidatePaymentMode(m); err != nil {
			t.Fatalf("%s expected ok, got %v", m, err)
		}
	}
	if err := ValidatePaymentMode("Card"); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected out of range, got %v", err)
	}
	if err := ValidateCustomerType("office"); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("enum match must be exact, got %v", err)
	}
}

func TestOpErrorMatchesKindAndCause(t *testing.T) {
	cause := errors.New("disk full")
	err := StoreError("insert entry", cause)
	if !errors.Is(err, ErrStore) || !errors.Is(err, cause) {
		t.Fatalf("expected both kind and cause to match: %v", err)
	}
	if errors.Is(err, ErrExport) {
		t.Fatalf("unexpected export kind")
	}
	if !errors.Is(NotFound(3), ErrNotFound) {
		t.Fatalf("expected not found kind")
	}
}
