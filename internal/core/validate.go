package core

import (
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"
)

var (
	maxAmount    = decimal.NewFromInt(MaxAmount)
	maxChargePct = decimal.NewFromFloat(MaxChargePercentage)

	errOutside = errors.New("outside bounds")
)

// decimalWithin is an ozzo rule comparing decimals exactly (the built-in Min/Max rules only
// understand native numeric kinds).
func decimalWithin(min, max decimal.Decimal) validation.Rule {
	return validation.By(func(value interface{}) error {
		d, ok := value.(decimal.Decimal)
		if !ok {
			return errors.New("must be a decimal")
		}
		if d.LessThan(min) || d.GreaterThan(max) {
			return errOutside
		}
		return nil
	})
}

// ValidateAmount fails with ErrOutOfRange when value is negative or above MaxAmount.
func ValidateAmount(value decimal.Decimal, label string) error {
	if err := validation.Validate(value, decimalWithin(decimal.Zero, maxAmount)); err != nil {
		return &ValidationError{
			Kind:  ErrOutOfRange,
			Field: label,
			Value: value.String(),
			Bound: fmt.Sprintf("0 to %s", FormatAmount(maxAmount)),
		}
	}
	return nil
}

// ValidateChargePct fails with ErrOutOfRange when value is negative or above MaxChargePercentage.
func ValidateChargePct(value decimal.Decimal, label string) error {
	if err := validation.Validate(value, decimalWithin(decimal.Zero, maxChargePct)); err != nil {
		return &ValidationError{
			Kind:  ErrOutOfRange,
			Field: label,
			Value: value.String() + "%",
			Bound: fmt.Sprintf("0%% to %s%%", maxChargePct.StringFixed(1)),
		}
	}
	return nil
}

// ValidateRequired fails with ErrMissingField when the trimmed value is empty.
func ValidateRequired(value, label string) error {
	if err := validation.Validate(strings.TrimSpace(value), validation.Required); err != nil {
		return &ValidationError{Kind: ErrMissingField, Field: label}
	}
	return nil
}

func ValidateCustomerType(t CustomerType) error {
	return validateEnum(t, "Customer type", CustomerOffice, CustomerOthers)
}

func ValidatePaymentMode(m PaymentMode) error {
	return validateEnum(m, "Payment mode", PaymentCash, PaymentUPI)
}

func validateEnum[T ~string](value T, label string, allowed ...T) error {
	in := make([]interface{}, len(allowed))
	names := make([]string, len(allowed))
	for i, a := range allowed {
		in[i] = a
		names[i] = string(a)
	}
	err := validation.Validate(value, validation.Required, validation.In(in...))
	if err == nil {
		return nil
	}
	var verr validation.Error
	if errors.As(err, &verr) && verr.Code() == validation.ErrRequired.Code() {
		return &ValidationError{Kind: ErrMissingField, Field: label}
	}
	return &ValidationError{
		Kind:  ErrOutOfRange,
		Field: label,
		Value: string(value),
		Bound: "one of " + strings.Join(names, ", "),
	}
}
