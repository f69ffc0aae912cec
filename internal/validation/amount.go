package validation

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxAmountIntegerDigits matches the decimal(12,2) amount column.
const MaxAmountIntegerDigits = 10

var ErrInvalidAmount = errors.New("amount must be a number with at most 10 integer digits")

// ParseAmount parses a client amount and checks that its magnitude, rounded to
// cents, fits the amount column.
func ParseAmount(s string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if len(amount.Abs().Round(2).Truncate(0).String()) > MaxAmountIntegerDigits {
		return decimal.Zero, ErrInvalidAmount
	}
	return amount, nil
}
