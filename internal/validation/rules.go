package validation

import (
	"fmt"
	"reflect"

	"finance-tracker/internal/models"

	"github.com/go-playground/validator/v10"
)

type rule struct {
	tag     string
	check   validator.Func
	message string
}

var rules = []rule{
	{"transaction_type", isTransactionType, "must be 1 (income) or 2 (expense)"},
	{"ymd_date", isCalendarDate, "must be a valid date in YYYY-MM-DD format"},
	{"decimal_amount", isAmount, "must be a number with at most 10 integer digits"},
}

var builtinMessages = map[string]string{
	"required": "is required",
	"email":    "must be a valid email address",
	"uuid":     "must be a valid UUID",
	"min":      "must be at least %s characters",
	"max":      "must not exceed %s characters",
}

func describe(fe validator.FieldError) string {
	for _, r := range rules {
		if r.tag == fe.Tag() {
			return r.message
		}
	}
	switch msg, ok := builtinMessages[fe.Tag()]; {
	case !ok:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	case fe.Param() != "":
		return fmt.Sprintf(msg, fe.Param())
	default:
		return msg
	}
}

func isTransactionType(fl validator.FieldLevel) bool {
	f := fl.Field()
	if !f.CanInt() {
		return false
	}
	return models.TransactionType(f.Int()).IsValid()
}

func isCalendarDate(fl validator.FieldLevel) bool {
	f := fl.Field()
	if f.Kind() != reflect.String {
		return false
	}
	_, err := models.ParseDate(f.String())
	return err == nil
}

// isAmount ignores the sign; the transaction type decides it.
func isAmount(fl validator.FieldLevel) bool {
	f := fl.Field()
	if f.Kind() != reflect.String {
		return false
	}
	_, err := ParseAmount(f.String())
	return err == nil
}
