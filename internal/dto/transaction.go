package dto

import (
	"encoding/json"
	"reflect"
	"strconv"

	"finance-tracker/internal/models"

	"github.com/shopspring/decimal"
)

// Amount is a client amount given as a JSON number or a numeric string.
type Amount string

func (a Amount) String() string { return string(a) }

// UnmarshalJSON rejects non-numeric input with a type error, so the decoder
// reports the field it belongs to. An empty string is left to validation.
func (a *Amount) UnmarshalJSON(data []byte) error {
	raw := string(data)
	if raw == "null" {
		return nil
	}
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = unquoted
	}
	if raw != "" {
		if _, err := decimal.NewFromString(raw); err != nil {
			return &json.UnmarshalTypeError{Value: "string", Type: reflect.TypeOf(float64(0))}
		}
	}
	*a = Amount(raw)
	return nil
}

// TransactionRequest is the body of transaction create and update. Amount is
// accepted as a JSON number or numeric string; its sign is derived from Type.
type TransactionRequest struct {
	Date       string `json:"date" validate:"required,ymd_date"`
	Amount     Amount `json:"amount" validate:"required,decimal_amount"`
	Type       int    `json:"type" validate:"required,transaction_type"`
	CategoryID string `json:"category_id" validate:"required,uuid"`
}

// DateRangeQuery binds the start_date and end_date query parameters.
type DateRangeQuery struct {
	StartDate string `query:"start_date" validate:"required,ymd_date"`
	EndDate   string `query:"end_date" validate:"required,ymd_date"`
}

type TransactionResponse struct {
	Status      bool                `json:"status"`
	Message     string              `json:"message"`
	Transaction *models.Transaction `json:"transaction"`
}

type TransactionsResponse struct {
	Status       bool                 `json:"status"`
	Message      string               `json:"message"`
	Transactions []models.Transaction `json:"transactions"`
}

type StatisticsResponse struct {
	Status     bool               `json:"status"`
	Message    string             `json:"message"`
	StartDate  models.Date        `json:"start_date"`
	EndDate    models.Date        `json:"end_date"`
	Statistics []models.TypeTotal `json:"statistics"`
}
