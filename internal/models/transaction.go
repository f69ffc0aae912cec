package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransactionType distinguishes income from expense. The numeric values are part of the API.
type TransactionType int

const (
	TransactionTypeIncome  TransactionType = 1
	TransactionTypeExpense TransactionType = 2
)

var (
	ErrInvalidTransactionType = errors.New("transaction type must be 1 (income) or 2 (expense)")
	ErrAmountSignMismatch     = errors.New("transaction amount sign does not match its type")
	ErrUserRequired           = errors.New("user ID is required")
	ErrCategoryRequired       = errors.New("category ID is required")
	ErrDateRequired           = errors.New("transaction date is required")
)

func (t TransactionType) IsValid() bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}

func (t TransactionType) String() string {
	switch t {
	case TransactionTypeIncome:
		return "income"
	case TransactionTypeExpense:
		return "expense"
	default:
		return "unknown"
	}
}

// SignedAmount applies the sign implied by the type to the magnitude of raw.
// Income is stored positive and expense negative, whatever sign the client sent.
func SignedAmount(raw decimal.Decimal, t TransactionType) (decimal.Decimal, error) {
	if !t.IsValid() {
		return decimal.Zero, ErrInvalidTransactionType
	}
	magnitude := raw.Abs().Round(2)
	if t == TransactionTypeExpense {
		return magnitude.Neg(), nil
	}
	return magnitude, nil
}

// TransactionInput carries client values for create and update. Amount is a
// magnitude; the stored sign is derived from Type.
type TransactionInput struct {
	Date       Date
	Amount     decimal.Decimal
	Type       TransactionType
	CategoryID uuid.UUID
}

// Transaction is a single income or expense entry. Amount is signed.
type Transaction struct {
	ID         uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	UserID     uuid.UUID       `gorm:"type:uuid;not null;index:idx_transactions_user_date,priority:1" json:"user_id"`
	CategoryID uuid.UUID       `gorm:"type:uuid;not null;index" json:"category_id"`
	Date       Date            `gorm:"type:date;not null;index:idx_transactions_user_date,priority:2" json:"date"`
	Amount     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Type       TransactionType `gorm:"type:smallint;not null" json:"type"`
	CreatedAt  time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"not null" json:"updated_at"`

	User     User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Category Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE" json:"-"`
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}

	now := time.Now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = now
	}

	return t.Validate()
}

func (t *Transaction) Validate() error {
	if t.UserID == uuid.Nil {
		return ErrUserRequired
	}

	if t.CategoryID == uuid.Nil {
		return ErrCategoryRequired
	}

	if t.Date.IsZero() {
		return ErrDateRequired
	}

	if !t.Type.IsValid() {
		return ErrInvalidTransactionType
	}

	if t.IsIncome() && t.Amount.IsNegative() {
		return ErrAmountSignMismatch
	}
	if t.IsExpense() && t.Amount.IsPositive() {
		return ErrAmountSignMismatch
	}

	return nil
}

func (t *Transaction) IsIncome() bool {
	return t.Type == TransactionTypeIncome
}

func (t *Transaction) IsExpense() bool {
	return t.Type == TransactionTypeExpense
}

func (t *Transaction) TableName() string {
	return "transactions"
}
