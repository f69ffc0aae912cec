package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TypeTotal is one group of the statistics aggregation. A type with no
// transactions in range has no group; absence means zero.
type TypeTotal struct {
	Type   TransactionType `json:"type"`
	Amount decimal.Decimal `json:"amount"`
}

// Statement is the export view of a user's transactions over a date range.
type Statement struct {
	UserID       uuid.UUID        `json:"user_id"`
	Range        DateRange        `json:"-"`
	Transactions []Transaction    `json:"transactions"`
	Summary      StatementSummary `json:"summary"`
	GeneratedAt  time.Time        `json:"generated_at"`
}

// StatementSummary provides aggregate information for the statement period
type StatementSummary struct {
	TotalIncome      decimal.Decimal `json:"total_income"`
	TotalExpense     decimal.Decimal `json:"total_expense"`
	NetChange        decimal.Decimal `json:"net_change"`
	TransactionCount int             `json:"transaction_count"`
	IncomeCount      int             `json:"income_count"`
	ExpenseCount     int             `json:"expense_count"`
}

// Summarize folds signed transaction amounts into income, expense and net totals.
func Summarize(transactions []Transaction) StatementSummary {
	summary := StatementSummary{
		TotalIncome:  decimal.Zero,
		TotalExpense: decimal.Zero,
		NetChange:    decimal.Zero,
	}
	for _, t := range transactions {
		summary.TransactionCount++
		summary.NetChange = summary.NetChange.Add(t.Amount)
		if t.IsIncome() {
			summary.IncomeCount++
			summary.TotalIncome = summary.TotalIncome.Add(t.Amount)
		} else {
			summary.ExpenseCount++
			summary.TotalExpense = summary.TotalExpense.Add(t.Amount.Abs())
		}
	}
	return summary
}

// BalanceReport compares the cached balance with the live sum of transactions.
type BalanceReport struct {
	UserID     uuid.UUID       `json:"user_id"`
	Stored     decimal.Decimal `json:"stored"`
	Computed   decimal.Decimal `json:"computed"`
	Drift      decimal.Decimal `json:"drift"`
	Consistent bool            `json:"consistent"`
	Repaired   bool            `json:"repaired"`
}

func NewBalanceReport(userID uuid.UUID, stored, computed decimal.Decimal) BalanceReport {
	drift := stored.Sub(computed)
	return BalanceReport{
		UserID:     userID,
		Stored:     stored,
		Computed:   computed,
		Drift:      drift,
		Consistent: drift.IsZero(),
	}
}

// ReconcileSummary aggregates a reconciliation sweep. Reports only holds
// users whose stored balance drifted.
type ReconcileSummary struct {
	Checked  int             `json:"checked"`
	Drifted  int             `json:"drifted"`
	Repaired int             `json:"repaired"`
	Reports  []BalanceReport `json:"reports"`
}
