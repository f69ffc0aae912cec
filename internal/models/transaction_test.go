package models

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignedAmount(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		txType   TransactionType
		expected string
		wantErr  bool
	}{
		{"income stays positive", "100", TransactionTypeIncome, "100", false},
		{"expense becomes negative", "100", TransactionTypeExpense, "-100", false},
		{"negative income uses magnitude", "-100", TransactionTypeIncome, "100", false},
		{"negative expense stays negative", "-25.50", TransactionTypeExpense, "-25.5", false},
		{"rounds to cents", "10.005", TransactionTypeIncome, "10.01", false},
		{"zero expense", "0", TransactionTypeExpense, "0", false},
		{"unknown type", "100", TransactionType(3), "0", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signed, err := SignedAmount(decimal.RequireFromString(tt.raw), tt.txType)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTransactionType)
				return
			}
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.expected).Equal(signed), "got %s", signed)
		})
	}
}

func TestTransactionType(t *testing.T) {
	assert.True(t, TransactionTypeIncome.IsValid())
	assert.True(t, TransactionTypeExpense.IsValid())
	assert.False(t, TransactionType(0).IsValid())
	assert.Equal(t, "income", TransactionTypeIncome.String())
	assert.Equal(t, "expense", TransactionTypeExpense.String())
}

func validTransaction() Transaction {
	return Transaction{
		UserID:     uuid.New(),
		CategoryID: uuid.New(),
		Date:       NewDate(2024, time.March, 1),
		Amount:     decimal.NewFromInt(100),
		Type:       TransactionTypeIncome,
	}
}

func TestTransaction_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Transaction)
		wantErr error
	}{
		{"valid income", func(*Transaction) {}, nil},
		{"valid expense", func(tx *Transaction) {
			tx.Type = TransactionTypeExpense
			tx.Amount = decimal.NewFromInt(-5)
		}, nil},
		{"missing user", func(tx *Transaction) { tx.UserID = uuid.Nil }, ErrUserRequired},
		{"missing category", func(tx *Transaction) { tx.CategoryID = uuid.Nil }, ErrCategoryRequired},
		{"missing date", func(tx *Transaction) { tx.Date = Date{} }, ErrDateRequired},
		{"bad type", func(tx *Transaction) { tx.Type = 7 }, ErrInvalidTransactionType},
		{"negative income", func(tx *Transaction) { tx.Amount = decimal.NewFromInt(-1) }, ErrAmountSignMismatch},
		{"positive expense", func(tx *Transaction) { tx.Type = TransactionTypeExpense }, ErrAmountSignMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := validTransaction()
			tt.mutate(&tx)
			err := tx.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestTransaction_BeforeCreate(t *testing.T) {
	tx := validTransaction()

	require.NoError(t, tx.BeforeCreate(nil))

	assert.NotEqual(t, uuid.Nil, tx.ID)
	assert.False(t, tx.CreatedAt.IsZero())
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", d.String())

	for _, bad := range []string{"", "2024-02-30", "2023-02-29", "01/02/2024", "2024-1-5", "2024-01-05T00:00:00Z"} {
		_, err := ParseDate(bad)
		assert.ErrorIs(t, err, ErrInvalidDate, bad)
	}
}

func TestDate_ScanAndValue(t *testing.T) {
	var d Date

	require.NoError(t, d.Scan(time.Date(2024, 5, 6, 13, 45, 0, 0, time.UTC)))
	assert.Equal(t, "2024-05-06", d.String())

	require.NoError(t, d.Scan("2024-07-08 00:00:00+00:00"))
	assert.Equal(t, "2024-07-08", d.String())

	require.NoError(t, d.Scan([]byte("2024-09-10")))
	assert.Equal(t, "2024-09-10", d.String())

	assert.Error(t, d.Scan(42))

	v, err := NewDate(2024, time.January, 2).Value()
	require.NoError(t, err)
	assert.Equal(t, "2024-01-02", v)
}

func TestDate_JSON(t *testing.T) {
	b, err := NewDate(2024, time.December, 31).MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"2024-12-31"`, string(b))

	var d Date
	require.NoError(t, d.UnmarshalJSON([]byte(`"2024-01-15"`)))
	assert.Equal(t, "2024-01-15", d.String())
	assert.ErrorIs(t, d.UnmarshalJSON([]byte(`"15.01.2024"`)), ErrInvalidDate)
}

func TestDateRange(t *testing.T) {
	r := DateRange{Start: NewDate(2024, 1, 1), End: NewDate(2024, 1, 31)}

	require.NoError(t, r.Validate())
	assert.True(t, r.Contains(NewDate(2024, 1, 1)))
	assert.True(t, r.Contains(NewDate(2024, 1, 31)))
	assert.False(t, r.Contains(NewDate(2023, 12, 31)))
	assert.False(t, r.Contains(NewDate(2024, 2, 1)))

	reversed := DateRange{Start: r.End, End: r.Start}
	assert.ErrorIs(t, reversed.Validate(), ErrInvalidDateRange)
	assert.ErrorIs(t, DateRange{}.Validate(), ErrInvalidDate)
}

func TestCategory_Validate(t *testing.T) {
	assert.NoError(t, (&Category{Name: "Food"}).Validate())
	assert.ErrorIs(t, (&Category{Name: "   "}).Validate(), ErrCategoryNameRequired)
	assert.ErrorIs(t, (&Category{Name: strings.Repeat("x", 201)}).Validate(), ErrCategoryNameTooLong)
	assert.NoError(t, (&Category{Name: strings.Repeat("é", 200)}).Validate())
}

func TestSummarize(t *testing.T) {
	summary := Summarize([]Transaction{
		{Amount: decimal.NewFromInt(50), Type: TransactionTypeIncome},
		{Amount: decimal.NewFromInt(-20), Type: TransactionTypeExpense},
		{Amount: decimal.NewFromInt(-5), Type: TransactionTypeExpense},
	})

	assert.Equal(t, 3, summary.TransactionCount)
	assert.Equal(t, 1, summary.IncomeCount)
	assert.Equal(t, 2, summary.ExpenseCount)
	assert.True(t, decimal.NewFromInt(50).Equal(summary.TotalIncome))
	assert.True(t, decimal.NewFromInt(25).Equal(summary.TotalExpense))
	assert.True(t, decimal.NewFromInt(25).Equal(summary.NetChange))
}

func TestNewBalanceReport(t *testing.T) {
	id := uuid.New()

	ok := NewBalanceReport(id, decimal.NewFromInt(30), decimal.NewFromInt(30))
	assert.True(t, ok.Consistent)

	drifted := NewBalanceReport(id, decimal.NewFromInt(35), decimal.NewFromInt(30))
	assert.False(t, drifted.Consistent)
	assert.True(t, decimal.NewFromInt(5).Equal(drifted.Drift))
}
