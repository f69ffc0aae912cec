package services

import (
	"math/rand"
	"sort"
	"time"

	"finance-tracker/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	minBalanceThreshold = 50
	hoursInDay          = 24
	biWeeklyDays        = 14
)

// Demo category names. Income categories carry TransactionTypeIncome entries only.
const (
	DemoCategorySalary         = "Salary"
	DemoCategoryRefunds        = "Refunds"
	DemoCategoryGroceries      = "Groceries"
	DemoCategoryDining         = "Dining"
	DemoCategoryTransportation = "Transportation"
	DemoCategoryShopping       = "Shopping"
	DemoCategoryEntertainment  = "Entertainment"
	DemoCategoryBills          = "Bills & Utilities"
	DemoCategoryHealthcare     = "Healthcare"
)

type amountRange struct {
	min float64
	max float64
}

var demoAmountRanges = map[string]amountRange{
	DemoCategorySalary:         {2000.00, 8000.00},
	DemoCategoryRefunds:        {5.00, 150.00},
	DemoCategoryGroceries:      {15.00, 250.00},
	DemoCategoryDining:         {8.00, 120.00},
	DemoCategoryTransportation: {10.00, 80.00},
	DemoCategoryShopping:       {25.00, 450.00},
	DemoCategoryEntertainment:  {10.00, 60.00},
	DemoCategoryBills:          {50.00, 250.00},
	DemoCategoryHealthcare:     {20.00, 300.00},
}

var spendingCategories = []string{
	DemoCategoryGroceries,
	DemoCategoryDining,
	DemoCategoryTransportation,
	DemoCategoryShopping,
	DemoCategoryEntertainment,
	DemoCategoryHealthcare,
}

type transactionGenerator struct {
	rng *rand.Rand
}

// NewTransactionGenerator creates a generator seeded from the clock.
func NewTransactionGenerator() TransactionGeneratorInterface {
	return NewSeededTransactionGenerator(time.Now().UnixNano())
}

// NewSeededTransactionGenerator creates a deterministic generator.
func NewSeededTransactionGenerator(seed int64) TransactionGeneratorInterface {
	return &transactionGenerator{rng: rand.New(rand.NewSource(seed))}
}

func (g *transactionGenerator) CategoryNames() []string {
	names := []string{DemoCategorySalary, DemoCategoryRefunds, DemoCategoryBills}
	return append(names, spendingCategories...)
}

// SelectSpendingCategory picks one of the everyday expense categories
func (g *transactionGenerator) SelectSpendingCategory() string {
	return spendingCategories[g.rng.Intn(len(spendingCategories))]
}

// GenerateTransactionType returns expense 90% of the time and a refund otherwise.
func (g *transactionGenerator) GenerateTransactionType() models.TransactionType {
	if g.rng.Float64() < 0.90 {
		return models.TransactionTypeExpense
	}
	return models.TransactionTypeIncome
}

// GenerateAmount returns a magnitude within the category's typical range.
func (g *transactionGenerator) GenerateAmount(category string) decimal.Decimal {
	r, ok := demoAmountRanges[category]
	if !ok {
		r = amountRange{10.00, 100.00}
	}
	amount := r.min + g.rng.Float64()*(r.max-r.min)
	return decimal.NewFromFloat(amount).Round(2)
}

// GenerateDate returns a random day within [start, end).
func (g *transactionGenerator) GenerateDate(start, end time.Time) models.Date {
	diff := end.Sub(start)
	if diff <= 0 {
		return models.DateOf(start)
	}
	return models.DateOf(start.Add(time.Duration(g.rng.Int63n(int64(diff)))))
}

// GenerateSalaryTransactions emits a bi-weekly salary of a fixed amount.
func (g *transactionGenerator) GenerateSalaryTransactions(categories map[string]uuid.UUID, start, end time.Time) []models.TransactionInput {
	salaryAmounts := []float64{2500.00, 3000.00, 3500.00, 4000.00, 4500.00}
	salary := decimal.NewFromFloat(salaryAmounts[g.rng.Intn(len(salaryAmounts))])

	inputs := make([]models.TransactionInput, 0)
	for current := start.AddDate(0, 0, biWeeklyDays); !current.After(end); current = current.AddDate(0, 0, biWeeklyDays) {
		inputs = append(inputs, models.TransactionInput{
			Date:       models.DateOf(current),
			Amount:     salary,
			Type:       models.TransactionTypeIncome,
			CategoryID: categories[DemoCategorySalary],
		})
	}
	return inputs
}

// GenerateBillTransactions emits one bill per month on a random day.
func (g *transactionGenerator) GenerateBillTransactions(categories map[string]uuid.UUID, start, end time.Time) []models.TransactionInput {
	inputs := make([]models.TransactionInput, 0)
	current := start

	for current.Before(end) {
		current = time.Date(current.Year(), current.Month()+1, 1, 0, 0, 0, 0, time.UTC)
		billDate := time.Date(current.Year(), current.Month(), 1+g.rng.Intn(28), 0, 0, 0, 0, time.UTC)
		if billDate.After(end) {
			break
		}

		inputs = append(inputs, models.TransactionInput{
			Date:       models.DateOf(billDate),
			Amount:     g.GenerateAmount(DemoCategoryBills),
			Type:       models.TransactionTypeExpense,
			CategoryID: categories[DemoCategoryBills],
		})
	}
	return inputs
}

// GenerateDailyPurchases emits one to four entries per day.
func (g *transactionGenerator) GenerateDailyPurchases(categories map[string]uuid.UUID, start, end time.Time) []models.TransactionInput {
	inputs := make([]models.TransactionInput, 0)

	for current := start; current.Before(end); current = current.Add(hoursInDay * time.Hour) {
		purchases := 1 + g.rng.Intn(4)
		for i := 0; i < purchases; i++ {
			inputs = append(inputs, g.dailyTransaction(categories, current))
		}
	}
	return inputs
}

func (g *transactionGenerator) dailyTransaction(categories map[string]uuid.UUID, day time.Time) models.TransactionInput {
	txnType := g.GenerateTransactionType()
	category := g.SelectSpendingCategory()
	amount := g.GenerateAmount(category)

	if txnType == models.TransactionTypeIncome {
		category = DemoCategoryRefunds
		amount = g.GenerateAmount(DemoCategoryRefunds)
	}

	return models.TransactionInput{
		Date:       models.DateOf(day),
		Amount:     amount,
		Type:       txnType,
		CategoryID: categories[category],
	}
}

// GenerateHistoricalTransactions builds count entries spread over the range,
// ordered by date. Expenses that would push the running balance under the
// threshold are turned into salary deposits.
func (g *transactionGenerator) GenerateHistoricalTransactions(
	categories map[string]uuid.UUID,
	start, end time.Time,
	startingBalance decimal.Decimal,
	count int,
) []models.TransactionInput {
	if count <= 0 || !end.After(start) {
		return []models.TransactionInput{}
	}

	inputs := make([]models.TransactionInput, 0, count)
	for i := 0; i < count; i++ {
		input := g.dailyTransaction(categories, start)
		input.Date = g.GenerateDate(start, end)
		inputs = append(inputs, input)
	}

	sort.SliceStable(inputs, func(i, j int) bool {
		return inputs[i].Date.Before(inputs[j].Date)
	})

	g.adjustForBalance(inputs, categories, startingBalance)
	return inputs
}

func (g *transactionGenerator) adjustForBalance(inputs []models.TransactionInput, categories map[string]uuid.UUID, balance decimal.Decimal) {
	minBalance := decimal.NewFromInt(minBalanceThreshold)

	for i := range inputs {
		if inputs[i].Type == models.TransactionTypeIncome {
			balance = balance.Add(inputs[i].Amount)
			continue
		}

		if balance.Sub(inputs[i].Amount).LessThan(minBalance) {
			inputs[i].Type = models.TransactionTypeIncome
			inputs[i].Amount = g.GenerateAmount(DemoCategorySalary)
			inputs[i].CategoryID = categories[DemoCategorySalary]
			balance = balance.Add(inputs[i].Amount)
			continue
		}

		balance = balance.Sub(inputs[i].Amount)
	}
}
