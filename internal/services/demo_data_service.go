package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	maxDemoDays  = 365
	maxDemoCount = 1000
)

type demoDataService struct {
	categories   CategoryServiceInterface
	transactions TransactionServiceInterface
	balances     BalanceServiceInterface
	generator    TransactionGeneratorInterface
	logger       *slog.Logger
	now          func() time.Time
}

func NewDemoDataService(
	categories CategoryServiceInterface,
	transactions TransactionServiceInterface,
	balances BalanceServiceInterface,
	generator TransactionGeneratorInterface,
	logger *slog.Logger,
) DemoDataServiceInterface {
	return &demoDataService{
		categories:   categories,
		transactions: transactions,
		balances:     balances,
		generator:    generator,
		logger:       logger,
		now:          time.Now,
	}
}

// Seed creates the demo categories the user is missing, then records count
// random entries over the last days plus salaries and monthly bills. Entries go
// through the transaction service so the cached balance follows them. Returns
// the number of transactions created.
func (s *demoDataService) Seed(ctx context.Context, userID uuid.UUID, days, count int) (int, error) {
	days = clamp(days, 1, maxDemoDays)
	count = clamp(count, 1, maxDemoCount)

	categoryIDs, err := s.ensureCategories(ctx, userID)
	if err != nil {
		return 0, err
	}

	balance, err := s.balances.GetBalance(ctx, userID)
	if err != nil {
		return 0, err
	}

	end := s.now().UTC()
	start := end.AddDate(0, 0, -days)

	inputs := s.generator.GenerateSalaryTransactions(categoryIDs, start, end)
	inputs = append(inputs, s.generator.GenerateHistoricalTransactions(categoryIDs, start, end, balance, count)...)
	inputs = append(inputs, s.generator.GenerateBillTransactions(categoryIDs, start, end)...)

	created := 0
	for _, input := range inputs {
		if err := ctx.Err(); err != nil {
			return created, err
		}
		if _, err := s.transactions.Create(ctx, userID, input); err != nil {
			s.logger.WarnContext(ctx, "skipping generated transaction", "user_id", userID, "error", err)
			continue
		}
		created++
	}

	s.logger.InfoContext(ctx, "demo data generated",
		"user_id", userID,
		"days", days,
		"transactions_created", created)

	return created, nil
}

func (s *demoDataService) ensureCategories(ctx context.Context, userID uuid.UUID) (map[string]uuid.UUID, error) {
	existing, err := s.categories.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	ids := make(map[string]uuid.UUID, len(existing))
	for _, category := range existing {
		ids[category.Name] = category.ID
	}

	for _, name := range s.generator.CategoryNames() {
		if _, ok := ids[name]; ok {
			continue
		}
		category, err := s.categories.Create(ctx, userID, name)
		if err != nil {
			return nil, fmt.Errorf("failed to create category %q: %w", name, err)
		}
		ids[name] = category.ID
	}

	return ids, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
