package repositories

import (
	"context"
	"sync"
	"testing"
	"time"

	"finance-tracker/internal/database"
	"finance-tracker/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

func TestTransactionRepository(t *testing.T) {
	suite.Run(t, new(TransactionRepositorySuite))
}

type TransactionRepositorySuite struct {
	suite.Suite
	db       *database.DB
	repo     TransactionRepositoryInterface
	ctx      context.Context
	user     *models.User
	category *models.Category
}

func (s *TransactionRepositorySuite) SetupTest() {
	s.db = database.SetupTestDB(s.T())
	s.repo = NewTransactionRepository(s.db.DB)
	s.ctx = context.Background()
	s.user = database.CreateTestUser(s.T(), s.db, "owner@example.com")
	s.category = database.CreateTestCategory(s.T(), s.db, s.user.ID, "Salary")
}

func (s *TransactionRepositorySuite) TearDownTest() {
	database.CleanupTestDB(s.T(), s.db)
}

func (s *TransactionRepositorySuite) newTransaction(userID, categoryID uuid.UUID, date models.Date, amount string, t models.TransactionType) *models.Transaction {
	signed, err := models.SignedAmount(decimal.RequireFromString(amount), t)
	s.Require().NoError(err)
	return &models.Transaction{
		UserID:     userID,
		CategoryID: categoryID,
		Date:       date,
		Amount:     signed,
		Type:       t,
	}
}

func (s *TransactionRepositorySuite) create(date models.Date, amount string, t models.TransactionType) *models.Transaction {
	txn := s.newTransaction(s.user.ID, s.category.ID, date, amount, t)
	s.Require().NoError(s.repo.Create(s.ctx, txn))
	return txn
}

func (s *TransactionRepositorySuite) assertBalance(userID uuid.UUID, expected string) {
	balance := database.ReloadBalance(s.T(), s.db, userID)
	s.Equal(expected, balance.StringFixed(2))
}

func (s *TransactionRepositorySuite) TestCreate_AppliesSignedAmount() {
	income := s.create(models.NewDate(2024, 1, 1), "100", models.TransactionTypeIncome)
	s.NotEqual(uuid.Nil, income.ID)
	s.Equal("100.00", income.Amount.StringFixed(2))
	s.assertBalance(s.user.ID, "100.00")

	expense := s.create(models.NewDate(2024, 1, 2), "100", models.TransactionTypeExpense)
	s.Equal("-100.00", expense.Amount.StringFixed(2))
	s.assertBalance(s.user.ID, "0.00")
}

func (s *TransactionRepositorySuite) TestCreate_RejectsForeignCategory() {
	other := database.CreateTestUser(s.T(), s.db, "other@example.com")
	foreign := database.CreateTestCategory(s.T(), s.db, other.ID, "Theirs")

	txn := s.newTransaction(s.user.ID, foreign.ID, models.NewDate(2024, 1, 1), "10", models.TransactionTypeIncome)
	err := s.repo.Create(s.ctx, txn)
	s.ErrorIs(err, ErrCategoryNotFound)

	s.assertBalance(s.user.ID, "0.00")
	s.assertBalance(other.ID, "0.00")

	all, err := s.repo.ListForUser(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.Empty(all)
}

// Scenario A
func (s *TransactionRepositorySuite) TestUpdate_ReversesOldAndAppliesNew() {
	txn := s.create(models.NewDate(2024, 1, 1), "100", models.TransactionTypeIncome)
	s.assertBalance(s.user.ID, "100.00")

	revision, err := s.repo.Update(s.ctx, txn.ID, s.user.ID, TransactionChanges{
		Date:       models.NewDate(2024, 1, 1),
		Amount:     decimal.NewFromInt(-40),
		Type:       models.TransactionTypeExpense,
		CategoryID: s.category.ID,
	})
	s.Require().NoError(err)
	s.Equal("100.00", revision.Previous.Amount.StringFixed(2))
	s.Equal(models.TransactionTypeIncome, revision.Previous.Type)

	updated := revision.Updated
	s.Equal(models.TransactionTypeExpense, updated.Type)
	s.Equal("-40.00", updated.Amount.StringFixed(2))
	s.assertBalance(s.user.ID, "-40.00")

	stored, err := s.repo.GetForOwner(s.ctx, txn.ID, s.user.ID)
	s.Require().NoError(err)
	s.Equal("-40.00", stored.Amount.StringFixed(2))
	s.Equal(models.TransactionTypeExpense, stored.Type)
}

func (s *TransactionRepositorySuite) TestUpdate_MovesToAnotherOwnedCategory() {
	txn := s.create(models.NewDate(2024, 3, 1), "25.50", models.TransactionTypeIncome)
	gifts := database.CreateTestCategory(s.T(), s.db, s.user.ID, "Gifts")

	revision, err := s.repo.Update(s.ctx, txn.ID, s.user.ID, TransactionChanges{
		Date:       models.NewDate(2024, 3, 5),
		Amount:     decimal.RequireFromString("25.50"),
		Type:       models.TransactionTypeIncome,
		CategoryID: gifts.ID,
	})
	s.Require().NoError(err)
	s.Equal(s.category.ID, revision.Previous.CategoryID)
	s.Equal(gifts.ID, revision.Updated.CategoryID)
	s.Equal("2024-03-05", revision.Updated.Date.String())
	s.assertBalance(s.user.ID, "25.50")
}

func (s *TransactionRepositorySuite) TestUpdate_NotOwned() {
	txn := s.create(models.NewDate(2024, 1, 1), "100", models.TransactionTypeIncome)
	other := database.CreateTestUser(s.T(), s.db, "intruder@example.com")
	otherCategory := database.CreateTestCategory(s.T(), s.db, other.ID, "Mine")

	_, err := s.repo.Update(s.ctx, txn.ID, other.ID, TransactionChanges{
		Date:       models.NewDate(2024, 1, 1),
		Amount:     decimal.NewFromInt(1),
		Type:       models.TransactionTypeIncome,
		CategoryID: otherCategory.ID,
	})
	s.ErrorIs(err, ErrTransactionNotFound)
	s.assertBalance(s.user.ID, "100.00")
	s.assertBalance(other.ID, "0.00")
}

func (s *TransactionRepositorySuite) TestUpdate_UnknownCategoryRollsBack() {
	txn := s.create(models.NewDate(2024, 1, 1), "100", models.TransactionTypeIncome)

	_, err := s.repo.Update(s.ctx, txn.ID, s.user.ID, TransactionChanges{
		Date:       models.NewDate(2024, 1, 1),
		Amount:     decimal.NewFromInt(5),
		Type:       models.TransactionTypeIncome,
		CategoryID: uuid.New(),
	})
	s.ErrorIs(err, ErrCategoryNotFound)
	s.assertBalance(s.user.ID, "100.00")

	stored, err := s.repo.GetForOwner(s.ctx, txn.ID, s.user.ID)
	s.Require().NoError(err)
	s.Equal("100.00", stored.Amount.StringFixed(2))
}

func (s *TransactionRepositorySuite) TestDelete_ReversesAmount() {
	keep := s.create(models.NewDate(2024, 1, 1), "70", models.TransactionTypeIncome)
	drop := s.create(models.NewDate(2024, 1, 2), "20", models.TransactionTypeExpense)
	s.assertBalance(s.user.ID, "50.00")

	deleted, err := s.repo.Delete(s.ctx, drop.ID, s.user.ID)
	s.Require().NoError(err)
	s.Equal(drop.ID, deleted.ID)
	s.Equal("-20.00", deleted.Amount.StringFixed(2))
	s.assertBalance(s.user.ID, "70.00")

	_, err = s.repo.GetForOwner(s.ctx, drop.ID, s.user.ID)
	s.ErrorIs(err, ErrTransactionNotFound)

	_, err = s.repo.GetForOwner(s.ctx, keep.ID, s.user.ID)
	s.NoError(err)
}

// Scenario C
func (s *TransactionRepositorySuite) TestDelete_OtherUsersTransaction() {
	txn := s.create(models.NewDate(2024, 1, 1), "100", models.TransactionTypeIncome)
	other := database.CreateTestUser(s.T(), s.db, "intruder@example.com")

	deleted, err := s.repo.Delete(s.ctx, txn.ID, other.ID)
	s.ErrorIs(err, ErrTransactionNotFound)
	s.Nil(deleted)

	s.assertBalance(s.user.ID, "100.00")
	s.assertBalance(other.ID, "0.00")

	_, err = s.repo.GetForOwner(s.ctx, txn.ID, s.user.ID)
	s.NoError(err)
}

func (s *TransactionRepositorySuite) TestDelete_Missing() {
	_, err := s.repo.Delete(s.ctx, uuid.New(), s.user.ID)
	s.ErrorIs(err, ErrTransactionNotFound)
}

func (s *TransactionRepositorySuite) TestListForUser_InsertionOrderAndIdempotent() {
	first := s.create(models.NewDate(2024, 5, 1), "1", models.TransactionTypeIncome)
	time.Sleep(2 * time.Millisecond)
	second := s.create(models.NewDate(2024, 1, 1), "2", models.TransactionTypeExpense)

	other := database.CreateTestUser(s.T(), s.db, "other@example.com")
	otherCategory := database.CreateTestCategory(s.T(), s.db, other.ID, "Other")
	s.Require().NoError(s.repo.Create(s.ctx, s.newTransaction(other.ID, otherCategory.ID, models.NewDate(2024, 1, 1), "9", models.TransactionTypeIncome)))

	list, err := s.repo.ListForUser(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal(first.ID, list[0].ID)
	s.Equal(second.ID, list[1].ID)

	again, err := s.repo.ListForUser(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.Equal(len(list), len(again))
	for i := range list {
		s.Equal(list[i].ID, again[i].ID)
	}
}

func (s *TransactionRepositorySuite) TestListByDateRange_InclusiveBounds() {
	s.create(models.NewDate(2023, 12, 31), "1", models.TransactionTypeIncome)
	start := s.create(models.NewDate(2024, 1, 1), "2", models.TransactionTypeIncome)
	mid := s.create(models.NewDate(2024, 1, 15), "3", models.TransactionTypeExpense)
	end := s.create(models.NewDate(2024, 1, 31), "4", models.TransactionTypeIncome)
	s.create(models.NewDate(2024, 2, 1), "5", models.TransactionTypeIncome)

	dateRange := models.DateRange{
		UserID: s.user.ID,
		Start:  models.NewDate(2024, 1, 1),
		End:    models.NewDate(2024, 1, 31),
	}

	list, err := s.repo.ListByDateRange(s.ctx, dateRange)
	s.Require().NoError(err)
	s.Require().Len(list, 3)
	s.Equal(start.ID, list[0].ID)
	s.Equal(mid.ID, list[1].ID)
	s.Equal(end.ID, list[2].ID)
	s.Equal("2024-01-01", list[0].Date.String())

	count, err := s.repo.CountByDateRange(s.ctx, dateRange)
	s.NoError(err)
	s.Equal(int64(3), count)
}

func (s *TransactionRepositorySuite) TestListByDateRange_SingleDay() {
	day := s.create(models.NewDate(2024, 6, 10), "10", models.TransactionTypeIncome)

	list, err := s.repo.ListByDateRange(s.ctx, models.DateRange{
		UserID: s.user.ID,
		Start:  models.NewDate(2024, 6, 10),
		End:    models.NewDate(2024, 6, 10),
	})
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal(day.ID, list[0].ID)
}

// Scenario D
func (s *TransactionRepositorySuite) TestSumByType_OmitsAbsentTypes() {
	s.create(models.NewDate(2024, 1, 5), "100", models.TransactionTypeIncome)
	s.create(models.NewDate(2024, 1, 6), "50.25", models.TransactionTypeIncome)
	s.create(models.NewDate(2024, 3, 1), "30", models.TransactionTypeExpense)

	totals, err := s.repo.SumByType(s.ctx, models.DateRange{
		UserID: s.user.ID,
		Start:  models.NewDate(2024, 1, 1),
		End:    models.NewDate(2024, 1, 31),
	})
	s.Require().NoError(err)
	s.Require().Len(totals, 1)
	s.Equal(models.TransactionTypeIncome, totals[0].Type)
	s.Equal("150.25", totals[0].Amount.StringFixed(2))
}

func (s *TransactionRepositorySuite) TestSumByType_BothTypesOrdered() {
	s.create(models.NewDate(2024, 1, 5), "20", models.TransactionTypeExpense)
	s.create(models.NewDate(2024, 1, 6), "80", models.TransactionTypeIncome)

	totals, err := s.repo.SumByType(s.ctx, models.DateRange{
		UserID: s.user.ID,
		Start:  models.NewDate(2024, 1, 1),
		End:    models.NewDate(2024, 12, 31),
	})
	s.Require().NoError(err)
	s.Require().Len(totals, 2)
	s.Equal(models.TransactionTypeIncome, totals[0].Type)
	s.Equal("80.00", totals[0].Amount.StringFixed(2))
	s.Equal(models.TransactionTypeExpense, totals[1].Type)
	s.Equal("-20.00", totals[1].Amount.StringFixed(2))
}

// The single test connection serialises these writers, so this checks the
// end-to-end count; the in-place increment itself is pinned by
// TestApplyBalanceDelta_IncrementsInPlace.
func (s *TransactionRepositorySuite) TestConcurrentCreates_NoLostUpdates() {
	const n = 25

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			txn := &models.Transaction{
				UserID:     s.user.ID,
				CategoryID: s.category.ID,
				Date:       models.NewDate(2024, 1, 1),
				Amount:     decimal.NewFromInt(1),
				Type:       models.TransactionTypeIncome,
			}
			errs <- s.repo.Create(s.ctx, txn)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		s.NoError(err)
	}

	s.assertBalance(s.user.ID, "25.00")
}

func (s *TransactionRepositorySuite) TestBalanceMatchesSumAfterMixedMutations() {
	a := s.create(models.NewDate(2024, 1, 1), "10.10", models.TransactionTypeIncome)
	b := s.create(models.NewDate(2024, 1, 2), "3.35", models.TransactionTypeExpense)
	s.create(models.NewDate(2024, 1, 3), "99.99", models.TransactionTypeIncome)

	_, err := s.repo.Update(s.ctx, a.ID, s.user.ID, TransactionChanges{
		Date:       a.Date,
		Amount:     decimal.RequireFromString("-0.65"),
		Type:       models.TransactionTypeExpense,
		CategoryID: s.category.ID,
	})
	s.Require().NoError(err)
	_, err = s.repo.Delete(s.ctx, b.ID, s.user.ID)
	s.Require().NoError(err)

	computed, err := NewBalanceRepository(s.db.DB).ComputeBalance(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.Equal("99.34", computed.StringFixed(2))
	s.assertBalance(s.user.ID, "99.34")
}
