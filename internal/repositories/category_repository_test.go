package repositories

import (
	"context"
	"strings"
	"testing"
	"time"

	"finance-tracker/internal/database"
	"finance-tracker/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

func TestCategoryRepository(t *testing.T) {
	suite.Run(t, new(CategoryRepositorySuite))
}

type CategoryRepositorySuite struct {
	suite.Suite
	db           *database.DB
	repo         CategoryRepositoryInterface
	transactions TransactionRepositoryInterface
	ctx          context.Context
	user         *models.User
}

func (s *CategoryRepositorySuite) SetupTest() {
	s.db = database.SetupTestDB(s.T())
	s.repo = NewCategoryRepository(s.db.DB)
	s.transactions = NewTransactionRepository(s.db.DB)
	s.ctx = context.Background()
	s.user = database.CreateTestUser(s.T(), s.db, "owner@example.com")
}

func (s *CategoryRepositorySuite) TearDownTest() {
	database.CleanupTestDB(s.T(), s.db)
}

func (s *CategoryRepositorySuite) addTransaction(userID, categoryID uuid.UUID, amount int64, t models.TransactionType) *models.Transaction {
	signed, err := models.SignedAmount(decimal.NewFromInt(amount), t)
	s.Require().NoError(err)
	txn := &models.Transaction{
		UserID:     userID,
		CategoryID: categoryID,
		Date:       models.NewDate(2024, 1, 1),
		Amount:     signed,
		Type:       t,
	}
	s.Require().NoError(s.transactions.Create(s.ctx, txn))
	return txn
}

func (s *CategoryRepositorySuite) TestCreateAndList() {
	food := &models.Category{UserID: s.user.ID, Name: "  Food  "}
	s.Require().NoError(s.repo.Create(s.ctx, food))
	s.Equal("Food", food.Name)
	time.Sleep(2 * time.Millisecond)

	rent := &models.Category{UserID: s.user.ID, Name: "Rent"}
	s.Require().NoError(s.repo.Create(s.ctx, rent))

	other := database.CreateTestUser(s.T(), s.db, "other@example.com")
	database.CreateTestCategory(s.T(), s.db, other.ID, "Hidden")

	list, err := s.repo.ListForUser(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal(food.ID, list[0].ID)
	s.Equal(rent.ID, list[1].ID)
}

func (s *CategoryRepositorySuite) TestCreate_InvalidName() {
	err := s.repo.Create(s.ctx, &models.Category{UserID: s.user.ID, Name: "   "})
	s.ErrorIs(err, models.ErrCategoryNameRequired)

	err = s.repo.Create(s.ctx, &models.Category{UserID: s.user.ID, Name: strings.Repeat("x", models.MaxCategoryNameLength+1)})
	s.ErrorIs(err, models.ErrCategoryNameTooLong)
}

func (s *CategoryRepositorySuite) TestRename() {
	category := database.CreateTestCategory(s.T(), s.db, s.user.ID, "Fod")

	renamed, err := s.repo.Rename(s.ctx, category.ID, s.user.ID, " Food ")
	s.Require().NoError(err)
	s.Equal("Food", renamed.Name)

	found, err := s.repo.GetForOwner(s.ctx, category.ID, s.user.ID)
	s.Require().NoError(err)
	s.Equal("Food", found.Name)
}

func (s *CategoryRepositorySuite) TestRename_NotOwned() {
	category := database.CreateTestCategory(s.T(), s.db, s.user.ID, "Mine")
	other := database.CreateTestUser(s.T(), s.db, "other@example.com")

	_, err := s.repo.Rename(s.ctx, category.ID, other.ID, "Stolen")
	s.ErrorIs(err, ErrCategoryNotFound)

	found, err := s.repo.GetForOwner(s.ctx, category.ID, s.user.ID)
	s.Require().NoError(err)
	s.Equal("Mine", found.Name)
}

// Scenario B
func (s *CategoryRepositorySuite) TestDelete_CascadesAndReversesBalance() {
	c1 := database.CreateTestCategory(s.T(), s.db, s.user.ID, "C1")
	c2 := database.CreateTestCategory(s.T(), s.db, s.user.ID, "C2")

	s.addTransaction(s.user.ID, c1.ID, 50, models.TransactionTypeIncome)
	s.addTransaction(s.user.ID, c1.ID, 20, models.TransactionTypeExpense)
	survivor := s.addTransaction(s.user.ID, c2.ID, 5, models.TransactionTypeIncome)
	s.Equal("35.00", database.ReloadBalance(s.T(), s.db, s.user.ID).StringFixed(2))

	deletion, err := s.repo.Delete(s.ctx, c1.ID, s.user.ID)
	s.Require().NoError(err)
	s.Equal(int64(2), deletion.RemovedTransactions)
	s.Equal("-30.00", deletion.BalanceDelta.StringFixed(2))
	s.Equal(s.user.ID, deletion.OwnerID)

	s.Equal("5.00", database.ReloadBalance(s.T(), s.db, s.user.ID).StringFixed(2))

	_, err = s.repo.GetForOwner(s.ctx, c1.ID, s.user.ID)
	s.ErrorIs(err, ErrCategoryNotFound)

	remaining, err := s.transactions.ListForUser(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.Require().Len(remaining, 1)
	s.Equal(survivor.ID, remaining[0].ID)
}

func (s *CategoryRepositorySuite) TestDelete_EmptyCategory() {
	category := database.CreateTestCategory(s.T(), s.db, s.user.ID, "Empty")

	deletion, err := s.repo.Delete(s.ctx, category.ID, s.user.ID)
	s.Require().NoError(err)
	s.Zero(deletion.RemovedTransactions)
	s.True(deletion.BalanceDelta.IsZero())
	s.True(database.ReloadBalance(s.T(), s.db, s.user.ID).IsZero())
}

func (s *CategoryRepositorySuite) TestDelete_NotOwnedLeavesEverything() {
	category := database.CreateTestCategory(s.T(), s.db, s.user.ID, "Mine")
	s.addTransaction(s.user.ID, category.ID, 40, models.TransactionTypeIncome)
	other := database.CreateTestUser(s.T(), s.db, "other@example.com")

	_, err := s.repo.Delete(s.ctx, category.ID, other.ID)
	s.ErrorIs(err, ErrCategoryNotFound)

	s.Equal("40.00", database.ReloadBalance(s.T(), s.db, s.user.ID).StringFixed(2))
	s.True(database.ReloadBalance(s.T(), s.db, other.ID).IsZero())

	list, err := s.transactions.ListForUser(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.Len(list, 1)
}
