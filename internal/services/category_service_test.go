package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"finance-tracker/internal/database"
	"finance-tracker/internal/models"
	"finance-tracker/internal/repositories"
	"finance-tracker/internal/repositories/repository_mocks"
	"finance-tracker/internal/services/service_mocks"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type CategoryServiceTestSuite struct {
	suite.Suite
	db           *database.DB
	ctx          context.Context
	metrics      *PrometheusMetrics
	service      CategoryServiceInterface
	transactions TransactionServiceInterface
	user         *models.User
}

func TestCategoryServiceSuite(t *testing.T) {
	suite.Run(t, new(CategoryServiceTestSuite))
}

func (s *CategoryServiceTestSuite) SetupTest() {
	s.db = database.SetupTestDB(s.T())
	s.ctx = context.Background()
	s.metrics = NewPrometheusMetrics(prometheus.NewRegistry()).(*PrometheusMetrics)

	logger := discardLogger()
	audit := NewAuditService(repositories.NewAuditLogRepository(s.db.DB))
	auditLogger := NewAuditLogger(logger)

	s.service = NewCategoryService(repositories.NewCategoryRepository(s.db.DB), audit, auditLogger, s.metrics, logger)
	s.transactions = NewTransactionService(repositories.NewTransactionRepository(s.db.DB), audit, auditLogger, s.metrics, logger)
	s.user = database.CreateTestUser(s.T(), s.db, gofakeit.Email())
}

func (s *CategoryServiceTestSuite) addTransaction(categoryID uuid.UUID, amount string, t models.TransactionType) {
	_, err := s.transactions.Create(s.ctx, s.user.ID, models.TransactionInput{
		Date:       models.NewDate(2024, 5, 1),
		Amount:     decimal.RequireFromString(amount),
		Type:       t,
		CategoryID: categoryID,
	})
	s.Require().NoError(err)
}

func (s *CategoryServiceTestSuite) TestCreateAndList() {
	created, err := s.service.Create(s.ctx, s.user.ID, "Groceries")
	s.Require().NoError(err)
	s.Equal("Groceries", created.Name)
	s.Equal(s.user.ID, created.UserID)

	other := database.CreateTestUser(s.T(), s.db, gofakeit.Email())
	_, err = s.service.Create(s.ctx, other.ID, "Rent")
	s.Require().NoError(err)

	list, err := s.service.ListForUser(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.Len(list, 1)
	s.Equal(created.ID, list[0].ID)
}

func (s *CategoryServiceTestSuite) TestCreate_InvalidName() {
	_, err := s.service.Create(s.ctx, s.user.ID, "")
	s.ErrorIs(err, models.ErrCategoryNameRequired)

	_, err = s.service.Create(s.ctx, s.user.ID, strings.Repeat("x", 201))
	s.ErrorIs(err, models.ErrCategoryNameTooLong)
}

func (s *CategoryServiceTestSuite) TestUpdate() {
	created, err := s.service.Create(s.ctx, s.user.ID, "Food")
	s.Require().NoError(err)

	renamed, err := s.service.Update(s.ctx, created.ID, s.user.ID, "Dining")
	s.Require().NoError(err)
	s.Equal("Dining", renamed.Name)

	other := database.CreateTestUser(s.T(), s.db, gofakeit.Email())
	_, err = s.service.Update(s.ctx, created.ID, other.ID, "Stolen")
	s.ErrorIs(err, ErrCategoryNotFound)
}

func (s *CategoryServiceTestSuite) TestDelete_CascadesAndRestoresBalance() {
	salary, err := s.service.Create(s.ctx, s.user.ID, "Salary")
	s.Require().NoError(err)
	fun, err := s.service.Create(s.ctx, s.user.ID, "Fun")
	s.Require().NoError(err)

	s.addTransaction(salary.ID, "1000", models.TransactionTypeIncome)
	s.addTransaction(fun.ID, "120.50", models.TransactionTypeExpense)
	s.addTransaction(fun.ID, "79.50", models.TransactionTypeExpense)
	s.Equal("800.00", database.ReloadBalance(s.T(), s.db, s.user.ID).StringFixed(2))

	deletion, err := s.service.Delete(s.ctx, fun.ID, s.user.ID)
	s.Require().NoError(err)

	s.Equal(int64(2), deletion.RemovedTransactions)
	s.Equal("200.00", deletion.BalanceDelta.StringFixed(2))
	s.Equal(s.user.ID, deletion.OwnerID)
	s.Equal("1000.00", database.ReloadBalance(s.T(), s.db, s.user.ID).StringFixed(2))

	remaining, err := s.transactions.ListForUser(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.Len(remaining, 1)

	s.Equal(1.0, testutil.ToFloat64(s.metrics.categoriesDeletedTotal))
	s.Equal(2.0, testutil.ToFloat64(s.metrics.cascadedTransactionsTotal))
}

func (s *CategoryServiceTestSuite) TestDelete_NotOwned() {
	created, err := s.service.Create(s.ctx, s.user.ID, "Private")
	s.Require().NoError(err)

	other := database.CreateTestUser(s.T(), s.db, gofakeit.Email())
	_, err = s.service.Delete(s.ctx, created.ID, other.ID)
	s.ErrorIs(err, ErrCategoryNotFound)

	list, err := s.service.ListForUser(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.Len(list, 1)
}

func TestCategoryService_StorageFailureIsWrapped(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := repository_mocks.NewMockCategoryRepositoryInterface(ctrl)
	audit := service_mocks.NewMockAuditServiceInterface(ctrl)
	auditLogger := service_mocks.NewMockAuditLoggerInterface(ctrl)
	metrics := service_mocks.NewMockMetricsRecorderInterface(ctrl)

	service := NewCategoryService(repo, audit, auditLogger, metrics, discardLogger())

	userID := uuid.New()
	repo.EXPECT().Delete(gomock.Any(), gomock.Any(), userID).Return(nil, errors.New("connection reset"))

	_, err := service.Delete(context.Background(), uuid.New(), userID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "category storage failure")
}

func TestCategoryService_AuditFailureDoesNotFailDelete(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := repository_mocks.NewMockCategoryRepositoryInterface(ctrl)
	audit := service_mocks.NewMockAuditServiceInterface(ctrl)
	auditLogger := service_mocks.NewMockAuditLoggerInterface(ctrl)
	metrics := service_mocks.NewMockMetricsRecorderInterface(ctrl)

	service := NewCategoryService(repo, audit, auditLogger, metrics, discardLogger())

	deletion := &repositories.CategoryDeletion{
		CategoryID:          uuid.New(),
		OwnerID:             uuid.New(),
		RemovedTransactions: 0,
		BalanceDelta:        decimal.Zero,
	}

	repo.EXPECT().Delete(gomock.Any(), deletion.CategoryID, deletion.OwnerID).Return(deletion, nil)
	metrics.EXPECT().IncrementCounter("category_deleted", gomock.Any())
	metrics.EXPECT().RecordProcessingTime("category_delete", gomock.Any())
	metrics.EXPECT().RecordGauge("category_cascaded_transactions", 0.0, gomock.Any())
	auditLogger.EXPECT().LogCategoryDeleted(gomock.Any(), deletion)
	audit.EXPECT().
		Record(gomock.Any(), deletion.OwnerID, models.AuditActionCategoryDeleted, "category", deletion.CategoryID.String(), gomock.Any()).
		Return(errors.New("audit table locked"))

	result, err := service.Delete(context.Background(), deletion.CategoryID, deletion.OwnerID)
	require.NoError(t, err)
	assert.Same(t, deletion, result)
}

func TestCategoryService_InvalidNameNeverReachesStorage(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// No repository expectations: any call fails the test.
	repo := repository_mocks.NewMockCategoryRepositoryInterface(ctrl)
	audit := service_mocks.NewMockAuditServiceInterface(ctrl)
	auditLogger := service_mocks.NewMockAuditLoggerInterface(ctrl)
	metrics := service_mocks.NewMockMetricsRecorderInterface(ctrl)

	service := NewCategoryService(repo, audit, auditLogger, metrics, discardLogger())

	_, err := service.Create(context.Background(), uuid.New(), "  ")
	assert.Same(t, models.ErrCategoryNameRequired, err)

	_, err = service.Update(context.Background(), uuid.New(), uuid.New(), strings.Repeat("x", 201))
	assert.Same(t, models.ErrCategoryNameTooLong, err)
}
