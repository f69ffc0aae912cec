package repositories

import (
	"context"
	"testing"
	"time"

	"finance-tracker/internal/database"
	"finance-tracker/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

func TestAuditLogRepository(t *testing.T) {
	suite.Run(t, new(AuditLogRepositorySuite))
}

type AuditLogRepositorySuite struct {
	suite.Suite
	db   *database.DB
	repo AuditLogRepositoryInterface
	ctx  context.Context
}

func (s *AuditLogRepositorySuite) SetupTest() {
	s.db = database.SetupTestDB(s.T())
	s.repo = NewAuditLogRepository(s.db.DB)
	s.ctx = context.Background()
}

func (s *AuditLogRepositorySuite) TearDownTest() {
	database.CleanupTestDB(s.T(), s.db)
}

func (s *AuditLogRepositorySuite) record(userID *uuid.UUID, action, traceID string) {
	s.Require().NoError(s.repo.Create(s.ctx, &models.AuditLog{
		UserID:   userID,
		Action:   action,
		Resource: models.AuditResourceUser,
		TraceID:  traceID,
	}))
}

func (s *AuditLogRepositorySuite) TestCreate_StampsIdentity() {
	userID := uuid.New()
	entry := &models.AuditLog{
		UserID:     &userID,
		Action:     models.AuditActionLogin,
		Resource:   models.AuditResourceUser,
		ResourceID: userID.String(),
		IPAddress:  "192.168.1.1",
		UserAgent:  "Mozilla/5.0",
	}

	s.NoError(s.repo.Create(s.ctx, entry))
	s.NotEqual(uuid.Nil, entry.ID)
	s.NotZero(entry.CreatedAt)
}

func (s *AuditLogRepositorySuite) TestCreate_AnonymousWithMetadata() {
	entry := &models.AuditLog{
		Action:    models.AuditActionFailedLogin,
		Resource:  models.AuditResourceUser,
		IPAddress: "192.168.1.1",
		Metadata:  models.AuditMetadata{"email": "someone@example.com", "attempt": 3},
	}
	s.Require().NoError(s.repo.Create(s.ctx, entry))

	got, total, err := s.repo.List(s.ctx, AuditFilter{Action: models.AuditActionFailedLogin})
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Nil(got[0].UserID)
	s.Equal("someone@example.com", got[0].Metadata["email"])
	attempt, ok := got[0].Metadata.Int("attempt")
	s.True(ok)
	s.Equal(int64(3), attempt)
}

func (s *AuditLogRepositorySuite) TestCreate_NilEntry() {
	s.Error(s.repo.Create(s.ctx, nil))
}

func (s *AuditLogRepositorySuite) TestList_ByUserPaginates() {
	userID, otherID := uuid.New(), uuid.New()
	for _, action := range []string{
		models.AuditActionLogin,
		models.AuditActionCategoryCreated,
		models.AuditActionTransactionCreated,
		models.AuditActionLogout,
	} {
		s.record(&userID, action, "")
	}
	s.record(&otherID, models.AuditActionLogin, "")

	first, total, err := s.repo.List(s.ctx, AuditFilter{UserID: userID, Limit: 2})
	s.NoError(err)
	s.Equal(int64(4), total)
	s.Len(first, 2)

	second, total, err := s.repo.List(s.ctx, AuditFilter{UserID: userID, Offset: 2, Limit: 10})
	s.NoError(err)
	s.Equal(int64(4), total)
	s.Len(second, 2)
	s.NotEqual(first[0].ID, second[0].ID)
}

func (s *AuditLogRepositorySuite) TestList_CombinesFilters() {
	userID := uuid.New()
	s.record(&userID, models.AuditActionCategoryDeleted, "trace-a")
	s.record(&userID, models.AuditActionCategoryDeleted, "trace-b")
	s.record(&userID, models.AuditActionLogin, "trace-a")
	s.record(nil, models.AuditActionCategoryDeleted, "trace-a")

	byAction, total, err := s.repo.List(s.ctx, AuditFilter{Action: models.AuditActionCategoryDeleted})
	s.NoError(err)
	s.Equal(int64(3), total)
	for _, e := range byAction {
		s.Equal(models.AuditActionCategoryDeleted, e.Action)
	}

	_, total, err = s.repo.List(s.ctx, AuditFilter{TraceID: "trace-a"})
	s.NoError(err)
	s.Equal(int64(3), total)

	narrowed, total, err := s.repo.List(s.ctx, AuditFilter{
		UserID:  userID,
		Action:  models.AuditActionCategoryDeleted,
		TraceID: "trace-a",
	})
	s.NoError(err)
	s.Equal(int64(1), total)
	s.Len(narrowed, 1)
}

func (s *AuditLogRepositorySuite) TestList_NoMatchesIsEmptyNotNil() {
	got, total, err := s.repo.List(s.ctx, AuditFilter{UserID: uuid.New()})
	s.NoError(err)
	s.Zero(total)
	s.NotNil(got)
	s.Empty(got)
}

func (s *AuditLogRepositorySuite) TestAuditFilter_Window() {
	tests := []struct {
		filter     AuditFilter
		wantOffset int
		wantLimit  int
	}{
		{AuditFilter{}, 0, defaultAuditPageSize},
		{AuditFilter{Offset: -5, Limit: 25}, 0, 25},
		{AuditFilter{Offset: 40, Limit: maxAuditPageSize + 1}, 40, defaultAuditPageSize},
	}
	for _, tt := range tests {
		offset, limit := tt.filter.window()
		s.Equal(tt.wantOffset, offset)
		s.Equal(tt.wantLimit, limit)
	}
}

func (s *AuditLogRepositorySuite) TestDeleteOlderThan() {
	userID := uuid.New()
	s.Require().NoError(s.repo.Create(s.ctx, &models.AuditLog{
		UserID:    &userID,
		Action:    models.AuditActionLogin,
		Resource:  models.AuditResourceUser,
		CreatedAt: time.Now().Add(-48 * time.Hour),
	}))
	s.record(&userID, models.AuditActionLogout, "")

	deleted, err := s.repo.DeleteOlderThan(s.ctx, 24*time.Hour)
	s.NoError(err)
	s.Equal(int64(1), deleted)

	_, total, err := s.repo.List(s.ctx, AuditFilter{UserID: userID})
	s.NoError(err)
	s.Equal(int64(1), total)
}
