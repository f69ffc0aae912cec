package repositories

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"finance-tracker/internal/database"
	"finance-tracker/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

func TestRefreshTokenRepository(t *testing.T) {
	suite.Run(t, new(RefreshTokenRepositorySuite))
}

type RefreshTokenRepositorySuite struct {
	suite.Suite
	db   *database.DB
	repo RefreshTokenRepositoryInterface
	ctx  context.Context
}

func (s *RefreshTokenRepositorySuite) SetupTest() {
	s.db = database.SetupTestDB(s.T())
	s.repo = NewRefreshTokenRepository(s.db.DB)
	s.ctx = context.Background()
}

func (s *RefreshTokenRepositorySuite) TearDownTest() {
	database.CleanupTestDB(s.T(), s.db)
}

func (s *RefreshTokenRepositorySuite) hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (s *RefreshTokenRepositorySuite) createToken(userID uuid.UUID, raw string, ttl time.Duration) *models.RefreshToken {
	token := &models.RefreshToken{
		UserID:    userID,
		TokenHash: s.hashToken(raw),
		ExpiresAt: time.Now().Add(ttl),
	}
	s.Require().NoError(s.repo.Create(s.ctx, token))
	return token
}

func (s *RefreshTokenRepositorySuite) TestRefreshTokenRepository_Create() {
	token := s.createToken(uuid.New(), "test.refresh.token", 7*24*time.Hour)
	s.NotEqual(uuid.Nil, token.ID)
	s.NotZero(token.CreatedAt)
}

func (s *RefreshTokenRepositorySuite) TestRefreshTokenRepository_GetByTokenHash() {
	userID := uuid.New()
	token := s.createToken(userID, "test.refresh.token", 7*24*time.Hour)

	found, err := s.repo.GetByTokenHash(s.ctx, token.TokenHash)
	s.NoError(err)
	s.Equal(token.ID, found.ID)
	s.Equal(userID, found.UserID)
	s.False(found.IsRevoked())

	_, err = s.repo.GetByTokenHash(s.ctx, "non-existent-hash")
	s.ErrorIs(err, ErrRefreshTokenNotFound)
}

func (s *RefreshTokenRepositorySuite) TestRefreshTokenRepository_Revoke() {
	token := s.createToken(uuid.New(), "revoke.me", time.Hour)

	s.NoError(s.repo.Revoke(s.ctx, token.ID))

	found, err := s.repo.GetByTokenHash(s.ctx, token.TokenHash)
	s.Require().NoError(err)
	s.True(found.IsRevoked())
	s.False(found.IsValid())

	s.ErrorIs(s.repo.Revoke(s.ctx, token.ID), ErrRefreshTokenNotFound)
	s.ErrorIs(s.repo.Revoke(s.ctx, uuid.New()), ErrRefreshTokenNotFound)
}

func (s *RefreshTokenRepositorySuite) TestRefreshTokenRepository_RevokeAllForUser() {
	userID := uuid.New()
	otherID := uuid.New()
	mine := []*models.RefreshToken{
		s.createToken(userID, "a", time.Hour),
		s.createToken(userID, "b", time.Hour),
	}
	other := s.createToken(otherID, "c", time.Hour)

	s.NoError(s.repo.RevokeAllForUser(s.ctx, userID))

	for _, token := range mine {
		found, err := s.repo.GetByTokenHash(s.ctx, token.TokenHash)
		s.Require().NoError(err)
		s.True(found.IsRevoked())
	}

	found, err := s.repo.GetByTokenHash(s.ctx, other.TokenHash)
	s.Require().NoError(err)
	s.False(found.IsRevoked())
}

func (s *RefreshTokenRepositorySuite) TestRefreshTokenRepository_DeleteExpired() {
	userID := uuid.New()
	s.createToken(userID, "expired.1", -time.Hour)
	s.createToken(userID, "expired.2", -2*time.Hour)
	live := s.createToken(userID, "live", time.Hour)

	deleted, err := s.repo.DeleteExpired(s.ctx)
	s.NoError(err)
	s.Equal(int64(2), deleted)

	_, err = s.repo.GetByTokenHash(s.ctx, live.TokenHash)
	s.NoError(err)
}

func TestBlacklistedTokenRepository(t *testing.T) {
	suite.Run(t, new(BlacklistedTokenRepositorySuite))
}

type BlacklistedTokenRepositorySuite struct {
	suite.Suite
	db   *database.DB
	repo BlacklistedTokenRepositoryInterface
	ctx  context.Context
}

func (s *BlacklistedTokenRepositorySuite) SetupTest() {
	s.db = database.SetupTestDB(s.T())
	s.repo = NewBlacklistedTokenRepository(s.db.DB)
	s.ctx = context.Background()
}

func (s *BlacklistedTokenRepositorySuite) TestIsBlacklisted() {
	jti := uuid.NewString()

	listed, err := s.repo.IsBlacklisted(s.ctx, jti)
	s.NoError(err)
	s.False(listed)

	s.Require().NoError(s.repo.Create(s.ctx, &models.BlacklistedToken{
		JTI:       jti,
		UserID:    uuid.New(),
		ExpiresAt: time.Now().Add(15 * time.Minute),
	}))

	listed, err = s.repo.IsBlacklisted(s.ctx, jti)
	s.NoError(err)
	s.True(listed)
}

func (s *BlacklistedTokenRepositorySuite) TestExpiredEntriesAreIgnoredAndPurged() {
	jti := uuid.NewString()
	s.Require().NoError(s.repo.Create(s.ctx, &models.BlacklistedToken{
		JTI:       jti,
		UserID:    uuid.New(),
		ExpiresAt: time.Now().Add(-time.Minute),
	}))

	listed, err := s.repo.IsBlacklisted(s.ctx, jti)
	s.NoError(err)
	s.False(listed)

	deleted, err := s.repo.DeleteExpired(s.ctx)
	s.NoError(err)
	s.Equal(int64(1), deleted)
}
