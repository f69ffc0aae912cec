package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finance-tracker/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrRefreshTokenNotFound = errors.New("refresh token not found")

// deleteExpired removes rows of model whose expires_at has passed.
func deleteExpired(ctx context.Context, db *gorm.DB, model any, now time.Time) (int64, error) {
	res := db.WithContext(ctx).Where("expires_at < ?", now).Delete(model)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

type refreshTokenRepository struct {
	db *gorm.DB
}

func NewRefreshTokenRepository(db *gorm.DB) RefreshTokenRepositoryInterface {
	return &refreshTokenRepository{db: db}
}

func (r *refreshTokenRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	if token == nil {
		return errors.New("refresh token cannot be nil")
	}
	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		return fmt.Errorf("store refresh token: %w", err)
	}
	return nil
}

func (r *refreshTokenRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	err := r.db.WithContext(ctx).Where("token_hash = ?", tokenHash).Take(&token).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, ErrRefreshTokenNotFound
	case err != nil:
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	return &token, nil
}

// Revoke marks one token used. The revoked_at guard makes it a compare and
// set: of two concurrent refreshes with the same token only one succeeds.
func (r *refreshTokenRepository) Revoke(ctx context.Context, tokenID uuid.UUID) error {
	res := r.revoke(ctx, "id = ?", tokenID)
	if res.Error != nil {
		return fmt.Errorf("revoke refresh token: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrRefreshTokenNotFound
	}
	return nil
}

func (r *refreshTokenRepository) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	if err := r.revoke(ctx, "user_id = ?", userID).Error; err != nil {
		return fmt.Errorf("revoke refresh tokens of user: %w", err)
	}
	return nil
}

func (r *refreshTokenRepository) revoke(ctx context.Context, cond string, arg any) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where(cond, arg).
		Where("revoked_at IS NULL").
		Update("revoked_at", time.Now())
}

func (r *refreshTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	n, err := deleteExpired(ctx, r.db, &models.RefreshToken{}, time.Now())
	if err != nil {
		return 0, fmt.Errorf("purge refresh tokens: %w", err)
	}
	return n, nil
}

type blacklistedTokenRepository struct {
	db *gorm.DB
}

func NewBlacklistedTokenRepository(db *gorm.DB) BlacklistedTokenRepositoryInterface {
	return &blacklistedTokenRepository{db: db}
}

func (r *blacklistedTokenRepository) Create(ctx context.Context, token *models.BlacklistedToken) error {
	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		return fmt.Errorf("blacklist token: %w", err)
	}
	return nil
}

// IsBlacklisted ignores entries past their expiry; the token they deny can no
// longer validate anyway.
func (r *blacklistedTokenRepository) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.BlacklistedToken{}).
		Where("jti = ? AND expires_at > ?", jti, time.Now()).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check token blacklist: %w", err)
	}
	return count > 0, nil
}

func (r *blacklistedTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	n, err := deleteExpired(ctx, r.db, &models.BlacklistedToken{}, time.Now())
	if err != nil {
		return 0, fmt.Errorf("purge blacklisted tokens: %w", err)
	}
	return n, nil
}
