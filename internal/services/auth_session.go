package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"finance-tracker/internal/dto"
	"finance-tracker/internal/models"
	"finance-tracker/internal/repositories"
)

// fallbackBlacklistTTL applies when a token's own expiry cannot be read.
const fallbackBlacklistTTL = 24 * time.Hour

// RefreshTokens rotates a refresh token. The presented token is consumed
// exactly once; a concurrent second use is rejected.
func (s *AuthService) RefreshTokens(ctx context.Context, refreshToken, ipAddress, userAgent string) (*dto.TokenResponse, error) {
	client := clientInfo{ipAddress, userAgent}

	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		s.emit(ctx, client, refreshFailure(nil, "invalid_token"))
		return nil, ErrInvalidRefreshToken
	}
	userID, err := claims.OwnerID()
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	stored, err := s.refreshTokens.GetByTokenHash(ctx, hashToken(refreshToken))
	if err != nil {
		s.emit(ctx, client, refreshFailure(&userID, "token_not_found"))
		return nil, ErrInvalidRefreshToken
	}
	if stored.UserID != userID || !stored.IsValid() {
		s.emit(ctx, client, refreshFailure(&userID, "token_expired_or_revoked"))
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.users.GetByID(ctx, userID)
	switch {
	case errors.Is(err, repositories.ErrUserNotFound):
		return nil, ErrInvalidRefreshToken
	case err != nil:
		return nil, fmt.Errorf("load user: %w", err)
	}

	switch err := s.refreshTokens.Revoke(ctx, stored.ID); {
	case errors.Is(err, repositories.ErrRefreshTokenNotFound):
		return nil, ErrInvalidRefreshToken
	case err != nil:
		return nil, fmt.Errorf("revoke refresh token: %w", err)
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	s.emit(ctx, client, authEvent{action: models.AuditActionTokenRefresh, metric: "token_refresh", userID: &user.ID})
	return pair, nil
}

// Logout blacklists the access token until its expiry and revokes every
// refresh token of the owner. An unusable token is a no-op.
func (s *AuthService) Logout(ctx context.Context, accessToken, ipAddress, userAgent string) error {
	claims, err := s.tokens.ValidateAccessToken(accessToken)
	if err != nil {
		s.logger.DebugContext(ctx, "logout with unusable token", "error", err)
		return nil
	}
	userID, err := claims.OwnerID()
	if err != nil {
		return ErrInvalidToken
	}

	expiry, err := s.tokens.GetTokenExpiry(accessToken)
	if err != nil {
		expiry = time.Now().Add(fallbackBlacklistTTL)
	}

	entry := &models.BlacklistedToken{JTI: claims.ID, UserID: userID, ExpiresAt: expiry}
	if err := s.blacklist.Create(ctx, entry); err != nil {
		return fmt.Errorf("failed to blacklist token: %w", err)
	}

	if err := s.refreshTokens.RevokeAllForUser(ctx, userID); err != nil {
		s.logger.WarnContext(ctx, "failed to revoke refresh tokens", "error", err, "user_id", userID)
	}

	s.emit(ctx, clientInfo{ipAddress, userAgent}, authEvent{action: models.AuditActionLogout, metric: "logout", userID: &userID})
	return nil
}

// PurgeExpiredTokens drops refresh tokens and blacklist entries past their
// expiry and returns how many rows went.
func (s *AuthService) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	refresh, err := s.refreshTokens.DeleteExpired(ctx)
	if err != nil {
		return 0, fmt.Errorf("purge refresh tokens: %w", err)
	}
	blacklisted, err := s.blacklist.DeleteExpired(ctx)
	if err != nil {
		return refresh, fmt.Errorf("purge blacklisted tokens: %w", err)
	}
	return refresh + blacklisted, nil
}

// issueTokens signs a new pair and stores the refresh token's digest.
func (s *AuthService) issueTokens(ctx context.Context, user *models.User) (*dto.TokenResponse, error) {
	access, accessExpiry, err := s.tokens.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	refresh, refreshExpiry, err := s.tokens.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	record := &models.RefreshToken{UserID: user.ID, TokenHash: hashToken(refresh), ExpiresAt: refreshExpiry}
	if err := s.refreshTokens.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &dto.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresAt:    accessExpiry,
	}, nil
}

// hashToken is the at-rest form of a refresh token.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
