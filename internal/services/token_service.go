package services

import (
	"cmp"
	"crypto/rsa"
	"errors"
	"fmt"
	"strings"
	"time"

	"finance-tracker/internal/config"
	"finance-tracker/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TokenTypeAccess  = models.TokenTypeAccess
	TokenTypeRefresh = models.TokenTypeRefresh

	defaultAudience = "finance-tracker-api"
	clockSkew       = 30 * time.Second
)

var (
	ErrInvalidToken      = errors.New("invalid token")
	ErrExpiredToken      = errors.New("token is expired")
	ErrInvalidIssuer     = errors.New("invalid issuer")
	ErrInvalidTokenType  = errors.New("invalid token type")
	ErrEmptyToken        = errors.New("empty token")
	ErrInvalidAuthHeader = errors.New("invalid authorization header format")
)

// TokenService signs and verifies RS256 tokens. Verification pins the
// algorithm, issuer and audience and requires an expiry.
type TokenService struct {
	signKey   *rsa.PrivateKey
	verifyKey *rsa.PublicKey
	issuer    string
	audience  string
	ttl       map[string]time.Duration
	now       func() time.Time
	parser    *jwt.Parser
}

func NewTokenService(jwtConfig *config.JWTConfig) TokenServiceInterface {
	return newTokenService(jwtConfig, time.Now)
}

func newTokenService(cfg *config.JWTConfig, now func() time.Time) *TokenService {
	audience := cmp.Or(cfg.Audience, defaultAudience)
	return &TokenService{
		signKey:   cfg.PrivateKey,
		verifyKey: cfg.PublicKey,
		issuer:    cfg.Issuer,
		audience:  audience,
		ttl: map[string]time.Duration{
			TokenTypeAccess:  cfg.AccessTokenDuration,
			TokenTypeRefresh: cfg.RefreshTokenDuration,
		},
		now: now,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
			jwt.WithIssuer(cfg.Issuer),
			jwt.WithAudience(audience),
			jwt.WithExpirationRequired(),
			jwt.WithIssuedAt(),
			jwt.WithLeeway(clockSkew),
			jwt.WithTimeFunc(now),
		),
	}
}

func (ts *TokenService) GenerateAccessToken(user *models.User) (string, time.Time, error) {
	if user == nil {
		return "", time.Time{}, errors.New("generate access token: nil user")
	}
	return ts.sign(TokenTypeAccess, user.ID, user.Email)
}

func (ts *TokenService) GenerateRefreshToken(userID uuid.UUID) (string, time.Time, error) {
	if userID == uuid.Nil {
		return "", time.Time{}, errors.New("generate refresh token: nil user id")
	}
	return ts.sign(TokenTypeRefresh, userID, "")
}

func (ts *TokenService) ValidateAccessToken(token string) (*models.CustomClaims, error) {
	return ts.verify(token, TokenTypeAccess)
}

func (ts *TokenService) ValidateRefreshToken(token string) (*models.CustomClaims, error) {
	return ts.verify(token, TokenTypeRefresh)
}

// ExtractTokenFromHeader accepts "Bearer <token>" with a case-insensitive scheme.
func (ts *TokenService) ExtractTokenFromHeader(header string) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	token = strings.TrimSpace(token)
	if !ok || token == "" || !strings.EqualFold(scheme, "bearer") {
		return "", ErrInvalidAuthHeader
	}
	return token, nil
}

// GetTokenExpiry reads exp without verifying the signature. Callers must have
// validated the token first.
func (ts *TokenService) GetTokenExpiry(token string) (time.Time, error) {
	if token == "" {
		return time.Time{}, ErrEmptyToken
	}
	claims := &models.CustomClaims{}
	if _, _, err := ts.parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrInvalidToken
	}
	return claims.ExpiresAt.Time, nil
}

func (ts *TokenService) sign(kind string, userID uuid.UUID, email string) (string, time.Time, error) {
	iat := ts.now()
	exp := iat.Add(ts.ttl[kind])

	claims := models.CustomClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    ts.issuer,
			Subject:   userID.String(),
			Audience:  jwt.ClaimStrings{ts.audience},
			IssuedAt:  jwt.NewNumericDate(iat),
			NotBefore: jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		UserID:    userID.String(),
		Email:     email,
		TokenType: kind,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(ts.signKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, exp, nil
}

func (ts *TokenService) verify(token, kind string) (*models.CustomClaims, error) {
	if token == "" {
		return nil, ErrEmptyToken
	}

	claims := &models.CustomClaims{}
	_, err := ts.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return ts.verifyKey, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpiredToken
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return nil, ErrInvalidIssuer
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims.TokenType != kind {
		return nil, ErrInvalidTokenType
	}
	if claims.Subject != claims.UserID {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
