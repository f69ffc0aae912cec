package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"finance-tracker/internal/dto"
	"finance-tracker/internal/models"
	"finance-tracker/internal/repositories"

	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrAccountLocked       = errors.New("account is locked due to too many failed attempts")
	ErrUserAlreadyExists   = errors.New("user with this email already exists")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

// AuthService owns credentials and sessions. Session handling lives in
// auth_session.go.
type AuthService struct {
	users         repositories.UserRepositoryInterface
	refreshTokens repositories.RefreshTokenRepositoryInterface
	blacklist     repositories.BlacklistedTokenRepositoryInterface
	audit         repositories.AuditLogRepositoryInterface
	passwords     PasswordServiceInterface
	tokens        TokenServiceInterface
	metrics       MetricsRecorderInterface
	lockAfter     int
	logger        *slog.Logger
}

func NewAuthService(
	userRepo repositories.UserRepositoryInterface,
	refreshTokenRepo repositories.RefreshTokenRepositoryInterface,
	auditRepo repositories.AuditLogRepositoryInterface,
	blacklistedTokenRepo repositories.BlacklistedTokenRepositoryInterface,
	passwordService PasswordServiceInterface,
	tokenService TokenServiceInterface,
	metrics MetricsRecorderInterface,
	maxFailedAttempts int,
	logger *slog.Logger,
) AuthServiceInterface {
	if maxFailedAttempts <= 0 {
		maxFailedAttempts = models.MaxFailedLoginAttempts
	}
	return &AuthService{
		users:         userRepo,
		refreshTokens: refreshTokenRepo,
		blacklist:     blacklistedTokenRepo,
		audit:         auditRepo,
		passwords:     passwordService,
		tokens:        tokenService,
		metrics:       metrics,
		lockAfter:     maxFailedAttempts,
		logger:        logger,
	}
}

type clientInfo struct {
	ip        string
	userAgent string
}

// Register creates an account with a zero balance.
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest, ipAddress, userAgent string) (*models.User, error) {
	client := clientInfo{ipAddress, userAgent}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	switch _, err := s.users.GetByEmail(ctx, email); {
	case err == nil:
		s.emit(ctx, client, authEvent{action: models.AuditActionRegister, email: email, reason: "email_already_exists"})
		return nil, ErrUserAlreadyExists
	case !errors.Is(err, repositories.ErrUserNotFound):
		return nil, fmt.Errorf("check existing user: %w", err)
	}

	hash, err := s.passwords.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(req.Name),
		Surname:      strings.TrimSpace(req.Surname),
	}
	if err := s.users.Create(ctx, user); err != nil {
		// lost a race with a concurrent registration
		if errors.Is(err, repositories.ErrUserAlreadyExists) {
			return nil, ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.emit(ctx, client, authEvent{action: models.AuditActionRegister, metric: "register", userID: &user.ID})
	return user, nil
}

// Login checks the credentials and issues a token pair. Unknown emails and
// wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest, ipAddress, userAgent string) (*dto.TokenResponse, error) {
	client := clientInfo{ipAddress, userAgent}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, repositories.ErrUserNotFound):
		s.emit(ctx, client, loginFailure(email, "user_not_found"))
		return nil, ErrInvalidCredentials
	case err != nil:
		return nil, fmt.Errorf("load user: %w", err)
	}

	if user.IsLocked() {
		ev := loginFailure(email, "account_locked")
		ev.metric = "login_locked"
		s.emit(ctx, client, ev)
		return nil, ErrAccountLocked
	}

	if !s.passwords.ComparePassword(req.Password, user.PasswordHash) {
		s.rejectPassword(ctx, client, user)
		return nil, ErrInvalidCredentials
	}

	if err := s.users.RecordSuccessfulLogin(ctx, user.ID, time.Now()); err != nil {
		s.logger.WarnContext(ctx, "failed to record successful login", "error", err, "user_id", user.ID)
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	s.emit(ctx, client, authEvent{action: models.AuditActionLogin, metric: "login_success", userID: &user.ID})
	return pair, nil
}

func (s *AuthService) rejectPassword(ctx context.Context, client clientInfo, user *models.User) {
	lockedNow := user.RegisterFailedLogin(s.lockAfter, time.Now())
	if err := s.users.UpdateFailedLoginAttempts(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to update login attempts", "error", err, "user_id", user.ID)
	}
	if lockedNow {
		s.emit(ctx, client, authEvent{action: models.AuditActionAccountLocked, metric: "account_locked", userID: &user.ID})
	}
	s.emit(ctx, client, loginFailure(user.Email, "invalid_password"))
}

// authEvent is one authentication outcome. It is counted under metric, when
// set, and always written to the audit trail.
type authEvent struct {
	action string
	metric string
	userID *uuid.UUID
	email  string
	reason string
}

func loginFailure(email, reason string) authEvent {
	return authEvent{action: models.AuditActionFailedLogin, metric: "login_failed", email: email, reason: reason}
}

func refreshFailure(userID *uuid.UUID, reason string) authEvent {
	return authEvent{action: models.AuditActionTokenRefresh, metric: "token_refresh_failed", userID: userID, reason: reason}
}

func (ev authEvent) entry(ctx context.Context, client clientInfo) *models.AuditLog {
	entry := &models.AuditLog{
		UserID:    ev.userID,
		Action:    ev.action,
		Resource:  models.AuditResourceUser,
		IPAddress: client.ip,
		UserAgent: client.userAgent,
		TraceID:   CorrelationID(ctx),
	}
	if ev.userID != nil {
		entry.ResourceID = ev.userID.String()
	}
	if ev.action == models.AuditActionTokenRefresh && ev.reason != "" {
		entry.Resource = models.AuditResourceToken
	}

	meta := models.AuditMetadata{}
	if ev.email != "" {
		meta["email"] = ev.email
	}
	if ev.reason != "" {
		meta["reason"] = ev.reason
	}
	if len(meta) > 0 {
		entry.Metadata = meta
	}
	return entry
}

// emit never fails the surrounding flow.
func (s *AuthService) emit(ctx context.Context, client clientInfo, ev authEvent) {
	if ev.metric != "" && s.metrics != nil {
		s.metrics.IncrementCounter("authentication_event", map[string]string{"event_type": ev.metric})
	}
	entry := ev.entry(ctx, client)
	if err := s.audit.Create(ctx, entry); err != nil {
		s.logger.ErrorContext(ctx, "failed to write audit entry", "error", err, "entry", entry)
	}
}
