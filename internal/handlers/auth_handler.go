package handlers

import (
	stderrors "errors"
	"log/slog"
	"net/http"
	"strings"

	"finance-tracker/internal/dto"
	"finance-tracker/internal/errors"
	"finance-tracker/internal/services"

	"github.com/labstack/echo/v4"
)

type AuthHandler struct {
	authService services.AuthServiceInterface
}

func NewAuthHandler(authService services.AuthServiceInterface) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register creates a new user account
// @Summary Register a new user
// @Description Create a user with an email, display name and password. The password must satisfy the configured policy.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "Registration details"
// @Success 201 {object} dto.AuthResponse "User registered successfully"
// @Failure 422 {object} errors.ErrorResponse "VALIDATION_001 - Invalid request body or validation error"
// @Failure 409 {object} errors.ErrorResponse "AUTH_006 - Email already registered"
// @Failure 413 {object} errors.ErrorResponse "VALIDATION_009 - Request body is too large"
// @Failure 500 {object} errors.ErrorResponse "SYSTEM_001 - Internal server error"
// @Router /register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req dto.RegisterRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	ip, ua := clientMeta(c)
	user, err := h.authService.Register(c.Request().Context(), &req, ip, ua)
	switch {
	case err == nil:
	case stderrors.Is(err, services.ErrUserAlreadyExists):
		return SendError(c, errors.AuthEmailTaken)
	case stderrors.Is(err, services.ErrPasswordPolicy):
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("password: "+err.Error()))
	default:
		return SendSystemError(c, err)
	}

	return c.JSON(http.StatusCreated, dto.AuthResponse{
		Status:  true,
		Message: "User registered successfully",
		User:    dto.NewUserResponse(user),
	})
}

// Login exchanges credentials for a token pair
// @Summary Log in
// @Description Authenticate with email and password and receive an access and refresh token
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login credentials"
// @Success 200 {object} dto.AuthResponse "Login successful"
// @Failure 401 {object} errors.ErrorResponse "AUTH_001 - Invalid email or password"
// @Failure 403 {object} errors.ErrorResponse "AUTH_005 - Account locked after repeated failures"
// @Failure 422 {object} errors.ErrorResponse "VALIDATION_001 - Invalid request body or validation error"
// @Failure 500 {object} errors.ErrorResponse "SYSTEM_001 - Internal server error"
// @Router /login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req dto.LoginRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	ip, ua := clientMeta(c)
	tokens, err := h.authService.Login(c.Request().Context(), &req, ip, ua)
	switch {
	case err == nil:
	case stderrors.Is(err, services.ErrAccountLocked):
		return SendError(c, errors.AuthAccountLocked)
	case stderrors.Is(err, services.ErrInvalidCredentials):
		return SendError(c, errors.AuthInvalidCredentials)
	default:
		return SendSystemError(c, err)
	}

	return c.JSON(http.StatusOK, dto.AuthResponse{
		Status:  true,
		Message: "Login successful",
		Token:   tokens,
	})
}

// RefreshToken rotates the presented refresh token
// @Summary Refresh tokens
// @Description Exchange a valid refresh token for a new token pair. The presented token is revoked.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.RefreshTokenRequest true "Refresh token"
// @Success 200 {object} dto.AuthResponse "Token refreshed successfully"
// @Failure 401 {object} errors.ErrorResponse "AUTH_004 - Invalid or expired refresh token"
// @Failure 422 {object} errors.ErrorResponse "VALIDATION_001 - Invalid request body or validation error"
// @Failure 500 {object} errors.ErrorResponse "SYSTEM_001 - Internal server error"
// @Router /refresh [post]
func (h *AuthHandler) RefreshToken(c echo.Context) error {
	var req dto.RefreshTokenRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	ip, ua := clientMeta(c)
	tokens, err := h.authService.RefreshTokens(c.Request().Context(), req.RefreshToken, ip, ua)
	switch {
	case err == nil:
	case stderrors.Is(err, services.ErrInvalidRefreshToken):
		return SendError(c, errors.AuthInvalidTokenFormat, errors.WithDetails("Invalid or expired refresh token"))
	default:
		return SendSystemError(c, err)
	}

	return c.JSON(http.StatusOK, dto.AuthResponse{
		Status:  true,
		Message: "Token refreshed successfully",
		Token:   tokens,
	})
}

// Logout revokes the caller's access token. Any well formed bearer header
// gets 200 so the response never reveals token state.
// @Summary Log out
// @Description Revoke the access token presented in the Authorization header
// @Tags Auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.MessageResponse "Logout successful"
// @Failure 401 {object} errors.ErrorResponse "AUTH_002 - Missing or invalid authentication"
// @Failure 401 {object} errors.ErrorResponse "AUTH_004 - Malformed Authorization header"
// @Router /logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return SendError(c, errors.AuthMissingToken)
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || token == "" || !strings.EqualFold(scheme, "bearer") {
		return SendError(c, errors.AuthInvalidTokenFormat)
	}

	ip, ua := clientMeta(c)
	if err := h.authService.Logout(c.Request().Context(), token, ip, ua); err != nil {
		slog.DebugContext(c.Request().Context(), "logout did not complete", "error", err)
	}

	return c.JSON(http.StatusOK, dto.MessageResponse{
		Status:  true,
		Message: "Logout successful",
	})
}
