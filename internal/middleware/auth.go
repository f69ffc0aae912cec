package middleware

import (
	stderrors "errors"

	"finance-tracker/internal/errors"
	"finance-tracker/internal/handlers"
	"finance-tracker/internal/models"
	"finance-tracker/internal/repositories"
	"finance-tracker/internal/services"

	"github.com/labstack/echo/v4"
)

// RequireAuth admits requests carrying a valid, non-revoked access token and
// stores the owner's id under handlers.UserIDContextKey.
func RequireAuth(tokens services.TokenServiceInterface, blacklist repositories.BlacklistedTokenRepositoryInterface) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, code := authenticate(c, tokens)
			if code != "" {
				return handlers.SendError(c, code)
			}

			revoked, err := blacklist.IsBlacklisted(c.Request().Context(), claims.ID)
			switch {
			case err != nil:
				return handlers.SendSystemError(c, err)
			case revoked:
				return handlers.SendError(c, errors.AuthInvalidTokenFormat, errors.WithDetails("Token has been revoked"))
			}

			userID, err := claims.OwnerID()
			if err != nil {
				return handlers.SendError(c, errors.AuthInvalidTokenFormat, errors.WithDetails("Invalid user ID in token"))
			}
			c.Set(handlers.UserIDContextKey, userID)
			return next(c)
		}
	}
}

func authenticate(c echo.Context, tokens services.TokenServiceInterface) (*models.CustomClaims, errors.ErrorCode) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return nil, errors.AuthMissingToken
	}
	raw, err := tokens.ExtractTokenFromHeader(header)
	if err != nil {
		return nil, errors.AuthInvalidTokenFormat
	}

	claims, err := tokens.ValidateAccessToken(raw)
	switch {
	case stderrors.Is(err, services.ErrExpiredToken):
		return nil, errors.AuthExpiredToken
	case err != nil:
		return nil, errors.AuthInvalidTokenFormat
	}
	return claims, ""
}
