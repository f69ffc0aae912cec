package handlers

import (
	stderrors "errors"
	"net/http"

	"finance-tracker/internal/dto"
	"finance-tracker/internal/errors"
	"finance-tracker/internal/services"

	"github.com/labstack/echo/v4"
)

const (
	defaultActivityLimit = 20
	maxActivityLimit     = 100
)

// ProfileHandler serves the caller's own profile, balance and activity
type ProfileHandler struct {
	profileService services.ProfileServiceInterface
	balanceService services.BalanceServiceInterface
}

func NewProfileHandler(profileService services.ProfileServiceInterface, balanceService services.BalanceServiceInterface) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		balanceService: balanceService,
	}
}

// GetProfile returns the authenticated user's profile
// @Summary Get current user
// @Tags Profile
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.ProfileResponse "User profile"
// @Failure 401 {object} errors.ErrorResponse "AUTH_002 - Missing or invalid authentication"
// @Failure 404 {object} errors.ErrorResponse "USER_001 - User not found"
// @Failure 500 {object} errors.ErrorResponse "SYSTEM_001 - Internal server error"
// @Router /user [get]
func (h *ProfileHandler) GetProfile(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	user, err := h.profileService.GetProfile(c.Request().Context(), userID)
	if err != nil {
		if stderrors.Is(err, services.ErrUserNotFound) {
			return SendError(c, errors.UserNotFound)
		}
		return SendSystemError(c, err)
	}

	return c.JSON(http.StatusOK, dto.ProfileResponse{
		Status:  true,
		Message: "User retrieved successfully",
		User:    dto.NewUserResponse(user),
	})
}

// GetBalance returns the cached balance; no aggregation runs.
// @Summary Get balance
// @Description Return the running balance kept on the user record
// @Tags Profile
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.BalanceResponse "Current balance"
// @Failure 401 {object} errors.ErrorResponse "AUTH_002 - Missing or invalid authentication"
// @Failure 404 {object} errors.ErrorResponse "USER_001 - User not found"
// @Failure 500 {object} errors.ErrorResponse "SYSTEM_001 - Internal server error"
// @Router /balance [get]
func (h *ProfileHandler) GetBalance(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	balance, err := h.balanceService.GetBalance(c.Request().Context(), userID)
	if err != nil {
		if stderrors.Is(err, services.ErrUserNotFound) {
			return SendError(c, errors.UserNotFound)
		}
		return SendSystemError(c, err)
	}

	return c.JSON(http.StatusOK, dto.BalanceResponse{
		Status:  true,
		Message: "Balance retrieved successfully",
		Balance: balance,
	})
}

// GetActivity lists the caller's audit trail, newest first
// @Summary Get user activity
// @Tags Profile
// @Security BearerAuth
// @Produce json
// @Param offset query int false "Pagination offset" default(0)
// @Param limit query int false "Number of results (max 100)" default(20)
// @Success 200 {object} dto.ActivityResponse "Activity page"
// @Failure 401 {object} errors.ErrorResponse "AUTH_002 - Missing or invalid authentication"
// @Failure 500 {object} errors.ErrorResponse "SYSTEM_001 - Internal server error"
// @Router /user/activity [get]
func (h *ProfileHandler) GetActivity(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	offset := getIntParam(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}
	limit := getIntParam(c, "limit", defaultActivityLimit)
	if limit < 1 || limit > maxActivityLimit {
		limit = defaultActivityLimit
	}

	logs, total, err := h.profileService.GetActivity(c.Request().Context(), userID, offset, limit)
	if err != nil {
		return SendSystemError(c, err)
	}

	return c.JSON(http.StatusOK, dto.ActivityResponse{
		Status:   true,
		Message:  "Activity retrieved successfully",
		Activity: logs,
		Pagination: dto.PaginationInfo{
			Offset: offset,
			Limit:  limit,
			Total:  total,
		},
	})
}
