package handlers

import (
	stderrors "errors"
	"net/http"

	"finance-tracker/internal/errors"
	"finance-tracker/internal/services"

	"github.com/labstack/echo/v4"
)

const (
	defaultDemoCount = 100
	defaultDemoDays  = 30
)

// DevHandler handles development-only endpoints.
// Routes are registered only when the server runs in development.
type DevHandler struct {
	demoData services.DemoDataServiceInterface
}

func NewDevHandler(demoData services.DemoDataServiceInterface) *DevHandler {
	return &DevHandler{demoData: demoData}
}

// GenerateTestData fills the caller's account with demo categories and history
// @Summary Generate demo data
// @Description Development only. Creates demo categories and random transactions spread over the last days.
// @Tags Development
// @Security BearerAuth
// @Produce json
// @Param count query int false "Transactions to generate (max 1000)" default(100)
// @Param days query int false "Days of history (max 365)" default(30)
// @Success 200 {object} object{status=bool,message=string,transactions_created=int} "Demo data generated"
// @Failure 401 {object} errors.ErrorResponse "AUTH_002 - Missing or invalid authentication"
// @Failure 404 {object} errors.ErrorResponse "USER_001 - User not found"
// @Failure 500 {object} errors.ErrorResponse "SYSTEM_001 - Internal server error"
// @Router /dev/seed [post]
func (h *DevHandler) GenerateTestData(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	count := getIntParam(c, "count", defaultDemoCount)
	days := getIntParam(c, "days", defaultDemoDays)

	created, err := h.demoData.Seed(c.Request().Context(), userID, days, count)
	if err != nil {
		if stderrors.Is(err, services.ErrUserNotFound) {
			return SendError(c, errors.UserNotFound)
		}
		return SendSystemError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":               true,
		"message":              "test data generated successfully",
		"transactions_created": created,
	})
}
