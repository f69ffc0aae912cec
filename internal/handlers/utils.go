package handlers

import (
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// UserIDContextKey is where the auth middleware leaves the caller's id.
const UserIDContextKey = "user_id"

var errNoCaller = errors.New("no authenticated caller")

func getUserIDFromContext(c echo.Context) (uuid.UUID, error) {
	id, ok := c.Get(UserIDContextKey).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, errNoCaller
	}
	return id, nil
}

// getIntParam reads an integer query parameter, falling back to def when it
// is absent or malformed.
func getIntParam(c echo.Context, name string, def int) int {
	n, err := strconv.Atoi(c.QueryParam(name))
	if err != nil {
		return def
	}
	return n
}

// clientMeta is the caller's address and user agent as recorded in the audit trail.
func clientMeta(c echo.Context) (ip, userAgent string) {
	return c.RealIP(), c.Request().UserAgent()
}
