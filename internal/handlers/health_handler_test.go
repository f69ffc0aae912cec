package handlers

import (
	"net/http"
	"testing"

	"finance-tracker/internal/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCheck(t *testing.T) {
	db := database.SetupTestDB(t)
	handler := NewHealthCheckHandler(db)
	e := newTestEcho()

	c, rec := newJSONContext(e, http.MethodGet, "/health", nil)

	require.NoError(t, handler.HealthCheck(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestHealthCheck_DatabaseDown(t *testing.T) {
	db := database.SetupTestDB(t)
	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	handler := NewHealthCheckHandler(db)
	e := newTestEcho()

	c, rec := newJSONContext(e, http.MethodGet, "/health", nil)

	require.NoError(t, handler.HealthCheck(c))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "SYSTEM_003", decodeError(t, rec).Error.Code)
}
