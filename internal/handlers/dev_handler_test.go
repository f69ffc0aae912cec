package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"finance-tracker/internal/services/service_mocks"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDevHandler_GenerateTestData(t *testing.T) {
	ctrl := gomock.NewController(t)
	demoData := service_mocks.NewMockDemoDataServiceInterface(ctrl)
	handler := NewDevHandler(demoData)
	e := newTestEcho()
	userID := uuid.New()

	demoData.EXPECT().Seed(gomock.Any(), userID, 60, 250).Return(263, nil)

	c, rec := newJSONContext(e, http.MethodPost, "/dev/seed?days=60&count=250", nil)
	authenticate(c, userID)

	require.NoError(t, handler.GenerateTestData(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(263), body["transactions_created"])
}

func TestDevHandler_Defaults(t *testing.T) {
	ctrl := gomock.NewController(t)
	demoData := service_mocks.NewMockDemoDataServiceInterface(ctrl)
	handler := NewDevHandler(demoData)
	e := newTestEcho()
	userID := uuid.New()

	demoData.EXPECT().Seed(gomock.Any(), userID, defaultDemoDays, defaultDemoCount).Return(0, nil)

	c, rec := newJSONContext(e, http.MethodPost, "/dev/seed?days=abc", nil)
	authenticate(c, userID)

	require.NoError(t, handler.GenerateTestData(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}
