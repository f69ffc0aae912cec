package services

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"finance-tracker/internal/models"
	"finance-tracker/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferedAuditLogger() (AuditLoggerInterface, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	logger := slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewAuditLogger(logger), buf
}

func decodeLogLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestAuditLogger_BalanceDeltaCarriesCorrelationID(t *testing.T) {
	auditLogger, buf := newBufferedAuditLogger()
	ctx := WithCorrelationID(context.Background(), "req-123")
	userID := uuid.New()
	resourceID := uuid.New()

	auditLogger.LogBalanceDelta(ctx, userID, decimal.RequireFromString("-12.5"), "transaction_delete", resourceID)

	entry := decodeLogLine(t, buf)
	assert.Equal(t, "balance delta applied", entry["msg"])
	assert.Equal(t, "balance_delta", entry["event_type"])
	assert.Equal(t, userID.String(), entry["user_id"])
	assert.Equal(t, "-12.50", entry["delta"])
	assert.Equal(t, resourceID.String(), entry["resource_id"])
	assert.Equal(t, "req-123", entry["correlation_id"])
}

func TestAuditLogger_CategoryDeleted(t *testing.T) {
	auditLogger, buf := newBufferedAuditLogger()

	auditLogger.LogCategoryDeleted(context.Background(), &repositories.CategoryDeletion{
		CategoryID:          uuid.New(),
		OwnerID:             uuid.New(),
		RemovedTransactions: 4,
		BalanceDelta:        decimal.RequireFromString("75"),
	})

	entry := decodeLogLine(t, buf)
	assert.Equal(t, "category_deleted", entry["event_type"])
	assert.Equal(t, 4.0, entry["removed_transactions"])
	assert.Equal(t, "75.00", entry["balance_delta"])
	assert.Equal(t, "", entry["correlation_id"])
}

func TestAuditLogger_DriftIsWarning(t *testing.T) {
	auditLogger, buf := newBufferedAuditLogger()
	report := models.NewBalanceReport(uuid.New(), decimal.RequireFromString("10"), decimal.RequireFromString("7.5"))

	auditLogger.LogBalanceDrift(context.Background(), report)

	entry := decodeLogLine(t, buf)
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "2.50", entry["drift"])
}

func TestAuditLogger_AvatarChangedOmitsEmptyPath(t *testing.T) {
	auditLogger, buf := newBufferedAuditLogger()

	auditLogger.LogAvatarChanged(context.Background(), uuid.New(), "delete", "")

	entry := decodeLogLine(t, buf)
	assert.Equal(t, "avatar_changed", entry["event_type"])
	assert.NotContains(t, entry, "path")
}
