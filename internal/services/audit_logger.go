package services

import (
	"context"
	"log/slog"
	"time"

	"finance-tracker/internal/models"
	"finance-tracker/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type correlationIDKey struct{}

// WithCorrelationID attaches the request trace id so audit events can be joined with HTTP logs.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

type AuditLogger struct {
	logger *slog.Logger
}

func NewAuditLogger(logger *slog.Logger) AuditLoggerInterface {
	return &AuditLogger{
		logger: logger,
	}
}

func (al *AuditLogger) LogBalanceDelta(ctx context.Context, userID uuid.UUID, delta decimal.Decimal, cause string, resourceID uuid.UUID) {
	al.logger.InfoContext(ctx, "balance delta applied",
		slog.String("event_type", "balance_delta"),
		slog.String("user_id", userID.String()),
		slog.String("delta", delta.StringFixed(2)),
		slog.String("cause", cause),
		slog.String("resource_id", resourceID.String()),
		slog.Time("timestamp", time.Now()),
		slog.String("correlation_id", CorrelationID(ctx)),
	)
}

func (al *AuditLogger) LogCategoryDeleted(ctx context.Context, deletion *repositories.CategoryDeletion) {
	al.logger.InfoContext(ctx, "category deleted",
		slog.String("event_type", "category_deleted"),
		slog.String("category_id", deletion.CategoryID.String()),
		slog.String("user_id", deletion.OwnerID.String()),
		slog.Int64("removed_transactions", deletion.RemovedTransactions),
		slog.String("balance_delta", deletion.BalanceDelta.StringFixed(2)),
		slog.Time("timestamp", time.Now()),
		slog.String("correlation_id", CorrelationID(ctx)),
	)
}

func (al *AuditLogger) LogBalanceDrift(ctx context.Context, report models.BalanceReport) {
	al.logger.WarnContext(ctx, "balance drift detected",
		slog.String("event_type", "balance_drift"),
		slog.String("user_id", report.UserID.String()),
		slog.String("stored", report.Stored.StringFixed(2)),
		slog.String("computed", report.Computed.StringFixed(2)),
		slog.String("drift", report.Drift.StringFixed(2)),
		slog.Time("timestamp", time.Now()),
		slog.String("correlation_id", CorrelationID(ctx)),
	)
}

func (al *AuditLogger) LogBalanceRepaired(ctx context.Context, report models.BalanceReport) {
	al.logger.WarnContext(ctx, "balance repaired",
		slog.String("event_type", "balance_repaired"),
		slog.String("user_id", report.UserID.String()),
		slog.String("old_balance", report.Stored.StringFixed(2)),
		slog.String("new_balance", report.Computed.StringFixed(2)),
		slog.Time("timestamp", time.Now()),
		slog.String("correlation_id", CorrelationID(ctx)),
	)
}

func (al *AuditLogger) LogExportGenerated(ctx context.Context, userID uuid.UUID, format string, rows int, durationMs int64) {
	al.logger.InfoContext(ctx, "export generated",
		slog.String("event_type", "export_generated"),
		slog.String("user_id", userID.String()),
		slog.String("format", format),
		slog.Int("rows", rows),
		slog.Int64("duration_ms", durationMs),
		slog.Time("timestamp", time.Now()),
		slog.String("correlation_id", CorrelationID(ctx)),
	)
}

func (al *AuditLogger) LogAvatarChanged(ctx context.Context, userID uuid.UUID, operation, path string) {
	attrs := []slog.Attr{
		slog.String("event_type", "avatar_changed"),
		slog.String("user_id", userID.String()),
		slog.String("operation", operation),
		slog.Time("timestamp", time.Now()),
		slog.String("correlation_id", CorrelationID(ctx)),
	}

	if path != "" {
		attrs = append(attrs, slog.String("path", path))
	}

	al.logger.LogAttrs(ctx, slog.LevelInfo, "avatar changed", attrs...)
}

// CorrelationID returns the id attached by WithCorrelationID, or "".
func CorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	if correlationID, ok := ctx.Value(correlationIDKey{}).(string); ok {
		return correlationID
	}

	return ""
}
