package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"finance-tracker/internal/export"
	"finance-tracker/internal/models"
	"finance-tracker/internal/repositories"

	"github.com/google/uuid"
)

var (
	ErrExportTooLarge = errors.New("too many transactions to export")
)

var exportHeaders = []string{
	"ID",
	"Date",
	"Amount",
	"Type",
	"User ID",
	"Category ID",
	"Created At",
	"Updated At",
}

type exportService struct {
	repo        repositories.TransactionRepositoryInterface
	audit       AuditServiceInterface
	auditLogger AuditLoggerInterface
	metrics     MetricsRecorderInterface
	maxRows     int
	logger      *slog.Logger
	now         func() time.Time
}

func NewExportService(
	repo repositories.TransactionRepositoryInterface,
	audit AuditServiceInterface,
	auditLogger AuditLoggerInterface,
	metrics MetricsRecorderInterface,
	maxRows int,
	logger *slog.Logger,
) ExportServiceInterface {
	return &exportService{
		repo:        repo,
		audit:       audit,
		auditLogger: auditLogger,
		metrics:     metrics,
		maxRows:     maxRows,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *exportService) Export(ctx context.Context, userID uuid.UUID, start, end models.Date, format export.Format) (*export.File, error) {
	began := s.now()

	dateRange := models.DateRange{UserID: userID, Start: start, End: end}
	if err := dateRange.Validate(); err != nil {
		return nil, err
	}

	renderer, err := export.NewRenderer(format)
	if err != nil {
		return nil, err
	}

	if s.maxRows > 0 {
		count, err := s.repo.CountByDateRange(ctx, dateRange)
		if err != nil {
			return nil, fmt.Errorf("failed to count transactions: %w", err)
		}
		if count > int64(s.maxRows) {
			s.recordExport(format, "rejected")
			return nil, fmt.Errorf("%w: %d rows, limit is %d", ErrExportTooLarge, count, s.maxRows)
		}
	}

	transactions, err := s.repo.ListByDateRange(ctx, dateRange)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to fetch transactions for export",
			"user_id", userID,
			"error", err)
		return nil, fmt.Errorf("failed to fetch transactions: %w", err)
	}

	statement := models.Statement{
		UserID:       userID,
		Range:        dateRange,
		Transactions: transactions,
		Summary:      models.Summarize(transactions),
		GeneratedAt:  began,
	}

	content, err := renderer.Render(buildExportTable(statement))
	if err != nil {
		s.recordExport(format, "failed")
		return nil, fmt.Errorf("failed to render %s export: %w", format, err)
	}

	file := &export.File{
		Filename:    exportFilename(began, renderer.Extension()),
		ContentType: renderer.ContentType(),
		Content:     content,
		Rows:        len(transactions),
	}

	elapsed := s.now().Sub(began)
	s.recordExport(format, "success")
	s.metrics.RecordProcessingTime("export", elapsed)
	s.metrics.RecordGauge("export_rows", float64(file.Rows), nil)
	s.auditLogger.LogExportGenerated(ctx, userID, string(format), file.Rows, elapsed.Milliseconds())

	if err := s.audit.Record(ctx, userID, models.AuditActionExported, "transaction", "", models.AuditMetadata{
		"format":     string(format),
		"start_date": start.String(),
		"end_date":   end.String(),
		"rows":       file.Rows,
	}); err != nil {
		s.logger.ErrorContext(ctx, "failed to create audit log", "error", err, "action", models.AuditActionExported)
	}

	return file, nil
}

func (s *exportService) recordExport(format export.Format, status string) {
	s.metrics.IncrementCounter("export_generated", map[string]string{
		"format": string(format),
		"status": status,
	})
}

func buildExportTable(statement models.Statement) export.Table {
	rows := make([][]interface{}, 0, len(statement.Transactions))
	for _, t := range statement.Transactions {
		rows = append(rows, []interface{}{
			t.ID.String(),
			t.Date.String(),
			t.Amount,
			int(t.Type),
			t.UserID.String(),
			t.CategoryID.String(),
			t.CreatedAt,
			t.UpdatedAt,
		})
	}

	summary := statement.Summary
	return export.Table{
		Title:    "Transactions",
		Subtitle: fmt.Sprintf("%s - %s", statement.Range.Start, statement.Range.End),
		Headers:  exportHeaders,
		Rows:     rows,
		Summary: []export.SummaryLine{
			{Label: "Total income", Value: summary.TotalIncome.StringFixed(2)},
			{Label: "Total expense", Value: summary.TotalExpense.StringFixed(2)},
			{Label: "Net change", Value: summary.NetChange.StringFixed(2)},
			{Label: "Transactions", Value: fmt.Sprintf("%d", summary.TransactionCount)},
		},
	}
}

// exportFilename follows the upload naming of the web client: unix seconds
// followed by a random three digit suffix.
func exportFilename(at time.Time, ext string) string {
	return fmt.Sprintf("%d%d.%s", at.Unix(), 100+rand.Intn(900), ext)
}
