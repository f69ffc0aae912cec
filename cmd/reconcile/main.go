// Command reconcile compares every user's cached balance with the sum of their
// transactions and optionally repairs the drift. It can also purge expired
// tokens and old audit entries.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finance-tracker/internal/config"
	"finance-tracker/internal/database"
	"finance-tracker/internal/models"
	"finance-tracker/internal/repositories"
	"finance-tracker/internal/services"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

type options struct {
	repair         bool
	userID         string
	purge          bool
	auditRetention time.Duration
}

func main() {
	var opts options
	flag.BoolVar(&opts.repair, "repair", false, "overwrite drifted balances with the computed sum")
	flag.StringVar(&opts.userID, "user", "", "reconcile a single user by id")
	flag.BoolVar(&opts.purge, "purge", false, "delete expired tokens and audit entries older than -audit-retention")
	flag.DurationVar(&opts.auditRetention, "audit-retention", 90*24*time.Hour, "audit log retention used by -purge")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "reconcile: load configuration:", err)
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, opts, logger); err != nil {
		logger.Error("reconcile failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, opts options, logger *slog.Logger) error {
	db, err := database.Initialize(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	metrics := services.NewPrometheusMetrics(prometheus.NewRegistry())

	userRepo := repositories.NewUserRepository(db.DB)
	auditService := services.NewAuditService(repositories.NewAuditLogRepository(db.DB))
	balanceService := services.NewBalanceService(
		repositories.NewBalanceRepository(db.DB),
		userRepo,
		auditService,
		services.NewAuditLogger(logger),
		metrics,
		logger,
	)

	summary, err := reconcile(ctx, balanceService, opts)
	if err != nil {
		return err
	}

	logger.Info("reconciliation finished",
		"checked", summary.Checked,
		"drifted", summary.Drifted,
		"repaired", summary.Repaired,
		"repair_mode", opts.repair)

	if opts.purge {
		authService := services.NewAuthService(
			userRepo,
			repositories.NewRefreshTokenRepository(db.DB),
			repositories.NewAuditLogRepository(db.DB),
			repositories.NewBlacklistedTokenRepository(db.DB),
			services.NewPasswordService(cfg.Security),
			services.NewTokenService(&cfg.JWT),
			metrics,
			cfg.Security.MaxFailedAttempts,
			logger,
		)
		if err := purge(ctx, authService, auditService, opts.auditRetention, logger); err != nil {
			return err
		}
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(summary)
}

func reconcile(ctx context.Context, balances services.BalanceServiceInterface, opts options) (*models.ReconcileSummary, error) {
	if opts.userID == "" {
		return balances.ReconcileAll(ctx, opts.repair)
	}

	userID, err := uuid.Parse(opts.userID)
	if err != nil {
		return nil, fmt.Errorf("invalid -user value %q: %w", opts.userID, err)
	}

	var report models.BalanceReport
	if opts.repair {
		report, err = balances.Repair(ctx, userID)
	} else {
		report, err = balances.Reconcile(ctx, userID)
	}
	if err != nil {
		return nil, err
	}

	summary := &models.ReconcileSummary{Checked: 1}
	if !report.Consistent {
		summary.Drifted = 1
		summary.Reports = []models.BalanceReport{report}
	}
	if report.Repaired {
		summary.Repaired = 1
	}
	return summary, nil
}

func purge(ctx context.Context, auth services.AuthServiceInterface, audit services.AuditServiceInterface, retention time.Duration, logger *slog.Logger) error {
	tokens, err := auth.PurgeExpiredTokens(ctx)
	if err != nil {
		return err
	}

	entries, err := audit.PurgeOlderThan(ctx, retention)
	if err != nil {
		return err
	}

	logger.Info("purge finished", "expired_tokens", tokens, "audit_entries", entries, "retention", retention.String())
	return nil
}
