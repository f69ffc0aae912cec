package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finance-tracker/internal/config"
	"finance-tracker/internal/database"
	"finance-tracker/internal/handlers"
	"finance-tracker/internal/middleware"
	"finance-tracker/internal/repositories"
	"finance-tracker/internal/services"
	"finance-tracker/internal/storage"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	shutdownTimeout      = 10 * time.Second
	tokenCleanupInterval = time.Hour
	// jsonBodyLimit caps every body except avatar uploads, which carry their own limit.
	jsonBodyLimit = "1M"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}
	if cfg.UseJSON() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Initialize(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	metrics := services.NewPrometheusMetrics(prometheus.DefaultRegisterer)

	userRepo := repositories.NewUserRepository(db.DB)
	categoryRepo := repositories.NewCategoryRepository(db.DB)
	transactionRepo := repositories.NewTransactionRepository(db.DB)
	balanceRepo := repositories.NewBalanceRepository(db.DB)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db.DB)
	blacklistedTokenRepo := repositories.NewBlacklistedTokenRepository(db.DB)
	auditRepo := repositories.NewAuditLogRepository(db.DB)

	auditService := services.NewAuditService(auditRepo)
	auditLogger := services.NewAuditLogger(log)
	tokenService := services.NewTokenService(&cfg.JWT)
	passwordService := services.NewPasswordService(cfg.Security)
	authService := services.NewAuthService(
		userRepo, refreshTokenRepo, auditRepo, blacklistedTokenRepo,
		passwordService, tokenService, metrics, cfg.Security.MaxFailedAttempts, log,
	)

	categoryService := services.NewCategoryService(categoryRepo, auditService, auditLogger, metrics, log)
	transactionService := services.NewTransactionService(transactionRepo, auditService, auditLogger, metrics, log)
	statisticsService := services.NewStatisticsService(transactionRepo)
	exportService := services.NewExportService(transactionRepo, auditService, auditLogger, metrics, cfg.Export.MaxRows, log)
	balanceService := services.NewBalanceService(balanceRepo, userRepo, auditService, auditLogger, metrics, log)
	profileService := services.NewProfileService(userRepo, auditService)

	store, err := storage.NewLocalStore(cfg.Storage.Root, cfg.Storage.PublicPath, cfg.Storage.BaseURL, log)
	if err != nil {
		return err
	}
	maxAvatarBytes := int64(cfg.Storage.MaxAvatarBytes)
	avatarService := services.NewAvatarService(userRepo, store, auditService, auditLogger, metrics, maxAvatarBytes, log)

	rateLimiter := middleware.NewIPRateLimiter(cfg.Security.RateLimitPerSecond)
	rateLimiter.StartCleanup(ctx)
	go purgeExpiredTokens(ctx, authService, log)

	e := echo.New()
	e.HideBanner = true
	e.Validator = handlers.NewValidator()
	e.HTTPErrorHandler = middleware.CustomHTTPErrorHandler
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	e.IPExtractor = middleware.IPExtractor(cfg.Server.TrustedProxies)

	e.Use(middleware.RequestID())
	e.Use(middleware.PanicRecovery())
	e.Use(middleware.SecurityHeaders(cfg.Storage.PublicPath))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.Server.CORSAllowOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(rateLimiter.Middleware())
	e.Use(echomw.BodyLimitWithConfig(echomw.BodyLimitConfig{
		Skipper: func(c echo.Context) bool { return c.Path() == "/avatar" },
		Limit:   jsonBodyLimit,
	}))

	authHandler := handlers.NewAuthHandler(authService)
	profileHandler := handlers.NewProfileHandler(profileService, balanceService)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	transactionHandler := handlers.NewTransactionHandler(transactionService, statisticsService)
	exportHandler := handlers.NewExportHandler(exportService)
	avatarHandler := handlers.NewAvatarHandler(avatarService, maxAvatarBytes)
	healthHandler := handlers.NewHealthCheckHandler(db)

	e.GET("/health", healthHandler.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.Static(store.PublicPath(), store.Root())

	e.POST("/register", authHandler.Register)
	e.POST("/login", authHandler.Login)
	e.POST("/refresh", authHandler.RefreshToken)

	api := e.Group("", middleware.RequireAuth(tokenService, blacklistedTokenRepo))
	api.POST("/logout", authHandler.Logout)

	api.GET("/user", profileHandler.GetProfile)
	api.GET("/user/activity", profileHandler.GetActivity)
	api.GET("/balance", profileHandler.GetBalance)

	api.POST("/avatar", avatarHandler.SetAvatar, avatarHandler.BodyLimit())
	api.DELETE("/avatar", avatarHandler.DeleteAvatar)

	api.GET("/categories", categoryHandler.ListCategories)
	api.POST("/categories", categoryHandler.CreateCategory)
	api.PUT("/categories/:id", categoryHandler.UpdateCategory)
	api.DELETE("/categories/:id", categoryHandler.DeleteCategory)

	api.GET("/transactions", transactionHandler.ListTransactions)
	api.POST("/transactions", transactionHandler.CreateTransaction)
	api.GET("/transactions/get/statistics", transactionHandler.GetStatistics)
	api.GET("/transactions/export/excel", exportHandler.ExportExcel)
	api.GET("/transactions/export/pdf", exportHandler.ExportPDF)
	api.GET("/transactions/export/:format", exportHandler.ExportFormat)
	api.GET("/transactions/:id", transactionHandler.GetTransaction)
	api.PUT("/transactions/:id", transactionHandler.UpdateTransaction)
	api.DELETE("/transactions/:id", transactionHandler.DeleteTransaction)

	if cfg.IsDevelopment() {
		demoData := services.NewDemoDataService(
			categoryService, transactionService, balanceService,
			services.NewTransactionGenerator(), log,
		)
		api.POST("/dev/seed", handlers.NewDevHandler(demoData).GenerateTestData)
		log.Info("development routes enabled", "route", "/dev/seed")
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("starting server", "address", cfg.Server.Address(), "environment", cfg.Server.Environment)
		if err := e.Start(cfg.Server.Address()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	log.Info("server stopped")
	return nil
}

func purgeExpiredTokens(ctx context.Context, authService services.AuthServiceInterface, log *slog.Logger) {
	ticker := time.NewTicker(tokenCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := authService.PurgeExpiredTokens(ctx)
			if err != nil {
				log.Error("expired token cleanup failed", "error", err)
				continue
			}
			log.Debug("expired tokens purged", "removed", removed)
		}
	}
}
