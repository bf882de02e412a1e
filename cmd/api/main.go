package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cgvrzon/arynstal/internal/api/router"
	"github.com/cgvrzon/arynstal/internal/app/bootstrap"
	"github.com/cgvrzon/arynstal/internal/audit"
	"github.com/cgvrzon/arynstal/internal/budgets"
	appconfig "github.com/cgvrzon/arynstal/internal/config"
	"github.com/cgvrzon/arynstal/internal/http/handlers"
	"github.com/cgvrzon/arynstal/internal/intake"
	"github.com/cgvrzon/arynstal/internal/leads"
	"github.com/cgvrzon/arynstal/internal/notify"
	"github.com/cgvrzon/arynstal/internal/observability/metrics"
	"github.com/cgvrzon/arynstal/internal/services"
	"github.com/cgvrzon/arynstal/internal/staff"
	"github.com/cgvrzon/arynstal/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting arynstal API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	pool, err := bootstrap.BuildPool(ctx, cfg)
	if err != nil {
		logger.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	sqlDB := bootstrap.BuildSQLDB(pool)
	defer sqlDB.Close()

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer redisClient.Close()
	}

	uploadStore, err := bootstrap.BuildUploadStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("media storage unavailable", "error", err)
		os.Exit(1)
	}

	emailSender := bootstrap.BuildEmailSender(ctx, cfg, logger)
	notifier := notify.NewService(emailSender, notify.Config{
		Enabled:                  cfg.NotificationsEnabled,
		AdminEmail:               cfg.AdminEmail,
		SendCustomerConfirmation: cfg.SendCustomerConfirmation,
		CompanyName:              cfg.CompanyName,
	}, logger)

	recorder := audit.NewRecorder(logger)
	leadsRepo := leads.NewPostgresRepository(pool, recorder)
	budgetsRepo := budgets.NewPostgresRepository(pool, cfg.BudgetRefPrefix, logger)
	servicesRepo := services.NewPostgresRepository(pool)
	staffRepo := staff.NewPostgresRepository(pool)

	intakeMetrics := metrics.NewIntakeMetrics(nil)
	limiter := intake.NewRedisLimiter(redisClient, cfg.RateLimitMax, cfg.RateLimitWindow, logger)
	intakeService := intake.NewService(leadsRepo, limiter, uploadStore, notifier, intakeMetrics, logger)
	intakeHandler := intake.NewHandler(intakeService, cfg.HoneypotField, cfg.MaxUploadMemory, logger)

	routerCfg := &router.Config{
		Logger:          logger,
		IntakeHandler:   intakeHandler,
		AdminLeads:      handlers.NewAdminLeadsHandler(leadsRepo, uploadStore, logger),
		AdminBudgets:    handlers.NewAdminBudgetsHandler(budgetsRepo, uploadStore, logger),
		AdminDashboard:  handlers.NewAdminDashboardHandler(sqlDB, logger),
		AdminCatalog:    handlers.NewAdminCatalogHandler(servicesRepo, staffRepo, logger),
		AdminAuthSecret: cfg.AdminJWTSecret,
		StaffDirectory:  staffRepo,

		MetricsHandler:     promhttp.Handler(),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
