package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/garyjia/invoice-automation/internal/agent"
	"github.com/garyjia/invoice-automation/internal/audit"
	"github.com/garyjia/invoice-automation/internal/bus"
	"github.com/garyjia/invoice-automation/internal/config"
	httpadapter "github.com/garyjia/invoice-automation/internal/interfaces/http"
	"github.com/garyjia/invoice-automation/internal/notify"
	"github.com/garyjia/invoice-automation/internal/orchestrator"
	"github.com/garyjia/invoice-automation/internal/router"
	"github.com/garyjia/invoice-automation/internal/scheduler"
	"github.com/garyjia/invoice-automation/internal/store"
	"github.com/garyjia/invoice-automation/internal/webhook"
	"github.com/garyjia/invoice-automation/pkg/database"
	"github.com/garyjia/invoice-automation/pkg/utils"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	// Local development credentials, ignored when absent
	_ = gotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting invoice automation service",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		logger.Fatal("Failed to create data directory", zap.Error(err))
	}

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	invoiceStore := store.NewSQLiteStore(db.DB, logger)

	auditOpts := []audit.Option{}
	if cfg.Audit.FilePath != "" {
		auditOpts = append(auditOpts, audit.WithFileSink(cfg.Audit.FilePath))
	}
	auditLog := audit.NewLog(logger, auditOpts...)
	defer auditLog.Close()

	eventBus := bus.New(
		bus.WithLogger(utils.NewKVLogger(logger)),
		bus.WithAuditLog(auditLog),
	)

	if cfg.Lark.AppID != "" {
		notifier := notify.NewLarkNotifier(notify.LarkConfig{
			AppID:     cfg.Lark.AppID,
			AppSecret: cfg.Lark.AppSecret,
			ChatID:    cfg.Lark.ChatID,
		}, logger)
		eventBus.Subscribe(notifier)
		logger.Info("Lark notifications enabled", zap.String("chat_id", cfg.Lark.ChatID))
	}

	orch := orchestrator.New(invoiceStore, eventBus, auditLog, logger)

	var provider router.Provider
	if cfg.OpenAI.APIKey != "" {
		provider = router.NewOpenAIRouter(cfg.OpenAI.APIKey, cfg.OpenAI.Model, logger)
		logger.Info("Model routing enabled", zap.String("model", cfg.OpenAI.Model))
	} else {
		logger.Warn("OPENAI_API_KEY not set, using keyword routing only")
	}
	messageRouter := router.New(provider, logger)
	messageAgent := agent.New(messageRouter, orch, auditLog, logger)

	webhookVerifier := webhook.NewVerifier(cfg.Webhook.Secret, logger)
	webhookHandler := webhook.NewHandler(webhookVerifier, messageAgent, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	workers := scheduler.NewManager(logger)
	if cfg.Scheduler.Enabled {
		workers.Register(scheduler.NewOverdueChecker(invoiceStore, eventBus, cfg.Scheduler.OverdueInterval, logger))
		workers.Register(scheduler.NewPaymentReminder(invoiceStore, eventBus, cfg.Scheduler.ReminderInterval, cfg.Scheduler.ReminderLeadDays, logger))
		if err := workers.StartAll(ctx); err != nil {
			logger.Fatal("Failed to start background workers", zap.Error(err))
		}
	}

	srv := httpadapter.NewServer(httpadapter.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		WebhookPath:  cfg.Webhook.Path,
	}, orch, webhookHandler, utils.NewKVLogger(logger))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("Shutting down server...")
	case err := <-errCh:
		if err != nil {
			logger.Error("HTTP server failed", zap.Error(err))
		}
	}

	cancel()
	workers.StopAll()
	if err := srv.Stop(); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited successfully")
}
