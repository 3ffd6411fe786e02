package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/compliancehq/compliancebot/internal/bot"
	"github.com/compliancehq/compliancebot/internal/config"
	"github.com/compliancehq/compliancebot/internal/document"
	"github.com/compliancehq/compliancebot/internal/fraud"
	"github.com/compliancehq/compliancebot/internal/slack"
	"github.com/compliancehq/compliancebot/internal/storage"
	"github.com/compliancehq/compliancebot/internal/store"
	"github.com/compliancehq/compliancebot/internal/webhook"
	"github.com/compliancehq/compliancebot/pkg/database"
	"github.com/compliancehq/compliancebot/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"
)

func main() {
	// Local development convenience; missing .env is fine
	_ = gotenv.Load()

	cfg, err := config.Load("configs/config.yaml")
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

	logger.Info("Starting ComplianceBot",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	if err := os.MkdirAll(cfg.Artifacts.OutputDir, 0755); err != nil {
		logger.Fatal("Failed to create artifacts directory", zap.Error(err))
	}

	// Record store: in-memory by default, sqlite when configured
	var records store.Store
	switch cfg.Store.Driver {
	case "sqlite":
		db, err := database.New(database.Config{
			Path:            cfg.Store.Path,
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to open record database", zap.Error(err))
		}
		defer db.Close()

		records, err = store.NewSQLiteStore(db, logger)
		if err != nil {
			logger.Fatal("Failed to initialize sqlite record store", zap.Error(err))
		}
	default:
		records = store.NewMemoryStore()
	}

	slackClient := slack.NewClient(slack.Config{
		BotToken: cfg.Slack.BotToken,
		APIBase:  cfg.Slack.APIBase,
		Timeout:  cfg.Slack.APITimeout,
	}, logger)

	files := storage.NewLocalFileStorage(cfg.Artifacts.OutputDir, logger)
	generator := document.NewPDFGenerator(cfg.Artifacts.OutputDir, cfg.Artifacts.BaseURL, files, logger)
	extractor := document.NewExtractor(logger)
	templates := document.NewLibrary(cfg.Artifacts.TemplatesDir, logger)
	workbooks := document.NewWorkbookBuilder(logger)
	engine := fraud.NewEngine(logger)
	pacer := slack.NewRandomPacer(cfg.Pacing.MinDelay, cfg.Pacing.MaxDelay)

	orchestrator := bot.New(slackClient, pacer, generator, extractor, templates, workbooks, records, engine, logger)
	webhookHandler := webhook.NewHandler(orchestrator, logger)

	if cfg.Logger.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "compliancebot",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	router.POST(cfg.Slack.WebhookPath, webhookHandler.Handle)

	// Generated artifacts are served read-only; they are never deleted
	router.Static(cfg.Artifacts.PublicPath, cfg.Artifacts.OutputDir)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited successfully")
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		)
	}
}
