package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	analyzercfg "forex-sentiment-analyzer/internal/analyzer/config"
	delivery "forex-sentiment-analyzer/internal/analyzer/delivery/http"
	_ "forex-sentiment-analyzer/internal/analyzer/docs"
	"forex-sentiment-analyzer/internal/analyzer/notifier"
	"forex-sentiment-analyzer/internal/analyzer/repository"
	"forex-sentiment-analyzer/internal/analyzer/scheduler"
	"forex-sentiment-analyzer/internal/analyzer/scraper"
	"forex-sentiment-analyzer/internal/analyzer/service"
	"forex-sentiment-analyzer/pkg/logger"
	"forex-sentiment-analyzer/pkg/postgres"
	"forex-sentiment-analyzer/pkg/redis"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	swagger "github.com/swaggo/echo-swagger"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the sentiment service",
	Run:   runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	// Create a context that is canceled on interrupt signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := analyzercfg.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	appLogger.Info("Starting Sentiment Service", logger.Field("name", cfg.App.Name))

	// Initialize database
	postgresCfg := postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}
	db, err := postgres.NewDB(postgresCfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize database", logger.ErrorField(err))
	}
	if sqlDB, err := db.DB.DB(); err == nil {
		defer sqlDB.Close()
	}

	// Initialize Redis
	redisCfg := redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	}
	redisClient, err := redis.NewClient(redisCfg)
	var rdb *goredis.Client
	if err != nil {
		appLogger.Warn("Redis unavailable, running without verdict cache and run lock", logger.ErrorField(err))
	} else {
		rdb = redisClient.Client
		defer redisClient.Close()
	}

	// Initialize repositories
	eventRepo := repository.NewEventRepository(db.DB)
	indicatorRepo := repository.NewIndicatorRepository(db.DB)
	sentimentRepo := repository.NewSentimentRepository(db.DB)
	auditRepo := repository.NewAuditFailureRepository(db.DB)
	runRepo := repository.NewCollectionRunRepository(db.DB)

	// Initialize calendar source
	source := scraper.NewForexFactoryScraper(buildScraperConfig(cfg.Scraper), auditRepo, appLogger)

	// Initialize notification channels
	alerter := buildNotifier(cfg.Notifications, appLogger)

	// Initialize services
	sentimentSvc := service.NewSentimentService(eventRepo, sentimentRepo, rdb, appLogger, nil, service.SentimentOptions{
		Threshold:         cfg.Analyzer.SentimentThreshold,
		InverseIndicators: cfg.Analyzer.InverseIndicators,
	})
	ingestSvc := service.NewIngestService(source, eventRepo, indicatorRepo, appLogger, nil)
	reconcileSvc := service.NewReconcilerService(source, eventRepo, indicatorRepo, runRepo, rdb, appLogger, nil,
		cfg.Analyzer.LookbackDays, cfg.Analyzer.RetryLimit)
	monitorSvc := service.NewMonitorService(runRepo, auditRepo, alerter, appLogger, nil)

	// Start scheduled jobs
	sched := scheduler.New(cfg.Schedules, ingestSvc, sentimentSvc, reconcileSvc, monitorSvc, alerter, appLogger)
	if err := sched.Start(); err != nil {
		appLogger.Fatal("Failed to start scheduler", logger.ErrorField(err))
	}
	defer sched.Stop()

	// Initialize Echo server
	e := echo.New()
	e.HideBanner = true

	// Initialize handlers and routes
	sentimentHandler := delivery.NewSentimentHandler(sentimentSvc, sentimentRepo, rdb, appLogger)
	pipelineHandler := delivery.NewPipelineHandler(eventRepo, sentimentSvc, reconcileSvc, monitorSvc, appLogger)

	apiV1 := e.Group("/api/v1")
	sentimentsGroup := apiV1.Group("/sentiments")
	sentimentHandler.RegisterRoutes(sentimentsGroup)
	pipelineHandler.RegisterRoutes(apiV1)

	e.GET("/health", pipelineHandler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", swagger.WrapHandler)

	// Start server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.API.Port)
		appLogger.Info("HTTP server starting", logger.Field("address", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			appLogger.Error("HTTP server failed to start", logger.ErrorField(err))
			stop() // trigger shutdown
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()

	appLogger.Info("Shutting down server...")

	// Gracefully shutdown the server
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		appLogger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}

	appLogger.Info("Server exiting")
}

// buildNotifier assembles the configured delivery channels. Returns nil when
// none are configured.
func buildNotifier(cfg analyzercfg.Notifications, appLogger *logger.Logger) notifier.Notifier {
	var channels []notifier.Notifier

	if cfg.DiscordWebhookURL != "" {
		discord, err := notifier.NewDiscord(cfg.DiscordWebhookURL)
		if err != nil {
			appLogger.Error("Failed to initialize Discord notifier", logger.ErrorField(err))
		} else {
			channels = append(channels, discord)
		}
	}
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != 0 {
		telegram, err := notifier.NewTelegram(cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			appLogger.Error("Failed to initialize Telegram notifier", logger.ErrorField(err))
		} else {
			channels = append(channels, telegram)
		}
	}

	if len(channels) == 0 {
		return nil
	}
	return notifier.NewMulti(appLogger, channels...)
}

// buildScraperConfig converts the string durations from the config file.
func buildScraperConfig(cfg analyzercfg.Scraper) scraper.Config {
	parse := func(s string) time.Duration {
		d, err := time.ParseDuration(s)
		if err != nil {
			return 0
		}
		return d
	}
	return scraper.Config{
		BaseURL:          cfg.BaseURL,
		MaxRetries:       cfg.MaxRetries,
		RetryDelay:       parse(cfg.RetryDelay),
		RequestTimeout:   parse(cfg.RequestTimeout),
		SnapshotCacheTTL: parse(cfg.SnapshotCacheTTL),
		RequestsPerMin:   cfg.RequestsPerMin,
	}
}

// @title Forex Sentiment Analyzer API
// @version 1.0
// @description Weekly economic-calendar sentiment verdicts and actual-value reconciliation.
// @BasePath /api/v1
func main() {
	rootCmd := &cobra.Command{Use: "sentiment-service"}

	serveCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "Path to the configuration file")

	rootCmd.AddCommand(serveCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing sentiment-service CLI: %s\n", err)
		os.Exit(1)
	}
}
