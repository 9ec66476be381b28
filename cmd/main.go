package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	analyzercfg "forex-sentiment-analyzer/internal/analyzer/config"
	"forex-sentiment-analyzer/internal/analyzer/repository"
	"forex-sentiment-analyzer/internal/analyzer/scraper"
	"forex-sentiment-analyzer/internal/analyzer/service"
	"forex-sentiment-analyzer/pkg/logger"
	"forex-sentiment-analyzer/pkg/postgres"
	"forex-sentiment-analyzer/pkg/redis"
	"forex-sentiment-analyzer/pkg/utils"

	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var configPath string

// app holds the wired dependencies for a one-shot pipeline command.
type app struct {
	cfg       *analyzercfg.Config
	logger    *logger.Logger
	ingest    service.IngestService
	sentiment service.SentimentService
	reconcile service.ReconcilerService
	cleanup   func()
}

func newApp() (*app, error) {
	cfg, err := analyzercfg.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := postgres.NewDB(postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	redisClient, err := redis.NewClient(redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	if err != nil {
		appLogger.Warn("Redis unavailable, continuing without it", logger.ErrorField(err))
		redisClient = nil
	}

	eventRepo := repository.NewEventRepository(db.DB)
	indicatorRepo := repository.NewIndicatorRepository(db.DB)
	sentimentRepo := repository.NewSentimentRepository(db.DB)
	auditRepo := repository.NewAuditFailureRepository(db.DB)
	runRepo := repository.NewCollectionRunRepository(db.DB)

	source := scraper.NewForexFactoryScraper(buildScraperConfig(cfg.Scraper), auditRepo, appLogger)

	var rdb = redisConn(redisClient)
	sentimentSvc := service.NewSentimentService(eventRepo, sentimentRepo, rdb, appLogger, nil, service.SentimentOptions{
		Threshold:         cfg.Analyzer.SentimentThreshold,
		InverseIndicators: cfg.Analyzer.InverseIndicators,
	})
	ingestSvc := service.NewIngestService(source, eventRepo, indicatorRepo, appLogger, nil)
	reconcileSvc := service.NewReconcilerService(source, eventRepo, indicatorRepo, runRepo, rdb, appLogger, nil,
		cfg.Analyzer.LookbackDays, cfg.Analyzer.RetryLimit)

	cleanup := func() {
		_ = appLogger.Sync()
		if sqlDB, err := db.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
		if redisClient != nil {
			_ = redisClient.Close()
		}
	}

	return &app{
		cfg:       cfg,
		logger:    appLogger,
		ingest:    ingestSvc,
		sentiment: sentimentSvc,
		reconcile: reconcileSvc,
		cleanup:   cleanup,
	}, nil
}

// redisConn unwraps the shared client, preserving nil when Redis is absent.
func redisConn(client *redis.Client) *goredis.Client {
	if client == nil {
		return nil
	}
	return client.Client
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

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Fetch the economic calendar and store events",
	Run: func(cmd *cobra.Command, args []string) {
		a, err := newApp()
		if err != nil {
			log.Fatal(err)
		}
		defer a.cleanup()

		stored, err := a.ingest.IngestCalendar(cmd.Context())
		if err != nil {
			a.logger.Fatal("Scrape failed", logger.ErrorField(err))
		}
		a.logger.Info("Scrape finished", logger.IntField("new_observations", stored))
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Compute and persist this week's sentiment verdicts",
	Run: func(cmd *cobra.Command, args []string) {
		a, err := newApp()
		if err != nil {
			log.Fatal(err)
		}
		defer a.cleanup()

		weekStart, weekEnd := utils.CurrentWeekBounds(time.Now().UTC())
		verdicts, err := a.sentiment.CalculateWeeklySentiments(cmd.Context(), weekStart, weekEnd)
		if err != nil {
			a.logger.Fatal("Analysis failed", logger.ErrorField(err))
		}
		for currency, verdict := range verdicts {
			fmt.Printf("%s: %s (%s)\n", currency, verdict.Resolution.FinalSentiment, verdict.Resolution.Reason)
		}
	},
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Back-fill actual values for recent events",
	Run: func(cmd *cobra.Command, args []string) {
		a, err := newApp()
		if err != nil {
			log.Fatal(err)
		}
		defer a.cleanup()

		processed, updated, err := a.reconcile.Run(cmd.Context())
		if err != nil {
			a.logger.Fatal("Reconciliation failed", logger.ErrorField(err))
		}
		a.logger.Info("Reconciliation finished",
			logger.IntField("processed", processed),
			logger.IntField("updated", updated))
	},
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "forex-sentiment-analyzer",
		Short: "A CLI for the forex economic-calendar sentiment pipeline",
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "Path to the configuration file")
	rootCmd.AddCommand(scrapeCmd, analyzeCmd, reconcileCmd)

	rootCmd.SetContext(context.Background())
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing CLI: %s\n", err)
		os.Exit(1)
	}
}
