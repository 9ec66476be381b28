package config

import (
	"forex-sentiment-analyzer/pkg/config"
)

// Analyzer holds the core engine tunables.
type Analyzer struct {
	SentimentThreshold float64  `mapstructure:"sentiment_threshold"`
	LookbackDays       int      `mapstructure:"lookback_days"`
	RetryLimit         int      `mapstructure:"retry_limit"`
	InverseIndicators  []string `mapstructure:"inverse_indicators"`
}

// Scraper holds calendar source configuration.
type Scraper struct {
	BaseURL          string `mapstructure:"base_url"`
	MaxRetries       int    `mapstructure:"max_retries"`
	RetryDelay       string `mapstructure:"retry_delay"`
	RequestTimeout   string `mapstructure:"request_timeout"`
	SnapshotCacheTTL string `mapstructure:"snapshot_cache_ttl"`
	RequestsPerMin   int    `mapstructure:"requests_per_minute"`
}

// Schedules holds cron expressions for the background jobs.
type Schedules struct {
	Scrape           string `mapstructure:"scrape"`
	WeeklyAnalysis   string `mapstructure:"weekly_analysis"`
	ActualCollection string `mapstructure:"actual_collection"`
	HealthCheck      string `mapstructure:"health_check"`
}

// Notifications holds delivery channels for verdicts and alerts.
type Notifications struct {
	DiscordWebhookURL string `mapstructure:"discord_webhook_url"`
	TelegramBotToken  string `mapstructure:"telegram_bot_token"`
	TelegramChatID    int64  `mapstructure:"telegram_chat_id"`
}

// Config holds the full configuration for the sentiment service.
type Config struct {
	App           config.App      `mapstructure:"app"`
	Logger        config.Logger   `mapstructure:"logger"`
	Database      config.Database `mapstructure:"database"`
	Redis         config.Redis    `mapstructure:"redis"`
	API           config.API      `mapstructure:"api"`
	Analyzer      Analyzer        `mapstructure:"analyzer"`
	Scraper       Scraper         `mapstructure:"scraper"`
	Schedules     Schedules       `mapstructure:"schedules"`
	Notifications Notifications   `mapstructure:"notifications"`
}

// Load loads the service configuration from the given path and applies
// defaults for the engine tunables.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg); err != nil {
		return nil, err
	}

	if cfg.Analyzer.LookbackDays == 0 {
		cfg.Analyzer.LookbackDays = 7
	}
	if cfg.Analyzer.RetryLimit == 0 {
		cfg.Analyzer.RetryLimit = 3
	}
	if cfg.Scraper.BaseURL == "" {
		cfg.Scraper.BaseURL = "https://www.forexfactory.com"
	}
	if cfg.Scraper.MaxRetries == 0 {
		cfg.Scraper.MaxRetries = 3
	}
	if cfg.Schedules.Scrape == "" {
		cfg.Schedules.Scrape = "0 2 * * *"
	}
	if cfg.Schedules.WeeklyAnalysis == "" {
		cfg.Schedules.WeeklyAnalysis = "0 6 * * 1"
	}
	if cfg.Schedules.ActualCollection == "" {
		cfg.Schedules.ActualCollection = "0 */4 * * *"
	}
	if cfg.Schedules.HealthCheck == "" {
		cfg.Schedules.HealthCheck = "30 */2 * * *"
	}

	return &cfg, nil
}
