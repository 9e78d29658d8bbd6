package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the screener
// ⭐ SSOT: every environment variable is read here and nowhere else
type Config struct {
	// Server
	Port   string
	Env    string // development, staging, production
	Server Server

	// Data sources
	AlphaVantage AlphaVantageConfig
	Yahoo        YahooConfig
	EODHD        EODHDConfig

	// Ordered provider chain tried before falling back to sample data
	SourceChain []string

	// Fetch pipeline
	Cache Cache
	Retry Retry
	HTTP  HTTP

	// Screening
	Scan Scan

	// Redis (optional, shared daily quota accounting)
	Redis RedisConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// AlphaVantageConfig holds Alpha Vantage API configuration
type AlphaVantageConfig struct {
	APIKey  string
	BaseURL string
	Rate    RateLimit
}

// YahooConfig holds Yahoo Finance configuration
type YahooConfig struct {
	ChartBaseURL string // v8 chart JSON API
	QuoteBaseURL string // public quote pages, scraped for fundamentals
	Rate         RateLimit
}

// EODHDConfig holds EOD Historical Data API configuration
type EODHDConfig struct {
	APIToken string
	BaseURL  string
	Rate     RateLimit
}

// RateLimit defines per-provider pacing ceilings
type RateLimit struct {
	MinInterval time.Duration // minimum gap between two requests
	DailyLimit  int           // rolling daily request ceiling
}

// Cache holds market record cache settings
type Cache struct {
	TTL      time.Duration
	Capacity int
}

// Retry holds transient-failure retry settings
type Retry struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// HTTP holds outbound HTTP settings
type HTTP struct {
	RequestTimeout time.Duration
}

// Server holds inbound HTTP server timeouts. WriteTimeout bounds a full
// scan triggered through the refresh endpoint, so it runs longer than
// the outbound request timeout.
type Server struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Scan holds scan orchestration settings
type Scan struct {
	Workers        int
	PassThreshold  int
	DefaultPeriod  string
	DefaultSymbols []string
	CronSpec       string // empty disables the periodic scan job
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// Load reads configuration from environment variables
// ⭐ SSOT: only this function calls os.Getenv()
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		Server: Server{
			ReadTimeout:  getEnvAsDuration("SERVER_READ_TIMEOUT", "15s"),
			WriteTimeout: getEnvAsDuration("SERVER_WRITE_TIMEOUT", "30s"),
			IdleTimeout:  getEnvAsDuration("SERVER_IDLE_TIMEOUT", "60s"),
		},

		AlphaVantage: AlphaVantageConfig{
			APIKey:  getEnv("ALPHA_VANTAGE_API_KEY", ""),
			BaseURL: getEnv("ALPHA_VANTAGE_BASE_URL", "https://www.alphavantage.co/query"),
			Rate: RateLimit{
				// Free tier: 5 requests/minute, 500 requests/day
				MinInterval: getEnvAsDuration("ALPHA_VANTAGE_MIN_INTERVAL", "12s"),
				DailyLimit:  getEnvAsInt("ALPHA_VANTAGE_DAILY_LIMIT", 500),
			},
		},

		Yahoo: YahooConfig{
			ChartBaseURL: getEnv("YAHOO_CHART_BASE_URL", "https://query1.finance.yahoo.com"),
			QuoteBaseURL: getEnv("YAHOO_QUOTE_BASE_URL", "https://finance.yahoo.com"),
			Rate: RateLimit{
				MinInterval: getEnvAsDuration("YAHOO_MIN_INTERVAL", "500ms"),
				DailyLimit:  getEnvAsInt("YAHOO_DAILY_LIMIT", 20000),
			},
		},

		EODHD: EODHDConfig{
			APIToken: getEnv("EODHD_API_TOKEN", ""),
			BaseURL:  getEnv("EODHD_BASE_URL", "https://eodhistoricaldata.com/api"),
			Rate: RateLimit{
				MinInterval: getEnvAsDuration("EODHD_MIN_INTERVAL", "1s"),
				DailyLimit:  getEnvAsInt("EODHD_DAILY_LIMIT", 1000),
			},
		},

		SourceChain: getEnvAsList("SOURCE_CHAIN", "alpha_vantage,yahoo"),

		Cache: Cache{
			TTL:      getEnvAsDuration("CACHE_TTL", "15m"),
			Capacity: getEnvAsInt("CACHE_CAPACITY", 128),
		},

		Retry: Retry{
			MaxAttempts: getEnvAsInt("RETRY_MAX_ATTEMPTS", 3),
			BaseDelay:   getEnvAsDuration("RETRY_BASE_DELAY", "2s"),
			MaxDelay:    getEnvAsDuration("RETRY_MAX_DELAY", "30s"),
		},

		HTTP: HTTP{
			RequestTimeout: getEnvAsDuration("HTTP_REQUEST_TIMEOUT", "10s"),
		},

		Scan: Scan{
			Workers:       getEnvAsInt("SCAN_WORKERS", 5),
			PassThreshold: getEnvAsInt("SCAN_PASS_THRESHOLD", 6),
			DefaultPeriod: getEnv("SCAN_DEFAULT_PERIOD", "3mo"),
			DefaultSymbols: getEnvAsList("SCAN_DEFAULT_SYMBOLS",
				"SPY,QQQ,IWM,XLF,XLE,TLT,GLD,AAPL,MSFT,GOOGL,AMZN,TSLA,META,NVDA"),
			CronSpec: getEnv("SCAN_CRON", "@every 30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are sane
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if len(c.SourceChain) == 0 {
		return fmt.Errorf("SOURCE_CHAIN must name at least one provider")
	}
	for _, src := range c.SourceChain {
		switch src {
		case "alpha_vantage", "yahoo", "eodhd":
		default:
			return fmt.Errorf("SOURCE_CHAIN contains unknown provider %q", src)
		}
	}

	if c.Scan.Workers < 1 {
		return fmt.Errorf("SCAN_WORKERS must be at least 1")
	}
	if c.Scan.PassThreshold < 0 || c.Scan.PassThreshold > 8 {
		return fmt.Errorf("SCAN_PASS_THRESHOLD must be between 0 and 8")
	}
	if c.Cache.Capacity < 1 {
		return fmt.Errorf("CACHE_CAPACITY must be at least 1")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

func getEnvAsList(key string, defaultValue string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	parts := strings.Split(valueStr, ",")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			values = append(values, trimmed)
		}
	}

	return values
}
