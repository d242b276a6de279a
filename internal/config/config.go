package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port               string
	RateLimitPerMinute int

	// Storage
	DataBackend  string
	SQLiteDBPath string

	// AMQP, optional
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Assistant
	GeminiAPIKey   string
	GeminiModel    string
	RewriteTimeout time.Duration
	VocabularyFile string

	// Auth
	SessionTTL time.Duration

	// Worker
	ReconcileInterval  time.Duration
	ReconcileBatchSize int

	// Google Sheets export, optional
	GoogleSpreadsheetID string
	GoogleSheetName     string

	LogLevel string
}

var validBackends = []string{"memory", "sqlite"}

func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8081"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),

		DataBackend:  getEnv("DATA_BACKEND", "memory"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/fintrack.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "fintrack"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_events"),

		GeminiAPIKey:   getEnv("GEMINI_API_KEY", getEnv("GOOGLE_API_KEY", "")),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		RewriteTimeout: getEnvDuration("REWRITE_TIMEOUT", 8*time.Second),
		VocabularyFile: getEnv("VOCABULARY_FILE", ""),

		SessionTTL: getEnvDuration("SESSION_TTL", 12*time.Hour),

		ReconcileInterval:  getEnvDuration("RECONCILE_INTERVAL", time.Minute),
		ReconcileBatchSize: getEnvInt("RECONCILE_BATCH_SIZE", 50),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", "Transactions"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// RewriteEnabled reports whether an LLM key is configured.
func (c *Config) RewriteEnabled() bool {
	return strings.TrimSpace(c.GeminiAPIKey) != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.RewriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("invalid rewrite timeout %v: must be positive", c.RewriteTimeout))
	} else if c.RewriteTimeout > time.Minute {
		errors = append(errors, fmt.Sprintf("invalid rewrite timeout %v: must be at most 1 minute", c.RewriteTimeout))
	}
	if c.RewriteEnabled() && strings.TrimSpace(c.GeminiModel) == "" {
		errors = append(errors, "Gemini model cannot be empty when an API key is provided")
	}

	if c.VocabularyFile != "" {
		if _, err := os.Stat(c.VocabularyFile); err != nil {
			errors = append(errors, fmt.Sprintf("vocabulary file '%s' is not readable: %v", c.VocabularyFile, err))
		}
	}

	if c.SessionTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1", c.RateLimitPerMinute))
	}

	if c.ReconcileBatchSize < 1 || c.ReconcileBatchSize > 1000 {
		errors = append(errors, fmt.Sprintf("invalid reconcile batch size %d: must be between 1 and 1000", c.ReconcileBatchSize))
	}
	if c.ReconcileInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid reconcile interval %v: must be at least 1 second", c.ReconcileInterval))
	} else if c.ReconcileInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid reconcile interval %v: must be at most 24 hours", c.ReconcileInterval))
	}

	if c.GoogleSpreadsheetID != "" && c.GoogleSheetName == "" {
		errors = append(errors, "Google Sheet name is required when a spreadsheet ID is provided")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
