// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	// Base config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like SEARCH_BASE_URL
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment-specific overlay, e.g. config.production.yaml
	envConfigFile := fmt.Sprintf("config.%s", env)
	viper.SetConfigName(envConfigFile)
	_ = viper.MergeInConfig() // ignore error if not found

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Load .env from multiple possible locations so binaries and tests can run
// from any directory.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars resolves ${VAR} placeholders in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		val := v.Get(key)

		if strVal, ok := val.(string); ok {
			if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
				expanded := os.ExpandEnv(strVal)
				if expanded != strVal && expanded != "" {
					v.Set(key, expanded)
				}
			}
		}
	}
}

// Direct override if config values are still empty after expansion
func overrideEmptyConfig(cfg *Config) {
	if cfg.Search.BaseURL == "" {
		if val := os.Getenv("SEARCH_BASE_URL"); val != "" {
			cfg.Search.BaseURL = val
		}
	}

	if cfg.Scorer.BaseURL == "" {
		if val := os.Getenv("SCORER_BASE_URL"); val != "" {
			cfg.Scorer.BaseURL = val
		}
	}
	if cfg.Scorer.APIKey == "" {
		if val := os.Getenv("SCORER_API_KEY"); val != "" {
			cfg.Scorer.APIKey = val
		}
	}

	if cfg.Database.Postgres.User == "" {
		if val := os.Getenv("DB_USER"); val != "" {
			cfg.Database.Postgres.User = val
		}
	}
	if cfg.Database.Postgres.Password == "" {
		if val := os.Getenv("DB_PASSWORD"); val != "" {
			cfg.Database.Postgres.Password = val
		}
	}
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	// Search defaults
	if cfg.Search.Path == "" {
		cfg.Search.Path = "/api/products/search"
	}
	if cfg.Search.Limit == 0 {
		cfg.Search.Limit = 10
	}
	if cfg.Search.Timeout == 0 {
		cfg.Search.Timeout = 8000
	}

	// Audit defaults
	if cfg.Audit.BatchSize == 0 {
		cfg.Audit.BatchSize = 20
	}
	if cfg.Audit.CheckpointEvery == 0 {
		cfg.Audit.CheckpointEvery = 50
	}
	if cfg.Audit.DelayMs == 0 {
		cfg.Audit.DelayMs = 100
	}
	if cfg.Audit.WaveDelayMs == 0 {
		cfg.Audit.WaveDelayMs = 50
	}
	if cfg.Audit.SlowThresholdMs == 0 {
		cfg.Audit.SlowThresholdMs = 3000
	}
	if cfg.Audit.MaxRetries == 0 {
		cfg.Audit.MaxRetries = 2
	}
	if cfg.Audit.BackoffMs == 0 {
		cfg.Audit.BackoffMs = 500
	}

	// Scorer defaults
	if cfg.Scorer.Model == "" {
		cfg.Scorer.Model = "gpt-4o-mini"
	}
	if cfg.Scorer.Timeout == 0 {
		cfg.Scorer.Timeout = 30000
	}
	if cfg.Scorer.Positions == 0 {
		cfg.Scorer.Positions = 8
	}
	if cfg.Scorer.DelayMs == 0 {
		cfg.Scorer.DelayMs = 50
	}

	// Scheduler defaults
	if cfg.Scheduler.IntervalHours == 0 {
		cfg.Scheduler.IntervalHours = 6
	}
	if cfg.Scheduler.PassRateThreshold == 0 {
		cfg.Scheduler.PassRateThreshold = 90
	}
	if cfg.Scheduler.MetricsAddr == "" {
		cfg.Scheduler.MetricsAddr = ":9090"
	}

	// Path defaults
	if cfg.Paths.DataDir == "" {
		cfg.Paths.DataDir = "audit-results"
	}
	if cfg.Paths.HistoryDir == "" {
		cfg.Paths.HistoryDir = filepath.Join(cfg.Paths.DataDir, "history")
	}
	if cfg.Paths.AlertLog == "" {
		cfg.Paths.AlertLog = filepath.Join(cfg.Paths.DataDir, "alerts.log")
	}
	if cfg.Paths.Checkpoint == "" {
		cfg.Paths.Checkpoint = filepath.Join(cfg.Paths.DataDir, "audit-progress.json")
	}

	// Database defaults
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Elasticsearch.ProductIndex == "" {
		cfg.Database.Elasticsearch.ProductIndex = "products"
	}

	// Elasticsearch URL fallback
	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Search.BaseURL == "" {
		return fmt.Errorf("search.base_url is required")
	}

	if cfg.Audit.BatchSize < 1 {
		return fmt.Errorf("audit.batch_size must be positive")
	}
	if cfg.Audit.CheckpointEvery < 1 {
		return fmt.Errorf("audit.checkpoint_every must be positive")
	}

	if cfg.Scheduler.PassRateThreshold < 0 || cfg.Scheduler.PassRateThreshold > 100 {
		return fmt.Errorf("scheduler.pass_rate_threshold must be between 0 and 100")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
