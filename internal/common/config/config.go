// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Search        SearchConfig       `mapstructure:"search"`
	Audit         AuditConfig        `mapstructure:"audit"`
	Scorer        ScorerConfig       `mapstructure:"scorer"`
	Scheduler     SchedulerConfig    `mapstructure:"scheduler"`
	Paths         PathsConfig        `mapstructure:"paths"`
	Database      DatabaseConfig     `mapstructure:"database"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// SearchConfig points the auditor at the production search endpoint.
type SearchConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Path    string `mapstructure:"path"`
	Limit   int    `mapstructure:"limit"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

// AuditConfig holds the batch-execution knobs shared by every run mode.
type AuditConfig struct {
	BatchSize       int `mapstructure:"batch_size"`
	CheckpointEvery int `mapstructure:"checkpoint_every"`
	DelayMs         int `mapstructure:"delay_ms"`       // sequential inter-query delay
	WaveDelayMs     int `mapstructure:"wave_delay_ms"`  // delay between waves
	SlowThresholdMs int `mapstructure:"slow_threshold_ms"`
	MaxRetries      int `mapstructure:"max_retries"`
	BackoffMs       int `mapstructure:"backoff_ms"`
}

// ScorerConfig configures the relevance-scoring oracle.
type ScorerConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
	Timeout   int    `mapstructure:"timeout"` // milliseconds
	Positions int    `mapstructure:"positions"`
	DelayMs   int    `mapstructure:"delay_ms"` // delay between oracle calls
}

// SchedulerConfig drives the continuous audit loop.
type SchedulerConfig struct {
	IntervalHours     int     `mapstructure:"interval_hours"`
	PassRateThreshold float64 `mapstructure:"pass_rate_threshold"`
	MetricsAddr       string  `mapstructure:"metrics_addr"`
}

// PathsConfig names the on-disk artifact locations.
type PathsConfig struct {
	DataDir    string `mapstructure:"data_dir"`
	HistoryDir string `mapstructure:"history_dir"`
	AlertLog   string `mapstructure:"alert_log"`
	Checkpoint string `mapstructure:"checkpoint"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses    []string `mapstructure:"addresses"`
	Username     string   `mapstructure:"username"`
	Password     string   `mapstructure:"password"`
	SSLEnabled   bool     `mapstructure:"ssl_enabled"`
	URL          string   `mapstructure:"url"` // Single URL for backwards compatibility
	ProductIndex string   `mapstructure:"product_index"`
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// NotificationConfig holds settings for threshold-breach alerting.
type NotificationConfig struct {
	Email struct {
		Enabled   bool     `mapstructure:"enabled"`
		FromEmail string   `mapstructure:"from_email"`
		To        []string `mapstructure:"to"`
	} `mapstructure:"email"`
	SMS struct {
		Enabled     bool   `mapstructure:"enabled"`
		PhoneNumber string `mapstructure:"phone_number"`
	} `mapstructure:"sms"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
