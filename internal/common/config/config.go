// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App        AppConfig               `mapstructure:"app"`
	Camunda    CamundaConfig           `mapstructure:"camunda"`
	Database   DatabaseConfig          `mapstructure:"database"`
	Workers    map[string]WorkerConfig `mapstructure:"workers"`
	Matching   MatchingConfig          `mapstructure:"matching"`
	Geocoding  GeocodingConfig         `mapstructure:"geocoding"`
	Compliance ComplianceConfig        `mapstructure:"compliance"`
	Logging    LoggingConfig           `mapstructure:"logging"`
	Metrics    MetricsConfig           `mapstructure:"metrics"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
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

// RedisConfig is optional: an empty address disables the shared geocode cache.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r RedisConfig) Enabled() bool {
	return r.Address != ""
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds; 0 uses the activity default
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// --- Matching Configuration ---

// MatchingConfig holds the ranking defaults applied when a job omits options.
type MatchingConfig struct {
	OnlyAvailable       *bool `mapstructure:"only_available"`
	OnlyGreenCompliance *bool `mapstructure:"only_green_compliance"`
	MaxResults          int   `mapstructure:"max_results"`
	ScoringConcurrency  int   `mapstructure:"scoring_concurrency"`
	SlowRankingMs       int   `mapstructure:"slow_ranking_ms"`
}

// GeocodingConfig controls the external geocoder used for locations missing
// from the built-in table.
type GeocodingConfig struct {
	Enabled           bool     `mapstructure:"enabled"`
	BaseURL           string   `mapstructure:"base_url"`
	UserAgent         string   `mapstructure:"user_agent"`
	TimeoutMs         int      `mapstructure:"timeout_ms"`
	RequestsPerSecond float64  `mapstructure:"requests_per_second"`
	EnabledRegions    []string `mapstructure:"enabled_regions"`
	CacheTTLSeconds   int      `mapstructure:"cache_ttl"` // 0 keeps entries forever
	RedisPrefix       string   `mapstructure:"redis_prefix"`
}

type ComplianceConfig struct {
	WarningWindowDays int `mapstructure:"warning_window_days"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type MetricsConfig struct {
	Address string `mapstructure:"address"`
}
