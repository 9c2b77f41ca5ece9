package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"factory-status-backend/internal/parse"
)

// Config represents the overall application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Logging   LoggingConfig   `yaml:"logging"`
	Shift     ShiftConfig     `yaml:"shift"`
	Bootstrap BootstrapConfig `yaml:"bootstrap"`
	Push      PushConfig      `yaml:"push"`
	Alerts    AlertsConfig    `yaml:"alerts"`
	Stream    StreamConfig    `yaml:"stream"`

	// Warnings collects non-fatal problems found while loading, for the caller to log.
	Warnings []string `yaml:"-"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	RequestIPHeader string   `yaml:"request_ip_header"`
	RateLimitPerSec float64  `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int      `yaml:"rate_limit_burst"`
	CacheTTLSeconds int      `yaml:"cache_ttl_seconds"`
	CORSOrigins     []string `yaml:"cors_origins"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"` // postgres or sqlite
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	EnableTimescale        bool   `yaml:"enable_timescale"`
	LogLevel               string `yaml:"log_level"`
}

// LoggingConfig selects the zap preset.
type LoggingConfig struct {
	Mode string `yaml:"mode"`
}

// ShiftConfig defines the daily production window.
type ShiftConfig struct {
	Timezone string         `yaml:"timezone"`
	Start    string         `yaml:"start"`
	End      string         `yaml:"end"`
	Location *time.Location `yaml:"-"`
	StartAt  parse.Clock    `yaml:"-"`
	EndAt    parse.Clock    `yaml:"-"`
}

// BootstrapConfig controls the one-time synthetic data generation.
type BootstrapConfig struct {
	Enabled            bool    `yaml:"enabled"`
	Seed               uint64  `yaml:"seed"` // 0 picks a time-based seed
	FailureProbability float64 `yaml:"failure_probability"`
	HealthyMin         float64 `yaml:"healthy_min"`
	DegradedMin        float64 `yaml:"degraded_min"`
	DegradedMax        float64 `yaml:"degraded_max"`
	TargetMin          int     `yaml:"target_min"`
	TargetMax          int     `yaml:"target_max"`
	StageUnitsMin      int     `yaml:"stage_units_min"`
	StageUnitsMax      int     `yaml:"stage_units_max"`
	DefectRateMin      float64 `yaml:"defect_rate_min"`
	DefectRateMax      float64 `yaml:"defect_rate_max"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// AlertsConfig holds the configuration for the off-track monitor.
type AlertsConfig struct {
	Enabled         bool          `yaml:"enabled"`
	IntervalSeconds int           `yaml:"interval_seconds"`
	Interval        time.Duration `yaml:"-"`
	WorkerPoolSize  int           `yaml:"worker_pool_size"`
}

// StreamConfig holds the websocket status stream configuration.
type StreamConfig struct {
	IntervalSeconds int           `yaml:"interval_seconds"`
	Interval        time.Duration `yaml:"-"`
}

// Load reads the configuration from the given path. A .env file in the working
// directory is loaded first so DATABASE_DSN and SERVER_PORT can override the file.
func Load(path string) (*Config, error) {
	var warnings []string
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		warnings = append(warnings, fmt.Sprintf("could not load .env file: %v", err))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg := Config{Warnings: warnings}
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		cfg.Database.DSN = dsn
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid SERVER_PORT %q: %w", port, err)
		}
		cfg.Server.Port = p
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with every default applied, backed by a local sqlite file.
func Default() *Config {
	cfg := &Config{Database: DatabaseConfig{Driver: "sqlite", DSN: "factory.db"}}
	if err := cfg.applyDefaults(); err != nil {
		panic(err)
	}
	return cfg
}

func (cfg *Config) applyDefaults() error {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 30
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Database.Driver != "postgres" && cfg.Database.Driver != "sqlite" {
		return fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
	if cfg.Database.LogLevel == "" {
		cfg.Database.LogLevel = "warn"
	}

	if cfg.Logging.Mode == "" {
		cfg.Logging.Mode = "dev"
	}

	if cfg.Shift.Timezone == "" {
		cfg.Shift.Timezone = "Local"
	}
	loc, err := time.LoadLocation(cfg.Shift.Timezone)
	if err != nil {
		return fmt.Errorf("failed to load timezone %q: %w", cfg.Shift.Timezone, err)
	}
	cfg.Shift.Location = loc
	if cfg.Shift.Start == "" {
		cfg.Shift.Start = "08:00"
	}
	if cfg.Shift.End == "" {
		cfg.Shift.End = "16:00"
	}
	if cfg.Shift.StartAt, err = parse.ParseClock(cfg.Shift.Start); err != nil {
		return fmt.Errorf("shift.start: %w", err)
	}
	if cfg.Shift.EndAt, err = parse.ParseClock(cfg.Shift.End); err != nil {
		return fmt.Errorf("shift.end: %w", err)
	}
	if !cfg.Shift.StartAt.Before(cfg.Shift.EndAt) {
		return fmt.Errorf("shift.start %s must be before shift.end %s", cfg.Shift.Start, cfg.Shift.End)
	}

	b := &cfg.Bootstrap
	if b.FailureProbability <= 0 {
		b.FailureProbability = 0.15
	}
	if b.HealthyMin <= 0 {
		b.HealthyMin = 70
	}
	if b.DegradedMin <= 0 {
		b.DegradedMin = 20
	}
	if b.DegradedMax <= 0 {
		b.DegradedMax = 60
	}
	if b.TargetMin <= 0 {
		b.TargetMin = 100
	}
	if b.TargetMax <= 0 {
		b.TargetMax = 160
	}
	if b.StageUnitsMin <= 0 {
		b.StageUnitsMin = 90
	}
	if b.StageUnitsMax <= 0 {
		b.StageUnitsMax = 170
	}
	if b.DefectRateMin <= 0 {
		b.DefectRateMin = 0.01
	}
	if b.DefectRateMax <= 0 {
		b.DefectRateMax = 0.06
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.Alerts.IntervalSeconds <= 0 {
		cfg.Alerts.IntervalSeconds = 300
	}
	cfg.Alerts.Interval = time.Duration(cfg.Alerts.IntervalSeconds) * time.Second
	if cfg.Alerts.WorkerPoolSize <= 0 {
		cfg.Warnings = append(cfg.Warnings, "alerts.worker_pool_size is not set or invalid; defaulting to 1")
		cfg.Alerts.WorkerPoolSize = 1
	}

	if cfg.Stream.IntervalSeconds <= 0 {
		cfg.Stream.IntervalSeconds = 30
	}
	cfg.Stream.Interval = time.Duration(cfg.Stream.IntervalSeconds) * time.Second

	return nil
}
