package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
	DriverMemory   = "memory"
	DriverFailover = "failover"
)

type Config struct {
	Storage struct {
		Driver      string `yaml:"driver" env:"COURTBOOK_STORAGE_DRIVER"`
		SQLitePath  string `yaml:"sqlite_path" env:"COURTBOOK_SQLITE_PATH"`
		BookingsKey string `yaml:"bookings_key" env:"COURTBOOK_BOOKINGS_KEY"`
		PaymentsKey string `yaml:"payments_key" env:"COURTBOOK_PAYMENTS_KEY"`
	} `yaml:"storage"`

	Redis struct {
		Address   string `yaml:"address" env:"COURTBOOK_REDIS_ADDRESS"`
		Password  string `yaml:"password" env:"COURTBOOK_REDIS_PASSWORD"`
		DB        int    `yaml:"db" env:"COURTBOOK_REDIS_DB"`
		KeyPrefix string `yaml:"key_prefix" env:"COURTBOOK_REDIS_KEY_PREFIX"`
	} `yaml:"redis"`

	Catalog struct {
		Path          string `yaml:"path" env:"COURTBOOK_COURTS_PATH"`
		ReloadSeconds int    `yaml:"reload_seconds"`
	} `yaml:"catalog"`

	Booking struct {
		Timezone                  string `yaml:"timezone" env:"COURTBOOK_TIMEZONE"`
		DefaultOpenHour           int    `yaml:"default_open_hour"`
		DefaultCloseHour          int    `yaml:"default_close_hour"`
		MaxAdvanceMonths          int    `yaml:"max_advance_months"`
		CompletionIntervalSeconds int    `yaml:"completion_interval_seconds"`
	} `yaml:"booking"`

	Payments struct {
		SuccessRate float64 `yaml:"success_rate" env:"COURTBOOK_PAYMENT_SUCCESS_RATE"`
	} `yaml:"payments"`

	Backup struct {
		Enabled       bool   `yaml:"enabled"`
		IntervalHours int    `yaml:"interval_hours"`
		Path          string `yaml:"path"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"backup"`

	Report struct {
		Enabled       bool   `yaml:"enabled"`
		Dir           string `yaml:"dir"`
		IntervalHours int    `yaml:"interval_hours"`
	} `yaml:"report"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port" env:"COURTBOOK_HEALTH_PORT"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port" env:"COURTBOOK_PROMETHEUS_PORT"`
	} `yaml:"monitoring"`

	Logging struct {
		Level string `yaml:"level" env:"COURTBOOK_LOG_LEVEL"`
		JSON  bool   `yaml:"json" env:"COURTBOOK_LOG_JSON"`
	} `yaml:"logging"`
}

// Load reads the YAML config, applying a .env file and COURTBOOK_* overrides on top.
func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err = ParseEnv(&cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	if cfg.UsesSQLite() {
		if err = os.MkdirAll(filepath.Dir(cfg.Storage.SQLitePath), 0o755); err != nil {
			return nil, err
		}
	}

	return &cfg, nil
}

// ParseEnv overlays environment variables onto target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Storage.Driver == "" {
		c.Storage.Driver = DriverSQLite
	}
	if c.Storage.SQLitePath == "" {
		c.Storage.SQLitePath = "data/courtbook.db"
	}
	if c.Storage.BookingsKey == "" {
		c.Storage.BookingsKey = "courtBookings"
	}
	if c.Storage.PaymentsKey == "" {
		c.Storage.PaymentsKey = "payments"
	}
	if c.Catalog.Path == "" {
		c.Catalog.Path = "configs/courts.yaml"
	}
	if c.Booking.Timezone == "" {
		c.Booking.Timezone = "America/Bogota"
	}
	if c.Booking.DefaultOpenHour == 0 && c.Booking.DefaultCloseHour == 0 {
		c.Booking.DefaultOpenHour, c.Booking.DefaultCloseHour = 6, 22
	}
	if c.Payments.SuccessRate == 0 {
		c.Payments.SuccessRate = 0.9
	}
	if c.Backup.Path == "" {
		c.Backup.Path = "data/backups"
	}
	if c.Report.Dir == "" {
		c.Report.Dir = "data/reports"
	}
	if c.Monitoring.HealthCheckPort == 0 {
		c.Monitoring.HealthCheckPort = 8090
	}
	if c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverSQLite, DriverMemory:
	case DriverRedis, DriverFailover:
		if c.Redis.Address == "" {
			return fmt.Errorf("storage.driver %q requires redis.address", c.Storage.Driver)
		}
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}

	if _, err := time.LoadLocation(c.Booking.Timezone); err != nil {
		return fmt.Errorf("booking.timezone: %w", err)
	}
	if c.Booking.DefaultOpenHour < 0 || c.Booking.DefaultCloseHour > 24 ||
		c.Booking.DefaultOpenHour >= c.Booking.DefaultCloseHour {
		return fmt.Errorf("booking: default_open_hour must be before default_close_hour")
	}
	if c.Payments.SuccessRate < 0 || c.Payments.SuccessRate > 1 {
		return fmt.Errorf("payments.success_rate must be within [0, 1], got %v", c.Payments.SuccessRate)
	}
	return nil
}

func (c *Config) UsesSQLite() bool {
	return c.Storage.Driver == DriverSQLite || c.Storage.Driver == DriverFailover
}

func (c *Config) UsesRedis() bool {
	return c.Storage.Driver == DriverRedis || c.Storage.Driver == DriverFailover
}

// Location returns the timezone bookings are evaluated in.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Booking.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// MaxAdvanceMonths is the booking horizon. Unset means 3; a negative value disables it.
func (c *Config) MaxAdvanceMonths() int {
	if c.Booking.MaxAdvanceMonths == 0 {
		return 3
	}
	return c.Booking.MaxAdvanceMonths
}

func (c *Config) CompletionInterval() time.Duration {
	if c.Booking.CompletionIntervalSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.Booking.CompletionIntervalSeconds) * time.Second
}

func (c *Config) CatalogReloadInterval() time.Duration {
	if c.Catalog.ReloadSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Catalog.ReloadSeconds) * time.Second
}

func (c *Config) BackupInterval() time.Duration {
	if c.Backup.IntervalHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Backup.IntervalHours) * time.Hour
}

func (c *Config) BackupRetention() time.Duration {
	if c.Backup.RetentionDays <= 0 {
		return 7 * 24 * time.Hour
	}
	return time.Duration(c.Backup.RetentionDays) * 24 * time.Hour
}

func (c *Config) ReportInterval() time.Duration {
	if c.Report.IntervalHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Report.IntervalHours) * time.Hour
}
