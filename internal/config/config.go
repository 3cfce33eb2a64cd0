package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type AuthMode string

const (
	AuthModeNone  AuthMode = "none"  // every request acts as superuser
	AuthModeLocal AuthMode = "local" // staff accounts with sessions
)

// Config is flat on the outside: every setting has one snake_case key that
// works in a config file and, upper-cased, as an environment variable.
type (
	Config struct {
		HTTP        `mapstructure:",squash"`
		Global      `mapstructure:",squash"`
		Database    `mapstructure:",squash"`
		UI          `mapstructure:",squash"`
		Logging     `mapstructure:",squash"`
		Tasks       `mapstructure:",squash"`
		Auth        `mapstructure:",squash"`
		Audit       `mapstructure:",squash"`
		Maintenance `mapstructure:",squash"`
		RateLimit   `mapstructure:",squash"`
		Catalog     `mapstructure:",squash"`
		Demo        `mapstructure:",squash"`
	}

	HTTP struct {
		Port int32  `mapstructure:"port"`
		Host string `mapstructure:"host"`
	}
	Global struct {
		ShutdownTimeoutInSeconds int `mapstructure:"shutdown_timeout_in_seconds"`
	}
	Database struct {
		Driver   string `mapstructure:"database_driver"`
		Path     string `mapstructure:"database_path"` // sqlite only
		DSN      string `mapstructure:"database_dsn"`  // postgres only
		LogLevel string `mapstructure:"database_log_level"`
	}
	UI struct {
		TemplatesPath string `mapstructure:"templates_path"` // empty means embedded
		StaticPath    string `mapstructure:"static_path"`
	}
	Logging struct {
		Level  string `mapstructure:"log_level"`
		Format string `mapstructure:"log_format"`
	}
	Audit struct {
		Dir           string `mapstructure:"audit_dir"`
		RetentionDays int    `mapstructure:"audit_retention_days"`
	}
	Maintenance struct {
		OverdueScanEnabled   bool   `mapstructure:"overdue_scan_enabled"`
		OverdueScanSchedule  string `mapstructure:"overdue_scan_schedule"`
		AuditCleanupEnabled  bool   `mapstructure:"audit_cleanup_enabled"`
		AuditCleanupSchedule string `mapstructure:"audit_cleanup_schedule"`
	}
	RateLimit struct {
		APIEnabled        bool    `mapstructure:"api_rate_limit_enabled"`
		RequestsPerSecond float64 `mapstructure:"api_rate_limit_rps"`
		Burst             int     `mapstructure:"api_rate_limit_burst"`
	}
	Catalog struct {
		PageSize    int `mapstructure:"catalog_page_size"`
		MaxPageSize int `mapstructure:"catalog_max_page_size"`
	}
	Tasks struct {
		Enabled         bool          `mapstructure:"tasks_enabled"`
		Workers         int           `mapstructure:"task_workers"`
		ReleaseAfter    time.Duration `mapstructure:"task_release_after"`
		CleanupInterval time.Duration `mapstructure:"task_cleanup_interval"`
	}
	Auth struct {
		Mode            AuthMode      `mapstructure:"auth_mode"`
		SessionSecret   string        `mapstructure:"auth_session_secret"` // generated when empty
		SessionLifetime time.Duration `mapstructure:"auth_session_lifetime"`
		TokenExpiry     time.Duration `mapstructure:"auth_token_expiry"`
		BcryptCost      int           `mapstructure:"auth_bcrypt_cost"`
		SecureCookies   bool          `mapstructure:"auth_secure_cookies"`

		MaxLoginAttempts int           `mapstructure:"auth_max_login_attempts"`
		RateLimitWindow  time.Duration `mapstructure:"auth_rate_limit_window"`
		LockoutDuration  time.Duration `mapstructure:"auth_lockout_duration"`
	}
	Demo struct {
		Enabled bool   `mapstructure:"demo_mode"`
		DBPath  string `mapstructure:"demo_db_path"`
	}
)

var defaultValues = map[string]any{
	"port":                        8000,
	"host":                        "0.0.0.0",
	"shutdown_timeout_in_seconds": 2,

	"database_driver":    DriverSQLite,
	"database_path":      DefaultDatabasePath,
	"database_dsn":       "",
	"database_log_level": "warn",

	"templates_path": "",
	"static_path":    "",
	"log_level":      "info",
	"log_format":     "text",

	"audit_dir":            "./audit",
	"audit_retention_days": 30,

	"overdue_scan_enabled":   true,
	"overdue_scan_schedule":  "0 7 * * *",
	"audit_cleanup_enabled":  true,
	"audit_cleanup_schedule": "30 3 * * *",

	"api_rate_limit_enabled": true,
	"api_rate_limit_rps":     20.0,
	"api_rate_limit_burst":   40,

	"catalog_page_size":     25,
	"catalog_max_page_size": 100,

	"demo_mode":    false,
	"demo_db_path": DefaultDemoDatabasePath,

	"auth_mode":               string(AuthModeNone),
	"auth_session_secret":     "",
	"auth_session_lifetime":   "24h",
	"auth_token_expiry":       "720h",
	"auth_bcrypt_cost":        12,
	"auth_secure_cookies":     true,
	"auth_max_login_attempts": 5,
	"auth_rate_limit_window":  "15m",
	"auth_lockout_duration":   "30m",

	"tasks_enabled":         true,
	"task_workers":          2,
	"task_release_after":    "15m",
	"task_cleanup_interval": "1h",
}

// Load resolves the configuration. Precedence, highest first: environment
// (including a .env file in the working directory), configFile, defaults.
// An empty configFile skips the file.
func Load(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	for key, value := range defaultValues {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
	case DriverPostgres:
		if c.Database.DSN == "" {
			return errors.New("database_dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported database_driver %q", c.Database.Driver)
	}
	if c.Auth.Mode != AuthModeNone && c.Auth.Mode != AuthModeLocal {
		return fmt.Errorf("unsupported auth_mode %q", c.Auth.Mode)
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.HTTP.Port)
	}
	return nil
}
