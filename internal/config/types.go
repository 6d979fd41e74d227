package config

import (
	"fmt"
	"time"
)

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         string        `mapstructure:"port"`
	BasePath     string        `mapstructure:"base_path"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type AuthConfig struct {
	SigningSecret string        `mapstructure:"signing_secret"`
	Issuer        string        `mapstructure:"issuer"`
	SessionTTL    time.Duration `mapstructure:"session_ttl"`
	BcryptCost    int           `mapstructure:"bcrypt_cost"`

	VerificationTTL        time.Duration `mapstructure:"verification_ttl"`
	VerificationTokenBytes int           `mapstructure:"verification_token_bytes"`
	NotificationTimeout    time.Duration `mapstructure:"notification_timeout"`

	// Throttling: MaxFailedLogins consecutive failures inside ThrottleWindow
	// block further attempts.
	MaxFailedLogins int           `mapstructure:"max_failed_logins"`
	ThrottleWindow  time.Duration `mapstructure:"throttle_window"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // "postgres" or "memory"
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsDir   string        `mapstructure:"migrations_dir"`
	LogQueries      bool          `mapstructure:"log_queries"`
}

type MailConfig struct {
	Driver   string        `mapstructure:"driver"` // "smtp" or "log"
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	From     string        `mapstructure:"from"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type AppConfig struct {
	Server   ServerConfig   `mapstructure:"server"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Database DatabaseConfig `mapstructure:"database"`
	Mail     MailConfig     `mapstructure:"mail"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"

	MailDriverSMTP = "smtp"
	MailDriverLog  = "log"
)

// DSN returns the libpq connection string shared by gorm and goose.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		c.Host,
		c.User,
		c.Password,
		c.Name,
		c.Port,
		c.SSLMode,
	)
}
