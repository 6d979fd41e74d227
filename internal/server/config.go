package server

import (
	"fmt"
	"os"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"github.com/elskow/user-service/internal/config"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTesting     = "testing"
)

const (
	envPrefix        = "USERSVC"
	envConfigDir     = "USERSVC_CONFIG_DIR"
	defaultConfigDir = "./config/server"
)

func LoadConfig() (*config.AppConfig, error) {
	dir := os.Getenv(envConfigDir)
	if dir == "" {
		dir = defaultConfigDir
	}
	return LoadConfigFrom(dir)
}

// LoadConfigFrom reads config.toml from dir, merges the overlay for the
// current APP_ENV, applies USERSVC_* environment overrides on top and
// validates the result.
func LoadConfigFrom(dir string) (*config.AppConfig, error) {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = EnvDevelopment
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(dir)
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Secrets are usually absent from the file, so AutomaticEnv alone would
	// not surface them during Unmarshal.
	for _, key := range []string{"auth.signing_secret", "database.password", "mail.password"} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("error binding env for %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// The environment overlay is merged into the file layer, so USERSVC_*
	// variables still take precedence over it.
	if envSettings := v.GetStringMap(fmt.Sprintf("environments.%s", env)); len(envSettings) > 0 {
		if err := v.MergeConfigMap(envSettings); err != nil {
			return nil, fmt.Errorf("error merging %s config: %w", env, err)
		}
	}

	var cfg config.AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := ValidateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "3000")
	v.SetDefault("server.base_path", "/api/users")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)

	v.SetDefault("auth.issuer", "user-service")
	v.SetDefault("auth.session_ttl", time.Hour)
	v.SetDefault("auth.bcrypt_cost", 10)
	v.SetDefault("auth.verification_ttl", time.Hour)
	v.SetDefault("auth.verification_token_bytes", 20)
	v.SetDefault("auth.notification_timeout", 10*time.Second)
	v.SetDefault("auth.max_failed_logins", 5)
	v.SetDefault("auth.throttle_window", 120*time.Second)

	v.SetDefault("database.driver", config.DriverPostgres)
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)

	v.SetDefault("mail.driver", config.MailDriverLog)
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.timeout", 10*time.Second)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// ValidateConfig rejects configurations the service cannot start with. A
// missing signing secret is always fatal.
func ValidateConfig(cfg *config.AppConfig) error {
	if err := validation.ValidateStruct(&cfg.Auth,
		validation.Field(&cfg.Auth.SigningSecret, validation.Required.Error("signing secret must be configured")),
		validation.Field(&cfg.Auth.SessionTTL, validation.Required),
		validation.Field(&cfg.Auth.BcryptCost, validation.Min(bcrypt.MinCost), validation.Max(bcrypt.MaxCost)),
		validation.Field(&cfg.Auth.VerificationTTL, validation.Required),
		validation.Field(&cfg.Auth.VerificationTokenBytes, validation.Min(20)),
		validation.Field(&cfg.Auth.NotificationTimeout, validation.Required),
		validation.Field(&cfg.Auth.MaxFailedLogins, validation.Min(1)),
		validation.Field(&cfg.Auth.ThrottleWindow, validation.Required),
	); err != nil {
		return fmt.Errorf("auth: %w", err)
	}

	if err := validation.ValidateStruct(&cfg.Database,
		validation.Field(&cfg.Database.Driver, validation.Required, validation.In(config.DriverPostgres, config.DriverMemory)),
		validation.Field(&cfg.Database.Host, requiredWhen(cfg.Database.Driver == config.DriverPostgres)...),
		validation.Field(&cfg.Database.Name, requiredWhen(cfg.Database.Driver == config.DriverPostgres)...),
	); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if err := validation.ValidateStruct(&cfg.Mail,
		validation.Field(&cfg.Mail.Driver, validation.Required, validation.In(config.MailDriverSMTP, config.MailDriverLog)),
		validation.Field(&cfg.Mail.Host, requiredWhen(cfg.Mail.Driver == config.MailDriverSMTP)...),
		validation.Field(&cfg.Mail.From, requiredWhen(cfg.Mail.Driver == config.MailDriverSMTP)...),
		validation.Field(&cfg.Mail.Timeout, validation.Required),
	); err != nil {
		return fmt.Errorf("mail: %w", err)
	}

	return nil
}

func requiredWhen(cond bool) []validation.Rule {
	if !cond {
		return nil
	}
	return []validation.Rule{validation.Required}
}
