package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type AppConfig struct {
	App       AppSettings       `mapstructure:"app"`
	Postgres  PostgresSettings  `mapstructure:"postgres"`
	Redis     RedisSettings     `mapstructure:"redis"`
	Kafka     KafkaSettings     `mapstructure:"kafka"`
	JWT       JWTSettings       `mapstructure:"jwt"`
	RateLimit RateLimitSettings `mapstructure:"rate_limit"`
	Email     EmailSettings     `mapstructure:"email"`
}

type AppSettings struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type PostgresSettings struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	User              string        `mapstructure:"user"`
	Password          string        `mapstructure:"password"`
	Database          string        `mapstructure:"database"`
	SSLMode           string        `mapstructure:"ssl_mode"`
	MaxConns          int32         `mapstructure:"max_conns"`
	MinConns          int32         `mapstructure:"min_conns"`
	MaxConnLifetime   time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   time.Duration `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
	Migrate           bool          `mapstructure:"migrate"`
}

// RedisSettings configures the Redis connection used by the revocation
// ledger and the rate limiter.
type RedisSettings struct {
	Host             string `mapstructure:"host"`
	Port             int    `mapstructure:"port"`
	DB               int    `mapstructure:"db"`
	Password         string `mapstructure:"password"`
	TLSEnabled       bool   `mapstructure:"tls_enabled"`
	RevocationPrefix string `mapstructure:"revocation_prefix"`
	RateLimitPrefix  string `mapstructure:"rate_limit_prefix"`
}

// KafkaSettings configures the outbox producer for activation emails.
// An empty broker list switches the service to the logging publisher.
type KafkaSettings struct {
	Brokers     []string `mapstructure:"brokers"`
	TopicPrefix string   `mapstructure:"topic_prefix"`
}

type JWTSettings struct {
	Secret          string        `mapstructure:"secret"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`
}

// RateLimitSettings configures sliding windows per endpoint. Activation
// limits bound brute-force guessing of the 6-digit code.
type RateLimitSettings struct {
	WindowDuration      time.Duration `mapstructure:"window_duration"`
	LoginMaxAttempts    int           `mapstructure:"login_max_attempts"`
	RegisterMaxAttempts int           `mapstructure:"register_max_attempts"`
	ActivateMaxAttempts int           `mapstructure:"activate_max_attempts"`
	ResendMaxAttempts   int           `mapstructure:"resend_max_attempts"`
}

// EmailSettings bounds how long a request will wait on the delivery
// collaborator before giving up and logging the failure.
type EmailSettings struct {
	DispatchTimeout time.Duration `mapstructure:"dispatch_timeout"`
}

func Load() (*AppConfig, error) {
	v := viper.New()

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("ACCOUNTS")

	setDefaults(v)

	if err := bindEnvs(v, []string{
		"app.name",
		"app.env",
		"app.host",
		"app.port",
		"postgres.host",
		"postgres.port",
		"postgres.user",
		"postgres.password",
		"postgres.database",
		"postgres.ssl_mode",
		"postgres.max_conns",
		"postgres.min_conns",
		"postgres.max_conn_lifetime",
		"postgres.max_conn_idle_time",
		"postgres.health_check_period",
		"postgres.migrate",
		"redis.host",
		"redis.port",
		"redis.db",
		"redis.password",
		"redis.tls_enabled",
		"redis.revocation_prefix",
		"redis.rate_limit_prefix",
		"kafka.brokers",
		"kafka.topic_prefix",
		"jwt.secret",
		"jwt.access_token_ttl",
		"jwt.refresh_token_ttl",
		"rate_limit.window_duration",
		"rate_limit.login_max_attempts",
		"rate_limit.register_max_attempts",
		"rate_limit.activate_max_attempts",
		"rate_limit.resend_max_attempts",
		"email.dispatch_timeout",
	}); err != nil {
		return nil, err
	}

	v.AutomaticEnv()

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if strings.TrimSpace(cfg.JWT.Secret) == "" && cfg.App.Env == "production" {
		return nil, fmt.Errorf("jwt.secret is required in production")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "accounts-service")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.host", "0.0.0.0")
	v.SetDefault("app.port", 8080)

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "accounts")
	v.SetDefault("postgres.password", "accounts_password")
	v.SetDefault("postgres.database", "accounts")
	v.SetDefault("postgres.ssl_mode", "disable")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 2)
	v.SetDefault("postgres.max_conn_lifetime", "60m")
	v.SetDefault("postgres.max_conn_idle_time", "15m")
	v.SetDefault("postgres.health_check_period", "30s")
	v.SetDefault("postgres.migrate", true)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.tls_enabled", false)
	v.SetDefault("redis.revocation_prefix", "accounts:revoked")
	v.SetDefault("redis.rate_limit_prefix", "accounts:rate-limit")

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic_prefix", "accounts")

	v.SetDefault("jwt.secret", "dev-only-secret-change-me")
	v.SetDefault("jwt.access_token_ttl", "15m")
	v.SetDefault("jwt.refresh_token_ttl", "168h")

	v.SetDefault("rate_limit.window_duration", "1m")
	v.SetDefault("rate_limit.login_max_attempts", 5)
	v.SetDefault("rate_limit.register_max_attempts", 3)
	v.SetDefault("rate_limit.activate_max_attempts", 5)
	v.SetDefault("rate_limit.resend_max_attempts", 2)

	v.SetDefault("email.dispatch_timeout", "5s")
}

func bindEnvs(v *viper.Viper, keys []string) error {
	for _, key := range keys {
		envKey := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, "ACCOUNTS_"+envKey, envKey); err != nil {
			return fmt.Errorf("bind env for %s: %w", key, err)
		}
	}
	return nil
}
