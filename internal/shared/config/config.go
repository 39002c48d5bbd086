package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	AppEnv     string `mapstructure:"APP_ENV"`
	Port       string `mapstructure:"PORT"`
	WebPort    string `mapstructure:"WEB_PORT"`
	APIBaseURL string `mapstructure:"API_BASE_URL"`

	Database DatabaseConfig `mapstructure:",squash"`
	Redis    RedisConfig    `mapstructure:",squash"`
	Kafka    KafkaConfig    `mapstructure:",squash"`
	Security SecurityConfig `mapstructure:",squash"`
	Leave    LeaveConfig    `mapstructure:",squash"`

	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
}

type DatabaseConfig struct {
	Host           string `mapstructure:"DB_HOST"`
	Port           string `mapstructure:"DB_PORT"`
	User           string `mapstructure:"DB_USER"`
	Password       string `mapstructure:"DB_PASSWORD"`
	Name           string `mapstructure:"DB_NAME"`
	SSLMode        string `mapstructure:"DB_SSLMODE"`
	MaxRetries     int    `mapstructure:"DB_MAX_RETRIES"`
	MigrateOnStart bool   `mapstructure:"MIGRATE_ON_START"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"REDIS_ADDR"`
	Password string        `mapstructure:"REDIS_PASSWORD"`
	DB       int           `mapstructure:"REDIS_DB"`
	CacheTTL time.Duration `mapstructure:"CACHE_TTL"`
}

type KafkaConfig struct {
	Broker             string        `mapstructure:"KAFKA_BROKER"`
	OutboxEnabled      bool          `mapstructure:"OUTBOX_ENABLED"`
	OutboxPollInterval time.Duration `mapstructure:"OUTBOX_POLL_INTERVAL"`
}

type SecurityConfig struct {
	JWTSecret    string        `mapstructure:"JWT_SECRET"`
	AccessTTL    time.Duration `mapstructure:"JWT_ACCESS_TTL"`
	BCryptCost   int           `mapstructure:"BCRYPT_COST"`
	AuthRequired bool          `mapstructure:"AUTH_REQUIRED"`
	SessionTTL   time.Duration `mapstructure:"SESSION_TTL"`
	CookieSecure bool          `mapstructure:"COOKIE_SECURE"`
}

type LeaveConfig struct {
	DefaultEntitlement int  `mapstructure:"LEAVE_DEFAULT_ENTITLEMENT"`
	StrictDateRange    bool `mapstructure:"LEAVE_STRICT_DATE_RANGE"`
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "4000")
	v.SetDefault("WEB_PORT", "3000")
	v.SetDefault("API_BASE_URL", "http://localhost:4000/api")
	v.SetDefault("REQUEST_TIMEOUT", 10*time.Second)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "leaveit")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_RETRIES", 5)
	v.SetDefault("MIGRATE_ON_START", true)

	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_TTL", 5*time.Minute)

	v.SetDefault("KAFKA_BROKER", "")
	v.SetDefault("OUTBOX_ENABLED", false)
	v.SetDefault("OUTBOX_POLL_INTERVAL", 3*time.Second)

	v.SetDefault("JWT_SECRET", "change-me-in-production")
	v.SetDefault("JWT_ACCESS_TTL", 24*time.Hour)
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("AUTH_REQUIRED", false)
	v.SetDefault("SESSION_TTL", 24*time.Hour)
	v.SetDefault("COOKIE_SECURE", false)

	v.SetDefault("LEAVE_DEFAULT_ENTITLEMENT", 20)
	v.SetDefault("LEAVE_STRICT_DATE_RANGE", false)
}

func (c *Config) Validate() error {
	var errs []string

	if c.Leave.DefaultEntitlement <= 0 {
		errs = append(errs, "LEAVE_DEFAULT_ENTITLEMENT must be positive")
	}
	if c.Security.BCryptCost < 4 || c.Security.BCryptCost > 31 {
		errs = append(errs, "BCRYPT_COST must be between 4 and 31")
	}
	if c.IsProduction() && c.Security.JWTSecret == "change-me-in-production" {
		errs = append(errs, "JWT_SECRET must be set in production")
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, "REQUEST_TIMEOUT must be positive")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
