package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all configuration for our application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Business  BusinessConfig  `mapstructure:"business"`
	Health    HealthConfig    `mapstructure:"health"`
}

type ServerConfig struct {
	Port string `mapstructure:"SERVER_PORT"`
	Host string `mapstructure:"SERVER_HOST"`
	Env  string `mapstructure:"ENV"`
}

type DatabaseConfig struct {
	URL          string `mapstructure:"DATABASE_URL"`
	MaxOpenConns int    `mapstructure:"DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns int    `mapstructure:"DATABASE_MAX_IDLE_CONNS"`
}

type RedisConfig struct {
	Host     string `mapstructure:"REDIS_HOST"`
	Port     string `mapstructure:"REDIS_PORT"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`
}

type SchedulerConfig struct {
	TopUpSweepSpec string `mapstructure:"TOPUP_SWEEP_SPEC"`
	Timezone       string `mapstructure:"SCHEDULER_TIMEZONE"`
}

type BusinessConfig struct {
	// Fallback thresholds when the policy store has no document
	HighValueLoanAmount    string `mapstructure:"HIGH_VALUE_LOAN_AMOUNT"`
	HighValueMinRate       string `mapstructure:"HIGH_VALUE_MIN_INTEREST_RATE"`
	HighValueMaxTenure     int    `mapstructure:"HIGH_VALUE_MAX_TENURE"`
	TopUpEligibilityMonths int    `mapstructure:"TOPUP_ELIGIBILITY_MONTHS"`
	SequenceRetryAttempts  int    `mapstructure:"SEQUENCE_RETRY_ATTEMPTS"`
	CacheTTL               string `mapstructure:"ENTITY_CACHE_TTL"`
}

type HealthConfig struct {
	Timeout string `mapstructure:"HEALTH_CHECK_TIMEOUT"`
}

// Load reads configuration from environment variables and files
func Load() (*Config, error) {
	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("DATABASE_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DATABASE_MAX_IDLE_CONNS", 5)
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("HIGH_VALUE_LOAN_AMOUNT", "1000000")
	viper.SetDefault("HIGH_VALUE_MIN_INTEREST_RATE", "12")
	viper.SetDefault("HIGH_VALUE_MAX_TENURE", 60)
	viper.SetDefault("TOPUP_ELIGIBILITY_MONTHS", 12)
	viper.SetDefault("SEQUENCE_RETRY_ATTEMPTS", 3)
	viper.SetDefault("ENTITY_CACHE_TTL", "24h")
	viper.SetDefault("TOPUP_SWEEP_SPEC", "0 0 9 * * *")
	viper.SetDefault("SCHEDULER_TIMEZONE", "Asia/Kolkata")
	viper.SetDefault("HEALTH_CHECK_TIMEOUT", "5s")

	// Read from environment variables
	viper.AutomaticEnv()

	// Try to read from .env file (optional)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./deployments")

	// Don't fail if .env file doesn't exist
	_ = viper.ReadInConfig()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Business.TopUpEligibilityMonths <= 0 {
		return fmt.Errorf("TOPUP_ELIGIBILITY_MONTHS must be greater than 0")
	}

	if c.Business.SequenceRetryAttempts <= 0 {
		return fmt.Errorf("SEQUENCE_RETRY_ATTEMPTS must be greater than 0")
	}

	if c.Business.HighValueMaxTenure <= 0 {
		return fmt.Errorf("HIGH_VALUE_MAX_TENURE must be greater than 0")
	}

	if _, err := decimal.NewFromString(c.Business.HighValueLoanAmount); err != nil {
		return fmt.Errorf("HIGH_VALUE_LOAN_AMOUNT must be a valid decimal: %w", err)
	}

	if _, err := decimal.NewFromString(c.Business.HighValueMinRate); err != nil {
		return fmt.Errorf("HIGH_VALUE_MIN_INTEREST_RATE must be a valid decimal: %w", err)
	}

	if _, err := time.ParseDuration(c.Business.CacheTTL); err != nil {
		return fmt.Errorf("ENTITY_CACHE_TTL must be a valid duration: %w", err)
	}

	if _, err := time.ParseDuration(c.Health.Timeout); err != nil {
		return fmt.Errorf("HEALTH_CHECK_TIMEOUT must be a valid duration: %w", err)
	}

	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development" || c.Server.Env == "dev"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production" || c.Server.Env == "prod"
}

// GetCacheTTL returns the entity cache TTL as duration
func (c *Config) GetCacheTTL() time.Duration {
	ttl, _ := time.ParseDuration(c.Business.CacheTTL)
	return ttl
}

// GetHealthTimeout returns the health check timeout as duration
func (c *Config) GetHealthTimeout() time.Duration {
	timeout, _ := time.ParseDuration(c.Health.Timeout)
	return timeout
}

// GetFallbackThresholds returns the configured fallback thresholds, used when
// the policy store is empty or unreachable.
func (c *Config) GetFallbackThresholds() (loanAmount, minRate decimal.Decimal, maxTenure int) {
	loanAmount, _ = decimal.NewFromString(c.Business.HighValueLoanAmount)
	minRate, _ = decimal.NewFromString(c.Business.HighValueMinRate)
	return loanAmount, minRate, c.Business.HighValueMaxTenure
}
