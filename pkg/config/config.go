package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	OTel       OTelConfig       `mapstructure:"otel"`
	Booking    BookingConfig    `mapstructure:"booking"`
	Resilience ResilienceConfig `mapstructure:"resilience"`
}

// AppConfig holds application-level settings
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"` // development, staging, production
	Debug       bool   `mapstructure:"debug"`
	Version     string `mapstructure:"version"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
}

// KafkaConfig holds Kafka producer settings
type KafkaConfig struct {
	Brokers             []string `mapstructure:"brokers"`
	ClientID            string   `mapstructure:"client_id"`
	BookingCreatedTopic string   `mapstructure:"booking_created_topic"`
	BookingEventsTopic  string   `mapstructure:"booking_events_topic"`
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	CollectorAddr string `mapstructure:"collector_addr"`
}

// BookingConfig holds booking domain settings
type BookingConfig struct {
	DefaultCurrency string `mapstructure:"default_currency"`
}

// PolicyConfig holds the settings of one named resilience policy
type PolicyConfig struct {
	Retry    RetrySettings    `mapstructure:"retry"`
	Breaker  BreakerSettings  `mapstructure:"breaker"`
	Bulkhead BulkheadSettings `mapstructure:"bulkhead"`
}

// RetrySettings holds retry-with-backoff settings
type RetrySettings struct {
	MaxRetries      int           `mapstructure:"max_retries"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
	Multiplier      float64       `mapstructure:"multiplier"`
	JitterFactor    float64       `mapstructure:"jitter_factor"`
}

// BreakerSettings holds circuit breaker settings
type BreakerSettings struct {
	FailureRateThreshold float64       `mapstructure:"failure_rate_threshold"`
	MinRequests          uint32        `mapstructure:"min_requests"`
	Interval             time.Duration `mapstructure:"interval"`
	OpenTimeout          time.Duration `mapstructure:"open_timeout"`
	HalfOpenMaxCalls     uint32        `mapstructure:"half_open_max_calls"`
}

// BulkheadSettings holds concurrency limiting settings
type BulkheadSettings struct {
	MaxConcurrent int `mapstructure:"max_concurrent"`
}

// ResilienceConfig holds the three named policies wrapping the booking core
type ResilienceConfig struct {
	Availability        PolicyConfig `mapstructure:"availability"`
	BookingCreation     PolicyConfig `mapstructure:"booking_creation"`
	BookingCancellation PolicyConfig `mapstructure:"booking_cancellation"`
}

// Load reads configuration from config.yaml and PLANIFY_* environment
// variables, environment taking precedence.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/booking-service")

	v.SetEnvPrefix("PLANIFY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Missing config file is fine, defaults + env carry the service
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// IsDevelopment reports whether the service runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development" || c.App.Environment == ""
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "booking-service")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.version", "dev")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 5*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.dbname", "planify_booking")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 25)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.conn_max_idle_time", 30*time.Minute)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.pool_size", 100)
	v.SetDefault("redis.min_idle_conns", 10)

	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.client_id", "booking-service-producer")
	v.SetDefault("kafka.booking_created_topic", "booking-created")
	v.SetDefault("kafka.booking_events_topic", "booking-events")

	v.SetDefault("otel.enabled", false)
	v.SetDefault("otel.collector_addr", "localhost:4317")

	v.SetDefault("booking.default_currency", "EUR")

	for _, policy := range []string{"availability", "booking_creation", "booking_cancellation"} {
		v.SetDefault("resilience."+policy+".retry.max_retries", 3)
		v.SetDefault("resilience."+policy+".retry.initial_interval", 50*time.Millisecond)
		v.SetDefault("resilience."+policy+".retry.max_interval", 2*time.Second)
		v.SetDefault("resilience."+policy+".retry.multiplier", 2.0)
		v.SetDefault("resilience."+policy+".retry.jitter_factor", 0.1)
		v.SetDefault("resilience."+policy+".breaker.failure_rate_threshold", 0.5)
		v.SetDefault("resilience."+policy+".breaker.min_requests", 10)
		v.SetDefault("resilience."+policy+".breaker.interval", 30*time.Second)
		v.SetDefault("resilience."+policy+".breaker.open_timeout", 10*time.Second)
		v.SetDefault("resilience."+policy+".breaker.half_open_max_calls", 3)
	}
	// Only creation carries a bulkhead; reads and cancellations stay
	// unbounded.
	v.SetDefault("resilience.booking_creation.bulkhead.max_concurrent", 50)
}
