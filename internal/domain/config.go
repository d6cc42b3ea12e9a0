package domain

import (
	"time"
)

// Config represents the main application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	DynamoDB  DynamoDBConfig  `mapstructure:"dynamodb"`
	Inference InferenceConfig `mapstructure:"inference"`
	Email     EmailConfig     `mapstructure:"email"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// DynamoDBConfig represents the prediction table configuration.
// Endpoint is only set for local DynamoDB; empty means the SDK default.
type DynamoDBConfig struct {
	TableName   string `mapstructure:"table_name"`
	IndexName   string `mapstructure:"index_name"`
	Region      string `mapstructure:"region"`
	Endpoint    string `mapstructure:"endpoint"`
	EnsureTable bool   `mapstructure:"ensure_table"`
}

// InferenceConfig represents the external ML inference service
type InferenceConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	RateLimit int           `mapstructure:"rate_limit"`
}

// EmailConfig represents the SES contact-email configuration
type EmailConfig struct {
	Region    string `mapstructure:"region"`
	Source    string `mapstructure:"source"`
	Recipient string `mapstructure:"recipient"`
}

// CORSConfig collapses the allowed cross-origin policy into one place:
// origins, methods and headers are all configured here rather than
// scattered across entrypoints.
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
}

// AuthConfig represents optional bearer-token validation. Sign-up and
// sign-in live with the managed identity provider; when enabled, the
// API only verifies tokens against the shared secret.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Secret  string `mapstructure:"secret"`
}

// CacheConfig represents the prediction read cache
type CacheConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	RedisURL string        `mapstructure:"redis_url"`
	MaxItems int           `mapstructure:"max_items"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
