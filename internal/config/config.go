// Package config provides configuration management for the MedFlow API.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/medflowai/medflow-api/internal/domain"
)

// Manager loads and validates application configuration using Viper
type Manager struct {
	config *domain.Config
}

// NewManager creates a new configuration manager
func NewManager() (*Manager, error) {
	m := &Manager{}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

// loadConfig loads configuration from various sources
func (m *Manager) loadConfig() error {
	// Set configuration file name and paths
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/medflow-api/")

	// Set environment variable prefix and enable automatic env binding
	viper.SetEnvPrefix("MEDFLOW")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Set default values
	m.setDefaults()

	// Read configuration file (optional - will use defaults and env vars if not found)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using defaults and environment variables
	}

	// Unmarshal configuration into struct
	config := &domain.Config{}
	if err := viper.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.config = config
	return nil
}

// setDefaults sets default configuration values
func (m *Manager) setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 3000)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")

	// DynamoDB defaults
	viper.SetDefault("dynamodb.table_name", "Predictions")
	viper.SetDefault("dynamodb.index_name", "GSI1")
	viper.SetDefault("dynamodb.region", "eu-north-1")
	viper.SetDefault("dynamodb.endpoint", "")
	viper.SetDefault("dynamodb.ensure_table", false)

	// Inference service defaults
	viper.SetDefault("inference.base_url", "http://localhost:8000")
	viper.SetDefault("inference.timeout", "10s")
	viper.SetDefault("inference.rate_limit", 10)

	// Email defaults
	viper.SetDefault("email.region", "eu-north-1")
	viper.SetDefault("email.source", "medflowai.co@gmail.com")
	viper.SetDefault("email.recipient", "medflowai.co@gmail.com")

	// CORS defaults
	viper.SetDefault("cors.allowed_origins", []string{"http://localhost:5173"})
	viper.SetDefault("cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	viper.SetDefault("cors.allowed_headers", []string{"Origin", "Content-Type", "Authorization"})
	viper.SetDefault("cors.allow_credentials", true)

	// Auth defaults
	viper.SetDefault("auth.enabled", false)
	viper.SetDefault("auth.secret", "")

	// Cache defaults
	viper.SetDefault("cache.enabled", false)
	viper.SetDefault("cache.redis_url", "redis://localhost:6379")
	viper.SetDefault("cache.max_items", 1000)
	viper.SetDefault("cache.ttl", "24h")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
}

// GetConfig returns the complete configuration
func (m *Manager) GetConfig() *domain.Config {
	return m.config
}

// GetServerConfig returns server configuration
func (m *Manager) GetServerConfig() *domain.ServerConfig {
	return &m.config.Server
}

// GetDynamoDBConfig returns the prediction table configuration
func (m *Manager) GetDynamoDBConfig() *domain.DynamoDBConfig {
	return &m.config.DynamoDB
}

// GetInferenceConfig returns the inference service configuration
func (m *Manager) GetInferenceConfig() *domain.InferenceConfig {
	return &m.config.Inference
}

// GetEmailConfig returns the contact email configuration
func (m *Manager) GetEmailConfig() *domain.EmailConfig {
	return &m.config.Email
}

// Reload reloads the configuration
func (m *Manager) Reload() error {
	return m.loadConfig()
}

// Validate validates the configuration
func (m *Manager) Validate() error {
	config := m.config

	// Validate server configuration
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	// Validate storage configuration
	if config.DynamoDB.TableName == "" {
		return fmt.Errorf("dynamodb table name is required")
	}
	if config.DynamoDB.IndexName == "" {
		return fmt.Errorf("dynamodb index name is required")
	}
	if config.DynamoDB.Region == "" {
		return fmt.Errorf("dynamodb region is required")
	}

	// Validate inference service configuration
	if config.Inference.BaseURL == "" {
		return fmt.Errorf("inference base URL is required")
	}
	if config.Inference.Timeout <= 0 {
		return fmt.Errorf("inference timeout must be positive")
	}

	// Validate email configuration
	if config.Email.Source == "" {
		return fmt.Errorf("email source address is required")
	}
	if config.Email.Recipient == "" {
		return fmt.Errorf("email recipient address is required")
	}

	// Auth secret is mandatory once token validation is on
	if config.Auth.Enabled && config.Auth.Secret == "" {
		return fmt.Errorf("auth secret is required when auth is enabled")
	}

	// Validate cache configuration
	if config.Cache.Enabled && config.Cache.RedisURL == "" {
		return fmt.Errorf("redis URL is required when cache is enabled")
	}

	// Validate logging configuration
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	return nil
}

// IsProduction returns true if running in production mode
func (m *Manager) IsProduction() bool {
	return strings.ToLower(viper.GetString("environment")) == "production"
}

// IsDevelopment returns true if running in development mode
func (m *Manager) IsDevelopment() bool {
	env := strings.ToLower(viper.GetString("environment"))
	return env == "development" || env == "dev" || env == ""
}
