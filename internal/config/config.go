/**
 * Configuration for the OCR service
 *
 * Loads configuration from environment variables matching .env
 */

package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds service configuration
type Config struct {
	// HTTP configuration
	Port string

	// PostgreSQL configuration
	DatabaseURL string

	// Auth configuration
	JWTSecret     string
	TokenTTLHours int

	// Upload handling
	UploadDir     string
	MaxUploadSize int64

	// OCR configuration
	DefaultLanguage string
	TesseractPath   string

	// Node environment
	Env string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:            getEnvOrDefault("PORT", "8080"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		TokenTTLHours:   getEnvAsIntOrDefault("TOKEN_TTL_HOURS", 168), // 7 days
		UploadDir:       getEnvOrDefault("UPLOAD_DIR", "uploads"),
		MaxUploadSize:   getEnvAsInt64OrDefault("MAX_UPLOAD_SIZE", 10485760), // 10MB
		DefaultLanguage: getEnvOrDefault("DEFAULT_LANGUAGE", "eng"),
		TesseractPath:   getEnvOrDefault("TESSERACT_PATH", "/usr/bin/tesseract"),
		Env:             getEnvOrDefault("APP_ENV", "development"),
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.TokenTTLHours < 1 {
		return fmt.Errorf("TOKEN_TTL_HOURS must be positive, got %d", c.TokenTTLHours)
	}

	if c.MaxUploadSize < 1024 || c.MaxUploadSize > 104857600 { // 1KB to 100MB
		return fmt.Errorf("MAX_UPLOAD_SIZE must be between 1KB and 100MB, got %d", c.MaxUploadSize)
	}

	return nil
}

// getEnvOrDefault gets environment variable or returns default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault gets environment variable as int or returns default
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsInt64OrDefault gets environment variable as int64 or returns default
func getEnvAsInt64OrDefault(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}

	return value
}
