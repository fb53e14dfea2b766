package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all configuration for the report service
type Config struct {
	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Server configuration
	Port string

	// Auth configuration
	JWTSecret string

	// RabbitMQ configuration
	RabbitMQHost       string
	RabbitMQPort       string
	RabbitMQUser       string
	RabbitMQPassword   string
	RabbitMQExchange   string
	RabbitMQRoutingKey string

	// Listing defaults
	DefaultPageSize int
	MaxPageSize     int

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		// Database defaults
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "server"),
		DBPassword: getEnv("DB_PASSWORD", "secret_app"),
		DBName:     getEnv("DB_NAME", "safexcx"),

		// Server defaults
		Port: getEnv("PORT", "8080"),

		// Auth defaults
		JWTSecret: getEnv("JWT_SECRET", "default-secret-change-in-production"),

		// RabbitMQ defaults
		RabbitMQHost:       getEnv("RABBITMQ_HOST", "localhost"),
		RabbitMQPort:       getEnv("RABBITMQ_PORT", "5672"),
		RabbitMQUser:       getEnv("RABBITMQ_USER", "guest"),
		RabbitMQPassword:   getEnv("RABBITMQ_PASSWORD", "guest"),
		RabbitMQExchange:   getEnv("RABBITMQ_EXCHANGE", "report_events"),
		RabbitMQRoutingKey: getEnv("RABBITMQ_ROUTING_KEY", "report.lifecycle"),

		// Listing defaults
		DefaultPageSize: getIntEnv("DEFAULT_PAGE_SIZE", 20),
		MaxPageSize:     getIntEnv("MAX_PAGE_SIZE", 100),

		// Logging defaults
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// GetAMQPURL builds the AMQP connection URL from the parts
func (c *Config) GetAMQPURL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/", c.RabbitMQUser, c.RabbitMQPassword, c.RabbitMQHost, c.RabbitMQPort)
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv gets an integer environment variable or returns a default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
