package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application's configuration values.
type Config struct {
	ServerURL      string        // WebSocket URL of the tournament stream
	ConnectTimeout time.Duration // How long a connect attempt may take
	RetryInitial   time.Duration // First reconnect delay
	RetryMax       time.Duration // Reconnect delay cap
}

// Load reads configuration from the environment, loading a .env file first if
// one is present. Unset keys keep their defaults.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[CONFIG] .env file could not be loaded: %v", err)
		}
	}

	return Config{
		ServerURL:      getEnv("SPECTATOR_SERVER_URL", "ws://localhost:8080/spectate"),
		ConnectTimeout: getEnvAsMillis("SPECTATOR_CONNECT_TIMEOUT_MS", 3000),
		RetryInitial:   getEnvAsMillis("SPECTATOR_RETRY_INITIAL_MS", 500),
		RetryMax:       getEnvAsMillis("SPECTATOR_RETRY_MAX_MS", 10000),
	}
}

// getEnv retrieves an environment variable or the fallback if unset.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvAsMillis retrieves an environment variable as a millisecond duration
// or the fallback if unset or not an integer.
func getEnvAsMillis(key string, fallback int) time.Duration {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return time.Duration(fallback) * time.Millisecond
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("[CONFIG] %s must be an integer, using default %dms: %v", key, fallback, err)
		return time.Duration(fallback) * time.Millisecond
	}
	return time.Duration(value) * time.Millisecond
}
