package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const envPrefix = "BIZLEDGER_"

// parseEnv overlays BIZLEDGER_* environment variables onto config.
// Unparseable values are ignored and the current value is kept.
func parseEnv(config *Config) {
	config.EndpointAddrHTTP = getEnv("HTTP_ADDR", config.EndpointAddrHTTP)
	if v, ok := os.LookupEnv(envPrefix + "GRPC_ADDR"); ok {
		config.EndpointAddrGRPC = v
	}
	config.DatabaseDSN = getEnv("DATABASE_DSN", config.DatabaseDSN)
	config.SecretKey = getEnv("JWT_SECRET", config.SecretKey)
	config.AccessTokenValidityDuration = getEnvDuration("ACCESS_TTL", config.AccessTokenValidityDuration)
	config.RefreshTokenValidityDuration = getEnvDuration("REFRESH_TTL", config.RefreshTokenValidityDuration)
	config.BcryptCost = getEnvInt("BCRYPT_COST", config.BcryptCost)
	config.MaxFailedAttempts = getEnvInt("MAX_FAILED_ATTEMPTS", config.MaxFailedAttempts)
	config.LockoutDuration = getEnvDuration("LOCKOUT_DURATION", config.LockoutDuration)
	config.StrictRefresh = getEnvBool("STRICT_REFRESH", config.StrictRefresh)
	config.RevocationBackend = getEnv("REVOCATION", config.RevocationBackend)
	config.RedisAddr = getEnv("REDIS_ADDR", config.RedisAddr)
	config.LogLevel = getEnv("LOG_LEVEL", config.LogLevel)
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(envPrefix + key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(envPrefix + key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(envPrefix + key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(envPrefix + key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
