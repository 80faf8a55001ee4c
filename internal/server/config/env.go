package config

import (
	"os"
	"strconv"
	"time"
)

// parseEnv overlays Config fields from environment variables. TOKEN_KEY and
// REFRESH_TOKEN_KEY name the two externally supplied signing secrets.
func parseEnv(config *Config) {
	config.EndpointAddrHTTP = getEnvAsString("ADDRESS", config.EndpointAddrHTTP)
	config.DatabaseDSN = getEnvAsString("DATABASE_DSN", config.DatabaseDSN)
	config.AccessTokenKey = getEnvAsString("TOKEN_KEY", config.AccessTokenKey)
	config.RefreshTokenKey = getEnvAsString("REFRESH_TOKEN_KEY", config.RefreshTokenKey)
	config.AccessTokenValidityDuration = getEnvAsDuration("ACCESS_TOKEN_VALIDITY", config.AccessTokenValidityDuration)
	config.RefreshTokenValidityDuration = getEnvAsDuration("REFRESH_TOKEN_VALIDITY", config.RefreshTokenValidityDuration)
	config.RedisAddr = getEnvAsString("REDIS_ADDR", config.RedisAddr)
	config.RedisPassword = getEnvAsString("REDIS_PASSWORD", config.RedisPassword)
	config.RedisDB = getEnvAsInt("REDIS_DB", config.RedisDB)
	config.S3RootUser = getEnvAsString("S3_ROOT_USER", config.S3RootUser)
	config.S3RootPassword = getEnvAsString("S3_ROOT_PASSWORD", config.S3RootPassword)
	config.S3Bucket = getEnvAsString("S3_BUCKET", config.S3Bucket)
	config.S3Region = getEnvAsString("S3_REGION", config.S3Region)
	config.S3BaseEndpoint = getEnvAsString("S3_BASE_ENDPOINT", config.S3BaseEndpoint)
	config.LoginRatePerMinute = getEnvAsInt("LOGIN_RATE_PER_MINUTE", config.LoginRatePerMinute)
	config.LoginRateBurst = getEnvAsInt("LOGIN_RATE_BURST", config.LoginRateBurst)
}

func getEnvAsString(key string, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
