package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server    ServerConfig
	DynamoDB  DynamoDBConfig
	Storage   StorageConfig
	Cognito   CognitoConfig
	LocalAuth LocalAuthConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DynamoDBConfig selects the DynamoDB backend when TableName is set.
type DynamoDBConfig struct {
	Endpoint  string
	Region    string
	TableName string
}

// StorageConfig holds the on-disk fallback used when no DynamoDB table is
// configured.
type StorageConfig struct {
	Dir string
}

// CognitoConfig selects the Cognito identity provider when ClientID is set.
type CognitoConfig struct {
	Region       string
	UserPoolID   string
	ClientID     string
	ClientSecret string
}

// LocalAuthConfig configures the in-process identity provider used for
// development when Cognito is not configured.
type LocalAuthConfig struct {
	TokenSecret string
	TokenExpiry time.Duration
}

type RedisConfig struct {
	Endpoint string
	Password string
	DB       int
}

type RateLimitConfig struct {
	MaxRequests int
	Window      time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		DynamoDB: DynamoDBConfig{
			Endpoint:  getEnv("DYNAMODB_ENDPOINT", ""),
			Region:    getEnv("DYNAMODB_REGION", "us-east-1"),
			TableName: getEnv("DYNAMODB_TABLE_NAME", ""),
		},
		Storage: StorageConfig{
			Dir: getEnv("STORAGE_DIR", "storage"),
		},
		Cognito: CognitoConfig{
			Region:       getEnv("COGNITO_REGION", "us-east-1"),
			UserPoolID:   getEnv("COGNITO_USER_POOL_ID", ""),
			ClientID:     getEnv("COGNITO_CLIENT_ID", ""),
			ClientSecret: getEnv("COGNITO_CLIENT_SECRET", ""),
		},
		LocalAuth: LocalAuthConfig{
			TokenSecret: getEnv("LOCAL_AUTH_TOKEN_SECRET", ""),
			TokenExpiry: getEnvAsDuration("LOCAL_AUTH_TOKEN_EXPIRY", time.Hour),
		},
		Redis: RedisConfig{
			Endpoint: getEnv("REDIS_ENDPOINT", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		RateLimit: RateLimitConfig{
			MaxRequests: getEnvAsInt("RATE_LIMIT_MAX_REQUESTS", 5),
			Window:      getEnvAsDuration("RATE_LIMIT_WINDOW", 60*time.Second),
		},
	}

	if cfg.Cognito.ClientID != "" && cfg.Cognito.ClientSecret == "" {
		return nil, fmt.Errorf("COGNITO_CLIENT_SECRET is required when COGNITO_CLIENT_ID is set")
	}

	if cfg.Cognito.ClientID == "" && cfg.LocalAuth.TokenSecret == "" {
		return nil, fmt.Errorf("LOCAL_AUTH_TOKEN_SECRET is required when Cognito is not configured")
	}

	return cfg, nil
}

// UseDynamoDB reports whether records should be persisted in DynamoDB rather
// than local JSON files.
func (c *Config) UseDynamoDB() bool {
	return c.DynamoDB.TableName != ""
}

// UseCognito reports whether sign-up and sign-in go through Cognito rather
// than the local provider.
func (c *Config) UseCognito() bool {
	return c.Cognito.ClientID != ""
}

// UseRedis reports whether rate limiting state is shared through Redis.
func (c *Config) UseRedis() bool {
	return c.Redis.Endpoint != ""
}

func getEnv(key, defaultValue string) string {
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
