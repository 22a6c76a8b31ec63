package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// Create a new instance of the logger
// Configure it to log at the desired level
// and format it as JSON for structured logging
var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	environment := GetEnvWithDefault("APP_ENV", "development")
	switch environment {
	case "development":
		log.SetLevel(logrus.DebugLevel)
	case "production":
		log.SetLevel(logrus.ErrorLevel)
	default:
		// Default to info level for other environments
		log.SetLevel(logrus.InfoLevel)
	}
}

// Client secret storage policies. Exactly one is active system-wide; the
// policy only affects how the stored value is interpreted, never the wire
// format of the presented secret.
const (
	SecretPolicyPlain     = "plain"
	SecretPolicyHashed    = "hashed"
	SecretPolicyEncrypted = "encrypted"
)

// Config used for the application configuration, loading the input from environment variables
type Config struct {
	// Server Configuration
	Port int    `json:"port"`
	Host string `json:"host"`

	// ServerURL is the canonical public URL of this server; used as both
	// issuer and audience of minted JWTs and to locate the JWKS endpoint.
	ServerURL string `json:"server_url"`

	// ServerSecret is the master secret for symmetric encryption of key
	// material and encrypted-policy client secrets.
	ServerSecret string `json:"server_secret"`

	// AuthBackendURL is the base URL of the identity backend that issues
	// and validates browser sessions and API keys.
	AuthBackendURL string `json:"auth_backend_url"`

	// Database configuration
	DatabaseDriver string `json:"database_driver"`
	DatabaseURL    string `json:"database_url"`
	DBName         string `json:"db_name"`
	DBUser         string `json:"db_user"`
	DBPassword     string `json:"db_password"`

	// OAuth2 lifetimes (seconds)
	CodeTTL         int `json:"code_ttl"`
	AccessTokenTTL  int `json:"access_token_ttl"`
	RefreshTokenTTL int `json:"refresh_token_ttl"`

	// Scopes the server will accept on authorization requests.
	Scopes []string `json:"scopes"`

	// ClientSecretPolicy selects how client secrets are stored:
	// plain, hashed or encrypted.
	ClientSecretPolicy string `json:"client_secret_policy"`

	// AllowPlainCodeChallenge permits the "plain" PKCE method.
	AllowPlainCodeChallenge bool `json:"allow_plain_code_challenge"`

	// Logging configuration
	LogLevel string `json:"log_level"`
}

// String returns a string representation of Config with sensitive data masked
func (c *Config) String() string {
	return fmt.Sprintf("Config{Port: %d, Host: %s, ServerURL: %s, AuthBackendURL: %s, DatabaseURL: %s, DBName: %s, DBUser: %s, DBPassword: [REDACTED], ServerSecret: [REDACTED], CodeTTL: %d, AccessTokenTTL: %d, RefreshTokenTTL: %d, ClientSecretPolicy: %s, LogLevel: %s}",
		c.Port, c.Host, c.ServerURL, c.AuthBackendURL, maskDatabaseURL(c.DatabaseURL), c.DBName, c.DBUser, c.CodeTTL, c.AccessTokenTTL, c.RefreshTokenTTL, c.ClientSecretPolicy, c.LogLevel)
}

// maskDatabaseURL masks password in database URL
func maskDatabaseURL(dbURL string) string {
	if dbURL == "" {
		return ""
	}

	parsed, err := url.Parse(dbURL)
	if err != nil {
		return "[REDACTED_INVALID_URL]"
	}

	if parsed.User != nil {
		// Replace password with [REDACTED]
		parsed.User = url.UserPassword(parsed.User.Username(), "[REDACTED]")
	}

	return parsed.String()
}

// LoadConfig reads the configuration from environment variables and returns a Config struct.
// It validates required values like SERVER_SECRET and the secret storage policy.
func LoadConfig() (*Config, error) {
	log.Info("Loading configuration from environment variables")
	port, err := strconv.Atoi(GetEnvWithDefault("APP_PORT", "8080"))
	if err != nil {
		return nil, err
	}

	serverSecret := GetEnvWithDefault("SERVER_SECRET", "")
	if serverSecret == "" {
		return nil, errors.New("SERVER_SECRET environment variable is required")
	}

	serverURL := GetEnvWithDefault("SERVER_URL", "http://localhost:8080")
	if _, err := url.ParseRequestURI(serverURL); err != nil {
		return nil, fmt.Errorf("invalid SERVER_URL format: %s", serverURL)
	}

	policy := GetEnvWithDefault("CLIENT_SECRET_POLICY", SecretPolicyPlain)
	switch policy {
	case SecretPolicyPlain, SecretPolicyHashed, SecretPolicyEncrypted:
	default:
		return nil, fmt.Errorf("invalid CLIENT_SECRET_POLICY: %s (supported: plain, hashed, encrypted)", policy)
	}

	config := &Config{
		Port:                    port,
		Host:                    GetEnvWithDefault("APP_HOST", "localhost"),
		ServerURL:               strings.TrimRight(serverURL, "/"),
		ServerSecret:            serverSecret,
		AuthBackendURL:          strings.TrimRight(GetEnvWithDefault("AUTH_BACKEND_URL", serverURL), "/"),
		DatabaseDriver:          GetEnvWithDefault("DATABASE_DRIVER", "sqlite"),
		DatabaseURL:             GetEnvWithDefault("DATABASE_URL", ""),
		DBName:                  GetEnvWithDefault("DB_NAME", "taskhub"),
		DBUser:                  GetEnvWithDefault("DB_USER", "user"),
		DBPassword:              GetEnvWithDefault("DB_PASSWORD", "password"),
		CodeTTL:                 GetEnvAsType("CODE_TTL_SECONDS", 600),
		AccessTokenTTL:          GetEnvAsType("ACCESS_TOKEN_TTL_SECONDS", 3600),
		RefreshTokenTTL:         GetEnvAsType("REFRESH_TOKEN_TTL_SECONDS", 604800),
		Scopes:                  strings.Fields(GetEnvWithDefault("SCOPES", "openid profile email offline_access")),
		ClientSecretPolicy:      policy,
		AllowPlainCodeChallenge: GetEnvAsType("ALLOW_PLAIN_CODE_CHALLENGE", true),
		LogLevel:                GetEnvWithDefault("LOG_LEVEL", "info"),
	}
	log.Infof("Configuration loaded: %s", config.String())
	return config, nil
}

// Helper to get environment with default values
func GetEnvWithDefault(key, defaultValue string) string {
	log.Tracef("Getting environment variable: %s", key)
	value := os.Getenv(key)
	if value == "" {
		log.Warnf("Environment variable %s not set, using default value: %s", key, defaultValue)
		return defaultValue
	}
	return value
}

// GetEnvAsType retrieves an environment variable and converts it to the specified type
// using generic type handling.
func GetEnvAsType[T any](key string, defaultValue T) T {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var result T
	switch any(result).(type) {
	case int:
		intValue, err := strconv.Atoi(value)
		if err != nil {
			return defaultValue
		}
		return any(intValue).(T)
	case string:
		return any(value).(T)
	case bool:
		boolValue, err := strconv.ParseBool(value)
		if err != nil {
			return defaultValue
		}
		return any(boolValue).(T)
	default:
		return defaultValue // Fallback for unsupported types
	}
}
