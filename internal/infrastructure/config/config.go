package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// ProviderConfig holds the credentials for one external identity provider
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	// Tenant is only meaningful for Microsoft; defaults to "common"
	Tenant string
}

// Config holds the application configuration
type Config struct {
	// Database configuration
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string

	// Server configuration
	ServerPort int

	// AccountLinkingStrategy is "single" or "multiple"
	AccountLinkingStrategy string

	// External identity providers
	Google    ProviderConfig
	GitHub    ProviderConfig
	Microsoft ProviderConfig
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env from project root
	_ = godotenv.Load()

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, err
	}

	serverPort, err := strconv.Atoi(getEnv("PORT", "8080"))
	if err != nil {
		return nil, err
	}

	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     dbPort,
		DBUser:     getEnv("DB_USER", "identity"),
		DBPassword: getEnv("DB_PASSWORD", "identity"),
		DBName:     getEnv("DB_NAME", "identity"),

		ServerPort: serverPort,

		AccountLinkingStrategy: getEnv("ACCOUNT_LINKING_STRATEGY", "single"),

		Google: ProviderConfig{
			ClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			ClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			RedirectURL:  getEnv("GOOGLE_REDIRECT_URL", ""),
		},
		GitHub: ProviderConfig{
			ClientID:     getEnv("GITHUB_CLIENT_ID", ""),
			ClientSecret: getEnv("GITHUB_CLIENT_SECRET", ""),
			RedirectURL:  getEnv("GITHUB_REDIRECT_URL", ""),
		},
		Microsoft: ProviderConfig{
			ClientID:     getEnv("MICROSOFT_CLIENT_ID", ""),
			ClientSecret: getEnv("MICROSOFT_CLIENT_SECRET", ""),
			RedirectURL:  getEnv("MICROSOFT_REDIRECT_URL", ""),
			Tenant:       getEnv("MICROSOFT_TENANT", "common"),
		},
	}, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
