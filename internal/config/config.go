package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort string

	// Store selection: "dynamo" for production, "sqlite" for local work.
	StoreBackend string
	SQLitePath   string
	AWSRegion    string
	TablePrefix  string

	DiscordClientID     string
	DiscordClientSecret string
	DiscordRedirectURI  string
	DiscordBotToken     string

	GeminiAPIKey  string
	GeminiBaseURL string
	GeminiModel   string

	AlertFromEmail string
	AlertToEmail   string

	HTTPTimeout time.Duration
	Debug       bool
}

// Load reads configuration from environment variables with sensible defaults.
// A local .env file is honored when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort:          getEnv("PORT", "8080"),
		StoreBackend:        getEnv("STORE_BACKEND", "dynamo"),
		SQLitePath:          getEnv("SQLITE_PATH", "./wordwebs.db"),
		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		TablePrefix:         getEnv("TABLE_PREFIX", "wordwebs"),
		DiscordClientID:     os.Getenv("DISCORD_CLIENT_ID"),
		DiscordClientSecret: os.Getenv("DISCORD_CLIENT_SECRET"),
		DiscordRedirectURI:  os.Getenv("DISCORD_REDIRECT_URI"),
		DiscordBotToken:     os.Getenv("DISCORD_BOT_TOKEN"),
		GeminiAPIKey:        os.Getenv("GEMINI_API_KEY"),
		GeminiBaseURL:       getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/openai/"),
		GeminiModel:         getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		AlertFromEmail:      os.Getenv("ALERT_FROM_EMAIL"),
		AlertToEmail:        os.Getenv("ALERT_TO_EMAIL"),
		HTTPTimeout:         15 * time.Second,
		Debug:               getBoolEnv("DEBUG", false),
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getBoolEnv reads a boolean environment variable or returns a default value
func getBoolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
