package config

import (
	"log"
	"os"
)

// DefaultWelcomeMessage opens a fresh brief chat session when
// BRIEF_WELCOME_MESSAGE is not set.
const DefaultWelcomeMessage = "Привет! Я помогу составить бриф для вашего контент-плана. Расскажите о вашем бизнесе: чем вы занимаетесь и кто ваша аудитория?"

// Config holds application configuration loaded from environment variables
type Config struct {
	DatabaseURL      string
	RedisURL         string
	Port             string
	Env              string
	SessionSecret    string
	EncryptionKey    string
	OpenRouterAPIKey string
	AppURL           string
	UploadDir        string
	WelcomeMessage   string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleCallbackURL  string

	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment variables
func Load() *Config {
	cfg := &Config{
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         getEnvWithDefault("REDIS_URL", "redis://localhost:6379/0"),
		Port:             getEnvWithDefault("PORT", "8080"),
		Env:              getEnvWithDefault("ENV", "development"),
		SessionSecret:    os.Getenv("SESSION_SECRET"),
		EncryptionKey:    os.Getenv("ENCRYPTION_KEY"),
		OpenRouterAPIKey: os.Getenv("OPENROUTER_API_KEY"),
		AppURL:           getEnvWithDefault("APP_URL", "http://localhost:3000"),
		UploadDir:        getEnvWithDefault("UPLOAD_DIR", "uploads"),
		WelcomeMessage:   getEnvWithDefault("BRIEF_WELCOME_MESSAGE", DefaultWelcomeMessage),

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleCallbackURL:  os.Getenv("GOOGLE_CALLBACK_URL"),

		LogLevel:  getEnvWithDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvWithDefault("LOG_FORMAT", "text"),
	}

	// Warn if using default session secret (insecure for production)
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = "dev-secret-change-in-production-use-openssl-rand-hex-32"
		log.Println("WARNING: Using default SESSION_SECRET. Generate a secure secret with: openssl rand -hex 32")
	}

	if cfg.OpenRouterAPIKey == "" {
		log.Println("WARNING: OPENROUTER_API_KEY not set. Brief chat and content plan generation will fail until it is configured.")
	}

	return cfg
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
