package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	ProviderGemini = "gemini"
	ProviderGroq   = "groq"

	BackendSQLite = "sqlite"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config holds the configuration for the application.
type Config struct {
	// LLM
	LLMProvider       string
	GeminiAPIKey      string
	GeminiModel       string
	GroqAPIKey        string
	GroqModel         string
	GenerationTimeout time.Duration
	ResponseCachePath string

	// Persistence
	StoreBackend  string
	DatabasePath  string
	FileStorePath string
	RedisURL      string
	DataDir       string

	// HTTP
	Port           string
	AllowedOrigins []string
	JWTSecret      string

	// Logging
	LogLevel  string
	LogFormat string

	Location *time.Location

	// Telegram Config
	TelegramBotToken       string
	TelegramWebhookURL     string
	TelegramAllowedUserIDs []int64
	AdminTelegramID        int64

	// Ghost publishing, optional
	GhostURL      string
	GhostAdminKey string
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	provider := strings.ToLower(getEnv("LLM_PROVIDER", ProviderGemini))

	geminiAPIKey := os.Getenv("GEMINI_API_KEY")
	groqAPIKey := os.Getenv("GROQ_API_KEY")

	switch provider {
	case ProviderGemini:
		if geminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
		}
	case ProviderGroq:
		if groqAPIKey == "" {
			return nil, fmt.Errorf("GROQ_API_KEY environment variable not set")
		}
	default:
		return nil, fmt.Errorf("unsupported LLM_PROVIDER %q", provider)
	}

	timeout, err := time.ParseDuration(getEnv("GENERATION_TIMEOUT", "90s"))
	if err != nil {
		return nil, fmt.Errorf("invalid GENERATION_TIMEOUT: %w", err)
	}

	backend := strings.ToLower(getEnv("STORE_BACKEND", BackendSQLite))
	redisURL := os.Getenv("REDIS_URL")
	switch backend {
	case BackendSQLite, BackendFile, BackendMemory:
	case BackendRedis:
		if redisURL == "" {
			return nil, fmt.Errorf("REDIS_URL environment variable not set")
		}
	default:
		return nil, fmt.Errorf("unsupported STORE_BACKEND %q", backend)
	}

	loc, err := time.LoadLocation(getEnv("TIME_ZONE", "Local"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIME_ZONE: %w", err)
	}

	allowedIDs, err := parseIDs(os.Getenv("TELEGRAM_ALLOW_USER_IDS"))
	if err != nil {
		return nil, fmt.Errorf("invalid TELEGRAM_ALLOW_USER_IDS: %w", err)
	}

	var adminID int64
	if s := os.Getenv("ADMIN_TELEGRAM_ID"); s != "" {
		adminID, err = strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID: %w", err)
		}
	}

	dataDir := getEnv("DATA_DIR", "data")

	return &Config{
		LLMProvider:       provider,
		GeminiAPIKey:      geminiAPIKey,
		GeminiModel:       getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		GroqAPIKey:        groqAPIKey,
		GroqModel:         getEnv("GROQ_MODEL", "llama-3.3-70b-versatile"),
		GenerationTimeout: timeout,
		ResponseCachePath: os.Getenv("RESPONSE_CACHE_PATH"),

		StoreBackend:  backend,
		DatabasePath:  getEnv("DATABASE_PATH", dataDir+"/ecochef.db"),
		FileStorePath: getEnv("FILE_STORE_PATH", dataDir+"/store"),
		RedisURL:      redisURL,
		DataDir:       dataDir,

		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:5173")),
		JWTSecret:      os.Getenv("JWT_SECRET"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		Location: loc,

		TelegramBotToken:       os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramWebhookURL:     os.Getenv("TELEGRAM_WEBHOOK_URL"),
		TelegramAllowedUserIDs: allowedIDs,
		AdminTelegramID:        adminID,

		GhostURL:      strings.TrimRight(os.Getenv("GHOST_API_URL"), "/"),
		GhostAdminKey: os.Getenv("GHOST_ADMIN_API_KEY"),
	}, nil
}

// GhostEnabled reports whether recipe publishing is configured.
func (c *Config) GhostEnabled() bool {
	return c.GhostURL != "" && c.GhostAdminKey != ""
}

// AuthEnabled reports whether bearer tokens can be verified.
func (c *Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseIDs(s string) ([]int64, error) {
	var ids []int64
	for _, part := range splitList(s) {
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
