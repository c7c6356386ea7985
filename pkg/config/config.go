package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMemory    = "memory"
	StorePostgres  = "postgres"
	StoreFirestore = "firestore"
)

type Config struct {
	Port      string
	LogLevel  string
	LogFormat string

	JWTSecret          string
	SessionExpiry      time.Duration
	SessionSweepPeriod time.Duration

	CORSAllowedOrigins []string
	AdminIdentities    []string

	GoogleClientID     string
	GoogleClientSecret string

	IMAPHost     string
	IMAPPort     int
	IMAPUsername string
	SMTPHost     string
	SMTPPort     int

	PreferencesStore    string
	DatabaseURL         string
	FirebaseCredentials string
	FirebaseProjectID   string

	AIProvider    string
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
	GeminiApiKey  string
	OllamaBaseURL string
	OllamaModel   string

	PageSize         int
	FetchConcurrency int
	ListTimeout      time.Duration
	FetchTimeout     time.Duration
	ClassifyTimeout  time.Duration
	SendTimeout      time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	databaseURL := getEnv("DATABASE_URL", "")
	defaultStore := StoreMemory
	if databaseURL != "" {
		defaultStore = StorePostgres
	}

	pageSize := getEnvInt("PAGE_SIZE", 10)
	if pageSize < 1 {
		pageSize = 10
	}
	concurrency := getEnvInt("FETCH_CONCURRENCY", 10)
	if concurrency < 1 {
		concurrency = 10
	}

	return &Config{
		Port:      getEnv("PORT", "8080"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		JWTSecret:          getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		SessionExpiry:      getEnvDuration("SESSION_EXPIRY", 24*time.Hour),
		SessionSweepPeriod: getEnvDuration("SESSION_SWEEP_PERIOD", 5*time.Minute),

		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173"),
		AdminIdentities:    getEnvList("ADMIN_IDENTITIES", ""),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),

		IMAPHost:     getEnv("IMAP_HOST", ""),
		IMAPPort:     getEnvInt("IMAP_PORT", 993),
		IMAPUsername: getEnv("IMAP_USERNAME", ""),
		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),

		PreferencesStore:    strings.ToLower(getEnv("PREFERENCES_STORE", defaultStore)),
		DatabaseURL:         databaseURL,
		FirebaseCredentials: getEnv("FIREBASE_CREDENTIALS", ""),
		FirebaseProjectID:   getEnv("FIREBASE_PROJECT_ID", ""),

		AIProvider:    strings.ToLower(getEnv("AI_PROVIDER", "auto")),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
		GeminiApiKey:  getEnv("GEMINI_API_KEY", ""),
		OllamaBaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaModel:   getEnv("OLLAMA_MODEL", "llama3"),

		PageSize:         pageSize,
		FetchConcurrency: concurrency,
		ListTimeout:      getEnvDuration("LIST_TIMEOUT", 15*time.Second),
		FetchTimeout:     getEnvDuration("FETCH_TIMEOUT", 15*time.Second),
		ClassifyTimeout:  getEnvDuration("CLASSIFY_TIMEOUT", 30*time.Second),
		SendTimeout:      getEnvDuration("SEND_TIMEOUT", 30*time.Second),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated variable, dropping blank entries
func getEnvList(key, defaultValue string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, defaultValue), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
