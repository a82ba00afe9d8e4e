package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port             string
	Environment      string
	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	// Only the first operator may register unless this is set
	AllowRegistration bool

	DBDriver    string
	SQLitePath  string
	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string

	LogLevel  string
	LogFormat string
	SentryDSN string

	// Gmail account the outreach is sent from
	GoogleClientID     string
	GoogleClientSecret string
	GmailAccountEmail  string
	GmailRefreshToken  string
	GoogleProjectID    string
	GooglePubSubTopic  string
	GoogleCredentials  string

	FirebaseCredentials string

	AIProvider      string
	AnthropicAPIKey string
	AnthropicModel  string
	GeminiApiKey    string
	OllamaBaseURL   string
	OllamaModel     string

	ChromaAPIKey   string
	ChromaTenant   string
	ChromaDatabase string

	MeilisearchHost   string
	MeilisearchAPIKey string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	IMAPHost        string
	IMAPPort        int
	IMAPUsername    string
	IMAPPassword    string
	IMAPAlertFolder string
	IMAPAlertSender string

	RulesFile string
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	accessExpiry := 15 * time.Minute
	if exp := os.Getenv("JWT_ACCESS_EXPIRY"); exp != "" {
		if parsed, err := time.ParseDuration(exp); err == nil {
			accessExpiry = parsed
		}
	}

	refreshExpiry := 168 * time.Hour // 7 days
	if exp := os.Getenv("JWT_REFRESH_EXPIRY"); exp != "" {
		if parsed, err := time.ParseDuration(exp); err == nil {
			refreshExpiry = parsed
		}
	}

	return &Config{
		Port:             getEnv("PORT", "8080"),
		Environment:      getEnv("APP_ENV", "development"),
		JWTSecret:        getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		JWTAccessExpiry:  accessExpiry,
		JWTRefreshExpiry: refreshExpiry,

		AllowRegistration: getEnv("ALLOW_REGISTRATION", "false") == "true",

		DBDriver:    getEnv("DB_DRIVER", "postgres"),
		SQLitePath:  getEnv("SQLITE_PATH", "outreach.db"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBUser:      getEnv("DB_USER", "postgres"),
		DBPassword:  getEnv("DB_PASSWORD", ""),
		DBName:      getEnv("DB_NAME", "outreach"),
		DBSSLMode:   getEnv("DB_SSLMODE", "disable"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
		SentryDSN: getEnv("SENTRY_DSN", ""),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GmailAccountEmail:  strings.ToLower(getEnv("GMAIL_ACCOUNT_EMAIL", "")),
		GmailRefreshToken:  getEnv("GMAIL_REFRESH_TOKEN", ""),
		GoogleProjectID:    getEnv("GOOGLE_PROJECT_ID", ""),
		GooglePubSubTopic:  getEnv("GOOGLE_PUBSUB_TOPIC", ""),
		GoogleCredentials:  getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),

		FirebaseCredentials: getEnv("FIREBASE_CREDENTIALS", ""),

		AIProvider:      getEnv("AI_PROVIDER", "auto"),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicModel:  getEnv("ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),
		GeminiApiKey:    getEnv("GEMINI_API_KEY", ""),
		OllamaBaseURL:   getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaModel:     getEnv("OLLAMA_MODEL", "llama3"),

		ChromaAPIKey:   getEnv("CHROMA_API_KEY", ""),
		ChromaTenant:   getEnv("CHROMA_TENANT", ""),
		ChromaDatabase: getEnv("CHROMA_DATABASE", ""),

		MeilisearchHost:   getEnv("MEILISEARCH_HOST", ""),
		MeilisearchAPIKey: getEnv("MEILISEARCH_API_KEY", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		IMAPHost:        getEnv("IMAP_HOST", ""),
		IMAPPort:        getEnvInt("IMAP_PORT", 993),
		IMAPUsername:    getEnv("IMAP_USERNAME", ""),
		IMAPPassword:    getEnv("IMAP_PASSWORD", ""),
		IMAPAlertFolder: getEnv("IMAP_ALERT_FOLDER", "INBOX"),
		IMAPAlertSender: getEnv("IMAP_ALERT_SENDER", "redfin.com"),

		RulesFile: getEnv("RULES_FILE", "config/rules.yaml"),
	}
}

// PostgresDSN prefers DATABASE_URL and falls back to the discrete DB_* settings.
func (c *Config) PostgresDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
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
