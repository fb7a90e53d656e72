package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Keys     APIKeys
	Chat     ChatConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type APIKeys struct {
	GoogleGemini string
	JwtSecret    string
	AuditTopic   string
}

type ChatConfig struct {
	ModelName             string
	DocumentPath          string
	CacheDisplayName      string
	CacheTTL              time.Duration
	CacheMetadataPath     string
	SessionDuration       time.Duration
	MaxRequestsPerSession int
	SweepInterval         time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log.csv"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Keys: APIKeys{
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			JwtSecret:    getEnv("JWT_SECRET", ""),
			AuditTopic:   getEnv("CHAT_AUDIT_TOPIC_NAME", "CHAT_TURN_COMPLETED"),
		},
		Chat: ChatConfig{
			ModelName:             getEnv("GEMINI_MODEL_NAME", "gemini-2.0-flash"),
			DocumentPath:          getEnv("REFERENCE_DOCUMENT_PATH", "data/bank_reference.pdf"),
			CacheDisplayName:      getEnv("CONTEXT_CACHE_DISPLAY_NAME", "bank-reference-cache"),
			CacheTTL:              getEnvAsDuration("CONTEXT_CACHE_TTL", time.Hour),
			CacheMetadataPath:     getEnv("CONTEXT_CACHE_METADATA_PATH", "cache_metadata.json"),
			SessionDuration:       getEnvAsDuration("SESSION_DURATION", time.Hour),
			MaxRequestsPerSession: getEnvAsInt("MAX_REQUESTS_PER_SESSION", 50),
			SweepInterval:         getEnvAsDuration("SESSION_SWEEP_INTERVAL", 5*time.Minute),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
