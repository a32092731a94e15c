// Package config provides configuration for the chat relay service.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the service configuration.
type Config struct {
	// Server settings
	HTTPPort     int // Public port for /chat, /v1, /metrics
	InternalPort int // Internal port for ingestion callbacks

	// Database settings
	DatabasePath string
	SeedDemo     bool

	// Primary relay (RAG backend)
	RAGBackendURL string
	RelayTimeout  time.Duration

	// Fallback LLM settings
	LLMBaseURL   string
	LLMAPIKey    string
	LLMModel     string
	LLMMaxTokens int
	LLMTimeout   time.Duration
	LLMMode      string

	// Escalation webhook
	EscalationWebhookURL string
	WebhookTimeout       time.Duration

	// History windowing
	HistoryLimit       int
	HistoryTokenBudget int
	Tokenizer          string

	// Internal callbacks
	InternalSecret        string
	DocumentRetryAttempts int
	DocumentRetryDelay    time.Duration

	// Chatbot lookup
	ChatbotSource        string
	SupabaseURL          string
	SupabaseKey          string
	SupabaseChatbotTable string
	RedisURL             string
	ChatbotCacheTTL      time.Duration

	// Operator websocket settings
	PingInterval   time.Duration
	WriteTimeout   time.Duration
	ReadTimeout    time.Duration
	MaxMessageSize int64

	// Logging
	LogLevel  string
	LogFormat string
}

const (
	ChatbotSourceSQLite   = "sqlite"
	ChatbotSourceSupabase = "supabase"

	TokenizerHeuristic = "heuristic"
	TokenizerTiktoken  = "tiktoken"
)

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		HTTPPort:              getEnvInt("HTTP_PORT", 8080),
		InternalPort:          getEnvInt("INTERNAL_PORT", 8081),
		DatabasePath:          getEnv("DATABASE_PATH", "supportiq.db"),
		SeedDemo:              getEnvBool("SEED_DEMO", true),
		RAGBackendURL:         getEnv("RAG_BACKEND_URL", getEnv("FASTAPI_URL", "http://localhost:8000")),
		RelayTimeout:          getEnvMillis("RELAY_TIMEOUT_MS", 120000),
		LLMBaseURL:            getEnv("LLM_BASE_URL", getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1")),
		LLMAPIKey:             getEnv("LLM_API_KEY", getEnv("GROQ_API_KEY", "")),
		LLMModel:              getEnv("LLM_MODEL", getEnv("GROQ_MODEL", "llama-3.3-70b-versatile")),
		LLMMaxTokens:          getEnvInt("LLM_MAX_TOKENS", 1024),
		LLMTimeout:            getEnvMillis("LLM_TIMEOUT_MS", 60000),
		LLMMode:               getEnv("LLM_MODE", ""),
		EscalationWebhookURL:  getEnv("ESCALATION_WEBHOOK_URL", getEnv("N8N_WEBHOOK_URL", "")),
		WebhookTimeout:        getEnvMillis("WEBHOOK_TIMEOUT_MS", 5000),
		HistoryLimit:          getEnvInt("HISTORY_LIMIT", 6),
		HistoryTokenBudget:    getEnvInt("HISTORY_TOKEN_BUDGET", 0),
		Tokenizer:             getEnv("TOKENIZER", TokenizerHeuristic),
		InternalSecret:        getEnv("INTERNAL_SECRET", "supportiq-internal"),
		DocumentRetryAttempts: getEnvInt("DOCUMENT_RETRY_ATTEMPTS", 5),
		DocumentRetryDelay:    getEnvMillis("DOCUMENT_RETRY_DELAY_MS", 1500),
		ChatbotSource:         getEnv("CHATBOT_SOURCE", ChatbotSourceSQLite),
		SupabaseURL:           getEnv("SUPABASE_URL", ""),
		SupabaseKey:           getEnv("SUPABASE_KEY", ""),
		SupabaseChatbotTable:  getEnv("SUPABASE_CHATBOT_TABLE", "Chatbot"),
		RedisURL:              getEnv("REDIS_URL", ""),
		ChatbotCacheTTL:       getEnvMillis("CHATBOT_CACHE_TTL_MS", 60000),
		PingInterval:          getEnvMillis("WS_PING_INTERVAL_MS", 30000),
		WriteTimeout:          getEnvMillis("WS_WRITE_TIMEOUT_MS", 10000),
		ReadTimeout:           getEnvMillis("WS_READ_TIMEOUT_MS", 60000),
		MaxMessageSize:        int64(getEnvInt("WS_MAX_MESSAGE_SIZE", 65536)),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		LogFormat:             getEnv("LOG_FORMAT", "text"),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvMillis(key string, defaultMillis int) time.Duration {
	return time.Duration(getEnvInt(key, defaultMillis)) * time.Millisecond
}
