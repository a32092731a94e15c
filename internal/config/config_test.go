package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "http://localhost:8000", cfg.RAGBackendURL)
	assert.Equal(t, "llama-3.3-70b-versatile", cfg.LLMModel)
	assert.Equal(t, 1024, cfg.LLMMaxTokens)
	assert.Equal(t, 6, cfg.HistoryLimit)
	assert.Equal(t, 5, cfg.DocumentRetryAttempts)
	assert.Equal(t, 1500*time.Millisecond, cfg.DocumentRetryDelay)
	assert.Equal(t, ChatbotSourceSQLite, cfg.ChatbotSource)
	assert.Empty(t, cfg.EscalationWebhookURL)
}

func TestLoadAliases(t *testing.T) {
	t.Setenv("FASTAPI_URL", "http://rag:9000")
	t.Setenv("GROQ_API_KEY", "gsk-test")
	t.Setenv("N8N_WEBHOOK_URL", "http://n8n:5678")
	t.Setenv("RELAY_TIMEOUT_MS", "250")
	t.Setenv("SEED_DEMO", "false")

	cfg := Load()

	assert.Equal(t, "http://rag:9000", cfg.RAGBackendURL)
	assert.Equal(t, "gsk-test", cfg.LLMAPIKey)
	assert.Equal(t, "http://n8n:5678", cfg.EscalationWebhookURL)
	assert.Equal(t, 250*time.Millisecond, cfg.RelayTimeout)
	assert.False(t, cfg.SeedDemo)
}

func TestLoadPrimaryKeyWinsOverAlias(t *testing.T) {
	t.Setenv("RAG_BACKEND_URL", "http://primary")
	t.Setenv("FASTAPI_URL", "http://alias")
	t.Setenv("HISTORY_LIMIT", "not-a-number")

	cfg := Load()

	assert.Equal(t, "http://primary", cfg.RAGBackendURL)
	assert.Equal(t, 6, cfg.HistoryLimit)
}
