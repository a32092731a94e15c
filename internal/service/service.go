// Package service runs chat turns: session bookkeeping, the relay to the
// RAG backend, the local fallback and escalation side effects.
package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/xiaot623/supportiq/internal/adapter/llm"
	"github.com/xiaot623/supportiq/internal/config"
	"github.com/xiaot623/supportiq/internal/domain"
	"github.com/xiaot623/supportiq/internal/observability"
	"github.com/xiaot623/supportiq/internal/repository"
)

// Relay opens a streaming turn against the primary backend.
type Relay interface {
	Open(ctx context.Context, req *domain.RelayRequest) (io.ReadCloser, error)
}

type Service struct {
	store      repository.Store
	chatbots   repository.ChatbotSource
	relay      Relay
	llmClient  llm.LLMClient
	escalation *EscalationDetector
	tokens     TokenCounter
	config     *config.Config
	metrics    *observability.Metrics
	logger     *slog.Logger
	now        func() time.Time
}

// New wires a Service. chatbots may differ from store when chatbot
// configuration lives elsewhere; nil means store.
func New(store repository.Store, chatbots repository.ChatbotSource, relay Relay, llmClient llm.LLMClient,
	escalation *EscalationDetector, tokens TokenCounter, cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Service {
	if chatbots == nil {
		chatbots = store
	}
	if tokens == nil {
		tokens = HeuristicCounter{}
	}
	if metrics == nil {
		metrics = observability.NewNopMetrics()
	}
	if logger == nil {
		logger = observability.DiscardLogger()
	}
	return &Service{
		store:      store,
		chatbots:   chatbots,
		relay:      relay,
		llmClient:  llmClient,
		escalation: escalation,
		tokens:     tokens,
		config:     cfg,
		metrics:    metrics,
		logger:     logger.With("component", "service"),
		now:        time.Now,
	}
}
