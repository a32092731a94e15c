package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/xiaot623/supportiq/internal/adapter/chatbots"
	"github.com/xiaot623/supportiq/internal/adapter/llm"
	"github.com/xiaot623/supportiq/internal/adapter/ragclient"
	"github.com/xiaot623/supportiq/internal/adapter/webhook"
	"github.com/xiaot623/supportiq/internal/config"
	"github.com/xiaot623/supportiq/internal/hub"
	"github.com/xiaot623/supportiq/internal/observability"
	"github.com/xiaot623/supportiq/internal/repository"
	"github.com/xiaot623/supportiq/internal/service"
	"github.com/xiaot623/supportiq/internal/tasks"
	handler "github.com/xiaot623/supportiq/internal/transport/http"
	"github.com/xiaot623/supportiq/policy"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()
	logger := observability.NewLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("supportiq stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting supportiq",
		"http_port", cfg.HTTPPort,
		"internal_port", cfg.InternalPort,
		"database", cfg.DatabasePath,
		"rag_backend", cfg.RAGBackendURL,
		"llm_base_url", cfg.LLMBaseURL,
		"chatbot_source", cfg.ChatbotSource,
	)

	// Initialize store
	db, err := repository.NewSQLiteStore(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	if cfg.SeedDemo {
		if err := repository.SeedDemo(ctx, db); err != nil {
			return fmt.Errorf("failed to seed demo chatbot: %w", err)
		}
	}

	chatbotSource, err := newChatbotSource(cfg, db, logger)
	if err != nil {
		return err
	}

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg)

	// Initialize policy engine
	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		return fmt.Errorf("failed to initialize policy engine: %w", err)
	}

	// Operator feed
	operators := hub.NewHub(logger)
	go operators.Run()
	wsServer := hub.NewServer(hub.ServerConfig{
		PingInterval:   cfg.PingInterval,
		WriteTimeout:   cfg.WriteTimeout,
		ReadTimeout:    cfg.ReadTimeout,
		MaxMessageSize: cfg.MaxMessageSize,
	}, operators)

	// Escalation side effects
	runner := tasks.NewDetached(cfg.WebhookTimeout, logger)
	detector := service.NewEscalationDetector(policyEngine, service.DefaultEscalationPhrases, runner, metrics, logger)
	if hook := webhook.NewClient(cfg.EscalationWebhookURL, cfg.WebhookTimeout); hook.Enabled() {
		detector.AddNotifier("webhook", hook)
	} else {
		logger.Info("escalation webhook disabled")
	}
	detector.AddNotifier("operators", operators)

	// Initialize clients
	relay := ragclient.NewClient(cfg.RAGBackendURL, cfg.RelayTimeout)
	llmClient := llm.NewLLMClient(cfg.LLMMode, cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMTimeout)
	tokens := service.NewTokenCounter(cfg.Tokenizer, logger)

	// Initialize service
	svc := service.New(db, chatbotSource, relay, llmClient, detector, tokens, cfg, metrics, logger)

	externalServer := handler.NewExternalServer(svc, wsServer, reg, logger)
	internalServer := handler.NewInternalServer(svc, cfg.InternalSecret, logger)

	errCh := make(chan error, 2)

	// Start external server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := externalServer.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("external server: %w", err)
		}
	}()

	// Start internal server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.InternalPort)
		if err := internalServer.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("internal server: %w", err)
		}
	}()

	logger.Info("external API started", "port", cfg.HTTPPort)
	logger.Info("internal API started", "port", cfg.InternalPort)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
	case runErr = <-errCh:
		logger.Error("server failed, shutting down", "error", runErr)
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := externalServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("failed to shutdown external server gracefully", "error", err)
	}
	if err := internalServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("failed to shutdown internal server gracefully", "error", err)
	}
	if err := runner.Wait(shutdownCtx); err != nil {
		logger.Warn("detached tasks still running at shutdown", "error", err)
	}
	operators.Stop()

	logger.Info("supportiq stopped")
	return runErr
}

// newChatbotSource picks where chatbot configuration is read from and puts
// the Redis cache in front of it when configured.
func newChatbotSource(cfg *config.Config, db *repository.SQLiteStore, logger *slog.Logger) (repository.ChatbotSource, error) {
	var source repository.ChatbotSource = db
	switch strings.ToLower(cfg.ChatbotSource) {
	case "", config.ChatbotSourceSQLite:
	case config.ChatbotSourceSupabase:
		sb, err := chatbots.NewSupabaseSource(cfg.SupabaseURL, cfg.SupabaseKey, cfg.SupabaseChatbotTable)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize supabase chatbot source: %w", err)
		}
		source = sb
	default:
		return nil, fmt.Errorf("unknown chatbot source %q", cfg.ChatbotSource)
	}

	if cfg.RedisURL == "" {
		return source, nil
	}
	client, err := chatbots.NewRedisClient(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	logger.Info("chatbot cache enabled", "ttl", cfg.ChatbotCacheTTL)
	return chatbots.NewCache(source, client, cfg.ChatbotCacheTTL, logger), nil
}
