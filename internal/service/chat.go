package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xiaot623/supportiq/internal/adapter/ragclient"
	"github.com/xiaot623/supportiq/internal/domain"
	"github.com/xiaot623/supportiq/internal/observability"
	"github.com/xiaot623/supportiq/internal/stream"
)

// Visitor-facing texts.
const (
	InterruptedText    = "Sorry, the response was interrupted. Please try again."
	FallbackFailedText = "😅 Oops! I ran into a hiccup. Could you try asking that again?"

	streamInterruptedError = "Stream interrupted"
	fallbackFailedError    = "Failed to generate response"
)

// ErrInvalidRequest is returned when a chat request lacks message or botId.
var ErrInvalidRequest = errors.New("message and botId are required")

// Turn is a prepared chat turn: the user message is stored and the prompt
// inputs are loaded.
type Turn struct {
	Chatbot     *domain.Chatbot
	Session     *domain.Session
	UserMessage *domain.Message
	History     []domain.HistoryEntry
	Language    string
	// Knowledge is retrieved context for the fallback prompt. Retrieval
	// happens in the RAG backend, so it is usually empty here.
	Knowledge string

	startedAt time.Time
}

// RelayRequest is the body forwarded to the RAG backend.
func (t *Turn) RelayRequest() *domain.RelayRequest {
	history := t.History
	if history == nil {
		history = []domain.HistoryEntry{}
	}
	return &domain.RelayRequest{
		Message:      t.UserMessage.Content,
		ChatbotID:    t.Chatbot.ID,
		SessionID:    t.Session.SessionID,
		VisitorID:    t.Session.VisitorID,
		History:      history,
		Language:     t.Language,
		SystemPrompt: t.Chatbot.SystemPrompt,
	}
}

// GetActiveChatbot returns the chatbot or domain.ErrChatbotNotFound when it
// is unknown or inactive.
func (s *Service) GetActiveChatbot(ctx context.Context, chatbotID string) (*domain.Chatbot, error) {
	bot, err := s.chatbots.GetChatbot(ctx, chatbotID)
	if err != nil {
		return nil, fmt.Errorf("failed to get chatbot: %w", err)
	}
	if bot == nil || !bot.IsActive {
		return nil, domain.ErrChatbotNotFound
	}
	return bot, nil
}

// PrepareTurn validates the request, resolves the session, stores the user
// message and loads the windowed history. Nothing is written when the
// request is invalid or the chatbot is unavailable.
func (s *Service) PrepareTurn(ctx context.Context, req *domain.ChatRequest) (*Turn, error) {
	if req.Message == "" || req.BotID == "" {
		return nil, ErrInvalidRequest
	}
	startedAt := s.now()

	bot, err := s.GetActiveChatbot(ctx, req.BotID)
	if err != nil {
		return nil, err
	}

	language := req.Language
	if language == "" {
		language = bot.Language
	}
	if language == "" {
		language = domain.DefaultLanguage
	}

	session, err := s.ResolveSession(ctx, bot.ID, req.SessionID, language)
	if err != nil {
		return nil, err
	}

	userMsg, err := s.AppendMessage(ctx, session.SessionID, domain.RoleUser, req.Message, nil, nil)
	if err != nil {
		return nil, err
	}

	recent, err := s.LoadRecentHistory(ctx, session.SessionID, s.config.HistoryLimit, req.Message)
	if err != nil {
		return nil, err
	}

	return &Turn{
		Chatbot:     bot,
		Session:     session,
		UserMessage: userMsg,
		History:     WindowHistory(recent, s.config.HistoryTokenBudget, s.tokens),
		Language:    language,
		startedAt:   startedAt,
	}, nil
}

// StreamReply generates the assistant reply for turn onto w: through the
// RAG backend when it answers, else through the fallback generator. It
// persists at most one assistant message and returns once the stream is
// finished.
func (s *Service) StreamReply(ctx context.Context, turn *Turn, w stream.Writer) {
	s.metrics.ActiveStreams.Inc()
	defer s.metrics.ActiveStreams.Dec()

	logger := s.logger.With("session_id", turn.Session.SessionID, "chatbot_id", turn.Chatbot.ID)

	body, err := s.relay.Open(ctx, turn.RelayRequest())
	if err != nil {
		if ctx.Err() != nil {
			s.metrics.ChatTurnsTotal.WithLabelValues(observability.PathRelay, stream.OutcomeAborted.String()).Inc()
			logger.Info("client left before the relay answered")
			return
		}
		logger.Warn("rag backend unavailable, using fallback", "error", err)
		s.metrics.FallbacksTotal.WithLabelValues(fallbackReason(err)).Inc()
		s.generateFallback(ctx, turn, w, logger)
		return
	}
	defer body.Close()

	n := &stream.Normalizer{OnFirstLine: s.observeFirstFrame(turn, observability.PathRelay)}
	res := n.Pipe(ctx, body, w)
	s.metrics.ChatTurnsTotal.WithLabelValues(observability.PathRelay, res.Outcome.String()).Inc()

	switch res.Outcome {
	case stream.OutcomeAborted:
		logger.Info("client aborted stream, discarding partial reply", "chars", len(res.Text))
		return
	case stream.OutcomeInterrupted:
		logger.Warn("rag stream interrupted", "error", res.Err, "chars", len(res.Text))
		if err := w.WriteFrame(stream.ErrorFrame(streamInterruptedError, InterruptedText)); err != nil {
			logger.Debug("failed to write interruption frame", "error", err)
		}
	}

	if res.Text == "" {
		return
	}
	s.finishReply(ctx, turn, res.Text, nil, logger)
}

// finishReply stores the assistant message and runs escalation detection.
// Persistence failures are logged and swallowed since the visitor already
// saw the reply.
func (s *Service) finishReply(ctx context.Context, turn *Turn, text string, tokens *int, logger *slog.Logger) {
	// The reply is complete, so this must survive a client that
	// disconnects right after the last frame.
	ctx = context.WithoutCancel(ctx)
	if _, err := s.AppendMessage(ctx, turn.Session.SessionID, domain.RoleAssistant, text, tokens, nil); err != nil {
		s.metrics.PersistFailuresTotal.Inc()
		logger.Error("failed to persist assistant message", "error", err)
	}
	s.escalation.Inspect(ctx, turn.Session.SessionID, turn.Chatbot.ID, text, turn.UserMessage.Content)
}

func (s *Service) observeFirstFrame(turn *Turn, path string) func() {
	return func() {
		if turn.startedAt.IsZero() {
			return
		}
		s.metrics.FirstFrameSeconds.WithLabelValues(path).Observe(s.now().Sub(turn.startedAt).Seconds())
	}
}

func fallbackReason(err error) string {
	var statusErr *ragclient.StatusError
	if errors.As(err, &statusErr) {
		return "status"
	}
	return "unreachable"
}
