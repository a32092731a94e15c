package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/xiaot623/supportiq/internal/adapter/llm"
	"github.com/xiaot623/supportiq/internal/observability"
	"github.com/xiaot623/supportiq/internal/stream"
)

var errClientGone = errors.New("client gone")

// generateFallback answers turn directly from the LLM provider, emitting
// canonical frames as deltas arrive.
func (s *Service) generateFallback(ctx context.Context, turn *Turn, w stream.Writer, logger *slog.Logger) {
	req := &llm.ChatCompletionRequest{
		Model:     s.config.LLMModel,
		Messages:  BuildFallbackMessages(turn),
		MaxTokens: s.config.LLMMaxTokens,
	}

	var acc strings.Builder
	firstFrame := s.observeFirstFrame(turn, observability.PathFallback)
	usage, err := s.llmClient.CreateChatCompletionStream(ctx, req, func(chunk *llm.StreamChunk) error {
		if chunk.Delta == "" {
			return nil
		}
		if acc.Len() == 0 {
			firstFrame()
		}
		acc.WriteString(chunk.Delta)
		if err := w.WriteFrame(stream.TextDelta(chunk.Delta)); err != nil {
			return errors.Join(errClientGone, err)
		}
		return nil
	})

	switch {
	case errors.Is(err, errClientGone) || ctx.Err() != nil:
		s.metrics.ChatTurnsTotal.WithLabelValues(observability.PathFallback, stream.OutcomeAborted.String()).Inc()
		logger.Info("client aborted fallback stream, discarding partial reply", "chars", acc.Len())
		return
	case err != nil:
		s.metrics.ChatTurnsTotal.WithLabelValues(observability.PathFallback, "failed").Inc()
		logger.Error("fallback generation failed", "error", err)
		if err := w.WriteFrame(stream.ErrorFrame(fallbackFailedError, FallbackFailedText)); err != nil {
			logger.Debug("failed to write error frame", "error", err)
		}
		return
	}

	s.metrics.ChatTurnsTotal.WithLabelValues(observability.PathFallback, stream.OutcomeCompleted.String()).Inc()
	if acc.Len() > 0 {
		var tokens *int
		if usage != nil {
			n := usage.CompletionTokens
			tokens = &n
		}
		s.finishReply(ctx, turn, acc.String(), tokens, logger)
	}
	if err := w.WriteFrame(stream.Done(turn.Session.SessionID)); err != nil {
		logger.Debug("failed to write done frame", "error", err)
	}
}
