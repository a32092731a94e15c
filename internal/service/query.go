package service

import (
	"context"
	"fmt"

	"github.com/xiaot623/supportiq/internal/domain"
)

// GetWidgetConfig returns the public settings of an active chatbot.
func (s *Service) GetWidgetConfig(ctx context.Context, chatbotID string) (*domain.WidgetConfig, error) {
	bot, err := s.GetActiveChatbot(ctx, chatbotID)
	if err != nil {
		return nil, err
	}
	cfg := domain.WidgetConfigFor(bot)
	return &cfg, nil
}

// GetTranscript returns up to limit messages of a session in chronological
// order and whether more exist.
func (s *Service) GetTranscript(ctx context.Context, sessionID string, limit int) ([]domain.Message, bool, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, false, domain.ErrNotFound
	}

	messages, err := s.store.GetMessages(ctx, sessionID, limit)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get messages: %w", err)
	}
	if messages == nil {
		messages = []domain.Message{}
	}

	hasMore := false
	if limit > 0 && len(messages) == limit {
		total, err := s.store.CountMessages(ctx, sessionID)
		if err != nil {
			return nil, false, fmt.Errorf("failed to count messages: %w", err)
		}
		hasMore = total > limit
	}
	return messages, hasMore, nil
}
