package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/xiaot623/supportiq/internal/domain"
)

// ResolveSession returns the supplied session when it exists, otherwise it
// creates one. An existing session is never modified.
func (s *Service) ResolveSession(ctx context.Context, chatbotID, suppliedSessionID, language string) (*domain.Session, error) {
	if suppliedSessionID != "" {
		existing, err := s.store.GetSession(ctx, suppliedSessionID)
		if err != nil {
			return nil, fmt.Errorf("failed to get session: %w", err)
		}
		if existing != nil {
			return existing, nil
		}
	}

	session := &domain.Session{
		SessionID: uuid.New().String(),
		ChatbotID: chatbotID,
		VisitorID: visitorID(suppliedSessionID),
		Language:  language,
		CreatedAt: s.now(),
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// visitorID derives the visitor from a client session id of the form
// "<visitor>:<suffix>", or generates a short random one.
func visitorID(suppliedSessionID string) string {
	if suppliedSessionID != "" {
		prefix, _, _ := strings.Cut(suppliedSessionID, ":")
		if prefix != "" {
			return prefix
		}
	}
	return uuid.New().String()[:8]
}

// AppendMessage inserts one message.
func (s *Service) AppendMessage(ctx context.Context, sessionID string, role domain.Role, content string, tokens *int, confidence *float64) (*domain.Message, error) {
	msg := &domain.Message{
		MessageID:  "msg_" + uuid.New().String(),
		SessionID:  sessionID,
		Role:       role,
		Content:    content,
		Tokens:     tokens,
		Confidence: confidence,
		CreatedAt:  s.now(),
	}
	if err := s.store.CreateMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}
	return msg, nil
}

// LoadRecentHistory returns up to limit recent messages, oldest first,
// without any message whose content equals current.
func (s *Service) LoadRecentHistory(ctx context.Context, sessionID string, limit int, current string) ([]domain.Message, error) {
	recent, err := s.store.GetRecentMessages(ctx, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	history := make([]domain.Message, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		if recent[i].Content == current {
			continue
		}
		history = append(history, recent[i])
	}
	return history, nil
}
