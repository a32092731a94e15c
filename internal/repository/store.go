// Package repository persists chatbots, sessions, messages and documents.
package repository

import (
	"context"

	"github.com/xiaot623/supportiq/internal/domain"
)

// ChatbotSource looks chatbots up by id. A missing chatbot is (nil, nil).
type ChatbotSource interface {
	GetChatbot(ctx context.Context, id string) (*domain.Chatbot, error)
}

// Store is the persistence surface used by the service layer.
type Store interface {
	ChatbotSource
	UpsertChatbot(ctx context.Context, bot *domain.Chatbot) error

	CreateSession(ctx context.Context, session *domain.Session) error
	GetSession(ctx context.Context, sessionID string) (*domain.Session, error)

	CreateMessage(ctx context.Context, message *domain.Message) error
	// GetRecentMessages returns up to limit messages, newest first.
	GetRecentMessages(ctx context.Context, sessionID string, limit int) ([]domain.Message, error)
	// GetMessages returns up to limit messages, oldest first.
	GetMessages(ctx context.Context, sessionID string, limit int) ([]domain.Message, error)
	CountMessages(ctx context.Context, sessionID string) (int, error)

	CreateDocument(ctx context.Context, doc *domain.Document) error
	GetDocument(ctx context.Context, id string) (*domain.Document, error)
	// UpdateDocumentStatus returns domain.ErrNotFound when no row matched.
	UpdateDocumentStatus(ctx context.Context, id string, status domain.DocumentStatus, chunkCount *int) (*domain.Document, error)

	Close() error
}

var _ Store = (*SQLiteStore)(nil)
