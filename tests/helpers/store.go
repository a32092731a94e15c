package helpers

import (
	"context"
	"testing"

	"github.com/xiaot623/supportiq/internal/domain"
	"github.com/xiaot623/supportiq/internal/repository"
)

func NewTestSQLiteStore(t *testing.T) *repository.SQLiteStore {
	t.Helper()

	s, err := repository.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create sqlite store: %v", err)
	}

	t.Cleanup(func() {
		_ = s.Close()
	})

	return s
}

// NewSeededStore returns an in-memory store holding the demo chatbot and
// an inactive chatbot with id "inactive-bot".
func NewSeededStore(t *testing.T) *repository.SQLiteStore {
	t.Helper()

	s := NewTestSQLiteStore(t)
	ctx := context.Background()
	if err := repository.SeedDemo(ctx, s); err != nil {
		t.Fatalf("failed to seed demo chatbot: %v", err)
	}
	inactive := repository.DemoChatbot()
	inactive.ID = "inactive-bot"
	inactive.IsActive = false
	if err := s.UpsertChatbot(ctx, inactive); err != nil {
		t.Fatalf("failed to seed inactive chatbot: %v", err)
	}
	return s
}

// Messages returns every message of a session, oldest first.
func Messages(t *testing.T, s repository.Store, sessionID string) []domain.Message {
	t.Helper()

	msgs, err := s.GetMessages(context.Background(), sessionID, 0)
	if err != nil {
		t.Fatalf("failed to list messages: %v", err)
	}
	return msgs
}
