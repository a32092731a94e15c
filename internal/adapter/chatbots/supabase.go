// Package chatbots provides chatbot lookups beyond the local SQLite table:
// the dashboard's Supabase (PostgREST) table and a Redis read-through cache.
package chatbots

import (
	"context"
	"fmt"
	"time"

	"github.com/supabase-community/supabase-go"

	"github.com/xiaot623/supportiq/internal/domain"
	"github.com/xiaot623/supportiq/internal/repository"
)

// SupabaseSource reads chatbots from the dashboard database over PostgREST.
type SupabaseSource struct {
	client *supabase.Client
	table  string
}

var _ repository.ChatbotSource = (*SupabaseSource)(nil)

// supabaseChatbot mirrors the dashboard's Chatbot columns.
type supabaseChatbot struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	BusinessName   string    `json:"businessName"`
	SystemPrompt   string    `json:"systemPrompt"`
	PrimaryColor   string    `json:"primaryColor"`
	WelcomeMessage string    `json:"welcomeMessage"`
	Language       string    `json:"language"`
	IsActive       bool      `json:"isActive"`
	CreatedAt      time.Time `json:"createdAt"`
}

// NewSupabaseSource connects to a Supabase project.
func NewSupabaseSource(url, apiKey, table string) (*SupabaseSource, error) {
	if url == "" {
		return nil, fmt.Errorf("supabase URL is required")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("supabase API key is required")
	}
	client, err := supabase.NewClient(url, apiKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}
	return &SupabaseSource{client: client, table: table}, nil
}

// GetChatbot returns (nil, nil) when no row matches.
func (s *SupabaseSource) GetChatbot(ctx context.Context, id string) (*domain.Chatbot, error) {
	var rows []supabaseChatbot
	_, err := s.client.From(s.table).
		Select("*", "", false).
		Eq("id", id).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("failed to get chatbot: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	row := rows[0]
	return &domain.Chatbot{
		ID:             row.ID,
		Name:           row.Name,
		BusinessName:   row.BusinessName,
		SystemPrompt:   row.SystemPrompt,
		PrimaryColor:   row.PrimaryColor,
		WelcomeMessage: row.WelcomeMessage,
		Language:       row.Language,
		IsActive:       row.IsActive,
		CreatedAt:      row.CreatedAt,
	}, nil
}
