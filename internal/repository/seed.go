package repository

import (
	"context"

	"github.com/xiaot623/supportiq/internal/domain"
)

// DemoChatbotID is the id of the chatbot inserted by SeedDemo.
const DemoChatbotID = "demo-chatbot-id"

// DemoChatbot returns the demo support bot for "Acme Store".
func DemoChatbot() *domain.Chatbot {
	return &domain.Chatbot{
		ID:           DemoChatbotID,
		Name:         "Support Bot",
		BusinessName: "Acme Store",
		SystemPrompt: "You are a helpful customer support agent for Acme Store. \n" +
			"You help customers with questions about our products, orders, shipping, and returns.\n" +
			"Always be friendly, professional, and concise. \n" +
			"If you don't know the answer, say so and offer to escalate to a human agent.",
		PrimaryColor:   "#6366f1",
		WelcomeMessage: "Hi! Welcome to Acme Store support. How can I help you today?",
		Language:       domain.DefaultLanguage,
		IsActive:       true,
	}
}

// SeedDemo inserts the demo chatbot unless it already exists.
func SeedDemo(ctx context.Context, s Store) error {
	existing, err := s.GetChatbot(ctx, DemoChatbotID)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	return s.UpsertChatbot(ctx, DemoChatbot())
}
