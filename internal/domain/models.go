package domain

import "time"

// Chatbot is the tenant-configured bot a conversation runs against.
type Chatbot struct {
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

// Session is one visitor conversation with a chatbot.
type Session struct {
	SessionID string    `json:"sessionId"`
	ChatbotID string    `json:"chatbotId"`
	VisitorID string    `json:"visitorId"`
	Language  string    `json:"language"`
	CreatedAt time.Time `json:"createdAt"`
}

// Message is an immutable turn inside a session.
type Message struct {
	MessageID  string    `json:"id"`
	SessionID  string    `json:"sessionId"`
	Role       Role      `json:"role"`
	Content    string    `json:"content"`
	Tokens     *int      `json:"tokens,omitempty"`
	Confidence *float64  `json:"confidence,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Document is a knowledge-base source tracked for ingestion status.
type Document struct {
	ID         string         `json:"id"`
	ChatbotID  string         `json:"chatbotId"`
	Name       string         `json:"name"`
	Type       string         `json:"type"`
	Status     DocumentStatus `json:"status"`
	ChunkCount int            `json:"chunkCount"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

// HistoryEntry is a provider-agnostic prior turn.
type HistoryEntry struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Escalation is the payload sent when a human handoff is requested.
type Escalation struct {
	SessionID string `json:"sessionId"`
	ChatbotID string `json:"chatbotId"`
	Message   string `json:"message"`
	Type      string `json:"type"`
}
