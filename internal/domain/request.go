package domain

// ChatRequest is the inbound body of POST /chat.
type ChatRequest struct {
	Message   string `json:"message" validate:"required"`
	SessionID string `json:"sessionId"`
	BotID     string `json:"botId" validate:"required"`
	Language  string `json:"language"`
}

// RelayRequest is the body forwarded to the RAG backend.
type RelayRequest struct {
	Message      string         `json:"message"`
	ChatbotID    string         `json:"chatbot_id"`
	SessionID    string         `json:"session_id"`
	VisitorID    string         `json:"visitor_id"`
	History      []HistoryEntry `json:"history"`
	Language     string         `json:"language"`
	SystemPrompt string         `json:"system_prompt"`
}

// DocumentStatusRequest is the ingestion backend's completion callback.
type DocumentStatusRequest struct {
	DocumentID string         `json:"documentId" validate:"required"`
	Status     DocumentStatus `json:"status" validate:"required"`
	ChunkCount *int           `json:"chunkCount"`
}

// WidgetConfig is the public subset of a chatbot exposed to the embed script.
type WidgetConfig struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	BusinessName   string `json:"businessName"`
	PrimaryColor   string `json:"primaryColor"`
	WelcomeMessage string `json:"welcomeMessage"`
	Language       string `json:"language"`
}

// WidgetConfigFor projects a chatbot to its public widget settings.
func WidgetConfigFor(bot *Chatbot) WidgetConfig {
	return WidgetConfig{
		ID:             bot.ID,
		Name:           bot.Name,
		BusinessName:   bot.BusinessName,
		PrimaryColor:   bot.PrimaryColor,
		WelcomeMessage: bot.WelcomeMessage,
		Language:       bot.Language,
	}
}
