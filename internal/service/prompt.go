package service

import (
	"strings"

	"github.com/xiaot623/supportiq/internal/adapter/llm"
	"github.com/xiaot623/supportiq/internal/domain"
)

const refusalSentence = "I'm sorry, I can only help with questions related to our business. " +
	"Is there anything else I can assist you with regarding our services?"

const guardrails = `STRICT RULES:
- You must ONLY answer questions using the KNOWLEDGE BASE CONTEXT above.
- If the user asks something NOT related to the business or the context, politely say:
  "` + refusalSentence + `"
- Do NOT answer general knowledge questions (science, history, geography, math, etc.)
- Do NOT make up information that is not in the context.
- Be warm, professional, and helpful for business-related queries.
- For complex answers, use bullet points or numbered lists.`

var languageNames = map[string]string{
	"en": "English",
	"es": "Spanish",
	"fr": "French",
	"de": "German",
	"pt": "Portuguese",
	"it": "Italian",
	"hi": "Hindi",
	"ar": "Arabic",
	"zh": "Chinese",
	"ja": "Japanese",
}

// languageName maps a language code to its English name; unknown codes are
// used as is.
func languageName(code string) string {
	if name, ok := languageNames[strings.ToLower(code)]; ok {
		return name
	}
	return code
}

// BuildSystemPrompt assembles the fallback system prompt from the chatbot
// prompt, optional knowledge-base context and the reply language.
func BuildSystemPrompt(systemPrompt, knowledge, language string) string {
	var b strings.Builder
	b.WriteString(systemPrompt)
	b.WriteString("\n\n")
	if knowledge != "" {
		b.WriteString("RELEVANT KNOWLEDGE BASE CONTEXT:\n")
		b.WriteString(knowledge)
		b.WriteString("\n")
	} else {
		b.WriteString("No context available.")
	}
	b.WriteString("\n\nLANGUAGE: Respond in ")
	b.WriteString(languageName(language))
	b.WriteString(". \nIf the user's message is in a different language, respond in that language.\n\n")
	b.WriteString(guardrails)
	return b.String()
}

// BuildFallbackMessages returns system prompt, history, then the user turn.
func BuildFallbackMessages(turn *Turn) []llm.ChatMessage {
	messages := make([]llm.ChatMessage, 0, len(turn.History)+2)
	messages = append(messages, llm.ChatMessage{
		Role:    "system",
		Content: BuildSystemPrompt(turn.Chatbot.SystemPrompt, turn.Knowledge, turn.Language),
	})
	for _, h := range turn.History {
		messages = append(messages, llm.ChatMessage{Role: string(h.Role), Content: h.Content})
	}
	messages = append(messages, llm.ChatMessage{Role: string(domain.RoleUser), Content: turn.UserMessage.Content})
	return messages
}
