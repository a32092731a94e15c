package llm

// ChatMessage is one prompt message.
type ChatMessage struct {
	Role    string
	Content string
}

// ChatCompletionRequest is a provider-neutral completion request.
type ChatCompletionRequest struct {
	Model       string
	Messages    []ChatMessage
	MaxTokens   int
	Temperature float32
}

// StreamChunk is one streamed delta.
type StreamChunk struct {
	Delta        string
	FinishReason string
}

// StreamCallback receives each chunk.
type StreamCallback func(chunk *StreamChunk) error

// Usage is the provider's token accounting.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
