// Package llm provides an abstraction over OpenAI-compatible chat
// completion APIs used by the fallback generator.
package llm

import "context"

// LLMClient streams chat completions.
type LLMClient interface {
	// CreateChatCompletionStream sends a streaming chat completion request.
	// The callback is called for each chunk received; returning an error
	// from it stops the stream.
	CreateChatCompletionStream(ctx context.Context, req *ChatCompletionRequest, callback StreamCallback) (*Usage, error)
}

// Ensure implementations satisfy LLMClient.
var (
	_ LLMClient = (*Client)(nil)
	_ LLMClient = (*MockClient)(nil)
)
