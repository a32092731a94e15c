package helpers

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/xiaot623/supportiq/internal/adapter/llm"
	"github.com/xiaot623/supportiq/internal/domain"
)

// ErrRelayDown is what UnavailableRelay returns.
var ErrRelayDown = fmt.Errorf("relay down: %w", domain.ErrUpstreamUnavailable)

// RelayFunc adapts a function to the relay interface.
type RelayFunc func(ctx context.Context, req *domain.RelayRequest) (io.ReadCloser, error)

func (f RelayFunc) Open(ctx context.Context, req *domain.RelayRequest) (io.ReadCloser, error) {
	return f(ctx, req)
}

// StaticRelay answers every turn with the given SSE lines and records the
// requests it saw.
type StaticRelay struct {
	mu       sync.Mutex
	Lines    []string
	Requests []*domain.RelayRequest
}

func (r *StaticRelay) Open(ctx context.Context, req *domain.RelayRequest) (io.ReadCloser, error) {
	r.mu.Lock()
	r.Requests = append(r.Requests, req)
	r.mu.Unlock()
	return SSEBody(r.Lines...), nil
}

// UnavailableRelay fails every turn.
func UnavailableRelay() RelayFunc {
	return func(ctx context.Context, req *domain.RelayRequest) (io.ReadCloser, error) {
		return nil, ErrRelayDown
	}
}

// SSEBody joins lines with newlines into a stream body.
func SSEBody(lines ...string) io.ReadCloser {
	if len(lines) == 0 {
		return io.NopCloser(strings.NewReader(""))
	}
	return io.NopCloser(strings.NewReader(strings.Join(lines, "\n") + "\n"))
}

// FakeLLM streams fixed deltas, then returns Usage and Err.
type FakeLLM struct {
	mu       sync.Mutex
	Deltas   []string
	Usage    *llm.Usage
	Err      error
	Requests []*llm.ChatCompletionRequest
}

func (f *FakeLLM) CreateChatCompletionStream(ctx context.Context, req *llm.ChatCompletionRequest, callback llm.StreamCallback) (*llm.Usage, error) {
	f.mu.Lock()
	f.Requests = append(f.Requests, req)
	f.mu.Unlock()

	for _, d := range f.Deltas {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := callback(&llm.StreamChunk{Delta: d}); err != nil {
			return nil, err
		}
	}
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Usage, nil
}

// Calls returns how many completions were requested.
func (f *FakeLLM) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Requests)
}

// RecordingNotifier records escalations and returns Err.
type RecordingNotifier struct {
	mu    sync.Mutex
	calls []domain.Escalation
	Err   error
}

func (n *RecordingNotifier) NotifyEscalation(ctx context.Context, e domain.Escalation) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, e)
	return n.Err
}

// Calls returns the escalations seen so far.
func (n *RecordingNotifier) Calls() []domain.Escalation {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.Escalation(nil), n.calls...)
}
