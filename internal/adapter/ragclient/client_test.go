package ragclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/supportiq/internal/domain"
)

func TestClientOpenStreamsBody(t *testing.T) {
	var gotReq domain.RelayRequest
	var gotAccept string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/message" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		gotAccept = r.Header.Get("Accept")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"content\":\"hi\"}\n\ndata: [DONE]\n\n")
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", time.Second)
	req := &domain.RelayRequest{
		Message:      "hello",
		ChatbotID:    "bot-1",
		SessionID:    "sess-1",
		VisitorID:    "v1",
		History:      []domain.HistoryEntry{{Role: domain.RoleAssistant, Content: "earlier"}},
		Language:     "en",
		SystemPrompt: "be nice",
	}

	body, err := client.Open(context.Background(), req)
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "data: {\"content\":\"hi\"}\n\ndata: [DONE]\n\n", string(data))
	assert.Equal(t, "text/event-stream", gotAccept)
	assert.Equal(t, *req, gotReq)
}

func TestClientOpenWireFormat(t *testing.T) {
	var raw map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&raw)
	}))
	defer server.Close()

	body, err := NewClient(server.URL, time.Second).Open(context.Background(), &domain.RelayRequest{
		Message: "m", ChatbotID: "b", SessionID: "s", VisitorID: "v", History: []domain.HistoryEntry{}, Language: "en", SystemPrompt: "p",
	})
	require.NoError(t, err)
	body.Close()

	for _, key := range []string{"message", "chatbot_id", "session_id", "visitor_id", "history", "language", "system_prompt"} {
		assert.Contains(t, raw, key)
	}
}

func TestClientOpenNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := NewClient(server.URL, time.Second).Open(context.Background(), &domain.RelayRequest{})
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	assert.Equal(t, "boom", statusErr.Body)
	assert.True(t, errors.Is(err, domain.ErrUpstreamUnavailable))
}

func TestClientOpenConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := NewClient(url, time.Second).Open(context.Background(), &domain.RelayRequest{})
	assert.True(t, errors.Is(err, domain.ErrUpstreamUnavailable))
}

func TestClientOpenNotConfigured(t *testing.T) {
	_, err := NewClient("", time.Second).Open(context.Background(), &domain.RelayRequest{})
	assert.True(t, errors.Is(err, domain.ErrUpstreamUnavailable))
}

func TestClientReadTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {\"content\":\"a\"}\n")
		w.(http.Flusher).Flush()
		<-release
	}))
	defer server.Close()
	defer close(release)

	body, err := NewClient(server.URL, 200*time.Millisecond).Open(context.Background(), &domain.RelayRequest{})
	require.NoError(t, err)
	defer body.Close()

	_, err = io.ReadAll(body)
	assert.Error(t, err)
}
