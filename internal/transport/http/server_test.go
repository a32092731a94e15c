package http

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/supportiq/internal/adapter/ragclient"
	"github.com/xiaot623/supportiq/internal/config"
	"github.com/xiaot623/supportiq/internal/domain"
	"github.com/xiaot623/supportiq/internal/hub"
	"github.com/xiaot623/supportiq/internal/observability"
	"github.com/xiaot623/supportiq/internal/repository"
	"github.com/xiaot623/supportiq/internal/service"
	"github.com/xiaot623/supportiq/internal/tasks"
	"github.com/xiaot623/supportiq/tests/helpers"
)

type testServers struct {
	external *httptest.Server
	internal *httptest.Server
	store    *repository.SQLiteStore
	llm      *helpers.FakeLLM
}

func newTestServers(t *testing.T, relay service.Relay) *testServers {
	t.Helper()

	logger := observability.DiscardLogger()
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	store := helpers.NewSeededStore(t)
	fake := &helpers.FakeLLM{Deltas: []string{"fallback"}}

	cfg := &config.Config{
		HistoryLimit:          6,
		LLMModel:              "test-model",
		LLMMaxTokens:          1024,
		DocumentRetryAttempts: 1,
		InternalSecret:        "s3cret",
	}
	detector := service.NewEscalationDetector(nil, nil, &tasks.Inline{}, metrics, logger)
	svc := service.New(store, nil, relay, fake, detector, nil, cfg, metrics, logger)

	operators := hub.NewHub(logger)
	go operators.Run()
	t.Cleanup(operators.Stop)
	wsServer := hub.NewServer(hub.ServerConfig{
		PingInterval:   time.Second,
		WriteTimeout:   time.Second,
		ReadTimeout:    2 * time.Second,
		MaxMessageSize: 1024,
	}, operators)

	s := &testServers{
		external: httptest.NewServer(NewExternalServer(svc, wsServer, reg, logger)),
		internal: httptest.NewServer(NewInternalServer(svc, cfg.InternalSecret, logger)),
		store:    store,
		llm:      fake,
	}
	t.Cleanup(s.external.Close)
	t.Cleanup(s.internal.Close)
	return s
}

func TestChatForwardsFramesBeforeUpstreamFinishes(t *testing.T) {
	release := make(chan struct{})
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"content\":\"first\"}\n\n")
		w.(http.Flusher).Flush()
		<-release
		fmt.Fprint(w, "data: {\"content\":\" second\"}\n\ndata: [DONE]\n")
	}))
	defer backend.Close()
	defer func() {
		select {
		case <-release:
		default:
			close(release)
		}
	}()

	s := newTestServers(t, ragclient.NewClient(backend.URL, 5*time.Second))

	resp, err := http.Post(s.external.URL+"/chat", "application/json",
		strings.NewReader(`{"message":"Do you ship internationally?","botId":"demo-chatbot-id"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	sessionID := resp.Header.Get("X-Session-Id")
	require.NotEmpty(t, sessionID)

	reader := bufio.NewReader(resp.Body)
	firstLine := make(chan string, 1)
	go func() {
		line, _ := reader.ReadString('\n')
		firstLine <- line
	}()

	select {
	case line := <-firstLine:
		assert.Equal(t, "data: {\"content\":\"first\",\"text\":\"first\"}\n", line)
	case <-time.After(2 * time.Second):
		t.Fatal("first frame was not forwarded while the upstream was still open")
	}

	close(release)
	rest, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "\ndata: {\"content\":\" second\",\"text\":\" second\"}\n\ndata: [DONE]\n", string(rest))

	require.Eventually(t, func() bool {
		return len(helpers.Messages(t, s.store, sessionID)) == 2
	}, time.Second, 10*time.Millisecond)
	msgs := helpers.Messages(t, s.store, sessionID)
	assert.Equal(t, "first second", msgs[1].Content)
	assert.Zero(t, s.llm.Calls())
}

func TestChatFallbackOverHTTP(t *testing.T) {
	s := newTestServers(t, ragclient.NewClient("", time.Second))

	resp, err := http.Post(s.external.URL+"/chat", "application/json", strings.NewReader(`{"message":"hi","botId":"demo-chatbot-id"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `data: {"content":"fallback","text":"fallback"}`)
	assert.Contains(t, string(body), `"done":true`)
}

func TestChatCORSExposesSessionHeader(t *testing.T) {
	s := newTestServers(t, &helpers.StaticRelay{Lines: []string{`data: {"content":"hi"}`, ``}})

	req, err := http.NewRequest(http.MethodPost, s.external.URL+"/chat", strings.NewReader(`{"message":"hi","botId":"demo-chatbot-id"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "https://shop.example.com")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	assert.Equal(t, "X-Session-Id", resp.Header.Get("Access-Control-Expose-Headers"))
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServers(t, &helpers.StaticRelay{Lines: []string{`data: {"content":"hi"}`, ``}})

	resp, err := http.Get(s.external.URL + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.JSONEq(t, `{"status":"healthy","version":"0.1.0"}`, string(body))

	chat, err := http.Post(s.external.URL+"/chat", "application/json", strings.NewReader(`{"message":"hi","botId":"demo-chatbot-id"}`))
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, chat.Body)
	chat.Body.Close()

	resp, err = http.Get(s.external.URL + "/metrics")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), `supportiq_chat_turns_total{outcome="completed",path="relay"} 1`)
}

func TestOperatorFeedRequiresChatbot(t *testing.T) {
	s := newTestServers(t, helpers.UnavailableRelay())

	resp, err := http.Get(s.external.URL + "/v1/operators/ws")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestInternalDocumentStatus(t *testing.T) {
	s := newTestServers(t, helpers.UnavailableRelay())
	require.NoError(t, s.store.CreateDocument(t.Context(), &domain.Document{ID: "doc1", ChatbotID: repository.DemoChatbotID}))

	post := func(secret, body string) (int, string) {
		req, err := http.NewRequest(http.MethodPost, s.internal.URL+"/internal/document-status", strings.NewReader(body))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		if secret != "" {
			req.Header.Set("x-internal-secret", secret)
		}
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		b, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, string(b)
	}

	code, body := post("", `{"documentId":"doc1","status":"DONE"}`)
	assert.Equal(t, http.StatusForbidden, code)
	assert.JSONEq(t, `{"error":"Forbidden"}`, body)

	code, _ = post("wrong", `{"documentId":"doc1","status":"DONE"}`)
	assert.Equal(t, http.StatusForbidden, code)

	code, body = post("s3cret", `{"documentId":"doc1","status":"DONE","chunkCount":4}`)
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"ok":true,"id":"doc1","status":"DONE"}`, body)

	code, body = post("s3cret", `{"documentId":"ghost","status":"FAILED"}`)
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"ok":true,"skipped":true}`, body)

	code, _ = post("s3cret", `{"documentId":"doc1","status":"BOGUS"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = post("s3cret", `{"status":"DONE"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	doc, err := s.store.GetDocument(t.Context(), "doc1")
	require.NoError(t, err)
	assert.Equal(t, 4, doc.ChunkCount)
}
