package hub

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/supportiq/internal/domain"
	"github.com/xiaot623/supportiq/internal/observability"
)

func newRunningHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub(observability.DiscardLogger())
	go h.Run()
	t.Cleanup(h.Stop)
	return h
}

func TestHubBroadcastByChatbot(t *testing.T) {
	h := newRunningHub(t)

	a := h.NewConnection(nil, "bot-a")
	b := h.NewConnection(nil, "bot-b")
	h.Register(a)
	h.Register(b)
	require.Eventually(t, func() bool { return h.ConnectionCount() == 2 }, time.Second, 5*time.Millisecond)
	assert.True(t, h.HasOperators("bot-a"))

	require.NoError(t, h.NotifyEscalation(context.Background(), domain.Escalation{
		SessionID: "s1", ChatbotID: "bot-a", Message: "talk to a person", Type: domain.EscalationType,
	}))

	select {
	case data := <-a.Send:
		var evt EscalationEvent
		require.NoError(t, json.Unmarshal(data, &evt))
		assert.Equal(t, "escalation", evt.Type)
		assert.Equal(t, "s1", evt.SessionID)
		assert.NotZero(t, evt.Ts)
	case <-time.After(time.Second):
		t.Fatal("operator of bot-a did not receive the escalation")
	}

	select {
	case <-b.Send:
		t.Fatal("operator of bot-b must not receive bot-a escalations")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubUnregisterClosesSend(t *testing.T) {
	h := newRunningHub(t)
	conn := h.NewConnection(nil, "bot")
	h.Register(conn)
	h.Unregister(conn)

	_, ok := <-conn.Send
	assert.False(t, ok)
	assert.False(t, h.HasOperators("bot"))
}

func TestHubWebSocketDelivery(t *testing.T) {
	h := newRunningHub(t)
	srv := NewServer(ServerConfig{
		PingInterval:   time.Second,
		WriteTimeout:   time.Second,
		ReadTimeout:    5 * time.Second,
		MaxMessageSize: 4096,
	}, h)

	e := echo.New()
	e.GET("/v1/operators/ws", srv.HandleWebSocket)
	server := httptest.NewServer(e)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/v1/operators/ws?chatbot_id=bot-1"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer ws.Close()

	require.Eventually(t, func() bool { return h.HasOperators("bot-1") }, time.Second, 10*time.Millisecond)
	require.NoError(t, h.NotifyEscalation(context.Background(), domain.Escalation{SessionID: "s9", ChatbotID: "bot-1", Message: "hi"}))

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := ws.ReadMessage()
	require.NoError(t, err)

	var evt EscalationEvent
	require.NoError(t, json.Unmarshal(data, &evt))
	assert.Equal(t, "s9", evt.SessionID)
	assert.Equal(t, "bot-1", evt.ChatbotID)
}

func TestHubWebSocketRequiresChatbot(t *testing.T) {
	h := newRunningHub(t)
	srv := NewServer(ServerConfig{}, h)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/operators/ws", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, srv.HandleWebSocket(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
