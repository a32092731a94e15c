package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/supportiq/internal/domain"
)

func TestNotifyEscalationPostsPayload(t *testing.T) {
	var got domain.Escalation
	var path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", time.Second)
	err := client.NotifyEscalation(context.Background(), domain.Escalation{
		SessionID: "s1", ChatbotID: "b1", Message: "I want to talk to a person", Type: domain.EscalationType,
	})

	require.NoError(t, err)
	assert.Equal(t, "/webhook/escalation", path)
	assert.Equal(t, "s1", got.SessionID)
	assert.Equal(t, "escalation", got.Type)
}

func TestNotifyEscalationIgnoresStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	assert.NoError(t, NewClient(server.URL, time.Second).NotifyEscalation(context.Background(), domain.Escalation{}))
}

func TestNotifyEscalationDisabled(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	client := NewClient("", time.Second)
	assert.False(t, client.Enabled())
	assert.NoError(t, client.NotifyEscalation(context.Background(), domain.Escalation{}))
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestNotifyEscalationTransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	assert.Error(t, NewClient(url, time.Second).NotifyEscalation(context.Background(), domain.Escalation{}))
}
