package chatbots

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/supportiq/internal/domain"
	"github.com/xiaot623/supportiq/internal/observability"
)

type countingSource struct {
	bot   *domain.Chatbot
	calls int32
}

func (s *countingSource) GetChatbot(ctx context.Context, id string) (*domain.Chatbot, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.bot == nil || s.bot.ID != id {
		return nil, nil
	}
	copied := *s.bot
	return &copied, nil
}

func TestSupabaseSourceGetChatbot(t *testing.T) {
	var gotPath, gotFilter string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotFilter = r.URL.Query().Get("id")
		w.Header().Set("Content-Type", "application/json")
		if gotFilter == "eq.missing" {
			fmt.Fprint(w, `[]`)
			return
		}
		fmt.Fprint(w, `[{"id":"bot-1","name":"Support Bot","businessName":"Acme","systemPrompt":"be nice","isActive":true,"language":"en"}]`)
	}))
	defer server.Close()

	src, err := NewSupabaseSource(server.URL, "anon-key", "Chatbot")
	require.NoError(t, err)

	bot, err := src.GetChatbot(context.Background(), "bot-1")
	require.NoError(t, err)
	require.NotNil(t, bot)
	assert.Equal(t, "/rest/v1/Chatbot", gotPath)
	assert.Equal(t, "eq.bot-1", gotFilter)
	assert.Equal(t, "be nice", bot.SystemPrompt)
	assert.True(t, bot.IsActive)

	bot, err = src.GetChatbot(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, bot)
}

func TestNewSupabaseSourceRequiresConfig(t *testing.T) {
	_, err := NewSupabaseSource("", "key", "Chatbot")
	assert.Error(t, err)
	_, err = NewSupabaseSource("http://localhost", "", "Chatbot")
	assert.Error(t, err)
}

func TestCacheReadThrough(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	client, err := NewRedisClient(url)
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()
	id := fmt.Sprintf("bot-%d", time.Now().UnixNano())
	src := &countingSource{bot: &domain.Chatbot{ID: id, Name: "Cached", IsActive: true}}
	cache := NewCache(src, client, time.Minute, observability.DiscardLogger())
	defer cache.Invalidate(ctx, id)

	for i := 0; i < 3; i++ {
		bot, err := cache.GetChatbot(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, bot)
		assert.Equal(t, "Cached", bot.Name)
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&src.calls))

	bot, err := cache.GetChatbot(ctx, "unknown-"+id)
	require.NoError(t, err)
	assert.Nil(t, bot)
}

func TestCacheDegradesWhenRedisDown(t *testing.T) {
	client, err := NewRedisClient("redis://127.0.0.1:1/0")
	require.NoError(t, err)
	defer client.Close()

	src := &countingSource{bot: &domain.Chatbot{ID: "b1", Name: "Direct"}}
	cache := NewCache(src, client, time.Minute, observability.DiscardLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	bot, err := cache.GetChatbot(ctx, "b1")
	require.NoError(t, err)
	require.NotNil(t, bot)
	assert.Equal(t, "Direct", bot.Name)
}
