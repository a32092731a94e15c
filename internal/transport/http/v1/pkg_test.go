package v1

import (
	"bufio"
	"strings"
	"testing"

	"github.com/xiaot623/supportiq/internal/config"
	"github.com/xiaot623/supportiq/internal/observability"
	"github.com/xiaot623/supportiq/internal/repository"
	"github.com/xiaot623/supportiq/internal/service"
	"github.com/xiaot623/supportiq/internal/tasks"
	"github.com/xiaot623/supportiq/tests/helpers"
)

type testEnv struct {
	handler  *Handler
	store    *repository.SQLiteStore
	llm      *helpers.FakeLLM
	notifier *helpers.RecordingNotifier
}

func newTestHandler(t *testing.T, relay service.Relay) *testEnv {
	t.Helper()

	env := &testEnv{
		store:    helpers.NewSeededStore(t),
		llm:      &helpers.FakeLLM{},
		notifier: &helpers.RecordingNotifier{},
	}
	cfg := &config.Config{
		HistoryLimit: 6,
		LLMModel:     "test-model",
		LLMMaxTokens: 1024,
	}
	logger := observability.DiscardLogger()
	metrics := observability.NewNopMetrics()

	detector := service.NewEscalationDetector(nil, nil, &tasks.Inline{}, metrics, logger)
	detector.AddNotifier("webhook", env.notifier)
	svc := service.New(env.store, nil, relay, env.llm, detector, nil, cfg, metrics, logger)

	env.handler = NewHandler(svc, nil, nil, logger)
	return env
}

// dataLines returns the payloads of every data line in an SSE body.
func dataLines(body string) []string {
	var out []string
	sc := bufio.NewScanner(strings.NewReader(body))
	for sc.Scan() {
		if payload, ok := strings.CutPrefix(sc.Text(), "data: "); ok {
			out = append(out, payload)
		}
	}
	return out
}
