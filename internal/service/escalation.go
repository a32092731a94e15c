package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/xiaot623/supportiq/internal/domain"
	"github.com/xiaot623/supportiq/internal/observability"
	"github.com/xiaot623/supportiq/internal/tasks"
	"github.com/xiaot623/supportiq/policy"
)

// DefaultEscalationPhrases signal that a human should take over.
var DefaultEscalationPhrases = []string{
	"speak to a human",
	"connect you with",
	"connect with a human",
	"speak to human",
	"talk to a person",
}

// Notifier delivers an escalation somewhere outside the chat stream.
type Notifier interface {
	NotifyEscalation(ctx context.Context, e domain.Escalation) error
}

type namedNotifier struct {
	name     string
	notifier Notifier
}

// EscalationDetector decides whether a finished turn needs a human and
// fans the notification out as detached tasks.
type EscalationDetector struct {
	engine    *policy.Engine
	phrases   []string
	notifiers []namedNotifier
	runner    tasks.Runner
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// NewEscalationDetector creates a detector. engine may be nil, in which
// case phrases are matched in process.
func NewEscalationDetector(engine *policy.Engine, phrases []string, runner tasks.Runner, metrics *observability.Metrics, logger *slog.Logger) *EscalationDetector {
	if len(phrases) == 0 {
		phrases = DefaultEscalationPhrases
	}
	if metrics == nil {
		metrics = observability.NewNopMetrics()
	}
	if logger == nil {
		logger = observability.DiscardLogger()
	}
	return &EscalationDetector{
		engine:  engine,
		phrases: phrases,
		runner:  runner,
		metrics: metrics,
		logger:  logger.With("component", "escalation"),
	}
}

// AddNotifier registers n. Every match spawns one task per notifier.
func (d *EscalationDetector) AddNotifier(name string, n Notifier) {
	d.notifiers = append(d.notifiers, namedNotifier{name: name, notifier: n})
}

// Inspect checks the turn and dispatches notifications on a match. It never
// blocks on delivery and reports whether an escalation was raised.
func (d *EscalationDetector) Inspect(ctx context.Context, sessionID, chatbotID, assistantText, userText string) bool {
	if d == nil {
		return false
	}

	matches := d.match(ctx, assistantText, userText)
	if len(matches) == 0 {
		return false
	}

	d.metrics.EscalationsTotal.Inc()
	d.logger.Info("escalation requested", "session_id", sessionID, "chatbot_id", chatbotID, "matches", matches)

	e := domain.Escalation{
		SessionID: sessionID,
		ChatbotID: chatbotID,
		Message:   userText,
		Type:      domain.EscalationType,
	}
	for _, n := range d.notifiers {
		notifier := n.notifier
		d.runner.Go("escalation."+n.name, func(ctx context.Context) error {
			return notifier.NotifyEscalation(ctx, e)
		})
	}
	return true
}

func (d *EscalationDetector) match(ctx context.Context, assistantText, userText string) []string {
	if d.engine != nil {
		res, err := d.engine.Evaluate(ctx, policy.Input{
			AssistantText: assistantText,
			UserText:      userText,
			Phrases:       d.phrases,
		})
		if err == nil {
			if !res.Escalate() {
				return nil
			}
			if len(res.Matches) == 0 {
				return []string{res.Decision}
			}
			return res.Matches
		}
		d.logger.Warn("escalation policy failed, matching in process", "error", err)
	}
	return MatchPhrases(d.phrases, assistantText, userText)
}

// MatchPhrases returns the phrases found, case-insensitively, in any of texts.
func MatchPhrases(phrases []string, texts ...string) []string {
	var matches []string
	for _, phrase := range phrases {
		p := strings.ToLower(phrase)
		for _, text := range texts {
			if strings.Contains(strings.ToLower(text), p) {
				matches = append(matches, phrase)
				break
			}
		}
	}
	return matches
}
