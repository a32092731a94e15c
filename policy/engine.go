// Package policy evaluates the human-handoff policy with OPA.
package policy

import (
	"context"
	"fmt"
	"sort"

	"github.com/open-policy-agent/opa/rego"
)

// Decision values produced by the policy.
const (
	DecisionEscalate = "escalate"
	DecisionNone     = "none"
)

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// Input is what the escalation policy sees for one turn.
type Input struct {
	AssistantText string   `json:"assistant_text"`
	UserText      string   `json:"user_text"`
	Phrases       []string `json:"phrases"`
}

// Result is the policy's verdict.
type Result struct {
	Decision string
	Matches  []string
}

// Escalate reports whether the policy asked for a handoff.
func (r Result) Escalate() bool { return r.Decision == DecisionEscalate }

// NewEngine compiles policyContent, which must define package escalation.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.escalation"),
		rego.Module("escalation.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}
	return &Engine{query: query}, nil
}

// Evaluate runs the policy for one turn.
func (e *Engine) Evaluate(ctx context.Context, input Input) (Result, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return Result{}, fmt.Errorf("failed to evaluate policy: %w", err)
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return Result{Decision: DecisionNone}, nil
	}

	doc, ok := results[0].Expressions[0].Value.(map[string]interface{})
	if !ok {
		return Result{}, fmt.Errorf("unexpected policy result type %T", results[0].Expressions[0].Value)
	}

	res := Result{Decision: DecisionNone}
	if s, ok := doc["decision"].(string); ok {
		res.Decision = s
	}
	if matches, ok := doc["matches"].([]interface{}); ok {
		for _, m := range matches {
			if s, ok := m.(string); ok {
				res.Matches = append(res.Matches, s)
			}
		}
		sort.Strings(res.Matches)
	}
	return res, nil
}

// DefaultPolicy escalates when any phrase occurs, case-insensitively, in
// either the assistant's reply or the user's message.
const DefaultPolicy = `
package escalation

import rego.v1

default decision := "none"

decision := "escalate" if count(matches) > 0

matches contains phrase if {
	some phrase in input.phrases
	some text in [input.assistant_text, input.user_text]
	contains(lower(text), lower(phrase))
}
`
