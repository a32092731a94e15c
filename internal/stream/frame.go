// Package stream implements the canonical SSE wire format of the chat relay:
// frame rendering, per-line normalization of upstream dialects and the
// flushing writer that forwards frames to the client.
package stream

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	// DataPrefix starts every SSE data line.
	DataPrefix = "data:"
	// DoneSentinel is the literal terminal payload.
	DoneSentinel = "[DONE]"
)

// Kind discriminates the variants of Frame.
type Kind int

const (
	KindTextDelta Kind = iota + 1
	KindSessionAssigned
	KindError
	KindDone
)

func (k Kind) String() string {
	switch k {
	case KindTextDelta:
		return "text-delta"
	case KindSessionAssigned:
		return "session-assigned"
	case KindError:
		return "error"
	case KindDone:
		return "done"
	}
	return "unknown"
}

// Frame is one event on the chat stream.
type Frame struct {
	Kind      Kind
	Text      string
	SessionID string
	Error     string
}

// TextDelta is a fragment of generated text.
func TextDelta(text string) Frame { return Frame{Kind: KindTextDelta, Text: text} }

// SessionAssigned announces the session a turn is attached to.
func SessionAssigned(sessionID string) Frame {
	return Frame{Kind: KindSessionAssigned, SessionID: sessionID}
}

// ErrorFrame carries a description plus text safe to show the visitor.
func ErrorFrame(description, display string) Frame {
	return Frame{Kind: KindError, Error: description, Text: display}
}

// Done marks the end of a generated reply.
func Done(sessionID string) Frame { return Frame{Kind: KindDone, SessionID: sessionID} }

type textPayload struct {
	Content string `json:"content"`
	Text    string `json:"text"`
}

type sessionPayload struct {
	SessionID string `json:"sessionId"`
}

type errorPayload struct {
	Error   string `json:"error"`
	Content string `json:"content"`
	Text    string `json:"text"`
}

type donePayload struct {
	Done      bool   `json:"done"`
	SessionID string `json:"sessionId,omitempty"`
}

// MarshalJSON renders the canonical payload for the frame.
func (f Frame) MarshalJSON() ([]byte, error) {
	switch f.Kind {
	case KindTextDelta:
		return encodeJSON(textPayload{Content: f.Text, Text: f.Text})
	case KindSessionAssigned:
		return encodeJSON(sessionPayload{SessionID: f.SessionID})
	case KindError:
		return encodeJSON(errorPayload{Error: f.Error, Content: f.Text, Text: f.Text})
	case KindDone:
		return encodeJSON(donePayload{Done: true, SessionID: f.SessionID})
	}
	return nil, fmt.Errorf("stream: cannot encode frame kind %d", f.Kind)
}

// Decode interprets a data payload in either upstream dialect. ok is false
// for the sentinel, malformed JSON and non-object payloads.
func Decode(payload string) (Frame, bool) {
	fields, ok := decodeObject(payload)
	if !ok {
		return Frame{}, false
	}
	f := Frame{Text: fragment(fields)}
	f.SessionID, _ = fields["sessionId"].(string)

	switch {
	case fields["error"] != nil:
		f.Kind = KindError
		f.Error = fmt.Sprint(fields["error"])
	case fields["done"] == true:
		f.Kind = KindDone
	case f.Text != "":
		f.Kind = KindTextDelta
	case f.SessionID != "":
		f.Kind = KindSessionAssigned
	default:
		return Frame{}, false
	}
	return f, true
}

// DataPayload returns the payload of an SSE data line.
func DataPayload(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, DataPrefix) {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(trimmed, DataPrefix)), true
}

func decodeObject(payload string) (map[string]any, bool) {
	dec := json.NewDecoder(strings.NewReader(payload))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil || fields == nil {
		return nil, false
	}
	if dec.More() {
		return nil, false
	}
	return fields, true
}

// fragment picks the generated text of a payload, preferring content.
func fragment(fields map[string]any) string {
	if s, _ := fields["content"].(string); s != "" {
		return s
	}
	s, _ := fields["text"].(string)
	return s
}

func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
