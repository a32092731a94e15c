// Package chatclient consumes the chat relay's SSE stream. A Conversation
// keeps the visible transcript and the session id across turns.
package chatclient

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Texts shown in place of a reply.
const (
	EmptyReplyText = "Sorry, I didn't get a response. Please try again."
	ErrorReplyText = "Sorry, I encountered an error. Please try again."
)

var (
	// ErrAborted is returned by a Send superseded by a newer one, or whose
	// context was cancelled.
	ErrAborted = errors.New("chatclient: turn aborted")
	// ErrEmptyMessage is returned for blank input.
	ErrEmptyMessage = errors.New("chatclient: empty message")
)

// State is the lifecycle of the latest turn.
type State int

const (
	StateIdle State = iota
	StateSending
	StateStreaming
	StateSettled
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateStreaming:
		return "streaming"
	case StateSettled:
		return "settled"
	case StateError:
		return "error"
	}
	return "unknown"
}

// Role of a transcript bubble.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one bubble of the transcript.
type Message struct {
	ID        string
	Role      Role
	Content   string
	Timestamp time.Time
}

// Options configures a Conversation.
type Options struct {
	// BaseURL of the relay, e.g. http://localhost:8080.
	BaseURL  string
	BotID    string
	Language string
	// VisitorID seeds the first session id; random when empty.
	VisitorID  string
	HTTPClient *http.Client
	// OnDelta, when set, receives each fragment as it is appended.
	OnDelta func(text string)
}

// Conversation is safe for concurrent use.
type Conversation struct {
	opts Options

	mu        sync.Mutex
	sessionID string
	messages  []Message
	state     State
	turn      uint64
	cancel    context.CancelFunc
}

// New creates an empty conversation.
func New(opts Options) *Conversation {
	if opts.Language == "" {
		opts.Language = "en"
	}
	if opts.VisitorID == "" {
		opts.VisitorID = uuid.New().String()[:8]
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	opts.BaseURL = strings.TrimSuffix(opts.BaseURL, "/")
	return &Conversation{opts: opts}
}

type chatBody struct {
	Message   string `json:"message"`
	BotID     string `json:"botId"`
	SessionID string `json:"sessionId"`
	Language  string `json:"language"`
}

// Send posts content and streams the reply into the transcript. Any turn
// still in flight is aborted first. The returned message is the final
// assistant bubble.
func (c *Conversation) Send(ctx context.Context, content string) (Message, error) {
	if strings.TrimSpace(content) == "" {
		return Message{}, ErrEmptyMessage
	}

	turnCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.cancel = cancel
	c.turn++
	turn := c.turn
	now := time.Now()
	c.messages = append(c.messages,
		Message{ID: uuid.New().String(), Role: RoleUser, Content: content, Timestamp: now},
		Message{ID: uuid.New().String(), Role: RoleAssistant, Timestamp: now},
	)
	placeholder := len(c.messages) - 1
	sessionID := c.sessionID
	c.state = StateSending
	c.mu.Unlock()

	if sessionID == "" {
		sessionID = fmt.Sprintf("%s:%d", c.opts.VisitorID, now.UnixMilli())
	}

	err := c.stream(turnCtx, turn, placeholder, chatBody{
		Message:   content,
		BotID:     c.opts.BotID,
		SessionID: sessionID,
		Language:  c.opts.Language,
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	if turn != c.turn || turnCtx.Err() != nil {
		if turn == c.turn {
			c.state = StateIdle
			c.cancel = nil
		}
		return c.bubble(turn, placeholder), ErrAborted
	}
	c.cancel = nil

	if err != nil {
		c.messages[placeholder].Content = ErrorReplyText
		c.state = StateError
		return c.messages[placeholder], err
	}
	if c.messages[placeholder].Content == "" {
		c.messages[placeholder].Content = EmptyReplyText
	}
	c.state = StateSettled
	return c.messages[placeholder], nil
}

func (c *Conversation) stream(ctx context.Context, turn uint64, placeholder int, body chatBody) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL+"/chat", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("chatclient: request failed with status %d", resp.StatusCode)
	}

	c.mu.Lock()
	if turn == c.turn {
		c.captureSession(resp.Header.Get("X-Session-Id"))
		c.state = StateStreaming
	}
	c.mu.Unlock()

	// ReadString keeps a partial trailing line buffered until its newline
	// arrives in a later read.
	br := bufio.NewReader(resp.Body)
	for {
		line, readErr := br.ReadString('\n')
		if line != "" {
			c.apply(turn, placeholder, strings.TrimRight(line, "\r\n"))
		}
		if errors.Is(readErr, io.EOF) {
			return nil
		}
		if readErr != nil {
			return readErr
		}
	}
}

// apply handles one complete line. Sentinels, non-data lines and
// malformed payloads are ignored.
func (c *Conversation) apply(turn uint64, placeholder int, line string) {
	text, sessionID, ok := ParseLine(line)
	if !ok {
		return
	}

	c.mu.Lock()
	if turn != c.turn {
		c.mu.Unlock()
		return
	}
	c.captureSession(sessionID)
	if text != "" {
		c.messages[placeholder].Content += text
	}
	c.mu.Unlock()

	if text != "" && c.opts.OnDelta != nil {
		c.opts.OnDelta(text)
	}
}

// captureSession keeps the first non-empty id. Callers hold mu.
func (c *Conversation) captureSession(id string) {
	if c.sessionID == "" && id != "" {
		c.sessionID = id
	}
}

// bubble returns the placeholder of turn if it still exists. Callers hold mu.
func (c *Conversation) bubble(turn uint64, placeholder int) Message {
	if placeholder < len(c.messages) {
		return c.messages[placeholder]
	}
	return Message{}
}

// ParseLine extracts the text fragment and session id of one SSE line. ok
// is false for anything that is not a JSON object data line.
func ParseLine(line string) (text, sessionID string, ok bool) {
	payload, found := strings.CutPrefix(strings.TrimSpace(line), "data:")
	if !found {
		return "", "", false
	}
	payload = strings.TrimSpace(payload)
	if payload == "[DONE]" {
		return "", "", false
	}

	var fields struct {
		Content   string `json:"content"`
		Text      string `json:"text"`
		SessionID string `json:"sessionId"`
	}
	if err := json.Unmarshal([]byte(payload), &fields); err != nil {
		return "", "", false
	}
	text = fields.Content
	if text == "" {
		text = fields.Text
	}
	return text, fields.SessionID, true
}

// SessionID returns the captured session id, empty before the first reply.
func (c *Conversation) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// State returns the state of the latest turn.
func (c *Conversation) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Messages returns a copy of the transcript.
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.messages...)
}

// Clear aborts any turn in flight and forgets the transcript and session.
func (c *Conversation) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.turn++
	c.messages = nil
	c.sessionID = ""
	c.state = StateIdle
}
