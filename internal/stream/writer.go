package stream

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
)

// Writer receives the client-bound stream. Implementations must forward
// each call immediately.
type Writer interface {
	// WriteLine writes one raw line followed by a newline.
	WriteLine(line string) error
	// WriteFrame writes a canonical data frame followed by a blank line.
	WriteFrame(f Frame) error
}

// SetHeaders prepares an event-stream response for the given session.
func SetHeaders(h http.Header, sessionID string) {
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Session-Id", sessionID)
}

// SSEWriter writes to an HTTP response, flushing after every write.
type SSEWriter struct {
	w       io.Writer
	flusher http.Flusher
}

// NewSSEWriter wraps w. It fails if w cannot flush.
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("stream: response writer does not support flushing")
	}
	return &SSEWriter{w: w, flusher: flusher}, nil
}

func (s *SSEWriter) WriteLine(line string) error {
	if _, err := io.WriteString(s.w, line+"\n"); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

func (s *SSEWriter) WriteFrame(f Frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "%s %s\n\n", DataPrefix, data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// Recorder is an in-memory Writer. Each write is also announced on Writes
// when that channel is non-nil, which lets callers observe forwarding order.
type Recorder struct {
	mu     sync.Mutex
	lines  []string
	Writes chan string
	// Fail, when set, is returned from every write.
	Fail error
}

// NewRecorder returns a Recorder that announces up to buffer writes.
func NewRecorder(buffer int) *Recorder {
	return &Recorder{Writes: make(chan string, buffer)}
}

func (r *Recorder) WriteLine(line string) error {
	return r.record(line + "\n")
}

func (r *Recorder) WriteFrame(f Frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	return r.record(fmt.Sprintf("%s %s\n\n", DataPrefix, data))
}

func (r *Recorder) record(s string) error {
	if r.Fail != nil {
		return r.Fail
	}
	r.mu.Lock()
	r.lines = append(r.lines, s)
	r.mu.Unlock()
	if r.Writes != nil {
		select {
		case r.Writes <- s:
		default:
		}
	}
	return nil
}

// String returns everything written so far.
func (r *Recorder) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out string
	for _, l := range r.lines {
		out += l
	}
	return out
}

// Frames decodes every data line written so far, skipping the sentinel.
func (r *Recorder) Frames() []Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	var frames []Frame
	for _, chunk := range r.lines {
		for _, line := range splitLines(chunk) {
			payload, ok := DataPayload(line)
			if !ok || payload == DoneSentinel {
				continue
			}
			if f, ok := Decode(payload); ok {
				frames = append(frames, f)
			}
		}
	}
	return frames
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}
