package stream

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameMarshal(t *testing.T) {
	tests := []struct {
		frame Frame
		want  string
	}{
		{TextDelta("hi"), `{"content":"hi","text":"hi"}`},
		{Done("s1"), `{"done":true,"sessionId":"s1"}`},
		{SessionAssigned("s1"), `{"sessionId":"s1"}`},
		{ErrorFrame("Failed to generate response", "Oops"), `{"error":"Failed to generate response","content":"Oops","text":"Oops"}`},
	}
	for _, tt := range tests {
		t.Run(tt.frame.Kind.String(), func(t *testing.T) {
			data, err := json.Marshal(tt.frame)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))
		})
	}

	_, err := json.Marshal(Frame{})
	assert.Error(t, err)
}

func TestDecode(t *testing.T) {
	f, ok := Decode(`{"text":"hey"}`)
	require.True(t, ok)
	assert.Equal(t, KindTextDelta, f.Kind)
	assert.Equal(t, "hey", f.Text)

	f, ok = Decode(`{"done":true,"sessionId":"abc"}`)
	require.True(t, ok)
	assert.Equal(t, KindDone, f.Kind)
	assert.Equal(t, "abc", f.SessionID)

	f, ok = Decode(`{"error":"boom","content":"sorry"}`)
	require.True(t, ok)
	assert.Equal(t, KindError, f.Kind)
	assert.Equal(t, "sorry", f.Text)

	f, ok = Decode(`{"sessionId":"abc"}`)
	require.True(t, ok)
	assert.Equal(t, KindSessionAssigned, f.Kind)

	for _, payload := range []string{"[DONE]", "{", "42", "null", `{"unrelated":1}`, `{} {}`} {
		_, ok := Decode(payload)
		assert.False(t, ok, payload)
	}
}

func TestSSEWriter(t *testing.T) {
	rec := httptest.NewRecorder()
	SetHeaders(rec.Header(), "sess-1")

	w, err := NewSSEWriter(rec)
	require.NoError(t, err)
	require.NoError(t, w.WriteFrame(TextDelta("a")))
	require.NoError(t, w.WriteLine("data: [DONE]"))

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "sess-1", rec.Header().Get("X-Session-Id"))
	assert.True(t, rec.Flushed)
	assert.Equal(t, "data: {\"content\":\"a\",\"text\":\"a\"}\n\ndata: [DONE]\n", rec.Body.String())
}
