package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperatorFeedURL(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{"http://localhost:8080", "ws://localhost:8080/v1/operators/ws?chatbot_id=bot+1"},
		{"https://chat.example.com/", "wss://chat.example.com/v1/operators/ws?chatbot_id=bot+1"},
		{"https://chat.example.com/api", "wss://chat.example.com/api/v1/operators/ws?chatbot_id=bot+1"},
	}

	for _, tt := range tests {
		t.Run(tt.base, func(t *testing.T) {
			got, err := operatorFeedURL(tt.base, "bot 1")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
