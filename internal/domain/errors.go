package domain

import "errors"

var (
	// ErrNotFound is returned by stores when a record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrChatbotNotFound covers both unknown and inactive chatbots.
	ErrChatbotNotFound = errors.New("chatbot not found or inactive")
	// ErrInvalidStatus is returned for document statuses outside the callback set.
	ErrInvalidStatus = errors.New("invalid document status")
	// ErrUpstreamUnavailable signals the primary relay cannot serve the turn.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)
