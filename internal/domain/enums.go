// Package domain defines the core domain models for the chat relay.
package domain

// Role is the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// DocumentStatus tracks ingestion progress of a knowledge-base document.
type DocumentStatus string

const (
	DocumentStatusPending    DocumentStatus = "PENDING"
	DocumentStatusProcessing DocumentStatus = "PROCESSING"
	DocumentStatusDone       DocumentStatus = "DONE"
	DocumentStatusFailed     DocumentStatus = "FAILED"
)

// Valid reports whether s may be reported by the ingestion backend.
func (s DocumentStatus) Valid() bool {
	switch s {
	case DocumentStatusProcessing, DocumentStatusDone, DocumentStatusFailed:
		return true
	}
	return false
}

// EscalationType is the only notification type emitted today.
const EscalationType = "escalation"

// DefaultLanguage is used when neither the request nor the chatbot names one.
const DefaultLanguage = "en"
