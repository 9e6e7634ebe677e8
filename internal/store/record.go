package store

import "time"

// ConversationRecord is one persisted prompt/response exchange. Records are
// immutable after insert; the only mutation is deletion.
type ConversationRecord struct {
	ID          int64     `json:"id"`
	UserMessage string    `json:"user_message"`
	AIResponse  string    `json:"ai_response"`
	UserEmail   string    `json:"user_email,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}
