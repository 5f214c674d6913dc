// internal/models/conversation.go
package models

import (
	"context"
	"time"
)

const (
	MessageTypeText    = "text"
	MessageTypeImage   = "image"
	MessageTypePreview = "preview"
	MessageTypePhoto   = "photo"
)

// ConversationTurn is one resolved exchange: the user's message and the
// assistant's answer to it.
type ConversationTurn struct {
	ID             int64     `json:"id" db:"id"`
	UserID         string    `json:"userId" db:"user_id"`
	ConversationID string    `json:"conversationId" db:"conversation_id"`
	UserMessage    string    `json:"userMessage" db:"user_message"`
	AIResponse     string    `json:"aiResponse" db:"ai_response"`
	ImagePrompt    string    `json:"imagePrompt,omitempty" db:"image_prompt"`
	MessageType    string    `json:"messageType" db:"message_type"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
}

// HistoryRepository persists resolved turns. Callers only ever read a bounded
// recent window, oldest first.
type HistoryRepository interface {
	Append(ctx context.Context, userID string, turn ConversationTurn) (int64, error)
	Recent(ctx context.Context, userID string, limit int) ([]ConversationTurn, error)
}

// QuotaDecision is the result of consuming one generation from a user's
// daily allowance. Remaining is nil for unlimited users.
type QuotaDecision struct {
	Allowed   bool `json:"allowed"`
	Remaining *int `json:"remaining,omitempty"`
	Limit     int  `json:"limit"`
}

// QuotaRepository enforces the rolling daily generation limit.
type QuotaRepository interface {
	CheckAndConsume(ctx context.Context, userID string) (QuotaDecision, error)
}
