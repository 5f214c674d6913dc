// Package llm wraps the chat-completion providers used by the conversation
// workers behind a single ChatLLM interface.
package llm

import (
	"context"

	apperrors "logo-workers/internal/common/errors"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat turn sent to the provider.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options control a single completion.
type Options struct {
	Temperature float64
	MaxTokens   int
}

// ChatLLM completes a conversation. Failures are *errors.StandardError with
// one of the LLM_* codes: timeout, auth failure, request failure or a
// malformed response.
type ChatLLM interface {
	Complete(ctx context.Context, messages []Message, opts Options) (string, error)
	Name() string
}

// IsTimeout reports an LLM_TIMEOUT failure.
func IsTimeout(err error) bool {
	return apperrors.HasCode(err, apperrors.ErrCodeLLMTimeout)
}

// IsAuthFailure reports an LLM_AUTH_FAILED failure.
func IsAuthFailure(err error) bool {
	return apperrors.HasCode(err, apperrors.ErrCodeLLMAuthFailed)
}

// LastTurns returns at most n trailing messages.
func LastTurns(history []Message, n int) []Message {
	if n <= 0 || len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}
