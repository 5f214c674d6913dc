package errors

import (
	goerrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardError_IsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("search failed: %w", NewSearchRateLimitedError())

	assert.True(t, goerrors.Is(err, &StandardError{Code: ErrCodeSearchRateLimited}))
	assert.False(t, goerrors.Is(err, &StandardError{Code: ErrCodeSearchNoResults}))
	assert.True(t, HasCode(err, ErrCodeSearchRateLimited))
}

func TestStandardError_UnwrapExposesCause(t *testing.T) {
	cause := goerrors.New("connection reset")
	err := NewFetchNetworkError("https://example.com/a.png", cause)

	assert.True(t, goerrors.Is(err, cause))
	assert.Contains(t, err.Details, "example.com")
}

func TestConvertToBPMNError(t *testing.T) {
	tests := []struct {
		name        string
		err         *StandardError
		wantCode    string
		wantRetries int
	}{
		{"llm timeout retries once", NewLLMTimeoutError("mistral"), "LLM_TIMEOUT", 1},
		{"auth failure is terminal", NewLLMAuthFailedError("mistral", "401"), "LLM_AUTH_FAILED", 0},
		{"fetch errors collapse", NewImageTooSmallError("u", 10, 10), "REFERENCE_FETCH_FAILED", 0},
		{"quota exceeded", NewQuotaExceededError("user-1", 5), "QUOTA_EXCEEDED", 0},
		{"rate limited retries", NewSearchRateLimitedError(), "SEARCH_RATE_LIMITED", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bpmn := ConvertToBPMNError(tt.err)
			assert.Equal(t, tt.wantCode, bpmn.Code)
			assert.Equal(t, tt.wantRetries, bpmn.Retries)
			assert.Equal(t, string(tt.err.Code), bpmn.ToErrorVariables()["originalErrorCode"])
		})
	}
}

func TestNormalize_WrapsForeignErrors(t *testing.T) {
	std := Normalize(goerrors.New("boom"))
	require.NotNil(t, std)
	assert.Equal(t, ErrCodeInternal, std.Code)
	assert.Equal(t, "OTHER", GetErrorCategory(std.Code))
}

func TestUserMessage_OffersNoReferencePath(t *testing.T) {
	for _, code := range []ErrorCode{ErrCodeSearchRateLimited, ErrCodeSearchInvalidCredentials, ErrCodeSearchNoResults} {
		assert.Contains(t, UserMessage(code), "without a reference", string(code))
	}
}
