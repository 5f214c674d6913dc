// internal/workers/ai-conversation/chat-reply/handler_test.go
package chatreply

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "logo-workers/internal/common/errors"
	"logo-workers/internal/common/llm"
)

// ==========================
// Test Logger Implementation
// ==========================

type TestLogger struct {
	t      *testing.T
	fields map[string]interface{}
}

func NewTestLogger(t *testing.T) *TestLogger {
	return &TestLogger{t: t, fields: make(map[string]interface{})}
}

func (l *TestLogger) Info(msg string, fields map[string]interface{}) {
	l.t.Logf("INFO: %s %v %v", msg, l.fields, fields)
}

func (l *TestLogger) Warn(msg string, fields map[string]interface{}) {
	l.t.Logf("WARN: %s %v %v", msg, l.fields, fields)
}

func (l *TestLogger) Error(msg string, fields map[string]interface{}) {
	l.t.Logf("ERROR: %s %v %v", msg, l.fields, fields)
}

func (l *TestLogger) With(fields map[string]interface{}) Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &TestLogger{t: l.t, fields: merged}
}

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		Timeout:              time.Second,
		HistoryTurns:         10,
		Temperature:          0.7,
		MaxTokens:            1000,
		EnhanceTimeout:       time.Second,
		EnhanceMaxTokens:     200,
		MaxPromptLength:      300,
		AcknowledgeTimeout:   time.Second,
		AcknowledgeMaxTokens: 100,
	}
}

type fakeLLM struct {
	reply    string
	err      error
	messages []llm.Message
	opts     llm.Options
}

func (f *fakeLLM) Name() string { return "fake" }

func (f *fakeLLM) Complete(ctx context.Context, messages []llm.Message, opts llm.Options) (string, error) {
	f.messages = messages
	f.opts = opts
	return f.reply, f.err
}

// ==========================
// Reply Tests
// ==========================

func TestReply(t *testing.T) {
	tests := []struct {
		name           string
		reply          string
		err            error
		wantErr        bool
		validateOutput func(t *testing.T, r *Reply)
	}{
		{
			name:  "plain answer",
			reply: "Two or three colors usually work best.",
			validateOutput: func(t *testing.T, r *Reply) {
				assert.Equal(t, "Two or three colors usually work best.", r.Text)
				assert.Empty(t, r.Action)
				assert.False(t, r.IsImageRequest())
			},
		},
		{
			name:  "embedded generation marker",
			reply: "Sure! I'll design that. {\"action\": \"generate_image\", \"prompt\": \"minimal fox logo, orange\"}",
			validateOutput: func(t *testing.T, r *Reply) {
				assert.True(t, r.IsImageRequest())
				assert.Equal(t, "minimal fox logo, orange", r.Prompt)
				assert.Equal(t, "Sure! I'll design that.", r.Text)
			},
		},
		{
			name:  "search marker",
			reply: "Let me look that up.\n{\"action\": \"web_search\", \"query\": \"Nike logo\"}",
			validateOutput: func(t *testing.T, r *Reply) {
				assert.Equal(t, llm.ActionWebSearch, r.Action)
				assert.Equal(t, "Nike logo", r.Query)
				assert.False(t, r.IsImageRequest())
			},
		},
		{
			name:    "provider failure is returned",
			err:     apperrors.NewLLMTimeoutError("fake"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeLLM{reply: tt.reply, err: tt.err}
			handler := NewHandler(createTestConfig(), fake, NewTestLogger(t))

			r, err := handler.Reply(context.Background(), "hi", nil)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, llm.IsTimeout(err))
				return
			}
			require.NoError(t, err)
			tt.validateOutput(t, r)
		})
	}
}

func TestReply_SendsRecentHistory(t *testing.T) {
	fake := &fakeLLM{reply: "ok"}
	handler := NewHandler(createTestConfig(), fake, NewTestLogger(t))

	var history []llm.Message
	for i := 1; i <= 14; i++ {
		history = append(history, llm.Message{Role: llm.RoleUser, Content: fmt.Sprintf("m%d", i)})
	}

	_, err := handler.Reply(context.Background(), "latest", history)
	require.NoError(t, err)

	require.Len(t, fake.messages, 12)
	assert.Equal(t, llm.RoleSystem, fake.messages[0].Role)
	assert.Equal(t, "m5", fake.messages[1].Content)
	assert.Equal(t, "latest", fake.messages[11].Content)
	assert.InDelta(t, 0.7, fake.opts.Temperature, 1e-9)
	assert.Equal(t, 1000, fake.opts.MaxTokens)
}

func TestReply_WithoutModel(t *testing.T) {
	handler := NewHandler(createTestConfig(), nil, NewTestLogger(t))

	_, err := handler.Reply(context.Background(), "hi", nil)
	require.Error(t, err)
	assert.True(t, llm.IsAuthFailure(err))
}

// ==========================
// Enhancement & Acknowledgement Tests
// ==========================

func TestEnhancePrompt(t *testing.T) {
	t.Run("quotes stripped", func(t *testing.T) {
		fake := &fakeLLM{reply: "\"A bold geometric coffee cup logo in warm browns\""}
		handler := NewHandler(createTestConfig(), fake, NewTestLogger(t))

		got := handler.EnhancePrompt(context.Background(), "coffee logo")
		assert.Equal(t, "A bold geometric coffee cup logo in warm browns", got)
		assert.Contains(t, fake.messages[0].Content, "Original prompt: coffee logo")
		assert.Equal(t, 200, fake.opts.MaxTokens)
	})

	t.Run("failure keeps raw prompt", func(t *testing.T) {
		fake := &fakeLLM{err: apperrors.NewLLMRequestFailedError("fake", errors.New("boom"))}
		handler := NewHandler(createTestConfig(), fake, NewTestLogger(t))

		assert.Equal(t, "coffee logo", handler.EnhancePrompt(context.Background(), "  coffee logo "))
	})

	t.Run("long answer fits the budget", func(t *testing.T) {
		fake := &fakeLLM{reply: strings.Repeat("vibrant gradient ", 40)}
		handler := NewHandler(createTestConfig(), fake, NewTestLogger(t))

		got := handler.EnhancePrompt(context.Background(), "coffee logo")
		assert.LessOrEqual(t, len(got), 300)
		assert.True(t, strings.HasSuffix(got, "..."))
	})
}

func TestAcknowledge(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		err   error
		want  string
	}{
		{name: "model answer", reply: "'On it! Your juice bar logo is coming right up 🍹'", want: "On it! Your juice bar logo is coming right up 🍹"},
		{name: "empty answer", reply: "   ", want: AcknowledgementFallback},
		{name: "failure", err: apperrors.NewLLMTimeoutError("fake"), want: AcknowledgementFallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeLLM{reply: tt.reply, err: tt.err}
			handler := NewHandler(createTestConfig(), fake, NewTestLogger(t))

			assert.Equal(t, tt.want, handler.Acknowledge(context.Background(), "logo for my juice bar"))
		})
	}

	handler := NewHandler(createTestConfig(), nil, NewTestLogger(t))
	assert.Equal(t, AcknowledgementFallback, handler.Acknowledge(context.Background(), "x"))
}

// ==========================
// Execute Tests
// ==========================

func TestExecute(t *testing.T) {
	fake := &fakeLLM{reply: "Here you go {\"action\": \"generate_image\", \"prompt\": \"owl logo\"}"}
	handler := NewHandler(createTestConfig(), fake, NewTestLogger(t))

	out, err := handler.Execute(context.Background(), &Input{Message: "make an owl logo"})
	require.NoError(t, err)
	assert.True(t, out.IsImageRequest)
	assert.Equal(t, "owl logo", out.Reply.Prompt)

	_, err = handler.Execute(context.Background(), &Input{Message: "x", Mode: "dance"})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))

	_, err = handler.Execute(context.Background(), &Input{Message: " "})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))
}
