package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStructuredAction(t *testing.T) {
	tests := []struct {
		name           string
		text           string
		wantOK         bool
		validateOutput func(t *testing.T, env *ActionEnvelope)
	}{
		{
			name:   "whole body classification",
			text:   `{"intent": "search", "confidence": 0.92, "reasoning": "asks for an existing logo"}`,
			wantOK: true,
			validateOutput: func(t *testing.T, env *ActionEnvelope) {
				assert.Equal(t, "search", env.Intent)
				require.NotNil(t, env.Confidence)
				assert.InDelta(t, 0.92, *env.Confidence, 1e-9)
				assert.Empty(t, env.Remainder)
			},
		},
		{
			name:   "fenced body",
			text:   "```json\n{\"action\": \"generate_image\", \"prompt\": \"minimal fox logo\"}\n```",
			wantOK: true,
			validateOutput: func(t *testing.T, env *ActionEnvelope) {
				assert.Equal(t, ActionGenerateImage, env.Action)
				assert.Equal(t, "minimal fox logo", env.Prompt)
			},
		},
		{
			name:   "embedded in prose",
			text:   `Sure! I'll design that for you. {"action": "generate_image", "prompt": "coffee cup logo, warm brown"} Let me know if you want changes.`,
			wantOK: true,
			validateOutput: func(t *testing.T, env *ActionEnvelope) {
				assert.Equal(t, "coffee cup logo, warm brown", env.Prompt)
				assert.Equal(t, "Sure! I'll design that for you.  Let me know if you want changes.", env.Remainder)
			},
		},
		{
			name:   "braces inside strings",
			text:   `Here: {"action": "web_search", "query": "brand {curly} logo"}`,
			wantOK: true,
			validateOutput: func(t *testing.T, env *ActionEnvelope) {
				assert.Equal(t, ActionWebSearch, env.Action)
				assert.Equal(t, "brand {curly} logo", env.Query)
			},
		},
		{
			name:   "skips unrelated object then finds action",
			text:   `Settings {"size": 3} and {"action": "web_search", "query": "nike logo"}`,
			wantOK: true,
			validateOutput: func(t *testing.T, env *ActionEnvelope) {
				assert.Equal(t, "nike logo", env.Query)
			},
		},
		{name: "confidence out of range", text: `{"intent": "search", "confidence": 3}`},
		{name: "unknown action", text: `{"action": "dance", "prompt": "x"}`},
		{name: "generate without prompt", text: `{"action": "generate_image"}`},
		{name: "plain prose", text: "Logos work best with two or three colors."},
		{name: "unbalanced", text: `oops {"action": "generate_image", "prompt": "x"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, ok := ParseStructuredAction(tt.text)
			assert.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				assert.Nil(t, env)
				return
			}
			require.NotNil(t, env)
			if tt.validateOutput != nil {
				tt.validateOutput(t, env)
			}
		})
	}
}

func TestLastTurns(t *testing.T) {
	history := []Message{{Content: "1"}, {Content: "2"}, {Content: "3"}}
	assert.Len(t, LastTurns(history, 2), 2)
	assert.Equal(t, "2", LastTurns(history, 2)[0].Content)
	assert.Len(t, LastTurns(history, 10), 3)
}
