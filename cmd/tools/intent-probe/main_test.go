package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) map[string]interface{} {
	t.Helper()
	var out bytes.Buffer
	root := newRoot()
	root.SetOut(&out)
	root.SetArgs(args)
	require.NoError(t, root.Execute())

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded), out.String())
	return decoded
}

func TestProbeCommands(t *testing.T) {
	tests := []struct {
		name           string
		args           []string
		validateOutput func(t *testing.T, got map[string]interface{})
	}{
		{
			name: "classify brand search",
			args: []string{"classify", "show me the Nike logo"},
			validateOutput: func(t *testing.T, got map[string]interface{}) {
				assert.Equal(t, "search", got["intent"])
				assert.Equal(t, "pattern", got["source"])
			},
		},
		{
			name: "classify generation",
			args: []string{"classify", "create a modern logo for my coffee shop"},
			validateOutput: func(t *testing.T, got map[string]interface{}) {
				assert.Equal(t, "generate", got["intent"])
			},
		},
		{
			name: "extract brand query",
			args: []string{"extract", "show me the Nike logo"},
			validateOutput: func(t *testing.T, got map[string]interface{}) {
				assert.Equal(t, true, got["found"])
				assert.Contains(t, got["query"], "Nike")
			},
		},
		{
			name: "reply selects from photo results",
			args: []string{"reply", "--state", "selection", "--results", "3", "use image 2"},
			validateOutput: func(t *testing.T, got map[string]interface{}) {
				assert.Equal(t, "awaiting_search_selection", got["state"])
				assert.Equal(t, "select", got["move"])
				assert.EqualValues(t, 2, got["index"])
			},
		},
		{
			name: "reply confirms a preview",
			args: []string{"reply", "yes"},
			validateOutput: func(t *testing.T, got map[string]interface{}) {
				assert.Equal(t, "confirm", got["move"])
			},
		},
		{
			name: "compose preview",
			args: []string{"compose", "logo for my coffee shop called Bean There"},
			validateOutput: func(t *testing.T, got map[string]interface{}) {
				assert.NotEmpty(t, got["final_diffusion_prompt"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.validateOutput(t, run(t, tt.args...))
		})
	}
}

func TestReplyRejectsUnknownState(t *testing.T) {
	root := newRoot()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"reply", "--state", "idle", "yes"})
	assert.Error(t, root.Execute())
}
