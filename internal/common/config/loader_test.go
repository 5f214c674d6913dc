package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
app:
  name: logo-workers
apis:
  llm:
    api_key: test-key
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "mistral", cfg.APIs.LLM.Provider)
	assert.Equal(t, 30000, cfg.APIs.LLM.ChatTimeout)
	assert.Equal(t, 10000, cfg.APIs.LLM.ClassificationTimeout)
	assert.Equal(t, 15000, cfg.APIs.ImageSearch.Timeout)
	assert.Equal(t, 1100, cfg.APIs.ImageSearch.MinIntervalMs)
	assert.Equal(t, 5, cfg.APIs.ImageSearch.MaxResults)
	assert.Equal(t, "memory", cfg.Conversation.PendingStore)
	assert.InDelta(t, 0.75, cfg.Conversation.SearchThreshold, 1e-9)
	assert.InDelta(t, 0.8, cfg.Conversation.GenerateThreshold, 1e-9)
	assert.Equal(t, 5, cfg.Quota.DailyLimit)
	assert.Equal(t, "logo-workers", cfg.Observability.ServiceName)
}

func TestLoadFromFile_ExpandsEnvPlaceholders(t *testing.T) {
	t.Setenv("TEST_SEARCH_KEY", "brave-secret")
	path := writeConfig(t, `
apis:
  image_search:
    api_key: ${TEST_SEARCH_KEY}
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "brave-secret", cfg.APIs.ImageSearch.APIKey)
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "redis store without address",
			body:    "conversation:\n  pending_store: redis\n",
			wantErr: "database.redis.address",
		},
		{
			name:    "unknown pending store",
			body:    "conversation:\n  pending_store: disk\n",
			wantErr: "pending_store",
		},
		{
			name:    "camunda enabled without broker",
			body:    "camunda:\n  enabled: true\n",
			wantErr: "broker_address",
		},
		{
			name:    "unknown llm provider",
			body:    "apis:\n  llm:\n    provider: other\n",
			wantErr: "apis.llm.provider",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWorkerDefaults(t *testing.T) {
	path := writeConfig(t, `
workers:
  classify-intent:
    enabled: true
`)
	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	wc := GetWorkerConfig(cfg, "classify-intent")
	assert.True(t, wc.Enabled)
	assert.Equal(t, 5, wc.MaxJobsActive)
	assert.Equal(t, 3, wc.MaxRetries)
	assert.Equal(t, 30*time.Second, GetDuration(wc.Timeout))
	assert.True(t, IsWorkerEnabled(cfg, "not-configured"))
}
