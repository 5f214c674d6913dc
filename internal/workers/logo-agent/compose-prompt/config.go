// internal/workers/logo-agent/compose-prompt/config.go
package composeprompt

import "time"

type Config struct {
	Timeout         time.Duration
	MaxPromptLength int
	KeepFragments   int
	SnippetCount    int
	DesignSearch    bool
}

func LoadConfig() *Config {
	return &Config{
		Timeout:         15 * time.Second,
		MaxPromptLength: MaxPromptLength,
		KeepFragments:   6,
		SnippetCount:    5,
		DesignSearch:    true,
	}
}
