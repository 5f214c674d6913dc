// internal/workers/ai-conversation/chat-reply/config.go
package chatreply

import "time"

type Config struct {
	Timeout      time.Duration
	HistoryTurns int
	Temperature  float64
	MaxTokens    int

	EnhanceTimeout   time.Duration
	EnhanceMaxTokens int
	MaxPromptLength  int

	AcknowledgeTimeout   time.Duration
	AcknowledgeMaxTokens int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:              30 * time.Second,
		HistoryTurns:         10,
		Temperature:          0.7,
		MaxTokens:            1000,
		EnhanceTimeout:       10 * time.Second,
		EnhanceMaxTokens:     200,
		MaxPromptLength:      300,
		AcknowledgeTimeout:   10 * time.Second,
		AcknowledgeMaxTokens: 100,
	}
}
