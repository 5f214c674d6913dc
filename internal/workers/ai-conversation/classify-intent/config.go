// internal/workers/ai-conversation/classify-intent/config.go
package classifyintent

import "time"

type Config struct {
	Timeout      time.Duration
	HistoryTurns int
	Temperature  float64
	MaxTokens    int

	// Threshold is the minimum pattern score for a decisive intent.
	Threshold    float64
	ContextBoost float64
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      10 * time.Second,
		HistoryTurns: 5,
		Temperature:  0.1,
		MaxTokens:    150,
		Threshold:    0.6,
		ContextBoost: 0.2,
	}
}
