// internal/workers/ai-conversation/extract-search-query/config.go
package extractsearchquery

import "time"

type Config struct {
	Timeout      time.Duration
	HistoryTurns int
	Temperature  float64
	MaxTokens    int
	// BrandMemoryTurns bounds how far back brand names are remembered.
	BrandMemoryTurns int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:          10 * time.Second,
		HistoryTurns:     5,
		Temperature:      0.1,
		MaxTokens:        40,
		BrandMemoryTurns: 5,
	}
}
