// internal/workers/ai-conversation/handle-message/config.go
package handlemessage

import "time"

type Config struct {
	Timeout time.Duration

	// SearchThreshold and GenerateThreshold are the classifier confidences
	// required before a message is routed to search or generation.
	SearchThreshold   float64
	GenerateThreshold float64

	MaxResults int
	DailyLimit int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:           60 * time.Second,
		SearchThreshold:   0.75,
		GenerateThreshold: 0.8,
		MaxResults:        5,
		DailyLimit:        5,
	}
}
