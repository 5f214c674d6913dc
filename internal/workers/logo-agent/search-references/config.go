// internal/workers/logo-agent/search-references/config.go
package searchreferences

import "time"

type Config struct {
	BaseURL      string
	APIKey       string
	Timeout      time.Duration
	FetchTimeout time.Duration

	// MinInterval is the spacing enforced between any two outbound search
	// calls made through one client.
	MinInterval time.Duration
	MaxResults  int

	MinResultDimension int
	MinImageDimension  int
	MaxImageBytes      int64
	FetchAttempts      int
}

func LoadConfig() *Config {
	return &Config{
		BaseURL:            "https://api.search.brave.com/res/v1",
		Timeout:            15 * time.Second,
		FetchTimeout:       15 * time.Second,
		MinInterval:        1100 * time.Millisecond,
		MaxResults:         5,
		MinResultDimension: 100,
		MinImageDimension:  50,
		MaxImageBytes:      10 << 20,
		FetchAttempts:      3,
	}
}
