// internal/workers/ai-conversation/extract-search-query/models.go
package extractsearchquery

import "logo-workers/internal/common/llm"

const (
	SourceAI      = "ai"
	SourcePattern = "pattern"
	SourceHistory = "history"
)

type Input struct {
	Message string        `json:"message"`
	History []llm.Message `json:"conversationHistory"`
}

type Output struct {
	Query  string `json:"searchQuery"`
	Found  bool   `json:"queryFound"`
	Source string `json:"querySource,omitempty"`
}
