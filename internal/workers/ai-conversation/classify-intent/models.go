// internal/workers/ai-conversation/classify-intent/models.go
package classifyintent

import (
	"logo-workers/internal/common/llm"
	"logo-workers/internal/models"
)

type Input struct {
	Message string        `json:"message"`
	History []llm.Message `json:"conversationHistory"`
}

type Output struct {
	Classification models.IntentClassification `json:"intentClassification"`
}
