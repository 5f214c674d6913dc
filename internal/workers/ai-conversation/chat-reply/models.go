// internal/workers/ai-conversation/chat-reply/models.go
package chatreply

import "logo-workers/internal/common/llm"

const (
	ModeReply       = "reply"
	ModeEnhance     = "enhance"
	ModeAcknowledge = "acknowledge"
)

type Input struct {
	Message string        `json:"message"`
	History []llm.Message `json:"conversationHistory"`
	Mode    string        `json:"mode,omitempty"`
}

// Reply is the assistant's answer with any embedded action marker split out.
type Reply struct {
	Text   string `json:"response"`
	Action string `json:"action,omitempty"`
	Prompt string `json:"imagePrompt,omitempty"`
	Query  string `json:"searchQuery,omitempty"`
}

// IsImageRequest reports a generate_image marker.
func (r Reply) IsImageRequest() bool {
	return r.Action == llm.ActionGenerateImage
}

type Output struct {
	Reply          Reply `json:"chatReply"`
	IsImageRequest bool  `json:"isImageRequest"`
}
