// internal/workers/ai-conversation/handle-message/models.go
package handlemessage

import (
	"logo-workers/internal/common/llm"
	"logo-workers/internal/models"
)

type Input struct {
	UserID           string        `json:"userId"`
	Message          string        `json:"message"`
	History          []llm.Message `json:"conversationHistory"`
	WebSearchEnabled bool          `json:"webSearchEnabled"`
}

type Output struct {
	Outcome Outcome `json:"chatOutcome"`
}

type OutcomeKind string

const (
	OutcomeTextReply              OutcomeKind = "text_reply"
	OutcomeGenerationReady        OutcomeKind = "generation_ready"
	OutcomeSearchPreview          OutcomeKind = "search_preview"
	OutcomeGenerationPreviewReady OutcomeKind = "generation_preview_ready"
	OutcomeReferenceSelected      OutcomeKind = "reference_selected"
)

// Outcome is the discriminated result of one message. Kind decides which of
// the optional fields are set.
type Outcome struct {
	Kind OutcomeKind `json:"kind"`
	Text string      `json:"response"`

	// GenerationReady
	Prompt      string              `json:"image_prompt,omitempty"`
	StyleParams *models.StyleParams `json:"style_params,omitempty"`
	Remaining   *int                `json:"remaining_prompts,omitempty"`

	// SearchPreview
	Selection *models.SearchSelection `json:"photo_result,omitempty"`

	// GenerationPreviewReady
	Preview *models.GenerationPreview `json:"logo_preview,omitempty"`

	// ReferenceSelected
	Selected  *models.SearchResult   `json:"selected_result,omitempty"`
	Reference *models.ReferenceImage `json:"reference,omitempty"`

	NeedsUpgrade bool                         `json:"needs_upgrade,omitempty"`
	Intent       *models.IntentClassification `json:"intent,omitempty"`
}

func (o Outcome) IsImageRequest() bool {
	return o.Kind == OutcomeGenerationReady
}

func (o Outcome) AwaitingConfirmation() bool {
	return o.Kind == OutcomeGenerationPreviewReady
}

func (o Outcome) AwaitingPhotoConfirmation() bool {
	return o.Kind == OutcomeSearchPreview
}

// MessageType is the history label for the turn that produced o.
func (o Outcome) MessageType() string {
	switch o.Kind {
	case OutcomeGenerationReady:
		return models.MessageTypeImage
	case OutcomeGenerationPreviewReady:
		return models.MessageTypePreview
	case OutcomeSearchPreview, OutcomeReferenceSelected:
		return models.MessageTypePhoto
	default:
		return models.MessageTypeText
	}
}
