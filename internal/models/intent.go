// internal/models/intent.go
package models

import "strings"

type Intent string

const (
	IntentGenerate     Intent = "generate"
	IntentSearch       Intent = "search"
	IntentConfirmation Intent = "confirmation"
	IntentRefinement   Intent = "refinement"
	IntentConversation Intent = "conversation"
)

const (
	SourceAI      = "ai"
	SourcePattern = "pattern"
)

var intentSynonyms = map[string]Intent{
	"generate":         IntentGenerate,
	"generation":       IntentGenerate,
	"create":           IntentGenerate,
	"image_generation": IntentGenerate,
	"search":           IntentSearch,
	"photo_search":     IntentSearch,
	"web_search":       IntentSearch,
	"find":             IntentSearch,
	"confirmation":     IntentConfirmation,
	"confirm":          IntentConfirmation,
	"refinement":       IntentRefinement,
	"refine":           IntentRefinement,
	"conversation":     IntentConversation,
	"chat":             IntentConversation,
	"general":          IntentConversation,
}

// ParseIntent normalises a label returned by a model.
func ParseIntent(label string) (Intent, bool) {
	key := strings.ToLower(strings.TrimSpace(label))
	key = strings.ReplaceAll(key, " ", "_")
	key = strings.ReplaceAll(key, "-", "_")
	intent, ok := intentSynonyms[key]
	return intent, ok
}

// IntentClassification is the ephemeral result of classifying one message.
type IntentClassification struct {
	Intent     Intent  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"`
	Reasoning  string  `json:"reasoning,omitempty"`

	// Polarity is "positive" or "negative" for confirmation intents.
	Polarity  string `json:"polarity,omitempty"`
	Ambiguous bool   `json:"ambiguous,omitempty"`

	SearchScore     float64 `json:"searchScore,omitempty"`
	GenerationScore float64 `json:"generationScore,omitempty"`
}
