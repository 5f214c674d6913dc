// internal/workers/logo-agent/compose-prompt/models.go
package composeprompt

import "logo-workers/internal/models"

type Input struct {
	Message string `json:"message"`
	UserID  string `json:"userId,omitempty"`

	// Refinement is appended to Message as an extra constraint when a
	// preview is recomputed.
	Refinement string `json:"refinement,omitempty"`
}

type Output struct {
	Preview      models.GenerationPreview `json:"logoPreview"`
	SnippetCount int                      `json:"snippetCount"`
}
