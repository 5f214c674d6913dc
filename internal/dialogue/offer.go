// Package dialogue tracks the single pending offer each user may have: a
// logo preview awaiting confirmation or a photo result set awaiting a pick.
package dialogue

import (
	"time"

	"github.com/google/uuid"

	"logo-workers/internal/models"
)

// State of a user's conversation slot.
type State string

const (
	StateIdle                           State = "idle"
	StateAwaitingGenerationConfirmation State = "awaiting_generation_confirmation"
	StateAwaitingSearchSelection        State = "awaiting_search_selection"
)

type OfferKind string

const (
	KindGenerationPreview OfferKind = "generation_preview"
	KindSearchSelection   OfferKind = "search_selection"
)

// PendingOffer is a tagged union: exactly one of Preview and Selection is
// set, matching Kind.
type PendingOffer struct {
	ID        string                    `json:"id"`
	Kind      OfferKind                 `json:"kind"`
	Preview   *models.GenerationPreview `json:"logo_preview,omitempty"`
	Selection *models.SearchSelection   `json:"photo_result,omitempty"`
	CreatedAt time.Time                 `json:"created_at"`
}

func NewPreviewOffer(preview models.GenerationPreview) PendingOffer {
	return PendingOffer{
		ID:        uuid.NewString(),
		Kind:      KindGenerationPreview,
		Preview:   &preview,
		CreatedAt: time.Now().UTC(),
	}
}

func NewSelectionOffer(selection models.SearchSelection) PendingOffer {
	return PendingOffer{
		ID:        uuid.NewString(),
		Kind:      KindSearchSelection,
		Selection: &selection,
		CreatedAt: time.Now().UTC(),
	}
}

// State maps an offer to the tracker state it represents. A nil offer is idle.
func (o *PendingOffer) State() State {
	if o == nil {
		return StateIdle
	}
	switch o.Kind {
	case KindGenerationPreview:
		return StateAwaitingGenerationConfirmation
	case KindSearchSelection:
		return StateAwaitingSearchSelection
	default:
		return StateIdle
	}
}

func (o *PendingOffer) valid() bool {
	switch o.Kind {
	case KindGenerationPreview:
		return o.Preview != nil && o.Selection == nil
	case KindSearchSelection:
		return o.Selection != nil && o.Preview == nil
	default:
		return false
	}
}
