package dialogue

import (
	"sync"

	"logo-workers/internal/models"
)

// ReferenceHolder keeps the reference image a user picked until their next
// generation consumes it. Decoded images stay in process memory only.
type ReferenceHolder struct {
	mu   sync.Mutex
	refs map[string]*models.ReferenceImage
}

func NewReferenceHolder() *ReferenceHolder {
	return &ReferenceHolder{refs: make(map[string]*models.ReferenceImage)}
}

// Hold replaces any reference already held for the user.
func (h *ReferenceHolder) Hold(userID string, ref *models.ReferenceImage) {
	if ref == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.refs[userID] = ref
}

// Take hands the held reference out exactly once.
func (h *ReferenceHolder) Take(userID string) (*models.ReferenceImage, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ref, ok := h.refs[userID]
	if ok {
		delete(h.refs, userID)
	}
	return ref, ok
}

// Holding reports whether a reference is waiting for the user.
func (h *ReferenceHolder) Holding(userID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.refs[userID]
	return ok
}
