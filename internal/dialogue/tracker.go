package dialogue

import (
	"context"
	"errors"
	"sync"
)

var ErrInvalidOffer = errors.New("pending offer must carry exactly one payload matching its kind")

// Tracker is the per-user single-slot state machine. Callers hold Lock for
// the whole read-modify-write of one message.
type Tracker struct {
	store Store
	locks keyedMutex
}

func NewTracker(store Store) *Tracker {
	return &Tracker{
		store: store,
		locks: keyedMutex{locks: make(map[string]*refLock)},
	}
}

// Lock serialises messages from one user and returns the unlock function.
// Different users never block each other.
func (t *Tracker) Lock(userID string) func() {
	return t.locks.lock(userID)
}

func (t *Tracker) Pending(ctx context.Context, userID string) (*PendingOffer, error) {
	return t.store.Get(ctx, userID)
}

func (t *Tracker) State(ctx context.Context, userID string) (State, error) {
	offer, err := t.store.Get(ctx, userID)
	if err != nil {
		return StateIdle, err
	}
	return offer.State(), nil
}

// Offer makes offer the user's only pending offer, replacing any other.
func (t *Tracker) Offer(ctx context.Context, userID string, offer PendingOffer) error {
	if !offer.valid() {
		return ErrInvalidOffer
	}
	return t.store.Put(ctx, userID, offer)
}

// Resolve returns the user to idle.
func (t *Tracker) Resolve(ctx context.Context, userID string) error {
	return t.store.Clear(ctx, userID)
}

type refLock struct {
	sync.Mutex
	refs int
}

type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &refLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.Unlock()
			k.mu.Lock()
			l.refs--
			if l.refs == 0 {
				delete(k.locks, key)
			}
			k.mu.Unlock()
		})
	}
}

func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
