// Package store provides tenant-scoped, in-memory snapshots of domain
// collections with change fan-out. Services write through the repositories and
// then invalidate the relevant store; readers take consistent snapshots or
// subscribe for refreshed ones.
package store

import (
	"context"
	"sync"
)

// Loader fetches the full collection for one tenant.
type Loader[T any] func(ctx context.Context, institutionID string) ([]T, error)

// Store caches one tenant's collection. All methods are safe for concurrent
// use. A store holds data for at most one tenant at a time; initializing with
// a different tenant discards the previous data before the first load
// completes, so no cross-tenant snapshot is ever observable.
type Store[T any] struct {
	loader Loader[T]

	mu            sync.RWMutex
	institutionID string
	items         []T
	initialized   bool
	subs          map[int]chan []T
	nextSub       int
}

// New constructs an uninitialized store over the given loader.
func New[T any](loader Loader[T]) *Store[T] {
	return &Store[T]{loader: loader, subs: make(map[int]chan []T)}
}

// Initialize loads the tenant's collection. Calling it again for the same
// tenant is a no-op; calling it for a different tenant resets the store first
// and performs a fresh load.
func (s *Store[T]) Initialize(ctx context.Context, institutionID string) error {
	s.mu.Lock()
	if s.initialized && s.institutionID == institutionID {
		s.mu.Unlock()
		return nil
	}
	// Tenant switch: drop stale data before loading so a concurrent Snapshot
	// never sees the old tenant's rows under the new tenant.
	s.items = nil
	s.initialized = false
	s.institutionID = institutionID
	s.mu.Unlock()

	return s.reload(ctx, institutionID)
}

// Invalidate reloads the collection and fans the fresh snapshot out to
// subscribers. A store that was never initialized stays empty.
func (s *Store[T]) Invalidate(ctx context.Context) error {
	s.mu.RLock()
	institutionID := s.institutionID
	initialized := s.initialized
	s.mu.RUnlock()
	if !initialized {
		return nil
	}
	return s.reload(ctx, institutionID)
}

func (s *Store[T]) reload(ctx context.Context, institutionID string) error {
	items, err := s.loader(ctx, institutionID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.institutionID != institutionID {
		// A tenant switch raced this load; discard the stale result.
		s.mu.Unlock()
		return nil
	}
	s.items = items
	s.initialized = true
	snapshot := s.snapshotLocked()
	for _, ch := range s.subs {
		// Keep only the latest snapshot per subscriber; a slow consumer
		// skips intermediate states instead of blocking the writer.
		select {
		case <-ch:
		default:
		}
		ch <- snapshot
	}
	s.mu.Unlock()
	return nil
}

// Snapshot returns a copy of the current collection.
func (s *Store[T]) Snapshot() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store[T]) snapshotLocked() []T {
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

// InstitutionID returns the tenant the store currently serves.
func (s *Store[T]) InstitutionID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.institutionID
}

// Initialized reports whether a load has completed for the current tenant.
func (s *Store[T]) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized
}

// Subscribe registers for refreshed snapshots. The returned cancel func must
// be called to release the subscription. Each channel carries at most the
// latest snapshot.
func (s *Store[T]) Subscribe() (<-chan []T, func()) {
	ch := make(chan []T, 1)
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// Reset clears the store, for logout and tenant teardown. Subscriptions stay
// registered and receive the next tenant's snapshots after re-initialization.
func (s *Store[T]) Reset() {
	s.mu.Lock()
	s.items = nil
	s.institutionID = ""
	s.initialized = false
	s.mu.Unlock()
}
