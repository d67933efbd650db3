package store

import (
	"context"
	"sync"
)

// Set lazily maintains one Registry per tenant. Request handling resolves the
// tenant's registry through For; the first call loads the snapshots.
type Set struct {
	factory func() *Registry

	mu         sync.Mutex
	registries map[string]*Registry
}

// NewSet constructs a Set over the given registry factory.
func NewSet(factory func() *Registry) *Set {
	return &Set{factory: factory, registries: make(map[string]*Registry)}
}

// For returns the tenant's registry, creating and initializing it on first
// use. Initialization errors leave the registry registered; the next call
// retries the load.
func (s *Set) For(ctx context.Context, institutionID string) (*Registry, error) {
	s.mu.Lock()
	reg, ok := s.registries[institutionID]
	if !ok {
		reg = s.factory()
		s.registries[institutionID] = reg
	}
	s.mu.Unlock()

	if err := reg.Initialize(ctx, institutionID); err != nil {
		return nil, err
	}
	return reg, nil
}

// Drop tears down a tenant's registry, for offboarding.
func (s *Set) Drop(institutionID string) {
	s.mu.Lock()
	if reg, ok := s.registries[institutionID]; ok {
		reg.Reset()
		delete(s.registries, institutionID)
	}
	s.mu.Unlock()
}

// Close drops every tenant registry. Called on server shutdown.
func (s *Set) Close() {
	s.mu.Lock()
	ids := make([]string, 0, len(s.registries))
	for id := range s.registries {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	for _, id := range ids {
		s.Drop(id)
	}
}
