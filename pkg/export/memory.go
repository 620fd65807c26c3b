package export

import (
	"context"
	"slices"
	"sync"

	"github.com/matzehuels/menuboard/pkg/observability"
)

// MemoryStore keeps artifacts in memory. It is safe for concurrent use.
type MemoryStore struct {
	mu        sync.RWMutex
	artifacts map[string]Artifact
	latest    string
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{artifacts: make(map[string]Artifact)}
}

// Save implements Store. The latest artifact is the last one saved.
func (s *MemoryStore) Save(ctx context.Context, a Artifact) error {
	if _, err := ParseFileName(a.Name); err != nil {
		return err
	}
	a.Data = slices.Clone(a.Data)

	s.mu.Lock()
	s.artifacts[a.Name] = a
	s.latest = a.Name
	s.mu.Unlock()

	observability.Store().OnSave(ctx, "memory", len(a.Data))
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, name string) (Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.artifacts[name]
	if !ok {
		return Artifact{}, notFound(name)
	}
	return a, nil
}

// Latest implements Store.
func (s *MemoryStore) Latest(ctx context.Context) (Artifact, error) {
	s.mu.RLock()
	name := s.latest
	s.mu.RUnlock()

	observability.Store().OnLatest(ctx, "memory", name != "")
	if name == "" {
		return Artifact{}, notFound("")
	}
	return s.Get(ctx, name)
}

// Len returns the number of stored artifacts.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.artifacts)
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }
