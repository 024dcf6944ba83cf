package core

import (
	"context"
	"sort"
	"sync"
)

// MemoryAssetStore keeps assets in a process-local map. It is meant for
// tests and ephemeral registries.
type MemoryAssetStore struct {
	mu     sync.RWMutex
	assets map[AssetID]Asset
}

func NewMemoryAssetStore() *MemoryAssetStore {
	return &MemoryAssetStore{assets: make(map[AssetID]Asset)}
}

func (s *MemoryAssetStore) Get(_ context.Context, id AssetID) (Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	asset, ok := s.assets[id]
	if !ok {
		return Asset{}, ErrAssetNotFound
	}
	return asset, nil
}

func (s *MemoryAssetStore) Set(_ context.Context, asset Asset) error {
	if err := asset.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assets[asset.ID] = asset
	return nil
}

func (s *MemoryAssetStore) Has(_ context.Context, id AssetID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.assets[id]
	return ok, nil
}

func (s *MemoryAssetStore) Insert(_ context.Context, asset Asset) error {
	if err := asset.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.assets[asset.ID]; exists {
		return ErrAssetExists
	}
	s.assets[asset.ID] = asset
	return nil
}

func (s *MemoryAssetStore) SwapOwner(_ context.Context, id AssetID, expected Principal, next Principal) error {
	if next.IsZero() {
		return ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	asset, ok := s.assets[id]
	if !ok {
		return ErrAssetNotFound
	}
	if asset.Owner != expected {
		return ErrOwnerMismatch
	}
	s.assets[id] = asset.withOwner(next)
	return nil
}

func (s *MemoryAssetStore) ListByOwner(_ context.Context, owner Principal) ([]Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Asset, 0)
	for _, asset := range s.assets {
		if asset.Owner == owner {
			out = append(out, asset)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Len reports how many assets are stored.
func (s *MemoryAssetStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.assets)
}
