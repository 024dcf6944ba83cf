package core

import (
	"context"
	"fmt"
	"sync"
)

type stubLogger struct{}

func (stubLogger) Trace(string, ...any) {}
func (stubLogger) Debug(string, ...any) {}
func (stubLogger) Info(string, ...any)  {}
func (stubLogger) Warn(string, ...any)  {}
func (stubLogger) Error(string, ...any) {}
func (stubLogger) Fatal(string, ...any) {}
func (s stubLogger) WithContext(context.Context) Logger {
	return s
}

type stubLoggerProvider struct {
	logger Logger
}

func (s stubLoggerProvider) GetLogger(string) Logger {
	return s.logger
}

type mapRawLoader struct {
	values map[string]any
}

func (l mapRawLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.values))
	for key, value := range l.values {
		out[key] = value
	}
	return out, nil
}

// kvStore implements only the plain get/set/has contract so the registry
// falls back to its check-then-write path.
type kvStore struct {
	mu      sync.Mutex
	assets  map[AssetID]Asset
	writes  int
	getErr  error
	setErr  error
	hasErr  error
	onSet   func(Asset)
	getHook func(AssetID)
}

func newKVStore() *kvStore {
	return &kvStore{assets: map[AssetID]Asset{}}
}

func (s *kvStore) Get(_ context.Context, id AssetID) (Asset, error) {
	if s.getHook != nil {
		s.getHook(id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return Asset{}, s.getErr
	}
	asset, ok := s.assets[id]
	if !ok {
		return Asset{}, ErrAssetNotFound
	}
	return asset, nil
}

func (s *kvStore) Set(_ context.Context, asset Asset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	s.writes++
	s.assets[asset.ID] = asset
	if s.onSet != nil {
		s.onSet(asset)
	}
	return nil
}

func (s *kvStore) Has(_ context.Context, id AssetID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hasErr != nil {
		return false, s.hasErr
	}
	_, ok := s.assets[id]
	return ok, nil
}

func (s *kvStore) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

type sequenceIDGenerator struct {
	mu  sync.Mutex
	ids []AssetID
	err error
}

func (g *sequenceIDGenerator) Next(int) (AssetID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return "", g.err
	}
	if len(g.ids) == 0 {
		return "", fmt.Errorf("sequence exhausted")
	}
	next := g.ids[0]
	g.ids = g.ids[1:]
	return next, nil
}

func newTestRegistry(t interface {
	Helper()
	Fatalf(string, ...any)
}, store AssetStore, opts ...Option) *Registry {
	t.Helper()
	all := append([]Option{
		WithAssetStore(store),
		WithLoggerProvider(stubLoggerProvider{logger: stubLogger{}}),
		WithLogger(stubLogger{}),
	}, opts...)
	registry, err := NewRegistry(DefaultConfig(), all...)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	return registry
}

var (
	_ AssetStore  = (*kvStore)(nil)
	_ IDGenerator = (*sequenceIDGenerator)(nil)
)
