package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/goliatone/go-logger/glog"
	repositorycache "github.com/goliatone/go-repository-cache/cache"

	"github.com/goliatone/go-ownership/core"
)

const assetCacheKeyPrefix = "go-ownership::asset::v1"

// CachedAssetStore serves Get and Has from a read-through cache. Writes made
// through it drop the cached entry before and after the base write. Writes
// that bypass this decorator are only picked up once the cache TTL expires.
type CachedAssetStore struct {
	base      core.AssetStore
	cache     repositorycache.CacheService
	deleteKey func(ctx context.Context, key string) error
	logger    glog.Logger
}

type CachedAssetStoreOption func(*CachedAssetStore)

// WithCacheLogger receives warnings about entries that could not be dropped
// after a committed write.
func WithCacheLogger(logger glog.Logger) CachedAssetStoreOption {
	return func(s *CachedAssetStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewCachedAssetStore(base core.AssetStore, cacheService repositorycache.CacheService, opts ...CachedAssetStoreOption) (*CachedAssetStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base asset store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: asset cache service is required")
	}
	store := &CachedAssetStore{
		base:      base,
		cache:     cacheService,
		deleteKey: cacheService.Delete,
		logger:    glog.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	return store, nil
}

// AssetCacheKey returns go-ownership::asset::v1::<asset_id> with the id
// URL-path escaped.
func AssetCacheKey(id core.AssetID) (string, error) {
	if id == "" {
		return "", fmt.Errorf("%w: asset id is required for cache key", core.ErrInvalidInput)
	}
	return assetCacheKeyPrefix + "::" + url.PathEscape(string(id)), nil
}

// cachedAsset records misses too, so Has on an unknown id is served from the
// cache until the next write.
type cachedAsset struct {
	Asset core.Asset
	Found bool
}

func (s *CachedAssetStore) fetch(ctx context.Context, id core.AssetID) (cachedAsset, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return cachedAsset{}, fmt.Errorf("sqlstore: cached asset store is not configured")
	}
	cacheKey, err := AssetCacheKey(id)
	if err != nil {
		return cachedAsset{}, err
	}
	return repositorycache.GetOrFetch(ctx, s.cache, cacheKey, func(ctx context.Context) (cachedAsset, error) {
		asset, fetchErr := s.base.Get(ctx, id)
		if fetchErr != nil {
			if errors.Is(fetchErr, core.ErrAssetNotFound) {
				return cachedAsset{}, nil
			}
			return cachedAsset{}, fetchErr
		}
		return cachedAsset{Asset: asset, Found: true}, nil
	})
}

func (s *CachedAssetStore) Get(ctx context.Context, id core.AssetID) (core.Asset, error) {
	entry, err := s.fetch(ctx, id)
	if err != nil {
		return core.Asset{}, err
	}
	if !entry.Found {
		return core.Asset{}, core.ErrAssetNotFound
	}
	return entry.Asset, nil
}

func (s *CachedAssetStore) Has(ctx context.Context, id core.AssetID) (bool, error) {
	entry, err := s.fetch(ctx, id)
	if err != nil {
		return false, err
	}
	return entry.Found, nil
}

func (s *CachedAssetStore) Set(ctx context.Context, asset core.Asset) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached asset store is not configured")
	}
	return s.writeThrough(ctx, asset.ID, func() error {
		return s.base.Set(ctx, asset)
	})
}

// Insert delegates to the base store's conditional insert when it has one.
// Otherwise it checks the base store and writes, which is only safe while the
// caller holds the per-id lock.
func (s *CachedAssetStore) Insert(ctx context.Context, asset core.Asset) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached asset store is not configured")
	}
	if inserter, ok := s.base.(core.AssetInserter); ok {
		return s.writeThrough(ctx, asset.ID, func() error {
			return inserter.Insert(ctx, asset)
		})
	}
	exists, err := s.base.Has(ctx, asset.ID)
	if err != nil {
		return err
	}
	if exists {
		return core.ErrAssetExists
	}
	return s.Set(ctx, asset)
}

// SwapOwner follows the same delegation rule as Insert.
func (s *CachedAssetStore) SwapOwner(ctx context.Context, id core.AssetID, expected core.Principal, next core.Principal) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached asset store is not configured")
	}
	if swapper, ok := s.base.(core.OwnerSwapper); ok {
		return s.writeThrough(ctx, id, func() error {
			return swapper.SwapOwner(ctx, id, expected, next)
		})
	}
	current, err := s.base.Get(ctx, id)
	if err != nil {
		return err
	}
	if current.Owner != expected {
		return core.ErrOwnerMismatch
	}
	current.Owner = next
	return s.Set(ctx, current)
}

// ListByOwner always reads the base store.
func (s *CachedAssetStore) ListByOwner(ctx context.Context, owner core.Principal) ([]core.Asset, error) {
	if s == nil || s.base == nil {
		return nil, fmt.Errorf("sqlstore: cached asset store is not configured")
	}
	lister, ok := s.base.(core.AssetLister)
	if !ok {
		return nil, core.ErrListUnsupported
	}
	return lister.ListByOwner(ctx, owner)
}

// writeThrough fails without writing when the entry cannot be dropped up
// front. Once write has committed it always reports success; a failed second
// drop is logged and the entry may stay stale until its TTL expires.
func (s *CachedAssetStore) writeThrough(ctx context.Context, id core.AssetID, write func() error) error {
	cacheKey, err := AssetCacheKey(id)
	if err != nil {
		return err
	}
	if err := s.deleteKey(ctx, cacheKey); err != nil {
		return fmt.Errorf("sqlstore: drop cached asset before write: %w", err)
	}
	if err := write(); err != nil {
		return err
	}
	if err := s.deleteKey(ctx, cacheKey); err != nil {
		s.logger.Warn("asset cache entry not dropped after write",
			"asset_id", string(id),
			"cache_key", cacheKey,
			"error", err,
		)
	}
	return nil
}
