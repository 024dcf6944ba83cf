package core

import (
	"context"
	"errors"

	glog "github.com/goliatone/go-logger/glog"
)

var (
	// ErrAssetNotFound is returned by AssetStore implementations when no
	// record exists for the requested id.
	ErrAssetNotFound = errors.New("core: asset not found")
	// ErrAssetExists is returned by AssetInserter when the id is taken.
	ErrAssetExists = errors.New("core: asset already exists")
	// ErrOwnerMismatch is returned by OwnerSwapper when the stored owner no
	// longer equals the expected owner.
	ErrOwnerMismatch = errors.New("core: asset owner mismatch")
)

// AssetStore is the durable key-value collaborator. Get returns
// ErrAssetNotFound for unknown ids; any other error is a store failure.
type AssetStore interface {
	Get(ctx context.Context, id AssetID) (Asset, error)
	Set(ctx context.Context, asset Asset) error
	Has(ctx context.Context, id AssetID) (bool, error)
}

// AssetInserter is implemented by stores that can create a record only when
// the id is free, in one storage-level step.
type AssetInserter interface {
	Insert(ctx context.Context, asset Asset) error
}

// OwnerSwapper is implemented by stores that can replace the owner only when
// the stored owner still equals expected.
type OwnerSwapper interface {
	SwapOwner(ctx context.Context, id AssetID, expected Principal, next Principal) error
}

// AssetLister is implemented by stores that can enumerate the assets held by
// one owner.
type AssetLister interface {
	ListByOwner(ctx context.Context, owner Principal) ([]Asset, error)
}

// StoreProvider exposes the asset store built by a repository factory.
type StoreProvider interface {
	AssetStore() AssetStore
}

// RepositoryStoreFactory builds stores from a persistence client.
type RepositoryStoreFactory interface {
	BuildStores(persistenceClient any) (StoreProvider, error)
}

type LockHandle interface {
	Unlock(ctx context.Context) error
}

// AssetLocker provides mutual exclusion keyed by asset id.
type AssetLocker interface {
	Acquire(ctx context.Context, id AssetID) (LockHandle, error)
}

// IdentityVerifier asserts that the caller carried by ctx is the claimed
// principal. It performs authentication only; ownership checks stay in the
// registry.
type IdentityVerifier interface {
	Verify(ctx context.Context, claimed Principal) error
}

// IdentityVerifierFunc adapts a function to IdentityVerifier.
type IdentityVerifierFunc func(ctx context.Context, claimed Principal) error

func (f IdentityVerifierFunc) Verify(ctx context.Context, claimed Principal) error {
	if f == nil {
		return nil
	}
	return f(ctx, claimed)
}

// IDGenerator draws candidate asset ids for RegisterGenerated.
type IDGenerator interface {
	Next(digits int) (AssetID, error)
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

// OwnershipService is the request/response surface of the registry.
type OwnershipService interface {
	Register(ctx context.Context, id AssetID, owner Principal) error
	RegisterGenerated(ctx context.Context, owner Principal) (AssetID, error)
	Transfer(ctx context.Context, id AssetID, from Principal, to Principal) error
	Owner(ctx context.Context, id AssetID) (Principal, error)
	Asset(ctx context.Context, id AssetID) (Asset, error)
	AssetsOwnedBy(ctx context.Context, owner Principal) ([]Asset, error)
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger
