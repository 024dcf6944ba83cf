// Package ownership records which principal owns each asset id and lets the
// current owner hand an asset to someone else.
//
// The root package re-exports the core registry API and wires go-command
// handlers through Facade. Storage lives in store/sql, schema in migrations,
// and caller authentication in identity.
package ownership

import "github.com/goliatone/go-ownership/core"

type Config = core.Config

type Option = core.Option

type Registry = core.Registry

type RegistryDependencies = core.RegistryDependencies

type AssetID = core.AssetID

type Principal = core.Principal

type Asset = core.Asset

type AssetStore = core.AssetStore
type AssetLocker = core.AssetLocker
type IdentityVerifier = core.IdentityVerifier
type IDGenerator = core.IDGenerator
type MetricsRecorder = core.MetricsRecorder

var (
	WithLogger            = core.WithLogger
	WithLoggerProvider    = core.WithLoggerProvider
	WithMetricsRecorder   = core.WithMetricsRecorder
	WithErrorMapper       = core.WithErrorMapper
	WithPersistenceClient = core.WithPersistenceClient
	WithRepositoryFactory = core.WithRepositoryFactory
	WithConfigProvider    = core.WithConfigProvider
	WithOptionsResolver   = core.WithOptionsResolver
	WithAssetStore        = core.WithAssetStore
	WithAssetLocker       = core.WithAssetLocker
	WithIdentityVerifier  = core.WithIdentityVerifier
	WithIDGenerator       = core.WithIDGenerator
)

var (
	IsAlreadyRegistered = core.IsAlreadyRegistered
	IsNotFound          = core.IsNotFound
	IsNotAuthorized     = core.IsNotAuthorized
	IsStoreUnavailable  = core.IsStoreUnavailable
	IsLockUnavailable   = core.IsLockUnavailable
	MapError            = core.MapError
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewRegistry(cfg Config, opts ...Option) (*Registry, error) {
	return core.NewRegistry(cfg, opts...)
}

func Setup(cfg Config, opts ...Option) (*Registry, error) {
	return core.Setup(cfg, opts...)
}
