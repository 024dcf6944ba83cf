package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// Registry maps asset ids to their current owner. Register and Transfer run
// their read-check-write sequence under a per-id lock; operations on
// different ids never block each other.
type Registry struct {
	config            Config
	logger            Logger
	loggerProvider    LoggerProvider
	metricsRecorder   MetricsRecorder
	errorMapper       ErrorMapper
	persistenceClient any
	repositoryFactory any
	configProvider    ConfigProvider
	optionsResolver   OptionsResolver
	store             AssetStore
	locker            AssetLocker
	identityVerifier  IdentityVerifier
	idGenerator       IDGenerator
}

type RegistryDependencies struct {
	Logger            Logger
	LoggerProvider    LoggerProvider
	MetricsRecorder   MetricsRecorder
	ErrorMapper       ErrorMapper
	PersistenceClient any
	RepositoryFactory any
	ConfigProvider    ConfigProvider
	OptionsResolver   OptionsResolver
	AssetStore        AssetStore
	AssetLocker       AssetLocker
	IdentityVerifier  IdentityVerifier
	IDGenerator       IDGenerator
}

func NewRegistry(cfg Config, opts ...Option) (*Registry, error) {
	builder := defaultRegistryBuilder(cfg)
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("ownership", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("ownership"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = MapError
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.assetLocker == nil {
		builder.assetLocker = NewMemoryAssetLocker()
	}
	if builder.idGenerator == nil {
		builder.idGenerator = RandomIDGenerator{}
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	if builder.assetStore == nil && builder.repositoryFactory != nil {
		if storeFactory, ok := builder.repositoryFactory.(RepositoryStoreFactory); ok {
			stores, buildErr := storeFactory.BuildStores(builder.persistenceClient)
			if buildErr != nil {
				return nil, mapBuildError(builder.errorMapper, buildErr)
			}
			if stores != nil {
				builder.assetStore = stores.AssetStore()
			}
		} else if stores, ok := builder.repositoryFactory.(StoreProvider); ok {
			builder.assetStore = stores.AssetStore()
		}
	}
	if builder.assetStore == nil {
		logger.Warn("no asset store configured, falling back to in-memory store", "service", finalConfig.ServiceName)
		builder.assetStore = NewMemoryAssetStore()
	}

	return &Registry{
		config:            finalConfig,
		logger:            logger,
		loggerProvider:    provider,
		metricsRecorder:   builder.metricsRecorder,
		errorMapper:       builder.errorMapper,
		persistenceClient: builder.persistenceClient,
		repositoryFactory: builder.repositoryFactory,
		configProvider:    builder.configProvider,
		optionsResolver:   builder.optionsResolver,
		store:             builder.assetStore,
		locker:            builder.assetLocker,
		identityVerifier:  builder.identityVerifier,
		idGenerator:       builder.idGenerator,
	}, nil
}

func Setup(cfg Config, opts ...Option) (*Registry, error) {
	return NewRegistry(cfg, opts...)
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	mapped := mapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func (r *Registry) Config() Config {
	if r == nil {
		return Config{}
	}
	return r.config
}

func (r *Registry) Dependencies() RegistryDependencies {
	if r == nil {
		return RegistryDependencies{}
	}
	return RegistryDependencies{
		Logger:            r.logger,
		LoggerProvider:    r.loggerProvider,
		MetricsRecorder:   r.metricsRecorder,
		ErrorMapper:       r.errorMapper,
		PersistenceClient: r.persistenceClient,
		RepositoryFactory: r.repositoryFactory,
		ConfigProvider:    r.configProvider,
		OptionsResolver:   r.optionsResolver,
		AssetStore:        r.store,
		AssetLocker:       r.locker,
		IdentityVerifier:  r.identityVerifier,
		IDGenerator:       r.idGenerator,
	}
}

// MapError converts a registry error into the configured envelope.
func (r *Registry) MapError(err error) error {
	if err == nil {
		return nil
	}
	if r == nil || r.errorMapper == nil {
		return err
	}
	mapped := r.errorMapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

// Register records owner as the owner of id. It fails with
// *AlreadyRegisteredError when id already has an owner, leaving the store
// untouched.
func (r *Registry) Register(ctx context.Context, id AssetID, owner Principal) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"asset_id": string(id),
		"owner":    string(owner),
	}
	defer func() {
		r.observeOperation(ctx, startedAt, "register", err, fields)
	}()

	if err = r.ready(); err != nil {
		return err
	}
	if id, err = validateAssetID(id, r.config.Identifiers.MaxLength); err != nil {
		return err
	}
	if owner, err = validatePrincipal("owner", owner); err != nil {
		return err
	}

	unlock, err := r.acquire(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	err = r.insert(ctx, Asset{ID: id, Owner: owner})
	return err
}

// RegisterGenerated draws numeric ids until a free one is found and
// registers owner under it.
func (r *Registry) RegisterGenerated(ctx context.Context, owner Principal) (id AssetID, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"owner": string(owner),
	}
	defer func() {
		fields["asset_id"] = string(id)
		r.observeOperation(ctx, startedAt, "register_generated", err, fields)
	}()

	if err = r.ready(); err != nil {
		return "", err
	}
	if owner, err = validatePrincipal("owner", owner); err != nil {
		return "", err
	}

	attempts := r.config.Generation.MaxAttempts
	for attempt := 1; attempt <= attempts; attempt++ {
		candidate, genErr := r.idGenerator.Next(r.config.Generation.Digits)
		if genErr != nil {
			err = genErr
			return "", err
		}
		fields["attempts"] = attempt

		insertErr := r.insertLocked(ctx, Asset{ID: candidate, Owner: owner})
		if insertErr == nil {
			return candidate, nil
		}
		if !IsAlreadyRegistered(insertErr) {
			err = insertErr
			return "", err
		}
	}
	err = fmt.Errorf("%w after %d attempts", ErrIDSpaceExhausted, attempts)
	return "", err
}

// Transfer replaces the owner of id with to, provided from is the current
// owner. from == to is allowed and leaves the owner unchanged.
func (r *Registry) Transfer(ctx context.Context, id AssetID, from Principal, to Principal) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"asset_id": string(id),
		"from":     string(from),
		"to":       string(to),
	}
	defer func() {
		r.observeOperation(ctx, startedAt, "transfer", err, fields)
	}()

	if err = r.ready(); err != nil {
		return err
	}
	if id, err = validateAssetID(id, r.config.Identifiers.MaxLength); err != nil {
		return err
	}
	if from, err = validatePrincipal("from", from); err != nil {
		return err
	}
	if to, err = validatePrincipal("to", to); err != nil {
		return err
	}

	if r.identityVerifier != nil {
		if verifyErr := r.identityVerifier.Verify(ctx, from); verifyErr != nil {
			err = &UnauthenticatedError{Claimed: from, Cause: verifyErr}
			return err
		}
	}

	unlock, err := r.acquire(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	current, err := r.get(ctx, id)
	if err != nil {
		return err
	}
	if !current.OwnedBy(from) {
		err = &NotAuthorizedError{AssetID: id, Caller: from}
		return err
	}

	err = r.replaceOwner(ctx, current, to)
	return err
}

// Owner returns the current owner of id.
func (r *Registry) Owner(ctx context.Context, id AssetID) (owner Principal, err error) {
	asset, err := r.lookup(ctx, "owner", id)
	if err != nil {
		return "", err
	}
	return asset.Owner, nil
}

// Asset returns a copy of the record stored for id.
func (r *Registry) Asset(ctx context.Context, id AssetID) (Asset, error) {
	return r.lookup(ctx, "asset", id)
}

// AssetsOwnedBy lists the assets currently held by owner. The store must
// implement AssetLister.
func (r *Registry) AssetsOwnedBy(ctx context.Context, owner Principal) (assets []Asset, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"owner": string(owner),
	}
	defer func() {
		fields["count"] = len(assets)
		r.observeOperation(ctx, startedAt, "assets_owned_by", err, fields)
	}()

	if err = r.ready(); err != nil {
		return nil, err
	}
	if owner, err = validatePrincipal("owner", owner); err != nil {
		return nil, err
	}
	lister, ok := r.store.(AssetLister)
	if !ok {
		err = ErrListUnsupported
		return nil, err
	}
	assets, err = lister.ListByOwner(ctx, owner)
	if err != nil {
		err = storeUnavailable("list_by_owner", "", err)
		return nil, err
	}
	return assets, nil
}

func (r *Registry) lookup(ctx context.Context, operation string, id AssetID) (asset Asset, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"asset_id": string(id),
	}
	defer func() {
		r.observeOperation(ctx, startedAt, operation, err, fields)
	}()

	if err = r.ready(); err != nil {
		return Asset{}, err
	}
	if id, err = validateAssetID(id, r.config.Identifiers.MaxLength); err != nil {
		return Asset{}, err
	}
	asset, err = r.get(ctx, id)
	return asset, err
}

func (r *Registry) ready() error {
	if r == nil || r.store == nil {
		return fmt.Errorf("core: asset store is not configured")
	}
	return nil
}

func (r *Registry) acquire(ctx context.Context, id AssetID) (func(), error) {
	if r.locker == nil {
		return func() {}, nil
	}
	handle, err := r.locker.Acquire(ctx, id)
	if err != nil {
		return nil, &LockUnavailableError{AssetID: id, Cause: err}
	}
	return func() {
		_ = handle.Unlock(context.WithoutCancel(ctx))
	}, nil
}

func (r *Registry) insertLocked(ctx context.Context, asset Asset) error {
	unlock, err := r.acquire(ctx, asset.ID)
	if err != nil {
		return err
	}
	defer unlock()
	return r.insert(ctx, asset)
}

// insert must run under the lock for asset.ID.
func (r *Registry) insert(ctx context.Context, asset Asset) error {
	if inserter, ok := r.store.(AssetInserter); ok {
		if err := inserter.Insert(ctx, asset); err != nil {
			if errors.Is(err, ErrAssetExists) {
				return &AlreadyRegisteredError{AssetID: asset.ID}
			}
			return storeUnavailable("insert", asset.ID, err)
		}
		return nil
	}

	exists, err := r.store.Has(ctx, asset.ID)
	if err != nil {
		return storeUnavailable("has", asset.ID, err)
	}
	if exists {
		return &AlreadyRegisteredError{AssetID: asset.ID}
	}
	if err := r.store.Set(ctx, asset); err != nil {
		return storeUnavailable("set", asset.ID, err)
	}
	return nil
}

func (r *Registry) get(ctx context.Context, id AssetID) (Asset, error) {
	asset, err := r.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAssetNotFound) {
			return Asset{}, &NotFoundError{AssetID: id}
		}
		return Asset{}, storeUnavailable("get", id, err)
	}
	return asset, nil
}

// replaceOwner must run under the lock for current.ID.
func (r *Registry) replaceOwner(ctx context.Context, current Asset, to Principal) error {
	if swapper, ok := r.store.(OwnerSwapper); ok {
		err := swapper.SwapOwner(ctx, current.ID, current.Owner, to)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, ErrAssetNotFound):
			return &NotFoundError{AssetID: current.ID}
		case errors.Is(err, ErrOwnerMismatch):
			return &NotAuthorizedError{AssetID: current.ID, Caller: current.Owner}
		default:
			return storeUnavailable("swap_owner", current.ID, err)
		}
	}
	if err := r.store.Set(ctx, current.withOwner(to)); err != nil {
		return storeUnavailable("set", current.ID, err)
	}
	return nil
}
