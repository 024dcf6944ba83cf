package sqlstore

import "github.com/goliatone/go-ownership/core"

var (
	_ core.AssetStore             = (*AssetStore)(nil)
	_ core.AssetInserter          = (*AssetStore)(nil)
	_ core.OwnerSwapper           = (*AssetStore)(nil)
	_ core.AssetLister            = (*AssetStore)(nil)
	_ core.AssetStore             = (*CachedAssetStore)(nil)
	_ core.AssetInserter          = (*CachedAssetStore)(nil)
	_ core.OwnerSwapper           = (*CachedAssetStore)(nil)
	_ core.AssetLister            = (*CachedAssetStore)(nil)
	_ core.StoreProvider          = (*RepositoryFactory)(nil)
	_ core.RepositoryStoreFactory = (*RepositoryFactory)(nil)
)
