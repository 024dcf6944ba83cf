package query

import "github.com/goliatone/go-ownership/core"

const (
	TypeGetOwner        = "ownership.query.owner.get"
	TypeGetAsset        = "ownership.query.asset.get"
	TypeListOwnerAssets = "ownership.query.owner.assets"
)

type GetOwnerMessage struct {
	AssetID core.AssetID
}

func (GetOwnerMessage) Type() string { return TypeGetOwner }

func (m GetOwnerMessage) Validate() error {
	return requireAssetID(m.AssetID)
}

type GetAssetMessage struct {
	AssetID core.AssetID
}

func (GetAssetMessage) Type() string { return TypeGetAsset }

func (m GetAssetMessage) Validate() error {
	return requireAssetID(m.AssetID)
}

type ListOwnerAssetsMessage struct {
	Owner core.Principal
}

func (ListOwnerAssetsMessage) Type() string { return TypeListOwnerAssets }

func (m ListOwnerAssetsMessage) Validate() error {
	if m.Owner.IsZero() {
		return queryValidationError("owner", "owner is required")
	}
	return nil
}

func requireAssetID(id core.AssetID) error {
	if id == "" {
		return queryValidationError("asset_id", "asset id is required")
	}
	return nil
}
