package sqlstore

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-ownership/core"
)

type assetRecord struct {
	bun.BaseModel `bun:"table:ownership_assets,alias:oa"`

	ID        string    `bun:"id,pk"`
	AssetID   string    `bun:"asset_id,notnull"`
	Owner     string    `bun:"owner,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func newAssetRecord(asset core.Asset, now time.Time) *assetRecord {
	return &assetRecord{
		AssetID:   string(asset.ID),
		Owner:     string(asset.Owner),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (r *assetRecord) toDomain() core.Asset {
	if r == nil {
		return core.Asset{}
	}
	return core.Asset{
		ID:    core.AssetID(r.AssetID),
		Owner: core.Principal(r.Owner),
	}
}
