package query

import (
	"context"

	"github.com/goliatone/go-ownership/core"
)

type OwnershipReader interface {
	Owner(ctx context.Context, id core.AssetID) (core.Principal, error)
	Asset(ctx context.Context, id core.AssetID) (core.Asset, error)
	AssetsOwnedBy(ctx context.Context, owner core.Principal) ([]core.Asset, error)
}

type GetOwnerQuery struct {
	reader OwnershipReader
}

func NewGetOwnerQuery(reader OwnershipReader) *GetOwnerQuery {
	return &GetOwnerQuery{reader: reader}
}

func (q *GetOwnerQuery) Query(ctx context.Context, msg GetOwnerMessage) (core.Principal, error) {
	if q == nil || q.reader == nil {
		return "", queryDependencyError("query: ownership reader is required")
	}
	return q.reader.Owner(ctx, msg.AssetID)
}

type GetAssetQuery struct {
	reader OwnershipReader
}

func NewGetAssetQuery(reader OwnershipReader) *GetAssetQuery {
	return &GetAssetQuery{reader: reader}
}

func (q *GetAssetQuery) Query(ctx context.Context, msg GetAssetMessage) (core.Asset, error) {
	if q == nil || q.reader == nil {
		return core.Asset{}, queryDependencyError("query: ownership reader is required")
	}
	return q.reader.Asset(ctx, msg.AssetID)
}

type ListOwnerAssetsQuery struct {
	reader OwnershipReader
}

func NewListOwnerAssetsQuery(reader OwnershipReader) *ListOwnerAssetsQuery {
	return &ListOwnerAssetsQuery{reader: reader}
}

func (q *ListOwnerAssetsQuery) Query(ctx context.Context, msg ListOwnerAssetsMessage) ([]core.Asset, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: ownership reader is required")
	}
	return q.reader.AssetsOwnedBy(ctx, msg.Owner)
}
