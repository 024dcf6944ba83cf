package query

import (
	gocmd "github.com/goliatone/go-command"

	"github.com/goliatone/go-ownership/core"
)

var (
	_ gocmd.Querier[GetOwnerMessage, core.Principal]      = (*GetOwnerQuery)(nil)
	_ gocmd.Querier[GetAssetMessage, core.Asset]          = (*GetAssetQuery)(nil)
	_ gocmd.Querier[ListOwnerAssetsMessage, []core.Asset] = (*ListOwnerAssetsQuery)(nil)
	_ OwnershipReader                                     = (*core.Registry)(nil)
)
