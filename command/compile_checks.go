package command

import (
	gocmd "github.com/goliatone/go-command"

	"github.com/goliatone/go-ownership/core"
)

var (
	_ gocmd.Commander[RegisterAssetMessage]          = (*RegisterAssetCommand)(nil)
	_ gocmd.Commander[RegisterGeneratedAssetMessage] = (*RegisterGeneratedAssetCommand)(nil)
	_ gocmd.Commander[TransferAssetMessage]          = (*TransferAssetCommand)(nil)
	_ MutatingService                                = (*core.Registry)(nil)
)
