package command

import "github.com/goliatone/go-ownership/core"

const (
	TypeRegisterAsset          = "ownership.command.asset.register"
	TypeRegisterGeneratedAsset = "ownership.command.asset.register_generated"
	TypeTransferAsset          = "ownership.command.asset.transfer"
)

type RegisterAssetMessage struct {
	AssetID core.AssetID
	Owner   core.Principal
}

func (RegisterAssetMessage) Type() string { return TypeRegisterAsset }

func (m RegisterAssetMessage) Validate() error {
	if err := requireAssetID(m.AssetID); err != nil {
		return err
	}
	return requirePrincipal("owner", m.Owner)
}

// RegisterGeneratedAssetMessage asks the registry to pick a free numeric id.
// The chosen id is stored in the command result collector when one is
// attached to the context.
type RegisterGeneratedAssetMessage struct {
	Owner core.Principal
}

func (RegisterGeneratedAssetMessage) Type() string { return TypeRegisterGeneratedAsset }

func (m RegisterGeneratedAssetMessage) Validate() error {
	return requirePrincipal("owner", m.Owner)
}

type TransferAssetMessage struct {
	AssetID core.AssetID
	From    core.Principal
	To      core.Principal
}

func (TransferAssetMessage) Type() string { return TypeTransferAsset }

func (m TransferAssetMessage) Validate() error {
	if err := requireAssetID(m.AssetID); err != nil {
		return err
	}
	if err := requirePrincipal("from", m.From); err != nil {
		return err
	}
	return requirePrincipal("to", m.To)
}

func requireAssetID(id core.AssetID) error {
	if id == "" {
		return commandValidationError("asset_id", "asset id is required")
	}
	return nil
}

func requirePrincipal(field string, principal core.Principal) error {
	if principal.IsZero() {
		return commandValidationError(field, field+" is required")
	}
	return nil
}
