package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"

	"github.com/goliatone/go-ownership/core"
)

type MutatingService interface {
	Register(ctx context.Context, id core.AssetID, owner core.Principal) error
	RegisterGenerated(ctx context.Context, owner core.Principal) (core.AssetID, error)
	Transfer(ctx context.Context, id core.AssetID, from core.Principal, to core.Principal) error
}

type RegisterAssetCommand struct {
	service MutatingService
}

func NewRegisterAssetCommand(service MutatingService) *RegisterAssetCommand {
	return &RegisterAssetCommand{service: service}
}

func (c *RegisterAssetCommand) Execute(ctx context.Context, msg RegisterAssetMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: register service is required")
	}
	return c.service.Register(ctx, msg.AssetID, msg.Owner)
}

type RegisterGeneratedAssetCommand struct {
	service MutatingService
}

func NewRegisterGeneratedAssetCommand(service MutatingService) *RegisterGeneratedAssetCommand {
	return &RegisterGeneratedAssetCommand{service: service}
}

func (c *RegisterGeneratedAssetCommand) Execute(ctx context.Context, msg RegisterGeneratedAssetMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: register service is required")
	}
	id, err := c.service.RegisterGenerated(ctx, msg.Owner)
	if err != nil {
		return err
	}
	storeResult(ctx, id)
	return nil
}

type TransferAssetCommand struct {
	service MutatingService
}

func NewTransferAssetCommand(service MutatingService) *TransferAssetCommand {
	return &TransferAssetCommand{service: service}
}

func (c *TransferAssetCommand) Execute(ctx context.Context, msg TransferAssetMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: transfer service is required")
	}
	return c.service.Transfer(ctx, msg.AssetID, msg.From, msg.To)
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
