package ownership

import (
	"fmt"

	commanddispatcher "github.com/goliatone/go-command/dispatcher"

	"github.com/goliatone/go-ownership/adapters/gocommand"
	ownershipcommand "github.com/goliatone/go-ownership/command"
	"github.com/goliatone/go-ownership/core"
	ownershipquery "github.com/goliatone/go-ownership/query"
)

type CommandQueryService interface {
	ownershipcommand.MutatingService
	ownershipquery.OwnershipReader
}

type Commands struct {
	Register          *ownershipcommand.RegisterAssetCommand
	RegisterGenerated *ownershipcommand.RegisterGeneratedAssetCommand
	Transfer          *ownershipcommand.TransferAssetCommand
}

type Queries struct {
	GetOwner        *ownershipquery.GetOwnerQuery
	GetAsset        *ownershipquery.GetAssetQuery
	ListOwnerAssets *ownershipquery.ListOwnerAssetsQuery
}

type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

func NewFacade(service CommandQueryService) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("ownership: command/query service is required")
	}
	return &Facade{
		service: service,
		commands: Commands{
			Register:          ownershipcommand.NewRegisterAssetCommand(service),
			RegisterGenerated: ownershipcommand.NewRegisterGeneratedAssetCommand(service),
			Transfer:          ownershipcommand.NewTransferAssetCommand(service),
		},
		queries: Queries{
			GetOwner:        ownershipquery.NewGetOwnerQuery(service),
			GetAsset:        ownershipquery.NewGetAssetQuery(service),
			ListOwnerAssets: ownershipquery.NewListOwnerAssetsQuery(service),
		},
	}, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}

// Mount registers every handler on adapter and subscribes it on the
// go-command dispatcher. On failure the handlers mounted so far are
// unsubscribed again.
func (f *Facade) Mount(adapter *gocommand.RegistryAdapter) (*gocommand.Subscriptions, error) {
	if f == nil {
		return nil, fmt.Errorf("ownership: facade is nil")
	}
	subscriptions := &gocommand.Subscriptions{}
	steps := []func() (commanddispatcher.Subscription, error){
		func() (commanddispatcher.Subscription, error) {
			return gocommand.RegisterAndSubscribe[ownershipcommand.RegisterAssetMessage](adapter, f.commands.Register)
		},
		func() (commanddispatcher.Subscription, error) {
			return gocommand.RegisterAndSubscribe[ownershipcommand.RegisterGeneratedAssetMessage](adapter, f.commands.RegisterGenerated)
		},
		func() (commanddispatcher.Subscription, error) {
			return gocommand.RegisterAndSubscribe[ownershipcommand.TransferAssetMessage](adapter, f.commands.Transfer)
		},
		func() (commanddispatcher.Subscription, error) {
			return gocommand.RegisterAndSubscribeQuery[ownershipquery.GetOwnerMessage, core.Principal](adapter, f.queries.GetOwner)
		},
		func() (commanddispatcher.Subscription, error) {
			return gocommand.RegisterAndSubscribeQuery[ownershipquery.GetAssetMessage, core.Asset](adapter, f.queries.GetAsset)
		},
		func() (commanddispatcher.Subscription, error) {
			return gocommand.RegisterAndSubscribeQuery[ownershipquery.ListOwnerAssetsMessage, []core.Asset](adapter, f.queries.ListOwnerAssets)
		},
	}
	for _, step := range steps {
		subscription, err := step()
		if err != nil {
			subscriptions.Unsubscribe()
			return nil, err
		}
		subscriptions.Add(subscription)
	}
	return subscriptions, nil
}
