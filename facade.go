package provision

import (
	"fmt"

	provisioncommand "github.com/goliatone/go-provision/command"
	provisionquery "github.com/goliatone/go-provision/query"
)

// CommandQueryService is the surface the facade dispatches against. The
// workflow orchestrator satisfies it directly.
type CommandQueryService interface {
	provisioncommand.ProvisioningService
	provisionquery.WalletSynchronizer
	provisionquery.SessionReader
}

type Commands struct {
	CreateFromToken *provisioncommand.CreateFromTokenCommand
	StartInvoice    *provisioncommand.StartInvoiceCommand
	AwaitInvoice    *provisioncommand.AwaitInvoiceCommand
	Recover         *provisioncommand.RecoverCommand
	TopUp           *provisioncommand.TopUpCommand
	Refund          *provisioncommand.RefundCommand
}

type Queries struct {
	SyncWallet   *provisionquery.SyncWalletQuery
	GetSession   *provisionquery.GetSessionQuery
	ListActivity *provisionquery.ListActivityQuery
}

type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

type FacadeOption func(*facadeOptions)

type facadeOptions struct {
	activityReader provisionquery.ActivityReader
}

// WithActivityReader supplies the store backing the activity listing query.
// Without it the facade falls back to the service when it can list activity.
func WithActivityReader(reader provisionquery.ActivityReader) FacadeOption {
	return func(options *facadeOptions) {
		options.activityReader = reader
	}
}

func NewFacade(service CommandQueryService, opts ...FacadeOption) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("provision: command/query service is required")
	}
	cfg := facadeOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	reader := cfg.activityReader
	if reader == nil {
		if candidate, ok := service.(provisionquery.ActivityReader); ok {
			reader = candidate
		}
	}

	facade := &Facade{service: service}
	facade.commands = Commands{
		CreateFromToken: provisioncommand.NewCreateFromTokenCommand(service),
		StartInvoice:    provisioncommand.NewStartInvoiceCommand(service),
		AwaitInvoice:    provisioncommand.NewAwaitInvoiceCommand(service),
		Recover:         provisioncommand.NewRecoverCommand(service),
		TopUp:           provisioncommand.NewTopUpCommand(service),
		Refund:          provisioncommand.NewRefundCommand(service),
	}
	facade.queries = Queries{
		SyncWallet:   provisionquery.NewSyncWalletQuery(service),
		GetSession:   provisionquery.NewGetSessionQuery(service),
		ListActivity: provisionquery.NewListActivityQuery(reader),
	}

	return facade, nil
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
