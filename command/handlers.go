package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-provision/core"
)

type ProvisioningService interface {
	CreateFromToken(ctx context.Context, token string) (core.Provision, error)
	StartInvoice(ctx context.Context, input core.StartInvoiceInput) (core.Invoice, error)
	AwaitInvoice(ctx context.Context, input core.AwaitInvoiceInput) (core.Provision, error)
	Recover(ctx context.Context, paymentRequest string) (core.Provision, error)
	TopUp(ctx context.Context, credential string, token string) (core.TopUpOutcome, error)
	Refund(ctx context.Context, credential string) (core.RefundReceipt, error)
}

type CreateFromTokenCommand struct {
	service ProvisioningService
}

func NewCreateFromTokenCommand(service ProvisioningService) *CreateFromTokenCommand {
	return &CreateFromTokenCommand{service: service}
}

func (c *CreateFromTokenCommand) Execute(ctx context.Context, msg CreateFromTokenMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: provisioning service is required")
	}
	out, err := c.service.CreateFromToken(ctx, msg.Token)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type StartInvoiceCommand struct {
	service ProvisioningService
}

func NewStartInvoiceCommand(service ProvisioningService) *StartInvoiceCommand {
	return &StartInvoiceCommand{service: service}
}

func (c *StartInvoiceCommand) Execute(ctx context.Context, msg StartInvoiceMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: provisioning service is required")
	}
	out, err := c.service.StartInvoice(ctx, msg.Input)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type AwaitInvoiceCommand struct {
	service ProvisioningService
}

func NewAwaitInvoiceCommand(service ProvisioningService) *AwaitInvoiceCommand {
	return &AwaitInvoiceCommand{service: service}
}

func (c *AwaitInvoiceCommand) Execute(ctx context.Context, msg AwaitInvoiceMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: provisioning service is required")
	}
	out, err := c.service.AwaitInvoice(ctx, msg.Input)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type RecoverCommand struct {
	service ProvisioningService
}

func NewRecoverCommand(service ProvisioningService) *RecoverCommand {
	return &RecoverCommand{service: service}
}

func (c *RecoverCommand) Execute(ctx context.Context, msg RecoverMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: provisioning service is required")
	}
	out, err := c.service.Recover(ctx, msg.PaymentRequest)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type TopUpCommand struct {
	service ProvisioningService
}

func NewTopUpCommand(service ProvisioningService) *TopUpCommand {
	return &TopUpCommand{service: service}
}

func (c *TopUpCommand) Execute(ctx context.Context, msg TopUpMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: provisioning service is required")
	}
	out, err := c.service.TopUp(ctx, msg.Credential, msg.Token)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type RefundCommand struct {
	service ProvisioningService
}

func NewRefundCommand(service ProvisioningService) *RefundCommand {
	return &RefundCommand{service: service}
}

func (c *RefundCommand) Execute(ctx context.Context, msg RefundMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: provisioning service is required")
	}
	out, err := c.service.Refund(ctx, msg.Credential)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
