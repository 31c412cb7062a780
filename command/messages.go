package command

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-provision/core"
)

const (
	TypeCreateFromToken = "provision.command.create_from_token"
	TypeStartInvoice    = "provision.command.invoice.start"
	TypeAwaitInvoice    = "provision.command.invoice.await"
	TypeRecover         = "provision.command.invoice.recover"
	TypeTopUp           = "provision.command.topup"
	TypeRefund          = "provision.command.refund"
)

type CreateFromTokenMessage struct {
	Token string
}

func (CreateFromTokenMessage) Type() string { return TypeCreateFromToken }

func (m CreateFromTokenMessage) Validate() error {
	if strings.TrimSpace(m.Token) == "" {
		return fmt.Errorf("command: token is required")
	}
	return nil
}

type StartInvoiceMessage struct {
	Input core.StartInvoiceInput
}

func (StartInvoiceMessage) Type() string { return TypeStartInvoice }

func (m StartInvoiceMessage) Validate() error {
	if m.Input.AmountSats == 0 {
		return fmt.Errorf("command: invoice amount is required")
	}
	if err := validatePurpose(m.Input.Purpose); err != nil {
		return err
	}
	if m.Input.Purpose == core.InvoicePurposeTopUp && strings.TrimSpace(m.Input.Credential) == "" {
		return fmt.Errorf("command: top-up invoices require a credential")
	}
	return nil
}

type AwaitInvoiceMessage struct {
	Input core.AwaitInvoiceInput
}

func (AwaitInvoiceMessage) Type() string { return TypeAwaitInvoice }

func (m AwaitInvoiceMessage) Validate() error {
	if strings.TrimSpace(m.Input.InvoiceID) == "" {
		return fmt.Errorf("command: invoice id is required")
	}
	if err := validatePurpose(m.Input.Purpose); err != nil {
		return err
	}
	if m.Input.Purpose == core.InvoicePurposeTopUp && strings.TrimSpace(m.Input.Credential) == "" {
		return fmt.Errorf("command: top-up invoices require a credential")
	}
	return nil
}

type RecoverMessage struct {
	PaymentRequest string
}

func (RecoverMessage) Type() string { return TypeRecover }

func (m RecoverMessage) Validate() error {
	if strings.TrimSpace(m.PaymentRequest) == "" {
		return fmt.Errorf("command: payment request is required")
	}
	return nil
}

type TopUpMessage struct {
	Credential string
	Token      string
}

func (TopUpMessage) Type() string { return TypeTopUp }

func (m TopUpMessage) Validate() error {
	if strings.TrimSpace(m.Credential) == "" {
		return fmt.Errorf("command: credential is required")
	}
	if strings.TrimSpace(m.Token) == "" {
		return fmt.Errorf("command: token is required")
	}
	return nil
}

type RefundMessage struct {
	Credential string
}

func (RefundMessage) Type() string { return TypeRefund }

func (m RefundMessage) Validate() error {
	if strings.TrimSpace(m.Credential) == "" {
		return fmt.Errorf("command: credential is required")
	}
	return nil
}

func validatePurpose(purpose core.InvoicePurpose) error {
	if _, err := core.ParseInvoicePurpose(string(purpose)); err != nil {
		return fmt.Errorf("command: %w", err)
	}
	return nil
}
