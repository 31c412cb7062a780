package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[CreateFromTokenMessage] = (*CreateFromTokenCommand)(nil)
	_ gocmd.Commander[StartInvoiceMessage]    = (*StartInvoiceCommand)(nil)
	_ gocmd.Commander[AwaitInvoiceMessage]    = (*AwaitInvoiceCommand)(nil)
	_ gocmd.Commander[RecoverMessage]         = (*RecoverCommand)(nil)
	_ gocmd.Commander[TopUpMessage]           = (*TopUpCommand)(nil)
	_ gocmd.Commander[RefundMessage]          = (*RefundCommand)(nil)
)
