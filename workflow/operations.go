package workflow

import (
	"context"
	"strings"

	"github.com/goliatone/go-provision/core"
)

// CreateFromToken exchanges a bearer token for a fresh credential and installs
// it as the active session. Redeeming is single-use; a failed redeem is never
// retried automatically.
func (o *Orchestrator) CreateFromToken(ctx context.Context, token string) (result core.Provision, err error) {
	startedAt := o.now()
	fields := map[string]any{}
	defer func() {
		o.observeOperation(ctx, startedAt, "create_from_token", err, fields)
		o.recordActivity(ctx, "create_from_token", "", result.Credential, err, nil)
	}()

	token = strings.TrimSpace(token)
	if token == "" {
		return core.Provision{}, core.NewValidationError("token", "token is required")
	}

	redeemed, err := o.client.RedeemToken(ctx, token)
	if err != nil {
		return core.Provision{}, err
	}

	snapshot := core.WalletSnapshot{
		Credential:     redeemed.Credential,
		SpendableMsats: redeemed.BalanceMsats,
	}
	if err := o.installSession(ctx, snapshot); err != nil {
		return core.Provision{}, err
	}

	fields["credential"] = core.RedactCredential(redeemed.Credential)
	return core.Provision{Credential: redeemed.Credential, Snapshot: snapshot}, nil
}

// StartInvoice asks the wallet service to mint an invoice. The caller presents
// the payment request off-band and then awaits the invoice.
func (o *Orchestrator) StartInvoice(ctx context.Context, input core.StartInvoiceInput) (invoice core.Invoice, err error) {
	startedAt := o.now()
	fields := map[string]any{"purpose": string(input.Purpose)}
	defer func() {
		o.observeOperation(ctx, startedAt, "start_invoice", err, fields)
		o.recordActivity(ctx, "start_invoice", invoice.InvoiceID, input.Credential, err, map[string]any{
			"purpose":     string(input.Purpose),
			"amount_sats": input.AmountSats,
		})
	}()

	request := core.CreateInvoiceRequest{
		AmountSats: input.AmountSats,
		Purpose:    input.Purpose,
		Credential: strings.TrimSpace(input.Credential),
	}
	if err := request.Validate(); err != nil {
		return core.Invoice{}, core.NewValidationError("invoice", err.Error())
	}

	invoice, err = o.client.CreateInvoice(ctx, request)
	if err != nil {
		return core.Invoice{}, err
	}
	fields["invoice_id"] = invoice.InvoiceID
	return invoice, nil
}

// AwaitInvoice polls an invoice until it is paid, then resolves the session.
// For create invoices the credential arrives with the paid status; for top-up
// invoices the existing credential is resynchronized.
func (o *Orchestrator) AwaitInvoice(ctx context.Context, input core.AwaitInvoiceInput) (result core.Provision, err error) {
	startedAt := o.now()
	fields := map[string]any{
		"invoice_id": input.InvoiceID,
		"purpose":    string(input.Purpose),
	}
	defer func() {
		o.observeOperation(ctx, startedAt, "await_invoice", err, fields)
		o.recordActivity(ctx, "await_invoice", input.InvoiceID, result.Credential, err, map[string]any{
			"purpose": string(input.Purpose),
		})
	}()

	invoiceID := strings.TrimSpace(input.InvoiceID)
	if invoiceID == "" {
		return core.Provision{}, core.NewValidationError("invoice_id", "invoice id is required")
	}
	purpose, parseErr := core.ParseInvoicePurpose(string(input.Purpose))
	if parseErr != nil {
		return core.Provision{}, core.NewValidationError("purpose", parseErr.Error())
	}
	credential := strings.TrimSpace(input.Credential)
	if purpose == core.InvoicePurposeTopUp && credential == "" {
		return core.Provision{}, core.NewValidationError("credential", "top-up invoices require a credential")
	}

	p, err := o.newPoller(invoiceID)
	if err != nil {
		return core.Provision{}, err
	}
	status, err := p.Run(ctx)
	if err != nil {
		return core.Provision{}, err
	}

	if purpose == core.InvoicePurposeTopUp {
		snapshot, err := o.Sync(ctx, credential)
		if err != nil {
			return core.Provision{}, err
		}
		return core.Provision{Credential: credential, Snapshot: snapshot}, nil
	}

	credential = strings.TrimSpace(status.Credential)
	if credential == "" {
		return core.Provision{}, core.NewTransportError(nil, "workflow: paid invoice status did not include a credential")
	}
	if err := o.sessions.Set(ctx, sessionCredentialKey, credential); err != nil {
		return core.Provision{}, err
	}

	snapshot, err := o.client.BalanceInfo(ctx, credential)
	if err != nil {
		return core.Provision{}, err
	}
	if err := o.applySnapshot(ctx, snapshot); err != nil {
		return core.Provision{}, err
	}
	return core.Provision{Credential: credential, Snapshot: snapshot}, nil
}

// CreateViaInvoice mints a create invoice, hands it to onInvoice so the caller
// can present it for payment, and awaits the paid status.
func (o *Orchestrator) CreateViaInvoice(ctx context.Context, amountSats uint64, onInvoice func(core.Invoice)) (core.Provision, error) {
	invoice, err := o.StartInvoice(ctx, core.StartInvoiceInput{
		AmountSats: amountSats,
		Purpose:    core.InvoicePurposeCreate,
	})
	if err != nil {
		return core.Provision{}, err
	}
	if onInvoice != nil {
		onInvoice(invoice)
	}
	return o.AwaitInvoice(ctx, core.AwaitInvoiceInput{
		InvoiceID: invoice.InvoiceID,
		Purpose:   core.InvoicePurposeCreate,
	})
}

// TopUpViaInvoice mints a top-up invoice for an existing credential, hands it
// to onInvoice, awaits payment, and returns the post-payment snapshot.
func (o *Orchestrator) TopUpViaInvoice(ctx context.Context, credential string, amountSats uint64, onInvoice func(core.Invoice)) (core.TopUpOutcome, error) {
	invoice, err := o.StartInvoice(ctx, core.StartInvoiceInput{
		AmountSats: amountSats,
		Purpose:    core.InvoicePurposeTopUp,
		Credential: credential,
	})
	if err != nil {
		return core.TopUpOutcome{}, err
	}
	if onInvoice != nil {
		onInvoice(invoice)
	}
	provision, err := o.AwaitInvoice(ctx, core.AwaitInvoiceInput{
		InvoiceID:  invoice.InvoiceID,
		Purpose:    core.InvoicePurposeTopUp,
		Credential: credential,
	})
	if err != nil {
		return core.TopUpOutcome{}, err
	}
	return core.TopUpOutcome{
		CreditedMsats: core.MsatsFromSats(invoice.AmountSats),
		Snapshot:      provision.Snapshot,
	}, nil
}

// Recover resolves a stalled create flow by querying a known payment request
// once. It succeeds only when the invoice is already paid; any other state is
// reported with its literal remote name so the caller can branch.
func (o *Orchestrator) Recover(ctx context.Context, paymentRequest string) (result core.Provision, err error) {
	startedAt := o.now()
	fields := map[string]any{}
	defer func() {
		o.observeOperation(ctx, startedAt, "recover", err, fields)
		o.recordActivity(ctx, "recover", "", result.Credential, err, nil)
	}()

	paymentRequest = strings.TrimSpace(paymentRequest)
	if paymentRequest == "" {
		return core.Provision{}, core.NewValidationError("bolt11", "payment request is required")
	}

	status, err := o.client.RecoverInvoice(ctx, paymentRequest)
	if err != nil {
		return core.Provision{}, err
	}
	if status.State != core.InvoiceStatePaid {
		return core.Provision{}, core.NewInvoiceStateError(paymentRequest, status.State)
	}

	credential := strings.TrimSpace(status.Credential)
	if credential == "" {
		return core.Provision{}, core.NewTransportError(nil, "workflow: paid invoice status did not include a credential")
	}
	if err := o.sessions.Set(ctx, sessionCredentialKey, credential); err != nil {
		return core.Provision{}, err
	}

	snapshot, err := o.client.BalanceInfo(ctx, credential)
	if err != nil {
		return core.Provision{}, err
	}
	if err := o.applySnapshot(ctx, snapshot); err != nil {
		return core.Provision{}, err
	}
	fields["credential"] = core.RedactCredential(credential)
	return core.Provision{Credential: credential, Snapshot: snapshot}, nil
}

// TopUp credits a credential with a bearer token, then immediately fetches
// the authoritative snapshot. The credited amount is informational and is
// never added to a cached balance.
func (o *Orchestrator) TopUp(ctx context.Context, credential string, token string) (outcome core.TopUpOutcome, err error) {
	startedAt := o.now()
	fields := map[string]any{"credential": core.RedactCredential(credential)}
	defer func() {
		o.observeOperation(ctx, startedAt, "topup", err, fields)
		o.recordActivity(ctx, "topup", "", credential, err, nil)
	}()

	credential = strings.TrimSpace(credential)
	token = strings.TrimSpace(token)
	if credential == "" {
		return core.TopUpOutcome{}, core.NewValidationError("credential", "credential is required")
	}
	if token == "" {
		return core.TopUpOutcome{}, core.NewValidationError("token", "token is required")
	}

	credited, err := o.client.TopUp(ctx, credential, token)
	if err != nil {
		return core.TopUpOutcome{}, err
	}

	snapshot, err := o.Sync(ctx, credential)
	if err != nil {
		return core.TopUpOutcome{}, err
	}
	fields["credited_msats"] = credited.CreditedMsats
	return core.TopUpOutcome{CreditedMsats: credited.CreditedMsats, Snapshot: snapshot}, nil
}

// Sync fetches a fresh snapshot for a credential. It always performs a full
// fetch; spendable and reserved balances change out-of-band. The snapshot is
// persisted only while the credential is still the active one.
func (o *Orchestrator) Sync(ctx context.Context, credential string) (snapshot core.WalletSnapshot, err error) {
	startedAt := o.now()
	fields := map[string]any{"credential": core.RedactCredential(credential)}
	defer func() {
		o.observeOperation(ctx, startedAt, "sync", err, fields)
	}()

	credential = strings.TrimSpace(credential)
	if credential == "" {
		return core.WalletSnapshot{}, core.NewValidationError("credential", "credential is required")
	}

	snapshot, err = o.client.BalanceInfo(ctx, credential)
	if err != nil {
		return core.WalletSnapshot{}, err
	}
	if err := o.applySnapshot(ctx, snapshot); err != nil {
		return core.WalletSnapshot{}, err
	}
	return snapshot, nil
}

// Refund burns a credential and returns the refund token. On success the
// session snapshot is discarded and the credential cleared; on failure local
// state is left untouched since the remote state did not change.
func (o *Orchestrator) Refund(ctx context.Context, credential string) (receipt core.RefundReceipt, err error) {
	startedAt := o.now()
	fields := map[string]any{"credential": core.RedactCredential(credential)}
	defer func() {
		o.observeOperation(ctx, startedAt, "refund", err, fields)
		o.recordActivity(ctx, "refund", "", credential, err, nil)
	}()

	credential = strings.TrimSpace(credential)
	if credential == "" {
		return core.RefundReceipt{}, core.NewValidationError("credential", "credential is required")
	}

	receipt, err = o.client.Refund(ctx, credential)
	if err != nil {
		return core.RefundReceipt{}, err
	}

	if err := o.clearSession(ctx, credential); err != nil {
		return core.RefundReceipt{}, err
	}
	fields["refund_msats"] = receipt.AmountMsats
	return receipt, nil
}
