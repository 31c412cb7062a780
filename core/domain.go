package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidInvoiceState      = errors.New("core: invalid invoice state")
	ErrInvalidInvoicePurpose    = errors.New("core: invalid invoice purpose")
	ErrInvoiceStateReverted     = errors.New("core: terminal invoice state cannot revert")
	ErrCredentialAlreadyRevoked = errors.New("core: credential already refunded")
)

// InvoiceState is the remote lifecycle state of a lightning invoice.
// Paid, Expired, and Cancelled are terminal and never revert.
type InvoiceState string

const (
	InvoiceStatePending   InvoiceState = "pending"
	InvoiceStatePaid      InvoiceState = "paid"
	InvoiceStateExpired   InvoiceState = "expired"
	InvoiceStateCancelled InvoiceState = "cancelled"
)

func (s InvoiceState) Terminal() bool {
	switch s {
	case InvoiceStatePaid, InvoiceStateExpired, InvoiceStateCancelled:
		return true
	}
	return false
}

func ParseInvoiceState(value string) (InvoiceState, error) {
	state := InvoiceState(strings.TrimSpace(strings.ToLower(value)))
	switch state {
	case InvoiceStatePending, InvoiceStatePaid, InvoiceStateExpired, InvoiceStateCancelled:
		return state, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidInvoiceState, value)
}

// InvoicePurpose distinguishes invoices that mint a new credential from
// invoices that top up an existing one.
type InvoicePurpose string

const (
	InvoicePurposeCreate InvoicePurpose = "create"
	InvoicePurposeTopUp  InvoicePurpose = "topup"
)

func ParseInvoicePurpose(value string) (InvoicePurpose, error) {
	purpose := InvoicePurpose(strings.TrimSpace(strings.ToLower(value)))
	switch purpose {
	case InvoicePurposeCreate, InvoicePurposeTopUp:
		return purpose, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidInvoicePurpose, value)
}

// Invoice is immutable once issued by the wallet service.
type Invoice struct {
	InvoiceID      string
	PaymentRequest string
	AmountSats     uint64
	ExpiresAt      time.Time
	PaymentHash    string
}

// InvoiceStatus is the remote view of an invoice at poll time. Credential is
// populated iff State is Paid.
type InvoiceStatus struct {
	State      InvoiceState
	Credential string
	AmountSats uint64
	CreatedAt  time.Time
	ExpiresAt  time.Time
	PaidAt     *time.Time
}

// WalletSnapshot is an immutable balance snapshot fetched fresh from the
// wallet service. Snapshots are replaced wholesale, never patched field by
// field, and never derived from local deltas.
type WalletSnapshot struct {
	Credential     string
	SpendableMsats uint64
	ReservedMsats  uint64
}

// RedeemResult is the outcome of exchanging a bearer token for a credential.
type RedeemResult struct {
	Credential   string
	BalanceMsats uint64
}

// TopUpResult carries the credited amount reported by the wallet service.
// The value is informational; callers re-sync for the authoritative balance.
type TopUpResult struct {
	CreditedMsats uint64
}

// RefundReceipt is produced once, at the moment a credential is burned.
// The credential is unusable afterwards.
type RefundReceipt struct {
	Token       string
	Recipient   string
	AmountSats  uint64
	AmountMsats uint64
}

// Provision pairs a usable credential with its authoritative snapshot. It is
// the terminal result of the create, recover, and await workflows.
type Provision struct {
	Credential string
	Snapshot   WalletSnapshot
}

/// TopUpOutcome is the result of a completed top-up: the credited amount plus
// the post-top-up snapshot fetched from the wallet service.
type TopUpOutcome struct {
	CreditedMsats uint64
	Snapshot      WalletSnapshot
}

// Session is the caller-visible view of the active provisioning session.
// Snapshot is nil when no snapshot is held (absent, not zeroed).
type Session struct {
	Credential string
	Snapshot   *WalletSnapshot
}

type CreateInvoiceRequest struct {
	AmountSats uint64
	Purpose    InvoicePurpose
	Credential string
}

func (r CreateInvoiceRequest) Validate() error {
	if r.AmountSats == 0 {
		return fmt.Errorf("core: invoice amount is required")
	}
	purpose, err := ParseInvoicePurpose(string(r.Purpose))
	if err != nil {
		return err
	}
	if purpose == InvoicePurposeTopUp && strings.TrimSpace(r.Credential) == "" {
		return fmt.Errorf("core: top-up invoices require a credential")
	}
	return nil
}

type StartInvoiceInput struct {
	AmountSats uint64
	Purpose    InvoicePurpose
	Credential string
}

type AwaitInvoiceInput struct {
	InvoiceID  string
	Purpose    InvoicePurpose
	Credential string
}

// RedactCredential keeps enough of a credential to correlate log and activity
// entries without persisting the usable secret.
func RedactCredential(credential string) string {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return ""
	}
	if len(credential) <= 8 {
		return "****"
	}
	return credential[:4] + "****" + credential[len(credential)-4:]
}

// MsatsFromSats converts a satoshi amount into millisatoshis.
func MsatsFromSats(sats uint64) uint64 {
	return sats * 1000
}
