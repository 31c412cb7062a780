package client

import (
	"strings"
	"time"

	"github.com/goliatone/go-provision/core"
)

type createInvoicePayload struct {
	AmountSats uint64 `json:"amount_sats"`
	Purpose    string `json:"purpose"`
	APIKey     string `json:"api_key,omitempty"`
}

type recoverPayload struct {
	Bolt11 string `json:"bolt11"`
}

type topUpPayload struct {
	CashuToken string `json:"cashu_token"`
}

type invoiceDTO struct {
	InvoiceID   string    `json:"invoice_id"`
	Bolt11      string    `json:"bolt11"`
	AmountSats  uint64    `json:"amount_sats"`
	ExpiresAt   time.Time `json:"expires_at"`
	PaymentHash string    `json:"payment_hash"`
}

func (d invoiceDTO) toDomain() core.Invoice {
	return core.Invoice{
		InvoiceID:      strings.TrimSpace(d.InvoiceID),
		PaymentRequest: strings.TrimSpace(d.Bolt11),
		AmountSats:     d.AmountSats,
		ExpiresAt:      d.ExpiresAt,
		PaymentHash:    strings.TrimSpace(d.PaymentHash),
	}
}

type invoiceStatusDTO struct {
	Status     string     `json:"status"`
	APIKey     string     `json:"api_key"`
	AmountSats uint64     `json:"amount_sats"`
	PaidAt     *time.Time `json:"paid_at"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
}

func (d invoiceStatusDTO) toDomain() (core.InvoiceStatus, error) {
	state, err := core.ParseInvoiceState(d.Status)
	if err != nil {
		return core.InvoiceStatus{}, core.NewTransportError(err, "client: unexpected invoice status payload")
	}
	return core.InvoiceStatus{
		State:      state,
		Credential: strings.TrimSpace(d.APIKey),
		AmountSats: d.AmountSats,
		CreatedAt:  d.CreatedAt,
		ExpiresAt:  d.ExpiresAt,
		PaidAt:     d.PaidAt,
	}, nil
}

type redeemDTO struct {
	APIKey  string `json:"api_key"`
	Balance uint64 `json:"balance"`
}

type balanceInfoDTO struct {
	APIKey   string `json:"api_key"`
	Balance  uint64 `json:"balance"`
	Reserved uint64 `json:"reserved"`
}

type topUpDTO struct {
	Msats uint64 `json:"msats"`
}

type refundDTO struct {
	Token     string `json:"token"`
	Recipient string `json:"recipient"`
	Sats      uint64 `json:"sats"`
	Msats     uint64 `json:"msats"`
}
