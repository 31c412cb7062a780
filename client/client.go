// Package client implements the typed HTTP boundary to the external wallet
// service. Every method performs exactly one round trip and reports non-2xx
// responses with the server body verbatim.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-provision/core"
	"github.com/goliatone/go-provision/transport"
)

const defaultRequestTimeout = 30 * time.Second

// Client talks to the wallet service balance and invoice API. It holds no
// mutable state; retry policy belongs to callers that know whether a call is
// safe to repeat.
type Client struct {
	baseURL        string
	adapter        core.TransportAdapter
	requestTimeout time.Duration
	logger         core.Logger
}

type Option func(*Client)

func WithTransport(adapter core.TransportAdapter) Option {
	return func(c *Client) {
		if adapter != nil {
			c.adapter = adapter
		}
	}
}

func WithRequestTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.requestTimeout = timeout
		}
	}
}

func WithLogger(logger core.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("client: base url is required")
	}
	c := &Client{
		baseURL:        baseURL,
		adapter:        transport.NewRESTAdapter(nil),
		requestTimeout: defaultRequestTimeout,
		logger:         glog.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

func (c *Client) CreateInvoice(ctx context.Context, req core.CreateInvoiceRequest) (core.Invoice, error) {
	if err := req.Validate(); err != nil {
		return core.Invoice{}, core.NewValidationError("invoice", err.Error())
	}

	payload := createInvoicePayload{
		AmountSats: req.AmountSats,
		Purpose:    string(req.Purpose),
		APIKey:     strings.TrimSpace(req.Credential),
	}
	var dto invoiceDTO
	if err := c.call(ctx, callSpec{
		operation: "create_invoice",
		method:    http.MethodPost,
		path:      "/v1/balance/lightning/invoice",
		body:      payload,
	}, &dto); err != nil {
		return core.Invoice{}, err
	}
	return dto.toDomain(), nil
}

func (c *Client) InvoiceStatus(ctx context.Context, invoiceID string) (core.InvoiceStatus, error) {
	invoiceID = strings.TrimSpace(invoiceID)
	if invoiceID == "" {
		return core.InvoiceStatus{}, core.NewValidationError("invoice_id", "invoice id is required")
	}

	var dto invoiceStatusDTO
	if err := c.call(ctx, callSpec{
		operation: "invoice_status",
		method:    http.MethodGet,
		path:      "/v1/balance/lightning/invoice/" + url.PathEscape(invoiceID) + "/status",
	}, &dto); err != nil {
		return core.InvoiceStatus{}, err
	}
	return dto.toDomain()
}

func (c *Client) RecoverInvoice(ctx context.Context, paymentRequest string) (core.InvoiceStatus, error) {
	paymentRequest = strings.TrimSpace(paymentRequest)
	if paymentRequest == "" {
		return core.InvoiceStatus{}, core.NewValidationError("bolt11", "payment request is required")
	}

	var dto invoiceStatusDTO
	if err := c.call(ctx, callSpec{
		operation: "recover_invoice",
		method:    http.MethodPost,
		path:      "/v1/balance/lightning/recover",
		body:      recoverPayload{Bolt11: paymentRequest},
	}, &dto); err != nil {
		return core.InvoiceStatus{}, err
	}
	return dto.toDomain()
}

func (c *Client) RedeemToken(ctx context.Context, token string) (core.RedeemResult, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return core.RedeemResult{}, core.NewValidationError("token", "token is required")
	}

	var dto redeemDTO
	if err := c.call(ctx, callSpec{
		operation: "redeem_token",
		method:    http.MethodGet,
		path:      "/v1/balance/create",
		query:     map[string]string{"initial_balance_token": token},
	}, &dto); err != nil {
		return core.RedeemResult{}, err
	}
	return core.RedeemResult{
		Credential:   strings.TrimSpace(dto.APIKey),
		BalanceMsats: dto.Balance,
	}, nil
}

func (c *Client) BalanceInfo(ctx context.Context, credential string) (core.WalletSnapshot, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return core.WalletSnapshot{}, core.NewValidationError("credential", "credential is required")
	}

	var dto balanceInfoDTO
	if err := c.call(ctx, callSpec{
		operation:  "balance_info",
		method:     http.MethodGet,
		path:       "/v1/balance/info",
		credential: credential,
	}, &dto); err != nil {
		return core.WalletSnapshot{}, err
	}

	snapshotCredential := strings.TrimSpace(dto.APIKey)
	if snapshotCredential == "" {
		snapshotCredential = credential
	}
	return core.WalletSnapshot{
		Credential:     snapshotCredential,
		SpendableMsats: dto.Balance,
		ReservedMsats:  dto.Reserved,
	}, nil
}

func (c *Client) TopUp(ctx context.Context, credential string, token string) (core.TopUpResult, error) {
	credential = strings.TrimSpace(credential)
	token = strings.TrimSpace(token)
	if credential == "" {
		return core.TopUpResult{}, core.NewValidationError("credential", "credential is required")
	}
	if token == "" {
		return core.TopUpResult{}, core.NewValidationError("token", "token is required")
	}

	var dto topUpDTO
	if err := c.call(ctx, callSpec{
		operation:  "topup",
		method:     http.MethodPost,
		path:       "/v1/balance/topup",
		credential: credential,
		body:       topUpPayload{CashuToken: token},
	}, &dto); err != nil {
		return core.TopUpResult{}, err
	}
	return core.TopUpResult{CreditedMsats: dto.Msats}, nil
}

func (c *Client) Refund(ctx context.Context, credential string) (core.RefundReceipt, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return core.RefundReceipt{}, core.NewValidationError("credential", "credential is required")
	}

	var dto refundDTO
	if err := c.call(ctx, callSpec{
		operation:  "refund",
		method:     http.MethodPost,
		path:       "/v1/balance/refund",
		credential: credential,
	}, &dto); err != nil {
		return core.RefundReceipt{}, err
	}
	return core.RefundReceipt{
		Token:       strings.TrimSpace(dto.Token),
		Recipient:   strings.TrimSpace(dto.Recipient),
		AmountSats:  dto.Sats,
		AmountMsats: dto.Msats,
	}, nil
}

type callSpec struct {
	operation  string
	method     string
	path       string
	query      map[string]string
	credential string
	body       any
}

func (c *Client) call(ctx context.Context, spec callSpec, out any) error {
	if c == nil || c.adapter == nil {
		return core.NewTransportError(nil, "client: transport adapter is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	headers := map[string]string{
		"Accept": "application/json",
	}
	if spec.credential != "" {
		headers["Authorization"] = "Bearer " + spec.credential
	}

	var body []byte
	if spec.body != nil {
		encoded, err := json.Marshal(spec.body)
		if err != nil {
			return core.NewTransportError(err, fmt.Sprintf("client: encode %s request", spec.operation))
		}
		body = encoded
		headers["Content-Type"] = "application/json"
	}

	res, err := c.adapter.Do(ctx, core.TransportRequest{
		Method:  spec.method,
		URL:     c.baseURL + spec.path,
		Headers: headers,
		Query:   spec.query,
		Body:    body,
		Timeout: c.requestTimeout,
	})
	if err != nil {
		return core.NewTransportError(err, fmt.Sprintf("client: %s request failed", spec.operation))
	}

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		c.logger.Debug("wallet service rejected request",
			"operation", spec.operation,
			"status_code", res.StatusCode,
		)
		return core.NewRemoteError(res.StatusCode, string(res.Body))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(res.Body, out); err != nil {
		return core.NewTransportError(err, fmt.Sprintf("client: decode %s response", spec.operation))
	}
	return nil
}

var _ core.WalletClient = (*Client)(nil)
