package workflow

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-provision/core"
	"github.com/goliatone/go-provision/poller"
)

type stubWalletClient struct {
	createInvoiceCalls int
	invoice            core.Invoice
	createInvoiceErr   error

	statusCalls    int
	statuses       []core.InvoiceStatus
	statusErrs     []error
	statusFallback core.InvoiceStatus

	recoverCalls  int
	recoverStatus core.InvoiceStatus
	recoverErr    error

	redeemCalls  int
	redeemResult core.RedeemResult
	redeemErr    error

	balanceCalls int
	snapshot     core.WalletSnapshot
	balanceErr   error

	topUpCalls  int
	topUpResult core.TopUpResult
	topUpErr    error

	refundCalls int
	receipt     core.RefundReceipt
	refundErr   error
}

func (s *stubWalletClient) CreateInvoice(_ context.Context, _ core.CreateInvoiceRequest) (core.Invoice, error) {
	s.createInvoiceCalls++
	return s.invoice, s.createInvoiceErr
}

func (s *stubWalletClient) InvoiceStatus(_ context.Context, _ string) (core.InvoiceStatus, error) {
	index := s.statusCalls
	s.statusCalls++
	if index < len(s.statusErrs) && s.statusErrs[index] != nil {
		return core.InvoiceStatus{}, s.statusErrs[index]
	}
	if index < len(s.statuses) {
		return s.statuses[index], nil
	}
	return s.statusFallback, nil
}

func (s *stubWalletClient) RecoverInvoice(_ context.Context, _ string) (core.InvoiceStatus, error) {
	s.recoverCalls++
	return s.recoverStatus, s.recoverErr
}

func (s *stubWalletClient) RedeemToken(_ context.Context, _ string) (core.RedeemResult, error) {
	s.redeemCalls++
	return s.redeemResult, s.redeemErr
}

func (s *stubWalletClient) BalanceInfo(_ context.Context, _ string) (core.WalletSnapshot, error) {
	s.balanceCalls++
	return s.snapshot, s.balanceErr
}

func (s *stubWalletClient) TopUp(_ context.Context, _ string, _ string) (core.TopUpResult, error) {
	s.topUpCalls++
	return s.topUpResult, s.topUpErr
}

func (s *stubWalletClient) Refund(_ context.Context, _ string) (core.RefundReceipt, error) {
	s.refundCalls++
	return s.receipt, s.refundErr
}

func (s *stubWalletClient) totalCalls() int {
	return s.createInvoiceCalls + s.statusCalls + s.recoverCalls +
		s.redeemCalls + s.balanceCalls + s.topUpCalls + s.refundCalls
}

type instantWaiter struct{}

func (instantWaiter) Wait(ctx context.Context, _ time.Duration) error { return ctx.Err() }

func newOrchestrator(t *testing.T, client core.WalletClient, opts ...Option) *Orchestrator {
	t.Helper()
	base := []Option{
		WithWaiter(instantWaiter{}),
		WithNow(func() time.Time { return time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC) }),
	}
	o, err := New(client, append(base, opts...)...)
	if err != nil {
		t.Fatalf("new orchestrator: %v", err)
	}
	return o
}

func TestCreateFromTokenInstallsSession(t *testing.T) {
	client := &stubWalletClient{
		redeemResult: core.RedeemResult{Credential: "sk-abcdefghijklmnop", BalanceMsats: 1_000_000},
		snapshot:     core.WalletSnapshot{Credential: "sk-abcdefghijklmnop", SpendableMsats: 1_000_000},
	}
	o := newOrchestrator(t, client)

	provision, err := o.CreateFromToken(context.Background(), "cashuA...")
	if err != nil {
		t.Fatalf("create from token: %v", err)
	}
	if provision.Credential != "sk-abcdefghijklmnop" {
		t.Fatalf("unexpected credential %q", provision.Credential)
	}
	if provision.Snapshot.SpendableMsats != 1_000_000 {
		t.Fatalf("unexpected snapshot %+v", provision.Snapshot)
	}

	session, err := o.ActiveSession(context.Background())
	if err != nil {
		t.Fatalf("active session: %v", err)
	}
	if session.Credential != provision.Credential {
		t.Fatalf("expected session installed, got %+v", session)
	}
	if session.Snapshot == nil || session.Snapshot.SpendableMsats != 1_000_000 {
		t.Fatalf("expected session snapshot, got %+v", session.Snapshot)
	}

	synced, err := o.Sync(context.Background(), provision.Credential)
	if err != nil {
		t.Fatalf("sync after create: %v", err)
	}
	if synced.SpendableMsats != provision.Snapshot.SpendableMsats {
		t.Fatalf("round trip mismatch: %d vs %d", synced.SpendableMsats, provision.Snapshot.SpendableMsats)
	}
}

func TestCreateFromTokenValidatesBeforeNetworkCall(t *testing.T) {
	client := &stubWalletClient{}
	o := newOrchestrator(t, client)

	_, err := o.CreateFromToken(context.Background(), "  ")
	if !core.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if client.totalCalls() != 0 {
		t.Fatalf("expected zero network calls, got %d", client.totalCalls())
	}
}

func TestCreateFromTokenSurfacesRemoteBodyVerbatim(t *testing.T) {
	body := `{"error":"token already spent"}`
	client := &stubWalletClient{redeemErr: core.NewRemoteError(http.StatusConflict, body)}
	o := newOrchestrator(t, client)

	_, err := o.CreateFromToken(context.Background(), "cashuA...")
	if core.RemoteMessage(err) != body {
		t.Fatalf("expected verbatim server body, got %v", err)
	}

	session, err := o.ActiveSession(context.Background())
	if err != nil {
		t.Fatalf("active session: %v", err)
	}
	if session.Credential != "" {
		t.Fatalf("failed redeem must not install a session, got %+v", session)
	}
}

func TestCreateViaInvoiceScenario(t *testing.T) {
	client := &stubWalletClient{
		invoice: core.Invoice{
			InvoiceID:      "inv_1",
			PaymentRequest: "lnbc10u1p...",
			AmountSats:     1000,
		},
		statuses: []core.InvoiceStatus{{
			State:      core.InvoiceStatePaid,
			Credential: "sk-abc",
			AmountSats: 1000,
		}},
		snapshot: core.WalletSnapshot{Credential: "sk-abc", SpendableMsats: 1_000_000, ReservedMsats: 0},
	}
	o := newOrchestrator(t, client)

	var presented core.Invoice
	provision, err := o.CreateViaInvoice(context.Background(), 1000, func(invoice core.Invoice) {
		presented = invoice
	})
	if err != nil {
		t.Fatalf("create via invoice: %v", err)
	}
	if presented.AmountSats != 1000 {
		t.Fatalf("expected invoice presented before awaiting, got %+v", presented)
	}
	if client.statusCalls != 1 {
		t.Fatalf("paid-on-first-poll must terminate after one attempt, got %d", client.statusCalls)
	}

	want := core.WalletSnapshot{Credential: "sk-abc", SpendableMsats: 1_000_000, ReservedMsats: 0}
	if provision.Snapshot != want {
		t.Fatalf("unexpected snapshot %+v", provision.Snapshot)
	}
	if provision.Credential != "sk-abc" {
		t.Fatalf("unexpected credential %q", provision.Credential)
	}
}

func TestAwaitInvoicePendingExhaustsBudget(t *testing.T) {
	client := &stubWalletClient{statusFallback: core.InvoiceStatus{State: core.InvoiceStatePending}}
	o := newOrchestrator(t, client, WithPollMaxAttempts(60))

	_, err := o.AwaitInvoice(context.Background(), core.AwaitInvoiceInput{
		InvoiceID: "inv_1",
		Purpose:   core.InvoicePurposeCreate,
	})
	if !core.IsPollTimeout(err) {
		t.Fatalf("expected poll timeout, got %v", err)
	}
	if client.statusCalls != 60 {
		t.Fatalf("expected exactly 60 polls, got %d", client.statusCalls)
	}
}

func TestAwaitInvoiceTopUpResyncsCredential(t *testing.T) {
	client := &stubWalletClient{
		statuses: []core.InvoiceStatus{{State: core.InvoiceStatePaid, AmountSats: 500}},
		snapshot: core.WalletSnapshot{Credential: "sk-abcdefghijklmnop", SpendableMsats: 1_500_000},
	}
	o := newOrchestrator(t, client)
	if err := o.sessions.Set(context.Background(), sessionCredentialKey, "sk-abcdefghijklmnop"); err != nil {
		t.Fatalf("seed session: %v", err)
	}

	provision, err := o.AwaitInvoice(context.Background(), core.AwaitInvoiceInput{
		InvoiceID:  "inv_2",
		Purpose:    core.InvoicePurposeTopUp,
		Credential: "sk-abcdefghijklmnop",
	})
	if err != nil {
		t.Fatalf("await top-up invoice: %v", err)
	}
	if provision.Snapshot.SpendableMsats != 1_500_000 {
		t.Fatalf("expected post-payment snapshot, got %+v", provision.Snapshot)
	}
	if client.balanceCalls != 1 {
		t.Fatalf("expected a fresh balance fetch, got %d", client.balanceCalls)
	}
}

func TestRecoverSucceedsOnlyWhenPaid(t *testing.T) {
	client := &stubWalletClient{
		recoverStatus: core.InvoiceStatus{State: core.InvoiceStatePaid, Credential: "sk-abc"},
		snapshot:      core.WalletSnapshot{Credential: "sk-abc", SpendableMsats: 1_000_000},
	}
	o := newOrchestrator(t, client)

	provision, err := o.Recover(context.Background(), "lnbc10u1p...")
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	if provision.Credential != "sk-abc" {
		t.Fatalf("unexpected credential %q", provision.Credential)
	}
	if client.recoverCalls != 1 {
		t.Fatalf("recover must query status exactly once, got %d", client.recoverCalls)
	}
}

func TestRecoverReportsLiteralRemoteState(t *testing.T) {
	client := &stubWalletClient{recoverStatus: core.InvoiceStatus{State: core.InvoiceStateExpired}}
	o := newOrchestrator(t, client)

	_, err := o.Recover(context.Background(), "lnbc10u1p...")
	if err == nil || !strings.Contains(err.Error(), string(core.InvoiceStateExpired)) {
		t.Fatalf("expected literal remote state in error, got %v", err)
	}

	session, sessionErr := o.ActiveSession(context.Background())
	if sessionErr != nil {
		t.Fatalf("active session: %v", sessionErr)
	}
	if session.Credential != "" {
		t.Fatalf("failed recover must not produce a credential, got %+v", session)
	}
}

func TestTopUpValidatesBeforeNetworkCall(t *testing.T) {
	client := &stubWalletClient{}
	o := newOrchestrator(t, client)

	_, err := o.TopUp(context.Background(), "", "cashuA...")
	if !core.IsValidation(err) {
		t.Fatalf("expected validation error for blank credential, got %v", err)
	}
	_, err = o.TopUp(context.Background(), "sk-abc", " ")
	if !core.IsValidation(err) {
		t.Fatalf("expected validation error for blank token, got %v", err)
	}
	if client.totalCalls() != 0 {
		t.Fatalf("expected zero network calls, got %d", client.totalCalls())
	}
}

func TestTopUpResyncsImmediately(t *testing.T) {
	client := &stubWalletClient{
		topUpResult: core.TopUpResult{CreditedMsats: 250_000},
		snapshot:    core.WalletSnapshot{Credential: "sk-abcdefghijklmnop", SpendableMsats: 1_250_000},
	}
	o := newOrchestrator(t, client)
	if err := o.sessions.Set(context.Background(), sessionCredentialKey, "sk-abcdefghijklmnop"); err != nil {
		t.Fatalf("seed session: %v", err)
	}

	outcome, err := o.TopUp(context.Background(), "sk-abcdefghijklmnop", "cashuA...")
	if err != nil {
		t.Fatalf("topup: %v", err)
	}
	if outcome.CreditedMsats != 250_000 {
		t.Fatalf("unexpected credited amount %d", outcome.CreditedMsats)
	}
	if outcome.Snapshot.SpendableMsats != 1_250_000 {
		t.Fatalf("expected authoritative snapshot, got %+v", outcome.Snapshot)
	}
	if client.balanceCalls != 1 {
		t.Fatalf("expected one balance fetch after topup, got %d", client.balanceCalls)
	}

	session, err := o.ActiveSession(context.Background())
	if err != nil {
		t.Fatalf("active session: %v", err)
	}
	if session.Snapshot == nil || session.Snapshot.SpendableMsats != 1_250_000 {
		t.Fatalf("expected snapshot replaced wholesale, got %+v", session.Snapshot)
	}
}

func TestSyncDiscardsStaleResultAfterCredentialSwitch(t *testing.T) {
	client := &stubWalletClient{
		snapshot: core.WalletSnapshot{Credential: "sk-old-credential", SpendableMsats: 42},
	}
	o := newOrchestrator(t, client)
	if err := o.sessions.Set(context.Background(), sessionCredentialKey, "sk-new-credential"); err != nil {
		t.Fatalf("seed session: %v", err)
	}

	snapshot, err := o.Sync(context.Background(), "sk-old-credential")
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if snapshot.SpendableMsats != 42 {
		t.Fatalf("direct caller still receives the snapshot, got %+v", snapshot)
	}

	if _, found, _ := o.sessions.Get(context.Background(), sessionSnapshotKey); found {
		t.Fatalf("stale snapshot must not be persisted")
	}
}

func TestRefundClearsSession(t *testing.T) {
	client := &stubWalletClient{
		redeemResult: core.RedeemResult{Credential: "sk-abcdefghijklmnop", BalanceMsats: 900_000},
		receipt:      core.RefundReceipt{Token: "cashuBrefund...", AmountMsats: 900_000},
	}
	o := newOrchestrator(t, client)
	if _, err := o.CreateFromToken(context.Background(), "cashuA..."); err != nil {
		t.Fatalf("seed session: %v", err)
	}

	receipt, err := o.Refund(context.Background(), "sk-abcdefghijklmnop")
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if receipt.Token != "cashuBrefund..." {
		t.Fatalf("unexpected receipt %+v", receipt)
	}

	session, err := o.ActiveSession(context.Background())
	if err != nil {
		t.Fatalf("active session: %v", err)
	}
	if session.Credential != "" || session.Snapshot != nil {
		t.Fatalf("refund must clear credential and snapshot, got %+v", session)
	}
}

func TestRefundFailureLeavesSessionUntouched(t *testing.T) {
	client := &stubWalletClient{
		redeemResult: core.RedeemResult{Credential: "sk-abcdefghijklmnop", BalanceMsats: 900_000},
		refundErr:    core.NewRemoteError(http.StatusUnauthorized, "credential already refunded"),
	}
	o := newOrchestrator(t, client)
	if _, err := o.CreateFromToken(context.Background(), "cashuA..."); err != nil {
		t.Fatalf("seed session: %v", err)
	}

	_, err := o.Refund(context.Background(), "sk-abcdefghijklmnop")
	if !core.IsRemote(err) {
		t.Fatalf("expected remote error, got %v", err)
	}

	session, sessionErr := o.ActiveSession(context.Background())
	if sessionErr != nil {
		t.Fatalf("active session: %v", sessionErr)
	}
	if session.Credential != "sk-abcdefghijklmnop" || session.Snapshot == nil {
		t.Fatalf("failed refund must leave local state untouched, got %+v", session)
	}
}

func TestOperationsAfterRefundSurfaceRemoteErrors(t *testing.T) {
	client := &stubWalletClient{
		receipt:    core.RefundReceipt{Token: "cashuBrefund..."},
		balanceErr: core.NewRemoteError(http.StatusUnauthorized, "invalid api key"),
		topUpErr:   core.NewRemoteError(http.StatusUnauthorized, "invalid api key"),
	}
	o := newOrchestrator(t, client)

	if _, err := o.Refund(context.Background(), "sk-abcdefghijklmnop"); err != nil {
		t.Fatalf("refund: %v", err)
	}
	if _, err := o.Sync(context.Background(), "sk-abcdefghijklmnop"); !core.IsRemote(err) {
		t.Fatalf("expected post-refund sync to fail, got %v", err)
	}
	if _, err := o.TopUp(context.Background(), "sk-abcdefghijklmnop", "cashuA..."); !core.IsRemote(err) {
		t.Fatalf("expected post-refund topup to fail, got %v", err)
	}
}

func TestTopUpViaInvoiceReturnsOutcome(t *testing.T) {
	client := &stubWalletClient{
		invoice: core.Invoice{InvoiceID: "inv_3", AmountSats: 500},
		statuses: []core.InvoiceStatus{{
			State:      core.InvoiceStatePaid,
			AmountSats: 500,
		}},
		snapshot: core.WalletSnapshot{Credential: "sk-abcdefghijklmnop", SpendableMsats: 1_500_000},
	}
	o := newOrchestrator(t, client)
	if err := o.sessions.Set(context.Background(), sessionCredentialKey, "sk-abcdefghijklmnop"); err != nil {
		t.Fatalf("seed session: %v", err)
	}

	outcome, err := o.TopUpViaInvoice(context.Background(), "sk-abcdefghijklmnop", 500, nil)
	if err != nil {
		t.Fatalf("topup via invoice: %v", err)
	}
	if outcome.CreditedMsats != 500_000 {
		t.Fatalf("unexpected credited amount %d", outcome.CreditedMsats)
	}
	if outcome.Snapshot.SpendableMsats != 1_500_000 {
		t.Fatalf("unexpected snapshot %+v", outcome.Snapshot)
	}
}

func TestActivityEntriesRecorded(t *testing.T) {
	activity := &recordingActivityStore{}
	client := &stubWalletClient{
		redeemResult: core.RedeemResult{Credential: "sk-abcdefghijklmnop", BalanceMsats: 1_000_000},
	}
	o := newOrchestrator(t, client, WithActivityStore(activity))

	if _, err := o.CreateFromToken(context.Background(), "cashuA..."); err != nil {
		t.Fatalf("create from token: %v", err)
	}
	if _, err := o.CreateFromToken(context.Background(), ""); err == nil {
		t.Fatalf("expected validation failure")
	}

	if len(activity.entries) != 2 {
		t.Fatalf("expected 2 activity entries, got %d", len(activity.entries))
	}
	if activity.entries[0].Status != core.ActivityStatusSuccess {
		t.Fatalf("expected success entry, got %+v", activity.entries[0])
	}
	if activity.entries[0].Credential != core.RedactCredential("sk-abcdefghijklmnop") {
		t.Fatalf("activity must store redacted credentials, got %q", activity.entries[0].Credential)
	}
	if activity.entries[1].Status != core.ActivityStatusFailure || activity.entries[1].Error == "" {
		t.Fatalf("expected failure entry with error text, got %+v", activity.entries[1])
	}
}

type recordingActivityStore struct {
	entries []core.AppendActivityInput
}

func (s *recordingActivityStore) Append(_ context.Context, in core.AppendActivityInput) (core.ActivityEntry, error) {
	s.entries = append(s.entries, in)
	return core.ActivityEntry{
		Operation:  in.Operation,
		InvoiceID:  in.InvoiceID,
		Credential: in.Credential,
		Status:     in.Status,
		Error:      in.Error,
		CreatedAt:  in.OccurredAt,
	}, nil
}

func (s *recordingActivityStore) List(_ context.Context, _ core.ActivityFilter) (core.ActivityPage, error) {
	return core.ActivityPage{}, nil
}

var _ poller.Waiter = instantWaiter{}
