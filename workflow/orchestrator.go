// Package workflow composes the wallet client, invoice poller, and session
// state into the user-facing provisioning operations: create a credential
// from a token or a paid invoice, top it up, resynchronize its balance,
// recover a stalled invoice, and refund it.
package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-provision/core"
	"github.com/goliatone/go-provision/poller"
)

const (
	sessionCredentialKey = "provision::session::credential"
	sessionSnapshotKey   = "provision::session::snapshot"
)

// Orchestrator owns the active provisioning session. Snapshot and credential
// fields belong to whichever flow last completed; results issued against a
// superseded credential are discarded rather than applied.
type Orchestrator struct {
	client   core.WalletClient
	sessions core.SessionStore
	activity core.ActivityStore
	metrics  core.MetricsRecorder
	logger   core.Logger

	pollInterval    time.Duration
	pollMaxAttempts int
	waiter          poller.Waiter
	now             func() time.Time
}

type Option func(*Orchestrator)

func WithSessionStore(store core.SessionStore) Option {
	return func(o *Orchestrator) {
		if store != nil {
			o.sessions = store
		}
	}
}

func WithActivityStore(store core.ActivityStore) Option {
	return func(o *Orchestrator) {
		if store != nil {
			o.activity = store
		}
	}
}

func WithMetricsRecorder(recorder core.MetricsRecorder) Option {
	return func(o *Orchestrator) {
		if recorder != nil {
			o.metrics = recorder
		}
	}
}

func WithLogger(logger core.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func WithPollInterval(interval time.Duration) Option {
	return func(o *Orchestrator) {
		if interval > 0 {
			o.pollInterval = interval
		}
	}
}

func WithPollMaxAttempts(maxAttempts int) Option {
	return func(o *Orchestrator) {
		if maxAttempts > 0 {
			o.pollMaxAttempts = maxAttempts
		}
	}
}

func WithWaiter(waiter poller.Waiter) Option {
	return func(o *Orchestrator) {
		if waiter != nil {
			o.waiter = waiter
		}
	}
}

func WithNow(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// WithConfig applies the poll settings from a resolved configuration.
func WithConfig(cfg core.Config) Option {
	return func(o *Orchestrator) {
		if interval := cfg.Poll.Interval(); interval > 0 {
			o.pollInterval = interval
		}
		if cfg.Poll.MaxAttempts > 0 {
			o.pollMaxAttempts = cfg.Poll.MaxAttempts
		}
	}
}

func New(client core.WalletClient, opts ...Option) (*Orchestrator, error) {
	if client == nil {
		return nil, fmt.Errorf("workflow: wallet client is required")
	}
	o := &Orchestrator{
		client:          client,
		sessions:        core.NewMemorySessionStore(),
		metrics:         core.NopMetricsRecorder{},
		logger:          glog.Nop(),
		pollInterval:    poller.DefaultInterval,
		pollMaxAttempts: poller.DefaultMaxAttempts,
		waiter:          poller.TimerWaiter{},
		now:             func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o, nil
}

type sessionSnapshot struct {
	Credential     string `json:"credential"`
	SpendableMsats uint64 `json:"spendable_msats"`
	ReservedMsats  uint64 `json:"reserved_msats"`
}

// ActiveSession reads the current credential and snapshot. A snapshot issued
// against a different credential is reported as absent.
func (o *Orchestrator) ActiveSession(ctx context.Context) (core.Session, error) {
	if o == nil {
		return core.Session{}, fmt.Errorf("workflow: orchestrator is not initialized")
	}
	credential, found, err := o.sessions.Get(ctx, sessionCredentialKey)
	if err != nil {
		return core.Session{}, err
	}
	if !found || strings.TrimSpace(credential) == "" {
		return core.Session{}, nil
	}

	session := core.Session{Credential: credential}
	raw, found, err := o.sessions.Get(ctx, sessionSnapshotKey)
	if err != nil {
		return core.Session{}, err
	}
	if !found {
		return session, nil
	}

	var stored sessionSnapshot
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		o.logger.Warn("discarding unreadable session snapshot", "error", err.Error())
		return session, nil
	}
	if stored.Credential != credential {
		return session, nil
	}
	session.Snapshot = &core.WalletSnapshot{
		Credential:     stored.Credential,
		SpendableMsats: stored.SpendableMsats,
		ReservedMsats:  stored.ReservedMsats,
	}
	return session, nil
}

// installSession replaces the active credential and snapshot wholesale. Used
// by the flows that mint or recover a credential.
func (o *Orchestrator) installSession(ctx context.Context, snapshot core.WalletSnapshot) error {
	if err := o.sessions.Set(ctx, sessionCredentialKey, snapshot.Credential); err != nil {
		return err
	}
	return o.writeSnapshot(ctx, snapshot)
}

// applySnapshot persists a snapshot only while its credential is still the
// active one. A result that raced with a credential switch is discarded; the
// snapshot is still returned to the direct caller.
func (o *Orchestrator) applySnapshot(ctx context.Context, snapshot core.WalletSnapshot) error {
	active, found, err := o.sessions.Get(ctx, sessionCredentialKey)
	if err != nil {
		return err
	}
	if !found || active != snapshot.Credential {
		o.logger.Debug("discarding stale snapshot",
			"credential", core.RedactCredential(snapshot.Credential),
		)
		return nil
	}
	return o.writeSnapshot(ctx, snapshot)
}

func (o *Orchestrator) writeSnapshot(ctx context.Context, snapshot core.WalletSnapshot) error {
	encoded, err := json.Marshal(sessionSnapshot{
		Credential:     snapshot.Credential,
		SpendableMsats: snapshot.SpendableMsats,
		ReservedMsats:  snapshot.ReservedMsats,
	})
	if err != nil {
		return err
	}
	return o.sessions.Set(ctx, sessionSnapshotKey, string(encoded))
}

// clearSession removes the credential and snapshot, but only while the given
// credential is still the active one.
func (o *Orchestrator) clearSession(ctx context.Context, credential string) error {
	active, found, err := o.sessions.Get(ctx, sessionCredentialKey)
	if err != nil {
		return err
	}
	if found && active != credential {
		return nil
	}
	if err := o.sessions.Delete(ctx, sessionSnapshotKey); err != nil {
		return err
	}
	return o.sessions.Delete(ctx, sessionCredentialKey)
}

func (o *Orchestrator) newPoller(invoiceID string) (*poller.Poller, error) {
	return poller.New(o.client, invoiceID,
		poller.WithInterval(o.pollInterval),
		poller.WithMaxAttempts(o.pollMaxAttempts),
		poller.WithWaiter(o.waiter),
		poller.WithLogger(o.logger),
	)
}
