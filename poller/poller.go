// Package poller drives a pending lightning invoice to a terminal state by
// querying its status at a fixed interval with a bounded attempt budget.
package poller

import (
	"context"
	"fmt"
	"strings"
	"time"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-provision/core"
)

const (
	DefaultInterval    = 5 * time.Second
	DefaultMaxAttempts = 60
)

// StatusFetcher is the single wallet service capability the poller needs.
type StatusFetcher interface {
	InvoiceStatus(ctx context.Context, invoiceID string) (core.InvoiceStatus, error)
}

// Waiter separates the interval wait from wall-clock time so the loop can be
// unit-tested without real timers.
type Waiter interface {
	Wait(ctx context.Context, delay time.Duration) error
}

type TimerWaiter struct{}

func (TimerWaiter) Wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Poller holds the explicit loop state for one invoice. Each instance is
// scoped to a single invocation; polling two invoices concurrently uses two
// independent pollers.
type Poller struct {
	invoiceID   string
	interval    time.Duration
	maxAttempts int
	attempt     int

	fetcher StatusFetcher
	waiter  Waiter
	logger  core.Logger
}

type Option func(*Poller)

func WithInterval(interval time.Duration) Option {
	return func(p *Poller) {
		if interval > 0 {
			p.interval = interval
		}
	}
}

func WithMaxAttempts(maxAttempts int) Option {
	return func(p *Poller) {
		if maxAttempts > 0 {
			p.maxAttempts = maxAttempts
		}
	}
}

func WithWaiter(waiter Waiter) Option {
	return func(p *Poller) {
		if waiter != nil {
			p.waiter = waiter
		}
	}
}

func WithLogger(logger core.Logger) Option {
	return func(p *Poller) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func New(fetcher StatusFetcher, invoiceID string, opts ...Option) (*Poller, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("poller: status fetcher is required")
	}
	invoiceID = strings.TrimSpace(invoiceID)
	if invoiceID == "" {
		return nil, fmt.Errorf("poller: invoice id is required")
	}
	p := &Poller{
		invoiceID:   invoiceID,
		interval:    DefaultInterval,
		maxAttempts: DefaultMaxAttempts,
		fetcher:     fetcher,
		waiter:      TimerWaiter{},
		logger:      glog.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p, nil
}

func (p *Poller) InvoiceID() string {
	return p.invoiceID
}

// Attempts reports how many polls the last Run performed.
func (p *Poller) Attempts() int {
	return p.attempt
}

// Run polls until the invoice reaches a terminal state or the attempt budget
// is exhausted. The first poll happens immediately; an invoice that is already
// paid terminates after exactly one attempt. Transport failures count as an
// attempt and do not stop the loop; remote rejections stop it at once.
func (p *Poller) Run(ctx context.Context) (core.InvoiceStatus, error) {
	if p == nil {
		return core.InvoiceStatus{}, fmt.Errorf("poller: poller is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	p.attempt = 0
	for p.attempt < p.maxAttempts {
		if p.attempt > 0 {
			if err := p.waiter.Wait(ctx, p.interval); err != nil {
				return core.InvoiceStatus{}, err
			}
		} else if err := ctx.Err(); err != nil {
			return core.InvoiceStatus{}, err
		}
		p.attempt++

		status, err := p.fetcher.InvoiceStatus(ctx, p.invoiceID)
		if err != nil {
			if core.IsTransport(err) {
				p.logger.Warn("invoice poll attempt failed",
					"invoice_id", p.invoiceID,
					"attempt", p.attempt,
					"max_attempts", p.maxAttempts,
					"error", err.Error(),
				)
				continue
			}
			return core.InvoiceStatus{}, err
		}

		switch status.State {
		case core.InvoiceStatePaid:
			p.logger.Info("invoice paid",
				"invoice_id", p.invoiceID,
				"attempt", p.attempt,
			)
			return status, nil
		case core.InvoiceStateExpired, core.InvoiceStateCancelled:
			return core.InvoiceStatus{}, core.NewInvoiceStateError(p.invoiceID, status.State)
		}

		p.logger.Debug("invoice still pending",
			"invoice_id", p.invoiceID,
			"attempt", p.attempt,
			"max_attempts", p.maxAttempts,
		)
	}

	return core.InvoiceStatus{}, core.NewPollTimeoutError(p.invoiceID, p.maxAttempts)
}

// TerminalFunc receives the poll outcome: a paid status, or the error that
// stopped the loop.
type TerminalFunc func(status core.InvoiceStatus, err error)

// Await runs the poll loop and delivers the outcome through onTerminal. A
// cancelled context suppresses the callback so a superseded poller can never
// deliver a stale result.
func (p *Poller) Await(ctx context.Context, onTerminal TerminalFunc) {
	if p == nil || onTerminal == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	status, err := p.Run(ctx)
	if ctx.Err() != nil {
		return
	}
	onTerminal(status, err)
}
