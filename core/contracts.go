package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// WalletClient is the typed boundary to the external wallet service. Every
// method performs exactly one HTTP round trip; retry policy belongs to
// callers that know whether the call is safe to repeat.
type WalletClient interface {
	CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (Invoice, error)
	InvoiceStatus(ctx context.Context, invoiceID string) (InvoiceStatus, error)
	RecoverInvoice(ctx context.Context, paymentRequest string) (InvoiceStatus, error)
	RedeemToken(ctx context.Context, token string) (RedeemResult, error)
	BalanceInfo(ctx context.Context, credential string) (WalletSnapshot, error)
	TopUp(ctx context.Context, credential string, token string) (TopUpResult, error)
	Refund(ctx context.Context, credential string) (RefundReceipt, error)
}

// SessionStore is the injected key-value capability that holds the active
// credential and snapshot. Browser session storage, memory, and SQL-backed
// implementations all satisfy it.
type SessionStore interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}

type ActivityStatus string

const (
	ActivityStatusSuccess ActivityStatus = "success"
	ActivityStatusFailure ActivityStatus = "failure"
)

type AppendActivityInput struct {
	Operation  string
	InvoiceID  string
	Credential string
	Status     ActivityStatus
	Error      string
	Metadata   map[string]any
	OccurredAt time.Time
}

type ActivityEntry struct {
	ID         string
	Operation  string
	InvoiceID  string
	Credential string
	Status     ActivityStatus
	Error      string
	Metadata   map[string]any
	CreatedAt  time.Time
}

type ActivityFilter struct {
	Operation string
	Status    ActivityStatus
	Page      int
	PerPage   int
}

type ActivityPage struct {
	Items   []ActivityEntry
	Page    int
	PerPage int
	Total   int
	HasNext bool
}

// ActivityStore records provisioning operations for audit surfaces.
type ActivityStore interface {
	Append(ctx context.Context, in AppendActivityInput) (ActivityEntry, error)
	List(ctx context.Context, filter ActivityFilter) (ActivityPage, error)
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

// TransportRequest and TransportResponse are the protocol-neutral request
// shapes executed by transport adapters.
type TransportRequest struct {
	Method               string
	URL                  string
	Headers              map[string]string
	Query                map[string]string
	Body                 []byte
	Metadata             map[string]any
	Timeout              time.Duration
	MaxResponseBodyBytes int64
}

type TransportResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
	Metadata   map[string]any
}

type TransportAdapter interface {
	Kind() string
	Do(ctx context.Context, req TransportRequest) (TransportResponse, error)
}

type JobExecutionMessage struct {
	JobID          string
	ScriptPath     string
	Parameters     map[string]any
	IdempotencyKey string
	DedupPolicy    string
}

type JobNackOptions struct {
	Delay      time.Duration
	Requeue    bool
	DeadLetter bool
	Reason     string
}

type JobEnqueuer interface {
	Enqueue(ctx context.Context, msg *JobExecutionMessage) error
}

type JobDelivery interface {
	Message() *JobExecutionMessage
	Ack(ctx context.Context) error
	Nack(ctx context.Context, opts JobNackOptions) error
}

type JobDequeuer interface {
	Dequeue(ctx context.Context) (JobDelivery, error)
}

type JobWorkerHook interface {
	OnStart(ctx context.Context, event JobWorkerEvent)
	OnSuccess(ctx context.Context, event JobWorkerEvent)
	OnFailure(ctx context.Context, event JobWorkerEvent)
	OnRetry(ctx context.Context, event JobWorkerEvent)
}

type JobWorkerEvent struct {
	Message   *JobExecutionMessage
	Attempt   int
	Delay     time.Duration
	Err       error
	StartedAt time.Time
	Duration  time.Duration
}
