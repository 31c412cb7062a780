package workflow

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/goliatone/go-provision/core"
)

func (o *Orchestrator) observeOperation(
	ctx context.Context,
	startedAt time.Time,
	operation string,
	err error,
	fields map[string]any,
) {
	if o == nil {
		return
	}
	operation = normalizeOperation(operation)
	if operation == "" {
		operation = "unknown"
	}
	status := "success"
	if err != nil {
		status = "failure"
	}

	contextFields := cloneFields(fields)
	contextFields["event_type"] = operation
	contextFields["status"] = status
	contextFields["duration_ms"] = time.Since(startedAt).Milliseconds()
	if err != nil {
		contextFields["error"] = err.Error()
	}

	tags := map[string]string{
		"operation": operation,
		"status":    status,
	}
	for _, key := range []string{"invoice_id", "purpose"} {
		if value := strings.TrimSpace(fmt.Sprint(contextFields[key])); value != "" && value != "<nil>" {
			tags[key] = value
		}
	}

	o.recordCounter(ctx, "provision."+operation+".total", 1, tags)
	o.recordHistogram(ctx, "provision."+operation+".duration_ms", float64(time.Since(startedAt).Milliseconds()), tags)

	if err != nil {
		o.logWithLevel(ctx, "error", operation+" failed", contextFields)
		return
	}
	o.logWithLevel(ctx, "info", operation+" succeeded", contextFields)
}

func (o *Orchestrator) logWithLevel(ctx context.Context, level string, message string, fields map[string]any) {
	if o == nil || o.logger == nil {
		return
	}
	logger := o.logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	if fieldsLogger, ok := logger.(core.FieldsLogger); ok {
		logger = fieldsLogger.WithFields(cloneFields(fields))
	}
	args := flattenFields(fields)
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "error":
		logger.Error(message, args...)
	default:
		logger.Info(message, args...)
	}
}

func (o *Orchestrator) recordCounter(ctx context.Context, name string, value int64, tags map[string]string) {
	if o == nil || o.metrics == nil {
		return
	}
	o.metrics.IncCounter(ctx, strings.TrimSpace(name), value, cloneTags(tags))
}

func (o *Orchestrator) recordHistogram(ctx context.Context, name string, value float64, tags map[string]string) {
	if o == nil || o.metrics == nil {
		return
	}
	o.metrics.ObserveHistogram(ctx, strings.TrimSpace(name), value, cloneTags(tags))
}

// recordActivity appends an audit entry. Failures are logged, never surfaced;
// auditing must not fail the operation it records.
func (o *Orchestrator) recordActivity(
	ctx context.Context,
	operation string,
	invoiceID string,
	credential string,
	opErr error,
	metadata map[string]any,
) {
	if o == nil || o.activity == nil {
		return
	}
	input := core.AppendActivityInput{
		Operation:  normalizeOperation(operation),
		InvoiceID:  strings.TrimSpace(invoiceID),
		Credential: core.RedactCredential(credential),
		Status:     core.ActivityStatusSuccess,
		Metadata:   cloneFields(metadata),
		OccurredAt: o.now(),
	}
	if opErr != nil {
		input.Status = core.ActivityStatusFailure
		input.Error = opErr.Error()
	}
	if _, err := o.activity.Append(ctx, input); err != nil {
		o.logger.Warn("append activity entry failed",
			"operation", input.Operation,
			"error", err.Error(),
		)
	}
}

func cloneFields(fields map[string]any) map[string]any {
	if len(fields) == 0 {
		return map[string]any{}
	}
	copied := make(map[string]any, len(fields))
	for key, value := range fields {
		copied[key] = value
	}
	return copied
}

func cloneTags(tags map[string]string) map[string]string {
	if len(tags) == 0 {
		return map[string]string{}
	}
	copied := make(map[string]string, len(tags))
	for key, value := range tags {
		copied[key] = value
	}
	return copied
}

func flattenFields(fields map[string]any) []any {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	args := make([]any, 0, len(keys)*2)
	for _, key := range keys {
		args = append(args, key, fields[key])
	}
	return args
}

func normalizeOperation(operation string) string {
	operation = strings.TrimSpace(strings.ToLower(operation))
	operation = strings.ReplaceAll(operation, " ", "_")
	operation = strings.ReplaceAll(operation, "-", "_")
	return operation
}
