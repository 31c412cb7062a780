package core

import (
	"fmt"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ProvisionErrorBadInput    = "PROVISION_BAD_INPUT"
	ProvisionErrorTransport   = "PROVISION_TRANSPORT"
	ProvisionErrorRemote      = "PROVISION_REMOTE"
	ProvisionErrorPollTimeout = "PROVISION_POLL_TIMEOUT"
	ProvisionErrorInternal    = "PROVISION_INTERNAL_ERROR"
)

// NewValidationError reports a blank or invalid local input. It is raised
// before any network call is made.
func NewValidationError(field string, message string) *goerrors.Error {
	return goerrors.NewValidation("provision: validation failed", goerrors.FieldError{
		Field:   field,
		Message: message,
	}).
		WithCode(http.StatusBadRequest).
		WithTextCode(ProvisionErrorBadInput)
}

// NewTransportError wraps a network or decode failure. Transport errors are
// retryable only inside the invoice poller.
func NewTransportError(source error, message string) *goerrors.Error {
	if source == nil {
		return goerrors.New(message, goerrors.CategoryExternal).
			WithCode(http.StatusBadGateway).
			WithTextCode(ProvisionErrorTransport)
	}
	return goerrors.Wrap(source, goerrors.CategoryExternal, message).
		WithCode(http.StatusBadGateway).
		WithTextCode(ProvisionErrorTransport)
}

// NewRemoteError carries a non-2xx wallet service response. The message is
// the server-provided body text, propagated unchanged.
func NewRemoteError(statusCode int, body string) *goerrors.Error {
	message := strings.TrimSpace(body)
	if message == "" {
		message = "provision: wallet service request failed"
	}
	if statusCode < http.StatusBadRequest {
		statusCode = http.StatusBadGateway
	}
	return goerrors.New(message, goerrors.CategoryExternal).
		WithCode(statusCode).
		WithTextCode(ProvisionErrorRemote)
}

// NewInvoiceStateError reports a terminal non-paid invoice state. The literal
// remote state name is kept in the message so callers can branch on it.
func NewInvoiceStateError(invoiceID string, state InvoiceState) *goerrors.Error {
	return goerrors.New(
		fmt.Sprintf("provision: invoice %q is %s", strings.TrimSpace(invoiceID), state),
		goerrors.CategoryExternal,
	).
		WithCode(http.StatusConflict).
		WithTextCode(ProvisionErrorRemote)
}

// NewPollTimeoutError signals an exhausted poll budget while the invoice is
// still pending. Distinct from a terminal state: the invoice may still be
// payable, and the caller must surface a manual recover path.
func NewPollTimeoutError(invoiceID string, attempts int) *goerrors.Error {
	return goerrors.New(
		fmt.Sprintf("provision: invoice %q still pending after %d polls", strings.TrimSpace(invoiceID), attempts),
		goerrors.CategoryOperation,
	).
		WithCode(http.StatusGatewayTimeout).
		WithTextCode(ProvisionErrorPollTimeout)
}

func IsValidation(err error) bool {
	return hasTextCode(err, ProvisionErrorBadInput)
}

func IsTransport(err error) bool {
	return hasTextCode(err, ProvisionErrorTransport)
}

func IsRemote(err error) bool {
	return hasTextCode(err, ProvisionErrorRemote)
}

func IsPollTimeout(err error) bool {
	return hasTextCode(err, ProvisionErrorPollTimeout)
}

// RemoteMessage returns the verbatim server text carried by a remote error,
// or an empty string when err is not a remote error.
func RemoteMessage(err error) string {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return ""
	}
	if strings.TrimSpace(richErr.TextCode) != ProvisionErrorRemote {
		return ""
	}
	return richErr.Message
}

func hasTextCode(err error, textCode string) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return strings.TrimSpace(richErr.TextCode) == textCode
}

func provisionErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureProvisionErrorEnvelope(richErr)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"), strings.Contains(msg, "mismatch"):
		return ensureProvisionErrorEnvelope(
			goerrors.New(err.Error(), goerrors.CategoryBadInput).
				WithTextCode(ProvisionErrorBadInput),
		)
	case strings.Contains(msg, "still pending"):
		return ensureProvisionErrorEnvelope(
			goerrors.New(err.Error(), goerrors.CategoryOperation).
				WithTextCode(ProvisionErrorPollTimeout),
		)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureProvisionErrorEnvelope(mapped)
}

func ensureProvisionErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = provisionHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultProvisionTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultProvisionTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return ProvisionErrorBadInput
	case goerrors.CategoryExternal:
		return ProvisionErrorRemote
	case goerrors.CategoryOperation:
		return ProvisionErrorPollTimeout
	default:
		return ProvisionErrorInternal
	}
}

func provisionHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	case goerrors.CategoryOperation:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// DefaultErrorMapper normalizes arbitrary errors into the provisioning
// envelope. Exposed for callers that surface errors over other transports.
func DefaultErrorMapper(err error) *goerrors.Error {
	return provisionErrorMapper(err)
}
