package transport

import (
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-provision/core"
)

func transportError(message string, category goerrors.Category, code int, metadata map[string]any) *goerrors.Error {
	err := goerrors.New(message, category).
		WithCode(code).
		WithTextCode(transportTextCode(category))
	if len(metadata) > 0 {
		err = err.WithMetadata(metadata)
	}
	return err
}

func transportWrapError(cause error, category goerrors.Category, message string, code int, metadata map[string]any) *goerrors.Error {
	err := goerrors.Wrap(cause, category, message).
		WithCode(code).
		WithTextCode(transportTextCode(category))
	if len(metadata) > 0 {
		err = err.WithMetadata(metadata)
	}
	return err
}

func transportTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return core.ProvisionErrorBadInput
	case goerrors.CategoryExternal:
		return core.ProvisionErrorTransport
	default:
		return core.ProvisionErrorInternal
	}
}
