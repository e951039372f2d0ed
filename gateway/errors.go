package gateway

import (
	"context"
	"errors"

	"connectrpc.com/connect"

	"github.com/tailored-agentic-units/procure/erp"
)

var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrMissingURL     = errors.New("gateway url is required")
	ErrNoSupplier     = errors.New("no matching supplier")
	ErrRateLimited    = errors.New("rate limit exceeded")
)

// toConnectError maps backend failures onto Connect codes.
func toConnectError(err error) error {
	var ce *connect.Error
	if errors.As(err, &ce) {
		return err
	}

	code := connect.CodeInternal
	switch {
	case errors.Is(err, erp.ErrNotFound):
		code = connect.CodeNotFound
	case errors.Is(err, erp.ErrFault):
		code = connect.CodeFailedPrecondition
	case errors.Is(err, erp.ErrAuthFailed), errors.Is(err, erp.ErrUnavailable):
		code = connect.CodeUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		code = connect.CodeDeadlineExceeded
	case errors.Is(err, context.Canceled):
		code = connect.CodeCanceled
	}
	return connect.NewError(code, err)
}

// Describe renders a gateway error for a chat user.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrNoSupplier) {
		return err.Error()
	}

	var ce *connect.Error
	if !errors.As(err, &ce) {
		return err.Error()
	}

	switch ce.Code() {
	case connect.CodeNotFound:
		return "not found: " + ce.Message()
	case connect.CodeInvalidArgument:
		return "the request was rejected: " + ce.Message()
	case connect.CodeFailedPrecondition:
		return "the ERP refused the operation: " + ce.Message()
	case connect.CodeUnavailable:
		return "the order service is unavailable, please try again later"
	case connect.CodeDeadlineExceeded:
		return "the order service did not respond in time"
	case connect.CodeResourceExhausted:
		return "too many requests, please wait a moment and try again"
	default:
		return ce.Message()
	}
}
