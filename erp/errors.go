package erp

import "errors"

var (
	// ErrMissingConfig is returned by New when a connection setting is empty.
	ErrMissingConfig = errors.New("missing erp configuration")

	// ErrAuthFailed is returned when Odoo rejects the configured credentials.
	ErrAuthFailed = errors.New("erp authentication failed")

	// ErrUnavailable wraps transport failures and non-2xx responses.
	ErrUnavailable = errors.New("erp unavailable")

	// ErrFault wraps XML-RPC faults raised by Odoo, such as access or
	// validation errors.
	ErrFault = errors.New("erp fault")

	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrUnexpectedReply is returned when a reply does not have the expected shape.
	ErrUnexpectedReply = errors.New("unexpected erp reply")
)
