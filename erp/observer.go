package erp

import "github.com/tailored-agentic-units/procure/observability"

// ERP event types emitted by Client.
const (
	EventLogin      observability.EventType = "erp.login"
	EventCall       observability.EventType = "erp.call"
	EventCallFailed observability.EventType = "erp.call.failed"
)
