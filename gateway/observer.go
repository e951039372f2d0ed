package gateway

import "github.com/tailored-agentic-units/procure/observability"

const (
	EventRequest       observability.EventType = "gateway.request"
	EventRequestFailed observability.EventType = "gateway.request.failed"
	EventOrderCreated  observability.EventType = "gateway.order.created"
	EventOrderDecided  observability.EventType = "gateway.order.decided"
)
