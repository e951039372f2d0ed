package conversation

import "github.com/tailored-agentic-units/procure/observability"

// Conversation event types emitted by Machine.
const (
	EventTypeStart        observability.EventType = "conversation.start"
	EventTypeTransition   observability.EventType = "conversation.transition"
	EventTypeResolve      observability.EventType = "conversation.resolve"
	EventTypeSubmit       observability.EventType = "conversation.submit"
	EventTypeSubmitFailed observability.EventType = "conversation.submit.failed"
	EventTypeCancel       observability.EventType = "conversation.cancel"
	EventTypeInvalidInput observability.EventType = "conversation.input.invalid"
)
