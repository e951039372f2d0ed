package bot

import "github.com/tailored-agentic-units/procure/observability"

// Bot event types.
const (
	EventMessage      observability.EventType = "bot.message"
	EventCommand      observability.EventType = "bot.command"
	EventSessionError observability.EventType = "bot.session.error"
)
