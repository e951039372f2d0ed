// Package chat connects chat clients to a bot. WebSocketServer serves any
// number of browser or script clients; Console drives a single user from a
// terminal.
package chat

import (
	"context"

	"github.com/tailored-agentic-units/procure/bot"
	"github.com/tailored-agentic-units/procure/conversation"
	"github.com/tailored-agentic-units/procure/observability"
)

// Handler processes one inbound message. *bot.Bot implements it.
type Handler interface {
	Handle(ctx context.Context, msg bot.Message) ([]conversation.Reply, error)
}

// ClientFrame is one message from a client. Callback carries the data of a
// pressed button and takes precedence over Text.
type ClientFrame struct {
	Text     string `json:"text,omitempty"`
	Callback string `json:"callback,omitempty"`
}

// ServerFrame is one message to a client: a reply, or an error.
type ServerFrame struct {
	conversation.Reply
	Error string `json:"error,omitempty"`
}

// Chat event types.
const (
	EventConnect    observability.EventType = "chat.connect"
	EventDisconnect observability.EventType = "chat.disconnect"
	EventBadFrame   observability.EventType = "chat.frame.invalid"
)
