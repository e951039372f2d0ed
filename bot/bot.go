// Package bot routes chat messages to slash commands and the purchase-order
// conversation.
//
// The bot initializes from configuration via New, creating the session store,
// gateway client, and conversation machine internally. Functional options
// allow test overrides of any collaborator.
//
//	b, err := bot.New(&cfg)
//	replies, err := b.Handle(ctx, bot.Message{UserID: "42", Text: "/purchase"})
package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tailored-agentic-units/procure/conversation"
	"github.com/tailored-agentic-units/procure/gateway"
	"github.com/tailored-agentic-units/procure/observability"
	"github.com/tailored-agentic-units/procure/purchase"
	"github.com/tailored-agentic-units/procure/session"
)

const genericError = "Something went wrong and your purchase order was discarded. Please start again."

// Message is one inbound chat message. Callback carries button data and
// takes precedence over Text.
type Message struct {
	UserID   string `json:"user_id"`
	Text     string `json:"text,omitempty"`
	Callback string `json:"callback,omitempty"`
}

// OrderService lists, inspects, and decides purchase orders.
type OrderService interface {
	ListOrders(ctx context.Context, req *purchase.ListRequest) (*purchase.ListResponse, error)
	OrderStatus(ctx context.Context, orderID int64) (*purchase.StatusResponse, error)
	Decide(ctx context.Context, req *purchase.ApproveRequest) (*purchase.ApproveResponse, error)
}

// Option configures a Bot after config-driven initialization.
type Option func(*Bot)

// WithStore overrides the config-created session store.
func WithStore(s session.Store) Option {
	return func(b *Bot) { b.store = s }
}

// WithProducts overrides the gateway product resolver.
func WithProducts(p conversation.ProductResolver) Option {
	return func(b *Bot) { b.products = p }
}

// WithSuppliers overrides the config-selected supplier resolver.
func WithSuppliers(s conversation.SupplierResolver) Option {
	return func(b *Bot) { b.suppliers = s }
}

// WithOrderGateway overrides the gateway used to submit orders.
func WithOrderGateway(g conversation.OrderGateway) Option {
	return func(b *Bot) { b.gateway = g }
}

// WithOrderService overrides the gateway used by the order commands.
func WithOrderService(o OrderService) Option {
	return func(b *Bot) { b.orders = o }
}

// WithObserver overrides the config-resolved observer.
func WithObserver(o observability.Observer) Option {
	return func(b *Bot) { b.observer = o }
}

// Bot handles messages for any number of users. Messages from one user must
// be handled one at a time.
type Bot struct {
	store     session.Store
	products  conversation.ProductResolver
	suppliers conversation.SupplierResolver
	gateway   conversation.OrderGateway
	orders    OrderService
	observer  observability.Observer
	machine   *conversation.Machine
	commands  *Commands
	describe  func(error) string
}

// New creates a Bot from configuration.
func New(cfg *Config, opts ...Option) (*Bot, error) {
	if strings.TrimSpace(cfg.Conversation.CreatedBy) == "" {
		return nil, ErrMissingCreatedBy
	}

	store, err := session.New(&cfg.Session)
	if err != nil {
		return nil, fmt.Errorf("failed to create session store: %w", err)
	}

	client, err := gateway.NewClient(&cfg.Gateway)
	if err != nil {
		return nil, fmt.Errorf("failed to create gateway client: %w", err)
	}

	observer, err := observability.Resolve(cfg.Observers...)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve observers: %w", err)
	}

	var suppliers conversation.SupplierResolver
	switch cfg.Supplier.Mode {
	case "", SupplierPlaceholder:
		suppliers = conversation.PlaceholderSupplier{PartnerID: cfg.Supplier.PartnerID}
	case SupplierERP:
		suppliers = client
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownSupplierMode, cfg.Supplier.Mode)
	}

	b := &Bot{
		store:     store,
		products:  client,
		suppliers: suppliers,
		gateway:   client,
		orders:    client,
		observer:  observer,
		describe:  gateway.Describe,
	}

	for _, opt := range opts {
		opt(b)
	}

	b.machine = conversation.New(&cfg.Conversation, b.products, b.suppliers, b.gateway,
		conversation.WithObserver(b.observer),
		conversation.WithErrorDescriber(b.describe),
	)
	b.commands = NewCommands()
	if err := b.registerCommands(); err != nil {
		return nil, err
	}

	return b, nil
}

// Commands returns the bot's command registry.
func (b *Bot) Commands() *Commands {
	return b.commands
}

// Close releases the session store when it holds connections.
func (b *Bot) Close() error {
	if c, ok := b.store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Handle processes one inbound message and returns the replies to send.
// Failures inside the conversation are reported as replies; an error is
// returned only for a message without a user.
func (b *Bot) Handle(ctx context.Context, msg Message) ([]conversation.Reply, error) {
	if strings.TrimSpace(msg.UserID) == "" {
		return nil, session.ErrInvalidUser
	}

	observability.Emit(ctx, b.observer, observability.Event{
		Type:   EventMessage,
		Level:  observability.LevelVerbose,
		Source: "bot.Handle",
		Data:   map[string]any{"user": msg.UserID, "callback": msg.Callback != ""},
	})

	if msg.Callback != "" {
		return b.callback(ctx, msg)
	}

	text := strings.TrimSpace(msg.Text)
	if name, args, ok := parseCommand(text); ok {
		return b.command(ctx, msg, name, args)
	}
	if name, ok := menuCommands[text]; ok {
		return b.command(ctx, msg, name, nil)
	}
	return b.converse(ctx, msg.UserID, conversation.Input(text))
}

func (b *Bot) callback(ctx context.Context, msg Message) ([]conversation.Reply, error) {
	if name, arg, ok := strings.Cut(msg.Callback, ":"); ok && callbackCommands[name] {
		return b.command(ctx, msg, name, []string{arg})
	}
	return b.converse(ctx, msg.UserID, conversation.ParseCallback(msg.Callback))
}

func (b *Bot) command(ctx context.Context, msg Message, name string, args []string) ([]conversation.Reply, error) {
	observability.Emit(ctx, b.observer, observability.Event{
		Type:   EventCommand,
		Level:  observability.LevelInfo,
		Source: "bot.Handle",
		Data:   map[string]any{"user": msg.UserID, "command": name, "args": len(args)},
	})

	replies, err := b.commands.Execute(ctx, name, msg, args)
	if errors.Is(err, ErrUnknownCommand) {
		return []conversation.Reply{{
			Text: fmt.Sprintf("Unknown command /%s. Send /help for the list of commands.", name),
			Menu: true,
		}}, nil
	}
	if err != nil {
		return b.fail(ctx, msg.UserID, err), nil
	}
	return replies, nil
}

// converse feeds ev to the user's conversation. Input outside an active
// conversation shows the menu.
func (b *Bot) converse(ctx context.Context, userID string, ev conversation.Event) ([]conversation.Reply, error) {
	sess, err := b.store.Get(ctx, userID)
	switch {
	case errors.Is(err, session.ErrNotFound):
		sess = conversation.NewSession(userID)
	case err != nil:
		return b.fail(ctx, userID, fmt.Errorf("failed to load session: %w", err)), nil
	}

	if !sess.State.Active() && ev.Kind != conversation.EventStart {
		return []conversation.Reply{{Text: "Choose a service:", Menu: true}}, nil
	}

	result, err := b.machine.Step(ctx, sess, ev)
	if err != nil {
		return b.fail(ctx, userID, err), nil
	}

	if result.Done {
		b.finish(ctx, sess)
		return result.Replies, nil
	}
	if err := b.store.Save(ctx, sess); err != nil {
		return b.fail(ctx, userID, fmt.Errorf("failed to store session: %w", err)), nil
	}
	return result.Replies, nil
}

// finish discards a completed session. The flow's replies stand even when the
// store fails; an undeletable session is overwritten with its idle state so a
// repeated confirm cannot resubmit the draft.
func (b *Bot) finish(ctx context.Context, sess *conversation.Session) {
	err := b.store.Delete(ctx, sess.UserID)
	if err == nil {
		return
	}

	data := map[string]any{"user": sess.UserID, "error": fmt.Sprintf("failed to delete session: %v", err)}
	if saveErr := b.store.Save(ctx, sess); saveErr != nil {
		data["save_error"] = saveErr.Error()
	}
	observability.Emit(ctx, b.observer, observability.Event{
		Type:   EventSessionError,
		Level:  observability.LevelError,
		Source: "bot.Handle",
		Data:   data,
	})
}

// fail discards the user's session and reports a generic error.
func (b *Bot) fail(ctx context.Context, userID string, cause error) []conversation.Reply {
	data := map[string]any{"user": userID, "error": cause.Error()}
	if err := b.store.Delete(ctx, userID); err != nil {
		data["delete_error"] = err.Error()
	}

	observability.Emit(ctx, b.observer, observability.Event{
		Type:   EventSessionError,
		Level:  observability.LevelError,
		Source: "bot.Handle",
		Data:   data,
	})

	return []conversation.Reply{{Text: genericError, Menu: true}}
}
