// Package conversation implements the multi-turn purchase-order flow.
//
// A Machine applies one Event to one Session per call. Each state has a
// handler; every state change a handler produces is checked against the
// transition table before it is committed.
//
//	m := conversation.New(&cfg, products, suppliers, orders)
//	result, err := m.Step(ctx, sess, conversation.Input("ABC Supplies"))
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tailored-agentic-units/procure/observability"
	"github.com/tailored-agentic-units/procure/purchase"
)

// Result is the outcome of one Step.
type Result struct {
	Replies []Reply
	Done    bool // The flow ended; the session should be discarded.
}

type handler func(ctx context.Context, s *Session, ev Event) (State, []Reply, error)

// Option configures a Machine after construction.
type Option func(*Machine)

// WithObserver overrides the default NoOpObserver.
func WithObserver(o observability.Observer) Option {
	return func(m *Machine) { m.observer = o }
}

// WithErrorDescriber sets how resolver and gateway errors are rendered to
// the user. The default uses err.Error().
func WithErrorDescriber(fn func(error) string) Option {
	return func(m *Machine) { m.describe = fn }
}

// Machine drives purchase-order conversations. It holds no per-user state and
// is safe for concurrent use across sessions.
type Machine struct {
	products      ProductResolver
	suppliers     SupplierResolver
	orders        OrderGateway
	observer      observability.Observer
	describe      func(error) string
	handlers      map[State]handler
	createdBy     string
	defaultUomID  int64
	maxCandidates int
}

// New creates a Machine from configuration and its collaborators.
func New(cfg *Config, products ProductResolver, suppliers SupplierResolver, orders OrderGateway, opts ...Option) *Machine {
	m := &Machine{
		products:      products,
		suppliers:     suppliers,
		orders:        orders,
		observer:      observability.NoOpObserver{},
		describe:      func(err error) string { return err.Error() },
		createdBy:     cfg.CreatedBy,
		defaultUomID:  cfg.DefaultUomID,
		maxCandidates: cfg.MaxCandidates,
	}

	m.handlers = map[State]handler{
		StateAwaitSupplier: m.onSupplier,
		StateAwaitProduct:  m.onProduct,
		StateAwaitQuantity: m.onQuantity,
		StateAwaitPrice:    m.onPrice,
		StateAwaitMore:     m.onMore,
		StateReview:        m.onReview,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Step applies ev to s and returns the replies to send. Validation and
// resolution failures are reported as replies with the state unchanged.
// A returned error means the session is inconsistent and should be dropped.
func (m *Machine) Step(ctx context.Context, s *Session, ev Event) (*Result, error) {
	from := s.State

	if ev.Kind == EventInput && from == StateReview {
		if kind, ok := reviewAction(ev.Text); ok {
			ev = Event{Kind: kind}
		}
	}

	switch ev.Kind {
	case EventStart:
		return m.start(ctx, s), nil
	case EventCancel:
		return m.cancel(ctx, s), nil
	}

	h, ok := m.handlers[from]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownState, from)
	}

	to, replies, err := h(ctx, s, ev)
	if err != nil {
		return nil, err
	}

	if !CanTransition(from, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
	}

	m.commit(ctx, s, from, to)
	return &Result{Replies: replies, Done: to == StateIdle}, nil
}

func (m *Machine) start(ctx context.Context, s *Session) *Result {
	from := s.State
	s.Draft = Draft{}

	observability.Emit(ctx, m.observer, observability.Event{
		Type:   EventTypeStart,
		Level:  observability.LevelInfo,
		Source: "conversation.Step",
		Data:   map[string]any{"session": s.ID, "user": s.UserID, "restart": from.Active()},
	})

	m.commit(ctx, s, from, StateAwaitSupplier)
	return &Result{Replies: []Reply{
		Text("Create Purchase Order\n\nPlease enter the supplier/vendor name:"),
	}}
}

func (m *Machine) cancel(ctx context.Context, s *Session) *Result {
	from := s.State
	s.Draft = Draft{}

	observability.Emit(ctx, m.observer, observability.Event{
		Type:   EventTypeCancel,
		Level:  observability.LevelInfo,
		Source: "conversation.Step",
		Data:   map[string]any{"session": s.ID, "user": s.UserID, "state": from.Code()},
	})

	m.commit(ctx, s, from, StateIdle)
	return &Result{
		Replies: []Reply{{Text: "Purchase order cancelled.", Menu: true}},
		Done:    true,
	}
}

func (m *Machine) commit(ctx context.Context, s *Session, from, to State) {
	s.State = to
	s.UpdatedAt = time.Now()

	if from == to {
		return
	}
	observability.Emit(ctx, m.observer, observability.Event{
		Type:   EventTypeTransition,
		Level:  observability.LevelVerbose,
		Source: "conversation.Step",
		Data: map[string]any{
			"session": s.ID,
			"from":    from.Code(),
			"to":      to.Code(),
		},
	})
}

func (m *Machine) invalid(ctx context.Context, s *Session, reason string) {
	observability.Emit(ctx, m.observer, observability.Event{
		Type:   EventTypeInvalidInput,
		Level:  observability.LevelVerbose,
		Source: "conversation.Step",
		Data:   map[string]any{"session": s.ID, "state": s.State.Code(), "reason": reason},
	})
}

func (m *Machine) onSupplier(ctx context.Context, s *Session, ev Event) (State, []Reply, error) {
	name := strings.TrimSpace(ev.Text)
	if ev.Kind != EventInput || name == "" {
		m.invalid(ctx, s, "empty supplier")
		return StateAwaitSupplier, []Reply{Text("Please enter a valid supplier name.")}, nil
	}

	s.Draft.SupplierName = name
	return StateAwaitProduct, []Reply{
		Text(fmt.Sprintf("Supplier: %s\n\nNow enter the product name or code:", name)),
	}, nil
}

func (m *Machine) onProduct(ctx context.Context, s *Session, ev Event) (State, []Reply, error) {
	if len(s.Draft.Candidates) > 0 {
		return m.onSelection(ctx, s, ev)
	}

	query := strings.TrimSpace(ev.Text)
	if ev.Kind != EventInput || query == "" {
		m.invalid(ctx, s, "empty product query")
		return StateAwaitProduct, []Reply{Text("Please enter a valid product name or code.")}, nil
	}

	found, err := m.products.SearchProducts(ctx, query)
	if err != nil {
		observability.Emit(ctx, m.observer, observability.Event{
			Type:   EventTypeResolve,
			Level:  observability.LevelWarning,
			Source: "conversation.Step",
			Data:   map[string]any{"session": s.ID, "query": query, "error": err.Error()},
		})
		return StateAwaitProduct, []Reply{
			Text("Product search failed: " + m.describe(err)),
		}, nil
	}

	observability.Emit(ctx, m.observer, observability.Event{
		Type:   EventTypeResolve,
		Level:  observability.LevelVerbose,
		Source: "conversation.Step",
		Data:   map[string]any{"session": s.ID, "query": query, "matches": len(found)},
	})

	switch len(found) {
	case 0:
		return StateAwaitProduct, []Reply{
			Text("No products found. Try another name or /cancel."),
		}, nil
	case 1:
		return m.selectProduct(s, found[0])
	}

	if m.maxCandidates > 0 && len(found) > m.maxCandidates {
		found = found[:m.maxCandidates]
	}
	s.Draft.Candidates = found

	header := fmt.Sprintf("Found %d products for %q. Pick one by number:", len(found), query)
	return StateAwaitProduct, []Reply{candidatesReply(header, found)}, nil
}

func (m *Machine) onSelection(ctx context.Context, s *Session, ev Event) (State, []Reply, error) {
	if ev.Kind == EventSearchAgain {
		s.Draft.Candidates = nil
		return StateAwaitProduct, []Reply{Text("Enter the product name or code:")}, nil
	}

	n := len(s.Draft.Candidates)
	i, ok := parseIndex(ev.Text, n)
	if ev.Kind != EventInput || !ok {
		m.invalid(ctx, s, "selection out of range")
		header := fmt.Sprintf("Please pick a number between 1 and %d:", n)
		return StateAwaitProduct, []Reply{candidatesReply(header, s.Draft.Candidates)}, nil
	}
	return m.selectProduct(s, s.Draft.Candidates[i-1])
}

func (m *Machine) selectProduct(s *Session, c Candidate) (State, []Reply, error) {
	name := productName(c)
	s.Draft.Candidates = nil
	s.Draft.Pending = &Line{
		ProductID:   c.ProductID,
		ProductName: name,
		UomID:       c.UomID,
	}
	return StateAwaitQuantity, []Reply{
		Text(fmt.Sprintf("Product: %s\n\nEnter the quantity to order:", name)),
	}, nil
}

func (m *Machine) onQuantity(ctx context.Context, s *Session, ev Event) (State, []Reply, error) {
	if s.Draft.Pending == nil {
		return 0, nil, ErrNoPendingLine
	}

	qty, err := ParseQuantity(ev.Text)
	if ev.Kind != EventInput || err != nil {
		m.invalid(ctx, s, "invalid quantity")
		msg := "Please enter a valid number for quantity."
		switch {
		case errors.Is(err, ErrNotPositive):
			msg = "Quantity must be positive. Please try again."
		case errors.Is(err, ErrOutOfRange):
			msg = "That quantity is too large or too precise. Please try again."
		}
		return StateAwaitQuantity, []Reply{Text(msg)}, nil
	}

	s.Draft.Pending.Quantity = qty
	return StateAwaitPrice, []Reply{
		Text(fmt.Sprintf("Quantity: %s\n\nEnter the unit price:", qty.String())),
	}, nil
}

func (m *Machine) onPrice(ctx context.Context, s *Session, ev Event) (State, []Reply, error) {
	if s.Draft.Pending == nil {
		return 0, nil, ErrNoPendingLine
	}

	price, err := ParsePrice(ev.Text)
	if ev.Kind != EventInput || err != nil {
		m.invalid(ctx, s, "invalid price")
		msg := "Please enter a valid number for price."
		switch {
		case errors.Is(err, ErrNegative):
			msg = "Price cannot be negative. Please try again."
		case errors.Is(err, ErrOutOfRange):
			msg = "That price is too large or too precise. Please try again."
		}
		return StateAwaitPrice, []Reply{Text(msg)}, nil
	}

	line := *s.Draft.Pending
	line.UnitPrice = price
	s.Draft.Lines = append(s.Draft.Lines, line)
	s.Draft.Pending = nil

	return StateAwaitMore, []Reply{yesNoReply(fmt.Sprintf(
		"Price: %s\n\nDo you want to add more products to this order?\n"+
			"Reply with 'yes' to add more, or 'no' to review the order.",
		price.StringFixed(2),
	))}, nil
}

func (m *Machine) onMore(ctx context.Context, s *Session, ev Event) (State, []Reply, error) {
	yes, ok := ParseYesNo(ev.Text)
	if ev.Kind != EventInput || !ok {
		m.invalid(ctx, s, "expected yes or no")
		return StateAwaitMore, []Reply{yesNoReply(
			"Please reply with 'yes' to add more products or 'no' to finish.",
		)}, nil
	}

	if yes {
		return StateAwaitProduct, []Reply{Text("Enter the next product name or code:")}, nil
	}
	return StateReview, []Reply{RenderReview(s.Draft)}, nil
}

func (m *Machine) onReview(ctx context.Context, s *Session, ev Event) (State, []Reply, error) {
	switch ev.Kind {
	case EventConfirm:
		return m.submit(ctx, s)
	case EventAddMore:
		return StateAwaitProduct, []Reply{Text("Enter the next product name or code:")}, nil
	}
	return StateReview, []Reply{RenderReview(s.Draft)}, nil
}

func (m *Machine) submit(ctx context.Context, s *Session) (State, []Reply, error) {
	if len(s.Draft.Lines) == 0 {
		return 0, nil, ErrEmptyDraft
	}

	partnerID, err := m.suppliers.ResolveSupplier(ctx, s.Draft.SupplierName)
	if err != nil {
		return m.submitFailed(ctx, s, "Could not resolve supplier: ", err)
	}

	req := m.createRequest(partnerID, s.Draft)
	resp, err := m.orders.CreateOrder(ctx, req)
	if err != nil {
		return m.submitFailed(ctx, s, "Failed to create purchase order: ", err)
	}

	name := resp.OrderName
	if name == "" {
		name = fmt.Sprintf("#%d", resp.OrderID)
	}

	observability.Emit(ctx, m.observer, observability.Event{
		Type:   EventTypeSubmit,
		Level:  observability.LevelInfo,
		Source: "conversation.Step",
		Data: map[string]any{
			"session":    s.ID,
			"order_id":   resp.OrderID,
			"order_name": name,
			"partner_id": partnerID,
			"lines":      len(req.OrderLines),
			"created_by": req.CreatedBy,
		},
	})

	s.Draft = Draft{}
	return StateIdle, []Reply{{
		Text: fmt.Sprintf(
			"Purchase order created successfully!\n\nOrder: %s\nStatus: %s\n\n"+
				"Your purchase order has been created and is ready for approval.",
			name, purchase.StateLabel(purchase.StateDraft),
		),
		Menu: true,
	}}, nil
}

func (m *Machine) submitFailed(ctx context.Context, s *Session, prefix string, err error) (State, []Reply, error) {
	observability.Emit(ctx, m.observer, observability.Event{
		Type:   EventTypeSubmitFailed,
		Level:  observability.LevelWarning,
		Source: "conversation.Step",
		Data:   map[string]any{"session": s.ID, "error": err.Error()},
	})
	return StateReview, []Reply{
		Text(prefix + m.describe(err)),
		RenderReview(s.Draft),
	}, nil
}

func (m *Machine) createRequest(partnerID int64, d Draft) *purchase.CreateRequest {
	lines := make([]purchase.OrderLine, 0, len(d.Lines))
	for _, line := range d.Lines {
		uom := line.UomID
		if uom == 0 {
			uom = m.defaultUomID
		}
		lines = append(lines, purchase.OrderLine{
			ProductID:  line.ProductID,
			Name:       line.ProductName,
			ProductQty: line.Quantity.InexactFloat64(),
			PriceUnit:  line.UnitPrice.InexactFloat64(),
			ProductUom: uom,
		})
	}
	return &purchase.CreateRequest{
		PartnerID:  partnerID,
		OrderLines: lines,
		CreatedBy:  m.createdBy,
	}
}
