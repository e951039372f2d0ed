package conversation

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Candidate is a product match awaiting selection.
type Candidate struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Code      string `json:"code,omitempty"`
	UomID     int64  `json:"uom_id,omitempty"`
}

// Line is one product entry of a draft order. A line joins Draft.Lines only
// once quantity and price are validated; until then it is Draft.Pending.
type Line struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	UomID       int64           `json:"uom_id,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// Subtotal returns quantity times unit price.
func (l Line) Subtotal() decimal.Decimal {
	return l.Quantity.Mul(l.UnitPrice)
}

// Draft accumulates an order across the turns of one conversation.
type Draft struct {
	SupplierName string      `json:"supplier_name"`
	Lines        []Line      `json:"lines,omitempty"`
	Candidates   []Candidate `json:"candidates,omitempty"`
	Pending      *Line       `json:"pending,omitempty"`
}

// Total sums the line subtotals.
func (d Draft) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range d.Lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

// Clone returns a deep copy of the draft.
func (d Draft) Clone() Draft {
	out := Draft{SupplierName: d.SupplierName}
	if d.Lines != nil {
		out.Lines = make([]Line, len(d.Lines))
		copy(out.Lines, d.Lines)
	}
	if d.Candidates != nil {
		out.Candidates = make([]Candidate, len(d.Candidates))
		copy(out.Candidates, d.Candidates)
	}
	if d.Pending != nil {
		pending := *d.Pending
		out.Pending = &pending
	}
	return out
}

// Session is the per-user conversation record: the current state code and
// the draft being assembled.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	State     State     `json:"state"`
	Draft     Draft     `json:"draft"`
	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession creates an idle session for userID with a UUIDv7 identifier.
func NewSession(userID string) *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.Must(uuid.NewV7()).String(),
		UserID:    userID,
		State:     StateIdle,
		StartedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	out := *s
	out.Draft = s.Draft.Clone()
	return &out
}
