// Package purchase defines the wire contract between the chat bot and the ERP
// gateway: procedure paths, request and response bodies, and the JSON Schemas
// the gateway validates request bodies against.
package purchase

// Gateway procedures. Each is served as a unary POST with a JSON body.
const (
	ProcedureCreate         = "/purchase/create"
	ProcedureList           = "/purchase/list"
	ProcedureStatus         = "/purchase/status"
	ProcedureApprove        = "/purchase/approve"
	ProcedureSearchProducts = "/products/search"
	ProcedureSearchPartners = "/partners/search"
)

// DefaultListLimit is applied when a list request omits its limit.
const DefaultListLimit = 50

// Action is the decision applied by an approve request.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// IsValid reports whether a is one of the known actions.
func (a Action) IsValid() bool {
	return a == ActionApprove || a == ActionReject
}

// OrderLine is one product line of a create request.
type OrderLine struct {
	ProductID  int64   `json:"product_id"`
	Name       string  `json:"name"`
	ProductQty float64 `json:"product_qty"`
	PriceUnit  float64 `json:"price_unit"`
	ProductUom int64   `json:"product_uom"`
}

// CreateRequest asks the gateway to create a purchase order.
type CreateRequest struct {
	PartnerID  int64       `json:"partner_id"`
	OrderLines []OrderLine `json:"order_lines"`
	DateOrder  string      `json:"date_order,omitempty"`
	Notes      string      `json:"notes,omitempty"`
	CreatedBy  string      `json:"created_by"`
}

type CreateResponse struct {
	OrderID   int64  `json:"order_id"`
	OrderName string `json:"order_name"`
	Message   string `json:"message"`
}

// ListRequest filters purchase orders. Zero values mean "no filter".
type ListRequest struct {
	PartnerID int64  `json:"partner_id,omitempty"`
	State     string `json:"state,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

// OrderSummary is the gateway's view of a purchase order header.
type OrderSummary struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	PartnerID   int64   `json:"partner_id"`
	PartnerName string  `json:"partner_name"`
	DateOrder   string  `json:"date_order"`
	AmountTotal float64 `json:"amount_total"`
	State       string  `json:"state"`
	LineCount   int     `json:"line_count"`
}

type ListResponse struct {
	Orders  []OrderSummary `json:"orders"`
	Message string         `json:"message"`
}

type StatusRequest struct {
	OrderID int64 `json:"order_id"`
}

type StatusResponse struct {
	Order   OrderSummary `json:"order"`
	Message string       `json:"message"`
}

type ApproveRequest struct {
	OrderID int64  `json:"order_id"`
	Action  Action `json:"action"`
	Reason  string `json:"reason,omitempty"`
}

type ApproveResponse struct {
	OrderID int64  `json:"order_id"`
	State   string `json:"state"`
	Message string `json:"message"`
}

// Decision is the outcome of applying an Action to an order.
type Decision struct {
	State string
	// ReasonDropped is set when a reason was given but could not be posted
	// to the order.
	ReasonDropped bool
}

// SearchRequest is a free-text lookup used for both products and partners.
type SearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// Product is a purchasable product candidate returned by product search.
// UomID is the product's purchase unit of measure; zero when unknown.
type Product struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	DefaultCode string `json:"default_code,omitempty"`
	UomID       int64  `json:"uom_id,omitempty"`
}

type ProductSearchResponse struct {
	Matches []Product `json:"matches"`
	Message string    `json:"message"`
}

type Partner struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type PartnerSearchResponse struct {
	Matches []Partner `json:"matches"`
	Message string    `json:"message"`
}
