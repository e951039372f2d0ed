package erp

import (
	"context"
	"fmt"

	"github.com/tailored-agentic-units/procure/purchase"
)

const (
	modelPurchaseOrder = "purchase.order"
	modelProduct       = "product.product"
	modelPartner       = "res.partner"

	// searchLimit bounds product and partner lookups without an explicit limit.
	searchLimit = 20
)

var orderFields = []any{"id", "name", "partner_id", "date_order", "amount_total", "state", "order_line"}

// SearchProducts returns purchasable products whose name or internal
// reference contains query.
func (c *Client) SearchProducts(ctx context.Context, query string, limit int) ([]purchase.Product, error) {
	if limit <= 0 {
		limit = searchLimit
	}
	domain := []any{
		"&",
		[]any{"purchase_ok", "=", true},
		"|",
		[]any{"name", "ilike", query},
		[]any{"default_code", "ilike", query},
	}

	var reply any
	err := c.execute(ctx, modelProduct, "search_read", []any{domain}, map[string]any{
		"fields": []any{"id", "name", "default_code", "uom_po_id"},
		"limit":  limit,
		"order":  "name asc",
	}, &reply)
	if err != nil {
		return nil, err
	}

	rows, err := records(reply)
	if err != nil {
		return nil, err
	}

	products := make([]purchase.Product, 0, len(rows))
	for _, r := range rows {
		uom, _ := r.many2one("uom_po_id")
		products = append(products, purchase.Product{
			ID:          r.intField("id"),
			Name:        r.stringField("name"),
			DefaultCode: r.stringField("default_code"),
			UomID:       uom,
		})
	}
	return products, nil
}

// SearchPartners returns partners whose name contains query.
func (c *Client) SearchPartners(ctx context.Context, query string, limit int) ([]purchase.Partner, error) {
	if limit <= 0 {
		limit = searchLimit
	}

	var reply any
	err := c.execute(ctx, modelPartner, "search_read", []any{[]any{
		[]any{"name", "ilike", query},
	}}, map[string]any{
		"fields": []any{"id", "name"},
		"limit":  limit,
		"order":  "name asc",
	}, &reply)
	if err != nil {
		return nil, err
	}

	rows, err := records(reply)
	if err != nil {
		return nil, err
	}

	partners := make([]purchase.Partner, 0, len(rows))
	for _, r := range rows {
		partners = append(partners, purchase.Partner{
			ID:   r.intField("id"),
			Name: r.stringField("name"),
		})
	}
	return partners, nil
}

// CreatePurchaseOrder creates a draft purchase order with its lines in one
// call and returns the new id and the sequence name Odoo assigned.
func (c *Client) CreatePurchaseOrder(ctx context.Context, req *purchase.CreateRequest) (int64, string, error) {
	lines := make([]any, 0, len(req.OrderLines))
	for _, l := range req.OrderLines {
		lines = append(lines, []any{0, 0, map[string]any{
			"product_id":  l.ProductID,
			"name":        l.Name,
			"product_qty": l.ProductQty,
			"price_unit":  l.PriceUnit,
			"product_uom": l.ProductUom,
		}})
	}

	vals := map[string]any{
		"partner_id": req.PartnerID,
		"order_line": lines,
	}
	if req.DateOrder != "" {
		vals["date_order"] = req.DateOrder
	}
	if req.Notes != "" {
		vals["notes"] = req.Notes
	}

	var reply any
	if err := c.execute(ctx, modelPurchaseOrder, "create", []any{vals}, nil, &reply); err != nil {
		return 0, "", err
	}
	id := asInt(reply)
	if id <= 0 {
		return 0, "", fmt.Errorf("%w: create returned %v", ErrUnexpectedReply, reply)
	}

	name := fmt.Sprintf("PO%d", id)
	var read any
	if err := c.execute(ctx, modelPurchaseOrder, "read", []any{[]any{id}, []any{"name"}}, nil, &read); err == nil {
		if rows, err := records(read); err == nil && len(rows) > 0 && rows[0].stringField("name") != "" {
			name = rows[0].stringField("name")
		}
	}
	return id, name, nil
}

// ListPurchaseOrders returns order headers newest first, filtered by partner
// and state when set. A zero limit returns every match.
func (c *Client) ListPurchaseOrders(ctx context.Context, req *purchase.ListRequest) ([]purchase.OrderSummary, error) {
	domain := []any{}
	if req.PartnerID > 0 {
		domain = append(domain, []any{"partner_id", "=", req.PartnerID})
	}
	if req.State != "" {
		domain = append(domain, []any{"state", "=", req.State})
	}

	return c.searchOrders(ctx, domain, req.Limit)
}

// PurchaseOrder returns one order header or ErrNotFound.
func (c *Client) PurchaseOrder(ctx context.Context, id int64) (*purchase.OrderSummary, error) {
	orders, err := c.searchOrders(ctx, []any{[]any{"id", "=", id}}, 1)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, fmt.Errorf("%w: purchase order %d", ErrNotFound, id)
	}
	return &orders[0], nil
}

// ApplyAction confirms or cancels an order and returns its resulting state.
// A non-empty reason is posted to the order's chatter; a failed post does not
// undo the state change and is reported through Decision.ReasonDropped.
func (c *Client) ApplyAction(ctx context.Context, id int64, action purchase.Action, reason string) (*purchase.Decision, error) {
	if _, err := c.PurchaseOrder(ctx, id); err != nil {
		return nil, err
	}

	method := "button_confirm"
	if action == purchase.ActionReject {
		method = "button_cancel"
	}

	var reply any
	if err := c.execute(ctx, modelPurchaseOrder, method, []any{[]any{id}}, nil, &reply); err != nil {
		return nil, err
	}

	var decision purchase.Decision
	if reason != "" {
		var posted any
		body := fmt.Sprintf("%s: %s", action, reason)
		if err := c.execute(ctx, modelPurchaseOrder, "message_post", []any{[]any{id}}, map[string]any{"body": body}, &posted); err != nil {
			decision.ReasonDropped = true
		}
	}

	order, err := c.PurchaseOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	decision.State = order.State
	return &decision, nil
}

func (c *Client) searchOrders(ctx context.Context, domain []any, limit int) ([]purchase.OrderSummary, error) {
	kwargs := map[string]any{
		"fields": orderFields,
		"order":  "date_order desc, id desc",
	}
	if limit > 0 {
		kwargs["limit"] = limit
	}

	var reply any
	if err := c.execute(ctx, modelPurchaseOrder, "search_read", []any{domain}, kwargs, &reply); err != nil {
		return nil, err
	}

	rows, err := records(reply)
	if err != nil {
		return nil, err
	}

	orders := make([]purchase.OrderSummary, 0, len(rows))
	for _, r := range rows {
		partnerID, partnerName := r.many2one("partner_id")
		orders = append(orders, purchase.OrderSummary{
			ID:          r.intField("id"),
			Name:        r.stringField("name"),
			PartnerID:   partnerID,
			PartnerName: partnerName,
			DateOrder:   r.stringField("date_order"),
			AmountTotal: r.floatField("amount_total"),
			State:       r.stringField("state"),
			LineCount:   r.count("order_line"),
		})
	}
	return orders, nil
}
