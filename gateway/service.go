package gateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/tailored-agentic-units/procure/observability"
	"github.com/tailored-agentic-units/procure/purchase"
)

func (s *Server) create(ctx context.Context, req *purchase.CreateRequest) (*purchase.CreateResponse, error) {
	id, name, err := s.backend.CreatePurchaseOrder(ctx, req)
	if err != nil {
		return nil, toConnectError(err)
	}

	observability.Emit(ctx, s.observer, observability.Event{
		Type:   EventOrderCreated,
		Level:  observability.LevelInfo,
		Source: "gateway.Server",
		Data: map[string]any{
			"order_id":   id,
			"order_name": name,
			"partner_id": req.PartnerID,
			"lines":      len(req.OrderLines),
			"created_by": req.CreatedBy,
		},
	})

	return &purchase.CreateResponse{
		OrderID:   id,
		OrderName: name,
		Message:   fmt.Sprintf("Purchase order %s created", name),
	}, nil
}

func (s *Server) list(ctx context.Context, req *purchase.ListRequest) (*purchase.ListResponse, error) {
	q := *req
	q.Limit = s.clamp(q.Limit, purchase.DefaultListLimit)

	orders, err := s.backend.ListPurchaseOrders(ctx, &q)
	if err != nil {
		return nil, toConnectError(err)
	}
	if orders == nil {
		orders = []purchase.OrderSummary{}
	}

	return &purchase.ListResponse{
		Orders:  orders,
		Message: fmt.Sprintf("Found %d purchase orders", len(orders)),
	}, nil
}

func (s *Server) status(ctx context.Context, req *purchase.StatusRequest) (*purchase.StatusResponse, error) {
	order, err := s.backend.PurchaseOrder(ctx, req.OrderID)
	if err != nil {
		return nil, toConnectError(err)
	}

	return &purchase.StatusResponse{
		Order:   *order,
		Message: fmt.Sprintf("Order %s is %s", order.Name, purchase.StateLabel(order.State)),
	}, nil
}

func (s *Server) approve(ctx context.Context, req *purchase.ApproveRequest) (*purchase.ApproveResponse, error) {
	decision, err := s.backend.ApplyAction(ctx, req.OrderID, req.Action, strings.TrimSpace(req.Reason))
	if err != nil {
		return nil, toConnectError(err)
	}

	observability.Emit(ctx, s.observer, observability.Event{
		Type:   EventOrderDecided,
		Level:  observability.LevelInfo,
		Source: "gateway.Server",
		Data: map[string]any{
			"order_id":       req.OrderID,
			"action":         string(req.Action),
			"state":          decision.State,
			"reason_dropped": decision.ReasonDropped,
		},
	})

	verb := "approved"
	if req.Action == purchase.ActionReject {
		verb = "rejected"
	}
	msg := fmt.Sprintf("Purchase order %d %s", req.OrderID, verb)
	if decision.ReasonDropped {
		msg += " (reason not recorded)"
	}
	return &purchase.ApproveResponse{
		OrderID: req.OrderID,
		State:   decision.State,
		Message: msg,
	}, nil
}

func (s *Server) searchProducts(ctx context.Context, req *purchase.SearchRequest) (*purchase.ProductSearchResponse, error) {
	products, err := s.backend.SearchProducts(ctx, strings.TrimSpace(req.Query), s.clamp(req.Limit, 0))
	if err != nil {
		return nil, toConnectError(err)
	}
	if products == nil {
		products = []purchase.Product{}
	}

	return &purchase.ProductSearchResponse{
		Matches: products,
		Message: fmt.Sprintf("Found %d products", len(products)),
	}, nil
}

func (s *Server) searchPartners(ctx context.Context, req *purchase.SearchRequest) (*purchase.PartnerSearchResponse, error) {
	partners, err := s.backend.SearchPartners(ctx, strings.TrimSpace(req.Query), s.clamp(req.Limit, 0))
	if err != nil {
		return nil, toConnectError(err)
	}
	if partners == nil {
		partners = []purchase.Partner{}
	}

	return &purchase.PartnerSearchResponse{
		Matches: partners,
		Message: fmt.Sprintf("Found %d partners", len(partners)),
	}, nil
}

// clamp applies fallback to an omitted limit and caps it at maxListLimit.
func (s *Server) clamp(limit, fallback int) int {
	if limit == 0 {
		limit = fallback
	}
	if s.maxListLimit > 0 && limit > s.maxListLimit {
		limit = s.maxListLimit
	}
	return limit
}
