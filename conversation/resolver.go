package conversation

import (
	"context"

	"github.com/tailored-agentic-units/procure/purchase"
)

// ProductResolver turns free text into product candidates.
type ProductResolver interface {
	SearchProducts(ctx context.Context, query string) ([]Candidate, error)
}

// SupplierResolver turns a supplier name into an ERP partner id.
type SupplierResolver interface {
	ResolveSupplier(ctx context.Context, name string) (int64, error)
}

// OrderGateway submits a completed draft as a purchase order.
type OrderGateway interface {
	CreateOrder(ctx context.Context, req *purchase.CreateRequest) (*purchase.CreateResponse, error)
}

// PlaceholderSupplier resolves every supplier name to a fixed partner id.
type PlaceholderSupplier struct {
	PartnerID int64
}

func (p PlaceholderSupplier) ResolveSupplier(ctx context.Context, name string) (int64, error) {
	return p.PartnerID, nil
}
