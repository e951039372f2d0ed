package gateway

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"

	"connectrpc.com/connect"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tailored-agentic-units/procure/conversation"
	"github.com/tailored-agentic-units/procure/purchase"
)

// ClientOption configures a Client after config-driven initialization.
type ClientOption func(*clientOptions)

type clientOptions struct {
	httpClient connect.HTTPClient
}

// WithHTTPClient overrides the default otelhttp-instrumented client.
func WithHTTPClient(c connect.HTTPClient) ClientOption {
	return func(o *clientOptions) { o.httpClient = c }
}

// Client calls a gateway. It satisfies the conversation resolvers and order
// gateway, and the bot's order service.
type Client struct {
	create   *connect.Client[purchase.CreateRequest, purchase.CreateResponse]
	list     *connect.Client[purchase.ListRequest, purchase.ListResponse]
	status   *connect.Client[purchase.StatusRequest, purchase.StatusResponse]
	approve  *connect.Client[purchase.ApproveRequest, purchase.ApproveResponse]
	products *connect.Client[purchase.SearchRequest, purchase.ProductSearchResponse]
	partners *connect.Client[purchase.SearchRequest, purchase.PartnerSearchResponse]
}

// NewClient creates a Client from configuration.
func NewClient(cfg *ClientConfig, opts ...ClientOption) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if base == "" {
		return nil, ErrMissingURL
	}

	o := clientOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		o.httpClient = newHTTPClient(cfg)
	}

	codec := connect.WithCodec(&jsonCodec{name: "json"})
	return &Client{
		create:   connect.NewClient[purchase.CreateRequest, purchase.CreateResponse](o.httpClient, base+purchase.ProcedureCreate, codec),
		list:     connect.NewClient[purchase.ListRequest, purchase.ListResponse](o.httpClient, base+purchase.ProcedureList, codec),
		status:   connect.NewClient[purchase.StatusRequest, purchase.StatusResponse](o.httpClient, base+purchase.ProcedureStatus, codec),
		approve:  connect.NewClient[purchase.ApproveRequest, purchase.ApproveResponse](o.httpClient, base+purchase.ProcedureApprove, codec),
		products: connect.NewClient[purchase.SearchRequest, purchase.ProductSearchResponse](o.httpClient, base+purchase.ProcedureSearchProducts, codec),
		partners: connect.NewClient[purchase.SearchRequest, purchase.PartnerSearchResponse](o.httpClient, base+purchase.ProcedureSearchPartners, codec),
	}, nil
}

func newHTTPClient(cfg *ClientConfig) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: cfg.DialTimeout.Std()}).DialContext

	return &http.Client{
		Transport: otelhttp.NewTransport(transport),
		Timeout:   cfg.Timeout.Std(),
	}
}

// CreateOrder submits a purchase order.
func (c *Client) CreateOrder(ctx context.Context, req *purchase.CreateRequest) (*purchase.CreateResponse, error) {
	resp, err := c.create.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// ListOrders returns order headers matching req.
func (c *Client) ListOrders(ctx context.Context, req *purchase.ListRequest) (*purchase.ListResponse, error) {
	resp, err := c.list.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// OrderStatus returns one order header.
func (c *Client) OrderStatus(ctx context.Context, orderID int64) (*purchase.StatusResponse, error) {
	resp, err := c.status.CallUnary(ctx, connect.NewRequest(&purchase.StatusRequest{OrderID: orderID}))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// Decide approves or rejects an order.
func (c *Client) Decide(ctx context.Context, req *purchase.ApproveRequest) (*purchase.ApproveResponse, error) {
	resp, err := c.approve.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// SearchProducts returns product candidates for query.
func (c *Client) SearchProducts(ctx context.Context, query string) ([]conversation.Candidate, error) {
	resp, err := c.products.CallUnary(ctx, connect.NewRequest(&purchase.SearchRequest{Query: query}))
	if err != nil {
		return nil, err
	}

	candidates := make([]conversation.Candidate, 0, len(resp.Msg.Matches))
	for _, p := range resp.Msg.Matches {
		candidates = append(candidates, conversation.Candidate{
			ProductID: p.ID,
			Name:      p.Name,
			Code:      p.DefaultCode,
			UomID:     p.UomID,
		})
	}
	return candidates, nil
}

// ResolveSupplier returns the partner whose name matches exactly, ignoring
// case, or else the first partner containing name.
func (c *Client) ResolveSupplier(ctx context.Context, name string) (int64, error) {
	resp, err := c.partners.CallUnary(ctx, connect.NewRequest(&purchase.SearchRequest{Query: name}))
	if err != nil {
		return 0, err
	}

	matches := resp.Msg.Matches
	if len(matches) == 0 {
		return 0, fmt.Errorf("%w: %q", ErrNoSupplier, name)
	}
	for _, p := range matches {
		if strings.EqualFold(strings.TrimSpace(p.Name), strings.TrimSpace(name)) {
			return p.ID, nil
		}
	}
	return matches[0].ID, nil
}
