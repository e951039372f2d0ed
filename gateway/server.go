// Package gateway serves the purchase-order API in front of the ERP and
// provides the Connect client the chat bot uses to call it.
//
// Every procedure is a unary POST with a JSON body validated against the
// request schemas in package purchase. Errors are Connect JSON error bodies.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/tailored-agentic-units/procure/core/httpserver"
	"github.com/tailored-agentic-units/procure/observability"
	"github.com/tailored-agentic-units/procure/purchase"
)

// Backend is the ERP surface the gateway exposes. *erp.Client implements it.
type Backend interface {
	Ping(ctx context.Context) (int64, error)
	SearchProducts(ctx context.Context, query string, limit int) ([]purchase.Product, error)
	SearchPartners(ctx context.Context, query string, limit int) ([]purchase.Partner, error)
	CreatePurchaseOrder(ctx context.Context, req *purchase.CreateRequest) (int64, string, error)
	ListPurchaseOrders(ctx context.Context, req *purchase.ListRequest) ([]purchase.OrderSummary, error)
	PurchaseOrder(ctx context.Context, id int64) (*purchase.OrderSummary, error)
	ApplyAction(ctx context.Context, id int64, action purchase.Action, reason string) (*purchase.Decision, error)
}

// Option configures a Server after config-driven initialization.
type Option func(*Server)

// WithObserver overrides the default NoOpObserver.
func WithObserver(obs observability.Observer) Option {
	return func(s *Server) { s.observer = obs }
}

// WithRegistry sets the registry request metrics are registered with and
// served from. Defaults to a fresh registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) { s.registry = reg }
}

// Server routes gateway procedures to a Backend.
type Server struct {
	addr         string
	backend      Backend
	maxListLimit int
	observer     observability.Observer
	registry     *prometheus.Registry
	handler      http.Handler
}

// New builds a Server from configuration.
func New(cfg *Config, backend Backend, opts ...Option) (*Server, error) {
	s := &Server{
		addr:         cfg.Addr,
		backend:      backend,
		maxListLimit: cfg.MaxListLimit,
		observer:     observability.NoOpObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}

	m, err := newMetrics(s.registry)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	interceptors := []connect.Interceptor{instrument(m, s.observer)}
	if rps := cfg.RateLimit.RequestsPerSecond; rps > 0 {
		burst := max(cfg.RateLimit.Burst, 1)
		interceptors = append(interceptors, limit(rate.NewLimiter(rate.Limit(rps), burst), m))
	}
	common := []connect.HandlerOption{connect.WithInterceptors(interceptors...)}

	mux := http.NewServeMux()
	routes := []error{
		handle(mux, purchase.ProcedureCreate, s.create, common),
		handle(mux, purchase.ProcedureList, s.list, common),
		handle(mux, purchase.ProcedureStatus, s.status, common),
		handle(mux, purchase.ProcedureApprove, s.approve, common),
		handle(mux, purchase.ProcedureSearchProducts, s.searchProducts, common),
		handle(mux, purchase.ProcedureSearchPartners, s.searchPartners, common),
	}
	if err := errors.Join(routes...); err != nil {
		return nil, err
	}
	mux.HandleFunc("GET /health", s.health)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry}))

	s.handler = otelhttp.NewHandler(mux, "procure-gateway")
	return s, nil
}

func handle[Req, Res any](mux *http.ServeMux, procedure string, fn func(context.Context, *Req) (*Res, error), common []connect.HandlerOption) error {
	codecs, err := handlerCodecs(procedure)
	if err != nil {
		return err
	}
	mux.Handle(procedure, connect.NewUnaryHandlerSimple(procedure, fn, append(codecs, common...)...))
	return nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves on the configured address until ctx is cancelled,
// then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	return httpserver.Run(ctx, httpserver.New(s.addr, s.handler))
}

type healthResponse struct {
	OK    bool   `json:"ok"`
	UID   int64  `json:"uid,omitempty"`
	Error string `json:"error,omitempty"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	body := healthResponse{OK: true}

	uid, err := s.backend.Ping(r.Context())
	if err != nil {
		status = http.StatusBadGateway
		body = healthResponse{Error: err.Error()}
	} else {
		body.UID = uid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
