package erp_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tailored-agentic-units/procure/core/config"
	"github.com/tailored-agentic-units/procure/erp"
	"github.com/tailored-agentic-units/procure/erp/erptest"
	"github.com/tailored-agentic-units/procure/purchase"
)

func newClient(t *testing.T, srv *erptest.Server) *erp.Client {
	t.Helper()
	cfg := erp.DefaultConfig()
	cfg.Merge(&erp.Config{
		URL:      srv.URL,
		Database: "odoo",
		Username: "bot",
		Password: "secret",
	})
	c, err := erp.New(&cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func orderRow(id int, name, state string) map[string]any {
	return map[string]any{
		"id":           id,
		"name":         name,
		"partner_id":   []any{1, "ABC Supplies"},
		"date_order":   "2026-10-01 09:30:00",
		"amount_total": 549.5,
		"state":        state,
		"order_line":   []any{11, 12},
	}
}

func TestNew_MissingConfig(t *testing.T) {
	cfg := erp.DefaultConfig()
	cfg.URL = "http://odoo.local"

	_, err := erp.New(&cfg)
	if !errors.Is(err, erp.ErrMissingConfig) {
		t.Errorf("New error = %v, want ErrMissingConfig", err)
	}
}

func TestConfig_Merge(t *testing.T) {
	cfg := erp.DefaultConfig()
	cfg.Merge(&erp.Config{URL: "http://odoo.local", Timeout: config.Duration(time.Second)})

	if cfg.URL != "http://odoo.local" {
		t.Errorf("URL = %q, want merged", cfg.URL)
	}
	if cfg.Timeout.Std() != time.Second {
		t.Errorf("Timeout = %s, want 1s", cfg.Timeout)
	}
}

func TestClient_LoginIsLazyAndCached(t *testing.T) {
	srv := erptest.NewServer(7)
	defer srv.Close()
	srv.Handle("product.product", "search_read", func(erptest.Call) (any, error) {
		return []any{}, nil
	})
	c := newClient(t, srv)

	if srv.Logins() != 0 {
		t.Fatalf("logins before first call = %d, want 0", srv.Logins())
	}

	ctx := context.Background()
	for range 3 {
		if _, err := c.SearchProducts(ctx, "widget", 0); err != nil {
			t.Fatalf("SearchProducts failed: %v", err)
		}
	}

	if srv.Logins() != 1 {
		t.Errorf("logins = %d, want 1", srv.Logins())
	}
}

func TestClient_ConcurrentFirstCallsShareLogin(t *testing.T) {
	srv := erptest.NewServer(7)
	defer srv.Close()
	srv.Handle("res.partner", "search_read", func(erptest.Call) (any, error) {
		return []any{}, nil
	})
	c := newClient(t, srv)

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.SearchPartners(context.Background(), "abc", 0)
		}()
	}
	wg.Wait()

	if got := len(srv.Calls("res.partner", "search_read")); got != 5 {
		t.Errorf("search calls = %d, want 5", got)
	}
	if srv.Logins() > 5 || srv.Logins() < 1 {
		t.Errorf("logins = %d, want between 1 and 5", srv.Logins())
	}
}

func TestClient_AuthFailed(t *testing.T) {
	srv := erptest.NewServer(0)
	defer srv.Close()
	c := newClient(t, srv)

	_, err := c.SearchProducts(context.Background(), "widget", 0)
	if !errors.Is(err, erp.ErrAuthFailed) {
		t.Errorf("error = %v, want ErrAuthFailed", err)
	}
}

func TestClient_Ping(t *testing.T) {
	srv := erptest.NewServer(9)
	defer srv.Close()
	c := newClient(t, srv)

	for range 2 {
		uid, err := c.Ping(context.Background())
		if err != nil {
			t.Fatalf("Ping failed: %v", err)
		}
		if uid != 9 {
			t.Errorf("uid = %d, want 9", uid)
		}
	}
	if srv.Logins() != 2 {
		t.Errorf("logins = %d, want 2 (ping always authenticates)", srv.Logins())
	}
}

func TestClient_SearchProducts(t *testing.T) {
	srv := erptest.NewServer(7)
	defer srv.Close()
	srv.Handle("product.product", "search_read", func(erptest.Call) (any, error) {
		return []any{
			map[string]any{"id": 7, "name": "Widget A", "default_code": "WA", "uom_po_id": []any{3, "Units"}},
			map[string]any{"id": 8, "name": "Widget B", "default_code": false, "uom_po_id": false},
		}, nil
	})
	c := newClient(t, srv)

	got, err := c.SearchProducts(context.Background(), "widget", 0)
	if err != nil {
		t.Fatalf("SearchProducts failed: %v", err)
	}

	want := []purchase.Product{
		{ID: 7, Name: "Widget A", DefaultCode: "WA", UomID: 3},
		{ID: 8, Name: "Widget B"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d products, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("product %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	body := srv.Calls("product.product", "search_read")[0].Body
	for _, want := range []string{"purchase_ok", "ilike", "<string>widget</string>", "<name>limit</name><value><int>20</int>"} {
		if !strings.Contains(body, want) {
			t.Errorf("request missing %q", want)
		}
	}
}

func TestClient_CreatePurchaseOrder(t *testing.T) {
	srv := erptest.NewServer(7)
	defer srv.Close()
	srv.Handle("purchase.order", "create", func(erptest.Call) (any, error) {
		return 42, nil
	})
	srv.Handle("purchase.order", "read", func(erptest.Call) (any, error) {
		return []any{map[string]any{"id": 42, "name": "P00042"}}, nil
	})
	c := newClient(t, srv)

	id, name, err := c.CreatePurchaseOrder(context.Background(), &purchase.CreateRequest{
		PartnerID: 1,
		OrderLines: []purchase.OrderLine{
			{ProductID: 7, Name: "Widget A", ProductQty: 50, PriceUnit: 10.99, ProductUom: 1},
		},
		CreatedBy: "tester",
	})
	if err != nil {
		t.Fatalf("CreatePurchaseOrder failed: %v", err)
	}
	if id != 42 || name != "P00042" {
		t.Errorf("got (%d, %q), want (42, %q)", id, name, "P00042")
	}

	body := srv.Calls("purchase.order", "create")[0].Body
	for _, want := range []string{"<name>order_line</name>", "<name>product_qty</name><value><double>50</double>", "<double>10.99</double>"} {
		if !strings.Contains(body, want) {
			t.Errorf("create request missing %q", want)
		}
	}
	if strings.Contains(body, "date_order") || strings.Contains(body, "notes") {
		t.Error("create request carries unset optional fields")
	}
}

func TestClient_CreatePurchaseOrder_NameFallback(t *testing.T) {
	srv := erptest.NewServer(7)
	defer srv.Close()
	srv.Handle("purchase.order", "create", func(erptest.Call) (any, error) {
		return 42, nil
	})
	c := newClient(t, srv)

	_, name, err := c.CreatePurchaseOrder(context.Background(), &purchase.CreateRequest{PartnerID: 1})
	if err != nil {
		t.Fatalf("CreatePurchaseOrder failed: %v", err)
	}
	if name != "PO42" {
		t.Errorf("name = %q, want %q", name, "PO42")
	}
}

func TestClient_ListPurchaseOrders(t *testing.T) {
	srv := erptest.NewServer(7)
	defer srv.Close()
	srv.Handle("purchase.order", "search_read", func(erptest.Call) (any, error) {
		return []any{orderRow(2, "P00002", "draft"), orderRow(1, "P00001", "purchase")}, nil
	})
	c := newClient(t, srv)

	orders, err := c.ListPurchaseOrders(context.Background(), &purchase.ListRequest{
		PartnerID: 1,
		State:     "draft",
		Limit:     50,
	})
	if err != nil {
		t.Fatalf("ListPurchaseOrders failed: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("got %d orders, want 2", len(orders))
	}

	want := purchase.OrderSummary{
		ID:          2,
		Name:        "P00002",
		PartnerID:   1,
		PartnerName: "ABC Supplies",
		DateOrder:   "2026-10-01 09:30:00",
		AmountTotal: 549.5,
		State:       "draft",
		LineCount:   2,
	}
	if orders[0] != want {
		t.Errorf("order = %+v, want %+v", orders[0], want)
	}

	body := srv.Calls("purchase.order", "search_read")[0].Body
	for _, want := range []string{"<string>partner_id</string>", "<string>draft</string>", "date_order desc, id desc", "<int>50</int>"} {
		if !strings.Contains(body, want) {
			t.Errorf("request missing %q", want)
		}
	}
}

func TestClient_PurchaseOrder_NotFound(t *testing.T) {
	srv := erptest.NewServer(7)
	defer srv.Close()
	srv.Handle("purchase.order", "search_read", func(erptest.Call) (any, error) {
		return []any{}, nil
	})
	c := newClient(t, srv)

	_, err := c.PurchaseOrder(context.Background(), 999)
	if !errors.Is(err, erp.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestClient_ApplyAction(t *testing.T) {
	tests := []struct {
		name      string
		action    purchase.Action
		reason    string
		method    string
		wantState string
		wantPost  int
		postFails bool
	}{
		{name: "approve", action: purchase.ActionApprove, method: "button_confirm", wantState: "purchase"},
		{name: "reject with reason", action: purchase.ActionReject, reason: "over budget", method: "button_cancel", wantState: "cancel", wantPost: 1},
		{name: "reason post fails", action: purchase.ActionReject, reason: "over budget", method: "button_cancel", wantState: "cancel", wantPost: 1, postFails: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := erptest.NewServer(7)
			defer srv.Close()

			var mu sync.Mutex
			state := "draft"
			srv.Handle("purchase.order", "search_read", func(erptest.Call) (any, error) {
				mu.Lock()
				defer mu.Unlock()
				return []any{orderRow(5, "P00005", state)}, nil
			})
			srv.Handle("purchase.order", tt.method, func(erptest.Call) (any, error) {
				mu.Lock()
				defer mu.Unlock()
				state = tt.wantState
				return true, nil
			})
			srv.Handle("purchase.order", "message_post", func(erptest.Call) (any, error) {
				if tt.postFails {
					return nil, erptest.Fault{Code: 3, Message: "AccessError"}
				}
				return 100, nil
			})
			c := newClient(t, srv)

			got, err := c.ApplyAction(context.Background(), 5, tt.action, tt.reason)
			if err != nil {
				t.Fatalf("ApplyAction failed: %v", err)
			}
			if got.State != tt.wantState {
				t.Errorf("state = %q, want %q", got.State, tt.wantState)
			}
			if got.ReasonDropped != tt.postFails {
				t.Errorf("ReasonDropped = %v, want %v", got.ReasonDropped, tt.postFails)
			}
			if n := len(srv.Calls("purchase.order", tt.method)); n != 1 {
				t.Errorf("%s calls = %d, want 1", tt.method, n)
			}
			if n := len(srv.Calls("purchase.order", "message_post")); n != tt.wantPost {
				t.Errorf("message_post calls = %d, want %d", n, tt.wantPost)
			}
		})
	}
}

func TestClient_FaultMapsToErrFault(t *testing.T) {
	srv := erptest.NewServer(7)
	defer srv.Close()
	srv.Handle("purchase.order", "search_read", func(erptest.Call) (any, error) {
		return nil, erptest.Fault{Code: 1, Message: "AccessError"}
	})
	c := newClient(t, srv)

	_, err := c.ListPurchaseOrders(context.Background(), &purchase.ListRequest{})
	if !errors.Is(err, erp.ErrFault) {
		t.Fatalf("error = %v, want ErrFault", err)
	}
	if !strings.Contains(err.Error(), "AccessError") {
		t.Errorf("error = %q, want fault text", err)
	}
}

func TestClient_HTTPErrorMapsToUnavailable(t *testing.T) {
	srv := erptest.NewServer(7)
	defer srv.Close()
	srv.Handle("purchase.order", "search_read", func(erptest.Call) (any, error) {
		return nil, errors.New("proxy failure")
	})
	c := newClient(t, srv)

	_, err := c.ListPurchaseOrders(context.Background(), &purchase.ListRequest{})
	if !errors.Is(err, erp.ErrUnavailable) {
		t.Errorf("error = %v, want ErrUnavailable", err)
	}
}

func TestClient_ServerDownMapsToUnavailable(t *testing.T) {
	srv := erptest.NewServer(7)
	c := newClient(t, srv)
	srv.Close()

	_, err := c.Ping(context.Background())
	if !errors.Is(err, erp.ErrUnavailable) {
		t.Errorf("error = %v, want ErrUnavailable", err)
	}
}

func TestClient_Timeout(t *testing.T) {
	srv := erptest.NewServer(7)
	t.Cleanup(srv.Close)
	release := make(chan struct{})

	srv.Handle("purchase.order", "search_read", func(erptest.Call) (any, error) {
		<-release
		return []any{}, nil
	})

	cfg := erp.Config{
		URL:      srv.URL,
		Database: "odoo",
		Username: "bot",
		Password: "secret",
		Timeout:  config.Duration(50 * time.Millisecond),
	}
	c, err := erp.New(&cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	start := time.Now()
	_, err = c.PurchaseOrder(context.Background(), 1)
	elapsed := time.Since(start)
	close(release)

	if !errors.Is(err, erp.ErrUnavailable) {
		t.Errorf("error = %v, want ErrUnavailable", err)
	}
	if elapsed > time.Second {
		t.Errorf("call returned after %s, want it bounded by the 50ms timeout", elapsed)
	}
}

func TestClient_ContextCancelsStalledCall(t *testing.T) {
	srv := erptest.NewServer(7)
	t.Cleanup(srv.Close)
	release := make(chan struct{})

	srv.Handle("purchase.order", "search_read", func(erptest.Call) (any, error) {
		<-release
		return []any{}, nil
	})
	c := newClient(t, srv)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	var wg sync.WaitGroup
	errs := make([]error, 3)
	start := time.Now()
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.ListPurchaseOrders(ctx, &purchase.ListRequest{})
		}(i)
	}
	wg.Wait()
	elapsed := time.Since(start)
	close(release)

	for i, err := range errs {
		if !errors.Is(err, erp.ErrUnavailable) {
			t.Errorf("call %d error = %v, want ErrUnavailable", i, err)
		}
	}
	if elapsed > time.Second {
		t.Errorf("concurrent calls returned after %s, want them bounded by the 100ms context", elapsed)
	}
}
