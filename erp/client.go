// Package erp is an Odoo XML-RPC client covering the purchase-order, product,
// and partner operations the gateway exposes.
//
// Login is lazy: the first call authenticates against /xmlrpc/2/common and the
// resulting uid is reused for /xmlrpc/2/object execute_kw calls. Concurrent
// first calls share a single login.
package erp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/kolo/xmlrpc"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"

	"github.com/tailored-agentic-units/procure/observability"
)

// Option configures a Client after config-driven initialization.
type Option func(*options)

type options struct {
	transport http.RoundTripper
	observer  observability.Observer
}

// WithTransport overrides the default otelhttp-wrapped transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

// WithObserver overrides the default NoOpObserver.
func WithObserver(obs observability.Observer) Option {
	return func(o *options) { o.observer = obs }
}

// Client talks to one Odoo database with one set of credentials. It is safe
// for concurrent use.
type Client struct {
	http     *http.Client
	common   string
	object   string
	database string
	username string
	password string
	timeout  time.Duration
	observer observability.Observer

	login singleflight.Group
	mu    sync.RWMutex
	uid   int64
}

// New creates a Client from configuration. No network call is made until the
// first operation.
func New(cfg *Config, opts ...Option) (*Client, error) {
	for name, v := range map[string]string{
		"url":      cfg.URL,
		"database": cfg.Database,
		"username": cfg.Username,
		"password": cfg.Password,
	} {
		if strings.TrimSpace(v) == "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingConfig, name)
		}
	}

	o := options{observer: observability.NoOpObserver{}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.transport == nil {
		o.transport = otelhttp.NewTransport(http.DefaultTransport)
	}

	base := strings.TrimRight(cfg.URL, "/")
	return &Client{
		http:     &http.Client{Transport: o.transport},
		common:   base + "/xmlrpc/2/common",
		object:   base + "/xmlrpc/2/object",
		database: cfg.Database,
		username: cfg.Username,
		password: cfg.Password,
		timeout:  cfg.Timeout.Std(),
		observer: o.observer,
	}, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// Ping authenticates afresh and returns the uid. It backs the gateway health
// check, so it never uses the cached uid.
func (c *Client) Ping(ctx context.Context) (int64, error) {
	return c.authenticate(ctx)
}

func (c *Client) ensureLogin(ctx context.Context) (int64, error) {
	c.mu.RLock()
	uid := c.uid
	c.mu.RUnlock()
	if uid > 0 {
		return uid, nil
	}
	return c.authenticate(ctx)
}

func (c *Client) authenticate(ctx context.Context) (int64, error) {
	v, err, _ := c.login.Do("login", func() (any, error) {
		var reply any
		args := []any{c.database, c.username, c.password, map[string]any{}}
		if err := c.call(ctx, c.common, "authenticate", args, &reply); err != nil {
			return int64(0), err
		}

		uid := asInt(reply)
		if uid <= 0 {
			return int64(0), fmt.Errorf("%w: database %q user %q", ErrAuthFailed, c.database, c.username)
		}

		c.mu.Lock()
		c.uid = uid
		c.mu.Unlock()
		return uid, nil
	})

	level := observability.LevelInfo
	data := map[string]any{"database": c.database, "user": c.username}
	if err != nil {
		level = observability.LevelError
		data["error"] = err.Error()
	}
	observability.Emit(ctx, c.observer, observability.Event{
		Type:   EventLogin,
		Level:  level,
		Source: "erp.Client",
		Data:   data,
	})

	if err != nil {
		return 0, err
	}
	return v.(int64), nil
}

// execute runs model.method through execute_kw.
func (c *Client) execute(ctx context.Context, model, method string, args []any, kwargs map[string]any, reply any) error {
	uid, err := c.ensureLogin(ctx)
	if err != nil {
		return err
	}
	if kwargs == nil {
		kwargs = map[string]any{}
	}

	start := time.Now()
	params := []any{c.database, uid, c.password, model, method, args, kwargs}
	err = c.call(ctx, c.object, "execute_kw", params, reply)

	data := map[string]any{
		"model":       model,
		"method":      method,
		"duration_ms": time.Since(start).Milliseconds(),
	}
	if err != nil {
		data["error"] = err.Error()
		observability.Emit(ctx, c.observer, observability.Event{
			Type:   EventCallFailed,
			Level:  observability.LevelWarning,
			Source: "erp.Client",
			Data:   data,
		})
		return err
	}

	observability.Emit(ctx, c.observer, observability.Event{
		Type:   EventCall,
		Level:  observability.LevelVerbose,
		Source: "erp.Client",
		Data:   data,
	})
	return nil
}

// call performs one XML-RPC request bounded by ctx and the configured
// timeout.
func (c *Client) call(ctx context.Context, endpoint, method string, args []any, reply any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := xmlrpc.EncodeMethodCall(method, args...)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "text/xml")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%w: %s: %v", ErrUnavailable, method, ctxErr)
		}
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s: status %d", ErrUnavailable, method, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, method, err)
	}

	result := xmlrpc.Response(data)
	if err := result.Err(); err != nil {
		var fault xmlrpc.FaultError
		if errors.As(err, &fault) {
			return fmt.Errorf("%w: %s", ErrFault, fault.Error())
		}
		return fmt.Errorf("%w: %s: %v", ErrUnexpectedReply, method, err)
	}
	if err := result.Unmarshal(reply); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUnexpectedReply, method, err)
	}
	return nil
}
