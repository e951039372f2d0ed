package gateway

import (
	"context"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/time/rate"

	"github.com/tailored-agentic-units/procure/observability"
)

func codeOf(err error) string {
	if err == nil {
		return "ok"
	}
	return connect.CodeOf(err).String()
}

// instrument records metrics and emits one event per request.
func instrument(m *metrics, obs observability.Observer) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			resp, err := next(ctx, req)
			elapsed := time.Since(start)

			procedure := req.Spec().Procedure
			code := codeOf(err)
			m.observe(procedure, code, elapsed)

			event := observability.Event{
				Type:   EventRequest,
				Level:  observability.LevelVerbose,
				Source: "gateway.Server",
				Data: map[string]any{
					"procedure":   procedure,
					"code":        code,
					"duration_ms": elapsed.Milliseconds(),
				},
			}
			if err != nil {
				event.Type = EventRequestFailed
				event.Level = observability.LevelWarning
				event.Data["error"] = err.Error()
			}
			observability.Emit(ctx, obs, event)
			return resp, err
		}
	}
}

// limit rejects requests once the token bucket is empty.
func limit(limiter *rate.Limiter, m *metrics) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if !limiter.Allow() {
				m.limited.Inc()
				return nil, connect.NewError(connect.CodeResourceExhausted, ErrRateLimited)
			}
			return next(ctx, req)
		}
	}
}
