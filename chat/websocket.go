package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tailored-agentic-units/procure/bot"
	"github.com/tailored-agentic-units/procure/core/httpserver"
	"github.com/tailored-agentic-units/procure/observability"
)

const (
	maxFrameBytes       = 64 << 10
	defaultWriteTimeout = 10 * time.Second
)

// Option configures a WebSocketServer.
type Option func(*WebSocketServer)

// WithObserver overrides the default NoOpObserver.
func WithObserver(obs observability.Observer) Option {
	return func(s *WebSocketServer) { s.observer = obs }
}

// WithCheckOrigin sets the origin policy for upgrades. The default accepts
// only same-host origins.
func WithCheckOrigin(fn func(r *http.Request) bool) Option {
	return func(s *WebSocketServer) { s.upgrader.CheckOrigin = fn }
}

// WithWriteTimeout bounds each frame write. Default is 10 seconds.
func WithWriteTimeout(d time.Duration) Option {
	return func(s *WebSocketServer) { s.writeTimeout = d }
}

// WebSocketServer serves GET /chat?user=<id>. Each connection belongs to one
// user; its frames are handled in order, and handling is serialized per user
// across connections.
type WebSocketServer struct {
	handler      Handler
	upgrader     websocket.Upgrader
	observer     observability.Observer
	writeTimeout time.Duration
	users        sync.Map // user id -> *sync.Mutex
	mux          *http.ServeMux
}

// NewWebSocketServer creates a server dispatching to h.
func NewWebSocketServer(h Handler, opts ...Option) *WebSocketServer {
	s := &WebSocketServer{
		handler:      h,
		observer:     observability.NoOpObserver{},
		writeTimeout: defaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mux = http.NewServeMux()
	s.mux.HandleFunc("GET /chat", s.serveChat)
	return s
}

// ServeHTTP implements http.Handler.
func (s *WebSocketServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *WebSocketServer) ListenAndServe(ctx context.Context, addr string) error {
	return httpserver.Run(ctx, httpserver.New(addr, s))
}

func (s *WebSocketServer) serveChat(w http.ResponseWriter, r *http.Request) {
	user := strings.TrimSpace(r.URL.Query().Get("user"))
	if user == "" {
		http.Error(w, "user query parameter is required", http.StatusBadRequest)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxFrameBytes)

	ctx := r.Context()
	observability.Emit(ctx, s.observer, observability.Event{
		Type:   EventConnect,
		Level:  observability.LevelInfo,
		Source: "chat.WebSocketServer",
		Data:   map[string]any{"user": user, "remote": r.RemoteAddr},
	})

	err = s.loop(ctx, conn, user)

	data := map[string]any{"user": user}
	if err != nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		data["error"] = err.Error()
	}
	observability.Emit(ctx, s.observer, observability.Event{
		Type:   EventDisconnect,
		Level:  observability.LevelInfo,
		Source: "chat.WebSocketServer",
		Data:   data,
	})
}

func (s *WebSocketServer) loop(ctx context.Context, conn *websocket.Conn, user string) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var in ClientFrame
		if err := json.Unmarshal(data, &in); err != nil {
			observability.Emit(ctx, s.observer, observability.Event{
				Type:   EventBadFrame,
				Level:  observability.LevelWarning,
				Source: "chat.WebSocketServer",
				Data:   map[string]any{"user": user, "error": err.Error()},
			})
			if err := s.write(conn, ServerFrame{Error: "invalid frame: expected {\"text\"} or {\"callback\"}"}); err != nil {
				return err
			}
			continue
		}

		frames := s.dispatch(ctx, bot.Message{UserID: user, Text: in.Text, Callback: in.Callback})
		for _, f := range frames {
			if err := s.write(conn, f); err != nil {
				return err
			}
		}
	}
}

func (s *WebSocketServer) write(conn *websocket.Conn, f ServerFrame) error {
	if err := conn.SetWriteDeadline(time.Now().Add(s.writeTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(f)
}

func (s *WebSocketServer) dispatch(ctx context.Context, msg bot.Message) []ServerFrame {
	mu := s.userLock(msg.UserID)
	mu.Lock()
	replies, err := s.handler.Handle(ctx, msg)
	mu.Unlock()

	if err != nil {
		return []ServerFrame{{Error: err.Error()}}
	}
	frames := make([]ServerFrame, 0, len(replies))
	for _, r := range replies {
		frames = append(frames, ServerFrame{Reply: r})
	}
	return frames
}

func (s *WebSocketServer) userLock(user string) *sync.Mutex {
	v, _ := s.users.LoadOrStore(user, &sync.Mutex{})
	return v.(*sync.Mutex)
}
