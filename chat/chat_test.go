package chat_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tailored-agentic-units/procure/bot"
	"github.com/tailored-agentic-units/procure/chat"
	"github.com/tailored-agentic-units/procure/conversation"
	"github.com/tailored-agentic-units/procure/observability"
)

type recordingHandler struct {
	mu       sync.Mutex
	messages []bot.Message
	err      error
}

func (h *recordingHandler) Handle(ctx context.Context, msg bot.Message) ([]conversation.Reply, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, msg)
	if h.err != nil {
		return nil, h.err
	}
	return []conversation.Reply{
		{Text: "got " + msg.Text + msg.Callback},
		{Text: "pick", Buttons: [][]conversation.Button{{{Label: "Confirm Order", Data: "confirm"}}}, Menu: true},
	}, nil
}

func (h *recordingHandler) received() []bot.Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]bot.Message(nil), h.messages...)
}

func dial(t *testing.T, srv *httptest.Server, user string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/chat?user=" + user
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) chat.ServerFrame {
	t.Helper()
	var f chat.ServerFrame
	if err := conn.ReadJSON(&f); err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	return f
}

func TestWebSocketServer_RequiresUser(t *testing.T) {
	srv := httptest.NewServer(chat.NewWebSocketServer(&recordingHandler{}))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/chat")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("got status %d, want 400", resp.StatusCode)
	}
}

func TestWebSocketServer_Frames(t *testing.T) {
	h := &recordingHandler{}
	srv := httptest.NewServer(chat.NewWebSocketServer(h))
	defer srv.Close()

	conn := dial(t, srv, "alice")

	if err := conn.WriteJSON(chat.ClientFrame{Text: "hello"}); err != nil {
		t.Fatal(err)
	}
	if f := readFrame(t, conn); f.Text != "got hello" {
		t.Errorf("got %q, want %q", f.Text, "got hello")
	}
	f := readFrame(t, conn)
	if !f.Menu || len(f.Buttons) != 1 || f.Buttons[0][0].Data != "confirm" {
		t.Errorf("got frame %+v, want buttons and menu", f)
	}

	if err := conn.WriteJSON(chat.ClientFrame{Callback: "confirm"}); err != nil {
		t.Fatal(err)
	}
	readFrame(t, conn)
	readFrame(t, conn)

	got := h.received()
	if len(got) != 2 {
		t.Fatalf("got %d messages, want 2", len(got))
	}
	if got[0] != (bot.Message{UserID: "alice", Text: "hello"}) {
		t.Errorf("got %+v", got[0])
	}
	if got[1] != (bot.Message{UserID: "alice", Callback: "confirm"}) {
		t.Errorf("got %+v", got[1])
	}
}

func TestWebSocketServer_InvalidFrame(t *testing.T) {
	h := &recordingHandler{}
	srv := httptest.NewServer(chat.NewWebSocketServer(h))
	defer srv.Close()

	conn := dial(t, srv, "alice")

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatal(err)
	}
	if f := readFrame(t, conn); !strings.HasPrefix(f.Error, "invalid frame") {
		t.Errorf("got %+v, want invalid frame error", f)
	}

	if err := conn.WriteJSON(chat.ClientFrame{Text: "still here"}); err != nil {
		t.Fatal(err)
	}
	if f := readFrame(t, conn); f.Text != "got still here" {
		t.Errorf("connection unusable after bad frame: %+v", f)
	}
}

func TestWebSocketServer_HandlerError(t *testing.T) {
	h := &recordingHandler{err: errors.New("invalid user id")}
	srv := httptest.NewServer(chat.NewWebSocketServer(h))
	defer srv.Close()

	conn := dial(t, srv, "alice")
	conn.WriteJSON(chat.ClientFrame{Text: "x"})

	if f := readFrame(t, conn); f.Error != "invalid user id" {
		t.Errorf("got %+v, want handler error", f)
	}
}

func TestWebSocketServer_WithBot(t *testing.T) {
	cfg := bot.DefaultConfig()
	cfg.Conversation.CreatedBy = "tester"
	cfg.Observers = nil
	b, err := bot.New(&cfg)
	if err != nil {
		t.Fatalf("bot.New failed: %v", err)
	}
	defer b.Close()

	srv := httptest.NewServer(chat.NewWebSocketServer(b))
	defer srv.Close()

	conn := dial(t, srv, "42")
	conn.WriteJSON(chat.ClientFrame{Text: "/purchase"})
	if f := readFrame(t, conn); !strings.Contains(f.Text, "supplier") {
		t.Errorf("got %q, want supplier prompt", f.Text)
	}

	conn.WriteJSON(chat.ClientFrame{Text: "/cancel"})
	if f := readFrame(t, conn); f.Text != "Purchase order cancelled." || !f.Menu {
		t.Errorf("got %+v, want cancellation with menu", f)
	}
}

func TestConsole_Run(t *testing.T) {
	h := &recordingHandler{}
	in := strings.NewReader("hello\n\n!confirm\n")
	var out bytes.Buffer

	if err := chat.NewConsole(h, "local", in, &out).Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	got := h.received()
	if len(got) != 2 {
		t.Fatalf("got %d messages, want 2 (blank lines skipped)", len(got))
	}
	if got[0].Text != "hello" || got[1].Callback != "confirm" || got[1].Text != "" {
		t.Errorf("got %+v", got)
	}
	if got[0].UserID != "local" {
		t.Errorf("got user %q, want local", got[0].UserID)
	}

	for _, want := range []string{"got hello", "[Confirm Order] !confirm", "Menu: " + bot.MenuPurchase} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestConsole_HandlerError(t *testing.T) {
	h := &recordingHandler{err: errors.New("boom")}
	var out bytes.Buffer

	chat.NewConsole(h, "local", strings.NewReader("x\n"), &out).Run(context.Background())
	if !strings.Contains(out.String(), "error: boom") {
		t.Errorf("got %q, want error line", out.String())
	}
}

func TestConsole_CancelWhileWaitingForInput(t *testing.T) {
	in, w := io.Pipe()
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- chat.NewConsole(&recordingHandler{}, "local", in, io.Discard).Run(ctx)
	}()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

type eventLog struct {
	events chan observability.Event
}

func (l *eventLog) OnEvent(ctx context.Context, e observability.Event) {
	select {
	case l.events <- e:
	default:
	}
}

func TestWebSocketServer_WriteTimeoutDisconnects(t *testing.T) {
	rec := &eventLog{events: make(chan observability.Event, 16)}
	srv := httptest.NewServer(chat.NewWebSocketServer(&recordingHandler{},
		chat.WithObserver(rec),
		chat.WithWriteTimeout(time.Nanosecond),
	))
	defer srv.Close()

	conn := dial(t, srv, "alice")
	if err := conn.WriteJSON(chat.ClientFrame{Text: "hello"}); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case e := <-rec.events:
			if e.Type != chat.EventDisconnect {
				continue
			}
			if msg, _ := e.Data["error"].(string); !strings.Contains(msg, "timeout") {
				t.Errorf("disconnect error = %q, want a write timeout", msg)
			}
			return
		case <-deadline:
			t.Fatal("server did not drop the connection after the write deadline")
		}
	}
}
