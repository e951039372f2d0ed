// Package erptest provides an in-process Odoo XML-RPC server for tests.
//
//	srv := erptest.NewServer(7)
//	defer srv.Close()
//	srv.Handle("purchase.order", "search_read", func(c erptest.Call) (any, error) {
//	    return []any{map[string]any{"id": 1, "name": "P00001"}}, nil
//	})
package erptest

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Call is one execute_kw request received by the server.
type Call struct {
	Model  string
	Method string
	Body   string
}

// Handler produces the reply for a call. Returning a Fault sends an XML-RPC
// fault; any other error is sent as HTTP 500.
type Handler func(Call) (any, error)

// Fault is an XML-RPC fault reply.
type Fault struct {
	Code    int
	Message string
}

func (f Fault) Error() string { return fmt.Sprintf("Fault(%d): %s", f.Code, f.Message) }

// Server fakes the /xmlrpc/2/common and /xmlrpc/2/object endpoints.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	uid      int64
	logins   int
	handlers map[string]Handler
	calls    []Call
}

var (
	methodNameRx = regexp.MustCompile(`<methodName>([^<]*)</methodName>`)
	stringRx     = regexp.MustCompile(`<string>([^<]*)</string>`)
)

// NewServer starts a server that authenticates every login as uid. A uid of
// zero rejects logins the way Odoo does, by returning false.
func NewServer(uid int64) *Server {
	s := &Server{uid: uid, handlers: make(map[string]Handler)}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	return s
}

// Handle registers the handler for model.method.
func (s *Server) Handle(model, method string, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[model+"."+method] = h
}

// SetUID changes the uid returned by later logins.
func (s *Server) SetUID(uid int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uid = uid
}

// Logins returns the number of authenticate calls received.
func (s *Server) Logins() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logins
}

// Calls returns the execute_kw calls received for model.method.
func (s *Server) Calls(model, method string) []Call {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Call
	for _, c := range s.calls {
		if c.Model == model && c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	body := string(raw)

	m := methodNameRx.FindStringSubmatch(body)
	if m == nil {
		http.Error(w, "missing methodName", http.StatusBadRequest)
		return
	}

	switch {
	case strings.HasSuffix(r.URL.Path, "/xmlrpc/2/common") && m[1] == "authenticate":
		s.mu.Lock()
		s.logins++
		uid := s.uid
		s.mu.Unlock()

		if uid == 0 {
			writeReply(w, false)
			return
		}
		writeReply(w, uid)

	case strings.HasSuffix(r.URL.Path, "/xmlrpc/2/object") && m[1] == "execute_kw":
		// params: db, uid, password, model, method, ...
		strs := stringRx.FindAllStringSubmatch(body, -1)
		if len(strs) < 4 {
			writeFault(w, Fault{Code: 1, Message: "malformed execute_kw"})
			return
		}
		call := Call{Model: strs[2][1], Method: strs[3][1], Body: body}

		s.mu.Lock()
		s.calls = append(s.calls, call)
		h, ok := s.handlers[call.Model+"."+call.Method]
		s.mu.Unlock()

		if !ok {
			writeFault(w, Fault{Code: 2, Message: fmt.Sprintf("no handler for %s.%s", call.Model, call.Method)})
			return
		}

		reply, err := h(call)
		if err != nil {
			if f, ok := err.(Fault); ok {
				writeFault(w, f)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeReply(w, reply)

	default:
		http.Error(w, "unknown endpoint", http.StatusNotFound)
	}
}

func writeReply(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "text/xml")
	fmt.Fprintf(w, `<?xml version="1.0"?><methodResponse><params><param>%s</param></params></methodResponse>`, Value(v))
}

func writeFault(w http.ResponseWriter, f Fault) {
	w.Header().Set("Content-Type", "text/xml")
	fmt.Fprintf(w, `<?xml version="1.0"?><methodResponse><fault>%s</fault></methodResponse>`, Value(map[string]any{
		"faultCode":   f.Code,
		"faultString": f.Message,
	}))
}

// Value encodes v as an XML-RPC <value>. Supported: bool, int, int64,
// float64, string, []any, and map[string]any.
func Value(v any) string {
	switch x := v.(type) {
	case bool:
		if x {
			return "<value><boolean>1</boolean></value>"
		}
		return "<value><boolean>0</boolean></value>"
	case int:
		return "<value><int>" + strconv.Itoa(x) + "</int></value>"
	case int64:
		return "<value><int>" + strconv.FormatInt(x, 10) + "</int></value>"
	case float64:
		return "<value><double>" + strconv.FormatFloat(x, 'f', -1, 64) + "</double></value>"
	case string:
		var b bytes.Buffer
		xml.EscapeText(&b, []byte(x))
		return "<value><string>" + b.String() + "</string></value>"
	case []any:
		var b strings.Builder
		b.WriteString("<value><array><data>")
		for _, item := range x {
			b.WriteString(Value(item))
		}
		b.WriteString("</data></array></value>")
		return b.String()
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var b strings.Builder
		b.WriteString("<value><struct>")
		for _, k := range keys {
			fmt.Fprintf(&b, "<member><name>%s</name>%s</member>", k, Value(x[k]))
		}
		b.WriteString("</struct></value>")
		return b.String()
	default:
		panic(fmt.Sprintf("erptest: unsupported value type %T", v))
	}
}
