package rest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/mux"
	"github.com/inbucket/inbound/pkg/config"
	"github.com/inbucket/inbound/pkg/extension"
	"github.com/inbucket/inbound/pkg/mandrill"
	"github.com/inbucket/inbound/pkg/message"
	"github.com/inbucket/inbound/pkg/msghub"
	"github.com/inbucket/inbound/pkg/server/web"
	"github.com/inbucket/inbound/pkg/tempstore/mem"
	"github.com/stretchr/testify/require"
)

// handled is a copy of a message taken while its attachments were still open.
type handled struct {
	msg         *message.Message
	attachments map[string]string
}

// recordingHandler keeps every message it is handed, failing when err is set.
type recordingHandler struct {
	mu       sync.Mutex
	messages []handled
	err      error
}

func (h *recordingHandler) Handle(ctx context.Context, msg *message.Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return h.err
	}
	atts := make(map[string]string)
	for _, a := range msg.Attachments {
		if _, err := a.File.Seek(0, io.SeekStart); err != nil {
			return err
		}
		b, err := io.ReadAll(a.File)
		if err != nil {
			return err
		}
		atts[a.Filename] = string(b)
	}
	h.messages = append(h.messages, handled{msg: msg, attachments: atts})
	return nil
}

type testServer struct {
	router  *mux.Router
	handler *recordingHandler
	store   *mem.Store
	ext     *extension.Host
	hub     *msghub.Hub
}

func setupWebServer(t *testing.T) *testServer {
	t.Helper()
	cfg := &config.Root{
		Web: config.Web{
			MaxBodyBytes: 1 << 20,
		},
		Webhook: config.Webhook{
			FormField: "mandrill_events",
		},
	}
	store := mem.NewStore()
	ext := extension.NewHost()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := msghub.New(5, ext)
	go hub.Start(ctx)

	n := &mandrill.Normalizer{
		SPF:         mandrill.SPFPolicy{Results: mandrill.DefaultSPFResults},
		Attachments: &mandrill.Materializer{Store: store},
		Extensions:  ext,
	}
	h := &recordingHandler{}
	router := mux.NewRouter()
	SetupRoutes(router.PathPrefix("/api/").Subrouter())
	web.NewServer(cfg, make(chan bool), n, h, ext, hub)

	return &testServer{router: router, handler: h, store: store, ext: ext, hub: hub}
}

// postEvents submits events as a form encoded webhook delivery.
func (s *testServer) postEvents(t *testing.T, field string, events any) *httptest.ResponseRecorder {
	t.Helper()
	var payload string
	switch ev := events.(type) {
	case string:
		payload = ev
	default:
		b, err := json.Marshal(ev)
		require.NoError(t, err)
		payload = string(b)
	}
	form := url.Values{field: {payload}}
	req := httptest.NewRequest("POST", "/api/mandrill/inbound", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func inbound(msg map[string]any) map[string]any {
	return map[string]any{"event": "inbound", "msg": msg}
}

func passingMsg(subject string) map[string]any {
	return map[string]any{
		"to":         [][]any{{"rcpt@example.com", "Rcpt"}},
		"from_email": "sender@example.com",
		"from_name":  "Sender",
		"headers":    map[string]any{"Subject": subject},
		"subject":    subject,
		"text":       "body of " + subject,
		"email":      "rcpt@example.com",
		"spf":        map[string]any{"result": "pass"},
	}
}

func decodeResult(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())
	var result map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	return result
}
