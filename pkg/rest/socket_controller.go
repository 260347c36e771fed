package rest

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/inbucket/inbound/pkg/extension/event"
	"github.com/inbucket/inbound/pkg/msghub"
	"github.com/inbucket/inbound/pkg/policy"
	"github.com/inbucket/inbound/pkg/rest/model"
	"github.com/inbucket/inbound/pkg/server/web"
	"github.com/rs/zerolog/log"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// options for gorilla connection upgrader
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// errListenerClosed unregisters a closed listener from the hub.
var errListenerClosed = errors.New("listener closed")

// msgListener handles messages from the msghub
type msgListener struct {
	hub     *msghub.Hub                    // Global message hub.
	c       chan *model.JSONMonitorEventV1 // Queue of incoming events.
	done    chan struct{}                  // Closed when the socket goes away.
	once    sync.Once
	address string // Receiving address to monitor, "" == all.
}

// newMsgListener creates a listener and registers it.  A non-empty address restricts the
// messages sent to the WebSocket to those received at that address.
func newMsgListener(hub *msghub.Hub, address string) *msgListener {
	ml := &msgListener{
		hub:     hub,
		c:       make(chan *model.JSONMonitorEventV1, 100),
		done:    make(chan struct{}),
		address: strings.ToLower(address),
	}
	hub.AddListener(ml)
	return ml
}

// Receive handles an incoming message.
func (ml *msgListener) Receive(msg event.MessageMetadata) error {
	if ml.address != "" && ml.address != strings.ToLower(msg.ReceivingAddress) {
		return nil
	}

	// Enqueue for websocket.
	ev := &model.JSONMonitorEventV1{
		Variant: "message-normalized",
		Message: metadataToSummary(&msg),
	}
	select {
	case ml.c <- ev:
		return nil
	case <-ml.done:
		return errListenerClosed
	}
}

// WSReader makes sure the websocket client is still connected, discards any messages from client
func (ml *msgListener) WSReader(conn *websocket.Conn) {
	slog := log.With().Str("module", "rest").Str("proto", "WebSocket").
		Str("remote", conn.RemoteAddr().String()).Logger()
	defer ml.Close()

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		slog.Warn().Err(err).Msg("Failed to setup read deadline")
	}
	conn.SetPongHandler(func(string) error {
		slog.Debug().Msg("Got pong")
		if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			slog.Warn().Err(err).Msg("Failed to set read deadline in pong")
		}
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(
				err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				slog.Warn().Err(err).Msg("Socket error")
			} else {
				slog.Debug().Msg("Closing socket")
			}
			break
		}
	}
}

// WSWriter forwards queued events to the client and keeps the connection alive with pings.
func (ml *msgListener) WSWriter(conn *websocket.Conn) {
	slog := log.With().Str("module", "rest").Str("proto", "WebSocket").
		Str("remote", conn.RemoteAddr().String()).Logger()

	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ml.Close()
	}()

	for {
		select {
		case <-ml.done:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case ev := <-ml.c:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				slog.Warn().Err(err).Msg("Failed to set write deadline for msg")
			}
			if conn.WriteJSON(ev) != nil {
				return
			}
		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				slog.Warn().Err(err).Msg("Failed to set write deadline for ping")
			}
			if conn.WriteMessage(websocket.PingMessage, []byte{}) != nil {
				return
			}
			slog.Debug().Msg("Sent ping")
		}
	}
}

// Close removes the listener registration, it is safe to call more than once.
func (ml *msgListener) Close() {
	ml.once.Do(func() {
		close(ml.done)
		ml.hub.RemoveListener(ml)
	})
}

// MonitorAllMessagesV1 is a web handler which upgrades the connection to a websocket and notifies
// the client of every normalized message.
func MonitorAllMessagesV1(
	w http.ResponseWriter, req *http.Request, ctx *web.Context) (err error) {
	return monitor(w, req, ctx, "")
}

// MonitorAddressMessagesV1 is a web handler which upgrades the connection to a websocket and
// notifies the client of messages received at a particular address.
func MonitorAddressMessagesV1(
	w http.ResponseWriter, req *http.Request, ctx *web.Context) (err error) {
	address := ctx.Vars["address"]
	if _, _, err := policy.ParseEmailAddress(address); err != nil {
		http.Error(w, "Invalid address: "+err.Error(), http.StatusBadRequest)
		return nil
	}
	return monitor(w, req, ctx, address)
}

func monitor(w http.ResponseWriter, req *http.Request, ctx *web.Context, address string) error {
	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		return err
	}
	web.ExpWebSocketConnectsCurrent.Add(1)
	defer func() {
		_ = conn.Close()
		web.ExpWebSocketConnectsCurrent.Add(-1)
	}()
	log.Debug().Str("module", "rest").Str("proto", "WebSocket").
		Str("remote", conn.RemoteAddr().String()).Msg("Upgraded to WebSocket")
	// Create, register listener; then interact with conn.
	ml := newMsgListener(ctx.MsgHub, address)
	go ml.WSWriter(conn)
	ml.WSReader(conn)
	return nil
}

func metadataToSummary(md *event.MessageMetadata) *model.JSONMessageSummaryV1 {
	return &model.JSONMessageSummaryV1{
		Batch:            md.Batch,
		Index:            md.Index,
		From:             md.From,
		To:               md.To,
		CC:               md.CC,
		BCC:              md.BCC,
		Subject:          md.Subject,
		ReceivingAddress: md.ReceivingAddress,
		Attachments:      md.Attachments,
		Date:             md.Date,
	}
}
