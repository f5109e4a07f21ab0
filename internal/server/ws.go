package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/ayusman/isharavaani/internal/assist"
	"github.com/ayusman/isharavaani/internal/detector"
	"github.com/ayusman/isharavaani/internal/session"
	"github.com/ayusman/isharavaani/internal/store"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 << 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // local UI
	},
}

// Client message types.
const (
	msgStart     = "start"
	msgStop      = "stop"
	msgReset     = "reset"
	msgLandmarks = "landmarks"
)

// clientMessage is a command or an observation sent by the browser.
type clientMessage struct {
	Type  string              `json:"type"`
	Hands []detector.WireHand `json:"hands,omitempty"`
}

// serverMessage carries either a state update or an error.
type serverMessage struct {
	Type  string            `json:"type"`
	State *session.Snapshot `json:"state,omitempty"`
	Error string            `json:"error,omitempty"`
}

// sessionHandler opens one capture session per websocket connection.
// The browser tracks hands itself and pushes landmarks over the socket.
type sessionHandler struct {
	template session.Config
	store    *store.Store
	log      logrus.FieldLogger
}

func newSessionHandler(template session.Config, s *store.Store, log logrus.FieldLogger) *sessionHandler {
	return &sessionHandler{template: template, store: s, log: log}
}

// language picks the query parameter, then the saved setting, then the
// configured default.
func (h *sessionHandler) language(r *http.Request) (assist.Language, error) {
	if q := r.URL.Query().Get("language"); q != "" {
		return assist.ParseLanguage(q)
	}
	if h.store != nil {
		if v, err := h.store.Settings().Get(store.SettingLanguage); err == nil {
			if lang, err := assist.ParseLanguage(v); err == nil {
				return lang, nil
			}
		}
	}
	if h.template.Language != "" {
		return h.template.Language, nil
	}
	return assist.English, nil
}

func (h *sessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	lang, err := h.language(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unsupported language")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	cfg := h.template
	cfg.Language = lang
	cfg.Logger = h.log

	ctrl := session.New(cfg)
	defer ctrl.Close()

	feed := detector.NewFeed()
	ctrl.Bind(feed)
	feed.Start(context.Background())
	defer feed.Stop()

	log := h.log.WithFields(logrus.Fields{
		"session_id": ctrl.ID(),
		"language":   lang,
	})
	log.Info("session opened")
	defer log.Info("session closed")

	out := newOutbox()
	unsubscribe := ctrl.Subscribe(out.state)
	defer unsubscribe()
	out.state(ctrl.Snapshot())

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		h.writeLoop(conn, out, done)
	}()

	h.readLoop(conn, ctrl, feed, out, log)

	close(done)
	wg.Wait()
}

func (h *sessionHandler) readLoop(conn *websocket.Conn, ctrl *session.Controller, feed *detector.Feed, out *outbox, log logrus.FieldLogger) {
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithError(err).Warn("websocket read failed")
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			out.error("invalid message")
			continue
		}

		switch msg.Type {
		case msgStart:
			err = ctrl.Start()
		case msgStop:
			err = ctrl.Stop()
		case msgReset:
			err = ctrl.Reset()
		case msgLandmarks:
			hands, convErr := detector.FromWire(msg.Hands)
			if convErr != nil {
				out.error(convErr.Error())
				continue
			}
			if err := feed.Push(hands); err != nil && !errors.Is(err, detector.ErrFeedStopped) {
				log.WithError(err).Warn("push failed")
			}
			continue
		default:
			out.error("unknown message type " + msg.Type)
			continue
		}

		if err != nil {
			out.error(err.Error())
		}
		out.state(ctrl.Snapshot())
	}
}

func (h *sessionHandler) writeLoop(conn *websocket.Conn, out *outbox, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-out.ready:
			for _, msg := range out.drain() {
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteJSON(msg); err != nil {
					// Unblocks the read loop.
					conn.Close()
					return
				}
			}
		}
	}
}

// outbox queues outgoing messages without blocking the controller.
// Pending errors are kept in order; only the newest state is kept, and a
// state no newer than the last one written is dropped.
type outbox struct {
	mu      sync.Mutex
	errs    []string
	latest  *session.Snapshot
	written bool
	version uint64 // last version written
	ready   chan struct{}
}

func newOutbox() *outbox {
	return &outbox{ready: make(chan struct{}, 1)}
}

func (o *outbox) state(s session.Snapshot) {
	o.mu.Lock()
	if (o.written && s.Version <= o.version) || (o.latest != nil && s.Version < o.latest.Version) {
		o.mu.Unlock()
		return
	}
	o.latest = &s
	o.mu.Unlock()
	o.signal()
}

func (o *outbox) error(msg string) {
	o.mu.Lock()
	o.errs = append(o.errs, msg)
	o.mu.Unlock()
	o.signal()
}

func (o *outbox) signal() {
	select {
	case o.ready <- struct{}{}:
	default:
	}
}

func (o *outbox) drain() []serverMessage {
	o.mu.Lock()
	defer o.mu.Unlock()

	msgs := make([]serverMessage, 0, len(o.errs)+1)
	for _, e := range o.errs {
		msgs = append(msgs, serverMessage{Type: "error", Error: e})
	}
	o.errs = nil
	if o.latest != nil {
		msgs = append(msgs, serverMessage{Type: "state", State: o.latest})
		o.version = o.latest.Version
		o.written = true
		o.latest = nil
	}
	return msgs
}
