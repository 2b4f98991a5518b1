package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/aj9599/rental-billing/notify"
)

const (
	notifyWriteWait  = 10 * time.Second
	notifyPongWait   = 60 * time.Second
	notifyPingPeriod = 50 * time.Second
	notifyBuffer     = 32
)

// NotificationHandler streams the session's toasts over a websocket.
type NotificationHandler struct {
	console  *Console
	bus      *notify.Bus
	upgrader websocket.Upgrader
}

// NewNotificationHandler accepts websocket origins from the same list CORS uses;
// an empty list allows any origin.
func NewNotificationHandler(console *Console, bus *notify.Bus, allowedOrigins []string) *NotificationHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &NotificationHandler{
		console: console,
		bus:     bus,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || len(allowed) == 0 || allowed["*"] || allowed[origin]
			},
		},
	}
}

func (h *NotificationHandler) Stream(w http.ResponseWriter, r *http.Request) {
	sess := h.console.session(r)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WARNING: Notification upgrade failed for %s: %v", sess.Username, err)
		return
	}
	defer conn.Close()

	events := make(chan notify.Event, notifyBuffer)
	unsubscribe := h.bus.Subscribe(notify.ForSession(sess.ID, func(e notify.Event) {
		select {
		case events <- e:
		default:
			// Slow reader; the toast is dropped rather than stalling the publisher.
		}
	}))
	defer unsubscribe()

	closed := make(chan struct{})
	go h.readLoop(conn, closed)

	ticker := time.NewTicker(notifyPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case e := <-events:
			conn.SetWriteDeadline(time.Now().Add(notifyWriteWait))
			if err := conn.WriteJSON(e); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(notifyWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			return
		case <-r.Context().Done():
			return
		}
	}
}

// readLoop only exists to process pongs and notice the browser leaving.
func (h *NotificationHandler) readLoop(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(notifyPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(notifyPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
