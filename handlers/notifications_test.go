package handlers

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/aj9599/rental-billing/notify"
)

func TestNotificationHandler_StreamsSessionToasts(t *testing.T) {
	env := newTestEnv(t)
	bus := notify.NewBus()
	h := NewNotificationHandler(env.console, bus, nil)
	env.router.HandleFunc("/api/notifications/ws", h.Stream)

	srv := httptest.NewServer(env.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/notifications/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for bus.Subscribers() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("Stream never subscribed")
		}
		time.Sleep(10 * time.Millisecond)
	}

	bus.Notify(notify.Success("someone-else", "not for us", ""))
	bus.Notify(notify.Success(env.session.ID, "Invoice created", "HD7"))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got struct {
		Type       string `json:"type"`
		Title      string `json:"title"`
		Message    string `json:"message"`
		DurationMS int64  `json:"duration_ms"`
	}
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if got.Title != "Invoice created" || got.Type != "success" || got.DurationMS != notify.DefaultDuration.Milliseconds() {
		t.Errorf("Unexpected event %+v", got)
	}

	conn.Close()
	deadline = time.Now().Add(2 * time.Second)
	for bus.Subscribers() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("Stream did not unsubscribe after close")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
