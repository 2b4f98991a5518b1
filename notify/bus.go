// Package notify delivers toast notifications from handlers and background
// services to whoever is listening, usually a browser websocket.
package notify

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeSuccess Type = "success"
	TypeError   Type = "error"
	TypeInfo    Type = "info"
	TypeWarning Type = "warning"
)

const DefaultDuration = 4 * time.Second

// Event is one toast. An empty SessionID reaches every subscriber.
type Event struct {
	ID        string        `json:"id"`
	Type      Type          `json:"type"`
	Title     string        `json:"title"`
	Message   string        `json:"message"`
	Duration  time.Duration `json:"-"`
	SessionID string        `json:"-"`
	CreatedAt time.Time     `json:"created_at"`
}

// MarshalJSON writes the duration in milliseconds for the browser.
func (e Event) MarshalJSON() ([]byte, error) {
	type plain Event
	return json.Marshal(struct {
		plain
		DurationMS int64 `json:"duration_ms"`
	}{plain(e), e.Duration.Milliseconds()})
}

// Notifier is what producers depend on.
type Notifier interface {
	Notify(Event)
}

type Handler func(Event)

// Bus is an in-process publish/subscribe hub. Handlers run on the publisher's
// goroutine and must not block.
type Bus struct {
	mu   sync.RWMutex
	subs map[uint64]Handler
	next uint64
}

func NewBus() *Bus {
	return &Bus{subs: make(map[uint64]Handler)}
}

// Notify fills in defaults and hands the event to every subscriber.
func (b *Bus) Notify(e Event) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Type == "" {
		e.Type = TypeInfo
	}
	if e.Duration <= 0 {
		e.Duration = DefaultDuration
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs))
	for _, h := range b.subs {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(e)
	}
}

// Subscribe registers h and returns a function that removes it.
func (b *Bus) Subscribe(h Handler) (unsubscribe func()) {
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = h
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

// Subscribers reports how many handlers are registered.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// ForSession wraps h so it only sees broadcasts and events for sessionID.
func ForSession(sessionID string, h Handler) Handler {
	return func(e Event) {
		if e.SessionID == "" || e.SessionID == sessionID {
			h(e)
		}
	}
}

func Success(sessionID, title, message string) Event {
	return Event{Type: TypeSuccess, SessionID: sessionID, Title: title, Message: message}
}

func Error(sessionID, title, message string) Event {
	return Event{Type: TypeError, SessionID: sessionID, Title: title, Message: message, Duration: 6 * time.Second}
}

func Info(sessionID, title, message string) Event {
	return Event{Type: TypeInfo, SessionID: sessionID, Title: title, Message: message}
}

func Warning(sessionID, title, message string) Event {
	return Event{Type: TypeWarning, SessionID: sessionID, Title: title, Message: message}
}

type discard struct{}

func (discard) Notify(Event) {}

// Discard drops every event.
var Discard Notifier = discard{}
