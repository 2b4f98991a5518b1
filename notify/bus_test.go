package notify

import (
	"sync"
	"testing"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) handle(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestBus_NotifyFillsDefaults(t *testing.T) {
	bus := NewBus()
	rec := &recorder{}
	bus.Subscribe(rec.handle)

	bus.Notify(Event{Title: "Saved"})

	if rec.count() != 1 {
		t.Fatalf("Expected 1 event, got %d", rec.count())
	}
	e := rec.events[0]
	if e.ID == "" || e.CreatedAt.IsZero() {
		t.Errorf("Expected ID and timestamp to be set: %+v", e)
	}
	if e.Type != TypeInfo || e.Duration != DefaultDuration {
		t.Errorf("Unexpected defaults: type=%s duration=%s", e.Type, e.Duration)
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()
	rec := &recorder{}
	unsubscribe := bus.Subscribe(rec.handle)

	bus.Notify(Success("", "one", ""))
	unsubscribe()
	unsubscribe()
	bus.Notify(Success("", "two", ""))

	if rec.count() != 1 {
		t.Errorf("Expected 1 event after unsubscribe, got %d", rec.count())
	}
	if bus.Subscribers() != 0 {
		t.Errorf("Expected no subscribers, got %d", bus.Subscribers())
	}
}

func TestForSession(t *testing.T) {
	bus := NewBus()
	alice, bob := &recorder{}, &recorder{}
	bus.Subscribe(ForSession("alice", alice.handle))
	bus.Subscribe(ForSession("bob", bob.handle))

	bus.Notify(Success("alice", "Invoice created", ""))
	bus.Notify(Info("", "Maintenance window", "tonight"))

	if alice.count() != 2 {
		t.Errorf("alice: expected 2 events, got %d", alice.count())
	}
	if bob.count() != 1 {
		t.Errorf("bob: expected 1 event, got %d", bob.count())
	}
}

func TestBus_ConcurrentNotify(t *testing.T) {
	bus := NewBus()
	rec := &recorder{}
	bus.Subscribe(rec.handle)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bus.Notify(Info("", "tick", ""))
		}()
	}
	wg.Wait()

	if rec.count() != 50 {
		t.Errorf("Expected 50 events, got %d", rec.count())
	}
}
