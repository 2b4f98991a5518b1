package services

import (
	"context"
	"sync"
	"time"

	"github.com/aj9599/rental-billing/apiclient"
)

type SubmitStatus string

const (
	SubmitIdle       SubmitStatus = "idle"
	SubmitSubmitting SubmitStatus = "submitting"
	SubmitError      SubmitStatus = "error"
)

// SubmitGuard keeps a form from being submitted twice. A key is busy from the
// moment Do starts until fn returns, whatever the outcome. A failed run leaves
// the key in the error state until the next successful one.
type SubmitGuard struct {
	mu   sync.Mutex
	keys map[string]*submitEntry
}

type submitEntry struct {
	status  SubmitStatus
	since   time.Time
	lastErr string
}

type SubmitState struct {
	Key        string       `json:"key"`
	Status     SubmitStatus `json:"status"`
	Submitting bool         `json:"submitting"`
	Since      *time.Time   `json:"since,omitempty"`
	LastError  string       `json:"last_error,omitempty"`
}

func NewSubmitGuard() *SubmitGuard {
	return &SubmitGuard{keys: make(map[string]*submitEntry)}
}

func (g *SubmitGuard) Do(ctx context.Context, key string, fn func(context.Context) error) error {
	g.mu.Lock()
	entry, ok := g.keys[key]
	if ok && entry.status == SubmitSubmitting {
		g.mu.Unlock()
		return ErrSubmitInProgress
	}
	if !ok {
		entry = &submitEntry{}
		g.keys[key] = entry
	}
	entry.status = SubmitSubmitting
	entry.since = time.Now()
	g.mu.Unlock()

	err := fn(ctx)

	g.mu.Lock()
	defer g.mu.Unlock()
	switch {
	case err == nil:
		delete(g.keys, key)
	case apiclient.IsCanceled(err):
		// The user walked away; the form returns to idle, or to its earlier error.
		if entry.lastErr == "" {
			delete(g.keys, key)
		} else {
			entry.status = SubmitError
		}
	default:
		entry.status = SubmitError
		entry.lastErr = err.Error()
	}
	return err
}

func (g *SubmitGuard) State(key string) SubmitState {
	g.mu.Lock()
	defer g.mu.Unlock()

	state := SubmitState{Key: key, Status: SubmitIdle}
	entry, ok := g.keys[key]
	if !ok {
		return state
	}
	state.Status = entry.status
	state.LastError = entry.lastErr
	if entry.status == SubmitSubmitting {
		since := entry.since
		state.Submitting = true
		state.Since = &since
	}
	return state
}

// SubmitKey scopes a form to one session so two operators never block each other.
func SubmitKey(sessionID, form string) string {
	return sessionID + ":" + form
}
