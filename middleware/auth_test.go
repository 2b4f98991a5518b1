package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aj9599/rental-billing/database"
)

type fakeSessions map[string]*database.Session

func (f fakeSessions) Get(_ context.Context, id string) (*database.Session, error) {
	if s, ok := f[id]; ok {
		return s, nil
	}
	return nil, database.ErrSessionNotFound
}

const testSecret = "test-secret"

func newSession(id string) *database.Session {
	return &database.Session{ID: id, Username: "quanly", Role: "admin", ExpiresAt: time.Now().Add(time.Hour)}
}

func TestAuthMiddleware(t *testing.T) {
	sess := newSession("s1")
	sessions := fakeSessions{"s1": sess}

	valid, err := IssueToken(testSecret, sess)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	foreign, _ := IssueToken("other-secret", sess)
	orphan, _ := IssueToken(testSecret, newSession("gone"))
	expiredSess := newSession("s1")
	expiredSess.ExpiresAt = time.Now().Add(-time.Minute)
	expired, _ := IssueToken(testSecret, expiredSess)

	tests := []struct {
		name       string
		header     string
		query      string
		wantStatus int
	}{
		{"missing", "", "", http.StatusUnauthorized},
		{"header", "Bearer " + valid, "", http.StatusOK},
		{"query for websockets", "", valid, http.StatusOK},
		{"wrong scheme", "Basic " + valid, "", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + foreign, "", http.StatusUnauthorized},
		{"expired", "Bearer " + expired, "", http.StatusUnauthorized},
		{"session gone", "Bearer " + orphan, "", http.StatusUnauthorized},
	}

	handler := AuthMiddleware(testSecret, sessions)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok := SessionFromContext(r.Context())
		if !ok || got.ID != "s1" {
			t.Errorf("Session missing from context: %+v", got)
		}
		w.WriteHeader(http.StatusOK)
	}))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := "/api/invoices"
			if tt.query != "" {
				target += "?token=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Fatalf("Expected %d, got %d", tt.wantStatus, rr.Code)
			}
			if tt.wantStatus == http.StatusUnauthorized {
				var body map[string]string
				json.NewDecoder(rr.Body).Decode(&body)
				if body["redirect"] != "/login" {
					t.Errorf("Expected redirect to /login, got %v", body)
				}
			}
		})
	}
}

func TestParseToken_Claims(t *testing.T) {
	token, err := IssueToken(testSecret, newSession("abc"))
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	claims, err := ParseToken(testSecret, token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.SessionID != "abc" || claims.Username != "quanly" || claims.Role != "admin" {
		t.Errorf("Unexpected claims: %+v", claims)
	}
}

func TestRecover(t *testing.T) {
	handler := Recover(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", rr.Code)
	}
}
