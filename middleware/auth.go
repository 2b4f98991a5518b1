package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/aj9599/rental-billing/database"
)

type contextKey string

const SessionKey contextKey = "session"

// Claims identify a console session. The backend token never goes into the JWT.
type Claims struct {
	SessionID string `json:"sid"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// SessionLookup resolves a session id to a live session.
type SessionLookup interface {
	Get(ctx context.Context, id string) (*database.Session, error)
}

// IssueToken signs a console token that expires with the session.
func IssueToken(secret string, sess *database.Session) (string, error) {
	claims := Claims{
		SessionID: sess.ID,
		Username:  sess.Username,
		Role:      sess.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sess.Username,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func ParseToken(secret, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.SessionID == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// AuthMiddleware accepts the console token from the Authorization header or,
// for websocket upgrades, from the token query parameter.
func AuthMiddleware(jwtSecret string, sessions SessionLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := bearerToken(r)
			if tokenString == "" {
				unauthorized(w)
				return
			}

			claims, err := ParseToken(jwtSecret, tokenString)
			if err != nil {
				unauthorized(w)
				return
			}

			sess, err := sessions.Get(r.Context(), claims.SessionID)
			if errors.Is(err, database.ErrSessionNotFound) {
				unauthorized(w)
				return
			}
			if err != nil {
				log.Printf("ERROR: Session lookup failed: %v", err)
				http.Error(w, "Session store unavailable", http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

func bearerToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{
		"error":    "Unauthorized",
		"redirect": "/login",
	})
}

func WithSession(ctx context.Context, sess *database.Session) context.Context {
	return context.WithValue(ctx, SessionKey, sess)
}

func SessionFromContext(ctx context.Context) (*database.Session, bool) {
	sess, ok := ctx.Value(SessionKey).(*database.Session)
	return sess, ok && sess != nil
}
