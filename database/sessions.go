package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aj9599/rental-billing/crypto"
	"github.com/aj9599/rental-billing/models"
)

var ErrSessionNotFound = errors.New("session not found")

// Session is a signed-in console user. The backend bearer token is kept
// encrypted and never leaves the server.
type Session struct {
	ID         string    `json:"id"`
	UserID     int64     `json:"user_id"`
	Username   string    `json:"username"`
	Role       string    `json:"role"`
	Language   string    `json:"language"`
	CreatedAt  time.Time `json:"created_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

type SessionStore struct {
	db  *sql.DB
	key []byte
	now func() time.Time
}

func NewSessionStore(db *sql.DB, key []byte) *SessionStore {
	return &SessionStore{db: db, key: key, now: time.Now}
}

func (s *SessionStore) Create(ctx context.Context, user models.User, backendToken, language string, ttl time.Duration) (*Session, error) {
	enc, err := crypto.Encrypt(backendToken, s.key)
	if err != nil {
		return nil, fmt.Errorf("encrypt token: %w", err)
	}

	now := s.now().UTC()
	sess := &Session{
		ID:         uuid.NewString(),
		UserID:     user.ID,
		Username:   user.Username,
		Role:       user.Role,
		Language:   language,
		CreatedAt:  now,
		LastSeenAt: now,
		ExpiresAt:  now.Add(ttl),
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, username, role, language, token_enc, created_at, last_seen_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, sess.ID, sess.UserID, sess.Username, sess.Role, sess.Language, enc, sess.CreatedAt, sess.LastSeenAt, sess.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return sess, nil
}

// Get returns a live session and refreshes its last-seen time.
func (s *SessionStore) Get(ctx context.Context, id string) (*Session, error) {
	var sess Session
	var language sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, username, role, language, created_at, last_seen_at, expires_at
		FROM sessions WHERE id = ?
	`, id).Scan(&sess.ID, &sess.UserID, &sess.Username, &sess.Role, &language,
		&sess.CreatedAt, &sess.LastSeenAt, &sess.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	sess.Language = language.String

	now := s.now().UTC()
	if !sess.ExpiresAt.After(now) {
		return nil, ErrSessionNotFound
	}

	if _, err := s.db.ExecContext(ctx, `UPDATE sessions SET last_seen_at = ? WHERE id = ?`, now, id); err == nil {
		sess.LastSeenAt = now
	}
	return &sess, nil
}

// Token returns the decrypted backend token; "" once it has been cleared.
func (s *SessionStore) Token(ctx context.Context, id string) (string, error) {
	var enc sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT token_enc FROM sessions WHERE id = ?`, id).Scan(&enc)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrSessionNotFound
	}
	if err != nil {
		return "", err
	}
	return crypto.Decrypt(enc.String, s.key)
}

func (s *SessionStore) ClearToken(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE sessions SET token_enc = NULL WHERE id = ?`, id)
	return err
}

func (s *SessionStore) SetLanguage(ctx context.Context, id, language string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE sessions SET language = ? WHERE id = ?`, language, id)
	return err
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	return err
}

func (s *SessionStore) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, s.now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Tokens adapts one session to the API client's token store.
func (s *SessionStore) Tokens(sessionID string) *SessionTokens {
	return &SessionTokens{store: s, sessionID: sessionID}
}

type SessionTokens struct {
	store     *SessionStore
	sessionID string
}

func (t *SessionTokens) Token(ctx context.Context) (string, error) {
	return t.store.Token(ctx, t.sessionID)
}

func (t *SessionTokens) Clear(ctx context.Context) error {
	return t.store.ClearToken(ctx, t.sessionID)
}
