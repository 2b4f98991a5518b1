package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/aj9599/rental-billing/apiclient"
	"github.com/aj9599/rental-billing/database"
	"github.com/aj9599/rental-billing/middleware"
	"github.com/aj9599/rental-billing/models"
	"github.com/aj9599/rental-billing/services"
)

const DefaultSessionTTL = 24 * time.Hour

type AuthHandler struct {
	console   *Console
	jwtSecret string
	ttl       time.Duration
}

func NewAuthHandler(console *Console, jwtSecret string, ttl time.Duration) *AuthHandler {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &AuthHandler{console: console, jwtSecret: jwtSecret, ttl: ttl}
}

type LoginResponse struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expires_at"`
	User      models.User      `json:"user"`
	Session   database.Session `json:"session"`
}

type LanguageRequest struct {
	Language string `json:"language" validate:"required,oneof=vi en"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req apiclient.LoginRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	resp, err := h.console.API.Auth().Login(r.Context(), req)
	if err != nil {
		h.authFailed(w, r, req.Username, err)
		return
	}
	h.startSession(w, r, resp)
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req apiclient.RegisterRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	resp, err := h.console.API.Auth().Register(r.Context(), req)
	if err != nil {
		h.authFailed(w, r, req.Username, err)
		return
	}
	database.LogAction(h.console.DB, "register", "Account registered", req.Username, getClientIP(r))
	h.startSession(w, r, resp)
}

func (h *AuthHandler) authFailed(w http.ResponseWriter, r *http.Request, username string, err error) {
	tr := h.console.translations(r)
	// The backend answers bad credentials with 401, which is not an expired session here.
	if errors.Is(err, apiclient.ErrUnauthorized) {
		database.LogAction(h.console.DB, "login_failed", "Invalid credentials", username, getClientIP(r))
		respondWithError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	writeServiceError(w, err, tr)
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, resp *apiclient.AuthResponse) {
	lang := r.URL.Query().Get("lang")
	if lang == "" {
		lang = h.console.DefaultLanguage
	}

	sess, err := h.console.Sessions.Create(r.Context(), resp.User, resp.Token, lang, h.ttl)
	if err != nil {
		log.Printf("ERROR: Failed to create session for %s: %v", resp.User.Username, err)
		respondWithError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	token, err := middleware.IssueToken(h.jwtSecret, sess)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	database.LogAction(h.console.DB, "login", "Signed in", sess.Username, getClientIP(r))
	respondWithJSON(w, http.StatusOK, LoginResponse{
		Token:     token,
		ExpiresAt: sess.ExpiresAt,
		User:      resp.User,
		Session:   *sess,
	})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.console.client(r).Auth().Me(r.Context())
	if err != nil {
		writeServiceError(w, err, h.console.translations(r))
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"user":    user,
		"session": h.console.session(r),
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sess := h.console.session(r)
	if err := h.console.Sessions.Delete(r.Context(), sess.ID); err != nil {
		log.Printf("WARNING: Failed to delete session %s: %v", sess.ID, err)
	}
	h.console.logAction(r, "logout", "Signed out")
	respondWithJSON(w, http.StatusOK, map[string]string{"redirect": "/login"})
}

func (h *AuthHandler) SetLanguage(w http.ResponseWriter, r *http.Request) {
	var req LanguageRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	sess := h.console.session(r)
	if err := h.console.Sessions.SetLanguage(r.Context(), sess.ID, req.Language); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to update language")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{
		"language": req.Language,
		"message":  services.GetTranslations(req.Language).ItemSaved,
	})
}
