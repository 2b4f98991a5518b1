package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/aj9599/rental-billing/apiclient"
	"github.com/aj9599/rental-billing/billing"
	"github.com/aj9599/rental-billing/database"
	"github.com/aj9599/rental-billing/middleware"
	"github.com/aj9599/rental-billing/services"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Console holds what every handler needs to act for the signed-in user.
type Console struct {
	DB              *sql.DB
	API             *apiclient.Client
	Sessions        *database.SessionStore
	DefaultLanguage string
}

// session returns the request's session. The auth middleware guarantees one
// on every /api route it wraps.
func (c *Console) session(r *http.Request) *database.Session {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		return &database.Session{Language: c.DefaultLanguage}
	}
	return sess
}

func (c *Console) language(r *http.Request) string {
	if lang := r.URL.Query().Get("lang"); lang != "" {
		return lang
	}
	if sess := c.session(r); sess.Language != "" {
		return sess.Language
	}
	return c.DefaultLanguage
}

func (c *Console) translations(r *http.Request) services.Translations {
	return services.GetTranslations(c.language(r))
}

// client is the backend client bound to the session's bearer token.
func (c *Console) client(r *http.Request) *apiclient.Client {
	return c.API.WithTokens(c.Sessions.Tokens(c.session(r).ID))
}

func (c *Console) caller(r *http.Request) services.Caller {
	sess := c.session(r)
	return services.CallerFor(sess.ID, sess.Username, c.language(r), c.client(r))
}

func (c *Console) logAction(r *http.Request, action, details string) {
	database.LogAction(c.DB, action, details, c.session(r).Username, getClientIP(r))
}

func respondWithJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("ERROR: Failed to encode response: %v", err)
	}
}

func respondWithError(w http.ResponseWriter, status int, message string) {
	respondWithJSON(w, status, map[string]string{"error": message})
}

// decodeAndValidate reads a JSON body into v and runs its validate tags.
func decodeAndValidate(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if err := validate.Struct(v); err != nil {
		return err
	}
	return nil
}

// decodeJSON reads a body that the services validate themselves.
func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// writeBadRequest answers a body that failed decoding or validation.
func writeBadRequest(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]apiclient.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, apiclient.FieldError{
				Field:    fe.Field(),
				Messages: []string{fmt.Sprintf("failed on %s", fe.Tag())},
			})
		}
		respondWithJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":  "Validation failed",
			"fields": fields,
		})
		return
	}
	respondWithError(w, http.StatusBadRequest, err.Error())
}

// writeServiceError maps the error taxonomy to a status code. A canceled
// request gets no body; the browser has already gone away.
func writeServiceError(w http.ResponseWriter, err error, tr services.Translations) {
	var apiErr *apiclient.APIError

	switch {
	case apiclient.IsCanceled(err):
		return
	case errors.Is(err, services.ErrConfirmationRequired):
		respondWithJSON(w, http.StatusPreconditionRequired, map[string]string{
			"error":   tr.ConfirmationNeeded,
			"confirm": tr.ConfirmDelete,
		})
	case errors.Is(err, services.ErrSubmitInProgress):
		respondWithError(w, http.StatusConflict, tr.SubmitInProgress)
	case errors.Is(err, apiclient.ErrUnauthorized):
		respondWithJSON(w, http.StatusUnauthorized, map[string]string{
			"error":    tr.Errors.Unauthorized,
			"redirect": "/login",
		})
	case errors.Is(err, apiclient.ErrForbidden):
		respondWithJSON(w, http.StatusForbidden, map[string]string{
			"error":    tr.Errors.Forbidden,
			"redirect": "/403",
		})
	case isInputError(err):
		respondWithError(w, http.StatusBadRequest, services.ErrorText(err, tr))
	case errors.As(err, &apiErr) && errors.Is(err, apiclient.ErrValidation):
		respondWithJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":  apiErr.Message,
			"fields": apiErr.FieldErrors,
		})
	case errors.Is(err, apiclient.ErrNotFound):
		respondWithError(w, http.StatusNotFound, services.ErrorText(err, tr))
	case errors.Is(err, apiclient.ErrTimeout):
		respondWithError(w, http.StatusGatewayTimeout, services.ErrorText(err, tr))
	default:
		log.Printf("ERROR: %v", err)
		respondWithError(w, http.StatusBadGateway, services.ErrorText(err, tr))
	}
}

func isInputError(err error) bool {
	for _, target := range []error{
		billing.ErrNoRoomSelected,
		billing.ErrNoRoomsSelected,
		billing.ErrInvalidPayment,
		billing.ErrPaymentExceedsBalance,
		billing.ErrInvalidCharge,
		billing.ErrMeterRollback,
		billing.ErrInvalidMonth,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}

func confirmed(r *http.Request) bool {
	ok, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	return ok
}

// listParams reads page, per_page and search; any other listed keys become filters.
func listParams(r *http.Request, filters ...string) apiclient.ListParams {
	q := r.URL.Query()
	p := apiclient.ListParams{Search: q.Get("search")}
	p.Page, _ = strconv.Atoi(q.Get("page"))
	p.PerPage, _ = strconv.Atoi(q.Get("per_page"))
	for _, key := range filters {
		if v := q.Get(key); v != "" {
			if p.Filters == nil {
				p.Filters = map[string]string{}
			}
			p.Filters[key] = v
		}
	}
	return p
}

// monthParam parses ?month=YYYY-MM; an empty value yields the zero month.
func monthParam(r *http.Request) (billing.Month, error) {
	raw := r.URL.Query().Get("month")
	if raw == "" {
		return billing.Month{}, nil
	}
	return billing.ParseMonth(raw)
}

func getClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
