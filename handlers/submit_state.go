package handlers

import (
	"net/http"

	"github.com/aj9599/rental-billing/services"
)

type SubmitStateHandler struct {
	console *Console
	guard   *services.SubmitGuard
}

func NewSubmitStateHandler(console *Console, guard *services.SubmitGuard) *SubmitStateHandler {
	return &SubmitStateHandler{console: console, guard: guard}
}

// Get reports whether the session's form is mid-submit, so a reloaded page
// can keep its button disabled.
func (h *SubmitStateHandler) Get(w http.ResponseWriter, r *http.Request) {
	form := r.URL.Query().Get("form")
	if form == "" {
		respondWithError(w, http.StatusBadRequest, "form is required")
		return
	}
	respondWithJSON(w, http.StatusOK, h.guard.State(services.SubmitKey(h.console.session(r).ID, form)))
}
