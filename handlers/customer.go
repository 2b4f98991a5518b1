package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/aj9599/rental-billing/models"
	"github.com/aj9599/rental-billing/notify"
	"github.com/aj9599/rental-billing/services"
)

// CustomerHandler serves the tenant self-service portal.
type CustomerHandler struct {
	console  *Console
	notifier notify.Notifier
	guard    *services.SubmitGuard
}

func NewCustomerHandler(console *Console, notifier notify.Notifier, guard *services.SubmitGuard) *CustomerHandler {
	return &CustomerHandler{console: console, notifier: notifier, guard: guard}
}

func (h *CustomerHandler) Profile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.console.client(r).Customer().Profile(r.Context())
	if err != nil {
		writeServiceError(w, err, h.console.translations(r))
		return
	}
	respondWithJSON(w, http.StatusOK, profile)
}

func (h *CustomerHandler) Invoices(w http.ResponseWriter, r *http.Request) {
	page, err := h.console.client(r).Customer().Invoices(r.Context(), listParams(r, "status", "month"))
	if err != nil {
		writeServiceError(w, err, h.console.translations(r))
		return
	}
	now := time.Now()
	for i := range page.Data {
		page.Data[i].DisplayStatus = page.Data[i].Invoice.DisplayStatus(now)
	}
	respondWithJSON(w, http.StatusOK, page)
}

func (h *CustomerHandler) MaintenanceRequests(w http.ResponseWriter, r *http.Request) {
	page, err := h.console.client(r).Customer().MaintenanceRequests(r.Context(), listParams(r, "status"))
	if err != nil {
		writeServiceError(w, err, h.console.translations(r))
		return
	}
	respondWithJSON(w, http.StatusOK, page)
}

func (h *CustomerHandler) RequestMaintenance(w http.ResponseWriter, r *http.Request) {
	var req models.Maintenance
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		respondWithError(w, http.StatusBadRequest, "Title is required")
		return
	}

	tr := h.console.translations(r)
	sessionID := h.console.session(r).ID
	var created *models.Maintenance
	err := h.guard.Do(r.Context(), services.SubmitKey(sessionID, services.FormMaintenanceRequest), func(ctx context.Context) error {
		var err error
		created, err = h.console.client(r).Customer().RequestMaintenance(ctx, req)
		return err
	})
	if err != nil {
		if ev, ok := services.FromError(sessionID, tr.ActionFailed, err, tr); ok {
			h.notifier.Notify(ev)
		}
		writeServiceError(w, err, tr)
		return
	}
	h.notifier.Notify(notify.Success(sessionID, tr.ItemSaved, req.Title))
	respondWithJSON(w, http.StatusCreated, created)
}
