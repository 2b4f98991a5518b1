package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/aj9599/rental-billing/billing"
	"github.com/aj9599/rental-billing/database"
	"github.com/aj9599/rental-billing/models"
	"github.com/aj9599/rental-billing/services"
)

// AutoBillingRunner is the part of the scheduler the handler drives.
type AutoBillingRunner interface {
	Reload(ctx context.Context) error
	Scheduled() map[int]time.Time
	RunNow(ctx context.Context, id int) (*models.BulkResult, error)
}

type AutoBillingHandler struct {
	console *Console
	runner  AutoBillingRunner
	guard   *services.SubmitGuard
	tariff  billing.TariffConfig
}

// NewAutoBillingHandler accepts a nil runner when no service token is configured;
// configs can still be edited but never run.
func NewAutoBillingHandler(console *Console, runner AutoBillingRunner, guard *services.SubmitGuard, tariff billing.TariffConfig) *AutoBillingHandler {
	return &AutoBillingHandler{console: console, runner: runner, guard: guard, tariff: tariff}
}

// submit runs fn under the session's guard for form. A busy form is answered
// here and reported as handled.
func (h *AutoBillingHandler) submit(w http.ResponseWriter, r *http.Request, form string, fn func(context.Context) error) (handled bool, err error) {
	err = h.guard.Do(r.Context(), services.SubmitKey(h.console.session(r).ID, form), fn)
	if errors.Is(err, services.ErrSubmitInProgress) {
		writeServiceError(w, err, h.console.translations(r))
		return true, err
	}
	return false, err
}

type autoBillingView struct {
	models.AutoBillingConfig
	NextRun *time.Time `json:"next_run"`
}

func (h *AutoBillingHandler) List(w http.ResponseWriter, r *http.Request) {
	configs, err := database.ListAutoBillingConfigs(r.Context(), h.console.DB, false)
	if err != nil {
		log.Printf("ERROR: Failed to query auto billing configs: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Database error")
		return
	}

	var scheduled map[int]time.Time
	if h.runner != nil {
		scheduled = h.runner.Scheduled()
	}

	views := make([]autoBillingView, 0, len(configs))
	for _, cfg := range configs {
		view := autoBillingView{AutoBillingConfig: cfg}
		if next, ok := scheduled[cfg.ID]; ok {
			view.NextRun = &next
		}
		views = append(views, view)
	}
	respondWithJSON(w, http.StatusOK, views)
}

func (h *AutoBillingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var cfg models.AutoBillingConfig
	if !h.decodeConfig(w, r, &cfg) {
		return
	}

	handled, err := h.submit(w, r, services.FormAutoBillingCreate, func(ctx context.Context) error {
		return database.CreateAutoBillingConfig(ctx, h.console.DB, &cfg)
	})
	if handled {
		return
	}
	if err != nil {
		log.Printf("ERROR: Failed to create auto billing config: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to create config")
		return
	}

	log.Printf("SUCCESS: Created auto billing config ID %d (%s, rooms: %v, schedule: %s)", cfg.ID, cfg.Name, cfg.RoomIDs, cfg.Schedule)
	h.console.logAction(r, "auto_billing_created", fmt.Sprintf("Config %d %q", cfg.ID, cfg.Name))
	h.reload(r)
	respondWithJSON(w, http.StatusCreated, cfg)
}

func (h *AutoBillingHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid ID")
		return
	}

	var cfg models.AutoBillingConfig
	if !h.decodeConfig(w, r, &cfg) {
		return
	}
	cfg.ID = int(id)

	handled, err := h.submit(w, r, services.FormAutoBillingUpdate, func(ctx context.Context) error {
		return database.UpdateAutoBillingConfig(ctx, h.console.DB, &cfg)
	})
	if handled {
		return
	}
	if err != nil {
		if errors.Is(err, database.ErrConfigNotFound) {
			respondWithError(w, http.StatusNotFound, "Config not found")
			return
		}
		log.Printf("ERROR: Failed to update auto billing config %d: %v", id, err)
		respondWithError(w, http.StatusInternalServerError, "Failed to update config")
		return
	}

	h.console.logAction(r, "auto_billing_updated", fmt.Sprintf("Config %d %q", cfg.ID, cfg.Name))
	h.reload(r)
	respondWithJSON(w, http.StatusOK, cfg)
}

func (h *AutoBillingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid ID")
		return
	}
	if !confirmed(r) {
		writeServiceError(w, services.ErrConfirmationRequired, h.console.translations(r))
		return
	}

	handled, err := h.submit(w, r, services.FormAutoBillingDelete, func(ctx context.Context) error {
		return database.DeleteAutoBillingConfig(ctx, h.console.DB, int(id))
	})
	if handled {
		return
	}
	if err != nil {
		if errors.Is(err, database.ErrConfigNotFound) {
			respondWithError(w, http.StatusNotFound, "Config not found")
			return
		}
		log.Printf("ERROR: Failed to delete auto billing config %d: %v", id, err)
		respondWithError(w, http.StatusInternalServerError, "Failed to delete config")
		return
	}

	h.console.logAction(r, "auto_billing_deleted", fmt.Sprintf("Config %d", id))
	h.reload(r)
	w.WriteHeader(http.StatusNoContent)
}

// Run bills the config's rooms for the previous month right away.
func (h *AutoBillingHandler) Run(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid ID")
		return
	}
	if h.runner == nil {
		respondWithError(w, http.StatusServiceUnavailable, "Auto billing is not configured")
		return
	}

	var res *models.BulkResult
	handled, err := h.submit(w, r, services.FormAutoBillingRun, func(ctx context.Context) error {
		var err error
		res, err = h.runner.RunNow(ctx, int(id))
		return err
	})
	if handled {
		return
	}
	if err != nil {
		if errors.Is(err, database.ErrConfigNotFound) {
			respondWithError(w, http.StatusNotFound, "Config not found")
			return
		}
		writeServiceError(w, err, h.console.translations(r))
		return
	}

	h.console.logAction(r, "auto_billing_run", fmt.Sprintf("Config %d created %d invoices", id, res.Created))
	respondWithJSON(w, http.StatusOK, res)
}

func (h *AutoBillingHandler) decodeConfig(w http.ResponseWriter, r *http.Request, cfg *models.AutoBillingConfig) bool {
	if err := decodeAndValidate(r, cfg); err != nil {
		writeBadRequest(w, err)
		return false
	}
	if err := services.ValidateSchedule(cfg.Schedule); err != nil {
		respondWithJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":  "Invalid schedule",
			"fields": []map[string]interface{}{{"field": "schedule", "messages": []string{err.Error()}}},
		})
		return false
	}
	if cfg.Tariff == (billing.TariffConfig{}) {
		cfg.Tariff = h.tariff
	}
	return true
}

func (h *AutoBillingHandler) reload(r *http.Request) {
	if h.runner == nil {
		return
	}
	if err := h.runner.Reload(r.Context()); err != nil {
		log.Printf("[AUTO-BILLING] WARNING: Reload after change failed: %v", err)
	}
}
