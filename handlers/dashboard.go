package handlers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aj9599/rental-billing/apiclient"
	"github.com/aj9599/rental-billing/billing"
	"github.com/aj9599/rental-billing/database"
	"github.com/aj9599/rental-billing/models"
)

type DashboardHandler struct {
	console *Console
	now     func() time.Time
}

func NewDashboardHandler(console *Console) *DashboardHandler {
	return &DashboardHandler{console: console, now: time.Now}
}

// GetStats gathers the landing page numbers. The backend calls run in
// parallel; any failure fails the whole card set.
func (h *DashboardHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	month, err := monthParam(r)
	if err != nil {
		writeServiceError(w, err, h.console.translations(r))
		return
	}
	if month.IsZero() {
		month = billing.MonthOf(h.now())
	}

	client := h.console.client(r)
	var stats models.DashboardStats
	g, ctx := errgroup.WithContext(r.Context())

	g.Go(func() error {
		s, err := client.Invoices().Statistics(ctx, month)
		if err != nil {
			return err
		}
		stats.Invoices = *s
		return nil
	})
	g.Go(func() error {
		page, err := client.Rooms().List(ctx, apiclient.ListParams{PerPage: 1})
		if err != nil {
			return err
		}
		stats.TotalRooms = page.Total
		return nil
	})
	g.Go(func() error {
		page, err := client.Violations().List(ctx, apiclient.ListParams{
			PerPage: 1,
			Filters: map[string]string{"status": string(models.ViolationPending)},
		})
		if err != nil {
			return err
		}
		stats.PendingViolations = page.Total
		return nil
	})
	g.Go(func() error {
		n, err := database.CountStagedReadings(ctx, h.console.DB)
		if err != nil {
			log.Printf("WARNING: Failed to count staged readings: %v", err)
			return nil
		}
		stats.StagedReadings = n
		return nil
	})

	if err := g.Wait(); err != nil {
		writeServiceError(w, err, h.console.translations(r))
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}

func (h *DashboardHandler) GetLogs(w http.ResponseWriter, r *http.Request) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 100
	}

	logs, err := database.ListLogs(r.Context(), h.console.DB, limit)
	if err != nil {
		log.Printf("ERROR: Failed to query admin logs: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Database error")
		return
	}
	respondWithJSON(w, http.StatusOK, logs)
}
