package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/aj9599/rental-billing/apiclient"
	"github.com/aj9599/rental-billing/billing"
	"github.com/aj9599/rental-billing/database"
	"github.com/aj9599/rental-billing/models"
	"github.com/aj9599/rental-billing/services"
)

type MeterReadingHandler struct {
	console   *Console
	meters    *services.MeterReadingService
	collector *services.MQTTCollector
}

func NewMeterReadingHandler(console *Console, meters *services.MeterReadingService, collector *services.MQTTCollector) *MeterReadingHandler {
	return &MeterReadingHandler{console: console, meters: meters, collector: collector}
}

type SaveBatchRequest struct {
	Month    billing.Month         `json:"month"`
	Readings []models.MeterReading `json:"readings"`
	// UseStaged builds the batch from the staged smart-meter values.
	UseStaged bool `json:"use_staged"`
}

func (h *MeterReadingHandler) List(w http.ResponseWriter, r *http.Request) {
	month, err := monthParam(r)
	if err != nil {
		writeServiceError(w, err, h.console.translations(r))
		return
	}
	page, err := h.console.caller(r).MeterReadings.List(r.Context(), month, listParams(r, "room_id"))
	if err != nil {
		writeServiceError(w, err, h.console.translations(r))
		return
	}
	respondWithJSON(w, http.StatusOK, page)
}

func (h *MeterReadingHandler) SaveBatch(w http.ResponseWriter, r *http.Request) {
	var req SaveBatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	tr := h.console.translations(r)
	caller := h.console.caller(r)

	readings := req.Readings
	if req.UseStaged {
		if req.Month.IsZero() {
			respondWithError(w, http.StatusBadRequest, "Missing month for staged readings")
			return
		}
		staged, err := database.ListStagedReadings(r.Context(), h.console.DB)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "Failed to load staged readings")
			return
		}
		readings, err = h.meters.PrepareStaged(r.Context(), caller, req.Month, staged)
		if err != nil {
			writeServiceError(w, err, tr)
			return
		}
	}
	for i := range readings {
		if readings[i].Month.IsZero() {
			readings[i].Month = req.Month
		}
	}

	res, err := h.meters.SaveBatch(r.Context(), caller, readings)
	if res != nil && req.UseStaged {
		h.clearStaged(r, res.Saved)
	}
	if err != nil {
		writeServiceError(w, err, tr)
		return
	}

	h.console.logAction(r, "meter_readings_saved",
		fmt.Sprintf("%s: %d saved, %d failed", req.Month, len(res.Saved), len(res.Failed)))
	respondWithJSON(w, http.StatusOK, res)
}

// clearStaged removes staged values that made it to the backend.
func (h *MeterReadingHandler) clearStaged(r *http.Request, saved []models.MeterReading) {
	for _, m := range saved {
		if err := database.DeleteStagedReading(r.Context(), h.console.DB, m.RoomID, m.NewValue); err != nil {
			log.Printf("[METER] WARNING: Failed to clear staged reading for room %d: %v", m.RoomID, err)
		}
	}
}

// Staged lists the values received from smart meters. With ?month= the
// readings that would be saved are included, old values taken from the
// previous month.
func (h *MeterReadingHandler) Staged(w http.ResponseWriter, r *http.Request) {
	staged, err := database.ListStagedReadings(r.Context(), h.console.DB)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load staged readings")
		return
	}

	month, err := monthParam(r)
	if err != nil {
		writeServiceError(w, err, h.console.translations(r))
		return
	}

	response := map[string]interface{}{"staged": staged}
	if !month.IsZero() && len(staged) > 0 {
		readings, err := h.meters.PrepareStaged(r.Context(), h.console.caller(r), month, staged)
		if err != nil && !errors.Is(err, apiclient.ErrNotFound) {
			writeServiceError(w, err, h.console.translations(r))
			return
		}
		response["readings"] = readings
	}
	respondWithJSON(w, http.StatusOK, response)
}

func (h *MeterReadingHandler) Status(w http.ResponseWriter, r *http.Request) {
	count, err := database.CountStagedReadings(r.Context(), h.console.DB)
	if err != nil {
		log.Printf("[METER] WARNING: Failed to count staged readings: %v", err)
	}

	status := map[string]interface{}{"mqtt_enabled": false}
	if h.collector != nil {
		status = h.collector.GetConnectionStatus()
	}
	status["staged_readings"] = count
	respondWithJSON(w, http.StatusOK, status)
}
