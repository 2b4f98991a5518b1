package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/aj9599/rental-billing/database"
	"github.com/aj9599/rental-billing/models"
	"github.com/aj9599/rental-billing/services"
)

func (env *testEnv) mountMeters() {
	svc := services.NewMeterReadingService(env.notifier, services.NewSubmitGuard(), 0)
	h := NewMeterReadingHandler(env.console, svc, nil)
	env.router.HandleFunc("/api/meter-readings/batch", h.SaveBatch).Methods("POST")
	env.router.HandleFunc("/api/meter-readings/staged", h.Staged).Methods("GET")
	env.router.HandleFunc("/api/meters/status", h.Status).Methods("GET")
}

func echoReading(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	var m models.MeterReading
	json.Unmarshal(body, &m)
	m.ID = m.RoomID * 100
	out, _ := json.Marshal(m)
	jsonReply(http.StatusCreated, string(out))(w, r)
}

func TestMeterReadingHandler_SaveStagedBatch(t *testing.T) {
	env := newTestEnv(t)
	env.mountMeters()

	ctx := context.Background()
	for _, st := range []models.StagedMeterReading{
		{RoomID: 1, Value: 1250, Source: "mqtt", ReadAt: time.Now()},
		{RoomID: 2, Value: 900, Source: "mqtt", ReadAt: time.Now()},
	} {
		if err := database.StageReading(ctx, env.console.DB, st); err != nil {
			t.Fatalf("StageReading: %v", err)
		}
	}

	env.backend.handle("GET /admin/so-dien", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("month"); got != "2025-09" {
			t.Errorf("Expected previous month, got %q", got)
		}
		jsonReply(http.StatusOK, `{"data":[`+
			`{"room_id":1,"room_name":"P101","month":"2025-09","old_value":1000,"new_value":1100},`+
			`{"room_id":2,"room_name":"P102","month":"2025-09","old_value":800,"new_value":950}],`+
			`"current_page":1,"per_page":1000,"total":2,"last_page":1}`)(w, r)
	})
	env.backend.handle("POST /admin/so-dien", echoReading)

	rec := env.do(t, "POST", "/api/meter-readings/batch", `{"month":"2025-10","use_staged":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var res services.BatchResult
	decodeResponse(t, rec, &res)
	if len(res.Saved) != 1 || res.Saved[0].RoomID != 1 || res.Saved[0].Usage != 150 {
		t.Errorf("Expected room 1 saved with 150 kWh, got %+v", res.Saved)
	}
	if len(res.Failed) != 1 || res.Failed[0].RoomID != 2 {
		t.Errorf("Expected room 2 to fail on rollback, got %+v", res.Failed)
	}

	// Only the saved room leaves the staging table.
	left, err := database.ListStagedReadings(ctx, env.console.DB)
	if err != nil {
		t.Fatalf("ListStagedReadings: %v", err)
	}
	if len(left) != 1 || left[0].RoomID != 2 {
		t.Errorf("Expected room 2 to stay staged, got %+v", left)
	}

	events := env.notifier.all()
	if len(events) != 1 || events[0].Type != "warning" {
		t.Errorf("Expected one partial-success warning, got %+v", events)
	}
}

func TestMeterReadingHandler_StagedNeedsMonth(t *testing.T) {
	env := newTestEnv(t)
	env.mountMeters()

	rec := env.do(t, "POST", "/api/meter-readings/batch", `{"use_staged":true}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
	if calls := env.backend.calls(); len(calls) != 0 {
		t.Errorf("Expected no backend call, got %v", calls)
	}
}

func TestMeterReadingHandler_EmptyBatch(t *testing.T) {
	env := newTestEnv(t)
	env.mountMeters()

	rec := env.do(t, "POST", "/api/meter-readings/batch", `{"month":"2025-10","readings":[]}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestMeterReadingHandler_StatusWithoutBroker(t *testing.T) {
	env := newTestEnv(t)
	env.mountMeters()

	rec := env.do(t, "GET", "/api/meters/status", "")
	var status map[string]interface{}
	decodeResponse(t, rec, &status)
	if status["mqtt_enabled"] != false {
		t.Errorf("Expected MQTT disabled, got %v", status)
	}
	if status["staged_readings"] != float64(0) {
		t.Errorf("Expected no staged readings, got %v", status["staged_readings"])
	}
}
