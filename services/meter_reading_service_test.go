package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/aj9599/rental-billing/apiclient"
	"github.com/aj9599/rental-billing/billing"
	"github.com/aj9599/rental-billing/models"
	"github.com/aj9599/rental-billing/notify"
)

var october = billing.Month{Year: 2025, Month: time.October}

func newTestMeterService(rec *recordingNotifier) (*MeterReadingService, *int) {
	svc := NewMeterReadingService(rec, NewSubmitGuard(), 0)
	waits := 0
	svc.wait = func(ctx context.Context, d time.Duration) error {
		waits++
		return ctx.Err()
	}
	return svc, &waits
}

func readingsFor(n int) []models.MeterReading {
	out := make([]models.MeterReading, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, models.MeterReading{
			RoomID:   int64(i),
			RoomName: fmt.Sprintf("P10%d", i),
			Month:    october,
			OldValue: 1000,
			NewValue: 1100 + int64(i),
		})
	}
	return out
}

func TestMeterReadingService_AllSaved(t *testing.T) {
	rec := &recordingNotifier{}
	svc, waits := newTestMeterService(rec)
	api := &fakeMeterReadings{}

	res, err := svc.SaveBatch(context.Background(), testCaller(nil, api), readingsFor(4))
	if err != nil {
		t.Fatalf("SaveBatch: %v", err)
	}
	if len(res.Saved) != 4 || len(res.Failed) != 0 {
		t.Fatalf("Expected 4 saved, got %d saved %d failed", len(res.Saved), len(res.Failed))
	}
	if res.Saved[0].Usage != 101 {
		t.Errorf("Expected usage to be filled in, got %d", res.Saved[0].Usage)
	}
	if *waits != 3 {
		t.Errorf("Expected a pause between each of the 4 calls, got %d", *waits)
	}
	ev := rec.last()
	if ev.Type != notify.TypeSuccess || ev.Title != fmt.Sprintf(GetTranslations("vi").ReadingsSaved, 4) {
		t.Errorf("Unexpected toast: %+v", ev)
	}
}

func TestMeterReadingService_PartialFailure(t *testing.T) {
	rec := &recordingNotifier{}
	svc, _ := newTestMeterService(rec)
	api := &fakeMeterReadings{failFor: map[int64]error{
		2: &apiclient.APIError{StatusCode: 422, Message: "Chỉ số không hợp lệ"},
		4: apiclient.ErrNetwork,
	}}

	res, err := svc.SaveBatch(context.Background(), testCaller(nil, api), readingsFor(5))
	if err != nil {
		t.Fatalf("SaveBatch: %v", err)
	}
	if len(res.Saved) != 3 || len(res.Failed) != 2 {
		t.Fatalf("Expected 3 saved and 2 failed, got %d and %d", len(res.Saved), len(res.Failed))
	}
	if len(api.saved) != 3 {
		t.Errorf("Saved readings must stay saved, backend has %d", len(api.saved))
	}

	ev := rec.last()
	if ev.Type != notify.TypeWarning {
		t.Errorf("Expected warning, got %s", ev.Type)
	}
	if !strings.Contains(ev.Title, "P102, P104") {
		t.Errorf("Expected failing rooms in title, got %q", ev.Title)
	}
	if ev.Message != "Chỉ số không hợp lệ" {
		t.Errorf("Expected first failure message, got %q", ev.Message)
	}
}

func TestMeterReadingService_SummaryListsAtMostThreeRooms(t *testing.T) {
	rec := &recordingNotifier{}
	svc, _ := newTestMeterService(rec)
	fail := map[int64]error{}
	for i := int64(1); i <= 5; i++ {
		fail[i] = apiclient.ErrNetwork
	}
	api := &fakeMeterReadings{failFor: fail}

	if _, err := svc.SaveBatch(context.Background(), testCaller(nil, api), readingsFor(5)); err != nil {
		t.Fatalf("SaveBatch: %v", err)
	}

	ev := rec.last()
	if ev.Type != notify.TypeError {
		t.Errorf("Expected error when nothing was saved, got %s", ev.Type)
	}
	if !strings.Contains(ev.Title, "P101, P102, P103 và 2 phòng khác") {
		t.Errorf("Unexpected title %q", ev.Title)
	}
	if strings.Contains(ev.Title, "P104") {
		t.Errorf("Only three rooms should be named: %q", ev.Title)
	}
}

func TestMeterReadingService_RollbackRejectedLocally(t *testing.T) {
	rec := &recordingNotifier{}
	svc, _ := newTestMeterService(rec)
	api := &fakeMeterReadings{}

	readings := readingsFor(2)
	readings[1].NewValue = 900

	res, err := svc.SaveBatch(context.Background(), testCaller(nil, api), readings)
	if err != nil {
		t.Fatalf("SaveBatch: %v", err)
	}
	if api.calls != 1 {
		t.Errorf("Rolled back reading must not be sent, got %d calls", api.calls)
	}
	if len(res.Failed) != 1 || res.Failed[0].Error != GetTranslations("vi").MeterRollback {
		t.Errorf("Unexpected failures: %+v", res.Failed)
	}
}

func TestMeterReadingService_StopsOnCancel(t *testing.T) {
	rec := &recordingNotifier{}
	svc := NewMeterReadingService(rec, NewSubmitGuard(), time.Millisecond)
	waits := 0
	svc.wait = func(ctx context.Context, d time.Duration) error {
		waits++
		if waits == 2 {
			return context.Canceled
		}
		return nil
	}
	api := &fakeMeterReadings{}

	res, err := svc.SaveBatch(context.Background(), testCaller(nil, api), readingsFor(5))
	if !errors.Is(err, apiclient.ErrCanceled) {
		t.Fatalf("Expected ErrCanceled, got %v", err)
	}
	if !res.Canceled || len(res.Saved) != 2 {
		t.Errorf("Expected 2 saved before cancel, got %+v", res)
	}
	if n := len(rec.all()); n != 0 {
		t.Errorf("Cancel must be silent, got %d toasts", n)
	}
}

func TestMeterReadingService_StopsOnUnauthorized(t *testing.T) {
	rec := &recordingNotifier{}
	svc, _ := newTestMeterService(rec)
	api := &fakeMeterReadings{failFor: map[int64]error{1: apiclient.ErrUnauthorized}}

	_, err := svc.SaveBatch(context.Background(), testCaller(nil, api), readingsFor(3))
	if !errors.Is(err, apiclient.ErrUnauthorized) {
		t.Fatalf("Expected ErrUnauthorized, got %v", err)
	}
	if api.calls != 1 {
		t.Errorf("Expected batch to stop after the first call, got %d", api.calls)
	}
	if ev := rec.last(); ev.Message != apiclient.DefaultMessages.Unauthorized {
		t.Errorf("Unexpected toast: %+v", ev)
	}
}

func TestMeterReadingService_EmptyBatch(t *testing.T) {
	rec := &recordingNotifier{}
	svc, _ := newTestMeterService(rec)

	_, err := svc.SaveBatch(context.Background(), testCaller(nil, &fakeMeterReadings{}), nil)
	if !errors.Is(err, billing.ErrNoRoomsSelected) {
		t.Errorf("Expected ErrNoRoomsSelected, got %v", err)
	}
}

func TestMeterReadingService_PrepareStaged(t *testing.T) {
	svc, _ := newTestMeterService(&recordingNotifier{})
	api := &fakeMeterReadings{previous: []models.MeterReading{
		{RoomID: 1, RoomName: "P101", Month: october.Prev(), OldValue: 1100, NewValue: 1200},
	}}
	staged := []models.StagedMeterReading{
		{RoomID: 1, Value: 1350},
		{RoomID: 2, Value: 40},
	}

	readings, err := svc.PrepareStaged(context.Background(), testCaller(nil, api), october, staged)
	if err != nil {
		t.Fatalf("PrepareStaged: %v", err)
	}
	if len(readings) != 2 {
		t.Fatalf("Expected 2 readings, got %d", len(readings))
	}
	r := readings[0]
	if r.OldValue != 1200 || r.NewValue != 1350 || r.Usage != 150 || r.RoomName != "P101" {
		t.Errorf("Unexpected reading: %+v", r)
	}
	if readings[1].OldValue != 0 || readings[1].Usage != 40 {
		t.Errorf("Room without history should start at 0: %+v", readings[1])
	}
}
