package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/aj9599/rental-billing/billing"
	"github.com/aj9599/rental-billing/crypto"
	"github.com/aj9599/rental-billing/models"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := InitDB(":memory:")
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := RunMigrations(db); err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}
	return db
}

func newTestStore(t *testing.T) *SessionStore {
	t.Helper()
	key, err := crypto.GetEncryptionKey("test-secret")
	if err != nil {
		t.Fatalf("GetEncryptionKey: %v", err)
	}
	return NewSessionStore(newTestDB(t), key)
}

func TestRunMigrations_Idempotent(t *testing.T) {
	db := newTestDB(t)
	if err := RunMigrations(db); err != nil {
		t.Fatalf("Second run failed: %v", err)
	}
}

func TestSessionStore_Lifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	sess, err := store.Create(ctx, models.User{ID: 7, Username: "quanly", Role: "admin"}, "backend-token", "vi", time.Hour)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := store.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Username != "quanly" || got.Role != "admin" || got.Language != "vi" {
		t.Errorf("Unexpected session %+v", got)
	}

	var stored string
	store.db.QueryRow(`SELECT token_enc FROM sessions WHERE id = ?`, sess.ID).Scan(&stored)
	if stored == "backend-token" {
		t.Error("Token must be stored encrypted")
	}

	tokens := store.Tokens(sess.ID)
	if tok, err := tokens.Token(ctx); err != nil || tok != "backend-token" {
		t.Fatalf("Expected decrypted token, got %q %v", tok, err)
	}

	if err := tokens.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if tok, err := tokens.Token(ctx); err != nil || tok != "" {
		t.Errorf("Expected empty token after clear, got %q %v", tok, err)
	}

	if err := store.Delete(ctx, sess.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(ctx, sess.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestSessionStore_Expiry(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }
	sess, err := store.Create(ctx, models.User{ID: 1, Username: "a", Role: "admin"}, "t", "en", time.Minute)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	store.now = func() time.Time { return base.Add(2 * time.Minute) }
	if _, err := store.Get(ctx, sess.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected expired session to be rejected, got %v", err)
	}

	n, err := store.PurgeExpired(ctx)
	if err != nil || n != 1 {
		t.Errorf("Expected 1 purged session, got %d %v", n, err)
	}
}

func TestAuditLog(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	LogAction(db, "invoice_created", "Invoice 12 for room 3", "quanly", "10.0.0.1")
	LogAction(db, "invoice_deleted", "Invoice 12", "quanly", "10.0.0.1")

	logs, err := ListLogs(ctx, db, 10)
	if err != nil {
		t.Fatalf("ListLogs: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("Expected 2 logs, got %d", len(logs))
	}
	if logs[0].Action != "invoice_deleted" {
		t.Errorf("Expected newest first, got %s", logs[0].Action)
	}
}

func TestStagedReadings_KeepsLatestPerRoom(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	t0 := time.Date(2024, 6, 30, 8, 0, 0, 0, time.UTC)

	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	must(StageReading(ctx, db, models.StagedMeterReading{RoomID: 1, Value: 1200, Source: "mqtt", ReadAt: t0}))
	must(StageReading(ctx, db, models.StagedMeterReading{RoomID: 1, Value: 1250, Source: "mqtt", ReadAt: t0.Add(time.Hour)}))
	must(StageReading(ctx, db, models.StagedMeterReading{RoomID: 1, Value: 1100, Source: "mqtt", ReadAt: t0.Add(-time.Hour)}))
	must(StageReading(ctx, db, models.StagedMeterReading{RoomID: 2, Value: 800, Source: "mqtt", ReadAt: t0}))

	readings, err := ListStagedReadings(ctx, db)
	if err != nil {
		t.Fatalf("ListStagedReadings: %v", err)
	}
	if len(readings) != 2 {
		t.Fatalf("Expected 2 rooms, got %d", len(readings))
	}
	if readings[0].Value != 1250 {
		t.Errorf("Expected newest value 1250 for room 1, got %d", readings[0].Value)
	}

	must(DeleteStagedReading(ctx, db, 1, 1250))
	if n, _ := CountStagedReadings(ctx, db); n != 1 {
		t.Errorf("Expected 1 staged reading, got %d", n)
	}
}

func TestDeleteStagedReading_KeepsNewerValue(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	t0 := time.Date(2024, 6, 30, 8, 0, 0, 0, time.UTC)

	if err := StageReading(ctx, db, models.StagedMeterReading{RoomID: 1, Value: 100, Source: "mqtt", ReadAt: t0}); err != nil {
		t.Fatal(err)
	}
	// The meter reports again while the batch built from 100 is still saving.
	if err := StageReading(ctx, db, models.StagedMeterReading{RoomID: 1, Value: 120, Source: "mqtt", ReadAt: t0.Add(time.Minute)}); err != nil {
		t.Fatal(err)
	}
	if err := DeleteStagedReading(ctx, db, 1, 100); err != nil {
		t.Fatalf("DeleteStagedReading: %v", err)
	}

	readings, err := ListStagedReadings(ctx, db)
	if err != nil {
		t.Fatalf("ListStagedReadings: %v", err)
	}
	if len(readings) != 1 || readings[0].Value != 120 {
		t.Errorf("Expected the newer value 120 to stay staged, got %+v", readings)
	}

	if err := DeleteStagedReading(ctx, db, 1, 120); err != nil {
		t.Fatalf("DeleteStagedReading: %v", err)
	}
	if n, _ := CountStagedReadings(ctx, db); n != 0 {
		t.Errorf("Expected staging table empty, got %d", n)
	}
}

func TestAutoBillingConfigs(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	cfg := &models.AutoBillingConfig{
		Name:          "Monthly A block",
		RoomIDs:       []int64{1, 2, 3},
		Schedule:      "0 6 1 * *",
		Tariff:        billing.DefaultTariff(),
		CommonCharges: []billing.AdHocCharge{{ID: "c1", Description: "Vệ sinh chung", Amount: 20000}},
		IsActive:      true,
	}
	if err := CreateAutoBillingConfig(ctx, db, cfg); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if cfg.ID == 0 {
		t.Fatal("Expected ID to be assigned")
	}

	runAt := time.Date(2024, 7, 1, 6, 0, 0, 0, time.UTC)
	if err := RecordAutoBillingRun(ctx, db, cfg.ID, runAt, errors.New("backend down")); err != nil {
		t.Fatalf("RecordAutoBillingRun: %v", err)
	}

	got, err := GetAutoBillingConfig(ctx, db, cfg.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.RoomIDs) != 3 || got.Tariff != billing.DefaultTariff() || len(got.CommonCharges) != 1 {
		t.Errorf("Unexpected config %+v", got)
	}
	if got.LastRun == nil || !got.LastRun.Equal(runAt) || got.LastError != "backend down" {
		t.Errorf("Run not recorded: %+v %q", got.LastRun, got.LastError)
	}

	active, err := ListAutoBillingConfigs(ctx, db, true)
	if err != nil || len(active) != 1 {
		t.Fatalf("Expected 1 active config, got %d %v", len(active), err)
	}

	if err := DeleteAutoBillingConfig(ctx, db, cfg.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := GetAutoBillingConfig(ctx, db, cfg.ID); !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("Expected ErrConfigNotFound, got %v", err)
	}
}
