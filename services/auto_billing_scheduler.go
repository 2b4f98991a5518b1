package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/aj9599/rental-billing/apiclient"
	"github.com/aj9599/rental-billing/billing"
	"github.com/aj9599/rental-billing/database"
	"github.com/aj9599/rental-billing/models"
	"github.com/aj9599/rental-billing/notify"
)

const autoBillingUser = "auto-billing"

// AutoBillingScheduler runs the stored bulk billing configurations on their
// cron schedules with a service account token. Each run bills the month that
// ended before it.
type AutoBillingScheduler struct {
	db       *sql.DB
	api      *apiclient.Client
	invoices *InvoiceService
	notifier notify.Notifier
	language string
	cron     *cron.Cron
	mu       sync.Mutex
	entries  map[int]cron.EntryID
	now      func() time.Time
}

func NewAutoBillingScheduler(db *sql.DB, api *apiclient.Client, notifier notify.Notifier, tariff billing.TariffConfig, language string) *AutoBillingScheduler {
	return &AutoBillingScheduler{
		db:       db,
		api:      api,
		invoices: NewInvoiceService(notify.Discard, NewSubmitGuard(), tariff),
		notifier: notifier,
		language: language,
		cron:     cron.New(),
		entries:  make(map[int]cron.EntryID),
		now:      time.Now,
	}
}

// ValidateSchedule checks a standard five-field cron expression.
func ValidateSchedule(spec string) error {
	_, err := cron.ParseStandard(spec)
	return err
}

func (s *AutoBillingScheduler) Start() {
	log.Println("[AUTO-BILLING] Scheduler started")
	if err := s.Reload(context.Background()); err != nil {
		log.Printf("[AUTO-BILLING] ERROR: Failed to load configs: %v", err)
	}
	s.cron.Start()
}

func (s *AutoBillingScheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Println("[AUTO-BILLING] Scheduler stopped")
}

// Reload replaces all scheduled entries with the active configs.
func (s *AutoBillingScheduler) Reload(ctx context.Context) error {
	configs, err := database.ListAutoBillingConfigs(ctx, s.db, true)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, entry := range s.entries {
		s.cron.Remove(entry)
		delete(s.entries, id)
	}

	for _, cfg := range configs {
		cfgID := cfg.ID
		entry, err := s.cron.AddFunc(cfg.Schedule, func() { s.runScheduled(cfgID) })
		if err != nil {
			log.Printf("[AUTO-BILLING] WARNING: Config %d has an invalid schedule %q: %v", cfg.ID, cfg.Schedule, err)
			continue
		}
		s.entries[cfg.ID] = entry
	}
	log.Printf("[AUTO-BILLING] %d configs scheduled", len(s.entries))
	return nil
}

// Scheduled reports the next run of every scheduled config.
func (s *AutoBillingScheduler) Scheduled() map[int]time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[int]time.Time, len(s.entries))
	for id, entry := range s.entries {
		next[id] = s.cron.Entry(entry).Next
	}
	return next
}

func (s *AutoBillingScheduler) runScheduled(id int) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if _, err := s.RunNow(ctx, id); err != nil {
		log.Printf("[AUTO-BILLING] ERROR: Config %d: %v", id, err)
	}
}

// RunNow bills one config immediately and records the outcome.
func (s *AutoBillingScheduler) RunNow(ctx context.Context, id int) (*models.BulkResult, error) {
	cfg, err := database.GetAutoBillingConfig(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	tr := GetTranslations(s.language)
	month := billing.MonthOf(s.now()).Prev()
	log.Printf("[AUTO-BILLING] Running config %q (ID: %d) for %s", cfg.Name, cfg.ID, month)

	res, runErr := s.run(ctx, cfg, month)

	if err := database.RecordAutoBillingRun(ctx, s.db, cfg.ID, s.now(), runErr); err != nil {
		log.Printf("[AUTO-BILLING] WARNING: Failed to record run of config %d: %v", cfg.ID, err)
	}

	if runErr != nil {
		database.LogAction(s.db, "auto_billing_failed",
			fmt.Sprintf("Config %q for %s: %v", cfg.Name, month, runErr), autoBillingUser, "")
		s.notifier.Notify(notify.Error("", fmt.Sprintf(tr.AutoBillingFailed, cfg.Name), ErrorText(runErr, tr)))
		return nil, runErr
	}

	created := res.Created
	if created == 0 {
		created = len(res.Invoices)
	}
	database.LogAction(s.db, "auto_billing_run",
		fmt.Sprintf("Config %q for %s: %d invoices", cfg.Name, month, created), autoBillingUser, "")
	s.notifier.Notify(notify.Success("", fmt.Sprintf(tr.AutoBillingDone, cfg.Name, created), month.String()))
	log.Printf("[AUTO-BILLING] SUCCESS: Config %q created %d invoices", cfg.Name, created)
	return res, nil
}

func (s *AutoBillingScheduler) run(ctx context.Context, cfg *models.AutoBillingConfig, month billing.Month) (*models.BulkResult, error) {
	caller := CallerFor("", autoBillingUser, s.language, s.api)

	rooms, err := s.loadRooms(ctx, caller, cfg.RoomIDs, month)
	if err != nil {
		return nil, err
	}

	tariff := cfg.Tariff
	return s.invoices.GenerateBulk(ctx, caller, BulkInput{
		Rooms:         rooms,
		BillingMonth:  month,
		CommonCharges: cfg.CommonCharges,
		Tariff:        &tariff,
	})
}

// loadRooms fetches each room's profile and the month's usage. Rooms the
// backend no longer knows are skipped.
func (s *AutoBillingScheduler) loadRooms(ctx context.Context, c Caller, ids []int64, month billing.Month) ([]billing.RoomChargeInput, error) {
	usage := map[int64]int64{}
	page, err := c.MeterReadings.List(ctx, month, apiclient.ListParams{PerPage: 1000})
	if err != nil {
		return nil, fmt.Errorf("load meter readings: %w", err)
	}
	for _, r := range page.Data {
		u := r.Usage
		if u == 0 {
			u = r.Reading().Usage()
		}
		usage[r.RoomID] = u
	}

	rooms := make([]billing.RoomChargeInput, 0, len(ids))
	for _, id := range ids {
		room, err := c.Rooms.Get(ctx, id)
		if errors.Is(err, apiclient.ErrNotFound) {
			log.Printf("[AUTO-BILLING] WARNING: Room %d no longer exists, skipping", id)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load room %d: %w", id, err)
		}
		rooms = append(rooms, room.ChargeInput(usage[id]))
	}
	return rooms, nil
}
