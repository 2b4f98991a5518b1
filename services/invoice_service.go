package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/aj9599/rental-billing/apiclient"
	"github.com/aj9599/rental-billing/billing"
	"github.com/aj9599/rental-billing/models"
	"github.com/aj9599/rental-billing/notify"
)

// Form names used as submit guard keys.
const (
	FormInvoiceCreate  = "invoice-create"
	FormInvoiceBulk    = "invoice-bulk"
	FormInvoiceCharge  = "invoice-charge"
	FormInvoicePayment = "invoice-payment"
	FormInvoiceDelete  = "invoice-delete"
	FormMeterBatch     = "meter-batch"

	FormMaintenanceRequest = "maintenance-request"
	FormAutoBillingCreate  = "auto-billing-create"
	FormAutoBillingUpdate  = "auto-billing-update"
	FormAutoBillingDelete  = "auto-billing-delete"
	FormAutoBillingRun     = "auto-billing-run"
)

type CreateInvoiceInput struct {
	Room         billing.RoomChargeInput `json:"room"`
	BillingMonth billing.Month           `json:"billing_month"`
	Tariff       *billing.TariffConfig   `json:"tariff,omitempty"`
	Notes        string                  `json:"notes"`
}

type BulkInput struct {
	Rooms         []billing.RoomChargeInput `json:"rooms"`
	BillingMonth  billing.Month             `json:"billing_month"`
	CommonCharges []billing.AdHocCharge     `json:"common_charges"`
	Tariff        *billing.TariffConfig     `json:"tariff,omitempty"`
}

// InvoiceService runs the invoice flows of the console. Validation happens
// before any backend call and every outcome except a cancellation ends in a
// toast for the caller's session.
type InvoiceService struct {
	notifier notify.Notifier
	guard    *SubmitGuard
	tariff   billing.TariffConfig
	now      func() time.Time
}

func NewInvoiceService(notifier notify.Notifier, guard *SubmitGuard, tariff billing.TariffConfig) *InvoiceService {
	return &InvoiceService{
		notifier: notifier,
		guard:    guard,
		tariff:   tariff,
		now:      time.Now,
	}
}

// Tariff returns the configured defaults the forms start from.
func (s *InvoiceService) Tariff() billing.TariffConfig {
	return s.tariff
}

func (s *InvoiceService) tariffOr(t *billing.TariffConfig) billing.TariffConfig {
	if t != nil {
		return *t
	}
	return s.tariff
}

func (s *InvoiceService) monthOr(m billing.Month) billing.Month {
	if m.IsZero() {
		return billing.MonthOf(s.now())
	}
	return m
}

// Preview prices one room locally. Nothing is sent to the backend.
func (s *InvoiceService) Preview(in CreateInvoiceInput) (billing.Invoice, error) {
	if in.Room.RoomID == 0 {
		return billing.Invoice{}, billing.ErrNoRoomSelected
	}
	charges, err := s.normalizeCharges(in.Room.AdHocCharges)
	if err != nil {
		return billing.Invoice{}, err
	}
	in.Room.AdHocCharges = charges

	t := s.tariffOr(in.Tariff)
	items := billing.CalculateRoomCharges(in.Room, t)
	inv := billing.Assemble(in.Room.RoomID, items, t.DueDayOfMonth, s.monthOr(in.BillingMonth))
	inv.RoomName = in.Room.RoomName
	return inv, nil
}

func (s *InvoiceService) PreviewBulk(in BulkInput) ([]billing.Invoice, error) {
	common, err := s.normalizeCharges(in.CommonCharges)
	if err != nil {
		return nil, err
	}
	return billing.GenerateBulk(in.Rooms, s.tariffOr(in.Tariff), common, s.monthOr(in.BillingMonth))
}

func (s *InvoiceService) Create(ctx context.Context, c Caller, in CreateInvoiceInput) (*models.Invoice, error) {
	tr := GetTranslations(c.Language)

	inv, err := s.Preview(in)
	if err != nil {
		s.fail(c, tr, err)
		return nil, err
	}

	var created *models.Invoice
	err = s.guard.Do(ctx, SubmitKey(c.SessionID, FormInvoiceCreate), func(ctx context.Context) error {
		var err error
		created, err = c.Invoices.Create(ctx, apiclient.NewCreateInvoiceRequest(inv, in.Notes))
		return err
	})
	if err != nil {
		s.fail(c, tr, err)
		return nil, err
	}

	log.Printf("[BILLING] SUCCESS: Invoice %d created for room %d (%s) by %s",
		created.InvoiceID, inv.RoomID, FormatVND(inv.TotalAmount, "en"), c.Username)
	s.notifier.Notify(notify.Success(c.SessionID, tr.InvoiceCreated,
		fmt.Sprintf("%s %s: %s", tr.Room, roomLabel(inv.RoomID, inv.RoomName), FormatVND(created.TotalAmount, tr.Language))))
	s.decorate(created)
	return created, nil
}

// GenerateBulk sends one batch for all selected rooms. The backend creates
// them atomically.
func (s *InvoiceService) GenerateBulk(ctx context.Context, c Caller, in BulkInput) (*models.BulkResult, error) {
	tr := GetTranslations(c.Language)

	common, err := s.normalizeCharges(in.CommonCharges)
	if err != nil {
		s.fail(c, tr, err)
		return nil, err
	}
	req, err := billing.NewBulkRequest(in.Rooms, s.tariffOr(in.Tariff), common, s.monthOr(in.BillingMonth))
	if err != nil {
		s.fail(c, tr, err)
		return nil, err
	}

	var res *models.BulkResult
	err = s.guard.Do(ctx, SubmitKey(c.SessionID, FormInvoiceBulk), func(ctx context.Context) error {
		var err error
		res, err = c.Invoices.CreateBulk(ctx, req)
		return err
	})
	if err != nil {
		s.fail(c, tr, err)
		return nil, err
	}

	created := res.Created
	if created == 0 {
		created = len(res.Invoices)
	}
	for i := range res.Invoices {
		s.decorate(&res.Invoices[i])
	}

	log.Printf("[BILLING] SUCCESS: Bulk run for %s created %d invoices (%d rooms) by %s",
		req.BillingMonth, created, len(req.RoomIDs), c.Username)
	s.notifier.Notify(notify.Success(c.SessionID, fmt.Sprintf(tr.InvoicesCreated, created), req.BillingMonth.String()))
	return res, nil
}

// AddCharge applies the charge to a local copy first so a provisional total
// is available, then posts it and re-reads the invoice. The server's copy
// replaces the provisional one whenever the re-read succeeds.
func (s *InvoiceService) AddCharge(ctx context.Context, c Caller, invoiceID int64, charge billing.AdHocCharge) (*models.Invoice, error) {
	tr := GetTranslations(c.Language)

	charges, err := s.normalizeCharges([]billing.AdHocCharge{charge})
	if err != nil {
		s.fail(c, tr, err)
		return nil, err
	}
	charge = charges[0]

	current, err := c.Invoices.Get(ctx, invoiceID)
	if err != nil {
		s.fail(c, tr, err)
		return nil, err
	}
	provisional := *current
	provisional.LineItems = append([]billing.ChargeLineItem(nil), current.LineItems...)
	if err := provisional.AddCharge(charge); err != nil {
		s.fail(c, tr, err)
		return nil, err
	}

	err = s.guard.Do(ctx, SubmitKey(c.SessionID, FormInvoiceCharge), func(ctx context.Context) error {
		_, err := c.Invoices.AddCharge(ctx, invoiceID, charge)
		return err
	})
	if err != nil {
		s.fail(c, tr, err)
		return nil, err
	}

	result := &provisional
	if fresh, err := c.Invoices.Get(ctx, invoiceID); err == nil {
		result = fresh
	} else if !apiclient.IsCanceled(err) {
		log.Printf("[BILLING] WARNING: Re-reading invoice %d after charge failed, returning local totals: %v", invoiceID, err)
	}

	log.Printf("[BILLING] Charge %q (%d) added to invoice %d by %s", charge.Description, charge.Amount, invoiceID, c.Username)
	s.notifier.Notify(notify.Success(c.SessionID, tr.ChargeAdded,
		fmt.Sprintf("%s: %s", tr.Total, FormatVND(result.TotalAmount, tr.Language))))
	s.decorate(result)
	return result, nil
}

// RecordPayment rejects non-positive amounts and amounts above the remaining
// balance before anything is posted.
func (s *InvoiceService) RecordPayment(ctx context.Context, c Caller, invoiceID int64, payment models.Payment) (*models.Invoice, error) {
	tr := GetTranslations(c.Language)

	if payment.Amount <= 0 {
		s.fail(c, tr, billing.ErrInvalidPayment)
		return nil, billing.ErrInvalidPayment
	}

	current, err := c.Invoices.Get(ctx, invoiceID)
	if err != nil {
		s.fail(c, tr, err)
		return nil, err
	}
	check := current.Invoice
	if err := check.RecordPayment(payment.Amount); err != nil {
		s.fail(c, tr, err)
		return nil, err
	}

	if payment.PaidAt.IsZero() {
		payment.PaidAt = s.now()
	}

	var updated *models.Invoice
	err = s.guard.Do(ctx, SubmitKey(c.SessionID, FormInvoicePayment), func(ctx context.Context) error {
		var err error
		updated, err = c.Invoices.RecordPayment(ctx, invoiceID, payment)
		return err
	})
	if err != nil {
		s.fail(c, tr, err)
		return nil, err
	}

	log.Printf("[BILLING] Payment of %d recorded on invoice %d by %s", payment.Amount, invoiceID, c.Username)
	s.notifier.Notify(notify.Success(c.SessionID, tr.PaymentRecorded,
		fmt.Sprintf("%s: %s", tr.Remaining, FormatVND(updated.RemainingAmount, tr.Language))))
	s.decorate(updated)
	return updated, nil
}

// Delete requires an explicit confirmation; without it nothing is sent.
func (s *InvoiceService) Delete(ctx context.Context, c Caller, invoiceID int64, confirmed bool) error {
	tr := GetTranslations(c.Language)

	if !confirmed {
		return ErrConfirmationRequired
	}

	err := s.guard.Do(ctx, SubmitKey(c.SessionID, FormInvoiceDelete), func(ctx context.Context) error {
		return c.Invoices.Delete(ctx, invoiceID)
	})
	if err != nil {
		s.fail(c, tr, err)
		return err
	}

	log.Printf("[BILLING] Invoice %d deleted by %s", invoiceID, c.Username)
	s.notifier.Notify(notify.Success(c.SessionID, tr.InvoiceDeleted, ""))
	return nil
}

func (s *InvoiceService) List(ctx context.Context, c Caller, params apiclient.ListParams) (*models.Page[models.Invoice], error) {
	page, err := c.Invoices.List(ctx, params)
	if err != nil {
		s.fail(c, GetTranslations(c.Language), err)
		return nil, err
	}
	for i := range page.Data {
		s.decorate(&page.Data[i])
	}
	return page, nil
}

func (s *InvoiceService) Get(ctx context.Context, c Caller, invoiceID int64) (*models.Invoice, error) {
	inv, err := c.Invoices.Get(ctx, invoiceID)
	if err != nil {
		s.fail(c, GetTranslations(c.Language), err)
		return nil, err
	}
	s.decorate(inv)
	return inv, nil
}

func (s *InvoiceService) Statistics(ctx context.Context, c Caller, month billing.Month) (*models.InvoiceStatistics, error) {
	stats, err := c.Invoices.Statistics(ctx, month)
	if err != nil {
		s.fail(c, GetTranslations(c.Language), err)
		return nil, err
	}
	return stats, nil
}

func (s *InvoiceService) decorate(inv *models.Invoice) {
	if inv != nil {
		inv.DisplayStatus = inv.Invoice.DisplayStatus(s.now())
	}
}

func (s *InvoiceService) normalizeCharges(charges []billing.AdHocCharge) ([]billing.AdHocCharge, error) {
	out := make([]billing.AdHocCharge, 0, len(charges))
	for _, c := range charges {
		if c.Description == "" || c.Amount <= 0 {
			return nil, billing.ErrInvalidCharge
		}
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		if c.Date.IsZero() {
			c.Date = s.now()
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *InvoiceService) fail(c Caller, tr Translations, err error) {
	if ev, ok := FromError(c.SessionID, tr.ActionFailed, err, tr); ok {
		s.notifier.Notify(ev)
	}
	if !apiclient.IsCanceled(err) {
		log.Printf("[BILLING] ERROR: %s: %v", c.Username, err)
	}
}

func roomLabel(id int64, name string) string {
	if name != "" {
		return name
	}
	return fmt.Sprintf("#%d", id)
}
