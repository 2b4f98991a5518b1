package services

import (
	"context"
	"sync"

	"github.com/aj9599/rental-billing/apiclient"
	"github.com/aj9599/rental-billing/billing"
	"github.com/aj9599/rental-billing/models"
	"github.com/aj9599/rental-billing/notify"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (r *recordingNotifier) Notify(e notify.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingNotifier) all() []notify.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Event(nil), r.events...)
}

func (r *recordingNotifier) last() notify.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return notify.Event{}
	}
	return r.events[len(r.events)-1]
}

// fakeInvoices keeps invoices in memory and counts every call.
type fakeInvoices struct {
	mu       sync.Mutex
	invoices map[int64]*models.Invoice
	calls    map[string]int
	nextID   int64

	listErr    error
	getErrFrom int // Get fails from this call number on; 0 disables
	createErr  error
	block      chan struct{}

	lastCreate  apiclient.CreateInvoiceRequest
	lastBulk    billing.BulkRequest
	lastPayment models.Payment
}

func newFakeInvoices() *fakeInvoices {
	return &fakeInvoices{invoices: map[int64]*models.Invoice{}, calls: map[string]int{}, nextID: 100}
}

func (f *fakeInvoices) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeInvoices) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeInvoices) List(ctx context.Context, params apiclient.ListParams) (*models.Page[models.Invoice], error) {
	f.mu.Lock()
	f.calls["List"]++
	f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	page := &models.Page[models.Invoice]{Page: 1, PerPage: 20, LastPage: 1}
	for _, inv := range f.invoices {
		page.Data = append(page.Data, *inv)
	}
	page.Total = len(page.Data)
	return page, nil
}

func (f *fakeInvoices) Statistics(ctx context.Context, month billing.Month) (*models.InvoiceStatistics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["Statistics"]++
	return &models.InvoiceStatistics{TotalInvoices: len(f.invoices)}, nil
}

func (f *fakeInvoices) Get(ctx context.Context, id int64) (*models.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["Get"]++
	if f.getErrFrom > 0 && f.calls["Get"] >= f.getErrFrom {
		return nil, apiclient.ErrNetwork
	}
	inv, ok := f.invoices[id]
	if !ok {
		return nil, &apiclient.APIError{StatusCode: 404, Message: "not found"}
	}
	cp := *inv
	cp.LineItems = append([]billing.ChargeLineItem(nil), inv.LineItems...)
	return &cp, nil
}

func (f *fakeInvoices) Create(ctx context.Context, req apiclient.CreateInvoiceRequest) (*models.Invoice, error) {
	f.mu.Lock()
	f.calls["Create"]++
	f.lastCreate = req
	block := f.block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, apiclient.ErrCanceled
		}
	}
	if f.createErr != nil {
		return nil, f.createErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	inv := &models.Invoice{Invoice: billing.Invoice{
		InvoiceID:       f.nextID,
		RoomID:          req.RoomID,
		BillingMonth:    req.BillingMonth,
		LineItems:       req.LineItems,
		TotalAmount:     req.TotalAmount,
		RemainingAmount: req.TotalAmount,
		Status:          billing.StatusNew,
	}}
	f.invoices[inv.InvoiceID] = inv
	return inv, nil
}

func (f *fakeInvoices) CreateBulk(ctx context.Context, req billing.BulkRequest) (*models.BulkResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["CreateBulk"]++
	f.lastBulk = req
	return &models.BulkResult{Created: len(req.RoomIDs)}, nil
}

func (f *fakeInvoices) Delete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["Delete"]++
	delete(f.invoices, id)
	return nil
}

func (f *fakeInvoices) AddCharge(ctx context.Context, id int64, charge billing.AdHocCharge) (*models.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["AddCharge"]++
	inv := f.invoices[id]
	if err := inv.AddCharge(charge); err != nil {
		return nil, err
	}
	inv.Notes = "server copy"
	cp := *inv
	return &cp, nil
}

func (f *fakeInvoices) RecordPayment(ctx context.Context, id int64, payment models.Payment) (*models.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["RecordPayment"]++
	f.lastPayment = payment
	inv := f.invoices[id]
	if err := inv.RecordPayment(payment.Amount); err != nil {
		return nil, err
	}
	cp := *inv
	return &cp, nil
}

type fakeMeterReadings struct {
	mu       sync.Mutex
	saved    []models.MeterReading
	failFor  map[int64]error
	cancelAt int // Save returns ErrCanceled on this call number; 0 disables
	calls    int
	previous []models.MeterReading
}

func (f *fakeMeterReadings) List(ctx context.Context, month billing.Month, params apiclient.ListParams) (*models.Page[models.MeterReading], error) {
	return &models.Page[models.MeterReading]{Data: f.previous, Page: 1, LastPage: 1, Total: len(f.previous)}, nil
}

func (f *fakeMeterReadings) Save(ctx context.Context, r models.MeterReading) (*models.MeterReading, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.cancelAt > 0 && f.calls == f.cancelAt {
		return nil, apiclient.ErrCanceled
	}
	if err := f.failFor[r.RoomID]; err != nil {
		return nil, err
	}
	r.ID = int64(f.calls)
	f.saved = append(f.saved, r)
	return &r, nil
}

type fakeRooms struct {
	rooms map[int64]models.Room
}

func (f *fakeRooms) Get(ctx context.Context, id int64) (*models.Room, error) {
	r, ok := f.rooms[id]
	if !ok {
		return nil, &apiclient.APIError{StatusCode: 404, Message: "not found"}
	}
	return &r, nil
}

func testCaller(inv *fakeInvoices, meters *fakeMeterReadings) Caller {
	return Caller{
		SessionID:     "sess-1",
		Username:      "quanly",
		Language:      "vi",
		Invoices:      inv,
		MeterReadings: meters,
		Rooms:         &fakeRooms{},
	}
}
