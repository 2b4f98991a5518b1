package apiclient

import (
	"context"
	"net/url"

	"github.com/aj9599/rental-billing/billing"
	"github.com/aj9599/rental-billing/models"
)

const (
	invoicesPath         = "/admin/hoa-don"
	customerInvoicesPath = "/customer/hoa-don"
)

// CreateInvoiceRequest is the body of a single-invoice creation. Totals are
// computed locally and re-checked by the backend.
type CreateInvoiceRequest struct {
	RoomID       int64                    `json:"room_id"`
	BillingMonth billing.Month            `json:"billing_month"`
	DueDate      string                   `json:"due_date"`
	LineItems    []billing.ChargeLineItem `json:"line_items"`
	TotalAmount  int64                    `json:"total_amount"`
	Notes        string                   `json:"notes,omitempty"`
}

// NewCreateInvoiceRequest converts an assembled invoice into a request body.
func NewCreateInvoiceRequest(inv billing.Invoice, notes string) CreateInvoiceRequest {
	return CreateInvoiceRequest{
		RoomID:       inv.RoomID,
		BillingMonth: inv.BillingMonth,
		DueDate:      inv.DueDate.Format("2006-01-02"),
		LineItems:    inv.LineItems,
		TotalAmount:  inv.TotalAmount,
		Notes:        notes,
	}
}

type Invoices struct{ c *Client }

func (c *Client) Invoices() *Invoices { return &Invoices{c: c} }

func (s *Invoices) List(ctx context.Context, params ListParams) (*models.Page[models.Invoice], error) {
	var page models.Page[models.Invoice]
	if err := s.c.get(ctx, invoicesPath, params.Values(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Statistics returns the aggregate figures, optionally for one month.
func (s *Invoices) Statistics(ctx context.Context, month billing.Month) (*models.InvoiceStatistics, error) {
	var query url.Values
	if !month.IsZero() {
		query = url.Values{"month": {month.String()}}
	}
	var stats models.InvoiceStatistics
	if err := s.c.get(ctx, invoicesPath+"/statistics", query, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (s *Invoices) Get(ctx context.Context, id int64) (*models.Invoice, error) {
	var inv models.Invoice
	if err := s.c.get(ctx, idPath(invoicesPath, id), nil, &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (s *Invoices) Create(ctx context.Context, req CreateInvoiceRequest) (*models.Invoice, error) {
	var inv models.Invoice
	if err := s.c.post(ctx, invoicesPath, req, &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (s *Invoices) CreateBulk(ctx context.Context, req billing.BulkRequest) (*models.BulkResult, error) {
	var res models.BulkResult
	if err := s.c.post(ctx, invoicesPath+"/bulk", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *Invoices) Delete(ctx context.Context, id int64) error {
	return s.c.delete(ctx, idPath(invoicesPath, id))
}

// AddCharge attaches an ad-hoc charge and returns the server's updated invoice.
func (s *Invoices) AddCharge(ctx context.Context, id int64, charge billing.AdHocCharge) (*models.Invoice, error) {
	var inv models.Invoice
	if err := s.c.post(ctx, idPath(invoicesPath, id)+"/phat-sinh", charge, &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (s *Invoices) RecordPayment(ctx context.Context, id int64, payment models.Payment) (*models.Invoice, error) {
	var inv models.Invoice
	if err := s.c.post(ctx, idPath(invoicesPath, id)+"/thanh-toan", payment, &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

// MyInvoices lists the signed-in tenant's own invoices.
func (s *Invoices) MyInvoices(ctx context.Context, params ListParams) (*models.Page[models.Invoice], error) {
	var page models.Page[models.Invoice]
	if err := s.c.get(ctx, customerInvoicesPath, params.Values(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}
