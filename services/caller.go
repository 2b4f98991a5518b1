package services

import (
	"context"

	"github.com/aj9599/rental-billing/apiclient"
	"github.com/aj9599/rental-billing/billing"
	"github.com/aj9599/rental-billing/models"
)

// InvoiceAPI is the part of the backend the invoice flows need.
type InvoiceAPI interface {
	List(ctx context.Context, params apiclient.ListParams) (*models.Page[models.Invoice], error)
	Statistics(ctx context.Context, month billing.Month) (*models.InvoiceStatistics, error)
	Get(ctx context.Context, id int64) (*models.Invoice, error)
	Create(ctx context.Context, req apiclient.CreateInvoiceRequest) (*models.Invoice, error)
	CreateBulk(ctx context.Context, req billing.BulkRequest) (*models.BulkResult, error)
	Delete(ctx context.Context, id int64) error
	AddCharge(ctx context.Context, id int64, charge billing.AdHocCharge) (*models.Invoice, error)
	RecordPayment(ctx context.Context, id int64, payment models.Payment) (*models.Invoice, error)
}

type MeterReadingAPI interface {
	List(ctx context.Context, month billing.Month, params apiclient.ListParams) (*models.Page[models.MeterReading], error)
	Save(ctx context.Context, reading models.MeterReading) (*models.MeterReading, error)
}

type RoomAPI interface {
	Get(ctx context.Context, id int64) (*models.Room, error)
}

// Caller is one signed-in user as seen by the services: where their toasts
// go and which backend clients act on their behalf.
type Caller struct {
	SessionID     string
	Username      string
	Language      string
	Invoices      InvoiceAPI
	MeterReadings MeterReadingAPI
	Rooms         RoomAPI
}

func CallerFor(sessionID, username, language string, c *apiclient.Client) Caller {
	return Caller{
		SessionID:     sessionID,
		Username:      username,
		Language:      language,
		Invoices:      c.Invoices(),
		MeterReadings: c.MeterReadings(),
		Rooms:         c.Rooms(),
	}
}
