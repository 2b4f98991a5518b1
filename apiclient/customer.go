package apiclient

import (
	"context"

	"github.com/aj9599/rental-billing/models"
)

// Customer is the tenant self-service side of the backend.
type Customer struct{ c *Client }

func (c *Client) Customer() *Customer { return &Customer{c: c} }

func (s *Customer) Profile(ctx context.Context) (*models.Tenant, error) {
	var t models.Tenant
	if err := s.c.get(ctx, "/customer/profile", nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Customer) Invoices(ctx context.Context, params ListParams) (*models.Page[models.Invoice], error) {
	return s.c.Invoices().MyInvoices(ctx, params)
}

func (s *Customer) MaintenanceRequests(ctx context.Context, params ListParams) (*models.Page[models.Maintenance], error) {
	var page models.Page[models.Maintenance]
	if err := s.c.get(ctx, "/customer/bao-tri", params.Values(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (s *Customer) RequestMaintenance(ctx context.Context, req models.Maintenance) (*models.Maintenance, error) {
	var m models.Maintenance
	if err := s.c.post(ctx, "/customer/bao-tri", req, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
