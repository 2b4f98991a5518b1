package apiclient

import (
	"context"

	"github.com/aj9599/rental-billing/billing"
	"github.com/aj9599/rental-billing/models"
)

const meterReadingsPath = "/admin/so-dien"

type MeterReadings struct{ c *Client }

func (c *Client) MeterReadings() *MeterReadings { return &MeterReadings{c: c} }

// List returns the readings of one month; a zero month lets the backend pick.
func (s *MeterReadings) List(ctx context.Context, month billing.Month, params ListParams) (*models.Page[models.MeterReading], error) {
	query := params.Values()
	if !month.IsZero() {
		query.Set("month", month.String())
	}
	var page models.Page[models.MeterReading]
	if err := s.c.get(ctx, meterReadingsPath, query, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Save creates or replaces the reading for the room and month.
func (s *MeterReadings) Save(ctx context.Context, reading models.MeterReading) (*models.MeterReading, error) {
	var saved models.MeterReading
	if err := s.c.post(ctx, meterReadingsPath, reading, &saved); err != nil {
		return nil, err
	}
	return &saved, nil
}
