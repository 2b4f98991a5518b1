package models

import (
	"time"

	"github.com/aj9599/rental-billing/billing"
)

// Page is the envelope every list endpoint of the backend returns.
type Page[T any] struct {
	Data     []T `json:"data"`
	Page     int `json:"current_page"`
	PerPage  int `json:"per_page"`
	Total    int `json:"total"`
	LastPage int `json:"last_page"`
}

// IsListEnvelope marks the type for decoders that unwrap {"data": ...}.
func (*Page[T]) IsListEnvelope() bool { return true }

type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
	TenantID *int64 `json:"tenant_id,omitempty"`
}

type RoomType struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	BasePrice   int64  `json:"base_price"`
}

type Room struct {
	ID                  int64                `json:"id"`
	Code                string               `json:"code"`
	Name                string               `json:"name"`
	RoomTypeID          int64                `json:"room_type_id"`
	Floor               int                  `json:"floor"`
	Area                float64              `json:"area"`
	RentAmount          int64                `json:"rent_amount"`
	Status              string               `json:"status"`
	OccupantCount       int64                `json:"occupant_count"`
	InternetPlan        billing.InternetPlan `json:"internet_plan"`
	ParkingVehicleCount int64                `json:"parking_vehicle_count"`
	TrashIncluded       *bool                `json:"trash_included,omitempty"`
	UpdatedAt           time.Time            `json:"updated_at"`
}

// ChargeInput builds the calculator input from the stored profile and a
// month's electricity usage.
func (r Room) ChargeInput(usageKwh int64) billing.RoomChargeInput {
	return billing.RoomChargeInput{
		RoomID:              r.ID,
		RoomName:            r.Name,
		RentAmount:          r.RentAmount,
		ElectricityUsageKwh: usageKwh,
		OccupantCount:       r.OccupantCount,
		InternetPlan:        r.InternetPlan,
		ParkingVehicleCount: r.ParkingVehicleCount,
		TrashIncluded:       r.TrashIncluded,
	}
}

type Staff struct {
	ID       int64  `json:"id"`
	FullName string `json:"full_name"`
	Position string `json:"position"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
}

type Tenant struct {
	ID           int64  `json:"id"`
	FullName     string `json:"full_name"`
	IDCardNumber string `json:"id_card_number"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	Hometown     string `json:"hometown"`
	RoomID       *int64 `json:"room_id,omitempty"`
}

type Contract struct {
	ID        int64  `json:"id"`
	RoomID    int64  `json:"room_id"`
	TenantID  int64  `json:"tenant_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Deposit   int64  `json:"deposit"`
	Rent      int64  `json:"rent"`
	Status    string `json:"status"`
}

type Account struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	IsActive bool   `json:"is_active"`
}

type Maintenance struct {
	ID          int64  `json:"id"`
	RoomID      int64  `json:"room_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Cost        int64  `json:"cost"`
	ReportedAt  string `json:"reported_at"`
}

type Rule struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	PenaltyFee int64  `json:"penalty_fee"`
	IsActive   bool   `json:"is_active"`
}

// ViolationStatus is the single status set used for violations.
type ViolationStatus string

const (
	ViolationPending  ViolationStatus = "pending"
	ViolationResolved ViolationStatus = "resolved"
	ViolationWaived   ViolationStatus = "waived"
)

type Violation struct {
	ID         int64           `json:"id"`
	RuleID     int64           `json:"rule_id"`
	RoomID     int64           `json:"room_id"`
	TenantID   *int64          `json:"tenant_id,omitempty"`
	Note       string          `json:"note"`
	PenaltyFee int64           `json:"penalty_fee"`
	Status     ViolationStatus `json:"status"`
	OccurredAt string          `json:"occurred_at"`
}

// MeterReading is the backend's electricity record for a room and month.
type MeterReading struct {
	ID       int64         `json:"id,omitempty"`
	RoomID   int64         `json:"room_id"`
	RoomName string        `json:"room_name,omitempty"`
	Month    billing.Month `json:"month"`
	OldValue int64         `json:"old_value"`
	NewValue int64         `json:"new_value"`
	Usage    int64         `json:"usage"`
}

func (m MeterReading) Reading() billing.MeterReading {
	return billing.MeterReading{
		RoomID:   m.RoomID,
		RoomName: m.RoomName,
		Month:    m.Month,
		OldValue: m.OldValue,
		NewValue: m.NewValue,
	}
}

// Invoice is the one invoice shape exchanged with the backend.
type Invoice struct {
	billing.Invoice
	TenantName string    `json:"tenant_name,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	// DisplayStatus is filled by the console; overdue is never stored.
	DisplayStatus billing.InvoiceStatus `json:"display_status,omitempty"`
}

type InvoiceStatistics struct {
	TotalInvoices   int   `json:"total_invoices"`
	TotalAmount     int64 `json:"total_amount"`
	PaidAmount      int64 `json:"paid_amount"`
	RemainingAmount int64 `json:"remaining_amount"`
	NewCount        int   `json:"new_count"`
	PartialCount    int   `json:"partially_paid_count"`
	PaidCount       int   `json:"paid_count"`
	OverdueCount    int   `json:"overdue_count"`
}

type Payment struct {
	Amount int64     `json:"amount" validate:"gt=0"`
	Method string    `json:"method"`
	PaidAt time.Time `json:"paid_at"`
	Note   string    `json:"note"`
}

type BulkResult struct {
	Created  int       `json:"created"`
	Invoices []Invoice `json:"invoices"`
}

type AdminLog struct {
	ID        int       `json:"id"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	Username  string    `json:"username"`
	IPAddress string    `json:"ip_address"`
	CreatedAt time.Time `json:"created_at"`
}

// StagedMeterReading is a counter value received from a smart meter and
// waiting for an operator to push it to the backend.
type StagedMeterReading struct {
	ID         int64     `json:"id"`
	RoomID     int64     `json:"room_id"`
	Value      int64     `json:"value"`
	Source     string    `json:"source"`
	ReadAt     time.Time `json:"read_at"`
	ReceivedAt time.Time `json:"received_at"`
}

type AutoBillingConfig struct {
	ID            int                   `json:"id"`
	Name          string                `json:"name" validate:"required"`
	RoomIDs       []int64               `json:"room_ids" validate:"min=1"`
	Schedule      string                `json:"schedule" validate:"required"`
	Tariff        billing.TariffConfig  `json:"tariff"`
	CommonCharges []billing.AdHocCharge `json:"common_charges"`
	IsActive      bool                  `json:"is_active"`
	LastRun       *time.Time            `json:"last_run"`
	LastError     string                `json:"last_error"`
	CreatedAt     time.Time             `json:"created_at"`
}

type DashboardStats struct {
	Invoices          InvoiceStatistics `json:"invoices"`
	TotalRooms        int               `json:"total_rooms"`
	PendingViolations int               `json:"pending_violations"`
	StagedReadings    int               `json:"staged_readings"`
}
