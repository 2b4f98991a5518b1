package billing

import (
	"fmt"
	"time"
)

type InvoiceStatus string

const (
	StatusNew           InvoiceStatus = "new"
	StatusPartiallyPaid InvoiceStatus = "partially_paid"
	StatusPaid          InvoiceStatus = "paid"

	// StatusOverdue is never stored; DisplayStatus derives it from the due date.
	StatusOverdue InvoiceStatus = "overdue"
)

// Invoice is a priced billing document for one room and one month. Totals
// computed here are provisional until the backend returns its own copy.
type Invoice struct {
	InvoiceID       int64            `json:"invoice_id,omitempty"`
	RoomID          int64            `json:"room_id"`
	RoomName        string           `json:"room_name,omitempty"`
	BillingMonth    Month            `json:"billing_month"`
	IssueDate       time.Time        `json:"issue_date"`
	DueDate         time.Time        `json:"due_date"`
	LineItems       []ChargeLineItem `json:"line_items"`
	TotalAmount     int64            `json:"total_amount"`
	PaidAmount      int64            `json:"paid_amount"`
	RemainingAmount int64            `json:"remaining_amount"`
	Status          InvoiceStatus    `json:"status"`
}

var now = time.Now

// Assemble prices a list of line items into a fresh, unpaid invoice.
func Assemble(roomID int64, items []ChargeLineItem, dueDay int, month Month) Invoice {
	issued := now()
	total := Sum(items)
	return Invoice{
		RoomID:          roomID,
		BillingMonth:    month,
		IssueDate:       issued,
		DueDate:         month.DueDate(dueDay, issued.Location()),
		LineItems:       items,
		TotalAmount:     total,
		PaidAmount:      0,
		RemainingAmount: total,
		Status:          StatusNew,
	}
}

// RecordPayment adds amount to the paid total and recomputes the status.
func (inv *Invoice) RecordPayment(amount int64) error {
	if amount <= 0 {
		return ErrInvalidPayment
	}
	if amount > inv.RemainingAmount {
		return fmt.Errorf("%w: %d > %d", ErrPaymentExceedsBalance, amount, inv.RemainingAmount)
	}
	inv.PaidAmount += amount
	inv.recompute()
	return nil
}

// AddCharge appends an ad-hoc charge after creation. A fully paid invoice
// drops back to partially paid.
func (inv *Invoice) AddCharge(c AdHocCharge) error {
	if c.Description == "" || c.Amount <= 0 {
		return ErrInvalidCharge
	}
	inv.LineItems = append(inv.LineItems, c.LineItem())
	inv.TotalAmount += c.Amount
	inv.recompute()
	return nil
}

func (inv *Invoice) recompute() {
	inv.RemainingAmount = inv.TotalAmount - inv.PaidAmount
	switch {
	case inv.PaidAmount <= 0:
		inv.Status = StatusNew
	case inv.PaidAmount >= inv.TotalAmount:
		inv.Status = StatusPaid
	default:
		inv.Status = StatusPartiallyPaid
	}
}

// DisplayStatus returns overdue for an unpaid invoice past its due date.
func (inv Invoice) DisplayStatus(at time.Time) InvoiceStatus {
	if inv.Status != StatusPaid && !inv.DueDate.IsZero() && inv.DueDate.Before(at) {
		return StatusOverdue
	}
	return inv.Status
}

// Verify checks total == sum(items) and remaining == total - paid.
func (inv Invoice) Verify() error {
	if sum := Sum(inv.LineItems); sum != inv.TotalAmount {
		return fmt.Errorf("%w: items sum to %d, total is %d", ErrTotalsMismatch, sum, inv.TotalAmount)
	}
	if inv.RemainingAmount != inv.TotalAmount-inv.PaidAmount {
		return fmt.Errorf("%w: remaining %d, expected %d", ErrTotalsMismatch, inv.RemainingAmount, inv.TotalAmount-inv.PaidAmount)
	}
	return nil
}
