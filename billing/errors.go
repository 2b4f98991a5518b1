package billing

import "errors"

var (
	// ErrNoRoomSelected blocks a single invoice submission without a room.
	ErrNoRoomSelected = errors.New("no room selected")

	// ErrNoRoomsSelected blocks a bulk submission with an empty selection.
	ErrNoRoomsSelected = errors.New("select at least one room")

	ErrInvalidPayment        = errors.New("payment amount must be positive")
	ErrPaymentExceedsBalance = errors.New("payment exceeds remaining amount")
	ErrInvalidCharge         = errors.New("charge needs a description and a positive amount")

	// ErrMeterRollback means the new counter value is below the old one.
	ErrMeterRollback = errors.New("new meter reading is lower than the previous one")

	ErrInvalidMonth = errors.New("billing month must be formatted as YYYY-MM")

	// ErrTotalsMismatch is reported by Verify when an invoice breaks its totals invariants.
	ErrTotalsMismatch = errors.New("invoice totals do not match its line items")
)
