package services

import (
	"errors"

	"github.com/aj9599/rental-billing/apiclient"
	"github.com/aj9599/rental-billing/billing"
	"github.com/aj9599/rental-billing/notify"
)

var (
	// ErrSubmitInProgress rejects a second submission of the same form while
	// the first one is still running.
	ErrSubmitInProgress = errors.New("submission already in progress")

	// ErrConfirmationRequired blocks destructive actions the user has not confirmed.
	ErrConfirmationRequired = errors.New("confirmation required")
)

// ErrorText turns any error of the console into the sentence shown to the user.
func ErrorText(err error, tr Translations) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, billing.ErrNoRoomSelected):
		return tr.NoRoomSelected
	case errors.Is(err, billing.ErrNoRoomsSelected):
		return tr.NoRoomsSelected
	case errors.Is(err, billing.ErrInvalidPayment):
		return tr.InvalidPayment
	case errors.Is(err, billing.ErrPaymentExceedsBalance):
		return tr.PaymentTooLarge
	case errors.Is(err, billing.ErrInvalidCharge):
		return tr.InvalidCharge
	case errors.Is(err, billing.ErrMeterRollback):
		return tr.MeterRollback
	case errors.Is(err, ErrSubmitInProgress):
		return tr.SubmitInProgress
	case errors.Is(err, ErrConfirmationRequired):
		return tr.ConfirmationNeeded
	}
	return apiclient.UserMessage(err, tr.Errors)
}

// FromError builds the error toast for a failed action. Cancellations yield
// no toast.
func FromError(sessionID, title string, err error, tr Translations) (notify.Event, bool) {
	if err == nil || apiclient.IsCanceled(err) {
		return notify.Event{}, false
	}
	if title == "" {
		title = tr.ActionFailed
	}
	return notify.Error(sessionID, title, ErrorText(err, tr)), true
}
