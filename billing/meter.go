package billing

import "fmt"

// MeterReading is a per-room pair of electricity counter values for one month.
type MeterReading struct {
	RoomID   int64  `json:"room_id"`
	RoomName string `json:"room_name,omitempty"`
	Month    Month  `json:"month"`
	OldValue int64  `json:"old_value"`
	NewValue int64  `json:"new_value"`
}

// Validate rejects a counter that went backwards.
func (r MeterReading) Validate() error {
	if r.NewValue < r.OldValue {
		return fmt.Errorf("room %d: %w (%d < %d)", r.RoomID, ErrMeterRollback, r.NewValue, r.OldValue)
	}
	return nil
}

// Usage is the consumed kWh, 0 when the counter went backwards.
func (r MeterReading) Usage() int64 {
	if r.NewValue < r.OldValue {
		return 0
	}
	return r.NewValue - r.OldValue
}
