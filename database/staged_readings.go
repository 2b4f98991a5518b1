package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/aj9599/rental-billing/models"
)

// StageReading keeps the most recent counter value per room.
func StageReading(ctx context.Context, db *sql.DB, r models.StagedMeterReading) error {
	if r.ReceivedAt.IsZero() {
		r.ReceivedAt = time.Now()
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO staged_meter_readings (room_id, value, source, read_at, received_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(room_id) DO UPDATE SET
			value = excluded.value,
			source = excluded.source,
			read_at = excluded.read_at,
			received_at = excluded.received_at
		WHERE excluded.read_at >= staged_meter_readings.read_at
	`, r.RoomID, r.Value, r.Source, r.ReadAt.UTC(), r.ReceivedAt.UTC())
	return err
}

func ListStagedReadings(ctx context.Context, db *sql.DB) ([]models.StagedMeterReading, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, room_id, value, source, read_at, received_at
		FROM staged_meter_readings
		ORDER BY room_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	readings := []models.StagedMeterReading{}
	for rows.Next() {
		var r models.StagedMeterReading
		if err := rows.Scan(&r.ID, &r.RoomID, &r.Value, &r.Source, &r.ReadAt, &r.ReceivedAt); err != nil {
			return nil, err
		}
		readings = append(readings, r)
	}
	return readings, rows.Err()
}

// DeleteStagedReading drops a staged value once it reached the backend. A
// newer value staged for the room in the meantime is kept.
func DeleteStagedReading(ctx context.Context, db *sql.DB, roomID, value int64) error {
	_, err := db.ExecContext(ctx,
		`DELETE FROM staged_meter_readings WHERE room_id = ? AND value = ?`, roomID, value)
	return err
}

func CountStagedReadings(ctx context.Context, db *sql.DB) (int, error) {
	var n int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM staged_meter_readings`).Scan(&n)
	return n, err
}
