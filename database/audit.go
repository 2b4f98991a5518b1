package database

import (
	"context"
	"database/sql"
	"log"

	"github.com/aj9599/rental-billing/models"
)

// LogAction appends to the audit trail. Failures are logged, never returned.
func LogAction(db *sql.DB, action, details, username, ipAddress string) {
	_, err := db.Exec(`
		INSERT INTO admin_logs (action, details, username, ip_address)
		VALUES (?, ?, ?, ?)
	`, action, details, username, ipAddress)
	if err != nil {
		log.Printf("WARNING: Failed to write audit log %q: %v", action, err)
	}
}

func ListLogs(ctx context.Context, db *sql.DB, limit int) ([]models.AdminLog, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, action, COALESCE(details, ''), COALESCE(username, ''), COALESCE(ip_address, ''), created_at
		FROM admin_logs
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []models.AdminLog{}
	for rows.Next() {
		var l models.AdminLog
		if err := rows.Scan(&l.ID, &l.Action, &l.Details, &l.Username, &l.IPAddress, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
