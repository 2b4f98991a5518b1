package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aj9599/rental-billing/models"
)

var ErrConfigNotFound = errors.New("auto billing config not found")

func CreateAutoBillingConfig(ctx context.Context, db *sql.DB, cfg *models.AutoBillingConfig) error {
	roomIDs, err := json.Marshal(cfg.RoomIDs)
	if err != nil {
		return err
	}
	tariff, err := json.Marshal(cfg.Tariff)
	if err != nil {
		return err
	}
	common, err := json.Marshal(cfg.CommonCharges)
	if err != nil {
		return err
	}

	res, err := db.ExecContext(ctx, `
		INSERT INTO auto_billing_configs (name, room_ids, schedule, tariff, common_charges, is_active)
		VALUES (?, ?, ?, ?, ?, ?)
	`, cfg.Name, string(roomIDs), cfg.Schedule, string(tariff), string(common), cfg.IsActive)
	if err != nil {
		return fmt.Errorf("insert auto billing config: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	cfg.ID = int(id)
	return nil
}

func ListAutoBillingConfigs(ctx context.Context, db *sql.DB, activeOnly bool) ([]models.AutoBillingConfig, error) {
	query := `
		SELECT id, name, room_ids, schedule, tariff, COALESCE(common_charges, '[]'),
		       is_active, last_run, COALESCE(last_error, ''), created_at
		FROM auto_billing_configs`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY id`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	configs := []models.AutoBillingConfig{}
	for rows.Next() {
		cfg, err := scanAutoBillingConfig(rows)
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	return configs, rows.Err()
}

func GetAutoBillingConfig(ctx context.Context, db *sql.DB, id int) (*models.AutoBillingConfig, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, name, room_ids, schedule, tariff, COALESCE(common_charges, '[]'),
		       is_active, last_run, COALESCE(last_error, ''), created_at
		FROM auto_billing_configs WHERE id = ?
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrConfigNotFound
	}
	cfg, err := scanAutoBillingConfig(rows)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// UpdateAutoBillingConfig replaces the editable fields; run history is kept.
func UpdateAutoBillingConfig(ctx context.Context, db *sql.DB, cfg *models.AutoBillingConfig) error {
	roomIDs, err := json.Marshal(cfg.RoomIDs)
	if err != nil {
		return err
	}
	tariff, err := json.Marshal(cfg.Tariff)
	if err != nil {
		return err
	}
	common, err := json.Marshal(cfg.CommonCharges)
	if err != nil {
		return err
	}

	res, err := db.ExecContext(ctx, `
		UPDATE auto_billing_configs
		SET name = ?, room_ids = ?, schedule = ?, tariff = ?, common_charges = ?, is_active = ?
		WHERE id = ?
	`, cfg.Name, string(roomIDs), cfg.Schedule, string(tariff), string(common), cfg.IsActive, cfg.ID)
	if err != nil {
		return fmt.Errorf("update auto billing config %d: %w", cfg.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrConfigNotFound
	}
	return nil
}

func DeleteAutoBillingConfig(ctx context.Context, db *sql.DB, id int) error {
	res, err := db.ExecContext(ctx, `DELETE FROM auto_billing_configs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrConfigNotFound
	}
	return nil
}

// RecordAutoBillingRun stores the outcome of one scheduled run.
func RecordAutoBillingRun(ctx context.Context, db *sql.DB, id int, at time.Time, runErr error) error {
	lastError := ""
	if runErr != nil {
		lastError = runErr.Error()
	}
	_, err := db.ExecContext(ctx, `
		UPDATE auto_billing_configs SET last_run = ?, last_error = ? WHERE id = ?
	`, at.UTC(), lastError, id)
	return err
}

func scanAutoBillingConfig(rows *sql.Rows) (models.AutoBillingConfig, error) {
	var cfg models.AutoBillingConfig
	var roomIDs, tariff, common string
	var lastRun sql.NullTime

	if err := rows.Scan(&cfg.ID, &cfg.Name, &roomIDs, &cfg.Schedule, &tariff, &common,
		&cfg.IsActive, &lastRun, &cfg.LastError, &cfg.CreatedAt); err != nil {
		return cfg, err
	}
	if err := json.Unmarshal([]byte(roomIDs), &cfg.RoomIDs); err != nil {
		return cfg, fmt.Errorf("config %d room_ids: %w", cfg.ID, err)
	}
	if err := json.Unmarshal([]byte(tariff), &cfg.Tariff); err != nil {
		return cfg, fmt.Errorf("config %d tariff: %w", cfg.ID, err)
	}
	if err := json.Unmarshal([]byte(common), &cfg.CommonCharges); err != nil {
		return cfg, fmt.Errorf("config %d common_charges: %w", cfg.ID, err)
	}
	if lastRun.Valid {
		t := lastRun.Time
		cfg.LastRun = &t
	}
	return cfg, nil
}
