package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const alertColumns = `id, tenant_id, station_id, alert_type, message, severity, is_read, created_at`

func scanAlert(row interface{ Scan(dest ...any) error }) (Alert, error) {
	var a Alert
	err := row.Scan(&a.ID, &a.TenantID, &a.StationID, &a.AlertType, &a.Message, &a.Severity, &a.IsRead, &a.CreatedAt)
	return a, err
}

type CreateAlertParams struct {
	TenantID  uuid.UUID
	StationID pgtype.UUID
	AlertType string
	Message   string
	Severity  string
}

const createAlert = `
INSERT INTO alerts (tenant_id, station_id, alert_type, message, severity)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + alertColumns + `
`

func (q *Queries) CreateAlert(ctx context.Context, arg CreateAlertParams) (Alert, error) {
	return scanAlert(q.db.QueryRow(ctx, createAlert,
		arg.TenantID, arg.StationID, arg.AlertType, arg.Message, arg.Severity))
}

type ListAlertsParams struct {
	TenantID   uuid.UUID
	StationID  pgtype.UUID
	UnreadOnly bool
}

const listAlerts = `
SELECT ` + alertColumns + `
FROM alerts
WHERE tenant_id = $1
  AND ($2::uuid IS NULL OR station_id = $2)
  AND (NOT $3::boolean OR is_read = false)
ORDER BY created_at DESC
LIMIT 50
`

func (q *Queries) ListAlerts(ctx context.Context, arg ListAlertsParams) ([]Alert, error) {
	rows, err := q.db.Query(ctx, listAlerts, arg.TenantID, arg.StationID, arg.UnreadOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

type AlertIDParams struct {
	ID       uuid.UUID
	TenantID uuid.UUID
}

const markAlertRead = `
UPDATE alerts
SET is_read = true
WHERE id = $1 AND tenant_id = $2
RETURNING ` + alertColumns + `
`

func (q *Queries) MarkAlertRead(ctx context.Context, arg AlertIDParams) (Alert, error) {
	return scanAlert(q.db.QueryRow(ctx, markAlertRead, arg.ID, arg.TenantID))
}

const deleteAlert = `
DELETE FROM alerts
WHERE id = $1 AND tenant_id = $2
RETURNING id
`

func (q *Queries) DeleteAlert(ctx context.Context, arg AlertIDParams) (uuid.UUID, error) {
	var id uuid.UUID
	err := q.db.QueryRow(ctx, deleteAlert, arg.ID, arg.TenantID).Scan(&id)
	return id, err
}
