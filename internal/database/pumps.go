package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const pumpColumns = `id, tenant_id, station_id, label, serial_number, is_active, created_at`

func scanPump(row interface{ Scan(dest ...any) error }) (Pump, error) {
	var p Pump
	err := row.Scan(&p.ID, &p.TenantID, &p.StationID, &p.Label, &p.SerialNumber, &p.IsActive, &p.CreatedAt)
	return p, err
}

type ListPumpsByStationParams struct {
	StationID uuid.UUID
	TenantID  uuid.UUID
}

const listPumpsByStation = `
SELECT ` + pumpColumns + `
FROM pumps
WHERE station_id = $1 AND tenant_id = $2 AND is_active = true
ORDER BY label
`

func (q *Queries) ListPumpsByStation(ctx context.Context, arg ListPumpsByStationParams) ([]Pump, error) {
	rows, err := q.db.Query(ctx, listPumpsByStation, arg.StationID, arg.TenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Pump
	for rows.Next() {
		p, err := scanPump(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

type CreatePumpParams struct {
	TenantID     uuid.UUID
	StationID    uuid.UUID
	Label        string
	SerialNumber pgtype.Text
}

const createPump = `
INSERT INTO pumps (tenant_id, station_id, label, serial_number)
VALUES ($1, $2, $3, $4)
RETURNING ` + pumpColumns + `
`

func (q *Queries) CreatePump(ctx context.Context, arg CreatePumpParams) (Pump, error) {
	return scanPump(q.db.QueryRow(ctx, createPump, arg.TenantID, arg.StationID, arg.Label, arg.SerialNumber))
}

type GetPumpParams struct {
	ID       uuid.UUID
	TenantID uuid.UUID
}

const getPump = `
SELECT ` + pumpColumns + `
FROM pumps
WHERE id = $1 AND tenant_id = $2 AND is_active = true
`

func (q *Queries) GetPump(ctx context.Context, arg GetPumpParams) (Pump, error) {
	return scanPump(q.db.QueryRow(ctx, getPump, arg.ID, arg.TenantID))
}

type SoftDeletePumpParams struct {
	ID       uuid.UUID
	TenantID uuid.UUID
}

const softDeletePump = `
UPDATE pumps
SET is_active = false
WHERE id = $1 AND tenant_id = $2 AND is_active = true
RETURNING id
`

func (q *Queries) SoftDeletePump(ctx context.Context, arg SoftDeletePumpParams) (uuid.UUID, error) {
	var id uuid.UUID
	err := q.db.QueryRow(ctx, softDeletePump, arg.ID, arg.TenantID).Scan(&id)
	return id, err
}
