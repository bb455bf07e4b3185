package database

import (
	"context"

	"github.com/google/uuid"
)

const nozzleColumns = `id, tenant_id, pump_id, nozzle_number, fuel_type, is_active, created_at`

func scanNozzle(row interface{ Scan(dest ...any) error }) (Nozzle, error) {
	var n Nozzle
	err := row.Scan(&n.ID, &n.TenantID, &n.PumpID, &n.NozzleNumber, &n.FuelType, &n.IsActive, &n.CreatedAt)
	return n, err
}

type ListNozzlesByPumpParams struct {
	PumpID   uuid.UUID
	TenantID uuid.UUID
}

const listNozzlesByPump = `
SELECT ` + nozzleColumns + `
FROM nozzles
WHERE pump_id = $1 AND tenant_id = $2 AND is_active = true
ORDER BY nozzle_number
`

func (q *Queries) ListNozzlesByPump(ctx context.Context, arg ListNozzlesByPumpParams) ([]Nozzle, error) {
	rows, err := q.db.Query(ctx, listNozzlesByPump, arg.PumpID, arg.TenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Nozzle
	for rows.Next() {
		n, err := scanNozzle(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, n)
	}
	return items, rows.Err()
}

type CreateNozzleParams struct {
	TenantID     uuid.UUID
	PumpID       uuid.UUID
	NozzleNumber int32
	FuelType     string
}

const createNozzle = `
INSERT INTO nozzles (tenant_id, pump_id, nozzle_number, fuel_type)
VALUES ($1, $2, $3, $4)
RETURNING ` + nozzleColumns + `
`

func (q *Queries) CreateNozzle(ctx context.Context, arg CreateNozzleParams) (Nozzle, error) {
	return scanNozzle(q.db.QueryRow(ctx, createNozzle,
		arg.TenantID, arg.PumpID, arg.NozzleNumber, arg.FuelType))
}

type SoftDeleteNozzleParams struct {
	ID       uuid.UUID
	TenantID uuid.UUID
}

const softDeleteNozzle = `
UPDATE nozzles
SET is_active = false
WHERE id = $1 AND tenant_id = $2 AND is_active = true
RETURNING id
`

func (q *Queries) SoftDeleteNozzle(ctx context.Context, arg SoftDeleteNozzleParams) (uuid.UUID, error) {
	var id uuid.UUID
	err := q.db.QueryRow(ctx, softDeleteNozzle, arg.ID, arg.TenantID).Scan(&id)
	return id, err
}

// GetNozzleForReadingRow carries the station the nozzle hangs off, needed to
// pick the right price and closure row when a reading comes in.
type GetNozzleForReadingRow struct {
	ID        uuid.UUID
	FuelType  string
	PumpID    uuid.UUID
	StationID uuid.UUID
}

type GetNozzleForReadingParams struct {
	ID       uuid.UUID
	TenantID uuid.UUID
}

const getNozzleForReading = `
SELECT n.id, n.fuel_type, n.pump_id, p.station_id
FROM nozzles n
JOIN pumps p ON n.pump_id = p.id
WHERE n.id = $1 AND n.tenant_id = $2 AND n.is_active = true
`

func (q *Queries) GetNozzleForReading(ctx context.Context, arg GetNozzleForReadingParams) (GetNozzleForReadingRow, error) {
	var r GetNozzleForReadingRow
	err := q.db.QueryRow(ctx, getNozzleForReading, arg.ID, arg.TenantID).
		Scan(&r.ID, &r.FuelType, &r.PumpID, &r.StationID)
	return r, err
}
