package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const stationColumns = `id, tenant_id, name, address, is_active, created_at, updated_at`

func scanStation(row interface{ Scan(dest ...any) error }) (Station, error) {
	var s Station
	err := row.Scan(&s.ID, &s.TenantID, &s.Name, &s.Address, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

const listStationsByTenant = `
SELECT ` + stationColumns + `
FROM stations
WHERE tenant_id = $1 AND is_active = true
ORDER BY name
`

func (q *Queries) ListStationsByTenant(ctx context.Context, tenantID uuid.UUID) ([]Station, error) {
	rows, err := q.db.Query(ctx, listStationsByTenant, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Station
	for rows.Next() {
		s, err := scanStation(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

type GetStationParams struct {
	ID       uuid.UUID
	TenantID uuid.UUID
}

const getStation = `
SELECT ` + stationColumns + `
FROM stations
WHERE id = $1 AND tenant_id = $2 AND is_active = true
`

func (q *Queries) GetStation(ctx context.Context, arg GetStationParams) (Station, error) {
	return scanStation(q.db.QueryRow(ctx, getStation, arg.ID, arg.TenantID))
}

const getStationForShare = `
SELECT id
FROM stations
WHERE id = $1 AND tenant_id = $2 AND is_active = true
FOR SHARE
`

// GetStationForShare takes a shared lock on the station row. Writers that must
// not interleave with a day closure (readings, cash reports) take this lock
// before checking the closure flag; CloseDay takes the exclusive form, so a
// closure cannot commit between a writer's check and its insert.
func (q *Queries) GetStationForShare(ctx context.Context, arg GetStationParams) (uuid.UUID, error) {
	var id uuid.UUID
	err := q.db.QueryRow(ctx, getStationForShare, arg.ID, arg.TenantID).Scan(&id)
	return id, err
}

const getStationForUpdate = `
SELECT id
FROM stations
WHERE id = $1 AND tenant_id = $2 AND is_active = true
FOR UPDATE
`

// GetStationForUpdate takes an exclusive lock on the station row, blocking the
// FOR SHARE writers until the closure transaction commits.
func (q *Queries) GetStationForUpdate(ctx context.Context, arg GetStationParams) (uuid.UUID, error) {
	var id uuid.UUID
	err := q.db.QueryRow(ctx, getStationForUpdate, arg.ID, arg.TenantID).Scan(&id)
	return id, err
}

type CreateStationParams struct {
	TenantID uuid.UUID
	Name     string
	Address  pgtype.Text
}

const createStation = `
INSERT INTO stations (tenant_id, name, address)
VALUES ($1, $2, $3)
RETURNING ` + stationColumns + `
`

func (q *Queries) CreateStation(ctx context.Context, arg CreateStationParams) (Station, error) {
	return scanStation(q.db.QueryRow(ctx, createStation, arg.TenantID, arg.Name, arg.Address))
}

type UpdateStationParams struct {
	ID       uuid.UUID
	TenantID uuid.UUID
	Name     string
	Address  pgtype.Text
}

const updateStation = `
UPDATE stations
SET name = $3, address = $4, updated_at = NOW()
WHERE id = $1 AND tenant_id = $2 AND is_active = true
RETURNING ` + stationColumns + `
`

func (q *Queries) UpdateStation(ctx context.Context, arg UpdateStationParams) (Station, error) {
	return scanStation(q.db.QueryRow(ctx, updateStation, arg.ID, arg.TenantID, arg.Name, arg.Address))
}

type SoftDeleteStationParams struct {
	ID       uuid.UUID
	TenantID uuid.UUID
}

const softDeleteStation = `
UPDATE stations
SET is_active = false, updated_at = NOW()
WHERE id = $1 AND tenant_id = $2 AND is_active = true
RETURNING id
`

func (q *Queries) SoftDeleteStation(ctx context.Context, arg SoftDeleteStationParams) (uuid.UUID, error) {
	var id uuid.UUID
	err := q.db.QueryRow(ctx, softDeleteStation, arg.ID, arg.TenantID).Scan(&id)
	return id, err
}
