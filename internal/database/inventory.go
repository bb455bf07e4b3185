package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const fuelInventoryColumns = `id, tenant_id, station_id, fuel_type, current_stock, minimum_level, last_updated`

func scanFuelInventory(row interface{ Scan(dest ...any) error }) (FuelInventory, error) {
	var f FuelInventory
	err := row.Scan(&f.ID, &f.TenantID, &f.StationID, &f.FuelType, &f.CurrentStock, &f.MinimumLevel, &f.LastUpdated)
	return f, err
}

type ListFuelInventoryParams struct {
	StationID uuid.UUID
	TenantID  uuid.UUID
}

const listFuelInventoryByStation = `
SELECT ` + fuelInventoryColumns + `
FROM fuel_inventory
WHERE station_id = $1 AND tenant_id = $2
ORDER BY fuel_type
`

func (q *Queries) ListFuelInventoryByStation(ctx context.Context, arg ListFuelInventoryParams) ([]FuelInventory, error) {
	rows, err := q.db.Query(ctx, listFuelInventoryByStation, arg.StationID, arg.TenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []FuelInventory
	for rows.Next() {
		f, err := scanFuelInventory(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, f)
	}
	return items, rows.Err()
}

type UpsertFuelInventoryParams struct {
	TenantID     uuid.UUID
	StationID    uuid.UUID
	FuelType     string
	CurrentStock pgtype.Numeric
	MinimumLevel pgtype.Numeric
}

const upsertFuelInventory = `
INSERT INTO fuel_inventory (tenant_id, station_id, fuel_type, current_stock, minimum_level)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (station_id, fuel_type)
DO UPDATE SET current_stock = EXCLUDED.current_stock,
              minimum_level = EXCLUDED.minimum_level,
              last_updated = NOW()
RETURNING ` + fuelInventoryColumns + `
`

func (q *Queries) UpsertFuelInventory(ctx context.Context, arg UpsertFuelInventoryParams) (FuelInventory, error) {
	return scanFuelInventory(q.db.QueryRow(ctx, upsertFuelInventory,
		arg.TenantID, arg.StationID, arg.FuelType, arg.CurrentStock, arg.MinimumLevel))
}

type DeductFuelInventoryParams struct {
	StationID uuid.UUID
	TenantID  uuid.UUID
	FuelType  string
	Volume    pgtype.Numeric
}

const deductFuelInventory = `
UPDATE fuel_inventory
SET current_stock = current_stock - $4, last_updated = NOW()
WHERE station_id = $1 AND tenant_id = $2 AND fuel_type = $3
RETURNING ` + fuelInventoryColumns + `
`

// DeductFuelInventory decrements tank stock by a sale's volume. Returns
// pgx.ErrNoRows when the station does not track stock for the fuel type.
func (q *Queries) DeductFuelInventory(ctx context.Context, arg DeductFuelInventoryParams) (FuelInventory, error) {
	return scanFuelInventory(q.db.QueryRow(ctx, deductFuelInventory,
		arg.StationID, arg.TenantID, arg.FuelType, arg.Volume))
}
