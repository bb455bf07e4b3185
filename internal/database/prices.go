package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const fuelPriceColumns = `id, tenant_id, station_id, fuel_type, price, valid_from, created_at`

func scanFuelPrice(row interface{ Scan(dest ...any) error }) (FuelPrice, error) {
	var p FuelPrice
	err := row.Scan(&p.ID, &p.TenantID, &p.StationID, &p.FuelType, &p.Price, &p.ValidFrom, &p.CreatedAt)
	return p, err
}

type ListFuelPricesByStationParams struct {
	StationID uuid.UUID
	TenantID  uuid.UUID
}

const listFuelPricesByStation = `
SELECT ` + fuelPriceColumns + `
FROM fuel_prices
WHERE station_id = $1 AND tenant_id = $2
ORDER BY fuel_type, valid_from DESC
`

func (q *Queries) ListFuelPricesByStation(ctx context.Context, arg ListFuelPricesByStationParams) ([]FuelPrice, error) {
	rows, err := q.db.Query(ctx, listFuelPricesByStation, arg.StationID, arg.TenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []FuelPrice
	for rows.Next() {
		p, err := scanFuelPrice(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

type CreateFuelPriceParams struct {
	TenantID  uuid.UUID
	StationID uuid.UUID
	FuelType  string
	Price     pgtype.Numeric
	ValidFrom time.Time
}

const createFuelPrice = `
INSERT INTO fuel_prices (tenant_id, station_id, fuel_type, price, valid_from)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + fuelPriceColumns + `
`

func (q *Queries) CreateFuelPrice(ctx context.Context, arg CreateFuelPriceParams) (FuelPrice, error) {
	return scanFuelPrice(q.db.QueryRow(ctx, createFuelPrice,
		arg.TenantID, arg.StationID, arg.FuelType, arg.Price, arg.ValidFrom))
}

type GetFuelPriceAtParams struct {
	StationID uuid.UUID
	TenantID  uuid.UUID
	FuelType  string
	At        time.Time
}

// Latest price whose valid_from does not postdate the reading timestamp.
const getFuelPriceAt = `
SELECT ` + fuelPriceColumns + `
FROM fuel_prices
WHERE station_id = $1 AND tenant_id = $2 AND fuel_type = $3 AND valid_from <= $4
ORDER BY valid_from DESC
LIMIT 1
`

func (q *Queries) GetFuelPriceAt(ctx context.Context, arg GetFuelPriceAtParams) (FuelPrice, error) {
	return scanFuelPrice(q.db.QueryRow(ctx, getFuelPriceAt,
		arg.StationID, arg.TenantID, arg.FuelType, arg.At))
}
