package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type DailySalesByMethodRow struct {
	PaymentMethod string
	SaleCount     int64
	TotalVolume   pgtype.Numeric
	TotalAmount   pgtype.Numeric
}

type GetDailySalesByMethodParams struct {
	StationID uuid.UUID
	TenantID  uuid.UUID
	DayStart  time.Time
	DayEnd    time.Time
}

const getDailySalesByMethod = `
SELECT payment_method,
       COUNT(*) AS sale_count,
       COALESCE(SUM(volume), 0) AS total_volume,
       COALESCE(SUM(amount), 0) AS total_amount
FROM sales
WHERE station_id = $1 AND tenant_id = $2 AND recorded_at >= $3 AND recorded_at < $4
GROUP BY payment_method
ORDER BY payment_method
`

func (q *Queries) GetDailySalesByMethod(ctx context.Context, arg GetDailySalesByMethodParams) ([]DailySalesByMethodRow, error) {
	rows, err := q.db.Query(ctx, getDailySalesByMethod, arg.StationID, arg.TenantID, arg.DayStart, arg.DayEnd)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []DailySalesByMethodRow
	for rows.Next() {
		var r DailySalesByMethodRow
		if err := rows.Scan(&r.PaymentMethod, &r.SaleCount, &r.TotalVolume, &r.TotalAmount); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

type DailySalesByFuelRow struct {
	FuelType    string
	SaleCount   int64
	TotalVolume pgtype.Numeric
	TotalAmount pgtype.Numeric
}

const getDailySalesByFuel = `
SELECT fuel_type,
       COUNT(*) AS sale_count,
       COALESCE(SUM(volume), 0) AS total_volume,
       COALESCE(SUM(amount), 0) AS total_amount
FROM sales
WHERE station_id = $1 AND tenant_id = $2 AND recorded_at >= $3 AND recorded_at < $4
GROUP BY fuel_type
ORDER BY fuel_type
`

func (q *Queries) GetDailySalesByFuel(ctx context.Context, arg GetDailySalesByMethodParams) ([]DailySalesByFuelRow, error) {
	rows, err := q.db.Query(ctx, getDailySalesByFuel, arg.StationID, arg.TenantID, arg.DayStart, arg.DayEnd)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []DailySalesByFuelRow
	for rows.Next() {
		var r DailySalesByFuelRow
		if err := rows.Scan(&r.FuelType, &r.SaleCount, &r.TotalVolume, &r.TotalAmount); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}
