package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const dailyClosureColumns = `id, tenant_id, station_id, date, reported_cash_amount, variance_amount, variance_reason, is_closed, closed_by, closed_at`

func scanDailyClosure(row interface{ Scan(dest ...any) error }) (DailyClosure, error) {
	var c DailyClosure
	err := row.Scan(&c.ID, &c.TenantID, &c.StationID, &c.Date,
		&c.ReportedCashAmount, &c.VarianceAmount, &c.VarianceReason,
		&c.IsClosed, &c.ClosedBy, &c.ClosedAt)
	return c, err
}

type GetDailyClosureParams struct {
	StationID uuid.UUID
	TenantID  uuid.UUID
	Date      time.Time
}

const getDailyClosure = `
SELECT ` + dailyClosureColumns + `
FROM daily_closures
WHERE station_id = $1 AND tenant_id = $2 AND date = $3
`

func (q *Queries) GetDailyClosure(ctx context.Context, arg GetDailyClosureParams) (DailyClosure, error) {
	return scanDailyClosure(q.db.QueryRow(ctx, getDailyClosure, arg.StationID, arg.TenantID, arg.Date))
}

// Locked variant used inside the closure transaction: the closed flag must be
// re-checked at commit time, not only at request time.
const getDailyClosureForUpdate = `
SELECT ` + dailyClosureColumns + `
FROM daily_closures
WHERE station_id = $1 AND tenant_id = $2 AND date = $3
FOR UPDATE
`

func (q *Queries) GetDailyClosureForUpdate(ctx context.Context, arg GetDailyClosureParams) (DailyClosure, error) {
	return scanDailyClosure(q.db.QueryRow(ctx, getDailyClosureForUpdate, arg.StationID, arg.TenantID, arg.Date))
}

type CreateDailyClosureParams struct {
	TenantID           uuid.UUID
	StationID          uuid.UUID
	Date               time.Time
	ReportedCashAmount pgtype.Numeric
	VarianceAmount     pgtype.Numeric
	VarianceReason     pgtype.Text
	ClosedBy           uuid.UUID
}

const createDailyClosure = `
INSERT INTO daily_closures (tenant_id, station_id, date, reported_cash_amount, variance_amount, variance_reason, is_closed, closed_by, closed_at)
VALUES ($1, $2, $3, $4, $5, $6, true, $7, NOW())
RETURNING ` + dailyClosureColumns + `
`

func (q *Queries) CreateDailyClosure(ctx context.Context, arg CreateDailyClosureParams) (DailyClosure, error) {
	return scanDailyClosure(q.db.QueryRow(ctx, createDailyClosure,
		arg.TenantID, arg.StationID, arg.Date,
		arg.ReportedCashAmount, arg.VarianceAmount, arg.VarianceReason, arg.ClosedBy))
}

type ListDailyClosuresParams struct {
	StationID uuid.UUID
	TenantID  uuid.UUID
}

const listDailyClosures = `
SELECT ` + dailyClosureColumns + `
FROM daily_closures
WHERE station_id = $1 AND tenant_id = $2
ORDER BY date DESC
`

func (q *Queries) ListDailyClosures(ctx context.Context, arg ListDailyClosuresParams) ([]DailyClosure, error) {
	rows, err := q.db.Query(ctx, listDailyClosures, arg.StationID, arg.TenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []DailyClosure
	for rows.Next() {
		c, err := scanDailyClosure(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}
