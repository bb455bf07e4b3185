package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const cashReportColumns = `id, tenant_id, station_id, date, shift, cash_amount, card_amount, upi_amount, credit_amount, notes, reported_by, created_at, updated_at`

func scanCashReport(row interface{ Scan(dest ...any) error }) (CashReport, error) {
	var c CashReport
	err := row.Scan(&c.ID, &c.TenantID, &c.StationID, &c.Date, &c.Shift,
		&c.CashAmount, &c.CardAmount, &c.UpiAmount, &c.CreditAmount,
		&c.Notes, &c.ReportedBy, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

type UpsertCashReportParams struct {
	TenantID     uuid.UUID
	StationID    uuid.UUID
	Date         time.Time
	Shift        string
	CashAmount   pgtype.Numeric
	CardAmount   pgtype.Numeric
	UpiAmount    pgtype.Numeric
	CreditAmount pgtype.Numeric
	Notes        pgtype.Text
	ReportedBy   uuid.UUID
}

// One report per station/date/shift; attendants correct their numbers by
// resubmitting until the day closes.
const upsertCashReport = `
INSERT INTO cash_reports (tenant_id, station_id, date, shift, cash_amount, card_amount, upi_amount, credit_amount, notes, reported_by)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (tenant_id, station_id, date, shift) DO UPDATE
SET cash_amount = EXCLUDED.cash_amount,
    card_amount = EXCLUDED.card_amount,
    upi_amount = EXCLUDED.upi_amount,
    credit_amount = EXCLUDED.credit_amount,
    notes = EXCLUDED.notes,
    reported_by = EXCLUDED.reported_by,
    updated_at = NOW()
RETURNING ` + cashReportColumns + `
`

func (q *Queries) UpsertCashReport(ctx context.Context, arg UpsertCashReportParams) (CashReport, error) {
	return scanCashReport(q.db.QueryRow(ctx, upsertCashReport,
		arg.TenantID, arg.StationID, arg.Date, arg.Shift,
		arg.CashAmount, arg.CardAmount, arg.UpiAmount, arg.CreditAmount,
		arg.Notes, arg.ReportedBy))
}

type ListCashReportsForDayParams struct {
	StationID uuid.UUID
	TenantID  uuid.UUID
	Date      time.Time
}

const listCashReportsForDay = `
SELECT ` + cashReportColumns + `
FROM cash_reports
WHERE station_id = $1 AND tenant_id = $2 AND date = $3
ORDER BY shift
`

func (q *Queries) ListCashReportsForDay(ctx context.Context, arg ListCashReportsForDayParams) ([]CashReport, error) {
	rows, err := q.db.Query(ctx, listCashReportsForDay, arg.StationID, arg.TenantID, arg.Date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CashReport
	for rows.Next() {
		c, err := scanCashReport(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

type ListCashReportsByStationParams struct {
	StationID uuid.UUID
	TenantID  uuid.UUID
	From      time.Time
	To        time.Time
}

const listCashReportsByStation = `
SELECT ` + cashReportColumns + `
FROM cash_reports
WHERE station_id = $1 AND tenant_id = $2 AND date >= $3 AND date < $4
ORDER BY date DESC, shift
`

func (q *Queries) ListCashReportsByStation(ctx context.Context, arg ListCashReportsByStationParams) ([]CashReport, error) {
	rows, err := q.db.Query(ctx, listCashReportsByStation, arg.StationID, arg.TenantID, arg.From, arg.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CashReport
	for rows.Next() {
		c, err := scanCashReport(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}
