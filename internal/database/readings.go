package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type GetLastNozzleReadingParams struct {
	NozzleID uuid.UUID
	TenantID uuid.UUID
}

// Latest meter snapshot for a nozzle. Locked so two concurrent entries for the
// same nozzle serialize instead of both computing deltas off the same base.
const getLastNozzleReadingForUpdate = `
SELECT id, tenant_id, nozzle_id, reading, recorded_at, payment_method, creditor_id, recorded_by, created_at
FROM nozzle_readings
WHERE nozzle_id = $1 AND tenant_id = $2
ORDER BY recorded_at DESC
LIMIT 1
FOR UPDATE
`

func (q *Queries) GetLastNozzleReadingForUpdate(ctx context.Context, arg GetLastNozzleReadingParams) (NozzleReading, error) {
	var r NozzleReading
	err := q.db.QueryRow(ctx, getLastNozzleReadingForUpdate, arg.NozzleID, arg.TenantID).
		Scan(&r.ID, &r.TenantID, &r.NozzleID, &r.Reading, &r.RecordedAt,
			&r.PaymentMethod, &r.CreditorID, &r.RecordedBy, &r.CreatedAt)
	return r, err
}

type CreateNozzleReadingParams struct {
	TenantID      uuid.UUID
	NozzleID      uuid.UUID
	Reading       pgtype.Numeric
	RecordedAt    time.Time
	PaymentMethod string
	CreditorID    pgtype.UUID
	RecordedBy    uuid.UUID
}

const createNozzleReading = `
INSERT INTO nozzle_readings (tenant_id, nozzle_id, reading, recorded_at, payment_method, creditor_id, recorded_by)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, tenant_id, nozzle_id, reading, recorded_at, payment_method, creditor_id, recorded_by, created_at
`

func (q *Queries) CreateNozzleReading(ctx context.Context, arg CreateNozzleReadingParams) (NozzleReading, error) {
	var r NozzleReading
	err := q.db.QueryRow(ctx, createNozzleReading,
		arg.TenantID, arg.NozzleID, arg.Reading, arg.RecordedAt,
		arg.PaymentMethod, arg.CreditorID, arg.RecordedBy).
		Scan(&r.ID, &r.TenantID, &r.NozzleID, &r.Reading, &r.RecordedAt,
			&r.PaymentMethod, &r.CreditorID, &r.RecordedBy, &r.CreatedAt)
	return r, err
}

type CreateSaleParams struct {
	TenantID      uuid.UUID
	StationID     uuid.UUID
	NozzleID      uuid.UUID
	ReadingID     uuid.UUID
	FuelType      string
	Volume        pgtype.Numeric
	FuelPrice     pgtype.Numeric
	Amount        pgtype.Numeric
	PaymentMethod string
	CreditorID    pgtype.UUID
	RecordedAt    time.Time
	CreatedBy     uuid.UUID
}

const createSale = `
INSERT INTO sales (tenant_id, station_id, nozzle_id, reading_id, fuel_type, volume, fuel_price, amount, payment_method, creditor_id, recorded_at, created_by)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING id, tenant_id, station_id, nozzle_id, reading_id, fuel_type, volume, fuel_price, amount, payment_method, creditor_id, recorded_at, created_by
`

func (q *Queries) CreateSale(ctx context.Context, arg CreateSaleParams) (Sale, error) {
	var s Sale
	err := q.db.QueryRow(ctx, createSale,
		arg.TenantID, arg.StationID, arg.NozzleID, arg.ReadingID, arg.FuelType,
		arg.Volume, arg.FuelPrice, arg.Amount, arg.PaymentMethod, arg.CreditorID,
		arg.RecordedAt, arg.CreatedBy).
		Scan(&s.ID, &s.TenantID, &s.StationID, &s.NozzleID, &s.ReadingID, &s.FuelType,
			&s.Volume, &s.FuelPrice, &s.Amount, &s.PaymentMethod, &s.CreditorID,
			&s.RecordedAt, &s.CreatedBy)
	return s, err
}

// ListStationReadingsRow is a reading joined with its nozzle and pump context
// plus the previous snapshot of the same nozzle.
type ListStationReadingsRow struct {
	ID              uuid.UUID
	NozzleID        uuid.UUID
	NozzleNumber    int32
	PumpLabel       string
	FuelType        string
	PreviousReading pgtype.Numeric
	Reading         pgtype.Numeric
	RecordedAt      time.Time
	PaymentMethod   string
	CreditorID      pgtype.UUID
}

type ListStationReadingsParams struct {
	StationID uuid.UUID
	TenantID  uuid.UUID
	From      time.Time
	To        time.Time
}

const listStationReadings = `
WITH ordered AS (
  SELECT nr.id, nr.nozzle_id, n.nozzle_number, p.label AS pump_label, n.fuel_type,
         LAG(nr.reading) OVER (PARTITION BY nr.nozzle_id ORDER BY nr.recorded_at) AS previous_reading,
         nr.reading, nr.recorded_at, nr.payment_method, nr.creditor_id
  FROM nozzle_readings nr
  JOIN nozzles n ON nr.nozzle_id = n.id
  JOIN pumps p ON n.pump_id = p.id
  WHERE p.station_id = $1 AND nr.tenant_id = $2
)
SELECT id, nozzle_id, nozzle_number, pump_label, fuel_type, previous_reading, reading, recorded_at, payment_method, creditor_id
FROM ordered
WHERE recorded_at >= $3 AND recorded_at < $4
ORDER BY recorded_at DESC
`

func (q *Queries) ListStationReadings(ctx context.Context, arg ListStationReadingsParams) ([]ListStationReadingsRow, error) {
	rows, err := q.db.Query(ctx, listStationReadings, arg.StationID, arg.TenantID, arg.From, arg.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListStationReadingsRow
	for rows.Next() {
		var r ListStationReadingsRow
		if err := rows.Scan(&r.ID, &r.NozzleID, &r.NozzleNumber, &r.PumpLabel, &r.FuelType,
			&r.PreviousReading, &r.Reading, &r.RecordedAt, &r.PaymentMethod, &r.CreditorID); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

// ReadingDeltaRow feeds the sales aggregator: one row per reading recorded in
// the window, with the previous snapshot of the same nozzle (NULL for the
// first reading ever taken on a nozzle).
type ReadingDeltaRow struct {
	NozzleID        uuid.UUID
	FuelType        string
	PreviousReading pgtype.Numeric
	CurrentReading  pgtype.Numeric
	RecordedAt      time.Time
	PaymentMethod   string
}

type ListReadingDeltasForDayParams struct {
	StationID uuid.UUID
	TenantID  uuid.UUID
	DayStart  time.Time
	DayEnd    time.Time
}

const listReadingDeltasForDay = `
WITH ordered AS (
  SELECT nr.nozzle_id, n.fuel_type,
         LAG(nr.reading) OVER (PARTITION BY nr.nozzle_id ORDER BY nr.recorded_at) AS previous_reading,
         nr.reading AS current_reading, nr.recorded_at, nr.payment_method
  FROM nozzle_readings nr
  JOIN nozzles n ON nr.nozzle_id = n.id
  JOIN pumps p ON n.pump_id = p.id
  WHERE p.station_id = $1 AND nr.tenant_id = $2
)
SELECT nozzle_id, fuel_type, previous_reading, current_reading, recorded_at, payment_method
FROM ordered
WHERE recorded_at >= $3 AND recorded_at < $4
ORDER BY recorded_at
`

func (q *Queries) ListReadingDeltasForDay(ctx context.Context, arg ListReadingDeltasForDayParams) ([]ReadingDeltaRow, error) {
	rows, err := q.db.Query(ctx, listReadingDeltasForDay, arg.StationID, arg.TenantID, arg.DayStart, arg.DayEnd)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ReadingDeltaRow
	for rows.Next() {
		var r ReadingDeltaRow
		if err := rows.Scan(&r.NozzleID, &r.FuelType, &r.PreviousReading, &r.CurrentReading,
			&r.RecordedAt, &r.PaymentMethod); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}
