package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const creditorColumns = `id, tenant_id, station_id, name, phone, credit_limit, balance, is_active, created_at`

func scanCreditor(row interface{ Scan(dest ...any) error }) (Creditor, error) {
	var c Creditor
	err := row.Scan(&c.ID, &c.TenantID, &c.StationID, &c.Name, &c.Phone,
		&c.CreditLimit, &c.Balance, &c.IsActive, &c.CreatedAt)
	return c, err
}

type ListCreditorsByStationParams struct {
	StationID uuid.UUID
	TenantID  uuid.UUID
}

const listCreditorsByStation = `
SELECT ` + creditorColumns + `
FROM creditors
WHERE station_id = $1 AND tenant_id = $2 AND is_active = true
ORDER BY name
`

func (q *Queries) ListCreditorsByStation(ctx context.Context, arg ListCreditorsByStationParams) ([]Creditor, error) {
	rows, err := q.db.Query(ctx, listCreditorsByStation, arg.StationID, arg.TenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Creditor
	for rows.Next() {
		c, err := scanCreditor(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

type CreateCreditorParams struct {
	TenantID    uuid.UUID
	StationID   uuid.UUID
	Name        string
	Phone       pgtype.Text
	CreditLimit pgtype.Numeric
}

const createCreditor = `
INSERT INTO creditors (tenant_id, station_id, name, phone, credit_limit)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + creditorColumns + `
`

func (q *Queries) CreateCreditor(ctx context.Context, arg CreateCreditorParams) (Creditor, error) {
	return scanCreditor(q.db.QueryRow(ctx, createCreditor,
		arg.TenantID, arg.StationID, arg.Name, arg.Phone, arg.CreditLimit))
}

type GetCreditorParams struct {
	ID       uuid.UUID
	TenantID uuid.UUID
}

// Locked: a credit sale reads the balance, checks the limit, then increments,
// and concurrent credit readings must not interleave those steps.
const getCreditorForUpdate = `
SELECT ` + creditorColumns + `
FROM creditors
WHERE id = $1 AND tenant_id = $2 AND is_active = true
FOR NO KEY UPDATE
`

func (q *Queries) GetCreditorForUpdate(ctx context.Context, arg GetCreditorParams) (Creditor, error) {
	return scanCreditor(q.db.QueryRow(ctx, getCreditorForUpdate, arg.ID, arg.TenantID))
}

type IncrementCreditorBalanceParams struct {
	ID       uuid.UUID
	TenantID uuid.UUID
	Amount   pgtype.Numeric
}

const incrementCreditorBalance = `
UPDATE creditors
SET balance = balance + $3
WHERE id = $1 AND tenant_id = $2 AND is_active = true
RETURNING ` + creditorColumns + `
`

func (q *Queries) IncrementCreditorBalance(ctx context.Context, arg IncrementCreditorBalanceParams) (Creditor, error) {
	return scanCreditor(q.db.QueryRow(ctx, incrementCreditorBalance, arg.ID, arg.TenantID, arg.Amount))
}

type SoftDeleteCreditorParams struct {
	ID       uuid.UUID
	TenantID uuid.UUID
}

const softDeleteCreditor = `
UPDATE creditors
SET is_active = false
WHERE id = $1 AND tenant_id = $2 AND is_active = true
RETURNING id
`

func (q *Queries) SoftDeleteCreditor(ctx context.Context, arg SoftDeleteCreditorParams) (uuid.UUID, error) {
	var id uuid.UUID
	err := q.db.QueryRow(ctx, softDeleteCreditor, arg.ID, arg.TenantID).Scan(&id)
	return id, err
}
