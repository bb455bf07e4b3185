package database

import (
	"context"

	"github.com/google/uuid"
)

const listTenants = `
SELECT id, name, plan, status, created_at, updated_at
FROM tenants
ORDER BY created_at DESC
`

func (q *Queries) ListTenants(ctx context.Context) ([]Tenant, error) {
	rows, err := q.db.Query(ctx, listTenants)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Tenant
	for rows.Next() {
		var t Tenant
		if err := rows.Scan(&t.ID, &t.Name, &t.Plan, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

const getTenant = `
SELECT id, name, plan, status, created_at, updated_at
FROM tenants
WHERE id = $1
`

func (q *Queries) GetTenant(ctx context.Context, id uuid.UUID) (Tenant, error) {
	var t Tenant
	err := q.db.QueryRow(ctx, getTenant, id).
		Scan(&t.ID, &t.Name, &t.Plan, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

type CreateTenantParams struct {
	Name   string
	Plan   string
	Status string
}

const createTenant = `
INSERT INTO tenants (name, plan, status)
VALUES ($1, $2, $3)
RETURNING id, name, plan, status, created_at, updated_at
`

func (q *Queries) CreateTenant(ctx context.Context, arg CreateTenantParams) (Tenant, error) {
	var t Tenant
	err := q.db.QueryRow(ctx, createTenant, arg.Name, arg.Plan, arg.Status).
		Scan(&t.ID, &t.Name, &t.Plan, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

type UpdateTenantStatusParams struct {
	ID     uuid.UUID
	Status string
}

const updateTenantStatus = `
UPDATE tenants
SET status = $2, updated_at = NOW()
WHERE id = $1
RETURNING id, name, plan, status, created_at, updated_at
`

func (q *Queries) UpdateTenantStatus(ctx context.Context, arg UpdateTenantStatusParams) (Tenant, error) {
	var t Tenant
	err := q.db.QueryRow(ctx, updateTenantStatus, arg.ID, arg.Status).
		Scan(&t.ID, &t.Name, &t.Plan, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}
