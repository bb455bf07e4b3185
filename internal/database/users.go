package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const userColumns = `id, tenant_id, station_id, email, hashed_password, full_name, role, is_active, created_at, updated_at`

func scanUser(row interface{ Scan(dest ...any) error }) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.TenantID, &u.StationID, &u.Email, &u.HashedPassword,
		&u.FullName, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

const getUserByEmail = `
SELECT ` + userColumns + `
FROM users
WHERE email = $1 AND is_active = true
`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(q.db.QueryRow(ctx, getUserByEmail, email))
}

const getUserByID = `
SELECT ` + userColumns + `
FROM users
WHERE id = $1 AND is_active = true
`

func (q *Queries) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	return scanUser(q.db.QueryRow(ctx, getUserByID, id))
}

const listUsersByTenant = `
SELECT ` + userColumns + `
FROM users
WHERE tenant_id = $1 AND is_active = true
ORDER BY created_at
`

func (q *Queries) ListUsersByTenant(ctx context.Context, tenantID uuid.UUID) ([]User, error) {
	rows, err := q.db.Query(ctx, listUsersByTenant, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, u)
	}
	return items, rows.Err()
}

type CreateUserParams struct {
	TenantID       uuid.UUID
	StationID      pgtype.UUID
	Email          string
	HashedPassword string
	FullName       string
	Role           string
}

const createUser = `
INSERT INTO users (tenant_id, station_id, email, hashed_password, full_name, role)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + userColumns + `
`

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	return scanUser(q.db.QueryRow(ctx, createUser,
		arg.TenantID, arg.StationID, arg.Email, arg.HashedPassword, arg.FullName, arg.Role))
}

type UpdateUserParams struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	FullName  string
	Role      string
	StationID pgtype.UUID
}

const updateUser = `
UPDATE users
SET full_name = $3, role = $4, station_id = $5, updated_at = NOW()
WHERE id = $1 AND tenant_id = $2 AND is_active = true
RETURNING ` + userColumns + `
`

func (q *Queries) UpdateUser(ctx context.Context, arg UpdateUserParams) (User, error) {
	return scanUser(q.db.QueryRow(ctx, updateUser,
		arg.ID, arg.TenantID, arg.FullName, arg.Role, arg.StationID))
}

type SoftDeleteUserParams struct {
	ID       uuid.UUID
	TenantID uuid.UUID
}

const softDeleteUser = `
UPDATE users
SET is_active = false, updated_at = NOW()
WHERE id = $1 AND tenant_id = $2 AND is_active = true
RETURNING id
`

func (q *Queries) SoftDeleteUser(ctx context.Context, arg SoftDeleteUserParams) (uuid.UUID, error) {
	var id uuid.UUID
	err := q.db.QueryRow(ctx, softDeleteUser, arg.ID, arg.TenantID).Scan(&id)
	return id, err
}
