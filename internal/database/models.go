package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type Tenant struct {
	ID        uuid.UUID
	Name      string
	Plan      string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type User struct {
	ID             uuid.UUID
	TenantID       uuid.UUID
	StationID      pgtype.UUID
	Email          string
	HashedPassword string
	FullName       string
	Role           string
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Station struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	Name      string
	Address   pgtype.Text
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Pump struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	StationID    uuid.UUID
	Label        string
	SerialNumber pgtype.Text
	IsActive     bool
	CreatedAt    time.Time
}

type Nozzle struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	PumpID       uuid.UUID
	NozzleNumber int32
	FuelType     string
	IsActive     bool
	CreatedAt    time.Time
}

type FuelPrice struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	StationID uuid.UUID
	FuelType  string
	Price     pgtype.Numeric
	ValidFrom time.Time
	CreatedAt time.Time
}

type NozzleReading struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	NozzleID      uuid.UUID
	Reading       pgtype.Numeric
	RecordedAt    time.Time
	PaymentMethod string
	CreditorID    pgtype.UUID
	RecordedBy    uuid.UUID
	CreatedAt     time.Time
}

// Sale is the revenue row derived from a nozzle reading at creation time.
// Price and fuel type are snapshotted so later price changes never rewrite
// history.
type Sale struct {
	ID            uuid.UUID
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

type CashReport struct {
	ID           uuid.UUID
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
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Creditor struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	StationID   uuid.UUID
	Name        string
	Phone       pgtype.Text
	CreditLimit pgtype.Numeric
	Balance     pgtype.Numeric
	IsActive    bool
	CreatedAt   time.Time
}

// FuelInventory tracks current tank stock per station and fuel type. Stock is
// decremented by sale volume when a reading is recorded.
type FuelInventory struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	StationID    uuid.UUID
	FuelType     string
	CurrentStock pgtype.Numeric
	MinimumLevel pgtype.Numeric
	LastUpdated  time.Time
}

type Alert struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	StationID pgtype.UUID
	AlertType string
	Message   string
	Severity  string
	IsRead    bool
	CreatedAt time.Time
}

// DailyClosure is terminal: rows are only ever written with IsClosed = true
// and a unique (tenant_id, station_id, date) constraint makes the transition
// at-most-once.
type DailyClosure struct {
	ID                 uuid.UUID
	TenantID           uuid.UUID
	StationID          uuid.UUID
	Date               time.Time
	ReportedCashAmount pgtype.Numeric
	VarianceAmount     pgtype.Numeric
	VarianceReason     pgtype.Text
	IsClosed           bool
	ClosedBy           uuid.UUID
	ClosedAt           time.Time
}
