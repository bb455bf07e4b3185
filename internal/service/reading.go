package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fuelsync/api/internal/database"
	"github.com/fuelsync/api/internal/enum"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// priceMaxAge rejects readings priced against data older than a week. Stale
// prices mean someone forgot to update the board, and silently billing at the
// old rate hides it.
const priceMaxAge = 7 * 24 * time.Hour

var (
	ErrStationNotFound      = errors.New("station not found")
	ErrNozzleNotFound       = errors.New("nozzle not found")
	ErrDayClosed            = errors.New("day is closed for this station")
	ErrReadingBelowPrevious = errors.New("reading must not be below the previous reading")
	ErrPriceStale           = errors.New("fuel price is older than 7 days; update prices first")
	ErrCreditorRequired     = errors.New("credit sales need a creditor")
	ErrCreditorNotFound     = errors.New("creditor not found")
	ErrCreditLimitExceeded  = errors.New("sale would exceed the creditor's credit limit")
)

// ReadingStore defines the DB methods needed to record a nozzle reading and
// its derived sale.
type ReadingStore interface {
	GetStationForShare(ctx context.Context, arg database.GetStationParams) (uuid.UUID, error)
	GetNozzleForReading(ctx context.Context, arg database.GetNozzleForReadingParams) (database.GetNozzleForReadingRow, error)
	GetDailyClosure(ctx context.Context, arg database.GetDailyClosureParams) (database.DailyClosure, error)
	GetLastNozzleReadingForUpdate(ctx context.Context, arg database.GetLastNozzleReadingParams) (database.NozzleReading, error)
	GetFuelPriceAt(ctx context.Context, arg database.GetFuelPriceAtParams) (database.FuelPrice, error)
	GetCreditorForUpdate(ctx context.Context, arg database.GetCreditorParams) (database.Creditor, error)
	IncrementCreditorBalance(ctx context.Context, arg database.IncrementCreditorBalanceParams) (database.Creditor, error)
	CreateNozzleReading(ctx context.Context, arg database.CreateNozzleReadingParams) (database.NozzleReading, error)
	CreateSale(ctx context.Context, arg database.CreateSaleParams) (database.Sale, error)
	DeductFuelInventory(ctx context.Context, arg database.DeductFuelInventoryParams) (database.FuelInventory, error)
	CreateAlert(ctx context.Context, arg database.CreateAlertParams) (database.Alert, error)
	ListStationReadings(ctx context.Context, arg database.ListStationReadingsParams) ([]database.ListStationReadingsRow, error)
}

// NewReadingStore creates a ReadingStore from a DBTX (pool or tx).
type NewReadingStore func(db database.DBTX) ReadingStore

// CreateReadingRequest is the validated input for recording a meter reading.
type CreateReadingRequest struct {
	TenantID      uuid.UUID
	StationID     uuid.UUID
	NozzleID      uuid.UUID
	Reading       decimal.Decimal
	PaymentMethod string
	CreditorID    uuid.UUID
	RecordedBy    uuid.UUID
	RecordedAt    time.Time
}

// CreateReadingResult carries the stored reading, the sale derived from the
// meter delta, and any alerts raised while recording it (low tank stock,
// creditor approaching their limit).
type CreateReadingResult struct {
	Reading database.NozzleReading
	Sale    database.Sale
	Alerts  []database.Alert
}

// ReadingService records cumulative meter readings and derives sales from
// the delta against the previous reading at the price in effect.
type ReadingService struct {
	store    ReadingStore
	pool     TxBeginner
	newStore NewReadingStore
}

// NewReadingService creates a new ReadingService.
func NewReadingService(store ReadingStore, pool TxBeginner, newStore NewReadingStore) *ReadingService {
	return &ReadingService{store: store, pool: pool, newStore: newStore}
}

// CreateReading validates and stores a reading, deriving the sale row in the
// same transaction. The previous reading is locked to serialize writers on
// the same nozzle.
func (s *ReadingService) CreateReading(ctx context.Context, req CreateReadingRequest) (CreateReadingResult, error) {
	if req.PaymentMethod == enum.PaymentMethodCredit && req.CreditorID == uuid.Nil {
		return CreateReadingResult{}, ErrCreditorRequired
	}
	if req.RecordedAt.IsZero() {
		req.RecordedAt = time.Now().UTC()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return CreateReadingResult{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	// Shared lock on the station row. CloseDay locks the same row
	// exclusively, so a closure cannot commit between the closed-day check
	// below and our inserts.
	if _, err := store.GetStationForShare(ctx, database.GetStationParams{
		ID:       req.StationID,
		TenantID: req.TenantID,
	}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CreateReadingResult{}, ErrStationNotFound
		}
		return CreateReadingResult{}, fmt.Errorf("lock station: %w", err)
	}

	nozzle, err := store.GetNozzleForReading(ctx, database.GetNozzleForReadingParams{
		ID:       req.NozzleID,
		TenantID: req.TenantID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CreateReadingResult{}, ErrNozzleNotFound
		}
		return CreateReadingResult{}, fmt.Errorf("get nozzle: %w", err)
	}
	if nozzle.StationID != req.StationID {
		return CreateReadingResult{}, ErrNozzleNotFound
	}

	day := req.RecordedAt.Truncate(24 * time.Hour)
	closure, err := store.GetDailyClosure(ctx, database.GetDailyClosureParams{
		StationID: req.StationID,
		TenantID:  req.TenantID,
		Date:      day,
	})
	if err == nil && closure.IsClosed {
		return CreateReadingResult{}, ErrDayClosed
	}
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return CreateReadingResult{}, fmt.Errorf("get closure: %w", err)
	}

	previous := decimal.Zero
	last, err := store.GetLastNozzleReadingForUpdate(ctx, database.GetLastNozzleReadingParams{
		NozzleID: req.NozzleID,
		TenantID: req.TenantID,
	})
	if err == nil {
		previous = numericToDecimal(last.Reading)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return CreateReadingResult{}, fmt.Errorf("get last reading: %w", err)
	}

	if req.Reading.LessThan(previous) {
		return CreateReadingResult{}, ErrReadingBelowPrevious
	}

	price, err := store.GetFuelPriceAt(ctx, database.GetFuelPriceAtParams{
		StationID: req.StationID,
		TenantID:  req.TenantID,
		FuelType:  nozzle.FuelType,
		At:        req.RecordedAt,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CreateReadingResult{}, fmt.Errorf("%s: %w", nozzle.FuelType, ErrPriceNotFound)
		}
		return CreateReadingResult{}, fmt.Errorf("get fuel price: %w", err)
	}
	if req.RecordedAt.Sub(price.ValidFrom) > priceMaxAge {
		return CreateReadingResult{}, ErrPriceStale
	}

	volume := req.Reading.Sub(previous)
	unitPrice := numericToDecimal(price.Price)
	amount := volume.Mul(unitPrice).Round(2)

	var alerts []database.Alert

	if req.PaymentMethod == enum.PaymentMethodCredit {
		creditor, err := store.GetCreditorForUpdate(ctx, database.GetCreditorParams{
			ID:       req.CreditorID,
			TenantID: req.TenantID,
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return CreateReadingResult{}, ErrCreditorNotFound
			}
			return CreateReadingResult{}, fmt.Errorf("get creditor: %w", err)
		}
		limit := numericToDecimal(creditor.CreditLimit)
		newBalance := numericToDecimal(creditor.Balance).Add(amount)
		if limit.GreaterThan(decimal.Zero) && newBalance.GreaterThan(limit) {
			return CreateReadingResult{}, ErrCreditLimitExceeded
		}
		if _, err := store.IncrementCreditorBalance(ctx, database.IncrementCreditorBalanceParams{
			ID:       req.CreditorID,
			TenantID: req.TenantID,
			Amount:   decimalToNumeric(amount),
		}); err != nil {
			return CreateReadingResult{}, fmt.Errorf("increment creditor balance: %w", err)
		}
		// Warn early: within the limit but past 90% of it
		warnAt := limit.Mul(decimal.NewFromFloat(0.9))
		if limit.GreaterThan(decimal.Zero) && newBalance.GreaterThanOrEqual(warnAt) {
			alert, err := store.CreateAlert(ctx, database.CreateAlertParams{
				TenantID:  req.TenantID,
				StationID: pgtype.UUID{Bytes: req.StationID, Valid: true},
				AlertType: enum.AlertTypeCreditNearLimit,
				Message:   fmt.Sprintf("%s is above 90%% of their credit limit", creditor.Name),
				Severity:  enum.AlertSeverityWarning,
			})
			if err != nil {
				return CreateReadingResult{}, fmt.Errorf("create credit alert: %w", err)
			}
			alerts = append(alerts, alert)
		}
	}

	creditorID := pgtype.UUID{}
	if req.CreditorID != uuid.Nil {
		creditorID = pgtype.UUID{Bytes: req.CreditorID, Valid: true}
	}

	reading, err := store.CreateNozzleReading(ctx, database.CreateNozzleReadingParams{
		TenantID:      req.TenantID,
		NozzleID:      req.NozzleID,
		Reading:       decimalToNumericScale(req.Reading, 3),
		RecordedAt:    req.RecordedAt,
		PaymentMethod: req.PaymentMethod,
		CreditorID:    creditorID,
		RecordedBy:    req.RecordedBy,
	})
	if err != nil {
		return CreateReadingResult{}, fmt.Errorf("create reading: %w", err)
	}

	sale, err := store.CreateSale(ctx, database.CreateSaleParams{
		TenantID:      req.TenantID,
		StationID:     req.StationID,
		NozzleID:      req.NozzleID,
		ReadingID:     reading.ID,
		FuelType:      nozzle.FuelType,
		Volume:        decimalToNumericScale(volume, 3),
		FuelPrice:     price.Price,
		Amount:        decimalToNumeric(amount),
		PaymentMethod: req.PaymentMethod,
		CreditorID:    creditorID,
		RecordedAt:    req.RecordedAt,
		CreatedBy:     req.RecordedBy,
	})
	if err != nil {
		return CreateReadingResult{}, fmt.Errorf("create sale: %w", err)
	}

	// Draw down tank stock by the sold volume. Stations that don't track
	// inventory for this fuel type have no row, which is fine.
	inventory, err := store.DeductFuelInventory(ctx, database.DeductFuelInventoryParams{
		StationID: req.StationID,
		TenantID:  req.TenantID,
		FuelType:  nozzle.FuelType,
		Volume:    decimalToNumericScale(volume, 3),
	})
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return CreateReadingResult{}, fmt.Errorf("deduct inventory: %w", err)
	}
	if err == nil {
		stock := numericToDecimal(inventory.CurrentStock)
		minimum := numericToDecimal(inventory.MinimumLevel)
		if minimum.GreaterThan(decimal.Zero) && stock.LessThanOrEqual(minimum) {
			alert, err := store.CreateAlert(ctx, database.CreateAlertParams{
				TenantID:  req.TenantID,
				StationID: pgtype.UUID{Bytes: req.StationID, Valid: true},
				AlertType: enum.AlertTypeLowInventory,
				Message:   fmt.Sprintf("%s stock is at or below the minimum level", nozzle.FuelType),
				Severity:  enum.AlertSeverityWarning,
			})
			if err != nil {
				return CreateReadingResult{}, fmt.Errorf("create inventory alert: %w", err)
			}
			alerts = append(alerts, alert)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return CreateReadingResult{}, fmt.Errorf("commit tx: %w", err)
	}

	return CreateReadingResult{Reading: reading, Sale: sale, Alerts: alerts}, nil
}

// ListReadings returns a station's readings for a day with their computed
// deltas.
func (s *ReadingService) ListReadings(ctx context.Context, tenantID, stationID uuid.UUID, date time.Time) ([]database.ListStationReadingsRow, error) {
	return s.store.ListStationReadings(ctx, database.ListStationReadingsParams{
		StationID: stationID,
		TenantID:  tenantID,
		From:      date,
		To:        date.AddDate(0, 0, 1),
	})
}

func decimalToNumericScale(d decimal.Decimal, scale int32) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(scale))
	return n
}
