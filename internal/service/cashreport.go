package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/fuelsync/api/internal/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CashReportStore defines the DB methods needed to submit and list shift
// cash reports.
type CashReportStore interface {
	GetStationForShare(ctx context.Context, arg database.GetStationParams) (uuid.UUID, error)
	GetDailyClosure(ctx context.Context, arg database.GetDailyClosureParams) (database.DailyClosure, error)
	UpsertCashReport(ctx context.Context, arg database.UpsertCashReportParams) (database.CashReport, error)
	ListCashReportsForDay(ctx context.Context, arg database.ListCashReportsForDayParams) ([]database.CashReport, error)
}

// NewCashReportStore creates a CashReportStore from a DBTX (pool or tx).
type NewCashReportStore func(db database.DBTX) CashReportStore

// CashReportService stores shift cash reports. Submissions run in a
// transaction holding a shared lock on the station row so a report can
// never land after the day's closure commits.
type CashReportService struct {
	store    CashReportStore
	pool     TxBeginner
	newStore NewCashReportStore
}

// NewCashReportService creates a new CashReportService.
func NewCashReportService(store CashReportStore, pool TxBeginner, newStore NewCashReportStore) *CashReportService {
	return &CashReportService{store: store, pool: pool, newStore: newStore}
}

// Submit creates or replaces the cash report for one shift. The closed-day
// check and the upsert run in one transaction: CloseDay locks the station
// row exclusively, so a closure committing between our check and our write
// is impossible.
func (s *CashReportService) Submit(ctx context.Context, arg database.UpsertCashReportParams) (database.CashReport, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.CashReport{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	if _, err := store.GetStationForShare(ctx, database.GetStationParams{
		ID:       arg.StationID,
		TenantID: arg.TenantID,
	}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.CashReport{}, ErrStationNotFound
		}
		return database.CashReport{}, fmt.Errorf("lock station: %w", err)
	}

	closure, err := store.GetDailyClosure(ctx, database.GetDailyClosureParams{
		StationID: arg.StationID,
		TenantID:  arg.TenantID,
		Date:      arg.Date,
	})
	if err == nil && closure.IsClosed {
		return database.CashReport{}, ErrDayClosed
	}
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return database.CashReport{}, fmt.Errorf("get closure: %w", err)
	}

	report, err := store.UpsertCashReport(ctx, arg)
	if err != nil {
		return database.CashReport{}, fmt.Errorf("upsert cash report: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return database.CashReport{}, fmt.Errorf("commit tx: %w", err)
	}

	return report, nil
}

// ListForDay returns the cash reports for one day at the given station.
func (s *CashReportService) ListForDay(ctx context.Context, arg database.ListCashReportsForDayParams) ([]database.CashReport, error) {
	return s.store.ListCashReportsForDay(ctx, arg)
}
