package service

import (
	"context"
	"errors"
	"testing"

	"github.com/fuelsync/api/internal/database"
	"github.com/fuelsync/api/internal/enum"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type mockCashReportStore struct {
	stationMissing bool
	closure        *database.DailyClosure
	calls          []string

	upserted *database.UpsertCashReportParams
}

func (m *mockCashReportStore) GetStationForShare(ctx context.Context, arg database.GetStationParams) (uuid.UUID, error) {
	m.calls = append(m.calls, "lock_station")
	if m.stationMissing {
		return uuid.Nil, pgx.ErrNoRows
	}
	return arg.ID, nil
}

func (m *mockCashReportStore) GetDailyClosure(ctx context.Context, arg database.GetDailyClosureParams) (database.DailyClosure, error) {
	m.calls = append(m.calls, "get_closure")
	if m.closure == nil {
		return database.DailyClosure{}, pgx.ErrNoRows
	}
	return *m.closure, nil
}

func (m *mockCashReportStore) UpsertCashReport(ctx context.Context, arg database.UpsertCashReportParams) (database.CashReport, error) {
	m.calls = append(m.calls, "upsert")
	m.upserted = &arg
	return database.CashReport{
		ID:           uuid.New(),
		TenantID:     arg.TenantID,
		StationID:    arg.StationID,
		Date:         arg.Date,
		Shift:        arg.Shift,
		CashAmount:   arg.CashAmount,
		CardAmount:   arg.CardAmount,
		UpiAmount:    arg.UpiAmount,
		CreditAmount: arg.CreditAmount,
		Notes:        arg.Notes,
		ReportedBy:   arg.ReportedBy,
	}, nil
}

func (m *mockCashReportStore) ListCashReportsForDay(ctx context.Context, arg database.ListCashReportsForDayParams) ([]database.CashReport, error) {
	return nil, nil
}

func newTestCashReportService(store *mockCashReportStore) (*CashReportService, *mockPool) {
	pool := &mockPool{}
	newStore := func(db database.DBTX) CashReportStore { return store }
	return NewCashReportService(store, pool, newStore), pool
}

func cashReportParams(t *testing.T) database.UpsertCashReportParams {
	t.Helper()
	return database.UpsertCashReportParams{
		TenantID:   uuid.New(),
		StationID:  uuid.New(),
		Date:       day(t, "2026-08-30"),
		Shift:      enum.ShiftMorning,
		CashAmount: num(t, "1500.00"),
		CardAmount: num(t, "500.00"),
		ReportedBy: uuid.New(),
	}
}

func TestCashReportSubmit(t *testing.T) {
	t.Run("stores the report in a committed transaction", func(t *testing.T) {
		store := &mockCashReportStore{}
		svc, pool := newTestCashReportService(store)
		arg := cashReportParams(t)

		report, err := svc.Submit(context.Background(), arg)
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		if !pool.tx.committed {
			t.Error("transaction not committed")
		}
		if store.upserted == nil {
			t.Fatal("no report persisted")
		}
		if report.Shift != enum.ShiftMorning {
			t.Errorf("shift = %s, want %s", report.Shift, enum.ShiftMorning)
		}
	})

	t.Run("locks the station before checking the closure", func(t *testing.T) {
		store := &mockCashReportStore{}
		svc, _ := newTestCashReportService(store)

		if _, err := svc.Submit(context.Background(), cashReportParams(t)); err != nil {
			t.Fatalf("Submit: %v", err)
		}
		want := []string{"lock_station", "get_closure", "upsert"}
		if len(store.calls) != len(want) {
			t.Fatalf("calls = %v, want %v", store.calls, want)
		}
		for i := range want {
			if store.calls[i] != want[i] {
				t.Fatalf("calls = %v, want %v", store.calls, want)
			}
		}
	})

	t.Run("rejects writes on a closed day", func(t *testing.T) {
		store := &mockCashReportStore{closure: &database.DailyClosure{IsClosed: true}}
		svc, pool := newTestCashReportService(store)

		if _, err := svc.Submit(context.Background(), cashReportParams(t)); !errors.Is(err, ErrDayClosed) {
			t.Errorf("err = %v, want ErrDayClosed", err)
		}
		if store.upserted != nil {
			t.Error("report must not be written on a closed day")
		}
		if pool.tx.committed {
			t.Error("transaction should not commit")
		}
		if !pool.tx.rolledBack {
			t.Error("transaction not rolled back")
		}
	})

	t.Run("rejects unknown station", func(t *testing.T) {
		store := &mockCashReportStore{stationMissing: true}
		svc, pool := newTestCashReportService(store)

		if _, err := svc.Submit(context.Background(), cashReportParams(t)); !errors.Is(err, ErrStationNotFound) {
			t.Errorf("err = %v, want ErrStationNotFound", err)
		}
		if pool.tx.committed {
			t.Error("transaction should not commit")
		}
	})

	t.Run("resubmission before closure is allowed", func(t *testing.T) {
		store := &mockCashReportStore{closure: &database.DailyClosure{IsClosed: false}}
		svc, _ := newTestCashReportService(store)

		if _, err := svc.Submit(context.Background(), cashReportParams(t)); err != nil {
			t.Fatalf("Submit: %v", err)
		}
		if store.upserted == nil {
			t.Fatal("no report persisted")
		}
	})
}
