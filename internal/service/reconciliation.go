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
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// Errors returned by the reconciliation service.
var (
	ErrInvalidReading              = errors.New("reading is below the previous meter value")
	ErrPriceNotFound               = errors.New("no fuel price applies to this reading")
	ErrNoReadings                  = errors.New("no readings recorded for this date")
	ErrMissingCashReport           = errors.New("no cash report submitted for this date")
	ErrVarianceExplanationRequired = errors.New("variance exceeds tolerance and needs an explanation")
	ErrInsufficientRole            = errors.New("only owners and managers may close a day")
	ErrAlreadyClosed               = errors.New("day already closed for this station")
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// ReconciliationStore defines the DB methods needed to reconcile and close a
// station day. Satisfied by *database.Queries (and its WithTx variant).
type ReconciliationStore interface {
	GetStationForUpdate(ctx context.Context, arg database.GetStationParams) (uuid.UUID, error)
	ListReadingDeltasForDay(ctx context.Context, arg database.ListReadingDeltasForDayParams) ([]database.ReadingDeltaRow, error)
	ListFuelPricesByStation(ctx context.Context, arg database.ListFuelPricesByStationParams) ([]database.FuelPrice, error)
	ListCashReportsForDay(ctx context.Context, arg database.ListCashReportsForDayParams) ([]database.CashReport, error)
	GetDailyClosure(ctx context.Context, arg database.GetDailyClosureParams) (database.DailyClosure, error)
	GetDailyClosureForUpdate(ctx context.Context, arg database.GetDailyClosureParams) (database.DailyClosure, error)
	CreateDailyClosure(ctx context.Context, arg database.CreateDailyClosureParams) (database.DailyClosure, error)
}

// NewReconciliationStore creates a ReconciliationStore from a DBTX (pool or tx).
type NewReconciliationStore func(db database.DBTX) ReconciliationStore

// Policy holds the configurable variance thresholds. Tolerance is an absolute
// amount; MediumRiskPercent is the percentage boundary between medium and
// high risk.
type Policy struct {
	Tolerance         decimal.Decimal
	MediumRiskPercent decimal.Decimal
}

// SalesTotals is the aggregator output: expected revenue for a station day.
type SalesTotals struct {
	TotalRevenue decimal.Decimal
	CashSales    decimal.Decimal
	CardSales    decimal.Decimal
	UpiSales     decimal.Decimal
	CreditSales  decimal.Decimal
	TotalVolume  decimal.Decimal
	ReadingCount int
}

// CollectedTotals sums the day's cash reports per payment method.
type CollectedTotals struct {
	Cash        decimal.Decimal
	Card        decimal.Decimal
	Upi         decimal.Decimal
	Credit      decimal.Decimal
	Total       decimal.Decimal
	ReportCount int
}

// Differences is collected minus expected, per method and in total.
type Differences struct {
	Cash            decimal.Decimal
	Card            decimal.Decimal
	Upi             decimal.Decimal
	Credit          decimal.Decimal
	Total           decimal.Decimal
	Percentage      decimal.Decimal
	WithinTolerance bool
}

// Issue is a single validation finding surfaced to the UI.
type Issue struct {
	Type            string
	Message         string
	SuggestedAction string
}

// Summary is the full reconciliation picture for a station day.
type Summary struct {
	StationID        uuid.UUID
	Date             time.Time
	SystemCalculated SalesTotals
	UserEntered      CollectedTotals
	Differences      Differences
	RiskLevel        string
	ValidationIssues []Issue
	IsClosed         bool
}

// HasBlockingIssues reports whether any issue is an error, which blocks the
// closure transition.
func (s *Summary) HasBlockingIssues() bool {
	for _, issue := range s.ValidationIssues {
		if issue.Type == enum.IssueTypeError {
			return true
		}
	}
	return false
}

// CloseDayRequest is the validated input for closing a station day.
type CloseDayRequest struct {
	TenantID       uuid.UUID
	StationID      uuid.UUID
	Date           time.Time
	ActorID        uuid.UUID
	ActorRole      string
	VarianceReason string
}

// ReconciliationService aggregates sales, evaluates variance, and performs
// the one-way OPEN -> CLOSED transition for a station day.
type ReconciliationService struct {
	store    ReconciliationStore
	pool     TxBeginner
	newStore NewReconciliationStore
	policy   Policy
}

// NewReconciliationService creates a new ReconciliationService.
func NewReconciliationService(store ReconciliationStore, pool TxBeginner, newStore NewReconciliationStore, policy Policy) *ReconciliationService {
	return &ReconciliationService{store: store, pool: pool, newStore: newStore, policy: policy}
}

// Summarize builds the reconciliation summary for a station day without
// mutating anything. The variance reason is empty here; issues that an
// explanation would downgrade stay errors until a close request supplies one.
func (s *ReconciliationService) Summarize(ctx context.Context, tenantID, stationID uuid.UUID, date time.Time) (*Summary, error) {
	return s.buildSummary(ctx, s.store, tenantID, stationID, date, "")
}

// CloseDay performs the OPEN -> CLOSED transition. The whole check-then-write
// runs inside one transaction with the closure row locked, and the unique
// (tenant, station, date) constraint backstops the race between two
// concurrent close requests.
func (s *ReconciliationService) CloseDay(ctx context.Context, req CloseDayRequest) (database.DailyClosure, error) {
	if req.ActorRole != enum.UserRoleOwner && req.ActorRole != enum.UserRoleManager {
		return database.DailyClosure{}, ErrInsufficientRole
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.DailyClosure{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	// Exclusive lock on the station row. Readings and cash reports take the
	// same lock FOR SHARE before their closed-day check, so no writer can
	// slip in between our summary and the closure commit.
	if _, err := store.GetStationForUpdate(ctx, database.GetStationParams{
		ID:       req.StationID,
		TenantID: req.TenantID,
	}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.DailyClosure{}, ErrStationNotFound
		}
		return database.DailyClosure{}, fmt.Errorf("lock station: %w", err)
	}

	existing, err := store.GetDailyClosureForUpdate(ctx, database.GetDailyClosureParams{
		StationID: req.StationID,
		TenantID:  req.TenantID,
		Date:      req.Date,
	})
	if err == nil && existing.IsClosed {
		return database.DailyClosure{}, ErrAlreadyClosed
	}
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return database.DailyClosure{}, fmt.Errorf("get closure: %w", err)
	}

	summary, err := s.buildSummary(ctx, store, req.TenantID, req.StationID, req.Date, req.VarianceReason)
	if err != nil {
		return database.DailyClosure{}, err
	}

	if summary.UserEntered.ReportCount == 0 {
		return database.DailyClosure{}, ErrMissingCashReport
	}
	if summary.SystemCalculated.ReadingCount == 0 {
		return database.DailyClosure{}, ErrNoReadings
	}
	if !summary.Differences.WithinTolerance && req.VarianceReason == "" {
		return database.DailyClosure{}, ErrVarianceExplanationRequired
	}

	reason := pgtype.Text{}
	if req.VarianceReason != "" {
		reason = pgtype.Text{String: req.VarianceReason, Valid: true}
	}

	closure, err := store.CreateDailyClosure(ctx, database.CreateDailyClosureParams{
		TenantID:           req.TenantID,
		StationID:          req.StationID,
		Date:               req.Date,
		ReportedCashAmount: decimalToNumeric(summary.UserEntered.Total),
		VarianceAmount:     decimalToNumeric(summary.Differences.Total),
		VarianceReason:     reason,
		ClosedBy:           req.ActorID,
	})
	if err != nil {
		if isClosureConflict(err) {
			return database.DailyClosure{}, ErrAlreadyClosed
		}
		return database.DailyClosure{}, fmt.Errorf("create daily closure: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return database.DailyClosure{}, fmt.Errorf("commit tx: %w", err)
	}

	return closure, nil
}

// isClosureConflict checks for a unique constraint violation on the closure
// row (pgconn error code 23505).
func isClosureConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "daily_closures_tenant_id_station_id_date_key"
	}
	return false
}

func (s *ReconciliationService) buildSummary(ctx context.Context, store ReconciliationStore, tenantID, stationID uuid.UUID, date time.Time, reason string) (*Summary, error) {
	dayStart := date
	dayEnd := date.AddDate(0, 0, 1)

	deltas, err := store.ListReadingDeltasForDay(ctx, database.ListReadingDeltasForDayParams{
		StationID: stationID,
		TenantID:  tenantID,
		DayStart:  dayStart,
		DayEnd:    dayEnd,
	})
	if err != nil {
		return nil, fmt.Errorf("list reading deltas: %w", err)
	}

	prices, err := store.ListFuelPricesByStation(ctx, database.ListFuelPricesByStationParams{
		StationID: stationID,
		TenantID:  tenantID,
	})
	if err != nil {
		return nil, fmt.Errorf("list fuel prices: %w", err)
	}

	totals, err := AggregateSales(deltas, prices)
	if err != nil {
		return nil, err
	}

	reports, err := store.ListCashReportsForDay(ctx, database.ListCashReportsForDayParams{
		StationID: stationID,
		TenantID:  tenantID,
		Date:      date,
	})
	if err != nil {
		return nil, fmt.Errorf("list cash reports: %w", err)
	}
	collected := CollectReports(reports)

	summary := Evaluate(totals, collected, reason, s.policy)
	summary.StationID = stationID
	summary.Date = date

	closure, err := store.GetDailyClosure(ctx, database.GetDailyClosureParams{
		StationID: stationID,
		TenantID:  tenantID,
		Date:      date,
	})
	if err == nil {
		summary.IsClosed = closure.IsClosed
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get closure: %w", err)
	}

	return summary, nil
}

// AggregateSales turns a day's reading deltas into expected revenue grouped
// by payment method. The result does not depend on input order: every reading
// carries its own previous value, so each contributes an independent term.
func AggregateSales(deltas []database.ReadingDeltaRow, prices []database.FuelPrice) (SalesTotals, error) {
	totals := SalesTotals{
		TotalRevenue: decimal.Zero,
		CashSales:    decimal.Zero,
		CardSales:    decimal.Zero,
		UpiSales:     decimal.Zero,
		CreditSales:  decimal.Zero,
		TotalVolume:  decimal.Zero,
	}

	for _, d := range deltas {
		current := numericToDecimal(d.CurrentReading)
		previous := decimal.Zero
		if d.PreviousReading.Valid {
			previous = numericToDecimal(d.PreviousReading)
		}
		if current.LessThan(previous) {
			return SalesTotals{}, fmt.Errorf("nozzle %s at %s: %w", d.NozzleID, d.RecordedAt.Format(time.RFC3339), ErrInvalidReading)
		}

		price, ok := priceAt(prices, d.FuelType, d.RecordedAt)
		if !ok {
			return SalesTotals{}, fmt.Errorf("%s at %s: %w", d.FuelType, d.RecordedAt.Format(time.RFC3339), ErrPriceNotFound)
		}

		volume := current.Sub(previous)
		amount := volume.Mul(price).Round(2)

		totals.TotalVolume = totals.TotalVolume.Add(volume)
		totals.TotalRevenue = totals.TotalRevenue.Add(amount)
		switch d.PaymentMethod {
		case enum.PaymentMethodCash:
			totals.CashSales = totals.CashSales.Add(amount)
		case enum.PaymentMethodCard:
			totals.CardSales = totals.CardSales.Add(amount)
		case enum.PaymentMethodUPI:
			totals.UpiSales = totals.UpiSales.Add(amount)
		case enum.PaymentMethodCredit:
			totals.CreditSales = totals.CreditSales.Add(amount)
		}
		totals.ReadingCount++
	}

	return totals, nil
}

// priceAt picks the latest price for the fuel type whose valid_from does not
// postdate the reading timestamp.
func priceAt(prices []database.FuelPrice, fuelType string, at time.Time) (decimal.Decimal, bool) {
	best := decimal.Zero
	var bestFrom time.Time
	found := false
	for _, p := range prices {
		if p.FuelType != fuelType || p.ValidFrom.After(at) {
			continue
		}
		if !found || p.ValidFrom.After(bestFrom) {
			best = numericToDecimal(p.Price)
			bestFrom = p.ValidFrom
			found = true
		}
	}
	return best, found
}

// CollectReports sums cash reports per payment method.
func CollectReports(reports []database.CashReport) CollectedTotals {
	c := CollectedTotals{
		Cash:   decimal.Zero,
		Card:   decimal.Zero,
		Upi:    decimal.Zero,
		Credit: decimal.Zero,
		Total:  decimal.Zero,
	}
	for _, r := range reports {
		c.Cash = c.Cash.Add(numericToDecimal(r.CashAmount))
		c.Card = c.Card.Add(numericToDecimal(r.CardAmount))
		c.Upi = c.Upi.Add(numericToDecimal(r.UpiAmount))
		c.Credit = c.Credit.Add(numericToDecimal(r.CreditAmount))
		c.ReportCount++
	}
	c.Total = c.Cash.Add(c.Card).Add(c.Upi).Add(c.Credit)
	return c
}

// Evaluate compares expected revenue against collected amounts and classifies
// the result. Pure: callers persist nothing from this step.
func Evaluate(totals SalesTotals, collected CollectedTotals, varianceReason string, policy Policy) *Summary {
	diff := Differences{
		Cash:   collected.Cash.Sub(totals.CashSales),
		Card:   collected.Card.Sub(totals.CardSales),
		Upi:    collected.Upi.Sub(totals.UpiSales),
		Credit: collected.Credit.Sub(totals.CreditSales),
		Total:  collected.Total.Sub(totals.TotalRevenue),
	}

	if totals.TotalRevenue.IsZero() {
		diff.Percentage = decimal.Zero
	} else {
		diff.Percentage = diff.Total.Div(totals.TotalRevenue).Mul(decimal.NewFromInt(100)).Round(2)
	}

	// Inclusive boundary: variance exactly at the tolerance still passes.
	diff.WithinTolerance = diff.Total.Abs().LessThanOrEqual(policy.Tolerance)

	risk := enum.RiskLevelLow
	if !diff.WithinTolerance {
		if diff.Percentage.Abs().LessThanOrEqual(policy.MediumRiskPercent) {
			risk = enum.RiskLevelMedium
		} else {
			risk = enum.RiskLevelHigh
		}
	}

	var issues []Issue
	if collected.ReportCount == 0 {
		issues = append(issues, Issue{
			Type:            enum.IssueTypeError,
			Message:         "no cash report submitted for this date",
			SuggestedAction: "submit a cash report before closing the day",
		})
	}
	if totals.ReadingCount == 0 {
		issues = append(issues, Issue{
			Type:            enum.IssueTypeError,
			Message:         "no readings recorded for this date",
			SuggestedAction: "record nozzle readings before reconciling",
		})
	}
	if !diff.WithinTolerance {
		if varianceReason == "" {
			issues = append(issues, Issue{
				Type:            enum.IssueTypeError,
				Message:         "variance exceeds tolerance without an explanation",
				SuggestedAction: "explain the variance to close the day",
			})
		} else {
			issues = append(issues, Issue{
				Type:    enum.IssueTypeWarning,
				Message: "variance exceeds tolerance; explanation recorded",
			})
		}
	}

	return &Summary{
		SystemCalculated: totals,
		UserEntered:      collected,
		Differences:      diff,
		RiskLevel:        risk,
		ValidationIssues: issues,
	}
}

// --- Helpers shared by the service package ---

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
