package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/fuelsync/api/internal/database"
	"github.com/fuelsync/api/internal/middleware"
	"github.com/fuelsync/api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ReconciliationServicer is the service interface used by reconciliation
// handlers.
type ReconciliationServicer interface {
	Summarize(ctx context.Context, tenantID, stationID uuid.UUID, date time.Time) (*service.Summary, error)
	CloseDay(ctx context.Context, req service.CloseDayRequest) (database.DailyClosure, error)
}

// ClosureStore defines the database methods needed to list past closures.
// Satisfied by *database.Queries; narrow interface for testability.
type ClosureStore interface {
	ListDailyClosures(ctx context.Context, arg database.ListDailyClosuresParams) ([]database.DailyClosure, error)
}

// ReconciliationHandler handles the daily reconciliation summary and the
// day-close endpoint.
type ReconciliationHandler struct {
	svc      ReconciliationServicer
	store    ClosureStore
	notifier StationNotifier
}

// NewReconciliationHandler creates a new ReconciliationHandler.
func NewReconciliationHandler(svc ReconciliationServicer, store ClosureStore, notifier StationNotifier) *ReconciliationHandler {
	return &ReconciliationHandler{svc: svc, store: store, notifier: notifier}
}

// RegisterRoutes registers reconciliation endpoints. Expected to be mounted
// inside a station-scoped subrouter: /stations/{sid}
func (h *ReconciliationHandler) RegisterRoutes(r chi.Router) {
	r.Get("/reconciliation", h.GetSummary)
	r.Post("/reconciliation/close", h.CloseDay)
	r.Get("/closures", h.ListClosures)
}

// --- Request / Response types ---

type closeDayRequest struct {
	Date           string `json:"date"` // YYYY-MM-DD
	VarianceReason string `json:"variance_reason"`
}

type salesTotalsResponse struct {
	TotalRevenue string `json:"total_revenue"`
	CashSales    string `json:"cash_sales"`
	CardSales    string `json:"card_sales"`
	UpiSales     string `json:"upi_sales"`
	CreditSales  string `json:"credit_sales"`
	TotalVolume  string `json:"total_volume"`
	ReadingCount int    `json:"reading_count"`
}

type collectedTotalsResponse struct {
	Cash        string `json:"cash"`
	Card        string `json:"card"`
	Upi         string `json:"upi"`
	Credit      string `json:"credit"`
	Total       string `json:"total"`
	ReportCount int    `json:"report_count"`
}

type differencesResponse struct {
	Cash                 string `json:"cash"`
	Card                 string `json:"card"`
	Upi                  string `json:"upi"`
	Credit               string `json:"credit"`
	Total                string `json:"total"`
	PercentageDifference string `json:"percentage_difference"`
	IsWithinTolerance    bool   `json:"is_within_tolerance"`
}

type issueResponse struct {
	Type            string `json:"type"`
	Message         string `json:"message"`
	SuggestedAction string `json:"suggested_action,omitempty"`
}

type summaryResponse struct {
	StationID        uuid.UUID               `json:"station_id"`
	Date             string                  `json:"date"`
	SystemCalculated salesTotalsResponse     `json:"system_calculated"`
	UserEntered      collectedTotalsResponse `json:"user_entered"`
	Differences      differencesResponse     `json:"differences"`
	RiskLevel        string                  `json:"risk_level"`
	ValidationIssues []issueResponse         `json:"validation_issues"`
	IsClosed         bool                    `json:"is_closed"`
}

type closureResponse struct {
	ID                 uuid.UUID `json:"id"`
	StationID          uuid.UUID `json:"station_id"`
	Date               string    `json:"date"`
	ReportedCashAmount string    `json:"reported_cash_amount"`
	VarianceAmount     string    `json:"variance_amount"`
	VarianceReason     *string   `json:"variance_reason"`
	IsClosed           bool      `json:"is_closed"`
	ClosedBy           uuid.UUID `json:"closed_by"`
	ClosedAt           time.Time `json:"closed_at"`
}

func toSummaryResponse(s *service.Summary) summaryResponse {
	resp := summaryResponse{
		StationID: s.StationID,
		Date:      s.Date.Format("2006-01-02"),
		SystemCalculated: salesTotalsResponse{
			TotalRevenue: s.SystemCalculated.TotalRevenue.StringFixed(2),
			CashSales:    s.SystemCalculated.CashSales.StringFixed(2),
			CardSales:    s.SystemCalculated.CardSales.StringFixed(2),
			UpiSales:     s.SystemCalculated.UpiSales.StringFixed(2),
			CreditSales:  s.SystemCalculated.CreditSales.StringFixed(2),
			TotalVolume:  s.SystemCalculated.TotalVolume.StringFixed(3),
			ReadingCount: s.SystemCalculated.ReadingCount,
		},
		UserEntered: collectedTotalsResponse{
			Cash:        s.UserEntered.Cash.StringFixed(2),
			Card:        s.UserEntered.Card.StringFixed(2),
			Upi:         s.UserEntered.Upi.StringFixed(2),
			Credit:      s.UserEntered.Credit.StringFixed(2),
			Total:       s.UserEntered.Total.StringFixed(2),
			ReportCount: s.UserEntered.ReportCount,
		},
		Differences: differencesResponse{
			Cash:                 s.Differences.Cash.StringFixed(2),
			Card:                 s.Differences.Card.StringFixed(2),
			Upi:                  s.Differences.Upi.StringFixed(2),
			Credit:               s.Differences.Credit.StringFixed(2),
			Total:                s.Differences.Total.StringFixed(2),
			PercentageDifference: s.Differences.Percentage.StringFixed(2),
			IsWithinTolerance:    s.Differences.WithinTolerance,
		},
		RiskLevel: s.RiskLevel,
		IsClosed:  s.IsClosed,
	}
	resp.ValidationIssues = make([]issueResponse, len(s.ValidationIssues))
	for i, issue := range s.ValidationIssues {
		resp.ValidationIssues[i] = issueResponse{
			Type:            issue.Type,
			Message:         issue.Message,
			SuggestedAction: issue.SuggestedAction,
		}
	}
	return resp
}

func toClosureResponse(c database.DailyClosure) closureResponse {
	resp := closureResponse{
		ID:                 c.ID,
		StationID:          c.StationID,
		Date:               c.Date.Format("2006-01-02"),
		ReportedCashAmount: numericToString(c.ReportedCashAmount),
		VarianceAmount:     numericToString(c.VarianceAmount),
		IsClosed:           c.IsClosed,
		ClosedBy:           c.ClosedBy,
		ClosedAt:           c.ClosedAt,
	}
	if c.VarianceReason.Valid {
		resp.VarianceReason = &c.VarianceReason.String
	}
	return resp
}

// --- Handlers ---

// GetSummary returns the reconciliation summary for one station day.
func (h *ReconciliationHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	stationID, err := uuid.Parse(chi.URLParam(r, "sid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid station ID"})
		return
	}

	date, ok := parseDateParam(w, r)
	if !ok {
		return
	}

	summary, err := h.svc.Summarize(r.Context(), claims.TenantID, stationID, date)
	if err != nil {
		if errors.Is(err, service.ErrInvalidReading) || errors.Is(err, service.ErrPriceNotFound) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
			return
		}
		log.Printf("ERROR: reconciliation summary: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toSummaryResponse(summary))
}

// CloseDay performs the one-way day closure for a station.
func (h *ReconciliationHandler) CloseDay(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	stationID, err := uuid.Parse(chi.URLParam(r, "sid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid station ID"})
		return
	}

	var req closeDayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date, expected YYYY-MM-DD"})
		return
	}

	closure, err := h.svc.CloseDay(r.Context(), service.CloseDayRequest{
		TenantID:       claims.TenantID,
		StationID:      stationID,
		Date:           date,
		ActorID:        claims.UserID,
		ActorRole:      claims.Role,
		VarianceReason: req.VarianceReason,
	})
	if err != nil {
		h.writeCloseDayError(w, err)
		return
	}

	resp := toClosureResponse(closure)
	notifyStation(h.notifier, stationID, "day.closed", resp)

	writeJSON(w, http.StatusCreated, resp)
}

// ListClosures returns past closures for a station, newest first.
func (h *ReconciliationHandler) ListClosures(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	stationID, err := uuid.Parse(chi.URLParam(r, "sid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid station ID"})
		return
	}

	closures, err := h.store.ListDailyClosures(r.Context(), database.ListDailyClosuresParams{
		StationID: stationID,
		TenantID:  claims.TenantID,
	})
	if err != nil {
		log.Printf("ERROR: list closures: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]closureResponse, len(closures))
	for i, c := range closures {
		resp[i] = toClosureResponse(c)
	}

	writeJSON(w, http.StatusOK, resp)
}

// --- Helpers ---

func (h *ReconciliationHandler) writeCloseDayError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInsufficientRole):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrStationNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrAlreadyClosed),
		errors.Is(err, service.ErrMissingCashReport),
		errors.Is(err, service.ErrNoReadings),
		errors.Is(err, service.ErrVarianceExplanationRequired):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidReading), errors.Is(err, service.ErrPriceNotFound):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	default:
		log.Printf("ERROR: close day: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}
