package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/fuelsync/api/internal/database"
	"github.com/fuelsync/api/internal/enum"
	"github.com/fuelsync/api/internal/middleware"
	"github.com/fuelsync/api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// CashReportServicer abstracts the cash report service for testability.
type CashReportServicer interface {
	Submit(ctx context.Context, arg database.UpsertCashReportParams) (database.CashReport, error)
	ListForDay(ctx context.Context, arg database.ListCashReportsForDayParams) ([]database.CashReport, error)
}

// CashReportHandler handles shift cash report endpoints. A report is one
// (station, date, shift) row; resubmitting replaces the amounts, so
// attendants can correct a count until the day closes.
type CashReportHandler struct {
	service CashReportServicer
}

// NewCashReportHandler creates a new CashReportHandler.
func NewCashReportHandler(svc CashReportServicer) *CashReportHandler {
	return &CashReportHandler{service: svc}
}

// RegisterRoutes registers cash report endpoints. Expected to be mounted
// inside a station-scoped subrouter: /stations/{sid}/cash-reports
func (h *CashReportHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Put("/", h.Submit)
}

// --- Request / Response types ---

type submitCashReportRequest struct {
	Date         string `json:"date"` // YYYY-MM-DD
	Shift        string `json:"shift"`
	CashAmount   string `json:"cash_amount"`
	CardAmount   string `json:"card_amount"`
	UpiAmount    string `json:"upi_amount"`
	CreditAmount string `json:"credit_amount"`
	Notes        string `json:"notes"`
}

type cashReportResponse struct {
	ID           uuid.UUID `json:"id"`
	StationID    uuid.UUID `json:"station_id"`
	Date         string    `json:"date"`
	Shift        string    `json:"shift"`
	CashAmount   string    `json:"cash_amount"`
	CardAmount   string    `json:"card_amount"`
	UpiAmount    string    `json:"upi_amount"`
	CreditAmount string    `json:"credit_amount"`
	Notes        *string   `json:"notes"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toCashReportResponse(c database.CashReport) cashReportResponse {
	resp := cashReportResponse{
		ID:           c.ID,
		StationID:    c.StationID,
		Date:         c.Date.Format("2006-01-02"),
		Shift:        c.Shift,
		CashAmount:   numericToString(c.CashAmount),
		CardAmount:   numericToString(c.CardAmount),
		UpiAmount:    numericToString(c.UpiAmount),
		CreditAmount: numericToString(c.CreditAmount),
		UpdatedAt:    c.UpdatedAt,
	}
	if c.Notes.Valid {
		resp.Notes = &c.Notes.String
	}
	return resp
}

// --- Handlers ---

// Submit creates or replaces the cash report for one shift.
func (h *CashReportHandler) Submit(w http.ResponseWriter, r *http.Request) {
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

	var req submitCashReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date, expected YYYY-MM-DD"})
		return
	}

	if !enum.ValidShift(req.Shift) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid shift"})
		return
	}

	amounts := make([]pgtype.Numeric, 4)
	for i, field := range []struct {
		name  string
		value string
	}{
		{"cash_amount", req.CashAmount},
		{"card_amount", req.CardAmount},
		{"upi_amount", req.UpiAmount},
		{"credit_amount", req.CreditAmount},
	} {
		amounts[i], err = parseAmount(field.value)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": field.name + " must be a non-negative number"})
			return
		}
	}

	notes := pgtype.Text{}
	if req.Notes != "" {
		notes = pgtype.Text{String: req.Notes, Valid: true}
	}

	report, err := h.service.Submit(r.Context(), database.UpsertCashReportParams{
		TenantID:     claims.TenantID,
		StationID:    stationID,
		Date:         date,
		Shift:        req.Shift,
		CashAmount:   amounts[0],
		CardAmount:   amounts[1],
		UpiAmount:    amounts[2],
		CreditAmount: amounts[3],
		Notes:        notes,
		ReportedBy:   claims.UserID,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDayClosed):
			writeJSON(w, http.StatusConflict, map[string]string{"error": "day is closed for this station"})
		case errors.Is(err, service.ErrStationNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "station not found"})
		default:
			log.Printf("ERROR: submit cash report: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	writeJSON(w, http.StatusOK, toCashReportResponse(report))
}

// List returns the cash reports for one day at the given station.
func (h *CashReportHandler) List(w http.ResponseWriter, r *http.Request) {
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

	reports, err := h.service.ListForDay(r.Context(), database.ListCashReportsForDayParams{
		StationID: stationID,
		TenantID:  claims.TenantID,
		Date:      date,
	})
	if err != nil {
		log.Printf("ERROR: list cash reports: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]cashReportResponse, len(reports))
	for i, c := range reports {
		resp[i] = toCashReportResponse(c)
	}

	writeJSON(w, http.StatusOK, resp)
}

// parseAmount parses a non-negative money amount; empty means zero.
func parseAmount(s string) (pgtype.Numeric, error) {
	d := decimal.Zero
	if s != "" {
		var err error
		d, err = decimal.NewFromString(s)
		if err != nil {
			return pgtype.Numeric{}, err
		}
		if d.IsNegative() {
			return pgtype.Numeric{}, errors.New("negative amount")
		}
	}
	var n pgtype.Numeric
	if err := n.Scan(d.StringFixed(2)); err != nil {
		return pgtype.Numeric{}, err
	}
	return n, nil
}
