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
	"github.com/fuelsync/api/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// ReadingServicer is the service interface used by reading handlers.
type ReadingServicer interface {
	CreateReading(ctx context.Context, req service.CreateReadingRequest) (service.CreateReadingResult, error)
	ListReadings(ctx context.Context, tenantID, stationID uuid.UUID, date time.Time) ([]database.ListStationReadingsRow, error)
}

// StationNotifier pushes events to live station dashboards. Satisfied by
// *ws.Hub; nil-safe via the notify helper.
type StationNotifier interface {
	BroadcastToStation(stationID uuid.UUID, event ws.Event)
}

// ReadingHandler handles nozzle reading endpoints.
type ReadingHandler struct {
	svc      ReadingServicer
	notifier StationNotifier
}

// NewReadingHandler creates a new ReadingHandler.
func NewReadingHandler(svc ReadingServicer, notifier StationNotifier) *ReadingHandler {
	return &ReadingHandler{svc: svc, notifier: notifier}
}

// RegisterRoutes registers reading endpoints. Expected to be mounted inside a
// station-scoped subrouter: /stations/{sid}/readings
func (h *ReadingHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
}

// --- Request / Response types ---

type createReadingRequest struct {
	NozzleID      string `json:"nozzle_id"`
	Reading       string `json:"reading"`
	PaymentMethod string `json:"payment_method"`
	CreditorID    string `json:"creditor_id"` // required for CREDIT
	RecordedAt    string `json:"recorded_at"` // RFC 3339; defaults to now
}

type readingResponse struct {
	ID            uuid.UUID  `json:"id"`
	NozzleID      uuid.UUID  `json:"nozzle_id"`
	Reading       string     `json:"reading"`
	PaymentMethod string     `json:"payment_method"`
	CreditorID    *uuid.UUID `json:"creditor_id"`
	RecordedAt    time.Time  `json:"recorded_at"`
}

type saleResponse struct {
	ID            uuid.UUID `json:"id"`
	NozzleID      uuid.UUID `json:"nozzle_id"`
	FuelType      string    `json:"fuel_type"`
	Volume        string    `json:"volume"`
	FuelPrice     string    `json:"fuel_price"`
	Amount        string    `json:"amount"`
	PaymentMethod string    `json:"payment_method"`
	RecordedAt    time.Time `json:"recorded_at"`
}

type createReadingResponse struct {
	Reading readingResponse `json:"reading"`
	Sale    saleResponse    `json:"sale"`
}

type listReadingResponse struct {
	ID              uuid.UUID  `json:"id"`
	NozzleID        uuid.UUID  `json:"nozzle_id"`
	NozzleNumber    int32      `json:"nozzle_number"`
	PumpLabel       string     `json:"pump_label"`
	FuelType        string     `json:"fuel_type"`
	PreviousReading *string    `json:"previous_reading"`
	Reading         string     `json:"reading"`
	Volume          string     `json:"volume"`
	PaymentMethod   string     `json:"payment_method"`
	CreditorID      *uuid.UUID `json:"creditor_id"`
	RecordedAt      time.Time  `json:"recorded_at"`
}

func toReadingResponse(nr database.NozzleReading) readingResponse {
	resp := readingResponse{
		ID:            nr.ID,
		NozzleID:      nr.NozzleID,
		Reading:       numericToVolumeString(nr.Reading),
		PaymentMethod: nr.PaymentMethod,
		RecordedAt:    nr.RecordedAt,
	}
	if nr.CreditorID.Valid {
		cid := uuid.UUID(nr.CreditorID.Bytes)
		resp.CreditorID = &cid
	}
	return resp
}

func toSaleResponse(s database.Sale) saleResponse {
	return saleResponse{
		ID:            s.ID,
		NozzleID:      s.NozzleID,
		FuelType:      s.FuelType,
		Volume:        numericToVolumeString(s.Volume),
		FuelPrice:     numericToString(s.FuelPrice),
		Amount:        numericToString(s.Amount),
		PaymentMethod: s.PaymentMethod,
		RecordedAt:    s.RecordedAt,
	}
}

// --- Handlers ---

// Create records a meter reading and the sale derived from it.
func (h *ReadingHandler) Create(w http.ResponseWriter, r *http.Request) {
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

	var req createReadingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	nozzleID, err := uuid.Parse(req.NozzleID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid nozzle_id"})
		return
	}

	reading, err := decimal.NewFromString(req.Reading)
	if err != nil || reading.IsNegative() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "reading must be a non-negative number"})
		return
	}

	if !enum.ValidPaymentMethod(req.PaymentMethod) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payment_method"})
		return
	}

	creditorID := uuid.Nil
	if req.CreditorID != "" {
		creditorID, err = uuid.Parse(req.CreditorID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid creditor_id"})
			return
		}
	}

	var recordedAt time.Time
	if req.RecordedAt != "" {
		recordedAt, err = time.Parse(time.RFC3339, req.RecordedAt)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid recorded_at, expected RFC 3339"})
			return
		}
	}

	result, err := h.svc.CreateReading(r.Context(), service.CreateReadingRequest{
		TenantID:      claims.TenantID,
		StationID:     stationID,
		NozzleID:      nozzleID,
		Reading:       reading,
		PaymentMethod: req.PaymentMethod,
		CreditorID:    creditorID,
		RecordedBy:    claims.UserID,
		RecordedAt:    recordedAt,
	})
	if err != nil {
		h.writeCreateReadingError(w, err)
		return
	}

	resp := createReadingResponse{
		Reading: toReadingResponse(result.Reading),
		Sale:    toSaleResponse(result.Sale),
	}

	notifyStation(h.notifier, stationID, "reading.created", resp)
	for _, alert := range result.Alerts {
		notifyStation(h.notifier, stationID, "alert.created", toAlertResponse(alert))
	}

	writeJSON(w, http.StatusCreated, resp)
}

// List returns a station's readings for one day with their computed deltas.
func (h *ReadingHandler) List(w http.ResponseWriter, r *http.Request) {
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

	readings, err := h.svc.ListReadings(r.Context(), claims.TenantID, stationID, date)
	if err != nil {
		log.Printf("ERROR: list readings: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]listReadingResponse, len(readings))
	for i, row := range readings {
		item := listReadingResponse{
			ID:            row.ID,
			NozzleID:      row.NozzleID,
			NozzleNumber:  row.NozzleNumber,
			PumpLabel:     row.PumpLabel,
			FuelType:      row.FuelType,
			Reading:       numericToVolumeString(row.Reading),
			PaymentMethod: row.PaymentMethod,
			RecordedAt:    row.RecordedAt,
		}
		current := numericToDecimal(row.Reading)
		previous := decimal.Zero
		if row.PreviousReading.Valid {
			s := numericToVolumeString(row.PreviousReading)
			item.PreviousReading = &s
			previous = numericToDecimal(row.PreviousReading)
		}
		item.Volume = current.Sub(previous).StringFixed(3)
		if row.CreditorID.Valid {
			cid := uuid.UUID(row.CreditorID.Bytes)
			item.CreditorID = &cid
		}
		resp[i] = item
	}

	writeJSON(w, http.StatusOK, resp)
}

// --- Helpers ---

func (h *ReadingHandler) writeCreateReadingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrStationNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrNozzleNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrCreditorNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrReadingBelowPrevious), errors.Is(err, service.ErrCreditorRequired):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrDayClosed), errors.Is(err, service.ErrCreditLimitExceeded):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrPriceNotFound), errors.Is(err, service.ErrPriceStale):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	default:
		log.Printf("ERROR: create reading: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

// notifyStation broadcasts an event to a station room; a nil notifier is a
// no-op so handlers stay testable without a hub.
func notifyStation(n StationNotifier, stationID uuid.UUID, eventType string, payload interface{}) {
	if n == nil {
		return
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Printf("ERROR: marshal %s event: %v", eventType, err)
		return
	}
	n.BroadcastToStation(stationID, ws.Event{Type: eventType, Payload: raw})
}

// parseDateParam reads the ?date=YYYY-MM-DD query param, defaulting to today
// (UTC). Writes the error response itself and reports ok=false on failure.
func parseDateParam(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		return time.Now().UTC().Truncate(24 * time.Hour), true
	}
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date, expected YYYY-MM-DD"})
		return time.Time{}, false
	}
	return date, true
}

func numericToString(n pgtype.Numeric) string {
	return numericToFixed(n, 2)
}

// numericToVolumeString keeps three decimals: meter readings and litre
// volumes are stored at millilitre precision.
func numericToVolumeString(n pgtype.Numeric) string {
	return numericToFixed(n, 3)
}

func numericToFixed(n pgtype.Numeric, places int32) string {
	return numericToDecimal(n).StringFixed(places)
}

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
