package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/fuelsync/api/internal/database"
	"github.com/fuelsync/api/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// AlertStore defines the database methods needed by alert handlers.
// Satisfied by *database.Queries.
type AlertStore interface {
	ListAlerts(ctx context.Context, arg database.ListAlertsParams) ([]database.Alert, error)
	MarkAlertRead(ctx context.Context, arg database.AlertIDParams) (database.Alert, error)
	DeleteAlert(ctx context.Context, arg database.AlertIDParams) (uuid.UUID, error)
}

// AlertHandler handles tenant alert endpoints. Alerts are raised by the
// reading pipeline (low tank stock, creditors near their limit) and read
// here.
type AlertHandler struct {
	store AlertStore
}

// NewAlertHandler creates a new AlertHandler.
func NewAlertHandler(store AlertStore) *AlertHandler {
	return &AlertHandler{store: store}
}

// RegisterRoutes registers alert endpoints under /alerts.
func (h *AlertHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Put("/{id}/read", h.MarkRead)
	r.Delete("/{id}", h.Delete)
}

type alertResponse struct {
	ID        uuid.UUID  `json:"id"`
	StationID *uuid.UUID `json:"station_id"`
	AlertType string     `json:"alert_type"`
	Message   string     `json:"message"`
	Severity  string     `json:"severity"`
	IsRead    bool       `json:"is_read"`
	CreatedAt time.Time  `json:"created_at"`
}

func toAlertResponse(a database.Alert) alertResponse {
	resp := alertResponse{
		ID:        a.ID,
		AlertType: a.AlertType,
		Message:   a.Message,
		Severity:  a.Severity,
		IsRead:    a.IsRead,
		CreatedAt: a.CreatedAt,
	}
	if a.StationID.Valid {
		sid := uuid.UUID(a.StationID.Bytes)
		resp.StationID = &sid
	}
	return resp
}

// List returns the tenant's newest alerts, optionally filtered by station
// (?station_id=) and read state (?unread=true).
func (h *AlertHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	params := database.ListAlertsParams{
		TenantID:   claims.TenantID,
		UnreadOnly: r.URL.Query().Get("unread") == "true",
	}
	if sidStr := r.URL.Query().Get("station_id"); sidStr != "" {
		sid, err := uuid.Parse(sidStr)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid station_id"})
			return
		}
		params.StationID = pgtype.UUID{Bytes: sid, Valid: true}
	}

	alerts, err := h.store.ListAlerts(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: list alerts: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]alertResponse, len(alerts))
	for i, a := range alerts {
		resp[i] = toAlertResponse(a)
	}

	writeJSON(w, http.StatusOK, resp)
}

// MarkRead flags one alert as read.
func (h *AlertHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid alert ID"})
		return
	}

	alert, err := h.store.MarkAlertRead(r.Context(), database.AlertIDParams{
		ID:       id,
		TenantID: claims.TenantID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "alert not found"})
			return
		}
		log.Printf("ERROR: mark alert read: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toAlertResponse(alert))
}

// Delete removes one alert.
func (h *AlertHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid alert ID"})
		return
	}

	if _, err := h.store.DeleteAlert(r.Context(), database.AlertIDParams{
		ID:       id,
		TenantID: claims.TenantID,
	}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "alert not found"})
			return
		}
		log.Printf("ERROR: delete alert: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
