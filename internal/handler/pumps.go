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
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// PumpStore defines the database methods needed by pump handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type PumpStore interface {
	ListPumpsByStation(ctx context.Context, arg database.ListPumpsByStationParams) ([]database.Pump, error)
	CreatePump(ctx context.Context, arg database.CreatePumpParams) (database.Pump, error)
	SoftDeletePump(ctx context.Context, arg database.SoftDeletePumpParams) (uuid.UUID, error)
}

// PumpHandler handles pump CRUD endpoints.
type PumpHandler struct {
	store PumpStore
}

// NewPumpHandler creates a new PumpHandler.
func NewPumpHandler(store PumpStore) *PumpHandler {
	return &PumpHandler{store: store}
}

// RegisterRoutes registers pump endpoints. Expected to be mounted inside a
// station-scoped subrouter: /stations/{sid}/pumps
func (h *PumpHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type createPumpRequest struct {
	Label        string `json:"label"`
	SerialNumber string `json:"serial_number"`
}

type pumpResponse struct {
	ID           uuid.UUID `json:"id"`
	StationID    uuid.UUID `json:"station_id"`
	Label        string    `json:"label"`
	SerialNumber *string   `json:"serial_number"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

func toPumpResponse(p database.Pump) pumpResponse {
	resp := pumpResponse{
		ID:        p.ID,
		StationID: p.StationID,
		Label:     p.Label,
		IsActive:  p.IsActive,
		CreatedAt: p.CreatedAt,
	}
	if p.SerialNumber.Valid {
		resp.SerialNumber = &p.SerialNumber.String
	}
	return resp
}

// --- Handlers ---

// List returns all active pumps for the given station.
func (h *PumpHandler) List(w http.ResponseWriter, r *http.Request) {
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

	pumps, err := h.store.ListPumpsByStation(r.Context(), database.ListPumpsByStationParams{
		StationID: stationID,
		TenantID:  claims.TenantID,
	})
	if err != nil {
		log.Printf("ERROR: list pumps: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]pumpResponse, len(pumps))
	for i, p := range pumps {
		resp[i] = toPumpResponse(p)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Create adds a new pump to the given station.
func (h *PumpHandler) Create(w http.ResponseWriter, r *http.Request) {
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

	var req createPumpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Label == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "label is required"})
		return
	}

	serial := pgtype.Text{}
	if req.SerialNumber != "" {
		serial = pgtype.Text{String: req.SerialNumber, Valid: true}
	}

	pump, err := h.store.CreatePump(r.Context(), database.CreatePumpParams{
		TenantID:     claims.TenantID,
		StationID:    stationID,
		Label:        req.Label,
		SerialNumber: serial,
	})
	if err != nil {
		log.Printf("ERROR: create pump: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toPumpResponse(pump))
}

// Delete soft-deletes a pump.
func (h *PumpHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	pumpID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid pump ID"})
		return
	}

	if _, err := h.store.SoftDeletePump(r.Context(), database.SoftDeletePumpParams{
		ID:       pumpID,
		TenantID: claims.TenantID,
	}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "pump not found"})
			return
		}
		log.Printf("ERROR: delete pump: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
