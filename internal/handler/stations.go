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

// StationStore defines the database methods needed by station handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type StationStore interface {
	ListStationsByTenant(ctx context.Context, tenantID uuid.UUID) ([]database.Station, error)
	GetStation(ctx context.Context, arg database.GetStationParams) (database.Station, error)
	CreateStation(ctx context.Context, arg database.CreateStationParams) (database.Station, error)
	UpdateStation(ctx context.Context, arg database.UpdateStationParams) (database.Station, error)
	SoftDeleteStation(ctx context.Context, arg database.SoftDeleteStationParams) (uuid.UUID, error)
}

// StationHandler handles station CRUD endpoints.
type StationHandler struct {
	store StationStore
}

// NewStationHandler creates a new StationHandler.
func NewStationHandler(store StationStore) *StationHandler {
	return &StationHandler{store: store}
}

// RegisterRoutes registers station CRUD endpoints on the given Chi router.
func (h *StationHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{sid}", h.Get)
	r.Put("/{sid}", h.Update)
	r.Delete("/{sid}", h.Delete)
}

// --- Request / Response types ---

type stationRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

type stationResponse struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	Name      string    `json:"name"`
	Address   *string   `json:"address"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func toStationResponse(s database.Station) stationResponse {
	resp := stationResponse{
		ID:        s.ID,
		TenantID:  s.TenantID,
		Name:      s.Name,
		IsActive:  s.IsActive,
		CreatedAt: s.CreatedAt,
	}
	if s.Address.Valid {
		resp.Address = &s.Address.String
	}
	return resp
}

// --- Handlers ---

// List returns all active stations for the caller's tenant.
func (h *StationHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	stations, err := h.store.ListStationsByTenant(r.Context(), claims.TenantID)
	if err != nil {
		log.Printf("ERROR: list stations: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]stationResponse, len(stations))
	for i, s := range stations {
		resp[i] = toStationResponse(s)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Create adds a new station to the caller's tenant.
func (h *StationHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req stationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	address := pgtype.Text{}
	if req.Address != "" {
		address = pgtype.Text{String: req.Address, Valid: true}
	}

	station, err := h.store.CreateStation(r.Context(), database.CreateStationParams{
		TenantID: claims.TenantID,
		Name:     req.Name,
		Address:  address,
	})
	if err != nil {
		log.Printf("ERROR: create station: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toStationResponse(station))
}

// Get returns a single station in the caller's tenant.
func (h *StationHandler) Get(w http.ResponseWriter, r *http.Request) {
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

	station, err := h.store.GetStation(r.Context(), database.GetStationParams{
		ID:       stationID,
		TenantID: claims.TenantID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "station not found"})
			return
		}
		log.Printf("ERROR: get station: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toStationResponse(station))
}

// Update modifies an existing station in the caller's tenant.
func (h *StationHandler) Update(w http.ResponseWriter, r *http.Request) {
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

	var req stationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	address := pgtype.Text{}
	if req.Address != "" {
		address = pgtype.Text{String: req.Address, Valid: true}
	}

	station, err := h.store.UpdateStation(r.Context(), database.UpdateStationParams{
		ID:       stationID,
		TenantID: claims.TenantID,
		Name:     req.Name,
		Address:  address,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "station not found"})
			return
		}
		log.Printf("ERROR: update station: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toStationResponse(station))
}

// Delete soft-deletes a station in the caller's tenant.
func (h *StationHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	if _, err := h.store.SoftDeleteStation(r.Context(), database.SoftDeleteStationParams{
		ID:       stationID,
		TenantID: claims.TenantID,
	}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "station not found"})
			return
		}
		log.Printf("ERROR: delete station: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
