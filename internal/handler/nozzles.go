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
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// NozzleStore defines the database methods needed by nozzle handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type NozzleStore interface {
	ListNozzlesByPump(ctx context.Context, arg database.ListNozzlesByPumpParams) ([]database.Nozzle, error)
	CreateNozzle(ctx context.Context, arg database.CreateNozzleParams) (database.Nozzle, error)
	SoftDeleteNozzle(ctx context.Context, arg database.SoftDeleteNozzleParams) (uuid.UUID, error)
}

// NozzleHandler handles nozzle CRUD endpoints.
type NozzleHandler struct {
	store NozzleStore
}

// NewNozzleHandler creates a new NozzleHandler.
func NewNozzleHandler(store NozzleStore) *NozzleHandler {
	return &NozzleHandler{store: store}
}

// RegisterRoutes registers nozzle endpoints. Expected to be mounted inside a
// pump-scoped subrouter: /stations/{sid}/pumps/{pid}/nozzles
func (h *NozzleHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type createNozzleRequest struct {
	NozzleNumber int32  `json:"nozzle_number"`
	FuelType     string `json:"fuel_type"`
}

type nozzleResponse struct {
	ID           uuid.UUID `json:"id"`
	PumpID       uuid.UUID `json:"pump_id"`
	NozzleNumber int32     `json:"nozzle_number"`
	FuelType     string    `json:"fuel_type"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

func toNozzleResponse(n database.Nozzle) nozzleResponse {
	return nozzleResponse{
		ID:           n.ID,
		PumpID:       n.PumpID,
		NozzleNumber: n.NozzleNumber,
		FuelType:     n.FuelType,
		IsActive:     n.IsActive,
		CreatedAt:    n.CreatedAt,
	}
}

// --- Handlers ---

// List returns all active nozzles for the given pump.
func (h *NozzleHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	pumpID, err := uuid.Parse(chi.URLParam(r, "pid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid pump ID"})
		return
	}

	nozzles, err := h.store.ListNozzlesByPump(r.Context(), database.ListNozzlesByPumpParams{
		PumpID:   pumpID,
		TenantID: claims.TenantID,
	})
	if err != nil {
		log.Printf("ERROR: list nozzles: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]nozzleResponse, len(nozzles))
	for i, n := range nozzles {
		resp[i] = toNozzleResponse(n)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Create adds a new nozzle to the given pump.
func (h *NozzleHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	pumpID, err := uuid.Parse(chi.URLParam(r, "pid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid pump ID"})
		return
	}

	var req createNozzleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.NozzleNumber <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "nozzle_number must be positive"})
		return
	}
	if !enum.ValidFuelType(req.FuelType) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid fuel_type"})
		return
	}

	nozzle, err := h.store.CreateNozzle(r.Context(), database.CreateNozzleParams{
		TenantID:     claims.TenantID,
		PumpID:       pumpID,
		NozzleNumber: req.NozzleNumber,
		FuelType:     req.FuelType,
	})
	if err != nil {
		log.Printf("ERROR: create nozzle: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toNozzleResponse(nozzle))
}

// Delete soft-deletes a nozzle.
func (h *NozzleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	nozzleID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid nozzle ID"})
		return
	}

	if _, err := h.store.SoftDeleteNozzle(r.Context(), database.SoftDeleteNozzleParams{
		ID:       nozzleID,
		TenantID: claims.TenantID,
	}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "nozzle not found"})
			return
		}
		log.Printf("ERROR: delete nozzle: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
