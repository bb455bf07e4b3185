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
	"github.com/shopspring/decimal"
)

// CreditorStore defines the database methods needed by creditor handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type CreditorStore interface {
	ListCreditorsByStation(ctx context.Context, arg database.ListCreditorsByStationParams) ([]database.Creditor, error)
	CreateCreditor(ctx context.Context, arg database.CreateCreditorParams) (database.Creditor, error)
	SoftDeleteCreditor(ctx context.Context, arg database.SoftDeleteCreditorParams) (uuid.UUID, error)
}

// CreditorHandler handles creditor endpoints.
type CreditorHandler struct {
	store CreditorStore
}

// NewCreditorHandler creates a new CreditorHandler.
func NewCreditorHandler(store CreditorStore) *CreditorHandler {
	return &CreditorHandler{store: store}
}

// RegisterRoutes registers creditor endpoints. Expected to be mounted inside
// a station-scoped subrouter: /stations/{sid}/creditors
func (h *CreditorHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type createCreditorRequest struct {
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	CreditLimit string `json:"credit_limit"` // "0" or empty means no limit
}

type creditorResponse struct {
	ID          uuid.UUID `json:"id"`
	StationID   uuid.UUID `json:"station_id"`
	Name        string    `json:"name"`
	Phone       *string   `json:"phone"`
	CreditLimit string    `json:"credit_limit"`
	Balance     string    `json:"balance"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

func toCreditorResponse(c database.Creditor) creditorResponse {
	resp := creditorResponse{
		ID:          c.ID,
		StationID:   c.StationID,
		Name:        c.Name,
		CreditLimit: numericToString(c.CreditLimit),
		Balance:     numericToString(c.Balance),
		IsActive:    c.IsActive,
		CreatedAt:   c.CreatedAt,
	}
	if c.Phone.Valid {
		resp.Phone = &c.Phone.String
	}
	return resp
}

// --- Handlers ---

// List returns all active creditors for the given station.
func (h *CreditorHandler) List(w http.ResponseWriter, r *http.Request) {
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

	creditors, err := h.store.ListCreditorsByStation(r.Context(), database.ListCreditorsByStationParams{
		StationID: stationID,
		TenantID:  claims.TenantID,
	})
	if err != nil {
		log.Printf("ERROR: list creditors: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]creditorResponse, len(creditors))
	for i, c := range creditors {
		resp[i] = toCreditorResponse(c)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Create adds a new creditor to the given station.
func (h *CreditorHandler) Create(w http.ResponseWriter, r *http.Request) {
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

	var req createCreditorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	limit := decimal.Zero
	if req.CreditLimit != "" {
		limit, err = decimal.NewFromString(req.CreditLimit)
		if err != nil || limit.IsNegative() {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "credit_limit must be a non-negative number"})
			return
		}
	}

	phone := pgtype.Text{}
	if req.Phone != "" {
		phone = pgtype.Text{String: req.Phone, Valid: true}
	}

	var limitNum pgtype.Numeric
	if err := limitNum.Scan(limit.StringFixed(2)); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid credit_limit"})
		return
	}

	creditor, err := h.store.CreateCreditor(r.Context(), database.CreateCreditorParams{
		TenantID:    claims.TenantID,
		StationID:   stationID,
		Name:        req.Name,
		Phone:       phone,
		CreditLimit: limitNum,
	})
	if err != nil {
		log.Printf("ERROR: create creditor: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toCreditorResponse(creditor))
}

// Delete soft-deletes a creditor.
func (h *CreditorHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	creditorID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid creditor ID"})
		return
	}

	if _, err := h.store.SoftDeleteCreditor(r.Context(), database.SoftDeleteCreditorParams{
		ID:       creditorID,
		TenantID: claims.TenantID,
	}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "creditor not found"})
			return
		}
		log.Printf("ERROR: delete creditor: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
