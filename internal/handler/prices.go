package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/fuelsync/api/internal/database"
	"github.com/fuelsync/api/internal/enum"
	"github.com/fuelsync/api/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// PriceStore defines the database methods needed by fuel price handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type PriceStore interface {
	ListFuelPricesByStation(ctx context.Context, arg database.ListFuelPricesByStationParams) ([]database.FuelPrice, error)
	CreateFuelPrice(ctx context.Context, arg database.CreateFuelPriceParams) (database.FuelPrice, error)
}

// PriceHandler handles fuel price endpoints. Prices are append-only: a new
// row supersedes the old one from its valid_from instant, and history stays
// intact for reconciliation of past days.
type PriceHandler struct {
	store PriceStore
}

// NewPriceHandler creates a new PriceHandler.
func NewPriceHandler(store PriceStore) *PriceHandler {
	return &PriceHandler{store: store}
}

// RegisterRoutes registers price endpoints. Expected to be mounted inside a
// station-scoped subrouter: /stations/{sid}/prices
func (h *PriceHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
}

// --- Request / Response types ---

type createPriceRequest struct {
	FuelType  string `json:"fuel_type"`
	Price     string `json:"price"`
	ValidFrom string `json:"valid_from"` // RFC 3339; defaults to now
}

type priceResponse struct {
	ID        uuid.UUID `json:"id"`
	StationID uuid.UUID `json:"station_id"`
	FuelType  string    `json:"fuel_type"`
	Price     string    `json:"price"`
	ValidFrom time.Time `json:"valid_from"`
	CreatedAt time.Time `json:"created_at"`
}

func toPriceResponse(p database.FuelPrice) priceResponse {
	return priceResponse{
		ID:        p.ID,
		StationID: p.StationID,
		FuelType:  p.FuelType,
		Price:     numericToString(p.Price),
		ValidFrom: p.ValidFrom,
		CreatedAt: p.CreatedAt,
	}
}

// --- Handlers ---

// List returns the price history for the given station, newest first.
func (h *PriceHandler) List(w http.ResponseWriter, r *http.Request) {
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

	prices, err := h.store.ListFuelPricesByStation(r.Context(), database.ListFuelPricesByStationParams{
		StationID: stationID,
		TenantID:  claims.TenantID,
	})
	if err != nil {
		log.Printf("ERROR: list fuel prices: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]priceResponse, len(prices))
	for i, p := range prices {
		resp[i] = toPriceResponse(p)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Create records a new price for a fuel type at the given station.
func (h *PriceHandler) Create(w http.ResponseWriter, r *http.Request) {
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

	var req createPriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if !enum.ValidFuelType(req.FuelType) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid fuel_type"})
		return
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.LessThanOrEqual(decimal.Zero) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "price must be a positive number"})
		return
	}

	validFrom := time.Now().UTC()
	if req.ValidFrom != "" {
		validFrom, err = time.Parse(time.RFC3339, req.ValidFrom)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid valid_from, expected RFC 3339"})
			return
		}
	}

	var priceNum pgtype.Numeric
	if err := priceNum.Scan(price.StringFixed(2)); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid price"})
		return
	}

	created, err := h.store.CreateFuelPrice(r.Context(), database.CreateFuelPriceParams{
		TenantID:  claims.TenantID,
		StationID: stationID,
		FuelType:  req.FuelType,
		Price:     priceNum,
		ValidFrom: validFrom,
	})
	if err != nil {
		log.Printf("ERROR: create fuel price: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toPriceResponse(created))
}
