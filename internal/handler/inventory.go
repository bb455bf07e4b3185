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
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// InventoryStore defines the database methods needed by inventory handlers.
// Satisfied by *database.Queries.
type InventoryStore interface {
	ListFuelInventoryByStation(ctx context.Context, arg database.ListFuelInventoryParams) ([]database.FuelInventory, error)
	UpsertFuelInventory(ctx context.Context, arg database.UpsertFuelInventoryParams) (database.FuelInventory, error)
}

// InventoryHandler handles tank stock endpoints. Stock is set by managers
// after a delivery and drawn down automatically as readings come in.
type InventoryHandler struct {
	store InventoryStore
}

// NewInventoryHandler creates a new InventoryHandler.
func NewInventoryHandler(store InventoryStore) *InventoryHandler {
	return &InventoryHandler{store: store}
}

type upsertInventoryRequest struct {
	FuelType     string `json:"fuel_type"`
	CurrentStock string `json:"current_stock"`
	MinimumLevel string `json:"minimum_level"`
}

type inventoryResponse struct {
	ID           uuid.UUID `json:"id"`
	StationID    uuid.UUID `json:"station_id"`
	FuelType     string    `json:"fuel_type"`
	CurrentStock string    `json:"current_stock"`
	MinimumLevel string    `json:"minimum_level"`
	StockStatus  string    `json:"stock_status"`
	LastUpdated  time.Time `json:"last_updated"`
}

func toInventoryResponse(f database.FuelInventory) inventoryResponse {
	return inventoryResponse{
		ID:           f.ID,
		StationID:    f.StationID,
		FuelType:     f.FuelType,
		CurrentStock: numericToVolumeString(f.CurrentStock),
		MinimumLevel: numericToVolumeString(f.MinimumLevel),
		StockStatus:  stockStatus(f),
		LastUpdated:  f.LastUpdated,
	}
}

// stockStatus classifies tank stock against the minimum level: at or below
// the minimum is low, within 1.5x of it is medium, anything above is good.
func stockStatus(f database.FuelInventory) string {
	current := numericToDecimal(f.CurrentStock)
	minimum := numericToDecimal(f.MinimumLevel)
	switch {
	case current.LessThanOrEqual(minimum):
		return enum.StockStatusLow
	case current.LessThanOrEqual(minimum.Mul(decimal.NewFromFloat(1.5))):
		return enum.StockStatusMedium
	default:
		return enum.StockStatusGood
	}
}

// List returns the station's tank stock per fuel type.
func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
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

	items, err := h.store.ListFuelInventoryByStation(r.Context(), database.ListFuelInventoryParams{
		StationID: stationID,
		TenantID:  claims.TenantID,
	})
	if err != nil {
		log.Printf("ERROR: list inventory: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]inventoryResponse, len(items))
	for i, f := range items {
		resp[i] = toInventoryResponse(f)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Upsert sets the stock and minimum level for one fuel type, typically
// after a tanker delivery.
func (h *InventoryHandler) Upsert(w http.ResponseWriter, r *http.Request) {
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

	var req upsertInventoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if !enum.ValidFuelType(req.FuelType) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid fuel_type"})
		return
	}

	currentStock, err := parseVolume(req.CurrentStock)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "current_stock must be a non-negative number"})
		return
	}
	minimumLevel, err := parseVolume(req.MinimumLevel)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "minimum_level must be a non-negative number"})
		return
	}

	item, err := h.store.UpsertFuelInventory(r.Context(), database.UpsertFuelInventoryParams{
		TenantID:     claims.TenantID,
		StationID:    stationID,
		FuelType:     req.FuelType,
		CurrentStock: currentStock,
		MinimumLevel: minimumLevel,
	})
	if err != nil {
		log.Printf("ERROR: upsert inventory: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toInventoryResponse(item))
}

// parseVolume parses a non-negative volume in liters; empty means zero.
func parseVolume(s string) (pgtype.Numeric, error) {
	d := decimal.Zero
	if s != "" {
		var err error
		d, err = decimal.NewFromString(s)
		if err != nil {
			return pgtype.Numeric{}, err
		}
		if d.IsNegative() {
			return pgtype.Numeric{}, errors.New("negative volume")
		}
	}
	var n pgtype.Numeric
	if err := n.Scan(d.StringFixed(3)); err != nil {
		return pgtype.Numeric{}, err
	}
	return n, nil
}
