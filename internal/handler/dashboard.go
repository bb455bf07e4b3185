package handler

import (
	"context"
	"log"
	"net/http"

	"github.com/fuelsync/api/internal/database"
	"github.com/fuelsync/api/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// DashboardStore defines the database methods needed by dashboard handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type DashboardStore interface {
	GetDailySalesByMethod(ctx context.Context, arg database.GetDailySalesByMethodParams) ([]database.DailySalesByMethodRow, error)
	GetDailySalesByFuel(ctx context.Context, arg database.GetDailySalesByMethodParams) ([]database.DailySalesByFuelRow, error)
}

// DashboardHandler serves the station sales dashboard.
type DashboardHandler struct {
	store DashboardStore
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(store DashboardStore) *DashboardHandler {
	return &DashboardHandler{store: store}
}

// RegisterRoutes registers dashboard endpoints. Expected to be mounted inside
// a station-scoped subrouter: /stations/{sid}/dashboard
func (h *DashboardHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Get)
}

// --- Response types ---

type methodSalesResponse struct {
	PaymentMethod string `json:"payment_method"`
	SaleCount     int64  `json:"sale_count"`
	TotalVolume   string `json:"total_volume"`
	TotalAmount   string `json:"total_amount"`
}

type fuelSalesResponse struct {
	FuelType    string `json:"fuel_type"`
	SaleCount   int64  `json:"sale_count"`
	TotalVolume string `json:"total_volume"`
	TotalAmount string `json:"total_amount"`
}

type dashboardResponse struct {
	StationID uuid.UUID             `json:"station_id"`
	Date      string                `json:"date"`
	ByMethod  []methodSalesResponse `json:"by_method"`
	ByFuel    []fuelSalesResponse   `json:"by_fuel"`
}

// --- Handlers ---

// Get returns one day's sales grouped by payment method and by fuel type.
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
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

	params := database.GetDailySalesByMethodParams{
		StationID: stationID,
		TenantID:  claims.TenantID,
		DayStart:  date,
		DayEnd:    date.AddDate(0, 0, 1),
	}

	byMethod, err := h.store.GetDailySalesByMethod(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: sales by method: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	byFuel, err := h.store.GetDailySalesByFuel(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: sales by fuel: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := dashboardResponse{
		StationID: stationID,
		Date:      date.Format("2006-01-02"),
		ByMethod:  make([]methodSalesResponse, len(byMethod)),
		ByFuel:    make([]fuelSalesResponse, len(byFuel)),
	}
	for i, row := range byMethod {
		resp.ByMethod[i] = methodSalesResponse{
			PaymentMethod: row.PaymentMethod,
			SaleCount:     row.SaleCount,
			TotalVolume:   numericToVolumeString(row.TotalVolume),
			TotalAmount:   numericToString(row.TotalAmount),
		}
	}
	for i, row := range byFuel {
		resp.ByFuel[i] = fuelSalesResponse{
			FuelType:    row.FuelType,
			SaleCount:   row.SaleCount,
			TotalVolume: numericToVolumeString(row.TotalVolume),
			TotalAmount: numericToString(row.TotalAmount),
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
