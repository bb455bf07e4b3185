package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/fuelsync/api/internal/database"
	"github.com/fuelsync/api/internal/enum"
	"github.com/fuelsync/api/internal/handler"
	"github.com/fuelsync/api/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// --- Mock InventoryStore ---

type mockInventoryStore struct {
	listFn   func(ctx context.Context, arg database.ListFuelInventoryParams) ([]database.FuelInventory, error)
	upsertFn func(ctx context.Context, arg database.UpsertFuelInventoryParams) (database.FuelInventory, error)
}

func (m *mockInventoryStore) ListFuelInventoryByStation(ctx context.Context, arg database.ListFuelInventoryParams) ([]database.FuelInventory, error) {
	if m.listFn != nil {
		return m.listFn(ctx, arg)
	}
	return []database.FuelInventory{}, nil
}

func (m *mockInventoryStore) UpsertFuelInventory(ctx context.Context, arg database.UpsertFuelInventoryParams) (database.FuelInventory, error) {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, arg)
	}
	return database.FuelInventory{}, nil
}

func setupInventoryRouter(store *mockInventoryStore) *chi.Mux {
	h := handler.NewInventoryHandler(store)
	r := chi.NewRouter()
	r.Use(middleware.Authenticate(testJWTSecret))
	r.Route("/stations/{sid}/inventory", func(r chi.Router) {
		r.Get("/", h.List)
		r.Put("/", h.Upsert)
	})
	return r
}

// --- List tests ---

func TestInventoryList(t *testing.T) {
	stationID := uuid.New()
	claims := testClaims(stationID, enum.UserRoleManager)

	store := &mockInventoryStore{
		listFn: func(ctx context.Context, arg database.ListFuelInventoryParams) ([]database.FuelInventory, error) {
			if arg.StationID != stationID {
				t.Errorf("station_id: got %v, want %v", arg.StationID, stationID)
			}
			if arg.TenantID != claims.TenantID {
				t.Errorf("tenant_id: got %v, want %v", arg.TenantID, claims.TenantID)
			}
			return []database.FuelInventory{
				{
					ID:           uuid.New(),
					StationID:    stationID,
					FuelType:     enum.FuelTypeDiesel,
					CurrentStock: testNumeric(t, "800.000"),
					MinimumLevel: testNumeric(t, "1000.000"),
					LastUpdated:  time.Now().UTC(),
				},
				{
					ID:           uuid.New(),
					StationID:    stationID,
					FuelType:     enum.FuelTypePetrol,
					CurrentStock: testNumeric(t, "5000.000"),
					MinimumLevel: testNumeric(t, "1000.000"),
					LastUpdated:  time.Now().UTC(),
				},
			}, nil
		},
	}

	router := setupInventoryRouter(store)
	rr := doAuthRequest(t, router, "GET", "/stations/"+stationID.String()+"/inventory/", nil, claims)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var resp []map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp) != 2 {
		t.Fatalf("items: got %d, want 2", len(resp))
	}
	if resp[0]["stock_status"] != "low" {
		t.Errorf("diesel stock_status: got %v, want low", resp[0]["stock_status"])
	}
	if resp[1]["stock_status"] != "good" {
		t.Errorf("petrol stock_status: got %v, want good", resp[1]["stock_status"])
	}
}

func TestInventoryStockStatusBoundaries(t *testing.T) {
	stationID := uuid.New()
	claims := testClaims(stationID, enum.UserRoleManager)

	cases := []struct {
		name    string
		current string
		minimum string
		want    string
	}{
		{"at minimum is low", "1000.000", "1000.000", "low"},
		{"below minimum is low", "500.000", "1000.000", "low"},
		{"at 1.5x minimum is medium", "1500.000", "1000.000", "medium"},
		{"above 1.5x minimum is good", "1500.001", "1000.000", "good"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := &mockInventoryStore{
				listFn: func(ctx context.Context, arg database.ListFuelInventoryParams) ([]database.FuelInventory, error) {
					return []database.FuelInventory{{
						ID:           uuid.New(),
						StationID:    stationID,
						FuelType:     enum.FuelTypePetrol,
						CurrentStock: testNumeric(t, tc.current),
						MinimumLevel: testNumeric(t, tc.minimum),
						LastUpdated:  time.Now().UTC(),
					}}, nil
				},
			}
			router := setupInventoryRouter(store)
			rr := doAuthRequest(t, router, "GET", "/stations/"+stationID.String()+"/inventory/", nil, claims)
			if rr.Code != http.StatusOK {
				t.Fatalf("status: got %d; body: %s", rr.Code, rr.Body.String())
			}
			var resp []map[string]interface{}
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if resp[0]["stock_status"] != tc.want {
				t.Errorf("stock_status: got %v, want %s", resp[0]["stock_status"], tc.want)
			}
		})
	}
}

// --- Upsert tests ---

func TestInventoryUpsert_HappyPath(t *testing.T) {
	stationID := uuid.New()
	claims := testClaims(stationID, enum.UserRoleManager)

	store := &mockInventoryStore{
		upsertFn: func(ctx context.Context, arg database.UpsertFuelInventoryParams) (database.FuelInventory, error) {
			if arg.FuelType != enum.FuelTypeDiesel {
				t.Errorf("fuel_type: got %v, want DIESEL", arg.FuelType)
			}
			stock, _ := arg.CurrentStock.Value()
			if stock != "12000.000" {
				t.Errorf("current_stock: got %v, want 12000.000", stock)
			}
			return database.FuelInventory{
				ID:           uuid.New(),
				TenantID:     arg.TenantID,
				StationID:    arg.StationID,
				FuelType:     arg.FuelType,
				CurrentStock: arg.CurrentStock,
				MinimumLevel: arg.MinimumLevel,
				LastUpdated:  time.Now().UTC(),
			}, nil
		},
	}

	router := setupInventoryRouter(store)
	rr := doAuthRequest(t, router, "PUT", "/stations/"+stationID.String()+"/inventory/", map[string]string{
		"fuel_type":     "DIESEL",
		"current_stock": "12000.000",
		"minimum_level": "2000.000",
	}, claims)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if resp["fuel_type"] != "DIESEL" {
		t.Errorf("fuel_type: got %v, want DIESEL", resp["fuel_type"])
	}
	if resp["stock_status"] != "good" {
		t.Errorf("stock_status: got %v, want good", resp["stock_status"])
	}
}

func TestInventoryUpsert_Validation(t *testing.T) {
	stationID := uuid.New()
	claims := testClaims(stationID, enum.UserRoleManager)
	store := &mockInventoryStore{
		upsertFn: func(ctx context.Context, arg database.UpsertFuelInventoryParams) (database.FuelInventory, error) {
			t.Fatal("upsert should not be called")
			return database.FuelInventory{}, nil
		},
	}
	router := setupInventoryRouter(store)

	cases := []struct {
		name string
		body map[string]string
	}{
		{"bad fuel type", map[string]string{"fuel_type": "KEROSENE", "current_stock": "100"}},
		{"negative stock", map[string]string{"fuel_type": "PETROL", "current_stock": "-5"}},
		{"non-numeric minimum", map[string]string{"fuel_type": "PETROL", "minimum_level": "some"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := doAuthRequest(t, router, "PUT", "/stations/"+stationID.String()+"/inventory/", tc.body, claims)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("status: got %d, want %d; body: %s", rr.Code, http.StatusBadRequest, rr.Body.String())
			}
		})
	}
}
