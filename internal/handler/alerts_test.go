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
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// --- Mock AlertStore ---

type mockAlertStore struct {
	listFn     func(ctx context.Context, arg database.ListAlertsParams) ([]database.Alert, error)
	markReadFn func(ctx context.Context, arg database.AlertIDParams) (database.Alert, error)
	deleteFn   func(ctx context.Context, arg database.AlertIDParams) (uuid.UUID, error)
}

func (m *mockAlertStore) ListAlerts(ctx context.Context, arg database.ListAlertsParams) ([]database.Alert, error) {
	if m.listFn != nil {
		return m.listFn(ctx, arg)
	}
	return []database.Alert{}, nil
}

func (m *mockAlertStore) MarkAlertRead(ctx context.Context, arg database.AlertIDParams) (database.Alert, error) {
	if m.markReadFn != nil {
		return m.markReadFn(ctx, arg)
	}
	return database.Alert{}, pgx.ErrNoRows
}

func (m *mockAlertStore) DeleteAlert(ctx context.Context, arg database.AlertIDParams) (uuid.UUID, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, arg)
	}
	return uuid.Nil, pgx.ErrNoRows
}

func setupAlertRouter(store *mockAlertStore) *chi.Mux {
	h := handler.NewAlertHandler(store)
	r := chi.NewRouter()
	r.Use(middleware.Authenticate(testJWTSecret))
	r.Route("/alerts", h.RegisterRoutes)
	return r
}

// --- List tests ---

func TestAlertList(t *testing.T) {
	claims := testClaims(uuid.Nil, enum.UserRoleOwner)
	stationID := uuid.New()

	store := &mockAlertStore{
		listFn: func(ctx context.Context, arg database.ListAlertsParams) ([]database.Alert, error) {
			if arg.TenantID != claims.TenantID {
				t.Errorf("tenant_id: got %v, want %v", arg.TenantID, claims.TenantID)
			}
			if arg.StationID.Valid {
				t.Error("station filter should be empty when not requested")
			}
			return []database.Alert{
				{
					ID:        uuid.New(),
					TenantID:  claims.TenantID,
					StationID: pgtype.UUID{Bytes: stationID, Valid: true},
					AlertType: enum.AlertTypeLowInventory,
					Message:   "DIESEL stock is at or below the minimum level",
					Severity:  enum.AlertSeverityWarning,
					CreatedAt: time.Now().UTC(),
				},
			}, nil
		},
	}

	router := setupAlertRouter(store)
	rr := doAuthRequest(t, router, "GET", "/alerts/", nil, claims)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var resp []map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp) != 1 {
		t.Fatalf("alerts: got %d, want 1", len(resp))
	}
	if resp[0]["alert_type"] != "low_inventory" {
		t.Errorf("alert_type: got %v, want low_inventory", resp[0]["alert_type"])
	}
	if resp[0]["severity"] != "warning" {
		t.Errorf("severity: got %v, want warning", resp[0]["severity"])
	}
	if resp[0]["station_id"] != stationID.String() {
		t.Errorf("station_id: got %v, want %v", resp[0]["station_id"], stationID)
	}
}

func TestAlertList_Filters(t *testing.T) {
	claims := testClaims(uuid.Nil, enum.UserRoleOwner)
	stationID := uuid.New()

	store := &mockAlertStore{
		listFn: func(ctx context.Context, arg database.ListAlertsParams) ([]database.Alert, error) {
			if !arg.StationID.Valid || uuid.UUID(arg.StationID.Bytes) != stationID {
				t.Errorf("station filter: got %v, want %v", arg.StationID, stationID)
			}
			if !arg.UnreadOnly {
				t.Error("unread filter not applied")
			}
			return []database.Alert{}, nil
		},
	}

	router := setupAlertRouter(store)
	rr := doAuthRequest(t, router, "GET", "/alerts/?station_id="+stationID.String()+"&unread=true", nil, claims)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d; body: %s", rr.Code, rr.Body.String())
	}
}

// --- MarkRead tests ---

func TestAlertMarkRead(t *testing.T) {
	claims := testClaims(uuid.Nil, enum.UserRoleManager)
	alertID := uuid.New()

	store := &mockAlertStore{
		markReadFn: func(ctx context.Context, arg database.AlertIDParams) (database.Alert, error) {
			if arg.ID != alertID {
				t.Errorf("alert id: got %v, want %v", arg.ID, alertID)
			}
			if arg.TenantID != claims.TenantID {
				t.Errorf("tenant_id: got %v, want %v", arg.TenantID, claims.TenantID)
			}
			return database.Alert{
				ID:        alertID,
				TenantID:  arg.TenantID,
				AlertType: enum.AlertTypeCreditNearLimit,
				Message:   "Highway Transporters is above 90% of their credit limit",
				Severity:  enum.AlertSeverityWarning,
				IsRead:    true,
				CreatedAt: time.Now().UTC(),
			}, nil
		},
	}

	router := setupAlertRouter(store)
	rr := doAuthRequest(t, router, "PUT", "/alerts/"+alertID.String()+"/read", nil, claims)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if resp["is_read"] != true {
		t.Errorf("is_read: got %v, want true", resp["is_read"])
	}
}

func TestAlertMarkRead_NotFound(t *testing.T) {
	claims := testClaims(uuid.Nil, enum.UserRoleManager)
	router := setupAlertRouter(&mockAlertStore{})

	rr := doAuthRequest(t, router, "PUT", "/alerts/"+uuid.NewString()+"/read", nil, claims)
	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

// --- Delete tests ---

func TestAlertDelete(t *testing.T) {
	claims := testClaims(uuid.Nil, enum.UserRoleOwner)
	alertID := uuid.New()

	store := &mockAlertStore{
		deleteFn: func(ctx context.Context, arg database.AlertIDParams) (uuid.UUID, error) {
			if arg.ID != alertID {
				t.Errorf("alert id: got %v, want %v", arg.ID, alertID)
			}
			return arg.ID, nil
		},
	}

	router := setupAlertRouter(store)
	rr := doAuthRequest(t, router, "DELETE", "/alerts/"+alertID.String(), nil, claims)

	if rr.Code != http.StatusNoContent {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNoContent)
	}
}

func TestAlertDelete_NotFound(t *testing.T) {
	claims := testClaims(uuid.Nil, enum.UserRoleOwner)
	router := setupAlertRouter(&mockAlertStore{})

	rr := doAuthRequest(t, router, "DELETE", "/alerts/"+uuid.NewString(), nil, claims)
	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}
