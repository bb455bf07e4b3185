package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fuelsync/api/internal/auth"
	"github.com/fuelsync/api/internal/database"
	"github.com/fuelsync/api/internal/enum"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5"
)

const testJWTSecret = "ws-test-secret"

// mockStationStore maps station IDs to their owning tenant
type mockStationStore struct {
	stations map[uuid.UUID]uuid.UUID
}

func (m *mockStationStore) GetStation(_ context.Context, arg database.GetStationParams) (database.Station, error) {
	tenantID, ok := m.stations[arg.ID]
	if !ok || tenantID != arg.TenantID {
		return database.Station{}, pgx.ErrNoRows
	}
	return database.Station{ID: arg.ID, TenantID: tenantID, IsActive: true}, nil
}

func newWSTestServer(t *testing.T, hub *Hub, store StationStore) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Get("/ws/stations/{sid}", func(w http.ResponseWriter, req *http.Request) {
		ServeWS(hub, store, testJWTSecret, w, req)
	})
	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server
}

func dialStation(server *httptest.Server, stationID uuid.UUID, token string) (*websocket.Conn, *http.Response, error) {
	wsURL := strings.Replace(server.URL, "http://", "ws://", 1) +
		"/ws/stations/" + stationID.String()
	if token != "" {
		wsURL += "?token=" + token
	}
	return websocket.DefaultDialer.Dial(wsURL, nil)
}

func mustToken(t *testing.T, userID, tenantID, stationID uuid.UUID, role string) string {
	t.Helper()
	token, err := auth.GenerateToken(testJWTSecret, userID, tenantID, stationID, role)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return token
}

func TestServeWSRejectsCrossTenantStation(t *testing.T) {
	hub := NewHub()
	runHub(t, hub)

	tenantA := uuid.New()
	tenantB := uuid.New()
	stationA := uuid.New()

	store := &mockStationStore{stations: map[uuid.UUID]uuid.UUID{stationA: tenantA}}
	server := newWSTestServer(t, hub, store)

	// An owner of tenant B must not be able to subscribe to tenant A's station
	token := mustToken(t, uuid.New(), tenantB, uuid.Nil, enum.UserRoleOwner)
	conn, resp, err := dialStation(server, stationA, token)
	if err == nil {
		conn.Close()
		t.Fatal("expected handshake to fail for cross-tenant station")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", resp)
	}

	hub.mu.RLock()
	defer hub.mu.RUnlock()
	if hub.rooms[stationA] != nil {
		t.Fatal("cross-tenant client must not be registered in the station room")
	}
}

func TestServeWSSameTenantOwnerReceivesEvents(t *testing.T) {
	hub := NewHub()
	runHub(t, hub)

	tenantID := uuid.New()
	stationID := uuid.New()

	store := &mockStationStore{stations: map[uuid.UUID]uuid.UUID{stationID: tenantID}}
	server := newWSTestServer(t, hub, store)

	token := mustToken(t, uuid.New(), tenantID, uuid.Nil, enum.UserRoleOwner)
	conn, _, err := dialStation(server, stationID, token)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Give the hub time to register the client
	time.Sleep(20 * time.Millisecond)

	hub.BroadcastToStation(stationID, Event{
		Type:    "reading.created",
		Payload: json.RawMessage(`{"reading_id":"r-1"}`),
	})

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var received Event
	if err := json.Unmarshal(msg, &received); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if received.Type != "reading.created" {
		t.Errorf("expected type 'reading.created', got '%s'", received.Type)
	}
}

func TestServeWSAttendantPinnedToStation(t *testing.T) {
	hub := NewHub()
	runHub(t, hub)

	tenantID := uuid.New()
	homeStation := uuid.New()
	otherStation := uuid.New()

	store := &mockStationStore{stations: map[uuid.UUID]uuid.UUID{
		homeStation:  tenantID,
		otherStation: tenantID,
	}}
	server := newWSTestServer(t, hub, store)

	// Same tenant, but the attendant's token pins them to homeStation
	token := mustToken(t, uuid.New(), tenantID, homeStation, enum.UserRoleAttendant)
	conn, resp, err := dialStation(server, otherStation, token)
	if err == nil {
		conn.Close()
		t.Fatal("expected handshake to fail for attendant outside pinned station")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", resp)
	}

	// The pinned station works
	conn, _, err = dialStation(server, homeStation, token)
	if err != nil {
		t.Fatalf("dial pinned station: %v", err)
	}
	conn.Close()
}

func TestServeWSMissingToken(t *testing.T) {
	hub := NewHub()
	runHub(t, hub)

	stationID := uuid.New()
	store := &mockStationStore{stations: map[uuid.UUID]uuid.UUID{stationID: uuid.New()}}
	server := newWSTestServer(t, hub, store)

	conn, resp, err := dialStation(server, stationID, "")
	if err == nil {
		conn.Close()
		t.Fatal("expected handshake to fail without token")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", resp)
	}
}

func TestServeWSUnknownStation(t *testing.T) {
	hub := NewHub()
	runHub(t, hub)

	tenantID := uuid.New()
	store := &mockStationStore{stations: map[uuid.UUID]uuid.UUID{}}
	server := newWSTestServer(t, hub, store)

	token := mustToken(t, uuid.New(), tenantID, uuid.Nil, enum.UserRoleManager)
	conn, resp, err := dialStation(server, uuid.New(), token)
	if err == nil {
		conn.Close()
		t.Fatal("expected handshake to fail for unknown station")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", resp)
	}
}
