//go:build integration

package handler_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fuelsync/api/internal/config"
	"github.com/fuelsync/api/internal/database"
	"github.com/fuelsync/api/internal/router"
	"github.com/fuelsync/api/internal/ws"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/crypto/bcrypt"
)

// TestIntegrationFlow exercises the full reconciliation lifecycle against a
// real PostgreSQL database: station setup, readings, cash reports, summary,
// and the one-way day closure.
func TestIntegrationFlow(t *testing.T) {
	ctx := context.Background()

	pgContainer, connStr, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	runMigrations(t, connStr)

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	defer pool.Close()

	cfg := &config.Config{
		Port:                    "8081",
		DatabaseURL:             connStr,
		JWTSecret:               "integration-test-secret",
		ReconciliationTolerance: "1.00",
		MediumRiskPercent:       "5",
	}
	queries := database.New(pool)
	hub := ws.NewHub()
	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go hub.Run(hubCtx)

	r := router.New(cfg, queries, pool, hub)

	server := httptest.NewServer(r)
	defer server.Close()

	// --- 1. Create tenant (manual DB insert - tenants are provisioned by superadmin) ---
	tenantID := createTenant(t, ctx, pool)

	// --- 2. Create owner user (manual DB insert to bootstrap) ---
	ownerID := createOwnerUser(t, ctx, pool, tenantID)

	// --- 3. Login as owner ---
	ownerToken := login(t, server, "owner@test.com", "password123")

	// --- 4. Create station through API ---
	status, stationResp := doJSON(t, server, "POST", "/stations", map[string]interface{}{
		"name":    "Main Station",
		"address": "NH 48, Gurugram",
	}, ownerToken)
	requireStatus(t, "create station", status, http.StatusCreated)
	stationID := uuid.MustParse(stationResp["id"].(string))

	// --- 5. Create attendant pinned to the station ---
	status, attendantResp := doJSON(t, server, "POST", "/users", map[string]interface{}{
		"email":      "attendant@test.com",
		"password":   "password123",
		"full_name":  "Test Attendant",
		"role":       "ATTENDANT",
		"station_id": stationID.String(),
	}, ownerToken)
	requireStatus(t, "create attendant", status, http.StatusCreated)
	attendantID := uuid.MustParse(attendantResp["id"].(string))

	// --- 6. Create pump and nozzle ---
	status, pumpResp := doJSON(t, server, "POST", fmt.Sprintf("/stations/%s/pumps", stationID), map[string]interface{}{
		"label": "Pump 1",
	}, ownerToken)
	requireStatus(t, "create pump", status, http.StatusCreated)
	pumpID := uuid.MustParse(pumpResp["id"].(string))

	status, nozzleResp := doJSON(t, server, "POST", fmt.Sprintf("/stations/%s/pumps/%s/nozzles", stationID, pumpID), map[string]interface{}{
		"nozzle_number": 1,
		"fuel_type":     "PETROL",
	}, ownerToken)
	requireStatus(t, "create nozzle", status, http.StatusCreated)
	nozzleID := uuid.MustParse(nozzleResp["id"].(string))

	// --- 7. Set a petrol price effective since an hour ago ---
	status, _ = doJSON(t, server, "POST", fmt.Sprintf("/stations/%s/prices", stationID), map[string]interface{}{
		"fuel_type":  "PETROL",
		"price":      "100.00",
		"valid_from": time.Now().UTC().Add(-time.Hour).Format(time.RFC3339),
	}, ownerToken)
	requireStatus(t, "create price", status, http.StatusCreated)

	// --- 8. Record readings as the attendant ---
	attendantToken := login(t, server, "attendant@test.com", "password123")

	// First reading for a nozzle counts from zero: 10.000 L * 100.00 = 1000.00
	status, reading1 := doJSON(t, server, "POST", fmt.Sprintf("/stations/%s/readings", stationID), map[string]interface{}{
		"nozzle_id":      nozzleID.String(),
		"reading":        "10.000",
		"payment_method": "CASH",
	}, attendantToken)
	requireStatus(t, "first reading", status, http.StatusCreated)
	sale1 := reading1["sale"].(map[string]interface{})
	if sale1["amount"].(string) != "1000.00" {
		t.Fatalf("first sale amount: got %s, want 1000.00", sale1["amount"])
	}

	// Second reading: delta 5.500 L * 100.00 = 550.00
	status, reading2 := doJSON(t, server, "POST", fmt.Sprintf("/stations/%s/readings", stationID), map[string]interface{}{
		"nozzle_id":      nozzleID.String(),
		"reading":        "15.500",
		"payment_method": "UPI",
	}, attendantToken)
	requireStatus(t, "second reading", status, http.StatusCreated)
	sale2 := reading2["sale"].(map[string]interface{})
	if sale2["amount"].(string) != "550.00" {
		t.Fatalf("second sale amount: got %s, want 550.00", sale2["amount"])
	}

	// A reading below the running total must be rejected.
	status, _ = doJSON(t, server, "POST", fmt.Sprintf("/stations/%s/readings", stationID), map[string]interface{}{
		"nozzle_id":      nozzleID.String(),
		"reading":        "12.000",
		"payment_method": "CASH",
	}, attendantToken)
	requireStatus(t, "backwards reading", status, http.StatusBadRequest)

	// --- 9. Submit the shift cash report matching the system totals ---
	today := time.Now().UTC().Format("2006-01-02")
	status, _ = doJSON(t, server, "PUT", fmt.Sprintf("/stations/%s/cash-reports", stationID), map[string]interface{}{
		"date":        today,
		"shift":       "MORNING",
		"cash_amount": "1000.00",
		"upi_amount":  "550.00",
	}, attendantToken)
	requireStatus(t, "submit cash report", status, http.StatusOK)

	// --- 10. Reconciliation summary: totals match, low risk ---
	status, summary := doJSON(t, server, "GET", fmt.Sprintf("/stations/%s/reconciliation?date=%s", stationID, today), nil, ownerToken)
	requireStatus(t, "summary", status, http.StatusOK)

	system := summary["system_calculated"].(map[string]interface{})
	if system["total_revenue"].(string) != "1550.00" {
		t.Fatalf("total_revenue: got %s, want 1550.00", system["total_revenue"])
	}
	diff := summary["differences"].(map[string]interface{})
	if diff["is_within_tolerance"].(bool) != true {
		t.Fatalf("expected totals within tolerance, got differences %v", diff)
	}
	if summary["risk_level"].(string) != "low" {
		t.Fatalf("risk_level: got %s, want low", summary["risk_level"])
	}
	if summary["is_closed"].(bool) != false {
		t.Fatal("day should be open before closure")
	}

	// --- 11. Attendant must not be able to close the day ---
	status, _ = doJSON(t, server, "POST", fmt.Sprintf("/stations/%s/reconciliation/close", stationID), map[string]interface{}{
		"date": today,
	}, attendantToken)
	requireStatus(t, "attendant close attempt", status, http.StatusForbidden)

	// --- 12. Close the day as owner ---
	status, closure := doJSON(t, server, "POST", fmt.Sprintf("/stations/%s/reconciliation/close", stationID), map[string]interface{}{
		"date": today,
	}, ownerToken)
	requireStatus(t, "close day", status, http.StatusCreated)
	if closure["is_closed"].(bool) != true {
		t.Fatal("closure should report is_closed true")
	}
	if closure["variance_amount"].(string) != "0.00" {
		t.Fatalf("variance_amount: got %s, want 0.00", closure["variance_amount"])
	}

	// --- 13. Closure is terminal: second close attempt conflicts ---
	status, _ = doJSON(t, server, "POST", fmt.Sprintf("/stations/%s/reconciliation/close", stationID), map[string]interface{}{
		"date": today,
	}, ownerToken)
	requireStatus(t, "second close attempt", status, http.StatusConflict)

	// --- 14. Closed day rejects new readings and cash reports ---
	status, _ = doJSON(t, server, "POST", fmt.Sprintf("/stations/%s/readings", stationID), map[string]interface{}{
		"nozzle_id":      nozzleID.String(),
		"reading":        "20.000",
		"payment_method": "CASH",
	}, attendantToken)
	requireStatus(t, "reading after close", status, http.StatusConflict)

	status, _ = doJSON(t, server, "PUT", fmt.Sprintf("/stations/%s/cash-reports", stationID), map[string]interface{}{
		"date":        today,
		"shift":       "NIGHT",
		"cash_amount": "50.00",
	}, attendantToken)
	requireStatus(t, "cash report after close", status, http.StatusConflict)

	t.Logf("Integration test passed: container=%s, tenant=%s, owner=%s, attendant=%s, station=%s, nozzle=%s",
		pgContainer.GetContainerID(), tenantID, ownerID, attendantID, stationID, nozzleID)
}

// --- Setup helpers ---

func setupPostgresContainer(t *testing.T, ctx context.Context) (testcontainers.Container, string, func()) {
	t.Helper()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("fuelsync_test"),
		tcpostgres.WithUsername("fuelsync"),
		tcpostgres.WithPassword("fuelsync"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("get connection string: %v", err)
	}

	cleanup := func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	}

	return pgContainer, connStr, cleanup
}

func runMigrations(t *testing.T, connStr string) {
	t.Helper()

	// Connect with stdlib for migrate
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("open db for migrations: %v", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		t.Fatalf("create migrate driver: %v", err)
	}

	// Path relative to this test file's package directory (api/internal/handler/).
	// Go test sets cwd to the package directory.
	m, err := migrate.NewWithDatabaseInstance(
		"file://../../migrations",
		"postgres", driver)
	if err != nil {
		t.Fatalf("create migrate instance: %v", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		t.Fatalf("run migrations: %v", err)
	}
}

func createTenant(t *testing.T, ctx context.Context, pool *pgxpool.Pool) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	err := pool.QueryRow(ctx,
		`INSERT INTO tenants (name, plan, status)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		"Test Fuels", "basic", "ACTIVE",
	).Scan(&id)
	if err != nil {
		t.Fatalf("create tenant: %v", err)
	}
	return id
}

func createOwnerUser(t *testing.T, ctx context.Context, pool *pgxpool.Pool, tenantID uuid.UUID) uuid.UUID {
	t.Helper()
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	var id uuid.UUID
	err = pool.QueryRow(ctx,
		`INSERT INTO users (tenant_id, email, hashed_password, full_name, role)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		tenantID, "owner@test.com", string(hashedPassword), "Test Owner", "OWNER",
	).Scan(&id)
	if err != nil {
		t.Fatalf("create owner user: %v", err)
	}
	return id
}

// --- HTTP helpers ---

func login(t *testing.T, server *httptest.Server, email, password string) string {
	t.Helper()
	status, resp := doJSON(t, server, "POST", "/auth/login", map[string]interface{}{
		"email":    email,
		"password": password,
	}, "")
	requireStatus(t, "login "+email, status, http.StatusOK)
	token, ok := resp["access_token"].(string)
	if !ok || token == "" {
		t.Fatalf("login failed: no access_token in response: %+v", resp)
	}
	return token
}

// doJSON performs a request and decodes the JSON object response, returning
// the status code so callers can assert error paths too.
func doJSON(t *testing.T, server *httptest.Server, method, path string, body map[string]interface{}, token string) (int, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, server.URL+path, reader)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	// Some endpoints (DELETE) return no body; ignore decode errors there.
	_ = json.NewDecoder(resp.Body).Decode(&result)
	return resp.StatusCode, result
}

func requireStatus(t *testing.T, step string, got, want int) {
	t.Helper()
	if got != want {
		t.Fatalf("%s: status %d, want %d", step, got, want)
	}
}
