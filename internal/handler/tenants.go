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
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TenantStore defines the database methods needed by tenant admin handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type TenantStore interface {
	ListTenants(ctx context.Context) ([]database.Tenant, error)
	GetTenant(ctx context.Context, id uuid.UUID) (database.Tenant, error)
	CreateTenant(ctx context.Context, arg database.CreateTenantParams) (database.Tenant, error)
	UpdateTenantStatus(ctx context.Context, arg database.UpdateTenantStatusParams) (database.Tenant, error)
}

// TenantHandler handles platform-level tenant administration. Routes are
// superadmin only.
type TenantHandler struct {
	store TenantStore
}

// NewTenantHandler creates a new TenantHandler.
func NewTenantHandler(store TenantStore) *TenantHandler {
	return &TenantHandler{store: store}
}

// RegisterRoutes registers tenant admin endpoints on the given Chi router.
func (h *TenantHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}/status", h.UpdateStatus)
}

// --- Request / Response types ---

type createTenantRequest struct {
	Name string `json:"name"`
	Plan string `json:"plan"`
}

type updateTenantStatusRequest struct {
	Status string `json:"status"`
}

type tenantResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Plan      string    `json:"plan"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func toTenantResponse(t database.Tenant) tenantResponse {
	return tenantResponse{
		ID:        t.ID,
		Name:      t.Name,
		Plan:      t.Plan,
		Status:    t.Status,
		CreatedAt: t.CreatedAt,
	}
}

// --- Handlers ---

// List returns all tenants.
func (h *TenantHandler) List(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.store.ListTenants(r.Context())
	if err != nil {
		log.Printf("ERROR: list tenants: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]tenantResponse, len(tenants))
	for i, t := range tenants {
		resp[i] = toTenantResponse(t)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Create provisions a new tenant.
func (h *TenantHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	if req.Plan == "" {
		req.Plan = "basic"
	}

	tenant, err := h.store.CreateTenant(r.Context(), database.CreateTenantParams{
		Name:   req.Name,
		Plan:   req.Plan,
		Status: enum.TenantStatusActive,
	})
	if err != nil {
		log.Printf("ERROR: create tenant: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toTenantResponse(tenant))
}

// Get returns a single tenant.
func (h *TenantHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid tenant ID"})
		return
	}

	tenant, err := h.store.GetTenant(r.Context(), tenantID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "tenant not found"})
			return
		}
		log.Printf("ERROR: get tenant: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toTenantResponse(tenant))
}

// UpdateStatus activates, suspends or cancels a tenant.
func (h *TenantHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	tenantID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid tenant ID"})
		return
	}

	var req updateTenantStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	switch req.Status {
	case enum.TenantStatusActive, enum.TenantStatusSuspended, enum.TenantStatusCancelled:
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
		return
	}

	tenant, err := h.store.UpdateTenantStatus(r.Context(), database.UpdateTenantStatusParams{
		ID:     tenantID,
		Status: req.Status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "tenant not found"})
			return
		}
		log.Printf("ERROR: update tenant status: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toTenantResponse(tenant))
}
