package router

import (
	"log"
	"net/http"

	"github.com/fuelsync/api/internal/auth"
	"github.com/fuelsync/api/internal/config"
	"github.com/fuelsync/api/internal/database"
	"github.com/fuelsync/api/internal/enum"
	"github.com/fuelsync/api/internal/handler"
	mw "github.com/fuelsync/api/internal/middleware"
	"github.com/fuelsync/api/internal/service"
	"github.com/fuelsync/api/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// New creates a Chi router with all application routes wired up.
// Applies authentication, station scoping, and role-based middleware as needed.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{
			"http://localhost:5173", // web dev server
			"https://app.fuelsync.in",
			"https://stg-app.fuelsync.in",
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	// Auth routes (public)
	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/stations/{sid}", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, queries, cfg.JWTSecret, w, r)
	})

	tolerance, err := decimal.NewFromString(cfg.ReconciliationTolerance)
	if err != nil {
		log.Printf("WARN: invalid RECONCILIATION_TOLERANCE %q, using 1.00", cfg.ReconciliationTolerance)
		tolerance = decimal.New(100, -2)
	}
	mediumRiskPercent, err := decimal.NewFromString(cfg.MediumRiskPercent)
	if err != nil {
		log.Printf("WARN: invalid RECONCILIATION_MEDIUM_RISK_PERCENT %q, using 5", cfg.MediumRiskPercent)
		mediumRiskPercent = decimal.NewFromInt(5)
	}

	reconciliationService := service.NewReconciliationService(
		queries,
		pool,
		func(db database.DBTX) service.ReconciliationStore {
			return database.New(db)
		},
		service.Policy{
			Tolerance:         tolerance,
			MediumRiskPercent: mediumRiskPercent,
		},
	)
	readingService := service.NewReadingService(
		queries,
		pool,
		func(db database.DBTX) service.ReadingStore {
			return database.New(db)
		},
	)
	cashReportService := service.NewCashReportService(
		queries,
		pool,
		func(db database.DBTX) service.CashReportStore {
			return database.New(db)
		},
	)

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		// Platform admin routes (SUPERADMIN only)
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.UserRoleSuperAdmin))
			tenantHandler := handler.NewTenantHandler(queries)
			r.Route("/admin/tenants", tenantHandler.RegisterRoutes)
		})

		// Tenant-level user management (owners only)
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireAction(auth.ActionManageUsers))
			userHandler := handler.NewUserHandler(queries)
			r.Route("/users", userHandler.RegisterRoutes)
		})

		// Station list / management
		r.Group(func(r chi.Router) {
			stationHandler := handler.NewStationHandler(queries)
			r.Get("/stations", stationHandler.List)
			r.With(mw.RequireAction(auth.ActionManageStations)).Post("/stations", stationHandler.Create)
		})

		// Station-scoped routes
		r.Route("/stations/{sid}", func(r chi.Router) {
			r.Use(mw.RequireStation)

			stationHandler := handler.NewStationHandler(queries)
			r.Get("/", stationHandler.Get)
			r.With(mw.RequireAction(auth.ActionManageStations)).Put("/", stationHandler.Update)
			r.With(mw.RequireAction(auth.ActionManageStations)).Delete("/", stationHandler.Delete)

			// Pumps and nozzles
			pumpHandler := handler.NewPumpHandler(queries)
			r.Route("/pumps", func(r chi.Router) {
				r.Get("/", pumpHandler.List)
				r.With(mw.RequireAction(auth.ActionManagePumps)).Post("/", pumpHandler.Create)
				r.With(mw.RequireAction(auth.ActionManagePumps)).Delete("/{id}", pumpHandler.Delete)

				nozzleHandler := handler.NewNozzleHandler(queries)
				r.Route("/{pid}/nozzles", func(r chi.Router) {
					r.Get("/", nozzleHandler.List)
					r.With(mw.RequireAction(auth.ActionManagePumps)).Post("/", nozzleHandler.Create)
					r.With(mw.RequireAction(auth.ActionManagePumps)).Delete("/{id}", nozzleHandler.Delete)
				})
			})

			// Fuel prices
			priceHandler := handler.NewPriceHandler(queries)
			r.Route("/prices", func(r chi.Router) {
				r.Get("/", priceHandler.List)
				r.With(mw.RequireAction(auth.ActionManagePrices)).Post("/", priceHandler.Create)
			})

			// Creditors
			creditorHandler := handler.NewCreditorHandler(queries)
			r.Route("/creditors", func(r chi.Router) {
				r.Get("/", creditorHandler.List)
				r.With(mw.RequireAction(auth.ActionManageCreditors)).Post("/", creditorHandler.Create)
				r.With(mw.RequireAction(auth.ActionManageCreditors)).Delete("/{id}", creditorHandler.Delete)
			})

			// Readings
			readingHandler := handler.NewReadingHandler(readingService, hub)
			r.Route("/readings", func(r chi.Router) {
				r.Get("/", readingHandler.List)
				r.With(mw.RequireAction(auth.ActionRecordReading)).Post("/", readingHandler.Create)
			})

			// Cash reports
			cashReportHandler := handler.NewCashReportHandler(cashReportService)
			r.Route("/cash-reports", func(r chi.Router) {
				r.Get("/", cashReportHandler.List)
				r.With(mw.RequireAction(auth.ActionSubmitCashReport)).Put("/", cashReportHandler.Submit)
			})

			// Reconciliation and closures
			reconciliationHandler := handler.NewReconciliationHandler(reconciliationService, queries, hub)
			r.With(mw.RequireAction(auth.ActionViewReconciliation)).Get("/reconciliation", reconciliationHandler.GetSummary)
			r.With(mw.RequireAction(auth.ActionCloseDay)).Post("/reconciliation/close", reconciliationHandler.CloseDay)
			r.With(mw.RequireAction(auth.ActionViewReconciliation)).Get("/closures", reconciliationHandler.ListClosures)

			// Tank stock
			inventoryHandler := handler.NewInventoryHandler(queries)
			r.Route("/inventory", func(r chi.Router) {
				r.Get("/", inventoryHandler.List)
				r.With(mw.RequireAction(auth.ActionUpdateInventory)).Put("/", inventoryHandler.Upsert)
			})

			// Dashboard
			dashboardHandler := handler.NewDashboardHandler(queries)
			r.Route("/dashboard", dashboardHandler.RegisterRoutes)
		})

		// Alerts (tenant-wide, station filter via query param)
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireAction(auth.ActionManageAlerts))
			alertHandler := handler.NewAlertHandler(queries)
			r.Route("/alerts", alertHandler.RegisterRoutes)
		})
	})

	log.Println("Router initialized with all handlers")
	return r
}
