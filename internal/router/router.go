package router

import (
	"log"
	"net/http"

	"github.com/annapurna-catering/api/internal/audit"
	"github.com/annapurna-catering/api/internal/config"
	"github.com/annapurna-catering/api/internal/database"
	"github.com/annapurna-catering/api/internal/enum"
	"github.com/annapurna-catering/api/internal/handler"
	mw "github.com/annapurna-catering/api/internal/middleware"
	"github.com/annapurna-catering/api/internal/notify"
	"github.com/annapurna-catering/api/internal/service"
	"github.com/annapurna-catering/api/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
)

// New creates a Chi router with all application routes wired up.
// Authentication and role middleware are applied per route group.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/{topic}", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	notifier := notify.New(queries, hub, cfg.AlertWebhookURL)
	auditor := audit.NewRecorder(queries)

	orderService := service.NewOrderService(pool, func(db database.DBTX) service.OrderStore {
		return database.New(db)
	})
	stockService := service.NewStockService(pool, func(db database.DBTX) service.StockStore {
		return database.New(db)
	})

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		orderHandler := handler.NewOrderHandler(queries, orderService, notifier, auditor)
		r.Route("/orders", orderHandler.RegisterRoutes)

		billHandler := handler.NewBillHandler(queries)
		r.Route("/bills", billHandler.RegisterRoutes)

		customerHandler := handler.NewCustomerHandler(queries)
		r.Route("/customers", customerHandler.RegisterRoutes)

		menuHandler := handler.NewMenuHandler(queries)
		r.Route("/menu-items", menuHandler.RegisterRoutes)

		stockHandler := handler.NewStockHandler(queries, stockService, notifier)
		r.Route("/stock-items", stockHandler.RegisterRoutes)

		notificationHandler := handler.NewNotificationHandler(queries)
		r.Route("/notifications", notificationHandler.RegisterRoutes)

		userHandler := handler.NewUserHandler(queries)
		userHandler.RegisterSelfRoutes(r)

		// Money-facing routes beyond orders need OWNER or MANAGER
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.UserRoleOwner, enum.UserRoleManager))

			expenseHandler := handler.NewExpenseHandler(queries, auditor)
			r.Route("/expenses", expenseHandler.RegisterRoutes)

			payrollHandler := handler.NewPayrollHandler(queries, auditor)
			r.Route("/payroll", payrollHandler.RegisterRoutes)

			reportHandler := handler.NewReportHandler(queries)
			r.Route("/reports", reportHandler.RegisterRoutes)
		})

		// Owner-only routes
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.UserRoleOwner))

			r.Route("/users", userHandler.RegisterRoutes)

			auditHandler := handler.NewAuditHandler(queries)
			r.Route("/audit-logs", auditHandler.RegisterRoutes)
		})
	})

	log.Println("Router initialized with all handlers")
	return r
}
