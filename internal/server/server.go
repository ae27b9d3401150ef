// Package server wires stores, services and handlers into the HTTP API.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/dukerupert/pantry/internal/access"
	"github.com/dukerupert/pantry/internal/auth"
	"github.com/dukerupert/pantry/internal/catalog"
	"github.com/dukerupert/pantry/internal/database"
	"github.com/dukerupert/pantry/internal/grocery"
	"github.com/dukerupert/pantry/internal/handler"
	"github.com/dukerupert/pantry/internal/household"
	"github.com/dukerupert/pantry/internal/inventory"
	"github.com/dukerupert/pantry/internal/metrics"
	"github.com/dukerupert/pantry/internal/middleware"
	"github.com/dukerupert/pantry/internal/replenish"
	"github.com/dukerupert/pantry/internal/store"
)

// RateLimit bounds the bulk and scan endpoints per actor. TrustProxy makes
// anonymous callers keyed by X-Forwarded-For or X-Real-IP.
type RateLimit struct {
	Requests   int
	Window     time.Duration
	TrustProxy bool
}

type Server struct {
	db          *database.DB
	provider    auth.Provider
	metrics     *metrics.Metrics
	limit       RateLimit
	rateLimiter *middleware.RateLimiter
	inventoryH  *handler.InventoryHandler
	groceryH    *handler.GroceryHandler
	householdH  *handler.HouseholdHandler
	productH    *handler.ProductHandler
	logger      *slog.Logger
}

func New(db *database.DB, provider auth.Provider, m *metrics.Metrics, limit RateLimit, logger *slog.Logger) *Server {
	if limit.Requests <= 0 {
		limit.Requests = 30
	}
	if limit.Window <= 0 {
		limit.Window = time.Minute
	}

	householdStore := store.NewHouseholdStore(db)
	groceryStore := store.NewGroceryStore(db)
	inventoryStore := store.NewInventoryStore(db)
	productStore := store.NewProductStore(db)

	resolver := access.NewResolver(householdStore, logger.With("component", "access"))
	households := household.NewService(householdStore, logger.With("component", "household"))
	products := catalog.NewService(productStore)
	lists := grocery.NewService(groceryStore, householdStore, resolver, m, logger.With("component", "grocery"))
	engine := replenish.NewEngine(lists, m, logger.With("component", "replenish"))
	inv := inventory.NewService(inventory.Deps{
		Inventories: inventoryStore,
		Households:  householdStore,
		Resolver:    resolver,
		Catalog:     products,
		Lists:       lists,
		Replenisher: engine,
		Metrics:     m,
		Logger:      logger.With("component", "inventory"),
	})

	return &Server{
		db:          db,
		provider:    provider,
		metrics:     m,
		limit:       limit,
		rateLimiter: middleware.NewRateLimiter(),
		inventoryH:  handler.NewInventoryHandler(inv, logger.With("component", "inventory_handler")),
		groceryH:    handler.NewGroceryHandler(lists, logger.With("component", "grocery_handler")),
		householdH:  handler.NewHouseholdHandler(households, logger.With("component", "household_handler")),
		productH:    handler.NewProductHandler(products, logger.With("component", "product_handler")),
		logger:      logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestLogger(s.logger.With("component", "http")))
	r.Use(middleware.Metrics(s.metrics))
	r.Use(chimw.Recoverer)

	r.Get("/health", s.healthHandler)
	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RequireAuth(s.provider, s.logger.With("component", "auth")))
		limited := middleware.RateLimit(s.rateLimiter, middleware.ActorOrIP(s.limit.TrustProxy), s.limit.Requests, s.limit.Window)

		r.Route("/inventory", func(r chi.Router) {
			r.Get("/", s.inventoryH.List)
			r.Get("/low-stock", s.inventoryH.LowStock)
			r.Get("/expiring", s.inventoryH.Expiring)
			r.Get("/stats", s.inventoryH.Stats)
			r.Get("/settings", s.inventoryH.Settings)
			r.Put("/settings", s.inventoryH.UpdateSettings)
			r.With(limited).Post("/scan", s.inventoryH.Scan)
			r.Post("/items", s.inventoryH.AddItem)
			r.With(limited).Post("/items/bulk", s.inventoryH.BulkAdd)
			r.Get("/items/{id}", s.inventoryH.GetItem)
			r.Patch("/items/{id}", s.inventoryH.UpdateItem)
			r.Delete("/items/{id}", s.inventoryH.RemoveItem)
		})

		r.Route("/lists", func(r chi.Router) {
			r.Get("/", s.groceryH.List)
			r.Post("/", s.groceryH.Create)
			r.Get("/shared", s.groceryH.ListShared)
			r.Get("/templates", s.groceryH.Templates)
			r.Post("/from-template/{templateID}", s.groceryH.FromTemplate)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.groceryH.Get)
				r.Patch("/", s.groceryH.Update)
				r.Delete("/", s.groceryH.Delete)
				r.Put("/status", s.groceryH.SetStatus)
				r.Post("/items", s.groceryH.AddItem)
				r.Patch("/items/{itemID}", s.groceryH.UpdateItem)
				r.Delete("/items/{itemID}", s.groceryH.RemoveItem)
				r.Post("/items/{itemID}/check", s.groceryH.SetChecked)
				r.Post("/clear-checked", s.groceryH.ClearChecked)
				r.Post("/shares", s.groceryH.Share)
				r.Put("/shares/{userID}", s.groceryH.UpdateShare)
				r.Delete("/shares/{userID}", s.groceryH.Unshare)
			})
		})

		r.Route("/households", func(r chi.Router) {
			r.Get("/", s.householdH.List)
			r.Post("/", s.householdH.Create)
			r.Get("/{id}", s.householdH.Get)
			r.Post("/{id}/members", s.householdH.Invite)
			r.Patch("/{id}/members/{userID}", s.householdH.UpdateMember)
			r.Delete("/{id}/members/{userID}", s.householdH.RemoveMember)
		})

		r.Post("/products", s.productH.Create)
		r.Get("/products/barcode/{code}", s.productH.ByBarcode)
	})

	return r
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if err := s.db.PingContext(r.Context()); err != nil {
		s.logger.Error("health check failed", "error", err)
		status = "unavailable"
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}
