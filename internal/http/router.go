package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rogerio-castellano/stock-ledger/internal/http/handlers"
)

func NewRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", handlers.HealthHandler)

	r.Route("/items", func(r chi.Router) {
		r.Post("/", handlers.CreateItemHandler)
		r.Get("/", handlers.SearchItemsHandler)
		r.Get("/{sku}", handlers.GetItemHandler)
		r.With(RateLimitMiddleware).Post("/{sku}/deduct", handlers.DeductStockHandler)
		r.With(RateLimitMiddleware).Post("/{sku}/restore", handlers.RestoreStockHandler)
		r.With(RateLimitMiddleware).Post("/{sku}/adjust", handlers.AdjustStockHandler)
		r.Get("/{sku}/ledger", handlers.GetLedgerHandler)
		r.Get("/{sku}/alerts", handlers.GetAlertsHandler)
	})

	return r
}
