package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/warimas/backoffice/internal/audit"
	"github.com/warimas/backoffice/internal/category"
	"github.com/warimas/backoffice/internal/customer"
	"github.com/warimas/backoffice/internal/logger"
	"github.com/warimas/backoffice/internal/metrics"
	"github.com/warimas/backoffice/internal/middleware"
	"github.com/warimas/backoffice/internal/order"
	"github.com/warimas/backoffice/internal/product"
	"github.com/warimas/backoffice/internal/utils"
)

const requestTimeout = 15 * time.Second

type Deps struct {
	Orders      order.Service
	Products    product.Service
	Categories  category.Service
	Customers   customer.Service
	Audit       audit.Repository
	Idempotency Idempotency

	JWTSecret   string
	InternalKey string
	CORSOrigins []string
	Limiter     *middleware.Limiter
	Metrics     *metrics.Orders

	// Health reports whether the backing stores are reachable.
	Health func(ctx context.Context) error
}

func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(logger.RequestIDMiddleware, logger.LoggingMiddleware)
	r.Use(middleware.Recover)
	r.Use(middleware.CORS(d.CORSOrigins))
	r.Use(chimw.Timeout(requestTimeout))

	r.Get("/healthz", healthz(d.Health))
	if d.Metrics != nil {
		r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			utils.WriteJSON(w, http.StatusOK, d.Metrics.Snapshot())
		})
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(d.JWTSecret, d.InternalKey))
		if d.Limiter != nil {
			r.Use(d.Limiter.Middleware)
		}

		(&OrdersHandler{Service: d.Orders, Idempotency: d.Idempotency}).Register(r)
		(&ProductsHandler{Service: d.Products}).Register(r)
		(&CategoriesHandler{Service: d.Categories}).Register(r)
		(&CustomersHandler{Service: d.Customers}).Register(r)
		(&HistoryHandler{Audit: d.Audit}).Register(r)
	})

	return r
}

func healthz(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				logger.FromCtx(r.Context()).Warn("health check failed", zap.Error(err))
				utils.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
