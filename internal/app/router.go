package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/godown-app/godown/internal/billing"
	"github.com/godown-app/godown/internal/dealers"
	"github.com/godown-app/godown/internal/masterdata"
	"github.com/godown-app/godown/internal/observability"
	"github.com/godown-app/godown/internal/purchase"
	"github.com/godown-app/godown/internal/stock"
	"github.com/godown-app/godown/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	Pool              *pgxpool.Pool
	StockHandler      *stock.Handler
	MasterDataHandler *masterdata.Handler
	BillingHandler    *billing.Handler
	PurchaseHandler   *purchase.Handler
	DealersHandler    *dealers.Handler
	JobsHandler       *jobs.Handler
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router serving the inventory and billing API.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if params.Pool != nil {
			if err := params.Pool.Ping(req.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"degraded"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Master data and dealer ledger routes share the /dealers prefix, so both
	// handlers mount on the same sub-router.
	r.Route("/api/v1", func(api chi.Router) {
		if params.StockHandler != nil {
			params.StockHandler.MountRoutes(api)
		}
		if params.MasterDataHandler != nil {
			params.MasterDataHandler.MountRoutes(api)
		}
		if params.DealersHandler != nil {
			params.DealersHandler.MountRoutes(api)
		}
		if params.BillingHandler != nil {
			params.BillingHandler.MountRoutes(api)
		}
		if params.PurchaseHandler != nil {
			params.PurchaseHandler.MountRoutes(api)
		}
		if params.JobsHandler != nil {
			api.Route("/jobs", params.JobsHandler.MountRoutes)
		}
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}

// NewServer wraps the router in an http.Server with configured timeouts.
func NewServer(cfg *Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      handler,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}
}
