package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"MiniPOS/internal/auth"
	"MiniPOS/internal/catalog"
	"MiniPOS/internal/order"
	"MiniPOS/pkg/kit"
)

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	MetricsEnabled bool
	MetricsToken   string
	TrustProxy     bool
}

type Deps struct {
	Catalog  *catalog.Service
	Workflow *order.Workflow
	Location *time.Location

	Gate       *auth.PinGate
	JWT        *auth.TokenMaker
	TokenTTL   time.Duration
	LoginLimit int
}

type pinger interface {
	Ping(ctx context.Context) error
}

const (
	readyTimeout = 2 * time.Second
	loginWindow  = time.Minute
)

func NewHandler(deps Deps, httpDeps HTTPDeps) http.Handler {
	catalogSrv := &catalog.Server{Catalog: deps.Catalog, Log: httpDeps.Log}
	orderSrv := &order.Server{
		Workflow: deps.Workflow,
		Catalog:  deps.Catalog,
		Log:      httpDeps.Log,
		Location: deps.Location,
	}
	authSrv := &auth.Server{
		Log:  httpDeps.Log,
		Gate: deps.Gate,
		JWT:  deps.JWT,
		TTL:  deps.TokenTTL,
	}
	limiter := kit.NewRateLimiter(deps.LoginLimit, loginWindow)

	r := chi.NewRouter()
	setupMiddleware(r, httpDeps)
	setupMetrics(r, httpDeps)

	r.Get("/healthz", healthz)
	r.Get("/readyz", readyz(httpDeps.Log, map[string]pinger{
		"catalog":   deps.Catalog,
		"order log": deps.Workflow,
	}))

	r.Mount("/products", catalogSrv.Routes())
	r.Mount("/order", orderSrv.Routes())
	r.Get("/orders", orderSrv.ListHandler())

	r.Route("/admin", func(ar chi.Router) {
		ar.With(limiter.Middleware).Post("/login", authSrv.LoginHandler())

		ar.Group(func(pr chi.Router) {
			pr.Use(auth.RequireAdmin(deps.JWT))
			pr.Mount("/products", catalogSrv.AdminRoutes())
			pr.Get("/categories", catalogSrv.CategoriesHandler())
			pr.Delete("/orders", orderSrv.ClearHandler())
		})
	})

	return r
}

func setupMiddleware(r *chi.Mux, deps HTTPDeps) {
	r.Use(chimw.RequestID)
	if deps.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(kit.Recoverer)
	r.Use(kit.Logging(deps.Log))
}

func setupMetrics(r *chi.Mux, deps HTTPDeps) {
	if deps.Registry == nil {
		return
	}

	metrics := kit.NewMetrics(deps.Registry, deps.Service)
	r.Use(metrics.Middleware)

	if !deps.MetricsEnabled {
		return
	}

	r.With(kit.MetricsAuth(deps.MetricsToken)).
		Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func readyz(log *zap.Logger, deps map[string]pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		for name, dep := range deps {
			if err := dep.Ping(ctx); err != nil {
				if log != nil {
					log.Warn("readyz failed: "+name, zap.Error(err))
				}
				kit.WriteError(w, r, http.StatusServiceUnavailable, name+" not ready", nil)
				return
			}
		}

		w.WriteHeader(http.StatusOK)
	}
}
