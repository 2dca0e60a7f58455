// Package http serves the household ledger as a JSON API.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"haushaltskasse/internal/cache"
	"haushaltskasse/internal/core"
	"haushaltskasse/internal/ledger"
	applog "haushaltskasse/internal/log"
	"haushaltskasse/internal/metrics"
	"haushaltskasse/internal/middleware/ratelimit"
	"haushaltskasse/internal/middleware/security"
	"haushaltskasse/internal/middleware/trace"
)

// Options tunes NewServer. The zero value serves without metrics.
type Options struct {
	Logger         *applog.Logger
	Metrics        *metrics.Metrics
	MetricsEnabled bool
	RateLimit      ratelimit.Config
	// Now stamps exports; defaults to time.Now.
	Now            func() time.Time
}

// Session users are cached briefly; mutations through this server invalidate them.
const userCacheTTL = 30 * time.Second

type Server struct {
	http.Server
	svc      *ledger.Service
	logger   *applog.Logger
	errors   *applog.StructuredLogger
	metrics  *metrics.Metrics
	limiter  *ratelimit.Limiter
	detector *security.Detector
	users    *cache.LRU[core.User]
	now      func() time.Time
	started  time.Time
}

func NewServer(addr string, svc *ledger.Service, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	rlConfig := opts.RateLimit
	if rlConfig.RequestsPerMinute == 0 {
		rlConfig = ratelimit.DefaultConfig()
	}

	s := &Server{
		svc:      svc,
		logger:   logger,
		errors:   applog.NewStructuredLogger(logger),
		metrics:  opts.Metrics,
		limiter:  ratelimit.NewLimiter(rlConfig),
		detector: security.NewDetector(),
		users:    cache.NewLRU[core.User](256, userCacheTTL),
		now:      now,
		started:  time.Now(),
	}

	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeErrorMessage(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	r.Use(
		trace.NewMiddleware(s.detector.ExtractClientIP, s.metrics, logger).Middleware,
		applog.Middleware(logger),
		applog.RequestIDMiddleware(trace.RequestIDFromRequest),
		security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware,
		s.detector.Middleware(logger, s.metrics.IncSuspicious),
		s.limiter.Middleware(s.detector.ExtractClientIP, s.metrics.IncRateLimited),
	)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)
	if opts.MetricsEnabled && s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/register", s.handleRegister).Methods(http.MethodPost)
	api.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)
	api.HandleFunc("/categories", s.handleCategories).Methods(http.MethodGet)
	api.HandleFunc("/export", s.handleExport).Methods(http.MethodGet)
	api.HandleFunc("/import", s.handleImport).Methods(http.MethodPost)
	api.HandleFunc("/data", s.handleClearData).Methods(http.MethodDelete)

	user := api.NewRoute().Subrouter()
	user.Use(s.requireUser)
	user.HandleFunc("/me", s.handleMe).Methods(http.MethodGet)
	user.HandleFunc("/me/setup-complete", s.handleSetupComplete).Methods(http.MethodPost)
	user.HandleFunc("/incomes", s.handleListIncomes).Methods(http.MethodGet)
	user.HandleFunc("/incomes", s.handleAddIncome).Methods(http.MethodPost)
	user.HandleFunc("/incomes/{id}", s.handleDeleteIncome).Methods(http.MethodDelete)
	user.HandleFunc("/expenses", s.handleListExpenses).Methods(http.MethodGet)
	user.HandleFunc("/expenses", s.handleAddExpense).Methods(http.MethodPost)
	user.HandleFunc("/expenses/{id}", s.handleDeleteExpense).Methods(http.MethodDelete)
	user.HandleFunc("/savings-goal", s.handleGetSavingsGoal).Methods(http.MethodGet)
	user.HandleFunc("/savings-goal", s.handleSetSavingsGoal).Methods(http.MethodPut)
	user.HandleFunc("/overview", s.handleOverview).Methods(http.MethodGet)
	user.HandleFunc("/analytics/monthly", s.handleMonthlyAnalytics).Methods(http.MethodGet)
	user.HandleFunc("/analytics/categories", s.handleCategoryChart).Methods(http.MethodGet)
	user.HandleFunc("/comparison", s.handleComparison).Methods(http.MethodGet)

	s.Addr = addr
	s.Handler = r
	s.ReadHeaderTimeout = 5 * time.Second
	s.ReadTimeout = 15 * time.Second
	s.WriteTimeout = 30 * time.Second
	s.IdleTimeout = 60 * time.Second
	return s
}

// Shutdown stops the rate limiter and drains the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.Server.Shutdown(ctx)
}
