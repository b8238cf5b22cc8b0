package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"profitlens/internal/domain/audit"
	"profitlens/internal/domain/auth"
	"profitlens/internal/domain/banking"
	"profitlens/internal/domain/employees"
	"profitlens/internal/domain/invoicing"
	"profitlens/internal/domain/payroll"
	"profitlens/internal/platform/cache"
	"profitlens/internal/platform/config"
	"profitlens/internal/platform/crypto"
	"profitlens/internal/platform/jobs"
	"profitlens/internal/platform/logger"
	"profitlens/internal/platform/metrics"
	"profitlens/internal/transport/http/api"
	audithandler "profitlens/internal/transport/http/handlers/audit"
	bankinghandler "profitlens/internal/transport/http/handlers/banking"
	employeehandler "profitlens/internal/transport/http/handlers/employees"
	invoicehandler "profitlens/internal/transport/http/handlers/invoices"
	payrollhandler "profitlens/internal/transport/http/handlers/payroll"
	"profitlens/internal/transport/http/middleware"
)

const idempotencyTTL = 24 * time.Hour

type App struct {
	Config  config.Config
	Router  http.Handler
	Jobs    *jobs.Service
	Payroll *payroll.Service

	backend *backend
	cache   cache.Cache
	metrics *metrics.Collector
	log     zerolog.Logger
	closers []func()
}

// New opens the configured backend and cache and builds the router.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	app := &App{Config: cfg, log: logger.WithComponent("server")}
	if cfg.MetricsEnabled {
		app.metrics = metrics.New()
	}

	be, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.backend = be
	app.closers = append(app.closers, be.close)

	app.cache = cache.Noop{}
	if cfg.RedisURL != "" {
		redisCache, err := cache.NewRedis(ctx, cfg.RedisURL, "profitlens:")
		if err != nil {
			app.Close()
			return nil, err
		}
		app.cache = redisCache
		app.closers = append(app.closers, func() { _ = redisCache.Close() })
	}

	sealer, err := crypto.New(cfg.DataEncryptionKey)
	if err != nil {
		app.Close()
		return nil, err
	}
	if !sealer.Configured() {
		app.log.Warn().Msg("DATA_ENCRYPTION_KEY not set; account numbers are stored unsealed")
	}

	var batches payroll.BatchObserver
	if app.metrics != nil {
		batches = app.metrics
	}
	staff := employees.NewService(be.employees)
	app.Payroll = payroll.NewService(be.payroll, staff, app.cache, cfg.SettingsCacheTTL, batches)
	bank := banking.NewService(be.banking, sealer, batches)
	invoices := invoicing.NewService(be.invoices)
	app.Jobs = jobs.New(be.runs, be.companies, app.Payroll)

	perms := auth.StaticPermissions{}
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))
	router.Use(middleware.Logger(app.metrics))
	router.Use(middleware.Recoverer)
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Get("/readyz", app.handleReady)
	if app.metrics != nil {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, app.metrics.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
		r.Use(middleware.BatchMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))
		r.Use(middleware.Idempotency(app.cache, idempotencyTTL))

		invoicehandler.NewHandler(invoices, be.audit, perms).RegisterRoutes(r)
		employeehandler.NewHandler(staff, be.audit, perms).RegisterRoutes(r)
		payrollhandler.NewHandler(app.Payroll, be.audit, perms).RegisterRoutes(r)
		bankinghandler.NewHandler(bank, be.audit, perms).RegisterRoutes(r)
		if lister, ok := be.audit.(audit.Lister); ok {
			audithandler.NewHandler(lister, perms).RegisterRoutes(r)
		}
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		api.Fail(w, http.StatusNotFound, "not_found", "route not found", middleware.GetRequestID(r.Context()))
	})
	app.Router = router
	return app, nil
}

func (a *App) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := a.backend.ping(ctx); err != nil {
		logger.FromContext(r.Context()).Warn().Err(err).Str("backend", a.backend.name).Msg("backend not ready")
		http.Error(w, "store not ready", http.StatusServiceUnavailable)
		return
	}
	if err := a.cache.Ping(ctx); err != nil {
		logger.FromContext(r.Context()).Warn().Err(err).Msg("cache not ready")
		http.Error(w, "cache not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (a *App) Run(ctx context.Context) error {
	if err := a.Jobs.Start(ctx, a.Config.PayrollGenerateSchedule); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", a.Config.Addr).Str("backend", a.backend.name).Msg("ProfitLens server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	a.log.Info().Msg("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
