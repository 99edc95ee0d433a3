package app

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/kart-wholesale/internal/domain/auth"
	"github.com/xenking/kart-wholesale/internal/domain/order"
	"github.com/xenking/kart-wholesale/internal/domain/settings"
	"github.com/xenking/kart-wholesale/internal/domain/wholesale"
	"github.com/xenking/kart-wholesale/internal/handler"
	"github.com/xenking/kart-wholesale/internal/storage/postgres"
	"github.com/xenking/kart-wholesale/pkg/health"
	"github.com/xenking/kart-wholesale/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	adminRole, err := wholesale.ParseRole(cfg.AdminRole)
	if err != nil {
		return errors.Wrap(err, "admin role")
	}

	// PostgreSQL pool + migrations.
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Repositories.
	productRepo := postgres.NewProductRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	apikeyRepo := postgres.NewAPIKeyRepository(pool)
	optionRepo := postgres.NewOptionRepository(pool)
	roleRepo := postgres.NewRoleRepository(pool)

	// Wholesale settings are loaded once up front so the first requests are
	// priced with the stored configuration.
	provider := settings.NewProvider(settings.NewService(optionRepo, roleRepo))
	if err := provider.Refresh(ctx); err != nil {
		return errors.Wrap(err, "load wholesale settings")
	}
	current := provider.Current()
	lg.Info("Wholesale settings loaded",
		zap.Int("min_quantity", current.MinimumQuantity),
		zap.Stringer("role", current.EligibleRole),
		zap.String("gate_mode", string(current.GateMode)),
	)

	// Health check service.
	healthSvc := health.New()
	healthSvc.Add(health.Readiness, "postgres", 5*time.Second, health.Ping(pool))
	healthSvc.Add(health.Readiness, "wholesale_settings", time.Second, provider.Healthy)
	healthSvc.Add(health.Liveness, "goroutines", time.Second, health.Goroutines(10000))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Domain services.
	policy := wholesale.Policy{}
	orderService := order.NewService(productRepo, provider, policy, orderRepo,
		m.TracerProvider().Tracer("github.com/xenking/kart-wholesale/internal/domain/order"),
	)

	// HTTP handlers.
	metrics, err := handler.NewMetrics(m.MeterProvider())
	if err != nil {
		return errors.Wrap(err, "create metrics")
	}
	h := handler.NewHandler(
		handler.Config{AdminRole: adminRole, MaxBodyBytes: cfg.MaxBodyBytes},
		productRepo,
		orderService,
		provider,
		policy,
		metrics,
	)
	authn := handler.NewAuthenticator(apikeyRepo, []byte(cfg.APIKeyPepper))

	api := http.NewServeMux()
	h.Register(api)

	mux := http.NewServeMux()
	mux.Handle("GET /livez", healthSvc.Handler(health.Liveness))
	mux.Handle("GET /readyz", healthSvc.Handler(health.Readiness))
	mux.Handle("/api/", authn.Middleware()(api))

	// Requests with an API key are limited per key, the rest per client IP.
	pepper := []byte(cfg.APIKeyPepper)
	limiter := httpmiddleware.NewLimiter(httpmiddleware.RateLimitConfig{
		Max:    cfg.RateLimit.Max,
		Window: cfg.RateLimit.Window,
		Key: func(r *http.Request) string {
			if key := handler.APIKey(r); key != "" {
				return "key:" + auth.HashKey(key, pepper)
			}
			return "ip:" + httpmiddleware.ClientIP(r)
		},
	})

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		BaseContext:       func(net.Listener) context.Context { return ctx },
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			limiter.Middleware(),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument("kart-api", m.TracerProvider(), m.MeterProvider()),
			httpmiddleware.LogRequests(),
		),
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return provider.Run(gCtx, cfg.Wholesale.RefreshInterval)
	})
	g.Go(func() error {
		return limiter.Run(gCtx)
	})

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	g.Go(func() error {
		<-gCtx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		return nil
	})
	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})

	return g.Wait()
}
