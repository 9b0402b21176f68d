package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"repair-desk/internal/adapter/gateway"
	adapterhandler "repair-desk/internal/adapter/handler"
	"repair-desk/internal/domain"
	infracache "repair-desk/internal/infrastructure/cache"
	"repair-desk/internal/infrastructure/memory"
	"repair-desk/internal/infrastructure/postgres"
	infratoken "repair-desk/internal/infrastructure/token"
	"repair-desk/internal/infrastructure/validation"
	"repair-desk/internal/usecase"

	"repair-desk/config"
	appmiddleware "repair-desk/middleware"
	"repair-desk/utils/logger"
	"repair-desk/utils/otel"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// backends are the adapters selected by configuration.
type backends struct {
	identity      domain.IdentityProvider
	profiles      domain.ProfileStore
	tickets       domain.TicketStore
	compensations domain.CompensationLog
	roleCache     domain.RoleCache
	checks        map[string]adapterhandler.HealthCheck
	closers       []func()
}

func (b *backends) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func main() {
	// Handle healthcheck subcommand (for Docker healthcheck in distroless image)
	if len(os.Args) > 1 && os.Args[1] == "healthcheck" {
		if err := runHealthcheck(); err != nil {
			fmt.Fprintf(os.Stderr, "Healthcheck failed: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to read .env file", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Initialize OpenTelemetry
	otelCfg := otel.ConfigFromEnv()
	otelShutdown, err := otel.InitProvider(ctx, otelCfg)
	if err != nil {
		slog.Warn("failed to initialize OpenTelemetry, continuing without tracing", "error", err)
		otelCfg.Enabled = false
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.ErrorContext(ctx, "failed to load configuration", "error", err)
		os.Exit(1)
	}

	log := logger.Init(cfg.LogLevel, otelCfg.Enabled)
	log.InfoContext(ctx, "configuration loaded",
		"port", cfg.Port,
		"identity_backend", cfg.IdentityBackend,
		"store_backend", cfg.StoreBackend,
		"role_cache_backend", cfg.RoleCacheBackend,
		"role_cache_ttl", cfg.RoleCacheTTL)

	b, err := buildBackends(ctx, cfg, log)
	if err != nil {
		log.ErrorContext(ctx, "failed to initialize backends", "error", err)
		os.Exit(1)
	}
	defer b.close()

	// Infrastructure
	validator := validation.New()
	jwtIssuer := infratoken.NewJWTIssuer(infratoken.JWTConfig{
		Secret:   cfg.BackendTokenSecret,
		Issuer:   cfg.BackendTokenIssuer,
		Audience: cfg.BackendTokenAudience,
		TTL:      cfg.BackendTokenTTL,
	})
	csrfGenerator := infratoken.NewHMACCSRFGenerator(cfg.CSRFSecret)
	roles := usecase.NewRoleLookup(b.profiles, b.roleCache)

	// Usecases
	gateUC := usecase.NewAuthorizeRequest(b.identity, roles, log)
	signInUC := usecase.NewSignIn(validator, b.identity, roles, log)
	signUpUC := usecase.NewSignUp(validator, b.identity, b.profiles, b.compensations, cfg.ConfirmationURL(), log)
	resetUC := usecase.NewRequestPasswordReset(validator, b.identity, cfg.ResetCallbackURL(), log)
	signOutUC := usecase.NewSignOut(b.identity, roles, log)
	sessionUC := usecase.NewGetSession(b.identity, b.profiles, roles, jwtIssuer, log)
	csrfUC := usecase.NewGenerateCSRF(b.identity, csrfGenerator, log)
	createTicketUC := usecase.NewCreateTicket(validator, b.tickets, roles, log)
	dashboardUC := usecase.NewListDashboard(b.tickets, roles, log)
	retryUC := usecase.NewRetryCompensations(b.identity, b.compensations, log)

	// Rate limiters per endpoint group
	flowRL := appmiddleware.NewRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	apiRL := appmiddleware.NewRateLimiter(300.0/60.0, 10)    // 300 req/min
	internalRL := appmiddleware.NewRateLimiter(10.0/60.0, 3) // 10 req/min
	defer flowRL.Stop()
	defer apiRL.Stop()
	defer internalRL.Stop()

	cookie := adapterhandler.SessionCookie{Name: cfg.SessionCookieName, Secure: cfg.SessionCookieSecure}
	routes := adapterhandler.Routes{
		Gate:               adapterhandler.NewGate(gateUC, cookie, "/health", "/metrics"),
		Auth:               adapterhandler.NewAuthHandler(signInUC, signUpUC, resetUC, signOutUC, cookie),
		Dashboard:          adapterhandler.NewDashboardHandler(dashboardUC),
		Ticket:             adapterhandler.NewTicketHandler(createTicketUC, csrfUC, cookie),
		Session:            adapterhandler.NewSessionHandler(sessionUC, cookie),
		CSRF:               adapterhandler.NewCSRFHandler(csrfUC, cookie),
		Internal:           adapterhandler.NewInternalHandler(retryUC),
		Health:             adapterhandler.NewHealthHandler(b.checks),
		FlowMiddleware:     []echo.MiddlewareFunc{flowRL.Middleware()},
		APIMiddleware:      []echo.MiddlewareFunc{apiRL.Middleware()},
		InternalMiddleware: []echo.MiddlewareFunc{internalRL.Middleware(), appmiddleware.InternalAuth(cfg.InternalAuthSecret)},
	}

	// Setup Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Security middleware
	e.Use(appmiddleware.SecurityHeaders(strings.HasPrefix(cfg.BaseURL, "https://")))
	e.Use(middleware.RequestID())
	e.Use(appmiddleware.RequestContext())

	// OpenTelemetry tracing
	if otelCfg.Enabled {
		e.Use(otelecho.Middleware(otelCfg.ServiceName))
		e.Use(appmiddleware.OTelStatusMiddleware())
	}

	// Request logging
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			p := c.Request().URL.Path
			return p == "/health" || p == "/metrics"
		},
		LogStatus:   true,
		LogURI:      true,
		LogError:    true,
		LogMethod:   true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			rctx := c.Request().Context()
			if v.Error == nil {
				slog.InfoContext(rctx, "request completed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds())
			} else {
				slog.ErrorContext(rctx, "request failed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds(),
					"error", v.Error.Error())
			}
			return nil
		},
	}))

	e.Use(middleware.Recover())

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	routes.Register(e)

	// Start server with errgroup for graceful shutdown
	address := fmt.Sprintf(":%s", cfg.Port)
	log.InfoContext(ctx, "starting repair-desk server", "address", address)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := e.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		log.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return otelShutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("shutdown error", "error", err)
		b.close()
		os.Exit(1)
	}

	log.Info("server exited properly")
}

// buildBackends connects the identity provider, stores and role cache named
// in cfg. On error everything opened so far is closed.
func buildBackends(ctx context.Context, cfg *config.Config, log *slog.Logger) (*backends, error) {
	b := &backends{checks: make(map[string]adapterhandler.HealthCheck)}
	fail := func(err error) (*backends, error) {
		b.close()
		return nil, err
	}

	switch cfg.IdentityBackend {
	case config.BackendMemory:
		log.WarnContext(ctx, "using in-memory identity provider, accounts are lost on restart")
		b.identity = memory.NewIdentityProvider()
	default:
		b.identity = gateway.NewKratosGateway(cfg.KratosPublicURL, cfg.KratosAdminURL, cfg.KratosTimeout)
		if cfg.KratosAdminURL == "" {
			log.WarnContext(ctx, "KRATOS_ADMIN_URL not set, sign-up compensation will stay pending")
		}
	}

	switch cfg.StoreBackend {
	case config.BackendMemory:
		b.profiles = memory.NewProfileStore()
		b.tickets = memory.NewTicketStore()
		b.compensations = memory.NewCompensationLog()
	default:
		db, err := postgres.NewConnection(ctx, cfg.DatabaseURL, log)
		if err != nil {
			return fail(err)
		}
		b.closers = append(b.closers, db.Close)
		b.checks["postgres"] = db.HealthCheck

		pool := db.Pool()
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			return fail(err)
		}
		b.profiles = postgres.NewProfileRepository(pool, log)
		b.tickets = postgres.NewTicketRepository(pool, log)
		b.compensations = postgres.NewCompensationRepository(pool, log)
	}

	switch cfg.RoleCacheBackend {
	case config.BackendRedis:
		rc, err := infracache.NewRedisRoleCache(cfg.RedisURL, cfg.RoleCacheTTL, log)
		if err != nil {
			return fail(fmt.Errorf("redis role cache: %w", err))
		}
		b.closers = append(b.closers, func() {
			if cerr := rc.Close(); cerr != nil {
				log.Warn("failed to close redis client", "error", cerr)
			}
		})
		if err := rc.Ping(ctx); err != nil {
			// Misses fall through to the profile store.
			log.WarnContext(ctx, "redis unreachable at startup", "error", err)
		}
		b.checks["redis"] = rc.Ping
		b.roleCache = rc
	default:
		b.roleCache = infracache.NewRoleCache(cfg.RoleCacheSize, cfg.RoleCacheTTL)
	}

	return b, nil
}

// runHealthcheck performs a health check against the local server.
func runHealthcheck() error {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(fmt.Sprintf("http://127.0.0.1:%s/health", port))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health endpoint returned status: %d", resp.StatusCode)
	}
	return nil
}
