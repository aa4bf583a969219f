package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/hivcare/hivcare/internal/config"
	"github.com/hivcare/hivcare/internal/domain/adherence"
	"github.com/hivcare/hivcare/internal/domain/alert"
	"github.com/hivcare/hivcare/internal/domain/appointment"
	"github.com/hivcare/hivcare/internal/domain/cag"
	"github.com/hivcare/hivcare/internal/domain/counseling"
	"github.com/hivcare/hivcare/internal/domain/labtest"
	"github.com/hivcare/hivcare/internal/domain/patient"
	"github.com/hivcare/hivcare/internal/domain/pharmacy"
	"github.com/hivcare/hivcare/internal/domain/regimen"
	"github.com/hivcare/hivcare/internal/domain/session"
	"github.com/hivcare/hivcare/internal/domain/staff"
	"github.com/hivcare/hivcare/internal/domain/visit"
	"github.com/hivcare/hivcare/internal/platform/auth"
	"github.com/hivcare/hivcare/internal/platform/db"
	"github.com/hivcare/hivcare/internal/platform/middleware"
)

const (
	version         = "1.0.0"
	bodyLimit       = "1M"
	shutdownTimeout = 10 * time.Second
)

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	if err := cfg.Validate(); err != nil {
		logger.Error().Err(err).Msg("invalid configuration")
		return err
	}
	if cfg.UsesDevSecret() {
		logger.Warn().Msg("JWT_SECRET not set, signing tokens with the development secret")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, db.PoolOptions{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
	if err != nil {
		logger.Error().Err(err).Msg("failed to connect to database")
		return err
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if err := db.RegisterPoolMetrics(reg, pool); err != nil {
		return err
	}

	e := newRouter(cfg, logger, pool, reg)
	e.GET("/health/db", db.HealthHandler(pool))

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Bool("tls", cfg.TLSEnabled).Str("env", cfg.Env).Msg("starting server")
		var err error
		if cfg.TLSEnabled {
			err = e.StartTLS(addr, cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = e.Start(addr)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		logger.Info().Str("signal", sig.String()).Msg("shutting down server")
	case err, ok := <-errCh:
		if ok {
			logger.Error().Err(err).Msg("server error")
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

// newRouter builds the middleware chain and registers every route module.
// Repositories only hold the pool, so nothing here touches the database.
func newRouter(cfg *config.Config, logger zerolog.Logger, pool *pgxpool.Pool, reg *prometheus.Registry) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.ErrorHandler(logger)

	metrics := middleware.NewMetrics(reg)

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders(cfg.TLSEnabled))
	e.Use(metrics.Middleware())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderAuthorization, echo.HeaderContentType, echo.HeaderXRequestID},
		AllowCredentials: true,
	}))
	e.Use(echomw.BodyLimit(bodyLimit))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	e.Use(middleware.Audit(logger))

	health := func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"status":    "ok",
			"version":   version,
			"timestamp": time.Now().UTC(),
		})
	}
	e.GET("/health", health)
	e.GET("/metrics", metrics.Handler())

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)

	staffSvc := staff.NewService(staff.NewRepo(pool), cfg.BcryptCost)
	authn := auth.NewAuthenticator(tokens, staffSvc)

	rateLimitCfg := middleware.DefaultRateLimitConfig()
	if cfg.RateLimitRPS > 0 {
		rateLimitCfg.RequestsPerSecond = cfg.RateLimitRPS
	}
	if cfg.RateLimitBurst > 0 {
		rateLimitCfg.BurstSize = cfg.RateLimitBurst
	}

	api := e.Group("/api", middleware.RateLimit(rateLimitCfg), authn.Authenticate(auth.AuthSkipper))
	// A valid token on /api/health is reported back, so clients can check a
	// session without failing when it has lapsed.
	api.GET("/health", func(c echo.Context) error {
		body := map[string]any{
			"status":        "ok",
			"version":       version,
			"timestamp":     time.Now().UTC(),
			"authenticated": false,
		}
		if p := auth.PrincipalFromContext(c.Request().Context()); p != nil {
			body["authenticated"] = true
			body["staffCode"] = p.StaffCode
		}
		return c.JSON(http.StatusOK, body)
	}, authn.OptionalAuthenticate())

	pharmacySvc := pharmacy.NewService(pharmacy.NewRepo(pool))

	session.NewHandler(staffSvc, tokens).RegisterRoutes(api)
	staff.NewHandler(staffSvc).RegisterRoutes(api)
	patient.NewHandler(patient.NewService(patient.NewRepo(pool))).RegisterRoutes(api)
	visit.NewHandler(visit.NewService(visit.NewRepo(pool))).RegisterRoutes(api)
	labtest.NewHandler(labtest.NewService(labtest.NewRepo(pool))).RegisterRoutes(api)
	pharmacy.NewHandler(pharmacySvc).RegisterRoutes(api)
	appointment.NewHandler(appointment.NewService(appointment.NewRepo(pool))).RegisterRoutes(api)
	counseling.NewHandler(counseling.NewService(counseling.NewRepo(pool))).RegisterRoutes(api)
	alert.NewHandler(alert.NewService(alert.NewRepo(pool))).RegisterRoutes(api)
	adherence.NewHandler(adherence.NewService(adherence.NewRepo(pool))).RegisterRoutes(api)
	regimen.NewHandler(regimen.NewService(regimen.NewRepo(pool), pharmacySvc)).RegisterRoutes(api)
	cag.NewHandler(cag.NewService(cag.NewRepo(pool))).RegisterRoutes(api)

	return e
}
