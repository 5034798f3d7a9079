// Package server wires configuration, storage, services and the HTTP API
// together and runs the server until it receives a shutdown signal.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/questline/internal/logging"
	"github.com/dmitrijs2005/questline/internal/server/auth"
	"github.com/dmitrijs2005/questline/internal/server/cache"
	"github.com/dmitrijs2005/questline/internal/server/config"
	"github.com/dmitrijs2005/questline/internal/server/httpapi"
	"github.com/dmitrijs2005/questline/internal/server/observability"
	"github.com/dmitrijs2005/questline/internal/server/recommend"
	"github.com/dmitrijs2005/questline/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/questline/internal/server/services"
	"github.com/gin-gonic/gin"
)

const (
	shutdownTimeout     = 10 * time.Second
	limiterSweepEvery   = time.Minute
	limiterIdleTimeout  = 10 * time.Minute
	questCatalogEntries = 256
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	cache       cache.Cache
	limiter     *httpapi.RateLimiter
	handler     http.Handler
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger, err := logging.New(c.LogBackend, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	rm := repomanager.NewPostgresRepositoryManager()

	var boardCache cache.Cache = cache.Nop{}
	if c.RedisAddr != "" {
		rc, err := cache.NewRedisCache(ctx, c.RedisAddr)
		if err != nil {
			logger.Warn(ctx, "leaderboard cache disabled", "redis_addr", c.RedisAddr, "error", err)
		} else {
			boardCache = rc
		}
	}

	codec, err := auth.NewCodec([]byte(c.SecretKey), c.TokenValidityDuration)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("token codec init error: %w", err)
	}

	catalog, err := services.NewQuestCatalog(db, rm, questCatalogEntries)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	metrics := observability.New()
	achievementService := services.NewAchievementService(db, rm, logger)
	limiter := httpapi.NewRateLimiter(c.AuthRateLimit, c.AuthRateBurst, logger.With("module", "ratelimit"))

	gin.SetMode(gin.ReleaseMode)
	router := httpapi.NewRouter(httpapi.RouterConfig{
		Gate:         auth.NewGate(codec, c.CookieName),
		Users:        services.NewUserService(db, rm, codec),
		Quests:       services.NewQuestService(db, rm, catalog, achievementService, recommend.NewScorer(nil), metrics),
		Achievements: achievementService,
		Leaderboard:  services.NewLeaderboardService(db, rm, boardCache, c.LeaderboardCacheTTL, logger),
		Events:       services.NewEventService(db, rm),
		Moments:      services.NewMomentService(db, rm),
		Settings:     services.NewSettingsService(db, rm),

		Logger:         logger.With("module", "http"),
		Metrics:        metrics,
		MetricsHandler: metrics.Handler(),
		Ping:           db.PingContext,

		Cookie: httpapi.CookieSettings{
			Name:   c.CookieName,
			Secure: c.CookieSecure,
			MaxAge: c.TokenValidityDuration,
		},
		AllowedOrigins: c.AllowedOrigins,
		AuthLimiter:    limiter,
		TrustedProxies: c.TrustedProxies,
	})

	return &App{
		config:      c,
		logger:      logger,
		db:          db,
		repomanager: rm,
		cache:       boardCache,
		limiter:     limiter,
		handler:     router,
	}, nil
}

// Handler exposes the HTTP handler, mainly for tests.
func (app *App) Handler() http.Handler {
	return app.handler
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	srv := &http.Server{
		Addr:              app.config.EndpointAddrHTTP,
		Handler:           app.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, "HTTP shutdown failed", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run migrates the schema, serves HTTP until ctx is cancelled or a signal
// arrives, and then releases the database and cache.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	defer app.close(ctx)

	if err := app.repomanager.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("migrations failed: %w", err)
	}

	app.limiter.StartCleanup(ctx, limiterSweepEvery, limiterIdleTimeout)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()
	return nil
}

func (app *App) close(ctx context.Context) {
	if err := app.cache.Close(); err != nil {
		app.logger.Warn(ctx, "cache close failed", "error", err)
	}
	if err := app.db.Close(); err != nil {
		app.logger.Warn(ctx, "db close failed", "error", err)
	}
}
