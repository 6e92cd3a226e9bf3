// Package server wires the LinkedCommunity backend together: database and
// migrations, services, the gRPC API and the metrics side-port.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/linkedcommunity/internal/logging"
	"github.com/dmitrijs2005/linkedcommunity/internal/server/config"
	"github.com/dmitrijs2005/linkedcommunity/internal/server/metrics"
	"github.com/dmitrijs2005/linkedcommunity/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/linkedcommunity/internal/server/services"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/linkedcommunity/internal/server/grpc"
)

// seams for tests
var (
	sqlOpen        = sql.Open
	newRepoManager = repomanager.NewPostgresRepositoryManager
)

const (
	limiterCleanupInterval = 5 * time.Minute
	tokenPruneInterval     = time.Hour
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	registry *prometheus.Registry
	limiter  *gs.RateLimiter
	users    *services.UserService
	grpc     *gs.GRPCServer
}

// NewApp opens the database, applies migrations and builds the services.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	db, err := sqlOpen("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := newRepoManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewDBStatsCollector(db, "linkedcommunity"))
	mc := metrics.NewCollector(reg)
	limiter := gs.NewRateLimiter(c.AuthAttemptsPerMinute, limiterCleanupInterval)
	users := services.NewUserService(db, rm, c)

	srv, err := gs.NewGRPCServer(c.EndpointAddrGRPC, logger, gs.Deps{
		Users:    users,
		Profiles: services.NewProfileService(db, rm),
		Posts:    services.NewPostService(db, rm),
		Avatars:  services.NewAvatarService(c),
		DB:       db,
		Metrics:  mc,
		Limiter:  limiter,
	})
	if err != nil {
		limiter.Stop()
		_ = db.Close()
		return nil, err
	}

	return &App{
		config:   c,
		logger:   logger,
		db:       db,
		registry: reg,
		limiter:  limiter,
		users:    users,
		grpc:     srv,
	}, nil
}

// Run serves gRPC and, when configured, metrics until ctx is cancelled or
// one of them fails.
func (app *App) Run(ctx context.Context) error {
	app.logger.Info(ctx, "Starting app...")

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return app.grpc.Run(ctx)
	})

	g.Go(func() error {
		app.pruneTokens(ctx, tokenPruneInterval)
		return nil
	})

	if app.config.EndpointAddrMetrics != "" {
		g.Go(func() error {
			return metrics.Serve(ctx, app.config.EndpointAddrMetrics, metrics.NewRouter(app.registry, app.db), app.logger)
		})
	}

	err := g.Wait()
	app.logger.Info(context.Background(), "App stopped")
	return err
}

// pruneTokens drops expired refresh tokens every interval until ctx is done.
func (app *App) pruneTokens(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := app.users.PruneRefreshTokens(ctx)
			if err != nil {
				app.logger.Error(ctx, "refresh token pruning failed", "error", err)
				continue
			}
			if n > 0 {
				app.logger.Info(ctx, "pruned expired refresh tokens", "count", n)
			}
		}
	}
}

func (app *App) Close() error {
	app.limiter.Stop()
	return app.db.Close()
}
