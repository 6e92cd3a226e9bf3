package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/linkedcommunity/internal/client/cli"
	"github.com/dmitrijs2005/linkedcommunity/internal/client/client"
	"github.com/dmitrijs2005/linkedcommunity/internal/client/config"
	"github.com/dmitrijs2005/linkedcommunity/internal/client/feed"
	"github.com/dmitrijs2005/linkedcommunity/internal/client/identity"
	"github.com/dmitrijs2005/linkedcommunity/internal/logging"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	logger := logging.NewText(os.Stderr, slog.LevelWarn)

	db, cache, err := client.InitDatabase(ctx, cfg.DatabasePath)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	defer db.Close()

	api, err := client.NewGRPCClient(cfg.ServerEndpointAddr, cache, logger, cfg.RequestTimeout)
	if err != nil {
		log.Fatalf("create client: %v", err)
	}
	defer api.Close()

	manager := identity.NewManager(api, api, logger)
	coordinator := feed.NewCoordinator(api, manager, logger)
	avatars := identity.NewAvatarUploader(manager, api, &http.Client{Timeout: cfg.RequestTimeout})
	app := cli.NewApp(manager, coordinator, avatars, logger, os.Stdin, os.Stdout)

	feedUpdates, unsubscribeFeed := manager.Subscribe()
	defer unsubscribeFeed()
	cliUpdates, unsubscribeCLI := manager.Subscribe()
	defer unsubscribeCLI()

	workers, wctx := errgroup.WithContext(ctx)
	workers.Go(func() error { return manager.Run(wctx) })
	workers.Go(func() error { coordinator.Follow(wctx, feedUpdates); return nil })
	workers.Go(func() error { app.Watch(wctx, cliUpdates); return nil })

	if err := manager.Start(ctx); err != nil {
		logger.Warn(ctx, "session check failed", "error", err)
	}

	// stdin reads do not observe ctx, so a signal must not wait for the REPL
	done := make(chan struct{})
	go func() {
		app.Run(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}

	stop()
	_ = workers.Wait()
}
