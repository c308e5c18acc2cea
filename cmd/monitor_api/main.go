// Monitor API resolves the energy devices of a Home Assistant instance,
// loads their consumption for the selected periods and serves the results.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/NotCoffee418/energy_monitor/pkg/api"
	"github.com/NotCoffee418/energy_monitor/pkg/config"
	"github.com/NotCoffee418/energy_monitor/pkg/hass"
	"github.com/NotCoffee418/energy_monitor/pkg/historydb"
	"github.com/NotCoffee418/energy_monitor/pkg/loader"
	"github.com/NotCoffee418/energy_monitor/pkg/metrics"
	"github.com/NotCoffee418/energy_monitor/pkg/pathing"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

func main() {
	if err := pathing.EnsureDirs(); err != nil {
		log.Fatalf("Failed to create directories: %v", err)
	}

	// Load config
	if err := config.LoadMonitorAPIConfig(); err != nil {
		log.Fatalf("Failed to load monitor API config: %v", err)
	}
	cfg := config.ActiveMonitorAPIConfig

	logger, err := config.NewLogger(&cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()
	cfg.PrintConfig(logger)

	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal("invalid timezone", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.NewMetrics()
	client := hass.New(cfg.HomeAssistant, logger.Named("hass"), m)

	var fetcher loader.Fetcher = client
	if cfg.Cache.Enabled {
		store, err := historydb.Open(cfg.HistoryCachePath(), logger.Named("historydb"))
		if err != nil {
			logger.Fatal("failed to open history cache", zap.Error(err))
		}
		defer store.Close()

		if cfg.Cache.RetentionDays > 0 {
			cutoff := time.Now().AddDate(0, 0, -cfg.Cache.RetentionDays)
			if n, err := store.Prune(ctx, cutoff); err != nil {
				logger.Warn("failed to prune history cache", zap.Error(err))
			} else if n > 0 {
				logger.Info("pruned history cache", zap.Int64("series", n))
			}
		}
		fetcher = historydb.NewCachedFetcher(client, store, logger.Named("historydb"), m)
	}

	engine := loader.New(cfg.Card, client, fetcher, loc, logger.Named("loader"), m)
	if err := engine.RefreshDevices(ctx); err != nil {
		// Devices refresh again on every scheduled reload.
		logger.Error("initial device refresh failed", zap.Error(err))
	}
	engine.StartLoad(ctx)

	// Periodic reloads
	c := cron.New()
	if cfg.API.ReloadSchedule != "" {
		_, err := c.AddFunc(cfg.API.ReloadSchedule, func() {
			if err := engine.RefreshDevices(ctx); err != nil {
				logger.Warn("device refresh failed", zap.Error(err))
			}
			if !engine.StartLoad(ctx) {
				logger.Info("scheduled reload skipped, load already in progress")
			}
		})
		if err != nil {
			logger.Fatal("invalid reload schedule", zap.String("schedule", cfg.API.ReloadSchedule), zap.Error(err))
		}
		c.Start()
	}

	srv := api.NewServer(engine, m, cfg.Card.Title, logger.Named("api"))
	go srv.Run(ctx)

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           srv.Handler(cfg.API.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting energy monitor API", zap.String("listen", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	<-c.Stop().Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", zap.Error(err))
	}
}
