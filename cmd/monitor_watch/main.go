// Monitor watch prints every snapshot published by the monitor API.
// Depends on the monitor API being online.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/NotCoffee418/energy_monitor/pkg/config"
	"github.com/NotCoffee418/energy_monitor/pkg/loader"
	"github.com/NotCoffee418/energy_monitor/pkg/monitorclient"
	"github.com/NotCoffee418/energy_monitor/pkg/pathing"
	"go.uber.org/zap"
)

func main() {
	if err := pathing.EnsureDirs(); err != nil {
		log.Fatalf("Failed to create directories: %v", err)
	}
	if err := config.LoadMonitorWatchConfig(); err != nil {
		log.Fatalf("Failed to load monitor watch config: %v", err)
	}
	cfg := config.ActiveMonitorWatchConfig

	logger, err := config.NewLogger(&cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Subscribe to websocket with revive
	listener := monitorclient.NewListener(cfg.MonitorAPIHost, cfg.TLSEnabled, logger)
	if err := listener.Run(ctx, handleSnapshot); err != nil {
		logger.Fatal("listener stopped", zap.Error(err))
	}
}

func handleSnapshot(snap *loader.Snapshot) {
	b, err := json.Marshal(snap)
	if err != nil {
		return
	}
	fmt.Println(string(b))
}
