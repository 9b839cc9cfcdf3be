// cmd/telemetry/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/tamzrod/modbus-telemetry/internal/config"
	"github.com/tamzrod/modbus-telemetry/internal/logging"
	"github.com/tamzrod/modbus-telemetry/internal/metrics"
	"github.com/tamzrod/modbus-telemetry/internal/pipeline"
	"github.com/tamzrod/modbus-telemetry/internal/poller"
	"github.com/tamzrod/modbus-telemetry/internal/spool"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: telemetry <config.yaml>")
		os.Exit(2)
	}

	if err := run(os.Args[1], processStartup()); err != nil {
		fmt.Fprintf(os.Stderr, "telemetry: %v\n", err)
		os.Exit(1)
	}
}

// run returns only on a startup failure or after the termination signal.
// Every acquired resource is released on each return path.
func run(cfgPath string, st startup) error {
	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	config.Normalize(cfg)

	log, err := logging.New(cfg.Log.Level, cfg.Log.Format, cfg.Service.Name)
	if err != nil {
		return fmt.Errorf("logger init failed: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --------------------
	// Roster
	// --------------------

	roster := cfg.Roster()
	if cfg.Inventory.URL != "" {
		roster = refreshRoster(ctx, cfg.Inventory, roster, log)
	}

	monitored, err := monitoredRoster(cfg, roster, log)
	if err != nil {
		return err
	}

	// --------------------
	// Metrics
	// --------------------

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	if cfg.Metrics.Listen != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Listen, reg, log); err != nil {
				log.Error("metrics server failed", zap.Error(err))
			}
		}()
	}

	// --------------------
	// Broker
	// --------------------

	bc, err := st.dialBroker(brokerConfig(cfg), log)
	if err != nil {
		return fmt.Errorf("broker unreachable: %w", err)
	}
	defer bc.Close()

	// --------------------
	// Spool + pipeline
	// --------------------

	sp := spool.New(cfg.Spool.Path)
	pl := pipeline.New(bc, sp, log, m)
	if _, err := pl.Recover(); err != nil {
		// File stays on disk; EndCycle retries the load.
		log.Warn("spool recovery deferred", zap.Error(err))
	}

	// --------------------
	// Channel
	// --------------------

	bus, err := st.openChannel(channelConfig(cfg))
	if err != nil {
		return fmt.Errorf("channel unavailable: %w", err)
	}
	defer func() {
		if err := bus.Close(); err != nil {
			log.Warn("channel close failed", zap.Error(err))
		}
	}()

	// --------------------
	// Poll loop
	// --------------------

	p, err := poller.Build(cfg, bus, monitored, pl, log, m)
	if err != nil {
		return fmt.Errorf("poller build failed: %w", err)
	}

	log.Info("telemetry started",
		zap.String("channel", bus.Name()),
		zap.String("broker", cfg.Broker.URL),
		zap.String("topic", cfg.Broker.Topic),
		zap.Int("equipment", len(monitored)),
		zap.Int("polling_interval_s", cfg.Service.PollingIntervalS),
		zap.Int("spool_depth", pl.Pending()),
	)

	p.Probe()
	p.Run(ctx)

	log.Info("telemetry stopped")
	return nil
}
