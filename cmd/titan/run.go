package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/copyforge-hq/titan/pkg/cli"
	"github.com/copyforge-hq/titan/pkg/config"
	"github.com/copyforge-hq/titan/pkg/dispatch"
	"github.com/copyforge-hq/titan/pkg/health"
	"github.com/copyforge-hq/titan/pkg/notify"
	"github.com/copyforge-hq/titan/pkg/providerfactory"
	"github.com/copyforge-hq/titan/pkg/queue"
	"github.com/copyforge-hq/titan/pkg/routing"
	"github.com/copyforge-hq/titan/pkg/routing/strategies"
	"github.com/copyforge-hq/titan/pkg/server"
	"github.com/copyforge-hq/titan/pkg/telemetry/metrics"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Titan queue server",
	Long: `Start the Titan queue server with the specified configuration.

The server accepts generation jobs over HTTP, stores them durably, and
dispatches them to the configured LLM providers with priority ordering,
health-aware routing, and automatic retries.

Examples:
  # Start with default config
  titan run

  # Start with custom config
  titan run --config /etc/titan/config.yaml

  # Override listen address
  titan run --listen 0.0.0.0:8080

  # Validate config without starting server
  titan run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	// Apply flag overrides
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	logger := setupLogging(cfg.Telemetry.Logging)
	slog.SetDefault(logger)

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	printBanner(cfg)

	// Cancelled on SIGINT/SIGTERM; every subsystem hangs off this context.
	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()

	// Providers
	manager := providerfactory.NewManager()
	defer manager.Close()

	providerConfigs := providerfactory.FromConfig(cfg.Providers)
	if len(providerConfigs) == 0 {
		return cli.NewConfigError("providers", "at least one provider must be configured")
	}
	if err := manager.LoadFromConfig(providerConfigs); err != nil {
		return cli.NewCommandError("run", fmt.Errorf("provider initialization failed: %w", err))
	}
	fmt.Printf("✓ Providers initialized (%d providers)\n", manager.ProviderCount())

	// Routing
	monitor := health.NewMonitor(health.WithCacheTTL(cfg.Routing.HealthCacheTTL))
	strategy, err := strategies.New(cfg.Routing.Strategy, cfg.Routing.Weights, monitor)
	if err != nil {
		return cli.NewConfigError("routing.strategy", err.Error())
	}
	balancer, err := routing.NewBalancer(manager.GetProviders(), monitor, strategy)
	if err != nil {
		return cli.NewCommandError("run", fmt.Errorf("failed to create balancer: %w", err))
	}
	defer balancer.Close()
	fmt.Printf("✓ Routing initialized (strategy: %s)\n", cfg.Routing.Strategy)

	// Job store
	store, err := queue.NewSQLiteStore(queue.SQLiteStoreConfig{
		DBPath:        cfg.Queue.DBPath,
		MaxQueueDepth: cfg.Queue.MaxQueueDepth,
	})
	if err != nil {
		return cli.NewCommandError("run", fmt.Errorf("failed to open job store: %w", err))
	}
	defer store.Close()
	fmt.Printf("✓ Job store opened (%s)\n", cfg.Queue.DBPath)

	// Metrics
	var collector *metrics.Collector
	if cfg.Telemetry.Metrics.Enabled {
		collector = metrics.NewCollector(&cfg.Telemetry.Metrics, prometheus.NewRegistry())
	}

	// Notifications
	broker := notify.NewBroker(logger)
	broker.Start(ctx)
	defer broker.Stop()

	// Dispatch
	retry := dispatch.NewRetryScheduler(store, broker, collector, cfg.Queue.BackoffBase, logger)
	dispatcher, err := dispatch.NewDispatcher(store, balancer, monitor, retry, broker, collector, dispatch.Config{
		Workers:         cfg.Queue.Workers,
		PollInterval:    cfg.Queue.PollInterval,
		ProviderTimeout: cfg.Queue.ProviderTimeout,
	}, logger)
	if err != nil {
		return cli.NewCommandError("run", fmt.Errorf("failed to create dispatcher: %w", err))
	}
	dispatcher.Start(ctx)
	defer dispatcher.Stop()
	fmt.Printf("✓ Dispatcher started (%d workers)\n", cfg.Queue.Workers)

	sweeper := dispatch.NewSweeper(store, broker, collector, dispatch.SweeperConfig{
		SweepInterval:   cfg.Queue.SweepInterval,
		CleanupSchedule: cfg.Queue.CleanupSchedule,
		RetentionPeriod: cfg.Queue.RetentionPeriod,
	}, logger)
	if err := sweeper.Start(ctx); err != nil {
		return cli.NewCommandError("run", fmt.Errorf("failed to start sweeper: %w", err))
	}
	defer sweeper.Stop()

	// Hot reload of the routing section
	watchConfig(ctx, logger, manager, balancer, monitor)

	srv := server.NewServer(cfg, server.Dependencies{
		Store:     store,
		Balancer:  balancer,
		Monitor:   monitor,
		Providers: manager.GetProviders(),
		Broker:    broker,
		Collector: collector,
	}, logger)

	fmt.Println()
	fmt.Printf("✓ Server listening on %s\n", cfg.Server.ListenAddress)
	fmt.Printf("✓ Health endpoint: http://%s/health\n", cfg.Server.ListenAddress)
	if cfg.Telemetry.Metrics.Enabled {
		fmt.Printf("✓ Metrics endpoint: http://%s/metrics\n", cfg.Server.ListenAddress)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}

	fmt.Println("✓ Server stopped")
	return nil
}

// watchConfig starts the configuration file watcher. Only the routing
// and providers sections take effect on reload; everything else requires
// a restart.
func watchConfig(ctx context.Context, logger *slog.Logger, manager *providerfactory.Manager, balancer routing.LoadBalancer, monitor *health.Monitor) {
	watcher, err := config.NewWatcher(cfgFile)
	if err != nil {
		logger.Warn("config watcher unavailable, hot reload disabled", "error", err)
		return
	}

	go func() {
		err := watcher.Watch(ctx, func(reloaded *config.Config) {
			strategy, err := strategies.New(reloaded.Routing.Strategy, reloaded.Routing.Weights, monitor)
			if err != nil {
				logger.Error("reload skipped, invalid routing strategy", "error", err)
				return
			}

			if err := manager.LoadFromConfig(providerfactory.FromConfig(reloaded.Providers)); err != nil {
				logger.Warn("some providers failed to reload", "error", err)
			}
			balancer.UpdateProviders(manager.GetProviders())
			balancer.SetStrategy(strategy)

			logger.Info("routing configuration reloaded",
				"strategy", reloaded.Routing.Strategy,
				"providers", manager.ProviderCount(),
			)
		})
		if err != nil && ctx.Err() == nil {
			logger.Error("config watcher stopped", "error", err)
		}
	}()
}

func setupLogging(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

func printBanner(cfg *config.Config) {
	fmt.Printf("Titan v%s\n", Version)
	fmt.Printf("Loading configuration from: %s\n", cfgFile)
	fmt.Println("✓ Configuration loaded")

	if len(cfg.Providers) > 0 {
		slog.Debug("providers configured", "count", len(cfg.Providers))
	}
	slog.Debug("routing strategy", "strategy", cfg.Routing.Strategy)
}
