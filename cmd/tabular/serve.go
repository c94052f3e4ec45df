package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"mercator-hq/tabular/pkg/catalog"
	"mercator-hq/tabular/pkg/cli"
	"mercator-hq/tabular/pkg/config"
	"mercator-hq/tabular/pkg/export"
	"mercator-hq/tabular/pkg/server"
	"mercator-hq/tabular/pkg/sqlsource"
	"mercator-hq/tabular/pkg/telemetry"
)

var serveFlags struct {
	listenAddress string
	watch         bool
	noSchedule    bool
	dryRun        bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve export downloads and run scheduled exports",
	Long: `Start the HTTP server.

Endpoints:
  GET /exports            list export definitions (?q= filters)
  GET /exports/{name}     download an export as CSV
  GET /metrics            Prometheus metrics (when enabled)
  GET /healthz, /readyz   liveness and readiness probes
  GET /version            build information

Definitions with a schedule are written to their output file by the
scheduler. With --watch the catalog is reloaded when its file changes.

Examples:
  tabular serve --config tabular.yaml
  tabular serve --listen 0.0.0.0:8080 --watch`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.listenAddress, "listen", "l", "", "override listen address")
	serveCmd.Flags().BoolVar(&serveFlags.watch, "watch", false, "reload the catalog when its file changes")
	serveCmd.Flags().BoolVar(&serveFlags.noSchedule, "no-schedule", false, "do not run scheduled exports")
	serveCmd.Flags().BoolVar(&serveFlags.dryRun, "dry-run", false, "validate config and catalog without starting the server")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveFlags.listenAddress != "" {
		cfg.Server.ListenAddress = serveFlags.listenAddress
	}
	if serveFlags.watch {
		cfg.Export.Watch = true
	}
	if serveFlags.noSchedule {
		cfg.Export.Schedule = false
	}
	if err := config.Validate(cfg); err != nil {
		return cli.NewConfigError("", err.Error())
	}

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	tel, err := telemetry.New(&cfg.Telemetry, Version, GitCommit, BuildDate)
	if err != nil {
		return cli.NewConfigError("telemetry", err.Error())
	}
	tel.Logger().SetDefault()
	collector := tel.Metrics()

	// The scheduler is created after the store, so reloads reach it through
	// this variable.
	var scheduler *export.Scheduler
	store, err := catalog.NewStore(cfg.Export.CatalogPath,
		catalog.WithReloadFunc(func(definitions int, err error) {
			collector.RecordCatalogReload(definitions, err)
			if err == nil && scheduler != nil {
				if err := scheduler.Reschedule(); err != nil {
					slog.Error("failed to reschedule exports", "error", err)
				}
			}
		}),
	)
	if err != nil {
		return cli.NewConfigError("export.catalog_path", err.Error())
	}

	if serveFlags.dryRun {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Configuration valid, %d export definitions\n", store.Catalog().Len())
		return nil
	}

	source, err := sqlsource.Open(sqlsource.FromConfig(cfg.Source))
	if err != nil {
		return cli.NewCommandError("serve", err)
	}
	defer source.Close()

	service := export.NewService(store, source, export.DefaultsFromConfig(cfg.Export),
		export.WithObserver(collector),
		export.WithRecorder(collector),
	)

	if cfg.Export.Schedule {
		scheduler = export.NewScheduler(service)
		if err := scheduler.Start(ctx); err != nil {
			return cli.NewCommandError("serve", err)
		}
		defer scheduler.Stop()
	}

	if cfg.Export.Watch {
		watcher, err := catalog.NewWatcher(store, cfg.Export.WatchDebounce, nil)
		if err != nil {
			return cli.NewCommandError("serve", err)
		}
		go func() {
			if err := watcher.Watch(ctx); err != nil && ctx.Err() == nil {
				slog.Error("catalog watcher stopped", "error", err)
			}
		}()
		defer watcher.Stop()
	}

	tel.Health().Register("source", source.Ping)
	tel.Health().Register("catalog", func(context.Context) error {
		if store.Catalog().Len() == 0 {
			return fmt.Errorf("catalog has no export definitions")
		}
		return nil
	})

	routes := server.Routes{
		Exports: export.NewHandler(service),
		Health:  tel.RegisterHealth,
	}
	routes.Metrics, routes.MetricsPath = tel.MetricsHandler()

	slog.Info("starting tabular",
		"version", Version,
		"listen", cfg.Server.ListenAddress,
		"catalog", store.Path(),
		"definitions", store.Catalog().Len(),
		"schedule", cfg.Export.Schedule,
		"watch", cfg.Export.Watch,
	)

	return server.NewServer(&cfg.Server, routes).Start(ctx)
}
