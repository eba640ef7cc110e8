package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/filesense/filesense/internal/mcp"
	"github.com/filesense/filesense/internal/monitor"
)

var flagNoScheduler bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server on stdio with the background indexer",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp(flagConfig)
		if err != nil {
			return err
		}
		defer app.Close()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		var reporter mcp.ScanReporter
		if !flagNoScheduler && len(app.cfg.Watch.Directories) > 0 {
			sched := app.newScheduler(monitor.NewSystemProbe())
			reporter = sched
			go func() {
				if err := sched.Run(ctx); err != nil && ctx.Err() == nil {
					app.logger.Error("scheduler stopped", zap.Error(err))
				}
			}()
		}

		server := mcp.NewServer(app.engine, app.store, reporter, app.logger)

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.Serve(ctx)
		}()

		select {
		case <-ctx.Done():
			app.logger.Info("shutting down")
			return nil
		case err := <-errCh:
			return err
		}
	},
}

func init() {
	serveCmd.Flags().BoolVar(&flagNoScheduler, "no-scheduler", false, "serve queries only, without background indexing")
	rootCmd.AddCommand(serveCmd)
}
