package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/filesense/filesense/internal/monitor"
)

var flagGated bool

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run one indexing cycle over the watch directories",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp(flagConfig)
		if err != nil {
			return err
		}
		defer app.Close()

		if len(app.cfg.Watch.Directories) == 0 {
			return fmt.Errorf("no watch directories configured")
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		// manual scans skip the resource gates unless asked otherwise
		var probe monitor.Probe
		if flagGated {
			probe = monitor.NewSystemProbe()
		}

		session, err := app.newScheduler(probe).RunOnce(ctx)
		if err != nil {
			return err
		}
		if session == nil {
			cmd.Println("Skipped: resource gates blocked the cycle.")
			return nil
		}

		cmd.Printf("Session %s: %s\n", session.ID, session.Status)
		cmd.Printf("  files scanned: %d\n", session.FilesScanned)
		cmd.Printf("  files indexed: %d\n", session.FilesIndexed)
		cmd.Printf("  chunks created: %d\n", session.ChunksCreated)
		if session.ErrorCount > 0 {
			cmd.Printf("  errors: %d\n", session.ErrorCount)
		}
		return nil
	},
}

func init() {
	scanCmd.Flags().BoolVar(&flagGated, "gated", false, "honor the idle/battery/memory gates like the background scheduler")
	rootCmd.AddCommand(scanCmd)
}
