package cli

import (
	"context"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index statistics and recent indexing sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp(flagConfig)
		if err != nil {
			return err
		}
		defer app.Close()

		ctx := context.Background()

		files, err := app.store.ListFiles(ctx)
		if err != nil {
			return err
		}
		total, embedded, err := app.store.CountChunks(ctx)
		if err != nil {
			return err
		}

		cmd.Printf("Database: %s\n", app.cfg.Database.Path)
		cmd.Printf("  files: %d\n", len(files))
		cmd.Printf("  chunks: %d (%d embedded)\n", total, embedded)

		stats := app.engine.IndexStats()
		if stats.Built {
			cmd.Printf("Vector index: %s, %d vectors, dimension %d\n",
				stats.IndexType, stats.Vectors, stats.Dimension)
		} else {
			cmd.Println("Vector index: not built")
		}

		sessions, err := app.store.ListSessions(ctx, 5)
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			cmd.Println("No indexing sessions recorded.")
			return nil
		}

		cmd.Println("Recent sessions:")
		for _, s := range sessions {
			cmd.Printf("  %s  %-11s scanned=%d indexed=%d chunks=%d errors=%d\n",
				s.StartedAt.Format("2006-01-02 15:04:05"), s.Status,
				s.FilesScanned, s.FilesIndexed, s.ChunksCreated, s.ErrorCount)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
