package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"
)

var flagTopK int

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search indexed files from the command line",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp(flagConfig)
		if err != nil {
			return err
		}
		defer app.Close()

		queryText := strings.Join(args, " ")
		results, err := app.engine.SearchByText(context.Background(), queryText, flagTopK)
		if err != nil {
			return err
		}

		if len(results) == 0 {
			cmd.Println("No results.")
			return nil
		}

		for _, r := range results {
			cmd.Printf("%2d. %s [chunk %d, %s, similarity %.3f]\n",
				r.Rank, r.File.Path, r.ChunkID, r.Source, r.Similarity)
			for _, line := range strings.Split(strings.TrimSpace(r.Content), "\n") {
				cmd.Printf("      %s\n", line)
			}
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVar(&flagTopK, "top-k", 5, "maximum number of results")
	rootCmd.AddCommand(searchCmd)
}
