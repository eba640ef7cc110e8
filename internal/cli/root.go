package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/filesense/filesense/internal/storage"
)

var (
	// Version is stamped at build time.
	Version = "dev"

	flagConfig string
)

var rootCmd = &cobra.Command{
	Use:           "filesense",
	Short:         "Semantic search over your local files",
	Long:          "FileSense indexes local files in the background and answers semantic and keyword queries over their content, either from the command line or as an MCP server.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI.
func Execute() {
	rootCmd.Version = fmt.Sprintf("%s (driver %s, build %s)", Version, storage.DriverName, storage.BuildMode)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file (default built-in defaults)")
}
