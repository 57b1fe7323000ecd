package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootCmd serves when run without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "server",
	Short: "Topics log API and live sync server",
	Long: `Serves the topics log HTTP API, the live websocket feed and the
static front end. Runs against Postgres, or in memory with --memory.`,
	RunE: runServe,
}

func init() {
	rootCmd.Flags().BoolVar(&inMemory, "memory", false, "keep all data in memory instead of Postgres")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
