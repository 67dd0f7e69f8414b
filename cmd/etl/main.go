package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "quake-etl",
		Short: "Load USGS earthquake events into PostgreSQL",
		Long: `quake-etl fetches the USGS earthquake feed for a trailing seven-day window,
flattens each event into the earthquake table schema and inserts new rows,
skipping ids that are already stored.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(), newScheduleCmd())
	return root
}
