package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/quake-data-etl/internal/config"
	"github.com/couchcryptid/quake-data-etl/internal/domain"
	"github.com/couchcryptid/quake-data-etl/internal/observability"
	"github.com/couchcryptid/quake-data-etl/internal/pipeline"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	var start, end string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline once and exit",
		Long: `Run fetches, normalizes and loads one window of events. Without flags the
window is seven days ago through yesterday (UTC dates).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := windowOptions(start, end)
			if err != nil {
				return err
			}
			return runOnce(cmd.Context(), opts...)
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "window start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "window end date (YYYY-MM-DD)")
	cmd.MarkFlagsRequiredTogether("start", "end")

	return cmd
}

func windowOptions(start, end string) ([]pipeline.RunOption, error) {
	if start == "" && end == "" {
		return nil, nil
	}
	if start == "" || end == "" {
		return nil, errors.New("--start and --end must be given together")
	}
	w, err := domain.ParseWindow(start, end)
	if err != nil {
		return nil, err
	}
	return []pipeline.RunOption{pipeline.WithWindow(w)}, nil
}

func runOnce(parent context.Context, opts ...pipeline.RunOption) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := observability.NewLogger(cfg)

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.RunTimeout)
	defer cancel()

	a, err := newApp(cfg, logger, observability.NewMetrics())
	if err != nil {
		return err
	}
	defer a.Close()

	_, err = a.pipeline.Run(ctx, opts...)
	return err
}
