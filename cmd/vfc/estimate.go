package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/visitor-flow/vfc/internal/config"
	"github.com/visitor-flow/vfc/internal/eventlog"
	"github.com/visitor-flow/vfc/internal/stats"
)

type estimateOptions struct {
	csvPath   string
	mode      string
	bandwidth float64
	weighted  bool
}

func newEstimateCommand(configPath *string) *cobra.Command {
	var opts estimateOptions

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Compute a snapshot offline from a CSV event log",
		Long: "Reads a CSV log (timestamp,group_size) and prints the snapshot the server would\n" +
			"publish for it. Useful for retuning the bandwidth against recorded traffic.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			if cmd.Flags().Changed("mode") {
				cfg.Stats.Mode = opts.mode
			}
			if cmd.Flags().Changed("bandwidth") {
				cfg.Estimator.BandwidthMinutes = opts.bandwidth
			}
			if cmd.Flags().Changed("weighted") {
				cfg.Estimator.WeightByGroupSize = opts.weighted
			}
			path := opts.csvPath
			if path == "" {
				path = cfg.Store.CSVPath
			}

			snapshot, err := estimate(cfg, path)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(snapshot)
		},
	}

	cmd.Flags().StringVar(&opts.csvPath, "csv", "", "CSV log to read (default store.csvPath)")
	cmd.Flags().StringVar(&opts.mode, "mode", config.ModeRate, "snapshot mode: rate or tally")
	cmd.Flags().Float64Var(&opts.bandwidth, "bandwidth", 20, "kernel bandwidth in minutes")
	cmd.Flags().BoolVar(&opts.weighted, "weighted", false, "weight arrivals by group size")
	return cmd
}

// estimate computes the snapshot of the whole CSV log at path. Estimator
// failures still produce the degraded snapshot, as the server would publish it.
func estimate(cfg *config.Config, path string) (stats.Snapshot, error) {
	loc, err := cfg.Location()
	if err != nil {
		return stats.Snapshot{}, err
	}
	strategy, err := stats.StrategyFromConfig(cfg)
	if err != nil {
		return stats.Snapshot{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return stats.Snapshot{}, fmt.Errorf("failed to open event log: %w", err)
	}
	defer f.Close()

	events, err := eventlog.ReadCSV(f, loc)
	if err != nil {
		return stats.Snapshot{}, err
	}

	snapshot, err := strategy.Compute(events)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	return snapshot, nil
}
