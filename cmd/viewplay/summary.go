package main

import (
	"encoding/json"
	"errors"

	"github.com/gabrielcapilla/viewplay/internal/domain"
	"github.com/gabrielcapilla/viewplay/internal/services/storage"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(summaryCmd)
	summaryCmd.Flags().StringP("container", "c", "", "Container to summarize (defaults to the configured one)")
	summaryCmd.Flags().IntP("last", "n", 0, "Also print the newest n samples")
	summaryCmd.Flags().StringP("state", "s", "", "Only print samples in this state: paused, playing or ended")
}

// filterSamples keeps the samples taken in state, in their original order.
func filterSamples(samples []domain.Sample, state domain.PlaybackState) []domain.Sample {
	var kept []domain.Sample
	for _, sample := range samples {
		if sample.Snapshot.State == state {
			kept = append(kept, sample)
		}
	}
	return kept
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print stored playback and viewability samples",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Monitor.DBPath == "" {
			return errors.New("no sample database configured")
		}

		container, _ := cmd.Flags().GetString("container")
		if container == "" {
			container = cfg.Player.ContainerID
		}
		last, _ := cmd.Flags().GetInt("last")

		var state domain.PlaybackState
		if raw, _ := cmd.Flags().GetString("state"); raw != "" {
			if state, err = domain.ParsePlaybackState(raw); err != nil {
				return err
			}
		}

		store, err := storage.NewBboltStore(cfg.Monitor.DBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		summary, err := store.Summarize(container)
		if err != nil {
			return err
		}

		report := struct {
			Summary domain.SampleSummary `json:"summary"`
			Samples []domain.Sample      `json:"samples,omitempty"`
		}{Summary: summary}

		if last > 0 {
			if report.Samples, err = store.GetSamples(container, last); err != nil {
				return err
			}
			if state != "" {
				report.Samples = filterSamples(report.Samples, state)
			}
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}
