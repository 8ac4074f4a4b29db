package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/agreewise/agreewise/internal/core/domain"
	"github.com/agreewise/agreewise/internal/infrastructure/queue/nats"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Tail submission progress events from NATS",
	Long: `Watch subscribes to NATS_SUBJECT on NATS_URL and prints every progress
event published by a running AgreeWise API until interrupted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.NATSURL == "" {
			return errors.New("NATS_URL is not set")
		}
		logger := newLogger()

		queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{Logger: logger})
		if err != nil {
			return fmt.Errorf("connect progress queue: %w", err)
		}
		defer queue.Close()

		fmt.Fprintf(cmd.ErrOrStderr(), "watching %s\n", cfg.NATSSubject)
		out := cmd.OutOrStdout()
		return queue.SubscribeProgress(cmd.Context(), func(_ context.Context, event domain.ProgressEvent) error {
			if jsonOutput {
				return printJSON(out, event)
			}
			line := fmt.Sprintf("%s  %-8s  %-10s", event.At.Format("15:04:05"), shortID(event.SubmissionID), event.Stage)
			if event.PageCount > 0 {
				line += fmt.Sprintf("  pages=%d", event.PageCount)
			}
			if event.Elapsed > 0 {
				line += fmt.Sprintf("  elapsed=%s", event.Elapsed.Round(time.Millisecond))
			}
			if event.Reason != "" {
				line += "  " + event.Reason
			}
			_, err := fmt.Fprintln(out, line)
			return err
		})
	},
}

func init() {
	watchCmd.Flags().BoolVar(&jsonOutput, "json", false, "print events as JSON")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
