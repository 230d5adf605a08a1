package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/noteshub/backend/core"
	"github.com/noteshub/backend/core/status"
	"github.com/noteshub/backend/services/metrics"
)

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	var endpoint string
	var interval time.Duration
	var watch bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check the db-status endpoint",
		Long: `Status fetches the db-status endpoint once and prints the result.

With --watch it keeps polling at the configured interval and prints a line
per poll, the way the frontend's indicator would refresh.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger("STATUS")

			if !watch {
				rep := status.NewPoller(endpoint, interval, logger).Check(cmd.Context())
				fmt.Fprintln(cmd.OutOrStdout(), status.Line(rep))
				if rep.Status == status.StateError {
					return fmt.Errorf("db-status: %s", rep.Message)
				}
				return nil
			}

			poller := status.NewPoller(endpoint, interval, logger, status.WithOnUpdate(func(rep status.Report) {
				metrics.DBStatusPolls.WithLabelValues(string(rep.Status)).Inc()
				fmt.Fprintln(cmd.OutOrStdout(), status.Line(rep))
			}))

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			poller.Start(ctx)
			defer poller.Stop()

			<-ctx.Done()
			return nil
		},
	}

	cmd.Flags().StringVar(&endpoint, "endpoint", core.Conf.Status.Endpoint, "db-status endpoint to poll")
	cmd.Flags().DurationVar(&interval, "interval", core.Conf.Status.Interval, "Time between polls")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Keep polling and print each result")
	return cmd
}
