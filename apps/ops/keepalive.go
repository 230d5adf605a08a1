package main

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/noteshub/backend/core"
	"github.com/noteshub/backend/services/keepalive"
)

// NewKeepAliveCmd creates the keepalive command.
func NewKeepAliveCmd() *cobra.Command {
	var baseURL string
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "keepalive",
		Short: "Ping the API periodically so the hosting platform keeps it warm",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			pinger := keepalive.NewPinger(baseURL, interval, newLogger("KEEPALIVE"))
			pinger.Start(ctx)
			defer pinger.Stop()

			<-ctx.Done()
			return nil
		},
	}

	cmd.Flags().StringVar(&baseURL, "base-url", core.Conf.KeepAlive.BaseURL, "Base URL of the API to ping")
	cmd.Flags().DurationVar(&interval, "interval", core.Conf.KeepAlive.Interval, "Time between pings")
	return cmd
}
