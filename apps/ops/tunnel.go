package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/noteshub/backend/services/tunnel"
)

// NewTunnelCmd creates the tunnel command.
func NewTunnelCmd() *cobra.Command {
	var settingsPath string

	cmd := &cobra.Command{
		Use:   "tunnel",
		Short: "Expose the local API through a tunnel provider",
		Long: `Tunnel starts the configured provider (ngrok by default), waits for it
to print its public URL and rewrites the frontend config to point at it:

- the VITE_API_BASE_URL line of the env file
- the /api/** rewrite rule of firebase.json

It then stays in the foreground until interrupted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := tunnel.LoadSettings(settingsPath)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return tunnel.NewRunner(settings, newLogger("TUNNEL")).Run(ctx)
		},
	}

	cmd.Flags().StringVarP(&settingsPath, "settings", "s", ".tunnel.yaml", "Path to the tunnel settings file")
	return cmd
}
