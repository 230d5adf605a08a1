package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/noteshub/backend/core"
	logsvc "github.com/noteshub/backend/services/logger"
)

// NewRootCmd creates the root command for noteshub-ops.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "noteshub-ops",
		Short: "Operational helpers for the NotesHub API",
		Long: `noteshub-ops bundles the tools that run next to the NotesHub API:

- tunnel:    start a tunnel provider and point the frontend config at it
- keepalive: ping the API periodically so the hosting platform keeps it warm
- status:    check (or watch) the db-status endpoint`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(NewTunnelCmd())
	cmd.AddCommand(NewKeepAliveCmd())
	cmd.AddCommand(NewStatusCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(prefix string) core.Logger {
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, prefix+" : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
	)
	logger.Enable(!core.Conf.Debug)
	return logger
}
