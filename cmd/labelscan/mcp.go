package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ironsheep/labelscan/internal/server"
)

func newMCPCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run as an MCP server over stdin/stdout",
		Long: `Run as an MCP (Model Context Protocol) server. Requests are read as
JSON-RPC lines on stdin and responses written to stdout; logs go to stderr.
Configure it in your MCP client (e.g., Claude Desktop).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			// stdout is for MCP protocol
			a, err := newApp(cfg, os.Stderr)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			go a.store.Run(ctx, 0)

			a.log.WithField("version", Version).Debug("MCP server starting")
			err = server.New(a.svc, a.log).Serve(ctx, os.Stdin, os.Stdout)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}
