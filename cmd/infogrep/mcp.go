package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/infogrep/infogrep-cli/internal/mcpserver"
)

// --- mcp ---

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve InfoGrep tools over MCP (stdio transport)",
	Long: `Serve InfoGrep tools over MCP (stdio transport).

Exposes infogrep_ask, infogrep_rooms, and infogrep_files to MCP
clients. Requires a logged-in session (infogrep login).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, local, err := newStore()
		if err != nil {
			return err
		}
		defer local.Close()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := st.Session.CheckIdentity(ctx); err != nil {
			return err
		}

		mcpSrv := mcpserver.New(st, version)
		stdioSrv := server.NewStdioServer(mcpSrv)
		slog.Info("MCP server started (stdio transport)")
		if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}
