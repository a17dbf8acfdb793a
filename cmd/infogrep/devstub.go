package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/infogrep/infogrep-cli/internal/devstub"
)

// --- devstub ---

var devstubCmd = &cobra.Command{
	Use:   "devstub",
	Short: "Run a local stand-in for the InfoGrep backend services",
	Long: `Run a local stand-in for the InfoGrep backend services.

Serves the auth, chat, file, and AI APIs on one port with in-memory
state. Point the client at it with --dev:

  infogrep devstub &
  infogrep --dev register alice
  infogrep --dev room create notes`,
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetInt("port")
		return runDevstub(port)
	},
}

func runDevstub(port int) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stub := devstub.New()
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	srv := &http.Server{
		Addr:    addr,
		Handler: stub.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "devstub listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("devstub error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func init() {
	devstubCmd.Flags().Int("port", 4832, "port to listen on")
}
