// Command infogrep is the terminal client for InfoGrep: login, chatroom
// management, document-grounded chat, file handling, and an MCP bridge,
// all over the five backend services.
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/infogrep/infogrep-cli/internal/config"
	"github.com/infogrep/infogrep-cli/internal/gateway"
	"github.com/infogrep/infogrep-cli/internal/localdata"
	"github.com/infogrep/infogrep-cli/internal/store"
)

var version = "dev"

var (
	noColor bool
	devMode bool
)

var rootCmd = &cobra.Command{
	Use:           "infogrep",
	Short:         "InfoGrep terminal client",
	Long:          "infogrep lets you chat with your documents from the terminal.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		logLevel := slog.LevelWarn
		if strings.EqualFold(cfg.Log.Level, "debug") {
			logLevel = slog.LevelDebug
		} else if strings.EqualFold(cfg.Log.Level, "info") {
			logLevel = slog.LevelInfo
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the infogrep version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("infogrep version %s\n", version)
	},
}

// newStore wires config, local storage, and the four service gateways
// into a store. The caller owns closing the returned local store.
func newStore() (*store.Store, *localdata.Store, error) {
	st, _, local, err := newApp()
	return st, local, err
}

// newApp additionally hands back the raw gateways for the admin
// commands, which call service endpoints the store does not wrap.
func newApp() (*store.Store, store.Gateways, *localdata.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, store.Gateways{}, nil, err
	}

	services := cfg.Services
	if devMode {
		services = config.DevServices()
	}

	local, err := localdata.Open(cfg.Storage.DataDir)
	if err != nil {
		return nil, store.Gateways{}, nil, fmt.Errorf("opening local storage: %w", err)
	}

	httpClient := &http.Client{Timeout: 60 * time.Second}
	gw := store.Gateways{
		Auth: gateway.NewAuthClient(services.AuthURL, httpClient),
		Chat: gateway.NewChatClient(services.ChatURL, httpClient),
		File: gateway.NewFileClient(services.FileURL, httpClient),
		AI:   gateway.NewAIClient(services.AIURL, httpClient),
	}
	st, err := store.New(gw, local)
	if err != nil {
		local.Close()
		return nil, store.Gateways{}, nil, err
	}
	return st, gw, local, nil
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&devMode, "dev", false, "talk to a local devstub instead of the production services")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(roomCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(fileCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(adminCmd)
	rootCmd.AddCommand(prefsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(devstubCmd)
	rootCmd.AddCommand(mcpCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
