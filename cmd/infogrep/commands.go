package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/infogrep/infogrep-cli/internal/config"
)

// --- auth ---

var loginCmd = &cobra.Command{
	Use:   "login <username>",
	Short: "Log in to InfoGrep",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := readPassword(cmd)
		if err != nil {
			return err
		}

		st, local, err := newStore()
		if err != nil {
			return err
		}
		defer local.Close()

		if err := st.Session.Login(cmd.Context(), args[0], password); err != nil {
			return err
		}

		printSuccess("Logged in as %s", args[0])
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register <username>",
	Short: "Create an InfoGrep account and log in",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := readPassword(cmd)
		if err != nil {
			return err
		}

		st, local, err := newStore()
		if err != nil {
			return err
		}
		defer local.Close()

		if err := st.Session.Register(cmd.Context(), args[0], password); err != nil {
			return err
		}

		printSuccess("Registered and logged in as %s", args[0])
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the current session",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, local, err := newStore()
		if err != nil {
			return err
		}
		defer local.Close()

		if st.Session.Token() == "" {
			printWarning("Not logged in")
			return nil
		}

		st.Logout()
		printSuccess("Logged out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the identity behind the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, local, err := newStore()
		if err != nil {
			return err
		}
		defer local.Close()

		if err := st.Session.CheckIdentity(cmd.Context()); err != nil {
			return err
		}

		printStatus("Username", "%s", st.Session.Username())
		printStatus("User ID", "%s", st.Session.UserID())
		printStatus("Admin", "%t", st.Session.IsAdmin())
		return nil
	},
}

// readPassword takes the password from --password or prompts on stdin.
func readPassword(cmd *cobra.Command) (string, error) {
	password, _ := cmd.Flags().GetString("password")
	if password != "" {
		return password, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func init() {
	loginCmd.Flags().String("password", "", "password (prompted when omitted)")
	registerCmd.Flags().String("password", "", "password (prompted when omitted)")
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
