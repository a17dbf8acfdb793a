package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/infogrep/infogrep-cli/internal/gateway"
	"github.com/infogrep/infogrep-cli/internal/store"
)

// adminToken verifies the stored session belongs to an admin and
// returns its token.
func adminToken(ctx context.Context, st *store.Store) (string, error) {
	if err := st.Session.CheckIdentity(ctx); err != nil {
		return "", err
	}
	if !st.Session.IsAdmin() {
		return "", fmt.Errorf("admin privileges required")
	}
	return st.Session.Token(), nil
}

// --- models ---

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Manage the chat and embedding model catalog",
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the configured models",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, local, err := newStore()
		if err != nil {
			return err
		}
		defer local.Close()

		if err := st.Models.Fetch(cmd.Context()); err != nil {
			return err
		}

		catalog := st.Models.Catalog()
		fmt.Println(colorize(colorBold, "Chat models"))
		for _, m := range catalog.Chat {
			fmt.Printf("  %s/%s\n", m.Provider, m.Model)
		}
		fmt.Println(colorize(colorBold, "Embedding models"))
		for _, m := range catalog.Embedding {
			fmt.Printf("  %s/%s\n", m.Provider, m.Model)
		}
		return nil
	},
}

var modelsAddCmd = &cobra.Command{
	Use:   "add <kind> <provider>/<model>",
	Short: "Add a model (kind: chat or embedding)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, model, ok := strings.Cut(args[1], "/")
		if !ok {
			return fmt.Errorf("invalid model %q, want provider/model", args[1])
		}

		st, local, err := newStore()
		if err != nil {
			return err
		}
		defer local.Close()

		if err := st.Models.Add(cmd.Context(), model, provider, args[0]); err != nil {
			return err
		}

		printSuccess("Added %s model %s/%s", args[0], provider, model)
		return nil
	},
}

var modelsRmCmd = &cobra.Command{
	Use:   "rm <kind> <provider>/<model>",
	Short: "Remove a model from the catalog",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, model, ok := strings.Cut(args[1], "/")
		if !ok {
			return fmt.Errorf("invalid model %q, want provider/model", args[1])
		}

		st, local, err := newStore()
		if err != nil {
			return err
		}
		defer local.Close()

		if err := st.Models.Remove(cmd.Context(), model, provider, args[0]); err != nil {
			return err
		}

		printSuccess("Removed %s model %s/%s", args[0], provider, model)
		return nil
	},
}

var modelsProviderCmd = &cobra.Command{
	Use:   "provider <name>",
	Short: "Configure a provider (key=value settings via --set)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pairs, _ := cmd.Flags().GetStringArray("set")
		settings := make(map[string]string, len(pairs))
		for _, p := range pairs {
			k, v, ok := strings.Cut(p, "=")
			if !ok {
				return fmt.Errorf("invalid --set %q, want key=value", p)
			}
			settings[k] = v
		}

		st, local, err := newStore()
		if err != nil {
			return err
		}
		defer local.Close()

		if err := st.Models.SetProvider(cmd.Context(), args[0], settings); err != nil {
			return err
		}

		printSuccess("Provider %s configured", args[0])
		return nil
	},
}

// --- admin ---

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Administrative operations (admin account required)",
}

var adminUsersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage accounts",
}

var adminUsersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, gw, local, err := newApp()
		if err != nil {
			return err
		}
		defer local.Close()

		token, err := adminToken(cmd.Context(), st)
		if err != nil {
			return err
		}

		users, err := gw.Auth.ListUsers(cmd.Context(), token)
		if err != nil {
			return err
		}

		for _, u := range users {
			role := ""
			if u.IsAdmin {
				role = colorize(colorYellow, "  admin")
			}
			fmt.Printf("%s  %s%s\n", colorize(colorCyan, shortID(u.ID)), u.Name, role)
		}
		return nil
	},
}

var adminUsersCreateCmd = &cobra.Command{
	Use:   "create <username>",
	Short: "Create an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := readPassword(cmd)
		if err != nil {
			return err
		}

		st, gw, local, err := newApp()
		if err != nil {
			return err
		}
		defer local.Close()

		token, err := adminToken(cmd.Context(), st)
		if err != nil {
			return err
		}

		if err := gw.Auth.CreateUser(cmd.Context(), token, args[0], password); err != nil {
			return err
		}

		printSuccess("Created user %s", args[0])
		return nil
	},
}

var adminUsersPromoteCmd = &cobra.Command{
	Use:   "promote <user-id>",
	Short: "Grant admin to an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setUserAdmin(cmd, args[0], true)
	},
}

var adminUsersDemoteCmd = &cobra.Command{
	Use:   "demote <user-id>",
	Short: "Revoke admin from an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setUserAdmin(cmd, args[0], false)
	},
}

func setUserAdmin(cmd *cobra.Command, userID string, isAdmin bool) error {
	st, gw, local, err := newApp()
	if err != nil {
		return err
	}
	defer local.Close()

	token, err := adminToken(cmd.Context(), st)
	if err != nil {
		return err
	}

	if err := gw.Auth.SetUserAdmin(cmd.Context(), token, userID, isAdmin); err != nil {
		return err
	}

	if isAdmin {
		printSuccess("User %s is now an admin", userID)
	} else {
		printSuccess("User %s is no longer an admin", userID)
	}
	return nil
}

var adminUsersRmCmd = &cobra.Command{
	Use:   "rm <user-id>",
	Short: "Delete an account and its sessions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		confirm, _ := cmd.Flags().GetBool("confirm")
		if !confirm {
			printWarning("This deletes the account and ends its sessions. Use --confirm to proceed.")
			return nil
		}

		st, gw, local, err := newApp()
		if err != nil {
			return err
		}
		defer local.Close()

		token, err := adminToken(cmd.Context(), st)
		if err != nil {
			return err
		}

		if err := gw.Auth.DeleteUser(cmd.Context(), token, args[0]); err != nil {
			return err
		}

		printSuccess("Deleted user %s", args[0])
		return nil
	},
}

var adminSessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List active sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		st, gw, local, err := newApp()
		if err != nil {
			return err
		}
		defer local.Close()

		token, err := adminToken(cmd.Context(), st)
		if err != nil {
			return err
		}

		sessions, err := gw.Auth.ListSessions(cmd.Context(), token, limit)
		if err != nil {
			return err
		}

		for _, s := range sessions {
			fmt.Printf("%s  user %s  expires %s\n",
				colorize(colorCyan, shortID(s.Token)), shortID(s.UserID), s.ExpiresAt)
		}
		return nil
	},
}

var adminFilesCmd = &cobra.Command{
	Use:   "files",
	Short: "List every uploaded file across all users",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, gw, local, err := newApp()
		if err != nil {
			return err
		}
		defer local.Close()

		token, err := adminToken(cmd.Context(), st)
		if err != nil {
			return err
		}

		files, err := gw.File.ListAllFiles(cmd.Context(), token)
		if err != nil {
			return err
		}

		printAllFiles(files)
		return nil
	},
}

func printAllFiles(files []gateway.FileInfo) {
	if len(files) == 0 {
		fmt.Println("No files.")
		return
	}
	for _, f := range files {
		fmt.Printf("%s  %8d  %s\n", colorize(colorCyan, shortID(f.ID)), f.Size, f.Name)
	}
}

var adminFilesRmCmd = &cobra.Command{
	Use:   "rm <file-id>",
	Short: "Delete any user's file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, gw, local, err := newApp()
		if err != nil {
			return err
		}
		defer local.Close()

		token, err := adminToken(cmd.Context(), st)
		if err != nil {
			return err
		}

		if err := gw.File.AdminDeleteFile(cmd.Context(), token, args[0]); err != nil {
			return err
		}

		printSuccess("Deleted file %s", args[0])
		return nil
	},
}

func init() {
	modelsProviderCmd.Flags().StringArray("set", nil, "provider setting key=value (repeatable)")
	adminUsersCreateCmd.Flags().String("password", "", "password (prompted when omitted)")
	adminUsersRmCmd.Flags().Bool("confirm", false, "confirm deletion")
	adminSessionsCmd.Flags().Int("limit", 50, "maximum number of sessions to list")

	modelsCmd.AddCommand(modelsListCmd)
	modelsCmd.AddCommand(modelsAddCmd)
	modelsCmd.AddCommand(modelsRmCmd)
	modelsCmd.AddCommand(modelsProviderCmd)

	adminUsersCmd.AddCommand(adminUsersListCmd)
	adminUsersCmd.AddCommand(adminUsersCreateCmd)
	adminUsersCmd.AddCommand(adminUsersPromoteCmd)
	adminUsersCmd.AddCommand(adminUsersDemoteCmd)
	adminUsersCmd.AddCommand(adminUsersRmCmd)

	adminFilesCmd.AddCommand(adminFilesRmCmd)

	adminCmd.AddCommand(adminUsersCmd)
	adminCmd.AddCommand(adminSessionsCmd)
	adminCmd.AddCommand(adminFilesCmd)
}
