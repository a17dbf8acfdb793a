package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/infogrep/infogrep-cli/internal/store"
)

// --- file ---

var fileCmd = &cobra.Command{
	Use:   "file",
	Short: "Manage a chatroom's documents",
}

var fileUploadCmd = &cobra.Command{
	Use:   "upload <room> <path>...",
	Short: "Upload documents to a chatroom and start parsing",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, local, err := newStore()
		if err != nil {
			return err
		}
		defer local.Close()

		if err := selectRoom(cmd.Context(), st, args[0]); err != nil {
			return err
		}

		var failed int
		for _, path := range args[1:] {
			printStep("Uploading %s...", filepath.Base(path))
			if err := st.Files.Upload(cmd.Context(), path); err != nil {
				printError("%s: %v", filepath.Base(path), err)
				failed++
				continue
			}
			printSuccess("%s uploaded", filepath.Base(path))
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d uploads failed", failed, len(args)-1)
		}
		return nil
	},
}

var fileListCmd = &cobra.Command{
	Use:   "list <room>",
	Short: "List a chatroom's documents",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, local, err := newStore()
		if err != nil {
			return err
		}
		defer local.Close()

		if err := selectRoom(cmd.Context(), st, args[0]); err != nil {
			return err
		}
		if err := st.Files.FetchForSelectedRoom(cmd.Context()); err != nil {
			return err
		}

		files := st.Files.Files()
		if len(files) == 0 {
			fmt.Println("No files uploaded.")
		}
		for _, f := range files {
			fmt.Printf("%s  %8d  %s\n", colorize(colorCyan, shortID(f.ID)), f.Size, f.Name)
		}

		integrations := st.Files.Integrations()
		for _, in := range integrations {
			fmt.Printf("%s  %s (integration)\n", colorize(colorCyan, shortID(in.ID)), in.Type)
		}
		return nil
	},
}

var fileRmCmd = &cobra.Command{
	Use:   "rm <room> <file-id>",
	Short: "Delete a document from a chatroom",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, local, err := newStore()
		if err != nil {
			return err
		}
		defer local.Close()

		if err := selectRoom(cmd.Context(), st, args[0]); err != nil {
			return err
		}

		fileID, err := resolveFileID(cmd, st, args[1])
		if err != nil {
			return err
		}
		if err := st.Files.Delete(cmd.Context(), fileID); err != nil {
			return err
		}

		printSuccess("Deleted file %s", args[1])
		return nil
	},
}

var fileDownloadCmd = &cobra.Command{
	Use:   "download <room> <file-id> <dest>",
	Short: "Download a document",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, local, err := newStore()
		if err != nil {
			return err
		}
		defer local.Close()

		if err := selectRoom(cmd.Context(), st, args[0]); err != nil {
			return err
		}

		fileID, err := resolveFileID(cmd, st, args[1])
		if err != nil {
			return err
		}
		if err := st.Files.Download(cmd.Context(), fileID, args[2]); err != nil {
			return err
		}

		printSuccess("Saved to %s", args[2])
		return nil
	},
}

// resolveFileID accepts a full UUID, an unambiguous UUID prefix, or a
// file name.
func resolveFileID(cmd *cobra.Command, st *store.Store, arg string) (string, error) {
	if err := st.Files.FetchForSelectedRoom(cmd.Context()); err != nil {
		return "", err
	}

	var match string
	for _, f := range st.Files.Files() {
		if f.ID == arg {
			return f.ID, nil
		}
		if strings.HasPrefix(f.ID, arg) || f.Name == arg {
			if match != "" && match != f.ID {
				return "", fmt.Errorf("ambiguous file %q", arg)
			}
			match = f.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("unknown file %q", arg)
	}
	return match, nil
}

// --- integrations ---

var integrationCmd = &cobra.Command{
	Use:   "integration",
	Short: "Manage external document sources for a chatroom",
}

var integrationAddCmd = &cobra.Command{
	Use:   "add <room> <type>",
	Short: "Attach an external source (key=value config pairs via --set)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		pairs, _ := cmd.Flags().GetStringArray("set")
		cfg := make(map[string]string, len(pairs))
		for _, p := range pairs {
			k, v, ok := strings.Cut(p, "=")
			if !ok {
				return fmt.Errorf("invalid --set %q, want key=value", p)
			}
			cfg[k] = v
		}

		st, local, err := newStore()
		if err != nil {
			return err
		}
		defer local.Close()

		if err := selectRoom(cmd.Context(), st, args[0]); err != nil {
			return err
		}
		if err := st.Files.AddIntegration(cmd.Context(), args[1], cfg); err != nil {
			return err
		}

		printSuccess("Added %s integration", args[1])
		return nil
	},
}

var integrationRmCmd = &cobra.Command{
	Use:   "rm <room> <integration-id>",
	Short: "Detach an external source",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, local, err := newStore()
		if err != nil {
			return err
		}
		defer local.Close()

		if err := selectRoom(cmd.Context(), st, args[0]); err != nil {
			return err
		}
		if err := st.Files.DeleteIntegration(cmd.Context(), args[1]); err != nil {
			return err
		}

		printSuccess("Removed integration %s", args[1])
		return nil
	},
}

var integrationSyncCmd = &cobra.Command{
	Use:   "sync <room> <integration-id>",
	Short: "Re-sync an external source",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, local, err := newStore()
		if err != nil {
			return err
		}
		defer local.Close()

		if err := selectRoom(cmd.Context(), st, args[0]); err != nil {
			return err
		}
		if err := st.Files.SyncIntegration(cmd.Context(), args[1]); err != nil {
			return err
		}

		printSuccess("Sync started for %s", args[1])
		return nil
	},
}

func init() {
	integrationAddCmd.Flags().StringArray("set", nil, "config pair key=value (repeatable)")

	integrationCmd.AddCommand(integrationAddCmd)
	integrationCmd.AddCommand(integrationRmCmd)
	integrationCmd.AddCommand(integrationSyncCmd)

	fileCmd.AddCommand(fileUploadCmd)
	fileCmd.AddCommand(fileListCmd)
	fileCmd.AddCommand(fileRmCmd)
	fileCmd.AddCommand(fileDownloadCmd)
	fileCmd.AddCommand(integrationCmd)
}
