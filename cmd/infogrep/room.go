package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/infogrep/infogrep-cli/internal/store"
)

// selectRoom fetches the room listing and selects the room matching the
// given UUID or name.
func selectRoom(ctx context.Context, st *store.Store, arg string) error {
	if err := st.Rooms.FetchAll(ctx); err != nil {
		return err
	}
	if _, ok := st.Rooms.Room(arg); ok {
		st.Rooms.Select(arg)
		return nil
	}
	for id, room := range st.Rooms.Rooms() {
		if room.Name == arg {
			st.Rooms.Select(id)
			return nil
		}
	}
	return fmt.Errorf("unknown room %q", arg)
}

// --- room ---

var roomCmd = &cobra.Command{
	Use:   "room",
	Short: "Manage chatrooms",
}

var roomListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your chatrooms",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, local, err := newStore()
		if err != nil {
			return err
		}
		defer local.Close()

		if err := st.Rooms.FetchAll(cmd.Context()); err != nil {
			return err
		}

		rooms := st.Rooms.Rooms()
		if len(rooms) == 0 {
			fmt.Println("No chatrooms. Create one with: infogrep room create <name>")
			return nil
		}

		ids := make([]string, 0, len(rooms))
		for id := range rooms {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return rooms[ids[i]].Name < rooms[ids[j]].Name })

		for _, id := range ids {
			r := rooms[id]
			fmt.Printf("%s  %s  %s\n",
				colorize(colorCyan, shortID(id)),
				colorize(colorBold, r.Name),
				fmt.Sprintf("%s/%s", r.ChatProvider, r.ChatModel),
			)
		}
		return nil
	},
}

var roomCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a chatroom",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		chatModel, _ := cmd.Flags().GetString("chat-model")
		chatProvider, _ := cmd.Flags().GetString("chat-provider")
		embedModel, _ := cmd.Flags().GetString("embed-model")
		embedProvider, _ := cmd.Flags().GetString("embed-provider")

		st, local, err := newStore()
		if err != nil {
			return err
		}
		defer local.Close()

		// Fall back to the first configured model pair when none given.
		if chatModel == "" || embedModel == "" {
			if err := st.Models.Fetch(cmd.Context()); err != nil {
				return err
			}
			catalog := st.Models.Catalog()
			if chatModel == "" && len(catalog.Chat) > 0 {
				chatModel = catalog.Chat[0].Model
				chatProvider = catalog.Chat[0].Provider
			}
			if embedModel == "" && len(catalog.Embedding) > 0 {
				embedModel = catalog.Embedding[0].Model
				embedProvider = catalog.Embedding[0].Provider
			}
		}

		if err := st.Rooms.Create(cmd.Context(), args[0], chatModel, chatProvider, embedModel, embedProvider); err != nil {
			return err
		}

		printSuccess("Created chatroom %s", args[0])
		return nil
	},
}

var roomRenameCmd = &cobra.Command{
	Use:   "rename <room> <new-name>",
	Short: "Rename a chatroom",
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
		if err := st.Rooms.Rename(cmd.Context(), st.Rooms.SelectedID(), args[1]); err != nil {
			return err
		}

		printSuccess("Renamed to %s", args[1])
		return nil
	},
}

var roomRmCmd = &cobra.Command{
	Use:   "rm <room>",
	Short: "Delete a chatroom and its files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		confirm, _ := cmd.Flags().GetBool("confirm")
		if !confirm {
			printWarning("This deletes the chatroom and every file in it. Use --confirm to proceed.")
			return nil
		}

		st, local, err := newStore()
		if err != nil {
			return err
		}
		defer local.Close()

		if err := selectRoom(cmd.Context(), st, args[0]); err != nil {
			return err
		}
		if err := st.Rooms.Delete(cmd.Context(), st.Rooms.SelectedID()); err != nil {
			return err
		}

		printSuccess("Deleted chatroom %s", args[0])
		return nil
	},
}

func init() {
	roomCreateCmd.Flags().String("chat-model", "", "chat model (default: first configured)")
	roomCreateCmd.Flags().String("chat-provider", "", "chat model provider")
	roomCreateCmd.Flags().String("embed-model", "", "embedding model (default: first configured)")
	roomCreateCmd.Flags().String("embed-provider", "", "embedding model provider")
	roomRmCmd.Flags().Bool("confirm", false, "confirm deletion")

	roomCmd.AddCommand(roomListCmd)
	roomCmd.AddCommand(roomCreateCmd)
	roomCmd.AddCommand(roomRenameCmd)
	roomCmd.AddCommand(roomRmCmd)
}
