package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/infogrep/infogrep-cli/internal/store"
)

// --- chat ---

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with a room's documents",
}

var chatSendCmd = &cobra.Command{
	Use:   "send <room> <message>...",
	Short: "Send a message and print the assistant reply",
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
		if err := st.Chat.FetchForSelectedRoom(cmd.Context()); err != nil {
			return err
		}

		text := strings.Join(args[1:], " ")
		if err := st.Chat.Send(cmd.Context(), text); err != nil {
			for _, m := range st.Chat.FailedMessages() {
				printError("Message not delivered: %s", m.Text)
			}
			return err
		}

		messages := st.Chat.Messages()
		for i := len(messages) - 1; i >= 0; i-- {
			if messages[i].Incoming {
				fmt.Println(messages[i].Text)
				return nil
			}
		}
		printWarning("No reply yet")
		return nil
	},
}

var chatHistoryCmd = &cobra.Command{
	Use:   "history <room>",
	Short: "Show a room's message history",
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
		if err := st.Chat.FetchForSelectedRoom(cmd.Context()); err != nil {
			return err
		}

		chatModel, chatProvider, _, _ := st.Chat.ModelInfo()
		fmt.Printf("%s (%s/%s)\n\n", colorize(colorBold, args[0]), chatProvider, chatModel)

		messages := st.Chat.Messages()
		if len(messages) == 0 {
			fmt.Println("No messages yet.")
			return nil
		}

		for _, m := range messages {
			sender := colorize(colorCyan, m.Sender)
			if m.Incoming {
				sender = colorize(colorGreen, m.Sender)
			}
			suffix := ""
			switch m.State {
			case store.MessagePending:
				suffix = colorize(colorYellow, " [sending]")
			case store.MessageFailed:
				suffix = colorize(colorRed, " [failed]")
			}
			fmt.Printf("%s%s: %s\n", sender, suffix, m.Text)
		}
		return nil
	},
}

func init() {
	chatCmd.AddCommand(chatSendCmd)
	chatCmd.AddCommand(chatHistoryCmd)
}
