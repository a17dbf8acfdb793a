package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// --- prefs ---

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Show or update display preferences",
}

var prefsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current preferences",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, local, err := newStore()
		if err != nil {
			return err
		}
		defer local.Close()

		printStatus("Font size", "%d", st.Prefs.FontSize())
		printStatus("Dark mode", "%t", st.Prefs.DarkMode())
		return nil
	},
}

var prefsFontSizeCmd = &cobra.Command{
	Use:   "font-size <points>",
	Short: "Set the font size",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		size, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid font size %q", args[0])
		}

		st, local, err := newStore()
		if err != nil {
			return err
		}
		defer local.Close()

		if err := st.Prefs.SetFontSize(size); err != nil {
			return err
		}

		printSuccess("Font size set to %d", st.Prefs.FontSize())
		return nil
	},
}

var prefsDarkModeCmd = &cobra.Command{
	Use:   "dark-mode <on|off>",
	Short: "Toggle dark mode",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var enabled bool
		switch args[0] {
		case "on", "true":
			enabled = true
		case "off", "false":
			enabled = false
		default:
			return fmt.Errorf("invalid value %q, want on or off", args[0])
		}

		st, local, err := newStore()
		if err != nil {
			return err
		}
		defer local.Close()

		if err := st.Prefs.SetDarkMode(enabled); err != nil {
			return err
		}

		printSuccess("Dark mode %s", args[0])
		return nil
	},
}

func init() {
	prefsCmd.AddCommand(prefsShowCmd)
	prefsCmd.AddCommand(prefsFontSizeCmd)
	prefsCmd.AddCommand(prefsDarkModeCmd)
}
