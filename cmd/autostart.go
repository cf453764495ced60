package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"keylatch/internal/autostart"
)

var autostartCmd = &cobra.Command{
	Use:       "autostart [enable|disable|status]",
	Short:     "Manage starting keylatch on login",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"enable", "disable", "status"},
	RunE: func(_ *cobra.Command, args []string) error {
		action := "status"
		if len(args) == 1 {
			action = args[0]
		}

		switch action {
		case "enable":
			if err := autostart.Enable(); err != nil {
				return fmt.Errorf("enable autostart: %w", err)
			}
		case "disable":
			if err := autostart.Disable(); err != nil {
				return fmt.Errorf("disable autostart: %w", err)
			}
		}

		if autostart.IsEnabled() {
			fmt.Println("autostart: enabled")
		} else {
			fmt.Println("autostart: disabled")
		}
		return nil
	},
}
