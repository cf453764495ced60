// keylatch captures, suppresses and latches global keyboard input while a
// chat overlay is open.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Build information set via ldflags
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "keylatch",
	Short: "Global keyboard capture and key latching for a chat overlay",
	Long: `keylatch observes every key press system-wide, withholds keys from the game
while the chat overlay is capturing, and keeps movement keys held so the
character keeps walking while you type.`,
	SilenceUsage: true,
	RunE:         runCmd.RunE,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("keylatch %s\n", version)
		fmt.Printf("commit: %s\n", commit)
		fmt.Printf("built: %s\n", buildDate)
	},
}

func init() {
	rootCmd.AddCommand(runCmd, monitorCmd, keysCmd, autostartCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
