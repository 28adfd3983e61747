package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version of adbwifi.
const Version = "0.1.0"

var debugLogging bool

var rootCmd = &cobra.Command{
	Use:     "adbwifi",
	Short:   "Watch adb devices and keep saved WiFi connections",
	Version: Version,
	Long: `adbwifi polls adb for attached devices, promotes USB devices to
wireless (TCP/IP) connections, and remembers those connections so they can be
re-established with one command.`,
	SilenceUsage: true,
}

// requireDeps returns a PersistentPreRunE that checks the configured adb
// binary is installed.
func requireDeps() func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		return checkDeps()
	}
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugLogging, "debug", false, "Enable debug logging")
}
