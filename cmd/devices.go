package cmd

import (
	"os"

	"github.com/FluidXR/adbwifi/internal/poller"

	"github.com/spf13/cobra"
)

var devicesCmd = &cobra.Command{
	Use:               "devices",
	Short:             "List attached devices and their WiFi status",
	PersistentPreRunE: requireDeps(),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		store := a.savedStore()
		defer store.Close()

		devices, _ := poller.New(a.adb, a.cfg.PollInterval, a.log).Poll(cmd.Context())
		store.SetCurrent(devices)
		printDevices(os.Stdout, devices, store)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}
