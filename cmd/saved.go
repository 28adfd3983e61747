package cmd

import (
	"fmt"
	"os"

	"github.com/FluidXR/adbwifi/internal/adb"
	"github.com/FluidXR/adbwifi/internal/poller"
	"github.com/FluidXR/adbwifi/internal/saved"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var savedCmd = &cobra.Command{
	Use:   "saved",
	Short: "List saved WiFi connections",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		store := a.savedStore()
		defer store.Close()

		// Connection state needs a live listing; without adb just show the list.
		if a.adb.LookPath() == nil {
			devices, _ := poller.New(a.adb, a.cfg.PollInterval, a.log).Poll(cmd.Context())
			store.SetCurrent(devices)
		}
		printSaved(os.Stdout, store.List(), store)
		return nil
	},
}

var saveCmd = &cobra.Command{
	Use:               "save <ip>",
	Short:             "Save a live WiFi connection for quick reconnect",
	Args:              cobra.ExactArgs(1),
	PersistentPreRunE: requireDeps(),
	RunE: func(cmd *cobra.Command, args []string) error {
		ip := args[0]

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		store := a.savedStore()
		defer store.Close()

		devices, _ := poller.New(a.adb, a.cfg.PollInterval, a.log).Poll(cmd.Context())
		store.SetCurrent(devices)

		d, err := saveLive(store, ip)
		if err != nil {
			return err
		}
		fmt.Printf("Saved %s (%s)\n", d.RemoteIP, d.Label())
		return nil
	},
}

var forgetCmd = &cobra.Command{
	Use:     "forget <ip>",
	Aliases: []string{"delete"},
	Short:   "Remove a saved WiFi connection",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ip := args[0]

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		store := a.savedStore()
		defer store.Close()

		if !store.HasRemoteIPSaved(ip) {
			return fmt.Errorf("no saved connection for %s", ip)
		}
		store.Delete(adb.Device{RemoteIP: ip})
		fmt.Printf("Removed saved connection: %s\n", ip)
		return nil
	},
}

// saveLive saves the device in the store's current snapshot that has ip,
// preferring a wireless connection over a USB device reporting that address.
func saveLive(store *saved.Store, ip string) (adb.Device, error) {
	current := store.Current()
	d, ok := lo.Find(current, func(d adb.Device) bool {
		return d.Type == adb.Remote && d.RemoteIP == ip
	})
	if !ok {
		d, ok = lo.Find(current, func(d adb.Device) bool { return d.RemoteIP == ip })
	}
	if !ok {
		return adb.Device{}, fmt.Errorf("no attached device with address %s", ip)
	}
	if err := store.Save(d); err != nil {
		return adb.Device{}, err
	}
	return d, nil
}

func init() {
	rootCmd.AddCommand(savedCmd)
	rootCmd.AddCommand(saveCmd)
	rootCmd.AddCommand(forgetCmd)
}
