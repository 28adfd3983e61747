package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/FluidXR/adbwifi/internal/poller"

	"github.com/spf13/cobra"
)

// tcpipSettle is how long adbd needs to come back up after `adb tcpip`.
const tcpipSettle = 2 * time.Second

var (
	connectUSB  string
	connectSave bool
)

var connectCmd = &cobra.Command{
	Use:   "connect [ip]",
	Short: "Connect to a device over WiFi",
	Long: `Connect to a device over WiFi, either by address (typically a saved
connection) or by promoting an attached USB device with --usb <serial>.

Example: adbwifi connect --usb 0123456789ABCDEF --save`,
	Args:              cobra.MaximumNArgs(1),
	PersistentPreRunE: requireDeps(),
	RunE: func(cmd *cobra.Command, args []string) error {
		if (len(args) == 0) == (connectUSB == "") {
			return fmt.Errorf("give either an address or --usb <serial>")
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()
		ctx := cmd.Context()

		var ip string
		if connectUSB != "" {
			fmt.Printf("Switching %s to TCP/IP on port %d...\n", connectUSB, a.cfg.TCPIPPort)
			ip, err = promoteUSB(ctx, a, connectUSB)
		} else {
			ip = args[0]
			err = connectIP(ctx, a, ip)
		}
		if err != nil {
			return err
		}
		fmt.Printf("Connected to %s\n", ip)

		if !connectSave {
			return nil
		}
		store := a.savedStore()
		defer store.Close()
		devices, _ := poller.New(a.adb, a.cfg.PollInterval, a.log).Poll(ctx)
		store.SetCurrent(devices)
		d, err := saveLive(store, ip)
		if err != nil {
			return err
		}
		fmt.Printf("Saved %s (%s)\n", d.RemoteIP, d.Label())
		return nil
	},
}

var disconnectCmd = &cobra.Command{
	Use:               "disconnect <ip>",
	Short:             "Drop a WiFi connection",
	Args:              cobra.ExactArgs(1),
	PersistentPreRunE: requireDeps(),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.adb.Disconnect(cmd.Context(), args[0], a.cfg.TCPIPPort); err != nil {
			return err
		}
		fmt.Printf("Disconnected from %s\n", args[0])
		return nil
	},
}

func connectIP(ctx context.Context, a *app, ip string) error {
	if err := a.adb.Connect(ctx, ip, a.cfg.TCPIPPort); err != nil {
		return err
	}
	a.log.Info().Str("ip", ip).Msg("connected")
	return nil
}

// promoteUSB restarts adbd on a USB device in TCP/IP mode and connects to
// its WiFi address.
func promoteUSB(ctx context.Context, a *app, serial string) (string, error) {
	ip := a.adb.DeviceIP(ctx, serial)
	if ip == "" {
		return "", fmt.Errorf("%s has no WiFi address; is it on the same network?", serial)
	}
	if err := a.adb.EnableTCPIP(ctx, serial, a.cfg.TCPIPPort); err != nil {
		return "", err
	}

	timer := time.NewTimer(tcpipSettle)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-timer.C:
	}

	if err := connectIP(ctx, a, ip); err != nil {
		return "", err
	}
	return ip, nil
}

func init() {
	connectCmd.Flags().StringVar(&connectUSB, "usb", "", "Serial of a USB device to switch to WiFi")
	connectCmd.Flags().BoolVar(&connectSave, "save", false, "Save the connection after connecting")
	rootCmd.AddCommand(connectCmd)
	rootCmd.AddCommand(disconnectCmd)
}
