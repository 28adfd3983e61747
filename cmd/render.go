package cmd

import (
	"fmt"
	"io"

	"github.com/FluidXR/adbwifi/internal/adb"
	"github.com/FluidXR/adbwifi/internal/saved"
)

const (
	welcomeNew = `Welcome to adbwifi!

Plug in an Android device by USB cable, make sure it is on the same WiFi as
your computer, then run 'connect --usb <serial>' to open a wireless
connection. Run 'save <ip>' on the wireless connection to remember it, and
next time simply 'connect <ip>'.`

	welcomeBack = `Welcome back!

Run 'connect <ip>' on a saved connection to reconnect, or plug in a new
device by USB to make a new wireless connection.`
)

func printWelcome(w io.Writer, savedCount int) {
	if savedCount == 0 {
		fmt.Fprintln(w, welcomeNew)
	} else {
		fmt.Fprintln(w, welcomeBack)
	}
	fmt.Fprintln(w)
}

// printDevices writes the live device list, annotated with saved state.
func printDevices(w io.Writer, devices []adb.Device, store *saved.Store) {
	fmt.Fprintf(w, "Devices (%d):\n", len(devices))
	if len(devices) == 0 {
		fmt.Fprintln(w, "  (none attached)")
		return
	}
	for _, d := range devices {
		fmt.Fprintf(w, "  %-8s %-24s", d.Type, d.Label())
		switch d.Type {
		case adb.Remote:
			fmt.Fprintf(w, " %-15s", d.RemoteIP)
			if store.HasRemoteIPSaved(d.RemoteIP) {
				fmt.Fprint(w, " [saved]")
			} else {
				fmt.Fprintf(w, " (save with: save %s)", d.RemoteIP)
			}
		case adb.USB:
			fmt.Fprintf(w, " %-15s", d.Target())
			switch {
			case d.RemoteIP == "":
				fmt.Fprint(w, " (no WiFi address)")
			case store.IsCurrentlyConnected(d.RemoteIP):
				fmt.Fprintf(w, " [wifi: %s]", d.RemoteIP)
			default:
				fmt.Fprintf(w, " (connect with: connect --usb %s)", d.Target())
			}
			if !d.IsOnline() && d.State != "" {
				fmt.Fprintf(w, " [%s]", d.State)
			}
		case adb.Offline:
			fmt.Fprint(w, " [OFFLINE]")
		}
		fmt.Fprintln(w)
	}
}

// printSaved writes the saved connection list with live connection state.
func printSaved(w io.Writer, list []adb.Device, store *saved.Store) {
	fmt.Fprintf(w, "Saved connections (%d):\n", len(list))
	if len(list) == 0 {
		fmt.Fprintln(w, "  (none saved)")
		return
	}
	for _, d := range list {
		state := "not connected"
		if store.IsCurrentlyConnected(d.RemoteIP) {
			state = "connected"
		}
		fmt.Fprintf(w, "  %-15s %-24s %-16s [%s]\n", d.RemoteIP, d.Name, d.SerialID, state)
	}
}
