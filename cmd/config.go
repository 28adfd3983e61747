package cmd

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/FluidXR/adbwifi/internal/config"
	"github.com/FluidXR/adbwifi/internal/prefs"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage adbwifi configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		cfg := a.cfg
		fmt.Printf("Config file: %s\n", config.ConfigPath())
		fmt.Printf("Preferences: %s [%s]\n\n", a.prefs.Path(), a.prefs.Node())
		fmt.Printf("Poll interval:   %s\n", cfg.PollInterval)
		fmt.Printf("Command timeout: %s\n", cfg.CommandTimeout)
		fmt.Printf("TCP/IP port:     %d\n", cfg.TCPIPPort)
		fmt.Printf("Log level:       %s\n", cfg.Log.Level)
		if f := cfg.LogFile(); f != "" {
			fmt.Printf("Log file:        %s\n", f)
		}

		fmt.Printf("\nADB location:    %s\n", a.adb.Path())
		if loc := a.prefs.Get(prefs.KeyJarLocation, ""); loc != "" {
			fmt.Printf("adbwifi binary:  %s\n", loc)
		}

		store := a.savedStore()
		defer store.Close()
		fmt.Printf("Saved connections: %d\n", len(store.List()))

		keys, err := a.prefs.Keys()
		if err != nil {
			return fmt.Errorf("list preferences: %w", err)
		}
		fmt.Printf("Stored keys:     %s\n", strings.Join(keys, ", "))
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.DefaultConfig()
		if err := config.Save(cfg); err != nil {
			return err
		}
		fmt.Printf("Config created at %s\n", config.ConfigPath())
		return nil
	},
}

var configSetADBCmd = &cobra.Command{
	Use:   "set-adb <path>",
	Short: "Set the adb executable to use",
	Long:  `Example: adbwifi config set-adb ~/Library/Android/sdk/platform-tools/adb`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if filepath.IsAbs(path) || filepath.Base(path) != path {
			abs, err := filepath.Abs(path)
			if err != nil {
				return fmt.Errorf("resolve %s: %w", path, err)
			}
			path = abs
		}
		if _, err := exec.LookPath(path); err != nil {
			return fmt.Errorf("%s is not an executable: %w", path, err)
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		a.prefs.Put(prefs.KeyADBLocation, path)
		if err := a.prefs.Flush(); err != nil {
			return fmt.Errorf("save adb location: %w", err)
		}
		fmt.Printf("ADB location set to %s\n", path)
		return nil
	},
}

var configResetADBCmd = &cobra.Command{
	Use:   "reset-adb",
	Short: "Use the adb found on PATH again",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		a.prefs.Remove(prefs.KeyADBLocation)
		if err := a.prefs.Flush(); err != nil {
			return fmt.Errorf("reset adb location: %w", err)
		}
		fmt.Println("ADB location reset to adb on PATH")
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSetADBCmd)
	configCmd.AddCommand(configResetADBCmd)
	rootCmd.AddCommand(configCmd)
}
