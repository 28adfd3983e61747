package cmd

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/FluidXR/adbwifi/internal/config"
	"github.com/FluidXR/adbwifi/internal/prefs"
)

type dependency struct {
	name       string
	binary     string
	installCmd map[string]string // GOOS -> install command
}

var adbDependency = dependency{
	name:   "ADB (Android Debug Bridge)",
	binary: "adb",
	installCmd: map[string]string{
		"darwin":  "brew install android-platform-tools",
		"linux":   "sudo apt install android-tools-adb",
		"windows": "winget install Google.PlatformTools",
	},
}

// configuredADB returns the adb path stored in preferences.
func configuredADB() string {
	cfg, err := config.Load()
	if err != nil {
		return "adb"
	}
	p, err := prefs.Open(config.ConfigDir(), cfg.PrefsNode)
	if err != nil {
		return "adb"
	}
	defer p.Close()
	return p.Get(prefs.KeyADBLocation, "adb")
}

// checkDeps verifies that the configured adb binary is installed, offering
// to install platform tools when the default one is missing.
func checkDeps() error {
	path := configuredADB()
	if _, err := exec.LookPath(path); err == nil {
		return nil
	}
	if path != adbDependency.binary {
		return fmt.Errorf("adb not found at %s; fix it with 'adbwifi config set-adb <path>'", path)
	}

	dep := adbDependency
	fmt.Printf("adbwifi requires %s (%s), which is not installed.\n\n", dep.name, dep.binary)

	cmd, ok := dep.installCmd[runtime.GOOS]
	if !ok {
		return fmt.Errorf("please install %s manually and try again", dep.name)
	}

	fmt.Printf("Install %s with: %s\n", dep.name, cmd)
	fmt.Print("Run now? [Y/n] ")
	reader := bufio.NewReader(os.Stdin)
	answer, _ := reader.ReadString('\n')
	answer = strings.TrimSpace(strings.ToLower(answer))

	if answer != "" && answer != "y" && answer != "yes" {
		return fmt.Errorf("%s is required but not installed", dep.binary)
	}

	fmt.Printf("Running: %s\n", cmd)
	parts := strings.Fields(cmd)
	install := exec.Command(parts[0], parts[1:]...)
	install.Stdout = os.Stdout
	install.Stderr = os.Stderr
	install.Stdin = os.Stdin
	if err := install.Run(); err != nil {
		return fmt.Errorf("install %s: %w", dep.name, err)
	}

	if _, err := exec.LookPath(dep.binary); err != nil {
		return fmt.Errorf("%s is required but not installed", dep.binary)
	}
	fmt.Printf("%s installed successfully.\n\n", dep.name)
	return nil
}
