package adb

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultTimeout bounds every adb invocation unless the caller configures one.
const DefaultTimeout = 5 * time.Second

// Client wraps ADB command-line calls.
type Client struct {
	path    string
	timeout time.Duration
	log     zerolog.Logger
}

// NewClient creates a new ADB client for the adb binary at path.
func NewClient(path string, timeout time.Duration, logger zerolog.Logger) *Client {
	if path == "" {
		path = "adb"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		path:    path,
		timeout: timeout,
		log:     logger.With().Str("component", "adb").Logger(),
	}
}

// Path returns the adb executable the client invokes.
func (c *Client) Path() string {
	return c.path
}

// LookPath checks that the configured adb binary can be resolved.
func (c *Client) LookPath() error {
	if _, err := exec.LookPath(c.path); err != nil {
		return fmt.Errorf("adb not found at %q: %w", c.path, err)
	}
	return nil
}

// run executes adb with args and returns its stdout. Expiry of the client
// timeout kills the process and is reported as an error.
func (c *Client) run(ctx context.Context, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	c.log.Debug().Strs("args", args).Msg("run adb")

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.path, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("adb %s: timed out after %s", strings.Join(args, " "), c.timeout)
		}
		return "", fmt.Errorf("adb %s: %w\n%s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return string(out), nil
}

// Devices returns the raw `adb devices` listing.
func (c *Client) Devices(ctx context.Context) (string, error) {
	return c.run(ctx, "devices")
}

// DeviceIP returns the WiFi address of the device addressed by target, or
// "" if it has none yet.
func (c *Client) DeviceIP(ctx context.Context, target string) string {
	out, err := c.run(ctx, "-s", target, "shell", "ip", "route")
	if err != nil {
		c.log.Debug().Err(err).Str("target", target).Msg("ip route failed")
	} else if ip := parseRouteSource(out); ip != "" {
		return ip
	}

	out, err = c.run(ctx, "-s", target, "shell", "ip", "addr", "show", "wlan0")
	if err != nil {
		c.log.Debug().Err(err).Str("target", target).Msg("ip addr failed")
		return ""
	}
	return parseInetAddr(out)
}

// SerialNo returns the hardware serial of the device addressed by target.
func (c *Client) SerialNo(ctx context.Context, target string) string {
	out, err := c.run(ctx, "-s", target, "get-serialno")
	if err != nil {
		c.log.Debug().Err(err).Str("target", target).Msg("get-serialno failed")
		return ""
	}
	serial := strings.TrimSpace(out)
	if serial == "unknown" {
		return ""
	}
	return serial
}

// DeviceName returns "<manufacturer> <model>" for the device addressed by target.
func (c *Client) DeviceName(ctx context.Context, target string) string {
	var parts []string
	for _, prop := range []string{"ro.product.manufacturer", "ro.product.model"} {
		out, err := c.run(ctx, "-s", target, "shell", "getprop", prop)
		if err != nil {
			c.log.Debug().Err(err).Str("target", target).Str("prop", prop).Msg("getprop failed")
			continue
		}
		if v := strings.TrimSpace(out); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

// EnableTCPIP restarts adbd on a USB device listening on port.
func (c *Client) EnableTCPIP(ctx context.Context, serial string, port int) error {
	out, err := c.run(ctx, "-s", serial, "tcpip", strconv.Itoa(port))
	if err != nil {
		return err
	}
	if !strings.Contains(strings.ToLower(out), "restarting") {
		return fmt.Errorf("adb tcpip %d: %s", port, strings.TrimSpace(out))
	}
	return nil
}

// Connect connects to a wireless ADB device.
func (c *Client) Connect(ctx context.Context, ip string, port int) error {
	addr := Address(ip, port)
	out, err := c.run(ctx, "connect", addr)
	if err != nil {
		return err
	}
	// adb exits 0 on "failed to connect", so the text decides.
	lower := strings.ToLower(out)
	if strings.Contains(lower, "connected to") && !strings.Contains(lower, "failed") {
		return nil
	}
	return fmt.Errorf("adb connect %s: %s", addr, strings.TrimSpace(out))
}

// Disconnect drops a wireless ADB connection.
func (c *Client) Disconnect(ctx context.Context, ip string, port int) error {
	addr := Address(ip, port)
	out, err := c.run(ctx, "disconnect", addr)
	if err != nil {
		return err
	}
	if strings.Contains(strings.ToLower(out), "error") {
		return fmt.Errorf("adb disconnect %s: %s", addr, strings.TrimSpace(out))
	}
	return nil
}

// Address joins ip and port the way adb names wireless devices.
func Address(ip string, port int) string {
	if port <= 0 {
		port = DefaultPort
	}
	return fmt.Sprintf("%s:%d", ip, port)
}

// parseRouteSource finds the "src" address in `ip route` output.
func parseRouteSource(output string) string {
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		for i, f := range fields {
			if f == "src" && i+1 < len(fields) {
				if ip := ExtractIPv4(fields[i+1]); ip != "" {
					return ip
				}
			}
		}
	}
	return ""
}

// parseInetAddr finds the first "inet a.b.c.d/nn" in `ip addr` output.
func parseInetAddr(output string) string {
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) >= 2 && fields[0] == "inet" {
			return ExtractIPv4(strings.SplitN(fields[1], "/", 2)[0])
		}
	}
	return ""
}
