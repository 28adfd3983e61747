package adb

import (
	"bufio"
	"context"
	"net/netip"
	"regexp"
	"strings"
)

// Querier answers the per-device questions the listing itself does not.
// Each method returns "" when the device cannot tell.
type Querier interface {
	DeviceIP(ctx context.Context, target string) string
	SerialNo(ctx context.Context, target string) string
	DeviceName(ctx context.Context, target string) string
}

var dottedQuad = regexp.MustCompile(`\d{1,3}(?:\.\d{1,3}){3}`)

// ExtractIPv4 returns the first valid IPv4 address found in text, or "".
func ExtractIPv4(text string) string {
	for _, m := range dottedQuad.FindAllString(text, -1) {
		addr, err := netip.ParseAddr(m)
		if err == nil && addr.Is4() {
			return addr.String()
		}
	}
	return ""
}

// ParseDevices parses `adb devices` output into devices, one per device line,
// in listing order. Remote and USB entries are completed through q.
func ParseDevices(ctx context.Context, output string, q Querier) []Device {
	var devices []Device
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()
		if isNoiseLine(line) {
			continue
		}
		devices = append(devices, parseDeviceLine(ctx, line, q))
	}
	return devices
}

// isNoiseLine reports header, daemon start-up notices and blank lines.
func isNoiseLine(line string) bool {
	return strings.Contains(line, "List") ||
		strings.Contains(line, "daemon") ||
		strings.TrimSpace(line) == ""
}

func parseDeviceLine(ctx context.Context, line string, q Querier) Device {
	if strings.Contains(line, "offline") {
		return Device{
			Name:  strings.TrimSpace(strings.ReplaceAll(line, "offline", "")),
			Type:  Offline,
			State: "offline",
		}
	}

	fields := strings.Fields(line)
	d := Device{target: fields[0]}
	if len(fields) > 1 {
		d.State = fields[len(fields)-1]
	}

	if ip := ExtractIPv4(line); ip != "" {
		d.Type = Remote
		d.RemoteIP = ip
		d.SerialID = q.SerialNo(ctx, d.target)
	} else {
		d.Type = USB
		d.SerialID = fields[0]
		d.RemoteIP = q.DeviceIP(ctx, d.target)
	}
	d.Name = q.DeviceName(ctx, d.target)
	return d
}
