package adb

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeADB writes a shell script standing in for the adb binary.
func fakeADB(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-in needs a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "adb")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
	return path
}

func TestClientDevices(t *testing.T) {
	path := fakeADB(t, `printf 'List of devices attached\nSERIAL1\tdevice\n'`)
	c := NewClient(path, time.Second, zerolog.Nop())

	out, err := c.Devices(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "List of devices attached\nSERIAL1\tdevice\n", out)
}

func TestClientNonZeroExit(t *testing.T) {
	path := fakeADB(t, "echo boom >&2\nexit 1\n")
	c := NewClient(path, time.Second, zerolog.Nop())

	_, err := c.Devices(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestClientTimeout(t *testing.T) {
	path := fakeADB(t, "exec sleep 5\n")
	c := NewClient(path, 100*time.Millisecond, zerolog.Nop())

	start := time.Now()
	_, err := c.Devices(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestClientMissingBinary(t *testing.T) {
	c := NewClient(filepath.Join(t.TempDir(), "no-such-adb"), time.Second, zerolog.Nop())

	_, err := c.Devices(context.Background())
	assert.Error(t, err)
	assert.Error(t, c.LookPath())
}

func TestClientQueries(t *testing.T) {
	path := fakeADB(t, `
case "$*" in
  *"ip route"*) echo "192.168.1.0/24 dev wlan0 proto kernel scope link src 192.168.1.42" ;;
  *get-serialno*) echo "R58M123" ;;
  *ro.product.manufacturer*) echo "samsung" ;;
  *ro.product.model*) echo "SM-G973F" ;;
  *) exit 1 ;;
esac
`)
	c := NewClient(path, time.Second, zerolog.Nop())
	ctx := context.Background()

	assert.Equal(t, "192.168.1.42", c.DeviceIP(ctx, "SERIAL1"))
	assert.Equal(t, "R58M123", c.SerialNo(ctx, "192.168.1.42:5555"))
	assert.Equal(t, "samsung SM-G973F", c.DeviceName(ctx, "SERIAL1"))
}

func TestClientConnect(t *testing.T) {
	ok := fakeADB(t, `echo "connected to $2"`)
	require.NoError(t, NewClient(ok, time.Second, zerolog.Nop()).Connect(context.Background(), "10.0.0.2", 5555))

	refused := fakeADB(t, `echo "failed to connect to '$2': Connection refused"`)
	err := NewClient(refused, time.Second, zerolog.Nop()).Connect(context.Background(), "10.0.0.2", 5555)
	assert.Error(t, err)
}

func TestAddress(t *testing.T) {
	assert.Equal(t, "10.0.0.2:5555", Address("10.0.0.2", 0))
	assert.Equal(t, "10.0.0.2:5556", Address("10.0.0.2", 5556))
}
