package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/FluidXR/adbwifi/internal/adb"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedSource returns listings in order, repeating the last one.
type scriptedSource struct {
	mu      sync.Mutex
	outputs []string
	errs    []error
	calls   int
	queried int
}

func (s *scriptedSource) Devices(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	if i >= len(s.outputs) {
		i = len(s.outputs) - 1
	}
	s.calls++
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	return s.outputs[i], err
}

func (s *scriptedSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *scriptedSource) DeviceIP(context.Context, string) string {
	s.queried++
	return ""
}

func (s *scriptedSource) SerialNo(context.Context, string) string {
	s.queried++
	return "SERIAL"
}

func (s *scriptedSource) DeviceName(context.Context, string) string {
	s.queried++
	return "Pixel"
}

const oneRemote = "List of devices attached\n192.168.1.5:5555\tdevice\n"

func TestPollSkipsIdenticalOutput(t *testing.T) {
	src := &scriptedSource{outputs: []string{oneRemote, oneRemote}}
	p := New(src, time.Second, zerolog.Nop())
	ctx := context.Background()

	devices, changed := p.Poll(ctx)
	require.True(t, changed)
	require.Len(t, devices, 1)
	assert.Equal(t, adb.Remote, devices[0].Type)
	assert.Equal(t, "192.168.1.5", devices[0].RemoteIP)
	<-p.Updates()

	queried := src.queried
	_, changed = p.Poll(ctx)
	assert.False(t, changed)
	assert.Equal(t, queried, src.queried, "unchanged output must not be parsed")
	select {
	case snap := <-p.Updates():
		t.Fatalf("unexpected snapshot %v", snap)
	default:
	}
}

func TestPollPublishesChange(t *testing.T) {
	src := &scriptedSource{outputs: []string{oneRemote, "List of devices attached\n\n"}}
	p := New(src, time.Second, zerolog.Nop())
	ctx := context.Background()

	p.Poll(ctx)
	_, changed := p.Poll(ctx)
	require.True(t, changed)

	// Only the latest snapshot is queued.
	snap := <-p.Updates()
	assert.Empty(t, snap)
	select {
	case <-p.Updates():
		t.Fatal("stale snapshot left in queue")
	default:
	}
}

func TestPollTreatsFailureAsEmptyOutput(t *testing.T) {
	src := &scriptedSource{
		outputs: []string{oneRemote, "partial", "partial"},
		errs:    []error{nil, errors.New("exit status 1"), errors.New("exit status 1")},
	}
	p := New(src, time.Second, zerolog.Nop())
	ctx := context.Background()

	p.Poll(ctx)
	devices, changed := p.Poll(ctx)
	assert.True(t, changed)
	assert.Empty(t, devices)

	_, changed = p.Poll(ctx)
	assert.False(t, changed, "repeated failure is the same empty output")
}

func TestRunPublishesAndStops(t *testing.T) {
	src := &scriptedSource{outputs: []string{oneRemote}}
	p := New(src, 10*time.Millisecond, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	select {
	case snap := <-p.Updates():
		require.Len(t, snap, 1)
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot published")
	}

	require.Eventually(t, func() bool { return src.Calls() >= 3 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}

	_, ok := <-p.Updates()
	assert.False(t, ok, "updates must be closed after Run returns")
	assert.False(t, p.Running())
}

func TestRunRejectsSecondLoop(t *testing.T) {
	src := &scriptedSource{outputs: []string{oneRemote}}
	p := New(src, 10*time.Millisecond, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go p.Run(ctx)
	require.Eventually(t, p.Running, time.Second, time.Millisecond)

	assert.ErrorIs(t, p.Run(ctx), ErrAlreadyRunning)
}

func TestSetActivePausesAndResumes(t *testing.T) {
	src := &scriptedSource{outputs: []string{oneRemote}}
	p := New(src, 10*time.Millisecond, zerolog.Nop())
	p.SetActive(false)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)
	require.Eventually(t, p.Running, time.Second, time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, src.Calls(), "inactive poller must not poll")

	p.SetActive(true)
	require.Eventually(t, func() bool { return src.Calls() >= 2 }, 2*time.Second, 5*time.Millisecond)

	p.SetActive(false)
	time.Sleep(30 * time.Millisecond)
	parked := src.Calls()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, parked, src.Calls(), "paused poller kept polling")

	// Rapid toggles must not produce a second loop.
	p.SetActive(true)
	p.SetActive(false)
	p.SetActive(true)
	assert.ErrorIs(t, p.Run(ctx), ErrAlreadyRunning)
}

func TestRunDeadlineReturnsError(t *testing.T) {
	src := &scriptedSource{outputs: []string{oneRemote}}
	p := New(src, time.Hour, zerolog.Nop())
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := p.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewDefaultsInterval(t *testing.T) {
	p := New(&scriptedSource{outputs: []string{""}}, 0, zerolog.Nop())
	assert.Equal(t, DefaultInterval, p.interval)
	assert.True(t, p.Active())
}
