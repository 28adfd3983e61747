package poller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/FluidXR/adbwifi/internal/adb"

	"github.com/rs/zerolog"
)

// DefaultInterval is the pause between two poll cycles.
const DefaultInterval = 3 * time.Second

// ErrAlreadyRunning is returned by Run when another Run loop is active.
var ErrAlreadyRunning = errors.New("poller already running")

// Source is the adb surface the poller needs.
type Source interface {
	adb.Querier
	Devices(ctx context.Context) (string, error)
}

// Poller repeatedly lists adb devices and publishes the parsed snapshot
// whenever the raw listing changes.
type Poller struct {
	source   Source
	interval time.Duration
	log      zerolog.Logger

	// baseline is only touched by Poll, which only the Run loop calls.
	baseline    string
	hasBaseline bool

	active  atomic.Bool
	running atomic.Bool
	closed  atomic.Bool
	wake    chan struct{}

	updates   chan []adb.Device
	closeOnce sync.Once
}

// New creates a poller over source. A non-positive interval selects
// DefaultInterval. The poller starts active.
func New(source Source, interval time.Duration, logger zerolog.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	p := &Poller{
		source:   source,
		interval: interval,
		log:      logger.With().Str("component", "poller").Logger(),
		wake:     make(chan struct{}, 1),
		updates:  make(chan []adb.Device, 1),
	}
	p.active.Store(true)
	return p
}

// Updates returns the snapshot queue. Only the newest undelivered snapshot
// is kept. The channel is closed when Run returns.
func (p *Poller) Updates() <-chan []adb.Device {
	return p.updates
}

// SetActive pauses or resumes polling. Resuming wakes a parked loop at once;
// it never starts a second loop.
func (p *Poller) SetActive(active bool) {
	was := p.active.Swap(active)
	if active && !was {
		select {
		case p.wake <- struct{}{}:
		default:
		}
	}
	p.log.Debug().Bool("active", active).Msg("poller activity changed")
}

// Active reports whether the poller is currently allowed to poll.
func (p *Poller) Active() bool {
	return p.active.Load()
}

// Running reports whether a Run loop is in progress.
func (p *Poller) Running() bool {
	return p.running.Load()
}

// Poll runs one cycle. It returns the new snapshot and true when the raw
// listing differed from the previous cycle, and publishes that snapshot.
// A failed listing counts as empty output. Poll must not be called
// concurrently with Run.
func (p *Poller) Poll(ctx context.Context) ([]adb.Device, bool) {
	output, err := p.source.Devices(ctx)
	if err != nil {
		p.log.Warn().Err(err).Msg("adb devices failed")
		output = ""
	}
	p.log.Debug().Str("output", output).Msg("adb devices")

	if p.hasBaseline && output == p.baseline {
		return nil, false
	}

	devices := adb.ParseDevices(ctx, output, p.source)
	p.publish(devices)
	p.baseline = output
	p.hasBaseline = true
	return devices, true
}

// Run polls until ctx is cancelled, waiting the configured interval after
// each cycle and parking while inactive. It closes the update queue and
// returns ctx's error on exit.
func (p *Poller) Run(ctx context.Context) error {
	if !p.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer p.running.Store(false)
	defer p.closeOnce.Do(p.closeUpdates)

	p.log.Debug().Dur("interval", p.interval).Msg("starting device poll loop")
	for {
		if !p.active.Load() {
			p.log.Debug().Msg("poller parked")
			select {
			case <-ctx.Done():
				return p.stopped(ctx)
			case <-p.wake:
				continue
			}
		}

		p.Poll(ctx)

		timer := time.NewTimer(p.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return p.stopped(ctx)
		case <-timer.C:
		}
	}
}

func (p *Poller) stopped(ctx context.Context) error {
	err := ctx.Err()
	if errors.Is(err, context.Canceled) {
		p.log.Debug().Msg("device poll loop stopped")
	} else {
		p.log.Error().Err(err).Msg("device poll loop interrupted")
	}
	return err
}

func (p *Poller) closeUpdates() {
	p.closed.Store(true)
	close(p.updates)
}

// publish hands devices to the consumer, replacing any snapshot it has not
// taken yet. Run is the only producer, so the second send cannot block.
func (p *Poller) publish(devices []adb.Device) {
	if p.closed.Load() {
		return
	}
	select {
	case p.updates <- devices:
		return
	default:
	}
	select {
	case <-p.updates:
	default:
	}
	p.updates <- devices
}
