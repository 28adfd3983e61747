// Package saved keeps the list of WiFi connections the user chose to
// remember, mirrored to the preferences store.
package saved

import (
	"errors"
	"fmt"

	"github.com/FluidXR/adbwifi/internal/actor"
	"github.com/FluidXR/adbwifi/internal/adb"
	"github.com/FluidXR/adbwifi/internal/prefs"

	json "github.com/bytedance/sonic"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// ErrNoRemoteIP is returned when saving a device that has no WiFi address.
var ErrNoRemoteIP = errors.New("device has no remote IP")

// Backend is the preferences surface the store persists through.
type Backend interface {
	Get(key, def string) string
	Put(key, value string)
	Flush() error
}

// Store holds saved connections, most recently saved first, unique by
// remote IP. All state is owned by one actor goroutine.
type Store struct {
	backend Backend
	log     zerolog.Logger
	act     *actor.Actor

	saved    []adb.Device
	current  []adb.Device
	onChange func([]adb.Device)
}

// NewStore loads the saved list from backend. A missing or unreadable blob
// yields an empty list.
func NewStore(backend Backend, logger zerolog.Logger) *Store {
	s := &Store{
		backend: backend,
		log:     logger.With().Str("component", "saved").Logger(),
		act:     actor.New(),
	}
	s.act.Run(s.load)
	return s
}

// Close stops the store. Later calls are no-ops returning zero values.
func (s *Store) Close() {
	s.act.Stop()
}

// OnChange registers fn to receive the saved list after every mutation.
// fn runs on the store's goroutine and must not call back into the store.
func (s *Store) OnChange(fn func([]adb.Device)) {
	s.act.Run(func() { s.onChange = fn })
}

// Save remembers d as a saved connection, replacing any entry with the same
// remote IP and moving it to the front.
func (s *Store) Save(d adb.Device) error {
	if d.RemoteIP == "" {
		return fmt.Errorf("save %s: %w", d.Label(), ErrNoRemoteIP)
	}
	s.act.Run(func() {
		rest := lo.Reject(s.saved, func(e adb.Device, _ int) bool {
			return e.RemoteIP == d.RemoteIP
		})
		s.saved = append([]adb.Device{d.Saved()}, rest...)
		s.changed()
	})
	return nil
}

// Delete forgets the first saved connection with d's remote IP. It does
// nothing if there is none.
func (s *Store) Delete(d adb.Device) {
	s.act.Run(func() {
		_, i, ok := lo.FindIndexOf(s.saved, func(e adb.Device) bool {
			return e.RemoteIP == d.RemoteIP
		})
		if !ok {
			return
		}
		s.saved = append(s.saved[:i:i], s.saved[i+1:]...)
		s.changed()
	})
}

// HasRemoteIPSaved reports whether a saved connection has ip.
func (s *Store) HasRemoteIPSaved(ip string) bool {
	var found bool
	s.act.Run(func() {
		found = lo.ContainsBy(s.saved, func(e adb.Device) bool { return e.RemoteIP == ip })
	})
	return found
}

// IsCurrentlyConnected reports whether the latest device snapshot holds a
// remote connection to ip.
func (s *Store) IsCurrentlyConnected(ip string) bool {
	var found bool
	s.act.Run(func() {
		found = lo.ContainsBy(s.current, func(e adb.Device) bool {
			return e.Type == adb.Remote && e.RemoteIP == ip
		})
	})
	return found
}

// SetCurrent replaces the live device snapshot without waiting. Later calls
// observe it.
func (s *Store) SetCurrent(devices []adb.Device) {
	snap := append([]adb.Device(nil), devices...)
	s.act.Post(func() { s.current = snap })
}

// Current returns a copy of the live device snapshot.
func (s *Store) Current() []adb.Device {
	var out []adb.Device
	s.act.Run(func() { out = append(out, s.current...) })
	return out
}

// List returns a copy of the saved connections.
func (s *Store) List() []adb.Device {
	var out []adb.Device
	s.act.Run(func() { out = append(out, s.saved...) })
	return out
}

// changed persists the list and notifies the listener. Runs on the actor.
func (s *Store) changed() {
	s.persist()
	if s.onChange != nil {
		s.onChange(append([]adb.Device(nil), s.saved...))
	}
}

func (s *Store) persist() {
	blob, err := Encode(s.saved)
	if err != nil {
		s.log.Error().Err(err).Msg("encode saved connections")
		return
	}
	s.backend.Put(prefs.KeySavedConnections, blob)
	if err := s.backend.Flush(); err != nil {
		s.log.Error().Err(err).Int("count", len(s.saved)).Msg("flush saved connections")
	}
}

func (s *Store) load() {
	blob := s.backend.Get(prefs.KeySavedConnections, "")
	if blob == "" {
		return
	}
	devices, err := Decode(blob)
	if err != nil {
		s.log.Warn().Err(err).Msg("ignoring unreadable saved connections")
		return
	}
	s.saved = devices
	s.log.Debug().Int("count", len(devices)).Msg("loaded saved connections")
}

// Encode serializes saved connections for the preferences store.
func Encode(devices []adb.Device) (string, error) {
	if devices == nil {
		devices = []adb.Device{}
	}
	data, err := json.Marshal(devices)
	if err != nil {
		return "", fmt.Errorf("marshal saved connections: %w", err)
	}
	return string(data), nil
}

// Decode parses a blob written by Encode. Entries without a remote IP are
// dropped and every entry is typed SAVED_REMOTE.
func Decode(blob string) ([]adb.Device, error) {
	var devices []adb.Device
	if err := json.UnmarshalString(blob, &devices); err != nil {
		return nil, fmt.Errorf("parse saved connections: %w", err)
	}
	devices = lo.FilterMap(devices, func(d adb.Device, _ int) (adb.Device, bool) {
		return d.Saved(), d.RemoteIP != ""
	})
	return devices, nil
}
