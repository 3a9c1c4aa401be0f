// Package mode tracks the operating mode selected by the mode switch.
//
// Two tasks sample the same switch: Sensor publishes ASSIST or HOLD over the
// Mode channel every ~400ms, and RigidOverride forces RIGID directly into the
// Store when the switch stays closed across a one second window. The Store is
// the single owner of the current value.
package mode

import (
	"errors"
	"sync/atomic"
)

// Mode is the operating mode of the mechanism
type Mode uint32

const (
	Rigid  Mode = iota // Actuators held; the power-on mode
	Assist             // Full slide length
	Hold               // Half slide length
)

var ErrUnknownMode = errors.New("unknown mode")

// String returns the wire name of the mode
func (m Mode) String() string {
	switch m {
	case Rigid:
		return "RIGID"
	case Assist:
		return "ASSIST"
	case Hold:
		return "HOLD"
	default:
		return "UNKNOWN"
	}
}

// Parse maps a wire name back to a Mode
func Parse(name string) (Mode, error) {
	switch name {
	case "RIGID":
		return Rigid, nil
	case "ASSIST":
		return Assist, nil
	case "HOLD":
		return Hold, nil
	default:
		return Rigid, ErrUnknownMode
	}
}

// Classify derives the mode from two switch samples: exactly one closed
// sample selects ASSIST, zero or two select HOLD.
func Classify(first, second bool) Mode {
	if first != second {
		return Assist
	}
	return Hold
}

// Store owns the current mode. Loads and stores are atomic.
//
// A forced RIGID takes priority over the regular channel path: the first
// Apply after ForceRigid is discarded, so the override is observed for at
// least one driver cycle.
type Store struct {
	value   atomic.Uint32
	pending atomic.Bool
}

// NewStore returns a store holding RIGID
func NewStore() *Store {
	return &Store{}
}

// Load returns the current mode
func (s *Store) Load() Mode {
	return Mode(s.value.Load())
}

// Apply stores a mode received from the Mode channel. It returns false when
// the value was discarded in favour of a pending override.
func (s *Store) Apply(m Mode) bool {
	if s.pending.CompareAndSwap(true, false) {
		return false
	}
	s.value.Store(uint32(m))
	return true
}

// ForceRigid sets RIGID, bypassing the channel. It cannot fail.
func (s *Store) ForceRigid() {
	s.value.Store(uint32(Rigid))
	s.pending.Store(true)
}

// OverridePending reports whether a forced RIGID has not yet been observed
// by Apply
func (s *Store) OverridePending() bool {
	return s.pending.Load()
}
