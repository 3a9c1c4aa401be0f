package mode

import (
	"context"
	"time"

	"ham/controller/config"
	"ham/core"
)

// RigidOverride forces RIGID when the mode switch reads closed on two
// samples one interval apart. It is the only path into RIGID.
type RigidOverride struct {
	gpio       core.GPIODriver
	pin        core.GPIOPin
	closedHigh bool
	interval   time.Duration
	store      *Store

	Delay core.DelayFunc
}

// NewRigidOverride creates the RigidOverride task
func NewRigidOverride(gpio core.GPIODriver, cfg *config.Config, store *Store) *RigidOverride {
	return &RigidOverride{
		gpio:       gpio,
		pin:        core.GPIOPin(cfg.Mode.SwitchPin),
		closedHigh: cfg.Mode.ClosedHigh(),
		interval:   cfg.Mode.RigidSampleInterval(),
		store:      store,
		Delay:      core.Delay,
	}
}

// Cycle reads, waits, reads again and reports whether RIGID was forced.
// Otherwise, or when ctx is cancelled during the wait, the store is left
// untouched.
func (r *RigidOverride) Cycle(ctx context.Context) bool {
	first := switchClosed(r.gpio, r.pin, r.closedHigh)
	if err := r.Delay(ctx, r.interval); err != nil {
		return false
	}
	second := switchClosed(r.gpio, r.pin, r.closedHigh)

	if !(first && second) {
		return false
	}
	if r.store.Load() != Rigid {
		core.Log("rigid", "switch held closed, forcing RIGID")
	}
	r.store.ForceRigid()
	core.RecordEvent(core.EvtRigid, 0, 0, 0)
	return true
}

// Run cycles until ctx is cancelled
func (r *RigidOverride) Run(ctx context.Context) {
	for ctx.Err() == nil {
		r.Cycle(ctx)
	}
}
