// Package actuator drives the linear actuators from Mode and Delta
// messages, with limit switch interlock and an open-loop soft-start ramp.
package actuator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ham/controller/config"
	"ham/controller/mode"
	"ham/core"
	"ham/protocol"
)

var (
	ErrUnrecognizedMode = errors.New("no slide length for mode")
	ErrInvalidChannel   = errors.New("actuator channel out of range")
	ErrInvalidUnit      = errors.New("actuator unit out of range")
)

// State is the per-channel drive state, derived each cycle from the delta
// sign and the limit reading. No position is persisted.
type State uint8

const (
	Idle State = iota
	Ramping
	StoppedAtLimit
)

func (s State) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case Ramping:
		return "RAMPING"
	case StoppedAtLimit:
		return "STOPPED_AT_LIMIT"
	default:
		return "UNKNOWN"
	}
}

// Unit is the hardware binding of one actuator unit. Operator A carries
// the phase (direction) signal, operator B the enable (speed) duty.
type Unit struct {
	PWM       core.PWMUnit
	PhasePin  core.GPIOPin
	EnablePin core.GPIOPin
	TopPin    core.GPIOPin
	BottomPin core.GPIOPin
}

// Driver is the ActuatorDriver task
type Driver struct {
	gpio  core.GPIODriver
	pwm   core.PWMDriver
	store *mode.Store
	codec protocol.DeltaCodec

	modeIn  *protocol.RingBuffer
	deltaIn *protocol.RingBuffer

	channels       int
	units          []Unit
	activeUnit     int
	receiveTimeout time.Duration
	carrierHz      uint32
	dutyMin        uint8
	dutyMax        uint8
	dutyStep       uint8
	stepHold       time.Duration
	assistLength   int
	holdLength     int

	// overridden marks operators left at a forced level, per unit
	overridden [][2]bool

	mu     sync.Mutex
	states []State

	// Delay suspends the task between ramp steps
	Delay core.DelayFunc
}

// NewDriver creates the ActuatorDriver task
func NewDriver(gpio core.GPIODriver, pwm core.PWMDriver, cfg *config.Config, store *mode.Store, modeIn, deltaIn *protocol.RingBuffer) (*Driver, error) {
	codec, err := protocol.NewDeltaCodec(cfg.Motion.DeltaFormat)
	if err != nil {
		return nil, err
	}

	a := cfg.Actuator
	units := make([]Unit, len(a.Units))
	for i, u := range a.Units {
		units[i] = Unit{
			PWM:       core.PWMUnit(u.PWMUnit),
			PhasePin:  core.GPIOPin(u.PhasePin),
			EnablePin: core.GPIOPin(u.EnablePin),
			TopPin:    core.GPIOPin(u.TopPin),
			BottomPin: core.GPIOPin(u.BottomPin),
		}
	}

	return &Driver{
		gpio:           gpio,
		pwm:            pwm,
		store:          store,
		codec:          codec,
		modeIn:         modeIn,
		deltaIn:        deltaIn,
		channels:       cfg.Channels,
		units:          units,
		activeUnit:     a.ActiveUnit,
		receiveTimeout: cfg.Queue.ReceiveTimeout(),
		carrierHz:      a.CarrierHz,
		dutyMin:        a.DutyMin,
		dutyMax:        a.DutyMax,
		dutyStep:       a.DutyStep,
		stepHold:       a.StepHold(),
		assistLength:   a.AssistLength,
		holdLength:     a.HoldLength,
		overridden:     make([][2]bool, len(units)),
		states:         make([]State, cfg.Channels),
		Delay:          core.Delay,
	}, nil
}

// SlideLength maps a mode to its travel length. RIGID and anything else
// has no length and yields ErrUnrecognizedMode.
func (d *Driver) SlideLength(m mode.Mode) (int, error) {
	switch m {
	case mode.Assist:
		return d.assistLength, nil
	case mode.Hold:
		return d.holdLength, nil
	default:
		return 0, fmt.Errorf("%w %s", ErrUnrecognizedMode, m)
	}
}

// State returns the last drive state of a channel
func (d *Driver) State(channel int) State {
	d.mu.Lock()
	defer d.mu.Unlock()
	if channel < 0 || channel >= len(d.states) {
		return Idle
	}
	return d.states[channel]
}

func (d *Driver) setState(channel int, s State) {
	d.mu.Lock()
	d.states[channel] = s
	d.mu.Unlock()
}

// Cycle receives one Mode and one Delta message and actuates every channel
// with a nonzero delta. A missing message skips actuation for this cycle.
// Per-channel failures are logged and joined into the returned error.
func (d *Driver) Cycle(ctx context.Context) error {
	modeOK := d.receiveMode(ctx)

	deltas, err := d.receiveDelta(ctx)
	if err != nil {
		return err
	}
	if !modeOK {
		return fmt.Errorf("mode: %w", protocol.ErrChannelEmpty)
	}

	current := d.store.Load()
	var errs []error
	for ch, delta := range deltas {
		if delta == 0 {
			d.setState(ch, Idle)
			continue
		}

		length, err := d.SlideLength(current)
		if err != nil {
			core.Log("drive", "ch", core.Itoa(ch), err.Error())
			core.RecordEvent(core.EvtModeError, uint8(ch), int32(current), 0)
			d.setState(ch, Idle)
			errs = append(errs, fmt.Errorf("channel %d: %w", ch, err))
			continue
		}
		if delta < 0 {
			length = -length
		}

		if _, err := d.DriveSingle(ctx, ch, length, d.activeUnit); err != nil {
			core.Log("drive", "ch", core.Itoa(ch), "failed:", err.Error())
			errs = append(errs, fmt.Errorf("channel %d: %w", ch, err))
			if ctx.Err() != nil {
				break
			}
		}
	}
	return errors.Join(errs...)
}

// receiveMode takes one Mode message and applies it to the store. It
// reports whether a valid message arrived.
func (d *Driver) receiveMode(ctx context.Context) bool {
	item, err := d.modeIn.ReceiveContext(ctx, d.receiveTimeout)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		core.Log("drive", "receive mode:", err.Error())
		core.RecordEvent(core.EvtReceiveEmpty, 0, 0, 0)
		return false
	}
	data := append([]byte(nil), item.Data...)
	d.modeIn.Release(item)

	name, err := protocol.DecodeModeName(data)
	if err != nil {
		core.Log("drive", "mode message:", err.Error())
		return false
	}
	m, err := mode.Parse(name)
	if err != nil {
		core.Log("drive", "mode message", name+":", err.Error())
		return false
	}
	d.store.Apply(m)
	return true
}

// receiveDelta takes one Delta message and decodes it
func (d *Driver) receiveDelta(ctx context.Context) ([]int32, error) {
	item, err := d.deltaIn.ReceiveContext(ctx, d.receiveTimeout)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		core.Log("drive", "receive delta:", err.Error())
		core.RecordEvent(core.EvtReceiveEmpty, 1, 0, 0)
		return nil, fmt.Errorf("delta: %w", err)
	}
	data := append([]byte(nil), item.Data...)
	d.deltaIn.Release(item)

	deltas, err := d.codec.Decode(data, d.channels)
	if err != nil {
		core.Log("drive", "delta message:", err.Error())
		return nil, err
	}
	return deltas, nil
}

// DriveSingle commands one actuator channel on a unit. The sign of length
// selects the direction; positive travels toward the top limit.
//
// The ramp raises the enable duty from dutyMin to dutyMax one step per
// stepHold. Before every step the limit in the direction of travel is
// re-read and ctx is checked; either one ends the ramp with a hard stop.
func (d *Driver) DriveSingle(ctx context.Context, channel, length, unit int) (State, error) {
	if channel < 0 || channel >= d.channels {
		return Idle, ErrInvalidChannel
	}
	if unit < 0 || unit >= len(d.units) {
		return Idle, ErrInvalidUnit
	}
	u := d.units[unit]

	if err := d.prepare(unit); err != nil {
		d.setState(channel, Idle)
		return Idle, err
	}

	limits := ReadLimits(d.gpio, u)
	if !Permitted(length, limits) {
		core.Log("drive", "ch", core.Itoa(channel), "limit reached, stop; length", core.Itoa(length))
		core.RecordEvent(core.EvtLimitStop, uint8(channel), int32(length), int32(limits))
		return d.hardStop(channel, unit)
	}

	// Phase selects direction
	if err := d.force(unit, core.OperatorA, length > 0); err != nil {
		d.setState(channel, Idle)
		return Idle, err
	}

	d.setState(channel, Ramping)
	core.RecordEvent(core.EvtDrive, uint8(channel), int32(length), int32(unit))

	for duty := int(d.dutyMin); duty <= int(d.dutyMax); duty += int(d.dutyStep) {
		if err := ctx.Err(); err != nil {
			d.hardStop(channel, unit)
			d.setState(channel, Idle)
			return Idle, err
		}
		if duty > int(d.dutyMin) {
			limits = ReadLimits(d.gpio, u)
			if !Permitted(length, limits) {
				core.Log("drive", "ch", core.Itoa(channel), "limit tripped at duty", core.Itoa(duty))
				core.RecordEvent(core.EvtLimitStop, uint8(channel), int32(length), int32(limits))
				return d.hardStop(channel, unit)
			}
		}
		if err := d.pwm.SetDuty(u.PWM, core.OperatorB, uint8(duty)); err != nil {
			d.hardStop(channel, unit)
			d.setState(channel, Idle)
			return Idle, err
		}
		if err := d.Delay(ctx, d.stepHold); err != nil {
			d.hardStop(channel, unit)
			d.setState(channel, Idle)
			return Idle, err
		}
	}

	return Ramping, nil
}

// prepare restores operators left at a forced level by the previous
// command, binds the unit's pins and initialises its carrier
func (d *Driver) prepare(unit int) error {
	u := d.units[unit]

	for op := core.OperatorA; op <= core.OperatorB; op++ {
		if !d.overridden[unit][op] {
			continue
		}
		if err := d.pwm.SetDutyMode(u.PWM, op, core.DutyActiveHigh); err != nil {
			return err
		}
		d.overridden[unit][op] = false
	}

	if err := d.pwm.BindPin(u.PWM, core.OperatorA, u.PhasePin); err != nil {
		return err
	}
	if err := d.pwm.BindPin(u.PWM, core.OperatorB, u.EnablePin); err != nil {
		return err
	}

	return d.pwm.Init(u.PWM, core.PWMConfig{
		FrequencyHz: d.carrierHz,
		DutyA:       0,
		DutyB:       d.dutyMin,
		Counter:     core.CounterUp,
		Duty:        core.DutyActiveHigh,
	})
}

// force drives an operator to a constant level and remembers to restore it
func (d *Driver) force(unit int, op core.PWMOperator, high bool) error {
	if err := d.pwm.SetSignalLevel(d.units[unit].PWM, op, high); err != nil {
		return err
	}
	d.overridden[unit][op] = true
	return nil
}

// hardStop forces the enable output low
func (d *Driver) hardStop(channel, unit int) (State, error) {
	if err := d.force(unit, core.OperatorB, false); err != nil {
		d.setState(channel, Idle)
		return Idle, err
	}
	d.setState(channel, StoppedAtLimit)
	return StoppedAtLimit, nil
}

// Run cycles until ctx is cancelled
func (d *Driver) Run(ctx context.Context) {
	for ctx.Err() == nil {
		d.Cycle(ctx)
	}
}
