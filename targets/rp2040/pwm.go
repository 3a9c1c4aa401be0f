//go:build rp2040

package main

import (
	"errors"
	"ham/core"
	"machine"
)

var (
	errPinNotOnSlice  = errors.New("pin is not an output of this PWM slice")
	errCounterMode    = errors.New("counter mode not supported by RP2040 slice")
	errUnitOutOfRange = errors.New("PWM slice out of range")
)

// pwmPeripheral is an interface for PWM hardware peripherals
// This abstracts over TinyGo's unexported *pwmGroup type
type pwmPeripheral interface {
	Configure(config machine.PWMConfig) error
	Channel(pin machine.Pin) (uint8, error)
	Top() uint32
	Set(channel uint8, value uint32)
	SetInverting(channel uint8, inverting bool)
}

// operator is one slice output routed to a pin
type operator struct {
	pin     machine.Pin
	channel uint8
	bound   bool
	forced  bool
}

// RP2040PWMDriver implements the PWMDriver interface for RP2040.
// A unit is one of the 8 PWM slices; operator A and B are its two
// channels. GPIO pin N belongs to slice (N>>1)&7, channel A when even.
type RP2040PWMDriver struct {
	ops [8][2]operator
}

// NewRP2040PWMDriver creates a new RP2040 PWM driver
func NewRP2040PWMDriver() *RP2040PWMDriver {
	return &RP2040PWMDriver{}
}

// BindPin routes a slice channel to its pin
func (d *RP2040PWMDriver) BindPin(unit core.PWMUnit, op core.PWMOperator, pin core.GPIOPin) error {
	if unit > 7 {
		return errUnitOutOfRange
	}
	if uint8((pin>>1)&0x7) != uint8(unit) || core.PWMOperator(pin&1) != op {
		return errPinNotOnSlice
	}

	o := &d.ops[unit][op&1]
	if o.bound && o.pin == machine.Pin(pin) {
		return nil
	}
	o.pin = machine.Pin(pin)
	o.pin.Configure(machine.PinConfig{Mode: machine.PinPWM})
	o.bound = true
	return nil
}

// Init sets the slice period and initial duties
func (d *RP2040PWMDriver) Init(unit core.PWMUnit, cfg core.PWMConfig) error {
	if unit > 7 {
		return errUnitOutOfRange
	}
	if cfg.FrequencyHz == 0 {
		return core.ErrInvalidFrequency
	}
	if cfg.DutyA > 100 || cfg.DutyB > 100 {
		return core.ErrInvalidDuty
	}
	// Slices count up, or up and down in phase-correct mode, which
	// TinyGo does not expose
	if cfg.Counter != core.CounterUp {
		return errCounterMode
	}

	for i := range d.ops[unit] {
		if !d.ops[unit][i].bound {
			return core.ErrPWMNotBound
		}
		if d.ops[unit][i].forced {
			return core.ErrDutyOverridden
		}
	}

	pwm := getPWMPeripheral(uint8(unit))
	if err := pwm.Configure(machine.PWMConfig{Period: 1e9 / uint64(cfg.FrequencyHz)}); err != nil {
		return err
	}

	for i := range d.ops[unit] {
		o := &d.ops[unit][i]
		ch, err := pwm.Channel(o.pin)
		if err != nil {
			return err
		}
		o.channel = ch
		pwm.SetInverting(ch, cfg.Duty == core.DutyActiveLow)
	}

	setPercent(pwm, d.ops[unit][core.OperatorA].channel, cfg.DutyA)
	setPercent(pwm, d.ops[unit][core.OperatorB].channel, cfg.DutyB)
	return nil
}

// SetDuty sets an operator's duty cycle in percent
func (d *RP2040PWMDriver) SetDuty(unit core.PWMUnit, op core.PWMOperator, percent uint8) error {
	if unit > 7 {
		return errUnitOutOfRange
	}
	if percent > 100 {
		return core.ErrInvalidDuty
	}
	o := &d.ops[unit][op&1]
	if !o.bound {
		return core.ErrPWMNotBound
	}
	if o.forced {
		return core.ErrDutyOverridden
	}
	setPercent(getPWMPeripheral(uint8(unit)), o.channel, percent)
	return nil
}

// SetSignalLevel takes the pin off the slice and drives it as a plain
// output at a constant level
func (d *RP2040PWMDriver) SetSignalLevel(unit core.PWMUnit, op core.PWMOperator, high bool) error {
	if unit > 7 {
		return errUnitOutOfRange
	}
	o := &d.ops[unit][op&1]
	if !o.bound {
		return core.ErrPWMNotBound
	}
	if !o.forced {
		o.pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
		o.forced = true
	}
	o.pin.Set(high)
	return nil
}

// SetDutyMode hands the pin back to the slice
func (d *RP2040PWMDriver) SetDutyMode(unit core.PWMUnit, op core.PWMOperator, mode core.DutyMode) error {
	if unit > 7 {
		return errUnitOutOfRange
	}
	o := &d.ops[unit][op&1]
	if !o.bound {
		return core.ErrPWMNotBound
	}
	if o.forced {
		o.pin.Configure(machine.PinConfig{Mode: machine.PinPWM})
		o.forced = false
	}
	getPWMPeripheral(uint8(unit)).SetInverting(o.channel, mode == core.DutyActiveLow)
	return nil
}

// setPercent scales a percentage to the slice's counter top
func setPercent(pwm pwmPeripheral, channel uint8, percent uint8) {
	pwm.Set(channel, uint32(uint64(pwm.Top())*uint64(percent)/100))
}

// getPWMPeripheral returns the PWM peripheral for a given slice number
// TinyGo defines PWM0-PWM7 as global variables of type *pwmGroup
func getPWMPeripheral(sliceNum uint8) pwmPeripheral {
	switch sliceNum {
	case 0:
		return machine.PWM0
	case 1:
		return machine.PWM1
	case 2:
		return machine.PWM2
	case 3:
		return machine.PWM3
	case 4:
		return machine.PWM4
	case 5:
		return machine.PWM5
	case 6:
		return machine.PWM6
	default:
		return machine.PWM7
	}
}
