package sim

import (
	"sync"

	"ham/core"
)

// operatorState is one simulated PWM output
type operatorState struct {
	pin     core.GPIOPin
	bound   bool
	duty    uint8
	forced  bool
	level   bool
	history []uint8
}

// unitState is one simulated PWM timer unit
type unitState struct {
	cfg   core.PWMConfig
	inits int
	ops   [2]operatorState
}

// PWM is a simulated PWMDriver. It enforces the peripheral contract that
// an operator forced to a constant level accepts no duty writes, and the
// unit cannot be re-initialised, until SetDutyMode restores it.
type PWM struct {
	mu    sync.Mutex
	units map[core.PWMUnit]*unitState
}

// NewPWM creates a simulated PWM block
func NewPWM() *PWM {
	return &PWM{units: make(map[core.PWMUnit]*unitState)}
}

func (p *PWM) unit(u core.PWMUnit) *unitState {
	us, ok := p.units[u]
	if !ok {
		us = &unitState{}
		p.units[u] = us
	}
	return us
}

func (p *PWM) BindPin(unit core.PWMUnit, op core.PWMOperator, pin core.GPIOPin) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	o := &p.unit(unit).ops[op&1]
	o.pin = pin
	o.bound = true
	return nil
}

func (p *PWM) Init(unit core.PWMUnit, cfg core.PWMConfig) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if cfg.FrequencyHz == 0 {
		return core.ErrInvalidFrequency
	}
	if cfg.DutyA > 100 || cfg.DutyB > 100 {
		return core.ErrInvalidDuty
	}
	us := p.unit(unit)
	for i := range us.ops {
		if !us.ops[i].bound {
			return core.ErrPWMNotBound
		}
		if us.ops[i].forced {
			return core.ErrDutyOverridden
		}
	}
	us.cfg = cfg
	us.inits++
	us.ops[core.OperatorA].duty = cfg.DutyA
	us.ops[core.OperatorB].duty = cfg.DutyB
	return nil
}

func (p *PWM) SetDuty(unit core.PWMUnit, op core.PWMOperator, percent uint8) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if percent > 100 {
		return core.ErrInvalidDuty
	}
	o := &p.unit(unit).ops[op&1]
	if !o.bound {
		return core.ErrPWMNotBound
	}
	if o.forced {
		return core.ErrDutyOverridden
	}
	o.duty = percent
	o.history = append(o.history, percent)
	return nil
}

func (p *PWM) SetSignalLevel(unit core.PWMUnit, op core.PWMOperator, high bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	o := &p.unit(unit).ops[op&1]
	if !o.bound {
		return core.ErrPWMNotBound
	}
	o.forced = true
	o.level = high
	return nil
}

func (p *PWM) SetDutyMode(unit core.PWMUnit, op core.PWMOperator, mode core.DutyMode) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	us := p.unit(unit)
	o := &us.ops[op&1]
	if !o.bound {
		return core.ErrPWMNotBound
	}
	o.forced = false
	us.cfg.Duty = mode
	return nil
}

// OperatorState is a snapshot of one simulated output
type OperatorState struct {
	Pin    core.GPIOPin
	Bound  bool
	Duty   uint8
	Forced bool
	Level  bool // Meaningful only while Forced
}

// Operator returns the state of one output
func (p *PWM) Operator(unit core.PWMUnit, op core.PWMOperator) OperatorState {
	p.mu.Lock()
	defer p.mu.Unlock()
	o := p.unit(unit).ops[op&1]
	return OperatorState{Pin: o.pin, Bound: o.bound, Duty: o.duty, Forced: o.forced, Level: o.level}
}

// Config returns the last carrier configuration applied to a unit and how
// many times Init succeeded
func (p *PWM) Config(unit core.PWMUnit) (core.PWMConfig, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	us := p.unit(unit)
	return us.cfg, us.inits
}

// DutyHistory returns every duty written with SetDuty since the last reset
func (p *PWM) DutyHistory(unit core.PWMUnit, op core.PWMOperator) []uint8 {
	p.mu.Lock()
	defer p.mu.Unlock()
	h := p.unit(unit).ops[op&1].history
	return append([]uint8(nil), h...)
}

// ResetHistory clears the recorded duty writes of every unit
func (p *PWM) ResetHistory() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, us := range p.units {
		for i := range us.ops {
			us.ops[i].history = nil
		}
	}
}
