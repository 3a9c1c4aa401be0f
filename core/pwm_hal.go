package core

import "errors"

// PWMUnit identifies one PWM timer unit (an RP2040 slice, an ESP32 MCPWM unit)
type PWMUnit uint8

// PWMOperator selects one of the two outputs of a unit
type PWMOperator uint8

const (
	OperatorA PWMOperator = 0 // Phase output of an actuator unit
	OperatorB PWMOperator = 1 // Enable output of an actuator unit
)

// CounterMode is the timer counting direction
type CounterMode uint8

const (
	CounterUp CounterMode = iota
	CounterDown
	CounterUpDown
)

// DutyMode selects how a duty value maps to the output level
type DutyMode uint8

const (
	DutyActiveHigh DutyMode = iota // Output high for duty% of the period
	DutyActiveLow                  // Output low for duty% of the period
)

// PWMConfig is the carrier setup applied by PWMDriver.Init
type PWMConfig struct {
	FrequencyHz uint32
	DutyA       uint8 // Initial duty of operator A in percent
	DutyB       uint8 // Initial duty of operator B in percent
	Counter     CounterMode
	Duty        DutyMode
}

var (
	ErrPWMNotBound      = errors.New("pwm operator not bound to a pin")
	ErrDutyOverridden   = errors.New("pwm operator forced to constant level; restore duty mode first")
	ErrInvalidDuty      = errors.New("pwm duty out of range")
	ErrInvalidFrequency = errors.New("pwm frequency out of range")
)

// PWMDriver is the abstract PWM interface that core code uses.
// Platform-specific implementations handle actual hardware control.
//
// Forcing an operator to a constant level with SetSignalLevel takes it out
// of duty-cycle control. SetDuty on that operator fails with
// ErrDutyOverridden until SetDutyMode restores it.
type PWMDriver interface {
	// BindPin routes an operator of a unit to a GPIO pin
	BindPin(unit PWMUnit, op PWMOperator, pin GPIOPin) error

	// Init configures the unit's carrier and initial duties
	Init(unit PWMUnit, cfg PWMConfig) error

	// SetDuty sets an operator's duty cycle in percent (0-100)
	SetDuty(unit PWMUnit, op PWMOperator, percent uint8) error

	// SetSignalLevel forces an operator to a constant high or low level
	SetSignalLevel(unit PWMUnit, op PWMOperator, high bool) error

	// SetDutyMode returns an operator to duty-cycle control
	SetDutyMode(unit PWMUnit, op PWMOperator, mode DutyMode) error
}

// Global singleton used by target code.
var pwmDriver PWMDriver

// SetPWMDriver is called by target-specific code to register its driver.
func SetPWMDriver(d PWMDriver) {
	pwmDriver = d
}

// MustPWM returns the configured driver or panics if missing.
func MustPWM() PWMDriver {
	if pwmDriver == nil {
		panic("PWM driver not configured")
	}
	return pwmDriver
}
