package config

import (
	"fmt"

	"ham/protocol"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	// ------------------------------------------------------------
	// CHANNELS / QUEUES
	// ------------------------------------------------------------

	if cfg.Channels < 1 || cfg.Channels > 64 {
		return fmt.Errorf("channels must be in 1..64, got %d", cfg.Channels)
	}

	if cfg.Queue.SendTimeoutMs < 0 || cfg.Queue.ReceiveTimeoutMs < 0 {
		return fmt.Errorf("queue timeouts must not be negative")
	}

	// ------------------------------------------------------------
	// MODE SWITCH
	// ------------------------------------------------------------

	switch cfg.Mode.ClosedLevel {
	case "low", "high":
	default:
		return fmt.Errorf("mode.closed_level must be \"low\" or \"high\", got %q", cfg.Mode.ClosedLevel)
	}
	if cfg.Mode.SampleIntervalMs < 0 || cfg.Mode.RigidSampleIntervalMs < 0 {
		return fmt.Errorf("mode sample intervals must not be negative")
	}

	// ------------------------------------------------------------
	// MOTION
	// ------------------------------------------------------------

	switch cfg.Motion.DeltaFormat {
	case "text", "record":
	default:
		return fmt.Errorf("motion.delta_format must be \"text\" or \"record\", got %q", cfg.Motion.DeltaFormat)
	}
	codec, err := protocol.NewDeltaCodec(cfg.Motion.DeltaFormat)
	if err != nil {
		return err
	}
	if need := protocol.ItemCost(protocol.ModeMessageSize); cfg.Queue.Capacity < need {
		return fmt.Errorf("queue.capacity %d cannot hold a mode message (%d bytes)", cfg.Queue.Capacity, need)
	}
	if need := protocol.ItemCost(codec.MaxSize(cfg.Channels)); cfg.Queue.Capacity < need {
		return fmt.Errorf(
			"queue.capacity %d cannot hold a %s delta for %d channels (%d bytes)",
			cfg.Queue.Capacity,
			cfg.Motion.DeltaFormat,
			cfg.Channels,
			need,
		)
	}
	if len(cfg.Motion.Encoders) != cfg.Channels {
		return fmt.Errorf(
			"motion.encoders: %d pin pairs for %d channels",
			len(cfg.Motion.Encoders),
			cfg.Channels,
		)
	}
	for i, e := range cfg.Motion.Encoders {
		if e.A == e.B {
			return fmt.Errorf("motion.encoders[%d]: a and b share pin %d", i, e.A)
		}
	}

	// ------------------------------------------------------------
	// ACTUATOR
	// ------------------------------------------------------------

	a := cfg.Actuator
	if a.CarrierHz == 0 || a.CarrierHz > 1000000 {
		return fmt.Errorf("actuator.carrier_hz must be in 1..1000000, got %d", a.CarrierHz)
	}
	if a.DutyMin > a.DutyMax || a.DutyMax > 100 {
		return fmt.Errorf(
			"actuator duty ramp must satisfy duty_min <= duty_max <= 100, got %d..%d",
			a.DutyMin,
			a.DutyMax,
		)
	}
	if a.StepMs < 0 {
		return fmt.Errorf("actuator.step_ms must not be negative")
	}
	if a.AssistLength <= 0 || a.HoldLength <= 0 {
		return fmt.Errorf("actuator slide lengths must be positive")
	}
	if len(a.Units) == 0 {
		return fmt.Errorf("actuator.units: at least one unit is required")
	}
	if a.ActiveUnit < 0 || a.ActiveUnit >= len(a.Units) {
		return fmt.Errorf("actuator.active_unit %d out of range (have %d units)", a.ActiveUnit, len(a.Units))
	}

	pwmOwner := make(map[uint8]int)
	for i, u := range a.Units {
		if u.PhasePin == u.EnablePin {
			return fmt.Errorf("actuator.units[%d]: phase and enable share pin %d", i, u.PhasePin)
		}
		if u.TopPin == u.BottomPin {
			return fmt.Errorf("actuator.units[%d]: top and bottom limits share pin %d", i, u.TopPin)
		}
		if prev, ok := pwmOwner[u.PWMUnit]; ok {
			return fmt.Errorf("actuator.units[%d]: pwm_unit %d already used by unit %d", i, u.PWMUnit, prev)
		}
		pwmOwner[u.PWMUnit] = i
	}

	return nil
}
