// Package config loads the controller configuration: task toggles, pin
// assignments, channel sizing and actuator ramp parameters.
package config

import (
	_ "embed"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// Config represents the complete controller configuration
type Config struct {
	Channels int            `yaml:"channels"`
	Tasks    TasksConfig    `yaml:"tasks"`
	Queue    QueueConfig    `yaml:"queue"`
	Mode     ModeConfig     `yaml:"mode"`
	Motion   MotionConfig   `yaml:"motion"`
	Actuator ActuatorConfig `yaml:"actuator"`
}

// TasksConfig enables subsystems and orders their start-up
type TasksConfig struct {
	ReadMode       bool           `yaml:"read_mode"`
	DetectMotion   bool           `yaml:"detect_motion"`
	DriveActuators bool           `yaml:"drive_actuators"`
	Priorities     PriorityConfig `yaml:"priorities"`
}

// PriorityConfig holds per-task priorities; higher starts first
type PriorityConfig struct {
	ReadMode       int `yaml:"read_mode"`
	DetectMotion   int `yaml:"detect_motion"`
	DriveActuators int `yaml:"drive_actuators"`
}

// QueueConfig sizes the Mode and Delta channels
type QueueConfig struct {
	Capacity         int `yaml:"capacity"`
	SendTimeoutMs    int `yaml:"send_timeout_ms"`
	ReceiveTimeoutMs int `yaml:"receive_timeout_ms"`
}

// ModeConfig describes the mode switch
type ModeConfig struct {
	SwitchPin             uint32 `yaml:"switch_pin"`
	ClosedLevel           string `yaml:"closed_level"` // "low" or "high"
	SampleIntervalMs      int    `yaml:"sample_interval_ms"`
	RigidSampleIntervalMs int    `yaml:"rigid_sample_interval_ms"`
}

// MotionConfig describes quadrature sampling
type MotionConfig struct {
	SampleIntervalMs int             `yaml:"sample_interval_ms"`
	DeltaFormat      string          `yaml:"delta_format"` // "text" or "record"
	Encoders         []EncoderConfig `yaml:"encoders"`
}

// EncoderConfig is the quadrature pin pair of one channel
type EncoderConfig struct {
	A uint32 `yaml:"a"`
	B uint32 `yaml:"b"`
}

// ActuatorConfig describes the drive path
type ActuatorConfig struct {
	CarrierHz    uint32       `yaml:"carrier_hz"`
	DutyMin      uint8        `yaml:"duty_min"`
	DutyMax      uint8        `yaml:"duty_max"`
	DutyStep     uint8        `yaml:"duty_step"`
	StepMs       int          `yaml:"step_ms"`
	AssistLength int          `yaml:"assist_length"`
	HoldLength   int          `yaml:"hold_length"`
	ActiveUnit   int          `yaml:"active_unit"`
	Units        []UnitConfig `yaml:"units"`
}

// UnitConfig binds one actuator unit to its PWM unit and pins
type UnitConfig struct {
	PWMUnit   uint8  `yaml:"pwm_unit"`
	PhasePin  uint32 `yaml:"phase_pin"`
	EnablePin uint32 `yaml:"enable_pin"`
	TopPin    uint32 `yaml:"top_pin"`
	BottomPin uint32 `yaml:"bottom_pin"`
}

// Default returns the embedded default configuration
func Default() *Config {
	var cfg Config
	if err := yaml.Unmarshal(defaultYAML, &cfg); err != nil {
		// The embedded file is part of the build; a parse failure is a build defect
		panic("config: embedded default.yaml: " + err.Error())
	}
	applyDefaults(&cfg)
	return &cfg
}

// Load overlays YAML data on the embedded defaults, fills remaining zero
// values and validates the result. Empty data yields the defaults.
func Load(data []byte) (*Config, error) {
	cfg := Default()

	// Encoder pins only come from data when it lists them; otherwise the
	// default pairs follow the configured channel count
	inherited := cfg.Motion.Encoders
	cfg.Motion.Encoders = nil
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}
	if cfg.Motion.Encoders == nil {
		n := len(inherited)
		if cfg.Channels > 0 && cfg.Channels < n {
			n = cfg.Channels
		}
		cfg.Motion.Encoders = inherited[:n]
	}

	applyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults fills in missing configuration values with the
// firmware constants
func applyDefaults(cfg *Config) {
	if cfg.Channels == 0 {
		cfg.Channels = 6
	}

	if cfg.Queue.Capacity == 0 {
		cfg.Queue.Capacity = 240
	}
	if cfg.Queue.SendTimeoutMs == 0 {
		cfg.Queue.SendTimeoutMs = 10000
	}
	if cfg.Queue.ReceiveTimeoutMs == 0 {
		cfg.Queue.ReceiveTimeoutMs = 1000
	}

	if cfg.Mode.ClosedLevel == "" {
		cfg.Mode.ClosedLevel = "low"
	}
	if cfg.Mode.SampleIntervalMs == 0 {
		cfg.Mode.SampleIntervalMs = 200
	}
	if cfg.Mode.RigidSampleIntervalMs == 0 {
		cfg.Mode.RigidSampleIntervalMs = 1000
	}

	if cfg.Motion.SampleIntervalMs == 0 {
		cfg.Motion.SampleIntervalMs = 1000
	}
	if cfg.Motion.DeltaFormat == "" {
		cfg.Motion.DeltaFormat = "text"
	}
	// Channels without their own pins share the last listed pair
	if n := len(cfg.Motion.Encoders); n > 0 && n < cfg.Channels {
		last := cfg.Motion.Encoders[n-1]
		for len(cfg.Motion.Encoders) < cfg.Channels {
			cfg.Motion.Encoders = append(cfg.Motion.Encoders, last)
		}
	}

	a := &cfg.Actuator
	if a.CarrierHz == 0 {
		a.CarrierHz = 10000
	}
	if a.DutyMin == 0 {
		a.DutyMin = 50
	}
	if a.DutyMax == 0 {
		a.DutyMax = 100
	}
	if a.DutyStep == 0 {
		a.DutyStep = 1
	}
	if a.StepMs == 0 {
		a.StepMs = 1
	}
	if a.AssistLength == 0 {
		a.AssistLength = 100
	}
	if a.HoldLength == 0 {
		a.HoldLength = 50
	}
}

// ClosedHigh reports whether a closed mode switch reads as a high level
func (m ModeConfig) ClosedHigh() bool {
	return m.ClosedLevel == "high"
}

// SampleInterval is the wait before each ModeSensor sample
func (m ModeConfig) SampleInterval() time.Duration {
	return time.Duration(m.SampleIntervalMs) * time.Millisecond
}

// RigidSampleInterval is the gap between the two RigidOverride samples
func (m ModeConfig) RigidSampleInterval() time.Duration {
	return time.Duration(m.RigidSampleIntervalMs) * time.Millisecond
}

// SampleInterval is the wait after each channel's quadrature sample
func (m MotionConfig) SampleInterval() time.Duration {
	return time.Duration(m.SampleIntervalMs) * time.Millisecond
}

// SendTimeout bounds a blocked channel send
func (q QueueConfig) SendTimeout() time.Duration {
	return time.Duration(q.SendTimeoutMs) * time.Millisecond
}

// ReceiveTimeout bounds a blocked channel receive
func (q QueueConfig) ReceiveTimeout() time.Duration {
	return time.Duration(q.ReceiveTimeoutMs) * time.Millisecond
}

// StepHold is how long each ramp duty step is held
func (a ActuatorConfig) StepHold() time.Duration {
	return time.Duration(a.StepMs) * time.Millisecond
}
