package mode

import (
	"context"
	"time"

	"ham/controller/config"
	"ham/core"
	"ham/protocol"
)

// Sensor samples the mode switch twice per cycle and publishes the derived
// mode to the Mode channel
type Sensor struct {
	gpio        core.GPIODriver
	pin         core.GPIOPin
	closedHigh  bool
	interval    time.Duration
	sendTimeout time.Duration
	out         *protocol.RingBuffer

	// Delay suspends the task between samples
	Delay core.DelayFunc
}

// NewSensor creates the ModeSensor task
func NewSensor(gpio core.GPIODriver, cfg *config.Config, out *protocol.RingBuffer) *Sensor {
	return &Sensor{
		gpio:        gpio,
		pin:         core.GPIOPin(cfg.Mode.SwitchPin),
		closedHigh:  cfg.Mode.ClosedHigh(),
		interval:    cfg.Mode.SampleInterval(),
		sendTimeout: cfg.Queue.SendTimeout(),
		out:         out,
		Delay:       core.Delay,
	}
}

// Sample waits, reads the switch, waits again and reads it a second time.
// It fails only when ctx is cancelled during a wait.
func (s *Sensor) Sample(ctx context.Context) (Mode, error) {
	if err := s.Delay(ctx, s.interval); err != nil {
		return Rigid, err
	}
	first := switchClosed(s.gpio, s.pin, s.closedHigh)
	if err := s.Delay(ctx, s.interval); err != nil {
		return Rigid, err
	}
	second := switchClosed(s.gpio, s.pin, s.closedHigh)
	return Classify(first, second), nil
}

// Cycle samples once and publishes the result. A full channel drops the
// message; the error is returned after being logged.
func (s *Sensor) Cycle(ctx context.Context) (Mode, error) {
	m, err := s.Sample(ctx)
	if err != nil {
		return m, err
	}

	msg, err := protocol.EncodeModeName(m.String())
	if err != nil {
		return m, err
	}
	if err := s.out.SendContext(ctx, msg, s.sendTimeout); err != nil {
		if ctx.Err() != nil {
			return m, err
		}
		core.Log("mode", "publish", m.String(), "failed:", err.Error())
		core.RecordEvent(core.EvtSendDropped, 0, int32(m), 0)
		return m, err
	}
	core.RecordEvent(core.EvtModePublish, 0, int32(m), 0)
	return m, nil
}

// Run cycles until ctx is cancelled
func (s *Sensor) Run(ctx context.Context) {
	for ctx.Err() == nil {
		s.Cycle(ctx)
	}
}

// switchClosed reads the switch pin and maps its level to closed/open
func switchClosed(gpio core.GPIODriver, pin core.GPIOPin, closedHigh bool) bool {
	return gpio.ReadPin(pin) == closedHigh
}
