// Package motion counts actuator travel by sampling a quadrature signal per
// channel and publishes the counters as Delta snapshots.
//
// Channels are sampled one after another with a fixed wait between them,
// so motion faster than one sweep is not observed.
package motion

import (
	"context"
	"time"

	"ham/controller/config"
	"ham/core"
	"ham/protocol"
)

// Encoder is the quadrature pin pair of one channel
type Encoder struct {
	A core.GPIOPin
	B core.GPIOPin
}

// Decode is one quadrature step: when A changed since prevA, +1 if B
// differs from the new A, else -1. 0 when A did not change.
func Decode(prevA, a, b bool) int {
	if a == prevA {
		return 0
	}
	if b != a {
		return 1
	}
	return -1
}

// Counter owns the per-channel counters. They are never reset and are
// visible outside only as encoded snapshots.
type Counter struct {
	gpio        core.GPIODriver
	encoders    []Encoder
	counts      []int32
	lastA       []bool
	codec       protocol.DeltaCodec
	interval    time.Duration
	sendTimeout time.Duration
	out         *protocol.RingBuffer

	// Delay suspends the task between channel samples
	Delay core.DelayFunc
}

// NewCounter creates the MotionCounter task
func NewCounter(gpio core.GPIODriver, cfg *config.Config, out *protocol.RingBuffer) (*Counter, error) {
	codec, err := protocol.NewDeltaCodec(cfg.Motion.DeltaFormat)
	if err != nil {
		return nil, err
	}

	encoders := make([]Encoder, cfg.Channels)
	for i := range encoders {
		e := cfg.Motion.Encoders[i]
		encoders[i] = Encoder{A: core.GPIOPin(e.A), B: core.GPIOPin(e.B)}
	}

	return &Counter{
		gpio:        gpio,
		encoders:    encoders,
		counts:      make([]int32, cfg.Channels),
		lastA:       make([]bool, cfg.Channels),
		codec:       codec,
		interval:    cfg.Motion.SampleInterval(),
		sendTimeout: cfg.Queue.SendTimeout(),
		out:         out,
		Delay:       core.Delay,
	}, nil
}

// Channels returns the number of counted channels
func (c *Counter) Channels() int {
	return len(c.counts)
}

// SampleChannel reads one channel's A/B pins and applies a decode step
func (c *Counter) SampleChannel(ch int) {
	enc := c.encoders[ch]
	a := c.gpio.ReadPin(enc.A)
	b := c.gpio.ReadPin(enc.B)

	c.counts[ch] += int32(Decode(c.lastA[ch], a, b))
	c.lastA[ch] = a
}

// Sweep samples every channel in order, waiting one interval after each.
// It stops early when ctx is cancelled during a wait.
func (c *Counter) Sweep(ctx context.Context) error {
	for ch := range c.counts {
		c.SampleChannel(ch)
		if err := c.Delay(ctx, c.interval); err != nil {
			return err
		}
	}
	return nil
}

// Snapshot encodes the current counters. Values the format cannot hold
// are saturated and logged.
func (c *Counter) Snapshot() []byte {
	data, clipped := c.codec.Encode(c.counts)
	if clipped > 0 {
		core.Log("motion", core.Itoa(clipped), "counter(s) saturated in", c.codec.Name(), "snapshot")
	}
	return data
}

// Cycle runs one sweep and publishes the snapshot. A full channel drops
// the snapshot; the next sweep publishes fresh counters.
func (c *Counter) Cycle(ctx context.Context) error {
	if err := c.Sweep(ctx); err != nil {
		return err
	}

	msg := c.Snapshot()
	if err := c.out.SendContext(ctx, msg, c.sendTimeout); err != nil {
		if ctx.Err() != nil {
			return err
		}
		core.Log("motion", "publish delta failed:", err.Error())
		core.RecordEvent(core.EvtSendDropped, 0, int32(len(msg)), 0)
		return err
	}
	core.RecordEvent(core.EvtDeltaPublish, 0, int32(len(msg)), 0)
	return nil
}

// Run cycles until ctx is cancelled
func (c *Counter) Run(ctx context.Context) {
	for ctx.Err() == nil {
		c.Cycle(ctx)
	}
}
