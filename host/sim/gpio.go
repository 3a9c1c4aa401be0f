// Package sim provides simulated GPIO and PWM drivers so the controller can
// run on a host: under test, and in the ham-sim command.
package sim

import (
	"errors"
	"sync"

	"ham/core"
)

// PinMode records how a simulated pin was configured
type PinMode uint8

const (
	PinUnconfigured PinMode = iota
	PinInput
	PinOutput
)

var ErrNotOutput = errors.New("sim: pin not configured as output")

// GPIO is a simulated GPIODriver. Input levels are set by the test or
// script through SetLevel and Queue.
type GPIO struct {
	mu        sync.Mutex
	levels    map[core.GPIOPin]bool
	modes     map[core.GPIOPin]PinMode
	sequences map[core.GPIOPin][]bool
	reads     map[core.GPIOPin]int
}

// NewGPIO creates a simulated GPIO bank with every pin low
func NewGPIO() *GPIO {
	return &GPIO{
		levels:    make(map[core.GPIOPin]bool),
		modes:     make(map[core.GPIOPin]PinMode),
		sequences: make(map[core.GPIOPin][]bool),
		reads:     make(map[core.GPIOPin]int),
	}
}

func (g *GPIO) ConfigureInput(pin core.GPIOPin) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.modes[pin] = PinInput
	return nil
}

func (g *GPIO) ConfigureOutput(pin core.GPIOPin) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.modes[pin] = PinOutput
	return nil
}

func (g *GPIO) SetPin(pin core.GPIOPin, value bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.modes[pin] != PinOutput {
		return ErrNotOutput
	}
	g.levels[pin] = value
	return nil
}

// ReadPin returns the next queued level for the pin if any, otherwise the
// level last set
func (g *GPIO) ReadPin(pin core.GPIOPin) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.reads[pin]++
	if seq := g.sequences[pin]; len(seq) > 0 {
		g.levels[pin] = seq[0]
		g.sequences[pin] = seq[1:]
	}
	return g.levels[pin]
}

// SetLevel drives an input pin from outside, discarding queued levels
func (g *GPIO) SetLevel(pin core.GPIOPin, level bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.sequences, pin)
	g.levels[pin] = level
}

// Queue appends levels returned by successive reads of pin. After the
// queue drains, the last level holds.
func (g *GPIO) Queue(pin core.GPIOPin, levels ...bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sequences[pin] = append(g.sequences[pin], levels...)
}

// Level returns a pin's current level without counting a read
func (g *GPIO) Level(pin core.GPIOPin) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.levels[pin]
}

// Mode returns how a pin was configured
func (g *GPIO) Mode(pin core.GPIOPin) PinMode {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.modes[pin]
}

// Reads returns how many times a pin was read
func (g *GPIO) Reads(pin core.GPIOPin) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.reads[pin]
}
