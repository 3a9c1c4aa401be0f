package sim

import (
	"context"
	"os"
	"testing"
	"time"

	"ham/core"
)

func TestGPIOLevels(t *testing.T) {
	g := NewGPIO()

	if g.ReadPin(3) {
		t.Error("Expected pins low at start")
	}
	g.SetLevel(3, true)
	if !g.ReadPin(3) {
		t.Error("Expected SetLevel to drive the pin")
	}
	if g.Reads(3) != 2 {
		t.Errorf("Expected 2 reads, got %d", g.Reads(3))
	}
}

func TestGPIOQueue(t *testing.T) {
	g := NewGPIO()
	g.Queue(4, true, false, true)

	expected := []bool{true, false, true, true, true}
	for i, want := range expected {
		if got := g.ReadPin(4); got != want {
			t.Errorf("Read %d: expected %v, got %v", i, want, got)
		}
	}

	g.Queue(4, false)
	g.SetLevel(4, true)
	if !g.ReadPin(4) {
		t.Error("Expected SetLevel to discard queued levels")
	}
}

func TestGPIOOutput(t *testing.T) {
	g := NewGPIO()

	if err := g.SetPin(9, true); err != ErrNotOutput {
		t.Errorf("Expected ErrNotOutput, got %v", err)
	}
	g.ConfigureInput(8)
	g.ConfigureOutput(9)
	if g.Mode(8) != PinInput || g.Mode(9) != PinOutput {
		t.Error("Expected pin modes recorded")
	}
	if err := g.SetPin(9, true); err != nil || !g.Level(9) {
		t.Errorf("Expected output high, got %v (%v)", g.Level(9), err)
	}
}

func TestPWMContract(t *testing.T) {
	p := NewPWM()
	cfg := core.PWMConfig{FrequencyHz: 10000, DutyB: 50}

	if err := p.Init(0, cfg); err != core.ErrPWMNotBound {
		t.Errorf("Expected ErrPWMNotBound, got %v", err)
	}
	p.BindPin(0, core.OperatorA, 16)
	p.BindPin(0, core.OperatorB, 17)

	if err := p.Init(0, core.PWMConfig{}); err != core.ErrInvalidFrequency {
		t.Errorf("Expected ErrInvalidFrequency, got %v", err)
	}
	if err := p.Init(0, cfg); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if err := p.SetDuty(0, core.OperatorB, 101); err != core.ErrInvalidDuty {
		t.Errorf("Expected ErrInvalidDuty, got %v", err)
	}

	p.SetSignalLevel(0, core.OperatorB, false)
	if err := p.SetDuty(0, core.OperatorB, 60); err != core.ErrDutyOverridden {
		t.Errorf("Expected ErrDutyOverridden, got %v", err)
	}
	if err := p.Init(0, cfg); err != core.ErrDutyOverridden {
		t.Errorf("Expected Init refused while forced, got %v", err)
	}

	p.SetDutyMode(0, core.OperatorB, core.DutyActiveHigh)
	if err := p.SetDuty(0, core.OperatorB, 60); err != nil {
		t.Errorf("Expected duty accepted after restore, got %v", err)
	}
	if op := p.Operator(0, core.OperatorB); op.Duty != 60 || op.Forced || op.Pin != 17 {
		t.Errorf("Unexpected operator state %+v", op)
	}
	if h := p.DutyHistory(0, core.OperatorB); len(h) != 1 || h[0] != 60 {
		t.Errorf("Expected history [60], got %v", h)
	}

	p.ResetHistory()
	if h := p.DutyHistory(0, core.OperatorB); len(h) != 0 {
		t.Errorf("Expected history cleared, got %v", h)
	}
}

func TestLoadScript(t *testing.T) {
	data, err := os.ReadFile("testdata/assist.yaml")
	if err != nil {
		t.Fatalf("read script: %v", err)
	}
	s, err := LoadScript(data)
	if err != nil {
		t.Fatalf("LoadScript failed: %v", err)
	}

	if len(s.Steps) != 4 {
		t.Fatalf("Expected 4 steps, got %d", len(s.Steps))
	}
	for i, at := range []int{0, 10, 20, 30} {
		if s.Steps[i].AtMs != at {
			t.Errorf("Step %d: expected at_ms %d, got %d", i, at, s.Steps[i].AtMs)
		}
	}
	if len(s.Steps[1].Queue) != 4 {
		t.Errorf("Expected queued levels on step 1, got %+v", s.Steps[1])
	}
}

func TestLoadScriptErrors(t *testing.T) {
	if _, err := LoadScript([]byte("steps: [")); err == nil {
		t.Error("Expected YAML error")
	}
	if _, err := LoadScript([]byte("steps:\n  - at_ms: -1\n    pin: 1\n")); err == nil {
		t.Error("Expected error for negative offset")
	}
}

func TestScriptPlay(t *testing.T) {
	s := &Script{Steps: []Step{
		{AtMs: 0, Pin: 1, Level: true},
		{AtMs: 5, Pin: 2, Queue: []bool{true, false}},
	}}
	g := NewGPIO()

	if err := s.Play(context.Background(), g); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if !g.Level(1) {
		t.Error("Expected pin 1 high")
	}
	if !g.ReadPin(2) || g.ReadPin(2) {
		t.Error("Expected queued levels on pin 2")
	}
}

func TestScriptPlayCancelled(t *testing.T) {
	s := &Script{Steps: []Step{{AtMs: 10000, Pin: 1, Level: true}}}
	g := NewGPIO()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := s.Play(ctx, g); err != context.DeadlineExceeded {
		t.Errorf("Expected DeadlineExceeded, got %v", err)
	}
	if g.Level(1) {
		t.Error("Expected step not applied")
	}
}
