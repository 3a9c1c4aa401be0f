package sim

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"ham/core"
)

// Step drives one input pin at an offset from the start of the script.
// With Queue set the levels are returned by successive reads instead.
type Step struct {
	AtMs  int    `yaml:"at_ms"`
	Pin   uint32 `yaml:"pin"`
	Level bool   `yaml:"level"`
	Queue []bool `yaml:"queue"`
	Note  string `yaml:"note"`
}

// At is the step's offset from the start of the script
func (s Step) At() time.Duration {
	return time.Duration(s.AtMs) * time.Millisecond
}

// Apply sets the step's level on g
func (s Step) Apply(g *GPIO) {
	if len(s.Queue) > 0 {
		g.Queue(core.GPIOPin(s.Pin), s.Queue...)
		return
	}
	g.SetLevel(core.GPIOPin(s.Pin), s.Level)
}

// Script is a timed list of input changes for the simulator
type Script struct {
	Steps []Step `yaml:"steps"`
}

// LoadScript parses a YAML script and orders its steps by time
func LoadScript(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	for i, st := range s.Steps {
		if st.AtMs < 0 {
			return nil, fmt.Errorf("step %d: at_ms must not be negative, got %d", i, st.AtMs)
		}
	}
	sort.SliceStable(s.Steps, func(i, j int) bool {
		return s.Steps[i].AtMs < s.Steps[j].AtMs
	})
	return &s, nil
}

// Play applies every step at its offset from now. It returns early with
// ctx's error when cancelled.
func (s *Script) Play(ctx context.Context, g *GPIO) error {
	start := time.Now()
	for _, st := range s.Steps {
		if wait := time.Until(start.Add(st.At())); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
		st.Apply(g)
		if st.Note != "" {
			core.Log("sim", "t="+core.Itoa(st.AtMs)+"ms", st.Note)
		}
	}
	return nil
}
