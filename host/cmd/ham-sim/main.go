package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"ham/controller"
	"ham/core"
	"ham/host/sim"
	"ham/protocol"
)

var (
	configPath = flag.String("config", "", "YAML configuration overlaid on the defaults")
	duration   = flag.Duration("duration", 10*time.Second, "How long to run the controller")
	scriptPath = flag.String("script", "", "YAML script of timed input pin changes")
	quiet      = flag.Bool("quiet", false, "Suppress the task log")
)

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	core.SetDebugWriter(func(s string) {
		fmt.Fprintf(os.Stderr, "%8dms %s\n", core.UptimeMillis(), s)
	})
	core.SetDebugEnabled(!*quiet)
	core.InitAsyncDebug()
	core.TimerInit()

	var configData []byte
	if *configPath != "" {
		data, err := os.ReadFile(*configPath)
		if err != nil {
			return err
		}
		configData = data
	}

	manager, err := controller.NewManager(configData)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	gpio := sim.NewGPIO()
	pwm := sim.NewPWM()

	var script *sim.Script
	if *scriptPath != "" {
		data, err := os.ReadFile(*scriptPath)
		if err != nil {
			return err
		}
		if script, err = sim.LoadScript(data); err != nil {
			return fmt.Errorf("script: %w", err)
		}
	}

	if err := manager.Initialize(gpio, pwm); err != nil {
		return fmt.Errorf("init: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	if script != nil {
		go script.Play(ctx, gpio)
	}

	if err := manager.Start(ctx); err != nil {
		return err
	}
	manager.Wait()

	report(os.Stdout, manager, pwm)
	return nil
}

// report prints the version, the final mode, each channel's drive state
// and the event ring
func report(w io.Writer, m *controller.Manager, pwm *sim.PWM) {
	cfg := m.Config()
	fmt.Fprintf(w, "ham-sim %s\n", protocol.Version)
	fmt.Fprintf(w, "mode: %s\n", m.Store().Load())

	if d := m.Driver(); d != nil {
		for ch := 0; ch < cfg.Channels; ch++ {
			fmt.Fprintf(w, "channel %d: %s\n", ch, d.State(ch))
		}
		u := cfg.Actuator.Units[cfg.Actuator.ActiveUnit]
		_, inits := pwm.Config(core.PWMUnit(u.PWMUnit))
		fmt.Fprintf(w, "unit %d: %d commands, %d enable duty writes\n",
			cfg.Actuator.ActiveUnit, inits, len(pwm.DutyHistory(core.PWMUnit(u.PWMUnit), core.OperatorB)))
	}

	fmt.Fprintln(w, "events:")
	for _, evt := range core.Events() {
		fmt.Fprintf(w, "  %8dms %-10s ch=%d v1=%d v2=%d\n",
			evt.Clock, core.EventName(evt.EventType), evt.Channel, evt.Value1, evt.Value2)
	}
}
