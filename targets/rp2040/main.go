//go:build rp2040

package main

import (
	"context"
	"ham/controller"
	"ham/core"
	"ham/protocol"
	"machine"
	"time"
)

func main() {
	// Disable the watchdog on boot to clear any previous state
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})
	if err != nil {
		return
	}

	// USB CDC carries the debug log
	InitUSB()
	core.SetDebugWriter(func(s string) {
		USBWriteBytes([]byte(s))
		USBWriteBytes([]byte("\r\n"))
	})
	core.InitAsyncDebug()
	core.TimerInit()

	// Register the HAL drivers
	gpioDriver := NewRPGPIODriver()
	core.SetGPIODriver(gpioDriver)
	pwmDriver := NewRP2040PWMDriver()
	core.SetPWMDriver(pwmDriver)

	// Embedded default configuration carries the task toggles
	manager, err := controller.NewManager(nil)
	if err != nil {
		fatal("config: " + err.Error())
	}
	if err := manager.Initialize(core.MustGPIO(), core.MustPWM()); err != nil {
		fatal("init: " + err.Error())
	}

	core.Log("ham", "controller v"+protocol.Version, "ready,", core.Itoa(len(manager.Tasks())), "tasks")

	// Tasks never stop on hardware
	if err := manager.Start(context.Background()); err != nil {
		fatal("start: " + err.Error())
	}
	manager.Wait()
}

// fatal logs a startup failure and blinks the LED forever
func fatal(msg string) {
	core.DebugPrintln("[ham] " + msg)
	core.DumpEvents()

	led := machine.LED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})
	for {
		led.High()
		time.Sleep(100 * time.Millisecond)
		led.Low()
		time.Sleep(100 * time.Millisecond)
	}
}
