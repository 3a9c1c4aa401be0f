//go:build !wasm

package serial

import (
	"errors"
	"fmt"
	"time"

	"github.com/tarm/serial"
)

var ErrNoDevice = errors.New("serial: no device given")

// NativePort wraps the tarm/serial implementation
type NativePort struct {
	port *serial.Port
	cfg  Config
}

// Open opens a native serial port. A zero baud rate selects the default.
func Open(cfg *Config) (Port, error) {
	if cfg == nil || cfg.Device == "" {
		return nil, ErrNoDevice
	}
	c := *cfg
	if c.Baud == 0 {
		c.Baud = DefaultConfig(c.Device).Baud
	}

	port, err := serial.OpenPort(&serial.Config{
		Name:        c.Device,
		Baud:        c.Baud,
		ReadTimeout: time.Duration(c.ReadTimeout) * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", c.Device, err)
	}

	return &NativePort{port: port, cfg: c}, nil
}

// Read returns 0 bytes and no error when the read timeout expires
func (p *NativePort) Read(b []byte) (int, error) {
	return p.port.Read(b)
}

func (p *NativePort) Write(b []byte) (int, error) {
	return p.port.Write(b)
}

// Close closes the serial port
func (p *NativePort) Close() error {
	if p.port == nil {
		return nil
	}
	err := p.port.Close()
	p.port = nil
	return err
}

// Flush discards unread input, such as log lines buffered before the
// console attached
func (p *NativePort) Flush() error {
	return p.port.Flush()
}

// Device returns the path the port was opened on
func (p *NativePort) Device() string {
	return p.cfg.Device
}
