package serial

import (
	"errors"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("/dev/ttyACM0")
	if cfg.Device != "/dev/ttyACM0" {
		t.Errorf("Expected device /dev/ttyACM0, got %s", cfg.Device)
	}
	if cfg.Baud != 115200 || cfg.ReadTimeout != 100 {
		t.Errorf("Unexpected defaults %+v", cfg)
	}
}

func TestOpenWithoutDevice(t *testing.T) {
	if _, err := Open(nil); !errors.Is(err, ErrNoDevice) {
		t.Errorf("Expected ErrNoDevice for nil config, got %v", err)
	}
	if _, err := Open(&Config{Baud: 9600}); !errors.Is(err, ErrNoDevice) {
		t.Errorf("Expected ErrNoDevice for empty device, got %v", err)
	}
}

func TestOpenMissingDevice(t *testing.T) {
	_, err := Open(DefaultConfig("/dev/ham-does-not-exist"))
	if err == nil {
		t.Error("Expected error opening a missing device")
	}
}
