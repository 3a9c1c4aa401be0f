package protocol

import "testing"

func TestModeNameRoundTrip(t *testing.T) {
	for _, name := range []string{"RIGID", "ASSIST", "HOLD"} {
		data, err := EncodeModeName(name)
		if err != nil {
			t.Fatalf("EncodeModeName(%q) failed: %v", name, err)
		}
		if len(data) != ModeMessageSize {
			t.Errorf("Expected %d bytes, got %d", ModeMessageSize, len(data))
		}

		decoded, err := DecodeModeName(data)
		if err != nil {
			t.Errorf("DecodeModeName failed: %v", err)
		}
		if decoded != name {
			t.Errorf("Expected %q, got %q", name, decoded)
		}
	}
}

func TestModeNameRejects(t *testing.T) {
	if _, err := EncodeModeName(""); err != ErrInvalidModeMessage {
		t.Errorf("Expected error for empty name, got %v", err)
	}
	if _, err := EncodeModeName("OVERLONG"); err != ErrInvalidModeMessage {
		t.Errorf("Expected error for 8-byte name, got %v", err)
	}

	bad := [][]byte{
		{},
		{0, 0, 0, 0, 0, 0, 0, 0},
		[]byte("ASSISTXX"),
		{'h', 'o', 'l', 'd', 0, 0, 0, 0},
	}
	for _, data := range bad {
		if _, err := DecodeModeName(data); err != ErrInvalidModeMessage {
			t.Errorf("DecodeModeName(%q): expected ErrInvalidModeMessage, got %v", data, err)
		}
	}
}
