package protocol

import (
	"testing"
)

func TestVLQEncodeDecodeInt(t *testing.T) {
	testCases := []int32{
		0,
		1,
		-1,
		-32,
		-33,
		95,
		96,
		127,
		-127,
		1000,
		-1000,
		65535,
		-65535,
		1000000,
		-1000000,
	}

	for _, expected := range testCases {
		output := NewScratchOutput()
		EncodeVLQInt(output, expected)
		encoded := output.Result()

		data := encoded
		decoded, err := DecodeVLQInt(&data)
		if err != nil {
			t.Errorf("Failed to decode VLQ for value %d: %v", expected, err)
			continue
		}

		if decoded != expected {
			t.Errorf("VLQ mismatch: expected %d, got %d (encoded as %v)", expected, decoded, encoded)
		}

		if len(data) != 0 {
			t.Errorf("VLQ decode didn't consume all bytes for value %d: %d bytes remaining", expected, len(data))
		}
	}
}

func TestVLQSmallValuesSingleByte(t *testing.T) {
	for _, v := range []int32{-32, -1, 0, 1, 95} {
		output := NewScratchOutput()
		EncodeVLQInt(output, v)
		if n := len(output.Result()); n != 1 {
			t.Errorf("Expected value %d to encode in 1 byte, got %d", v, n)
		}
	}
}

func TestVLQBufferTooSmall(t *testing.T) {
	// Continuation bit set but no following byte
	data := []byte{0x81}
	if _, err := DecodeVLQInt(&data); err != ErrBufferTooSmall {
		t.Errorf("Expected ErrBufferTooSmall, got %v", err)
	}

	var empty []byte
	if _, err := DecodeVLQInt(&empty); err != ErrBufferTooSmall {
		t.Errorf("Expected ErrBufferTooSmall for empty input, got %v", err)
	}
}

func TestVLQTooLong(t *testing.T) {
	data := []byte{0x81, 0x81, 0x81, 0x81, 0x81, 0x01}
	if _, err := DecodeVLQInt(&data); err != ErrInvalidVLQ {
		t.Errorf("Expected ErrInvalidVLQ, got %v", err)
	}
}

func TestVLQSize(t *testing.T) {
	values := []int32{0, 95, 96, -32, -33, 1 << 12, 3 << 12, -(1 << 19), 3 << 19, 1 << 30, -1 << 31}
	for _, v := range values {
		output := NewScratchOutput()
		EncodeVLQInt(output, v)
		if got := VLQSize(v); got != len(output.Result()) {
			t.Errorf("VLQSize(%d): expected %d, got %d", v, len(output.Result()), got)
		}
	}
}
