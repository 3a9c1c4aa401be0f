package protocol

import "testing"

func TestCRC16Empty(t *testing.T) {
	if crc := CRC16([]byte{}); crc != 0xFFFF {
		t.Errorf("Expected 0xFFFF for empty input, got 0x%04X", crc)
	}
}

func TestCRC16Consistency(t *testing.T) {
	// Test that same input produces same output
	data := []byte{RecordMarker, 0x06, 0x00, 0x0A}

	crc1 := CRC16(data)
	crc2 := CRC16(data)

	if crc1 != crc2 {
		t.Errorf("CRC16 not consistent: first=%04X, second=%04X", crc1, crc2)
	}
}

func TestCRC16Different(t *testing.T) {
	// A single flipped count must change the checksum
	data1 := []byte{RecordMarker, 0x01, 0x00, 0x0A}
	data2 := []byte{RecordMarker, 0x01, 0x00, 0x0B}

	crc1 := CRC16(data1)
	crc2 := CRC16(data2)

	if crc1 == crc2 {
		t.Errorf("CRC16 collision: both inputs produced %04X", crc1)
	}
}
