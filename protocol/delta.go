package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidDelta   = errors.New("invalid delta message")
	ErrBadChecksum    = errors.New("delta frame checksum mismatch")
	ErrUnknownFormat  = errors.New("unknown delta format")
	ErrChannelCount   = errors.New("delta channel count mismatch")
	ErrDuplicateEntry = errors.New("duplicate channel in delta frame")
)

// Text field range: "-99" .. "999"
const (
	TextDeltaMin = -99
	TextDeltaMax = 999
)

// DeltaCodec converts a counter snapshot to and from a Delta channel payload
type DeltaCodec interface {
	// Encode renders counts. clipped reports how many values did not fit
	// the format and were saturated.
	Encode(counts []int32) (data []byte, clipped int)

	// Decode parses a payload that must carry exactly n channels
	Decode(data []byte, n int) ([]int32, error)

	// Name returns the configuration name of the format
	Name() string

	// MaxSize returns the largest payload Encode can produce for n channels
	MaxSize(n int) int
}

// NewDeltaCodec returns the codec for a configured format name
func NewDeltaCodec(format string) (DeltaCodec, error) {
	switch format {
	case "text", "":
		return TextDeltaCodec{}, nil
	case "record":
		return RecordDeltaCodec{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// TextDeltaCodec is the fixed-width layout: one DeltaFieldWidth field per
// channel, no separators. Non-negative values are zero padded ("010");
// negative values keep their sign in the first byte ("-07").
type TextDeltaCodec struct{}

func (TextDeltaCodec) Name() string { return "text" }

func (TextDeltaCodec) MaxSize(n int) int { return n * DeltaFieldWidth }

func (TextDeltaCodec) Encode(counts []int32) ([]byte, int) {
	buf := make([]byte, len(counts)*DeltaFieldWidth)
	clipped := 0
	for i, v := range counts {
		if v < TextDeltaMin {
			v = TextDeltaMin
			clipped++
		} else if v > TextDeltaMax {
			v = TextDeltaMax
			clipped++
		}

		field := buf[i*DeltaFieldWidth : (i+1)*DeltaFieldWidth]
		if v < 0 {
			v = -v
			field[0] = '-'
			field[1] = byte('0' + v/10)
			field[2] = byte('0' + v%10)
			continue
		}
		field[0] = byte('0' + v/100)
		field[1] = byte('0' + v/10%10)
		field[2] = byte('0' + v%10)
	}
	return buf, clipped
}

// Decode also accepts space padded fields (" 10", " -1"), which is what a
// printf-style "%3d" writer produces.
func (TextDeltaCodec) Decode(data []byte, n int) ([]int32, error) {
	if len(data) != n*DeltaFieldWidth {
		return nil, fmt.Errorf("%w: length %d, want %d", ErrInvalidDelta, len(data), n*DeltaFieldWidth)
	}

	counts := make([]int32, n)
	for i := range counts {
		v, err := parseField(data[i*DeltaFieldWidth : (i+1)*DeltaFieldWidth])
		if err != nil {
			return nil, fmt.Errorf("%w: field %d", err, i)
		}
		counts[i] = v
	}
	return counts, nil
}

func parseField(field []byte) (int32, error) {
	pos := 0
	for pos < len(field) && field[pos] == ' ' {
		pos++
	}
	negative := false
	if pos < len(field) && field[pos] == '-' {
		negative = true
		pos++
	}
	if pos == len(field) {
		return 0, ErrInvalidDelta
	}

	var v int32
	for ; pos < len(field); pos++ {
		c := field[pos]
		if c < '0' || c > '9' {
			return 0, ErrInvalidDelta
		}
		v = v*10 + int32(c-'0')
	}
	if negative {
		v = -v
	}
	return v, nil
}

// RecordDeltaCodec is the structured layout:
//
//	RecordMarker, VLQ count, count × (VLQ channel id, VLQ signed value), CRC16 (big endian)
//
// It carries the full int32 range, so nothing is ever clipped.
type RecordDeltaCodec struct{}

func (RecordDeltaCodec) Name() string { return "record" }

// MaxSize assumes every value needs a full five byte VLQ
func (RecordDeltaCodec) MaxSize(n int) int {
	size := 1 + VLQSize(int32(n)) + 2
	for id := 0; id < n; id++ {
		size += VLQSize(int32(id)) + MaxVLQSize
	}
	return size
}

func (RecordDeltaCodec) Encode(counts []int32) ([]byte, int) {
	output := NewScratchOutput()
	output.Output([]byte{RecordMarker})
	EncodeVLQUint(output, uint32(len(counts)))
	for id, v := range counts {
		EncodeVLQUint(output, uint32(id))
		EncodeVLQInt(output, v)
	}
	crc := CRC16(output.Result())
	output.Output([]byte{byte(crc >> 8), byte(crc & 0xFF)})
	return output.Result(), 0
}

func (RecordDeltaCodec) Decode(data []byte, n int) ([]int32, error) {
	if len(data) < 4 || data[0] != RecordMarker {
		return nil, ErrInvalidDelta
	}

	body := data[:len(data)-2]
	crc := uint16(data[len(data)-2])<<8 | uint16(data[len(data)-1])
	if CRC16(body) != crc {
		return nil, ErrBadChecksum
	}

	payload := body[1:]
	count, err := DecodeVLQUint(&payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDelta, err)
	}
	if int(count) != n {
		return nil, fmt.Errorf("%w: frame has %d, want %d", ErrChannelCount, count, n)
	}

	counts := make([]int32, n)
	seen := make([]bool, n)
	for i := 0; i < n; i++ {
		id, err := DecodeVLQUint(&payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDelta, err)
		}
		if int(id) >= n {
			return nil, fmt.Errorf("%w: channel id %d", ErrInvalidDelta, id)
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateEntry, id)
		}
		v, err := DecodeVLQInt(&payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDelta, err)
		}
		seen[id] = true
		counts[id] = v
	}
	if len(payload) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrInvalidDelta, len(payload))
	}
	return counts, nil
}
