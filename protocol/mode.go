package protocol

import "errors"

var ErrInvalidModeMessage = errors.New("invalid mode message")

// EncodeModeName packs a mode name into a fixed ModeMessageSize buffer,
// NUL padded. The name must leave room for at least one NUL.
func EncodeModeName(name string) ([]byte, error) {
	if len(name) == 0 || len(name) >= ModeMessageSize {
		return nil, ErrInvalidModeMessage
	}
	buf := make([]byte, ModeMessageSize)
	copy(buf, name)
	return buf, nil
}

// DecodeModeName extracts the name up to the first NUL
func DecodeModeName(data []byte) (string, error) {
	end := len(data)
	for i, b := range data {
		if b == 0 {
			end = i
			break
		}
	}
	if end == 0 || end >= ModeMessageSize {
		return "", ErrInvalidModeMessage
	}
	for _, b := range data[:end] {
		if b < 'A' || b > 'Z' {
			return "", ErrInvalidModeMessage
		}
	}
	return string(data[:end]), nil
}
