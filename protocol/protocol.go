// Package protocol implements the inter-task message channels and the
// payload codecs carried over them
package protocol

// Version represents the controller firmware version
const Version = "0.3.0"

// Channel sizing constants
const (
	DefaultChannelCapacity = 240 // Bytes per channel, shared by all queued items
	ItemHeaderSize         = 8   // Per-item bookkeeping charged against capacity
	ItemAlign              = 4   // Item payloads are charged in 4-byte units

	ModeMessageSize = 8    // Mode names are NUL padded to this width
	DeltaFieldWidth = 3    // Text delta field width
	RecordMarker    = 0x7E // First byte of a record delta frame
)
