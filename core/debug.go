package core

import "sync"

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// TaskEvent captures a task-level event for post-mortem analysis
type TaskEvent struct {
	EventType uint8  // Event type code
	Channel   uint8  // Actuator channel, 0 when not applicable
	Clock     uint32 // Uptime in milliseconds at event
	Value1    int32  // Context-dependent value
	Value2    int32  // Context-dependent value
}

// Event type codes
const (
	EvtModePublish  = 1 // Mode message sent
	EvtDeltaPublish = 2 // Delta snapshot sent
	EvtSendDropped  = 3 // Send timed out, message dropped
	EvtReceiveEmpty = 4 // Receive timed out
	EvtDrive        = 5 // Actuator ramp started, v1=length v2=unit
	EvtLimitStop    = 6 // Hard stop at limit, v1=length v2=limit bits
	EvtRigid        = 7 // Rigid override asserted
	EvtModeError    = 8 // No slide length for current mode, v1=mode
)

const (
	EventRingSize = 32 // Keep last 32 events for post-mortem
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = true

	// Event capture ring buffer (non-blocking, for post-mortem)
	eventRing     [EventRingSize]TaskEvent
	eventRingHead uint8
	eventMu       sync.Mutex

	// Async debug output channel
	debugChan chan string
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, USB, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// InitAsyncDebug starts the async debug output goroutine
// Call this from main() after SetDebugWriter
func InitAsyncDebug() {
	debugChan = make(chan string, 16) // Buffer 16 messages
	go debugOutputWorker()
}

// debugOutputWorker runs in background, drains debug channel
func debugOutputWorker() {
	for msg := range debugChan {
		if debugPrintln != nil {
			debugPrintln(msg)
		}
	}
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// DebugAsync queues a debug message for async output (non-blocking)
// Falls back to a direct write when the async worker is not running
func DebugAsync(msg string) {
	if !debugEnabled {
		return
	}
	if debugChan == nil {
		DebugPrintln(msg)
		return
	}
	select {
	case debugChan <- msg:
	default:
		// Channel full, drop message (non-blocking)
	}
}

// Log writes one tagged line: "[tag] part part ..."
// Tasks call this from their loops, so it never blocks.
func Log(tag string, parts ...string) {
	if !debugEnabled {
		return
	}
	n := len(tag) + 3
	for _, p := range parts {
		n += len(p) + 1
	}
	buf := make([]byte, 0, n)
	buf = append(buf, '[')
	buf = append(buf, tag...)
	buf = append(buf, ']')
	for _, p := range parts {
		buf = append(buf, ' ')
		buf = append(buf, p...)
	}
	DebugAsync(string(buf))
}

// RecordEvent captures a task event in the ring buffer
func RecordEvent(eventType, channel uint8, value1, value2 int32) {
	eventMu.Lock()
	idx := eventRingHead
	eventRing[idx] = TaskEvent{
		EventType: eventType,
		Channel:   channel,
		Clock:     UptimeMillis(),
		Value1:    value1,
		Value2:    value2,
	}
	eventRingHead = (idx + 1) % EventRingSize
	eventMu.Unlock()
}

// Events returns the recorded events from oldest to newest
func Events() []TaskEvent {
	eventMu.Lock()
	defer eventMu.Unlock()

	events := make([]TaskEvent, 0, EventRingSize)
	start := eventRingHead
	for i := uint8(0); i < EventRingSize; i++ {
		evt := eventRing[(start+i)%EventRingSize]
		if evt.EventType == 0 {
			continue // Empty slot
		}
		events = append(events, evt)
	}
	return events
}

// DumpEvents outputs the event ring buffer (call on fault or from the simulator)
func DumpEvents() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[EVENTS] === Event Ring Dump ===")
	for _, evt := range Events() {
		debugPrintln("[EVENTS] " + EventName(evt.EventType) +
			" ch=" + Itoa(int(evt.Channel)) +
			" clock=" + Utoa(evt.Clock) +
			" v1=" + Itoa(int(evt.Value1)) +
			" v2=" + Itoa(int(evt.Value2)))
	}
	debugPrintln("[EVENTS] === End Dump ===")
}

// EventName returns the printable name of an event code
func EventName(eventType uint8) string {
	switch eventType {
	case EvtModePublish:
		return "MODE_PUB"
	case EvtDeltaPublish:
		return "DELTA_PUB"
	case EvtSendDropped:
		return "SEND_DROP!"
	case EvtReceiveEmpty:
		return "RECV_EMPTY"
	case EvtDrive:
		return "DRIVE"
	case EvtLimitStop:
		return "LIMIT_STOP"
	case EvtRigid:
		return "RIGID"
	case EvtModeError:
		return "MODE_ERR!"
	default:
		return "UNKNOWN"
	}
}

// ClearEvents clears the event buffer
func ClearEvents() {
	eventMu.Lock()
	for i := range eventRing {
		eventRing[i] = TaskEvent{}
	}
	eventRingHead = 0
	eventMu.Unlock()
}
