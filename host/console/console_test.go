package console

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

func fixedClock() time.Time {
	return time.Date(2026, 10, 19, 8, 30, 0, 0, time.UTC)
}

func TestParseLine(t *testing.T) {
	testCases := []struct {
		in   string
		tag  string
		text string
	}{
		{"[mode] publish HOLD failed: channel full", "mode", "publish HOLD failed: channel full"},
		{"[drive] ch 0 limit reached\r\n", "drive", "ch 0 limit reached"},
		{"[EVENTS] === End Dump ===", "EVENTS", "=== End Dump ==="},
		{"no tag here", "", "no tag here"},
		{"[unterminated", "", "[unterminated"},
	}
	for _, tc := range testCases {
		l := ParseLine(tc.in)
		if l.Tag != tc.tag || l.Text != tc.text {
			t.Errorf("ParseLine(%q): expected (%q, %q), got (%q, %q)", tc.in, tc.tag, tc.text, l.Tag, l.Text)
		}
	}
}

func TestFilter(t *testing.T) {
	f := NewFilter("drive, MODE")
	if !f.Match(Line{Tag: "drive"}) || !f.Match(Line{Tag: "mode"}) {
		t.Error("Expected listed tags to match")
	}
	if f.Match(Line{Tag: "motion"}) || f.Match(Line{Text: "bare"}) {
		t.Error("Expected other lines filtered out")
	}
	if !NewFilter("").Match(Line{Tag: "motion"}) {
		t.Error("Expected empty filter to pass everything")
	}
}

func TestPump(t *testing.T) {
	in := "[mode] a\r\n\r\n[motion] b\r\n[drive] c\r\n"
	var out bytes.Buffer

	n, err := Pump(context.Background(), strings.NewReader(in), &out, NewFilter("mode,drive"), fixedClock)
	if err != nil {
		t.Fatalf("Pump failed: %v", err)
	}
	if n != 2 {
		t.Errorf("Expected 2 lines, got %d", n)
	}
	expected := "2026-10-19T08:30:00.000 [mode] a\n2026-10-19T08:30:00.000 [drive] c\n"
	if out.String() != expected {
		t.Errorf("Expected %q, got %q", expected, out.String())
	}
}

// timeoutReader returns empty reads before each chunk, like a serial
// port with a read timeout
type timeoutReader struct {
	chunks []string
	empty  int
}

func (r *timeoutReader) Read(p []byte) (int, error) {
	if r.empty < 3 {
		r.empty++
		return 0, nil
	}
	r.empty = 0
	if len(r.chunks) == 0 {
		return 0, io.EOF
	}
	n := copy(p, r.chunks[0])
	r.chunks = r.chunks[1:]
	return n, nil
}

func TestPumpRetriesTimeouts(t *testing.T) {
	r := &timeoutReader{chunks: []string{"[mo", "de] HOLD\r\n", "[mode] ASSIST\r\n"}}
	var out bytes.Buffer

	n, err := Pump(context.Background(), r, &out, nil, fixedClock)
	if err != nil {
		t.Fatalf("Pump failed: %v", err)
	}
	if n != 2 || !strings.Contains(out.String(), "[mode] HOLD") {
		t.Errorf("Expected split line reassembled, got %d lines %q", n, out.String())
	}
}

type errWriter struct{}

func (errWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestPumpWriteError(t *testing.T) {
	_, err := Pump(context.Background(), strings.NewReader("[mode] a\n"), errWriter{}, nil, fixedClock)
	if err == nil {
		t.Error("Expected write error")
	}
}

func TestPumpCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := &timeoutReader{}

	n, err := Pump(ctx, r, io.Discard, nil, fixedClock)
	if err != nil || n != 0 {
		t.Errorf("Expected clean stop, got %d lines, %v", n, err)
	}
}
