// Package console turns the controller's debug log stream into
// timestamped lines, optionally filtered by tag.
package console

import (
	"bufio"
	"context"
	"io"
	"strings"
	"time"
)

// Line is one parsed log line. Lines without a "[tag]" prefix have an
// empty Tag.
type Line struct {
	Time time.Time
	Tag  string
	Text string
}

// ParseLine splits "[tag] text" into its tag and text
func ParseLine(s string) Line {
	s = strings.TrimRight(s, "\r\n")
	if strings.HasPrefix(s, "[") {
		if end := strings.IndexByte(s, ']'); end > 0 {
			return Line{Tag: s[1:end], Text: strings.TrimPrefix(s[end+1:], " ")}
		}
	}
	return Line{Text: s}
}

// Format renders the line for the log file
func (l Line) Format() string {
	ts := l.Time.Format("2006-01-02T15:04:05.000")
	if l.Tag == "" {
		return ts + " " + l.Text
	}
	return ts + " [" + l.Tag + "] " + l.Text
}

// Filter selects lines by tag. An empty filter passes everything.
type Filter struct {
	tags map[string]bool
}

// NewFilter builds a filter from a comma separated tag list
func NewFilter(list string) *Filter {
	f := &Filter{tags: make(map[string]bool)}
	for _, tag := range strings.Split(list, ",") {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag != "" {
			f.tags[tag] = true
		}
	}
	return f
}

// Match reports whether the line passes the filter
func (f *Filter) Match(l Line) bool {
	if f == nil || len(f.tags) == 0 {
		return true
	}
	return f.tags[strings.ToLower(l.Tag)]
}

// Pump copies lines from r to w until ctx is cancelled or r fails.
// Serial read timeouts (0 bytes, no error) are retried. It returns the
// number of lines written.
func Pump(ctx context.Context, r io.Reader, w io.Writer, f *Filter, now func() time.Time) (int, error) {
	scanner := bufio.NewScanner(&retryReader{ctx: ctx, r: r})
	written := 0
	for scanner.Scan() {
		line := ParseLine(scanner.Text())
		if line.Tag == "" && line.Text == "" {
			continue
		}
		if !f.Match(line) {
			continue
		}
		line.Time = now()
		if _, err := io.WriteString(w, line.Format()+"\n"); err != nil {
			return written, err
		}
		written++
	}

	err := scanner.Err()
	if err == nil || err == context.Canceled {
		return written, nil
	}
	return written, err
}

// retryReader turns empty timed-out reads into a wait for data
type retryReader struct {
	ctx context.Context
	r   io.Reader
}

func (rr *retryReader) Read(p []byte) (int, error) {
	for {
		if err := rr.ctx.Err(); err != nil {
			return 0, err
		}
		n, err := rr.r.Read(p)
		if n > 0 || err != nil {
			return n, err
		}
	}
}
