package sim

import (
	"bytes"
	"strings"
)

// LogFeed is an io.Writer that turns log output into a channel of lines for
// display. Lines are dropped when the reader falls behind.
type LogFeed struct {
	ch chan string
}

// NewLogFeed creates a feed buffering up to size lines.
func NewLogFeed(size int) *LogFeed {
	if size <= 0 {
		size = 10
	}
	return &LogFeed{ch: make(chan string, size)}
}

// Write splits p into lines and queues each non-empty one.
func (f *LogFeed) Write(p []byte) (int, error) {
	for _, line := range bytes.Split(p, []byte("\n")) {
		s := strings.TrimSpace(string(line))
		if s == "" {
			continue
		}
		select {
		case f.ch <- s:
		default:
			// Drop if channel full
		}
	}
	return len(p), nil
}

// Lines returns the channel of log lines.
func (f *LogFeed) Lines() <-chan string {
	return f.ch
}
