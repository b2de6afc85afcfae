package sink

import (
	"io"
	"strings"
	"sync"

	"github.com/liveprof/liveprof/live"
)

// Append writes each frame as a block of lines followed by a blank
// separator line. Every push produces a new visible entry, which suits log
// files, pipes, and terminals without cursor control.
type Append struct {
	mu sync.Mutex
	w  io.Writer
}

// NewAppend creates an append sink writing to w.
func NewAppend(w io.Writer) *Append {
	return &Append{w: w}
}

// Push implements live.Sink.
func (s *Append) Push(content live.Content) error {
	frame, err := frameOf(content)
	if err != nil {
		return err
	}

	var b strings.Builder
	for _, line := range frame.Lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = io.WriteString(s.w, b.String())
	return err
}
