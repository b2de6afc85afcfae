package sink

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"

	"github.com/liveprof/liveprof/live"
)

// ANSI cursor control used for in-place frame replacement.
const clearLine = "\r\033[K"

func cursorUp(n int) string {
	return fmt.Sprintf("\033[%dA", n)
}

// Live replaces the previously pushed frame in place using ANSI cursor
// movement, producing a single updating block on the terminal. When the
// output is not a terminal it degrades to append-style output so redirected
// runs stay readable.
type Live struct {
	mu       sync.Mutex
	w        io.Writer
	inPlace  bool
	prevRows int
}

// NewLive creates a live sink on f, enabling in-place updates only when f
// is a terminal.
func NewLive(f *os.File) *Live {
	return &Live{w: f, inPlace: term.IsTerminal(int(f.Fd()))}
}

// NewLiveWriter creates a live sink on an arbitrary writer with in-place
// updating forced on or off.
func NewLiveWriter(w io.Writer, inPlace bool) *Live {
	return &Live{w: w, inPlace: inPlace}
}

// InPlace reports whether the sink replaces frames in place.
func (s *Live) InPlace() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inPlace
}

// Push implements live.Sink.
func (s *Live) Push(content live.Content) error {
	frame, err := frameOf(content)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var b strings.Builder
	if s.inPlace && s.prevRows > 0 {
		b.WriteString(cursorUp(s.prevRows))
	}
	for _, line := range frame.Lines {
		if s.inPlace {
			b.WriteString(clearLine)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if s.inPlace {
		// A shorter frame leaves stale rows from the previous one; blank
		// them and move back so the next push starts in the right place.
		if extra := s.prevRows - len(frame.Lines); extra > 0 {
			for i := 0; i < extra; i++ {
				b.WriteString(clearLine)
				b.WriteByte('\n')
			}
			b.WriteString(cursorUp(extra))
		}
	} else {
		b.WriteByte('\n')
	}
	s.prevRows = len(frame.Lines)

	_, err = io.WriteString(s.w, b.String())
	return err
}
