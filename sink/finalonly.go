package sink

import "github.com/liveprof/liveprof/live"

// FinalOnly forwards only the terminal frame to the wrapped sink, dropping
// every running-phase push. Useful when intermediate updates are noise and
// only the completed result should be shown.
type FinalOnly struct {
	next live.Sink
}

// NewFinalOnly wraps next so that only final frames reach it.
func NewFinalOnly(next live.Sink) *FinalOnly {
	return &FinalOnly{next: next}
}

// Push implements live.Sink.
func (s *FinalOnly) Push(content live.Content) error {
	frame, err := frameOf(content)
	if err != nil {
		return err
	}
	if !frame.Final {
		return nil
	}
	return s.next.Push(content)
}
