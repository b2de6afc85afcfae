package sink

import (
	"errors"

	"github.com/liveprof/liveprof/live"
)

// Multi fans a pushed frame out to every wrapped sink. Each sink sees
// every frame even when an earlier one fails; failures are joined.
type Multi struct {
	sinks []live.Sink
}

// NewMulti returns a sink that pushes to each of sinks in order.
func NewMulti(sinks ...live.Sink) *Multi {
	return &Multi{sinks: sinks}
}

// Push implements live.Sink.
func (m *Multi) Push(content live.Content) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Push(content); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
