// Package sink provides display sinks for rendered frames: an in-place
// terminal sink for live updating, an append sink for log-style output, a
// final-only filter, and a websocket stream for remote viewers. All sinks
// accept *render.Frame content; the engine stays mode-agnostic and the mode
// is chosen purely by which sink is constructed.
package sink

import (
	"fmt"

	"github.com/liveprof/liveprof/live"
	"github.com/liveprof/liveprof/render"
)

// frameOf asserts pushed content to the frame type sinks in this package
// display.
func frameOf(content live.Content) (*render.Frame, error) {
	frame, ok := content.(*render.Frame)
	if !ok {
		return nil, fmt.Errorf("sink: unsupported content type %T", content)
	}
	return frame, nil
}
