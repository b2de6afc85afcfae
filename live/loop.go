package live

import (
	"fmt"
	"time"
)

// loop is the update loop. It runs on its own goroutine from Start until
// the halt channel closes or a state re-check observes completion, and
// closes done on the way out so Stop can wait for quiescence.
func (c *Controller) loop() {
	defer close(c.done)

	// Push a first frame promptly so the surface shows something before
	// the first interval elapses.
	if !c.cycle() {
		return
	}

	ticker := time.NewTicker(c.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.halt:
			// Level-triggered: observed immediately whether the loop
			// was already blocked here or arrives later. Exit without
			// pushing.
			return
		case <-ticker.C:
			if !c.cycle() {
				return
			}
		}
	}
}

// cycle performs one sample-render-push pass. It returns false once the
// controller has left StateRunning, which means no further pushes may be
// composed by this goroutine.
//
// The state re-check happens after the wake, immediately before composing
// the push; together with the mutex in Stop this orders every steady-state
// push before the terminal one.
func (c *Controller) cycle() bool {
	c.mu.Lock()
	running := c.state == StateRunning
	c.mu.Unlock()
	if !running {
		return false
	}

	// Collaborator failures are reported and the cycle is skipped; a
	// reporting side channel must never abort the operation it observes.
	snap, err := c.opts.Source.Sample()
	if err != nil {
		c.opts.Errors.Report(fmt.Errorf("sample: %w", err))
		return true
	}
	content, err := c.opts.Renderer.Render(snap, false)
	if err != nil {
		c.opts.Errors.Report(fmt.Errorf("render: %w", err))
		return true
	}
	if err := c.opts.Sink.Push(content); err != nil {
		c.opts.Errors.Report(fmt.Errorf("push: %w", err))
	}
	return true
}
