package live

import (
	"fmt"
	"sync"
	"time"
)

// State is the lifecycle state of a Controller.
type State int

const (
	// StateNotStarted is the initial state; Start has not been called.
	StateNotStarted State = iota
	// StateRunning means the update loop is active.
	StateRunning
	// StateComplete is terminal; the final update has been (or is being)
	// pushed and no further updates may occur.
	StateComplete
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not-started"
	case StateRunning:
		return "running"
	case StateComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Options configures a Controller. Every field is required; this layer
// supplies no defaults. Convenience entry points that want defaults must
// fill them in before calling New.
type Options struct {
	// Interval is how often the update loop pushes a fresh snapshot.
	Interval time.Duration
	// Source produces snapshots of the monitored operation.
	Source Source
	// Renderer turns snapshots into displayable content.
	Renderer Renderer
	// Sink receives rendered content.
	Sink Sink
	// Errors receives non-fatal failures from update cycles.
	Errors ErrorSink
}

func (o Options) validate() error {
	if o.Interval <= 0 {
		return OptionError{Field: "Interval", Message: "must be positive"}
	}
	if o.Source == nil {
		return OptionError{Field: "Source", Message: "is required"}
	}
	if o.Renderer == nil {
		return OptionError{Field: "Renderer", Message: "is required"}
	}
	if o.Sink == nil {
		return OptionError{Field: "Sink", Message: "is required"}
	}
	if o.Errors == nil {
		return OptionError{Field: "Errors", Message: "is required"}
	}
	return nil
}

// Controller owns the lifecycle of one live-reporting session. It drives
// the update loop while the monitored operation runs and performs the
// single terminal update when the operation completes.
//
// A Controller is single-use: once it reaches StateComplete it cannot be
// restarted. Create a new Controller for each monitored operation.
type Controller struct {
	opts Options

	mu    sync.Mutex
	state State

	halt chan struct{} // closed by Stop; level-triggered halt signal
	done chan struct{} // closed by the loop goroutine on exit
}

// New creates a Controller in StateNotStarted. It returns an OptionError if
// any required option is missing or invalid.
func New(opts Options) (*Controller, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return &Controller{
		opts: opts,
		halt: make(chan struct{}),
		done: make(chan struct{}),
	}, nil
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start transitions the controller to StateRunning and spawns the update
// loop. It returns immediately. Calling Start in any state other than
// StateNotStarted returns an *InvalidStateError.
func (c *Controller) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateNotStarted {
		return &InvalidStateError{Op: "start", State: c.state}
	}
	c.state = StateRunning
	go c.loop()
	return nil
}

// Stop completes the session: it marks the controller complete, halts the
// update loop, waits for it to quiesce, and then pushes one final rendered
// snapshot. It returns only after the terminal content has been handed to
// the sink, and surfaces any failure on that terminal path.
//
// Stop is idempotent after completion: a second call is a no-op returning
// nil, so deferred cleanup may run after an earlier explicit Stop. Calling
// Stop before Start returns an *InvalidStateError.
func (c *Controller) Stop() error {
	c.mu.Lock()
	switch c.state {
	case StateNotStarted:
		c.mu.Unlock()
		return &InvalidStateError{Op: "stop", State: StateNotStarted}
	case StateComplete:
		c.mu.Unlock()
		return nil
	}
	// The ordering below is the correctness mechanism: the state write
	// happens under the mutex before the halt signal, and the loop
	// re-checks state under the same mutex before every push. Once the
	// done channel closes the loop can issue no further pushes, so the
	// terminal push is strictly last.
	c.state = StateComplete
	c.mu.Unlock()

	close(c.halt)
	<-c.done

	return c.pushFinal()
}

// Run executes fn under live reporting: Start, then fn, then Stop on every
// exit path, including an error or panic escaping fn. fn's error takes
// precedence; if fn succeeds, a terminal-update failure is returned.
func (c *Controller) Run(fn func() error) (err error) {
	if err := c.Start(); err != nil {
		return err
	}
	defer func() {
		stopErr := c.Stop()
		if err == nil {
			err = stopErr
		}
	}()
	return fn()
}

// pushFinal performs the single terminal sample-render-push. Unlike
// steady-state cycles there is no later cycle to fall back to, so every
// failure is returned to the caller of Stop.
func (c *Controller) pushFinal() error {
	snap, err := c.opts.Source.Sample()
	if err != nil {
		return fmt.Errorf("final sample: %w", err)
	}
	content, err := c.opts.Renderer.Render(snap, true)
	if err != nil {
		return fmt.Errorf("final render: %w", err)
	}
	if err := c.opts.Sink.Push(content); err != nil {
		return fmt.Errorf("final push: %w", err)
	}
	return nil
}
