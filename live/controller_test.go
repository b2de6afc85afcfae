package live

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// frame is the content produced by the stub renderer: the snapshot sequence
// number plus the final flag, enough to reconstruct push ordering.
type frame struct {
	seq   int
	final bool
}

// countingSource returns successive sequence numbers as snapshots. failOn
// makes a specific call (1-based) return an error.
type countingSource struct {
	mu     sync.Mutex
	calls  int
	failOn int
}

func (s *countingSource) Sample() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.failOn != 0 && s.calls == s.failOn {
		return nil, errors.New("sampler broke")
	}
	return s.calls - 1, nil
}

// markingRenderer wraps the snapshot in a frame. failAlways injects a
// render error on every call.
type markingRenderer struct {
	failAlways bool
}

func (r *markingRenderer) Render(snap Snapshot, final bool) (Content, error) {
	if r.failAlways {
		return nil, errors.New("renderer broke")
	}
	return frame{seq: snap.(int), final: final}, nil
}

// recordingSink records pushed frames in order. failRunning fails every
// non-final push; failFinal fails the final push.
type recordingSink struct {
	mu          sync.Mutex
	pushes      []frame
	failRunning bool
	failFinal   bool
}

func (s *recordingSink) Push(content Content) error {
	f := content.(frame)
	s.mu.Lock()
	defer s.mu.Unlock()
	if f.final && s.failFinal {
		return errors.New("display broke")
	}
	if !f.final && s.failRunning {
		return errors.New("display broke")
	}
	s.pushes = append(s.pushes, f)
	return nil
}

func (s *recordingSink) recorded() []frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]frame, len(s.pushes))
	copy(out, s.pushes)
	return out
}

// recordingErrors collects reported cycle failures.
type recordingErrors struct {
	mu   sync.Mutex
	errs []error
}

func (e *recordingErrors) Report(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.errs = append(e.errs, err)
}

func (e *recordingErrors) reported() []error {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]error, len(e.errs))
	copy(out, e.errs)
	return out
}

// harness bundles a controller with its stub collaborators.
type harness struct {
	ctrl   *Controller
	source *countingSource
	sink   *recordingSink
	errs   *recordingErrors
}

func newHarness(t *testing.T, interval time.Duration) *harness {
	t.Helper()
	h := &harness{
		source: &countingSource{},
		sink:   &recordingSink{},
		errs:   &recordingErrors{},
	}
	ctrl, err := New(Options{
		Interval: interval,
		Source:   h.source,
		Renderer: &markingRenderer{},
		Sink:     h.sink,
		Errors:   h.errs,
	})
	require.NoError(t, err)
	h.ctrl = ctrl
	return h
}

func TestNew_OptionValidation(t *testing.T) {
	t.Parallel()

	source := &countingSource{}
	renderer := &markingRenderer{}
	sink := &recordingSink{}
	errs := &recordingErrors{}

	tests := []struct {
		name  string
		opts  Options
		field string
	}{
		{
			name:  "zero interval",
			opts:  Options{Source: source, Renderer: renderer, Sink: sink, Errors: errs},
			field: "Interval",
		},
		{
			name:  "negative interval",
			opts:  Options{Interval: -time.Second, Source: source, Renderer: renderer, Sink: sink, Errors: errs},
			field: "Interval",
		},
		{
			name:  "missing source",
			opts:  Options{Interval: time.Second, Renderer: renderer, Sink: sink, Errors: errs},
			field: "Source",
		},
		{
			name:  "missing renderer",
			opts:  Options{Interval: time.Second, Source: source, Sink: sink, Errors: errs},
			field: "Renderer",
		},
		{
			name:  "missing sink",
			opts:  Options{Interval: time.Second, Source: source, Renderer: renderer, Errors: errs},
			field: "Sink",
		},
		{
			name:  "missing error sink",
			opts:  Options{Interval: time.Second, Source: source, Renderer: renderer, Sink: sink},
			field: "Errors",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctrl, err := New(tt.opts)
			assert.Nil(t, ctrl)

			var optErr OptionError
			require.ErrorAs(t, err, &optErr)
			assert.Equal(t, tt.field, optErr.Field)
		})
	}
}

func TestController_StartTwice(t *testing.T) {
	t.Parallel()

	h := newHarness(t, time.Hour)
	require.NoError(t, h.ctrl.Start())

	err := h.ctrl.Start()
	var stateErr *InvalidStateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, "start", stateErr.Op)
	assert.Equal(t, StateRunning, stateErr.State)

	require.NoError(t, h.ctrl.Stop())
}

func TestController_StopBeforeStart(t *testing.T) {
	t.Parallel()

	h := newHarness(t, time.Hour)
	err := h.ctrl.Stop()

	var stateErr *InvalidStateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, "stop", stateErr.Op)
	assert.Equal(t, StateNotStarted, stateErr.State)
	assert.Empty(t, h.sink.recorded())
}

func TestController_StartAfterComplete(t *testing.T) {
	t.Parallel()

	h := newHarness(t, time.Hour)
	require.NoError(t, h.ctrl.Start())
	require.NoError(t, h.ctrl.Stop())

	err := h.ctrl.Start()
	var stateErr *InvalidStateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, StateComplete, stateErr.State)
}

func TestController_StopIsIdempotent(t *testing.T) {
	t.Parallel()

	h := newHarness(t, time.Hour)
	require.NoError(t, h.ctrl.Start())
	require.NoError(t, h.ctrl.Stop())

	// Defensive double cleanup must be a no-op, not a second final push.
	require.NoError(t, h.ctrl.Stop())

	finals := 0
	for _, f := range h.sink.recorded() {
		if f.final {
			finals++
		}
	}
	assert.Equal(t, 1, finals)
}

func TestController_StateTransitions(t *testing.T) {
	t.Parallel()

	h := newHarness(t, time.Hour)
	assert.Equal(t, StateNotStarted, h.ctrl.State())

	require.NoError(t, h.ctrl.Start())
	assert.Equal(t, StateRunning, h.ctrl.State())

	require.NoError(t, h.ctrl.Stop())
	assert.Equal(t, StateComplete, h.ctrl.State())
}

func TestController_ImmediateStopStillPushes(t *testing.T) {
	t.Parallel()

	// Zero elapsed intervals: the terminal push alone guarantees at least
	// one push, with exactly one final.
	h := newHarness(t, time.Hour)
	require.NoError(t, h.ctrl.Start())
	require.NoError(t, h.ctrl.Stop())

	pushes := h.sink.recorded()
	require.NotEmpty(t, pushes)
	last := pushes[len(pushes)-1]
	assert.True(t, last.final)
	for _, f := range pushes[:len(pushes)-1] {
		assert.False(t, f.final)
	}
}

func TestController_TerminalPushFailureSurfaces(t *testing.T) {
	t.Parallel()

	h := newHarness(t, time.Hour)
	h.sink.failFinal = true

	require.NoError(t, h.ctrl.Start())
	err := h.ctrl.Stop()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "final push")
}

func TestController_TerminalSampleFailureSurfaces(t *testing.T) {
	t.Parallel()

	source := &countingSource{}
	sink := &recordingSink{}
	errs := &recordingErrors{}
	ctrl, err := New(Options{
		Interval: time.Hour,
		Source:   source,
		Renderer: &markingRenderer{},
		Sink:     sink,
		Errors:   errs,
	})
	require.NoError(t, err)

	require.NoError(t, ctrl.Start())
	// The loop's prompt first cycle consumes call 1 (or not, depending on
	// scheduling); fail every call from now on so the terminal sample
	// fails regardless.
	source.mu.Lock()
	source.failOn = source.calls + 1
	source.mu.Unlock()

	stopErr := ctrl.Stop()
	if stopErr == nil {
		// The loop may have consumed the failing call itself; in that
		// case the failure was reported as a cycle error instead.
		assert.NotEmpty(t, errs.reported())
		return
	}
	assert.Contains(t, stopErr.Error(), "final sample")
}

func TestController_Run(t *testing.T) {
	t.Parallel()

	t.Run("stops on success", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, time.Hour)

		require.NoError(t, h.ctrl.Run(func() error { return nil }))
		assert.Equal(t, StateComplete, h.ctrl.State())

		pushes := h.sink.recorded()
		require.NotEmpty(t, pushes)
		assert.True(t, pushes[len(pushes)-1].final)
	})

	t.Run("stops on error and returns it", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, time.Hour)

		boom := errors.New("workload failed")
		err := h.ctrl.Run(func() error { return boom })
		assert.ErrorIs(t, err, boom)

		// The final update still happened on the error path.
		assert.Equal(t, StateComplete, h.ctrl.State())
		pushes := h.sink.recorded()
		require.NotEmpty(t, pushes)
		assert.True(t, pushes[len(pushes)-1].final)
	})

	t.Run("surfaces terminal push failure when fn succeeds", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, time.Hour)
		h.sink.failFinal = true

		err := h.ctrl.Run(func() error { return nil })
		require.Error(t, err)
		assert.Contains(t, err.Error(), "final push")
	})

	t.Run("workload error wins over terminal failure", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, time.Hour)
		h.sink.failFinal = true

		boom := errors.New("workload failed")
		err := h.ctrl.Run(func() error { return boom })
		assert.ErrorIs(t, err, boom)
	})
}

func TestInvalidStateError_Message(t *testing.T) {
	t.Parallel()

	err := &InvalidStateError{Op: "start", State: StateRunning}
	assert.Equal(t, "live: cannot start controller in state running", err.Error())
}

func TestState_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "not-started", StateNotStarted.String())
	assert.Equal(t, "running", StateRunning.String())
	assert.Equal(t, "complete", StateComplete.String())
	assert.Equal(t, "unknown", State(42).String())
}

func TestOptionError_Message(t *testing.T) {
	t.Parallel()

	err := OptionError{Field: "Interval", Message: "must be positive"}
	assert.Equal(t, "live: invalid option Interval: must be positive", err.Error())
}
