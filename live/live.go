package live

// Snapshot is an opaque, immutable value describing the measured state of
// the monitored operation at a point in time. The engine never inspects it;
// it flows from Source to Renderer unchanged.
type Snapshot interface{}

// Content is an opaque, immutable renderable value derived from a Snapshot.
// Ownership transfers to the Sink on push; the engine does not retain it.
type Content interface{}

// Source produces snapshots of the monitored operation on demand.
//
// Sample is called from the update loop's goroutine while the controller is
// running, and once more from the stopping goroutine for the final update.
// It must be safe for that handoff and should return quickly relative to the
// configured interval.
type Source interface {
	Sample() (Snapshot, error)
}

// Renderer converts a snapshot into displayable content. final is true for
// exactly one render per controller lifetime: the terminal update performed
// by Stop.
type Renderer interface {
	Render(snap Snapshot, final bool) (Content, error)
}

// Sink accepts content and makes it visible. Implementations may replace
// the previous content in place or append; the engine guarantees pushes
// from one controller are strictly ordered and never concurrent.
type Sink interface {
	Push(content Content) error
}

// ErrorSink receives non-fatal failures from update cycles. Implementations
// must not panic; reporting is a side channel and must never destabilize
// the operation being observed.
type ErrorSink interface {
	Report(err error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func() (Snapshot, error)

// Sample calls f.
func (f SourceFunc) Sample() (Snapshot, error) { return f() }

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(snap Snapshot, final bool) (Content, error)

// Render calls f.
func (f RendererFunc) Render(snap Snapshot, final bool) (Content, error) { return f(snap, final) }

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(content Content) error

// Push calls f.
func (f SinkFunc) Push(content Content) error { return f(content) }

// ErrorSinkFunc adapts a function to the ErrorSink interface.
type ErrorSinkFunc func(err error)

// Report calls f.
func (f ErrorSinkFunc) Report(err error) { f(err) }
