// Package live implements the synchronization engine behind live progress
// reporting: a background loop that samples the state of a running operation
// at a fixed interval and pushes rendered snapshots to a display sink, plus
// the completion protocol that guarantees the final snapshot is pushed
// exactly once and is never overwritten by a stale in-flight update.
//
// The engine is deliberately agnostic about what is being measured and how
// it is displayed. Callers supply three collaborators: a Source that
// produces snapshots, a Renderer that turns a snapshot into displayable
// content, and a Sink that makes content visible. A fourth collaborator,
// ErrorSink, receives non-fatal failures from individual update cycles.
//
// Typical use goes through the scoped form, which guarantees the final
// update on every exit path:
//
//	ctrl, err := live.New(live.Options{
//		Interval: 100 * time.Millisecond,
//		Source:   sampler,
//		Renderer: table,
//		Sink:     terminal,
//		Errors:   errs,
//	})
//	if err != nil {
//		return err
//	}
//	err = ctrl.Run(func() error {
//		return doExpensiveWork()
//	})
package live
