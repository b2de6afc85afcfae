package sink

import (
	"github.com/liveprof/liveprof/internal/logging"
	"github.com/liveprof/liveprof/live"
)

// NewLogErrors returns an error sink that reports update-cycle failures
// through log at warn level. Reporting must never panic, so a nil logger
// falls back to the package default.
func NewLogErrors(log *logging.Logger) live.ErrorSink {
	return live.ErrorSinkFunc(func(err error) {
		if log == nil {
			logging.Warn("update cycle failed", "err", err)
			return
		}
		log.Warn("update cycle failed", "err", err)
	})
}
