// Package profile provides a snapshot source over the Go runtime: each
// sample captures memory, goroutine, and GC state, plus per-size-class
// allocation activity since the previous sample. It implements live.Source
// and is the measurement side of the live reporting pipeline.
package profile

import (
	"fmt"
	"runtime"
	"runtime/metrics"
	"sort"
	"sync"
	"time"

	"github.com/liveprof/liveprof/live"
)

// DefaultTopN is the number of allocation rows kept per snapshot when the
// caller does not specify one.
const DefaultTopN = 15

// Runtime metric names read on every sample.
const (
	metricGoroutines = "/sched/goroutines:goroutines"
	metricGCCycles   = "/gc/cycles/total:gc-cycles"
	metricMutexWait  = "/sync/mutex/wait/total:seconds"
)

// Stats is an immutable snapshot of the runtime at a point in time. Values
// are copied out of the runtime on each sample; a Stats is never mutated
// after it is returned.
type Stats struct {
	Taken       time.Time
	Uptime      time.Duration
	Goroutines  int
	HeapInUse   uint64 // bytes in in-use heap spans
	HeapObjects uint64 // live objects on the heap
	TotalAlloc  uint64 // cumulative bytes allocated
	AllocDelta  uint64 // bytes allocated since the previous sample
	GCCycles    uint64
	GCPause     time.Duration // cumulative stop-the-world pause
	MutexWait   time.Duration // cumulative time goroutines spent blocked on mutexes
	Rows        []Row         // hottest allocation size classes, share-sorted
}

// Row describes allocation activity in one heap size class since the
// previous sample.
type Row struct {
	SizeClass uint32  // object size class in bytes
	Mallocs   uint64  // cumulative mallocs in this class
	Delta     uint64  // mallocs since the previous sample
	Share     float64 // fraction of all mallocs since the previous sample, 0..1
}

// Sampler implements live.Source over the Go runtime. It keeps the previous
// sample's counters so each snapshot carries deltas, and is safe for the
// engine's loop-then-final-sample handoff.
type Sampler struct {
	topN  int
	start time.Time

	mu      sync.Mutex
	samples []metrics.Sample
	prev    []uint64 // previous cumulative mallocs per size class
	prevAll uint64   // previous TotalAlloc
}

// NewSampler creates a Sampler keeping at most topN allocation rows per
// snapshot. topN <= 0 selects DefaultTopN.
func NewSampler(topN int) *Sampler {
	if topN <= 0 {
		topN = DefaultTopN
	}
	return &Sampler{
		topN:  topN,
		start: time.Now(),
		samples: []metrics.Sample{
			{Name: metricGoroutines},
			{Name: metricGCCycles},
			{Name: metricMutexWait},
		},
	}
}

// Sample implements live.Source.
func (s *Sampler) Sample() (live.Snapshot, error) {
	return s.Stats()
}

// Stats captures one snapshot of the runtime.
func (s *Sampler) Stats() (*Stats, error) {
	taken := time.Now()

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	s.mu.Lock()
	defer s.mu.Unlock()

	metrics.Read(s.samples)

	var goroutines, gcCycles uint64
	var mutexWait time.Duration
	for _, sample := range s.samples {
		if sample.Value.Kind() == metrics.KindBad {
			return nil, fmt.Errorf("profile: runtime metric %s unsupported", sample.Name)
		}
		switch sample.Name {
		case metricGoroutines:
			goroutines = sample.Value.Uint64()
		case metricGCCycles:
			gcCycles = sample.Value.Uint64()
		case metricMutexWait:
			mutexWait = time.Duration(sample.Value.Float64() * float64(time.Second))
		}
	}

	if s.prev == nil {
		s.prev = make([]uint64, len(ms.BySize))
	}

	rows := make([]Row, 0, len(ms.BySize))
	var deltaTotal uint64
	for i, class := range ms.BySize {
		delta := class.Mallocs - s.prev[i]
		s.prev[i] = class.Mallocs
		if delta == 0 {
			continue
		}
		deltaTotal += delta
		rows = append(rows, Row{
			SizeClass: class.Size,
			Mallocs:   class.Mallocs,
			Delta:     delta,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Delta != rows[j].Delta {
			return rows[i].Delta > rows[j].Delta
		}
		return rows[i].SizeClass < rows[j].SizeClass
	})
	if len(rows) > s.topN {
		rows = rows[:s.topN]
	}
	if deltaTotal > 0 {
		for i := range rows {
			rows[i].Share = float64(rows[i].Delta) / float64(deltaTotal)
		}
	}

	allocDelta := ms.TotalAlloc - s.prevAll
	s.prevAll = ms.TotalAlloc

	return &Stats{
		Taken:       taken,
		Uptime:      taken.Sub(s.start),
		Goroutines:  int(goroutines),
		HeapInUse:   ms.HeapInuse,
		HeapObjects: ms.HeapObjects,
		TotalAlloc:  ms.TotalAlloc,
		AllocDelta:  allocDelta,
		GCCycles:    gcCycles,
		GCPause:     time.Duration(ms.PauseTotalNs),
		MutexWait:   mutexWait,
		Rows:        rows,
	}, nil
}
