package profile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// churn allocates enough objects that the next sample must observe malloc
// activity.
func churn() [][]byte {
	buf := make([][]byte, 0, 4096)
	for i := 0; i < 4096; i++ {
		buf = append(buf, make([]byte, 64+i%512))
	}
	return buf
}

func TestSampler_Snapshot(t *testing.T) {
	t.Parallel()

	s := NewSampler(10)
	first, err := s.Stats()
	require.NoError(t, err)

	keep := churn()
	second, err := s.Stats()
	require.NoError(t, err)
	_ = keep

	assert.Greater(t, second.Uptime, first.Uptime)
	assert.False(t, second.Taken.Before(first.Taken))
	assert.GreaterOrEqual(t, second.TotalAlloc, first.TotalAlloc)
	assert.GreaterOrEqual(t, second.GCCycles, first.GCCycles)
	assert.Positive(t, second.Goroutines)
	assert.Positive(t, second.HeapInUse)

	// The churn between samples must show up as allocation activity.
	assert.Positive(t, second.AllocDelta)
	require.NotEmpty(t, second.Rows)
}

func TestSampler_RowsAreShareSortedAndBounded(t *testing.T) {
	t.Parallel()

	s := NewSampler(5)
	_, err := s.Stats()
	require.NoError(t, err)

	keep := churn()
	stats, err := s.Stats()
	require.NoError(t, err)
	_ = keep

	require.NotEmpty(t, stats.Rows)
	assert.LessOrEqual(t, len(stats.Rows), 5)

	var total float64
	for i, row := range stats.Rows {
		assert.Positive(t, row.Delta)
		assert.GreaterOrEqual(t, row.Share, 0.0)
		assert.LessOrEqual(t, row.Share, 1.0)
		total += row.Share
		if i > 0 {
			assert.LessOrEqual(t, row.Delta, stats.Rows[i-1].Delta)
		}
	}
	// Rows are a top-N slice of all activity, so shares sum to at most 1.
	assert.LessOrEqual(t, total, 1.0+1e-9)
}

func TestSampler_DefaultTopN(t *testing.T) {
	t.Parallel()

	s := NewSampler(0)
	assert.Equal(t, DefaultTopN, s.topN)

	s = NewSampler(-3)
	assert.Equal(t, DefaultTopN, s.topN)
}

func TestSampler_SampleReturnsStats(t *testing.T) {
	t.Parallel()

	s := NewSampler(3)
	snap, err := s.Sample()
	require.NoError(t, err)

	stats, ok := snap.(*Stats)
	require.True(t, ok)
	assert.WithinDuration(t, time.Now(), stats.Taken, time.Minute)
}

func TestSampler_ConcurrentSamples(t *testing.T) {
	t.Parallel()

	s := NewSampler(8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			_, err := s.Stats()
			assert.NoError(t, err)
		}
	}()
	for i := 0; i < 50; i++ {
		_, err := s.Stats()
		require.NoError(t, err)
	}
	<-done
}
