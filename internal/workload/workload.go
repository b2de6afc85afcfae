// Package workload provides synthetic workloads for the run command, so the
// live reporting pipeline can be demonstrated against something that
// actually burns CPU and churns the heap.
package workload

import (
	"context"
	"crypto/sha256"
	"fmt"
	"math/rand"
	"sort"
	"time"
)

// batch sizes chosen so each inner step finishes in well under a
// millisecond, keeping cancellation responsive.
const (
	hashRounds = 64
	allocBatch = 512
	sortLen    = 4096
	keepWindow = 64
)

// Names lists the available workloads.
func Names() []string {
	return []string{"cpu", "alloc", "sort", "mixed"}
}

// Run executes the named workload until d elapses or ctx is cancelled.
// Cancellation returns ctx.Err().
func Run(ctx context.Context, name string, d time.Duration) error {
	deadline := time.Now().Add(d)
	switch name {
	case "cpu":
		return run(ctx, deadline, hashStep())
	case "alloc":
		return run(ctx, deadline, allocStep())
	case "sort":
		return run(ctx, deadline, sortStep())
	case "mixed":
		steps := []func(){hashStep(), allocStep(), sortStep()}
		i := 0
		return run(ctx, deadline, func() {
			steps[i%len(steps)]()
			i++
		})
	default:
		return fmt.Errorf("workload: unknown workload %q", name)
	}
}

// run invokes step repeatedly until the deadline passes or ctx is
// cancelled.
func run(ctx context.Context, deadline time.Time, step func()) error {
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		step()
	}
	return nil
}

func hashStep() func() {
	buf := make([]byte, 8192)
	for i := range buf {
		buf[i] = byte(rand.Intn(256))
	}
	return func() {
		for i := 0; i < hashRounds; i++ {
			sum := sha256.Sum256(buf)
			copy(buf, sum[:])
		}
	}
}

func allocStep() func() {
	keep := make([][]byte, 0, keepWindow)
	return func() {
		for i := 0; i < allocBatch; i++ {
			b := make([]byte, 16+rand.Intn(2048))
			if len(keep) < keepWindow {
				keep = append(keep, b)
			} else {
				keep[rand.Intn(keepWindow)] = b
			}
		}
	}
}

func sortStep() func() {
	return func() {
		nums := make([]int, sortLen)
		for i := range nums {
			nums[i] = rand.Int()
		}
		sort.Ints(nums)
	}
}
