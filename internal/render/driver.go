// Package render implements the per-block thread pool: for one block,
// it fans rows out to a fixed set of goroutines in a row-strided
// interleaving and joins them before returning, via
// golang.org/x/sync/errgroup.
package render

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// MinThreads and MaxThreads bound the thread count: it defaults to the
// online processor count, clamped to [1, 512].
const (
	MinThreads = 1
	MaxThreads = 512
)

// ClampThreads applies the [1, 512] bound, defaulting to the host's
// processor count when requested is 0.
func ClampThreads(requested int) uint {
	n := requested
	if n == 0 {
		n = runtime.NumCPU()
	}
	if n < MinThreads {
		n = MinThreads
	}
	if n > MaxThreads {
		n = MaxThreads
	}
	return uint(n)
}

// RowFunc computes and writes one row of a block, identified by its local
// row index within the block (0-based).
type RowFunc func(localRow uint) error

// RunBlock spawns `threads` goroutines, thread t processing local rows
// t, t+threads, t+2*threads, ... of activeRows, and joins all of them
// before returning. Within a row, compute is expected to iterate all
// columns sequentially.
//
// No shared mutable state is touched here beyond what compute itself
// writes, and compute is only ever invoked for disjoint row indices
// across goroutines, so the fan-out is race-free without locks.
func RunBlock(ctx context.Context, threads uint, activeRows uint, compute RowFunc) error {
	if threads == 0 {
		threads = 1
	}
	if threads > activeRows {
		threads = activeRows
	}
	if threads == 0 {
		return nil
	}

	g, _ := errgroup.WithContext(ctx)

	for t := uint(0); t < threads; t++ {
		ordinal := t
		g.Go(func() error {
			for row := ordinal; row < activeRows; row += threads {
				if err := compute(row); err != nil {
					return fmt.Errorf("render: row %d: %w", row, err)
				}
			}
			return nil
		})
	}

	return g.Wait()
}
