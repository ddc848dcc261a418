package proposal

import (
	"runtime"
	"sync"
)

// minParallelRows is the input size below which fan-out overhead exceeds
// the per-row work and processing stays on the calling goroutine.
const minParallelRows = 2048

// parallelFor splits n units of work into contiguous partitions and
// processes them concurrently. workers bounds the goroutine count; zero or
// less means one per CPU core. Partitions never overlap, so fn may write
// disjoint row ranges without locking, and results cannot depend on the
// worker count.
func parallelFor(n, workers int, fn func(start, end int)) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	// Small inputs run serially.
	if n < minParallelRows || workers == 1 {
		fn(0, n)
		return
	}
	if workers > n {
		workers = n
	}

	partSize := n / workers

	var wg sync.WaitGroup
	wg.Add(workers)

	for i := 0; i < workers; i++ {
		partStart := i * partSize
		partEnd := partStart + partSize

		// Last partition gets any remaining data.
		if i == workers-1 {
			partEnd = n
		}

		go func(start, end int) {
			defer wg.Done()
			fn(start, end)
		}(partStart, partEnd)
	}

	wg.Wait()
}
