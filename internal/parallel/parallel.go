// Package parallel provides the goroutine fan-out used inside kernels.
//
// Kernels parallelize only across independent slices of work (for attention,
// the batch×head planes), so concurrent invocations on separate goroutines
// never share mutable state.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls fan-out behavior.
type Config struct {
	Workers  int // Number of worker goroutines. Zero or one means sequential.
	MinChunk int // Minimum items per goroutine to avoid spawn overhead.
}

// DefaultConfig returns a config sized to the machine.
func DefaultConfig() Config {
	return Config{
		Workers:  runtime.NumCPU(),
		MinChunk: 1,
	}
}

// For executes f(i) for i in [0, n). Each index must touch disjoint data;
// the order in which indices run is unspecified.
func For(n int, cfg Config, f func(i int)) {
	if cfg.Workers <= 1 || n <= cfg.MinChunk {
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}

	chunk := (n + cfg.Workers - 1) / cfg.Workers
	if chunk < cfg.MinChunk {
		chunk = cfg.MinChunk
	}

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				f(i)
			}
		}(start, end)
	}
	wg.Wait()
}

// ForPlanes fans out over batch×heads planes, the common attention pattern.
func ForPlanes(batch, heads int, cfg Config, f func(b, h int)) {
	For(batch*heads, cfg, func(k int) {
		f(k/heads, k%heads)
	})
}
