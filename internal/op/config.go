package op

import (
	"io"
	"runtime"

	"github.com/rs/zerolog"
)

// Config controls kernel execution. It replaces the process-wide
// environment-variable knobs of the surrounding training scripts with an
// explicit value passed at operator construction; kernels hold no other
// state across calls.
type Config struct {
	// Workers bounds intra-kernel goroutine fan-out. Zero or one means
	// sequential execution.
	Workers int
	// BlockSize is the key/value tile size for streamed attention kernels.
	// Zero means the kernel default.
	BlockSize int
	// Deterministic forces a fixed reduction order inside kernels so that
	// repeated invocations are bit-identical.
	Deterministic bool
	// Logger receives registration and kernel-failure events.
	Logger zerolog.Logger
}

// DefaultConfig returns a config suitable for tests and single-node use.
func DefaultConfig() Config {
	return Config{
		Workers:       runtime.NumCPU(),
		BlockSize:     64,
		Deterministic: false,
		Logger:        zerolog.New(io.Discard),
	}
}
