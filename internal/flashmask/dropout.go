package flashmask

// dropoutStream reproduces the forward pass's dropout mask from the
// seed/offset pair. The mask for position (b, h, qi, kj) is a pure function
// of (seed, offset, linear index), so the backward invocation replays it
// bit-for-bit without any state carried between the two calls.
type dropoutStream struct {
	seed   uint64
	offset uint64
	p      float32
	scale  float32 // 1/(1-p) applied to kept positions
}

func newDropoutStream(seed, offset int64, p float32) dropoutStream {
	var scale float32 = 1
	if p > 0 {
		scale = 1 / (1 - p)
	}
	//nolint:gosec // seed/offset are opaque bit patterns, sign is irrelevant
	return dropoutStream{seed: uint64(seed), offset: uint64(offset), p: p, scale: scale}
}

// enabled reports whether dropout does anything at all.
func (d dropoutStream) enabled() bool {
	return d.p > 0
}

// factor returns the multiplier for one attention probability: 0 when the
// position is dropped, 1/(1-p) when kept, 1 when dropout is disabled.
func (d dropoutStream) factor(index uint64) float32 {
	if d.p <= 0 {
		return 1
	}
	x := splitmix64(d.seed + 0x9e3779b97f4a7c15*(d.offset+index+1))
	// Top 53 bits as a uniform in [0, 1).
	u := float64(x>>11) * 0x1p-53
	if u < float64(d.p) {
		return 0
	}
	return d.scale
}

// splitmix64 is the finalizer of the SplitMix64 generator; a cheap
// stateless bijection used as a counter-based random stream.
func splitmix64(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
