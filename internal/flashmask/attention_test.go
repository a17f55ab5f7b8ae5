package flashmask

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tensorfuse/tensorfuse/internal/op"
	"github.com/tensorfuse/tensorfuse/internal/quant"
	"github.com/tensorfuse/tensorfuse/internal/tensor"
)

// testConfig keeps kernel runs deterministic and single-threaded so failures
// reproduce exactly.
func testConfig() op.Config {
	cfg := op.DefaultConfig()
	cfg.Deterministic = true
	cfg.BlockSize = 3 // Small enough to force multiple blocks per row
	return cfg
}

func randSlice(rng *rand.Rand, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = rng.Float32()*2 - 1
	}
	return out
}

func attnTensors(t *testing.T, d attnDims, rng *rand.Rand) (qt, kt, vt *tensor.RawTensor, q, k, v []float32) {
	t.Helper()
	q = randSlice(rng, d.batch*d.seqLen*d.heads*d.headDim)
	k = randSlice(rng, d.batch*d.kvLen*d.heads*d.headDim)
	v = randSlice(rng, d.batch*d.kvLen*d.heads*d.headDim)

	var err error
	qt, err = tensor.FromFloat32(q, tensor.Shape{d.batch, d.seqLen, d.heads, d.headDim})
	require.NoError(t, err)
	kt, err = tensor.FromFloat32(k, tensor.Shape{d.batch, d.kvLen, d.heads, d.headDim})
	require.NoError(t, err)
	vt, err = tensor.FromFloat32(v, tensor.Shape{d.batch, d.kvLen, d.heads, d.headDim})
	require.NoError(t, err)
	return qt, kt, vt, q, k, v
}

// fullMaskTensor opens every row's window to the whole key range.
func fullMaskTensor(t *testing.T, d attnDims) *tensor.RawTensor {
	t.Helper()
	windows := make([]int32, d.batch*d.seqLen*2)
	for i := 0; i < len(windows); i += 2 {
		windows[i] = 0
		windows[i+1] = int32(d.kvLen)
	}
	return maskTensor(t, windows, d.batch, 1, d.seqLen)
}

func seedTensor(t *testing.T, seed, offset int64) *tensor.RawTensor {
	t.Helper()
	s, err := tensor.FromInt64([]int64{seed, offset}, tensor.Shape{2})
	require.NoError(t, err)
	return s
}

// referenceAttention is a dense float64 oracle for the forward pass and its
// gradients: full softmax per row, no blocking, no online rescaling.
func referenceAttention(q, k, v, dout []float32, d attnDims, mask *RowMask, drop dropoutStream, causal bool) (out, lse, dq, dk, dv []float32) {
	out = make([]float32, len(q))
	lse = make([]float32, d.batch*d.heads*d.seqLen)
	dq = make([]float32, len(q))
	dk = make([]float32, len(k))
	dv = make([]float32, len(v))
	scale := float64(d.scale())
	hd := d.headDim

	for b := 0; b < d.batch; b++ {
		for h := 0; h < d.heads; h++ {
			for qi := 0; qi < d.seqLen; qi++ {
				start, end := mask.Window(b, h, qi)
				if causal && qi+1 < end {
					end = qi + 1
				}
				qOff := d.qAt(b, qi, h)

				if end <= start {
					lse[d.lseAt(b, h, qi)] = float32(math.Inf(-1))
					continue
				}

				scores := make([]float64, end-start)
				factors := make([]float64, end-start)
				maxScore := math.Inf(-1)
				for j := start; j < end; j++ {
					kvOff := d.kvAt(b, j, h)
					var s float64
					for dd := 0; dd < hd; dd++ {
						s += float64(q[qOff+dd]) * float64(k[kvOff+dd])
					}
					scores[j-start] = scale * s
					factors[j-start] = float64(drop.factor(dropIndex(d, b, h, qi, j)))
					maxScore = math.Max(maxScore, scores[j-start])
				}

				var sumExp float64
				acc := make([]float64, hd)
				for j := start; j < end; j++ {
					e := math.Exp(scores[j-start] - maxScore)
					sumExp += e
					kvOff := d.kvAt(b, j, h)
					for dd := 0; dd < hd; dd++ {
						acc[dd] += factors[j-start] * e * float64(v[kvOff+dd])
					}
				}
				rowLSE := maxScore + math.Log(sumExp)
				lse[d.lseAt(b, h, qi)] = float32(rowLSE)
				for dd := 0; dd < hd; dd++ {
					out[qOff+dd] = float32(acc[dd] / sumExp)
				}

				var bigD float64
				for dd := 0; dd < hd; dd++ {
					bigD += float64(dout[qOff+dd]) * float64(out[qOff+dd])
				}
				for j := start; j < end; j++ {
					kvOff := d.kvAt(b, j, h)
					p := math.Exp(scores[j-start] - rowLSE)
					m := factors[j-start]
					var dP float64
					for dd := 0; dd < hd; dd++ {
						dP += float64(dout[qOff+dd]) * float64(v[kvOff+dd])
					}
					dP *= m
					dS := p * (dP - bigD)
					for dd := 0; dd < hd; dd++ {
						dv[kvOff+dd] += float32(p * m * float64(dout[qOff+dd]))
						dq[qOff+dd] += float32(scale * dS * float64(k[kvOff+dd]))
						dk[kvOff+dd] += float32(scale * dS * float64(q[qOff+dd]))
					}
				}
			}
		}
	}
	return out, lse, dq, dk, dv
}

func TestForwardMatchesDenseReference(t *testing.T) {
	d := attnDims{batch: 2, seqLen: 5, kvLen: 6, heads: 2, headDim: 4}
	rng := rand.New(rand.NewSource(1))
	qt, kt, vt, q, k, v := attnTensors(t, d, rng)

	// Varied but valid per-row windows.
	windows := make([]int32, d.batch*d.seqLen*2)
	for r := 0; r < d.batch*d.seqLen; r++ {
		start := int32(r % 3)
		windows[2*r] = start
		windows[2*r+1] = start + 1 + int32(r%int(int32(d.kvLen)-start))
	}
	maskT := maskTensor(t, windows, d.batch, 1, d.seqLen)
	seedT := seedTensor(t, 7, 0)

	outT, lseT, err := Forward(qt, kt, vt, maskT, seedT, 0, false, testConfig())
	require.NoError(t, err)

	mask, err := NewRowMask(maskT, OpForward, d.batch, d.heads, d.seqLen, d.kvLen)
	require.NoError(t, err)
	dout := make([]float32, len(q))
	wantOut, wantLSE, _, _, _ := referenceAttention(q, k, v, dout, d, mask, newDropoutStream(7, 0, 0), false)

	assert.Equal(t, tensor.Shape{d.batch, d.heads, d.seqLen}, lseT.Shape())
	for i, want := range wantOut {
		assert.InDelta(t, want, outT.AsFloat32()[i], 1e-5, "out[%d]", i)
	}
	for i, want := range wantLSE {
		assert.InDelta(t, want, lseT.AsFloat32()[i], 1e-5, "lse[%d]", i)
	}
}

func TestForwardCausalIgnoresFutureKeys(t *testing.T) {
	d := attnDims{batch: 1, seqLen: 4, kvLen: 4, heads: 1, headDim: 3}
	rng := rand.New(rand.NewSource(2))
	qt, kt, vt, q, k, v := attnTensors(t, d, rng)
	maskT := fullMaskTensor(t, d)
	seedT := seedTensor(t, 1, 0)

	outT, _, err := Forward(qt, kt, vt, maskT, seedT, 0, true, testConfig())
	require.NoError(t, err)

	// The causal result must equal the reference restricted to j <= qi.
	mask, err := NewRowMask(maskT, OpForward, d.batch, d.heads, d.seqLen, d.kvLen)
	require.NoError(t, err)
	wantOut, _, _, _, _ := referenceAttention(q, k, v, make([]float32, len(q)), d, mask, newDropoutStream(1, 0, 0), true)
	for i, want := range wantOut {
		assert.InDelta(t, want, outT.AsFloat32()[i], 1e-5, "out[%d]", i)
	}

	// Row 0 attends only to key 0, so its output is exactly v[0].
	for dd := 0; dd < d.headDim; dd++ {
		assert.InDelta(t, v[dd], outT.AsFloat32()[dd], 1e-6)
	}
}

func TestForwardEmptyRowYieldsZeroAndNegInfLSE(t *testing.T) {
	d := attnDims{batch: 1, seqLen: 2, kvLen: 4, heads: 1, headDim: 2}
	rng := rand.New(rand.NewSource(3))
	qt, kt, vt, _, _, _ := attnTensors(t, d, rng)

	// Row 0's window starts past the causal frontier, so the intersection is
	// empty; the window itself is still valid.
	maskT := maskTensor(t, []int32{2, 4, 0, 4}, 1, 1, 2)
	seedT := seedTensor(t, 1, 0)

	outT, lseT, err := Forward(qt, kt, vt, maskT, seedT, 0, true, testConfig())
	require.NoError(t, err)

	out := outT.AsFloat32()
	assert.Equal(t, float32(0), out[0])
	assert.Equal(t, float32(0), out[1])
	assert.True(t, math.IsInf(float64(lseT.AsFloat32()[0]), -1))
	assert.False(t, math.IsInf(float64(lseT.AsFloat32()[1]), -1))
}

func TestBackwardMatchesDenseReference(t *testing.T) {
	d := attnDims{batch: 2, seqLen: 5, kvLen: 6, heads: 2, headDim: 4}
	rng := rand.New(rand.NewSource(4))
	qt, kt, vt, q, k, v := attnTensors(t, d, rng)

	windows := make([]int32, d.batch*d.seqLen*2)
	for r := 0; r < d.batch*d.seqLen; r++ {
		windows[2*r] = int32(r % 2)
		windows[2*r+1] = int32(d.kvLen - r%2)
	}
	maskT := maskTensor(t, windows, d.batch, 1, d.seqLen)
	seedT := seedTensor(t, 11, 3)

	for _, causal := range []bool{false, true} {
		outT, lseT, err := Forward(qt, kt, vt, maskT, seedT, 0, causal, testConfig())
		require.NoError(t, err)

		dout := randSlice(rng, len(q))
		doutT, err := tensor.FromFloat32(dout, qt.Shape())
		require.NoError(t, err)

		dqT, dkT, dvT, err := Backward(qt, kt, vt, maskT, outT, lseT, seedT, doutT, 0, causal, testConfig())
		require.NoError(t, err)

		mask, err := NewRowMask(maskT, OpBackward, d.batch, d.heads, d.seqLen, d.kvLen)
		require.NoError(t, err)
		_, _, wantDQ, wantDK, wantDV := referenceAttention(q, k, v, dout, d, mask, newDropoutStream(11, 3, 0), causal)

		for i := range wantDQ {
			assert.InDelta(t, wantDQ[i], dqT.AsFloat32()[i], 1e-4, "causal=%v dq[%d]", causal, i)
		}
		for i := range wantDK {
			assert.InDelta(t, wantDK[i], dkT.AsFloat32()[i], 1e-4, "causal=%v dk[%d]", causal, i)
		}
		for i := range wantDV {
			assert.InDelta(t, wantDV[i], dvT.AsFloat32()[i], 1e-4, "causal=%v dv[%d]", causal, i)
		}
	}
}

// Central-difference check of dQ against the forward pass with loss
// L = sum(out), i.e. dO = ones.
func TestBackwardFiniteDifference(t *testing.T) {
	d := attnDims{batch: 1, seqLen: 3, kvLen: 3, heads: 1, headDim: 2}
	rng := rand.New(rand.NewSource(5))
	qt, kt, vt, q, _, _ := attnTensors(t, d, rng)
	maskT := fullMaskTensor(t, d)
	seedT := seedTensor(t, 1, 0)
	cfg := testConfig()

	outT, lseT, err := Forward(qt, kt, vt, maskT, seedT, 0, false, cfg)
	require.NoError(t, err)

	doutT, err := tensor.Ones(qt.Shape())
	require.NoError(t, err)
	dqT, _, _, err := Backward(qt, kt, vt, maskT, outT, lseT, seedT, doutT, 0, false, cfg)
	require.NoError(t, err)

	loss := func(data []float32) float64 {
		pq, err := tensor.FromFloat32(data, qt.Shape())
		require.NoError(t, err)
		o, _, err := Forward(pq, kt, vt, maskT, seedT, 0, false, cfg)
		require.NoError(t, err)
		var sum float64
		for _, x := range o.AsFloat32() {
			sum += float64(x)
		}
		return sum
	}

	const eps = 1e-2
	for i := range q {
		bumped := make([]float32, len(q))
		copy(bumped, q)
		bumped[i] += eps
		plus := loss(bumped)
		bumped[i] -= 2 * eps
		minus := loss(bumped)

		want := (plus - minus) / (2 * eps)
		assert.InDelta(t, want, dqT.AsFloat32()[i], 2e-3, "dq[%d]", i)
	}
}

func TestBackwardDropoutReplayIsDeterministic(t *testing.T) {
	d := attnDims{batch: 1, seqLen: 4, kvLen: 5, heads: 2, headDim: 4}
	rng := rand.New(rand.NewSource(6))
	qt, kt, vt, _, _, _ := attnTensors(t, d, rng)
	maskT := fullMaskTensor(t, d)
	seedT := seedTensor(t, 99, 5)
	const dropout = 0.5

	outT, lseT, err := Forward(qt, kt, vt, maskT, seedT, dropout, false, testConfig())
	require.NoError(t, err)

	doutT, err := tensor.Ones(qt.Shape())
	require.NoError(t, err)

	dq1, dk1, dv1, err := Backward(qt, kt, vt, maskT, outT, lseT, seedT, doutT, dropout, false, testConfig())
	require.NoError(t, err)
	dq2, dk2, dv2, err := Backward(qt, kt, vt, maskT, outT, lseT, seedT, doutT, dropout, false, testConfig())
	require.NoError(t, err)

	assert.Equal(t, dq1.AsFloat32(), dq2.AsFloat32())
	assert.Equal(t, dk1.AsFloat32(), dk2.AsFloat32())
	assert.Equal(t, dv1.AsFloat32(), dv2.AsFloat32())

	// A different seed must (with overwhelming probability) change the mask
	// and therefore the gradients.
	otherSeed := seedTensor(t, 100, 5)
	out2, lse2, err := Forward(qt, kt, vt, maskT, otherSeed, dropout, false, testConfig())
	require.NoError(t, err)
	dq3, _, _, err := Backward(qt, kt, vt, maskT, out2, lse2, otherSeed, doutT, dropout, false, testConfig())
	require.NoError(t, err)
	assert.NotEqual(t, dq1.AsFloat32(), dq3.AsFloat32())
}

func TestBackwardDropoutMatchesReference(t *testing.T) {
	d := attnDims{batch: 1, seqLen: 4, kvLen: 4, heads: 1, headDim: 3}
	rng := rand.New(rand.NewSource(7))
	qt, kt, vt, q, k, v := attnTensors(t, d, rng)
	maskT := fullMaskTensor(t, d)
	seedT := seedTensor(t, 21, 2)
	const dropout = 0.25

	outT, lseT, err := Forward(qt, kt, vt, maskT, seedT, dropout, false, testConfig())
	require.NoError(t, err)

	dout := randSlice(rng, len(q))
	doutT, err := tensor.FromFloat32(dout, qt.Shape())
	require.NoError(t, err)

	dqT, dkT, dvT, err := Backward(qt, kt, vt, maskT, outT, lseT, seedT, doutT, dropout, false, testConfig())
	require.NoError(t, err)

	mask, err := NewRowMask(maskT, OpBackward, d.batch, d.heads, d.seqLen, d.kvLen)
	require.NoError(t, err)
	drop := newDropoutStream(21, 2, dropout)
	wantOut, _, wantDQ, wantDK, wantDV := referenceAttention(q, k, v, dout, d, mask, drop, false)

	for i := range wantOut {
		assert.InDelta(t, wantOut[i], outT.AsFloat32()[i], 1e-5, "out[%d]", i)
	}
	for i := range wantDQ {
		assert.InDelta(t, wantDQ[i], dqT.AsFloat32()[i], 1e-4, "dq[%d]", i)
	}
	for i := range wantDK {
		assert.InDelta(t, wantDK[i], dkT.AsFloat32()[i], 1e-4, "dk[%d]", i)
	}
	for i := range wantDV {
		assert.InDelta(t, wantDV[i], dvT.AsFloat32()[i], 1e-4, "dv[%d]", i)
	}
}

// With dO = ones, per-row softmax-gradient cancellation pins the gradient
// sums: when every q and k row sums to the same constant, sum(dQ) and
// sum(dK) are zero, and sum(dV) equals the number of attended rows times
// headDim regardless of the data.
func TestBackwardGradientSums(t *testing.T) {
	d := attnDims{batch: 1, seqLen: 4, kvLen: 4, heads: 1, headDim: 8}
	rng := rand.New(rand.NewSource(8))

	constRowSum := func(n int) []float32 {
		data := randSlice(rng, n)
		for r := 0; r < n/d.headDim; r++ {
			row := data[r*d.headDim : (r+1)*d.headDim]
			var sum float32
			for _, x := range row[:d.headDim-1] {
				sum += x
			}
			row[d.headDim-1] = 1 - sum // every row sums to 1
		}
		return data
	}

	q := constRowSum(d.seqLen * d.headDim)
	k := constRowSum(d.kvLen * d.headDim)
	v := randSlice(rng, d.kvLen*d.headDim)

	qt, err := tensor.FromFloat32(q, tensor.Shape{1, d.seqLen, 1, d.headDim})
	require.NoError(t, err)
	kt, err := tensor.FromFloat32(k, tensor.Shape{1, d.kvLen, 1, d.headDim})
	require.NoError(t, err)
	vt, err := tensor.FromFloat32(v, tensor.Shape{1, d.kvLen, 1, d.headDim})
	require.NoError(t, err)
	maskT := fullMaskTensor(t, d)
	seedT := seedTensor(t, 1, 0)

	outT, lseT, err := Forward(qt, kt, vt, maskT, seedT, 0, false, testConfig())
	require.NoError(t, err)
	doutT, err := tensor.Ones(qt.Shape())
	require.NoError(t, err)

	dqT, dkT, dvT, err := Backward(qt, kt, vt, maskT, outT, lseT, seedT, doutT, 0, false, testConfig())
	require.NoError(t, err)

	sum := func(xs []float32) float64 {
		var s float64
		for _, x := range xs {
			s += float64(x)
		}
		return s
	}

	assert.InDelta(t, 0, sum(dqT.AsFloat32()), 1e-4)
	assert.InDelta(t, 0, sum(dkT.AsFloat32()), 1e-4)
	assert.InDelta(t, float64(d.seqLen*d.headDim), sum(dvT.AsFloat32()), 1e-4)
}

func TestBackwardCausalZeroesFutureKeyGradients(t *testing.T) {
	// One query row, four keys, fully open window: with causal masking only
	// key 0 participates, so dk/dv for keys 1..3 are exactly zero.
	d := attnDims{batch: 1, seqLen: 1, kvLen: 4, heads: 1, headDim: 3}
	rng := rand.New(rand.NewSource(13))
	qt, kt, vt, _, _, _ := attnTensors(t, d, rng)
	maskT := fullMaskTensor(t, d)
	seedT := seedTensor(t, 1, 0)

	outT, lseT, err := Forward(qt, kt, vt, maskT, seedT, 0, true, testConfig())
	require.NoError(t, err)
	doutT, err := tensor.Ones(qt.Shape())
	require.NoError(t, err)

	_, dkT, dvT, err := Backward(qt, kt, vt, maskT, outT, lseT, seedT, doutT, 0, true, testConfig())
	require.NoError(t, err)

	for _, g := range []*tensor.RawTensor{dkT, dvT} {
		vals := g.AsFloat32()
		for i := d.headDim; i < len(vals); i++ {
			assert.Equal(t, float32(0), vals[i], "key %d", i/d.headDim)
		}
	}
}

func TestBackwardSkipsEmptyRows(t *testing.T) {
	d := attnDims{batch: 1, seqLen: 2, kvLen: 4, heads: 1, headDim: 2}
	rng := rand.New(rand.NewSource(9))
	qt, kt, vt, _, _, _ := attnTensors(t, d, rng)
	maskT := maskTensor(t, []int32{2, 4, 0, 4}, 1, 1, 2)
	seedT := seedTensor(t, 1, 0)

	outT, lseT, err := Forward(qt, kt, vt, maskT, seedT, 0, true, testConfig())
	require.NoError(t, err)
	doutT, err := tensor.Ones(qt.Shape())
	require.NoError(t, err)

	dqT, _, _, err := Backward(qt, kt, vt, maskT, outT, lseT, seedT, doutT, 0, true, testConfig())
	require.NoError(t, err)

	dq := dqT.AsFloat32()
	assert.Equal(t, float32(0), dq[0], "empty row contributes no gradient")
	assert.Equal(t, float32(0), dq[1])
}

func TestMaskHeadBroadcastEquivalence(t *testing.T) {
	d := attnDims{batch: 1, seqLen: 3, kvLen: 4, heads: 2, headDim: 2}
	rng := rand.New(rand.NewSource(10))
	qt, kt, vt, _, _, _ := attnTensors(t, d, rng)
	seedT := seedTensor(t, 1, 0)

	single := []int32{0, 4, 1, 3, 2, 4}
	broadcast := maskTensor(t, single, 1, 1, 3)
	replicated := maskTensor(t, append(append([]int32{}, single...), single...), 1, 2, 3)

	out1, lse1, err := Forward(qt, kt, vt, broadcast, seedT, 0, false, testConfig())
	require.NoError(t, err)
	out2, lse2, err := Forward(qt, kt, vt, replicated, seedT, 0, false, testConfig())
	require.NoError(t, err)

	assert.Equal(t, out1.AsFloat32(), out2.AsFloat32())
	assert.Equal(t, lse1.AsFloat32(), lse2.AsFloat32())
}

func TestFloat16PathPreservesDtype(t *testing.T) {
	d := attnDims{batch: 1, seqLen: 2, kvLen: 2, heads: 1, headDim: 4}
	rng := rand.New(rand.NewSource(11))
	shapeQ := tensor.Shape{1, d.seqLen, 1, d.headDim}
	shapeKV := tensor.Shape{1, d.kvLen, 1, d.headDim}

	toF16 := func(vals []float32, shape tensor.Shape) *tensor.RawTensor {
		raw, err := quant.Quantize(vals, shape, tensor.Float16, nil, "test_op", "")
		require.NoError(t, err)
		return raw
	}
	qt := toF16(randSlice(rng, d.seqLen*d.headDim), shapeQ)
	kt := toF16(randSlice(rng, d.kvLen*d.headDim), shapeKV)
	vt := toF16(randSlice(rng, d.kvLen*d.headDim), shapeKV)
	maskT := fullMaskTensor(t, d)
	seedT := seedTensor(t, 1, 0)

	outT, lseT, err := Forward(qt, kt, vt, maskT, seedT, 0, false, testConfig())
	require.NoError(t, err)
	assert.Equal(t, tensor.Float16, outT.DType())
	assert.Equal(t, tensor.Float32, lseT.DType(), "statistic stays full precision")

	doutT := toF16(randSlice(rng, d.seqLen*d.headDim), shapeQ)
	dqT, dkT, dvT, err := Backward(qt, kt, vt, maskT, outT, lseT, seedT, doutT, 0, false, testConfig())
	require.NoError(t, err)
	assert.Equal(t, tensor.Float16, dqT.DType())
	assert.Equal(t, tensor.Float16, dkT.DType())
	assert.Equal(t, tensor.Float16, dvT.DType())
}

func TestForwardRejectsBadInputs(t *testing.T) {
	d := attnDims{batch: 1, seqLen: 2, kvLen: 2, heads: 1, headDim: 2}
	rng := rand.New(rand.NewSource(12))
	qt, kt, vt, _, _, _ := attnTensors(t, d, rng)
	maskT := fullMaskTensor(t, d)
	seedT := seedTensor(t, 1, 0)
	cfg := testConfig()

	// Mismatched k/v shapes.
	badV, err := tensor.Zeros(tensor.Shape{1, 3, 1, 2}, tensor.Float32)
	require.NoError(t, err)
	_, _, err = Forward(qt, kt, badV, maskT, seedT, 0, false, cfg)
	assert.ErrorIs(t, err, op.ErrShapeMismatch)

	// Dropout outside [0, 1).
	_, _, err = Forward(qt, kt, vt, maskT, seedT, 1, false, cfg)
	assert.ErrorIs(t, err, op.ErrInvalidAttribute)
	_, _, err = Forward(qt, kt, vt, maskT, seedT, -0.1, false, cfg)
	assert.ErrorIs(t, err, op.ErrInvalidAttribute)

	// Empty mask window.
	badMask := maskTensor(t, []int32{0, 2, 1, 1}, 1, 1, 2)
	_, _, err = Forward(qt, kt, vt, badMask, seedT, 0, false, cfg)
	assert.ErrorIs(t, err, op.ErrInvalidMask)

	// Malformed seed_offset.
	badSeed, err := tensor.FromInt64([]int64{1}, tensor.Shape{1})
	require.NoError(t, err)
	_, _, err = Forward(qt, kt, vt, maskT, badSeed, 0, false, cfg)
	assert.ErrorIs(t, err, op.ErrInvalidAttribute)

	// Unsupported compute dtype.
	intQ, err := tensor.FromInt32([]int32{1, 2, 3, 4}, qt.Shape())
	require.NoError(t, err)
	_, _, err = Forward(intQ, kt, vt, maskT, seedT, 0, false, cfg)
	assert.ErrorIs(t, err, op.ErrInvalidAttribute)
}
