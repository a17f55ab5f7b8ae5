package flashmask

import (
	"math"

	"github.com/tensorfuse/tensorfuse/internal/op"
	"github.com/tensorfuse/tensorfuse/internal/parallel"
	"github.com/tensorfuse/tensorfuse/internal/quant"
	"github.com/tensorfuse/tensorfuse/internal/tensor"
)

// rowAccum accumulates one query row's attention output with the online
// softmax recurrence, never materializing the full score row.
//
// Dropout multiplies individual weighted-value contributions but not the
// normalizer: O_i = (sum_j m_ij exp(s_ij - max) v_j) / sum_j exp(s_ij - max).
type rowAccum struct {
	maxVal float32
	sumExp float32
	acc    []float32
}

func newRowAccum(headDim int) *rowAccum {
	return &rowAccum{
		maxVal: float32(math.Inf(-1)),
		acc:    make([]float32, headDim),
	}
}

func (r *rowAccum) reset() {
	r.maxVal = float32(math.Inf(-1))
	r.sumExp = 0
	for i := range r.acc {
		r.acc[i] = 0
	}
}

// update folds in one block of scores with their value rows and dropout
// factors.
func (r *rowAccum) update(scores, factors []float32, values []float32, headDim int) {
	blockMax := float32(math.Inf(-1))
	for _, s := range scores {
		if s > blockMax {
			blockMax = s
		}
	}

	newMax := max(r.maxVal, blockMax)
	correction := float32(math.Exp(float64(r.maxVal - newMax)))
	r.sumExp *= correction
	for i := range r.acc {
		r.acc[i] *= correction
	}

	for i, s := range scores {
		e := float32(math.Exp(float64(s - newMax)))
		r.sumExp += e
		if f := factors[i]; f != 0 {
			w := f * e
			vRow := values[i*headDim : (i+1)*headDim]
			for d := range vRow {
				r.acc[d] += w * vRow[d]
			}
		}
	}
	r.maxVal = newMax
}

// finish writes the normalized output row and returns the log-sum-exp
// statistic. A row that attended to nothing yields zeros and -inf.
func (r *rowAccum) finish(out []float32) float32 {
	if r.sumExp == 0 {
		for i := range out {
			out[i] = 0
		}
		return float32(math.Inf(-1))
	}
	for i := range out {
		out[i] = r.acc[i] / r.sumExp
	}
	return r.maxVal + float32(math.Log(float64(r.sumExp)))
}

// Forward runs masked flash attention and produces the output tensor plus
// the per-row log-sum-exp statistic [batch, heads, seq] the backward pass
// consumes.
func Forward(qt, kt, vt, maskT, seedT *tensor.RawTensor, dropout float32, causal bool, cfg op.Config) (*tensor.RawTensor, *tensor.RawTensor, error) {
	dims, drop, mask, err := prepare(OpForward, qt, kt, vt, maskT, seedT, dropout)
	if err != nil {
		return nil, nil, err
	}

	q, err := quant.Dequantize(qt, nil, OpForward, "q")
	if err != nil {
		return nil, nil, err
	}
	k, err := quant.Dequantize(kt, nil, OpForward, "k")
	if err != nil {
		return nil, nil, err
	}
	v, err := quant.Dequantize(vt, nil, OpForward, "v")
	if err != nil {
		return nil, nil, err
	}

	out := make([]float32, len(q))
	lse := make([]float32, dims.batch*dims.heads*dims.seqLen)
	scale := dims.scale()
	blockSize := cfg.BlockSize
	if blockSize <= 0 {
		blockSize = 64
	}

	parallel.ForPlanes(dims.batch, dims.heads, planeConfig(cfg), func(b, h int) {
		scores := make([]float32, blockSize)
		factors := make([]float32, blockSize)
		values := make([]float32, blockSize*dims.headDim)
		accum := newRowAccum(dims.headDim)

		for qi := 0; qi < dims.seqLen; qi++ {
			accum.reset()
			qRow := q[dims.qAt(b, qi, h) : dims.qAt(b, qi, h)+dims.headDim]

			start, end := mask.Window(b, h, qi)
			if causal && qi+1 < end {
				end = qi + 1
			}

			for blockStart := start; blockStart < end; blockStart += blockSize {
				blockEnd := min(blockStart+blockSize, end)
				n := blockEnd - blockStart
				for i := 0; i < n; i++ {
					j := blockStart + i
					kRow := k[dims.kvAt(b, j, h) : dims.kvAt(b, j, h)+dims.headDim]
					scores[i] = scale * dot(qRow, kRow)
					factors[i] = drop.factor(dropIndex(dims, b, h, qi, j))
					copy(values[i*dims.headDim:(i+1)*dims.headDim],
						v[dims.kvAt(b, j, h):dims.kvAt(b, j, h)+dims.headDim])
				}
				accum.update(scores[:n], factors[:n], values[:n*dims.headDim], dims.headDim)
			}

			outRow := out[dims.qAt(b, qi, h) : dims.qAt(b, qi, h)+dims.headDim]
			lse[dims.lseAt(b, h, qi)] = accum.finish(outRow)
		}
	})

	outT, err := quant.Quantize(out, qt.Shape(), qt.DType(), nil, OpForward, "out")
	if err != nil {
		return nil, nil, err
	}
	lseT, err := tensor.FromFloat32(lse, dims.lseShape())
	if err != nil {
		return nil, nil, err
	}
	return outT, lseT, nil
}

// prepare runs the precondition checks shared by forward and backward and
// decodes the mask and dropout stream.
func prepare(opName string, qt, kt, vt, maskT, seedT *tensor.RawTensor, dropout float32) (attnDims, dropoutStream, *RowMask, error) {
	dims, err := checkQKVShapes(opName, qt.Shape(), kt.Shape(), vt.Shape())
	if err != nil {
		return attnDims{}, dropoutStream{}, nil, err
	}
	if err := checkDropout(opName, dropout); err != nil {
		return attnDims{}, dropoutStream{}, nil, err
	}
	for _, in := range []struct {
		name string
		t    *tensor.RawTensor
	}{{"q", qt}, {"k", kt}, {"v", vt}} {
		if err := checkAttnDtype(opName, in.name, in.t.DType()); err != nil {
			return attnDims{}, dropoutStream{}, nil, err
		}
	}
	if kt.DType() != qt.DType() || vt.DType() != qt.DType() {
		return attnDims{}, dropoutStream{}, nil, op.Errorf(opName, "k", op.ErrShapeMismatch,
			"q/k/v dtypes differ: %s/%s/%s", qt.DType(), kt.DType(), vt.DType())
	}

	mask, err := NewRowMask(maskT, opName, dims.batch, dims.heads, dims.seqLen, dims.kvLen)
	if err != nil {
		return attnDims{}, dropoutStream{}, nil, err
	}

	if seedT.DType() != tensor.Int64 || seedT.NumElements() != 2 {
		return attnDims{}, dropoutStream{}, nil, op.Errorf(opName, "seed_offset", op.ErrInvalidAttribute,
			"seed_offset must be 2 int64 values, got %s %v", seedT.DType(), seedT.Shape())
	}
	so := seedT.AsInt64()
	drop := newDropoutStream(so[0], so[1], dropout)

	return dims, drop, mask, nil
}

// dropIndex is the linear counter feeding the dropout stream; forward and
// backward must agree on it exactly.
func dropIndex(d attnDims, b, h, qi, kj int) uint64 {
	//nolint:gosec // dims are validated positive
	return uint64(((b*d.heads+h)*d.seqLen+qi)*d.kvLen + kj)
}

// planeConfig derives the fan-out config for batch×head planes.
func planeConfig(cfg op.Config) parallel.Config {
	workers := cfg.Workers
	if cfg.Deterministic {
		workers = 1
	}
	return parallel.Config{Workers: workers, MinChunk: 1}
}
