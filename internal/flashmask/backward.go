package flashmask

import (
	"math"

	"github.com/tensorfuse/tensorfuse/internal/op"
	"github.com/tensorfuse/tensorfuse/internal/parallel"
	"github.com/tensorfuse/tensorfuse/internal/quant"
	"github.com/tensorfuse/tensorfuse/internal/tensor"
)

// Backward recovers dQ/dK/dV from the forward pass's captured values.
//
// Per query row i it recomputes the softmax probabilities from Q, K and the
// log-sum-exp statistic (P_ij = exp(scale*q_i.k_j - L_i)), restricted to the
// row's mask window intersected with the causal window, replays the dropout
// mask from seed/offset, and applies the attention backward recurrences:
//
//	D_i   = dO_i . O_i
//	dP_ij = m_ij (dO_i . v_j)
//	dS_ij = P_ij (dP_ij - D_i)
//	dV_j += P_ij m_ij dO_i
//	dQ_i += scale * dS_ij k_j
//	dK_j += scale * dS_ij q_i
//
// All reductions accumulate in float32 regardless of the input dtype. The
// kernel holds no state across calls; everything it needs from the forward
// pass arrives as explicit tensors.
func Backward(qt, kt, vt, maskT, outT, lseT, seedT, doutT *tensor.RawTensor, dropout float32, causal bool, cfg op.Config) (*tensor.RawTensor, *tensor.RawTensor, *tensor.RawTensor, error) {
	dims, drop, mask, err := prepare(OpBackward, qt, kt, vt, maskT, seedT, dropout)
	if err != nil {
		return nil, nil, nil, err
	}
	if !outT.Shape().Equal(qt.Shape()) {
		return nil, nil, nil, op.Errorf(OpBackward, "out", op.ErrShapeMismatch,
			"out shape %v differs from q shape %v", outT.Shape(), qt.Shape())
	}
	if !doutT.Shape().Equal(qt.Shape()) {
		return nil, nil, nil, op.Errorf(OpBackward, "out_grad", op.ErrShapeMismatch,
			"out_grad shape %v differs from q shape %v", doutT.Shape(), qt.Shape())
	}
	if !lseT.Shape().Equal(dims.lseShape()) || lseT.DType() != tensor.Float32 {
		return nil, nil, nil, op.Errorf(OpBackward, "softmax_lse", op.ErrShapeMismatch,
			"softmax_lse must be float32 %v, got %s %v", dims.lseShape(), lseT.DType(), lseT.Shape())
	}

	q, err := quant.Dequantize(qt, nil, OpBackward, "q")
	if err != nil {
		return nil, nil, nil, err
	}
	k, err := quant.Dequantize(kt, nil, OpBackward, "k")
	if err != nil {
		return nil, nil, nil, err
	}
	v, err := quant.Dequantize(vt, nil, OpBackward, "v")
	if err != nil {
		return nil, nil, nil, err
	}
	out, err := quant.Dequantize(outT, nil, OpBackward, "out")
	if err != nil {
		return nil, nil, nil, err
	}
	dout, err := quant.Dequantize(doutT, nil, OpBackward, "out_grad")
	if err != nil {
		return nil, nil, nil, err
	}
	lse := lseT.AsFloat32()

	dq := make([]float32, len(q))
	dk := make([]float32, len(k))
	dv := make([]float32, len(v))
	scale := dims.scale()
	hd := dims.headDim

	// Planes write disjoint slices of dq/dk/dv, so fan-out is safe; within
	// a plane the query loop accumulates dK/dV in a fixed order.
	parallel.ForPlanes(dims.batch, dims.heads, planeConfig(cfg), func(b, h int) {
		for qi := 0; qi < dims.seqLen; qi++ {
			rowLSE := lse[dims.lseAt(b, h, qi)]
			if math.IsInf(float64(rowLSE), -1) {
				continue // Row attended to nothing; zero gradient
			}

			qOff := dims.qAt(b, qi, h)
			qRow := q[qOff : qOff+hd]
			oRow := out[qOff : qOff+hd]
			doRow := dout[qOff : qOff+hd]
			dqRow := dq[qOff : qOff+hd]

			bigD := dot(doRow, oRow)

			start, end := mask.Window(b, h, qi)
			if causal && qi+1 < end {
				end = qi + 1
			}

			for j := start; j < end; j++ {
				kvOff := dims.kvAt(b, j, h)
				kRow := k[kvOff : kvOff+hd]
				vRow := v[kvOff : kvOff+hd]

				p := float32(math.Exp(float64(scale*dot(qRow, kRow) - rowLSE)))
				m := drop.factor(dropIndex(dims, b, h, qi, j))

				dP := m * dot(doRow, vRow)
				dS := p * (dP - bigD)

				if pm := p * m; pm != 0 {
					dvRow := dv[kvOff : kvOff+hd]
					for d := 0; d < hd; d++ {
						dvRow[d] += pm * doRow[d]
					}
				}
				if dS != 0 {
					dkRow := dk[kvOff : kvOff+hd]
					sdS := scale * dS
					for d := 0; d < hd; d++ {
						dqRow[d] += sdS * kRow[d]
						dkRow[d] += sdS * qRow[d]
					}
				}
			}
		}
	})

	dqT, err := quant.Quantize(dq, qt.Shape(), qt.DType(), nil, OpBackward, "q_grad")
	if err != nil {
		return nil, nil, nil, err
	}
	dkT, err := quant.Quantize(dk, kt.Shape(), kt.DType(), nil, OpBackward, "k_grad")
	if err != nil {
		return nil, nil, nil, err
	}
	dvT, err := quant.Quantize(dv, vt.Shape(), vt.DType(), nil, OpBackward, "v_grad")
	if err != nil {
		return nil, nil, nil, err
	}
	return dqT, dkT, dvT, nil
}
