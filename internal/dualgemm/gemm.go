package dualgemm

import (
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"

	"github.com/tensorfuse/tensorfuse/internal/op"
	"github.com/tensorfuse/tensorfuse/internal/parallel"
	"github.com/tensorfuse/tensorfuse/internal/quant"
	"github.com/tensorfuse/tensorfuse/internal/tensor"
)

// Compute runs the fused dual GEMM: both products share one read of X, the
// gating epilogue runs in float32, and the result is quantized only at the
// very end. The ordering is load-bearing: dequantize inputs first, do all
// activation math in float32, downcast last.
func Compute(
	xt, w1t, w2t *tensor.RawTensor,
	xScale, w1Scale, w2Scale, bias1, bias2, outScale *tensor.RawTensor,
	act Activation, outDtype tensor.DataType, cfg op.Config,
) (*tensor.RawTensor, error) {
	m, kk, n, err := checkGemmShapes(xt.Shape(), w1t.Shape(), w2t.Shape())
	if err != nil {
		return nil, err
	}

	x, err := dequantInput(xt, xScale, "x")
	if err != nil {
		return nil, err
	}
	w1, err := dequantInput(w1t, w1Scale, "w1")
	if err != nil {
		return nil, err
	}
	w2, err := dequantInput(w2t, w2Scale, "w2")
	if err != nil {
		return nil, err
	}

	b1, err := checkBias(bias1, "bias1", n)
	if err != nil {
		return nil, err
	}
	b2, err := checkBias(bias2, "bias2", n)
	if err != nil {
		return nil, err
	}

	// Both products off one dequantized X buffer.
	xm := blas32.General{Rows: m, Cols: kk, Stride: kk, Data: x}
	w1m := blas32.General{Rows: kk, Cols: n, Stride: n, Data: w1}
	w2m := blas32.General{Rows: kk, Cols: n, Stride: n, Data: w2}
	gate := blas32.General{Rows: m, Cols: n, Stride: n, Data: make([]float32, m*n)}
	lin := blas32.General{Rows: m, Cols: n, Stride: n, Data: make([]float32, m*n)}
	blas32.Gemm(blas.NoTrans, blas.NoTrans, 1, xm, w1m, 0, gate)
	blas32.Gemm(blas.NoTrans, blas.NoTrans, 1, xm, w2m, 0, lin)

	// Gating epilogue, still in float32.
	y := make([]float32, m*n)
	workers := cfg.Workers
	if cfg.Deterministic {
		workers = 1
	}
	parallel.For(m, parallel.Config{Workers: workers, MinChunk: 1}, func(i int) {
		row := i * n
		for j := 0; j < n; j++ {
			g := gate.Data[row+j]
			l := lin.Data[row+j]
			if b1 != nil {
				g += b1[j]
			}
			if b2 != nil {
				l += b2[j]
			}
			y[row+j] = act.gate(g) * l
		}
	})

	outParams, err := outputParams(outScale, outDtype)
	if err != nil {
		return nil, err
	}
	return quant.Quantize(y, tensor.Shape{m, n}, outDtype, outParams, OpName, "y")
}

// checkGemmShapes validates X [M,K], W1 [K,N], W2 [K,N]. W1 and W2 sharing
// a column count is a precondition, not inferred.
func checkGemmShapes(x, w1, w2 tensor.Shape) (m, k, n int, err error) {
	if len(x) != 2 {
		return 0, 0, 0, op.Errorf(OpName, "x", op.ErrShapeMismatch,
			"x must be 2D [M, K], got %v", x)
	}
	if len(w1) != 2 || len(w2) != 2 {
		return 0, 0, 0, op.Errorf(OpName, "w1", op.ErrShapeMismatch,
			"w1/w2 must be 2D [K, N], got %v %v", w1, w2)
	}
	if w1[1] != w2[1] {
		return 0, 0, 0, op.Errorf(OpName, "w2", op.ErrShapeMismatch,
			"w1 has %d columns, w2 has %d", w1[1], w2[1])
	}
	if w1[0] != x[1] || w2[0] != x[1] {
		return 0, 0, 0, op.Errorf(OpName, "w1", op.ErrShapeMismatch,
			"inner dimension mismatch: x %v, w1 %v, w2 %v", x, w1, w2)
	}
	return x[0], x[1], w1[1], nil
}

// dequantInput reads one operand into float32, enforcing the scale
// presence/absence pairing for reduced-precision dtypes.
func dequantInput(t, scale *tensor.RawTensor, operand string) ([]float32, error) {
	params, err := quant.ParamsFromTensors(scale, nil)
	if err != nil {
		return nil, op.Errorf(OpName, operand, op.ErrInvalidAttribute, "%v", err)
	}
	return quant.Dequantize(t, params, OpName, operand)
}

// checkBias validates an optional float32 bias of length n.
func checkBias(t *tensor.RawTensor, operand string, n int) ([]float32, error) {
	if t == nil {
		return nil, nil
	}
	if t.DType() != tensor.Float32 {
		return nil, op.Errorf(OpName, operand, op.ErrInvalidAttribute,
			"bias dtype is %s, want float32", t.DType())
	}
	if t.NumElements() != n {
		return nil, op.Errorf(OpName, operand, op.ErrShapeMismatch,
			"bias has %d elements, want %d", t.NumElements(), n)
	}
	return t.AsFloat32(), nil
}

// outputParams enforces the output-side pairing: a reduced-precision result
// requires out_scale, a wider result forbids it.
func outputParams(outScale *tensor.RawTensor, outDtype tensor.DataType) (*quant.Params, error) {
	params, err := quant.ParamsFromTensors(outScale, nil)
	if err != nil {
		return nil, op.Errorf(OpName, "out_scale", op.ErrInvalidAttribute, "%v", err)
	}
	if outDtype.IsFloat8() && params == nil {
		return nil, op.Errorf(OpName, "out_scale", op.ErrMissingQuantParam,
			"%s output requires out_scale", outDtype)
	}
	return params, nil
}
