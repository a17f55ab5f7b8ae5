package flashmask

import (
	"math"

	"github.com/tensorfuse/tensorfuse/internal/op"
	"github.com/tensorfuse/tensorfuse/internal/tensor"
)

// attnDims carries the geometry of one attention invocation.
// Layout is [batch, seq, heads, headDim] for q/k/v/out and [batch, heads,
// seq] for the log-sum-exp statistic.
type attnDims struct {
	batch   int
	seqLen  int // Query positions
	kvLen   int // Key/value positions
	heads   int
	headDim int
}

func (d attnDims) scale() float32 {
	return float32(1.0 / math.Sqrt(float64(d.headDim)))
}

// qAt returns the offset of query row (b, s, h) in the flattened buffer.
// Also valid for out and out_grad, which share q's layout.
func (d attnDims) qAt(b, s, h int) int {
	return ((b*d.seqLen+s)*d.heads + h) * d.headDim
}

// kvAt returns the offset of key/value row (b, j, h).
func (d attnDims) kvAt(b, j, h int) int {
	return ((b*d.kvLen+j)*d.heads + h) * d.headDim
}

// lseAt returns the offset of row (b, h, s) in the [batch, heads, seq]
// statistic.
func (d attnDims) lseAt(b, h, s int) int {
	return (b*d.heads+h)*d.seqLen + s
}

func (d attnDims) lseShape() tensor.Shape {
	return tensor.Shape{d.batch, d.heads, d.seqLen}
}

// checkQKVShapes validates q/k/v geometry and returns the dims.
// Callable from shape inference: it needs shapes only.
func checkQKVShapes(opName string, q, k, v tensor.Shape) (attnDims, error) {
	if len(q) != 4 || len(k) != 4 || len(v) != 4 {
		return attnDims{}, op.Errorf(opName, "q", op.ErrShapeMismatch,
			"q/k/v must be 4D [batch, seq, heads, headDim], got %v %v %v", q, k, v)
	}
	if !k.Equal(v) {
		return attnDims{}, op.Errorf(opName, "v", op.ErrShapeMismatch,
			"k shape %v differs from v shape %v", k, v)
	}
	if q[0] != k[0] || q[2] != k[2] || q[3] != k[3] {
		return attnDims{}, op.Errorf(opName, "k", op.ErrShapeMismatch,
			"q shape %v incompatible with k shape %v", q, k)
	}
	return attnDims{
		batch:   q[0],
		seqLen:  q[1],
		kvLen:   k[1],
		heads:   q[2],
		headDim: q[3],
	}, nil
}

// checkDropout validates the dropout probability domain [0, 1).
func checkDropout(opName string, p float32) error {
	if p < 0 || p >= 1 {
		return op.Errorf(opName, "", op.ErrInvalidAttribute,
			"dropout probability %v outside [0, 1)", p)
	}
	return nil
}

// checkAttnDtype restricts q/k/v to the dtypes the kernels compute on.
func checkAttnDtype(opName, operand string, dt tensor.DataType) error {
	switch dt {
	case tensor.Float32, tensor.Float16, tensor.BFloat16:
		return nil
	default:
		return op.Errorf(opName, operand, op.ErrInvalidAttribute,
			"unsupported dtype %s", dt)
	}
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
