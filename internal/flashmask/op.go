package flashmask

import (
	"github.com/tensorfuse/tensorfuse/internal/op"
	"github.com/tensorfuse/tensorfuse/internal/tensor"
)

// Operator names as seen by the host framework.
const (
	OpForward  = "flashmask_attn"
	OpBackward = "flashmask_attn_bwd"
)

// Attribute names shared by both operators.
const (
	AttrDropout = "dropout"
	AttrCausal  = "causal"
)

// BuildForward declares the forward operator: inputs q, k, v,
// startend_row_indices, seed_offset; outputs out and softmax_lse.
func BuildForward(cfg op.Config) *op.Descriptor {
	return &op.Descriptor{
		Name:    OpForward,
		Inputs:  []string{"q", "k", "v", "startend_row_indices", "seed_offset"},
		Outputs: []string{"out", "softmax_lse"},
		Attrs: []op.AttrSpec{
			{Name: AttrDropout, Type: op.AttrFloat},
			{Name: AttrCausal, Type: op.AttrBool},
		},

		InferShape: func(inputs []tensor.Shape, attrs op.Attrs) ([]tensor.Shape, error) {
			dims, err := inferForwardDims(OpForward, inputs[0], inputs[1], inputs[2], inputs[3], attrs)
			if err != nil {
				return nil, err
			}
			return []tensor.Shape{inputs[0].Clone(), dims.lseShape()}, nil
		},

		InferDtype: func(inputs []tensor.DataType, attrs op.Attrs) ([]tensor.DataType, error) {
			if err := inferAttnDtypes(OpForward, inputs[0], inputs[1], inputs[2]); err != nil {
				return nil, err
			}
			return []tensor.DataType{inputs[0], tensor.Float32}, nil
		},

		Kernel: func(inputs []*tensor.RawTensor, attrs op.Attrs) ([]*tensor.RawTensor, error) {
			dropout, causal, err := attnAttrs(OpForward, attrs)
			if err != nil {
				return nil, err
			}
			out, lse, err := Forward(inputs[0], inputs[1], inputs[2], inputs[3], inputs[4],
				dropout, causal, cfg)
			if err != nil {
				return nil, err
			}
			return []*tensor.RawTensor{out, lse}, nil
		},
	}
}

// BuildBackward declares the gradient operator. Shapes and dtypes are pure
// pass-throughs: dQ:Q, dK:K, dV:V, and the row-mask tensor echoes through
// its own slot undifferentiated.
func BuildBackward(cfg op.Config) *op.Descriptor {
	return &op.Descriptor{
		Name: OpBackward,
		Inputs: []string{
			"q", "k", "v", "startend_row_indices",
			"out", "softmax_lse", "seed_offset", "out_grad",
		},
		Outputs: []string{"q_grad", "k_grad", "v_grad", "startend_row_indices_out"},
		Attrs: []op.AttrSpec{
			{Name: AttrDropout, Type: op.AttrFloat},
			{Name: AttrCausal, Type: op.AttrBool},
		},

		InferShape: func(inputs []tensor.Shape, attrs op.Attrs) ([]tensor.Shape, error) {
			dims, err := inferForwardDims(OpBackward, inputs[0], inputs[1], inputs[2], inputs[3], attrs)
			if err != nil {
				return nil, err
			}
			for _, c := range []struct {
				idx  int
				name string
			}{{4, "out"}, {7, "out_grad"}} {
				if !inputs[c.idx].Equal(inputs[0]) {
					return nil, op.Errorf(OpBackward, c.name, op.ErrShapeMismatch,
						"shape %v differs from q shape %v", inputs[c.idx], inputs[0])
				}
			}
			if !inputs[5].Equal(dims.lseShape()) {
				return nil, op.Errorf(OpBackward, "softmax_lse", op.ErrShapeMismatch,
					"shape %v, want %v", inputs[5], dims.lseShape())
			}
			return []tensor.Shape{
				inputs[0].Clone(), inputs[1].Clone(), inputs[2].Clone(), inputs[3].Clone(),
			}, nil
		},

		InferDtype: func(inputs []tensor.DataType, attrs op.Attrs) ([]tensor.DataType, error) {
			if err := inferAttnDtypes(OpBackward, inputs[0], inputs[1], inputs[2]); err != nil {
				return nil, err
			}
			return []tensor.DataType{inputs[0], inputs[1], inputs[2], inputs[3]}, nil
		},

		Kernel: func(inputs []*tensor.RawTensor, attrs op.Attrs) ([]*tensor.RawTensor, error) {
			dropout, causal, err := attnAttrs(OpBackward, attrs)
			if err != nil {
				return nil, err
			}
			dq, dk, dv, err := Backward(
				inputs[0], inputs[1], inputs[2], inputs[3],
				inputs[4], inputs[5], inputs[6], inputs[7],
				dropout, causal, cfg)
			if err != nil {
				return nil, err
			}
			return []*tensor.RawTensor{dq, dk, dv, inputs[3].Clone()}, nil
		},
	}
}

// inferForwardDims validates the shape-level preconditions common to both
// operators: q/k/v geometry, mask structure, dropout domain.
func inferForwardDims(opName string, q, k, v, mask tensor.Shape, attrs op.Attrs) (attnDims, error) {
	dims, err := checkQKVShapes(opName, q, k, v)
	if err != nil {
		return attnDims{}, err
	}
	if !maskShapeOK(mask, dims.batch, dims.heads, dims.seqLen) {
		return attnDims{}, op.Errorf(opName, "startend_row_indices", op.ErrInvalidMask,
			"shape %v, want [batch, 1|heads, seq, 2]", mask)
	}
	dropout, err := attrs.Float(opName, AttrDropout)
	if err != nil {
		return attnDims{}, err
	}
	if err := checkDropout(opName, dropout); err != nil {
		return attnDims{}, err
	}
	return dims, nil
}

// inferAttnDtypes validates q/k/v dtype agreement for the dtype rules.
func inferAttnDtypes(opName string, q, k, v tensor.DataType) error {
	if err := checkAttnDtype(opName, "q", q); err != nil {
		return err
	}
	if k != q || v != q {
		return op.Errorf(opName, "k", op.ErrShapeMismatch,
			"q/k/v dtypes differ: %s/%s/%s", q, k, v)
	}
	return nil
}

// attnAttrs reads the scalar attributes of one invocation.
func attnAttrs(opName string, attrs op.Attrs) (dropout float32, causal bool, err error) {
	dropout, err = attrs.Float(opName, AttrDropout)
	if err != nil {
		return 0, false, err
	}
	causal, err = attrs.Bool(opName, AttrCausal)
	if err != nil {
		return 0, false, err
	}
	return dropout, causal, nil
}
