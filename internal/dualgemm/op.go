package dualgemm

import (
	"github.com/tensorfuse/tensorfuse/internal/op"
	"github.com/tensorfuse/tensorfuse/internal/tensor"
)

// OpName is the operator name as seen by the host framework.
const OpName = "dual_gemm_act"

// Attribute names.
const (
	AttrActivation = "activation"
	AttrOutDtype   = "out_dtype"
)

// Build declares the fused dual-GEMM epilogue operator.
//
// Required inputs: x [M,K], w1 [K,N], w2 [K,N]. Optional inputs: per-tensor
// or per-channel scales for each reduced-precision operand, float32 biases
// added after each product, and the output scale required when out_dtype is
// a reduced-precision form. Y's dtype equals the declared out_dtype
// attribute, independent of the input dtypes: this operator exists to
// downcast as part of the fusion.
func Build(cfg op.Config) *op.Descriptor {
	return &op.Descriptor{
		Name:   OpName,
		Inputs: []string{"x", "w1", "w2"},
		OptionalInputs: []string{
			"x_scale", "w1_scale", "w2_scale",
			"bias1", "bias2", "out_scale",
		},
		Outputs: []string{"y"},
		Attrs: []op.AttrSpec{
			{Name: AttrActivation, Type: op.AttrString},
			{Name: AttrOutDtype, Type: op.AttrString},
		},

		InferShape: func(inputs []tensor.Shape, attrs op.Attrs) ([]tensor.Shape, error) {
			if _, _, err := gemmAttrs(attrs); err != nil {
				return nil, err
			}
			m, _, n, err := checkGemmShapes(inputs[0], inputs[1], inputs[2])
			if err != nil {
				return nil, err
			}
			return []tensor.Shape{{m, n}}, nil
		},

		InferDtype: func(inputs []tensor.DataType, attrs op.Attrs) ([]tensor.DataType, error) {
			_, outDtype, err := gemmAttrs(attrs)
			if err != nil {
				return nil, err
			}
			// The scale presence/absence pairing is observable from dtypes
			// alone, so it is enforced here, before any kernel runs.
			operands := []string{"x", "w1", "w2"}
			for i, name := range operands {
				hasScale := inputs[3+i] != op.AbsentDType
				if inputs[i].IsFloat8() && !hasScale {
					return nil, op.Errorf(OpName, name, op.ErrMissingQuantParam,
						"%s operand requires %s_scale", inputs[i], name)
				}
				if !inputs[i].IsFloat8() && hasScale {
					return nil, op.Errorf(OpName, name, op.ErrInvalidAttribute,
						"%s_scale supplied for %s operand", name, inputs[i])
				}
			}
			if outDtype.IsFloat8() && inputs[8] == op.AbsentDType {
				return nil, op.Errorf(OpName, "out_scale", op.ErrMissingQuantParam,
					"%s output requires out_scale", outDtype)
			}
			return []tensor.DataType{outDtype}, nil
		},

		Kernel: func(inputs []*tensor.RawTensor, attrs op.Attrs) ([]*tensor.RawTensor, error) {
			act, outDtype, err := gemmAttrs(attrs)
			if err != nil {
				return nil, err
			}
			y, err := Compute(
				inputs[0], inputs[1], inputs[2],
				inputs[3], inputs[4], inputs[5],
				inputs[6], inputs[7], inputs[8],
				act, outDtype, cfg)
			if err != nil {
				return nil, err
			}
			return []*tensor.RawTensor{y}, nil
		},
	}
}

// gemmAttrs parses and validates the activation kind and output dtype.
func gemmAttrs(attrs op.Attrs) (Activation, tensor.DataType, error) {
	actName, err := attrs.String(OpName, AttrActivation)
	if err != nil {
		return "", 0, err
	}
	act, err := ParseActivation(OpName, actName)
	if err != nil {
		return "", 0, err
	}
	dtypeName, err := attrs.String(OpName, AttrOutDtype)
	if err != nil {
		return "", 0, err
	}
	outDtype, err := tensor.ParseDataType(dtypeName)
	if err != nil {
		return "", 0, op.Errorf(OpName, "", op.ErrInvalidAttribute, "%v", err)
	}
	if !outDtype.IsFloat() {
		return "", 0, op.Errorf(OpName, "", op.ErrInvalidAttribute,
			"out_dtype %s is not a floating-point type", outDtype)
	}
	return act, outDtype, nil
}
