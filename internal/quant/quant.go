package quant

import (
	"github.com/tensorfuse/tensorfuse/internal/op"
	"github.com/tensorfuse/tensorfuse/internal/tensor"
)

// Dequantize reads a tensor into float32 values.
//
// Float8 tensors require Params (the presence pairing is a hard invariant):
// value = decode(bits)*scale + bias, with per-channel params indexed along
// the last dimension. Float16/BFloat16 convert directly. Float32 is copied.
// opName/operand only label errors.
func Dequantize(t *tensor.RawTensor, p *Params, opName, operand string) ([]float32, error) {
	n := t.NumElements()
	channels := lastDim(t.Shape())

	switch dt := t.DType(); dt {
	case tensor.Float32:
		if p != nil {
			return nil, op.Errorf(opName, operand, op.ErrInvalidAttribute,
				"quantization params supplied for %s tensor", dt)
		}
		out := make([]float32, n)
		copy(out, t.AsFloat32())
		return out, nil

	case tensor.Float16, tensor.BFloat16:
		if p != nil {
			return nil, op.Errorf(opName, operand, op.ErrInvalidAttribute,
				"quantization params supplied for %s tensor", dt)
		}
		bits := t.AsUint16()
		out := make([]float32, n)
		if dt == tensor.Float16 {
			for i, h := range bits {
				out[i] = Float16ToFloat32(h)
			}
		} else {
			for i, h := range bits {
				out[i] = BFloat16ToFloat32(h)
			}
		}
		return out, nil

	case tensor.Float8E4M3, tensor.Float8E5M2:
		if p == nil || len(p.Scale) == 0 {
			return nil, op.Errorf(opName, operand, op.ErrMissingQuantParam,
				"%s tensor requires a scale", dt)
		}
		if err := p.checkChannels(channels); err != nil {
			return nil, op.Errorf(opName, operand, op.ErrShapeMismatch, "%v", err)
		}
		data := t.Data()
		out := make([]float32, n)
		decode := DecodeE4M3
		if dt == tensor.Float8E5M2 {
			decode = DecodeE5M2
		}
		for i := 0; i < n; i++ {
			scale, bias := p.at(i % channels)
			out[i] = decode(data[i])*scale + bias
		}
		return out, nil

	default:
		return nil, op.Errorf(opName, operand, op.ErrInvalidAttribute,
			"cannot dequantize dtype %s", dt)
	}
}

// Quantize writes float32 values into a new tensor of the given dtype.
//
// For Float8 dtypes Params are required and invert the Dequantize mapping:
// bits = encode((value - bias) / scale). For wider float dtypes params must
// be absent.
func Quantize(vals []float32, shape tensor.Shape, dtype tensor.DataType, p *Params, opName, operand string) (*tensor.RawTensor, error) {
	out, err := tensor.NewRaw(shape, dtype)
	if err != nil {
		return nil, err
	}
	if len(vals) != out.NumElements() {
		return nil, op.Errorf(opName, operand, op.ErrShapeMismatch,
			"%d values for shape %v", len(vals), shape)
	}
	channels := lastDim(shape)

	switch dtype {
	case tensor.Float32:
		if p != nil {
			return nil, op.Errorf(opName, operand, op.ErrInvalidAttribute,
				"quantization params supplied for %s output", dtype)
		}
		copy(out.AsFloat32(), vals)
		return out, nil

	case tensor.Float16, tensor.BFloat16:
		if p != nil {
			return nil, op.Errorf(opName, operand, op.ErrInvalidAttribute,
				"quantization params supplied for %s output", dtype)
		}
		bits := out.AsUint16()
		if dtype == tensor.Float16 {
			for i, v := range vals {
				bits[i] = Float32ToFloat16(v)
			}
		} else {
			for i, v := range vals {
				bits[i] = Float32ToBFloat16(v)
			}
		}
		return out, nil

	case tensor.Float8E4M3, tensor.Float8E5M2:
		if p == nil || len(p.Scale) == 0 {
			return nil, op.Errorf(opName, operand, op.ErrMissingQuantParam,
				"%s output requires a scale", dtype)
		}
		if err := p.checkChannels(channels); err != nil {
			return nil, op.Errorf(opName, operand, op.ErrShapeMismatch, "%v", err)
		}
		data := out.Data()
		encode := EncodeE4M3
		if dtype == tensor.Float8E5M2 {
			encode = EncodeE5M2
		}
		for i, v := range vals {
			scale, bias := p.at(i % channels)
			data[i] = encode((v - bias) / scale)
		}
		return out, nil

	default:
		return nil, op.Errorf(opName, operand, op.ErrInvalidAttribute,
			"cannot quantize to dtype %s", dtype)
	}
}

// lastDim returns the size of the innermost dimension, treating scalars as
// one channel.
func lastDim(s tensor.Shape) int {
	if len(s) == 0 {
		return 1
	}
	return s[len(s)-1]
}
