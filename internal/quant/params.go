package quant

import (
	"fmt"

	"github.com/tensorfuse/tensorfuse/internal/tensor"
)

// Params holds caller-owned dequantization metadata for one tensor:
// per-tensor (length 1) or per-channel scale, with an optional bias of the
// same length. Params are read-only to the kernels.
type Params struct {
	Scale []float32
	Bias  []float32
}

// ParamsFromTensors builds Params from scale/bias tensors. Either tensor may
// be nil; a nil scale yields nil Params.
func ParamsFromTensors(scale, bias *tensor.RawTensor) (*Params, error) {
	if scale == nil {
		if bias != nil {
			return nil, fmt.Errorf("bias supplied without scale")
		}
		return nil, nil
	}
	if scale.DType() != tensor.Float32 {
		return nil, fmt.Errorf("scale dtype is %s, want float32", scale.DType())
	}
	p := &Params{Scale: scale.AsFloat32()}
	if bias != nil {
		if bias.DType() != tensor.Float32 {
			return nil, fmt.Errorf("bias dtype is %s, want float32", bias.DType())
		}
		if bias.NumElements() != scale.NumElements() {
			return nil, fmt.Errorf("bias has %d elements, scale has %d",
				bias.NumElements(), scale.NumElements())
		}
		p.Bias = bias.AsFloat32()
	}
	return p, nil
}

// PerChannel reports whether the params carry one value per channel.
func (p *Params) PerChannel() bool {
	return len(p.Scale) > 1
}

// at returns the (scale, bias) pair for channel ch.
func (p *Params) at(ch int) (float32, float32) {
	idx := 0
	if p.PerChannel() {
		idx = ch
	}
	var bias float32
	if p.Bias != nil {
		bias = p.Bias[idx]
	}
	return p.Scale[idx], bias
}

// checkChannels validates per-channel params against the channel count.
func (p *Params) checkChannels(channels int) error {
	if p.PerChannel() && len(p.Scale) != channels {
		return fmt.Errorf("per-channel scale has %d entries, tensor has %d channels",
			len(p.Scale), channels)
	}
	return nil
}
