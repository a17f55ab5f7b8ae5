// Package dualgemm implements the fused dual-GEMM epilogue operator:
// two matrix products sharing one activation input, fused with an
// elementwise gating activation and quantization-aware scale handling.
package dualgemm

import (
	"math"

	"github.com/tensorfuse/tensorfuse/internal/op"
)

// Activation selects the gating function of the epilogue.
//
// Fixed fusion convention, applied identically in every code path: the W1
// product is the gate branch and the W2 product is the linear branch,
//
//	Y = act(X.W1 + b1) * (X.W2 + b2)
//
// with act = SiLU for SwiGLU, tanh-approximated GELU for GeGLU, and the
// identity for Identity.
type Activation string

// The closed set of supported activation kinds.
const (
	ActivationSwiGLU   Activation = "swiglu"
	ActivationGeGLU    Activation = "geglu"
	ActivationIdentity Activation = "identity"
)

// ParseActivation validates an activation name.
func ParseActivation(opName, s string) (Activation, error) {
	switch a := Activation(s); a {
	case ActivationSwiGLU, ActivationGeGLU, ActivationIdentity:
		return a, nil
	default:
		return "", op.Errorf(opName, "", op.ErrInvalidAttribute,
			"unknown activation %q, expected swiglu/geglu/identity", s)
	}
}

// gate applies the activation to the gate-branch value.
func (a Activation) gate(g float32) float32 {
	switch a {
	case ActivationSwiGLU:
		return silu(g)
	case ActivationGeGLU:
		return gelu(g)
	default:
		return g
	}
}

// silu computes x * sigmoid(x).
func silu(x float32) float32 {
	return x / (1 + float32(math.Exp(float64(-x))))
}

// gelu computes the tanh approximation
// 0.5 * x * (1 + tanh(sqrt(2/pi) * (x + 0.044715 * x^3))).
func gelu(x float32) float32 {
	const c = 0.044715
	sqrt2pi := float32(math.Sqrt(2.0 / math.Pi))
	inner := sqrt2pi * (x + c*x*x*x)
	return 0.5 * x * (1 + float32(math.Tanh(float64(inner))))
}
