// Copyright 2025 The Tensorfuse Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package kernels wires the custom operators into a registry.
//
// Example:
//
//	reg := op.NewRegistry(op.DefaultConfig())
//	if err := kernels.RegisterAll(reg); err != nil { ... }
//	outs, err := reg.Execute(kernels.FlashMaskAttnBwd, inputs, attrs)
package kernels

import (
	"github.com/tensorfuse/tensorfuse/internal/dualgemm"
	"github.com/tensorfuse/tensorfuse/internal/flashmask"
	"github.com/tensorfuse/tensorfuse/internal/op"
)

// Operator names registered by this package.
const (
	FlashMaskAttn    = flashmask.OpForward
	FlashMaskAttnBwd = flashmask.OpBackward
	DualGEMMAct      = dualgemm.OpName
)

// Attribute names.
const (
	AttrDropout    = flashmask.AttrDropout
	AttrCausal     = flashmask.AttrCausal
	AttrActivation = dualgemm.AttrActivation
	AttrOutDtype   = dualgemm.AttrOutDtype
)

// Activation kinds for the dual-GEMM epilogue.
const (
	ActivationSwiGLU   = string(dualgemm.ActivationSwiGLU)
	ActivationGeGLU    = string(dualgemm.ActivationGeGLU)
	ActivationIdentity = string(dualgemm.ActivationIdentity)
)

// RegisterAll registers the masked-attention forward/backward pair and the
// fused dual-GEMM operator, all built against the registry's config.
func RegisterAll(r *op.Registry) error {
	cfg := r.Config()
	for _, d := range []*op.Descriptor{
		flashmask.BuildForward(cfg),
		flashmask.BuildBackward(cfg),
		dualgemm.Build(cfg),
	} {
		if err := r.Register(d); err != nil {
			return err
		}
	}
	return nil
}
