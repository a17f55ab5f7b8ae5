// Copyright 2025 The Tensorfuse Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package op exposes the declarative operator-registration mechanism.
//
// A host framework registers each operator once — name, ordered input and
// output slots, typed attributes, shape rule, dtype rule, kernel — and then
// drives shape/dtype inference and execution through the registry. The
// inference rules are pure and callable without tensor data, so graph
// construction can run before any device memory exists.
//
// Example:
//
//	reg := op.NewRegistry(op.DefaultConfig())
//	if err := kernels.RegisterAll(reg); err != nil { ... }
//	shapes, err := reg.InferShape("dual_gemm_act", inputShapes, attrs)
package op

import (
	"github.com/tensorfuse/tensorfuse/internal/op"
)

// Descriptor is the static declaration of one operator.
type Descriptor = op.Descriptor

// AttrSpec declares one typed attribute slot.
type AttrSpec = op.AttrSpec

// AttrType identifies the scalar type of an attribute.
type AttrType = op.AttrType

// Attribute type constants.
const (
	AttrFloat  AttrType = op.AttrFloat
	AttrBool   AttrType = op.AttrBool
	AttrInt    AttrType = op.AttrInt
	AttrString AttrType = op.AttrString
)

// Attrs carries the attribute values of one invocation.
type Attrs = op.Attrs

// InferShapeFunc is the shape-inference rule signature.
type InferShapeFunc = op.InferShapeFunc

// InferDtypeFunc is the dtype-inference rule signature.
type InferDtypeFunc = op.InferDtypeFunc

// KernelFunc is the compute-kernel signature.
type KernelFunc = op.KernelFunc

// Registry maps operator names to descriptors.
type Registry = op.Registry

// Config controls kernel execution; it replaces ambient process-wide
// configuration with an explicit value.
type Config = op.Config

// AbsentDType marks an absent optional input in dtype inference.
const AbsentDType = op.AbsentDType

// Error kinds shared by all operators.
var (
	ErrShapeMismatch     = op.ErrShapeMismatch
	ErrInvalidMask       = op.ErrInvalidMask
	ErrInvalidAttribute  = op.ErrInvalidAttribute
	ErrMissingQuantParam = op.ErrMissingQuantParam
	ErrUnknownOperator   = op.ErrUnknownOperator
	ErrInvalidArity      = op.ErrInvalidArity
)

// OperandError annotates an error kind with operator and operand context.
type OperandError = op.OperandError

// NewRegistry creates an empty operator registry.
func NewRegistry(cfg Config) *Registry {
	return op.NewRegistry(cfg)
}

// DefaultConfig returns a config suitable for tests and single-node use.
func DefaultConfig() Config {
	return op.DefaultConfig()
}
