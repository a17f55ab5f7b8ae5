// Copyright 2025 The Tensorfuse Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public tensor types consumed and produced by
// the fused operators.
//
// The host framework owns tensor allocation and lifetime; operators read
// inputs and allocate only their declared outputs. RawTensor is an opaque
// N-dimensional array with a shape, an element dtype (including the
// reduced-precision 8-bit forms) and a row-major byte buffer.
//
// Example:
//
//	q, err := tensor.FromFloat32(data, tensor.Shape{1, 4, 1, 8})
package tensor

import (
	"github.com/tensorfuse/tensorfuse/internal/tensor"
)

// DataType represents the underlying data type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32    DataType = tensor.Float32
	Float16    DataType = tensor.Float16
	BFloat16   DataType = tensor.BFloat16
	Float8E4M3 DataType = tensor.Float8E4M3
	Float8E5M2 DataType = tensor.Float8E5M2
	Int32      DataType = tensor.Int32
	Int64      DataType = tensor.Int64
)

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3, 4} represents a 3D tensor with dimensions 2×3×4.
type Shape = tensor.Shape

// RawTensor is the tensor representation passed across the operator ABI.
type RawTensor = tensor.RawTensor

// NewRaw creates a new zero-initialized tensor with the given shape and
// dtype.
func NewRaw(shape Shape, dtype DataType) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype)
}

// FromFloat32 creates a Float32 tensor from a slice; the data is copied.
func FromFloat32(data []float32, shape Shape) (*RawTensor, error) {
	return tensor.FromFloat32(data, shape)
}

// FromInt32 creates an Int32 tensor from a slice.
func FromInt32(data []int32, shape Shape) (*RawTensor, error) {
	return tensor.FromInt32(data, shape)
}

// FromInt64 creates an Int64 tensor from a slice.
func FromInt64(data []int64, shape Shape) (*RawTensor, error) {
	return tensor.FromInt64(data, shape)
}

// Zeros creates a zero-filled tensor.
func Zeros(shape Shape, dtype DataType) (*RawTensor, error) {
	return tensor.Zeros(shape, dtype)
}

// Ones creates a Float32 tensor filled with ones.
func Ones(shape Shape) (*RawTensor, error) {
	return tensor.Ones(shape)
}

// Full creates a Float32 tensor filled with a specific value.
func Full(shape Shape, value float32) (*RawTensor, error) {
	return tensor.Full(shape, value)
}

// ParseDataType parses a data type from its string name, e.g. "float8_e4m3".
func ParseDataType(s string) (DataType, error) {
	return tensor.ParseDataType(s)
}
