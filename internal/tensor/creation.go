package tensor

import "fmt"

// FromFloat32 creates a Float32 tensor from a slice.
// The data is copied; the slice length must match the shape.
func FromFloat32(data []float32, shape Shape) (*RawTensor, error) {
	raw, err := NewRaw(shape, Float32)
	if err != nil {
		return nil, err
	}
	if len(data) != raw.NumElements() {
		return nil, fmt.Errorf("data length %d does not match shape %v (%d elements)",
			len(data), shape, raw.NumElements())
	}
	copy(raw.AsFloat32(), data)
	return raw, nil
}

// FromInt32 creates an Int32 tensor from a slice.
func FromInt32(data []int32, shape Shape) (*RawTensor, error) {
	raw, err := NewRaw(shape, Int32)
	if err != nil {
		return nil, err
	}
	if len(data) != raw.NumElements() {
		return nil, fmt.Errorf("data length %d does not match shape %v (%d elements)",
			len(data), shape, raw.NumElements())
	}
	copy(raw.AsInt32(), data)
	return raw, nil
}

// FromInt64 creates an Int64 tensor from a slice.
func FromInt64(data []int64, shape Shape) (*RawTensor, error) {
	raw, err := NewRaw(shape, Int64)
	if err != nil {
		return nil, err
	}
	if len(data) != raw.NumElements() {
		return nil, fmt.Errorf("data length %d does not match shape %v (%d elements)",
			len(data), shape, raw.NumElements())
	}
	copy(raw.AsInt64(), data)
	return raw, nil
}

// Zeros creates a zero-filled tensor of the given shape and dtype.
func Zeros(shape Shape, dtype DataType) (*RawTensor, error) {
	return NewRaw(shape, dtype) // NewRaw zero-initializes
}

// Full creates a Float32 tensor filled with the given value.
func Full(shape Shape, value float32) (*RawTensor, error) {
	raw, err := NewRaw(shape, Float32)
	if err != nil {
		return nil, err
	}
	data := raw.AsFloat32()
	for i := range data {
		data[i] = value
	}
	return raw, nil
}

// Ones creates a Float32 tensor filled with ones.
func Ones(shape Shape) (*RawTensor, error) {
	return Full(shape, 1)
}
