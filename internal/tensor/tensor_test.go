package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShapeNumElements(t *testing.T) {
	assert.Equal(t, 24, Shape{2, 3, 4}.NumElements())
	assert.Equal(t, 1, Shape{}.NumElements(), "scalar has one element")
	assert.Equal(t, 5, Shape{5}.NumElements())
}

func TestShapeValidate(t *testing.T) {
	assert.NoError(t, Shape{2, 3}.Validate())
	assert.Error(t, Shape{2, 0}.Validate())
	assert.Error(t, Shape{-1, 3}.Validate())
}

func TestShapeComputeStrides(t *testing.T) {
	assert.Equal(t, []int{12, 4, 1}, Shape{2, 3, 4}.ComputeStrides())
	assert.Equal(t, []int{1}, Shape{7}.ComputeStrides())
}

func TestDataTypeSize(t *testing.T) {
	assert.Equal(t, 4, Float32.Size())
	assert.Equal(t, 2, Float16.Size())
	assert.Equal(t, 2, BFloat16.Size())
	assert.Equal(t, 1, Float8E4M3.Size())
	assert.Equal(t, 1, Float8E5M2.Size())
	assert.Equal(t, 8, Int64.Size())
}

func TestDataTypeRoundTripNames(t *testing.T) {
	for _, dt := range []DataType{Float32, Float16, BFloat16, Float8E4M3, Float8E5M2, Int32, Int64} {
		parsed, err := ParseDataType(dt.String())
		require.NoError(t, err)
		assert.Equal(t, dt, parsed)
	}

	_, err := ParseDataType("float4")
	assert.Error(t, err)
}

func TestDataTypeIsFloat8(t *testing.T) {
	assert.True(t, Float8E4M3.IsFloat8())
	assert.True(t, Float8E5M2.IsFloat8())
	assert.False(t, Float16.IsFloat8())
	assert.False(t, Float32.IsFloat8())
}

func TestNewRawZeroInitialized(t *testing.T) {
	raw, err := NewRaw(Shape{2, 3}, Float32)
	require.NoError(t, err)

	assert.Equal(t, Shape{2, 3}, raw.Shape())
	assert.Equal(t, 6, raw.NumElements())
	assert.Equal(t, 24, raw.ByteSize())
	for _, v := range raw.AsFloat32() {
		assert.Zero(t, v)
	}
}

func TestNewRawInvalidShape(t *testing.T) {
	_, err := NewRaw(Shape{2, -1}, Float32)
	assert.Error(t, err)
}

func TestFromFloat32(t *testing.T) {
	raw, err := FromFloat32([]float32{1, 2, 3, 4, 5, 6}, Shape{2, 3})
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, raw.AsFloat32())

	_, err = FromFloat32([]float32{1, 2}, Shape{2, 3})
	assert.Error(t, err, "length mismatch must fail")
}

func TestCloneSharesBuffer(t *testing.T) {
	raw, err := FromFloat32([]float32{1, 2, 3}, Shape{3})
	require.NoError(t, err)

	clone := raw.Clone()
	clone.AsFloat32()[0] = 42
	assert.Equal(t, float32(42), raw.AsFloat32()[0], "clone shares the buffer")

	clone.Release()
	assert.Equal(t, float32(42), raw.AsFloat32()[0], "original still holds a reference")
}

func TestAsFloat32PanicsOnWrongDtype(t *testing.T) {
	raw, err := NewRaw(Shape{2}, Int32)
	require.NoError(t, err)
	assert.Panics(t, func() { raw.AsFloat32() })
}

func TestOnesAndFull(t *testing.T) {
	ones, err := Ones(Shape{4})
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 1, 1, 1}, ones.AsFloat32())

	full, err := Full(Shape{2}, 3.5)
	require.NoError(t, err)
	assert.Equal(t, []float32{3.5, 3.5}, full.AsFloat32())
}
