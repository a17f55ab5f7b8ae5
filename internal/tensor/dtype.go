// Package tensor provides the core tensor types shared by all operators.
package tensor

import "fmt"

// DataType represents runtime type information for tensors.
type DataType int

// Supported data types for tensors.
//
// Float8E4M3 and Float8E5M2 are reduced-precision 8-bit floating point
// formats. Tensors carrying them hold raw bit patterns: recovering
// approximate full-precision values requires the scale (and optional bias)
// metadata handled by the quant package.
const (
	Float32 DataType = iota
	Float16
	BFloat16
	Float8E4M3
	Float8E5M2
	Int32
	Int64
)

// Size returns the byte size of one element of the data type.
func (dt DataType) Size() int {
	switch dt {
	case Float32, Int32:
		return 4
	case Float16, BFloat16:
		return 2
	case Float8E4M3, Float8E5M2:
		return 1
	case Int64:
		return 8
	default:
		panic("unknown data type")
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float16:
		return "float16"
	case BFloat16:
		return "bfloat16"
	case Float8E4M3:
		return "float8_e4m3"
	case Float8E5M2:
		return "float8_e5m2"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	default:
		return "unknown"
	}
}

// IsFloat reports whether the data type is a floating-point variant.
func (dt DataType) IsFloat() bool {
	switch dt {
	case Float32, Float16, BFloat16, Float8E4M3, Float8E5M2:
		return true
	default:
		return false
	}
}

// IsFloat8 reports whether the data type is a reduced-precision 8-bit form.
// Float8 tensors require explicit quantization parameters to be interpreted.
func (dt DataType) IsFloat8() bool {
	return dt == Float8E4M3 || dt == Float8E5M2
}

// ParseDataType parses a data type from its string name.
func ParseDataType(s string) (DataType, error) {
	switch s {
	case "float32":
		return Float32, nil
	case "float16":
		return Float16, nil
	case "bfloat16":
		return BFloat16, nil
	case "float8_e4m3":
		return Float8E4M3, nil
	case "float8_e5m2":
		return Float8E5M2, nil
	case "int32":
		return Int32, nil
	case "int64":
		return Int64, nil
	default:
		return 0, fmt.Errorf("unknown data type %q", s)
	}
}
