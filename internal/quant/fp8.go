// Package quant centralizes reduced-precision conversion for all operators.
//
// FP8 tensors are tagged values: raw bits plus a dtype tag plus caller-owned
// scale (and optional bias) metadata. Both custom kernels funnel every
// to/from-FP8 conversion through this package so that the quantization
// convention cannot drift between them.
package quant

import "math"

// FP8 E4M3 (OCP convention): 1 sign, 4 exponent (bias 7), 3 mantissa bits.
// No infinities; S.1111.111 encodes NaN. Largest finite value is 448.
//
// FP8 E5M2: 1 sign, 5 exponent (bias 15), 2 mantissa bits. IEEE-like with
// infinities and NaNs. Largest finite value is 57344.
const (
	e4m3MaxFinite = 448
	e5m2MaxFinite = 57344
)

// EncodeE4M3 converts a float32 to E4M3 bits with round-to-nearest-even.
// Out-of-range magnitudes saturate to the largest finite value; NaN encodes
// as NaN.
func EncodeE4M3(x float32) uint8 {
	if math.IsNaN(float64(x)) {
		return 0x7f
	}
	var sign uint8
	if math.Signbit(float64(x)) {
		sign = 0x80
		x = -x
	}
	if x == 0 {
		return sign
	}
	if x > e4m3MaxFinite {
		return sign | 0x7e // Saturate, 1.75 * 2^8
	}

	// Subnormal range: below 2^-6 the step is 2^-9.
	if x < 0x1p-6 {
		q := uint8(math.RoundToEven(float64(x) * 0x1p9))
		return sign | q // q == 8 rolls over into the smallest normal
	}

	frac, exp := math.Frexp(float64(x)) // x = frac * 2^exp, frac in [0.5, 1)
	mant := frac*2 - 1                  // [0, 1)
	e := exp - 1
	m := int(math.RoundToEven(mant * 8))
	if m == 8 {
		m = 0
		e++
	}
	expField := e + 7
	if expField > 15 || (expField == 15 && m == 7) {
		return sign | 0x7e
	}
	//nolint:gosec // expField in [1,15], m in [0,7] by construction
	return sign | uint8(expField<<3) | uint8(m)
}

// DecodeE4M3 converts E4M3 bits to float32.
func DecodeE4M3(b uint8) float32 {
	sign := float32(1)
	if b&0x80 != 0 {
		sign = -1
	}
	if b&0x7f == 0x7f {
		return float32(math.NaN())
	}
	expField := int(b>>3) & 0xf
	mant := float32(b & 0x7)
	if expField == 0 {
		return sign * mant * 0x1p-9
	}
	return sign * (1 + mant/8) * float32(math.Ldexp(1, expField-7))
}

// EncodeE5M2 converts a float32 to E5M2 bits with round-to-nearest-even.
// Out-of-range magnitudes saturate to the largest finite value rather than
// infinity, matching FP8 training practice.
func EncodeE5M2(x float32) uint8 {
	if math.IsNaN(float64(x)) {
		return 0x7f
	}
	var sign uint8
	if math.Signbit(float64(x)) {
		sign = 0x80
		x = -x
	}
	if x == 0 {
		return sign
	}
	if x > e5m2MaxFinite {
		return sign | 0x7b // Saturate, 1.75 * 2^15
	}

	// Subnormal range: below 2^-14 the step is 2^-16.
	if x < 0x1p-14 {
		q := uint8(math.RoundToEven(float64(x) * 0x1p16))
		return sign | q
	}

	frac, exp := math.Frexp(float64(x))
	mant := frac*2 - 1
	e := exp - 1
	m := int(math.RoundToEven(mant * 4))
	if m == 4 {
		m = 0
		e++
	}
	expField := e + 15
	if expField > 30 {
		return sign | 0x7b
	}
	//nolint:gosec // expField in [1,30], m in [0,3] by construction
	return sign | uint8(expField<<2) | uint8(m)
}

// DecodeE5M2 converts E5M2 bits to float32.
func DecodeE5M2(b uint8) float32 {
	sign := float32(1)
	if b&0x80 != 0 {
		sign = -1
	}
	expField := int(b>>2) & 0x1f
	mant := float32(b & 0x3)
	if expField == 0x1f {
		if mant == 0 {
			return sign * float32(math.Inf(1))
		}
		return float32(math.NaN())
	}
	if expField == 0 {
		return sign * mant * 0x1p-16
	}
	return sign * (1 + mant/4) * float32(math.Ldexp(1, expField-15))
}

// Float16ToFloat32 converts IEEE half-precision bits to float32.
func Float16ToFloat32(h uint16) float32 {
	sign := uint32(h&0x8000) << 16
	exp := uint32(h>>10) & 0x1f
	mant := uint32(h & 0x3ff)

	switch exp {
	case 0:
		if mant == 0 {
			return math.Float32frombits(sign)
		}
		// Subnormal: normalize.
		e := uint32(127 - 15 + 1)
		for mant&0x400 == 0 {
			mant <<= 1
			e--
		}
		mant &= 0x3ff
		return math.Float32frombits(sign | e<<23 | mant<<13)
	case 0x1f:
		return math.Float32frombits(sign | 0xff<<23 | mant<<13)
	default:
		return math.Float32frombits(sign | (exp+127-15)<<23 | mant<<13)
	}
}

// Float32ToFloat16 converts a float32 to IEEE half-precision bits with
// round-to-nearest-even.
func Float32ToFloat16(f float32) uint16 {
	bits := math.Float32bits(f)
	sign := uint16(bits>>16) & 0x8000
	exp := int(bits>>23) & 0xff
	mant := bits & 0x7fffff

	switch {
	case exp == 0xff: // Inf/NaN
		if mant != 0 {
			return sign | 0x7e00
		}
		return sign | 0x7c00
	case exp-127+15 >= 0x1f: // Overflow to infinity
		return sign | 0x7c00
	case exp-127+15 <= 0: // Subnormal or zero
		// Align the mantissa to the half-precision subnormal ulp 2^-24:
		// q = mant' * 2^(exp-126) for mant' with the implicit bit set.
		shift := 126 - exp
		if shift > 24 {
			return sign
		}
		mant |= 0x800000
		//nolint:gosec // shift in (0, 24]
		q := mant >> uint(shift)
		//nolint:gosec // shift in (0, 24]
		rem := mant & (1<<uint(shift) - 1)
		half := uint32(1) << (shift - 1)
		if rem > half || (rem == half && q&1 == 1) {
			q++
		}
		//nolint:gosec // q fits in 11 bits after shift
		return sign | uint16(q)
	default:
		e := uint16(exp - 127 + 15)
		q := mant >> 13
		round := mant & 0x1fff
		if round > 0x1000 || (round == 0x1000 && q&1 == 1) {
			q++
			if q == 0x400 {
				q = 0
				e++
				if e >= 0x1f {
					return sign | 0x7c00
				}
			}
		}
		//nolint:gosec // q in [0, 0x3ff], e in [1, 0x1e]
		return sign | e<<10 | uint16(q)
	}
}

// BFloat16ToFloat32 converts bfloat16 bits to float32.
func BFloat16ToFloat32(h uint16) float32 {
	return math.Float32frombits(uint32(h) << 16)
}

// Float32ToBFloat16 converts a float32 to bfloat16 bits with
// round-to-nearest-even.
func Float32ToBFloat16(f float32) uint16 {
	bits := math.Float32bits(f)
	if math.IsNaN(float64(f)) {
		return uint16(bits>>16) | 0x40 // Quiet the NaN
	}
	round := bits & 0xffff
	q := bits >> 16
	if round > 0x8000 || (round == 0x8000 && q&1 == 1) {
		q++
	}
	//nolint:gosec // q fits in 16 bits after shift and carry
	return uint16(q)
}
