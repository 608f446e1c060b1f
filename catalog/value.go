package catalog

import (
	"math"
	"strconv"

	"github.com/x448/float16"
)

// Value is a scalar of any catalogue type. Integers are stored wrapped to
// the width of their type; floats are stored rounded to their precision.
type Value struct {
	Type DataType
	bits uint64
}

// Int builds a value of an integral type from v, wrapping to the type width
func Int(dt DataType, v int64) Value {
	info := Info(dt)
	if info.Floating {
		return Float(dt, float64(v))
	}
	return Value{Type: dt, bits: wrap(uint64(v), info)}
}

// Uint builds a value of an integral type from v, wrapping to the type width
func Uint(dt DataType, v uint64) Value {
	info := Info(dt)
	if info.Floating {
		return Float(dt, float64(v))
	}
	return Value{Type: dt, bits: wrap(v, info)}
}

// Float builds a value of type dt from f, rounding to nearest even for
// floating types and converting like Convert for integral types
func Float(dt DataType, f float64) Value {
	info := Info(dt)
	if !info.Floating {
		return Convert(Value{Type: Float64, bits: math.Float64bits(f)}, dt)
	}
	return Value{Type: dt, bits: math.Float64bits(round(dt, f))}
}

// Bool builds 1 or 0 of type dt
func Bool(dt DataType, b bool) Value {
	if b {
		return Int(dt, 1)
	}
	return Int(dt, 0)
}

func wrap(v uint64, info TypeInfo) uint64 {
	if info.Size == 8 {
		return v
	}
	shift := uint(64 - 8*info.Size)
	if info.Signed {
		return uint64(int64(v<<shift) >> shift)
	}
	return v << shift >> shift
}

func round(dt DataType, f float64) float64 {
	switch dt {
	case Float16:
		return float64(toHalf(f).Float32())
	case Float32:
		return float64(float32(f))
	}
	return f
}

// toHalf rounds f to half precision once. f is first rounded to odd at
// single precision, which keeps the final round to nearest even exact.
func toHalf(f float64) float16.Float16 {
	t := float32(f)
	if math.IsNaN(f) || math.IsInf(f, 0) || float64(t) == f {
		return float16.Fromfloat32(t)
	}
	if math.Abs(float64(t)) > math.Abs(f) {
		t = math.Nextafter32(t, 0)
	}
	return float16.Fromfloat32(math.Float32frombits(math.Float32bits(t) | 1))
}

// Int64 returns the value as a signed integer (floats truncate toward zero)
func (v Value) Int64() int64 {
	if v.Type.IsFloating() {
		return int64(v.Float64())
	}
	return int64(v.bits)
}

// Uint64 returns the raw integral bit pattern
func (v Value) Uint64() uint64 {
	if v.Type.IsFloating() {
		return uint64(v.Float64())
	}
	return v.bits
}

// Float64 returns the value widened to float64
func (v Value) Float64() float64 {
	info := Info(v.Type)
	switch {
	case info.Floating:
		return math.Float64frombits(v.bits)
	case info.Signed:
		return float64(int64(v.bits))
	default:
		return float64(v.bits)
	}
}

// IsZero reports whether v compares equal to zero
func (v Value) IsZero() bool {
	if v.Type.IsFloating() {
		return v.Float64() == 0
	}
	return v.bits == 0
}

// Less orders two values of the same type
func (v Value) Less(w Value) bool {
	info := Info(v.Type)
	switch {
	case info.Floating:
		return v.Float64() < w.Float64()
	case info.Signed:
		return int64(v.bits) < int64(w.bits)
	default:
		return v.bits < w.bits
	}
}

// Identical reports bitwise identity (same type, same stored bits)
func (v Value) Identical(w Value) bool {
	return v.Type == w.Type && v.bits == w.bits
}

func (v Value) String() string {
	info := Info(v.Type)
	switch {
	case info.Floating:
		bitSize := 64
		if v.Type != Float64 {
			bitSize = 32
		}
		return strconv.FormatFloat(v.Float64(), 'g', -1, bitSize)
	case info.Signed:
		return strconv.FormatInt(int64(v.bits), 10)
	default:
		return strconv.FormatUint(v.bits, 10)
	}
}
