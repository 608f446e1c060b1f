package catalog

import (
	"math"
)

// Convert applies the promotion/narrowing rule used when an element of one
// type is combined with, or stored into, another type:
//   - integral -> integral: two's complement wrap to the target width
//   - integral -> floating: round to nearest even
//   - floating -> floating: round to nearest even
//   - floating -> integral: truncate toward zero, saturate at the 64-bit
//     range, then wrap to the target width
func Convert(v Value, to DataType) Value {
	from := Info(v.Type)
	target := Info(to)
	if v.Type == to {
		return v
	}
	switch {
	case !from.Floating && !target.Floating:
		return Value{Type: to, bits: wrap(v.bits, target)}

	case !from.Floating && target.Floating:
		var f float64
		switch {
		case to == Float32 && from.Signed:
			f = float64(float32(int64(v.bits)))
		case to == Float32:
			f = float64(float32(v.bits))
		case from.Signed:
			f = float64(int64(v.bits))
		default:
			f = float64(v.bits)
		}
		return Value{Type: to, bits: math.Float64bits(round(to, f))}

	case from.Floating && target.Floating:
		return Value{Type: to, bits: math.Float64bits(round(to, v.Float64()))}
	}

	f := math.Trunc(v.Float64())
	var bits uint64
	switch {
	case math.IsNaN(f):
		bits = 0
	case !target.Signed && f >= 0:
		if f >= math.MaxUint64 {
			bits = math.MaxUint64
		} else {
			bits = uint64(f)
		}
	case f >= math.MaxInt64:
		bits = uint64(math.MaxInt64)
	case f <= math.MinInt64:
		bits = 1 << 63
	default:
		bits = uint64(int64(f))
	}
	return Value{Type: to, bits: wrap(bits, target)}
}

// ConvertAll converts every element of vs to the target type
func ConvertAll(vs []Value, to DataType) []Value {
	out := make([]Value, len(vs))
	for i, v := range vs {
		out[i] = Convert(v, to)
	}
	return out
}
