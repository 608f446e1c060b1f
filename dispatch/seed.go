package dispatch

import (
	"github.com/notargets/GroupScan/catalog"
	"github.com/notargets/GroupScan/combos"
	"github.com/notargets/GroupScan/ops"
)

// Seeds are chosen so that every value stays exactly representable on the
// whole path in -> accumulator -> out, since a float to integer conversion
// out of range has no defined result on device backends, and neither has an
// integer to half conversion out of half range. Negative values are only used
// when no type on the path is unsigned.

// Seed returns the deterministic input of a tuple: element i depends only
// on the operator, the tuple's types and i
func Seed(t combos.Tuple, n int) []catalog.Value {
	vs := make([]catalog.Value, n)
	for i := range vs {
		vs[i] = catalog.Convert(seedAt(t, i), t.In)
	}
	return vs
}

func seedAt(t combos.Tuple, i int) catalog.Value {
	acc := t.Acc()
	nonNeg := anyUnsigned(t)
	// float accumulator written to an integral output
	narrowing := acc.IsFloating() && !t.Out.IsFloating()
	switch t.Op {
	case ops.Plus:
		switch {
		case !nonNeg:
			return catalog.Int(catalog.Int64, int64(i%13-6))
		case narrowing:
			return catalog.Int(catalog.Int64, int64(i%3))
		}
		return catalog.Int(catalog.Int64, int64(i%13))
	case ops.Multiplies:
		if acc.IsFloating() && t.In.IsFloating() && t.Out.IsFloating() {
			return catalog.Float(catalog.Float64, []float64{1, 2, 0.5, -1}[i%4])
		}
		if anyFloating(t) {
			// products stay below 2*3 per 32 elements
			switch i % 32 {
			case 1:
				return catalog.Int(catalog.Int64, 2)
			case 2:
				return catalog.Int(catalog.Int64, 3)
			}
			return catalog.Int(catalog.Int64, 1)
		}
		return catalog.Int(catalog.Int64, int64([]int{1, 2, 3}[i%3]))
	case ops.LogicalAnd, ops.LogicalOr:
		return catalog.Bool(catalog.Int64, i%5 != 3)
	}
	// minimum, maximum and bitwise operators
	if boundaries(t) {
		switch i % 17 {
		case 16:
			return catalog.MaxValue(t.In)
		case 0:
			return catalog.MinValue(t.In)
		}
	}
	if nonNeg {
		return catalog.Int(catalog.Int64, int64(i%17))
	}
	return catalog.Int(catalog.Int64, int64(i%17-8))
}

func anyFloating(t combos.Tuple) bool {
	return t.In.IsFloating() || t.Acc().IsFloating() || t.Out.IsFloating()
}

func anyUnsigned(t combos.Tuple) bool {
	for _, dt := range []catalog.DataType{t.In, t.Acc(), t.Out} {
		if dt.IsUnsigned() {
			return true
		}
	}
	return false
}

// boundaries reports whether the extreme values of the input type survive
// every conversion of the tuple
func boundaries(t combos.Tuple) bool {
	acc := t.Acc()
	if !t.In.IsFloating() && !acc.IsFloating() && !t.Out.IsFloating() {
		return true
	}
	return t.In.IsFloating() && acc.IsFloating() && t.Out.IsFloating() &&
		t.In.Size() <= acc.Size() && acc.Size() <= t.Out.Size()
}

// InitValue returns the init operand used by the with-init overloads. It
// differs from the operator's identity so that a runtime ignoring it fails.
func InitValue(t combos.Tuple) catalog.Value {
	acc := t.Acc()
	var v int64
	switch t.Op {
	case ops.Plus:
		v = 5
	case ops.Multiplies:
		v = 2
	case ops.Minimum:
		v = 3
	case ops.Maximum:
		v = -3
		if anyUnsigned(t) {
			v = 3
		}
	case ops.BitAnd:
		v = 0x3c
	case ops.BitOr:
		v = 0x40
	case ops.BitXor:
		v = 0x55
	case ops.LogicalAnd:
		v = 0
	case ops.LogicalOr:
		v = 1
	}
	return catalog.Int(acc, v)
}
