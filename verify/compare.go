// Package verify compares observed scan results with the oracle's and
// reports per-combination verdicts.
package verify

import (
	"fmt"
	"math"

	"github.com/notargets/GroupScan/catalog"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
)

// Options configure comparison and reporting
type Options struct {
	// MaxReported bounds the mismatches printed per combination
	MaxReported int
	// ToleranceScale multiplies every type tolerance
	ToleranceScale float64
	// Verbose also prints passing combinations
	Verbose bool
}

// DefaultOptions returns the options used by the suite
func DefaultOptions() Options {
	return Options{MaxReported: 8, ToleranceScale: 1}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.MaxReported <= 0 {
		o.MaxReported = def.MaxReported
	}
	if o.ToleranceScale <= 0 {
		o.ToleranceScale = def.ToleranceScale
	}
	return o
}

// Tolerance returns the scaled tolerance of dt
func (o Options) Tolerance(dt catalog.DataType) catalog.Tolerance {
	tol := catalog.Info(dt).Tol
	s := o.withDefaults().ToleranceScale
	return catalog.Tolerance{Abs: tol.Abs * s, Rel: tol.Rel * s}
}

// Equal compares exactly for integral types and within tol for floating
// types. Two NaNs are equal; infinities must match in sign.
func Equal(want, got catalog.Value, tol catalog.Tolerance) bool {
	if want.Type != got.Type {
		return false
	}
	if !want.Type.IsFloating() {
		return want.Identical(got)
	}
	a, b := want.Float64(), got.Float64()
	switch {
	case math.IsNaN(a) || math.IsNaN(b):
		return math.IsNaN(a) && math.IsNaN(b)
	case math.IsInf(a, 0) || math.IsInf(b, 0):
		return a == b
	}
	return scalar.EqualWithinAbsOrRel(a, b, tol.Abs, tol.Rel)
}

// Mismatch is one position where the observed value is wrong
type Mismatch struct {
	Segment  string
	Position int // index within the segment
	Unit     int // index in the output buffer
	Expected catalog.Value
	Observed catalog.Value
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s position %d (output %d): expected %s, observed %s",
		m.Segment, m.Position, m.Unit, m.Expected, m.Observed)
}

// Comparison accumulates the mismatches of all segments of a combination
type Comparison struct {
	Mismatches []Mismatch
	Checked    int
	// Deviation is the max-norm distance over finite floating point pairs
	Deviation float64
}

// Segment compares one segment. units maps positions to output indices
// and may be nil.
func (o Options) Segment(c *Comparison, label string, units []int, expected, observed []catalog.Value) error {
	if len(expected) != len(observed) {
		return fmt.Errorf("%s: expected %d values, observed %d", label, len(expected), len(observed))
	}
	if units != nil && len(units) != len(expected) {
		return fmt.Errorf("%s: %d output indices for %d values", label, len(units), len(expected))
	}
	var want, got []float64
	for i := range expected {
		unit := i
		if units != nil {
			unit = units[i]
		}
		e, v := expected[i], observed[i]
		if !Equal(e, v, o.Tolerance(e.Type)) {
			c.Mismatches = append(c.Mismatches, Mismatch{Segment: label, Position: i, Unit: unit, Expected: e, Observed: v})
		}
		if e.Type.IsFloating() && finite(e) && finite(v) {
			want = append(want, e.Float64())
			got = append(got, v.Float64())
		}
	}
	c.Checked += len(expected)
	if len(want) > 0 {
		c.Deviation = math.Max(c.Deviation, floats.Distance(want, got, math.Inf(1)))
	}
	return nil
}

func finite(v catalog.Value) bool {
	f := v.Float64()
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
